package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/greengate/greengate/internal/domain"
	"github.com/greengate/greengate/internal/pkg/store/xpgx"
)

// Overlaps below one square metre are edge/point touches, not findings.
const minOverlapHa = 0.0001

// Spatial predicates run as parameterized raw SQL: squirrel has no PostGIS
// expression support, and these CTEs stay behind the Store interface.
const overlapSQL = `
WITH parcel AS (
    SELECT ST_SetSRID(ST_GeomFromGeoJSON($1), 4326) AS geom
), hits AS (
    SELECT
        rl.id,
        COALESCE(rl.source_name, '') AS source_name,
        COALESCE(rl.extra_data, '{}'::jsonb) AS extra_data,
        ST_Area(ST_Intersection(rl.geom, parcel.geom)::geography) / 10000 AS overlap_ha
    FROM reference_layers rl, parcel
    WHERE rl.layer_type = $2
      AND rl.is_active
      AND ST_Intersects(rl.geom, parcel.geom)
      AND ($3::date IS NULL OR rl.reference_date >= $3::date)
)
SELECT id::text, source_name, extra_data, overlap_ha,
       SUM(overlap_ha) OVER () AS total_ha
FROM hits
WHERE overlap_ha > $4
ORDER BY overlap_ha DESC, id
LIMIT $5`

const bufferSQL = `
WITH parcel AS (
    SELECT ST_SetSRID(ST_GeomFromGeoJSON($1), 4326) AS geom
), nearby AS (
    SELECT
        rl.id,
        COALESCE(rl.source_name, '') AS source_name,
        ST_Distance(parcel.geom::geography, rl.geom::geography) AS distance_m
    FROM reference_layers rl, parcel
    WHERE rl.layer_type = $2
      AND rl.is_active
      AND rl.geom && ST_Expand(parcel.geom, $3)
)
SELECT id::text, source_name, distance_m,
       COUNT(*) OVER () AS matched,
       MIN(distance_m) OVER () AS min_distance_m
FROM nearby
WHERE distance_m <= $4
ORDER BY distance_m, id
LIMIT $5`

const legacyVersionsSQL = `
SELECT layer_type,
       'legacy' AS version,
       MAX(reference_date) AS source_date,
       COUNT(*) AS record_count,
       MAX(ingested_at) AS ingested_at
FROM reference_layers
WHERE is_active
GROUP BY layer_type`

func (s *store) Overlapping(ctx context.Context, opts OverlapOpts) (*OverlapResult, error) {
	rows, err := s.pool.Query(ctx, overlapSQL,
		string(opts.GeometryGeoJSON), opts.LayerType, opts.MinReferenceDate, minOverlapHa, opts.MaxFeatures)
	if err != nil {
		return nil, fmt.Errorf("overlap query, layer_type-%s: %w", opts.LayerType, err)
	}
	defer rows.Close()

	result := &OverlapResult{}
	for rows.Next() {
		var (
			match domain.FeatureMatch
			extra []byte
		)
		if err := rows.Scan(&match.ID, &match.Name, &extra, &match.OverlapHa, &result.TotalHa); err != nil {
			return nil, fmt.Errorf("scan overlap row: %w", err)
		}
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &match.Attributes); err != nil {
				return nil, fmt.Errorf("decode extra_data: %w", err)
			}
		}
		result.Features = append(result.Features, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("overlap rows, layer_type-%s: %w", opts.LayerType, err)
	}

	return result, nil
}

func (s *store) BufferOverlap(ctx context.Context, opts ProximityOpts) (*ProximityResult, error) {
	// bbox prefilter in degrees with a conservative margin, the metric
	// test below is what decides.
	bufferDegrees := opts.BufferMeters / 111_000 * 1.5

	rows, err := s.pool.Query(ctx, bufferSQL,
		string(opts.GeometryGeoJSON), opts.LayerType, bufferDegrees, opts.BufferMeters, opts.MaxFeatures)
	if err != nil {
		return nil, fmt.Errorf("buffer query, layer_type-%s: %w", opts.LayerType, err)
	}
	defer rows.Close()

	result := &ProximityResult{}
	for rows.Next() {
		var match domain.FeatureMatch
		if err := rows.Scan(&match.ID, &match.Name, &match.DistanceM, &result.Count, &result.MinDistanceM); err != nil {
			return nil, fmt.Errorf("scan buffer row: %w", err)
		}
		result.Features = append(result.Features, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("buffer rows, layer_type-%s: %w", opts.LayerType, err)
	}

	return result, nil
}

func (s *store) ActiveLayerVersions(ctx context.Context) (map[string]domain.LayerVersion, error) {
	query := builder().
		Select("layer_type", "version", "source_date", "record_count", "ingested_at").
		From(tableDatasetVersions).
		Where(squirrel.Eq{"is_active": true})

	versions, err := xpgx.Selectx[domain.LayerVersion](ctx, s.pool, query)
	if err != nil {
		return nil, wrapErr(err)
	}

	// Legacy fallback: datasets loaded before versioning existed only
	// have reference_layers rows.
	if len(versions) == 0 {
		versions, err = xpgx.Selectx[domain.LayerVersion](ctx, s.pool, squirrel.Expr(legacyVersionsSQL))
		if err != nil {
			return nil, wrapErr(err)
		}
	}

	out := make(map[string]domain.LayerVersion, len(versions))
	for _, v := range versions {
		out[v.LayerType] = *v
	}
	return out, nil
}

func (s *store) LayerFreshness(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.pool.Query(ctx, `
SELECT layer_type, MAX(ingested_at) AS last_updated
FROM reference_layers
WHERE is_active
GROUP BY layer_type
ORDER BY layer_type`)
	if err != nil {
		return nil, fmt.Errorf("freshness query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var (
			layerType string
			updated   time.Time
		)
		if err := rows.Scan(&layerType, &updated); err != nil {
			return nil, fmt.Errorf("scan freshness row: %w", err)
		}
		out[layerType] = updated
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/greengate/greengate/internal/domain"
	"github.com/greengate/greengate/internal/pkg/store/xpgx"
)

var validationColumns = []string{
	"id", "geometry", "area_ha", "layer_versions", "checks",
	"score", "status", "degraded", "submitted_at", "completed_at", "duration_ms",
}

type validationRow struct {
	ID            uuid.UUID `db:"id"`
	Geometry      []byte    `db:"geometry"`
	AreaHa        float64   `db:"area_ha"`
	LayerVersions []byte    `db:"layer_versions"`
	Checks        []byte    `db:"checks"`
	Score         float64   `db:"score"`
	Status        string    `db:"status"`
	Degraded      bool      `db:"degraded"`
	SubmittedAt   time.Time `db:"submitted_at"`
	CompletedAt   time.Time `db:"completed_at"`
	DurationMs    int64     `db:"duration_ms"`
}

func (s *store) InsertValidation(ctx context.Context, record *domain.ValidationRecord) error {
	versions, err := json.Marshal(record.LayerVersions)
	if err != nil {
		return fmt.Errorf("encode layer versions: %w", err)
	}
	checks, err := json.Marshal(record.Checks)
	if err != nil {
		return fmt.Errorf("encode checks: %w", err)
	}

	query := builder().Insert(tableValidations).
		Columns(validationColumns...).
		Values(
			record.ID,
			[]byte(record.Geometry),
			record.AreaHa,
			versions,
			checks,
			record.Score,
			string(record.Status),
			record.Degraded,
			record.SubmittedAt,
			record.CompletedAt,
			record.DurationMs,
		)

	if _, err := xpgx.Execx(ctx, s.pool, query); err != nil {
		return fmt.Errorf("insert validation: %w", wrapErr(err))
	}

	return nil
}

func (s *store) GetValidation(ctx context.Context, id uuid.UUID) (*domain.ValidationRecord, error) {
	query := builder().Select(validationColumns...).
		From(tableValidations).
		Where(squirrel.Eq{"id": id})

	row, err := xpgx.Getx[validationRow](ctx, s.pool, query)
	if err != nil {
		return nil, wrapErr(err)
	}

	record := &domain.ValidationRecord{
		ID:          row.ID,
		Geometry:    row.Geometry,
		AreaHa:      row.AreaHa,
		Score:       row.Score,
		Status:      domain.Status(row.Status),
		Degraded:    row.Degraded,
		SubmittedAt: row.SubmittedAt,
		CompletedAt: row.CompletedAt,
		DurationMs:  row.DurationMs,
	}
	if err := json.Unmarshal(row.LayerVersions, &record.LayerVersions); err != nil {
		return nil, fmt.Errorf("decode layer versions: %w", err)
	}
	if err := json.Unmarshal(row.Checks, &record.Checks); err != nil {
		return nil, fmt.Errorf("decode checks: %w", err)
	}

	return record, nil
}

func (s *store) ListValidations(ctx context.Context, limit, offset int) ([]*domain.ValidationSummary, error) {
	query := builder().
		Select("id", "status", "score", "degraded", "area_ha", "submitted_at", "duration_ms").
		From(tableValidations).
		OrderBy("submitted_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	summaries, err := xpgx.Selectx[domain.ValidationSummary](ctx, s.pool, query)
	if err != nil {
		return nil, wrapErr(err)
	}

	return summaries, nil
}

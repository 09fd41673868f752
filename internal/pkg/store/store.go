package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/greengate/greengate/internal/domain"
	"github.com/greengate/greengate/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

// OverlapOpts parameterizes an intersection query against one reference
// layer. MinReferenceDate filters features to those dated on or after it
// (deforestation cutoff); nil means no date filter.
type OverlapOpts struct {
	LayerType        string
	GeometryGeoJSON  []byte
	MinReferenceDate *time.Time
	MaxFeatures      int
}

// OverlapResult carries the total intersecting area plus the top matched
// features by overlap, capped at MaxFeatures.
type OverlapResult struct {
	TotalHa  float64
	Features []domain.FeatureMatch
}

// ProximityOpts parameterizes a buffer query (features within
// BufferMeters of the parcel boundary).
type ProximityOpts struct {
	LayerType       string
	GeometryGeoJSON []byte
	BufferMeters    float64
	MaxFeatures     int
}

type ProximityResult struct {
	Count        int
	MinDistanceM float64
	Features     []domain.FeatureMatch
}

// Store is the engine's only gateway to reference data and persisted
// validation records. Reference layers are read-only here; they are
// mutated exclusively by the external ingestion pipeline, which swaps
// dataset versions atomically.
type Store interface {
	ActiveLayerVersions(ctx context.Context) (map[string]domain.LayerVersion, error)
	Overlapping(ctx context.Context, opts OverlapOpts) (*OverlapResult, error)
	BufferOverlap(ctx context.Context, opts ProximityOpts) (*ProximityResult, error)

	InsertValidation(ctx context.Context, record *domain.ValidationRecord) error
	GetValidation(ctx context.Context, id uuid.UUID) (*domain.ValidationRecord, error)
	ListValidations(ctx context.Context, limit, offset int) ([]*domain.ValidationSummary, error)

	LayerFreshness(ctx context.Context) (map[string]time.Time, error)
}

type store struct {
	pool Pool
}

func NewStore(pool Pool) Store {
	return &store{pool}
}

package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greengate/greengate/internal/domain"
	"github.com/greengate/greengate/internal/domain/dto"
	"github.com/greengate/greengate/internal/pkg/config"
	"github.com/greengate/greengate/internal/pkg/constants"
	"github.com/greengate/greengate/internal/pkg/geo"
	"github.com/greengate/greengate/internal/pkg/logger"
	"github.com/greengate/greengate/internal/pkg/store"
)

// Service is the validation engine: geometry validation, concurrent
// overlap checks, risk aggregation and record assembly. It holds no
// per-request state; the store pool is shared and read-only for
// reference data.
type Service struct {
	store  store.Store
	cfg    *config.Config
	limits geo.Limits
}

func NewService(st store.Store, cfg *config.Config) *Service {
	return &Service{
		store: st,
		cfg:   cfg,
		limits: geo.NewLimits(
			cfg.MaxVertices, cfg.MaxAreaHa,
			cfg.BBox.MinLon, cfg.BBox.MinLat, cfg.BBox.MaxLon, cfg.BBox.MaxLat,
		),
	}
}

// Validate runs the full pipeline and persists the resulting record.
// Failures never leave a partial record behind.
func (s *Service) Validate(ctx context.Context, payload *dto.GeometryPayload) (*domain.ValidationRecord, error) {
	record, err := s.run(ctx, payload)
	if err != nil {
		return nil, err
	}

	if err := s.store.InsertValidation(ctx, record); err != nil {
		logger.Errorf(ctx, "InsertValidation, id-%s: %s", record.ID, err.Error())
		return nil, fmt.Errorf("%w: persist validation", constants.ErrInternal)
	}

	return record, nil
}

// QuickValidate runs the same pipeline without persisting, for callers
// that only need the verdict.
func (s *Service) QuickValidate(ctx context.Context, payload *dto.GeometryPayload) (*domain.ValidationRecord, error) {
	return s.run(ctx, payload)
}

func (s *Service) GetValidation(ctx context.Context, id uuid.UUID) (*domain.ValidationRecord, error) {
	record, err := s.store.GetValidation(ctx, id)
	if err != nil {
		if errors.Is(err, constants.ErrDBNotFound) {
			return nil, constants.ErrNotFound
		}
		return nil, fmt.Errorf("GetValidation: %w", err)
	}
	return record, nil
}

func (s *Service) ListValidations(ctx context.Context, limit, offset int) ([]*domain.ValidationSummary, error) {
	return s.store.ListValidations(ctx, limit, offset)
}

func (s *Service) LayerFreshness(ctx context.Context) (map[string]time.Time, error) {
	return s.store.LayerFreshness(ctx)
}

func (s *Service) run(ctx context.Context, payload *dto.GeometryPayload) (*domain.ValidationRecord, error) {
	submitted := time.Now().UTC()

	// Input errors abort before any spatial query is issued.
	geometry, err := geo.ValidateAndNormalize(payload, s.limits)
	if err != nil {
		return nil, err
	}

	geomJSON, err := geometry.GeoJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: encode geometry", constants.ErrInternal)
	}

	// One consistent version snapshot per validation; every check is
	// stamped with the version that answered it.
	versions, err := s.store.ActiveLayerVersions(ctx)
	if err != nil {
		logger.Errorf(ctx, "ActiveLayerVersions: %s", err.Error())
		return nil, fmt.Errorf("%w: load layer versions", constants.ErrAllLayersUnavailable)
	}

	checks := s.runChecks(ctx, geomJSON, geometry.AreaHa, versions)
	if err := ctx.Err(); err != nil {
		// Cancelled mid-flight: discard partial results, persist nothing.
		return nil, err
	}

	unavailable := 0
	for _, check := range checks {
		if check.State == domain.CheckStateUnavailable {
			unavailable++
		}
	}
	if unavailable == len(checks) {
		return nil, constants.ErrAllLayersUnavailable
	}

	score, status, degraded := s.aggregate(checks)

	completed := time.Now().UTC()
	record := &domain.ValidationRecord{
		ID:            uuid.New(),
		Geometry:      geomJSON,
		AreaHa:        decimal.NewFromFloat(geometry.AreaHa).Round(4).InexactFloat64(),
		LayerVersions: versionsUsed(versions),
		Checks:        checks,
		Score:         score,
		Status:        status,
		Degraded:      degraded,
		SubmittedAt:   submitted,
		CompletedAt:   completed,
		DurationMs:    completed.Sub(submitted).Milliseconds(),
	}

	logger.Infof(ctx, "validation completed, id-%s status-%s score-%.1f degraded-%t duration-%dms",
		record.ID, record.Status, record.Score, record.Degraded, record.DurationMs)

	return record, nil
}

// versionsUsed narrows the store snapshot to the layers the checks
// actually consult.
func versionsUsed(versions map[string]domain.LayerVersion) map[string]domain.LayerVersion {
	used := make(map[string]domain.LayerVersion, len(domain.Categories()))
	for _, category := range domain.Categories() {
		if v, ok := versions[category.LayerType()]; ok {
			used[category.LayerType()] = v
		}
	}
	return used
}

package validation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greengate/greengate/internal/domain"
	"github.com/greengate/greengate/internal/domain/dto"
	"github.com/greengate/greengate/internal/pkg/config"
	"github.com/greengate/greengate/internal/pkg/constants"
	"github.com/greengate/greengate/internal/pkg/store"
)

// fixtureStore satisfies store.Store with canned per-layer answers and
// counts every spatial call it receives.
type fixtureStore struct {
	mu sync.Mutex

	versions     map[string]domain.LayerVersion
	overlaps     map[string]*store.OverlapResult
	overlapErrs  map[string]error
	proximity    *store.ProximityResult
	proximityErr error

	spatialCalls int
	records      map[uuid.UUID]*domain.ValidationRecord
}

func newFixtureStore() *fixtureStore {
	versions := make(map[string]domain.LayerVersion)
	for _, category := range domain.Categories() {
		versions[category.LayerType()] = domain.LayerVersion{
			LayerType:   category.LayerType(),
			Version:     "2025-07",
			RecordCount: 1000,
			IngestedAt:  time.Now().UTC(),
		}
	}
	return &fixtureStore{
		versions:    versions,
		overlaps:    make(map[string]*store.OverlapResult),
		overlapErrs: make(map[string]error),
		proximity:   &store.ProximityResult{},
		records:     make(map[uuid.UUID]*domain.ValidationRecord),
	}
}

func (f *fixtureStore) ActiveLayerVersions(context.Context) (map[string]domain.LayerVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]domain.LayerVersion, len(f.versions))
	for k, v := range f.versions {
		out[k] = v
	}
	return out, nil
}

func (f *fixtureStore) Overlapping(ctx context.Context, opts store.OverlapOpts) (*store.OverlapResult, error) {
	f.mu.Lock()
	f.spatialCalls++
	err := f.overlapErrs[opts.LayerType]
	overlap := f.overlaps[opts.LayerType]
	f.mu.Unlock()

	if err != nil {
		if err == context.DeadlineExceeded {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return nil, err
	}
	if overlap == nil {
		return &store.OverlapResult{}, nil
	}
	return overlap, nil
}

func (f *fixtureStore) BufferOverlap(ctx context.Context, opts store.ProximityOpts) (*store.ProximityResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spatialCalls++
	if f.proximityErr != nil {
		return nil, f.proximityErr
	}
	return f.proximity, nil
}

func (f *fixtureStore) InsertValidation(_ context.Context, record *domain.ValidationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = record
	return nil
}

func (f *fixtureStore) GetValidation(_ context.Context, id uuid.UUID) (*domain.ValidationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, constants.ErrDBNotFound
	}
	return record, nil
}

func (f *fixtureStore) ListValidations(context.Context, int, int) ([]*domain.ValidationSummary, error) {
	return nil, nil
}

func (f *fixtureStore) LayerFreshness(context.Context) (map[string]time.Time, error) {
	return map[string]time.Time{}, nil
}

func (f *fixtureStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spatialCalls
}

func testConfig() *config.Config {
	return &config.Config{
		MaxVertices: 10_000,
		MaxAreaHa:   10_000,
		BBox:        config.BBox{MinLon: -73.99, MinLat: -33.75, MaxLon: -34.79, MaxLat: 5.27},
		Weights: map[domain.Category]int{
			domain.CategoryDeforestationAlert:  35,
			domain.CategoryConservationUnit:    10,
			domain.CategoryIndigenousTerritory: 20,
			domain.CategoryWaterBuffer:         10,
			domain.CategoryEmbargo:             15,
			domain.CategoryQuilombola:          10,
		},
		WarningThreshold:   20,
		RejectedThreshold:  50,
		UnavailablePenalty: 0.5,
		BufferWaterMeters:  30,
		CheckTimeout:       time.Second,
		LayerMaxAge:        90 * 24 * time.Hour,
		MaxFeatures:        10,
		AlertCutoffDate:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func squarePayload() *dto.GeometryPayload {
	return &dto.GeometryPayload{
		Type: "Polygon",
		Coordinates: [][][]float64{{
			{-50.00, -15.00},
			{-50.00, -15.01},
			{-49.99, -15.01},
			{-49.99, -15.00},
			{-50.00, -15.00},
		}},
	}
}

func TestValidateCleanParcel(t *testing.T) {
	st := newFixtureStore()
	svc := NewService(st, testConfig())

	record, err := svc.Validate(context.Background(), squarePayload())
	require.NoError(t, err)

	require.Len(t, record.Checks, 6)
	for i, category := range domain.Categories() {
		assert.Equal(t, category, record.Checks[i].Category)
		assert.Equal(t, domain.CheckStateClear, record.Checks[i].State)
		assert.Equal(t, "2025-07", record.Checks[i].LayerVersion)
	}

	assert.Zero(t, record.Score)
	assert.Equal(t, domain.StatusApproved, record.Status)
	assert.False(t, record.Degraded)
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Len(t, record.LayerVersions, 6)
	assert.False(t, record.CompletedAt.Before(record.SubmittedAt))

	// The persisted record is the returned one.
	stored, err := svc.GetValidation(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Score, stored.Score)
	assert.Equal(t, record.Status, stored.Status)
}

func TestValidateIndigenousOverlapRejects(t *testing.T) {
	st := newFixtureStore()
	st.overlaps[domain.CategoryIndigenousTerritory.LayerType()] = &store.OverlapResult{
		TotalHa: 118,
		Features: []domain.FeatureMatch{
			{ID: "ti-1", Name: "TI Xavante", OverlapHa: 118},
		},
	}
	svc := NewService(st, testConfig())

	record, err := svc.QuickValidate(context.Background(), squarePayload())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRejected, record.Status)
	assert.GreaterOrEqual(t, record.Score, testConfig().RejectedThreshold)

	check := record.Checks[2]
	require.Equal(t, domain.CategoryIndigenousTerritory, check.Category)
	assert.Equal(t, domain.CheckStateOverlap, check.State)
	assert.True(t, check.Overlap)
	assert.True(t, check.Critical)
	assert.Equal(t, "ti-1", check.Features[0].ID)
	assert.InDelta(t, 100, check.OverlapPct, 2)
}

func TestValidateSingleLayerUnavailable(t *testing.T) {
	st := newFixtureStore()
	delete(st.versions, domain.CategoryConservationUnit.LayerType())
	svc := NewService(st, testConfig())

	record, err := svc.QuickValidate(context.Background(), squarePayload())
	require.NoError(t, err)

	assert.True(t, record.Degraded)
	assert.Equal(t, domain.StatusApproved, record.Status)

	check := record.Checks[1]
	require.Equal(t, domain.CategoryConservationUnit, check.Category)
	assert.Equal(t, domain.CheckStateUnavailable, check.State)
	assert.False(t, check.Overlap)

	// Penalty contributes, so the score is nonzero even with no findings.
	assert.Greater(t, record.Score, 0.0)
	assert.Less(t, record.Score, testConfig().WarningThreshold)
}

func TestValidateAllLayersUnavailable(t *testing.T) {
	st := newFixtureStore()
	st.versions = map[string]domain.LayerVersion{}
	svc := NewService(st, testConfig())

	_, err := svc.Validate(context.Background(), squarePayload())
	require.ErrorIs(t, err, constants.ErrAllLayersUnavailable)
	assert.Empty(t, st.records)
}

func TestValidateStaleLayerUnavailable(t *testing.T) {
	st := newFixtureStore()
	layer := domain.CategoryEmbargo.LayerType()
	stale := st.versions[layer]
	stale.IngestedAt = time.Now().Add(-120 * 24 * time.Hour)
	st.versions[layer] = stale
	svc := NewService(st, testConfig())

	record, err := svc.QuickValidate(context.Background(), squarePayload())
	require.NoError(t, err)

	assert.True(t, record.Degraded)
	assert.Equal(t, domain.CheckStateUnavailable, record.Checks[4].State)
}

func TestValidateOversizedGeometryHitsNoLayer(t *testing.T) {
	ring := make([][]float64, 0, 10_001)
	for i := 0; i < 10_001; i++ {
		ring = append(ring, []float64{-50.0, -15.0})
	}
	payload := &dto.GeometryPayload{Type: "Polygon", Coordinates: [][][]float64{ring}}

	st := newFixtureStore()
	svc := NewService(st, testConfig())

	_, err := svc.Validate(context.Background(), payload)
	require.ErrorIs(t, err, constants.ErrGeometryTooLarge)
	assert.Zero(t, st.calls())
	assert.Empty(t, st.records)
}

func TestValidateIdempotent(t *testing.T) {
	st := newFixtureStore()
	st.overlaps[domain.CategoryDeforestationAlert.LayerType()] = &store.OverlapResult{
		TotalHa:  2.5,
		Features: []domain.FeatureMatch{{ID: "prodes-9", OverlapHa: 2.5}},
	}
	st.proximity = &store.ProximityResult{
		Count:        1,
		MinDistanceM: 12,
		Features:     []domain.FeatureMatch{{ID: "river-1", DistanceM: 12}},
	}
	svc := NewService(st, testConfig())

	first, err := svc.QuickValidate(context.Background(), squarePayload())
	require.NoError(t, err)
	second, err := svc.QuickValidate(context.Background(), squarePayload())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Degraded, second.Degraded)
	require.Equal(t, len(first.Checks), len(second.Checks))
	for i := range first.Checks {
		assert.Equal(t, first.Checks[i], second.Checks[i])
	}
}

func TestValidateResultsInvariantToRingRotationAndWinding(t *testing.T) {
	st := newFixtureStore()
	st.overlaps[domain.CategoryQuilombola.LayerType()] = &store.OverlapResult{
		TotalHa:  10,
		Features: []domain.FeatureMatch{{ID: "q-1", OverlapHa: 10}},
	}
	svc := NewService(st, testConfig())

	rotated := &dto.GeometryPayload{
		Type: "Polygon",
		Coordinates: [][][]float64{{
			{-49.99, -15.01},
			{-49.99, -15.00},
			{-50.00, -15.00},
			{-50.00, -15.01},
			{-49.99, -15.01},
		}},
	}

	base := squarePayload()
	reversed := &dto.GeometryPayload{Type: "Polygon", Coordinates: [][][]float64{{}}}
	ring := base.Coordinates[0]
	for i := len(ring) - 1; i >= 0; i-- {
		reversed.Coordinates[0] = append(reversed.Coordinates[0], ring[i])
	}

	want, err := svc.QuickValidate(context.Background(), base)
	require.NoError(t, err)

	for name, p := range map[string]*dto.GeometryPayload{"rotated": rotated, "reversed": reversed} {
		got, err := svc.QuickValidate(context.Background(), p)
		require.NoError(t, err, name)

		assert.Equal(t, want.Score, got.Score, name)
		assert.Equal(t, want.Status, got.Status, name)
		assert.Equal(t, string(want.Geometry), string(got.Geometry), name)
		for i := range want.Checks {
			assert.Equal(t, want.Checks[i].Overlap, got.Checks[i].Overlap, name)
		}
	}
}

func TestValidateCategoryTimeoutDegradesThatCheckOnly(t *testing.T) {
	cfg := testConfig()
	cfg.CheckTimeout = 50 * time.Millisecond

	st := newFixtureStore()
	st.overlapErrs[domain.CategoryEmbargo.LayerType()] = context.DeadlineExceeded
	svc := NewService(st, cfg)

	record, err := svc.QuickValidate(context.Background(), squarePayload())
	require.NoError(t, err)

	assert.True(t, record.Degraded)
	assert.Equal(t, domain.CheckStateUnavailable, record.Checks[4].State)
	for i, check := range record.Checks {
		if i == 4 {
			continue
		}
		assert.Equal(t, domain.CheckStateClear, check.State)
	}
}

func TestValidateCancelledRequestDiscarded(t *testing.T) {
	st := newFixtureStore()
	svc := NewService(st, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Validate(ctx, squarePayload())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, st.records)
}

func TestGetValidationNotFound(t *testing.T) {
	svc := NewService(newFixtureStore(), testConfig())

	_, err := svc.GetValidation(context.Background(), uuid.New())
	require.ErrorIs(t, err, constants.ErrNotFound)
}

package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/greengate/greengate/internal/domain"
	"github.com/greengate/greengate/internal/pkg/logger"
	"github.com/greengate/greengate/internal/pkg/store"
)

// Conservation-unit categories under integral protection. Overlap with
// these is a blocking finding; sustainable-use units only scale with the
// overlap share.
var integralProtection = map[string]struct{}{
	"PARNA": {}, "ESEC": {}, "REBIO": {}, "EE": {}, "MN": {},
}

// criticalCategories are the absolute legal restrictions: a confirmed
// overlap floors the score at the rejected threshold no matter what the
// other checks say.
var criticalCategories = map[domain.Category]struct{}{
	domain.CategoryDeforestationAlert:  {},
	domain.CategoryIndigenousTerritory: {},
	domain.CategoryEmbargo:             {},
	domain.CategoryQuilombola:          {},
}

// runChecks fans the six category checks out concurrently and collects
// the results in fixed category order regardless of completion order.
// A failing category degrades its own slot only.
func (s *Service) runChecks(ctx context.Context, geomJSON []byte, areaHa float64, versions map[string]domain.LayerVersion) []domain.CheckResult {
	categories := domain.Categories()
	results := make([]domain.CheckResult, len(categories))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, category := range categories {
		i, category := i, category
		eg.Go(func() error {
			checkCtx, cancel := context.WithTimeout(egCtx, s.cfg.CheckTimeout)
			defer cancel()

			results[i] = s.runCheck(checkCtx, category, geomJSON, areaHa, versions)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func (s *Service) runCheck(ctx context.Context, category domain.Category, geomJSON []byte, areaHa float64, versions map[string]domain.LayerVersion) domain.CheckResult {
	result := domain.CheckResult{
		Category: category,
		State:    domain.CheckStateClear,
		Weight:   s.cfg.Weights[category],
	}

	version, ok := versions[category.LayerType()]
	if !ok {
		return s.unavailable(ctx, result, "no active dataset")
	}
	if time.Since(version.IngestedAt) > s.cfg.LayerMaxAge {
		return s.unavailable(ctx, result, fmt.Sprintf("dataset stale, ingested %s", version.IngestedAt.Format(time.RFC3339)))
	}
	result.LayerVersion = version.Version

	if category == domain.CategoryWaterBuffer {
		return s.runBufferCheck(ctx, result, geomJSON)
	}
	return s.runOverlapCheck(ctx, result, category, geomJSON, areaHa)
}

func (s *Service) runOverlapCheck(ctx context.Context, result domain.CheckResult, category domain.Category, geomJSON []byte, areaHa float64) domain.CheckResult {
	opts := store.OverlapOpts{
		LayerType:       category.LayerType(),
		GeometryGeoJSON: geomJSON,
		MaxFeatures:     s.cfg.MaxFeatures,
	}
	if category == domain.CategoryDeforestationAlert {
		// Alerts predating the regulatory cutoff are not findings.
		cutoff := s.cfg.AlertCutoffDate
		opts.MinReferenceDate = &cutoff
	}

	overlap, err := s.store.Overlapping(ctx, opts)
	if err != nil {
		return s.unavailable(ctx, result, err.Error())
	}

	if overlap.TotalHa <= 0 {
		result.Message = fmt.Sprintf("no overlap with %s", category.LayerType())
		return result
	}

	result.State = domain.CheckStateOverlap
	result.Overlap = true
	result.OverlapHa = decimal.NewFromFloat(overlap.TotalHa).Round(4).InexactFloat64()
	if areaHa > 0 {
		pct := decimal.NewFromFloat(overlap.TotalHa).
			Div(decimal.NewFromFloat(areaHa)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		result.OverlapPct = pct.InexactFloat64()
	}
	result.Features = overlap.Features
	result.Critical = isCritical(category, overlap.Features)
	result.Message = fmt.Sprintf("overlap with %s: %.4f ha (%s)", category.LayerType(), result.OverlapHa, featureNames(overlap.Features))

	return result
}

// runBufferCheck is the permanent-preservation proximity check: water
// features within the configured buffer distance of the parcel count,
// measured by minimum distance rather than intersection area.
func (s *Service) runBufferCheck(ctx context.Context, result domain.CheckResult, geomJSON []byte) domain.CheckResult {
	proximity, err := s.store.BufferOverlap(ctx, store.ProximityOpts{
		LayerType:       result.Category.LayerType(),
		GeometryGeoJSON: geomJSON,
		BufferMeters:    s.cfg.BufferWaterMeters,
		MaxFeatures:     s.cfg.MaxFeatures,
	})
	if err != nil {
		return s.unavailable(ctx, result, err.Error())
	}

	if proximity.Count == 0 {
		result.Message = fmt.Sprintf("no water body within %.0f m", s.cfg.BufferWaterMeters)
		return result
	}

	minDistance := decimal.NewFromFloat(proximity.MinDistanceM).Round(1).InexactFloat64()
	result.State = domain.CheckStateOverlap
	result.Overlap = true
	result.DistanceM = &minDistance
	result.Features = proximity.Features
	result.Message = fmt.Sprintf("water body within %.0f m buffer, closest at %.1f m", s.cfg.BufferWaterMeters, minDistance)

	return result
}

func (s *Service) unavailable(ctx context.Context, result domain.CheckResult, reason string) domain.CheckResult {
	logger.Warnf(ctx, "check unavailable, category-%s: %s", result.Category, reason)

	result.State = domain.CheckStateUnavailable
	result.Overlap = false
	result.Message = fmt.Sprintf("check could not run: %s", reason)
	return result
}

func isCritical(category domain.Category, features []domain.FeatureMatch) bool {
	if _, ok := criticalCategories[category]; ok {
		return true
	}
	if category != domain.CategoryConservationUnit {
		return false
	}
	for _, feature := range features {
		if code, ok := feature.Attributes["category"].(string); ok {
			if _, integral := integralProtection[strings.ToUpper(code)]; integral {
				return true
			}
		}
	}
	return false
}

func featureNames(features []domain.FeatureMatch) string {
	names := make([]string, 0, 3)
	for _, feature := range features {
		if feature.Name == "" {
			continue
		}
		names = append(names, feature.Name)
		if len(names) == 3 {
			break
		}
	}
	if len(names) == 0 {
		return "unnamed features"
	}
	return strings.Join(names, ", ")
}

package validation

import (
	"github.com/shopspring/decimal"

	"github.com/greengate/greengate/internal/domain"
)

// aggregate folds the fixed-order check results into a risk score in
// [0,100] and a status.
//
// A confirmed intersection contributes its category's full weight.
// Partial-type checks scale: the water buffer by proximity (closer is
// worse), sustainable-use conservation units by overlap share. An
// unavailable check contributes the configured fraction of its weight
// (never zero) and marks the record degraded. Any critical finding
// floors the score at the rejected threshold, so constitutional and
// embargo restrictions reject regardless of the remaining categories.
func (s *Service) aggregate(checks []domain.CheckResult) (float64, domain.Status, bool) {
	var (
		totalWeight  = decimal.Zero
		contribution = decimal.Zero
		degraded     bool
		critical     bool
	)

	penalty := decimal.NewFromFloat(s.cfg.UnavailablePenalty)

	for _, check := range checks {
		weight := decimal.NewFromInt(int64(check.Weight))
		totalWeight = totalWeight.Add(weight)

		switch check.State {
		case domain.CheckStateUnavailable:
			contribution = contribution.Add(weight.Mul(penalty))
			degraded = true

		case domain.CheckStateOverlap:
			contribution = contribution.Add(weight.Mul(s.overlapFraction(check)))
			if check.Critical {
				critical = true
			}
		}
	}

	score := decimal.Zero
	if totalWeight.IsPositive() {
		score = contribution.Div(totalWeight).Mul(decimal.NewFromInt(100)).Round(1)
	}

	rejected := decimal.NewFromFloat(s.cfg.RejectedThreshold)
	if critical && score.LessThan(rejected) {
		score = rejected
	}

	status := domain.StatusApproved
	switch {
	case score.GreaterThanOrEqual(rejected):
		status = domain.StatusRejected
	case score.GreaterThanOrEqual(decimal.NewFromFloat(s.cfg.WarningThreshold)):
		status = domain.StatusWarning
	}

	return score.InexactFloat64(), status, degraded
}

// overlapFraction is the share of the category weight a confirmed
// finding contributes, in [0,1].
func (s *Service) overlapFraction(check domain.CheckResult) decimal.Decimal {
	one := decimal.NewFromInt(1)

	switch {
	case check.Category == domain.CategoryWaterBuffer && check.DistanceM != nil:
		buffer := decimal.NewFromFloat(s.cfg.BufferWaterMeters)
		if !buffer.IsPositive() {
			return one
		}
		fraction := one.Sub(decimal.NewFromFloat(*check.DistanceM).Div(buffer))
		return clamp01(fraction)

	case check.Category == domain.CategoryConservationUnit && !check.Critical:
		fraction := decimal.NewFromFloat(check.OverlapPct).Div(decimal.NewFromInt(100))
		return clamp01(fraction)
	}

	return one
}

func clamp01(d decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(one) {
		return one
	}
	return d
}

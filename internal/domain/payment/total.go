package payment

import (
	"math"

	"uniform-studio/internal/domain/design"
	studio_errors "uniform-studio/pkg/errors"
)

// MaxPayableTotal is the largest total the gateway or wallet will be asked to charge.
const MaxPayableTotal int64 = 200_000_000

type Breakdown struct {
	Subtotal int64   `json:"subtotal"`
	Fee      int64   `json:"fee"`
	Total    int64   `json:"total"`
	Rate     float64 `json:"service_rate"`
}

// ComputeTotal prices a base amount plus extra revisions and the service fee.
// An extraCount of design.UnlimitedRevisions adds nothing to the subtotal.
func ComputeTotal(basePrice int64, extraCount int, extraUnitPrice int64, serviceRate float64) (Breakdown, error) {
	if basePrice < 0 || extraCount < 0 || extraUnitPrice < 0 || serviceRate < 0 {
		return Breakdown{}, studio_errors.ErrInvalidInput
	}

	extra := 0.0
	if design.RevisionQuota(extraCount) != design.UnlimitedRevisions {
		extra = float64(extraCount) * float64(extraUnitPrice)
	}

	subtotal := math.Round(float64(basePrice) + extra)
	fee := math.Round(subtotal * serviceRate)
	total := math.Round(subtotal + fee)

	b := Breakdown{
		Subtotal: int64(subtotal),
		Fee:      int64(fee),
		Total:    int64(total),
		Rate:     serviceRate,
	}
	if total > float64(MaxPayableTotal) {
		return b, studio_errors.ErrPaymentCeiling
	}
	return b, nil
}

// FeeTier applies Rate to subtotals up to and including UpTo. UpTo <= 0 means no bound.
type FeeTier struct {
	UpTo int64
	Rate float64
}

// FeeSchedule is the fallback used when the configured service rate is unavailable.
type FeeSchedule []FeeTier

func (s FeeSchedule) RateFor(subtotal int64) float64 {
	for _, tier := range s {
		if tier.UpTo <= 0 || subtotal <= tier.UpTo {
			return tier.Rate
		}
	}
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Rate
}

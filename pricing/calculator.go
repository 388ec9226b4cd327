package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/premium-engine/calendar"
)

// =============================================================================
// CALCULATOR - Final premium from base premium and adjustments
// =============================================================================

// Quote is the result of a calculation: the final premium and the adjustments
// that produced it, in aggregation order.
type Quote struct {
	BasePremium  Premium
	FinalPremium Premium
	Adjustments  []AppliedAdjustment
	Total        Percentage
	AsOf         calendar.Date
}

// Calculator prices a base premium against a pricing context.
//
// Calculate is a pure function of its arguments and the provider's data:
// identical inputs always give identical quotes, so re-pricing at activation
// is safe to retry. It is safe for concurrent use.
type Calculator struct {
	aggregator *Aggregator
}

// NewCalculator returns a Calculator using the given aggregator.
func NewCalculator(aggregator *Aggregator) *Calculator {
	return &Calculator{aggregator: aggregator}
}

// Calculate computes round(base * (1 + sum), 2, half-up).
func (c *Calculator) Calculate(ctx context.Context, base Premium, pc PricingContext, asOf calendar.Date) (Quote, error) {
	if !base.Decimal().IsPositive() {
		return Quote{}, invalid("base premium", "must be greater than zero")
	}

	adj, err := c.aggregator.Aggregate(ctx, pc, asOf)
	if err != nil {
		return Quote{}, err
	}

	final, err := ApplyAdjustments(base, adj.Total)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		BasePremium:  base,
		FinalPremium: final,
		Adjustments:  adj.Items,
		Total:        adj.Total,
		AsOf:         asOf,
	}, nil
}

// ApplyAdjustments multiplies base by (1 + total) and rounds half-up to money
// precision.
func ApplyAdjustments(base Premium, total Percentage) (Premium, error) {
	factor := decimal.NewFromInt(1).Add(total.Decimal())
	raw := base.Decimal().Mul(factor)
	// Round is half away from zero, which is half-up for positive amounts.
	rounded := raw.Round(MoneyScale)
	if !rounded.IsPositive() {
		return Premium{}, ErrNonPositivePremium
	}
	return Premium{value: rounded}, nil
}

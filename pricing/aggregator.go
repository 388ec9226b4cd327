/*
aggregator.go - Assembles the ordered adjustment list for a pricing context

ORDER (fixed, reproducible):
  1. Risk factors matching country, county, city or building type.
     Every matching level is included, not only the most specific one.
  2. Fees of every type except RISK_ADJUSTMENT, effective on asOf.
  3. RISK_ADJUSTMENT fees effective on asOf whose code names a risk
     indicator that is present and true on the context.
  4. The broker commission, when the context carries one (zero included).

  AppliedOrder is the zero-based position in this sequence.

  ┌─────────────┐   ┌──────────┐   ┌──────────────────┐   ┌────────────┐
  │ risk factors│──▶│   fees   │──▶│ risk-adjust fees │──▶│ commission │
  └─────────────┘   └──────────┘   └──────────────────┘   └────────────┘

UNKNOWN INDICATOR CODES:
  A RISK_ADJUSTMENT fee whose code names no known indicator is skipped
  without error.

SEE ALSO:
  - calculator.go: consumes Aggregate
  - provider.go: RateProvider contract
*/
package pricing

import (
	"context"

	"github.com/warp/premium-engine/calendar"
)

// Aggregator builds adjustment lists. It holds no mutable state and is safe
// for concurrent use.
type Aggregator struct {
	rates RateProvider
}

// NewAggregator returns an Aggregator reading from rates.
func NewAggregator(rates RateProvider) *Aggregator {
	return &Aggregator{rates: rates}
}

// Aggregate returns the adjustments applicable to pc on asOf, in order, with
// their exact sum. An empty list sums to zero.
func (a *Aggregator) Aggregate(ctx context.Context, pc PricingContext, asOf calendar.Date) (Adjustments, error) {
	if err := pc.Validate(); err != nil {
		return Adjustments{}, err
	}
	if asOf.IsZero() {
		return Adjustments{}, invalid("as-of date", "required")
	}

	var items []AppliedAdjustment
	add := func(sourceType, sourceID, name string, pct Percentage) {
		items = append(items, AppliedAdjustment{
			SourceType:   sourceType,
			SourceID:     sourceID,
			Name:         name,
			Percentage:   pct,
			AppliedOrder: len(items),
		})
	}

	// 1. Risk factors
	factors, err := a.rates.ActiveRiskFactors(ctx, pc.Targets())
	if err != nil {
		return Adjustments{}, err
	}
	for _, rf := range factors {
		if !rf.Active || !pc.Matches(rf.Target) {
			continue
		}
		add(SourceRiskFactor, rf.ID, rf.DisplayName(), rf.Percentage)
	}

	// 2. Catalog fees
	fees, err := a.rates.ActiveFeesExcludingType(ctx, FeeRiskAdjustment, asOf)
	if err != nil {
		return Adjustments{}, err
	}
	for _, f := range fees {
		if f.Type == FeeRiskAdjustment || !f.AppliesOn(asOf) {
			continue
		}
		add(FeeSourceType(f.Type), f.ID, f.Name, f.Percentage)
	}

	// 3. Risk-indicator fees
	riskFees, err := a.rates.ActiveFeesByType(ctx, FeeRiskAdjustment, asOf)
	if err != nil {
		return Adjustments{}, err
	}
	if pc.RiskIndicators != nil {
		for _, f := range riskFees {
			if f.Type != FeeRiskAdjustment || !f.AppliesOn(asOf) {
				continue
			}
			if set, _ := pc.RiskIndicators.Flag(f.Code); !set {
				continue
			}
			add(FeeSourceType(FeeRiskAdjustment), f.ID, f.Name, f.Percentage)
		}
	}

	// 4. Broker commission
	if pc.BrokerCommission != nil {
		add(SourceBrokerCommission, pc.BrokerID, BrokerCommissionName, *pc.BrokerCommission)
	}

	total := ZeroPercentage()
	for _, it := range items {
		total = total.Add(it.Percentage)
	}
	return Adjustments{Items: items, Total: total}, nil
}

package pricing_test

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/warp/premium-engine/policy/store"
	"github.com/warp/premium-engine/pricing"
)

// TestCalculatePurity verifies repeated calculations agree bit for bit and
// that an unrelated calculation in between does not change the result.
// Property: Calculate(x) == Calculate(y); Calculate(x) for any x, y
func TestCalculatePurity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	catalog := store.NewMemory()
	catalog.AddRiskFactor(riskFactor(t, "rf-1", pricing.LevelCountry, "country-ro", "0.0125"))
	catalog.AddFee(fee("fee-1", "ADMIN", pricing.FeeAdmin, "0.0333"))
	catalog.AddFee(fee("fee-flood", pricing.IndicatorFloodZone, pricing.FeeRiskAdjustment, "0.02"))
	calc := newCalculator(catalog)

	properties.Property("calculation is pure", prop.ForAll(
		func(cents int64, otherCents int64, flood bool, commissionBp int64) bool {
			base, err := pricing.NewPremium(decimal.New(cents, -2))
			if err != nil {
				return false
			}
			other, err := pricing.NewPremium(decimal.New(otherCents, -2))
			if err != nil {
				return false
			}

			pc := testContext()
			pc.RiskIndicators = &pricing.RiskIndicators{FloodZone: &flood}
			commission := pricing.NewPercentage(decimal.New(commissionBp, -4))
			pc.BrokerCommission = &commission

			ctx := context.Background()
			first, err1 := calc.Calculate(ctx, base, pc, asOf)
			_, _ = calc.Calculate(ctx, other, testContext(), asOf)
			second, err2 := calc.Calculate(ctx, base, pc, asOf)
			if err1 != nil || err2 != nil {
				return false
			}

			if !first.FinalPremium.Equal(second.FinalPremium) || first.FinalPremium.String() != second.FinalPremium.String() {
				return false
			}
			if len(first.Adjustments) != len(second.Adjustments) {
				return false
			}
			for i := range first.Adjustments {
				a, b := first.Adjustments[i], second.Adjustments[i]
				if a.SourceType != b.SourceType || a.SourceID != b.SourceID ||
					a.AppliedOrder != b.AppliedOrder || !a.Percentage.Equal(b.Percentage) {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 100_000_000),
		gen.Int64Range(1, 100_000_000),
		gen.Bool(),
		gen.Int64Range(0, 2_000),
	))

	properties.TestingRun(t)
}

// TestFinalPremiumHasMoneyScale verifies the final premium never carries more
// than two fractional digits.
func TestFinalPremiumHasMoneyScale(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("final premium is rounded to cents", prop.ForAll(
		func(cents int64, bp int64) bool {
			base, err := pricing.NewPremium(decimal.New(cents, -2))
			if err != nil {
				return false
			}
			final, err := pricing.ApplyAdjustments(base, pricing.NewPercentage(decimal.New(bp, -4)))
			if err != nil {
				return false
			}
			d := final.Decimal()
			return d.Equal(d.Round(pricing.MoneyScale))
		},
		gen.Int64Range(1, 100_000_000),
		gen.Int64Range(0, 50_000),
	))

	properties.TestingRun(t)
}

package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/policy/store"
	"github.com/warp/premium-engine/pricing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var asOf = calendar.NewDate(2026, time.June, 1)

func boolPtr(b bool) *bool { return &b }

func pctPtr(s string) *pricing.Percentage {
	p := pricing.MustPercentage(s)
	return &p
}

func testContext() pricing.PricingContext {
	return pricing.PricingContext{
		CountryID:    "country-ro",
		CountyID:     "county-cj",
		CityID:       "city-cluj",
		BuildingType: "RESIDENTIAL",
		BrokerID:     "broker-1",
	}
}

func newCalculator(catalog *store.Memory) *pricing.Calculator {
	return pricing.NewCalculator(pricing.NewAggregator(catalog))
}

func target(t *testing.T, level pricing.TargetLevel, value string) pricing.RiskTarget {
	t.Helper()
	rt, err := pricing.NewRiskTarget(level, value)
	require.NoError(t, err)
	return rt
}

func fee(id, code string, typ pricing.FeeType, pct string) pricing.FeeConfiguration {
	return pricing.FeeConfiguration{
		ID:            id,
		Code:          code,
		Name:          code,
		Type:          typ,
		Percentage:    pricing.MustPercentage(pct),
		EffectiveFrom: calendar.NewDate(2026, time.January, 1),
		Active:        true,
	}
}

func riskFactor(t *testing.T, id string, level pricing.TargetLevel, value, pct string) pricing.RiskFactorConfiguration {
	return pricing.RiskFactorConfiguration{
		ID:         id,
		Target:     target(t, level, value),
		Percentage: pricing.MustPercentage(pct),
		Active:     true,
	}
}

// =============================================================================
// FINAL PREMIUM TESTS
// =============================================================================

func TestCalculate_SingleFee(t *testing.T) {
	// GIVEN: base 1000.00, one 10% admin fee, nothing else
	// THEN: final is 1100.00
	catalog := store.NewMemory()
	catalog.AddFee(fee("fee-1", "ADMIN", pricing.FeeAdmin, "0.10"))

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("1000.00"), testContext(), asOf)
	require.NoError(t, err)

	assert.Equal(t, "1100.00", quote.FinalPremium.String())
	require.Len(t, quote.Adjustments, 1)
	assert.Equal(t, "FEE_ADMIN_FEE", quote.Adjustments[0].SourceType)
	assert.Equal(t, "fee-1", quote.Adjustments[0].SourceID)
}

func TestCalculate_TwoRiskFactors(t *testing.T) {
	// GIVEN: country risk factor 5% and city risk factor 3%
	// THEN: both levels apply, final is 1080.00
	catalog := store.NewMemory()
	catalog.AddRiskFactor(riskFactor(t, "rf-1", pricing.LevelCountry, "country-ro", "0.05"))
	catalog.AddRiskFactor(riskFactor(t, "rf-2", pricing.LevelCity, "city-cluj", "0.03"))

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("1000.00"), testContext(), asOf)
	require.NoError(t, err)

	assert.Equal(t, "1080.00", quote.FinalPremium.String())
	require.Len(t, quote.Adjustments, 2)
	for i, adj := range quote.Adjustments {
		assert.Equal(t, pricing.SourceRiskFactor, adj.SourceType)
		assert.Equal(t, i, adj.AppliedOrder)
	}
}

func TestCalculate_RiskFactorForOtherGeography_NotApplied(t *testing.T) {
	catalog := store.NewMemory()
	catalog.AddRiskFactor(riskFactor(t, "rf-1", pricing.LevelCity, "city-other", "0.05"))
	catalog.AddRiskFactor(riskFactor(t, "rf-2", pricing.LevelBuildingType, "OFFICE", "0.05"))

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("1000.00"), testContext(), asOf)
	require.NoError(t, err)

	assert.Equal(t, "1000.00", quote.FinalPremium.String())
	assert.Empty(t, quote.Adjustments)
}

func TestCalculate_FloodZoneFee(t *testing.T) {
	catalog := store.NewMemory()
	catalog.AddFee(fee("fee-flood", pricing.IndicatorFloodZone, pricing.FeeRiskAdjustment, "0.05"))
	calc := newCalculator(catalog)
	base := pricing.MustPremium("1000.00")

	t.Run("flood zone true applies the fee", func(t *testing.T) {
		pc := testContext()
		pc.RiskIndicators = &pricing.RiskIndicators{FloodZone: boolPtr(true)}

		quote, err := calc.Calculate(context.Background(), base, pc, asOf)
		require.NoError(t, err)
		assert.Equal(t, "1050.00", quote.FinalPremium.String())
		require.Len(t, quote.Adjustments, 1)
		assert.Equal(t, "FEE_RISK_ADJUSTMENT", quote.Adjustments[0].SourceType)
	})

	t.Run("flood zone false applies nothing", func(t *testing.T) {
		pc := testContext()
		pc.RiskIndicators = &pricing.RiskIndicators{FloodZone: boolPtr(false)}

		quote, err := calc.Calculate(context.Background(), base, pc, asOf)
		require.NoError(t, err)
		assert.Equal(t, "1000.00", quote.FinalPremium.String())
		assert.Empty(t, quote.Adjustments)
	})

	t.Run("flood zone unknown applies nothing", func(t *testing.T) {
		pc := testContext()
		pc.RiskIndicators = &pricing.RiskIndicators{EarthquakeZone: boolPtr(true)}

		quote, err := calc.Calculate(context.Background(), base, pc, asOf)
		require.NoError(t, err)
		assert.Empty(t, quote.Adjustments)
	})
}

func TestCalculate_NoRiskIndicators_SkipsAllRiskAdjustmentFees(t *testing.T) {
	catalog := store.NewMemory()
	catalog.AddFee(fee("fee-flood", pricing.IndicatorFloodZone, pricing.FeeRiskAdjustment, "0.05"))
	catalog.AddFee(fee("fee-quake", pricing.IndicatorEarthquakeZone, pricing.FeeRiskAdjustment, "0.07"))

	pc := testContext()
	pc.RiskIndicators = nil

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("1000.00"), pc, asOf)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", quote.FinalPremium.String())
	assert.Empty(t, quote.Adjustments)
}

func TestCalculate_UnknownIndicatorCode_Skipped(t *testing.T) {
	catalog := store.NewMemory()
	catalog.AddFee(fee("fee-storm", "STORM_ZONE", pricing.FeeRiskAdjustment, "0.05"))

	pc := testContext()
	pc.RiskIndicators = &pricing.RiskIndicators{FloodZone: boolPtr(true), EarthquakeZone: boolPtr(true)}

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("1000.00"), pc, asOf)
	require.NoError(t, err)
	assert.Empty(t, quote.Adjustments)
}

func TestCalculate_ZeroBrokerCommission_Recorded(t *testing.T) {
	// GIVEN: broker commission present as 0
	// THEN: exactly one BROKER_COMMISSION adjustment with 0%, final unchanged
	pc := testContext()
	pc.BrokerCommission = pctPtr("0")

	quote, err := newCalculator(store.NewMemory()).Calculate(context.Background(), pricing.MustPremium("1000.00"), pc, asOf)
	require.NoError(t, err)

	assert.Equal(t, "1000.00", quote.FinalPremium.String())
	require.Len(t, quote.Adjustments, 1)
	adj := quote.Adjustments[0]
	assert.Equal(t, pricing.SourceBrokerCommission, adj.SourceType)
	assert.Equal(t, "broker-1", adj.SourceID)
	assert.Equal(t, "Broker commission", adj.Name)
	assert.True(t, adj.Percentage.IsZero())
}

func TestCalculate_Combined_OrderPreserved(t *testing.T) {
	// GIVEN: risk factor 3%, admin fee 5%, flood-zone fee 2% (flood=true)
	// THEN: sum 10%, final 1100.00, adjustments in aggregation order
	catalog := store.NewMemory()
	// Catalogued out of order on purpose: the fee groups come first.
	catalog.AddFee(fee("fee-flood", pricing.IndicatorFloodZone, pricing.FeeRiskAdjustment, "0.02"))
	catalog.AddFee(fee("fee-admin", "ADMIN", pricing.FeeAdmin, "0.05"))
	catalog.AddRiskFactor(riskFactor(t, "rf-1", pricing.LevelCounty, "county-cj", "0.03"))

	pc := testContext()
	pc.RiskIndicators = &pricing.RiskIndicators{FloodZone: boolPtr(true)}

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("1000.00"), pc, asOf)
	require.NoError(t, err)

	assert.Equal(t, "1100.00", quote.FinalPremium.String())
	assert.True(t, quote.Total.Equal(pricing.MustPercentage("0.10")))
	require.Len(t, quote.Adjustments, 3)
	assert.Equal(t, []string{"RISK_FACTOR", "FEE_ADMIN_FEE", "FEE_RISK_ADJUSTMENT"}, sourceTypes(quote.Adjustments))
	assert.Equal(t, []string{"rf-1", "fee-admin", "fee-flood"}, sourceIDs(quote.Adjustments))
	for i, adj := range quote.Adjustments {
		assert.Equal(t, i, adj.AppliedOrder)
	}
}

func TestCalculate_RoundsHalfUp(t *testing.T) {
	// 999.99 * 1.0333 = 1033.286667 → 1033.29
	catalog := store.NewMemory()
	catalog.AddFee(fee("fee-1", "ADMIN", pricing.FeeAdmin, "0.0333"))

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("999.99"), testContext(), asOf)
	require.NoError(t, err)
	assert.Equal(t, "1033.29", quote.FinalPremium.String())
}

func TestApplyAdjustments_HalfCentRoundsUp(t *testing.T) {
	// 100.01 * 1.05 = 105.0105 → 105.01; 10.10 * 1.05 = 10.605 → 10.61
	final, err := pricing.ApplyAdjustments(pricing.MustPremium("10.10"), pricing.MustPercentage("0.05"))
	require.NoError(t, err)
	assert.Equal(t, "10.61", final.String())

	final, err = pricing.ApplyAdjustments(pricing.MustPremium("100.01"), pricing.MustPercentage("0.05"))
	require.NoError(t, err)
	assert.Equal(t, "105.01", final.String())
}

func TestCalculate_PercentagesSummedWithoutRounding(t *testing.T) {
	// Three fees of 0.00005 each sum to 0.00015; rounding each to 4 places
	// first would give 0.0003 (or 0.0000) instead.
	catalog := store.NewMemory()
	for _, id := range []string{"f1", "f2", "f3"} {
		catalog.AddFee(fee(id, id, pricing.FeeAdmin, "0.00005"))
	}

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("100000.00"), testContext(), asOf)
	require.NoError(t, err)
	assert.Equal(t, "0.00015", quote.Total.String())
	assert.Equal(t, "100015.00", quote.FinalPremium.String())
}

func TestCalculate_FeeOutsideEffectiveRange_NotApplied(t *testing.T) {
	catalog := store.NewMemory()
	expired := fee("fee-old", "OLD", pricing.FeeAdmin, "0.10")
	end := calendar.NewDate(2026, time.May, 31)
	expired.EffectiveTo = &end
	catalog.AddFee(expired)

	future := fee("fee-new", "NEW", pricing.FeeAdmin, "0.10")
	future.EffectiveFrom = calendar.NewDate(2026, time.June, 2)
	catalog.AddFee(future)

	inactive := fee("fee-off", "OFF", pricing.FeeAdmin, "0.10")
	inactive.Active = false
	catalog.AddFee(inactive)

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("1000.00"), testContext(), asOf)
	require.NoError(t, err)
	assert.Empty(t, quote.Adjustments)
}

func TestCalculate_FeeEffectiveOnBoundaryDays(t *testing.T) {
	catalog := store.NewMemory()
	f := fee("fee-1", "ADMIN", pricing.FeeAdmin, "0.10")
	f.EffectiveFrom = asOf
	end := asOf
	f.EffectiveTo = &end
	catalog.AddFee(f)

	quote, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("1000.00"), testContext(), asOf)
	require.NoError(t, err)
	assert.Len(t, quote.Adjustments, 1)
}

func TestCalculate_EmptyCatalog_ZeroSum(t *testing.T) {
	quote, err := newCalculator(store.NewMemory()).Calculate(context.Background(), pricing.MustPremium("1000.00"), testContext(), asOf)
	require.NoError(t, err)
	assert.Empty(t, quote.Adjustments)
	assert.True(t, quote.Total.IsZero())
	assert.Equal(t, "1000.00", quote.FinalPremium.String())
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestCalculate_RejectsMissingBasePremium(t *testing.T) {
	_, err := newCalculator(store.NewMemory()).Calculate(context.Background(), pricing.Premium{}, testContext(), asOf)
	assert.ErrorIs(t, err, pricing.ErrValidation)
}

func TestCalculate_RejectsMalformedContext(t *testing.T) {
	pc := testContext()
	pc.CityID = ""

	_, err := newCalculator(store.NewMemory()).Calculate(context.Background(), pricing.MustPremium("1000.00"), pc, asOf)
	var verr *pricing.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "pricing context", verr.Field)
}

func TestCalculate_RejectsNonPositiveResult(t *testing.T) {
	catalog := store.NewMemory()
	catalog.AddFee(fee("discount", "DISCOUNT", pricing.FeeAdmin, "-1"))

	_, err := newCalculator(catalog).Calculate(context.Background(), pricing.MustPremium("1000.00"), testContext(), asOf)
	assert.ErrorIs(t, err, pricing.ErrNonPositivePremium)
}

type failingRates struct{ err error }

func (f failingRates) ActiveRiskFactors(context.Context, []pricing.RiskTarget) ([]pricing.RiskFactorConfiguration, error) {
	return nil, nil
}

func (f failingRates) ActiveFeesExcludingType(context.Context, pricing.FeeType, calendar.Date) ([]pricing.FeeConfiguration, error) {
	return nil, f.err
}

func (f failingRates) ActiveFeesByType(context.Context, pricing.FeeType, calendar.Date) ([]pricing.FeeConfiguration, error) {
	return nil, nil
}

func TestCalculate_ProviderErrorPropagatedUnchanged(t *testing.T) {
	lookupErr := errors.New("catalog unavailable")
	calc := pricing.NewCalculator(pricing.NewAggregator(failingRates{err: lookupErr}))

	_, err := calc.Calculate(context.Background(), pricing.MustPremium("1000.00"), testContext(), asOf)
	assert.Same(t, lookupErr, err)
}

// =============================================================================
// PURITY
// =============================================================================

func TestCalculate_IdenticalInputsGiveIdenticalQuotes(t *testing.T) {
	catalog := store.NewMemory()
	catalog.AddRiskFactor(riskFactor(t, "rf-1", pricing.LevelCountry, "country-ro", "0.0125"))
	catalog.AddFee(fee("fee-1", "ADMIN", pricing.FeeAdmin, "0.0333"))
	calc := newCalculator(catalog)

	pc := testContext()
	pc.BrokerCommission = pctPtr("0.015")

	first, err := calc.Calculate(context.Background(), pricing.MustPremium("999.99"), pc, asOf)
	require.NoError(t, err)
	second, err := calc.Calculate(context.Background(), pricing.MustPremium("999.99"), pc, asOf)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func sourceTypes(items []pricing.AppliedAdjustment) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.SourceType
	}
	return out
}

func sourceIDs(items []pricing.AppliedAdjustment) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.SourceID
	}
	return out
}

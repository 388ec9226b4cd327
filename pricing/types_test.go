package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/pricing"
)

func TestNewPremium(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"positive", "1000.00", true},
		{"whole number", "1000", true},
		{"one cent", "0.01", true},
		{"zero", "0", false},
		{"negative", "-5.00", false},
		{"sub-cent precision", "10.005", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := pricing.NewPremium(decimal.RequireFromString(tt.value))
			if tt.ok {
				require.NoError(t, err)
				assert.True(t, p.Decimal().Equal(decimal.RequireFromString(tt.value)))
				return
			}
			assert.ErrorIs(t, err, pricing.ErrValidation)
		})
	}
}

func TestPremium_StringHasTwoDigits(t *testing.T) {
	assert.Equal(t, "1000.00", pricing.MustPremium("1000").String())
}

func TestPercentage_StringKeepsPrecision(t *testing.T) {
	assert.Equal(t, "0.1000", pricing.MustPercentage("0.1").String())
	assert.Equal(t, "0.0333", pricing.MustPercentage("0.0333").String())
	assert.Equal(t, "0.00015", pricing.MustPercentage("0.00015").String())
}

func TestSumPercentages(t *testing.T) {
	sum := pricing.SumPercentages(
		pricing.MustPercentage("0.03"),
		pricing.MustPercentage("0.05"),
		pricing.MustPercentage("0.02"),
	)
	assert.True(t, sum.Equal(pricing.MustPercentage("0.10")))
	assert.True(t, pricing.SumPercentages().IsZero())
}

// =============================================================================
// RISK TARGET
// =============================================================================

func TestRiskTarget_GeographyShape(t *testing.T) {
	rt, err := pricing.GeographyTarget(pricing.LevelCounty, "county-cj")
	require.NoError(t, err)

	id, ok := rt.ReferenceID()
	assert.True(t, ok)
	assert.Equal(t, "county-cj", id)

	_, ok = rt.BuildingType()
	assert.False(t, ok, "geography target carries no building type")
}

func TestRiskTarget_BuildingTypeShape(t *testing.T) {
	rt, err := pricing.BuildingTypeTarget("OFFICE")
	require.NoError(t, err)

	bt, ok := rt.BuildingType()
	assert.True(t, ok)
	assert.Equal(t, pricing.BuildingType("OFFICE"), bt)

	_, ok = rt.ReferenceID()
	assert.False(t, ok, "building-type target carries no reference id")
}

func TestRiskTarget_InvalidShapesRejected(t *testing.T) {
	_, err := pricing.GeographyTarget(pricing.LevelBuildingType, "x")
	assert.ErrorIs(t, err, pricing.ErrValidation)

	_, err = pricing.GeographyTarget(pricing.LevelCity, "")
	assert.ErrorIs(t, err, pricing.ErrValidation)

	_, err = pricing.BuildingTypeTarget("")
	assert.ErrorIs(t, err, pricing.ErrValidation)

	_, err = pricing.ParseTargetLevel("STREET")
	assert.ErrorIs(t, err, pricing.ErrValidation)
}

func TestRiskTarget_ComparableAsKey(t *testing.T) {
	a, _ := pricing.NewRiskTarget(pricing.LevelCity, "city-1")
	b, _ := pricing.NewRiskTarget(pricing.LevelCity, "city-1")
	c, _ := pricing.NewRiskTarget(pricing.LevelCountry, "city-1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "same id at another level is another target")
}

// =============================================================================
// FEE CONFIGURATION
// =============================================================================

func TestFeeConfiguration_Validate(t *testing.T) {
	valid := pricing.FeeConfiguration{
		Code:          "ADMIN",
		Type:          pricing.FeeAdmin,
		EffectiveFrom: calendar.NewDate(2026, time.January, 1),
	}
	assert.NoError(t, valid.Validate())

	noCode := valid
	noCode.Code = ""
	assert.ErrorIs(t, noCode.Validate(), pricing.ErrValidation)

	badType := valid
	badType.Type = "SURCHARGE"
	assert.ErrorIs(t, badType.Validate(), pricing.ErrValidation)

	inverted := valid
	end := calendar.NewDate(2025, time.December, 31)
	inverted.EffectiveTo = &end
	assert.ErrorIs(t, inverted.Validate(), pricing.ErrValidation)
}

func TestRiskIndicators_Flag(t *testing.T) {
	yes := true
	ri := pricing.RiskIndicators{FloodZone: &yes}

	set, known := ri.Flag(pricing.IndicatorFloodZone)
	assert.True(t, set)
	assert.True(t, known)

	set, known = ri.Flag(pricing.IndicatorEarthquakeZone)
	assert.False(t, set)
	assert.True(t, known)

	_, known = ri.Flag("STORM_ZONE")
	assert.False(t, known)
}

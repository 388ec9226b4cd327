package pricing

// =============================================================================
// RISK INDICATORS
// =============================================================================

// Risk indicator names, as used in RISK_ADJUSTMENT fee codes.
const (
	IndicatorFloodZone      = "FLOOD_ZONE"
	IndicatorEarthquakeZone = "EARTHQUAKE_ZONE"
)

// RiskIndicators are optional boolean flags recorded on a building.
// A nil flag means "unknown", which never triggers a fee.
type RiskIndicators struct {
	FloodZone      *bool
	EarthquakeZone *bool
}

// Flag looks up the indicator named by a RISK_ADJUSTMENT fee code.
// known is false for codes that name no indicator; set is true only when the
// indicator is present and true.
func (ri RiskIndicators) Flag(code string) (set bool, known bool) {
	var flag *bool
	switch code {
	case IndicatorFloodZone:
		flag = ri.FloodZone
	case IndicatorEarthquakeZone:
		flag = ri.EarthquakeZone
	default:
		return false, false
	}
	return flag != nil && *flag, true
}

// =============================================================================
// PRICING CONTEXT
// =============================================================================

// PricingContext is everything about a policy the engine prices against.
type PricingContext struct {
	CountryID    string
	CountyID     string
	CityID       string
	BuildingType BuildingType

	// RiskIndicators is nil when the building has no indicator record at all;
	// in that case no RISK_ADJUSTMENT fee applies.
	RiskIndicators *RiskIndicators

	BrokerID string
	// BrokerCommission is nil when the broker has no commission configured.
	// A zero commission is still recorded as an adjustment.
	BrokerCommission *Percentage
}

// Validate rejects contexts missing a geography level or building type.
func (c PricingContext) Validate() error {
	switch {
	case c.CountryID == "":
		return invalid("pricing context", "country id required")
	case c.CountyID == "":
		return invalid("pricing context", "county id required")
	case c.CityID == "":
		return invalid("pricing context", "city id required")
	case c.BuildingType == "":
		return invalid("pricing context", "building type required")
	case c.BrokerCommission != nil && c.BrokerID == "":
		return invalid("pricing context", "broker id required with a broker commission")
	}
	return nil
}

// Targets returns the risk targets the context matches, in fixed order:
// country, county, city, building type.
func (c PricingContext) Targets() []RiskTarget {
	return []RiskTarget{
		{level: LevelCountry, referenceID: c.CountryID},
		{level: LevelCounty, referenceID: c.CountyID},
		{level: LevelCity, referenceID: c.CityID},
		{level: LevelBuildingType, buildingType: c.BuildingType},
	}
}

// Matches reports whether target is one of the context's targets.
func (c PricingContext) Matches(target RiskTarget) bool {
	for _, t := range c.Targets() {
		if t == target {
			return true
		}
	}
	return false
}

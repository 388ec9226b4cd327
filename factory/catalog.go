/*
Package factory provides YAML to Go catalog conversion.

PURPOSE:
  Converts a YAML catalog document into risk factor configurations, fee
  configurations, building profiles and broker commissions, and loads them
  into any store that can save them. This keeps rate tables out of code:
  underwriting edits the YAML, the factory validates it through the pricing
  constructors.

YAML SCHEMA:
  risk_factors:
    - id: rf-cluj
      name: Cluj county surcharge
      level: COUNTY            # COUNTRY | COUNTY | CITY | BUILDING_TYPE
      value: county-cj         # reference id, or building type for BUILDING_TYPE
      percentage: "0.03"       # fraction: 0.03 = 3%
      active: true             # default true
  fees:
    - id: fee-admin
      code: ADMIN
      name: Administration fee
      type: ADMIN_FEE          # ADMIN_FEE | RISK_ADJUSTMENT | BROKER_COMMISSION
      percentage: "0.05"
      effective_from: 2026-01-01
      effective_to: 2026-12-31 # optional, inclusive
  buildings:
    - id: building-1
      country: country-ro
      county: county-cj
      city: city-cluj
      type: RESIDENTIAL
      risk_indicators:         # optional; absent means unknown
        flood_zone: true
  brokers:
    - id: broker-1
      commission: "0.015"      # optional

  RISK_ADJUSTMENT fees use the indicator code (FLOOD_ZONE, EARTHQUAKE_ZONE)
  as their code.

USAGE:
  catalog, err := factory.LoadFile("catalog.yaml")
  if err != nil { ... }
  err = catalog.Apply(ctx, store)

SEE ALSO:
  - pricing/catalog.go: configuration types
  - store/sqlite/sqlite.go, policy/store/memory.go: Sink implementations
*/
package factory

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/policy"
	"github.com/warp/premium-engine/pricing"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// CatalogYAML is the YAML representation of a catalog document.
type CatalogYAML struct {
	RiskFactors []RiskFactorYAML `yaml:"risk_factors"`
	Fees        []FeeYAML        `yaml:"fees"`
	Buildings   []BuildingYAML   `yaml:"buildings"`
	Brokers     []BrokerYAML     `yaml:"brokers"`
}

// RiskFactorYAML represents a risk factor configuration.
type RiskFactorYAML struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name,omitempty"`
	Level      string `yaml:"level"`
	Value      string `yaml:"value"`
	Percentage string `yaml:"percentage"`
	Active     *bool  `yaml:"active,omitempty"`
}

// FeeYAML represents a fee configuration.
type FeeYAML struct {
	ID            string `yaml:"id"`
	Code          string `yaml:"code"`
	Name          string `yaml:"name,omitempty"`
	Type          string `yaml:"type"`
	Percentage    string `yaml:"percentage"`
	EffectiveFrom string `yaml:"effective_from"`
	EffectiveTo   string `yaml:"effective_to,omitempty"`
	Active        *bool  `yaml:"active,omitempty"`
}

// BuildingYAML represents a building profile.
type BuildingYAML struct {
	ID             string              `yaml:"id"`
	Country        string              `yaml:"country"`
	County         string              `yaml:"county"`
	City           string              `yaml:"city"`
	Type           string              `yaml:"type"`
	RiskIndicators *RiskIndicatorsYAML `yaml:"risk_indicators,omitempty"`
}

// RiskIndicatorsYAML represents building risk flags.
type RiskIndicatorsYAML struct {
	FloodZone      *bool `yaml:"flood_zone,omitempty"`
	EarthquakeZone *bool `yaml:"earthquake_zone,omitempty"`
}

// BrokerYAML represents a broker and its optional commission.
type BrokerYAML struct {
	ID         string `yaml:"id"`
	Commission string `yaml:"commission,omitempty"`
}

// =============================================================================
// CATALOG
// =============================================================================

// Broker is a parsed broker entry.
type Broker struct {
	ID         policy.BrokerID
	Commission *pricing.Percentage
}

// Catalog is a validated catalog document.
type Catalog struct {
	RiskFactors []pricing.RiskFactorConfiguration
	Fees        []pricing.FeeConfiguration
	Buildings   []policy.Building
	Brokers     []Broker
}

// Sink receives catalog entries. Both stores implement it.
type Sink interface {
	SaveRiskFactor(ctx context.Context, rf pricing.RiskFactorConfiguration) error
	SaveFee(ctx context.Context, f pricing.FeeConfiguration) error
	SaveBuilding(ctx context.Context, b policy.Building) error
	SaveBroker(ctx context.Context, id policy.BrokerID, commission *pricing.Percentage) error
}

// Apply saves every entry into sink, in document order.
func (c *Catalog) Apply(ctx context.Context, sink Sink) error {
	for _, rf := range c.RiskFactors {
		if err := sink.SaveRiskFactor(ctx, rf); err != nil {
			return fmt.Errorf("risk factor %s: %w", rf.ID, err)
		}
	}
	for _, f := range c.Fees {
		if err := sink.SaveFee(ctx, f); err != nil {
			return fmt.Errorf("fee %s: %w", f.ID, err)
		}
	}
	for _, b := range c.Buildings {
		if err := sink.SaveBuilding(ctx, b); err != nil {
			return fmt.Errorf("building %s: %w", b.ID, err)
		}
	}
	for _, b := range c.Brokers {
		if err := sink.SaveBroker(ctx, b.ID, b.Commission); err != nil {
			return fmt.Errorf("broker %s: %w", b.ID, err)
		}
	}
	return nil
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc CatalogYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return FromYAML(doc)
}

// FromYAML converts CatalogYAML to validated domain values.
// The first invalid entry aborts the conversion.
func FromYAML(doc CatalogYAML) (*Catalog, error) {
	c := &Catalog{}
	seen := make(map[string]bool)

	checkID := func(kind, id string) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%s: id is required", kind)
		}
		key := kind + "/" + id
		if seen[key] {
			return fmt.Errorf("%s %s: duplicate id", kind, id)
		}
		seen[key] = true
		return nil
	}

	for _, ry := range doc.RiskFactors {
		if err := checkID("risk factor", ry.ID); err != nil {
			return nil, err
		}
		rf, err := parseRiskFactor(ry)
		if err != nil {
			return nil, fmt.Errorf("risk factor %s: %w", ry.ID, err)
		}
		c.RiskFactors = append(c.RiskFactors, rf)
	}

	for _, fy := range doc.Fees {
		if err := checkID("fee", fy.ID); err != nil {
			return nil, err
		}
		f, err := parseFee(fy)
		if err != nil {
			return nil, fmt.Errorf("fee %s: %w", fy.ID, err)
		}
		c.Fees = append(c.Fees, f)
	}

	for _, by := range doc.Buildings {
		if err := checkID("building", by.ID); err != nil {
			return nil, err
		}
		b, err := parseBuilding(by)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", by.ID, err)
		}
		c.Buildings = append(c.Buildings, b)
	}

	for _, by := range doc.Brokers {
		if err := checkID("broker", by.ID); err != nil {
			return nil, err
		}
		b := Broker{ID: policy.BrokerID(by.ID)}
		if by.Commission != "" {
			pct, err := pricing.ParsePercentage(by.Commission)
			if err != nil {
				return nil, fmt.Errorf("broker %s: %w", by.ID, err)
			}
			b.Commission = &pct
		}
		c.Brokers = append(c.Brokers, b)
	}

	return c, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseRiskFactor(ry RiskFactorYAML) (pricing.RiskFactorConfiguration, error) {
	level, err := pricing.ParseTargetLevel(ry.Level)
	if err != nil {
		return pricing.RiskFactorConfiguration{}, err
	}
	target, err := pricing.NewRiskTarget(level, ry.Value)
	if err != nil {
		return pricing.RiskFactorConfiguration{}, err
	}
	pct, err := pricing.ParsePercentage(ry.Percentage)
	if err != nil {
		return pricing.RiskFactorConfiguration{}, err
	}

	return pricing.RiskFactorConfiguration{
		ID:         ry.ID,
		Name:       ry.Name,
		Target:     target,
		Percentage: pct,
		Active:     boolOr(ry.Active, true),
	}, nil
}

func parseFee(fy FeeYAML) (pricing.FeeConfiguration, error) {
	feeType, err := pricing.ParseFeeType(fy.Type)
	if err != nil {
		return pricing.FeeConfiguration{}, err
	}
	pct, err := pricing.ParsePercentage(fy.Percentage)
	if err != nil {
		return pricing.FeeConfiguration{}, err
	}
	from, err := calendar.ParseDate(fy.EffectiveFrom)
	if err != nil {
		return pricing.FeeConfiguration{}, fmt.Errorf("effective_from: %w", err)
	}

	f := pricing.FeeConfiguration{
		ID:            fy.ID,
		Code:          fy.Code,
		Name:          fy.Name,
		Type:          feeType,
		Percentage:    pct,
		EffectiveFrom: from,
		Active:        boolOr(fy.Active, true),
	}
	if fy.EffectiveTo != "" {
		to, err := calendar.ParseDate(fy.EffectiveTo)
		if err != nil {
			return pricing.FeeConfiguration{}, fmt.Errorf("effective_to: %w", err)
		}
		f.EffectiveTo = &to
	}

	if err := f.Validate(); err != nil {
		return pricing.FeeConfiguration{}, err
	}
	return f, nil
}

func parseBuilding(by BuildingYAML) (policy.Building, error) {
	b := policy.Building{
		ID:        policy.BuildingID(by.ID),
		CountryID: by.Country,
		CountyID:  by.County,
		CityID:    by.City,
		Type:      pricing.BuildingType(by.Type),
	}
	if by.RiskIndicators != nil {
		b.RiskIndicators = &pricing.RiskIndicators{
			FloodZone:      by.RiskIndicators.FloodZone,
			EarthquakeZone: by.RiskIndicators.EarthquakeZone,
		}
	}

	// Reuse context validation so a building always yields a priceable context.
	pc := pricing.PricingContext{
		CountryID:    b.CountryID,
		CountyID:     b.CountyID,
		CityID:       b.CityID,
		BuildingType: b.Type,
	}
	if err := pc.Validate(); err != nil {
		return policy.Building{}, err
	}
	return b, nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

package pricing

import (
	"fmt"

	"github.com/warp/premium-engine/calendar"
)

// =============================================================================
// RISK FACTOR CONFIGURATION
// =============================================================================

// RiskFactorConfiguration applies Percentage to every policy whose pricing
// context matches Target. Active is a point-in-time flag; there is no date
// range.
type RiskFactorConfiguration struct {
	ID         string
	Name       string
	Target     RiskTarget
	Percentage Percentage
	Active     bool
}

// DisplayName is the audit-trail name: Name when set, otherwise derived from
// the target.
func (rf RiskFactorConfiguration) DisplayName() string {
	if rf.Name != "" {
		return rf.Name
	}
	return "Risk factor " + rf.Target.String()
}

// =============================================================================
// FEE CONFIGURATION
// =============================================================================

// FeeType categorizes fee configurations.
type FeeType string

const (
	FeeAdmin            FeeType = "ADMIN_FEE"
	FeeRiskAdjustment   FeeType = "RISK_ADJUSTMENT"
	FeeBrokerCommission FeeType = "BROKER_COMMISSION"
)

// ParseFeeType accepts the three known fee types.
func ParseFeeType(s string) (FeeType, error) {
	switch t := FeeType(s); t {
	case FeeAdmin, FeeRiskAdjustment, FeeBrokerCommission:
		return t, nil
	}
	return "", invalid("fee type", fmt.Sprintf("unknown fee type %q", s))
}

// FeeConfiguration is a catalog fee applicable within an effective range.
// For RISK_ADJUSTMENT fees, Code names the risk indicator that gates the fee
// (see RiskIndicators.Flag).
type FeeConfiguration struct {
	ID            string
	Code          string
	Name          string
	Type          FeeType
	Percentage    Percentage
	EffectiveFrom calendar.Date
	EffectiveTo   *calendar.Date
	Active        bool
}

// EffectiveRange returns the fee's [EffectiveFrom, EffectiveTo] range.
func (f FeeConfiguration) EffectiveRange() calendar.Range {
	return calendar.Range{From: f.EffectiveFrom, To: f.EffectiveTo}
}

// AppliesOn reports whether the fee is active and effective on d.
func (f FeeConfiguration) AppliesOn(d calendar.Date) bool {
	return f.Active && f.EffectiveRange().Contains(d)
}

// Validate checks the fields a catalog entry must carry to be priced.
func (f FeeConfiguration) Validate() error {
	if f.Code == "" {
		return invalid("fee code", "required")
	}
	if _, err := ParseFeeType(string(f.Type)); err != nil {
		return err
	}
	if f.EffectiveFrom.IsZero() {
		return invalid("fee effective_from", "required")
	}
	if f.EffectiveTo != nil && f.EffectiveTo.Before(f.EffectiveFrom) {
		return invalid("fee effective_to", "before effective_from")
	}
	return nil
}

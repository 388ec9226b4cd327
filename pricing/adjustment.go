package pricing

import "strings"

// =============================================================================
// APPLIED ADJUSTMENT - Unit of the pricing audit trail
// =============================================================================

// Source type tags recorded on applied adjustments.
const (
	SourceRiskFactor       = "RISK_FACTOR"
	SourceBrokerCommission = "BROKER_COMMISSION"
	SourceFeePrefix        = "FEE"
)

// BrokerCommissionName is the audit name of the broker commission adjustment.
const BrokerCommissionName = "Broker commission"

// FeeSourceType is the tag recorded for a fee of type t ("FEE_ADMIN_FEE", ...).
func FeeSourceType(t FeeType) string {
	return SourceFeePrefix + "_" + string(t)
}

// AppliedAdjustment records one percentage that contributed to a final premium.
// AppliedOrder is the zero-based position in the aggregated sequence.
type AppliedAdjustment struct {
	SourceType   string
	SourceID     string
	Name         string
	Percentage   Percentage
	AppliedOrder int
}

// IsFee reports whether the adjustment came from a fee configuration.
func (a AppliedAdjustment) IsFee() bool {
	return strings.HasPrefix(a.SourceType, SourceFeePrefix)
}

// Adjustments is an ordered adjustment list with its exact percentage sum.
type Adjustments struct {
	Items []AppliedAdjustment
	Total Percentage
}

// Len returns the number of adjustments.
func (a Adjustments) Len() int { return len(a.Items) }

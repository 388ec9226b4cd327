package policy

import (
	"time"

	"github.com/warp/premium-engine/pricing"
)

// =============================================================================
// PRICING SNAPSHOT - Immutable audit record of an activation
// =============================================================================

// PricingSnapshot records the adjustments applied when a policy was activated.
// Exactly one exists per policy; it is never mutated after creation.
//
// TotalFeePct sums adjustments whose source type starts with "FEE".
// TotalRiskPct sums everything else, which includes both risk factors and the
// broker commission.
type PricingSnapshot struct {
	ID           string
	PolicyID     ID
	BasePremium  pricing.Premium
	FinalPremium pricing.Premium
	TotalFeePct  pricing.Percentage
	TotalRiskPct pricing.Percentage
	Items        []pricing.AppliedAdjustment
	SnapshotDate time.Time
}

// NewSnapshot builds the snapshot for an activation. Items keep their applied
// order; the slice is copied so later changes to the input cannot leak in.
func NewSnapshot(id string, policyID ID, base, final pricing.Premium, items []pricing.AppliedAdjustment, at time.Time) PricingSnapshot {
	fee := pricing.ZeroPercentage()
	risk := pricing.ZeroPercentage()
	for _, it := range items {
		if it.IsFee() {
			fee = fee.Add(it.Percentage)
		} else {
			risk = risk.Add(it.Percentage)
		}
	}

	copied := make([]pricing.AppliedAdjustment, len(items))
	copy(copied, items)

	return PricingSnapshot{
		ID:           id,
		PolicyID:     policyID,
		BasePremium:  base,
		FinalPremium: final,
		TotalFeePct:  fee,
		TotalRiskPct: risk,
		Items:        copied,
		SnapshotDate: at,
	}
}

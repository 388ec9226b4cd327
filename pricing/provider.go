package pricing

import (
	"context"

	"github.com/warp/premium-engine/calendar"
)

// =============================================================================
// RATE PROVIDER - Read-only catalog lookups
// =============================================================================

// RateProvider serves the active catalog entries the engine prices against.
//
// Implementations must return entries in a deterministic order (the order
// they were catalogued in); the aggregator preserves that order in the audit
// trail. Lookup errors are returned unchanged to the caller.
//
// IMPLEMENTATIONS:
//   - policy/store/memory.go: in-memory catalog
//   - store/sqlite/sqlite.go: SQLite catalog
type RateProvider interface {
	// ActiveRiskFactors returns every active risk factor whose target is one of
	// targets.
	ActiveRiskFactors(ctx context.Context, targets []RiskTarget) ([]RiskFactorConfiguration, error)

	// ActiveFeesExcludingType returns active fees effective on asOf whose type
	// is not excluded.
	ActiveFeesExcludingType(ctx context.Context, excluded FeeType, asOf calendar.Date) ([]FeeConfiguration, error)

	// ActiveFeesByType returns active fees of type t effective on asOf.
	ActiveFeesByType(ctx context.Context, t FeeType, asOf calendar.Date) ([]FeeConfiguration, error)
}

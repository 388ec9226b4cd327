/*
store.go - Collaborator interfaces for the policy lifecycle

KEY INTERFACES:
  Store:     policy and snapshot persistence
  Directory: reference lookups (building profile, broker commission)

ATOMIC ACTIVATION:
  PersistActivation writes the ACTIVE policy row and its one snapshot
  together, or neither. It is conditional on the stored row still being
  DRAFT, so two concurrent activations of the same policy cannot both
  commit: the loser gets ErrConcurrentModification (or ErrSnapshotExists).

SET-BASED EXPIRATION:
  ExpireActive is a single conditional update
    status = ACTIVE AND end_date < cutoff  →  EXPIRED
  A cancel committing concurrently on the same row wins or loses as a
  whole; neither silently overwrites the other.

IMPLEMENTATIONS:
  - policy/store/memory.go: in-memory, for tests and development
  - store/sqlite/sqlite.go: SQLite
*/
package policy

import (
	"context"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/pricing"
)

// =============================================================================
// STORE - Policy and snapshot persistence
// =============================================================================

type Store interface {
	// Create persists a new DRAFT policy.
	Create(ctx context.Context, p *Policy) error

	// Get loads a policy. Returns ErrPolicyNotFound if missing.
	Get(ctx context.Context, id ID) (*Policy, error)

	// PersistActivation atomically writes the activated policy and its snapshot.
	// Fails with ErrConcurrentModification if the stored policy is no longer DRAFT.
	PersistActivation(ctx context.Context, p *Policy, snap PricingSnapshot) error

	// SaveTransition writes p if the stored status still equals from.
	// Fails with ErrConcurrentModification otherwise.
	SaveTransition(ctx context.Context, p *Policy, from Status) error

	// ExpireActive expires every ACTIVE policy whose period ends before cutoff
	// and returns how many were expired.
	ExpireActive(ctx context.Context, cutoff calendar.Date) (int, error)

	// Snapshot loads a policy's pricing snapshot. Returns ErrSnapshotNotFound.
	Snapshot(ctx context.Context, id ID) (PricingSnapshot, error)
}

// =============================================================================
// DIRECTORY - Reference lookups
// =============================================================================

// Building is the pricing-relevant profile of an insured building.
type Building struct {
	ID             BuildingID
	CountryID      string
	CountyID       string
	CityID         string
	Type           pricing.BuildingType
	RiskIndicators *pricing.RiskIndicators
}

type Directory interface {
	// Building returns the building profile. Returns ErrBuildingNotFound.
	Building(ctx context.Context, id BuildingID) (Building, error)

	// BrokerCommission returns the broker's commission, or nil when the broker
	// has none configured.
	BrokerCommission(ctx context.Context, id BrokerID) (*pricing.Percentage, error)
}

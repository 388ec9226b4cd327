/*
Package policy implements the insurance policy lifecycle.

PURPOSE:
  A policy is created as a DRAFT, priced and activated exactly once, and
  then either cancelled or expired. Activation is the only point where the
  final premium changes, and it is recorded with an immutable pricing
  snapshot.

STATE MACHINE:
  ┌───────┐  activate   ┌────────┐  cancel   ┌───────────┐
  │ DRAFT │────────────▶│ ACTIVE │──────────▶│ CANCELLED │
  └───────┘             └────────┘           └───────────┘
                             │
                             │ expire        ┌───────────┐
                             └──────────────▶│  EXPIRED  │
                                             └───────────┘

  Any other transition fails with a TransitionError and leaves the policy
  unchanged.

KEY COMPONENTS:
  Policy:           the state machine (this file)
  PricingSnapshot:  audit record built at activation (snapshot.go)
  Service:          compute-then-commit orchestration (service.go)
  Store, Directory: persistence and reference collaborators (store.go)
*/
package policy

import (
	"strings"
	"time"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/pricing"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ID string
type ClientID string
type BuildingID string
type BrokerID string
type CurrencyID string

// maxPolicyNumberLen bounds policy numbers to what storage accepts.
const maxPolicyNumberLen = 64

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// ParseStatus accepts the four known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusDraft, StatusActive, StatusCancelled, StatusExpired:
		return st, nil
	}
	return "", invalid("status", "unknown status "+s)
}

// =============================================================================
// VALUE OBJECTS
// =============================================================================

// References are the external records a policy points at.
type References struct {
	ClientID   ClientID
	BuildingID BuildingID
	BrokerID   BrokerID
	CurrencyID CurrencyID
}

func (r References) validate() error {
	switch {
	case r.ClientID == "":
		return invalid("references", "client id required")
	case r.BuildingID == "":
		return invalid("references", "building id required")
	case r.BrokerID == "":
		return invalid("references", "broker id required")
	case r.CurrencyID == "":
		return invalid("references", "currency id required")
	}
	return nil
}

// Cancellation is set once, by Cancel, and never cleared.
type Cancellation struct {
	CancelledAt calendar.Date
	Reason      string
}

// =============================================================================
// POLICY - Lifecycle state machine
// =============================================================================

// Policy owns its status, period, premiums and cancellation data. Fields are
// unexported so every change goes through a transition method.
type Policy struct {
	id           ID
	number       string
	refs         References
	status       Status
	period       calendar.Period
	basePremium  pricing.Premium
	finalPremium pricing.Premium
	cancellation *Cancellation
}

// NewDraft creates a policy in DRAFT. The final premium starts equal to the
// base premium and is recomputed at activation.
func NewDraft(id ID, number string, refs References, period calendar.Period, base pricing.Premium) (*Policy, error) {
	if id == "" {
		return nil, invalid("policy id", "required")
	}
	if strings.TrimSpace(number) == "" {
		return nil, invalid("policy number", "required")
	}
	if len(number) > maxPolicyNumberLen {
		return nil, invalid("policy number", "too long")
	}
	if err := refs.validate(); err != nil {
		return nil, err
	}
	if _, err := calendar.NewPeriod(period.Start, period.End); err != nil {
		return nil, invalid("period", err.Error())
	}
	if !base.Decimal().IsPositive() {
		return nil, invalid("base premium", "must be greater than zero")
	}

	return &Policy{
		id:           id,
		number:       number,
		refs:         refs,
		status:       StatusDraft,
		period:       period,
		basePremium:  base,
		finalPremium: base,
	}, nil
}

// Activate moves a DRAFT policy to ACTIVE with the given final premium.
// The caller prices the policy beforehand; the base premium is unchanged.
// A policy whose period started before today (as of now) cannot be activated.
func (p *Policy) Activate(final pricing.Premium, now time.Time) error {
	if p.status != StatusDraft {
		return p.transitionError(TransitionActivate)
	}
	if !final.Decimal().IsPositive() {
		return invalid("final premium", "required")
	}
	if p.period.Start.Before(calendar.DateOf(now)) {
		return invalid("period", "start date "+p.period.Start.String()+" is in the past")
	}

	p.status = StatusActive
	p.finalPremium = final
	return nil
}

// Cancel moves an ACTIVE policy to CANCELLED, stamped with today's date.
func (p *Policy) Cancel(reason string, now time.Time) error {
	if p.status != StatusActive {
		return p.transitionError(TransitionCancel)
	}
	if strings.TrimSpace(reason) == "" {
		return invalid("cancellation reason", "required")
	}

	p.status = StatusCancelled
	p.cancellation = &Cancellation{CancelledAt: calendar.DateOf(now), Reason: reason}
	return nil
}

// Expire moves an ACTIVE policy to EXPIRED. It does not look at the period
// end; callers select which policies qualify.
func (p *Policy) Expire() error {
	if p.status != StatusActive {
		return p.transitionError(TransitionExpire)
	}
	p.status = StatusExpired
	return nil
}

func (p *Policy) transitionError(t Transition) error {
	return &TransitionError{PolicyID: p.id, Current: p.status, Attempted: t}
}

// Accessors
func (p *Policy) ID() ID                        { return p.id }
func (p *Policy) Number() string                { return p.number }
func (p *Policy) References() References        { return p.refs }
func (p *Policy) Status() Status                { return p.status }
func (p *Policy) Period() calendar.Period       { return p.period }
func (p *Policy) BasePremium() pricing.Premium  { return p.basePremium }
func (p *Policy) FinalPremium() pricing.Premium { return p.finalPremium }

// Cancellation returns a copy of the cancellation data, or nil.
func (p *Policy) Cancellation() *Cancellation {
	if p.cancellation == nil {
		return nil
	}
	c := *p.cancellation
	return &c
}

// =============================================================================
// STATE - Flat form for persistence adapters
// =============================================================================

// State is the flat, exported form of a Policy used by storage adapters.
type State struct {
	ID           ID
	Number       string
	References   References
	Status       Status
	Period       calendar.Period
	BasePremium  pricing.Premium
	FinalPremium pricing.Premium
	Cancellation *Cancellation
}

// State returns the policy's current state.
func (p *Policy) State() State {
	return State{
		ID:           p.id,
		Number:       p.number,
		References:   p.refs,
		Status:       p.status,
		Period:       p.period,
		BasePremium:  p.basePremium,
		FinalPremium: p.finalPremium,
		Cancellation: p.Cancellation(),
	}
}

// Restore rebuilds a policy from stored state, rejecting inconsistent rows.
func Restore(s State) (*Policy, error) {
	p, err := NewDraft(s.ID, s.Number, s.References, s.Period, s.BasePremium)
	if err != nil {
		return nil, err
	}
	if _, err := ParseStatus(string(s.Status)); err != nil {
		return nil, err
	}
	if !s.FinalPremium.Decimal().IsPositive() {
		return nil, invalid("final premium", "must be greater than zero")
	}
	if (s.Status == StatusCancelled) != (s.Cancellation != nil) {
		return nil, invalid("cancellation", "must be set exactly when status is CANCELLED")
	}

	p.status = s.Status
	p.finalPremium = s.FinalPremium
	if s.Cancellation != nil {
		c := *s.Cancellation
		p.cancellation = &c
	}
	return p, nil
}

/*
service.go - Policy lifecycle orchestration

PURPOSE:
  Wires the state machine to its collaborators. Every operation follows
  compute-then-commit: all lookups and pricing happen first, and only when
  they succeed is anything written. A failed lookup changes nothing.

ACTIVATION FLOW:
  ┌────────┐   ┌──────────────┐   ┌────────────┐   ┌──────────┐   ┌────────────────────┐
  │  load  │──▶│ build pricing│──▶│ calculate  │──▶│ activate │──▶│ persist policy +   │
  │ (DRAFT)│   │   context    │   │ (pure)     │   │ (guard)  │   │ snapshot atomically│
  └────────┘   └──────────────┘   └────────────┘   └──────────┘   └────────────────────┘

EXAMPLE:
  svc := policy.NewService(store, store, store, logger)
  p, err := svc.CreateDraft(ctx, policy.DraftInput{...})
  p, snap, err := svc.Activate(ctx, p.ID())

SEE ALSO:
  - policy.go: state machine
  - pricing/calculator.go: premium computation
*/
package policy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/pricing"
)

// DraftInput is the data needed to create a draft policy.
type DraftInput struct {
	Number      string
	References  References
	Period      calendar.Period
	BasePremium pricing.Premium
}

// Service runs policy lifecycle operations against its collaborators.
type Service struct {
	Store      Store
	Directory  Directory
	Calculator *pricing.Calculator
	Logger     *zap.Logger

	// Now is the clock; NewID generates policy and snapshot ids.
	Now   func() time.Time
	NewID func() string
}

// NewService returns a Service pricing against rates.
func NewService(store Store, directory Directory, rates pricing.RateProvider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Store:      store,
		Directory:  directory,
		Calculator: pricing.NewCalculator(pricing.NewAggregator(rates)),
		Logger:     logger,
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

// CreateDraft validates the input and stores a new DRAFT policy.
func (s *Service) CreateDraft(ctx context.Context, in DraftInput) (*Policy, error) {
	p, err := NewDraft(ID(s.NewID()), in.Number, in.References, in.Period, in.BasePremium)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Info("policy draft created",
		zap.String("policy_id", string(p.ID())),
		zap.String("policy_number", p.Number()),
		zap.String("base_premium", p.BasePremium().String()),
	)
	return p, nil
}

// Get loads a policy.
func (s *Service) Get(ctx context.Context, id ID) (*Policy, error) {
	return s.Store.Get(ctx, id)
}

// PricingContext assembles the context a policy is priced against from its
// building profile and broker commission.
func (s *Service) PricingContext(ctx context.Context, p *Policy) (pricing.PricingContext, error) {
	refs := p.References()

	b, err := s.Directory.Building(ctx, refs.BuildingID)
	if err != nil {
		return pricing.PricingContext{}, err
	}
	commission, err := s.Directory.BrokerCommission(ctx, refs.BrokerID)
	if err != nil {
		return pricing.PricingContext{}, err
	}

	return pricing.PricingContext{
		CountryID:        b.CountryID,
		CountyID:         b.CountyID,
		CityID:           b.CityID,
		BuildingType:     b.Type,
		RiskIndicators:   b.RiskIndicators,
		BrokerID:         string(refs.BrokerID),
		BrokerCommission: commission,
	}, nil
}

// Quote prices a policy as of today without changing anything.
func (s *Service) Quote(ctx context.Context, id ID) (pricing.Quote, error) {
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return pricing.Quote{}, err
	}
	pc, err := s.PricingContext(ctx, p)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.Calculator.Calculate(ctx, p.BasePremium(), pc, calendar.DateOf(s.Now()))
}

// Activate prices a DRAFT policy as of today, activates it and persists the
// policy together with its pricing snapshot.
func (s *Service) Activate(ctx context.Context, id ID) (*Policy, PricingSnapshot, error) {
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, PricingSnapshot{}, err
	}
	if p.Status() != StatusDraft {
		return nil, PricingSnapshot{}, p.transitionError(TransitionActivate)
	}

	pc, err := s.PricingContext(ctx, p)
	if err != nil {
		return nil, PricingSnapshot{}, err
	}

	now := s.Now()
	quote, err := s.Calculator.Calculate(ctx, p.BasePremium(), pc, calendar.DateOf(now))
	if err != nil {
		return nil, PricingSnapshot{}, err
	}

	if err := p.Activate(quote.FinalPremium, now); err != nil {
		return nil, PricingSnapshot{}, err
	}
	snap := NewSnapshot(s.NewID(), p.ID(), p.BasePremium(), p.FinalPremium(), quote.Adjustments, now)

	if err := s.Store.PersistActivation(ctx, p, snap); err != nil {
		s.Logger.Warn("policy activation not persisted",
			zap.String("policy_id", string(id)),
			zap.Error(err),
		)
		return nil, PricingSnapshot{}, err
	}

	s.Logger.Info("policy activated",
		zap.String("policy_id", string(id)),
		zap.String("base_premium", p.BasePremium().String()),
		zap.String("final_premium", p.FinalPremium().String()),
		zap.Int("adjustments", len(snap.Items)),
	)
	return p, snap, nil
}

// Cancel cancels an ACTIVE policy with the given reason.
func (s *Service) Cancel(ctx context.Context, id ID, reason string) (*Policy, error) {
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := p.Status()
	if err := p.Cancel(reason, s.Now()); err != nil {
		return nil, err
	}
	if err := s.Store.SaveTransition(ctx, p, from); err != nil {
		return nil, err
	}

	s.Logger.Info("policy cancelled",
		zap.String("policy_id", string(id)),
		zap.String("reason", reason),
	)
	return p, nil
}

// Expire expires a single ACTIVE policy.
func (s *Service) Expire(ctx context.Context, id ID) (*Policy, error) {
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := p.Status()
	if err := p.Expire(); err != nil {
		return nil, err
	}
	if err := s.Store.SaveTransition(ctx, p, from); err != nil {
		return nil, err
	}

	s.Logger.Info("policy expired", zap.String("policy_id", string(id)))
	return p, nil
}

// ExpireDue expires every ACTIVE policy whose period ended before cutoff.
func (s *Service) ExpireDue(ctx context.Context, cutoff calendar.Date) (int, error) {
	if cutoff.IsZero() {
		return 0, invalid("cutoff", "required")
	}
	n, err := s.Store.ExpireActive(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.Logger.Info("expired due policies",
		zap.String("cutoff", cutoff.String()),
		zap.Int("expired", n),
	)
	return n, nil
}

// Snapshot returns the pricing snapshot recorded at activation.
func (s *Service) Snapshot(ctx context.Context, id ID) (PricingSnapshot, error) {
	return s.Store.Snapshot(ctx, id)
}

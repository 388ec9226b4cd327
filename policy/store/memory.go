// Package store provides in-memory collaborator implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/policy"
	"github.com/warp/premium-engine/pricing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements pricing.RateProvider, policy.Directory and policy.Store.
// Policies are held as state copies so callers never share a *policy.Policy
// with the store.
type Memory struct {
	mu sync.RWMutex

	// catalog, in insertion order
	riskFactors []pricing.RiskFactorConfiguration
	fees        []pricing.FeeConfiguration

	// references
	buildings   map[policy.BuildingID]policy.Building
	commissions map[policy.BrokerID]pricing.Percentage

	// policies
	policies  map[policy.ID]policy.State
	numbers   map[string]policy.ID
	snapshots map[policy.ID]policy.PricingSnapshot
}

var (
	_ pricing.RateProvider = (*Memory)(nil)
	_ policy.Directory     = (*Memory)(nil)
	_ policy.Store         = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		buildings:   make(map[policy.BuildingID]policy.Building),
		commissions: make(map[policy.BrokerID]pricing.Percentage),
		policies:    make(map[policy.ID]policy.State),
		numbers:     make(map[string]policy.ID),
		snapshots:   make(map[policy.ID]policy.PricingSnapshot),
	}
}

// =============================================================================
// CATALOG (pricing.RateProvider)
// =============================================================================

func (m *Memory) AddRiskFactor(rf pricing.RiskFactorConfiguration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riskFactors = append(m.riskFactors, rf)
}

func (m *Memory) AddFee(f pricing.FeeConfiguration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fees = append(m.fees, f)
}

// SaveRiskFactor adds rf, replacing any configuration with the same id.
func (m *Memory) SaveRiskFactor(_ context.Context, rf pricing.RiskFactorConfiguration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.riskFactors {
		if m.riskFactors[i].ID == rf.ID {
			m.riskFactors[i] = rf
			return nil
		}
	}
	m.riskFactors = append(m.riskFactors, rf)
	return nil
}

// SaveFee adds f, replacing any configuration with the same id.
func (m *Memory) SaveFee(_ context.Context, f pricing.FeeConfiguration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.fees {
		if m.fees[i].ID == f.ID {
			m.fees[i] = f
			return nil
		}
	}
	m.fees = append(m.fees, f)
	return nil
}

func (m *Memory) ActiveRiskFactors(_ context.Context, targets []pricing.RiskTarget) ([]pricing.RiskFactorConfiguration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[pricing.RiskTarget]bool, len(targets))
	for _, t := range targets {
		wanted[t] = true
	}

	var result []pricing.RiskFactorConfiguration
	for _, rf := range m.riskFactors {
		if rf.Active && wanted[rf.Target] {
			result = append(result, rf)
		}
	}
	return result, nil
}

func (m *Memory) ActiveFeesExcludingType(_ context.Context, excluded pricing.FeeType, asOf calendar.Date) ([]pricing.FeeConfiguration, error) {
	return m.filterFees(func(f pricing.FeeConfiguration) bool {
		return f.Type != excluded && f.AppliesOn(asOf)
	}), nil
}

func (m *Memory) ActiveFeesByType(_ context.Context, t pricing.FeeType, asOf calendar.Date) ([]pricing.FeeConfiguration, error) {
	return m.filterFees(func(f pricing.FeeConfiguration) bool {
		return f.Type == t && f.AppliesOn(asOf)
	}), nil
}

func (m *Memory) filterFees(keep func(pricing.FeeConfiguration) bool) []pricing.FeeConfiguration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []pricing.FeeConfiguration
	for _, f := range m.fees {
		if keep(f) {
			result = append(result, f)
		}
	}
	return result
}

// =============================================================================
// REFERENCES (policy.Directory)
// =============================================================================

func (m *Memory) AddBuilding(b policy.Building) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildings[b.ID] = b
}

func (m *Memory) SetBrokerCommission(id policy.BrokerID, pct pricing.Percentage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commissions[id] = pct
}

func (m *Memory) SaveBuilding(_ context.Context, b policy.Building) error {
	m.AddBuilding(b)
	return nil
}

// SaveBroker records a broker's commission; nil clears it.
func (m *Memory) SaveBroker(_ context.Context, id policy.BrokerID, pct *pricing.Percentage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pct == nil {
		delete(m.commissions, id)
		return nil
	}
	m.commissions[id] = *pct
	return nil
}

func (m *Memory) Building(_ context.Context, id policy.BuildingID) (policy.Building, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.buildings[id]
	if !ok {
		return policy.Building{}, policy.ErrBuildingNotFound
	}
	return b, nil
}

func (m *Memory) BrokerCommission(_ context.Context, id policy.BrokerID) (*pricing.Percentage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pct, ok := m.commissions[id]
	if !ok {
		return nil, nil
	}
	return &pct, nil
}

// =============================================================================
// POLICIES (policy.Store)
// =============================================================================

func (m *Memory) Create(_ context.Context, p *policy.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := p.State()
	if _, exists := m.policies[s.ID]; exists {
		return policy.ErrConcurrentModification
	}
	if _, taken := m.numbers[s.Number]; taken {
		return policy.ErrDuplicatePolicyNumber
	}
	m.policies[s.ID] = s
	m.numbers[s.Number] = s.ID
	return nil
}

func (m *Memory) Get(_ context.Context, id policy.ID) (*policy.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.policies[id]
	if !ok {
		return nil, policy.ErrPolicyNotFound
	}
	return policy.Restore(s)
}

// PersistActivation checks both conditions before writing either record.
func (m *Memory) PersistActivation(_ context.Context, p *policy.Policy, snap policy.PricingSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := p.State()
	stored, ok := m.policies[s.ID]
	if !ok {
		return policy.ErrPolicyNotFound
	}
	if stored.Status != policy.StatusDraft {
		return policy.ErrConcurrentModification
	}
	if _, exists := m.snapshots[s.ID]; exists {
		return policy.ErrSnapshotExists
	}

	m.policies[s.ID] = s
	m.snapshots[s.ID] = copySnapshot(snap)
	return nil
}

func (m *Memory) SaveTransition(_ context.Context, p *policy.Policy, from policy.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := p.State()
	stored, ok := m.policies[s.ID]
	if !ok {
		return policy.ErrPolicyNotFound
	}
	if stored.Status != from {
		return policy.ErrConcurrentModification
	}
	m.policies[s.ID] = s
	return nil
}

func (m *Memory) ExpireActive(_ context.Context, cutoff calendar.Date) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.policies {
		if s.Status == policy.StatusActive && s.Period.End.Before(cutoff) {
			s.Status = policy.StatusExpired
			m.policies[id] = s
			n++
		}
	}
	return n, nil
}

func (m *Memory) Snapshot(_ context.Context, id policy.ID) (policy.PricingSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[id]
	if !ok {
		return policy.PricingSnapshot{}, policy.ErrSnapshotNotFound
	}
	return copySnapshot(snap), nil
}

func copySnapshot(s policy.PricingSnapshot) policy.PricingSnapshot {
	items := make([]pricing.AppliedAdjustment, len(s.Items))
	copy(items, s.Items)
	s.Items = items
	return s
}

/*
Package sqlite provides a SQLite-backed implementation of the collaborator
interfaces.

PURPOSE:
  Implements pricing.RateProvider, policy.Directory and policy.Store on a
  single SQLite database. The same statements work on PostgreSQL with
  minor dialect changes (placeholders, upsert syntax).

INTERFACES IMPLEMENTED:
  pricing.RateProvider: risk factor and fee catalog lookups
  policy.Directory:     building profiles and broker commissions
  policy.Store:         policies and pricing snapshots

KEY TABLES:
  policies:          one row per policy, versioned on every transition
  pricing_snapshots: one row per activated policy (UNIQUE policy_id)
  risk_factors:      catalog; CHECK enforces the risk target shape per level
  fees:              catalog with effective ranges
  buildings:         pricing-relevant building profile
  brokers:           broker commission (nullable)

ATOMIC ACTIVATION:
  PersistActivation runs in one database transaction:
    UPDATE policies ... WHERE id = ? AND status = 'DRAFT'
    INSERT INTO pricing_snapshots ...
  Zero rows updated means another activation (or transition) committed
  first; the transaction rolls back and nothing is written.

CONDITIONAL EXPIRATION:
  ExpireActive is one set-based UPDATE:
    UPDATE policies SET status = 'EXPIRED'
    WHERE status = 'ACTIVE' AND end_date < ?
  Cancel uses the same WHERE status = ? guard, so whichever commits first
  wins and the other fails on its guard.

ORDERING:
  Catalog lookups return rows in insertion order (rowid), which is the
  order the aggregator records in the audit trail.

USAGE:
  store, err := sqlite.New("./data/premium.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := policy.NewService(store, store, store, logger)

SEE ALSO:
  - policy/store.go: Store and Directory contracts
  - pricing/provider.go: RateProvider contract
  - policy/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/policy"
	"github.com/warp/premium-engine/pricing"
)

// Store implements all collaborator interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ pricing.RateProvider = (*Store)(nil)
	_ policy.Directory     = (*Store)(nil)
	_ policy.Store         = (*Store)(nil)
)

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	store := NewFromDB(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// NewFromDB wraps an open database whose schema is already in place.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Policies
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		policy_number TEXT NOT NULL UNIQUE,
		client_id TEXT NOT NULL,
		building_id TEXT NOT NULL,
		broker_id TEXT NOT NULL,
		currency_id TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('DRAFT', 'ACTIVE', 'CANCELLED', 'EXPIRED')),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		base_premium TEXT NOT NULL,
		final_premium TEXT NOT NULL,
		cancelled_at TEXT,
		cancellation_reason TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Bulk expiration scans active policies by end date
	CREATE INDEX IF NOT EXISTS idx_policies_status_end
		ON policies(status, end_date);

	-- Pricing snapshots: exactly one per policy
	CREATE TABLE IF NOT EXISTS pricing_snapshots (
		id TEXT PRIMARY KEY,
		policy_id TEXT NOT NULL UNIQUE REFERENCES policies(id),
		base_premium TEXT NOT NULL,
		final_premium TEXT NOT NULL,
		total_fee_pct TEXT NOT NULL,
		total_risk_pct TEXT NOT NULL,
		items_json TEXT NOT NULL,
		snapshot_date TEXT NOT NULL
	);

	-- Risk factor catalog. A geography level carries reference_id only;
	-- BUILDING_TYPE carries building_type only.
	CREATE TABLE IF NOT EXISTS risk_factors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		level TEXT NOT NULL,
		reference_id TEXT,
		building_type TEXT,
		percentage TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		CHECK (
			(level IN ('COUNTRY', 'COUNTY', 'CITY') AND reference_id IS NOT NULL AND building_type IS NULL)
			OR (level = 'BUILDING_TYPE' AND building_type IS NOT NULL AND reference_id IS NULL)
		)
	);

	CREATE INDEX IF NOT EXISTS idx_risk_factors_target
		ON risk_factors(level, reference_id, building_type) WHERE active;

	-- Fee catalog
	CREATE TABLE IF NOT EXISTS fees (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		fee_type TEXT NOT NULL CHECK (fee_type IN ('ADMIN_FEE', 'RISK_ADJUSTMENT', 'BROKER_COMMISSION')),
		percentage TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_fees_type_effective
		ON fees(fee_type, effective_from) WHERE active;

	-- Buildings (pricing profile only)
	CREATE TABLE IF NOT EXISTS buildings (
		id TEXT PRIMARY KEY,
		country_id TEXT NOT NULL,
		county_id TEXT NOT NULL,
		city_id TEXT NOT NULL,
		building_type TEXT NOT NULL,
		has_risk_indicators BOOLEAN NOT NULL DEFAULT FALSE,
		flood_zone BOOLEAN,
		earthquake_zone BOOLEAN
	);

	-- Brokers
	CREATE TABLE IF NOT EXISTS brokers (
		id TEXT PRIMARY KEY,
		commission TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// POLICY STORE (policy.Store interface)
// =============================================================================

// Create inserts a new policy row.
func (s *Store) Create(ctx context.Context, p *policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := p.State()
	now := time.Now().UTC().Format(time.RFC3339)
	cancelledAt, reason := cancellationColumns(st.Cancellation)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policies
		(id, policy_number, client_id, building_id, broker_id, currency_id, status,
		 start_date, end_date, base_premium, final_premium, cancelled_at, cancellation_reason,
		 version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`,
		st.ID, st.Number,
		st.References.ClientID, st.References.BuildingID, st.References.BrokerID, st.References.CurrencyID,
		st.Status,
		st.Period.Start.String(), st.Period.End.String(),
		st.BasePremium.String(), st.FinalPremium.String(),
		cancelledAt, reason,
		now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			if strings.Contains(err.Error(), "policy_number") {
				return policy.ErrDuplicatePolicyNumber
			}
			return policy.ErrConcurrentModification
		}
		return fmt.Errorf("failed to insert policy: %w", err)
	}
	return nil
}

// Get loads a policy by id.
func (s *Store) Get(ctx context.Context, id policy.ID) (*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		st                  policy.State
		status              string
		startDate, endDate  string
		base, final         string
		cancelledAt, reason sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, policy_number, client_id, building_id, broker_id, currency_id, status,
		       start_date, end_date, base_premium, final_premium, cancelled_at, cancellation_reason
		FROM policies WHERE id = ?
	`, id).Scan(
		&st.ID, &st.Number,
		&st.References.ClientID, &st.References.BuildingID, &st.References.BrokerID, &st.References.CurrencyID,
		&status, &startDate, &endDate, &base, &final, &cancelledAt, &reason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, policy.ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	st.Status = policy.Status(status)
	if st.Period.Start, err = calendar.ParseDate(startDate); err != nil {
		return nil, err
	}
	if st.Period.End, err = calendar.ParseDate(endDate); err != nil {
		return nil, err
	}
	if st.BasePremium, err = pricing.ParsePremium(base); err != nil {
		return nil, err
	}
	if st.FinalPremium, err = pricing.ParsePremium(final); err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		d, err := calendar.ParseDate(cancelledAt.String)
		if err != nil {
			return nil, err
		}
		st.Cancellation = &policy.Cancellation{CancelledAt: d, Reason: reason.String}
	}

	return policy.Restore(st)
}

// PersistActivation writes the activated policy and its snapshot in one
// database transaction.
func (s *Store) PersistActivation(ctx context.Context, p *policy.Policy, snap policy.PricingSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemsJSON, err := json.Marshal(toItemRows(snap.Items))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot items: %w", err)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	st := p.State()
	if err := s.transitionTx(ctx, sqlTx, st, policy.StatusDraft); err != nil {
		return err
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO pricing_snapshots
		(id, policy_id, base_premium, final_premium, total_fee_pct, total_risk_pct, items_json, snapshot_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.ID, snap.PolicyID,
		snap.BasePremium.String(), snap.FinalPremium.String(),
		snap.TotalFeePct.Decimal().String(), snap.TotalRiskPct.Decimal().String(),
		string(itemsJSON),
		snap.SnapshotDate.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return policy.ErrSnapshotExists
		}
		return fmt.Errorf("failed to insert pricing snapshot: %w", err)
	}

	return sqlTx.Commit()
}

// SaveTransition writes the policy if its stored status still equals from.
func (s *Store) SaveTransition(ctx context.Context, p *policy.Policy, from policy.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transitionTx(ctx, s.db, p.State(), from)
}

func (s *Store) transitionTx(ctx context.Context, db interface {
	execer
	queryer
}, st policy.State, from policy.Status) error {
	cancelledAt, reason := cancellationColumns(st.Cancellation)

	res, err := db.ExecContext(ctx, `
		UPDATE policies
		SET status = ?, final_premium = ?, cancelled_at = ?, cancellation_reason = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND status = ?
	`,
		st.Status, st.FinalPremium.String(), cancelledAt, reason,
		time.Now().UTC().Format(time.RFC3339),
		st.ID, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update policy: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update policy: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM policies WHERE id = ?", st.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check policy: %w", err)
	}
	if exists == 0 {
		return policy.ErrPolicyNotFound
	}
	return policy.ErrConcurrentModification
}

// ExpireActive expires every ACTIVE policy whose end date is before cutoff.
func (s *Store) ExpireActive(ctx context.Context, cutoff calendar.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE policies
		SET status = 'EXPIRED', version = version + 1, updated_at = ?
		WHERE status = 'ACTIVE' AND end_date < ?
	`, time.Now().UTC().Format(time.RFC3339), cutoff.String())
	if err != nil {
		return 0, fmt.Errorf("failed to expire policies: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to expire policies: %w", err)
	}
	return int(n), nil
}

// Snapshot loads the pricing snapshot of a policy.
func (s *Store) Snapshot(ctx context.Context, id policy.ID) (policy.PricingSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		snap                 policy.PricingSnapshot
		base, final          string
		feePct, riskPct      string
		itemsJSON, snappedAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, policy_id, base_premium, final_premium, total_fee_pct, total_risk_pct, items_json, snapshot_date
		FROM pricing_snapshots WHERE policy_id = ?
	`, id).Scan(&snap.ID, &snap.PolicyID, &base, &final, &feePct, &riskPct, &itemsJSON, &snappedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return policy.PricingSnapshot{}, policy.ErrSnapshotNotFound
	}
	if err != nil {
		return policy.PricingSnapshot{}, fmt.Errorf("failed to load pricing snapshot: %w", err)
	}

	if snap.BasePremium, err = pricing.ParsePremium(base); err != nil {
		return policy.PricingSnapshot{}, err
	}
	if snap.FinalPremium, err = pricing.ParsePremium(final); err != nil {
		return policy.PricingSnapshot{}, err
	}
	if snap.TotalFeePct, err = pricing.ParsePercentage(feePct); err != nil {
		return policy.PricingSnapshot{}, err
	}
	if snap.TotalRiskPct, err = pricing.ParsePercentage(riskPct); err != nil {
		return policy.PricingSnapshot{}, err
	}
	if snap.SnapshotDate, err = time.Parse(time.RFC3339Nano, snappedAt); err != nil {
		return policy.PricingSnapshot{}, fmt.Errorf("invalid snapshot date: %w", err)
	}

	var rows []itemRow
	if err := json.Unmarshal([]byte(itemsJSON), &rows); err != nil {
		return policy.PricingSnapshot{}, fmt.Errorf("failed to decode snapshot items: %w", err)
	}
	if snap.Items, err = fromItemRows(rows); err != nil {
		return policy.PricingSnapshot{}, err
	}
	return snap, nil
}

// itemRow is the stored JSON form of an applied adjustment.
type itemRow struct {
	SourceType   string `json:"source_type"`
	SourceID     string `json:"source_id"`
	Name         string `json:"name"`
	Percentage   string `json:"percentage"`
	AppliedOrder int    `json:"applied_order"`
}

func toItemRows(items []pricing.AppliedAdjustment) []itemRow {
	rows := make([]itemRow, len(items))
	for i, it := range items {
		rows[i] = itemRow{
			SourceType:   it.SourceType,
			SourceID:     it.SourceID,
			Name:         it.Name,
			Percentage:   it.Percentage.Decimal().String(),
			AppliedOrder: it.AppliedOrder,
		}
	}
	return rows
}

func fromItemRows(rows []itemRow) ([]pricing.AppliedAdjustment, error) {
	items := make([]pricing.AppliedAdjustment, len(rows))
	for i, r := range rows {
		pct, err := pricing.ParsePercentage(r.Percentage)
		if err != nil {
			return nil, err
		}
		items[i] = pricing.AppliedAdjustment{
			SourceType:   r.SourceType,
			SourceID:     r.SourceID,
			Name:         r.Name,
			Percentage:   pct,
			AppliedOrder: r.AppliedOrder,
		}
	}
	return items, nil
}

// =============================================================================
// CATALOG (pricing.RateProvider interface)
// =============================================================================

// SaveRiskFactor inserts or replaces a risk factor configuration.
func (s *Store) SaveRiskFactor(ctx context.Context, rf pricing.RiskFactorConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var refID, buildingType sql.NullString
	if id, ok := rf.Target.ReferenceID(); ok {
		refID = nullString(id)
	}
	if bt, ok := rf.Target.BuildingType(); ok {
		buildingType = nullString(string(bt))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_factors (id, name, level, reference_id, building_type, percentage, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			level = excluded.level,
			reference_id = excluded.reference_id,
			building_type = excluded.building_type,
			percentage = excluded.percentage,
			active = excluded.active
	`, rf.ID, rf.Name, rf.Target.Level(), refID, buildingType, rf.Percentage.Decimal().String(), rf.Active)
	if err != nil {
		return fmt.Errorf("failed to save risk factor: %w", err)
	}
	return nil
}

// SaveFee inserts or replaces a fee configuration.
func (s *Store) SaveFee(ctx context.Context, f pricing.FeeConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var effectiveTo sql.NullString
	if f.EffectiveTo != nil {
		effectiveTo = nullString(f.EffectiveTo.String())
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fees (id, code, name, fee_type, percentage, effective_from, effective_to, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			fee_type = excluded.fee_type,
			percentage = excluded.percentage,
			effective_from = excluded.effective_from,
			effective_to = excluded.effective_to,
			active = excluded.active
	`, f.ID, f.Code, f.Name, f.Type, f.Percentage.Decimal().String(), f.EffectiveFrom.String(), effectiveTo, f.Active)
	if err != nil {
		return fmt.Errorf("failed to save fee: %w", err)
	}
	return nil
}

// ActiveRiskFactors returns active risk factors matching any of targets.
func (s *Store) ActiveRiskFactors(ctx context.Context, targets []pricing.RiskTarget) ([]pricing.RiskFactorConfiguration, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		clauses []string
		args    []any
	)
	for _, t := range targets {
		if bt, ok := t.BuildingType(); ok {
			clauses = append(clauses, "(level = ? AND building_type = ?)")
			args = append(args, t.Level(), string(bt))
			continue
		}
		id, _ := t.ReferenceID()
		clauses = append(clauses, "(level = ? AND reference_id = ?)")
		args = append(args, t.Level(), id)
	}

	query := `
		SELECT id, name, level, reference_id, building_type, percentage, active
		FROM risk_factors
		WHERE active AND (` + strings.Join(clauses, " OR ") + `)
		ORDER BY rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk factors: %w", err)
	}
	defer rows.Close()

	var result []pricing.RiskFactorConfiguration
	for rows.Next() {
		var (
			rf                  pricing.RiskFactorConfiguration
			level, pct          string
			refID, buildingType sql.NullString
		)
		if err := rows.Scan(&rf.ID, &rf.Name, &level, &refID, &buildingType, &pct, &rf.Active); err != nil {
			return nil, fmt.Errorf("failed to scan risk factor: %w", err)
		}

		lvl, err := pricing.ParseTargetLevel(level)
		if err != nil {
			return nil, err
		}
		value := refID.String
		if lvl == pricing.LevelBuildingType {
			value = buildingType.String
		}
		if rf.Target, err = pricing.NewRiskTarget(lvl, value); err != nil {
			return nil, err
		}
		if rf.Percentage, err = pricing.ParsePercentage(pct); err != nil {
			return nil, err
		}
		result = append(result, rf)
	}
	return result, rows.Err()
}

// ActiveFeesExcludingType returns active fees effective on asOf, except type excluded.
func (s *Store) ActiveFeesExcludingType(ctx context.Context, excluded pricing.FeeType, asOf calendar.Date) ([]pricing.FeeConfiguration, error) {
	return s.queryFees(ctx, "fee_type <> ?", excluded, asOf)
}

// ActiveFeesByType returns active fees of type t effective on asOf.
func (s *Store) ActiveFeesByType(ctx context.Context, t pricing.FeeType, asOf calendar.Date) ([]pricing.FeeConfiguration, error) {
	return s.queryFees(ctx, "fee_type = ?", t, asOf)
}

func (s *Store) queryFees(ctx context.Context, typeClause string, t pricing.FeeType, asOf calendar.Date) ([]pricing.FeeConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, code, name, fee_type, percentage, effective_from, effective_to, active
		FROM fees
		WHERE active AND ` + typeClause + `
		  AND effective_from <= ?
		  AND (effective_to IS NULL OR effective_to >= ?)
		ORDER BY rowid ASC
	`

	day := asOf.String()
	rows, err := s.db.QueryContext(ctx, query, t, day, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query fees: %w", err)
	}
	defer rows.Close()

	var result []pricing.FeeConfiguration
	for rows.Next() {
		var (
			f                  pricing.FeeConfiguration
			feeType, pct, from string
			to                 sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Code, &f.Name, &feeType, &pct, &from, &to, &f.Active); err != nil {
			return nil, fmt.Errorf("failed to scan fee: %w", err)
		}

		if f.Type, err = pricing.ParseFeeType(feeType); err != nil {
			return nil, err
		}
		if f.Percentage, err = pricing.ParsePercentage(pct); err != nil {
			return nil, err
		}
		if f.EffectiveFrom, err = calendar.ParseDate(from); err != nil {
			return nil, err
		}
		if to.Valid {
			end, err := calendar.ParseDate(to.String)
			if err != nil {
				return nil, err
			}
			f.EffectiveTo = &end
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// =============================================================================
// REFERENCES (policy.Directory interface)
// =============================================================================

// SaveBuilding inserts or replaces a building profile.
func (s *Store) SaveBuilding(ctx context.Context, b policy.Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var flood, quake sql.NullBool
	hasIndicators := b.RiskIndicators != nil
	if hasIndicators {
		flood = nullBool(b.RiskIndicators.FloodZone)
		quake = nullBool(b.RiskIndicators.EarthquakeZone)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO buildings (id, country_id, county_id, city_id, building_type, has_risk_indicators, flood_zone, earthquake_zone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			country_id = excluded.country_id,
			county_id = excluded.county_id,
			city_id = excluded.city_id,
			building_type = excluded.building_type,
			has_risk_indicators = excluded.has_risk_indicators,
			flood_zone = excluded.flood_zone,
			earthquake_zone = excluded.earthquake_zone
	`, b.ID, b.CountryID, b.CountyID, b.CityID, b.Type, hasIndicators, flood, quake)
	if err != nil {
		return fmt.Errorf("failed to save building: %w", err)
	}
	return nil
}

// Building loads a building profile.
func (s *Store) Building(ctx context.Context, id policy.BuildingID) (policy.Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		b             policy.Building
		buildingType  string
		hasIndicators bool
		flood, quake  sql.NullBool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, country_id, county_id, city_id, building_type, has_risk_indicators, flood_zone, earthquake_zone
		FROM buildings WHERE id = ?
	`, id).Scan(&b.ID, &b.CountryID, &b.CountyID, &b.CityID, &buildingType, &hasIndicators, &flood, &quake)
	if errors.Is(err, sql.ErrNoRows) {
		return policy.Building{}, policy.ErrBuildingNotFound
	}
	if err != nil {
		return policy.Building{}, fmt.Errorf("failed to load building: %w", err)
	}

	b.Type = pricing.BuildingType(buildingType)
	if hasIndicators {
		b.RiskIndicators = &pricing.RiskIndicators{
			FloodZone:      boolPtr(flood),
			EarthquakeZone: boolPtr(quake),
		}
	}
	return b, nil
}

// SaveBroker records a broker and its commission; nil clears the commission.
func (s *Store) SaveBroker(ctx context.Context, id policy.BrokerID, pct *pricing.Percentage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var commission sql.NullString
	if pct != nil {
		commission = nullString(pct.Decimal().String())
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO brokers (id, commission) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET commission = excluded.commission
	`, id, commission)
	if err != nil {
		return fmt.Errorf("failed to save broker: %w", err)
	}
	return nil
}

// BrokerCommission returns the broker's commission, or nil when unknown or unset.
func (s *Store) BrokerCommission(ctx context.Context, id policy.BrokerID) (*pricing.Percentage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var commission sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT commission FROM brokers WHERE id = ?", id).Scan(&commission)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !commission.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load broker: %w", err)
	}

	pct, err := pricing.ParsePercentage(commission.String)
	if err != nil {
		return nil, err
	}
	return &pct, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func cancellationColumns(c *policy.Cancellation) (cancelledAt, reason sql.NullString) {
	if c == nil {
		return
	}
	return nullString(c.CancelledAt.String()), sql.NullString{String: c.Reason, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func boolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

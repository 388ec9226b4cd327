/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the domain
  model (unexported fields, decimal types) from the wire contract.

CONVENTIONS:
  - Money is a decimal string with 2 fractional digits: "1100.00"
  - Percentages are decimal-fraction strings: "0.0500" is 5%
  - Dates are "YYYY-MM-DD"; timestamps are RFC 3339

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/premium-engine/policy"
	"github.com/warp/premium-engine/pricing"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreatePolicyRequest is the body for creating a draft policy.
type CreatePolicyRequest struct {
	PolicyNumber string `json:"policy_number"`
	ClientID     string `json:"client_id"`
	BuildingID   string `json:"building_id"`
	BrokerID     string `json:"broker_id"`
	CurrencyID   string `json:"currency_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	BasePremium  string `json:"base_premium"`
}

// CancelPolicyRequest is the body for cancelling a policy.
type CancelPolicyRequest struct {
	Reason string `json:"reason"`
}

// RunExpirationsRequest is the body for a bulk expiration run.
// An empty cutoff means today.
type RunExpirationsRequest struct {
	Cutoff string `json:"cutoff,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// PolicyDTO represents a policy in API responses.
type PolicyDTO struct {
	ID           string           `json:"id"`
	PolicyNumber string           `json:"policy_number"`
	Status       string           `json:"status"`
	ClientID     string           `json:"client_id"`
	BuildingID   string           `json:"building_id"`
	BrokerID     string           `json:"broker_id"`
	CurrencyID   string           `json:"currency_id"`
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	BasePremium  string           `json:"base_premium"`
	FinalPremium string           `json:"final_premium"`
	Cancellation *CancellationDTO `json:"cancellation,omitempty"`
}

// CancellationDTO records when and why a policy was cancelled.
type CancellationDTO struct {
	CancelledAt string `json:"cancelled_at"`
	Reason      string `json:"reason"`
}

// AdjustmentDTO is one applied adjustment, in application order.
type AdjustmentDTO struct {
	SourceType   string `json:"source_type"`
	SourceID     string `json:"source_id"`
	Name         string `json:"name"`
	Percentage   string `json:"percentage"`
	AppliedOrder int    `json:"applied_order"`
}

// QuoteDTO is a priced policy that was not committed.
type QuoteDTO struct {
	PolicyID        string          `json:"policy_id"`
	AsOf            string          `json:"as_of"`
	BasePremium     string          `json:"base_premium"`
	FinalPremium    string          `json:"final_premium"`
	TotalAdjustment string          `json:"total_adjustment"`
	Adjustments     []AdjustmentDTO `json:"adjustments"`
}

// SnapshotDTO is the pricing snapshot recorded at activation.
type SnapshotDTO struct {
	ID           string          `json:"id"`
	PolicyID     string          `json:"policy_id"`
	BasePremium  string          `json:"base_premium"`
	FinalPremium string          `json:"final_premium"`
	TotalFeePct  string          `json:"total_fee_pct"`
	TotalRiskPct string          `json:"total_risk_pct"`
	SnapshotDate string          `json:"snapshot_date"`
	Items        []AdjustmentDTO `json:"items"`
}

// ActivationDTO is returned by a successful activation.
type ActivationDTO struct {
	Policy   PolicyDTO   `json:"policy"`
	Snapshot SnapshotDTO `json:"snapshot"`
}

// ExpirationRunDTO reports a bulk expiration run.
type ExpirationRunDTO struct {
	Cutoff  string `json:"cutoff"`
	Expired int    `json:"expired"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPolicyDTO(p *policy.Policy) PolicyDTO {
	refs := p.References()
	dto := PolicyDTO{
		ID:           string(p.ID()),
		PolicyNumber: p.Number(),
		Status:       string(p.Status()),
		ClientID:     string(refs.ClientID),
		BuildingID:   string(refs.BuildingID),
		BrokerID:     string(refs.BrokerID),
		CurrencyID:   string(refs.CurrencyID),
		StartDate:    p.Period().Start.String(),
		EndDate:      p.Period().End.String(),
		BasePremium:  p.BasePremium().String(),
		FinalPremium: p.FinalPremium().String(),
	}
	if c := p.Cancellation(); c != nil {
		dto.Cancellation = &CancellationDTO{
			CancelledAt: c.CancelledAt.String(),
			Reason:      c.Reason,
		}
	}
	return dto
}

func toAdjustmentDTOs(items []pricing.AppliedAdjustment) []AdjustmentDTO {
	dtos := make([]AdjustmentDTO, len(items))
	for i, a := range items {
		dtos[i] = AdjustmentDTO{
			SourceType:   a.SourceType,
			SourceID:     a.SourceID,
			Name:         a.Name,
			Percentage:   a.Percentage.String(),
			AppliedOrder: a.AppliedOrder,
		}
	}
	return dtos
}

// NewQuoteDTO converts a quote for policy id.
func NewQuoteDTO(id policy.ID, q pricing.Quote) QuoteDTO {
	return QuoteDTO{
		PolicyID:        string(id),
		AsOf:            q.AsOf.String(),
		BasePremium:     q.BasePremium.String(),
		FinalPremium:    q.FinalPremium.String(),
		TotalAdjustment: q.Total.String(),
		Adjustments:     toAdjustmentDTOs(q.Adjustments),
	}
}

func toSnapshotDTO(s policy.PricingSnapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:           s.ID,
		PolicyID:     string(s.PolicyID),
		BasePremium:  s.BasePremium.String(),
		FinalPremium: s.FinalPremium.String(),
		TotalFeePct:  s.TotalFeePct.String(),
		TotalRiskPct: s.TotalRiskPct.String(),
		SnapshotDate: s.SnapshotDate.UTC().Format(time.RFC3339),
		Items:        toAdjustmentDTOs(s.Items),
	}
}

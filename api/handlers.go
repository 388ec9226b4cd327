/*
handlers.go - HTTP API handlers for the premium engine

PURPOSE:
  Exposes the policy lifecycle via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to policy.Service.

ENDPOINTS:
  Policies:
    POST   /api/policies                 Create draft policy
    GET    /api/policies/{id}            Get policy
    GET    /api/policies/{id}/quote      Price without committing
    POST   /api/policies/{id}/activate   Price, activate, snapshot
    POST   /api/policies/{id}/cancel     Cancel with reason
    POST   /api/policies/{id}/expire     Expire one policy
    GET    /api/policies/{id}/snapshot   Pricing snapshot

  Admin:
    POST   /api/admin/expirations        Expire all due policies

  Health:
    GET    /api/health

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (dates, decimals)
  3. Call policy.Service
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Policy, building or snapshot not found
  - 409: Invalid state transition, lost race, duplicate policy number
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - policy/errors.go: error kinds
*/
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/policy"
	"github.com/warp/premium-engine/pricing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *policy.Service
	Logger  *zap.Logger
}

// NewHandler creates a new handler around svc.
func NewHandler(svc *policy.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Logger: logger}
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// CreatePolicy creates a draft policy.
// POST /api/policies
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	period, err := calendar.NewPeriod(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy period", err)
		return
	}
	base, err := pricing.ParsePremium(req.BasePremium)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_premium", err)
		return
	}

	p, err := h.Service.CreateDraft(r.Context(), policy.DraftInput{
		Number: req.PolicyNumber,
		References: policy.References{
			ClientID:   policy.ClientID(req.ClientID),
			BuildingID: policy.BuildingID(req.BuildingID),
			BrokerID:   policy.BrokerID(req.BrokerID),
			CurrencyID: policy.CurrencyID(req.CurrencyID),
		},
		Period:      period,
		BasePremium: base,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to create policy", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPolicyDTO(p))
}

// GetPolicy returns a single policy.
// GET /api/policies/{id}
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), policyID(r))
	if err != nil {
		h.writeServiceError(w, "Failed to get policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(p))
}

// QuotePolicy prices a policy as of today without committing anything.
// GET /api/policies/{id}/quote
func (h *Handler) QuotePolicy(w http.ResponseWriter, r *http.Request) {
	id := policyID(r)
	q, err := h.Service.Quote(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "Failed to quote policy", err)
		return
	}
	writeJSON(w, http.StatusOK, NewQuoteDTO(id, q))
}

// ActivatePolicy prices and activates a draft policy.
// POST /api/policies/{id}/activate
func (h *Handler) ActivatePolicy(w http.ResponseWriter, r *http.Request) {
	p, snap, err := h.Service.Activate(r.Context(), policyID(r))
	if err != nil {
		h.writeServiceError(w, "Failed to activate policy", err)
		return
	}
	writeJSON(w, http.StatusOK, ActivationDTO{
		Policy:   toPolicyDTO(p),
		Snapshot: toSnapshotDTO(snap),
	})
}

// CancelPolicy cancels an active policy.
// POST /api/policies/{id}/cancel
func (h *Handler) CancelPolicy(w http.ResponseWriter, r *http.Request) {
	var req CancelPolicyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.Service.Cancel(r.Context(), policyID(r), req.Reason)
	if err != nil {
		h.writeServiceError(w, "Failed to cancel policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(p))
}

// ExpirePolicy expires a single active policy.
// POST /api/policies/{id}/expire
func (h *Handler) ExpirePolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Expire(r.Context(), policyID(r))
	if err != nil {
		h.writeServiceError(w, "Failed to expire policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(p))
}

// GetSnapshot returns the pricing snapshot recorded at activation.
// GET /api/policies/{id}/snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.Snapshot(r.Context(), policyID(r))
	if err != nil {
		h.writeServiceError(w, "Failed to get pricing snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunExpirations expires every active policy whose period ended before the
// cutoff (default today).
// POST /api/admin/expirations
func (h *Handler) RunExpirations(w http.ResponseWriter, r *http.Request) {
	var req RunExpirationsRequest
	// The body is optional.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cutoff := calendar.DateOf(h.Service.Now())
	if req.Cutoff != "" {
		d, err := calendar.ParseDate(req.Cutoff)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid cutoff", err)
			return
		}
		cutoff = d
	}

	n, err := h.Service.ExpireDue(r.Context(), cutoff)
	if err != nil {
		h.writeServiceError(w, "Failed to run expirations", err)
		return
	}
	writeJSON(w, http.StatusOK, ExpirationRunDTO{Cutoff: cutoff.String(), Expired: n})
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func policyID(r *http.Request) policy.ID {
	return policy.ID(chi.URLParam(r, "id"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeServiceError maps service error kinds to HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case policy.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case policy.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case policy.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

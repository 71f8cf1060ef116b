/*
handlers.go - HTTP API handlers for the leave planner

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response and
  JSON serialization, and delegates every balance decision to leave.Planner.

ENDPOINTS:
  Cost:
    GET    /api/cost                   Working-day cost of a range (no user needed)

  Current user (identity from Identify):
    GET    /api/me/balance             Quota, per-category balances and periods
    GET    /api/me/quota               Quota (default when never saved)
    PUT    /api/me/quota               Replace quota
    GET    /api/me/periods             Committed periods by start date
    POST   /api/me/periods             Request a period (admission)
    POST   /api/me/periods/preview     Cost and admissibility, nothing saved
    PUT    /api/me/periods/{id}        Edit a period (remove + re-admit)
    DELETE /api/me/periods/{id}        Remove a period

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Replace the current user's data with a scenario

  Health:
    GET    /healthz                    Store connectivity

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: malformed body, unknown category/granularity, bad dates, reversed range
  - 401: no resolvable user
  - 404: period not found for this user
  - 422: insufficient balance (body carries the category, amounts and notice)
  - 503: store unavailable, nothing was written
  - 500: anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Identify middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger reports store connectivity. Stores without a connection skip it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Planner *leave.Planner
	Health  Pinger
	logger  *slog.Logger
}

// NewHandler creates a handler. health and logger may be nil.
func NewHandler(planner *leave.Planner, health Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Planner: planner,
		Health:  health,
		logger:  logger.With("component", "api"),
	}
}

// =============================================================================
// COST
// =============================================================================

// GetCost previews the working-day cost of a range.
// GET /api/cost?start=2025-06-02&end=2025-06-06&granularity=full
func (h *Handler) GetCost(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := PeriodRequest{
		StartDate:   q.Get("start"),
		EndDate:     q.Get("end"),
		Category:    string(leave.CategoryUnpaid),
		Granularity: q.Get("granularity"),
	}.toRequest()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CostDTO{
		StartDate:   req.Start.String(),
		EndDate:     req.End.String(),
		Granularity: string(req.Granularity),
		WorkingDays: leave.Cost(req.Start, req.End, req.Granularity),
		Label:       leave.Period{Start: req.Start, End: req.End, Granularity: req.Granularity}.Label(),
	})
}

// =============================================================================
// BALANCE & QUOTA
// =============================================================================

// GetBalance returns the user's summary.
// GET /api/me/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := mustUser(r)

	summary, err := h.Planner.Summary(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// GetQuota returns the user's quota.
// GET /api/me/quota
func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	quota, err := h.Planner.Quota(r.Context(), mustUser(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuotaDTO(quota))
}

// PutQuota replaces the user's quota.
// PUT /api/me/quota
func (h *Handler) PutQuota(w http.ResponseWriter, r *http.Request) {
	var body QuotaDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	quota := body.toQuota()
	if err := h.Planner.SetQuota(r.Context(), mustUser(r), quota); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuotaDTO(quota))
}

// =============================================================================
// PERIODS
// =============================================================================

// ListPeriods returns the user's periods.
// GET /api/me/periods
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Planner.Periods(r.Context(), mustUser(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTOs(periods))
}

// CreatePeriod admits and stores a new period.
// POST /api/me/periods
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePeriodRequest(w, r)
	if !ok {
		return
	}

	period, err := h.Planner.RequestPeriod(r.Context(), mustUser(r), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(period))
}

// PreviewPeriod reports cost and admissibility without saving.
// POST /api/me/periods/preview
func (h *Handler) PreviewPeriod(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePeriodRequest(w, r)
	if !ok {
		return
	}

	summary, err := h.Planner.Summary(r.Context(), mustUser(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	cost, err := leave.Preview(req, summary.Balance, summary.Quota)
	var ib *leave.InsufficientBalanceError
	switch {
	case err == nil:
		dto := PreviewDTO{WorkingDays: cost, Admissible: true}
		if allotment, capped := summary.Quota.Allotment(req.Category); capped {
			available := allotment.Sub(summary.Balance.For(req.Category).Used)
			dto.Available = &available
		}
		writeJSON(w, http.StatusOK, dto)
	case errors.As(err, &ib):
		writeJSON(w, http.StatusOK, PreviewDTO{
			WorkingDays: cost,
			Admissible:  false,
			Available:   &ib.Available,
			Notice:      ib.Notice(),
		})
	default:
		h.writeDomainError(w, r, err)
	}
}

// UpdatePeriod replaces a period with a new admission.
// PUT /api/me/periods/{id}
func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id := leave.PeriodID(chi.URLParam(r, "id"))

	req, ok := h.decodePeriodRequest(w, r)
	if !ok {
		return
	}

	period, err := h.Planner.ReplacePeriod(r.Context(), mustUser(r), id, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// DeletePeriod removes a period.
// DELETE /api/me/periods/{id}
func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id := leave.PeriodID(chi.URLParam(r, "id"))

	if err := h.Planner.RemovePeriod(r.Context(), mustUser(r), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodePeriodRequest(w http.ResponseWriter, r *http.Request) (leave.Request, bool) {
	var body PeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return leave.Request{}, false
	}
	req, err := body.toRequest()
	if err != nil {
		h.writeDomainError(w, r, err)
		return leave.Request{}, false
	}
	return req, true
}

// =============================================================================
// HEALTH
// =============================================================================

// Healthz pings the store.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// mustUser returns the identity set by Identify. Routes using it are always
// mounted behind Identify.
func mustUser(r *http.Request) leave.UserID {
	id, _ := UserFromContext(r.Context())
	return id
}

// writeDomainError maps leave and generic errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ib *leave.InsufficientBalanceError
	switch {
	case errors.As(err, &ib):
		writeJSON(w, http.StatusUnprocessableEntity, InsufficientBalanceDTO{
			Error:     ib.Error(),
			Code:      "insufficient_balance",
			Category:  string(ib.Category),
			Requested: ib.Requested,
			Available: ib.Available,
			Notice:    ib.Notice(),
		})
	case errors.Is(err, leave.ErrPeriodNotFound):
		writeError(w, http.StatusNotFound, "Period not found", nil)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, generic.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable, nothing was saved", nil)
	default:
		h.logger.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
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

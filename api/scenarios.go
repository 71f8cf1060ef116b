/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that replace the current user's quota and
  periods with realistic data. Every period goes through the planner, so a
  scenario can never hold more than its quota allows.

AVAILABLE SCENARIOS:
  empty:         Default quota, no periods
  near-quota:    24.5 of 25 days of congés payés taken, one half day left
  summer-mix:    Every category used once, including unpaid leave
  reduced-quota: Part-time quota (10/5/0) with one week taken

HOW SCENARIOS WORK:
  1. Remove the user's existing periods
  2. Save the scenario quota
  3. Request each period in order

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "near-quota"}

ADDING NEW SCENARIOS:
  1. Add an entry to 'scenarios' with its quota and periods
  2. Periods must fit the quota or loading fails

SEE ALSO:
  - handlers.go: Planner-backed endpoints
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	quota   leave.Quota
	periods []PeriodRequest
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "empty",
			Name:        "Empty",
			Description: "Default quota (25 / 15 / 5), no periods",
		},
		quota: leave.DefaultQuota(),
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "near-quota",
			Name:        "Near Quota",
			Description: "24.5 of 25 days of congés payés taken; only a half day remains",
		},
		quota: leave.DefaultQuota(),
		periods: []PeriodRequest{
			{StartDate: "2025-01-06", EndDate: "2025-01-17", Category: "vacation", Note: "Ski"},
			{StartDate: "2025-02-03", EndDate: "2025-02-14", Category: "vacation"},
			{StartDate: "2025-03-03", EndDate: "2025-03-06", Category: "vacation"},
			{StartDate: "2025-03-07", EndDate: "2025-03-07", Category: "vacation", Granularity: "morning"},
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "summer-mix",
			Name:        "Summer Mix",
			Description: "Congés payés, RTT, CP N-1 and unpaid leave side by side",
		},
		quota: leave.DefaultQuota(),
		periods: []PeriodRequest{
			{StartDate: "2025-04-22", EndDate: "2025-04-25", Category: "previousYear", Note: "Pâques"},
			{StartDate: "2025-05-02", EndDate: "2025-05-02", Category: "rtt", Note: "Pont du 1er mai"},
			{StartDate: "2025-06-13", EndDate: "2025-06-13", Category: "rtt", Granularity: "afternoon"},
			{StartDate: "2025-07-14", EndDate: "2025-07-25", Category: "vacation", Note: "Été"},
			{StartDate: "2025-08-18", EndDate: "2025-08-22", Category: "unpaid"},
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "reduced-quota",
			Name:        "Reduced Quota",
			Description: "Part-time quota (10 / 5 / 0) with one week of congés payés taken",
		},
		quota: leave.Quota{
			Annual:      generic.DaysFromInt(10),
			CompTime:    generic.DaysFromInt(5),
			CarriedOver: generic.ZeroDays,
		},
		periods: []PeriodRequest{
			{StartDate: "2025-06-02", EndDate: "2025-06-06", Category: "vacation"},
		},
	},
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario replaces the current user's data with a scenario and
// returns the resulting summary.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var found *scenario
	for i := range scenarios {
		if scenarios[i].ID == req.ScenarioID {
			found = &scenarios[i]
			break
		}
	}
	if found == nil {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	userID := mustUser(r)
	if err := h.loadScenario(ctx, userID, *found); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "scenario loaded", "user_id", userID, "scenario", found.ID)

	summary, err := h.Planner.Summary(ctx, userID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

func (h *Handler) loadScenario(ctx context.Context, userID leave.UserID, s scenario) error {
	existing, err := h.Planner.Periods(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if err := h.Planner.RemovePeriod(ctx, userID, p.ID); err != nil {
			return err
		}
	}

	if err := h.Planner.SetQuota(ctx, userID, s.quota); err != nil {
		return err
	}

	for i, pr := range s.periods {
		req, err := pr.toRequest()
		if err != nil {
			return fmt.Errorf("scenario %s period %d: %w", s.ID, i, err)
		}
		if _, err := h.Planner.RequestPeriod(ctx, userID, req); err != nil {
			return fmt.Errorf("scenario %s period %d: %w", s.ID, i, err)
		}
	}
	return nil
}

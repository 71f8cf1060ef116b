/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  leave package types. Dates are YYYY-MM-DD strings; day amounts are JSON
  numbers (0.5 steps).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Periods:   PeriodDTO, PeriodRequest
  Quota:     QuotaDTO
  Balance:   SummaryDTO, CategoryBalanceDTO
  Cost:      CostDTO, PreviewDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the leave package, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// PeriodDTO represents a committed period.
type PeriodDTO struct {
	ID          string       `json:"id"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	Category    string       `json:"type"`
	Granularity string       `json:"period_type"`
	WorkingDays generic.Days `json:"working_days"`
	Note        string       `json:"description,omitempty"`
	Label       string       `json:"label"`
}

// PeriodRequest is the body of POST and PUT /api/me/periods.
type PeriodRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Category    string `json:"type"`
	Granularity string `json:"period_type,omitempty"`
	Note        string `json:"description,omitempty"`
}

// QuotaDTO is both the response and the body of PUT /api/me/quota.
type QuotaDTO struct {
	Annual      generic.Days `json:"vacation"`
	CompTime    generic.Days `json:"rtt"`
	CarriedOver generic.Days `json:"previous_year"`
}

// CategoryBalanceDTO is one summary card.
type CategoryBalanceDTO struct {
	Category     string        `json:"type"`
	Label        string        `json:"label"`
	Allotment    *generic.Days `json:"allotment,omitempty"` // nil for unpaid
	Used         generic.Days  `json:"used"`
	Remaining    generic.Days  `json:"remaining"`
	UsagePercent float64       `json:"usage_percent"`
}

// SummaryDTO is the response of GET /api/me/balance.
type SummaryDTO struct {
	Quota    QuotaDTO             `json:"quota"`
	Balances []CategoryBalanceDTO `json:"balances"`
	Periods  []PeriodDTO          `json:"periods"`
}

// CostDTO is the response of GET /api/cost.
type CostDTO struct {
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	Granularity string       `json:"period_type"`
	WorkingDays generic.Days `json:"working_days"`
	Label       string       `json:"label"`
}

// PreviewDTO reports whether a request would be admitted, without saving it.
type PreviewDTO struct {
	WorkingDays generic.Days  `json:"working_days"`
	Admissible  bool          `json:"admissible"`
	Available   *generic.Days `json:"available,omitempty"`
	Notice      string        `json:"notice,omitempty"`
}

// InsufficientBalanceDTO is the 422 body.
type InsufficientBalanceDTO struct {
	Error     string       `json:"error"`
	Code      string       `json:"code"`
	Category  string       `json:"type"`
	Requested generic.Days `json:"requested"`
	Available generic.Days `json:"available"`
	Notice    string       `json:"notice"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPeriodDTO(p leave.Period) PeriodDTO {
	return PeriodDTO{
		ID:          string(p.ID),
		StartDate:   p.Start.String(),
		EndDate:     p.End.String(),
		Category:    string(p.Category),
		Granularity: string(p.Granularity),
		WorkingDays: p.WorkingDays,
		Note:        p.Note,
		Label:       p.Label(),
	}
}

func toPeriodDTOs(periods []leave.Period) []PeriodDTO {
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	return dtos
}

func toQuotaDTO(q leave.Quota) QuotaDTO {
	return QuotaDTO{Annual: q.Annual, CompTime: q.CompTime, CarriedOver: q.CarriedOver}
}

func (d QuotaDTO) toQuota() leave.Quota {
	return leave.Quota{Annual: d.Annual, CompTime: d.CompTime, CarriedOver: d.CarriedOver}
}

func toSummaryDTO(s leave.Summary) SummaryDTO {
	balances := make([]CategoryBalanceDTO, 0, len(leave.Categories))
	for _, c := range leave.Categories {
		b := s.Balance.For(c)
		dto := CategoryBalanceDTO{
			Category:  string(c),
			Label:     c.Label(),
			Used:      b.Used,
			Remaining: b.Remaining,
		}
		if allotment, ok := s.Quota.Allotment(c); ok {
			dto.Allotment = &allotment
			dto.UsagePercent = b.UsagePercent(allotment)
		}
		balances = append(balances, dto)
	}
	return SummaryDTO{
		Quota:    toQuotaDTO(s.Quota),
		Balances: balances,
		Periods:  toPeriodDTOs(s.Periods),
	}
}

// toRequest parses the body fields. Unknown categories and granularities
// and malformed dates wrap leave.ErrInvalidRequest or generic.ErrInvalidDate.
func (pr PeriodRequest) toRequest() (leave.Request, error) {
	category, err := leave.ParseCategory(pr.Category)
	if err != nil {
		return leave.Request{}, err
	}
	granularity, err := leave.ParseGranularity(pr.Granularity)
	if err != nil {
		return leave.Request{}, err
	}
	start, err := generic.ParseDate(pr.StartDate)
	if err != nil {
		return leave.Request{}, fmt.Errorf("start_date: %w", err)
	}
	end := start
	if pr.EndDate != "" {
		if end, err = generic.ParseDate(pr.EndDate); err != nil {
			return leave.Request{}, fmt.Errorf("end_date: %w", err)
		}
	}
	return leave.Request{
		Start:       start,
		End:         end,
		Category:    category,
		Granularity: granularity,
		Note:        pr.Note,
	}, nil
}

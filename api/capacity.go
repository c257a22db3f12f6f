/*
capacity.go - Optimization and reporting endpoints

PURPOSE:
  The endpoints that run the engine and read back its results:

    POST /api/periods/{id}/optimize       Run allocation for a period
    GET  /api/periods/{id}/overview       Full capacity report
    GET  /api/people/{id}/capacity        One person's utilization
    GET  /api/people/{id}/availability    One person's hours breakdown
    GET  /api/projects/{id}/staffing      One project's staffing level

  The single-entity reports take a period_id query parameter. Engine
  values keep full precision; hour and percentage figures are rounded
  to two decimals here, at the edge.

SEE ALSO:
  - dto.go: Response shapes and rounding
  - handlers.go: Entity CRUD, shared helpers
*/
package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/warp/capacity-engine/engine"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AssignmentSummaryDTO is one project line in a person's capacity view.
type AssignmentSummaryDTO struct {
	AssignmentID         int64   `json:"assignment_id"`
	ProjectName          string  `json:"project_name"`
	AllocationPercentage float64 `json:"allocation_percentage"`
	EffectiveHours       float64 `json:"effective_hours"`
}

// PersonCapacityDTO is the rounded view of a person's utilization.
type PersonCapacityDTO struct {
	PersonID              int64                  `json:"person_id"`
	PersonName            string                 `json:"person_name"`
	PersonEmail           string                 `json:"person_email"`
	TotalAvailableHours   float64                `json:"total_available_hours"`
	TotalAllocatedHours   float64                `json:"total_allocated_hours"`
	TotalEffectiveHours   float64                `json:"total_effective_hours"`
	UtilizationPercentage float64                `json:"utilization_percentage"`
	IsOverCommitted       bool                   `json:"is_over_committed"`
	Assignments           []AssignmentSummaryDTO `json:"assignments"`
	AbsenceDays           int64                  `json:"absence_days"`
	AbsenceHours          float64                `json:"absence_hours"`
	HolidayDays           int64                  `json:"holiday_days"`
	HolidayHours          float64                `json:"holiday_hours"`
	BaseAvailableHours    float64                `json:"base_available_hours"`
	OverheadHours         float64                `json:"overhead_hours"`
	OptionalOverheadHours float64                `json:"optional_overhead_hours"`
}

// PersonAssignmentSummaryDTO is one person line in a project's staffing
// view.
type PersonAssignmentSummaryDTO struct {
	AssignmentID          int64   `json:"assignment_id"`
	PersonName            string  `json:"person_name"`
	AllocationPercentage  float64 `json:"allocation_percentage"`
	ProductivityFactor    float64 `json:"productivity_factor"`
	EffectiveHours        float64 `json:"effective_hours"`
	AbsenceDays           int64   `json:"absence_days"`
	AbsenceHours          float64 `json:"absence_hours"`
	HolidayDays           int64   `json:"holiday_days"`
	HolidayHours          float64 `json:"holiday_hours"`
	OverheadHours         float64 `json:"overhead_hours"`
	OptionalOverheadHours float64 `json:"optional_overhead_hours"`
}

// ProjectStaffingDTO is the rounded view of a project's staffing level.
type ProjectStaffingDTO struct {
	ProjectID           int64                        `json:"project_id"`
	ProjectName         string                       `json:"project_name"`
	RequiredHours       float64                      `json:"required_hours"`
	TotalAllocatedHours float64                      `json:"total_allocated_hours"`
	TotalEffectiveHours float64                      `json:"total_effective_hours"`
	StaffingPercentage  float64                      `json:"staffing_percentage"`
	IsViable            bool                         `json:"is_viable"`
	Shortfall           float64                      `json:"shortfall"`
	AssignedPeople      []PersonAssignmentSummaryDTO `json:"assigned_people"`
}

// OverviewDTO is the rounded whole-period report.
type OverviewDTO struct {
	TotalPeople          int                  `json:"total_people"`
	TotalProjects        int                  `json:"total_projects"`
	OverCommittedPeople  int                  `json:"over_committed_people"`
	UnderStaffedProjects int                  `json:"under_staffed_projects"`
	PeopleCapacity       []PersonCapacityDTO  `json:"people_capacity"`
	ProjectStaffing      []ProjectStaffingDTO `json:"project_staffing"`
}

func toPersonCapacityDTO(pc engine.PersonCapacity) PersonCapacityDTO {
	assignments := make([]AssignmentSummaryDTO, 0, len(pc.Assignments))
	for _, a := range pc.Assignments {
		assignments = append(assignments, AssignmentSummaryDTO{
			AssignmentID:         a.AssignmentID,
			ProjectName:          a.ProjectName,
			AllocationPercentage: round2(a.AllocationPercentage),
			EffectiveHours:       round2(a.EffectiveHours),
		})
	}
	return PersonCapacityDTO{
		PersonID:              pc.PersonID,
		PersonName:            pc.PersonName,
		PersonEmail:           pc.PersonEmail,
		TotalAvailableHours:   round2(pc.TotalAvailableHours),
		TotalAllocatedHours:   round2(pc.TotalAllocatedHours),
		TotalEffectiveHours:   round2(pc.TotalEffectiveHours),
		UtilizationPercentage: round2(pc.UtilizationPercentage),
		IsOverCommitted:       pc.IsOverCommitted,
		Assignments:           assignments,
		AbsenceDays:           pc.AbsenceDays,
		AbsenceHours:          round2(pc.AbsenceHours),
		HolidayDays:           pc.HolidayDays,
		HolidayHours:          round2(pc.HolidayHours),
		BaseAvailableHours:    round2(pc.BaseAvailableHours),
		OverheadHours:         round2(pc.OverheadHours),
		OptionalOverheadHours: round2(pc.OptionalOverheadHours),
	}
}

func toProjectStaffingDTO(ps engine.ProjectStaffing) ProjectStaffingDTO {
	people := make([]PersonAssignmentSummaryDTO, 0, len(ps.AssignedPeople))
	for _, p := range ps.AssignedPeople {
		people = append(people, PersonAssignmentSummaryDTO{
			AssignmentID:          p.AssignmentID,
			PersonName:            p.PersonName,
			AllocationPercentage:  round2(p.AllocationPercentage),
			ProductivityFactor:    p.ProductivityFactor,
			EffectiveHours:        round2(p.EffectiveHours),
			AbsenceDays:           p.AbsenceDays,
			AbsenceHours:          round2(p.AbsenceHours),
			HolidayDays:           p.HolidayDays,
			HolidayHours:          round2(p.HolidayHours),
			OverheadHours:         round2(p.OverheadHours),
			OptionalOverheadHours: round2(p.OptionalOverheadHours),
		})
	}
	return ProjectStaffingDTO{
		ProjectID:           ps.ProjectID,
		ProjectName:         ps.ProjectName,
		RequiredHours:       round2(ps.RequiredHours),
		TotalAllocatedHours: round2(ps.TotalAllocatedHours),
		TotalEffectiveHours: round2(ps.TotalEffectiveHours),
		StaffingPercentage:  round2(ps.StaffingPercentage),
		IsViable:            ps.IsViable,
		Shortfall:           round2(ps.Shortfall),
		AssignedPeople:      people,
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

// Optimize runs allocation for a planning period and persists the
// results.
// POST /api/periods/{id}/optimize
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.Engine.Optimize(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "optimization failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Overview returns the full capacity report for a period.
// GET /api/periods/{id}/overview
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	overview, err := h.Engine.Overview(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "failed to build overview", err)
		return
	}

	dto := OverviewDTO{
		TotalPeople:          overview.TotalPeople,
		TotalProjects:        overview.TotalProjects,
		OverCommittedPeople:  overview.OverCommittedPeople,
		UnderStaffedProjects: overview.UnderStaffedProjects,
		PeopleCapacity:       make([]PersonCapacityDTO, 0, len(overview.PeopleCapacity)),
		ProjectStaffing:      make([]ProjectStaffingDTO, 0, len(overview.ProjectStaffing)),
	}
	for _, pc := range overview.PeopleCapacity {
		dto.PeopleCapacity = append(dto.PeopleCapacity, toPersonCapacityDTO(pc))
	}
	for _, ps := range overview.ProjectStaffing {
		dto.ProjectStaffing = append(dto.ProjectStaffing, toProjectStaffingDTO(ps))
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetPersonCapacity returns one person's utilization for a period.
// GET /api/people/{id}/capacity?period_id=N
func (h *Handler) GetPersonCapacity(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	periodID, ok := periodIDQuery(w, r)
	if !ok {
		return
	}
	pc, err := h.Engine.PersonCapacity(r.Context(), id, periodID)
	if err != nil {
		h.writeEngineError(w, "failed to build person capacity", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonCapacityDTO(*pc))
}

// GetPersonAvailability returns one person's availability breakdown for
// a period.
// GET /api/people/{id}/availability?period_id=N
func (h *Handler) GetPersonAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	periodID, ok := periodIDQuery(w, r)
	if !ok {
		return
	}
	person, err := h.Store.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person", err)
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "person not found", nil)
		return
	}
	period, err := h.Store.GetPlanningPeriod(r.Context(), periodID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get planning period", err)
		return
	}
	if period == nil {
		writeError(w, http.StatusNotFound, "planning period not found", nil)
		return
	}
	breakdown, err := h.Engine.AvailableHours(r.Context(), *person, *period)
	if err != nil {
		h.writeEngineError(w, "failed to compute availability", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(breakdown))
}

// GetProjectStaffing returns one project's staffing level for a period.
// GET /api/projects/{id}/staffing?period_id=N
func (h *Handler) GetProjectStaffing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	periodID, ok := periodIDQuery(w, r)
	if !ok {
		return
	}
	ps, err := h.Engine.ProjectStaffing(r.Context(), id, periodID)
	if err != nil {
		h.writeEngineError(w, "failed to build project staffing", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectStaffingDTO(*ps))
}

// =============================================================================
// HELPERS
// =============================================================================

// writeEngineError maps engine error kinds onto HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsInvalidDate(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func periodIDQuery(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("period_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing period_id", err)
		return 0, false
	}
	return id, true
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validator struct tags; handlers run them through
  a shared validator.Validate before touching the store.

ROUNDING:
  Hour and percentage figures in capacity responses are rounded to two
  decimal places for display. The engine itself never rounds; only the
  DTO layer does.

SEE ALSO:
  - handlers.go: Entity CRUD using these types
  - capacity.go: Optimization and reporting endpoints
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/engine"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreatePersonRequest creates or updates a person.
type CreatePersonRequest struct {
	Name                  string  `json:"name" validate:"required"`
	Email                 string  `json:"email" validate:"required,email"`
	AvailableHoursPerWeek float64 `json:"available_hours_per_week" validate:"gte=0,lte=168"`
	WorkingDays           string  `json:"working_days"`
	CountryID             *int64  `json:"country_id"`
}

// CreateCountryRequest registers a holiday calendar.
type CreateCountryRequest struct {
	ISOCode string `json:"iso_code" validate:"required,len=2"`
	Name    string `json:"name" validate:"required"`
}

// CreatePeriodRequest creates or updates a planning period.
type CreatePeriodRequest struct {
	Name      *string `json:"name"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
}

// CreateAbsenceRequest records time away for a person.
type CreateAbsenceRequest struct {
	PersonID  int64   `json:"person_id" validate:"required"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
	Days      int64   `json:"days" validate:"gte=0"`
	Reason    *string `json:"reason"`
}

// CreateHolidayRequest records a public holiday. EndDate defaults to
// StartDate for single-day holidays.
type CreateHolidayRequest struct {
	CountryID int64   `json:"country_id" validate:"required"`
	Name      *string `json:"name"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date"`
}

// CreateJobRequest creates or updates a job template.
type CreateJobRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// CreateOverheadTaskRequest attaches a recurring task to a job.
type CreateOverheadTaskRequest struct {
	JobID          int64   `json:"job_id" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Description    *string `json:"description"`
	EffortHours    float64 `json:"effort_hours" validate:"gte=0"`
	EffortPeriod   string  `json:"effort_period" validate:"required,oneof=daily weekly"`
	IsOptional     bool    `json:"is_optional"`
	OptionalWeight float64 `json:"optional_weight" validate:"gte=0,lte=1"`
}

// CreatePersonJobAssignmentRequest gives a person a job for a period.
type CreatePersonJobAssignmentRequest struct {
	PersonID         int64 `json:"person_id" validate:"required"`
	JobID            int64 `json:"job_id" validate:"required"`
	PlanningPeriodID int64 `json:"planning_period_id" validate:"required"`
}

// CreateProjectRequest creates or updates a project.
type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// RequirementRequest states a project's hours for a period.
type RequirementRequest struct {
	ProjectID        int64   `json:"project_id" validate:"required"`
	PlanningPeriodID int64   `json:"planning_period_id" validate:"required"`
	RequiredHours    float64 `json:"required_hours" validate:"gte=0"`
	Priority         int64   `json:"priority" validate:"gte=0,lte=30"`
}

// BatchRequirementsRequest upserts several requirements atomically.
type BatchRequirementsRequest struct {
	Requirements []RequirementRequest `json:"requirements" validate:"required,dive"`
}

// CreateAssignmentRequest links a person to a project for a period.
// Dates default to the period bounds and must lie within them.
type CreateAssignmentRequest struct {
	PersonID           int64   `json:"person_id" validate:"required"`
	ProjectID          int64   `json:"project_id" validate:"required"`
	PlanningPeriodID   int64   `json:"planning_period_id" validate:"required"`
	ProductivityFactor float64 `json:"productivity_factor" validate:"gte=0,lte=1"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
}

// PinAssignmentRequest fixes an assignment at a manual percentage.
type PinAssignmentRequest struct {
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

// ImportHolidaysRequest imports holidays for one country over years.
type ImportHolidaysRequest struct {
	CountryCode string `json:"country_code" validate:"required,len=2"`
	Years       []int  `json:"years" validate:"required,min=1,dive,gte=1970,lte=2100"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ErrorResponse is the JSON shape of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DependenciesDTO reports what a delete would take with it.
type DependenciesDTO struct {
	Assignments  int64 `json:"assignments,omitempty"`
	Absences     int64 `json:"absences,omitempty"`
	Requirements int64 `json:"requirements,omitempty"`
	Holidays     int64 `json:"holidays,omitempty"`
	People       int64 `json:"people,omitempty"`
}

// BreakdownDTO is a rounded view of an availability breakdown.
type BreakdownDTO struct {
	AvailableHours        float64 `json:"available_hours"`
	BaseHours             float64 `json:"base_hours"`
	AbsenceDays           int64   `json:"absence_days"`
	AbsenceHours          float64 `json:"absence_hours"`
	HolidayDays           int64   `json:"holiday_days"`
	HolidayHours          float64 `json:"holiday_hours"`
	OverheadHours         float64 `json:"overhead_hours"`
	OptionalOverheadHours float64 `json:"optional_overhead_hours"`
}

func toBreakdownDTO(b engine.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		AvailableHours:        round2(b.AvailableHours),
		BaseHours:             round2(b.BaseHours),
		AbsenceDays:           b.AbsenceDays,
		AbsenceHours:          round2(b.AbsenceHours),
		HolidayDays:           b.HolidayDays,
		HolidayHours:          round2(b.HolidayHours),
		OverheadHours:         round2(b.OverheadHours),
		OptionalOverheadHours: round2(b.OptionalOverheadHours),
	}
}

// round2 rounds for display only; stored and computed values keep full
// precision.
func round2(f float64) float64 {
	v, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return v
}

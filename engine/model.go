/*
model.go - Persistent entities the engine operates on

PURPOSE:
  Plain records mirroring the relational schema. Dates are ISO-8601
  strings ("2006-01-02") exactly as stored; the engine parses them on
  demand so that a malformed date surfaces as a DateParseError instead of
  a silent zero value.

NULLABILITY:
  Optional links and the calculated-value cache use pointers. A nil
  CalculatedAllocationPercentage means "never optimized" and readers must
  treat it as zero, not as an error.

SEE ALSO:
  - store.go: How these records are fetched and written
  - store/sqlite: The backing schema
*/
package engine

// Country groups people under one public-holiday calendar.
type Country struct {
	ID      int64
	ISOCode string
	Name    string
}

// Person is someone whose working time gets allocated.
type Person struct {
	ID                    int64
	Name                  string
	Email                 string
	AvailableHoursPerWeek float64
	CountryID             *int64 // nil = no holiday deduction
	WorkingDays           string // comma-separated day codes, e.g. "Mon,Tue,Wed,Thu,Fri"
}

// PlanningPeriod is the fixed window capacity is planned for.
type PlanningPeriod struct {
	ID        int64
	Name      *string
	StartDate string
	EndDate   string
}

// Absence is a person's time away. Days is supplied by the caller and is
// authoritative; it is not recomputed from the date span.
type Absence struct {
	ID        int64
	PersonID  int64
	StartDate string
	EndDate   string
	Days      int64
	Reason    *string
}

// Holiday is a public holiday for one country. Multi-day holidays carry a
// date range; both bounds are inclusive.
type Holiday struct {
	ID        int64
	CountryID int64
	Name      *string
	StartDate string
	EndDate   string
}

// Job is a reusable role template carrying recurring overhead tasks.
type Job struct {
	ID          int64
	Name        string
	Description *string
}

// OverheadTask is a recurring duty attached to a job. Optional tasks are
// deducted at OptionalWeight instead of in full.
type OverheadTask struct {
	ID             int64
	JobID          int64
	Name           string
	Description    *string
	EffortHours    float64
	EffortPeriod   string // "daily" or "weekly"
	IsOptional     bool
	OptionalWeight float64
}

// Effort periods for overhead tasks.
const (
	EffortDaily  = "daily"
	EffortWeekly = "weekly"
)

// PersonJobAssignment links a person to a job for one planning period.
type PersonJobAssignment struct {
	ID               int64
	PersonID         int64
	JobID            int64
	PlanningPeriodID int64
}

// Project is a demand for working time, expressed per period through a
// ProjectRequirement.
type Project struct {
	ID          int64
	Name        string
	Description *string
}

// Requirement priority tiers. Higher values are served first.
const (
	PriorityLow     int64 = 0
	PriorityMedium  int64 = 10
	PriorityHigh    int64 = 20
	PriorityBlocker int64 = 30
)

// ProjectRequirement states how many hours a project needs in a period.
type ProjectRequirement struct {
	ID               int64
	ProjectID        int64
	PlanningPeriodID int64
	RequiredHours    float64
	Priority         int64
}

// Assignment links a person to a project for a planning period.
//
// The three Calculated* fields are a derived cache: nil until an
// optimization run writes them, nulled again when a referenced person,
// project, or period is deleted.
type Assignment struct {
	ID                 int64
	PersonID           int64
	ProjectID          int64
	PlanningPeriodID   int64
	ProductivityFactor float64
	StartDate          string
	EndDate            string

	IsPinned                   bool
	PinnedAllocationPercentage *float64

	CalculatedAllocationPercentage *float64
	CalculatedEffectiveHours       *float64
	LastCalculatedAt               *string
}

// EffectiveAllocationPercentage returns the percentage reporting should
// display: the pinned value for pinned assignments, the calculated value
// (nil treated as zero) otherwise.
func (a Assignment) EffectiveAllocationPercentage() float64 {
	if a.IsPinned && a.PinnedAllocationPercentage != nil {
		return *a.PinnedAllocationPercentage
	}
	if a.CalculatedAllocationPercentage != nil {
		return *a.CalculatedAllocationPercentage
	}
	return 0
}

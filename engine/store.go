/*
store.go - Persistence interfaces for planning entities

PURPOSE:
  Defines the boundary between the engine and the database. The engine
  issues reads through these interfaces and writes nothing except the
  calculated fields on assignments (SaveCalculation). Everything else -
  entity CRUD, pinning, dependency counts - exists for the command layer.

OVERLAP QUERIES:
  Every date-range read implements inclusive interval intersection:
  a.start <= range.end AND a.end >= range.start. Both bounds inclusive.

CACHE INVALIDATION CONTRACT:
  DeletePerson, DeleteProject, and DeletePlanningPeriod MUST null the
  calculated allocation percentage, calculated effective hours, and
  last-calculated timestamp on every assignment referencing the entity
  before removing the row. The cascade that follows deletes most of those
  assignments anyway; the invalidation protects snapshots captured
  mid-transaction and assignments the cascade does not reach (deleting a
  person leaves the project and period rows of other people intact).

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - engine/store: In-memory for testing

SEE ALSO:
  - availability.go, optimizer.go, overview.go: The read paths
  - store/sqlite/sqlite.go: Concrete implementation
*/
package engine

import "context"

// =============================================================================
// STORE - Composed per-entity interfaces
// =============================================================================

// Store is everything the engine and the command layer need from storage.
type Store interface {
	CountryStore
	PersonStore
	PeriodStore
	AbsenceStore
	HolidayStore
	JobStore
	ProjectStore
	RequirementStore
	AssignmentStore
}

// CountryStore manages countries (holiday calendars).
type CountryStore interface {
	CreateCountry(ctx context.Context, c *Country) error
	GetCountry(ctx context.Context, id int64) (*Country, error)
	GetCountryByISOCode(ctx context.Context, code string) (*Country, error)
	ListCountries(ctx context.Context) ([]Country, error)
	DeleteCountry(ctx context.Context, id int64) error
	CountryDependencies(ctx context.Context, id int64) (CountryDependencies, error)
}

// PersonStore manages people.
type PersonStore interface {
	CreatePerson(ctx context.Context, p *Person) error
	GetPerson(ctx context.Context, id int64) (*Person, error)
	ListPeople(ctx context.Context) ([]Person, error)
	UpdatePerson(ctx context.Context, p Person) error

	// DeletePerson invalidates calculated fields on the person's
	// assignments before deleting (see cache invalidation contract).
	DeletePerson(ctx context.Context, id int64) error
	PersonDependencies(ctx context.Context, id int64) (PersonDependencies, error)
}

// PeriodStore manages planning periods.
type PeriodStore interface {
	CreatePlanningPeriod(ctx context.Context, p *PlanningPeriod) error
	GetPlanningPeriod(ctx context.Context, id int64) (*PlanningPeriod, error)
	ListPlanningPeriods(ctx context.Context) ([]PlanningPeriod, error)
	UpdatePlanningPeriod(ctx context.Context, p PlanningPeriod) error

	// DeletePlanningPeriod invalidates calculated fields on the period's
	// assignments before deleting.
	DeletePlanningPeriod(ctx context.Context, id int64) error
	PeriodDependencies(ctx context.Context, id int64) (PeriodDependencies, error)
}

// AbsenceStore manages absences.
type AbsenceStore interface {
	CreateAbsence(ctx context.Context, a *Absence) error
	ListAbsencesByPerson(ctx context.Context, personID int64) ([]Absence, error)

	// AbsencesOverlapping returns the person's absences whose inclusive
	// span intersects the period.
	AbsencesOverlapping(ctx context.Context, personID int64, period Period) ([]Absence, error)
	DeleteAbsence(ctx context.Context, id int64) error
}

// HolidayStore manages public holidays.
type HolidayStore interface {
	CreateHoliday(ctx context.Context, h *Holiday) error

	// CreateHolidaysBatch inserts all rows or none (used by the importer).
	CreateHolidaysBatch(ctx context.Context, hs []Holiday) error
	ListHolidays(ctx context.Context, countryID *int64) ([]Holiday, error)

	// HolidaysOverlapping returns the country's holidays whose inclusive
	// span intersects the period.
	HolidaysOverlapping(ctx context.Context, countryID int64, period Period) ([]Holiday, error)

	// HolidayOverlapExists checks for an existing holiday of the country
	// intersecting the period, ignoring excludeID (0 = exclude nothing).
	HolidayOverlapExists(ctx context.Context, countryID int64, period Period, excludeID int64) (bool, error)
	UpdateHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, id int64) error
}

// JobStore manages jobs, their overhead tasks, and person-job assignments.
type JobStore interface {
	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id int64) (*Job, error)
	ListJobs(ctx context.Context) ([]Job, error)
	UpdateJob(ctx context.Context, j Job) error
	DeleteJob(ctx context.Context, id int64) error

	CreateOverheadTask(ctx context.Context, t *OverheadTask) error
	ListOverheadTasksByJob(ctx context.Context, jobID int64) ([]OverheadTask, error)
	UpdateOverheadTask(ctx context.Context, t OverheadTask) error
	DeleteOverheadTask(ctx context.Context, id int64) error

	CreatePersonJobAssignment(ctx context.Context, a *PersonJobAssignment) error
	ListPersonJobAssignments(ctx context.Context, personID, periodID int64) ([]PersonJobAssignment, error)
	ListJobAssignmentsByPeriod(ctx context.Context, periodID int64) ([]PersonJobAssignment, error)
	DeletePersonJobAssignment(ctx context.Context, id int64) error
}

// ProjectStore manages projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id int64) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	UpdateProject(ctx context.Context, p Project) error

	// DeleteProject invalidates calculated fields on the project's
	// assignments before deleting.
	DeleteProject(ctx context.Context, id int64) error
	ProjectDependencies(ctx context.Context, id int64) (ProjectDependencies, error)
}

// RequirementStore manages project requirements.
type RequirementStore interface {
	UpsertRequirement(ctx context.Context, r *ProjectRequirement) error

	// BatchUpsertRequirements applies all upserts in one transaction.
	BatchUpsertRequirements(ctx context.Context, rs []ProjectRequirement) error
	GetRequirement(ctx context.Context, projectID, periodID int64) (*ProjectRequirement, error)
	ListRequirementsByPeriod(ctx context.Context, periodID int64) ([]ProjectRequirement, error)
	DeleteRequirement(ctx context.Context, id int64) error
}

// AssignmentStore manages person-project assignments and the calculated
// value cache on them.
type AssignmentStore interface {
	CreateAssignment(ctx context.Context, a *Assignment) error
	GetAssignment(ctx context.Context, id int64) (*Assignment, error)
	ListAssignmentsByPeriod(ctx context.Context, periodID int64) ([]Assignment, error)
	ListAssignmentsByPersonAndPeriod(ctx context.Context, personID, periodID int64) ([]Assignment, error)
	ListAssignmentsByProjectAndPeriod(ctx context.Context, projectID, periodID int64) ([]Assignment, error)
	UpdateAssignment(ctx context.Context, a Assignment) error
	DeleteAssignment(ctx context.Context, id int64) error

	// SetAssignmentPin pins or unpins an assignment. pct must be non-nil
	// when pinning.
	SetAssignmentPin(ctx context.Context, id int64, pinned bool, pct *float64) error

	// SaveCalculation overwrites the calculated-value cache for one
	// assignment. calculatedAt is an RFC3339 timestamp.
	SaveCalculation(ctx context.Context, assignmentID int64, allocationPct, effectiveHours float64, calculatedAt string) error
}

// =============================================================================
// DEPENDENCY COUNTS - Surfaced before destructive deletes
// =============================================================================

type PersonDependencies struct {
	AssignmentCount int64
	AbsenceCount    int64
}

type ProjectDependencies struct {
	RequirementCount int64
	AssignmentCount  int64
}

type PeriodDependencies struct {
	RequirementCount int64
	AssignmentCount  int64
}

type CountryDependencies struct {
	HolidayCount int64
	PeopleCount  int64
}

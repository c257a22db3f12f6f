/*
overview.go - Read-only capacity reporting

PURPOSE:
  Aggregates persisted optimization results into per-person utilization
  rollups and per-project staffing rollups. Nothing here computes new
  allocations; it re-reads the calculated cache and the availability
  breakdowns and presents them consistently.

KEY CONCEPTS:
  - Utilization: allocated hours / available hours * 100, zero when the
    person has no available hours. Over 100% means over-committed.
  - Viability: a project counts as fully staffed at >= 99.95%, not
    100%, absorbing floating-point dust from the proportional split.
  - Displayed percentage: pinned assignments show their pinned value,
    everything else shows the calculated value (nil reads as 0).

SEE ALSO:
  - optimizer.go: Writes the calculated cache this reads
  - availability.go: The breakdown embedded in each rollup
*/
package engine

import (
	"context"
	"fmt"
)

// ViabilityThreshold is the staffing percentage at and above which a
// project counts as fully staffed.
const ViabilityThreshold = 99.95

// =============================================================================
// VIEW TYPES
// =============================================================================

// AssignmentSummary is one project line in a person's rollup.
type AssignmentSummary struct {
	AssignmentID         int64   `json:"assignment_id"`
	ProjectName          string  `json:"project_name"`
	AllocationPercentage float64 `json:"allocation_percentage"`
	EffectiveHours       float64 `json:"effective_hours"`
}

// PersonCapacity is one person's utilization rollup for a period.
type PersonCapacity struct {
	PersonID              int64               `json:"person_id"`
	PersonName            string              `json:"person_name"`
	PersonEmail           string              `json:"person_email"`
	TotalAvailableHours   float64             `json:"total_available_hours"`
	TotalAllocatedHours   float64             `json:"total_allocated_hours"`
	TotalEffectiveHours   float64             `json:"total_effective_hours"`
	UtilizationPercentage float64             `json:"utilization_percentage"`
	IsOverCommitted       bool                `json:"is_over_committed"`
	Assignments           []AssignmentSummary `json:"assignments"`
	AbsenceDays           int64               `json:"absence_days"`
	AbsenceHours          float64             `json:"absence_hours"`
	HolidayDays           int64               `json:"holiday_days"`
	HolidayHours          float64             `json:"holiday_hours"`
	BaseAvailableHours    float64             `json:"base_available_hours"`
	OverheadHours         float64             `json:"overhead_hours"`
	OptionalOverheadHours float64             `json:"optional_overhead_hours"`
}

// PersonAssignmentSummary is one person line in a project's rollup.
type PersonAssignmentSummary struct {
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

// ProjectStaffing is one project's staffing rollup for a period.
type ProjectStaffing struct {
	ProjectID           int64                     `json:"project_id"`
	ProjectName         string                    `json:"project_name"`
	RequiredHours       float64                   `json:"required_hours"`
	TotalAllocatedHours float64                   `json:"total_allocated_hours"`
	TotalEffectiveHours float64                   `json:"total_effective_hours"`
	StaffingPercentage  float64                   `json:"staffing_percentage"`
	IsViable            bool                      `json:"is_viable"`
	Shortfall           float64                   `json:"shortfall"`
	AssignedPeople      []PersonAssignmentSummary `json:"assigned_people"`
}

// CapacityOverview is the whole-period rollup.
type CapacityOverview struct {
	TotalPeople          int               `json:"total_people"`
	TotalProjects        int               `json:"total_projects"`
	OverCommittedPeople  int               `json:"over_committed_people"`
	UnderStaffedProjects int               `json:"under_staffed_projects"`
	PeopleCapacity       []PersonCapacity  `json:"people_capacity"`
	ProjectStaffing      []ProjectStaffing `json:"project_staffing"`
}

// =============================================================================
// CAPACITY OVERVIEW
// =============================================================================

// Overview builds the full capacity report for one planning period: every
// person's utilization and every project (with a requirement in the
// period) and its staffing level.
func (e *Engine) Overview(ctx context.Context, periodID int64) (*CapacityOverview, error) {
	period, err := e.Store.GetPlanningPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching planning period: %w", err)
	}
	if period == nil {
		return nil, &NotFoundError{ID: periodID, Err: ErrPeriodNotFound}
	}

	people, err := e.Store.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching people: %w", err)
	}
	projects, err := e.Store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	requirements, err := e.Store.ListRequirementsByPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching project requirements: %w", err)
	}
	assignments, err := e.Store.ListAssignmentsByPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching assignments: %w", err)
	}

	requirementByProject := make(map[int64]ProjectRequirement, len(requirements))
	for _, r := range requirements {
		requirementByProject[r.ProjectID] = r
	}
	projectNames := make(map[int64]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}

	// One breakdown per person, shared by both rollups.
	breakdowns := make(map[int64]Breakdown, len(people))
	for _, p := range people {
		b, err := e.AvailableHours(ctx, p, *period)
		if err != nil {
			return nil, err
		}
		breakdowns[p.ID] = b
	}

	overview := &CapacityOverview{
		TotalPeople:     len(people),
		PeopleCapacity:  []PersonCapacity{},
		ProjectStaffing: []ProjectStaffing{},
	}

	for _, person := range people {
		var personAssignments []Assignment
		for _, a := range assignments {
			if a.PersonID == person.ID {
				personAssignments = append(personAssignments, a)
			}
		}
		pc := buildPersonCapacity(person, breakdowns[person.ID], personAssignments, projectNames)
		if pc.IsOverCommitted {
			overview.OverCommittedPeople++
		}
		overview.PeopleCapacity = append(overview.PeopleCapacity, pc)
	}

	peopleByID := make(map[int64]Person, len(people))
	for _, p := range people {
		peopleByID[p.ID] = p
	}

	// Only projects with a requirement in this period appear.
	for _, project := range projects {
		requirement, ok := requirementByProject[project.ID]
		if !ok {
			continue
		}
		var projectAssignments []Assignment
		for _, a := range assignments {
			if a.ProjectID == project.ID {
				projectAssignments = append(projectAssignments, a)
			}
		}
		ps := buildProjectStaffing(project, requirement, projectAssignments, peopleByID, breakdowns)
		if !ps.IsViable {
			overview.UnderStaffedProjects++
		}
		overview.ProjectStaffing = append(overview.ProjectStaffing, ps)
	}
	overview.TotalProjects = len(overview.ProjectStaffing)

	return overview, nil
}

// PersonCapacity builds the utilization rollup for a single person.
func (e *Engine) PersonCapacity(ctx context.Context, personID, periodID int64) (*PersonCapacity, error) {
	person, err := e.Store.GetPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("fetching person: %w", err)
	}
	if person == nil {
		return nil, &NotFoundError{ID: personID, Err: ErrPersonNotFound}
	}
	period, err := e.Store.GetPlanningPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching planning period: %w", err)
	}
	if period == nil {
		return nil, &NotFoundError{ID: periodID, Err: ErrPeriodNotFound}
	}

	breakdown, err := e.AvailableHours(ctx, *person, *period)
	if err != nil {
		return nil, err
	}
	assignments, err := e.Store.ListAssignmentsByPersonAndPeriod(ctx, personID, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching assignments: %w", err)
	}
	projects, err := e.Store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	projectNames := make(map[int64]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}

	pc := buildPersonCapacity(*person, breakdown, assignments, projectNames)
	return &pc, nil
}

// ProjectStaffing builds the staffing rollup for a single project.
func (e *Engine) ProjectStaffing(ctx context.Context, projectID, periodID int64) (*ProjectStaffing, error) {
	project, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching project: %w", err)
	}
	if project == nil {
		return nil, &NotFoundError{ID: projectID, Err: ErrProjectNotFound}
	}
	period, err := e.Store.GetPlanningPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching planning period: %w", err)
	}
	if period == nil {
		return nil, &NotFoundError{ID: periodID, Err: ErrPeriodNotFound}
	}
	requirement, err := e.Store.GetRequirement(ctx, projectID, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching requirement: %w", err)
	}
	if requirement == nil {
		return nil, &NotFoundError{ID: projectID, Err: ErrRequirementNotFound}
	}

	assignments, err := e.Store.ListAssignmentsByProjectAndPeriod(ctx, projectID, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching assignments: %w", err)
	}

	peopleByID := make(map[int64]Person)
	breakdowns := make(map[int64]Breakdown)
	for _, a := range assignments {
		if _, ok := peopleByID[a.PersonID]; ok {
			continue
		}
		person, err := e.Store.GetPerson(ctx, a.PersonID)
		if err != nil {
			return nil, fmt.Errorf("fetching person: %w", err)
		}
		if person == nil {
			continue
		}
		b, err := e.AvailableHours(ctx, *person, *period)
		if err != nil {
			return nil, err
		}
		peopleByID[a.PersonID] = *person
		breakdowns[a.PersonID] = b
	}

	ps := buildProjectStaffing(*project, *requirement, assignments, peopleByID, breakdowns)
	return &ps, nil
}

// =============================================================================
// ROLLUP BUILDERS
// =============================================================================

func buildPersonCapacity(person Person, breakdown Breakdown, assignments []Assignment, projectNames map[int64]string) PersonCapacity {
	var totalAllocated, totalEffective float64
	summaries := []AssignmentSummary{}

	for _, a := range assignments {
		allocationPct := a.EffectiveAllocationPercentage()
		allocatedHours := breakdown.AvailableHours * (allocationPct / 100.0)
		effectiveHours := 0.0
		if a.CalculatedEffectiveHours != nil {
			effectiveHours = *a.CalculatedEffectiveHours
		}
		totalAllocated += allocatedHours
		totalEffective += effectiveHours

		projectName, ok := projectNames[a.ProjectID]
		if !ok {
			projectName = fmt.Sprintf("Project %d", a.ProjectID)
		}
		summaries = append(summaries, AssignmentSummary{
			AssignmentID:         a.ID,
			ProjectName:          projectName,
			AllocationPercentage: allocationPct,
			EffectiveHours:       effectiveHours,
		})
	}

	utilization := 0.0
	if breakdown.AvailableHours > 0 {
		utilization = totalAllocated / breakdown.AvailableHours * 100.0
	}

	return PersonCapacity{
		PersonID:              person.ID,
		PersonName:            person.Name,
		PersonEmail:           person.Email,
		TotalAvailableHours:   breakdown.AvailableHours,
		TotalAllocatedHours:   totalAllocated,
		TotalEffectiveHours:   totalEffective,
		UtilizationPercentage: utilization,
		IsOverCommitted:       utilization > 100.0,
		Assignments:           summaries,
		AbsenceDays:           breakdown.AbsenceDays,
		AbsenceHours:          breakdown.AbsenceHours,
		HolidayDays:           breakdown.HolidayDays,
		HolidayHours:          breakdown.HolidayHours,
		BaseAvailableHours:    breakdown.BaseHours,
		OverheadHours:         breakdown.OverheadHours,
		OptionalOverheadHours: breakdown.OptionalOverheadHours,
	}
}

func buildProjectStaffing(project Project, requirement ProjectRequirement, assignments []Assignment, peopleByID map[int64]Person, breakdowns map[int64]Breakdown) ProjectStaffing {
	var totalAllocated, totalEffective float64
	assignedPeople := []PersonAssignmentSummary{}

	for _, a := range assignments {
		person, ok := peopleByID[a.PersonID]
		if !ok {
			continue
		}
		breakdown := breakdowns[a.PersonID]

		allocationPct := a.EffectiveAllocationPercentage()
		allocatedHours := breakdown.AvailableHours * (allocationPct / 100.0)
		effectiveHours := 0.0
		if a.CalculatedEffectiveHours != nil {
			effectiveHours = *a.CalculatedEffectiveHours
		}
		totalAllocated += allocatedHours
		totalEffective += effectiveHours

		assignedPeople = append(assignedPeople, PersonAssignmentSummary{
			AssignmentID:          a.ID,
			PersonName:            person.Name,
			AllocationPercentage:  allocationPct,
			ProductivityFactor:    a.ProductivityFactor,
			EffectiveHours:        effectiveHours,
			AbsenceDays:           breakdown.AbsenceDays,
			AbsenceHours:          breakdown.AbsenceHours,
			HolidayDays:           breakdown.HolidayDays,
			HolidayHours:          breakdown.HolidayHours,
			OverheadHours:         breakdown.OverheadHours,
			OptionalOverheadHours: breakdown.OptionalOverheadHours,
		})
	}

	staffingPct := 0.0
	if requirement.RequiredHours > 0 {
		staffingPct = totalEffective / requirement.RequiredHours * 100.0
	}
	isViable := staffingPct >= ViabilityThreshold
	shortfall := 0.0
	if !isViable {
		shortfall = requirement.RequiredHours - totalEffective
	}

	return ProjectStaffing{
		ProjectID:           project.ID,
		ProjectName:         project.Name,
		RequiredHours:       requirement.RequiredHours,
		TotalAllocatedHours: totalAllocated,
		TotalEffectiveHours: totalEffective,
		StaffingPercentage:  staffingPct,
		IsViable:            isViable,
		Shortfall:           shortfall,
		AssignedPeople:      assignedPeople,
	}
}

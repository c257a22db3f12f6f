/*
memory.go - In-memory Store for tests

PURPOSE:
  A map-backed implementation of engine.Store with the same observable
  behavior as the SQLite store: inclusive overlap queries, cascading
  deletes, and calculated-field invalidation before entity removal.
  Used by engine and API tests; never in production.

SEE ALSO:
  - engine/store.go: The interface contract
  - store/sqlite: The production counterpart
*/
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/capacity-engine/engine"
)

// Memory is a thread-safe in-memory engine.Store.
type Memory struct {
	mu sync.RWMutex

	countries    map[int64]engine.Country
	people       map[int64]engine.Person
	periods      map[int64]engine.PlanningPeriod
	absences     map[int64]engine.Absence
	holidays     map[int64]engine.Holiday
	jobs         map[int64]engine.Job
	tasks        map[int64]engine.OverheadTask
	jobLinks     map[int64]engine.PersonJobAssignment
	projects     map[int64]engine.Project
	requirements map[int64]engine.ProjectRequirement
	assignments  map[int64]engine.Assignment

	nextID int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		countries:    make(map[int64]engine.Country),
		people:       make(map[int64]engine.Person),
		periods:      make(map[int64]engine.PlanningPeriod),
		absences:     make(map[int64]engine.Absence),
		holidays:     make(map[int64]engine.Holiday),
		jobs:         make(map[int64]engine.Job),
		tasks:        make(map[int64]engine.OverheadTask),
		jobLinks:     make(map[int64]engine.PersonJobAssignment),
		projects:     make(map[int64]engine.Project),
		requirements: make(map[int64]engine.ProjectRequirement),
		assignments:  make(map[int64]engine.Assignment),
	}
}

func (m *Memory) allocID() int64 {
	m.nextID++
	return m.nextID
}

func overlaps(startDate, endDate string, period engine.Period) (bool, error) {
	span, err := engine.ParsePeriod(startDate, endDate)
	if err != nil {
		return false, err
	}
	return span.Overlaps(period), nil
}

// =============================================================================
// COUNTRIES
// =============================================================================

func (m *Memory) CreateCountry(_ context.Context, c *engine.Country) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.allocID()
	m.countries[c.ID] = *c
	return nil
}

func (m *Memory) GetCountry(_ context.Context, id int64) (*engine.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.countries[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) GetCountryByISOCode(_ context.Context, code string) (*engine.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.countries {
		if c.ISOCode == code {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListCountries(_ context.Context) ([]engine.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Country, 0, len(m.countries))
	for _, c := range m.countries {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteCountry(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hid, h := range m.holidays {
		if h.CountryID == id {
			delete(m.holidays, hid)
		}
	}
	for pid, p := range m.people {
		if p.CountryID != nil && *p.CountryID == id {
			p.CountryID = nil
			m.people[pid] = p
		}
	}
	delete(m.countries, id)
	return nil
}

func (m *Memory) CountryDependencies(_ context.Context, id int64) (engine.CountryDependencies, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var deps engine.CountryDependencies
	for _, h := range m.holidays {
		if h.CountryID == id {
			deps.HolidayCount++
		}
	}
	for _, p := range m.people {
		if p.CountryID != nil && *p.CountryID == id {
			deps.PeopleCount++
		}
	}
	return deps, nil
}

// =============================================================================
// PEOPLE
// =============================================================================

func (m *Memory) CreatePerson(_ context.Context, p *engine.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.allocID()
	m.people[p.ID] = *p
	return nil
}

func (m *Memory) GetPerson(_ context.Context, id int64) (*engine.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.people[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) ListPeople(_ context.Context) ([]engine.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Person, 0, len(m.people))
	for _, p := range m.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpdatePerson(_ context.Context, p engine.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.people[p.ID]; !ok {
		return fmt.Errorf("person %d: no such row", p.ID)
	}
	m.people[p.ID] = p
	return nil
}

func (m *Memory) DeletePerson(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateAssignments(func(a engine.Assignment) bool { return a.PersonID == id })
	for aid, a := range m.assignments {
		if a.PersonID == id {
			delete(m.assignments, aid)
		}
	}
	for aid, a := range m.absences {
		if a.PersonID == id {
			delete(m.absences, aid)
		}
	}
	for lid, l := range m.jobLinks {
		if l.PersonID == id {
			delete(m.jobLinks, lid)
		}
	}
	delete(m.people, id)
	return nil
}

func (m *Memory) PersonDependencies(_ context.Context, id int64) (engine.PersonDependencies, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var deps engine.PersonDependencies
	for _, a := range m.assignments {
		if a.PersonID == id {
			deps.AssignmentCount++
		}
	}
	for _, a := range m.absences {
		if a.PersonID == id {
			deps.AbsenceCount++
		}
	}
	return deps, nil
}

// =============================================================================
// PLANNING PERIODS
// =============================================================================

func (m *Memory) CreatePlanningPeriod(_ context.Context, p *engine.PlanningPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.allocID()
	m.periods[p.ID] = *p
	return nil
}

func (m *Memory) GetPlanningPeriod(_ context.Context, id int64) (*engine.PlanningPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.periods[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) ListPlanningPeriods(_ context.Context) ([]engine.PlanningPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.PlanningPeriod, 0, len(m.periods))
	for _, p := range m.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate < out[j].StartDate })
	return out, nil
}

func (m *Memory) UpdatePlanningPeriod(_ context.Context, p engine.PlanningPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[p.ID]; !ok {
		return fmt.Errorf("planning period %d: no such row", p.ID)
	}
	m.periods[p.ID] = p
	return nil
}

func (m *Memory) DeletePlanningPeriod(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateAssignments(func(a engine.Assignment) bool { return a.PlanningPeriodID == id })
	for aid, a := range m.assignments {
		if a.PlanningPeriodID == id {
			delete(m.assignments, aid)
		}
	}
	for rid, r := range m.requirements {
		if r.PlanningPeriodID == id {
			delete(m.requirements, rid)
		}
	}
	for lid, l := range m.jobLinks {
		if l.PlanningPeriodID == id {
			delete(m.jobLinks, lid)
		}
	}
	delete(m.periods, id)
	return nil
}

func (m *Memory) PeriodDependencies(_ context.Context, id int64) (engine.PeriodDependencies, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var deps engine.PeriodDependencies
	for _, r := range m.requirements {
		if r.PlanningPeriodID == id {
			deps.RequirementCount++
		}
	}
	for _, a := range m.assignments {
		if a.PlanningPeriodID == id {
			deps.AssignmentCount++
		}
	}
	return deps, nil
}

// =============================================================================
// ABSENCES
// =============================================================================

func (m *Memory) CreateAbsence(_ context.Context, a *engine.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.allocID()
	m.absences[a.ID] = *a
	return nil
}

func (m *Memory) ListAbsencesByPerson(_ context.Context, personID int64) ([]engine.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Absence
	for _, a := range m.absences {
		if a.PersonID == personID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate < out[j].StartDate })
	return out, nil
}

func (m *Memory) AbsencesOverlapping(_ context.Context, personID int64, period engine.Period) ([]engine.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Absence
	for _, a := range m.absences {
		if a.PersonID != personID {
			continue
		}
		ok, err := overlaps(a.StartDate, a.EndDate, period)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteAbsence(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.absences, id)
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) CreateHoliday(_ context.Context, h *engine.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = m.allocID()
	m.holidays[h.ID] = *h
	return nil
}

func (m *Memory) CreateHolidaysBatch(_ context.Context, hs []engine.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range hs {
		hs[i].ID = m.allocID()
		m.holidays[hs[i].ID] = hs[i]
	}
	return nil
}

func (m *Memory) ListHolidays(_ context.Context, countryID *int64) ([]engine.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Holiday
	for _, h := range m.holidays {
		if countryID == nil || h.CountryID == *countryID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate < out[j].StartDate })
	return out, nil
}

func (m *Memory) HolidaysOverlapping(_ context.Context, countryID int64, period engine.Period) ([]engine.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Holiday
	for _, h := range m.holidays {
		if h.CountryID != countryID {
			continue
		}
		ok, err := overlaps(h.StartDate, h.EndDate, period)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) HolidayOverlapExists(_ context.Context, countryID int64, period engine.Period, excludeID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.holidays {
		if h.CountryID != countryID || h.ID == excludeID {
			continue
		}
		ok, err := overlaps(h.StartDate, h.EndDate, period)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) UpdateHoliday(_ context.Context, h engine.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[h.ID]; !ok {
		return fmt.Errorf("holiday %d: no such row", h.ID)
	}
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holidays, id)
	return nil
}

// =============================================================================
// JOBS
// =============================================================================

func (m *Memory) CreateJob(_ context.Context, j *engine.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j.ID = m.allocID()
	m.jobs[j.ID] = *j
	return nil
}

func (m *Memory) GetJob(_ context.Context, id int64) (*engine.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if j, ok := m.jobs[id]; ok {
		return &j, nil
	}
	return nil, nil
}

func (m *Memory) ListJobs(_ context.Context) ([]engine.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpdateJob(_ context.Context, j engine.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.ID]; !ok {
		return fmt.Errorf("job %d: no such row", j.ID)
	}
	m.jobs[j.ID] = j
	return nil
}

func (m *Memory) DeleteJob(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for tid, t := range m.tasks {
		if t.JobID == id {
			delete(m.tasks, tid)
		}
	}
	for lid, l := range m.jobLinks {
		if l.JobID == id {
			delete(m.jobLinks, lid)
		}
	}
	delete(m.jobs, id)
	return nil
}

func (m *Memory) CreateOverheadTask(_ context.Context, t *engine.OverheadTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.allocID()
	m.tasks[t.ID] = *t
	return nil
}

func (m *Memory) ListOverheadTasksByJob(_ context.Context, jobID int64) ([]engine.OverheadTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.OverheadTask
	for _, t := range m.tasks {
		if t.JobID == jobID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateOverheadTask(_ context.Context, t engine.OverheadTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return fmt.Errorf("overhead task %d: no such row", t.ID)
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *Memory) DeleteOverheadTask(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func (m *Memory) CreatePersonJobAssignment(_ context.Context, a *engine.PersonJobAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.allocID()
	m.jobLinks[a.ID] = *a
	return nil
}

func (m *Memory) ListPersonJobAssignments(_ context.Context, personID, periodID int64) ([]engine.PersonJobAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.PersonJobAssignment
	for _, l := range m.jobLinks {
		if l.PersonID == personID && l.PlanningPeriodID == periodID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListJobAssignmentsByPeriod(_ context.Context, periodID int64) ([]engine.PersonJobAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.PersonJobAssignment
	for _, l := range m.jobLinks {
		if l.PlanningPeriodID == periodID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeletePersonJobAssignment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobLinks, id)
	return nil
}

// =============================================================================
// PROJECTS
// =============================================================================

func (m *Memory) CreateProject(_ context.Context, p *engine.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.allocID()
	m.projects[p.ID] = *p
	return nil
}

func (m *Memory) GetProject(_ context.Context, id int64) (*engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.projects[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) ListProjects(_ context.Context) ([]engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpdateProject(_ context.Context, p engine.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return fmt.Errorf("project %d: no such row", p.ID)
	}
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) DeleteProject(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateAssignments(func(a engine.Assignment) bool { return a.ProjectID == id })
	for aid, a := range m.assignments {
		if a.ProjectID == id {
			delete(m.assignments, aid)
		}
	}
	for rid, r := range m.requirements {
		if r.ProjectID == id {
			delete(m.requirements, rid)
		}
	}
	delete(m.projects, id)
	return nil
}

func (m *Memory) ProjectDependencies(_ context.Context, id int64) (engine.ProjectDependencies, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var deps engine.ProjectDependencies
	for _, r := range m.requirements {
		if r.ProjectID == id {
			deps.RequirementCount++
		}
	}
	for _, a := range m.assignments {
		if a.ProjectID == id {
			deps.AssignmentCount++
		}
	}
	return deps, nil
}

// =============================================================================
// PROJECT REQUIREMENTS
// =============================================================================

func (m *Memory) UpsertRequirement(_ context.Context, r *engine.ProjectRequirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertRequirementLocked(r)
	return nil
}

func (m *Memory) upsertRequirementLocked(r *engine.ProjectRequirement) {
	for id, existing := range m.requirements {
		if existing.ProjectID == r.ProjectID && existing.PlanningPeriodID == r.PlanningPeriodID {
			r.ID = id
			m.requirements[id] = *r
			return
		}
	}
	r.ID = m.allocID()
	m.requirements[r.ID] = *r
}

func (m *Memory) BatchUpsertRequirements(_ context.Context, rs []engine.ProjectRequirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range rs {
		m.upsertRequirementLocked(&rs[i])
	}
	return nil
}

func (m *Memory) GetRequirement(_ context.Context, projectID, periodID int64) (*engine.ProjectRequirement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.requirements {
		if r.ProjectID == projectID && r.PlanningPeriodID == periodID {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListRequirementsByPeriod(_ context.Context, periodID int64) ([]engine.ProjectRequirement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.ProjectRequirement
	for _, r := range m.requirements {
		if r.PlanningPeriodID == periodID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteRequirement(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requirements, id)
	return nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (m *Memory) CreateAssignment(_ context.Context, a *engine.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.allocID()
	m.assignments[a.ID] = *a
	return nil
}

func (m *Memory) GetAssignment(_ context.Context, id int64) (*engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.assignments[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) listAssignments(match func(engine.Assignment) bool) []engine.Assignment {
	var out []engine.Assignment
	for _, a := range m.assignments {
		if match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) ListAssignmentsByPeriod(_ context.Context, periodID int64) ([]engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listAssignments(func(a engine.Assignment) bool {
		return a.PlanningPeriodID == periodID
	}), nil
}

func (m *Memory) ListAssignmentsByPersonAndPeriod(_ context.Context, personID, periodID int64) ([]engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listAssignments(func(a engine.Assignment) bool {
		return a.PersonID == personID && a.PlanningPeriodID == periodID
	}), nil
}

func (m *Memory) ListAssignmentsByProjectAndPeriod(_ context.Context, projectID, periodID int64) ([]engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listAssignments(func(a engine.Assignment) bool {
		return a.ProjectID == projectID && a.PlanningPeriodID == periodID
	}), nil
}

func (m *Memory) UpdateAssignment(_ context.Context, a engine.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[a.ID]; !ok {
		return fmt.Errorf("assignment %d: no such row", a.ID)
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *Memory) DeleteAssignment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assignments, id)
	return nil
}

func (m *Memory) SetAssignmentPin(_ context.Context, id int64, pinned bool, pct *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return fmt.Errorf("assignment %d: no such row", id)
	}
	a.IsPinned = pinned
	if pinned {
		a.PinnedAllocationPercentage = pct
	} else {
		a.PinnedAllocationPercentage = nil
	}
	m.assignments[id] = a
	return nil
}

func (m *Memory) SaveCalculation(_ context.Context, assignmentID int64, allocationPct, effectiveHours float64, calculatedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[assignmentID]
	if !ok {
		return fmt.Errorf("assignment %d: no such row", assignmentID)
	}
	a.CalculatedAllocationPercentage = &allocationPct
	a.CalculatedEffectiveHours = &effectiveHours
	a.LastCalculatedAt = &calculatedAt
	m.assignments[assignmentID] = a
	return nil
}

// invalidateAssignments nulls the calculated cache on every assignment the
// predicate matches. Callers hold the write lock.
func (m *Memory) invalidateAssignments(match func(engine.Assignment) bool) {
	for id, a := range m.assignments {
		if match(a) {
			a.CalculatedAllocationPercentage = nil
			a.CalculatedEffectiveHours = nil
			a.LastCalculatedAt = nil
			m.assignments[id] = a
		}
	}
}

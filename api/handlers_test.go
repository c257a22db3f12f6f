/*
handlers_test.go - HTTP-level tests over the in-memory store

Exercises the router end to end: entity CRUD, request validation,
assignment date rules, holiday overlap rejection, pinning, and the
optimize/overview round trip.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/api"
	"github.com/warp/capacity-engine/engine"
	"github.com/warp/capacity-engine/engine/store"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type harness struct {
	t      *testing.T
	router http.Handler
	mem    *store.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := store.NewMemory()
	eng := engine.New(mem, nil)
	handler := api.NewHandler(mem, eng, nil, nil, nil)
	return &harness{t: t, router: api.NewRouter(handler, nil), mem: mem}
}

// do sends a request and decodes the JSON response into out (when non-nil).
func (h *harness) do(method, path string, body any, out any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(h.t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func (h *harness) seedPeriod() engine.PlanningPeriod {
	h.t.Helper()
	p := engine.PlanningPeriod{StartDate: "2026-01-05", EndDate: "2026-01-11"}
	require.NoError(h.t, h.mem.CreatePlanningPeriod(context.Background(), &p))
	return p
}

func (h *harness) seedPerson(name string) engine.Person {
	h.t.Helper()
	p := engine.Person{Name: name, Email: name + "@example.com", AvailableHoursPerWeek: 40, WorkingDays: "Mon,Tue,Wed,Thu,Fri"}
	require.NoError(h.t, h.mem.CreatePerson(context.Background(), &p))
	return p
}

func (h *harness) seedProject(name string) engine.Project {
	h.t.Helper()
	p := engine.Project{Name: name}
	require.NoError(h.t, h.mem.CreateProject(context.Background(), &p))
	return p
}

func (h *harness) seedRequirement(projectID, periodID int64, hours float64) {
	h.t.Helper()
	req := engine.ProjectRequirement{ProjectID: projectID, PlanningPeriodID: periodID, RequiredHours: hours, Priority: engine.PriorityMedium}
	require.NoError(h.t, h.mem.UpsertRequirement(context.Background(), &req))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// =============================================================================
// PEOPLE
// =============================================================================

func TestCreatePerson_DefaultsWorkingDays(t *testing.T) {
	h := newHarness(t)

	var created engine.Person
	rec := h.do(http.MethodPost, "/api/people", map[string]any{
		"name":                     "alice",
		"email":                    "alice@example.com",
		"available_hours_per_week": 40,
	}, &created)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Mon,Tue,Wed,Thu,Fri", created.WorkingDays)
	assert.NotZero(t, created.ID)
}

func TestCreatePerson_InvalidEmail(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/people", map[string]any{
		"name":                     "alice",
		"email":                    "not-an-email",
		"available_hours_per_week": 40,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPerson_NotFound(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/people/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePerson_InvalidatesCalculatedFields(t *testing.T) {
	// GIVEN: Two people optimized on one project
	// WHEN: Deleting one person
	// THEN: The survivor's calculated cache on the shared project stays;
	//       the deleted person's assignments are gone

	h := newHarness(t)
	ctx := context.Background()
	period := h.seedPeriod()
	alice := h.seedPerson("alice")
	bob := h.seedPerson("bob")
	project := h.seedProject("Atlas")

	aAlice := engine.Assignment{PersonID: alice.ID, ProjectID: project.ID, PlanningPeriodID: period.ID, ProductivityFactor: 1, StartDate: period.StartDate, EndDate: period.EndDate}
	require.NoError(t, h.mem.CreateAssignment(ctx, &aAlice))
	aBob := engine.Assignment{PersonID: bob.ID, ProjectID: project.ID, PlanningPeriodID: period.ID, ProductivityFactor: 1, StartDate: period.StartDate, EndDate: period.EndDate}
	require.NoError(t, h.mem.CreateAssignment(ctx, &aBob))
	require.NoError(t, h.mem.SaveCalculation(ctx, aAlice.ID, 50, 20, "2026-01-15T12:00:00Z"))
	require.NoError(t, h.mem.SaveCalculation(ctx, aBob.ID, 50, 20, "2026-01-15T12:00:00Z"))

	rec := h.do(http.MethodDelete, "/api/people/"+itoa(alice.ID), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	gone, err := h.mem.GetAssignment(ctx, aAlice.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := h.mem.GetAssignment(ctx, aBob.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.NotNil(t, kept.CalculatedAllocationPercentage)
}

// =============================================================================
// ASSIGNMENT DATE RULES
// =============================================================================

func TestCreateAssignment_DatesDefaultToPeriodBounds(t *testing.T) {
	h := newHarness(t)
	period := h.seedPeriod()
	alice := h.seedPerson("alice")
	project := h.seedProject("Atlas")
	h.seedRequirement(project.ID, period.ID, 20)

	var created engine.Assignment
	rec := h.do(http.MethodPost, "/api/assignments", map[string]any{
		"person_id":           alice.ID,
		"project_id":          project.ID,
		"planning_period_id":  period.ID,
		"productivity_factor": 0.8,
	}, &created)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, period.StartDate, created.StartDate)
	assert.Equal(t, period.EndDate, created.EndDate)
}

func TestCreateAssignment_DatesOutsidePeriodRejected(t *testing.T) {
	h := newHarness(t)
	period := h.seedPeriod()
	alice := h.seedPerson("alice")
	project := h.seedProject("Atlas")
	h.seedRequirement(project.ID, period.ID, 20)

	rec := h.do(http.MethodPost, "/api/assignments", map[string]any{
		"person_id":           alice.ID,
		"project_id":          project.ID,
		"planning_period_id":  period.ID,
		"productivity_factor": 0.8,
		"start_date":          "2026-01-01", // before the period
		"end_date":            "2026-01-10",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAssignment_InvertedDatesRejected(t *testing.T) {
	h := newHarness(t)
	period := h.seedPeriod()
	alice := h.seedPerson("alice")
	project := h.seedProject("Atlas")
	h.seedRequirement(project.ID, period.ID, 20)

	rec := h.do(http.MethodPost, "/api/assignments", map[string]any{
		"person_id":           alice.ID,
		"project_id":          project.ID,
		"planning_period_id":  period.ID,
		"productivity_factor": 0.8,
		"start_date":          "2026-01-09",
		"end_date":            "2026-01-06",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAssignment_RequiresProjectRequirement(t *testing.T) {
	// GIVEN: A project with no requirement in the period
	// WHEN: Assigning a person to it
	// THEN: 400 - staffing an unrequested project is a data-entry mistake

	h := newHarness(t)
	period := h.seedPeriod()
	alice := h.seedPerson("alice")
	project := h.seedProject("Atlas")

	rec := h.do(http.MethodPost, "/api/assignments", map[string]any{
		"person_id":           alice.ID,
		"project_id":          project.ID,
		"planning_period_id":  period.ID,
		"productivity_factor": 0.8,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Contains(t, errResp.Error, "no requirement")
}

func TestPinAndUnpinAssignment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	period := h.seedPeriod()
	alice := h.seedPerson("alice")
	project := h.seedProject("Atlas")
	a := engine.Assignment{PersonID: alice.ID, ProjectID: project.ID, PlanningPeriodID: period.ID, ProductivityFactor: 1, StartDate: period.StartDate, EndDate: period.EndDate}
	require.NoError(t, h.mem.CreateAssignment(ctx, &a))

	rec := h.do(http.MethodPost, "/api/assignments/"+itoa(a.ID)+"/pin", map[string]any{"percentage": 40.0}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	pinned, err := h.mem.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)
	require.NotNil(t, pinned.PinnedAllocationPercentage)
	assert.Equal(t, 40.0, *pinned.PinnedAllocationPercentage)

	rec = h.do(http.MethodPost, "/api/assignments/"+itoa(a.ID)+"/unpin", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	unpinned, err := h.mem.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
	assert.Nil(t, unpinned.PinnedAllocationPercentage)
}

func TestPinAssignment_PercentageOver100Rejected(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/assignments/1/pin", map[string]any{"percentage": 140.0}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestCreateHoliday_OverlapRejected(t *testing.T) {
	// GIVEN: An existing holiday span for a country
	// WHEN: Creating another holiday touching that span
	// THEN: 409 with the overlap message

	h := newHarness(t)
	ctx := context.Background()
	country := engine.Country{ISOCode: "FR", Name: "France"}
	require.NoError(t, h.mem.CreateCountry(ctx, &country))

	rec := h.do(http.MethodPost, "/api/holidays", map[string]any{
		"country_id": country.ID,
		"name":       "Easter",
		"start_date": "2026-04-03",
		"end_date":   "2026-04-06",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodPost, "/api/holidays", map[string]any{
		"country_id": country.ID,
		"start_date": "2026-04-06",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Contains(t, errResp.Error, "Overlapping holidays are not allowed")
}

func TestCreateHoliday_SingleDayDefault(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	country := engine.Country{ISOCode: "FR", Name: "France"}
	require.NoError(t, h.mem.CreateCountry(ctx, &country))

	var created engine.Holiday
	rec := h.do(http.MethodPost, "/api/holidays", map[string]any{
		"country_id": country.ID,
		"start_date": "2026-05-01",
	}, &created)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2026-05-01", created.EndDate)
}

func TestListHolidays_FilteredByCountry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fr := engine.Country{ISOCode: "FR", Name: "France"}
	require.NoError(t, h.mem.CreateCountry(ctx, &fr))
	de := engine.Country{ISOCode: "DE", Name: "Germany"}
	require.NoError(t, h.mem.CreateCountry(ctx, &de))
	require.NoError(t, h.mem.CreateHoliday(ctx, &engine.Holiday{CountryID: fr.ID, StartDate: "2026-05-01", EndDate: "2026-05-01"}))
	require.NoError(t, h.mem.CreateHoliday(ctx, &engine.Holiday{CountryID: de.ID, StartDate: "2026-10-03", EndDate: "2026-10-03"}))

	var all []engine.Holiday
	rec := h.do(http.MethodGet, "/api/holidays", nil, &all)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, all, 2)

	var french []engine.Holiday
	rec = h.do(http.MethodGet, "/api/holidays?country_id="+itoa(fr.ID), nil, &french)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, french, 1)
	assert.Equal(t, fr.ID, french[0].CountryID)
}

func TestListPersonHolidays_OverlappingRange(t *testing.T) {
	// GIVEN: A person in a country with holidays inside and outside a range
	// WHEN: Listing the person's holidays over the range
	// THEN: Only the overlapping holiday comes back

	h := newHarness(t)
	ctx := context.Background()
	country := engine.Country{ISOCode: "FR", Name: "France"}
	require.NoError(t, h.mem.CreateCountry(ctx, &country))
	alice := engine.Person{Name: "alice", Email: "alice@example.com", AvailableHoursPerWeek: 40, WorkingDays: "Mon,Tue,Wed,Thu,Fri", CountryID: &country.ID}
	require.NoError(t, h.mem.CreatePerson(ctx, &alice))
	require.NoError(t, h.mem.CreateHoliday(ctx, &engine.Holiday{CountryID: country.ID, StartDate: "2026-05-01", EndDate: "2026-05-01"}))
	require.NoError(t, h.mem.CreateHoliday(ctx, &engine.Holiday{CountryID: country.ID, StartDate: "2026-12-25", EndDate: "2026-12-25"}))

	var holidays []engine.Holiday
	rec := h.do(http.MethodGet, "/api/people/"+itoa(alice.ID)+"/holidays?start=2026-04-01&end=2026-06-30", nil, &holidays)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, holidays, 1)
	assert.Equal(t, "2026-05-01", holidays[0].StartDate)
}

func TestListPersonHolidays_NoCountryIsEmpty(t *testing.T) {
	h := newHarness(t)
	alice := h.seedPerson("alice")

	var holidays []engine.Holiday
	rec := h.do(http.MethodGet, "/api/people/"+itoa(alice.ID)+"/holidays?start=2026-01-01&end=2026-12-31", nil, &holidays)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, holidays)
}

// =============================================================================
// REQUIREMENTS
// =============================================================================

func TestBatchUpsertRequirements(t *testing.T) {
	h := newHarness(t)
	period := h.seedPeriod()
	atlas := h.seedProject("Atlas")
	borealis := h.seedProject("Borealis")

	rec := h.do(http.MethodPost, "/api/requirements/batch", map[string]any{
		"requirements": []map[string]any{
			{"project_id": atlas.ID, "planning_period_id": period.ID, "required_hours": 40, "priority": engine.PriorityHigh},
			{"project_id": borealis.ID, "planning_period_id": period.ID, "required_hours": 20, "priority": engine.PriorityLow},
		},
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	reqs, err := h.mem.ListRequirementsByPeriod(context.Background(), period.ID)
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}

// =============================================================================
// OPTIMIZE AND REPORTING
// =============================================================================

func TestOptimizeAndOverview_RoundTrip(t *testing.T) {
	// GIVEN: A seeded period with one person and one project
	// WHEN: POSTing optimize, then GETting the overview
	// THEN: The overview reflects the persisted allocation, rounded

	h := newHarness(t)
	ctx := context.Background()
	period := h.seedPeriod()
	alice := h.seedPerson("alice")
	project := h.seedProject("Atlas")

	req := engine.ProjectRequirement{ProjectID: project.ID, PlanningPeriodID: period.ID, RequiredHours: 20, Priority: engine.PriorityMedium}
	require.NoError(t, h.mem.UpsertRequirement(ctx, &req))
	a := engine.Assignment{PersonID: alice.ID, ProjectID: project.ID, PlanningPeriodID: period.ID, ProductivityFactor: 1, StartDate: period.StartDate, EndDate: period.EndDate}
	require.NoError(t, h.mem.CreateAssignment(ctx, &a))

	var result engine.OptimizationResult
	rec := h.do(http.MethodPost, "/api/periods/"+itoa(period.ID)+"/optimize", nil, &result)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, result.Success)
	require.Len(t, result.Calculations, 1)

	var overview api.OverviewDTO
	rec = h.do(http.MethodGet, "/api/periods/"+itoa(period.ID)+"/overview", nil, &overview)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, overview.TotalPeople)
	assert.Equal(t, 1, overview.TotalProjects)
	assert.Zero(t, overview.UnderStaffedProjects)
	require.Len(t, overview.PeopleCapacity, 1)
	assert.InDelta(t, 50.0, overview.PeopleCapacity[0].UtilizationPercentage, 0.01)
	require.Len(t, overview.ProjectStaffing, 1)
	assert.True(t, overview.ProjectStaffing[0].IsViable)
}

func TestOptimizeEndpoint_PeriodNotFound(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/periods/999/optimize", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPersonCapacity_RequiresPeriodID(t *testing.T) {
	h := newHarness(t)
	alice := h.seedPerson("alice")

	rec := h.do(http.MethodGet, "/api/people/"+itoa(alice.ID)+"/capacity", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPersonAvailability(t *testing.T) {
	h := newHarness(t)
	period := h.seedPeriod()
	alice := h.seedPerson("alice")

	var breakdown api.BreakdownDTO
	rec := h.do(http.MethodGet, "/api/people/"+itoa(alice.ID)+"/availability?period_id="+itoa(period.ID), nil, &breakdown)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 40.0, breakdown.AvailableHours)
	assert.Equal(t, 40.0, breakdown.BaseHours)
}

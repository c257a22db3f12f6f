/*
handlers.go - HTTP API handlers for the capacity planning system

PURPOSE:
  Exposes the capacity engine and its entities via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain
  logic.

ENDPOINTS (entity CRUD):
  People:
    GET    /api/people                     List all people
    POST   /api/people                     Create person
    GET    /api/people/{id}                Get person
    PUT    /api/people/{id}                Update person
    DELETE /api/people/{id}                Delete person (invalidates calc cache)
    GET    /api/people/{id}/dependencies   Counts shown before delete
    GET    /api/people/{id}/absences       The person's absences

  Countries:
    GET    /api/countries                  List registered countries
    POST   /api/countries                  Register country
    DELETE /api/countries/{id}             Delete country (+holidays)
    GET    /api/countries/{id}/dependencies
    GET    /api/countries/available        Proxy of the holiday API listing

  Planning periods:
    GET/POST /api/periods, GET/PUT/DELETE /api/periods/{id},
    GET /api/periods/{id}/dependencies

  Absences:
    POST /api/absences, DELETE /api/absences/{id}

  Jobs and overhead:
    GET/POST /api/jobs, GET/PUT/DELETE /api/jobs/{id}
    GET /api/jobs/{id}/tasks, POST /api/tasks, PUT/DELETE /api/tasks/{id}
    POST /api/job-assignments, DELETE /api/job-assignments/{id}

  Projects and requirements:
    GET/POST /api/projects, GET/PUT/DELETE /api/projects/{id}
    GET /api/projects/{id}/dependencies
    PUT /api/requirements, POST /api/requirements/batch
    GET /api/periods/{id}/requirements, DELETE /api/requirements/{id}

  Assignments:
    POST /api/assignments, GET/PUT/DELETE /api/assignments/{id}
    POST /api/assignments/{id}/pin, POST /api/assignments/{id}/unpin

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, malformed dates
  - 404: Entity not found
  - 409: Conflict (overlapping holiday)
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - capacity.go: Optimization and reporting endpoints
  - holidays.go: Holiday CRUD and import endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/capacity-engine/engine"
	"github.com/warp/capacity-engine/holidayapi"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    engine.Store
	Engine   *engine.Engine
	Holidays *holidayapi.Client
	Importer *holidayapi.Importer
	Log      *zap.Logger

	validate *validator.Validate
}

// NewHandler creates a new handler around the store and engine.
func NewHandler(store engine.Store, eng *engine.Engine, holidays *holidayapi.Client, importer *holidayapi.Importer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:    store,
		Engine:   eng,
		Holidays: holidays,
		Importer: importer,
		Log:      log,
		validate: validator.New(),
	}
}

// =============================================================================
// PEOPLE ENDPOINTS
// =============================================================================

// ListPeople returns all people.
// GET /api/people
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.Store.ListPeople(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list people", err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

// CreatePerson creates a person.
// POST /api/people
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.WorkingDays == "" {
		req.WorkingDays = "Mon,Tue,Wed,Thu,Fri"
	}
	person := engine.Person{
		Name:                  req.Name,
		Email:                 req.Email,
		AvailableHoursPerWeek: req.AvailableHoursPerWeek,
		WorkingDays:           req.WorkingDays,
		CountryID:             req.CountryID,
	}
	if err := h.Store.CreatePerson(r.Context(), &person); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create person", err)
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

// GetPerson returns one person.
// GET /api/people/{id}
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
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
	writeJSON(w, http.StatusOK, person)
}

// UpdatePerson updates a person.
// PUT /api/people/{id}
func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req CreatePersonRequest
	if !h.decode(w, r, &req) {
		return
	}
	existing, err := h.Store.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "person not found", nil)
		return
	}
	person := engine.Person{
		ID:                    id,
		Name:                  req.Name,
		Email:                 req.Email,
		AvailableHoursPerWeek: req.AvailableHoursPerWeek,
		WorkingDays:           req.WorkingDays,
		CountryID:             req.CountryID,
	}
	if person.WorkingDays == "" {
		person.WorkingDays = existing.WorkingDays
	}
	if err := h.Store.UpdatePerson(r.Context(), person); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update person", err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// DeletePerson deletes a person, invalidating calculated values on the
// person's assignments first.
// DELETE /api/people/{id}
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeletePerson(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete person", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetPersonDependencies returns counts of records a delete would remove.
// GET /api/people/{id}/dependencies
func (h *Handler) GetPersonDependencies(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	deps, err := h.Store.PersonDependencies(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count dependencies", err)
		return
	}
	writeJSON(w, http.StatusOK, DependenciesDTO{
		Assignments: deps.AssignmentCount,
		Absences:    deps.AbsenceCount,
	})
}

// ListPersonAbsences returns a person's absences.
// GET /api/people/{id}/absences
func (h *Handler) ListPersonAbsences(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	absences, err := h.Store.ListAbsencesByPerson(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list absences", err)
		return
	}
	writeJSON(w, http.StatusOK, absences)
}

// ListPersonHolidays returns the person's country holidays overlapping
// a date range. People without a country have no holidays.
// GET /api/people/{id}/holidays?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) ListPersonHolidays(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	span, err := engine.ParsePeriod(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range", err)
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
	if person.CountryID == nil {
		writeJSON(w, http.StatusOK, []engine.Holiday{})
		return
	}
	holidays, err := h.Store.HolidaysOverlapping(r.Context(), *person.CountryID, span)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

// =============================================================================
// COUNTRY ENDPOINTS
// =============================================================================

// ListCountries returns registered countries.
// GET /api/countries
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.Store.ListCountries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list countries", err)
		return
	}
	writeJSON(w, http.StatusOK, countries)
}

// CreateCountry registers a country.
// POST /api/countries
func (h *Handler) CreateCountry(w http.ResponseWriter, r *http.Request) {
	var req CreateCountryRequest
	if !h.decode(w, r, &req) {
		return
	}
	country := engine.Country{ISOCode: req.ISOCode, Name: req.Name}
	if err := h.Store.CreateCountry(r.Context(), &country); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create country", err)
		return
	}
	writeJSON(w, http.StatusCreated, country)
}

// DeleteCountry removes a country and, by cascade, its holidays.
// DELETE /api/countries/{id}
func (h *Handler) DeleteCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteCountry(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete country", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetCountryDependencies returns what a country delete would touch.
// GET /api/countries/{id}/dependencies
func (h *Handler) GetCountryDependencies(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	deps, err := h.Store.CountryDependencies(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count dependencies", err)
		return
	}
	writeJSON(w, http.StatusOK, DependenciesDTO{
		Holidays: deps.HolidayCount,
		People:   deps.PeopleCount,
	})
}

// ListAvailableCountries proxies the holiday API's country listing.
// GET /api/countries/available
func (h *Handler) ListAvailableCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.Holidays.AvailableCountries(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch available countries", err)
		return
	}
	writeJSON(w, http.StatusOK, countries)
}

// =============================================================================
// PLANNING PERIOD ENDPOINTS
// =============================================================================

// ListPeriods returns all planning periods.
// GET /api/periods
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Store.ListPlanningPeriods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list planning periods", err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

// CreatePeriod creates a planning period.
// POST /api/periods
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.checkPeriodDates(w, req.StartDate, req.EndDate) {
		return
	}
	period := engine.PlanningPeriod{Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate}
	if err := h.Store.CreatePlanningPeriod(r.Context(), &period); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create planning period", err)
		return
	}
	writeJSON(w, http.StatusCreated, period)
}

// GetPeriod returns one planning period.
// GET /api/periods/{id}
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	period, err := h.Store.GetPlanningPeriod(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get planning period", err)
		return
	}
	if period == nil {
		writeError(w, http.StatusNotFound, "planning period not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, period)
}

// UpdatePeriod updates a planning period.
// PUT /api/periods/{id}
func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req CreatePeriodRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.checkPeriodDates(w, req.StartDate, req.EndDate) {
		return
	}
	period := engine.PlanningPeriod{ID: id, Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate}
	if err := h.Store.UpdatePlanningPeriod(r.Context(), period); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update planning period", err)
		return
	}
	writeJSON(w, http.StatusOK, period)
}

// DeletePeriod deletes a period, invalidating calculated values on the
// period's assignments first.
// DELETE /api/periods/{id}
func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeletePlanningPeriod(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete planning period", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetPeriodDependencies returns what a period delete would remove.
// GET /api/periods/{id}/dependencies
func (h *Handler) GetPeriodDependencies(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	deps, err := h.Store.PeriodDependencies(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count dependencies", err)
		return
	}
	writeJSON(w, http.StatusOK, DependenciesDTO{
		Requirements: deps.RequirementCount,
		Assignments:  deps.AssignmentCount,
	})
}

// =============================================================================
// ABSENCE ENDPOINTS
// =============================================================================

// CreateAbsence records an absence. The days figure is caller-supplied
// and stored as-is.
// POST /api/absences
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req CreateAbsenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.checkPeriodDates(w, req.StartDate, req.EndDate) {
		return
	}
	absence := engine.Absence{
		PersonID:  req.PersonID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Days:      req.Days,
		Reason:    req.Reason,
	}
	if err := h.Store.CreateAbsence(r.Context(), &absence); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create absence", err)
		return
	}
	writeJSON(w, http.StatusCreated, absence)
}

// DeleteAbsence removes an absence.
// DELETE /api/absences/{id}
func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteAbsence(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete absence", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// JOB ENDPOINTS
// =============================================================================

// ListJobs returns all job templates.
// GET /api/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.ListJobs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// CreateJob creates a job template.
// POST /api/jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if !h.decode(w, r, &req) {
		return
	}
	job := engine.Job{Name: req.Name, Description: req.Description}
	if err := h.Store.CreateJob(r.Context(), &job); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create job", err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// GetJob returns one job.
// GET /api/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	job, err := h.Store.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get job", err)
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// UpdateJob updates a job.
// PUT /api/jobs/{id}
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req CreateJobRequest
	if !h.decode(w, r, &req) {
		return
	}
	job := engine.Job{ID: id, Name: req.Name, Description: req.Description}
	if err := h.Store.UpdateJob(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update job", err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// DeleteJob removes a job and, by cascade, its tasks and assignments.
// DELETE /api/jobs/{id}
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteJob(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete job", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListJobTasks returns the overhead tasks of a job.
// GET /api/jobs/{id}/tasks
func (h *Handler) ListJobTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	tasks, err := h.Store.ListOverheadTasksByJob(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list overhead tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateOverheadTask attaches a recurring task to a job.
// POST /api/tasks
func (h *Handler) CreateOverheadTask(w http.ResponseWriter, r *http.Request) {
	var req CreateOverheadTaskRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.IsOptional && req.OptionalWeight == 0 {
		req.OptionalWeight = engine.DefaultOptionalWeight
	}
	task := engine.OverheadTask{
		JobID:          req.JobID,
		Name:           req.Name,
		Description:    req.Description,
		EffortHours:    req.EffortHours,
		EffortPeriod:   req.EffortPeriod,
		IsOptional:     req.IsOptional,
		OptionalWeight: req.OptionalWeight,
	}
	if err := h.Store.CreateOverheadTask(r.Context(), &task); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create overhead task", err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateOverheadTask updates an overhead task.
// PUT /api/tasks/{id}
func (h *Handler) UpdateOverheadTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req CreateOverheadTaskRequest
	if !h.decode(w, r, &req) {
		return
	}
	task := engine.OverheadTask{
		ID:             id,
		JobID:          req.JobID,
		Name:           req.Name,
		Description:    req.Description,
		EffortHours:    req.EffortHours,
		EffortPeriod:   req.EffortPeriod,
		IsOptional:     req.IsOptional,
		OptionalWeight: req.OptionalWeight,
	}
	if err := h.Store.UpdateOverheadTask(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update overhead task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteOverheadTask removes an overhead task.
// DELETE /api/tasks/{id}
func (h *Handler) DeleteOverheadTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteOverheadTask(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete overhead task", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListPersonJobAssignmentsByPeriod returns a period's person-job links.
// GET /api/job-assignments?period_id=N
func (h *Handler) ListPersonJobAssignmentsByPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, ok := periodIDQuery(w, r)
	if !ok {
		return
	}
	links, err := h.Store.ListJobAssignmentsByPeriod(r.Context(), periodID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list job assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// CreatePersonJobAssignment gives a person a job for a period.
// POST /api/job-assignments
func (h *Handler) CreatePersonJobAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonJobAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	link := engine.PersonJobAssignment{
		PersonID:         req.PersonID,
		JobID:            req.JobID,
		PlanningPeriodID: req.PlanningPeriodID,
	}
	if err := h.Store.CreatePersonJobAssignment(r.Context(), &link); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create job assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// DeletePersonJobAssignment removes a person-job link.
// DELETE /api/job-assignments/{id}
func (h *Handler) DeletePersonJobAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeletePersonJobAssignment(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete job assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// PROJECT ENDPOINTS
// =============================================================================

// ListProjects returns all projects.
// GET /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject creates a project.
// POST /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	project := engine.Project{Name: req.Name, Description: req.Description}
	if err := h.Store.CreateProject(r.Context(), &project); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// GetProject returns one project.
// GET /api/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	project, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project", err)
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "project not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// UpdateProject updates a project.
// PUT /api/projects/{id}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	project := engine.Project{ID: id, Name: req.Name, Description: req.Description}
	if err := h.Store.UpdateProject(r.Context(), project); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update project", err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// DeleteProject deletes a project, invalidating calculated values on its
// assignments first.
// DELETE /api/projects/{id}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteProject(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete project", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetProjectDependencies returns what a project delete would remove.
// GET /api/projects/{id}/dependencies
func (h *Handler) GetProjectDependencies(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	deps, err := h.Store.ProjectDependencies(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count dependencies", err)
		return
	}
	writeJSON(w, http.StatusOK, DependenciesDTO{
		Requirements: deps.RequirementCount,
		Assignments:  deps.AssignmentCount,
	})
}

// =============================================================================
// REQUIREMENT ENDPOINTS
// =============================================================================

// UpsertRequirement creates or replaces a project's requirement for a
// period.
// PUT /api/requirements
func (h *Handler) UpsertRequirement(w http.ResponseWriter, r *http.Request) {
	var req RequirementRequest
	if !h.decode(w, r, &req) {
		return
	}
	requirement := engine.ProjectRequirement{
		ProjectID:        req.ProjectID,
		PlanningPeriodID: req.PlanningPeriodID,
		RequiredHours:    req.RequiredHours,
		Priority:         req.Priority,
	}
	if err := h.Store.UpsertRequirement(r.Context(), &requirement); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to upsert requirement", err)
		return
	}
	writeJSON(w, http.StatusOK, requirement)
}

// BatchUpsertRequirements applies several upserts in one transaction.
// POST /api/requirements/batch
func (h *Handler) BatchUpsertRequirements(w http.ResponseWriter, r *http.Request) {
	var req BatchRequirementsRequest
	if !h.decode(w, r, &req) {
		return
	}
	requirements := make([]engine.ProjectRequirement, 0, len(req.Requirements))
	for _, rr := range req.Requirements {
		requirements = append(requirements, engine.ProjectRequirement{
			ProjectID:        rr.ProjectID,
			PlanningPeriodID: rr.PlanningPeriodID,
			RequiredHours:    rr.RequiredHours,
			Priority:         rr.Priority,
		})
	}
	if err := h.Store.BatchUpsertRequirements(r.Context(), requirements); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to upsert requirements", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(requirements)})
}

// ListPeriodRequirements returns a period's requirements.
// GET /api/periods/{id}/requirements
func (h *Handler) ListPeriodRequirements(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	requirements, err := h.Store.ListRequirementsByPeriod(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requirements", err)
		return
	}
	writeJSON(w, http.StatusOK, requirements)
}

// DeleteRequirement removes a requirement.
// DELETE /api/requirements/{id}
func (h *Handler) DeleteRequirement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteRequirement(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete requirement", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// ASSIGNMENT ENDPOINTS
// =============================================================================

// CreateAssignment links a person to a project for a period. Dates
// default to the period bounds and must lie within them; the project
// must have a requirement in the period.
// POST /api/assignments
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	period, ok := h.checkAssignmentRefs(w, r, req)
	if !ok {
		return
	}

	startDate, endDate, ok := h.resolveAssignmentDates(w, req.StartDate, req.EndDate, *period)
	if !ok {
		return
	}

	assignment := engine.Assignment{
		PersonID:           req.PersonID,
		ProjectID:          req.ProjectID,
		PlanningPeriodID:   req.PlanningPeriodID,
		ProductivityFactor: req.ProductivityFactor,
		StartDate:          startDate,
		EndDate:            endDate,
	}
	if err := h.Store.CreateAssignment(r.Context(), &assignment); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

// GetAssignment returns one assignment.
// GET /api/assignments/{id}
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	assignment, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get assignment", err)
		return
	}
	if assignment == nil {
		writeError(w, http.StatusNotFound, "assignment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// UpdateAssignment updates an assignment's link fields and dates.
// PUT /api/assignments/{id}
func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req CreateAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	existing, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get assignment", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "assignment not found", nil)
		return
	}
	period, ok := h.checkAssignmentRefs(w, r, req)
	if !ok {
		return
	}

	startDate, endDate, ok := h.resolveAssignmentDates(w, req.StartDate, req.EndDate, *period)
	if !ok {
		return
	}

	assignment := *existing
	assignment.PersonID = req.PersonID
	assignment.ProjectID = req.ProjectID
	assignment.PlanningPeriodID = req.PlanningPeriodID
	assignment.ProductivityFactor = req.ProductivityFactor
	assignment.StartDate = startDate
	assignment.EndDate = endDate
	if err := h.Store.UpdateAssignment(r.Context(), assignment); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// DeleteAssignment removes an assignment.
// DELETE /api/assignments/{id}
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteAssignment(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// PinAssignment fixes an assignment at a manual percentage, bypassing
// proportional distribution on the next optimization run.
// POST /api/assignments/{id}/pin
func (h *Handler) PinAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req PinAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Store.SetAssignmentPin(r.Context(), id, true, &req.Percentage); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to pin assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "pinned", "percentage": req.Percentage})
}

// UnpinAssignment returns an assignment to proportional distribution.
// POST /api/assignments/{id}/unpin
func (h *Handler) UnpinAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.SetAssignmentPin(r.Context(), id, false, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to unpin assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unpinned"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. On failure it writes
// a 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

// checkPeriodDates rejects malformed or inverted date pairs.
func (h *Handler) checkPeriodDates(w http.ResponseWriter, startDate, endDate string) bool {
	span, err := engine.ParsePeriod(startDate, endDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return false
	}
	if span.Start.After(span.End) {
		writeError(w, http.StatusBadRequest, "start date must not be after end date", nil)
		return false
	}
	return true
}

// checkAssignmentRefs verifies the person, project, and period an
// assignment points at all exist, and that the project has a
// requirement in the period. Assignments to projects nobody asked to
// staff are a data-entry mistake, so they are rejected up front.
func (h *Handler) checkAssignmentRefs(w http.ResponseWriter, r *http.Request, req CreateAssignmentRequest) (*engine.PlanningPeriod, bool) {
	period, err := h.Store.GetPlanningPeriod(r.Context(), req.PlanningPeriodID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get planning period", err)
		return nil, false
	}
	if period == nil {
		writeError(w, http.StatusNotFound, "planning period not found", nil)
		return nil, false
	}
	person, err := h.Store.GetPerson(r.Context(), req.PersonID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get person", err)
		return nil, false
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "person not found", nil)
		return nil, false
	}
	project, err := h.Store.GetProject(r.Context(), req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project", err)
		return nil, false
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "project not found", nil)
		return nil, false
	}
	requirement, err := h.Store.GetRequirement(r.Context(), req.ProjectID, req.PlanningPeriodID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get requirement", err)
		return nil, false
	}
	if requirement == nil {
		writeError(w, http.StatusBadRequest, "project has no requirement in this planning period", nil)
		return nil, false
	}
	return period, true
}

// resolveAssignmentDates applies period-bound defaulting and validation
// to assignment dates.
func (h *Handler) resolveAssignmentDates(w http.ResponseWriter, startDate, endDate string, period engine.PlanningPeriod) (string, string, bool) {
	if startDate == "" {
		startDate = period.StartDate
	}
	if endDate == "" {
		endDate = period.EndDate
	}
	span, err := engine.ParsePeriod(startDate, endDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return "", "", false
	}
	bounds, err := engine.ParsePeriod(period.StartDate, period.EndDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "invalid period dates", err)
		return "", "", false
	}
	if span.Start.After(span.End) {
		writeError(w, http.StatusBadRequest, "start date must not be after end date", nil)
		return "", "", false
	}
	if span.Start.Before(bounds.Start) || span.End.After(bounds.End) {
		writeError(w, http.StatusBadRequest, "assignment dates must lie within the planning period", nil)
		return "", "", false
	}
	return startDate, endDate, true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id", err)
		return 0, false
	}
	return id, true
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

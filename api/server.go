/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/people/*          People, dependencies, capacity, availability
  /api/countries/*       Countries, holidays, available-country proxy
  /api/periods/*         Planning periods, requirements, optimize, overview
  /api/absences/*        Absences
  /api/jobs/*            Job templates and overhead tasks
  /api/projects/*        Projects, staffing
  /api/requirements/*    Requirement upserts
  /api/assignments/*     Assignments, pin/unpin
  /api/holidays/*        Holiday CRUD and import

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Entity CRUD handlers
  - capacity.go: Optimization and reporting handlers
  - holidays.go: Holiday handlers
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/people", func(r chi.Router) {
			r.Get("/", h.ListPeople)
			r.Post("/", h.CreatePerson)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPerson)
				r.Put("/", h.UpdatePerson)
				r.Delete("/", h.DeletePerson)
				r.Get("/dependencies", h.GetPersonDependencies)
				r.Get("/absences", h.ListPersonAbsences)
				r.Get("/holidays", h.ListPersonHolidays)
				r.Get("/capacity", h.GetPersonCapacity)
				r.Get("/availability", h.GetPersonAvailability)
			})
		})

		r.Route("/countries", func(r chi.Router) {
			r.Get("/", h.ListCountries)
			r.Post("/", h.CreateCountry)
			r.Get("/available", h.ListAvailableCountries)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", h.DeleteCountry)
				r.Get("/dependencies", h.GetCountryDependencies)
				r.Get("/holidays", h.ListCountryHolidays)
			})
		})

		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreatePeriod)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPeriod)
				r.Put("/", h.UpdatePeriod)
				r.Delete("/", h.DeletePeriod)
				r.Get("/dependencies", h.GetPeriodDependencies)
				r.Get("/requirements", h.ListPeriodRequirements)
				r.Post("/optimize", h.Optimize)
				r.Get("/overview", h.Overview)
				r.Get("/capacity", h.Overview)
			})
		})

		r.Route("/absences", func(r chi.Router) {
			r.Post("/", h.CreateAbsence)
			r.Delete("/{id}", h.DeleteAbsence)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Post("/", h.CreateJob)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetJob)
				r.Put("/", h.UpdateJob)
				r.Delete("/", h.DeleteJob)
				r.Get("/tasks", h.ListJobTasks)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", h.CreateOverheadTask)
			r.Put("/{id}", h.UpdateOverheadTask)
			r.Delete("/{id}", h.DeleteOverheadTask)
		})

		r.Route("/job-assignments", func(r chi.Router) {
			r.Get("/", h.ListPersonJobAssignmentsByPeriod)
			r.Post("/", h.CreatePersonJobAssignment)
			r.Delete("/{id}", h.DeletePersonJobAssignment)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProject)
				r.Put("/", h.UpdateProject)
				r.Delete("/", h.DeleteProject)
				r.Get("/dependencies", h.GetProjectDependencies)
				r.Get("/staffing", h.GetProjectStaffing)
			})
		})

		r.Route("/requirements", func(r chi.Router) {
			r.Put("/", h.UpsertRequirement)
			r.Post("/batch", h.BatchUpsertRequirements)
			r.Delete("/{id}", h.DeleteRequirement)
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", h.CreateAssignment)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetAssignment)
				r.Put("/", h.UpdateAssignment)
				r.Delete("/", h.DeleteAssignment)
				r.Post("/pin", h.PinAssignment)
				r.Post("/unpin", h.UnpinAssignment)
			})
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Post("/batch", h.BatchCreateHolidays)
			r.Put("/{id}", h.UpdateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
			r.Get("/import/preview", h.PreviewHolidayImport)
			r.Post("/import", h.ImportHolidays)
		})
	})

	return r
}

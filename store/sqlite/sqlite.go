/*
Package sqlite provides the SQLite-backed implementation of engine.Store.

PURPOSE:
  Implements every persistence interface the engine and the API consume
  (countries, people, periods, absences, holidays, jobs, projects,
  requirements, assignments) on a single SQLite database.

KEY TABLES:
  planning_periods:       The windows capacity is planned for
  people:                 Who gets allocated (weekly hours, schedule, country)
  countries / holidays:   Public-holiday calendars
  absences:               Per-person time away
  jobs / job_overhead_tasks / person_job_assignments:
                          Role templates and their recurring overhead
  projects / project_requirements:
                          Demand, with per-period required hours + priority
  assignments:            Person-project links plus the calculated cache

CACHE INVALIDATION:
  Deleting a person, project, or planning period first nulls the three
  calculated fields on every assignment referencing it, inside the same
  transaction as the delete. The FK cascade removes most of those rows
  anyway; the explicit invalidation covers assignments the cascade does
  not reach and snapshots captured mid-transaction.

OVERLAP QUERIES:
  All date-range reads use inclusive interval intersection:
  start_date <= ? AND end_date >= ?. Dates are TEXT in ISO-8601 form,
  which collates correctly for this comparison.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of WAL mode. Optimization
  runs against the same period must still be serialized by the caller.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

USAGE:
  store, err := sqlite.New("./data/capacity.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := engine.New(store, logger)

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/capacity-engine/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS countries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		iso_code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS people (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		available_hours_per_week REAL NOT NULL DEFAULT 40.0,
		working_days TEXT NOT NULL DEFAULT 'Mon,Tue,Wed,Thu,Fri',
		country_id INTEGER REFERENCES countries(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS planning_periods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS absences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		person_id INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days INTEGER NOT NULL,
		reason TEXT,
		FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		country_id INTEGER NOT NULL,
		name TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		FOREIGN KEY (country_id) REFERENCES countries(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS job_overhead_tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		effort_hours REAL NOT NULL,
		effort_period TEXT NOT NULL,
		is_optional INTEGER NOT NULL DEFAULT 0,
		optional_weight REAL NOT NULL DEFAULT 0.5,
		FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS person_job_assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		person_id INTEGER NOT NULL,
		job_id INTEGER NOT NULL,
		planning_period_id INTEGER NOT NULL,
		UNIQUE(person_id, job_id, planning_period_id),
		FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE,
		FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE,
		FOREIGN KEY (planning_period_id) REFERENCES planning_periods(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS project_requirements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		planning_period_id INTEGER NOT NULL,
		required_hours REAL NOT NULL,
		priority INTEGER NOT NULL DEFAULT 10,
		UNIQUE(project_id, planning_period_id),
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
		FOREIGN KEY (planning_period_id) REFERENCES planning_periods(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		person_id INTEGER NOT NULL,
		project_id INTEGER NOT NULL,
		planning_period_id INTEGER NOT NULL,
		productivity_factor REAL NOT NULL DEFAULT 1.0,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		is_pinned INTEGER NOT NULL DEFAULT 0,
		pinned_allocation_percentage REAL,
		calculated_allocation_percentage REAL,
		calculated_effective_hours REAL,
		last_calculated_at TEXT,
		FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
		FOREIGN KEY (planning_period_id) REFERENCES planning_periods(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_absences_person_dates ON absences(person_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_holidays_country_dates ON holidays(country_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_assignments_period ON assignments(planning_period_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_person_period ON assignments(person_id, planning_period_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_project_period ON assignments(project_id, planning_period_id);
	CREATE INDEX IF NOT EXISTS idx_requirements_period ON project_requirements(planning_period_id);
	CREATE INDEX IF NOT EXISTS idx_job_assignments_person_period ON person_job_assignments(person_id, planning_period_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// COUNTRIES
// =============================================================================

func (s *Store) CreateCountry(ctx context.Context, c *engine.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO countries (iso_code, name) VALUES (?, ?)`,
		c.ISOCode, c.Name)
	if err != nil {
		return fmt.Errorf("failed to insert country: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetCountry(ctx context.Context, id int64) (*engine.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c engine.Country
	err := s.db.QueryRowContext(ctx,
		`SELECT id, iso_code, name FROM countries WHERE id = ?`, id).
		Scan(&c.ID, &c.ISOCode, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get country: %w", err)
	}
	return &c, nil
}

func (s *Store) GetCountryByISOCode(ctx context.Context, code string) (*engine.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c engine.Country
	err := s.db.QueryRowContext(ctx,
		`SELECT id, iso_code, name FROM countries WHERE iso_code = ?`, code).
		Scan(&c.ID, &c.ISOCode, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get country by code: %w", err)
	}
	return &c, nil
}

func (s *Store) ListCountries(ctx context.Context) ([]engine.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, iso_code, name FROM countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	defer rows.Close()

	var out []engine.Country
	for rows.Next() {
		var c engine.Country
		if err := rows.Scan(&c.ID, &c.ISOCode, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCountry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Holidays cascade; people fall back to no country.
	_, err := s.db.ExecContext(ctx, `DELETE FROM countries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete country: %w", err)
	}
	return nil
}

func (s *Store) CountryDependencies(ctx context.Context, id int64) (engine.CountryDependencies, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var deps engine.CountryDependencies
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holidays WHERE country_id = ?`, id).Scan(&deps.HolidayCount); err != nil {
		return deps, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM people WHERE country_id = ?`, id).Scan(&deps.PeopleCount); err != nil {
		return deps, err
	}
	return deps, nil
}

// =============================================================================
// PEOPLE
// =============================================================================

func (s *Store) CreatePerson(ctx context.Context, p *engine.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO people (name, email, available_hours_per_week, working_days, country_id)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Email, p.AvailableHoursPerWeek, p.WorkingDays, p.CountryID)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetPerson(ctx context.Context, id int64) (*engine.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, available_hours_per_week, working_days, country_id
		 FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return &p, nil
}

func (s *Store) ListPeople(ctx context.Context) ([]engine.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, available_hours_per_week, working_days, country_id
		 FROM people ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var out []engine.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePerson(ctx context.Context, p engine.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE people SET name = ?, email = ?, available_hours_per_week = ?, working_days = ?, country_id = ?
		 WHERE id = ?`,
		p.Name, p.Email, p.AvailableHoursPerWeek, p.WorkingDays, p.CountryID, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	return nil
}

func (s *Store) DeletePerson(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE assignments
			 SET calculated_allocation_percentage = NULL,
			     calculated_effective_hours = NULL,
			     last_calculated_at = NULL
			 WHERE person_id = ?`, id); err != nil {
			return fmt.Errorf("failed to invalidate assignments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete person: %w", err)
		}
		return nil
	})
}

func (s *Store) PersonDependencies(ctx context.Context, id int64) (engine.PersonDependencies, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var deps engine.PersonDependencies
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE person_id = ?`, id).Scan(&deps.AssignmentCount); err != nil {
		return deps, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM absences WHERE person_id = ?`, id).Scan(&deps.AbsenceCount); err != nil {
		return deps, err
	}
	return deps, nil
}

// =============================================================================
// PLANNING PERIODS
// =============================================================================

func (s *Store) CreatePlanningPeriod(ctx context.Context, p *engine.PlanningPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO planning_periods (name, start_date, end_date) VALUES (?, ?, ?)`,
		p.Name, p.StartDate, p.EndDate)
	if err != nil {
		return fmt.Errorf("failed to insert planning period: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetPlanningPeriod(ctx context.Context, id int64) (*engine.PlanningPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p engine.PlanningPeriod
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date FROM planning_periods WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get planning period: %w", err)
	}
	return &p, nil
}

func (s *Store) ListPlanningPeriods(ctx context.Context) ([]engine.PlanningPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start_date, end_date FROM planning_periods ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list planning periods: %w", err)
	}
	defer rows.Close()

	var out []engine.PlanningPeriod
	for rows.Next() {
		var p engine.PlanningPeriod
		if err := rows.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePlanningPeriod(ctx context.Context, p engine.PlanningPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE planning_periods SET name = ?, start_date = ?, end_date = ? WHERE id = ?`,
		p.Name, p.StartDate, p.EndDate, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update planning period: %w", err)
	}
	return nil
}

func (s *Store) DeletePlanningPeriod(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE assignments
			 SET calculated_allocation_percentage = NULL,
			     calculated_effective_hours = NULL,
			     last_calculated_at = NULL
			 WHERE planning_period_id = ?`, id); err != nil {
			return fmt.Errorf("failed to invalidate assignments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM planning_periods WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete planning period: %w", err)
		}
		return nil
	})
}

func (s *Store) PeriodDependencies(ctx context.Context, id int64) (engine.PeriodDependencies, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var deps engine.PeriodDependencies
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_requirements WHERE planning_period_id = ?`, id).Scan(&deps.RequirementCount); err != nil {
		return deps, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE planning_period_id = ?`, id).Scan(&deps.AssignmentCount); err != nil {
		return deps, err
	}
	return deps, nil
}

// =============================================================================
// ABSENCES
// =============================================================================

func (s *Store) CreateAbsence(ctx context.Context, a *engine.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO absences (person_id, start_date, end_date, days, reason)
		 VALUES (?, ?, ?, ?, ?)`,
		a.PersonID, a.StartDate, a.EndDate, a.Days, a.Reason)
	if err != nil {
		return fmt.Errorf("failed to insert absence: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListAbsencesByPerson(ctx context.Context, personID int64) ([]engine.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAbsences(ctx,
		`SELECT id, person_id, start_date, end_date, days, reason
		 FROM absences WHERE person_id = ? ORDER BY start_date`, personID)
}

func (s *Store) AbsencesOverlapping(ctx context.Context, personID int64, period engine.Period) ([]engine.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAbsences(ctx,
		`SELECT id, person_id, start_date, end_date, days, reason
		 FROM absences
		 WHERE person_id = ? AND start_date <= ? AND end_date >= ?
		 ORDER BY id`,
		personID, period.End.String(), period.Start.String())
}

func (s *Store) DeleteAbsence(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM absences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete absence: %w", err)
	}
	return nil
}

func (s *Store) queryAbsences(ctx context.Context, query string, args ...any) ([]engine.Absence, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var out []engine.Absence
	for rows.Next() {
		var a engine.Absence
		if err := rows.Scan(&a.ID, &a.PersonID, &a.StartDate, &a.EndDate, &a.Days, &a.Reason); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) CreateHoliday(ctx context.Context, h *engine.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO holidays (country_id, name, start_date, end_date) VALUES (?, ?, ?, ?)`,
		h.CountryID, h.Name, h.StartDate, h.EndDate)
	if err != nil {
		return fmt.Errorf("failed to insert holiday: %w", err)
	}
	h.ID, err = res.LastInsertId()
	return err
}

func (s *Store) CreateHolidaysBatch(ctx context.Context, hs []engine.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO holidays (country_id, name, start_date, end_date) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range hs {
			res, err := stmt.ExecContext(ctx, hs[i].CountryID, hs[i].Name, hs[i].StartDate, hs[i].EndDate)
			if err != nil {
				return fmt.Errorf("failed to insert holiday %q: %w", hs[i].StartDate, err)
			}
			hs[i].ID, err = res.LastInsertId()
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ListHolidays(ctx context.Context, countryID *int64) ([]engine.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if countryID != nil {
		return s.queryHolidays(ctx,
			`SELECT id, country_id, name, start_date, end_date
			 FROM holidays WHERE country_id = ? ORDER BY start_date`, *countryID)
	}
	return s.queryHolidays(ctx,
		`SELECT id, country_id, name, start_date, end_date FROM holidays ORDER BY start_date`)
}

func (s *Store) HolidaysOverlapping(ctx context.Context, countryID int64, period engine.Period) ([]engine.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryHolidays(ctx,
		`SELECT id, country_id, name, start_date, end_date
		 FROM holidays
		 WHERE country_id = ? AND start_date <= ? AND end_date >= ?
		 ORDER BY id`,
		countryID, period.End.String(), period.Start.String())
}

func (s *Store) HolidayOverlapExists(ctx context.Context, countryID int64, period engine.Period, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holidays
		 WHERE country_id = ? AND id != ? AND start_date <= ? AND end_date >= ?`,
		countryID, excludeID, period.End.String(), period.Start.String()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday overlap: %w", err)
	}
	return count > 0, nil
}

func (s *Store) UpdateHoliday(ctx context.Context, h engine.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE holidays SET country_id = ?, name = ?, start_date = ?, end_date = ? WHERE id = ?`,
		h.CountryID, h.Name, h.StartDate, h.EndDate, h.ID)
	if err != nil {
		return fmt.Errorf("failed to update holiday: %w", err)
	}
	return nil
}

func (s *Store) DeleteHoliday(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}

func (s *Store) queryHolidays(ctx context.Context, query string, args ...any) ([]engine.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var out []engine.Holiday
	for rows.Next() {
		var h engine.Holiday
		if err := rows.Scan(&h.ID, &h.CountryID, &h.Name, &h.StartDate, &h.EndDate); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// JOBS
// =============================================================================

func (s *Store) CreateJob(ctx context.Context, j *engine.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (name, description) VALUES (?, ?)`, j.Name, j.Description)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	j.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetJob(ctx context.Context, id int64) (*engine.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var j engine.Job
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM jobs WHERE id = ?`, id).
		Scan(&j.ID, &j.Name, &j.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &j, nil
}

func (s *Store) ListJobs(ctx context.Context) ([]engine.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM jobs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var out []engine.Job
	for rows.Next() {
		var j engine.Job
		if err := rows.Scan(&j.ID, &j.Name, &j.Description); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) UpdateJob(ctx context.Context, j engine.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET name = ?, description = ? WHERE id = ?`, j.Name, j.Description, j.ID)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func (s *Store) CreateOverheadTask(ctx context.Context, t *engine.OverheadTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO job_overhead_tasks (job_id, name, description, effort_hours, effort_period, is_optional, optional_weight)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.JobID, t.Name, t.Description, t.EffortHours, t.EffortPeriod, t.IsOptional, t.OptionalWeight)
	if err != nil {
		return fmt.Errorf("failed to insert overhead task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListOverheadTasksByJob(ctx context.Context, jobID int64) ([]engine.OverheadTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, name, description, effort_hours, effort_period, is_optional, optional_weight
		 FROM job_overhead_tasks WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overhead tasks: %w", err)
	}
	defer rows.Close()

	var out []engine.OverheadTask
	for rows.Next() {
		var t engine.OverheadTask
		if err := rows.Scan(&t.ID, &t.JobID, &t.Name, &t.Description, &t.EffortHours, &t.EffortPeriod, &t.IsOptional, &t.OptionalWeight); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateOverheadTask(ctx context.Context, t engine.OverheadTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE job_overhead_tasks
		 SET name = ?, description = ?, effort_hours = ?, effort_period = ?, is_optional = ?, optional_weight = ?
		 WHERE id = ?`,
		t.Name, t.Description, t.EffortHours, t.EffortPeriod, t.IsOptional, t.OptionalWeight, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update overhead task: %w", err)
	}
	return nil
}

func (s *Store) DeleteOverheadTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM job_overhead_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete overhead task: %w", err)
	}
	return nil
}

func (s *Store) CreatePersonJobAssignment(ctx context.Context, a *engine.PersonJobAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO person_job_assignments (person_id, job_id, planning_period_id) VALUES (?, ?, ?)`,
		a.PersonID, a.JobID, a.PlanningPeriodID)
	if err != nil {
		return fmt.Errorf("failed to insert person job assignment: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListPersonJobAssignments(ctx context.Context, personID, periodID int64) ([]engine.PersonJobAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryJobAssignments(ctx,
		`SELECT id, person_id, job_id, planning_period_id
		 FROM person_job_assignments
		 WHERE person_id = ? AND planning_period_id = ? ORDER BY id`, personID, periodID)
}

func (s *Store) ListJobAssignmentsByPeriod(ctx context.Context, periodID int64) ([]engine.PersonJobAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryJobAssignments(ctx,
		`SELECT id, person_id, job_id, planning_period_id
		 FROM person_job_assignments
		 WHERE planning_period_id = ? ORDER BY id`, periodID)
}

func (s *Store) DeletePersonJobAssignment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM person_job_assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete person job assignment: %w", err)
	}
	return nil
}

func (s *Store) queryJobAssignments(ctx context.Context, query string, args ...any) ([]engine.PersonJobAssignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query job assignments: %w", err)
	}
	defer rows.Close()

	var out []engine.PersonJobAssignment
	for rows.Next() {
		var a engine.PersonJobAssignment
		if err := rows.Scan(&a.ID, &a.PersonID, &a.JobID, &a.PlanningPeriodID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// PROJECTS
// =============================================================================

func (s *Store) CreateProject(ctx context.Context, p *engine.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, description) VALUES (?, ?)`, p.Name, p.Description)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetProject(ctx context.Context, id int64) (*engine.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p engine.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]engine.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []engine.Project
	for rows.Next() {
		var p engine.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, p engine.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ? WHERE id = ?`, p.Name, p.Description, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE assignments
			 SET calculated_allocation_percentage = NULL,
			     calculated_effective_hours = NULL,
			     last_calculated_at = NULL
			 WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("failed to invalidate assignments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
}

func (s *Store) ProjectDependencies(ctx context.Context, id int64) (engine.ProjectDependencies, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var deps engine.ProjectDependencies
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_requirements WHERE project_id = ?`, id).Scan(&deps.RequirementCount); err != nil {
		return deps, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE project_id = ?`, id).Scan(&deps.AssignmentCount); err != nil {
		return deps, err
	}
	return deps, nil
}

// =============================================================================
// PROJECT REQUIREMENTS
// =============================================================================

const upsertRequirementSQL = `
	INSERT INTO project_requirements (project_id, planning_period_id, required_hours, priority)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(project_id, planning_period_id)
	DO UPDATE SET required_hours = excluded.required_hours, priority = excluded.priority`

func (s *Store) UpsertRequirement(ctx context.Context, r *engine.ProjectRequirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, upsertRequirementSQL,
		r.ProjectID, r.PlanningPeriodID, r.RequiredHours, r.Priority); err != nil {
		return fmt.Errorf("failed to upsert requirement: %w", err)
	}
	return s.db.QueryRowContext(ctx,
		`SELECT id FROM project_requirements WHERE project_id = ? AND planning_period_id = ?`,
		r.ProjectID, r.PlanningPeriodID).Scan(&r.ID)
}

func (s *Store) BatchUpsertRequirements(ctx context.Context, rs []engine.ProjectRequirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertRequirementSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range rs {
			if _, err := stmt.ExecContext(ctx,
				rs[i].ProjectID, rs[i].PlanningPeriodID, rs[i].RequiredHours, rs[i].Priority); err != nil {
				return fmt.Errorf("failed to upsert requirement for project %d: %w", rs[i].ProjectID, err)
			}
		}
		return nil
	})
}

func (s *Store) GetRequirement(ctx context.Context, projectID, periodID int64) (*engine.ProjectRequirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r engine.ProjectRequirement
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, planning_period_id, required_hours, priority
		 FROM project_requirements WHERE project_id = ? AND planning_period_id = ?`,
		projectID, periodID).
		Scan(&r.ID, &r.ProjectID, &r.PlanningPeriodID, &r.RequiredHours, &r.Priority)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement: %w", err)
	}
	return &r, nil
}

func (s *Store) ListRequirementsByPeriod(ctx context.Context, periodID int64) ([]engine.ProjectRequirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, planning_period_id, required_hours, priority
		 FROM project_requirements WHERE planning_period_id = ? ORDER BY id`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements: %w", err)
	}
	defer rows.Close()

	var out []engine.ProjectRequirement
	for rows.Next() {
		var r engine.ProjectRequirement
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.PlanningPeriodID, &r.RequiredHours, &r.Priority); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteRequirement(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM project_requirements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete requirement: %w", err)
	}
	return nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

const assignmentColumns = `id, person_id, project_id, planning_period_id, productivity_factor,
	start_date, end_date, is_pinned, pinned_allocation_percentage,
	calculated_allocation_percentage, calculated_effective_hours, last_calculated_at`

func (s *Store) CreateAssignment(ctx context.Context, a *engine.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (person_id, project_id, planning_period_id, productivity_factor,
		                          start_date, end_date, is_pinned, pinned_allocation_percentage)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.PersonID, a.ProjectID, a.PlanningPeriodID, a.ProductivityFactor,
		a.StartDate, a.EndDate, a.IsPinned, a.PinnedAllocationPercentage)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (*engine.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &a, nil
}

func (s *Store) ListAssignmentsByPeriod(ctx context.Context, periodID int64) ([]engine.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE planning_period_id = ? ORDER BY id`, periodID)
}

func (s *Store) ListAssignmentsByPersonAndPeriod(ctx context.Context, personID, periodID int64) ([]engine.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE person_id = ? AND planning_period_id = ? ORDER BY id`, personID, periodID)
}

func (s *Store) ListAssignmentsByProjectAndPeriod(ctx context.Context, projectID, periodID int64) ([]engine.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE project_id = ? AND planning_period_id = ? ORDER BY id`, projectID, periodID)
}

func (s *Store) UpdateAssignment(ctx context.Context, a engine.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE assignments
		 SET person_id = ?, project_id = ?, planning_period_id = ?, productivity_factor = ?,
		     start_date = ?, end_date = ?, is_pinned = ?, pinned_allocation_percentage = ?
		 WHERE id = ?`,
		a.PersonID, a.ProjectID, a.PlanningPeriodID, a.ProductivityFactor,
		a.StartDate, a.EndDate, a.IsPinned, a.PinnedAllocationPercentage, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

func (s *Store) SetAssignmentPin(ctx context.Context, id int64, pinned bool, pct *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !pinned {
		pct = nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET is_pinned = ?, pinned_allocation_percentage = ? WHERE id = ?`,
		pinned, pct, id)
	if err != nil {
		return fmt.Errorf("failed to set assignment pin: %w", err)
	}
	return nil
}

func (s *Store) SaveCalculation(ctx context.Context, assignmentID int64, allocationPct, effectiveHours float64, calculatedAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE assignments
		 SET calculated_allocation_percentage = ?,
		     calculated_effective_hours = ?,
		     last_calculated_at = ?
		 WHERE id = ?`,
		allocationPct, effectiveHours, calculatedAt, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to save calculation: %w", err)
	}
	return nil
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]engine.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []engine.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (engine.Person, error) {
	var p engine.Person
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.AvailableHoursPerWeek, &p.WorkingDays, &p.CountryID)
	return p, err
}

func scanAssignment(row rowScanner) (engine.Assignment, error) {
	var a engine.Assignment
	err := row.Scan(&a.ID, &a.PersonID, &a.ProjectID, &a.PlanningPeriodID, &a.ProductivityFactor,
		&a.StartDate, &a.EndDate, &a.IsPinned, &a.PinnedAllocationPercentage,
		&a.CalculatedAllocationPercentage, &a.CalculatedEffectiveHours, &a.LastCalculatedAt)
	return a, err
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

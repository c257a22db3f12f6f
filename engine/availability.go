/*
availability.go - Per-person available hours for a planning period

PURPOSE:
  Computes how many hours a person can actually work during a planning
  period, starting from their weekly contract and deducting absences,
  public holidays, and job overhead.

KEY CONCEPTS:
  - Base hours: total_weeks * working_days_count * hours_per_day, where
    total_weeks = inclusive_days / 7.0. Fractional weeks are kept as-is;
    a 10-day period is 1.428... weeks, not 2.
  - Absence hours: the stored day count of each overlapping absence,
    taken at face value, times hours_per_day. The span is only used for
    overlap matching.
  - Holiday hours: walked day by day over the holiday/period overlap.
    A day counts only if it falls on one of the person's working days
    and is not already covered by an absence (no double deduction).
  - Overhead hours: each overhead task of each job held during the
    period scales by total_weeks (weekly effort) or working days (daily
    effort). Optional tasks are deducted at their per-task weight;
    the raw sum is kept for display.

EDGE CASES:
  - No working days configured: hours_per_day is 0 and everything
    derived from it collapses to 0.
  - No country: no holiday deduction at all.
  - Deductions exceeding base: available hours floor at 0.

SEE ALSO:
  - optimizer.go: Consumes AvailableHours per person
  - workdays.go: Schedule parsing
*/
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultOptionalWeight is the deduction weight applied to optional
// overhead tasks when none is configured (50%).
const DefaultOptionalWeight = 0.5

// =============================================================================
// BREAKDOWN - Where a person's hours went
// =============================================================================

// Breakdown itemizes one person's hours over a planning period. All hour
// figures are derived from the person's hours_per_day; the day counts are
// what the hours were derived from.
type Breakdown struct {
	AvailableHours float64 `json:"available_hours"`
	BaseHours      float64 `json:"base_hours"`
	AbsenceDays    int64   `json:"absence_days"`
	AbsenceHours   float64 `json:"absence_hours"`
	HolidayDays    int64   `json:"holiday_days"`
	HolidayHours   float64 `json:"holiday_hours"`

	// OverheadHours covers required tasks only. OptionalOverheadHours is
	// the raw optional sum; the weighted portion is already deducted from
	// AvailableHours.
	OverheadHours         float64 `json:"overhead_hours"`
	OptionalOverheadHours float64 `json:"optional_overhead_hours"`
}

// =============================================================================
// CORE FORMULA - Pure, for direct testing
// =============================================================================

// CalculateAvailableHours applies the capacity formula to pre-computed
// deductions. Optional overhead is weighted by optionalWeight; the result
// floors at zero.
func CalculateAvailableHours(baseHours, absenceHours, holidayHours, requiredOverheadHours, optionalOverheadHours, optionalWeight float64) float64 {
	weightedOptional := optionalOverheadHours * optionalWeight
	available := baseHours - absenceHours - holidayHours - requiredOverheadHours - weightedOptional
	if available < 0 {
		return 0
	}
	return available
}

// EffectiveHours converts an allocation percentage into delivered hours,
// scaled by the person's productivity factor.
func EffectiveHours(availableHours, allocationPercentage, productivityFactor float64) float64 {
	return availableHours * (allocationPercentage / 100.0) * productivityFactor
}

// =============================================================================
// AVAILABILITY - Full per-person computation
// =============================================================================

// AvailableHours computes the person's availability breakdown for the
// planning period. Any malformed stored date aborts the computation with a
// DateParseError.
func (e *Engine) AvailableHours(ctx context.Context, person Person, period PlanningPeriod) (Breakdown, error) {
	window, err := ParsePeriod(period.StartDate, period.EndDate)
	if err != nil {
		return Breakdown{}, err
	}

	totalWeeks := float64(window.TotalDays()) / 7.0
	workingDaysCount := float64(CountWorkingDays(person.WorkingDays))
	workingDaysSet := ParseWorkingDays(person.WorkingDays)
	workingDays := totalWeeks * workingDaysCount

	hoursPerDay := 0.0
	if workingDaysCount > 0 {
		hoursPerDay = person.AvailableHoursPerWeek / workingDaysCount
	}
	baseHours := workingDays * hoursPerDay

	// Absences: stored day counts are authoritative.
	absences, err := e.Store.AbsencesOverlapping(ctx, person.ID, window)
	if err != nil {
		return Breakdown{}, fmt.Errorf("fetching absences: %w", err)
	}
	var absenceDays int64
	absencePeriods := make([]Period, 0, len(absences))
	for _, a := range absences {
		absenceDays += a.Days
		span, err := ParsePeriod(a.StartDate, a.EndDate)
		if err != nil {
			return Breakdown{}, err
		}
		absencePeriods = append(absencePeriods, span)
	}
	absenceHours := float64(absenceDays) * hoursPerDay

	// Holidays: only for people with a country, only on working days,
	// never on days an absence already claimed.
	var holidayDays int64
	if person.CountryID != nil {
		holidays, err := e.Store.HolidaysOverlapping(ctx, *person.CountryID, window)
		if err != nil {
			return Breakdown{}, fmt.Errorf("fetching holidays: %w", err)
		}
		for _, h := range holidays {
			span, err := ParsePeriod(h.StartDate, h.EndDate)
			if err != nil {
				return Breakdown{}, err
			}
			overlap, ok := span.Intersect(window)
			if !ok {
				continue
			}
			for d := overlap.Start; d.BeforeOrEqual(overlap.End); d = d.AddDays(1) {
				if !IsWorkingDay(d, workingDaysSet) {
					continue
				}
				absent := false
				for _, ap := range absencePeriods {
					if ap.Contains(d) {
						absent = true
						break
					}
				}
				if !absent {
					holidayDays++
				}
			}
		}
	}
	holidayHours := float64(holidayDays) * hoursPerDay

	// Job overhead: every task of every job held during the period.
	jobAssignments, err := e.Store.ListPersonJobAssignments(ctx, person.ID, period.ID)
	if err != nil {
		return Breakdown{}, fmt.Errorf("fetching job assignments: %w", err)
	}
	var overheadHours, optionalOverheadHours, weightedOptionalOverhead float64
	for _, ja := range jobAssignments {
		tasks, err := e.Store.ListOverheadTasksByJob(ctx, ja.JobID)
		if err != nil {
			return Breakdown{}, fmt.Errorf("fetching overhead tasks: %w", err)
		}
		for _, task := range tasks {
			var taskHours float64
			switch task.EffortPeriod {
			case EffortWeekly:
				taskHours = task.EffortHours * totalWeeks
			case EffortDaily:
				taskHours = task.EffortHours * workingDays
			}
			if task.IsOptional {
				optionalOverheadHours += taskHours
				weightedOptionalOverhead += taskHours * task.OptionalWeight
			} else {
				overheadHours += taskHours
			}
		}
	}

	available := baseHours - absenceHours - holidayHours - overheadHours - weightedOptionalOverhead
	if available < 0 {
		available = 0
	}

	e.Log.Debug("available hours computed",
		zap.String("person", person.Name),
		zap.Float64("available", available),
		zap.Float64("base", baseHours),
		zap.Int64("absence_days", absenceDays),
		zap.Int64("holiday_days", holidayDays),
		zap.Float64("overhead", overheadHours),
		zap.Float64("optional_overhead", optionalOverheadHours),
		zap.Float64("hours_per_day", hoursPerDay),
	)

	return Breakdown{
		AvailableHours:        available,
		BaseHours:             baseHours,
		AbsenceDays:           absenceDays,
		AbsenceHours:          absenceHours,
		HolidayDays:           holidayDays,
		HolidayHours:          holidayHours,
		OverheadHours:         overheadHours,
		OptionalOverheadHours: optionalOverheadHours,
	}, nil
}

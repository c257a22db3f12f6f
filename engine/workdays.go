package engine

import (
	"strings"
	"time"
)

// =============================================================================
// WORKING-DAY UTILITY - Per-person weekday schedules
// =============================================================================

// A person's schedule is stored as comma-separated three-letter day codes,
// e.g. "Mon,Tue,Wed,Thu,Fri". Unknown tokens are dropped by the set parser.

var weekdayCodes = map[string]time.Weekday{
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
	"Sun": time.Sunday,
}

// ParseWorkingDays parses a schedule into a weekday membership set.
// Unrecognized tokens are silently dropped; empty input yields an empty set.
func ParseWorkingDays(spec string) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool)
	for _, token := range strings.Split(spec, ",") {
		if wd, ok := weekdayCodes[strings.TrimSpace(token)]; ok {
			set[wd] = true
		}
	}
	return set
}

// CountWorkingDays counts the non-empty tokens of a schedule. Unlike
// ParseWorkingDays it does not filter out unrecognized tokens; this
// matches the reference behavior the availability formula was built on.
func CountWorkingDays(spec string) int {
	count := 0
	for _, token := range strings.Split(spec, ",") {
		if strings.TrimSpace(token) != "" {
			count++
		}
	}
	return count
}

// IsWorkingDay reports whether the date falls on one of the person's
// working days. An empty set means no day is a working day.
func IsWorkingDay(d Date, workingDays map[time.Weekday]bool) bool {
	return workingDays[d.Weekday()]
}

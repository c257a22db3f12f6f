package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWorkingDays_DropsUnknownTokens(t *testing.T) {
	set := ParseWorkingDays("Mon, Tue,Xyz,Fri")

	assert.True(t, set[time.Monday])
	assert.True(t, set[time.Tuesday])
	assert.True(t, set[time.Friday])
	assert.Len(t, set, 3)
}

func TestParseWorkingDays_Empty(t *testing.T) {
	assert.Empty(t, ParseWorkingDays(""))
}

func TestCountWorkingDays_CountsTokensUnfiltered(t *testing.T) {
	// GIVEN: A schedule with an unrecognized token
	// WHEN: Counting for the hours-per-day divisor
	// THEN: The unknown token still counts; only the membership set
	//       filters it out

	assert.Equal(t, 5, CountWorkingDays("Mon,Tue,Wed,Thu,Fri"))
	assert.Equal(t, 3, CountWorkingDays("Mon,Xyz,Fri"))
	assert.Equal(t, 0, CountWorkingDays(""))
	assert.Equal(t, 2, CountWorkingDays(" Mon , Tue "))
}

func TestIsWorkingDay(t *testing.T) {
	set := ParseWorkingDays("Mon,Tue,Wed,Thu,Fri")

	// 2026-01-05 is a Monday, 2026-01-10 a Saturday.
	assert.True(t, IsWorkingDay(NewDate(2026, time.January, 5), set))
	assert.False(t, IsWorkingDay(NewDate(2026, time.January, 10), set))
	assert.False(t, IsWorkingDay(NewDate(2026, time.January, 5), map[time.Weekday]bool{}))
}

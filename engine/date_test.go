package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DATE PARSING
// =============================================================================

func TestParseDate_Valid(t *testing.T) {
	d, err := ParseDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", d.String())
	assert.Equal(t, time.Sunday, d.Weekday())
}

func TestParseDate_Malformed(t *testing.T) {
	// GIVEN: A date in the wrong layout
	// WHEN: Parsing
	// THEN: A DateParseError carrying the input comes back

	_, err := ParseDate("15/03/2026")
	require.Error(t, err)
	assert.True(t, IsInvalidDate(err))

	var perr *DateParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "15/03/2026", perr.Input)
}

// =============================================================================
// PERIOD ARITHMETIC
// =============================================================================

func TestPeriod_TotalDays_Inclusive(t *testing.T) {
	// GIVEN: A period from the 1st through the 14th
	// WHEN: Counting days
	// THEN: Both bounds count, so 14 days, not 13

	p, err := ParsePeriod("2026-01-01", "2026-01-14")
	require.NoError(t, err)
	assert.Equal(t, 14, p.TotalDays())

	single, err := ParsePeriod("2026-01-01", "2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, 1, single.TotalDays())
}

func TestPeriod_Overlaps_InclusiveBounds(t *testing.T) {
	// GIVEN: Two periods sharing exactly one boundary day
	// WHEN: Checking overlap
	// THEN: They overlap (inclusive intersection on both ends)

	a, _ := ParsePeriod("2026-01-01", "2026-01-10")
	b, _ := ParsePeriod("2026-01-10", "2026-01-20")
	c, _ := ParsePeriod("2026-01-11", "2026-01-20")

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
	assert.False(t, a.Overlaps(c))
}

func TestPeriod_Intersect(t *testing.T) {
	a, _ := ParsePeriod("2026-01-01", "2026-01-10")
	b, _ := ParsePeriod("2026-01-05", "2026-01-20")

	got, ok := a.Intersect(b)
	require.True(t, ok)
	assert.Equal(t, "2026-01-05", got.Start.String())
	assert.Equal(t, "2026-01-10", got.End.String())

	c, _ := ParsePeriod("2026-02-01", "2026-02-10")
	_, ok = a.Intersect(c)
	assert.False(t, ok)
}

func TestPeriod_Contains(t *testing.T) {
	p, _ := ParsePeriod("2026-01-05", "2026-01-10")

	assert.True(t, p.Contains(NewDate(2026, time.January, 5)))
	assert.True(t, p.Contains(NewDate(2026, time.January, 10)))
	assert.False(t, p.Contains(NewDate(2026, time.January, 4)))
	assert.False(t, p.Contains(NewDate(2026, time.January, 11)))
}

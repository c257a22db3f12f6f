package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/engine"
	"github.com/warp/capacity-engine/engine/store"
)

// =============================================================================
// FIXTURES
// =============================================================================

// oneWeekPeriod is 2026-01-05 through 2026-01-11: exactly 1.0 week.
func oneWeekPeriod(t *testing.T, mem *store.Memory) engine.PlanningPeriod {
	t.Helper()
	period := engine.PlanningPeriod{StartDate: "2026-01-05", EndDate: "2026-01-11"}
	require.NoError(t, mem.CreatePlanningPeriod(context.Background(), &period))
	return period
}

func personWithHours(t *testing.T, mem *store.Memory, name string, hoursPerWeek float64) engine.Person {
	t.Helper()
	p := engine.Person{
		Name:                  name,
		Email:                 name + "@example.com",
		AvailableHoursPerWeek: hoursPerWeek,
		WorkingDays:           "Mon,Tue,Wed,Thu,Fri",
	}
	require.NoError(t, mem.CreatePerson(context.Background(), &p))
	return p
}

func projectWithRequirement(t *testing.T, mem *store.Memory, name string, periodID int64, required float64, priority int64) engine.Project {
	t.Helper()
	ctx := context.Background()
	project := engine.Project{Name: name}
	require.NoError(t, mem.CreateProject(ctx, &project))
	req := engine.ProjectRequirement{
		ProjectID:        project.ID,
		PlanningPeriodID: periodID,
		RequiredHours:    required,
		Priority:         priority,
	}
	require.NoError(t, mem.UpsertRequirement(ctx, &req))
	return project
}

func assign(t *testing.T, mem *store.Memory, personID, projectID, periodID int64, productivity float64) engine.Assignment {
	t.Helper()
	a := engine.Assignment{
		PersonID:           personID,
		ProjectID:          projectID,
		PlanningPeriodID:   periodID,
		ProductivityFactor: productivity,
		StartDate:          "2026-01-05",
		EndDate:            "2026-01-11",
	}
	require.NoError(t, mem.CreateAssignment(context.Background(), &a))
	return a
}

func calcFor(result *engine.OptimizationResult, assignmentID int64) (engine.AssignmentCalculation, bool) {
	for _, c := range result.Calculations {
		if c.AssignmentID == assignmentID {
			return c, true
		}
	}
	return engine.AssignmentCalculation{}, false
}

// =============================================================================
// PROPORTIONAL DISTRIBUTION
// =============================================================================

func TestOptimize_ProportionalSplit(t *testing.T) {
	// GIVEN: Two people on one project. Alice can contribute at most 30
	//        effective hours (40 avail * 0.75), Bob at most 10 (20 * 0.5).
	// WHEN: The project needs 20 hours
	// THEN: The demand splits 75/25 by max contribution: alice delivers
	//       15, bob 5, both at 50% allocation

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	bob := personWithHours(t, mem, "bob", 20)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 20, engine.PriorityMedium)

	aAlice := assign(t, mem, alice.ID, project.ID, period.ID, 0.75)
	aBob := assign(t, mem, bob.ID, project.ID, period.ID, 0.5)

	result, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.InfeasibleProjects)

	ca, ok := calcFor(result, aAlice.ID)
	require.True(t, ok)
	assert.InDelta(t, 50.0, ca.AllocationPercentage, 1e-9)
	assert.InDelta(t, 15.0, ca.EffectiveHours, 1e-9)

	cb, ok := calcFor(result, aBob.ID)
	require.True(t, ok)
	assert.InDelta(t, 50.0, cb.AllocationPercentage, 1e-9)
	assert.InDelta(t, 5.0, cb.EffectiveHours, 1e-9)
}

func TestOptimize_PersistsCalculations(t *testing.T) {
	ctx := context.Background()
	eng, mem := newTestEngine(t)
	fixed := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return fixed }

	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 20, engine.PriorityMedium)
	a := assign(t, mem, alice.ID, project.ID, period.ID, 1.0)

	_, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)

	stored, err := mem.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CalculatedAllocationPercentage)
	assert.InDelta(t, 50.0, *stored.CalculatedAllocationPercentage, 1e-9)
	require.NotNil(t, stored.CalculatedEffectiveHours)
	assert.InDelta(t, 20.0, *stored.CalculatedEffectiveHours, 1e-9)
	require.NotNil(t, stored.LastCalculatedAt)
	assert.Equal(t, "2026-01-15T12:00:00Z", *stored.LastCalculatedAt)
}

func TestOptimize_Idempotent(t *testing.T) {
	// GIVEN: An already-optimized period
	// WHEN: Running again
	// THEN: Results are identical; nothing carries over between runs

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	bob := personWithHours(t, mem, "bob", 20)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 20, engine.PriorityMedium)
	assign(t, mem, alice.ID, project.ID, period.ID, 0.75)
	assign(t, mem, bob.ID, project.ID, period.ID, 0.5)

	first, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)
	second, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Calculations, second.Calculations)
	assert.Equal(t, first.InfeasibleProjects, second.InfeasibleProjects)
}

// =============================================================================
// PRIORITY TIERS
// =============================================================================

func TestOptimize_HigherPriorityServedFirst(t *testing.T) {
	// GIVEN: One person wanted by a blocker project and a low project,
	//        each needing her full 40 hours
	// WHEN: Optimizing
	// THEN: The blocker gets 100%; the low project gets nothing and
	//       reports a full shortfall

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	blocker := projectWithRequirement(t, mem, "Launch", period.ID, 40, engine.PriorityBlocker)
	low := projectWithRequirement(t, mem, "Cleanup", period.ID, 40, engine.PriorityLow)

	aBlocker := assign(t, mem, alice.ID, blocker.ID, period.ID, 1.0)
	aLow := assign(t, mem, alice.ID, low.ID, period.ID, 1.0)

	result, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)

	cb, _ := calcFor(result, aBlocker.ID)
	assert.InDelta(t, 100.0, cb.AllocationPercentage, 1e-9)
	assert.InDelta(t, 40.0, cb.EffectiveHours, 1e-9)

	cl, _ := calcFor(result, aLow.ID)
	assert.Zero(t, cl.AllocationPercentage)
	assert.Zero(t, cl.EffectiveHours)

	require.Len(t, result.InfeasibleProjects, 1)
	sf := result.InfeasibleProjects[0]
	assert.Equal(t, low.ID, sf.ProjectID)
	assert.Equal(t, "Cleanup", sf.ProjectName)
	assert.InDelta(t, 40.0, sf.Shortfall, 1e-9)
	assert.InDelta(t, 100.0, sf.ShortfallPercentage, 1e-9)
}

func TestOptimize_TieBrokenByProjectID(t *testing.T) {
	// GIVEN: Two same-priority projects competing for one person
	// WHEN: Optimizing twice
	// THEN: The lower project id is served first both times

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	first := projectWithRequirement(t, mem, "First", period.ID, 40, engine.PriorityMedium)
	second := projectWithRequirement(t, mem, "Second", period.ID, 40, engine.PriorityMedium)

	aFirst := assign(t, mem, alice.ID, first.ID, period.ID, 1.0)
	aSecond := assign(t, mem, alice.ID, second.ID, period.ID, 1.0)

	for i := 0; i < 2; i++ {
		result, err := eng.Optimize(ctx, period.ID)
		require.NoError(t, err)

		cf, _ := calcFor(result, aFirst.ID)
		cs, _ := calcFor(result, aSecond.ID)
		assert.InDelta(t, 100.0, cf.AllocationPercentage, 1e-9)
		assert.Zero(t, cs.AllocationPercentage)
	}
}

// =============================================================================
// PINNING
// =============================================================================

func TestOptimize_PinnedAssignmentHonoredFirst(t *testing.T) {
	// GIVEN: Alice pinned at 50% on a project needing 30 hours, Bob free
	// WHEN: Optimizing
	// THEN: Alice's pin delivers 20 effective hours untouched; only the
	//       remaining 10 are distributed to Bob

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	bob := personWithHours(t, mem, "bob", 40)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 30, engine.PriorityMedium)

	aAlice := assign(t, mem, alice.ID, project.ID, period.ID, 1.0)
	pct := 50.0
	require.NoError(t, mem.SetAssignmentPin(ctx, aAlice.ID, true, &pct))
	aBob := assign(t, mem, bob.ID, project.ID, period.ID, 1.0)

	result, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)
	assert.Empty(t, result.InfeasibleProjects)

	ca, _ := calcFor(result, aAlice.ID)
	assert.InDelta(t, 50.0, ca.AllocationPercentage, 1e-9)
	assert.InDelta(t, 20.0, ca.EffectiveHours, 1e-9)

	cb, _ := calcFor(result, aBob.ID)
	assert.InDelta(t, 25.0, cb.AllocationPercentage, 1e-9)
	assert.InDelta(t, 10.0, cb.EffectiveHours, 1e-9)
}

func TestOptimize_PinnedOver100PercentWarns(t *testing.T) {
	// GIVEN: One person pinned at 60% on each of two projects
	// WHEN: Optimizing
	// THEN: A warning is raised; remaining capacity floors at zero but
	//       both pins still deliver their stated percentage

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	p1 := projectWithRequirement(t, mem, "One", period.ID, 24, engine.PriorityMedium)
	p2 := projectWithRequirement(t, mem, "Two", period.ID, 24, engine.PriorityMedium)

	a1 := assign(t, mem, alice.ID, p1.ID, period.ID, 1.0)
	a2 := assign(t, mem, alice.ID, p2.ID, period.ID, 1.0)
	pct := 60.0
	require.NoError(t, mem.SetAssignmentPin(ctx, a1.ID, true, &pct))
	require.NoError(t, mem.SetAssignmentPin(ctx, a2.ID, true, &pct))

	result, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "pinned allocations totaling 120.0%")

	c1, _ := calcFor(result, a1.ID)
	c2, _ := calcFor(result, a2.ID)
	assert.InDelta(t, 24.0, c1.EffectiveHours, 1e-9)
	assert.InDelta(t, 24.0, c2.EffectiveHours, 1e-9)
}

// =============================================================================
// EDGE CASES
// =============================================================================

func TestOptimize_NoAssignmentsSucceedsWithWarning(t *testing.T) {
	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)

	result, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"No assignments found for this planning period"}, result.Warnings)
	assert.Empty(t, result.Calculations)
}

func TestOptimize_PeriodNotFound(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Optimize(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestOptimize_AssignmentsWithoutRequirementWarns(t *testing.T) {
	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	project := engine.Project{Name: "Orphan"}
	require.NoError(t, mem.CreateProject(ctx, &project))
	a := assign(t, mem, alice.ID, project.ID, period.ID, 1.0)

	result, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "has assignments but no requirement defined")

	// The orphaned assignment gets no calculation record.
	_, ok := calcFor(result, a.ID)
	assert.False(t, ok)
}

func TestOptimize_ZeroProductivityGetsZeroPercent(t *testing.T) {
	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 20, engine.PriorityMedium)
	a := assign(t, mem, alice.ID, project.ID, period.ID, 0)

	result, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)

	c, ok := calcFor(result, a.ID)
	require.True(t, ok)
	assert.Zero(t, c.AllocationPercentage)
	assert.Zero(t, c.EffectiveHours)
	require.Len(t, result.InfeasibleProjects, 1)
}

func TestOptimize_DemandBeyondCapacityShortfalls(t *testing.T) {
	// GIVEN: 40 available hours against a 100-hour requirement
	// WHEN: Optimizing
	// THEN: The person maxes out at 100% and the project reports the
	//       60-hour gap

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 100, engine.PriorityHigh)
	a := assign(t, mem, alice.ID, project.ID, period.ID, 1.0)

	result, err := eng.Optimize(ctx, period.ID)
	require.NoError(t, err)

	c, _ := calcFor(result, a.ID)
	assert.InDelta(t, 100.0, c.AllocationPercentage, 1e-9)
	assert.InDelta(t, 40.0, c.EffectiveHours, 1e-9)

	require.Len(t, result.InfeasibleProjects, 1)
	sf := result.InfeasibleProjects[0]
	assert.InDelta(t, 60.0, sf.Shortfall, 1e-9)
	assert.InDelta(t, 60.0, sf.ShortfallPercentage, 1e-9)
	assert.InDelta(t, 40.0, sf.AvailableEffectiveHours, 1e-9)
}

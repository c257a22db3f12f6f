package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/engine"
)

const calcStamp = "2026-01-15T12:00:00Z"

// =============================================================================
// PERSON CAPACITY
// =============================================================================

func TestPersonCapacity_Utilization(t *testing.T) {
	// GIVEN: Alice has 40 available hours and a calculated 50% allocation
	// WHEN: Building her capacity rollup
	// THEN: 20 allocated hours, 50% utilization, not over-committed

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 100, engine.PriorityMedium)
	a := assign(t, mem, alice.ID, project.ID, period.ID, 1.0)
	require.NoError(t, mem.SaveCalculation(ctx, a.ID, 50, 20, calcStamp))

	pc, err := eng.PersonCapacity(ctx, alice.ID, period.ID)
	require.NoError(t, err)

	assert.Equal(t, "alice", pc.PersonName)
	assert.InDelta(t, 40.0, pc.TotalAvailableHours, 1e-9)
	assert.InDelta(t, 20.0, pc.TotalAllocatedHours, 1e-9)
	assert.InDelta(t, 20.0, pc.TotalEffectiveHours, 1e-9)
	assert.InDelta(t, 50.0, pc.UtilizationPercentage, 1e-9)
	assert.False(t, pc.IsOverCommitted)

	require.Len(t, pc.Assignments, 1)
	assert.Equal(t, "Atlas", pc.Assignments[0].ProjectName)
	assert.InDelta(t, 50.0, pc.Assignments[0].AllocationPercentage, 1e-9)
}

func TestPersonCapacity_OverCommitted(t *testing.T) {
	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 100, engine.PriorityMedium)
	a := assign(t, mem, alice.ID, project.ID, period.ID, 1.0)
	require.NoError(t, mem.SaveCalculation(ctx, a.ID, 120, 48, calcStamp))

	pc, err := eng.PersonCapacity(ctx, alice.ID, period.ID)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, pc.UtilizationPercentage, 1e-9)
	assert.True(t, pc.IsOverCommitted)
}

func TestPersonCapacity_ZeroAvailableIsZeroUtilization(t *testing.T) {
	// GIVEN: A person with no working days, hence no available hours
	// WHEN: Building the rollup
	// THEN: Utilization is 0, not a division by zero

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	nobody := engine.Person{Name: "nobody", Email: "n@example.com", AvailableHoursPerWeek: 40, WorkingDays: ""}
	require.NoError(t, mem.CreatePerson(ctx, &nobody))

	pc, err := eng.PersonCapacity(ctx, nobody.ID, period.ID)
	require.NoError(t, err)
	assert.Zero(t, pc.UtilizationPercentage)
	assert.False(t, pc.IsOverCommitted)
}

func TestPersonCapacity_PinnedDisplayPercentage(t *testing.T) {
	// GIVEN: A pinned assignment that has never been optimized
	// WHEN: Building the rollup
	// THEN: The pinned percentage drives allocated hours even though the
	//       calculated cache is empty

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 100, engine.PriorityMedium)
	a := assign(t, mem, alice.ID, project.ID, period.ID, 1.0)
	pct := 30.0
	require.NoError(t, mem.SetAssignmentPin(ctx, a.ID, true, &pct))

	pc, err := eng.PersonCapacity(ctx, alice.ID, period.ID)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, pc.TotalAllocatedHours, 1e-9)
	assert.Zero(t, pc.TotalEffectiveHours) // never optimized
	require.Len(t, pc.Assignments, 1)
	assert.InDelta(t, 30.0, pc.Assignments[0].AllocationPercentage, 1e-9)
}

func TestPersonCapacity_NotFound(t *testing.T) {
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)

	_, err := eng.PersonCapacity(context.Background(), 999, period.ID)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

// =============================================================================
// PROJECT STAFFING
// =============================================================================

func TestProjectStaffing_ViabilityThreshold(t *testing.T) {
	// GIVEN: A 100-hour requirement
	// WHEN: Effective hours land just above and just below 99.95
	// THEN: 99.96 is viable with zero shortfall; 99.94 is not

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	project := projectWithRequirement(t, mem, "Atlas", period.ID, 100, engine.PriorityMedium)
	a := assign(t, mem, alice.ID, project.ID, period.ID, 1.0)

	require.NoError(t, mem.SaveCalculation(ctx, a.ID, 100, 99.96, calcStamp))
	ps, err := eng.ProjectStaffing(ctx, project.ID, period.ID)
	require.NoError(t, err)
	assert.InDelta(t, 99.96, ps.StaffingPercentage, 1e-9)
	assert.True(t, ps.IsViable)
	assert.Zero(t, ps.Shortfall)

	require.NoError(t, mem.SaveCalculation(ctx, a.ID, 100, 99.94, calcStamp))
	ps, err = eng.ProjectStaffing(ctx, project.ID, period.ID)
	require.NoError(t, err)
	assert.False(t, ps.IsViable)
	assert.InDelta(t, 0.06, ps.Shortfall, 1e-9)
}

func TestProjectStaffing_ZeroRequirementNotViable(t *testing.T) {
	// GIVEN: A requirement of zero hours
	// WHEN: Building the rollup
	// THEN: Staffing percentage stays 0 and the project is not viable

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	project := projectWithRequirement(t, mem, "Empty", period.ID, 0, engine.PriorityMedium)
	a := assign(t, mem, alice.ID, project.ID, period.ID, 1.0)
	require.NoError(t, mem.SaveCalculation(ctx, a.ID, 10, 4, calcStamp))

	ps, err := eng.ProjectStaffing(ctx, project.ID, period.ID)
	require.NoError(t, err)
	assert.Zero(t, ps.StaffingPercentage)
	assert.False(t, ps.IsViable)
}

func TestProjectStaffing_RequirementMissing(t *testing.T) {
	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	project := engine.Project{Name: "Atlas"}
	require.NoError(t, mem.CreateProject(ctx, &project))

	_, err := eng.ProjectStaffing(ctx, project.ID, period.ID)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

// =============================================================================
// PERIOD OVERVIEW
// =============================================================================

func TestOverview_Rollups(t *testing.T) {
	// GIVEN: Two people, one over-committed; two projects, one with no
	//        requirement in the period
	// WHEN: Building the overview
	// THEN: Counts reflect the rollups, and the requirement-less project
	//       does not appear

	ctx := context.Background()
	eng, mem := newTestEngine(t)
	period := oneWeekPeriod(t, mem)
	alice := personWithHours(t, mem, "alice", 40)
	bob := personWithHours(t, mem, "bob", 40)
	atlas := projectWithRequirement(t, mem, "Atlas", period.ID, 100, engine.PriorityMedium)
	noReq := engine.Project{Name: "Backlog"}
	require.NoError(t, mem.CreateProject(ctx, &noReq))

	aAlice := assign(t, mem, alice.ID, atlas.ID, period.ID, 1.0)
	aBob := assign(t, mem, bob.ID, atlas.ID, period.ID, 1.0)
	require.NoError(t, mem.SaveCalculation(ctx, aAlice.ID, 120, 48, calcStamp))
	require.NoError(t, mem.SaveCalculation(ctx, aBob.ID, 50, 20, calcStamp))

	overview, err := eng.Overview(ctx, period.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, overview.TotalPeople)
	assert.Equal(t, 1, overview.TotalProjects)
	assert.Equal(t, 1, overview.OverCommittedPeople)
	assert.Equal(t, 1, overview.UnderStaffedProjects)
	require.Len(t, overview.PeopleCapacity, 2)
	require.Len(t, overview.ProjectStaffing, 1)

	staffing := overview.ProjectStaffing[0]
	assert.Equal(t, "Atlas", staffing.ProjectName)
	assert.InDelta(t, 68.0, staffing.TotalEffectiveHours, 1e-9)
	assert.InDelta(t, 68.0, staffing.StaffingPercentage, 1e-9)
	assert.Len(t, staffing.AssignedPeople, 2)
}

func TestOverview_PeriodNotFound(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Overview(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

/*
optimizer.go - Priority-tiered proportional allocation

PURPOSE:
  Distributes each project's required hours across the people assigned to
  it, honoring pinned commitments first, serving higher-priority projects
  before lower ones, and splitting capacity proportionally among
  competitors.

ALGORITHM (one optimization run):
  1. Load the period, its assignments, all people, and the period's
     project requirements. No assignments: succeed with a warning.
  2. Compute every person's available hours once (identical across all of
     that person's assignments in the run).
  3. Seed per-person remaining capacity at 100%, minus the sum of the
     person's pinned percentages in this period. A pinned sum over 100%
     is a warning, not an error; remaining floors at 0.
  4. Group assignments by project. A project with assignments but no
     requirement row is skipped with a warning.
  5. Order projects by priority descending, project id ascending within a
     tie. Projects sharing a priority compete for whatever capacity is
     left when each is processed, so the in-tie order must be stable for
     runs to be reproducible.
  6. Per project: pinned assignments contribute their pinned percentage
     as effective hours up front. The remainder of the requirement, capped
     by the non-pinned assignments' combined max contribution, is split
     proportionally by max_contribution_hours. Each share converts back
     to a percentage capped at the person's remaining capacity.
  7. A project whose total effective hours (pinned + distributed) falls
     short of its requirement becomes a ProjectShortfall entry.
  8. Persist every calculation onto its assignment row and return the
     aggregate result.

IDEMPOTENCE:
  Re-running fully overwrites the calculated fields; no state carries
  over between runs. Concurrent runs against the same period are not
  safe (last write wins per row) and must be serialized by the caller.

SEE ALSO:
  - availability.go: The per-person capacity input
  - overview.go: Read-side aggregation of the persisted results
*/
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// AssignmentCalculation is one computed allocation, persisted onto the
// assignment row.
type AssignmentCalculation struct {
	AssignmentID         int64   `json:"assignment_id"`
	AllocationPercentage float64 `json:"calculated_allocation_percentage"`
	EffectiveHours       float64 `json:"calculated_effective_hours"`
}

// ProjectShortfall reports a project whose requirement could not be fully
// staffed. It is data, not an error.
type ProjectShortfall struct {
	ProjectID               int64   `json:"project_id"`
	ProjectName             string  `json:"project_name"`
	RequiredHours           float64 `json:"required_hours"`
	AvailableEffectiveHours float64 `json:"available_effective_hours"`
	Shortfall               float64 `json:"shortfall"`
	ShortfallPercentage     float64 `json:"shortfall_percentage"`
}

// OptimizationResult aggregates one run. Warnings are data-integrity
// findings that did not stop the run.
type OptimizationResult struct {
	RunID              string                  `json:"run_id"`
	Success            bool                    `json:"success"`
	Calculations       []AssignmentCalculation `json:"calculations"`
	InfeasibleProjects []ProjectShortfall      `json:"infeasible_projects"`
	Warnings           []string                `json:"warnings"`
}

// personState tracks one person's uncommitted capacity through a run.
type personState struct {
	availableHours      float64
	remainingPercentage float64
}

// =============================================================================
// OPTIMIZE
// =============================================================================

// Optimize runs priority-tiered proportional allocation for one planning
// period and persists the calculated fields. Parse and reference errors
// abort the whole run; nothing is persisted from a run that errored
// before reaching the write phase.
func (e *Engine) Optimize(ctx context.Context, periodID int64) (*OptimizationResult, error) {
	runID := uuid.NewString()
	log := e.Log.With(zap.String("run_id", runID), zap.Int64("period_id", periodID))
	log.Info("starting optimization")

	period, err := e.Store.GetPlanningPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching planning period: %w", err)
	}
	if period == nil {
		return nil, &NotFoundError{ID: periodID, Err: ErrPeriodNotFound}
	}

	assignments, err := e.Store.ListAssignmentsByPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching assignments: %w", err)
	}

	result := &OptimizationResult{
		RunID:              runID,
		Success:            true,
		Calculations:       []AssignmentCalculation{},
		InfeasibleProjects: []ProjectShortfall{},
		Warnings:           []string{},
	}
	if len(assignments) == 0 {
		result.Warnings = append(result.Warnings, "No assignments found for this planning period")
		return result, nil
	}

	people, err := e.Store.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching people: %w", err)
	}

	// Availability is computed once per person, never per assignment: a
	// person's available hours must be identical across all of their
	// assignments within one run.
	states := make(map[int64]*personState, len(people))
	for _, p := range people {
		breakdown, err := e.AvailableHours(ctx, p, *period)
		if err != nil {
			return nil, err
		}
		states[p.ID] = &personState{
			availableHours:      breakdown.AvailableHours,
			remainingPercentage: 100.0,
		}
	}

	// Pinned percentages are commitments made before distribution starts:
	// subtract them from remaining capacity up front.
	pinnedByPerson := make(map[int64]float64)
	for _, a := range assignments {
		if a.IsPinned && a.PinnedAllocationPercentage != nil {
			pinnedByPerson[a.PersonID] += *a.PinnedAllocationPercentage
		}
	}
	for personID, pinnedSum := range pinnedByPerson {
		state, ok := states[personID]
		if !ok {
			continue
		}
		if pinnedSum > 100.0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Person ID %d has pinned allocations totaling %.1f%%, exceeding 100%%", personID, pinnedSum))
		}
		state.remainingPercentage -= pinnedSum
		if state.remainingPercentage < 0 {
			state.remainingPercentage = 0
		}
	}

	requirements, err := e.Store.ListRequirementsByPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("fetching project requirements: %w", err)
	}
	requirementByProject := make(map[int64]ProjectRequirement, len(requirements))
	for _, r := range requirements {
		requirementByProject[r.ProjectID] = r
	}

	assignmentsByProject := make(map[int64][]Assignment)
	for _, a := range assignments {
		assignmentsByProject[a.ProjectID] = append(assignmentsByProject[a.ProjectID], a)
	}

	// Priority descending, project id ascending within a tie. Projects in
	// the same tier compete for whatever capacity remains when each is
	// reached, so the in-tie order must be deterministic.
	type projectOrder struct {
		projectID int64
		priority  int64
	}
	ordered := make([]projectOrder, 0, len(assignmentsByProject))
	for projectID := range assignmentsByProject {
		req, ok := requirementByProject[projectID]
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Project ID %d has assignments but no requirement defined", projectID))
			continue
		}
		ordered = append(ordered, projectOrder{projectID: projectID, priority: req.Priority})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].priority != ordered[j].priority {
			return ordered[i].priority > ordered[j].priority
		}
		return ordered[i].projectID < ordered[j].projectID
	})

	for _, po := range ordered {
		projectID := po.projectID
		projectAssignments := assignmentsByProject[projectID]
		requirement := requirementByProject[projectID]

		log.Debug("processing project",
			zap.Int64("project_id", projectID),
			zap.Int64("priority", requirement.Priority),
			zap.Float64("required_hours", requirement.RequiredHours),
		)

		projectTotalEffective := 0.0

		// Pinned assignments contribute first, at their fixed percentage.
		var unpinned []Assignment
		for _, a := range projectAssignments {
			if a.IsPinned && a.PinnedAllocationPercentage != nil {
				state := states[a.PersonID]
				effective := EffectiveHours(state.availableHours, *a.PinnedAllocationPercentage, a.ProductivityFactor)
				projectTotalEffective += effective
				result.Calculations = append(result.Calculations, AssignmentCalculation{
					AssignmentID:         a.ID,
					AllocationPercentage: *a.PinnedAllocationPercentage,
					EffectiveHours:       effective,
				})
				continue
			}
			unpinned = append(unpinned, a)
		}

		// What each remaining assignment could contribute at most.
		type capacity struct {
			assignment           Assignment
			availableHours       float64
			remainingPercentage  float64
			maxContributionHours float64
		}
		capacities := make([]capacity, 0, len(unpinned))
		totalAvailableHours := 0.0
		for _, a := range unpinned {
			state := states[a.PersonID]
			maxHours := state.availableHours * (state.remainingPercentage / 100.0) * a.ProductivityFactor
			totalAvailableHours += maxHours
			capacities = append(capacities, capacity{
				assignment:           a,
				availableHours:       state.availableHours,
				remainingPercentage:  state.remainingPercentage,
				maxContributionHours: maxHours,
			})
		}

		hoursToDistribute := requirement.RequiredHours - projectTotalEffective
		if hoursToDistribute < 0 {
			hoursToDistribute = 0
		}
		if hoursToDistribute > totalAvailableHours {
			hoursToDistribute = totalAvailableHours
		}

		// Every unpinned assignment gets a calculation record, zero when
		// the pool has no capacity to hand out.
		for _, c := range capacities {
			allocatedHours := 0.0
			if totalAvailableHours > 0 {
				allocatedHours = c.maxContributionHours / totalAvailableHours * hoursToDistribute
			}

			// Convert hours back to a percentage of the person's
			// availability, capped at what they have left. Zero
			// productivity or zero availability resolves to 0%.
			allocationPct := 0.0
			if c.availableHours > 0 && c.assignment.ProductivityFactor > 0 {
				allocationPct = (allocatedHours / c.assignment.ProductivityFactor) / c.availableHours * 100.0
				if allocationPct > c.remainingPercentage {
					allocationPct = c.remainingPercentage
				}
			}

			effective := EffectiveHours(c.availableHours, allocationPct, c.assignment.ProductivityFactor)
			projectTotalEffective += effective

			state := states[c.assignment.PersonID]
			state.remainingPercentage -= allocationPct
			if state.remainingPercentage < 0 {
				state.remainingPercentage = 0
			}

			result.Calculations = append(result.Calculations, AssignmentCalculation{
				AssignmentID:         c.assignment.ID,
				AllocationPercentage: allocationPct,
				EffectiveHours:       effective,
			})

			log.Debug("allocated",
				zap.Int64("assignment_id", c.assignment.ID),
				zap.Float64("allocation_pct", allocationPct),
				zap.Float64("effective_hours", effective),
				zap.Float64("remaining_pct", state.remainingPercentage),
			)
		}

		if projectTotalEffective < requirement.RequiredHours {
			shortfall := requirement.RequiredHours - projectTotalEffective
			shortfallPct := shortfall / requirement.RequiredHours * 100.0

			projectName := fmt.Sprintf("Project %d", projectID)
			if project, err := e.Store.GetProject(ctx, projectID); err == nil && project != nil {
				projectName = project.Name
			}

			result.InfeasibleProjects = append(result.InfeasibleProjects, ProjectShortfall{
				ProjectID:               projectID,
				ProjectName:             projectName,
				RequiredHours:           requirement.RequiredHours,
				AvailableEffectiveHours: projectTotalEffective,
				Shortfall:               shortfall,
				ShortfallPercentage:     shortfallPct,
			})
			log.Warn("project under-staffed",
				zap.Int64("project_id", projectID),
				zap.Float64("shortfall", shortfall),
				zap.Float64("shortfall_pct", shortfallPct),
			)
		}
	}

	// Persist. A failure partway through leaves earlier writes in place;
	// the error tells the caller results are partial.
	now := e.Now().UTC().Format(time.RFC3339)
	for _, calc := range result.Calculations {
		if err := e.Store.SaveCalculation(ctx, calc.AssignmentID, calc.AllocationPercentage, calc.EffectiveHours, now); err != nil {
			return nil, fmt.Errorf("persisting calculation for assignment %d: %w", calc.AssignmentID, err)
		}
	}

	log.Info("optimization complete",
		zap.Int("calculations", len(result.Calculations)),
		zap.Int("infeasible_projects", len(result.InfeasibleProjects)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

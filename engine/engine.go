/*
Package engine provides the core capacity planning engine.

PURPOSE:
  This package contains the domain logic for allocating people's working
  time across competing projects within a planning period. It computes each
  person's true available hours after absences, public holidays, and job
  overhead, then distributes project demand across assignments by priority
  tier with proportional sharing inside a tier.

KEY CONCEPTS:
  - Breakdown: A person's available hours decomposed into base hours and
    the individual deductions (absences, holidays, required and optional
    overhead).
  - Optimization run: One priority-tiered allocation pass over a planning
    period. Writes calculated allocation percentage and effective hours
    back onto every assignment it touched.
  - Pinned assignment: A manually fixed allocation percentage that bypasses
    proportional distribution and is honored before anything else.
  - Shortfall: The gap between a project's required hours and the effective
    hours it actually received. Reported as data, never as an error.

DESIGN PRINCIPLES:
  1. The engine only reads entities and writes back the three calculated
     fields on Assignment. All other mutation happens in the command layer.
  2. All arithmetic is float64; nothing is rounded before presentation.
  3. Per-run state (remaining capacity per person) is scoped to a single
     Optimize call. No process-wide mutable state.
  4. Warnings (data integrity issues) and shortfalls accumulate on the
     result; only parse and reference errors abort a run.

USAGE:
  eng := engine.New(store, logger)
  breakdown, err := eng.AvailableHours(ctx, person, period)
  result, err := eng.Optimize(ctx, periodID)

SEE ALSO:
  - availability.go: Available-hours calculation
  - optimizer.go: Priority-tiered proportional allocation
  - overview.go: Read-only capacity rollups
  - store.go: Storage interfaces the engine consumes
*/
package engine

import (
	"time"

	"go.uber.org/zap"
)

// Engine wires the capacity calculations to a storage backend.
type Engine struct {
	Store Store
	Log   *zap.Logger

	// Now stamps persisted calculations. Overridable in tests.
	Now func() time.Time
}

// New creates an engine over the given store. A nil logger disables logging.
func New(store Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Store: store,
		Log:   log,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

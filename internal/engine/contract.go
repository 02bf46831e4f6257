// Package engine defines the shared contract every assignment engine
// implements, per spec.md §4.5.
package engine

import (
	"context"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
)

// Engine is the contract every assignment planner satisfies. Initialize
// validates and caches whatever per-run state the engine needs; Optimize
// runs the search and returns a Result. Neither method may mutate inputs.
type Engine interface {
	Initialize(in domain.Inputs) error
	Optimize(ctx context.Context, in domain.Inputs) (Result, error)
}

// Diagnostics carries free-form, engine-specific reporting that doesn't
// belong in the fitness report: the RNG seed actually used, whether a time
// budget was hit, invariant violations the engine knows it left behind, and
// any projects it could not place at all.
type Diagnostics struct {
	Seed                int64
	TimedOut            bool
	PriorityViolation   bool
	BackToBackViolation bool
	UnscheduledProjects []domain.ID
	Notes               []string
	Penalties           *PenaltyBreakdown
}

// PenaltyBreakdown is the priority/CP engines' H1..H4 penalty report,
// carried over from the original scheduler's per-run log: time/gap penalty,
// workload-uniformity penalty, classroom-change penalty, and the
// FINAL-before-INTERIM ordering penalty, plus wall-clock execution time.
type PenaltyBreakdown struct {
	TimeGap            float64
	WorkloadImbalance  float64
	ClassroomChange    float64
	FinalPriorityOrder float64
	ExecutionSeconds   float64
}

// Result is what every engine call returns: the assignment list (possibly
// partial), the engine's own fitness read of it, and diagnostics.
type Result struct {
	Assignments []domain.Assignment
	Fitness     fitness.Report
	Diagnostics Diagnostics
}

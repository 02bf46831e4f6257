package domain

import "errors"

// Sentinel errors for the kinds spec.md §7 names. InsufficientData aborts a
// run at Initialize; InfeasibleSchedule is raised only by the CP engine when
// it proves infeasibility. Everything else in §7 (TimeBudgetExceeded,
// ResidualViolation, UnresolvableConflict) is reported as a diagnostic, not
// an error, and therefore has no sentinel here.
var (
	ErrInsufficientData   = errors.New("insufficient data: projects, instructors, classrooms, and timeslots must all be non-empty and internally consistent")
	ErrInfeasibleSchedule = errors.New("infeasible schedule: no assignment satisfies the active hard constraints")
)

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
)

// buildPipelineInputs adapts spec.md §8 scenario 1's worked example: 5
// projects (2 FINAL, 3 INTERIM), faculty-only supervisors, 2 classrooms, 4
// timeslots.
func buildPipelineInputs() domain.Inputs {
	faculty := []domain.Instructor{
		{ID: "f1", Kind: domain.InstructorKindFaculty},
		{ID: "f2", Kind: domain.InstructorKindFaculty},
		{ID: "f3", Kind: domain.InstructorKindFaculty},
		{ID: "f4", Kind: domain.InstructorKindFaculty},
	}
	projects := []domain.Project{
		{ID: "final-1", Kind: domain.ProjectKindFinal, SupervisorID: "f1"},
		{ID: "final-2", Kind: domain.ProjectKindFinal, SupervisorID: "f2"},
		{ID: "interim-1", Kind: domain.ProjectKindInterim, SupervisorID: "f1"},
		{ID: "interim-2", Kind: domain.ProjectKindInterim, SupervisorID: "f2"},
		{ID: "interim-3", Kind: domain.ProjectKindInterim, SupervisorID: "f3"},
	}
	classrooms := []domain.Classroom{{ID: "c1"}, {ID: "c2"}}
	timeslots := []domain.Timeslot{
		{ID: "t1", Start: domain.NewClock(9, 0), End: domain.NewClock(9, 30)},
		{ID: "t2", Start: domain.NewClock(9, 30), End: domain.NewClock(10, 0)},
		{ID: "t3", Start: domain.NewClock(10, 0), End: domain.NewClock(10, 30)},
		{ID: "t4", Start: domain.NewClock(10, 30), End: domain.NewClock(11, 0)},
	}
	return domain.NewInputs(projects, faculty, classrooms, timeslots)
}

func TestExecuteRunsPriorityEngineThroughRefineConflictsAndScore(t *testing.T) {
	in := buildPipelineInputs()
	pl := New(nil)

	cfg := DefaultConfig()
	cfg.Engine = EnginePriority

	run, err := pl.Execute(context.Background(), in, cfg)
	require.NoError(t, err)

	require.Len(t, run.Assignments, len(in.Projects))
	assert.GreaterOrEqual(t, run.Fitness.Total, 50.0)
	assert.Empty(t, run.EngineDiagnostics.UnscheduledProjects)

	seenRoom := map[string]bool{}
	seenDuty := map[string]bool{}
	for _, a := range run.Assignments {
		roomKey := string(a.ClassroomID) + "|" + string(a.TimeslotID)
		assert.False(t, seenRoom[roomKey], "classroom/timeslot double-booked: %s", roomKey)
		seenRoom[roomKey] = true

		require.GreaterOrEqual(t, len(a.JuryIDs), 1)
		for _, j := range a.JuryIDs {
			assert.NotEqual(t, a.SupervisorID, j)
		}

		for _, instructor := range append([]domain.ID{a.SupervisorID}, a.JuryIDs...) {
			dutyKey := string(instructor) + "|" + string(a.TimeslotID)
			assert.False(t, seenDuty[dutyKey], "instructor double-booked: %s", dutyKey)
			seenDuty[dutyKey] = true
		}
	}

	maxFinal := -1
	for _, a := range run.Assignments {
		if a.ProjectKind == domain.ProjectKindFinal && a.ChronoIndex > maxFinal {
			maxFinal = a.ChronoIndex
		}
	}
	for _, a := range run.Assignments {
		if a.ProjectKind == domain.ProjectKindInterim {
			assert.Greater(t, a.ChronoIndex, maxFinal)
		}
	}
}

// TestExecutePropagatesTimeoutDiagnosticsWithoutError exercises the
// cfg.MaxTime wiring: Execute derives a timeout context from cfg.MaxTime and
// passes it to the engine, but a timed-out engine is never itself an error
// (spec.md §7: TimeBudgetExceeded is a diagnostic, never raised). Canceling
// the parent context before the call makes the derived context immediately
// done regardless of the configured duration, so this is deterministic.
func TestExecutePropagatesTimeoutDiagnosticsWithoutError(t *testing.T) {
	in := buildPipelineInputs()
	pl := New(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.MaxTime = 5 * time.Second

	run, err := pl.Execute(ctx, in, cfg)
	require.NoError(t, err)
	assert.True(t, run.EngineDiagnostics.TimedOut)
	assert.Empty(t, run.Assignments)
	assert.Equal(t, "F", run.Fitness.Grade)
}

func TestExecuteRejectsInsufficientData(t *testing.T) {
	pl := New(nil)
	_, err := pl.Execute(context.Background(), domain.Inputs{}, DefaultConfig())
	require.Error(t, err)
}

func TestExecuteRejectsUnknownEngine(t *testing.T) {
	in := buildPipelineInputs()
	pl := New(nil)

	cfg := DefaultConfig()
	cfg.Engine = EngineName("not-a-real-engine")

	_, err := pl.Execute(context.Background(), in, cfg)
	require.Error(t, err)
}

func TestExecuteSurfacesInfeasibleScheduleFromCPEngine(t *testing.T) {
	faculty := []domain.Instructor{
		{ID: "f1", Kind: domain.InstructorKindFaculty},
		{ID: "f2", Kind: domain.InstructorKindFaculty},
	}
	projects := []domain.Project{
		{ID: "final-1", Kind: domain.ProjectKindFinal, SupervisorID: "f1"},
		{ID: "final-2", Kind: domain.ProjectKindFinal, SupervisorID: "f2"},
		{ID: "interim-1", Kind: domain.ProjectKindInterim, SupervisorID: "f1"},
		{ID: "interim-2", Kind: domain.ProjectKindInterim, SupervisorID: "f2"},
		{ID: "interim-3", Kind: domain.ProjectKindInterim, SupervisorID: "f1"},
	}
	classrooms := []domain.Classroom{{ID: "c1"}, {ID: "c2"}}
	timeslots := []domain.Timeslot{
		{ID: "t1", Start: domain.NewClock(9, 0), End: domain.NewClock(9, 30)},
		{ID: "t2", Start: domain.NewClock(9, 30), End: domain.NewClock(10, 0)},
	}
	in := domain.NewInputs(projects, faculty, classrooms, timeslots)

	pl := New(nil)
	cfg := DefaultConfig()
	cfg.Engine = EngineCP

	run, err := pl.Execute(context.Background(), in, cfg)
	require.ErrorIs(t, err, domain.ErrInfeasibleSchedule)
	assert.Empty(t, run.Assignments)
}

package cp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
)

func buildCPInputs() domain.Inputs {
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
		{ID: "interim-2", Kind: domain.ProjectKindInterim, SupervisorID: "f3"},
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

func TestOptimizeSchedulesAllProjects(t *testing.T) {
	in := buildCPInputs()
	e := New(fitness.DefaultWeights())
	require.NoError(t, e.Initialize(in))

	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)

	assert.Len(t, result.Assignments, len(in.Projects))
	assert.Empty(t, result.Diagnostics.UnscheduledProjects)
}

func TestOptimizePlacesAllFinalsBeforeAnyInterim(t *testing.T) {
	in := buildCPInputs()
	e := New(fitness.DefaultWeights())
	require.NoError(t, e.Initialize(in))

	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)

	maxFinal := -1
	for _, a := range result.Assignments {
		if a.ProjectKind == domain.ProjectKindFinal && a.ChronoIndex > maxFinal {
			maxFinal = a.ChronoIndex
		}
	}
	for _, a := range result.Assignments {
		if a.ProjectKind == domain.ProjectKindInterim {
			assert.Greater(t, a.ChronoIndex, maxFinal)
		}
	}
}

func TestOptimizeNeverAssignsJuryEqualToSupervisor(t *testing.T) {
	in := buildCPInputs()
	e := New(fitness.DefaultWeights())
	require.NoError(t, e.Initialize(in))

	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)

	for _, a := range result.Assignments {
		for _, j := range a.JuryIDs {
			assert.NotEqual(t, a.SupervisorID, j)
		}
	}
}

func TestOptimizeNeverDoubleBooksClassroomTimeslotOrInstructor(t *testing.T) {
	in := buildCPInputs()
	e := New(fitness.DefaultWeights())
	require.NoError(t, e.Initialize(in))

	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)

	seenRoom := map[string]bool{}
	seenDuty := map[string]bool{}
	for _, a := range result.Assignments {
		roomKey := string(a.ClassroomID) + "|" + string(a.TimeslotID)
		assert.False(t, seenRoom[roomKey], "classroom/timeslot double-booked: %s", roomKey)
		seenRoom[roomKey] = true

		for _, instructor := range append([]domain.ID{a.SupervisorID}, a.JuryIDs...) {
			dutyKey := string(instructor) + "|" + string(a.TimeslotID)
			assert.False(t, seenDuty[dutyKey], "instructor double-booked: %s", dutyKey)
			seenDuty[dutyKey] = true
		}
	}
}

func TestOptimizeIsDeterministic(t *testing.T) {
	in := buildCPInputs()

	e1 := New(fitness.DefaultWeights())
	require.NoError(t, e1.Initialize(in))
	r1, err := e1.Optimize(context.Background(), in)
	require.NoError(t, err)

	e2 := New(fitness.DefaultWeights())
	require.NoError(t, e2.Initialize(in))
	r2, err := e2.Optimize(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, r1.Assignments, r2.Assignments)
}

func TestOptimizeReturnsInfeasibleWhenProjectsExceedCapacity(t *testing.T) {
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

	e := New(fitness.DefaultWeights())
	require.NoError(t, e.Initialize(in))

	result, err := e.Optimize(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrInfeasibleSchedule)
	assert.Empty(t, result.Assignments)
}

func TestOptimizeContextCancellationReturnsPartialResult(t *testing.T) {
	in := buildCPInputs()
	e := New(fitness.DefaultWeights())
	require.NoError(t, e.Initialize(in))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.Optimize(ctx, in)
	require.NoError(t, err)
	assert.True(t, result.Diagnostics.TimedOut)
	assert.Empty(t, result.Assignments)
}

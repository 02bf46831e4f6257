package priority

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
)

func buildWorkedExampleInputs() domain.Inputs {
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

func TestOptimizeEnforcesPriorityInvariantAndFitnessFloor(t *testing.T) {
	in := buildWorkedExampleInputs()
	e := New(fitness.DefaultWeights())
	require.NoError(t, e.Initialize(in))

	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, result.Assignments, 5)
	assert.False(t, result.Diagnostics.PriorityViolation)
	assert.Empty(t, result.Diagnostics.UnscheduledProjects)
	assert.GreaterOrEqual(t, result.Fitness.Total, 50.0)

	byClassroom := map[domain.ID][]domain.Assignment{}
	for _, a := range result.Assignments {
		byClassroom[a.ClassroomID] = append(byClassroom[a.ClassroomID], a)
	}
	for _, group := range byClassroom {
		maxFinal, minInterim := -1, 1<<30
		hasFinal, hasInterim := false, false
		for _, a := range group {
			if a.ProjectKind == domain.ProjectKindFinal {
				hasFinal = true
				if a.ChronoIndex > maxFinal {
					maxFinal = a.ChronoIndex
				}
			} else {
				hasInterim = true
				if a.ChronoIndex < minInterim {
					minInterim = a.ChronoIndex
				}
			}
		}
		if hasFinal && hasInterim {
			assert.Less(t, maxFinal, minInterim)
		}
	}
}

func TestOptimizeNeverAssignsJuryEqualToSupervisor(t *testing.T) {
	in := buildWorkedExampleInputs()
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

func TestOptimizeNeverDoubleBooksClassroomTimeslot(t *testing.T) {
	in := buildWorkedExampleInputs()
	e := New(fitness.DefaultWeights())
	require.NoError(t, e.Initialize(in))

	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, a := range result.Assignments {
		key := string(a.ClassroomID) + "|" + string(a.TimeslotID)
		assert.False(t, seen[key], "classroom/timeslot double-booked: %s", key)
		seen[key] = true
	}
}

func TestOptimizeIsDeterministic(t *testing.T) {
	in := buildWorkedExampleInputs()

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

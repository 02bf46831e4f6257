package localsearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/engine/priority"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
)

func buildLocalSearchInputs() domain.Inputs {
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

func buildSeedFitness(t *testing.T, in domain.Inputs) float64 {
	t.Helper()
	e := priority.New(fitness.DefaultWeights())
	require.NoError(t, e.Initialize(in))
	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)
	return result.Fitness.Total
}

func assertValidSchedule(t *testing.T, in domain.Inputs, assignments []domain.Assignment) {
	t.Helper()
	assert.Len(t, assignments, len(in.Projects))

	seenRoom := map[string]bool{}
	seenDuty := map[string]bool{}
	for _, a := range assignments {
		for _, j := range a.JuryIDs {
			assert.NotEqual(t, a.SupervisorID, j)
		}
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

func TestHillClimbNeverRegressesBelowSeedFitness(t *testing.T) {
	in := buildLocalSearchInputs()
	seedFitness := buildSeedFitness(t, in)

	e := NewHillClimb(fitness.DefaultWeights(), 7)
	require.NoError(t, e.Initialize(in))
	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)

	assertValidSchedule(t, in, result.Assignments)
	assert.GreaterOrEqual(t, result.Fitness.Total, seedFitness)
}

func TestTabuNeverRegressesBelowSeedFitness(t *testing.T) {
	in := buildLocalSearchInputs()
	seedFitness := buildSeedFitness(t, in)

	e := NewTabu(fitness.DefaultWeights(), 7)
	require.NoError(t, e.Initialize(in))
	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)

	assertValidSchedule(t, in, result.Assignments)
	assert.GreaterOrEqual(t, result.Fitness.Total, seedFitness)
}

func TestAnnealingNeverRegressesBelowSeedFitness(t *testing.T) {
	in := buildLocalSearchInputs()
	seedFitness := buildSeedFitness(t, in)

	e := NewAnnealing(fitness.DefaultWeights(), 7)
	require.NoError(t, e.Initialize(in))
	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)

	assertValidSchedule(t, in, result.Assignments)
	assert.GreaterOrEqual(t, result.Fitness.Total, seedFitness)
}

func TestOptimizeIsDeterministicGivenSameSeed(t *testing.T) {
	in := buildLocalSearchInputs()

	for _, newEngine := range []func(fitness.Weights, int64) *Engine{NewHillClimb, NewTabu, NewAnnealing} {
		e1 := newEngine(fitness.DefaultWeights(), 42)
		require.NoError(t, e1.Initialize(in))
		r1, err := e1.Optimize(context.Background(), in)
		require.NoError(t, err)

		e2 := newEngine(fitness.DefaultWeights(), 42)
		require.NoError(t, e2.Initialize(in))
		r2, err := e2.Optimize(context.Background(), in)
		require.NoError(t, err)

		assert.Equal(t, r1.Assignments, r2.Assignments)
	}
}

func TestIsValidRejectsDoubleBookedClassroom(t *testing.T) {
	assignments := []domain.Assignment{
		{ProjectID: "p1", ClassroomID: "c1", TimeslotID: "t1", SupervisorID: "f1"},
		{ProjectID: "p2", ClassroomID: "c1", TimeslotID: "t1", SupervisorID: "f2"},
	}
	assert.False(t, isValid(assignments))
}

func TestIsValidRejectsJuryEqualToSupervisor(t *testing.T) {
	assignments := []domain.Assignment{
		{ProjectID: "p1", ClassroomID: "c1", TimeslotID: "t1", SupervisorID: "f1", JuryIDs: []domain.ID{"f1"}},
	}
	assert.False(t, isValid(assignments))
}

func TestIsValidAcceptsFeasibleSchedule(t *testing.T) {
	assignments := []domain.Assignment{
		{ProjectID: "p1", ClassroomID: "c1", TimeslotID: "t1", SupervisorID: "f1", JuryIDs: []domain.ID{"f2"}},
		{ProjectID: "p2", ClassroomID: "c2", TimeslotID: "t1", SupervisorID: "f2", JuryIDs: []domain.ID{"f1"}},
	}
	assert.True(t, isValid(assignments))
}

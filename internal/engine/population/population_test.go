package population

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
)

func buildPopulationInputs() domain.Inputs {
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

func TestGeneticProducesValidSchedule(t *testing.T) {
	in := buildPopulationInputs()
	e := NewGenetic(fitness.DefaultWeights(), 3)
	require.NoError(t, e.Initialize(in))

	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)
	assertValidSchedule(t, in, result.Assignments)
}

func TestNSGAProducesValidSchedule(t *testing.T) {
	in := buildPopulationInputs()
	e := NewNSGA(fitness.DefaultWeights(), 3)
	require.NoError(t, e.Initialize(in))

	result, err := e.Optimize(context.Background(), in)
	require.NoError(t, err)
	assertValidSchedule(t, in, result.Assignments)
}

func TestOptimizeIsDeterministicGivenSameSeed(t *testing.T) {
	in := buildPopulationInputs()

	for _, newEngine := range []func(fitness.Weights, int64) *Engine{NewGenetic, NewNSGA} {
		e1 := newEngine(fitness.DefaultWeights(), 11)
		require.NoError(t, e1.Initialize(in))
		r1, err := e1.Optimize(context.Background(), in)
		require.NoError(t, err)

		e2 := newEngine(fitness.DefaultWeights(), 11)
		require.NoError(t, e2.Initialize(in))
		r2, err := e2.Optimize(context.Background(), in)
		require.NoError(t, err)

		assert.Equal(t, r1.Assignments, r2.Assignments)
	}
}

func TestDominatesRequiresAtLeastOneStrictImprovement(t *testing.T) {
	equal := []float64{1, 2, 3}
	assert.False(t, dominates(equal, []float64{1, 2, 3}))

	better := []float64{2, 2, 3}
	assert.True(t, dominates(better, []float64{1, 2, 3}))

	worse := []float64{1, 1, 3}
	assert.False(t, dominates(worse, []float64{1, 2, 3}))
}

func TestNonDominatedSortSeparatesFronts(t *testing.T) {
	pop := []individual{
		{report: fitness.Report{Components: fitness.Components{Coverage: 100, Consecutive: 100, LoadBalance: 100, ClassroomEfficiency: 100, TimeEfficiency: 100, EarlySlotBonus: 100}}},
		{report: fitness.Report{Components: fitness.Components{Coverage: 50, Consecutive: 50, LoadBalance: 50, ClassroomEfficiency: 50, TimeEfficiency: 50, EarlySlotBonus: 50}}},
	}
	fronts := nonDominatedSort(pop)
	require.Len(t, fronts, 2)
	assert.Equal(t, []int{0}, fronts[0])
	assert.Equal(t, []int{1}, fronts[1])
}

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
)

func TestComputePenaltiesNoGapsNoChangesIsZero(t *testing.T) {
	assignments := []domain.Assignment{
		{ProjectID: "p1", ClassroomID: "c1", TimeslotID: "t1", ChronoIndex: 0, SupervisorID: "f1", JuryIDs: []domain.ID{"f2"}, ProjectKind: domain.ProjectKindFinal},
		{ProjectID: "p2", ClassroomID: "c1", TimeslotID: "t2", ChronoIndex: 1, SupervisorID: "f2", JuryIDs: []domain.ID{"f1"}, ProjectKind: domain.ProjectKindFinal},
	}

	pb := ComputePenalties(assignments, time.Second)
	assert.Zero(t, pb.TimeGap)
	assert.Zero(t, pb.ClassroomChange)
	assert.Equal(t, 1.0, pb.ExecutionSeconds)
}

func TestComputePenaltiesDetectsGapAndClassroomChange(t *testing.T) {
	assignments := []domain.Assignment{
		{ProjectID: "p1", ClassroomID: "c1", TimeslotID: "t1", ChronoIndex: 0, SupervisorID: "f1", ProjectKind: domain.ProjectKindFinal},
		{ProjectID: "p2", ClassroomID: "c2", TimeslotID: "t3", ChronoIndex: 2, SupervisorID: "f1", ProjectKind: domain.ProjectKindFinal},
	}

	pb := ComputePenalties(assignments, 0)
	assert.Equal(t, 1.0, pb.TimeGap, "one empty slot between chrono 0 and 2")
	assert.Equal(t, 1.0, pb.ClassroomChange)
}

func TestComputePenaltiesFinalBeforeInterimIsZero(t *testing.T) {
	assignments := []domain.Assignment{
		{ProjectID: "final", ChronoIndex: 0, SupervisorID: "f1", ProjectKind: domain.ProjectKindFinal},
		{ProjectID: "interim", ChronoIndex: 1, SupervisorID: "f2", ProjectKind: domain.ProjectKindInterim},
	}

	pb := ComputePenalties(assignments, 0)
	assert.Zero(t, pb.FinalPriorityOrder)
}

func TestComputePenaltiesInterimBeforeFinalIsPenalized(t *testing.T) {
	assignments := []domain.Assignment{
		{ProjectID: "interim", ChronoIndex: 0, SupervisorID: "f1", ProjectKind: domain.ProjectKindInterim},
		{ProjectID: "final", ChronoIndex: 2, SupervisorID: "f2", ProjectKind: domain.ProjectKindFinal},
	}

	pb := ComputePenalties(assignments, 0)
	assert.Equal(t, 2.0, pb.FinalPriorityOrder, "final at 2 is 2 slots after the interim at 0")
}

func TestComputePenaltiesWorkloadImbalance(t *testing.T) {
	assignments := []domain.Assignment{
		{ProjectID: "p1", ChronoIndex: 0, SupervisorID: "f1", JuryIDs: []domain.ID{"f2"}, ProjectKind: domain.ProjectKindFinal},
		{ProjectID: "p2", ChronoIndex: 1, SupervisorID: "f1", JuryIDs: []domain.ID{"f3"}, ProjectKind: domain.ProjectKindFinal},
		{ProjectID: "p3", ChronoIndex: 2, SupervisorID: "f1", JuryIDs: []domain.ID{"f2"}, ProjectKind: domain.ProjectKindFinal},
	}

	// f1 has load 3, f2 has load 2, f3 has load 1; average is 2.
	pb := ComputePenalties(assignments, 0)
	assert.Equal(t, 2.0, pb.WorkloadImbalance)
}

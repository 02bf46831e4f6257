package engine

import (
	"sort"
	"time"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
)

// ComputePenalties reproduces the original scheduler's H1..H4 penalty
// report for a finished assignment list. It is pure and engine-agnostic;
// priority and cp call it after producing their result so the breakdown
// always reflects the actual output, not an intermediate state.
func ComputePenalties(assignments []domain.Assignment, elapsed time.Duration) PenaltyBreakdown {
	return PenaltyBreakdown{
		TimeGap:            timeGapPenalty(assignments),
		WorkloadImbalance:  workloadPenalty(assignments),
		ClassroomChange:    classroomChangePenalty(assignments),
		FinalPriorityOrder: finalPriorityPenalty(assignments),
		ExecutionSeconds:   elapsed.Seconds(),
	}
}

func instructorTasks(assignments []domain.Assignment) map[domain.ID][]domain.Assignment {
	byInstructor := map[domain.ID][]domain.Assignment{}
	for _, a := range assignments {
		byInstructor[a.SupervisorID] = append(byInstructor[a.SupervisorID], a)
		for _, j := range a.JuryIDs {
			byInstructor[j] = append(byInstructor[j], a)
		}
	}
	return byInstructor
}

// timeGapPenalty sums, for every instructor, the chronological gap between
// consecutive tasks once sorted by ChronoIndex.
func timeGapPenalty(assignments []domain.Assignment) float64 {
	total := 0.0
	for _, tasks := range instructorTasks(assignments) {
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].ChronoIndex < tasks[j].ChronoIndex })
		for i := 0; i+1 < len(tasks); i++ {
			gap := tasks[i+1].ChronoIndex - tasks[i].ChronoIndex - 1
			if gap > 0 {
				total += float64(gap)
			}
		}
	}
	return total
}

// workloadPenalty sums each instructor's deviation from the average load
// across supervisor+jury assignments.
func workloadPenalty(assignments []domain.Assignment) float64 {
	loads := map[domain.ID]int{}
	for _, a := range assignments {
		loads[a.SupervisorID]++
		for _, j := range a.JuryIDs {
			loads[j]++
		}
	}
	if len(loads) == 0 {
		return 0
	}
	total := 0
	for _, l := range loads {
		total += l
	}
	avg := float64(total) / float64(len(loads))

	penalty := 0.0
	for _, l := range loads {
		deviation := float64(l) - avg
		if deviation < 0 {
			deviation = -deviation
		}
		penalty += deviation
	}
	return penalty
}

// classroomChangePenalty counts, per instructor, how many consecutive task
// pairs moved them to a different classroom.
func classroomChangePenalty(assignments []domain.Assignment) float64 {
	total := 0.0
	for _, tasks := range instructorTasks(assignments) {
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].ChronoIndex < tasks[j].ChronoIndex })
		for i := 0; i+1 < len(tasks); i++ {
			if tasks[i].ClassroomID != tasks[i+1].ClassroomID {
				total++
			}
		}
	}
	return total
}

// finalPriorityPenalty penalizes every (FINAL, INTERIM) pair scheduled out
// of order: the rule is max(slot(FINAL)) <= min(slot(INTERIM)).
func finalPriorityPenalty(assignments []domain.Assignment) float64 {
	var finals, interims []int
	for _, a := range assignments {
		if a.ProjectKind == domain.ProjectKindFinal {
			finals = append(finals, a.ChronoIndex)
		} else {
			interims = append(interims, a.ChronoIndex)
		}
	}
	if len(finals) == 0 || len(interims) == 0 {
		return 0
	}

	total := 0.0
	for _, f := range finals {
		for _, i := range interims {
			if f > i {
				total += float64(f - i)
			}
		}
	}
	return total
}

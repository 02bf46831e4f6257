// Package refinement fills incomplete juries after an engine run, per
// spec.md §4.3. It never fails hard: an assignment that cannot be completed
// is left as-is and reported as a Residual.
package refinement

import (
	"github.com/Ciriera/examboard-scheduler/internal/domain"
)

// Weights controls the continuity/proximity/workload blend used to rank jury
// candidates. Defaults match spec.md §4.3 (continuity 0.6, proximity 0.4);
// SemiConsecutiveWeight and Workload have no named default in the spec and
// are chosen conservatively: a real but smaller bonus for a one-slot gap,
// and a light demotion for already-busy instructors.
type Weights struct {
	Continuity      float64
	Proximity       float64
	SemiConsecutive float64
	Workload        float64
}

// DefaultWeights is the spec.md §4.3 default blend.
func DefaultWeights() Weights {
	return Weights{Continuity: 0.6, Proximity: 0.4, SemiConsecutive: 0.5, Workload: 0.2}
}

const (
	sameClassroomScore     = 1.0
	crossClassroomSameTime = 0.6
	crossClassroomAdjacent = 0.4
	crossClassroomDistant  = 0.2
)

// Residual reports an assignment refinement could not fully complete.
type Residual struct {
	ProjectID domain.ID
	Missing   int
}

// duty is one (classroom, chronological position) an instructor already
// occupies, as supervisor or jury, at the point refinement considers them.
type duty struct {
	classroomID domain.ID
	chronoIndex int
}

// Refine returns a new assignment slice with as many missing jury slots
// filled as candidates allow, plus residuals for anything left incomplete.
// It never mutates the input slice.
func Refine(assignments []domain.Assignment, in domain.Inputs, weights Weights) ([]domain.Assignment, []Residual) {
	working := make([]domain.Assignment, len(assignments))
	for i, a := range assignments {
		working[i] = a
		working[i].JuryIDs = append([]domain.ID(nil), a.JuryIDs...)
	}

	var residuals []Residual

	for i := range working {
		for working[i].MissingJuryCount() > 0 {
			candidate, found := bestCandidate(working, i, in, weights)
			if !found {
				break
			}
			working[i].JuryIDs = append(working[i].JuryIDs, candidate)
		}
		if missing := working[i].MissingJuryCount(); missing > 0 {
			residuals = append(residuals, Residual{ProjectID: working[i].ProjectID, Missing: missing})
		}
	}

	return working, residuals
}

func bestCandidate(working []domain.Assignment, targetIdx int, in domain.Inputs, weights Weights) (domain.ID, bool) {
	target := working[targetIdx]

	type scored struct {
		id         domain.ID
		continuity float64
		proximity  float64
		workload   float64
	}

	var pool []scored
	for _, f := range in.Faculty() {
		if f.ID == target.SupervisorID || target.HasJury(f.ID) {
			continue
		}
		if instructorBusyAt(working, f.ID, target.ChronoIndex, target.ProjectID) {
			continue
		}
		duties := dutiesOf(working, f.ID, target.ProjectID)
		pool = append(pool, scored{
			id:         f.ID,
			continuity: continuityRaw(duties, target, weights),
			proximity:  proximityScore(duties, target),
			workload:   float64(len(duties)),
		})
	}
	if len(pool) == 0 {
		return "", false
	}

	maxContinuity := 0.0
	maxWorkload := 0.0
	for _, c := range pool {
		if c.continuity > maxContinuity {
			maxContinuity = c.continuity
		}
		if c.workload > maxWorkload {
			maxWorkload = c.workload
		}
	}

	bestIdx := -1
	bestScore := 0.0
	for i, c := range pool {
		continuityNorm := 0.0
		if maxContinuity > 0 {
			continuityNorm = c.continuity / maxContinuity
		}
		workloadNorm := 0.0
		if maxWorkload > 0 {
			workloadNorm = c.workload / maxWorkload
		}
		priority := weights.Continuity*continuityNorm + weights.Proximity*c.proximity - weights.Workload*workloadNorm

		if bestIdx == -1 || priority > bestScore || (priority == bestScore && c.id < pool[bestIdx].id) {
			bestIdx = i
			bestScore = priority
		}
	}
	return pool[bestIdx].id, true
}

// instructorBusyAt reports whether an instructor already holds any role in
// some other assignment sharing this chronological position, per invariant 3.
func instructorBusyAt(working []domain.Assignment, instructorID domain.ID, chronoIndex int, excludeProjectID domain.ID) bool {
	for _, a := range working {
		if a.ProjectID == excludeProjectID || a.ChronoIndex != chronoIndex {
			continue
		}
		if a.SupervisorID == instructorID || a.HasJury(instructorID) {
			return true
		}
	}
	return false
}

// dutiesOf collects every (classroom, position) an instructor already
// occupies across all assignments except the one being refined.
func dutiesOf(working []domain.Assignment, instructorID domain.ID, excludeProjectID domain.ID) []duty {
	var duties []duty
	for _, a := range working {
		if a.ProjectID == excludeProjectID {
			continue
		}
		if a.SupervisorID == instructorID || a.HasJury(instructorID) {
			duties = append(duties, duty{classroomID: a.ClassroomID, chronoIndex: a.ChronoIndex})
		}
	}
	return duties
}

// continuityRaw rewards placing the candidate exactly back-to-back in the
// same classroom as one of their existing duties, with a smaller bonus for a
// one-slot gap, and nothing otherwise. Unnormalized; bestCandidate divides by
// the pool maximum.
func continuityRaw(duties []duty, target domain.Assignment, weights Weights) float64 {
	best := 0.0
	for _, d := range duties {
		if d.classroomID != target.ClassroomID {
			continue
		}
		gap := abs(d.chronoIndex - target.ChronoIndex)
		switch gap {
		case 1:
			best = 1.0
		case 2:
			if weights.SemiConsecutive > best {
				best = weights.SemiConsecutive
			}
		}
	}
	return best
}

// proximityScore picks the candidate's best-matching existing duty against
// the target slot: same classroom scores highest, then same timeslot in a
// different classroom, then an adjacent timeslot, else a flat distant score.
// A candidate with no existing duties has no information and is scored as
// distant.
func proximityScore(duties []duty, target domain.Assignment) float64 {
	if len(duties) == 0 {
		return crossClassroomDistant
	}
	best := crossClassroomDistant
	for _, d := range duties {
		var score float64
		switch {
		case d.classroomID == target.ClassroomID:
			score = sameClassroomScore
		case d.chronoIndex == target.ChronoIndex:
			score = crossClassroomSameTime
		case abs(d.chronoIndex-target.ChronoIndex) == 1:
			score = crossClassroomAdjacent
		default:
			score = crossClassroomDistant
		}
		if score > best {
			best = score
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}


package conflict

import (
	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/slotindex"
)

// LogEntry records what the resolver attempted for one conflict. Dimension
// groups entries by which detector produced the conflict (instructor,
// classroom, timeslot), which diagnostics display separately from the raw
// conflict kind.
type LogEntry struct {
	Kind        Kind
	Dimension   string
	Strategy    Strategy
	Success     bool
	Description string
}

func dimensionOf(k Kind) string {
	switch k {
	case KindInstructorSupervisorJuryClash, KindInstructorDoubleSupervisor, KindInstructorDoubleJury:
		return "instructor"
	case KindClassroomDoubleBooking:
		return "classroom"
	case KindTimeslotOverflow:
		return "timeslot"
	default:
		return "unknown"
	}
}

// Resolve applies each conflict's tagged strategy in severity order
// (CRITICAL first), then re-detects once. It never discards an assignment;
// any conflict a strategy cannot fix is reported in the returned residual
// list rather than retried.
func Resolve(assignments []domain.Assignment, conflicts []Conflict, in domain.Inputs, idx *slotindex.Index) ([]domain.Assignment, []LogEntry, []Conflict) {
	working := make([]domain.Assignment, len(assignments))
	copy(working, assignments)

	var log []LogEntry
	for _, c := range bySeverityDesc(conflicts) {
		ok, desc := applyStrategy(c, working, in, idx)
		log = append(log, LogEntry{
			Kind:        c.Kind,
			Dimension:   dimensionOf(c.Kind),
			Strategy:    c.Strategy,
			Success:     ok,
			Description: desc,
		})
	}

	residual := Detect(working, in)
	return working, log, residual
}

func applyStrategy(c Conflict, working []domain.Assignment, in domain.Inputs, idx *slotindex.Index) (bool, string) {
	switch c.Strategy {
	case StrategyRescheduleOneAssignment:
		return rescheduleOneAssignment(c, working, idx)
	case StrategyReplaceJuryMember:
		return replaceJuryMember(c, working, in)
	case StrategyRelocateToAvailableClassroom:
		return relocateToAvailableClassroom(c, working, in)
	case StrategyRedistributeToOtherTimeslots:
		return redistributeToOtherTimeslots(c, working, in)
	default:
		return false, "unknown resolution strategy"
	}
}

func indexOfProject(working []domain.Assignment, projectID domain.ID) int {
	for i, a := range working {
		if a.ProjectID == projectID {
			return i
		}
	}
	return -1
}

// rescheduleOneAssignment keeps the first conflicting assignment in place
// and moves only the second one to the earliest (classroom, timeslot) slot
// not already occupied by any assignment; any further participants stay put.
func rescheduleOneAssignment(c Conflict, working []domain.Assignment, idx *slotindex.Index) (bool, string) {
	if len(c.ProjectIDs) < 2 || idx == nil {
		return false, "not enough conflicting assignments to reschedule"
	}
	moveIdx := indexOfProject(working, c.ProjectIDs[1])
	if moveIdx == -1 {
		return false, "assignment to reschedule not found"
	}

	type roomTime struct {
		classroom domain.ID
		timeslot  domain.ID
	}
	occupied := map[roomTime]struct{}{}
	for i, a := range working {
		if i == moveIdx {
			continue
		}
		occupied[roomTime{classroom: a.ClassroomID, timeslot: a.TimeslotID}] = struct{}{}
	}

	for _, slot := range idx.Grid() {
		key := roomTime{classroom: slot.Classroom.ID, timeslot: slot.Timeslot.ID}
		if _, busy := occupied[key]; busy {
			continue
		}
		working[moveIdx].ClassroomID = slot.Classroom.ID
		working[moveIdx].TimeslotID = slot.Timeslot.ID
		working[moveIdx].ChronoIndex = slot.Timeslot.ChronoIndex
		return true, "rescheduled to earliest conflict-free slot"
	}
	return false, "no conflict-free slot available"
}

// replaceJuryMember substitutes the conflicting instructor, in the second
// affected assignment, with another faculty member free in that timeslot.
func replaceJuryMember(c Conflict, working []domain.Assignment, in domain.Inputs) (bool, string) {
	if len(c.ProjectIDs) < 2 {
		return false, "not enough conflicting assignments to replace a jury member"
	}
	moveIdx := indexOfProject(working, c.ProjectIDs[1])
	if moveIdx == -1 {
		return false, "assignment not found"
	}

	busy := map[domain.ID]struct{}{}
	for _, a := range working {
		if a.TimeslotID != c.TimeslotID {
			continue
		}
		busy[a.SupervisorID] = struct{}{}
		for _, j := range a.JuryIDs {
			busy[j] = struct{}{}
		}
	}

	for _, f := range in.Faculty() {
		if _, taken := busy[f.ID]; taken {
			continue
		}
		replaced := false
		for i, j := range working[moveIdx].JuryIDs {
			if j == c.InstructorID {
				working[moveIdx].JuryIDs[i] = f.ID
				replaced = true
				break
			}
		}
		if replaced {
			return true, "replaced conflicting jury member"
		}
	}
	return false, "no available instructor for replacement"
}

// relocateToAvailableClassroom keeps the timeslot and moves the second
// affected assignment to another classroom free at that time.
func relocateToAvailableClassroom(c Conflict, working []domain.Assignment, in domain.Inputs) (bool, string) {
	if len(c.ProjectIDs) < 2 {
		return false, "not enough conflicting assignments to relocate"
	}
	moveIdx := indexOfProject(working, c.ProjectIDs[1])
	if moveIdx == -1 {
		return false, "assignment not found"
	}

	busy := map[domain.ID]struct{}{}
	for _, a := range working {
		if a.TimeslotID == c.TimeslotID {
			busy[a.ClassroomID] = struct{}{}
		}
	}

	for _, room := range in.Classrooms {
		if _, taken := busy[room.ID]; taken {
			continue
		}
		working[moveIdx].ClassroomID = room.ID
		return true, "relocated to an available classroom"
	}
	return false, "no available classroom for relocation"
}

// redistributeToOtherTimeslots spills the trailing (overflow-many)
// assignments at the conflicted timeslot into other under-capacity
// timeslots, round-robin.
func redistributeToOtherTimeslots(c Conflict, working []domain.Assignment, in domain.Inputs) (bool, string) {
	capacityOf := map[domain.ID]int{}
	for _, ts := range in.Timeslots {
		capacityOf[ts.ID] = ts.Capacity
	}
	capacity := capacityOf[c.TimeslotID]
	if len(c.ProjectIDs) <= capacity {
		return false, "not enough assignments to redistribute"
	}
	overflowCount := len(c.ProjectIDs) - capacity

	usage := map[domain.ID]int{}
	for _, a := range working {
		usage[a.TimeslotID]++
	}

	var available []domain.Timeslot
	for _, ts := range in.Timeslots {
		if ts.ID == c.TimeslotID {
			continue
		}
		if ts.Capacity <= 0 || usage[ts.ID] < ts.Capacity {
			available = append(available, ts)
		}
	}
	if len(available) == 0 {
		return false, "no available timeslot for redistribution"
	}

	toMove := c.ProjectIDs[len(c.ProjectIDs)-overflowCount:]
	moved := false
	for i, projectID := range toMove {
		idx := indexOfProject(working, projectID)
		if idx == -1 {
			continue
		}
		target := available[i%len(available)]
		working[idx].TimeslotID = target.ID
		working[idx].ChronoIndex = target.ChronoIndex
		moved = true
	}
	if !moved {
		return false, "no assignment could be redistributed"
	}
	return true, "redistributed overflow to under-used timeslots"
}

// Package conflict detects and repairs invariant violations left behind by
// an engine and by refinement, per spec.md §4.4.
package conflict

import (
	"fmt"
	"sort"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
)

// Kind enumerates the five conflict shapes spec.md §4.4 names.
type Kind int

const (
	KindUnknown Kind = iota
	KindInstructorSupervisorJuryClash
	KindInstructorDoubleSupervisor
	KindInstructorDoubleJury
	KindClassroomDoubleBooking
	KindTimeslotOverflow
)

func (k Kind) String() string {
	switch k {
	case KindInstructorSupervisorJuryClash:
		return "instructor_supervisor_jury_clash"
	case KindInstructorDoubleSupervisor:
		return "instructor_double_supervisor"
	case KindInstructorDoubleJury:
		return "instructor_double_jury"
	case KindClassroomDoubleBooking:
		return "classroom_double_booking"
	case KindTimeslotOverflow:
		return "timeslot_overflow"
	default:
		return "unknown"
	}
}

// Severity reflects how many participants (or how much overflow) the
// conflict involves: CRITICAL for 3 or more, HIGH for exactly 2, MEDIUM
// otherwise (a pathological single-participant detection).
type Severity int

const (
	SeverityMedium Severity = iota
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	default:
		return "MEDIUM"
	}
}

func severityFor(participantCount int) Severity {
	switch {
	case participantCount >= 3:
		return SeverityCritical
	case participantCount == 2:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// Strategy names the resolver action a conflict is tagged with.
type Strategy string

const (
	StrategyRescheduleOneAssignment      Strategy = "reschedule_one_assignment"
	StrategyReplaceJuryMember            Strategy = "replace_jury_member"
	StrategyRelocateToAvailableClassroom Strategy = "relocate_to_available_classroom"
	StrategyRedistributeToOtherTimeslots Strategy = "redistribute_to_other_timeslots"
)

// Conflict is one detected invariant violation.
type Conflict struct {
	Kind        Kind
	Severity    Severity
	Strategy    Strategy
	TimeslotID  domain.ID
	ClassroomID domain.ID   // set only for classroom double-booking
	InstructorID domain.ID  // set only for instructor kinds
	ProjectIDs  []domain.ID // assignments involved, in detection order
	Description string
}

type instructorRole struct {
	projectID  domain.ID
	isSuper    bool
}

// Detect is a pure pass over the assignment set; it mutates nothing.
func Detect(assignments []domain.Assignment, in domain.Inputs) []Conflict {
	var conflicts []Conflict
	conflicts = append(conflicts, detectInstructorConflicts(assignments)...)
	conflicts = append(conflicts, detectClassroomConflicts(assignments)...)
	conflicts = append(conflicts, detectTimeslotOverflow(assignments, in)...)
	return conflicts
}

func detectInstructorConflicts(assignments []domain.Assignment) []Conflict {
	type key struct {
		instructor domain.ID
		timeslot   domain.ID
	}
	byKey := map[key][]instructorRole{}
	order := []key{}

	addRole := func(instructorID, timeslotID, projectID domain.ID, isSuper bool) {
		k := key{instructor: instructorID, timeslot: timeslotID}
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], instructorRole{projectID: projectID, isSuper: isSuper})
	}

	for _, a := range assignments {
		if a.SupervisorID != "" {
			addRole(a.SupervisorID, a.TimeslotID, a.ProjectID, true)
		}
		for _, jury := range a.JuryIDs {
			if jury != "" && jury != a.SupervisorID {
				addRole(jury, a.TimeslotID, a.ProjectID, false)
			}
		}
	}

	var conflicts []Conflict
	for _, k := range order {
		roles := byKey[k]
		if len(roles) <= 1 {
			continue
		}

		supervisorCount, juryCount := 0, 0
		projectIDs := make([]domain.ID, 0, len(roles))
		for _, r := range roles {
			if r.isSuper {
				supervisorCount++
			} else {
				juryCount++
			}
			projectIDs = append(projectIDs, r.projectID)
		}

		kind := KindInstructorSupervisorJuryClash
		switch {
		case supervisorCount > 0 && juryCount > 0:
			kind = KindInstructorSupervisorJuryClash
		case supervisorCount > 1:
			kind = KindInstructorDoubleSupervisor
		case juryCount > 1:
			kind = KindInstructorDoubleJury
		}

		conflicts = append(conflicts, Conflict{
			Kind:         kind,
			Severity:     severityFor(len(roles)),
			Strategy:     strategyFor(kind),
			TimeslotID:   k.timeslot,
			InstructorID: k.instructor,
			ProjectIDs:   projectIDs,
			Description:  fmt.Sprintf("instructor %s holds %d roles in timeslot %s", k.instructor, len(roles), k.timeslot),
		})
	}
	return conflicts
}

func detectClassroomConflicts(assignments []domain.Assignment) []Conflict {
	type key struct {
		classroom domain.ID
		timeslot  domain.ID
	}
	byKey := map[key][]domain.ID{}
	order := []key{}

	for _, a := range assignments {
		if a.ClassroomID == "" || a.TimeslotID == "" {
			continue
		}
		k := key{classroom: a.ClassroomID, timeslot: a.TimeslotID}
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], a.ProjectID)
	}

	var conflicts []Conflict
	for _, k := range order {
		projectIDs := byKey[k]
		if len(projectIDs) <= 1 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:        KindClassroomDoubleBooking,
			Severity:    severityFor(len(projectIDs)),
			Strategy:    StrategyRelocateToAvailableClassroom,
			TimeslotID:  k.timeslot,
			ClassroomID: k.classroom,
			ProjectIDs:  projectIDs,
			Description: fmt.Sprintf("classroom %s double-booked in timeslot %s by %d assignments", k.classroom, k.timeslot, len(projectIDs)),
		})
	}
	return conflicts
}

func detectTimeslotOverflow(assignments []domain.Assignment, in domain.Inputs) []Conflict {
	usage := map[domain.ID][]domain.ID{}
	for _, a := range assignments {
		if a.TimeslotID == "" {
			continue
		}
		usage[a.TimeslotID] = append(usage[a.TimeslotID], a.ProjectID)
	}

	var conflicts []Conflict
	for _, ts := range in.Timeslots {
		if ts.Capacity <= 0 {
			continue
		}
		projectIDs := usage[ts.ID]
		if len(projectIDs) <= ts.Capacity {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:        KindTimeslotOverflow,
			Severity:    severityFor(len(projectIDs) - ts.Capacity),
			Strategy:    StrategyRedistributeToOtherTimeslots,
			TimeslotID:  ts.ID,
			ProjectIDs:  projectIDs,
			Description: fmt.Sprintf("timeslot %s used by %d assignments, capacity %d", ts.ID, len(projectIDs), ts.Capacity),
		})
	}
	return conflicts
}

func strategyFor(k Kind) Strategy {
	switch k {
	case KindInstructorSupervisorJuryClash, KindInstructorDoubleSupervisor:
		return StrategyRescheduleOneAssignment
	case KindInstructorDoubleJury:
		return StrategyReplaceJuryMember
	case KindClassroomDoubleBooking:
		return StrategyRelocateToAvailableClassroom
	case KindTimeslotOverflow:
		return StrategyRedistributeToOtherTimeslots
	default:
		return StrategyRescheduleOneAssignment
	}
}

// bySeverityDesc sorts conflicts CRITICAL first, matching the resolver's
// iteration order requirement.
func bySeverityDesc(conflicts []Conflict) []Conflict {
	sorted := make([]Conflict, len(conflicts))
	copy(sorted, conflicts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Severity > sorted[j].Severity })
	return sorted
}

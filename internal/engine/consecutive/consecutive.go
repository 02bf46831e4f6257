// Package consecutive implements the soft-constraint-only consecutive
// grouping heuristic of spec.md §4.5.2: faculty are split into a high-load
// and a low-load group, paired across the split, and each pair's projects
// are packed back-to-back in a shared classroom with the opposite member
// standing in as jury.
package consecutive

import (
	"context"
	"math"
	"sort"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/engine"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
	"github.com/Ciriera/examboard-scheduler/internal/slotindex"
)

// Scoring weights for the slot-selection heuristic. These are fixed
// constants rather than config, matching spec.md's description of a
// blended score with no tunable knobs.
const (
	morningBonus          = 5.0
	classroomReuseBonus   = 8.0
	instructorBusyPenalty = 50.0
	conflictPenalty       = 100.0

	capacityFitBonus   = 2.0
	capacityFitPenalty = 2.0
)

// Engine is the consecutive-grouping heuristic. It never refuses to place a
// project; a poor fallback slot is accepted and surfaced via Diagnostics.
type Engine struct {
	weights       fitness.Weights
	in            domain.Inputs
	idx           *slotindex.Index
	classroomByID map[domain.ID]domain.Classroom
}

func New(weights fitness.Weights) *Engine {
	return &Engine{weights: fitness.WithDefaults(weights)}
}

func (e *Engine) Initialize(in domain.Inputs) error {
	if err := in.Validate(); err != nil {
		return err
	}
	e.in = in
	e.idx = slotindex.Build(in.Timeslots, in.Classrooms)
	e.classroomByID = make(map[domain.ID]domain.Classroom, len(in.Classrooms))
	for _, c := range in.Classrooms {
		e.classroomByID[c.ID] = c
	}
	return nil
}

// pair is one strategic pair: an upper-group (high-load) instructor and a
// lower-group (low-load) partner. lower is empty for an unpaired leftover
// when the faculty count is odd, in which case that instructor's own
// projects fall back to ordinary free-faculty jury selection.
type pair struct {
	upper domain.ID
	lower domain.ID
}

// strategicPairs sorts faculty by descending supervised-project count,
// splits at the midpoint into upper/lower groups, and zips them together.
func (e *Engine) strategicPairs() []pair {
	counts := map[domain.ID]int{}
	for _, p := range e.in.Projects {
		counts[p.SupervisorID]++
	}

	faculty := append([]domain.Instructor(nil), e.in.Faculty()...)
	sort.SliceStable(faculty, func(i, j int) bool {
		if counts[faculty[i].ID] != counts[faculty[j].ID] {
			return counts[faculty[i].ID] > counts[faculty[j].ID]
		}
		return faculty[i].ID < faculty[j].ID
	})

	mid := (len(faculty) + 1) / 2
	upper := faculty[:mid]
	lower := faculty[mid:]

	var pairs []pair
	for i := 0; i < len(lower); i++ {
		pairs = append(pairs, pair{upper: upper[i].ID, lower: lower[i].ID})
	}
	for i := len(lower); i < len(upper); i++ {
		pairs = append(pairs, pair{upper: upper[i].ID, lower: ""})
	}
	return pairs
}

func projectsOf(projects []domain.Project, supervisor domain.ID) []domain.Project {
	var out []domain.Project
	for _, p := range projects {
		if p.SupervisorID == supervisor {
			out = append(out, p)
		}
	}
	return out
}

type roomTime struct {
	classroom domain.ID
	timeslot  domain.ID
}

type instructorSlot struct {
	instructor domain.ID
	chrono     int
}

// chooseClassroom balances current load, reuse of a classroom either pair
// member already has assignments in, and capacity fit for the pair's
// combined project count.
func (e *Engine) chooseClassroom(roomLoad map[domain.ID]int, reused map[domain.ID]bool, requiredCount int) domain.ID {
	best := domain.ID("")
	bestScore := math.Inf(-1)
	for _, room := range e.in.Classrooms {
		score := -float64(roomLoad[room.ID])
		if reused[room.ID] {
			score += classroomReuseBonus
		}
		if room.Capacity > 0 {
			if room.Capacity >= requiredCount {
				score += capacityFitBonus
			} else {
				score -= capacityFitPenalty
			}
		}
		if best == "" || score > bestScore || (score == bestScore && room.ID < best) {
			bestScore = score
			best = room.ID
		}
	}
	return best
}

func (e *Engine) scoreSlot(slot slotindex.Slot, preferredRoom domain.ID, occupied map[roomTime]bool, busy map[instructorSlot]bool, supervisor, jury domain.ID) float64 {
	score := -float64(slot.Timeslot.ChronoIndex)
	if slot.Timeslot.Start.Before(domain.NewClock(12, 0)) {
		score += morningBonus
	}
	if slot.Classroom.ID == preferredRoom {
		score += classroomReuseBonus
	}
	if busy[instructorSlot{supervisor, slot.Timeslot.ChronoIndex}] {
		score -= instructorBusyPenalty
	}
	if jury != "" && busy[instructorSlot{jury, slot.Timeslot.ChronoIndex}] {
		score -= instructorBusyPenalty
	}
	if occupied[roomTime{slot.Classroom.ID, slot.Timeslot.ID}] {
		score -= conflictPenalty
	}
	return score
}

// bestSlot picks the highest-scoring still-unused-in-this-phase slot inside
// room. If the room's timeslots are exhausted it falls back to the whole
// grid, scored the same way, and reports that a fallback was used.
func (e *Engine) bestSlot(room domain.ID, used map[int]bool, occupied map[roomTime]bool, busy map[instructorSlot]bool, supervisor, jury domain.ID) (slotindex.Slot, bool) {
	var best slotindex.Slot
	bestScore := math.Inf(-1)
	found := false
	for _, ts := range e.idx.Ordered() {
		if used[ts.ChronoIndex] {
			continue
		}
		slot := slotindex.Slot{Classroom: e.classroomByID[room], Timeslot: ts}
		score := e.scoreSlot(slot, room, occupied, busy, supervisor, jury)
		if !found || score > bestScore {
			bestScore, best, found = score, slot, true
		}
	}
	if found {
		return best, false
	}

	for _, slot := range e.idx.Grid() {
		score := e.scoreSlot(slot, room, occupied, busy, supervisor, jury)
		if !found || score > bestScore {
			bestScore, best, found = score, slot, true
		}
	}
	return best, true
}

func (e *Engine) fallbackJury(supervisor domain.ID, chrono int, busy map[instructorSlot]bool) domain.ID {
	var anyOther domain.ID
	for _, f := range e.in.Faculty() {
		if f.ID == supervisor {
			continue
		}
		if anyOther == "" {
			anyOther = f.ID
		}
		if !busy[instructorSlot{f.ID, chrono}] {
			return f.ID
		}
	}
	return anyOther
}

// placePhase assigns every one of supervisor's projects, packed
// consecutively into room with fixedJury standing in as jury. fixedJury
// empty means this is an unpaired leftover: jury is chosen per-project by
// ordinary free-faculty fallback.
func (e *Engine) placePhase(projects []domain.Project, supervisor, fixedJury, room domain.ID, occupied map[roomTime]bool, busy map[instructorSlot]bool, roomLoad map[domain.ID]int, markRoomUsed func(domain.ID, domain.ID)) ([]domain.Assignment, []string) {
	if supervisor == "" {
		return nil, nil
	}
	var out []domain.Assignment
	var notes []string
	used := map[int]bool{}

	for _, p := range projects {
		slot, fellBack := e.bestSlot(room, used, occupied, busy, supervisor, fixedJury)
		jury := fixedJury
		if jury == "" {
			jury = e.fallbackJury(supervisor, slot.Timeslot.ChronoIndex, busy)
		}

		used[slot.Timeslot.ChronoIndex] = true
		occupied[roomTime{slot.Classroom.ID, slot.Timeslot.ID}] = true
		busy[instructorSlot{supervisor, slot.Timeslot.ChronoIndex}] = true
		markRoomUsed(supervisor, slot.Classroom.ID)
		var juryIDs []domain.ID
		if jury != "" {
			busy[instructorSlot{jury, slot.Timeslot.ChronoIndex}] = true
			markRoomUsed(jury, slot.Classroom.ID)
			juryIDs = []domain.ID{jury}
		}
		roomLoad[slot.Classroom.ID]++

		out = append(out, domain.Assignment{
			ProjectID:    p.ID,
			ClassroomID:  slot.Classroom.ID,
			TimeslotID:   slot.Timeslot.ID,
			ChronoIndex:  slot.Timeslot.ChronoIndex,
			SupervisorID: supervisor,
			JuryIDs:      juryIDs,
			ProjectKind:  p.Kind,
		})
		if fellBack {
			notes = append(notes, "consecutive-grouping: low-quality fallback slot accepted for project "+string(p.ID))
		}
	}
	return out, notes
}

func (e *Engine) Optimize(ctx context.Context, in domain.Inputs) (engine.Result, error) {
	if e.idx == nil {
		if err := e.Initialize(in); err != nil {
			return engine.Result{}, err
		}
	}

	roomLoad := map[domain.ID]int{}
	instructorRooms := map[domain.ID]map[domain.ID]bool{}
	occupied := map[roomTime]bool{}
	busy := map[instructorSlot]bool{}

	markRoomUsed := func(instructor, room domain.ID) {
		if instructorRooms[instructor] == nil {
			instructorRooms[instructor] = map[domain.ID]bool{}
		}
		instructorRooms[instructor][room] = true
	}

	var assignments []domain.Assignment
	var notes []string

	for _, pr := range e.strategicPairs() {
		select {
		case <-ctx.Done():
			report := fitness.Score(assignments, e.in, e.weights)
			return engine.Result{
				Assignments: assignments,
				Fitness:     report,
				Diagnostics: engine.Diagnostics{TimedOut: true, Notes: notes},
			}, nil
		default:
		}

		upperProjects := projectsOf(e.in.Projects, pr.upper)
		lowerProjects := projectsOf(e.in.Projects, pr.lower)

		reused := map[domain.ID]bool{}
		for room := range instructorRooms[pr.upper] {
			reused[room] = true
		}
		for room := range instructorRooms[pr.lower] {
			reused[room] = true
		}
		room := e.chooseClassroom(roomLoad, reused, len(upperProjects)+len(lowerProjects))

		placedA, notesA := e.placePhase(upperProjects, pr.upper, pr.lower, room, occupied, busy, roomLoad, markRoomUsed)
		assignments = append(assignments, placedA...)
		notes = append(notes, notesA...)

		placedB, notesB := e.placePhase(lowerProjects, pr.lower, pr.upper, room, occupied, busy, roomLoad, markRoomUsed)
		assignments = append(assignments, placedB...)
		notes = append(notes, notesB...)
	}

	report := fitness.Score(assignments, e.in, e.weights)
	return engine.Result{
		Assignments: assignments,
		Fitness:     report,
		Diagnostics: engine.Diagnostics{
			BackToBackViolation: len(notes) > 0,
			Notes:               notes,
		},
	}, nil
}

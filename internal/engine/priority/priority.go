// Package priority implements the deterministic two-phase baseline
// scheduler of spec.md §4.5.1.
package priority

import (
	"context"
	"time"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/engine"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
	"github.com/Ciriera/examboard-scheduler/internal/slotindex"
)

// Engine is the priority (two-phase) scheduler. It is the baseline every
// other engine is compared against: fast, deterministic, valid but not
// necessarily optimal.
type Engine struct {
	weights fitness.Weights
	in      domain.Inputs
	idx     *slotindex.Index
}

// New builds a priority engine scoring its own output with the given
// weights (DefaultWeights if the zero value is passed).
func New(weights fitness.Weights) *Engine {
	return &Engine{weights: fitness.WithDefaults(weights)}
}

func (e *Engine) Initialize(in domain.Inputs) error {
	if err := in.Validate(); err != nil {
		return err
	}
	e.in = in
	e.idx = slotindex.Build(in.Timeslots, in.Classrooms)
	return nil
}

type roomTime struct {
	classroom domain.ID
	timeslot  domain.ID
}

type instructorSlot struct {
	instructor domain.ID
	chrono     int
}

// placer carries the shared mutable state both phases commit into. It is
// not safe for concurrent use; Optimize is single-threaded per spec.md §5.
type placer struct {
	idx           *slotindex.Index
	in            domain.Inputs
	occupiedRooms map[roomTime]struct{}
	busy          map[instructorSlot]struct{}
}

func newPlacer(idx *slotindex.Index, in domain.Inputs) *placer {
	return &placer{
		idx:           idx,
		in:            in,
		occupiedRooms: map[roomTime]struct{}{},
		busy:          map[instructorSlot]struct{}{},
	}
}

func (pl *placer) isBusy(instructorID domain.ID, chrono int) bool {
	_, ok := pl.busy[instructorSlot{instructor: instructorID, chrono: chrono}]
	return ok
}

func (pl *placer) markBusy(instructorID domain.ID, chrono int) {
	pl.busy[instructorSlot{instructor: instructorID, chrono: chrono}] = struct{}{}
}

func (pl *placer) firstFreeJury(supervisorID domain.ID, chrono int) (domain.ID, bool) {
	for _, f := range pl.in.Faculty() {
		if f.ID == supervisorID {
			continue
		}
		if pl.isBusy(f.ID, chrono) {
			continue
		}
		return f.ID, true
	}
	return "", false
}

// tryPlace attempts to place project p into the first slot in candidates
// satisfying supervisor-per-timeslot uniqueness and jury availability.
func (pl *placer) tryPlace(p domain.Project, candidates []slotindex.Slot) (domain.Assignment, bool) {
	for _, slot := range candidates {
		rt := roomTime{classroom: slot.Classroom.ID, timeslot: slot.Timeslot.ID}
		if _, taken := pl.occupiedRooms[rt]; taken {
			continue
		}
		if pl.isBusy(p.SupervisorID, slot.Timeslot.ChronoIndex) {
			continue
		}
		jury, ok := pl.firstFreeJury(p.SupervisorID, slot.Timeslot.ChronoIndex)
		if !ok {
			continue
		}

		pl.occupiedRooms[rt] = struct{}{}
		pl.markBusy(p.SupervisorID, slot.Timeslot.ChronoIndex)
		pl.markBusy(jury, slot.Timeslot.ChronoIndex)

		return domain.Assignment{
			ProjectID:    p.ID,
			ClassroomID:  slot.Classroom.ID,
			TimeslotID:   slot.Timeslot.ID,
			ChronoIndex:  slot.Timeslot.ChronoIndex,
			SupervisorID: p.SupervisorID,
			JuryIDs:      []domain.ID{jury},
			ProjectKind:  p.Kind,
		}, true
	}
	return domain.Assignment{}, false
}

func (e *Engine) Optimize(ctx context.Context, in domain.Inputs) (engine.Result, error) {
	start := time.Now()
	if e.idx == nil {
		if err := e.Initialize(in); err != nil {
			return engine.Result{}, err
		}
	}

	var finals, interims []domain.Project
	for _, p := range e.in.Projects {
		if p.Kind == domain.ProjectKindFinal {
			finals = append(finals, p)
		} else {
			interims = append(interims, p)
		}
	}

	grid := e.idx.Grid()
	pl := newPlacer(e.idx, e.in)

	var assignments []domain.Assignment
	var unscheduled []domain.ID
	maxPhase1Chrono := -1

	for _, p := range finals {
		select {
		case <-ctx.Done():
			return e.timedOut(assignments, unscheduled)
		default:
		}
		a, ok := pl.tryPlace(p, grid)
		if !ok {
			unscheduled = append(unscheduled, p.ID)
			continue
		}
		assignments = append(assignments, a)
		if a.ChronoIndex > maxPhase1Chrono {
			maxPhase1Chrono = a.ChronoIndex
		}
	}

	priorityViolation := false
	var laterGrid []slotindex.Slot
	for _, slot := range grid {
		if slot.Timeslot.ChronoIndex > maxPhase1Chrono {
			laterGrid = append(laterGrid, slot)
		}
	}

	for _, p := range interims {
		select {
		case <-ctx.Done():
			return e.timedOut(assignments, unscheduled)
		default:
		}
		a, ok := pl.tryPlace(p, laterGrid)
		if !ok {
			priorityViolation = true
			a, ok = pl.tryPlace(p, grid)
		}
		if !ok {
			unscheduled = append(unscheduled, p.ID)
			continue
		}
		assignments = append(assignments, a)
	}

	report := fitness.Score(assignments, e.in, e.weights)
	penalties := engine.ComputePenalties(assignments, time.Since(start))
	return engine.Result{
		Assignments: assignments,
		Fitness:     report,
		Diagnostics: engine.Diagnostics{
			PriorityViolation:   priorityViolation,
			UnscheduledProjects: unscheduled,
			Penalties:           &penalties,
		},
	}, nil
}

func (e *Engine) timedOut(assignments []domain.Assignment, unscheduled []domain.ID) (engine.Result, error) {
	report := fitness.Score(assignments, e.in, e.weights)
	return engine.Result{
		Assignments: assignments,
		Fitness:     report,
		Diagnostics: engine.Diagnostics{
			TimedOut:            true,
			UnscheduledProjects: unscheduled,
		},
	}, nil
}

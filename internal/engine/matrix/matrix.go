// Package matrix implements the Hungarian-algorithm reference engine of
// spec.md §4.5.6: each chronological round poses a min-cost perfect
// matching between the still-unplaced projects of the current phase (FINAL
// before INTERIM) and the classrooms available at that round, where cost is
// the marginal increase in a per-instructor penalty matrix tracking
// chronological continuity (H1), workload balance (H2) and classroom
// switches (H3). Grounded on original_source/app/algorithms/
// hungarian_algorithm.py's objective; no Go assignment-solver library
// appears anywhere in the retrieved corpus, so Solve (hungarian.go) is a
// from-scratch textbook implementation.
package matrix

import (
	"context"
	"math"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/engine"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
	"github.com/Ciriera/examboard-scheduler/internal/slotindex"
)

// Penalty weights mirror hungarian_algorithm.py's C1/C2/C3: workload
// uniformity dominates, gap and classroom-change are minor tie-breakers.
const (
	gapPenaltyWeight       = 1.0
	workloadPenaltyWeight  = 5.0
	classroomChangeWeight  = 1.0
	workloadToleranceBand  = 2.0
	noRoomPenalty          = 1e6
)

// Engine is the round-by-round Hungarian-matching reference engine.
type Engine struct {
	weights fitness.Weights
	in      domain.Inputs
	idx     *slotindex.Index
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
	return nil
}

// duty records one instructor's chronological position and classroom for a
// placed project; dutiesOf[i] is instructor i's matrix M_i, appended to in
// chronological order as rounds proceed.
type duty struct {
	chrono    int
	classroom domain.ID
}

type placedProject struct {
	project domain.Project
	room    domain.Classroom
}

func (e *Engine) Optimize(ctx context.Context, in domain.Inputs) (engine.Result, error) {
	if e.idx == nil {
		if err := e.Initialize(in); err != nil {
			return engine.Result{}, err
		}
	}

	dutiesOf := map[domain.ID][]duty{}
	totalDuty := map[domain.ID]int{}
	var assignments []domain.Assignment
	var unscheduled []domain.ID
	timedOut := false

	maxFinalChrono, finalLeft, finalTimedOut := e.runPhase(ctx, domain.ProjectKindFinal, -1, dutiesOf, totalDuty, &assignments)
	unscheduled = append(unscheduled, finalLeft...)
	timedOut = timedOut || finalTimedOut

	_, interimLeft, interimTimedOut := e.runPhase(ctx, domain.ProjectKindInterim, maxFinalChrono, dutiesOf, totalDuty, &assignments)
	unscheduled = append(unscheduled, interimLeft...)
	timedOut = timedOut || interimTimedOut

	report := fitness.Score(assignments, e.in, e.weights)
	return engine.Result{
		Assignments: assignments,
		Fitness:     report,
		Diagnostics: engine.Diagnostics{
			TimedOut:            timedOut,
			UnscheduledProjects: unscheduled,
		},
	}, nil
}

// runPhase sweeps chronological positions after afterChrono, placing one
// round of the given kind's still-unplaced projects per position via a
// Hungarian min-cost matching against that position's classrooms. It
// returns the highest chronological position used (so the next phase can
// start strictly after it, preserving the FINAL-before-INTERIM invariant).
func (e *Engine) runPhase(ctx context.Context, kind domain.ProjectKind, afterChrono int, dutiesOf map[domain.ID][]duty, totalDuty map[domain.ID]int, assignments *[]domain.Assignment) (maxChrono int, unscheduled []domain.ID, timedOut bool) {
	maxChrono = afterChrono

	var order []domain.ID
	remaining := map[domain.ID]domain.Project{}
	for _, p := range e.in.Projects {
		if p.Kind == kind {
			order = append(order, p.ID)
			remaining[p.ID] = p
		}
	}

	for _, ts := range e.idx.Ordered() {
		if ts.ChronoIndex <= afterChrono || len(remaining) == 0 {
			continue
		}

		select {
		case <-ctx.Done():
			timedOut = true
			return maxChrono, remainingIDs(order, remaining), timedOut
		default:
		}

		var eligible []domain.Project
		for _, id := range order {
			if p, ok := remaining[id]; ok {
				eligible = append(eligible, p)
			}
		}
		if len(eligible) == 0 {
			continue
		}

		rooms := e.in.Classrooms
		placed := e.matchRound(eligible, rooms, ts.ChronoIndex, dutiesOf, totalDuty)
		if len(placed) == 0 {
			continue
		}

		busyAt := map[domain.ID]bool{}
		for _, pp := range placed {
			busyAt[pp.project.SupervisorID] = true
		}

		for _, pp := range placed {
			var jury domain.ID
			for _, f := range e.in.Faculty() {
				if f.ID == pp.project.SupervisorID || busyAt[f.ID] {
					continue
				}
				jury = f.ID
				busyAt[f.ID] = true
				break
			}
			var juryIDs []domain.ID
			if jury != "" {
				juryIDs = []domain.ID{jury}
			}

			*assignments = append(*assignments, domain.Assignment{
				ProjectID:    pp.project.ID,
				ClassroomID:  pp.room.ID,
				TimeslotID:   ts.ID,
				ChronoIndex:  ts.ChronoIndex,
				SupervisorID: pp.project.SupervisorID,
				JuryIDs:      juryIDs,
				ProjectKind:  pp.project.Kind,
			})

			dutiesOf[pp.project.SupervisorID] = append(dutiesOf[pp.project.SupervisorID], duty{chrono: ts.ChronoIndex, classroom: pp.room.ID})
			totalDuty[pp.project.SupervisorID]++
			if jury != "" {
				dutiesOf[jury] = append(dutiesOf[jury], duty{chrono: ts.ChronoIndex, classroom: pp.room.ID})
				totalDuty[jury]++
			}

			delete(remaining, pp.project.ID)
		}
		maxChrono = ts.ChronoIndex
	}

	return maxChrono, remainingIDs(order, remaining), timedOut
}

func remainingIDs(order []domain.ID, remaining map[domain.ID]domain.Project) []domain.ID {
	var out []domain.ID
	for _, id := range order {
		if _, ok := remaining[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// matchRound builds the cost matrix for one chronological round and solves
// it via Solve. Rows are eligible projects, columns are classrooms; the
// matrix is padded square with zero-cost phantom projects (fewer eligible
// than rooms) or prohibitively expensive phantom rooms (more eligible than
// rooms, deferring the overflow to a later round).
func (e *Engine) matchRound(eligible []domain.Project, rooms []domain.Classroom, chrono int, dutiesOf map[domain.ID][]duty, totalDuty map[domain.ID]int) []placedProject {
	n := len(eligible)
	m := len(rooms)
	size := n
	if m > size {
		size = m
	}

	cost := make([][]float64, size)
	for i := range cost {
		cost[i] = make([]float64, size)
	}
	for i, p := range eligible {
		for j, room := range rooms {
			cost[i][j] = e.marginalPenalty(p.SupervisorID, chrono, room.ID, dutiesOf, totalDuty)
		}
		for j := m; j < size; j++ {
			cost[i][j] = noRoomPenalty
		}
	}
	for i := n; i < size; i++ {
		for j := range cost[i] {
			cost[i][j] = 0
		}
	}

	rowToCol := Solve(cost)

	var placed []placedProject
	for i := 0; i < n; i++ {
		j := rowToCol[i]
		if j < 0 || j >= m {
			continue
		}
		placed = append(placed, placedProject{project: eligible[i], room: rooms[j]})
	}
	return placed
}

func (e *Engine) marginalPenalty(instructor domain.ID, chrono int, room domain.ID, dutiesOf map[domain.ID][]duty, totalDuty map[domain.ID]int) float64 {
	gap := 0.0
	classroomChange := 0.0
	if prior := dutiesOf[instructor]; len(prior) > 0 {
		last := prior[len(prior)-1]
		if chrono > last.chrono+1 {
			gap = float64(chrono - last.chrono - 1)
		}
		if last.classroom != room {
			classroomChange = 1
		}
	}

	mean := e.meanDuty(totalDuty)
	projected := float64(totalDuty[instructor] + 1)
	deviation := math.Abs(projected - mean)
	workload := 0.0
	if deviation > workloadToleranceBand {
		workload = deviation - workloadToleranceBand
	}

	return gapPenaltyWeight*gap + workloadPenaltyWeight*workload + classroomChangeWeight*classroomChange
}

func (e *Engine) meanDuty(totalDuty map[domain.ID]int) float64 {
	faculty := e.in.Faculty()
	if len(faculty) == 0 {
		return 0
	}
	sum := 0
	for _, f := range faculty {
		sum += totalDuty[f.ID]
	}
	return float64(sum) / float64(len(faculty))
}

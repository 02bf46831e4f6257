// Package localsearch implements the local-search/metaheuristic engine
// family of spec.md §4.5.4: hill-climbing, tabu search, and simulated
// annealing over four neighborhood moves (swap classrooms, swap timeslots,
// replace jury1, reassign wholesale), all starting from the priority
// scheduler's output as the initial feasible schedule — spec.md's own
// stated alternative to a repaired random permutation. No local-search
// library exists anywhere in the retrieved corpus (the teacher's stack is
// an HTTP API, not a solver), so the search loop itself is a from-scratch
// textbook implementation of the three variants; only the neighborhood
// structure and acceptance criteria are prescribed by spec.md.
package localsearch

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/engine"
	"github.com/Ciriera/examboard-scheduler/internal/engine/priority"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
	"github.com/Ciriera/examboard-scheduler/internal/slotindex"
)

// Variant selects which acceptance criterion the search loop uses.
type Variant int

const (
	VariantHillClimb Variant = iota
	VariantTabu
	VariantAnnealing
)

const (
	defaultIterations      = 500
	defaultTabuCapacity    = 20
	defaultAspirationRatio = 1.05
	defaultInitialTemp     = 10.0
	defaultCoolingRate     = 0.05
	defaultTempFloor       = 0.01
	stagnationLimit        = 30
	diversifyFraction      = 0.2
)

// Engine runs one of the three local-search variants. Construct via
// NewHillClimb, NewTabu, or NewAnnealing rather than New directly.
type Engine struct {
	weights fitness.Weights
	variant Variant
	seed    int64

	iterations      int
	tabuCapacity    int
	aspirationRatio float64
	initialTemp     float64
	coolingRate     float64
	tempFloor       float64

	in  domain.Inputs
	idx *slotindex.Index
}

func NewHillClimb(weights fitness.Weights, seed int64) *Engine {
	return &Engine{weights: fitness.WithDefaults(weights), variant: VariantHillClimb, seed: seed, iterations: defaultIterations}
}

func NewTabu(weights fitness.Weights, seed int64) *Engine {
	return &Engine{
		weights: fitness.WithDefaults(weights), variant: VariantTabu, seed: seed,
		iterations: defaultIterations, tabuCapacity: defaultTabuCapacity, aspirationRatio: defaultAspirationRatio,
	}
}

func NewAnnealing(weights fitness.Weights, seed int64) *Engine {
	return &Engine{
		weights: fitness.WithDefaults(weights), variant: VariantAnnealing, seed: seed,
		iterations: defaultIterations, initialTemp: defaultInitialTemp, coolingRate: defaultCoolingRate, tempFloor: defaultTempFloor,
	}
}

func (e *Engine) Initialize(in domain.Inputs) error {
	if err := in.Validate(); err != nil {
		return err
	}
	e.in = in
	e.idx = slotindex.Build(in.Timeslots, in.Classrooms)
	return nil
}

func (e *Engine) Optimize(ctx context.Context, in domain.Inputs) (engine.Result, error) {
	if e.idx == nil {
		if err := e.Initialize(in); err != nil {
			return engine.Result{}, err
		}
	}

	seedEngine := priority.New(e.weights)
	if err := seedEngine.Initialize(in); err != nil {
		return engine.Result{}, err
	}
	seedResult, err := seedEngine.Optimize(ctx, in)
	if err != nil {
		return engine.Result{}, err
	}

	current := cloneAssignments(seedResult.Assignments)
	sort.Slice(current, func(i, j int) bool { return current[i].ProjectID < current[j].ProjectID })

	rng := rand.New(rand.NewSource(e.seed))
	currentReport := fitness.Score(current, e.in, e.weights)
	best := cloneAssignments(current)
	bestReport := currentReport

	var tabu *tabuList
	if e.variant == VariantTabu {
		tabu = newTabuList(e.tabuCapacity)
	}
	temp := e.initialTemp
	stagnation := 0
	timedOut := false

	for iter := 0; iter < e.iterations; iter++ {
		select {
		case <-ctx.Done():
			timedOut = true
		default:
		}
		if timedOut {
			break
		}
		if e.variant == VariantAnnealing && temp < e.tempFloor {
			break
		}

		if stagnation >= stagnationLimit {
			current = e.diversify(current, rng)
			currentReport = fitness.Score(current, e.in, e.weights)
			stagnation = 0
			continue
		}

		candidate, sig, ok := e.neighbor(current, rng)
		if !ok {
			stagnation++
			continue
		}
		candidateReport := fitness.Score(candidate, e.in, e.weights)
		delta := candidateReport.Total - currentReport.Total

		accept := false
		switch e.variant {
		case VariantHillClimb:
			accept = delta > 0
		case VariantTabu:
			isTabu := tabu.contains(sig)
			aspirationMet := candidateReport.Total > bestReport.Total*e.aspirationRatio
			accept = delta > 0 && (!isTabu || aspirationMet)
		case VariantAnnealing:
			if delta >= 0 {
				accept = true
			} else if temp > 0 {
				accept = rng.Float64() < math.Exp(delta/temp)
			}
		}

		if accept {
			current = candidate
			currentReport = candidateReport
			if e.variant == VariantTabu {
				tabu.push(sig)
			}
			if candidateReport.Total > bestReport.Total {
				best = cloneAssignments(candidate)
				bestReport = candidateReport
				stagnation = 0
			} else {
				stagnation++
			}
		} else {
			stagnation++
		}

		if e.variant == VariantAnnealing {
			temp *= 1 - e.coolingRate
		}
	}

	return engine.Result{
		Assignments: best,
		Fitness:     bestReport,
		Diagnostics: engine.Diagnostics{
			Seed:     e.seed,
			TimedOut: timedOut,
		},
	}, nil
}

func cloneAssignments(in []domain.Assignment) []domain.Assignment {
	out := make([]domain.Assignment, len(in))
	for i, a := range in {
		jury := make([]domain.ID, len(a.JuryIDs))
		copy(jury, a.JuryIDs)
		a.JuryIDs = jury
		out[i] = a
	}
	return out
}

// neighbor applies one randomly chosen move to a clone of current and
// validates the result. An infeasible candidate is reported as !ok so the
// caller treats the attempt as a stagnation tick rather than retrying
// internally, keeping each outer iteration O(1) moves.
func (e *Engine) neighbor(current []domain.Assignment, rng *rand.Rand) ([]domain.Assignment, string, bool) {
	if len(current) == 0 {
		return nil, "", false
	}
	candidate := cloneAssignments(current)

	switch rng.Intn(4) {
	case 0: // swap classrooms
		if len(candidate) < 2 {
			return nil, "", false
		}
		i, j := rng.Intn(len(candidate)), rng.Intn(len(candidate))
		if i == j {
			return nil, "", false
		}
		candidate[i].ClassroomID, candidate[j].ClassroomID = candidate[j].ClassroomID, candidate[i].ClassroomID
		if !isValid(candidate) {
			return nil, "", false
		}
		return candidate, "swapRoom:" + string(current[i].ProjectID) + "," + string(current[j].ProjectID), true

	case 1: // swap timeslots
		if len(candidate) < 2 {
			return nil, "", false
		}
		i, j := rng.Intn(len(candidate)), rng.Intn(len(candidate))
		if i == j {
			return nil, "", false
		}
		ci, cj := e.chronoOf(candidate[i].TimeslotID), e.chronoOf(candidate[j].TimeslotID)
		candidate[i].TimeslotID, candidate[j].TimeslotID = candidate[j].TimeslotID, candidate[i].TimeslotID
		candidate[i].ChronoIndex, candidate[j].ChronoIndex = cj, ci
		if !isValid(candidate) {
			return nil, "", false
		}
		return candidate, "swapSlot:" + string(current[i].ProjectID) + "," + string(current[j].ProjectID), true

	case 2: // replace jury1
		i := rng.Intn(len(candidate))
		faculty := e.in.Faculty()
		if len(faculty) == 0 {
			return nil, "", false
		}
		f := faculty[rng.Intn(len(faculty))]
		if f.ID == candidate[i].SupervisorID {
			return nil, "", false
		}
		candidate[i].JuryIDs = []domain.ID{f.ID}
		if !isValid(candidate) {
			return nil, "", false
		}
		return candidate, "jury:" + string(current[i].ProjectID) + "->" + string(f.ID), true

	default: // reassign wholesale
		i := rng.Intn(len(candidate))
		grid := e.idx.Grid()
		if len(grid) == 0 {
			return nil, "", false
		}
		slot := grid[rng.Intn(len(grid))]
		candidate[i].ClassroomID = slot.Classroom.ID
		candidate[i].TimeslotID = slot.Timeslot.ID
		candidate[i].ChronoIndex = slot.Timeslot.ChronoIndex
		if !isValid(candidate) {
			return nil, "", false
		}
		return candidate, "reassign:" + string(current[i].ProjectID), true
	}
}

func (e *Engine) chronoOf(id domain.ID) int {
	c, _ := e.idx.ChronoIndex(id)
	return c
}

// diversify reassigns a random subset of projects to random slots, keeping
// only the reassignments that stay feasible. Used on stagnation.
func (e *Engine) diversify(current []domain.Assignment, rng *rand.Rand) []domain.Assignment {
	candidate := cloneAssignments(current)
	grid := e.idx.Grid()
	if len(grid) == 0 {
		return candidate
	}

	count := int(float64(len(candidate)) * diversifyFraction)
	if count < 1 {
		count = 1
	}

	for k := 0; k < count; k++ {
		i := rng.Intn(len(candidate))
		slot := grid[rng.Intn(len(grid))]
		trial := cloneAssignments(candidate)
		trial[i].ClassroomID = slot.Classroom.ID
		trial[i].TimeslotID = slot.Timeslot.ID
		trial[i].ChronoIndex = slot.Timeslot.ChronoIndex
		if isValid(trial) {
			candidate = trial
		}
	}
	return candidate
}

// isValid checks the hard constraints a neighborhood move must preserve:
// no (classroom, timeslot) used twice, no instructor double-booked within
// a timeslot, and jury1 never equal to the supervisor.
func isValid(assignments []domain.Assignment) bool {
	roomTime := map[string]bool{}
	instructorTime := map[string]bool{}

	for _, a := range assignments {
		rtKey := string(a.ClassroomID) + "|" + string(a.TimeslotID)
		if roomTime[rtKey] {
			return false
		}
		roomTime[rtKey] = true

		participants := append([]domain.ID{a.SupervisorID}, a.JuryIDs...)
		seen := map[domain.ID]bool{}
		for _, instr := range participants {
			if seen[instr] {
				return false
			}
			seen[instr] = true
			key := string(instr) + "|" + string(a.TimeslotID)
			if instructorTime[key] {
				return false
			}
			instructorTime[key] = true
		}
		for _, j := range a.JuryIDs {
			if j == a.SupervisorID {
				return false
			}
		}
	}
	return true
}

// tabuList is a fixed-capacity FIFO of recent move signatures.
type tabuList struct {
	capacity int
	order    []string
	set      map[string]int
}

func newTabuList(capacity int) *tabuList {
	if capacity <= 0 {
		capacity = defaultTabuCapacity
	}
	return &tabuList{capacity: capacity, set: map[string]int{}}
}

func (t *tabuList) contains(sig string) bool { return t.set[sig] > 0 }

func (t *tabuList) push(sig string) {
	t.order = append(t.order, sig)
	t.set[sig]++
	if len(t.order) > t.capacity {
		oldest := t.order[0]
		t.order = t.order[1:]
		t.set[oldest]--
		if t.set[oldest] <= 0 {
			delete(t.set, oldest)
		}
	}
}

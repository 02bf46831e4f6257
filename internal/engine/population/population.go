// Package population implements the population-based engine family of
// spec.md §4.5.5: a genetic variant (tournament selection, single-point
// crossover with repair, elite preservation, worst-replaced each
// generation) and a multi-objective NSGA-style variant (non-dominated
// sorting into fronts, crowding-distance diversity within a front). Both
// start their population from perturbed copies of the priority scheduler's
// output, the same seeding strategy localsearch uses. No genetic-algorithm
// or NSGA library exists anywhere in the retrieved corpus, so the
// selection/crossover/sorting machinery here is a from-scratch
// implementation of the textbook algorithms spec.md names.
package population

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

type Variant int

const (
	VariantGenetic Variant = iota
	VariantNSGA
)

const (
	defaultPopulationSize  = 20
	defaultGenerations     = 100
	defaultTournamentSize  = 3
	eliteFraction          = 0.10
	defaultStagnationLimit = 20
	seedMutationRounds     = 3
)

// Engine runs one of the two population-based variants. Construct via
// NewGenetic or NewNSGA rather than New directly.
type Engine struct {
	weights        fitness.Weights
	variant        Variant
	seed           int64
	populationSize int
	generations    int
	tournamentSize int

	in  domain.Inputs
	idx *slotindex.Index
}

func NewGenetic(weights fitness.Weights, seed int64) *Engine {
	return &Engine{
		weights: fitness.WithDefaults(weights), variant: VariantGenetic, seed: seed,
		populationSize: defaultPopulationSize, generations: defaultGenerations, tournamentSize: defaultTournamentSize,
	}
}

func NewNSGA(weights fitness.Weights, seed int64) *Engine {
	return &Engine{
		weights: fitness.WithDefaults(weights), variant: VariantNSGA, seed: seed,
		populationSize: defaultPopulationSize, generations: defaultGenerations, tournamentSize: defaultTournamentSize,
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

type individual struct {
	assignments []domain.Assignment
	report      fitness.Report
}

func (e *Engine) newIndividual(assignments []domain.Assignment) individual {
	return individual{assignments: assignments, report: fitness.Score(assignments, e.in, e.weights)}
}

func (e *Engine) Optimize(ctx context.Context, in domain.Inputs) (engine.Result, error) {
	if e.idx == nil {
		if err := e.Initialize(in); err != nil {
			return engine.Result{}, err
		}
	}

	seed, err := e.seedIndividual(ctx)
	if err != nil {
		return engine.Result{}, err
	}

	rng := rand.New(rand.NewSource(e.seed))

	pop := make([]individual, e.populationSize)
	pop[0] = e.newIndividual(seed)
	for i := 1; i < e.populationSize; i++ {
		ind := cloneAssignments(seed)
		for k := 0; k < seedMutationRounds; k++ {
			e.mutate(ind, rng)
		}
		pop[i] = e.newIndividual(ind)
	}

	best := bestOf(pop)
	stagnation := 0
	timedOut := false

	for gen := 0; gen < e.generations; gen++ {
		select {
		case <-ctx.Done():
			timedOut = true
		default:
		}
		if timedOut {
			break
		}
		if stagnation >= defaultStagnationLimit {
			break
		}

		eliteCount := int(float64(e.populationSize) * eliteFraction)
		if eliteCount < 1 {
			eliteCount = 1
		}

		ranked := e.rank(pop)
		next := make([]individual, 0, e.populationSize)
		next = append(next, ranked[:eliteCount]...)

		for len(next) < e.populationSize {
			parentA := e.tournamentSelect(pop, rng)
			parentB := e.tournamentSelect(pop, rng)
			childAssignments := e.crossover(parentA.assignments, parentB.assignments, rng)
			e.mutate(childAssignments, rng)
			next = append(next, e.newIndividual(childAssignments))
		}
		pop = next

		candidate := bestOf(pop)
		if candidate.report.Total > best.report.Total {
			best = candidate
			stagnation = 0
		} else {
			stagnation++
		}
	}

	return engine.Result{
		Assignments: best.assignments,
		Fitness:     best.report,
		Diagnostics: engine.Diagnostics{Seed: e.seed, TimedOut: timedOut},
	}, nil
}

func (e *Engine) seedIndividual(ctx context.Context) ([]domain.Assignment, error) {
	seedEngine := priority.New(e.weights)
	if err := seedEngine.Initialize(e.in); err != nil {
		return nil, err
	}
	result, err := seedEngine.Optimize(ctx, e.in)
	if err != nil {
		return nil, err
	}
	ind := cloneAssignments(result.Assignments)
	sort.Slice(ind, func(i, j int) bool { return ind[i].ProjectID < ind[j].ProjectID })
	return ind, nil
}

func bestOf(pop []individual) individual {
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.report.Total > best.report.Total {
			best = ind
		}
	}
	return best
}

// rank orders the population best-first: by descending Total for the
// genetic variant, by ascending Pareto front then descending crowding
// distance for the NSGA variant. It is used to pick elites each generation.
func (e *Engine) rank(pop []individual) []individual {
	out := append([]individual(nil), pop...)
	if e.variant == VariantGenetic {
		sort.SliceStable(out, func(i, j int) bool { return out[i].report.Total > out[j].report.Total })
		return out
	}

	fronts := nonDominatedSort(out)
	ranked := make([]individual, 0, len(out))
	for _, front := range fronts {
		dist := crowdingDistance(front, out)
		sort.SliceStable(front, func(i, j int) bool { return dist[front[i]] > dist[front[j]] })
		for _, idx := range front {
			ranked = append(ranked, out[idx])
		}
	}
	return ranked
}

func (e *Engine) tournamentSelect(pop []individual, rng *rand.Rand) individual {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < e.tournamentSize; i++ {
		cand := pop[rng.Intn(len(pop))]
		if e.variant == VariantNSGA {
			if dominates(objectiveVector(cand.report), objectiveVector(best.report)) {
				best = cand
			}
		} else if cand.report.Total > best.report.Total {
			best = cand
		}
	}
	return best
}

// crossover splices parent assignment lists (aligned by the shared,
// pre-sorted project order) at a random cut point, then repairs any
// duplicate-room or double-booked-instructor collisions the splice
// introduces.
func (e *Engine) crossover(a, b []domain.Assignment, rng *rand.Rand) []domain.Assignment {
	n := len(a)
	if n == 0 {
		return cloneAssignments(a)
	}
	cut := rng.Intn(n)
	child := make([]domain.Assignment, n)
	for i := 0; i < n; i++ {
		if i < cut {
			child[i] = cloneAssignment(a[i])
		} else {
			child[i] = cloneAssignment(b[i])
		}
	}
	e.repair(child)
	return child
}

func (e *Engine) repair(child []domain.Assignment) {
	occupied := map[string]bool{}
	instructorBusy := map[string]bool{}
	grid := e.idx.Grid()

	for i := range child {
		rtKey := string(child[i].ClassroomID) + "|" + string(child[i].TimeslotID)
		supKey := string(child[i].SupervisorID) + "|" + string(child[i].TimeslotID)
		conflict := occupied[rtKey] || instructorBusy[supKey]
		for _, j := range child[i].JuryIDs {
			if j == child[i].SupervisorID || instructorBusy[string(j)+"|"+string(child[i].TimeslotID)] {
				conflict = true
			}
		}

		if conflict {
			for _, slot := range grid {
				rt := string(slot.Classroom.ID) + "|" + string(slot.Timeslot.ID)
				sk := string(child[i].SupervisorID) + "|" + string(slot.Timeslot.ID)
				if occupied[rt] || instructorBusy[sk] {
					continue
				}
				var jury domain.ID
				for _, f := range e.in.Faculty() {
					if f.ID == child[i].SupervisorID {
						continue
					}
					if instructorBusy[string(f.ID)+"|"+string(slot.Timeslot.ID)] {
						continue
					}
					jury = f.ID
					break
				}
				child[i].ClassroomID = slot.Classroom.ID
				child[i].TimeslotID = slot.Timeslot.ID
				child[i].ChronoIndex = slot.Timeslot.ChronoIndex
				if jury != "" {
					child[i].JuryIDs = []domain.ID{jury}
				} else {
					child[i].JuryIDs = nil
				}
				break
			}
		}

		occupied[string(child[i].ClassroomID)+"|"+string(child[i].TimeslotID)] = true
		instructorBusy[string(child[i].SupervisorID)+"|"+string(child[i].TimeslotID)] = true
		for _, j := range child[i].JuryIDs {
			instructorBusy[string(j)+"|"+string(child[i].TimeslotID)] = true
		}
	}
}

// mutate applies one neighborhood move: it relocates a random project to
// the first slot (scanned from a random offset) that stays feasible
// against the rest of the individual, re-picking a jury that fits.
func (e *Engine) mutate(ind []domain.Assignment, rng *rand.Rand) {
	if len(ind) == 0 {
		return
	}
	i := rng.Intn(len(ind))
	grid := e.idx.Grid()
	if len(grid) == 0 {
		return
	}

	occupied := map[string]bool{}
	instructorBusy := map[string]bool{}
	for k, a := range ind {
		if k == i {
			continue
		}
		occupied[string(a.ClassroomID)+"|"+string(a.TimeslotID)] = true
		instructorBusy[string(a.SupervisorID)+"|"+string(a.TimeslotID)] = true
		for _, j := range a.JuryIDs {
			instructorBusy[string(j)+"|"+string(a.TimeslotID)] = true
		}
	}

	start := rng.Intn(len(grid))
	for offset := 0; offset < len(grid); offset++ {
		slot := grid[(start+offset)%len(grid)]
		rtKey := string(slot.Classroom.ID) + "|" + string(slot.Timeslot.ID)
		supKey := string(ind[i].SupervisorID) + "|" + string(slot.Timeslot.ID)
		if occupied[rtKey] || instructorBusy[supKey] {
			continue
		}

		var jury domain.ID
		for _, f := range e.in.Faculty() {
			if f.ID == ind[i].SupervisorID {
				continue
			}
			if instructorBusy[string(f.ID)+"|"+string(slot.Timeslot.ID)] {
				continue
			}
			jury = f.ID
			break
		}

		ind[i].ClassroomID = slot.Classroom.ID
		ind[i].TimeslotID = slot.Timeslot.ID
		ind[i].ChronoIndex = slot.Timeslot.ChronoIndex
		if jury != "" {
			ind[i].JuryIDs = []domain.ID{jury}
		} else {
			ind[i].JuryIDs = nil
		}
		return
	}
}

func cloneAssignments(in []domain.Assignment) []domain.Assignment {
	out := make([]domain.Assignment, len(in))
	for i, a := range in {
		out[i] = cloneAssignment(a)
	}
	return out
}

func cloneAssignment(a domain.Assignment) domain.Assignment {
	jury := make([]domain.ID, len(a.JuryIDs))
	copy(jury, a.JuryIDs)
	a.JuryIDs = jury
	return a
}

// objectiveVector converts a fitness report into an all-higher-is-better
// vector across the eight Standard Fitness components, for Pareto
// comparison: the two penalty components are inverted.
func objectiveVector(r fitness.Report) []float64 {
	c := r.Components
	return []float64{
		c.Coverage, c.Consecutive, c.LoadBalance, c.ClassroomEfficiency,
		c.TimeEfficiency, 100 - c.ConflictPenalty, 100 - c.GapPenalty, c.EarlySlotBonus,
	}
}

func dominates(a, b []float64) bool {
	betterOrEqual := true
	strictlyBetter := false
	for i := range a {
		if a[i] < b[i] {
			betterOrEqual = false
			break
		}
		if a[i] > b[i] {
			strictlyBetter = true
		}
	}
	return betterOrEqual && strictlyBetter
}

// nonDominatedSort implements the standard NSGA-II fast sort, grouping
// population indices into successive Pareto fronts.
func nonDominatedSort(pop []individual) [][]int {
	n := len(pop)
	dominatedBy := make([][]int, n)
	dominationCount := make([]int, n)
	vectors := make([][]float64, n)
	for i := range pop {
		vectors[i] = objectiveVector(pop[i].report)
	}

	var first []int
	for p := 0; p < n; p++ {
		for q := 0; q < n; q++ {
			if p == q {
				continue
			}
			if dominates(vectors[p], vectors[q]) {
				dominatedBy[p] = append(dominatedBy[p], q)
			} else if dominates(vectors[q], vectors[p]) {
				dominationCount[p]++
			}
		}
		if dominationCount[p] == 0 {
			first = append(first, p)
		}
	}

	fronts := [][]int{first}
	current := first
	for len(current) > 0 {
		var next []int
		for _, p := range current {
			for _, q := range dominatedBy[p] {
				dominationCount[q]--
				if dominationCount[q] == 0 {
					next = append(next, q)
				}
			}
		}
		if len(next) > 0 {
			fronts = append(fronts, next)
		}
		current = next
	}
	return fronts
}

// crowdingDistance computes the standard NSGA-II crowding distance for
// every index in front, relative to the rest of front only.
func crowdingDistance(front []int, pop []individual) map[int]float64 {
	dist := make(map[int]float64, len(front))
	for _, idx := range front {
		dist[idx] = 0
	}
	if len(front) <= 2 {
		for _, idx := range front {
			dist[idx] = math.Inf(1)
		}
		return dist
	}

	numObjectives := len(objectiveVector(pop[front[0]].report))
	for m := 0; m < numObjectives; m++ {
		ordered := append([]int(nil), front...)
		sort.Slice(ordered, func(i, j int) bool {
			return objectiveVector(pop[ordered[i]].report)[m] < objectiveVector(pop[ordered[j]].report)[m]
		})
		dist[ordered[0]] = math.Inf(1)
		dist[ordered[len(ordered)-1]] = math.Inf(1)

		minV := objectiveVector(pop[ordered[0]].report)[m]
		maxV := objectiveVector(pop[ordered[len(ordered)-1]].report)[m]
		span := maxV - minV
		if span == 0 {
			continue
		}
		for k := 1; k < len(ordered)-1; k++ {
			prev := objectiveVector(pop[ordered[k-1]].report)[m]
			next := objectiveVector(pop[ordered[k+1]].report)[m]
			dist[ordered[k]] += (next - prev) / span
		}
	}
	return dist
}

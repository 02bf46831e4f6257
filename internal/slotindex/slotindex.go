// Package slotindex builds the one chronological ordering of timeslots a
// scheduling run shares across every stage of the pipeline, per spec.md
// §4.1.
package slotindex

import (
	"sort"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
)

// Slot pairs a classroom with a timeslot; Index.Grid walks these in
// timeslot-major order (outer loop over chronological position, inner loop
// over classrooms), which is the canonical tie-breaker engines use for
// "earliest available slot".
type Slot struct {
	Classroom domain.Classroom
	Timeslot  domain.Timeslot
}

// Index is an immutable, once-per-run chronological ordering of timeslots.
// It may be shared read-only across every stage and worker goroutine.
type Index struct {
	ordered    []domain.Timeslot // position i holds ChronoIndex i
	classrooms []domain.Classroom
}

// Build sorts timeslots chronologically (ties broken by input order, i.e. a
// stable sort) and records each one's ChronoIndex and IsLate derived
// attribute. Classrooms are retained in input order for the grid iterator.
func Build(timeslots []domain.Timeslot, classrooms []domain.Classroom) *Index {
	ordered := make([]domain.Timeslot, len(timeslots))
	copy(ordered, timeslots)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	for i := range ordered {
		ordered[i].ChronoIndex = i
		ordered[i].IsLate = isLate(ordered[i].Start)
	}

	rooms := make([]domain.Classroom, len(classrooms))
	copy(rooms, classrooms)

	return &Index{ordered: ordered, classrooms: rooms}
}

func isLate(start domain.Clock) bool {
	return !start.Before(domain.NewClock(16, 30))
}

// Len is the number of timeslots in the run.
func (idx *Index) Len() int { return len(idx.ordered) }

// At returns the timeslot at the given chronological position.
func (idx *Index) At(position int) (domain.Timeslot, bool) {
	if position < 0 || position >= len(idx.ordered) {
		return domain.Timeslot{}, false
	}
	return idx.ordered[position], true
}

// ChronoIndex returns the chronological position of the given timeslot ID.
func (idx *Index) ChronoIndex(id domain.ID) (int, bool) {
	for _, ts := range idx.ordered {
		if ts.ID == id {
			return ts.ChronoIndex, true
		}
	}
	return 0, false
}

// IsLate reports whether a timeslot starts at or after 16:30.
func (idx *Index) IsLate(ts domain.Timeslot) bool { return isLate(ts.Start) }

// Ordered returns the full chronological sequence (read-only use expected).
func (idx *Index) Ordered() []domain.Timeslot { return idx.ordered }

// Classrooms returns the classrooms in input order.
func (idx *Index) Classrooms() []domain.Classroom { return idx.classrooms }

// Grid walks every (classroom, timeslot) pair in timeslot-major order: all
// classrooms for chronological position 0, then all classrooms for position
// 1, and so on. This is the canonical order the priority scheduler consumes
// when looking for "the earliest free slot".
func (idx *Index) Grid() []Slot {
	grid := make([]Slot, 0, len(idx.ordered)*len(idx.classrooms))
	for _, ts := range idx.ordered {
		for _, room := range idx.classrooms {
			grid = append(grid, Slot{Classroom: room, Timeslot: ts})
		}
	}
	return grid
}

// IsGap reports whether moving from chronological position `from` to
// `to` (from < to) within the same classroom/kind run should count as a
// scheduling gap under the back-to-back invariant. The lunch boundary
// (12:00–13:00) is never counted as a gap, per spec.md §4.1 and §9.
func (idx *Index) IsGap(from, to int) bool {
	if to <= from+1 {
		return false
	}
	for pos := from; pos < to; pos++ {
		a, aok := idx.At(pos)
		b, bok := idx.At(pos + 1)
		if !aok || !bok {
			continue
		}
		if domain.InLunchGap(a.End, b.Start) {
			continue
		}
		return true
	}
	return false
}

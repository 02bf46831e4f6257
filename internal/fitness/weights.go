package fitness

import "github.com/go-playground/validator/v10"

// Weights holds the eight Standard Fitness component weights. Recognized
// keys mirror the JSON-shaped config spec.md §6 describes: a top-level
// `weights` object whose missing keys fall back to DefaultWeights.
type Weights struct {
	Coverage             float64 `json:"coverage" validate:"gte=0"`
	Consecutive          float64 `json:"consecutive" validate:"gte=0"`
	LoadBalance          float64 `json:"load_balance" validate:"gte=0"`
	ClassroomEfficiency  float64 `json:"classroom_efficiency" validate:"gte=0"`
	TimeEfficiency       float64 `json:"time_efficiency" validate:"gte=0"`
	Conflicts            float64 `json:"conflicts" validate:"gte=0"`
	Gaps                 float64 `json:"gaps" validate:"gte=0"`
	EarlySlots           float64 `json:"early_slots" validate:"gte=0"`
}

// DefaultWeights returns the spec.md §4.2 default weighting.
func DefaultWeights() Weights {
	return Weights{
		Coverage:            25,
		Consecutive:         20,
		LoadBalance:         20,
		ClassroomEfficiency: 15,
		TimeEfficiency:      10,
		Conflicts:           10,
		Gaps:                5,
		EarlySlots:          5,
	}
}

var validate = validator.New()

// Validate rejects negative weights. A zero-valued Weights is valid (Score
// then falls back to DefaultWeights), matching the scorer's "never fails" contract —
// callers that want a harder guarantee (weights summing to 100) should check
// Sum() themselves; this only catches the pathological negative-weight case
// that would otherwise let a "penalty" component increase the total.
func (w Weights) Validate() error {
	return validate.Struct(w)
}

// Sum returns the total of all eight weights. Score does not divide by it
// (each weighted component is divided by 100); it only checks Sum for zero,
// in which case DefaultWeights are used instead.
func (w Weights) Sum() float64 {
	return w.Coverage + w.Consecutive + w.LoadBalance + w.ClassroomEfficiency +
		w.TimeEfficiency + w.Conflicts + w.Gaps + w.EarlySlots
}

// WithDefaults fills any zero-valued field from DefaultWeights, matching the
// "missing keys fall back to defaults" contract of spec.md §6.
func WithDefaults(w Weights) Weights {
	d := DefaultWeights()
	if w.Coverage == 0 {
		w.Coverage = d.Coverage
	}
	if w.Consecutive == 0 {
		w.Consecutive = d.Consecutive
	}
	if w.LoadBalance == 0 {
		w.LoadBalance = d.LoadBalance
	}
	if w.ClassroomEfficiency == 0 {
		w.ClassroomEfficiency = d.ClassroomEfficiency
	}
	if w.TimeEfficiency == 0 {
		w.TimeEfficiency = d.TimeEfficiency
	}
	if w.Conflicts == 0 {
		w.Conflicts = d.Conflicts
	}
	if w.Gaps == 0 {
		w.Gaps = d.Gaps
	}
	if w.EarlySlots == 0 {
		w.EarlySlots = d.EarlySlots
	}
	return w
}

// Package filter transforms action streams after translation.
//
// Filters share one shape, so a chain is a plain fold over an ordered list.
// Order matters: a layout remap placed before the shift table sees
// "Shift-q", placed after it sees "Q".
package filter

import (
	"iter"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// Filter transforms an action stream.
type Filter interface {
	Apply(seq iter.Seq[model.Action]) iter.Seq[model.Action]
}

// Step maps one action to at most one action.
type Step func(model.Action) (model.Action, bool)

// Stepper builds a fresh Step for every iteration, so per-stream state
// lives inside the returned closure.
type Stepper func() Step

// Apply implements Filter.
func (s Stepper) Apply(seq iter.Seq[model.Action]) iter.Seq[model.Action] {
	return func(yield func(model.Action) bool) {
		step := s()
		for a := range seq {
			out, ok := step(a)
			if !ok {
				continue
			}
			if !yield(out) {
				return
			}
		}
	}
}

// Chain applies filters in order.
func Chain(seq iter.Seq[model.Action], filters ...Filter) iter.Seq[model.Action] {
	for _, f := range filters {
		seq = f.Apply(seq)
	}
	return seq
}

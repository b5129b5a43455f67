// Package translate turns conditioned input events into actions.
//
// A Translator is the one piece of the pipeline users pick per
// installation. Implementations are bound by name at startup; whatever they
// do, they must emit model.Nothing three times before the first action that
// follows an inactivity gap so that no n-gram spans the gap.
package translate

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/ngram-keylogger/internal/aspect"
	"github.com/verte-zerg/ngram-keylogger/internal/keys"
	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/window"
)

// ErrUnknownTranslator is returned by New for names that are not registered.
var ErrUnknownTranslator = errors.New("unknown translator")

// DefaultRestDuration is the inactivity gap that breaks up n-grams.
const DefaultRestDuration = 2 * time.Second

// Translator converts a raw event stream into an action stream.
type Translator interface {
	Translate(events iter.Seq[model.Event]) iter.Seq[model.Action]
}

// Options configure the built-in translators.
type Options struct {
	RestDuration time.Duration
	Contexts     window.Source
}

var registry = map[string]func(Options) Translator{
	"standard": func(o Options) Translator { return NewStandard(o) },
	"minimal":  func(o Options) Translator { return NewMinimal(o) },
}

// Names lists the registered translators.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the translator registered under name.
func New(name string, opts Options) (Translator, error) {
	ctor, ok := registry[strings.TrimSpace(strings.ToLower(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownTranslator, name, strings.Join(Names(), ", "))
	}
	return ctor(opts), nil
}

// Standard names keys with their held modifiers, marks auto-repeat runs
// with a trailing "+" and tags every action with the current context.
type Standard struct {
	rest     time.Duration
	contexts window.Source
}

// NewStandard builds the standard translator.
func NewStandard(opts Options) *Standard {
	s := &Standard{rest: opts.RestDuration, contexts: opts.Contexts}
	if s.rest <= 0 {
		s.rest = DefaultRestDuration
	}
	if s.contexts == nil {
		s.contexts = window.Static("")
	}
	return s
}

// Translate implements Translator.
func (s *Standard) Translate(events iter.Seq[model.Event]) iter.Seq[model.Action] {
	return func(yield func(model.Action) bool) {
		for ev := range aspect.Condition(events, s.rest) {
			if ev.Extras.AfterGap() {
				for range 3 {
					if !yield(model.Action{Name: model.Nothing}) {
						return
					}
				}
			}
			prefix, _ := ev.Extras.ModifiersPrefix()
			name := prefix + keys.ShortName(ev.Code)
			if repeat, _ := ev.Extras.Repeat(); repeat {
				name += "+"
			}
			if !yield(model.Action{Name: name, Context: s.contexts.Current()}) {
				return
			}
		}
	}
}

// Minimal emits the plain name of every pressed key. Modifiers are keys
// like any other and auto-repeat is ignored. Actions still carry the
// current context, so ignore rules hold.
type Minimal struct {
	rest     time.Duration
	contexts window.Source
}

// NewMinimal builds the minimal translator.
func NewMinimal(opts Options) *Minimal {
	m := &Minimal{rest: opts.RestDuration, contexts: opts.Contexts}
	if m.rest <= 0 {
		m.rest = DefaultRestDuration
	}
	if m.contexts == nil {
		m.contexts = window.Static("")
	}
	return m
}

func pressesOnly(seq iter.Seq[model.KeyEvent]) iter.Seq[model.KeyEvent] {
	return func(yield func(model.KeyEvent) bool) {
		for ev := range seq {
			if ev.Value == model.ValuePress && !yield(ev) {
				return
			}
		}
	}
}

// Translate implements Translator.
func (m *Minimal) Translate(events iter.Seq[model.Event]) iter.Seq[model.Action] {
	return func(yield func(model.Action) bool) {
		stream := aspect.Inactivity(m.rest)(pressesOnly(aspect.KeysOnly(aspect.Wrap(events))))
		for ev := range stream {
			if ev.Extras.AfterGap() {
				for range 3 {
					if !yield(model.Action{Name: model.Nothing}) {
						return
					}
				}
			}
			if !yield(model.Action{Name: keys.ShortName(ev.Code), Context: m.contexts.Current()}) {
				return
			}
		}
	}
}

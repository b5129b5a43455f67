// Package aspect conditions raw input events before they are translated into
// actions. Each stage is a single-pass transformer that may drop events and
// only ever adds attributes to the events it forwards.
package aspect

import (
	"iter"
	"strings"
	"time"

	"github.com/verte-zerg/ngram-keylogger/internal/keys"
	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// Stage transforms a conditioned event stream.
type Stage func(iter.Seq[model.KeyEvent]) iter.Seq[model.KeyEvent]

// Wrap lifts raw events into conditioned events with empty extras.
func Wrap(events iter.Seq[model.Event]) iter.Seq[model.KeyEvent] {
	return func(yield func(model.KeyEvent) bool) {
		for ev := range events {
			if !yield(model.KeyEvent{Event: ev}) {
				return
			}
		}
	}
}

// Condition applies keys-only, inactivity, modifier and repeat tracking in
// that order.
func Condition(events iter.Seq[model.Event], timeout time.Duration) iter.Seq[model.KeyEvent] {
	seq := Wrap(events)
	for _, stage := range []Stage{KeysOnly, Inactivity(timeout), Modifiers(), Repeating()} {
		seq = stage(seq)
	}
	return seq
}

// KeysOnly drops everything that is not a key event.
func KeysOnly(seq iter.Seq[model.KeyEvent]) iter.Seq[model.KeyEvent] {
	return func(yield func(model.KeyEvent) bool) {
		for ev := range seq {
			if ev.Type != model.EvKey {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Inactivity marks events that come first or after a gap longer than
// timeout.
func Inactivity(timeout time.Duration) Stage {
	return func(seq iter.Seq[model.KeyEvent]) iter.Seq[model.KeyEvent] {
		return func(yield func(model.KeyEvent) bool) {
			var prev time.Time
			for ev := range seq {
				after := prev.IsZero() || ev.Time.Sub(prev) > timeout
				ev.Extras = ev.Extras.WithAfterInactivity(after)
				if !yield(ev) {
					return
				}
				prev = ev.Time
			}
		}
	}
}

// Modifiers tracks held modifier keys. Modifier events are consumed; other
// events carry the prefix of the modifiers held at that moment. A consumed
// modifier that followed an inactivity gap hands the gap on to the next
// forwarded press as GapBeforeChord.
func Modifiers() Stage {
	return func(seq iter.Seq[model.KeyEvent]) iter.Seq[model.KeyEvent] {
		return func(yield func(model.KeyEvent) bool) {
			held := map[uint16]struct{}{}
			prefix := ""
			gap := false
			for ev := range seq {
				if _, ok := keys.Modifier(ev.Code); ok {
					if ev.Value != model.ValueRelease {
						held[ev.Code] = struct{}{}
					} else {
						delete(held, ev.Code)
					}
					if after, _ := ev.Extras.AfterInactivity(); after {
						gap = true
					}
					prefix = modifiersPrefix(held)
					continue
				}
				ev.Extras = ev.Extras.WithModifiersPrefix(prefix)
				if ev.Value != model.ValueRelease {
					ev.Extras = ev.Extras.WithGapBeforeChord(gap)
					gap = false
				}
				if !yield(ev) {
					return
				}
			}
		}
	}
}

func modifiersPrefix(held map[uint16]struct{}) string {
	active := map[string]bool{}
	for code := range held {
		name, _ := keys.Modifier(code)
		active[name] = true
	}
	var b strings.Builder
	for _, name := range keys.ModifierOrder {
		if active[name] {
			b.WriteString(name)
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Repeating collapses auto-repeat runs into a single event marked as a
// repeat and drops releases.
func Repeating() Stage {
	return func(seq iter.Seq[model.KeyEvent]) iter.Seq[model.KeyEvent] {
		return func(yield func(model.KeyEvent) bool) {
			repeating := map[uint16]struct{}{}
			for ev := range seq {
				if ev.Value == model.ValueRelease {
					delete(repeating, ev.Code)
					continue
				}
				repeat := ev.Value == model.ValueRepeat
				if repeat {
					if _, ok := repeating[ev.Code]; ok {
						continue
					}
					repeating[ev.Code] = struct{}{}
				}
				ev.Extras = ev.Extras.WithRepeat(repeat)
				if !yield(ev) {
					return
				}
			}
		}
	}
}

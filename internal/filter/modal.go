package filter

import (
	"iter"
	"strings"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

type modalState int

const (
	modalNone modalState = iota
	modalMeta
	modalMove
)

// ModalConfig names the actions that drive the modal navigation machine.
type ModalConfig struct {
	EnterMeta []string
	ExitMeta  []string
	EnterMove []string
	// MoveToPrefix marks actions such as "workspace-3" that become
	// "move-to-workspace-3" in the move state.
	MoveToPrefix string
}

var directions = map[string]string{
	"left":     "left",
	"right":    "right",
	"up":       "up",
	"down":     "down",
	"home":     "left",
	"pageup":   "up",
	"pagedown": "down",
	"end":      "right",
}

// Modal rewrites window-manager navigation typed in a modal "meta" layer.
// Trigger actions are consumed. The machine has no timeout and only leaves
// a mode through its own triggers.
type Modal struct {
	enterMeta map[string]struct{}
	exitMeta  map[string]struct{}
	enterMove map[string]struct{}
	prefix    string
}

// NewModal builds a modal navigation filter.
func NewModal(cfg ModalConfig) *Modal {
	return &Modal{
		enterMeta: toSet(cfg.EnterMeta),
		exitMeta:  toSet(cfg.ExitMeta),
		enterMove: toSet(cfg.EnterMove),
		prefix:    cfg.MoveToPrefix,
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// Apply implements Filter.
func (m *Modal) Apply(seq iter.Seq[model.Action]) iter.Seq[model.Action] {
	return func(yield func(model.Action) bool) {
		state := modalNone
		for a := range seq {
			var ok bool
			state, a, ok = m.step(state, a)
			if !ok {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

func (m *Modal) step(state modalState, a model.Action) (modalState, model.Action, bool) {
	if a.IsNothing() {
		return state, a, true
	}
	if _, ok := m.exitMeta[a.Name]; ok && state != modalNone {
		return modalNone, a, false
	}
	switch state {
	case modalNone:
		if _, ok := m.enterMeta[a.Name]; ok {
			return modalMeta, a, false
		}
	case modalMeta:
		if _, ok := m.enterMove[a.Name]; ok {
			return modalMove, a, false
		}
		if dir, ok := directions[a.Name]; ok {
			a.Name = "focus-" + dir
		}
	case modalMove:
		if dir, ok := directions[a.Name]; ok {
			a.Name = "move-" + dir
		} else if m.prefix != "" && strings.HasPrefix(a.Name, m.prefix) {
			a.Name = "move-to-" + a.Name
		}
		return modalMeta, a, true
	}
	return state, a, true
}

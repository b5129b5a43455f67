package filter

import (
	"iter"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// Layout remaps the single action that follows a trigger through an
// alternate-layout table. Unmapped actions in the alternate state are
// dropped. Either way the machine returns to the direct state afterwards.
//
// Auto-repeated actions ("q+") are not in the table and are therefore
// dropped when they follow a trigger.
type Layout struct {
	triggers map[string]struct{}
	mapping  map[string]string
}

// NewLayout builds a layout filter.
func NewLayout(triggers []string, mapping map[string]string) *Layout {
	set := make(map[string]struct{}, len(triggers))
	for _, t := range triggers {
		set[t] = struct{}{}
	}
	return &Layout{triggers: set, mapping: mapping}
}

// Apply implements Filter.
func (l *Layout) Apply(seq iter.Seq[model.Action]) iter.Seq[model.Action] {
	return func(yield func(model.Action) bool) {
		alternate := false
		for a := range seq {
			switch {
			case a.IsNothing():
			case !alternate:
				if _, ok := l.triggers[a.Name]; ok {
					alternate = true
					continue
				}
			default:
				alternate = false
				to, ok := l.mapping[a.Name]
				if !ok {
					continue
				}
				a.Name = to
			}
			if !yield(a) {
				return
			}
		}
	}
}

const (
	qwerty = "`QWERTYUIOP{}ASDFGHJKL:ZXCVBNM<>" +
		"~qwertyuiop[]asdfghjkl;zxcvbnm,.'\""
	jcuken = "ЁЙЦУКЕНГШЩЗХЪФЫВАПРОЛДЖЯЧСМИТЬБЮ" +
		"ёйцукенгшщзхъфывапролджячсмитьбюэЭ"
	qwertySymbols = "!@#$%^&*()/\\"
	jcukenSymbols = "!\"№;%:?*().,"
)

// RussianTriggers switch a single action to the Russian layout.
var RussianTriggers = []string{"Control-compose", "Control-Shift-compose"}

// RussianMapping maps QWERTY actions to their JCUKEN counterparts. Both
// spellings of shifted keys ("Q" and "Shift-q") are covered, so the filter
// works before or after ShiftPrintables.
func RussianMapping() map[string]string {
	unshift := map[string]string{}
	for name, shifted := range ShiftTable() {
		unshift[shifted] = name
	}
	mapping := map[string]string{}
	add := func(from, to string) {
		mapping[from] = to
		if name, ok := unshift[from]; ok {
			mapping[name] = to
		}
	}
	ru := []rune(jcuken)
	for i, en := range []rune(qwerty) {
		if i >= len(ru) {
			break
		}
		add(string(en), "ru-"+string(ru[i]))
	}
	sym := []rune(jcukenSymbols)
	for i, en := range []rune(qwertySymbols) {
		add(string(en), string(sym[i]))
	}
	return mapping
}

// RussianLayout is the Layout filter for a Compose-triggered Russian layout.
func RussianLayout() *Layout {
	return NewLayout(RussianTriggers, RussianMapping())
}

package filter

import (
	"strings"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// Replace substitutes actions found in table. An empty replacement
// suppresses the action; actions missing from the table pass unchanged.
func Replace(table map[string]string) Filter {
	return Stepper(func() Step {
		return func(a model.Action) (model.Action, bool) {
			repl, ok := table[a.Name]
			if !ok {
				return a, true
			}
			if repl == "" {
				return a, false
			}
			a.Name = repl
			return a, true
		}
	})
}

// Skip suppresses the listed actions.
func Skip(actions []string) Filter {
	set := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return Stepper(func() Step {
		return func(a model.Action) (model.Action, bool) {
			_, skip := set[a.Name]
			return a, !skip
		}
	})
}

const (
	alphabet           = "abcdefghijklmnopqrstuvwxyz"
	digits             = "1234567890"
	shiftedDigits      = "!@#$%^&*()"
	punctuation        = "~,./;'[]\\-="
	shiftedPunctuation = "`<>?:\"{}|_+"
)

var (
	printables        = alphabet + digits + punctuation
	shiftedPrintables = strings.ToUpper(alphabet) + shiftedDigits + shiftedPunctuation
)

// ShiftTable maps "Shift-a" to "A", "Shift-1" to "!" and so on for every
// printable key.
func ShiftTable() map[string]string {
	table := make(map[string]string, len(printables))
	for i := 0; i < len(printables); i++ {
		table["Shift-"+printables[i:i+1]] = shiftedPrintables[i : i+1]
	}
	return table
}

// ControlTable maps "Control-c" to "^C" for every letter.
func ControlTable() map[string]string {
	table := make(map[string]string, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		table["Control-"+alphabet[i:i+1]] = "^" + strings.ToUpper(alphabet[i:i+1])
	}
	return table
}

// ShiftPrintables folds shifted printable keys into the characters they
// type.
func ShiftPrintables() Filter {
	return Replace(ShiftTable())
}

// AbbreviateControls shortens control-letter chords to caret notation.
func AbbreviateControls() Filter {
	return Replace(ControlTable())
}

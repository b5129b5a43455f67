// Package window derives activity contexts from the focused window title.
package window

import (
	"fmt"
	"regexp"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// Source reports the current activity context. It is consulted once per
// action and must not block.
type Source interface {
	Current() string
}

// Static is a Source that always reports the same context.
type Static string

// Current implements Source.
func (s Static) Current() string {
	return string(s)
}

// Rule maps window titles matching Pattern to Context.
type Rule struct {
	Pattern *regexp.Regexp
	Context string
}

// Rules classifies titles by the first matching rule.
type Rules []Rule

// CompileRules builds rules from (pattern, context) pairs. The context
// "ignore" maps to model.ContextIgnore.
func CompileRules(pairs [][2]string) (Rules, error) {
	rules := make(Rules, 0, len(pairs))
	for _, p := range pairs {
		re, err := regexp.Compile(p[0])
		if err != nil {
			return nil, fmt.Errorf("invalid context pattern %q: %w", p[0], err)
		}
		ctx := p[1]
		if ctx == "ignore" {
			ctx = model.ContextIgnore
		}
		rules = append(rules, Rule{Pattern: re, Context: ctx})
	}
	return rules, nil
}

// Classify returns the context for a title, or model.ContextDefault when no
// rule matches.
func (r Rules) Classify(title string) string {
	for _, rule := range r {
		if rule.Pattern.MatchString(title) {
			return rule.Context
		}
	}
	return model.ContextDefault
}

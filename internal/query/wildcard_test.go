package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		patterns string
		clause   string
		args     []any
	}{
		{
			name:     "star",
			patterns: "a*",
			clause:   `(a1 LIKE ? ESCAPE '\')`,
			args:     []any{"a%"},
		},
		{
			name:     "question mark",
			patterns: "?+",
			clause:   `(a1 LIKE ? ESCAPE '\')`,
			args:     []any{"_+"},
		},
		{
			name:     "like metacharacters are escaped",
			patterns: `100%_\`,
			clause:   `(a1 LIKE ? ESCAPE '\')`,
			args:     []any{`100\%\_\\`},
		},
		{
			name:     "literal",
			patterns: "literal-*",
			clause:   `(a1 = ?)`,
			args:     []any{"*"},
		},
		{
			name:     "literal prefix ignores case",
			patterns: "LITERAL-?",
			clause:   `(a1 = ?)`,
			args:     []any{"?"},
		},
		{
			name:     "class with range",
			patterns: "[a-c]",
			clause:   `(a1 = ? OR a1 = ? OR a1 = ?)`,
			args:     []any{"a", "b", "c"},
		},
		{
			name:     "class with reversed range and duplicates",
			patterns: "[3-1x2]",
			clause:   `(a1 = ? OR a1 = ? OR a1 = ? OR a1 = ?)`,
			args:     []any{"1", "2", "3", "x"},
		},
		{
			name:     "list",
			patterns: "a,b*",
			clause:   `(a1 LIKE ? ESCAPE '\' OR a1 LIKE ? ESCAPE '\')`,
			args:     []any{"a", "b%"},
		},
		{
			name:     "literal comma in list",
			patterns: "literal-,,x",
			clause:   `(a1 = ? OR a1 LIKE ? ESCAPE '\')`,
			args:     []any{",", "x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := Compile("a1", tt.patterns)
			assert.Equal(t, tt.clause, clause)
			assert.Equal(t, tt.args, args)
		})
	}
}

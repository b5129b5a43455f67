package query

import (
	"regexp"
	"strings"
)

const literalPrefix = "literal-"

var literalComma = regexp.MustCompile(`(?i)literal-,`)

// commaMarker stands in for an escaped comma while a list is split.
const commaMarker = "\x00"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `%`, `?`, `_`)

// Compile turns a comma-separated list of wildcard patterns into a
// parenthesised SQL predicate over column and its bound arguments.
//
//	*            any run of characters
//	?            any single character
//	literal-X    exactly X, wildcards included
//	[a-z0-9]     any one of the listed characters or ranges
//
// "literal-," keeps a comma inside a list. Matching is case-sensitive only
// on connections with case_sensitive_like enabled.
func Compile(column, patterns string) (string, []any) {
	var clauses []string
	var args []any
	for _, pattern := range splitPatterns(patterns) {
		for _, value := range equalities(pattern) {
			clauses = append(clauses, column+" = ?")
			args = append(args, value)
		}
		if isLiteral(pattern) || isCharClass(pattern) {
			continue
		}
		clauses = append(clauses, column+` LIKE ? ESCAPE '\'`)
		args = append(args, likeEscaper.Replace(pattern))
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func splitPatterns(patterns string) []string {
	marked := literalComma.ReplaceAllStringFunc(patterns, func(m string) string {
		return m[:len(literalPrefix)] + commaMarker
	})
	parts := strings.Split(marked, ",")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, commaMarker, ",")
	}
	return parts
}

func isLiteral(pattern string) bool {
	return len(pattern) >= len(literalPrefix) &&
		strings.EqualFold(pattern[:len(literalPrefix)], literalPrefix)
}

func isCharClass(pattern string) bool {
	return len(pattern) > 2 && strings.HasPrefix(pattern, "[") && strings.HasSuffix(pattern, "]")
}

// equalities returns the exact values a literal or a character class
// stands for.
func equalities(pattern string) []string {
	switch {
	case isLiteral(pattern):
		return []string{pattern[len(literalPrefix):]}
	case isCharClass(pattern):
		return expandClass([]rune(pattern[1 : len(pattern)-1]))
	}
	return nil
}

func expandClass(chars []rune) []string {
	var out []string
	seen := map[rune]bool{}
	add := func(r rune) {
		if !seen[r] {
			seen[r] = true
			out = append(out, string(r))
		}
	}
	for i := 0; i < len(chars); i++ {
		if i+2 < len(chars) && chars[i+1] == '-' {
			from, to := min(chars[i], chars[i+2]), max(chars[i], chars[i+2])
			for r := from; r <= to; r++ {
				add(r)
			}
			i += 2
			continue
		}
		add(chars[i])
	}
	return out
}

// Package query reads n-gram statistics back from the database.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/store"
)

// Reader executes prepared statistics queries.
type Reader interface {
	Select(ctx context.Context, query string, args []any, withContext bool, slots int) ([]model.Row, error)
	Sum(ctx context.Context, query string, args []any) (int64, error)
}

// Options control filtering and normalization of a query.
type Options struct {
	// Contexts is a wildcard list matched against the context column.
	Contexts  string
	ByContext bool
	// Limit caps the number of rows; zero or less means no limit.
	Limit int
	// Fraction divides each count by the total of the same filters.
	Fraction bool
	// Renormalize divides each count by the sum of all matching rows before
	// Limit is applied.
	Renormalize bool
	// Cumulative replaces values with their running sum.
	Cumulative bool
}

// OptionsFromConfig converts query settings.
func OptionsFromConfig(cfg model.QueryConfig) Options {
	return Options{
		Contexts:    cfg.Contexts,
		ByContext:   cfg.ByContext,
		Limit:       cfg.Limit,
		Fraction:    cfg.Fraction,
		Renormalize: cfg.Renormalize,
		Cumulative:  cfg.Cumulative,
	}
}

// Engine runs statistics queries. It holds no state besides the reader.
type Engine struct {
	reader Reader
}

// New returns an engine over reader.
func New(reader Reader) *Engine {
	return &Engine{reader: reader}
}

func contexts(opts Options) string {
	if opts.Contexts == "" {
		return "*"
	}
	return opts.Contexts
}

type filter struct {
	where string
	args  []any
}

func buildFilter(opts Options, cols []string, patterns []string) filter {
	where, args := Compile("context", contexts(opts))
	clauses := []string{where}
	for i, col := range cols {
		clause, slotArgs := Compile(col, patterns[i])
		clauses = append(clauses, clause)
		args = append(args, slotArgs...)
	}
	return filter{where: strings.Join(clauses, " AND "), args: args}
}

// KeypressesCount returns the total number of recorded key presses, or one
// row per context with ByContext.
func (e *Engine) KeypressesCount(ctx context.Context, opts Options) ([]model.Row, error) {
	f := buildFilter(opts, nil, nil)
	if !opts.ByContext {
		total, err := e.reader.Sum(ctx, "SELECT SUM(count) FROM keys WHERE "+f.where, f.args)
		if err != nil {
			return nil, fmt.Errorf("count keypresses: %w", err)
		}
		row := model.Row{Value: float64(total), Count: total}
		if opts.Fraction || opts.Renormalize {
			row.Value = 0
			if total > 0 {
				row.Value = 1
			}
		}
		return []model.Row{row}, nil
	}
	return e.run(ctx, "keys", nil, f, opts)
}

// Keypresses returns per-key counts for keys matching pattern.
func (e *Engine) Keypresses(ctx context.Context, pattern string, opts Options) ([]model.Row, error) {
	return e.ngrams(ctx, []string{pattern}, opts)
}

// Bigrams returns counts of action pairs matching the slot patterns.
func (e *Engine) Bigrams(ctx context.Context, a1, a2 string, opts Options) ([]model.Row, error) {
	return e.ngrams(ctx, []string{a1, a2}, opts)
}

// Trigrams returns counts of action triples matching the slot patterns.
func (e *Engine) Trigrams(ctx context.Context, a1, a2, a3 string, opts Options) ([]model.Row, error) {
	return e.ngrams(ctx, []string{a1, a2, a3}, opts)
}

// NGrams dispatches on the number of slot patterns.
func (e *Engine) NGrams(ctx context.Context, patterns []string, opts Options) ([]model.Row, error) {
	return e.ngrams(ctx, patterns, opts)
}

func (e *Engine) ngrams(ctx context.Context, patterns []string, opts Options) ([]model.Row, error) {
	n := len(patterns)
	table, err := store.Table(n)
	if err != nil {
		return nil, err
	}
	patterns = append([]string(nil), patterns...)
	for i, p := range patterns {
		if p == "" {
			patterns[i] = "*"
		}
	}
	cols := store.Columns(n)
	return e.run(ctx, table, cols, buildFilter(opts, cols, patterns), opts)
}

func (e *Engine) run(ctx context.Context, table string, cols []string, f filter, opts Options) ([]model.Row, error) {
	var group []string
	if opts.ByContext {
		group = append(group, "context")
	}
	group = append(group, cols...)

	var total int64
	if opts.Fraction {
		// The denominator is a separate statement; concurrent writes between
		// the two may make fractions sum to slightly more or less than one.
		var err error
		total, err = e.reader.Sum(ctx, fmt.Sprintf("SELECT SUM(count) FROM %s WHERE %s", table, f.where), f.args)
		if err != nil {
			return nil, fmt.Errorf("total %s: %w", table, err)
		}
	}

	selectCols := append([]string{"SUM(count)"}, group...)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(selectCols, ", "), table, f.where)
	if len(group) > 0 {
		q += fmt.Sprintf(" GROUP BY %s ORDER BY SUM(count) DESC, %s", strings.Join(group, ", "), strings.Join(group, ", "))
	}
	args := f.args
	// Renormalization needs every row; the limit is then applied in memory.
	if opts.Limit > 0 && !opts.Renormalize {
		q += " LIMIT ?"
		args = append(append([]any(nil), args...), opts.Limit)
	}
	rows, err := e.reader.Select(ctx, q, args, opts.ByContext, len(cols))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return normalize(rows, total, opts), nil
}

// normalize turns counts into fractions, then limits, then accumulates.
func normalize(rows []model.Row, total int64, opts Options) []model.Row {
	if opts.Renormalize {
		total = 0
		for _, r := range rows {
			total += r.Count
		}
	}
	if opts.Fraction || opts.Renormalize {
		for i := range rows {
			rows[i].Value = 0
			if total > 0 {
				rows[i].Value = float64(rows[i].Count) / float64(total)
			}
		}
	}
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	if opts.Cumulative {
		var running float64
		for i := range rows {
			running += rows[i].Value
			rows[i].Value = running
		}
	}
	return rows
}

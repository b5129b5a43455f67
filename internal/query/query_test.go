package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/store"
)

func seed(t *testing.T, data map[string]map[model.Gram]int64) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.sqlite")
	w, err := store.Open(path)
	require.NoError(t, err)
	for contextName, grams := range data {
		counts := model.NewCounts()
		for g, n := range grams {
			counts[g.N-1][g] = n
		}
		require.NoError(t, w.Increment(context.Background(), contextName, counts))
	}
	require.NoError(t, w.Close())

	r, err := store.OpenReadOnly(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return New(r)
}

func values(rows []model.Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Value
	}
	return out
}

func slots(rows []model.Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Slots
	}
	return out
}

func TestFractionAndCumulative(t *testing.T) {
	e := seed(t, map[string]map[model.Gram]int64{
		"default": {model.NewGram("a"): 3, model.NewGram("b"): 1},
	})
	ctx := context.Background()

	rows, err := e.Keypresses(ctx, "*", Options{Fraction: true})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, slots(rows))
	assert.InDeltaSlice(t, []float64{0.75, 0.25}, values(rows), 1e-9)

	rows, err = e.Keypresses(ctx, "*", Options{Fraction: true, Cumulative: true})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.75, 1.0}, values(rows), 1e-9)
}

func TestRenormalizeThenLimitThenCumulate(t *testing.T) {
	e := seed(t, map[string]map[model.Gram]int64{
		"default": {model.NewGram("a"): 6, model.NewGram("b"): 2, model.NewGram("c"): 2},
	})
	ctx := context.Background()

	rows, err := e.Keypresses(ctx, "*", Options{Limit: 2, Fraction: true})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0.2}, values(rows), 1e-9)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, slots(rows), "ties break on the slot")

	rows, err = e.Keypresses(ctx, "*", Options{Limit: 2, Renormalize: true})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0.2}, values(rows), 1e-9)

	rows, err = e.Keypresses(ctx, "*", Options{Limit: 2, Renormalize: true, Cumulative: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, values(rows), 1e-9)

	rows, err = e.Keypresses(ctx, "*", Options{Limit: 2, Cumulative: true})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{6, 8}, values(rows), 1e-9)
}

func TestPatternsAndContexts(t *testing.T) {
	e := seed(t, map[string]map[model.Gram]int64{
		"term": {
			model.NewGram("a"):           5,
			model.NewGram("A"):           4,
			model.NewGram("*"):           1,
			model.NewGram("t", "h"):      7,
			model.NewGram("t", "o"):      2,
			model.NewGram("t", "h", "e"): 3,
		},
		"browser": {
			model.NewGram("a"):      2,
			model.NewGram("t", "h"): 1,
		},
	})
	ctx := context.Background()

	rows, err := e.Keypresses(ctx, "a", Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1, "matching is case-sensitive")
	assert.Equal(t, int64(7), rows[0].Count)

	rows, err = e.Keypresses(ctx, "literal-*", Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"*"}, rows[0].Slots)

	rows, err = e.Keypresses(ctx, "[a-z]", Options{Contexts: "br*"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Count)

	rows, err = e.Bigrams(ctx, "t", "*", Options{ByContext: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.Row{Value: 7, Count: 7, Context: "term", Slots: []string{"t", "h"}}, rows[0])
	assert.Equal(t, "term", rows[1].Context)
	assert.Equal(t, "browser", rows[2].Context)

	rows, err = e.Trigrams(ctx, "*", "h", "", Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"t", "h", "e"}, rows[0].Slots)
}

func TestKeypressesCount(t *testing.T) {
	e := seed(t, map[string]map[model.Gram]int64{
		"term":    {model.NewGram("a"): 3},
		"browser": {model.NewGram("a"): 1},
	})
	ctx := context.Background()

	rows, err := e.KeypressesCount(ctx, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(4), rows[0].Count)

	rows, err = e.KeypressesCount(ctx, Options{ByContext: true, Fraction: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "term", rows[0].Context)
	assert.InDeltaSlice(t, []float64{0.75, 0.25}, values(rows), 1e-9)
	assert.Nil(t, rows[0].Slots)

	rows, err = e.KeypressesCount(ctx, Options{Contexts: "nothing"})
	require.NoError(t, err)
	assert.Zero(t, rows[0].Count)
}

func TestNGramsRejectsUnknownOrder(t *testing.T) {
	e := New(nil)
	_, err := e.NGrams(context.Background(), []string{"a", "b", "c", "d"}, Options{})
	assert.Error(t, err)
}

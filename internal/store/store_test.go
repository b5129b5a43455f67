package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "db.sqlite")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func counts(grams map[model.Gram]int64) model.Counts {
	c := model.NewCounts()
	for g, n := range grams {
		c[g.N-1][g] = n
	}
	return c
}

func TestIncrementAccumulates(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Increment(ctx, "default", counts(map[model.Gram]int64{
		model.NewGram("h"):           2,
		model.NewGram("h", "i"):      1,
		model.NewGram("h", "i", "!"): 1,
	})))
	require.NoError(t, s.Increment(ctx, "default", counts(map[model.Gram]int64{
		model.NewGram("h"):      3,
		model.NewGram("h", "i"): 4,
	})))
	require.NoError(t, s.Increment(ctx, "term", counts(map[model.Gram]int64{
		model.NewGram("h"): 7,
	})))

	rows, err := s.Select(ctx,
		`SELECT count, context, a1 FROM keys ORDER BY context`, nil, true, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.Row{Value: 5, Count: 5, Context: "default", Slots: []string{"h"}}, rows[0])
	assert.Equal(t, int64(7), rows[1].Count)

	rows, err = s.Select(ctx, `SELECT count, a1, a2 FROM bigrams`, nil, false, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"h", "i"}, rows[0].Slots)
	assert.Equal(t, int64(5), rows[0].Count)

	total, err := s.Sum(ctx, `SELECT SUM(count) FROM trigrams`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestSumOfEmptyTableIsZero(t *testing.T) {
	s, _ := openTemp(t)
	total, err := s.Sum(context.Background(), `SELECT SUM(count) FROM keys WHERE context = ?`, []any{"none"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestIncrementRollsBackOnCancel(t *testing.T) {
	s, _ := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Increment(ctx, "default", counts(map[model.Gram]int64{model.NewGram("a"): 1}))
	require.Error(t, err)

	total, err := s.Sum(context.Background(), `SELECT SUM(count) FROM keys`, nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestReadOnlyIsCaseSensitive(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Increment(ctx, "default", counts(map[model.Gram]int64{
		model.NewGram("a"): 1,
		model.NewGram("A"): 2,
	})))

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer func() { _ = ro.Close() }()

	total, err := ro.Sum(ctx, `SELECT SUM(count) FROM keys WHERE a1 LIKE ?`, []any{"a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	err = ro.Increment(ctx, "default", counts(map[model.Gram]int64{model.NewGram("b"): 1}))
	assert.Error(t, err)
}

func TestOpenReadOnlyMissingFile(t *testing.T) {
	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.sqlite"))
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	name, err := Table(2)
	require.NoError(t, err)
	assert.Equal(t, "bigrams", name)
	_, err = Table(4)
	assert.Error(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3"}, Columns(3))
}

package topui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/query"
)

type fakeSource struct {
	calls    []string
	lastOpts query.Options
	err      error
}

func (f *fakeSource) KeypressesCount(_ context.Context, opts query.Options) ([]model.Row, error) {
	f.calls = append(f.calls, "count")
	f.lastOpts = opts
	return []model.Row{{Value: 9, Count: 9, Context: "term"}}, f.err
}

func (f *fakeSource) NGrams(_ context.Context, patterns []string, opts query.Options) ([]model.Row, error) {
	f.calls = append(f.calls, strings.Join(patterns, " "))
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	rows := []model.Row{{Value: 3, Count: 3, Slots: make([]string, len(patterns))}}
	for i := range patterns {
		rows[0].Slots[i] = "x"
	}
	return rows, nil
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabsSwitchQueries(t *testing.T) {
	src := &fakeSource{}
	m := NewModel(src, query.Options{}, 0)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	m.Update(key("l"))
	m.Update(key("l"))
	m.Update(key("l"))
	assert.Equal(t, []string{"*", "* *", "* * *", "count"}, src.calls)
	assert.True(t, src.lastOpts.ByContext)
	assert.Equal(t, 100, src.lastOpts.Limit)
	assert.Contains(t, m.View(), "term")

	m.Update(key("l"))
	assert.Equal(t, tabKeys, m.activeTab)
}

func TestTogglesAndContextFilter(t *testing.T) {
	src := &fakeSource{}
	m := NewModel(src, query.Options{Limit: 5}, 0)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	m.Update(key("f"))
	assert.True(t, src.lastOpts.Fraction)
	m.Update(key("/"))
	require.True(t, m.filterMode)
	m.Update(key("t*"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.filterMode)
	assert.Equal(t, "t*", src.lastOpts.Contexts)
	assert.Contains(t, m.View(), "contexts=t*")
}

func TestErrorKeepsPreviousRows(t *testing.T) {
	src := &fakeSource{}
	m := NewModel(src, query.Options{}, 0)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	require.Len(t, m.rows, 1)
	src.err = errors.New("database is locked")
	m.Update(tickMsg{})
	assert.Len(t, m.rows, 1)
	assert.Contains(t, m.View(), "database is locked")
}

func TestQuit(t *testing.T) {
	m := NewModel(&fakeSource{}, query.Options{}, 0)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

package collect

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/verte-zerg/ngram-keylogger/internal/filter"
	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/ngram"
	"github.com/verte-zerg/ngram-keylogger/internal/translate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memorySaver struct {
	mu    sync.Mutex
	saved map[string]model.Counts
	err   error
}

func (m *memorySaver) Increment(ctx context.Context, contextName string, counts model.Counts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = map[string]model.Counts{}
	}
	dst, ok := m.saved[contextName]
	if !ok {
		dst = model.NewCounts()
		m.saved[contextName] = dst
	}
	for i := range counts {
		for g, n := range counts[i] {
			dst[i][g] += n
		}
	}
	return nil
}

var t0 = time.Unix(1000, 0)

func press(at time.Duration, code uint16) []model.Event {
	return []model.Event{
		{Time: t0.Add(at), Type: model.EvKey, Code: code, Value: model.ValuePress},
		{Time: t0.Add(at + 30*time.Millisecond), Type: model.EvKey, Code: code, Value: model.ValueRelease},
	}
}

func pipeline(t *testing.T, saver ngram.Saver, filters ...filter.Filter) *Pipeline {
	t.Helper()
	tr, err := translate.New("standard", translate.Options{})
	require.NoError(t, err)
	return &Pipeline{
		Translator: tr,
		Filters:    filters,
		Router:     ngram.NewRouter(saver, ngram.Thresholds{}, nil),
	}
}

func TestRunDrainsAndSavesOnCancel(t *testing.T) {
	saver := &memorySaver{}
	var script []model.Event
	script = append(script, press(0, 35)...)                  // h
	script = append(script, press(100*time.Millisecond, 23)...) // i
	script = append(script, press(5*time.Second, 35)...)      // h after a gap
	script = append(script, press(5100*time.Millisecond, 23)...)

	sent := make(chan struct{})
	source := func(ctx context.Context, out chan<- model.Event) error {
		for _, ev := range script {
			out <- ev
		}
		close(sent)
		<-ctx.Done()
		return nil
	}
	polled := make(chan struct{})
	background := func(ctx context.Context) error {
		close(polled)
		<-ctx.Done()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Collector{
		Source:     source,
		Pipeline:   pipeline(t, saver),
		Background: []func(context.Context) error{background},
		Buffer:     1,
	}
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	<-sent
	<-polled
	cancel()
	require.NoError(t, <-done)

	got := saver.saved[model.ContextDefault]
	assert.Equal(t, map[model.Gram]int64{model.NewGram("h"): 2, model.NewGram("i"): 2}, got[0])
	assert.Equal(t, map[model.Gram]int64{model.NewGram("h", "i"): 2}, got[1])
	assert.Empty(t, got[2])
}

func TestRunAppliesFilters(t *testing.T) {
	saver := &memorySaver{}
	events := append(press(0, 35), press(50*time.Millisecond, 23)...)
	source := func(ctx context.Context, out chan<- model.Event) error {
		for _, ev := range events {
			out <- ev
		}
		return nil
	}
	c := &Collector{
		Source:   source,
		Pipeline: pipeline(t, saver, filter.Replace(map[string]string{"h": "x", "i": ""})),
	}
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, map[model.Gram]int64{model.NewGram("x"): 1}, saver.saved[model.ContextDefault][0])
}

func TestRunReportsSaveFailure(t *testing.T) {
	saver := &memorySaver{err: errors.New("read-only file system")}
	source := func(ctx context.Context, out chan<- model.Event) error {
		for _, ev := range press(0, 30) {
			out <- ev
		}
		return nil
	}
	c := &Collector{Source: source, Pipeline: pipeline(t, saver)}
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, saver.err)
}

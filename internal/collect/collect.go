// Package collect wires event acquisition to the accounting pipeline and
// owns its shutdown order.
package collect

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/ngram-keylogger/internal/filter"
	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/ngram"
	"github.com/verte-zerg/ngram-keylogger/internal/translate"
)

// DefaultBuffer is the capacity of the hand-off queue between readers and
// the processing worker.
const DefaultBuffer = 256

// Source produces raw events into out until ctx is done.
type Source func(ctx context.Context, out chan<- model.Event) error

// Pipeline is the single processing worker: translation, filters and
// accounting, strictly in arrival order.
type Pipeline struct {
	Translator translate.Translator
	Filters    []filter.Filter
	Router     *ngram.Router
	Log        *zap.Logger
}

func drain(events <-chan model.Event) iter.Seq[model.Event] {
	return func(yield func(model.Event) bool) {
		for ev := range events {
			if !yield(ev) {
				return
			}
		}
	}
}

// Process consumes events until the channel is closed, then saves every
// context.
func (p *Pipeline) Process(ctx context.Context, events <-chan model.Event) error {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	actions := 0
	for a := range filter.Chain(p.Translator.Translate(drain(events)), p.Filters...) {
		p.Router.Handle(ctx, a)
		actions++
	}
	log.Info("event stream closed, saving", zap.Int("actions", actions))
	if err := p.Router.SaveAll(ctx); err != nil {
		return fmt.Errorf("save on shutdown: %w", err)
	}
	return nil
}

// Collector runs readers, the pipeline and auxiliary pollers together.
type Collector struct {
	Source   Source
	Pipeline *Pipeline
	// Background tasks (context pollers, device watchers) stop with ctx.
	Background []func(ctx context.Context) error
	Buffer     int
}

// Run collects until ctx is cancelled. Shutdown is two-phase: readers stop
// and the queue is closed, then the worker drains what is queued and saves.
// Saving is not cut short by the cancellation that triggered it.
func (c *Collector) Run(ctx context.Context) error {
	size := c.Buffer
	if size <= 0 {
		size = DefaultBuffer
	}
	events := make(chan model.Event, size)

	var g errgroup.Group
	g.Go(func() error {
		defer close(events)
		return c.Source(ctx, events)
	})
	g.Go(func() error {
		return c.Pipeline.Process(context.WithoutCancel(ctx), events)
	})
	for _, task := range c.Background {
		g.Go(func() error { return task(ctx) })
	}
	return g.Wait()
}

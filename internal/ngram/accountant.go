// Package ngram counts 1-, 2- and 3-grams of actions per context and decides
// when the counts are written out.
package ngram

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// Default save thresholds, in actions.
const (
	DefaultSaveMin = 300
	DefaultSaveMax = 3000
)

// ErrBelowThreshold is returned by Save when fewer than SaveMin actions are
// pending. The counts stay in memory.
var ErrBelowThreshold = errors.New("not enough unsaved actions")

// Saver persists count deltas for one context.
type Saver interface {
	Increment(ctx context.Context, contextName string, counts model.Counts) error
}

// Thresholds bound how often counts are written.
type Thresholds struct {
	SaveMin int
	SaveMax int
}

// DefaultThresholds returns the default save thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{SaveMin: DefaultSaveMin, SaveMax: DefaultSaveMax}
}

// Accountant keeps the sliding window and the unsaved counts of a single
// context. It is not safe for concurrent use.
type Accountant struct {
	context    string
	saver      Saver
	thresholds Thresholds
	log        *zap.Logger

	window  [3]string
	counts  model.Counts
	unsaved int
	// nextSave is the Unsaved level that triggers the next automatic save.
	nextSave int
}

// NewAccountant returns an accountant with an empty window.
func NewAccountant(contextName string, saver Saver, thresholds Thresholds, log *zap.Logger) *Accountant {
	if log == nil {
		log = zap.NewNop()
	}
	return &Accountant{
		context:    contextName,
		saver:      saver,
		thresholds: thresholds,
		log:        log.With(zap.String("context", contextName)),
		window:     [3]string{model.Nothing, model.Nothing, model.Nothing},
		counts:     model.NewCounts(),
		nextSave:   thresholds.SaveMax,
	}
}

// Context returns the context name.
func (a *Accountant) Context() string { return a.context }

// Unsaved returns the number of actions accounted since the last save.
func (a *Accountant) Unsaved() int { return a.unsaved }

// Counts returns the pending deltas. The maps are owned by the accountant.
func (a *Accountant) Counts() model.Counts { return a.counts }

// Account pushes an action into the window and records the trailing
// n-grams. Reaching SaveMax triggers a save.
func (a *Accountant) Account(ctx context.Context, name string) {
	a.push(name)
	if name == model.Nothing {
		return
	}
	a.unsaved++
	if a.thresholds.SaveMax > 0 && a.unsaved >= a.nextSave {
		// Failures are logged by Save and retried later.
		_ = a.Save(ctx)
	}
}

func (a *Accountant) push(name string) {
	a.window[0], a.window[1], a.window[2] = a.window[1], a.window[2], name
	for n := 1; n <= 3; n++ {
		tail := a.window[3-n:]
		if hasNothing(tail) {
			continue
		}
		a.counts[n-1][model.NewGram(tail...)]++
	}
}

func hasNothing(names []string) bool {
	for _, name := range names {
		if name == model.Nothing {
			return true
		}
	}
	return false
}

// FlushPipeline pushes three sentinels so the next action starts a fresh
// sequence. Flushing an already flushed window records nothing.
func (a *Accountant) FlushPipeline() {
	for range 3 {
		a.push(model.Nothing)
	}
}

// Save writes the pending counts. Below SaveMin it refuses with
// ErrBelowThreshold. A failed write keeps the counts and postpones the next
// automatic attempt by SaveMin actions.
func (a *Accountant) Save(ctx context.Context) error {
	if a.unsaved == 0 {
		return nil
	}
	if a.unsaved < a.thresholds.SaveMin {
		a.log.Debug("skipping save",
			zap.Int("unsaved", a.unsaved),
			zap.Int("save_min", a.thresholds.SaveMin))
		return ErrBelowThreshold
	}
	if err := a.saver.Increment(ctx, a.context, a.counts); err != nil {
		a.nextSave = a.unsaved + max(a.thresholds.SaveMin, 1)
		a.log.Error("save failed, keeping counts in memory",
			zap.Int("unsaved", a.unsaved),
			zap.Int("next_attempt", a.nextSave),
			zap.Error(err))
		return fmt.Errorf("save context %q: %w", a.context, err)
	}
	a.log.Info("saved", zap.Int("actions", a.unsaved), zap.Int("grams", a.counts.Len()))
	a.counts = model.NewCounts()
	a.unsaved = 0
	a.nextSave = a.thresholds.SaveMax
	return nil
}

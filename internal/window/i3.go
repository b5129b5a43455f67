package window

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"go.i3wm.org/i3/v4"
	"go.uber.org/zap"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// eventStream is the part of *i3.EventReceiver the tracker reads.
type eventStream interface {
	Next() bool
	Event() i3.Event
	Close() error
}

// I3 follows the focused window of i3 or sway through IPC window events.
// Focus and title changes take effect immediately, without polling.
type I3 struct {
	rules   Rules
	log     *zap.Logger
	current atomic.Value

	focused   func() (string, error)
	subscribe func() eventStream
}

// NewI3 creates a tracker. A nil logger disables logging.
func NewI3(rules Rules, log *zap.Logger) *I3 {
	if log == nil {
		log = zap.NewNop()
	}
	w := &I3{
		rules:   rules,
		log:     log,
		focused: focusedTitle,
		subscribe: func() eventStream {
			return i3.Subscribe(i3.WindowEventType)
		},
	}
	w.current.Store(model.ContextDefault)
	return w
}

// UseSwaySocket points the IPC client at $SWAYSOCK.
func UseSwaySocket() error {
	path := os.Getenv("SWAYSOCK")
	if path == "" {
		return errors.New("SWAYSOCK is not set")
	}
	i3.SocketPathHook = func() (string, error) { return path, nil }
	return nil
}

func focusedTitle() (string, error) {
	tree, err := i3.GetTree()
	if err != nil {
		return "", err
	}
	node := tree.Root.FindFocused(func(n *i3.Node) bool { return n.Focused })
	if node == nil {
		return "", nil
	}
	return node.Name, nil
}

// Current implements Source.
func (w *I3) Current() string {
	return w.current.Load().(string)
}

func (w *I3) refresh() error {
	title, err := w.focused()
	if err != nil {
		return err
	}
	next := w.rules.Classify(title)
	if prev := w.Current(); prev != next {
		w.log.Debug("context switch", zap.String("from", prev), zap.String("to", next))
	}
	w.current.Store(next)
	return nil
}

// Run reads the focused window, then follows window events until ctx is
// done. It returns an error when the window manager cannot be reached or
// closes the event stream.
func (w *I3) Run(ctx context.Context) error {
	if err := w.refresh(); err != nil {
		return fmt.Errorf("read focused window: %w", err)
	}
	events := w.subscribe()
	stop := context.AfterFunc(ctx, func() { _ = events.Close() })
	for events.Next() {
		ev, ok := events.Event().(*i3.WindowEvent)
		if !ok || (ev.Change != "focus" && ev.Change != "title") {
			continue
		}
		if err := w.refresh(); err != nil {
			w.log.Warn("focused window unavailable", zap.Error(err))
		}
	}
	if !stop() {
		return nil
	}
	if err := events.Close(); err != nil {
		return fmt.Errorf("window events: %w", err)
	}
	return errors.New("window events: stream closed")
}

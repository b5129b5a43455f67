package device

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Waker broadcasts "something changed in the device directory" to every
// waiting reader.
type Waker struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewWaker returns a waker with no pending wakeup.
func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{})}
}

// C returns a channel that is closed on the next Wake.
func (w *Waker) C() <-chan struct{} {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ch
}

// Wake releases everyone waiting on C.
func (w *Waker) Wake() {
	w.mu.Lock()
	defer w.mu.Unlock()
	close(w.ch)
	w.ch = make(chan struct{})
}

// Watch wakes w whenever an entry is created in dir. It returns when ctx is
// done or the watcher fails.
func Watch(ctx context.Context, dir string, w *Waker, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := watcher.Close(); cerr != nil {
			// Best-effort watcher close.
			_ = cerr
		}
	}()
	if err := watcher.Add(dir); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Chmod) == 0 {
				continue
			}
			log.Debug("device directory changed", zap.String("path", event.Name))
			w.Wake()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("device watcher error", zap.Error(err))
		}
	}
}

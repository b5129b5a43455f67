package device

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// Retry delays.
const (
	RetryOpen = 15 * time.Second
	RetryLost = 5 * time.Second
)

// OpenFunc opens a device for reading.
type OpenFunc func(path string) (io.ReadCloser, error)

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Reader forwards events of one device, reopening it whenever it fails.
type Reader struct {
	Path      string
	Open      OpenFunc
	RetryOpen time.Duration
	RetryLost time.Duration
	// Waker cuts retry waits short. Optional.
	Waker *Waker
	Log   *zap.Logger
}

// NewReader returns a reader with the default open function and delays.
func NewReader(path string, waker *Waker, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{
		Path:      path,
		Open:      openFile,
		RetryOpen: RetryOpen,
		RetryLost: RetryLost,
		Waker:     waker,
		Log:       log.With(zap.String("device", path)),
	}
}

// Run reads until ctx is done. Errors are logged and retried, so Run only
// returns ctx's error.
func (r *Reader) Run(ctx context.Context, out chan<- model.Event) error {
	for {
		r.Log.Info("opening device")
		dev, err := r.Open(r.Path)
		if err != nil {
			r.Log.Warn("cannot open device", zap.Error(err), zap.Duration("retry_in", r.RetryOpen))
			if !r.wait(ctx, r.RetryOpen) {
				return ctx.Err()
			}
			continue
		}
		r.Log.Info("device opened")
		err = r.pump(ctx, dev, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.Log.Warn("device lost", zap.Error(err), zap.Duration("retry_in", r.RetryLost))
		if !r.wait(ctx, r.RetryLost) {
			return ctx.Err()
		}
	}
}

func (r *Reader) pump(ctx context.Context, dev io.ReadCloser, out chan<- model.Event) error {
	// Closing the device unblocks a pending read.
	stop := context.AfterFunc(ctx, func() { _ = dev.Close() })
	defer func() {
		if stop() {
			if cerr := dev.Close(); cerr != nil {
				// Best-effort device close.
				_ = cerr
			}
		}
	}()

	buf := make([]byte, EventSize)
	for {
		if _, err := io.ReadFull(dev, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		ev, err := Decode(buf)
		if err != nil {
			return err
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Reader) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	case <-r.Waker.C():
		r.Log.Debug("device directory changed, retrying early")
	}
	return true
}

// ReadAll runs one Reader per path until ctx is done. A failing device never
// stops the others.
func ReadAll(ctx context.Context, readers []*Reader, out chan<- model.Event) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range readers {
		g.Go(func() error {
			err := r.Run(ctx, out)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

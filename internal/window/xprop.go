package window

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// RunFunc executes a command and returns its standard output.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Poller polls the focused X11 window title with xprop and keeps the
// classified context for lock-free reads.
type Poller struct {
	rules    Rules
	interval time.Duration
	run      RunFunc
	log      *zap.Logger
	current  atomic.Value
}

// NewPoller creates a poller. A nil logger disables logging.
func NewPoller(rules Rules, interval time.Duration, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Poller{rules: rules, interval: interval, run: execRun, log: log}
	p.current.Store(model.ContextDefault)
	return p
}

// Current implements Source.
func (p *Poller) Current() string {
	return p.current.Load().(string)
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	failing := false
	for {
		if err := p.Poll(ctx); err != nil {
			if !failing {
				p.log.Warn("window title unavailable", zap.Error(err))
			}
			failing = true
		} else {
			failing = false
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll refreshes the current context once.
func (p *Poller) Poll(ctx context.Context) error {
	title, err := p.activeTitle(ctx)
	if err != nil {
		return err
	}
	next := p.rules.Classify(title)
	if prev := p.Current(); prev != next {
		p.log.Debug("context switch", zap.String("from", prev), zap.String("to", next))
	}
	p.current.Store(next)
	return nil
}

func (p *Poller) activeTitle(ctx context.Context) (string, error) {
	out, err := p.run(ctx, "xprop", "-root", "_NET_ACTIVE_WINDOW")
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return "", errors.New("failed to parse xprop output")
	}
	id := fields[len(fields)-1]
	if id == "0x0" {
		return "", nil
	}
	out, err = p.run(ctx, "xprop", "-id", id, "_NET_WM_NAME", "WM_NAME")
	if err != nil {
		return "", err
	}
	return parseTitle(string(out)), nil
}

func parseTitle(out string) string {
	for _, line := range strings.Split(out, "\n") {
		_, value, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = value[1 : len(value)-1]
		}
		return strings.ReplaceAll(value, `\"`, `"`)
	}
	return ""
}

package filter

import (
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/procscan"
)

// ProcessScan suspends logging while a designated process (a password
// prompt, typically) is running. The scan result is cached for interval.
// Entering a suspension emits one pipeline flush so that no n-gram spans
// the suppressed stretch.
type ProcessScan struct {
	scanner  procscan.Scanner
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger

	lastCheck time.Time
	lastName  string
	lastFound bool
}

// NewProcessScan builds the filter. A nil logger disables logging.
func NewProcessScan(scanner procscan.Scanner, interval time.Duration, log *zap.Logger) *ProcessScan {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProcessScan{scanner: scanner, interval: interval, now: time.Now, log: log}
}

func (p *ProcessScan) check() (string, bool) {
	now := p.now()
	if !p.lastCheck.IsZero() && now.Sub(p.lastCheck) < p.interval {
		return p.lastName, p.lastFound
	}
	p.lastCheck = now
	p.lastName, p.lastFound = p.scanner.Scan()
	return p.lastName, p.lastFound
}

// Apply implements Filter.
func (p *ProcessScan) Apply(seq iter.Seq[model.Action]) iter.Seq[model.Action] {
	return func(yield func(model.Action) bool) {
		suspended := false
		for a := range seq {
			name, found := p.check()
			if !found {
				if suspended {
					p.log.Info("resuming logging")
					suspended = false
				}
				if !yield(a) {
					return
				}
				continue
			}
			if suspended {
				continue
			}
			suspended = true
			p.log.Info("detected process temporarily suspends logging", zap.String("process", name))
			for range 3 {
				if !yield(model.Action{Name: model.Nothing}) {
					return
				}
			}
		}
	}
}

package ngram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// Router dispatches actions to one accountant per context. Only one context
// is active at a time; switching flushes the previous one, so no n-gram
// crosses a context boundary.
type Router struct {
	saver      Saver
	thresholds Thresholds
	log        *zap.Logger

	active      string
	accountants map[string]*Accountant
	order       []string
}

// NewRouter returns a router with no accountants.
func NewRouter(saver Saver, thresholds Thresholds, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		saver:       saver,
		thresholds:  thresholds,
		log:         log,
		accountants: map[string]*Accountant{},
	}
}

// Handle routes a single action.
func (r *Router) Handle(ctx context.Context, action model.Action) {
	if action.IsNothing() {
		if acc, ok := r.accountants[r.active]; ok {
			acc.FlushPipeline()
		}
		return
	}
	name := action.Context
	if name == "" {
		name = model.ContextDefault
	}
	if name == model.ContextIgnore {
		return
	}
	if name != r.active {
		if prev, ok := r.accountants[r.active]; ok {
			prev.FlushPipeline()
		}
		r.log.Debug("switching context", zap.String("from", r.active), zap.String("to", name))
		r.active = name
	}
	r.accountant(name).Account(ctx, action.Name)
}

func (r *Router) accountant(name string) *Accountant {
	acc, ok := r.accountants[name]
	if !ok {
		acc = NewAccountant(name, r.saver, r.thresholds, r.log)
		r.accountants[name] = acc
		r.order = append(r.order, name)
	}
	return acc
}

// Active returns the active context, or "" before the first action.
func (r *Router) Active() string { return r.active }

// Accountant returns the accountant of a context if one was created.
func (r *Router) Accountant(name string) (*Accountant, bool) {
	acc, ok := r.accountants[name]
	return acc, ok
}

// Contexts lists the known contexts in creation order.
func (r *Router) Contexts() []string {
	return append([]string(nil), r.order...)
}

// SaveAll flushes every pipeline and saves every context regardless of
// SaveMax. Contexts below SaveMin are skipped. Write errors are joined.
func (r *Router) SaveAll(ctx context.Context) error {
	var errs []error
	for _, name := range r.order {
		acc := r.accountants[name]
		acc.FlushPipeline()
		err := acc.Save(ctx)
		if err == nil || errors.Is(err, ErrBelowThreshold) {
			continue
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

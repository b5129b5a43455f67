package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/ngram-keylogger/internal/filter"
	"github.com/verte-zerg/ngram-keylogger/internal/procscan"
	"github.com/verte-zerg/ngram-keylogger/internal/window"
)

// ErrUnknownFilter is returned for filter names that are not built in.
var ErrUnknownFilter = errors.New("unknown filter")

// Filter names accepted in [collect] filters.
const (
	FilterProcessScan        = "process-scan"
	FilterShiftPrintables    = "shift-printables"
	FilterAbbreviateControls = "abbreviate-controls"
	FilterReplace            = "replace"
	FilterSkip               = "skip"
	FilterRussianLayout      = "russian-layout"
	FilterModal              = "modal"
)

// DefaultFilters is the chain used when the config names none.
var DefaultFilters = []string{
	FilterProcessScan,
	FilterShiftPrintables,
	FilterAbbreviateControls,
	FilterReplace,
	FilterSkip,
}

// DefaultProcessNames are password prompts that suspend logging.
var DefaultProcessNames = []string{
	"pinentry",
	"pinentry-curses",
	"pinentry-gnome3",
	"pinentry-gtk-2",
	"pinentry-qt",
	"ssh-askpass",
	"polkit-agent-helper-1",
}

// DefaultScanInterval bounds how often /proc is scanned.
const DefaultScanInterval = time.Second

// FilterNames lists the built-in filter names.
func FilterNames() []string {
	names := []string{
		FilterProcessScan,
		FilterShiftPrintables,
		FilterAbbreviateControls,
		FilterReplace,
		FilterSkip,
		FilterRussianLayout,
		FilterModal,
	}
	sort.Strings(names)
	return names
}

// BuildFilters resolves filter names into a chain, in order. Filters that
// need settings read them from cfg.
func BuildFilters(cfg FileConfig, names []string, log *zap.Logger) ([]filter.Filter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	filters := make([]filter.Filter, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		var f filter.Filter
		switch name {
		case FilterProcessScan:
			f = buildProcessScan(cfg.ProcessScan, log)
		case FilterShiftPrintables:
			f = filter.ShiftPrintables()
		case FilterAbbreviateControls:
			f = filter.AbbreviateControls()
		case FilterReplace:
			f = filter.Replace(cfg.Replace)
		case FilterSkip:
			f = filter.Skip(cfg.Skip.Actions)
		case FilterRussianLayout:
			f = filter.RussianLayout()
		case FilterModal:
			f = filter.NewModal(filter.ModalConfig{
				EnterMeta:    cfg.Modal.EnterMeta,
				ExitMeta:     cfg.Modal.ExitMeta,
				EnterMove:    cfg.Modal.EnterMove,
				MoveToPrefix: cfg.Modal.MoveToPrefix,
			})
		default:
			return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownFilter, raw, strings.Join(FilterNames(), ", "))
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func buildProcessScan(cfg ProcessScanConfig, log *zap.Logger) filter.Filter {
	names := cfg.Names
	if len(names) == 0 {
		names = DefaultProcessNames
	}
	interval := DefaultScanInterval
	if cfg.Interval != nil {
		interval = cfg.Interval.Duration
	}
	return filter.NewProcessScan(procscan.NewNames(names), interval, log)
}

// ContextRules compiles the [[context]] rules.
func ContextRules(cfg FileConfig) (window.Rules, error) {
	pairs := make([][2]string, len(cfg.Contexts))
	for i, r := range cfg.Contexts {
		pairs[i] = [2]string{r.Title, r.Context}
	}
	return window.CompileRules(pairs)
}

// Package model defines shared data structures.
package model

import "time"

// Event types and values of the Linux input subsystem that the pipeline
// cares about.
const (
	EvKey uint16 = 1

	ValueRelease int32 = 0
	ValuePress   int32 = 1
	ValueRepeat  int32 = 2
)

// Nothing is the boundary sentinel. It marks an inactivity gap or a context
// switch; no recorded n-gram ever contains it.
const Nothing = "..."

// Reserved contexts.
const (
	ContextDefault = "default"
	// ContextIgnore drops actions entirely: no counting, no flushing.
	ContextIgnore = "<ignore>"
)

// Event is a raw input event.
type Event struct {
	Time  time.Time
	Type  uint16
	Code  uint16
	Value int32
}

// KeyEvent is an event together with the attributes derived by the
// conditioning stages.
type KeyEvent struct {
	Event
	Extras Extras
}

// Action is a symbolic keystroke or gesture with an optional context hint.
// An empty Context means the producer has no opinion.
type Action struct {
	Name    string
	Context string
}

// IsNothing reports whether the action is the boundary sentinel.
func (a Action) IsNothing() bool {
	return a.Name == Nothing
}

// Gram is an ordered tuple of one to three actions.
type Gram struct {
	N     int
	Slots [3]string
}

// NewGram builds a gram from up to three action names.
func NewGram(names ...string) Gram {
	g := Gram{N: len(names)}
	copy(g.Slots[:], names)
	return g
}

// Names returns the populated slots.
func (g Gram) Names() []string {
	return g.Slots[:g.N]
}

// Counts holds in-memory count deltas for 1-, 2- and 3-grams. Index n-1
// holds the n-grams.
type Counts [3]map[Gram]int64

// NewCounts returns empty counters.
func NewCounts() Counts {
	return Counts{{}, {}, {}}
}

// Len returns the number of distinct grams across all orders.
func (c Counts) Len() int {
	return len(c[0]) + len(c[1]) + len(c[2])
}

// Row is a single query result. Value carries the count, or the fraction
// when normalization was requested.
type Row struct {
	Value   float64  `json:"value" yaml:"value"`
	Count   int64    `json:"count" yaml:"count"`
	Context string   `json:"context,omitempty" yaml:"context,omitempty"`
	Slots   []string `json:"slots,omitempty" yaml:"slots,omitempty"`
}

// CollectConfig defines collection settings.
type CollectConfig struct {
	Devices      []string
	DBPath       string
	Translator   string
	RestDuration time.Duration
	SaveMin      int
	SaveMax      int
	Filters      []string
}

// QueryConfig defines filters and options for query output.
type QueryConfig struct {
	Contexts    string
	ByContext   bool
	Limit       int
	Fraction    bool
	Cumulative  bool
	Renormalize bool
}

package filter

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/procscan"
)

func actions(names ...string) []model.Action {
	out := make([]model.Action, len(names))
	for i, n := range names {
		out[i] = model.Action{Name: n, Context: "ctx"}
	}
	return out
}

func apply(f Filter, names ...string) []string {
	var out []string
	for a := range f.Apply(slices.Values(actions(names...))) {
		out = append(out, a.Name)
	}
	return out
}

func TestReplace(t *testing.T) {
	f := Replace(map[string]string{
		"Alt-Meta-q":   "workspace-1",
		"Alt-Meta-f11": "",
	})
	assert.Equal(t,
		[]string{"a", "workspace-1", "b"},
		apply(f, "a", "Alt-Meta-q", "Alt-Meta-f11", "b"))
}

func TestReplaceKeepsContext(t *testing.T) {
	f := Replace(map[string]string{"x": "y"})
	out := slices.Collect(f.Apply(slices.Values(actions("x"))))
	require.Len(t, out, 1)
	assert.Equal(t, model.Action{Name: "y", Context: "ctx"}, out[0])
}

func TestSkip(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, apply(Skip([]string{"b"}), "a", "b", "c", "b"))
}

func TestShiftAndControlTables(t *testing.T) {
	shift := ShiftTable()
	assert.Equal(t, "A", shift["Shift-a"])
	assert.Equal(t, "!", shift["Shift-1"])
	assert.Equal(t, "?", shift["Shift-/"])
	assert.Equal(t, "`", shift["Shift-~"])
	assert.Equal(t, "^C", ControlTable()["Control-c"])
}

func TestChainOrder(t *testing.T) {
	seq := slices.Values(actions("Shift-a", "Control-c", "Control-Shift-c", "Alt-Meta-q"))
	var out []string
	for a := range Chain(seq,
		ShiftPrintables(),
		AbbreviateControls(),
		Replace(map[string]string{"Alt-Meta-q": "workspace-1"}),
	) {
		out = append(out, a.Name)
	}
	assert.Equal(t, []string{"A", "^C", "Control-Shift-c", "workspace-1"}, out)
}

func TestLayout(t *testing.T) {
	f := RussianLayout()
	assert.Equal(t,
		[]string{"q", "ru-й", "q", "ru-Й", "ru-Й", "№", "w"},
		apply(f,
			"q",
			"Control-compose", "q",
			"q",
			"Control-compose", "Q",
			"Control-Shift-compose", "Shift-q",
			"Control-compose", "#",
			"Control-compose", "F12",
			"w",
		))
}

func TestLayoutRepeatIsDropped(t *testing.T) {
	assert.Equal(t, []string{"q+"}, apply(RussianLayout(), "Control-compose", "q+", "q+"))
}

func TestLayoutPassesSentinel(t *testing.T) {
	assert.Equal(t,
		[]string{model.Nothing, "ru-ф"},
		apply(RussianLayout(), "Control-compose", model.Nothing, "a"))
}

func TestModal(t *testing.T) {
	f := NewModal(ModalConfig{
		EnterMeta:    []string{"Alt-Meta-f11"},
		ExitMeta:     []string{"Alt-Meta-f12"},
		EnterMove:    []string{"window-move-to"},
		MoveToPrefix: "workspace-",
	})
	out := apply(f,
		"left",
		"Alt-Meta-f11",
		"left", "pageup", "x",
		"window-move-to", "end",
		"down",
		"window-move-to", "workspace-3",
		"window-move-to", "y",
		"home",
		"Alt-Meta-f12",
		"left",
	)
	assert.Equal(t, []string{
		"left",
		"focus-left", "focus-up", "x",
		"move-right",
		"focus-down",
		"move-to-workspace-3",
		"y",
		"focus-left",
		"left",
	}, out)
}

func TestModalStaysAcrossSentinels(t *testing.T) {
	f := NewModal(ModalConfig{EnterMeta: []string{"m"}})
	assert.Equal(t,
		[]string{model.Nothing, model.Nothing, model.Nothing, "focus-up"},
		apply(f, "m", model.Nothing, model.Nothing, model.Nothing, "up"))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestProcessScanThrottlesAndSuppresses(t *testing.T) {
	var running atomic.Bool
	var scans atomic.Int32
	scanner := procscan.ScannerFunc(func() (string, bool) {
		scans.Add(1)
		return "pinentry", running.Load()
	})
	clock := &fakeClock{now: time.Unix(100, 0)}
	p := NewProcessScan(scanner, time.Second, nil)
	p.now = clock.Now

	input := make(chan model.Action)
	output := make(chan string)
	go func() {
		defer close(output)
		seq := func(yield func(model.Action) bool) {
			for a := range input {
				if !yield(a) {
					return
				}
			}
		}
		for a := range p.Apply(seq) {
			output <- a.Name
		}
	}()
	send := func(name string) { input <- model.Action{Name: name} }

	send("a")
	assert.Equal(t, "a", <-output)
	send("b")
	assert.Equal(t, "b", <-output)
	assert.Equal(t, int32(1), scans.Load(), "second action within the interval uses the cached result")

	running.Store(true)
	clock.Advance(2 * time.Second)
	send("s")
	for range 3 {
		assert.Equal(t, model.Nothing, <-output)
	}
	send("e")
	send("c")

	running.Store(false)
	clock.Advance(2 * time.Second)
	send("d")
	assert.Equal(t, "d", <-output)
	assert.Equal(t, int32(3), scans.Load())
	close(input)
	_, ok := <-output
	assert.False(t, ok)
}

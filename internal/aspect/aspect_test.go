package aspect

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/ngram-keylogger/internal/keys"
	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

var t0 = time.Unix(1000, 0)

func key(at time.Duration, code uint16, value int32) model.Event {
	return model.Event{Time: t0.Add(at), Type: model.EvKey, Code: code, Value: value}
}

func run(stage Stage, events ...model.Event) []model.KeyEvent {
	return slices.Collect(stage(Wrap(slices.Values(events))))
}

func TestKeysOnly(t *testing.T) {
	out := run(KeysOnly,
		model.Event{Type: 0, Code: 0},
		key(0, 30, 1),
		model.Event{Type: 4, Code: 4, Value: 30},
	)
	require.Len(t, out, 1)
	assert.Equal(t, uint16(30), out[0].Code)
}

func TestInactivity(t *testing.T) {
	out := run(Inactivity(2*time.Second),
		key(0, 30, 1),
		key(time.Second, 30, 0),
		key(3*time.Second, 31, 1),
		key(5*time.Second, 31, 0),
		key(7500*time.Millisecond, 32, 1),
	)
	require.Len(t, out, 5)
	want := []bool{true, false, false, false, true}
	for i, ev := range out {
		after, ok := ev.Extras.AfterInactivity()
		require.True(t, ok)
		assert.Equal(t, want[i], after, "event %d", i)
	}
}

func TestModifiersConsumedAndPrefixed(t *testing.T) {
	out := run(Modifiers(),
		key(0, keys.LeftShift, 1),
		key(0, keys.LeftCtrl, 1),
		key(0, 46, 1),
		key(0, keys.LeftCtrl, 0),
		key(0, 46, 1),
		key(0, keys.LeftShift, 0),
		key(0, 46, 1),
	)
	require.Len(t, out, 3)
	prefixes := make([]string, len(out))
	for i, ev := range out {
		prefixes[i], _ = ev.Extras.ModifiersPrefix()
	}
	assert.Equal(t, []string{"Control-Shift-", "Shift-", ""}, prefixes)
}

func TestModifiersLeftRightCollapse(t *testing.T) {
	out := run(Modifiers(),
		key(0, keys.LeftShift, 1),
		key(0, keys.RightShift, 1),
		key(0, keys.LeftShift, 0),
		key(0, 30, 1),
	)
	require.Len(t, out, 1)
	prefix, _ := out[0].Extras.ModifiersPrefix()
	assert.Equal(t, "Shift-", prefix)
}

func TestModifiersCarryGapToChord(t *testing.T) {
	ms := time.Millisecond
	out := slices.Collect(Modifiers()(Inactivity(2 * time.Second)(Wrap(slices.Values([]model.Event{
		key(0, 35, 1),
		key(50*ms, 35, 0),
		key(5*time.Second, keys.LeftShift, 1),
		key(5*time.Second+50*ms, 30, 1),
		key(5*time.Second+80*ms, 30, 0),
		key(5*time.Second+100*ms, keys.LeftShift, 0),
		key(5*time.Second+150*ms, 31, 1),
	})))))
	require.Len(t, out, 5)

	chord := out[2]
	assert.Equal(t, uint16(30), chord.Code)
	after, _ := chord.Extras.AfterInactivity()
	assert.False(t, after)
	gap, ok := chord.Extras.GapBeforeChord()
	assert.True(t, ok)
	assert.True(t, gap)
	assert.True(t, chord.Extras.AfterGap())

	release := out[3]
	_, ok = release.Extras.GapBeforeChord()
	assert.False(t, ok, "releases do not take the gap")

	next := out[4]
	gap, ok = next.Extras.GapBeforeChord()
	assert.True(t, ok)
	assert.False(t, gap, "the gap is handed on only once")
	assert.False(t, next.Extras.AfterGap())
}

func TestRepeating(t *testing.T) {
	out := run(Repeating(),
		key(0, 30, 1),
		key(0, 30, 2),
		key(0, 30, 2),
		key(0, 30, 2),
		key(0, 30, 0),
		key(0, 30, 1),
		key(0, 30, 0),
	)
	require.Len(t, out, 3)
	want := []bool{false, true, false}
	for i, ev := range out {
		repeat, ok := ev.Extras.Repeat()
		require.True(t, ok)
		assert.Equal(t, want[i], repeat, "event %d", i)
	}
}

func TestConditionKeepsEarlierExtras(t *testing.T) {
	events := []model.Event{
		{Time: t0, Type: 0},
		key(0, keys.LeftShift, 1),
		key(2*time.Second, 35, 1),
		key(2*time.Second+20*time.Millisecond, 35, 0),
	}
	out := slices.Collect(Condition(slices.Values(events), time.Second))
	require.Len(t, out, 1)
	ev := out[0]
	after, ok := ev.Extras.AfterInactivity()
	assert.True(t, ok)
	assert.True(t, after)
	prefix, ok := ev.Extras.ModifiersPrefix()
	assert.True(t, ok)
	assert.Equal(t, "Shift-", prefix)
	repeat, ok := ev.Extras.Repeat()
	assert.True(t, ok)
	assert.False(t, repeat)
}

package model

type extrasKey uint8

const (
	keyAfterInactivity extrasKey = 1 << iota
	keyRepeat
	keyModifiersPrefix
	keyGapBeforeChord
)

// Extras carries attributes derived while an event passes through the
// conditioning stages. It is append-only: With* methods return a copy with
// the attribute set, and an attribute that is already set keeps its first
// value.
type Extras struct {
	set             extrasKey
	afterInactivity bool
	repeat          bool
	modifiersPrefix string
	gapBeforeChord  bool
}

// WithAfterInactivity records whether the event follows an inactivity gap.
func (e Extras) WithAfterInactivity(v bool) Extras {
	if e.set&keyAfterInactivity != 0 {
		return e
	}
	e.set |= keyAfterInactivity
	e.afterInactivity = v
	return e
}

// WithRepeat records whether the event starts an auto-repeat run.
func (e Extras) WithRepeat(v bool) Extras {
	if e.set&keyRepeat != 0 {
		return e
	}
	e.set |= keyRepeat
	e.repeat = v
	return e
}

// WithModifiersPrefix records the held modifiers, e.g. "Control-Shift-".
func (e Extras) WithModifiersPrefix(v string) Extras {
	if e.set&keyModifiersPrefix != 0 {
		return e
	}
	e.set |= keyModifiersPrefix
	e.modifiersPrefix = v
	return e
}

// WithGapBeforeChord records that a consumed modifier press, which opened
// the chord this event belongs to, followed an inactivity gap.
func (e Extras) WithGapBeforeChord(v bool) Extras {
	if e.set&keyGapBeforeChord != 0 {
		return e
	}
	e.set |= keyGapBeforeChord
	e.gapBeforeChord = v
	return e
}

// AfterInactivity returns the inactivity flag and whether it was set.
func (e Extras) AfterInactivity() (bool, bool) {
	return e.afterInactivity, e.set&keyAfterInactivity != 0
}

// Repeat returns the repeat flag and whether it was set.
func (e Extras) Repeat() (bool, bool) {
	return e.repeat, e.set&keyRepeat != 0
}

// ModifiersPrefix returns the modifier prefix and whether it was set.
func (e Extras) ModifiersPrefix() (string, bool) {
	return e.modifiersPrefix, e.set&keyModifiersPrefix != 0
}

// GapBeforeChord returns the chord gap flag and whether it was set.
func (e Extras) GapBeforeChord() (bool, bool) {
	return e.gapBeforeChord, e.set&keyGapBeforeChord != 0
}

// AfterGap reports whether the event starts a new run of typing, either
// directly or through the modifier press that opened its chord.
func (e Extras) AfterGap() bool {
	return e.afterInactivity || e.gapBeforeChord
}

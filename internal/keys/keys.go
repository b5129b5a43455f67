// Package keys names Linux input key codes.
package keys

import "strconv"

// Key codes referenced by the conditioning stages.
const (
	LeftCtrl   uint16 = 29
	LeftShift  uint16 = 42
	RightShift uint16 = 54
	LeftAlt    uint16 = 56
	RightCtrl  uint16 = 97
	RightAlt   uint16 = 100
	LeftMeta   uint16 = 125
	RightMeta  uint16 = 126
)

// Logical modifier names, in prefix order.
const (
	Control = "Control"
	Alt     = "Alt"
	Meta    = "Meta"
	Shift   = "Shift"
)

// ModifierOrder is the stable order in which held modifiers are rendered.
var ModifierOrder = []string{Control, Alt, Meta, Shift}

var modifiers = map[uint16]string{
	LeftCtrl:   Control,
	RightCtrl:  Control,
	LeftAlt:    Alt,
	RightAlt:   Alt,
	LeftMeta:   Meta,
	RightMeta:  Meta,
	LeftShift:  Shift,
	RightShift: Shift,
}

// Modifier returns the logical modifier name for a code.
func Modifier(code uint16) (string, bool) {
	name, ok := modifiers[code]
	return name, ok
}

// punctuation keys are named by the character they type.
var punctuation = map[uint16]string{
	12: "-",
	13: "=",
	26: "[",
	27: "]",
	39: ";",
	40: "'",
	41: "~",
	43: "\\",
	51: ",",
	52: ".",
	53: "/",
}

var names = map[uint16]string{
	1: "esc", 2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	14: "backspace", 15: "tab",
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	28: "enter", 29: "leftctrl",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	42: "leftshift",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
	54: "rightshift", 55: "kpasterisk", 56: "leftalt", 57: "space", 58: "capslock",
	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5", 64: "f6", 65: "f7", 66: "f8", 67: "f9", 68: "f10",
	69: "numlock", 70: "scrolllock",
	71: "kp7", 72: "kp8", 73: "kp9", 74: "kpminus", 75: "kp4", 76: "kp5", 77: "kp6", 78: "kpplus",
	79: "kp1", 80: "kp2", 81: "kp3", 82: "kp0", 83: "kpdot",
	85: "zenkakuhankaku", 86: "102nd", 87: "f11", 88: "f12",
	96: "kpenter", 97: "rightctrl", 98: "kpslash", 99: "sysrq", 100: "rightalt",
	102: "home", 103: "up", 104: "pageup", 105: "left", 106: "right", 107: "end", 108: "down",
	109: "pagedown", 110: "insert", 111: "delete",
	113: "mute", 114: "volumedown", 115: "volumeup", 116: "power", 117: "kpequal", 119: "pause",
	121: "kpcomma", 125: "leftmeta", 126: "rightmeta", 127: "compose",
	128: "stop", 129: "again", 130: "props", 131: "undo", 132: "front", 133: "copy", 134: "open",
	135: "paste", 136: "find", 137: "cut", 138: "help", 139: "menu", 140: "calc",
	142: "sleep", 143: "wakeup", 150: "www", 155: "mail", 156: "bookmarks", 158: "back", 159: "forward",
	163: "nextsong", 164: "playpause", 165: "previoussong", 166: "stopcd",
	172: "homepage", 173: "refresh",
	183: "f13", 184: "f14", 185: "f15", 186: "f16", 187: "f17", 188: "f18",
	189: "f19", 190: "f20", 191: "f21", 192: "f22", 193: "f23", 194: "f24",
	210: "print", 217: "search", 224: "brightnessdown", 225: "brightnessup",
	240: "unknown",
	272: "btn_left", 273: "btn_right", 274: "btn_middle", 275: "btn_side", 276: "btn_extra",
}

// ShortName returns a short lowercase name for a key code: the typed
// character for punctuation keys, the kernel name without its KEY_ prefix
// otherwise, and "key-<code>" for codes this table does not know.
func ShortName(code uint16) string {
	if s, ok := punctuation[code]; ok {
		return s
	}
	if s, ok := names[code]; ok {
		return s
	}
	return "key-" + strconv.Itoa(int(code))
}

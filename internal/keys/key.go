// Package keys translates keyboard events into the byte sequences a remote
// terminal session expects.
//
// Encoding is table driven. Every named key has an Entry holding optional
// sequences per modifier combination, with per keyboard-mode overrides for
// xterm and SCO. Ctrl and Alt on letters are computed instead of looked up.
// Encode is a pure function of the event and the session context; the only
// stateful parts (the OS-key meta latch and the F11 debounce) live in Encoder.
package keys

import (
	"strconv"
	"strings"
)

// Key identifies a physical key independent of the character it produces.
type Key uint8

// Named keys. Letters, digits and punctuation are named so that modifier
// arithmetic can be applied to them; their unmodified output is the host's
// native text.
const (
	KeyUnknown Key = iota

	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	KeyMinus
	KeyEqual
	KeyBracketLeft
	KeyBracketRight
	KeyBackslash
	KeySemicolon
	KeyQuote
	KeyComma
	KeyPeriod
	KeySlash
	KeyBackquote

	KeyBackspace
	KeyTab
	KeyEnter
	KeyEscape
	KeySpace
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyF21
	KeyF22
	KeyF23
	KeyF24
	KeyF25
	KeyF26
	KeyF27
	KeyF28
	KeyF29
	KeyF30
	KeyF31
	KeyF32
	KeyF33
	KeyF34
	KeyF35
	KeyF36
	KeyF37
	KeyF38
	KeyF39
	KeyF40
	KeyF41
	KeyF42
	KeyF43
	KeyF44
	KeyF45
	KeyF46
	KeyF47
	KeyF48

	KeyShift
	KeyControl
	KeyAlt
	KeyOSLeft
	KeyOSRight
	KeyCapsLock

	KeyPause
	KeyScrollLock
	KeyPrintScreen
	KeyContextMenu

	keyCount
)

// IsLetter reports whether k is one of KeyA..KeyZ.
func (k Key) IsLetter() bool { return k >= KeyA && k <= KeyZ }

// IsDigit reports whether k is one of Key0..Key9.
func (k Key) IsDigit() bool { return k >= Key0 && k <= Key9 }

// IsFunction reports whether k is one of KeyF1..KeyF48.
func (k Key) IsFunction() bool { return k >= KeyF1 && k <= KeyF48 }

// IsArrow reports whether k is one of the four cursor keys.
func (k Key) IsArrow() bool { return k >= KeyUp && k <= KeyRight }

// IsModifier reports whether k only changes modifier state.
func (k Key) IsModifier() bool { return k >= KeyShift && k <= KeyCapsLock }

// IsOSKey reports whether k is one of the left/right OS keys used to emulate
// the meta modifier.
func (k Key) IsOSKey() bool { return k == KeyOSLeft || k == KeyOSRight }

// Letter returns the upper-case ASCII letter for letter keys, or 0.
func (k Key) Letter() byte {
	if !k.IsLetter() {
		return 0
	}
	return 'A' + byte(k-KeyA)
}

// FunctionNumber returns n for KeyFn, or 0.
func (k Key) FunctionNumber() int {
	if !k.IsFunction() {
		return 0
	}
	return int(k-KeyF1) + 1
}

// FunctionKey returns KeyFn for n in 1..48, or KeyUnknown.
func FunctionKey(n int) Key {
	if n < 1 || n > 48 {
		return KeyUnknown
	}
	return KeyF1 + Key(n-1)
}

// LetterKey returns the key for an ASCII letter of either case.
func LetterKey(c byte) Key {
	switch {
	case c >= 'a' && c <= 'z':
		return KeyA + Key(c-'a')
	case c >= 'A' && c <= 'Z':
		return KeyA + Key(c-'A')
	}
	return KeyUnknown
}

var keyNames = map[Key]string{
	KeyUnknown:      "unknown",
	KeyMinus:        "minus",
	KeyEqual:        "equal",
	KeyBracketLeft:  "bracketleft",
	KeyBracketRight: "bracketright",
	KeyBackslash:    "backslash",
	KeySemicolon:    "semicolon",
	KeyQuote:        "quote",
	KeyComma:        "comma",
	KeyPeriod:       "period",
	KeySlash:        "slash",
	KeyBackquote:    "backquote",
	KeyBackspace:    "backspace",
	KeyTab:          "tab",
	KeyEnter:        "enter",
	KeyEscape:       "escape",
	KeySpace:        "space",
	KeyInsert:       "insert",
	KeyDelete:       "delete",
	KeyHome:         "home",
	KeyEnd:          "end",
	KeyPageUp:       "pageup",
	KeyPageDown:     "pagedown",
	KeyUp:           "up",
	KeyDown:         "down",
	KeyLeft:         "left",
	KeyRight:        "right",
	KeyShift:        "shift",
	KeyControl:      "control",
	KeyAlt:          "alt",
	KeyOSLeft:       "osleft",
	KeyOSRight:      "osright",
	KeyCapsLock:     "capslock",
	KeyPause:        "pause",
	KeyScrollLock:   "scrolllock",
	KeyPrintScreen:  "printscreen",
	KeyContextMenu:  "contextmenu",
}

// aliases accepted by ParseKey in addition to the canonical names.
var keyAliases = map[string]Key{
	"esc":      KeyEscape,
	"return":   KeyEnter,
	"del":      KeyDelete,
	"ins":      KeyInsert,
	"pgup":     KeyPageUp,
	"pgdown":   KeyPageDown,
	"pgdn":     KeyPageDown,
	"bs":       KeyBackspace,
	"ctrl":     KeyControl,
	"super":    KeyOSLeft,
	"meta":     KeyOSLeft,
	"menu":     KeyContextMenu,
	"-":        KeyMinus,
	"=":        KeyEqual,
	"[":        KeyBracketLeft,
	"]":        KeyBracketRight,
	"\\":       KeyBackslash,
	";":        KeySemicolon,
	"'":        KeyQuote,
	",":        KeyComma,
	".":        KeyPeriod,
	"/":        KeySlash,
	"`":        KeyBackquote,
	" ":        KeySpace,
	"printscr": KeyPrintScreen,
	"scrlk":    KeyScrollLock,
	"break":    KeyPause,
	"backtick": KeyBackquote,
}

var namesToKeys = func() map[string]Key {
	m := make(map[string]Key, int(keyCount)+len(keyAliases))
	for k := Key(1); k < keyCount; k++ {
		m[k.String()] = k
	}
	for name, k := range keyAliases {
		m[name] = k
	}
	return m
}()

// String returns the canonical lower-case key name.
func (k Key) String() string {
	switch {
	case k.IsLetter():
		return string(rune('a' + k - KeyA))
	case k.IsDigit():
		return string(rune('0' + k - Key0))
	case k.IsFunction():
		return "f" + strconv.Itoa(k.FunctionNumber())
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKey looks a key up by canonical name or alias, case-insensitively.
func ParseKey(name string) (Key, bool) {
	if name == " " {
		return KeySpace, true
	}
	k, ok := namesToKeys[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

package keys

import (
	"fmt"
	"strings"
)

// Mod is a set of held modifier keys.
type Mod uint8

// Modifier bits.
const (
	ModShift Mod = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Contains reports whether all bits of other are set in m.
func (m Mod) Contains(other Mod) bool { return m&other == other }

func (m Mod) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m.Contains(ModCtrl) {
		parts = append(parts, "ctrl")
	}
	if m.Contains(ModAlt) {
		parts = append(parts, "alt")
	}
	if m.Contains(ModMeta) {
		parts = append(parts, "meta")
	}
	if m.Contains(ModShift) {
		parts = append(parts, "shift")
	}
	return strings.Join(parts, "+")
}

// KeyboardMode is the key-encoding dialect negotiated with the remote side.
type KeyboardMode uint8

// Keyboard modes.
const (
	ModeDefault KeyboardMode = iota // VT220
	ModeXterm
	ModeSCO
)

func (m KeyboardMode) String() string {
	switch m {
	case ModeXterm:
		return "xterm"
	case ModeSCO:
		return "sco"
	default:
		return "default"
	}
}

// ParseKeyboardMode parses "default", "vt220", "xterm" or "sco".
func ParseKeyboardMode(s string) (KeyboardMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "vt220":
		return ModeDefault, nil
	case "xterm":
		return ModeXterm, nil
	case "sco":
		return ModeSCO, nil
	}
	return ModeDefault, fmt.Errorf("unknown keyboard mode %q", s)
}

// CursorMode selects the arrow-key encoding (DECCKM).
type CursorMode uint8

// Cursor modes.
const (
	CursorNormal CursorMode = iota
	CursorApplication
)

func (m CursorMode) String() string {
	if m == CursorApplication {
		return "application"
	}
	return "normal"
}

// ParseCursorMode parses "normal"/"default" or "application"/"app".
func ParseCursorMode(s string) (CursorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "default":
		return CursorNormal, nil
	case "app", "application":
		return CursorApplication, nil
	}
	return CursorNormal, fmt.Errorf("unknown cursor mode %q", s)
}

// Event is a single key press (or release) as delivered by the input source.
type Event struct {
	Key  Key
	Mods Mod
	// Text is the host's native textual value for the key, if any.
	Text string
	// Released is set for key-up events. Only the meta latch uses them.
	Released bool
}

func (e Event) String() string {
	if e.Mods == 0 {
		return e.Key.String()
	}
	return e.Mods.String() + "+" + e.Key.String()
}

// Context carries the per-session state read at encode time.
type Context struct {
	KeyboardMode KeyboardMode
	CursorMode   CursorMode
	// Backspace is the byte the Backspace key currently emits (DEL or BS).
	Backspace byte
	// HasSelection is sampled once per key press.
	HasSelection bool
}

// DefaultBackspace is the byte emitted by Backspace unless the session has
// switched to BS.
const DefaultBackspace byte = 0x7f

// Action tells the caller what to do with an encoded key.
type Action uint8

// Actions.
const (
	// ActionIgnore means the key produces no output.
	ActionIgnore Action = iota
	// ActionEmit means Bytes should be sent to the session.
	ActionEmit
	// ActionPassThrough lets the host perform its default action.
	ActionPassThrough
)

func (a Action) String() string {
	switch a {
	case ActionEmit:
		return "emit"
	case ActionPassThrough:
		return "passthrough"
	default:
		return "ignore"
	}
}

// Result is the outcome of encoding one key event.
type Result struct {
	Action Action
	Bytes  []byte

	// TriggersFullRefresh is set for Ctrl-L; the caller should request a
	// full screen refresh from the remote side.
	TriggersFullRefresh bool
	// TriggersCopy is set for Ctrl-C while a selection exists. No bytes are
	// emitted in that case.
	TriggersCopy bool
	// TriggersNativePaste is set for Meta-V.
	TriggersNativePaste bool
	// WasBackspace is set whenever Backspace emitted bytes.
	WasBackspace bool
	// WasEnterKey is set whenever Enter emitted bytes.
	WasEnterKey bool
}

func emit(b string) Result { return Result{Action: ActionEmit, Bytes: []byte(b)} }

var (
	ignore      = Result{Action: ActionIgnore}
	passThrough = Result{Action: ActionPassThrough}
)

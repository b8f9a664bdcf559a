package config

import (
	"strings"

	"github.com/Gaurav-Gosain/termlink/internal/keys"
)

// Inspector actions.
const (
	ActionQuit            = "quit"
	ActionCycleKeyboard   = "cycle_keyboard_mode"
	ActionToggleCursor    = "toggle_cursor_mode"
	ActionToggleSelection = "toggle_selection"
	ActionToggleBackspace = "toggle_backspace"
	ActionClear           = "clear"
)

// InspectorActions lists the bindable inspector actions in help order.
var InspectorActions = []string{
	ActionQuit,
	ActionCycleKeyboard,
	ActionToggleCursor,
	ActionToggleSelection,
	ActionToggleBackspace,
	ActionClear,
}

var actionDescriptions = map[string]string{
	ActionQuit:            "Quit",
	ActionCycleKeyboard:   "Cycle keyboard mode",
	ActionToggleCursor:    "Toggle application cursor",
	ActionToggleSelection: "Toggle fake selection",
	ActionToggleBackspace: "Toggle DEL/BS",
	ActionClear:           "Clear history",
}

// DefaultInspectorBindings returns the default inspector keys. They sit on
// keys rarely worth inspecting so most of the keyboard still encodes.
func DefaultInspectorBindings() map[string][]string {
	return map[string][]string{
		ActionQuit:            {"ctrl+]"},
		ActionCycleKeyboard:   {"f12"},
		ActionToggleCursor:    {"shift+f12"},
		ActionToggleSelection: {"ctrl+f12"},
		ActionToggleBackspace: {"alt+f12"},
		ActionClear:           {"ctrl+shift+f12"},
	}
}

// Keybinding represents a single keybinding entry
type Keybinding struct {
	Key         string
	Description string
}

type boundKey struct {
	key  keys.Key
	mods keys.Mod
}

// KeybindRegistry resolves key events to inspector actions.
type KeybindRegistry struct {
	actions map[boundKey]string
	display map[string][]string
}

// NewKeybindRegistry builds a registry from config bindings. Combos that do
// not parse are skipped; ValidateConfig reports them.
func NewKeybindRegistry(bindings map[string][]string) *KeybindRegistry {
	r := &KeybindRegistry{
		actions: make(map[boundKey]string),
		display: make(map[string][]string),
	}
	for _, action := range InspectorActions {
		for _, combo := range bindings[action] {
			ev, err := keys.ParseCombo(combo)
			if err != nil {
				continue
			}
			bk := boundKey{ev.Key, ev.Mods}
			if _, taken := r.actions[bk]; taken {
				continue
			}
			r.actions[bk] = action
			r.display[action] = append(r.display[action], keys.FormatCombo(ev))
		}
	}
	return r
}

// Action returns the action bound to ev, if any.
func (r *KeybindRegistry) Action(ev keys.Event) (string, bool) {
	if r == nil || ev.Released {
		return "", false
	}
	action, ok := r.actions[boundKey{ev.Key, ev.Mods}]
	return action, ok
}

// GetKeysForDisplay returns the keys bound to action, comma separated.
func (r *KeybindRegistry) GetKeysForDisplay(action string) string {
	return strings.Join(r.display[action], ", ")
}

// GetKeybindings returns the help entries for every bound action.
func (r *KeybindRegistry) GetKeybindings() []Keybinding {
	var out []Keybinding
	for _, action := range InspectorActions {
		if k := r.GetKeysForDisplay(action); k != "" {
			out = append(out, Keybinding{Key: k, Description: actionDescriptions[action]})
		}
	}
	return out
}

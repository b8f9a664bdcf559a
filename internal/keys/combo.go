package keys

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned by ParseCombo for names that are not keys.
var ErrUnknownKey = errors.New("unknown key")

// ParseCombo parses a key combination such as "ctrl+c", "Alt+Shift+F5" or
// "meta+v" into an Event. Single printable characters carry their text, the
// way a host keyboard would report them.
func ParseCombo(combo string) (Event, error) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return Event{}, fmt.Errorf("empty key combination: %w", ErrUnknownKey)
	}

	parts := strings.Split(combo, "+")
	// "ctrl++" names the plus key itself.
	switch {
	case combo == "+":
		parts = []string{"+"}
	case strings.HasSuffix(combo, "++"):
		parts = append(parts[:len(parts)-2], "+")
	}

	var ev Event
	keyName := parts[len(parts)-1]
	for _, part := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "ctrl", "control":
			ev.Mods |= ModCtrl
		case "shift":
			ev.Mods |= ModShift
		case "alt", "opt", "option":
			ev.Mods |= ModAlt
		case "meta", "cmd", "command", "super", "win":
			ev.Mods |= ModMeta
		case "altgr":
			ev.Mods |= ModCtrl | ModAlt
		default:
			return Event{}, fmt.Errorf("unknown modifier %q in %q: %w", part, combo, ErrUnknownKey)
		}
	}

	if keyName == "+" {
		ev.Key = KeyEqual
		ev.Mods |= ModShift
		ev.Text = "+"
		return ev, nil
	}

	if len(keyName) == 1 {
		c := keyName[0]
		if k := LetterKey(c); k != KeyUnknown {
			ev.Key = k
			// A bare capital implies shift; "Ctrl+C" does not.
			if c >= 'A' && c <= 'Z' && len(parts) == 1 {
				ev.Mods |= ModShift
			}
			if ev.Mods.Contains(ModShift) {
				ev.Text = strings.ToUpper(keyName)
			} else {
				ev.Text = strings.ToLower(keyName)
			}
			return ev, nil
		}
		probe := normalize(Event{Text: keyName})
		if probe.Key != KeyUnknown {
			ev.Key = probe.Key
			ev.Mods |= probe.Mods
			ev.Text = keyName
			if ev.Mods.Contains(ModShift) && probe.Mods == 0 {
				if p, ok := punctuation[probe.Key]; ok {
					ev.Text = string(p.shifted)
				}
			}
			return ev, nil
		}
	}

	k, ok := ParseKey(keyName)
	if !ok {
		return Event{}, fmt.Errorf("%q in %q: %w", keyName, combo, ErrUnknownKey)
	}
	ev.Key = k
	if k == KeySpace {
		ev.Text = " "
	}
	return ev, nil
}

// FormatCombo formats an event back into combo notation.
func FormatCombo(ev Event) string { return ev.String() }

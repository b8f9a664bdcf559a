package keys

import (
	tea "charm.land/bubbletea/v2"
)

var teaKeys = map[rune]Key{
	tea.KeyBackspace:   KeyBackspace,
	tea.KeyTab:         KeyTab,
	tea.KeyEnter:       KeyEnter,
	tea.KeyEscape:      KeyEscape,
	tea.KeySpace:       KeySpace,
	tea.KeyInsert:      KeyInsert,
	tea.KeyDelete:      KeyDelete,
	tea.KeyHome:        KeyHome,
	tea.KeyEnd:         KeyEnd,
	tea.KeyPgUp:        KeyPageUp,
	tea.KeyPgDown:      KeyPageDown,
	tea.KeyUp:          KeyUp,
	tea.KeyDown:        KeyDown,
	tea.KeyLeft:        KeyLeft,
	tea.KeyRight:       KeyRight,
	tea.KeyLeftShift:   KeyShift,
	tea.KeyRightShift:  KeyShift,
	tea.KeyLeftCtrl:    KeyControl,
	tea.KeyRightCtrl:   KeyControl,
	tea.KeyLeftAlt:     KeyAlt,
	tea.KeyRightAlt:    KeyAlt,
	tea.KeyLeftSuper:   KeyOSLeft,
	tea.KeyRightSuper:  KeyOSRight,
	tea.KeyLeftMeta:    KeyOSLeft,
	tea.KeyRightMeta:   KeyOSRight,
	tea.KeyCapsLock:    KeyCapsLock,
	tea.KeyPause:       KeyPause,
	tea.KeyScrollLock:  KeyScrollLock,
	tea.KeyPrintScreen: KeyPrintScreen,
	tea.KeyMenu:        KeyContextMenu,
}

// FromTea converts a Bubble Tea key press into an Event.
func FromTea(msg tea.KeyPressMsg) Event {
	return fromTeaKey(msg.Key(), false)
}

// FromTeaRelease converts a Bubble Tea key release into an Event. Releases
// only matter for the OS-key meta latch.
func FromTeaRelease(msg tea.KeyReleaseMsg) Event {
	return fromTeaKey(msg.Key(), true)
}

func fromTeaKey(k tea.Key, released bool) Event {
	ev := Event{Text: k.Text, Released: released}

	if k.Mod.Contains(tea.ModShift) {
		ev.Mods |= ModShift
	}
	if k.Mod.Contains(tea.ModCtrl) {
		ev.Mods |= ModCtrl
	}
	if k.Mod.Contains(tea.ModAlt) {
		ev.Mods |= ModAlt
	}
	if k.Mod.Contains(tea.ModMeta) || k.Mod.Contains(tea.ModSuper) {
		ev.Mods |= ModMeta
	}

	code := k.Code
	switch {
	case code >= tea.KeyF1 && code < tea.KeyF1+48:
		ev.Key = FunctionKey(int(code-tea.KeyF1) + 1)
	case code >= 'a' && code <= 'z', code >= 'A' && code <= 'Z':
		ev.Key = LetterKey(byte(code))
	default:
		if key, ok := teaKeys[code]; ok {
			ev.Key = key
		} else if code > 0 && code < 0x80 {
			probe := normalize(Event{Text: string(code)})
			ev.Key = probe.Key
			ev.Mods |= probe.Mods
		}
	}

	if ev.Key == KeySpace && ev.Text == "" && ev.Mods == 0 {
		ev.Text = " "
	}
	return ev
}

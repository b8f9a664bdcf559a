package keys

import (
	"errors"
	"testing"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		combo string
		want  Event
	}{
		{"ctrl+c", Event{Key: KeyC, Mods: ModCtrl, Text: "c"}},
		{"Ctrl+C", Event{Key: KeyC, Mods: ModCtrl, Text: "c"}},
		{"A", Event{Key: KeyA, Mods: ModShift, Text: "A"}},
		{"shift+a", Event{Key: KeyA, Mods: ModShift, Text: "A"}},
		{"Alt+Shift+F5", Event{Key: KeyF5, Mods: ModAlt | ModShift}},
		{"meta+v", Event{Key: KeyV, Mods: ModMeta, Text: "v"}},
		{"cmd+left", Event{Key: KeyLeft, Mods: ModMeta}},
		{"altgr+q", Event{Key: KeyQ, Mods: ModCtrl | ModAlt, Text: "q"}},
		{"shift+1", Event{Key: Key1, Mods: ModShift, Text: "!"}},
		{"?", Event{Key: KeySlash, Mods: ModShift, Text: "?"}},
		{"ctrl+[", Event{Key: KeyBracketLeft, Mods: ModCtrl, Text: "["}},
		{"ctrl++", Event{Key: KeyEqual, Mods: ModCtrl | ModShift, Text: "+"}},
		{"+", Event{Key: KeyEqual, Mods: ModShift, Text: "+"}},
		{"space", Event{Key: KeySpace, Text: " "}},
		{"pgdn", Event{Key: KeyPageDown}},
		{"f11", Event{Key: KeyF11}},
		{"esc", Event{Key: KeyEscape}},
	}

	for _, tt := range tests {
		t.Run(tt.combo, func(t *testing.T) {
			got, err := ParseCombo(tt.combo)
			if err != nil {
				t.Fatalf("ParseCombo(%q) error = %v", tt.combo, err)
			}
			if got != tt.want {
				t.Errorf("ParseCombo(%q) = %+v, want %+v", tt.combo, got, tt.want)
			}
		})
	}
}

func TestParseComboErrors(t *testing.T) {
	for _, combo := range []string{"", "hyper+x", "ctrl+nope", "f49"} {
		t.Run(combo, func(t *testing.T) {
			if _, err := ParseCombo(combo); !errors.Is(err, ErrUnknownKey) {
				t.Errorf("ParseCombo(%q) error = %v, want ErrUnknownKey", combo, err)
			}
		})
	}
}

func TestFormatComboRoundTrip(t *testing.T) {
	for _, combo := range []string{"ctrl+c", "alt+shift+f5", "meta+v", "ctrl+alt+delete", "up"} {
		ev, err := ParseCombo(combo)
		if err != nil {
			t.Fatalf("ParseCombo(%q) error = %v", combo, err)
		}
		if got := FormatCombo(ev); got != combo {
			t.Errorf("FormatCombo(ParseCombo(%q)) = %q", combo, got)
		}
	}
}

func TestParseKey(t *testing.T) {
	for k := KeyUnknown + 1; k < keyCount; k++ {
		got, ok := ParseKey(k.String())
		if !ok || got != k {
			t.Errorf("ParseKey(%q) = %v, %v; want %v", k.String(), got, ok, k)
		}
	}
}

package keys

import (
	"bytes"
	"testing"
)

func TestEncodeUnmodifiedMatchesTableDefault(t *testing.T) {
	ctx := Context{}
	for k := KeyUnknown + 1; k < keyCount; k++ {
		e, ok := EntryFor(k)
		if !ok || !e.Base[Plain].Defined() {
			continue
		}
		want := e.Base[Plain]

		first := Encode(Event{Key: k}, ctx)
		second := Encode(Event{Key: k}, ctx)

		if want.IsNull() || k.IsModifier() {
			if first.Action != ActionIgnore {
				t.Errorf("Encode(%v) action = %v, want ignore", k, first.Action)
			}
			continue
		}
		if first.Action != ActionEmit {
			t.Errorf("Encode(%v) action = %v, want emit", k, first.Action)
			continue
		}
		if string(first.Bytes) != want.Bytes() {
			t.Errorf("Encode(%v) = %s, want %s", k, Describe(first.Bytes), want)
		}
		if !bytes.Equal(first.Bytes, second.Bytes) || first.Action != second.Action {
			t.Errorf("Encode(%v) not idempotent: %s then %s", k, Describe(first.Bytes), Describe(second.Bytes))
		}
	}
}

func TestEncodeCtrlLetters(t *testing.T) {
	for c := byte('A'); c <= 'Z'; c++ {
		want := []byte{c - 64}
		lower := c + 'a' - 'A'

		tests := []struct {
			name string
			ev   Event
		}{
			{"key", Event{Key: LetterKey(c), Mods: ModCtrl}},
			{"lower text", Event{Text: string(lower), Mods: ModCtrl}},
			{"upper text", Event{Text: string(c), Mods: ModCtrl}},
		}
		for _, tt := range tests {
			got := Encode(tt.ev, Context{})
			if got.Action != ActionEmit || !bytes.Equal(got.Bytes, want) {
				t.Errorf("ctrl+%c (%s) = %v %s, want emit %s", c, tt.name, got.Action, Describe(got.Bytes), Describe(want))
			}
			if got.Bytes[0] < 0x01 || got.Bytes[0] > 0x1a {
				t.Errorf("ctrl+%c = %#x, outside C0 range", c, got.Bytes[0])
			}
		}
	}
}

func TestEncodeSignals(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		ctx  Context
		want Result
	}{
		{
			name: "ctrl+a",
			ev:   Event{Key: KeyA, Mods: ModCtrl},
			want: Result{Action: ActionEmit, Bytes: []byte{0x01}},
		},
		{
			name: "ctrl+c without selection sends ETX",
			ev:   Event{Key: KeyC, Mods: ModCtrl},
			want: Result{Action: ActionEmit, Bytes: []byte{0x03}},
		},
		{
			name: "ctrl+c with selection copies",
			ev:   Event{Key: KeyC, Mods: ModCtrl},
			ctx:  Context{HasSelection: true},
			want: Result{Action: ActionPassThrough, TriggersCopy: true},
		},
		{
			name: "ctrl+l requests refresh",
			ev:   Event{Key: KeyL, Mods: ModCtrl},
			want: Result{Action: ActionEmit, Bytes: []byte{0x0c}, TriggersFullRefresh: true},
		},
		{
			name: "meta+v pastes natively",
			ev:   Event{Key: KeyV, Mods: ModMeta},
			want: Result{Action: ActionPassThrough, TriggersNativePaste: true},
		},
		{
			name: "backspace default",
			ev:   Event{Key: KeyBackspace},
			want: Result{Action: ActionEmit, Bytes: []byte{0x7f}, WasBackspace: true},
		},
		{
			name: "backspace switched to BS",
			ev:   Event{Key: KeyBackspace},
			ctx:  Context{Backspace: 0x08},
			want: Result{Action: ActionEmit, Bytes: []byte{0x08}, WasBackspace: true},
		},
		{
			name: "ctrl+backspace",
			ev:   Event{Key: KeyBackspace, Mods: ModCtrl},
			want: Result{Action: ActionEmit, Bytes: []byte{0x7f}, WasBackspace: true},
		},
		{
			name: "alt+backspace",
			ev:   Event{Key: KeyBackspace, Mods: ModAlt},
			ctx:  Context{Backspace: 0x08},
			want: Result{Action: ActionEmit, Bytes: []byte{0x1b, 0x08}, WasBackspace: true},
		},
		{
			name: "enter",
			ev:   Event{Key: KeyEnter},
			want: Result{Action: ActionEmit, Bytes: []byte("\r"), WasEnterKey: true},
		},
		{
			name: "ctrl+enter",
			ev:   Event{Key: KeyEnter, Mods: ModCtrl},
			want: Result{Action: ActionEmit, Bytes: []byte("\n"), WasEnterKey: true},
		},
		{
			name: "shift+pageup reserved for local scroll",
			ev:   Event{Key: KeyPageUp, Mods: ModShift},
			want: Result{Action: ActionPassThrough},
		},
		{
			name: "shift+pagedown reserved in xterm mode too",
			ev:   Event{Key: KeyPageDown, Mods: ModShift},
			ctx:  Context{KeyboardMode: ModeXterm},
			want: Result{Action: ActionPassThrough},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.ev, tt.ctx)
			if got.Action != tt.want.Action {
				t.Errorf("Action = %v, want %v", got.Action, tt.want.Action)
			}
			if !bytes.Equal(got.Bytes, tt.want.Bytes) {
				t.Errorf("Bytes = %s, want %s", Describe(got.Bytes), Describe(tt.want.Bytes))
			}
			if got.TriggersCopy != tt.want.TriggersCopy ||
				got.TriggersFullRefresh != tt.want.TriggersFullRefresh ||
				got.TriggersNativePaste != tt.want.TriggersNativePaste ||
				got.WasBackspace != tt.want.WasBackspace ||
				got.WasEnterKey != tt.want.WasEnterKey {
				t.Errorf("signals = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncodeArrowCursorModeRoundTrip(t *testing.T) {
	up := Event{Key: KeyUp}
	normal := Context{CursorMode: CursorNormal}
	app := Context{CursorMode: CursorApplication}

	first := Encode(up, normal)
	inApp := Encode(up, app)
	back := Encode(up, normal)
	inAppAgain := Encode(up, app)

	if string(first.Bytes) != "\x1b[A" {
		t.Errorf("up (normal) = %s, want ^[[A", Describe(first.Bytes))
	}
	if string(inApp.Bytes) != "\x1bOA" {
		t.Errorf("up (application) = %s, want ^[OA", Describe(inApp.Bytes))
	}
	if bytes.Equal(first.Bytes, inApp.Bytes) {
		t.Error("cursor mode did not change the arrow encoding")
	}
	if !bytes.Equal(first.Bytes, back.Bytes) || !bytes.Equal(inApp.Bytes, inAppAgain.Bytes) {
		t.Errorf("round trip changed output: %s/%s then %s/%s",
			Describe(first.Bytes), Describe(inApp.Bytes), Describe(back.Bytes), Describe(inAppAgain.Bytes))
	}
}

func TestEncodeSequences(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		ctx  Context
		want string
	}{
		{"shift+tab", Event{Key: KeyTab, Mods: ModShift}, Context{}, "\x1b[Z"},
		{"alt+a", Event{Key: KeyA, Mods: ModAlt}, Context{}, "\x1ba"},
		{"alt+shift+a", Event{Key: KeyA, Mods: ModAlt | ModShift}, Context{}, "\x1bA"},
		{"alt+1", Event{Key: Key1, Mods: ModAlt}, Context{}, "\x1b1"},
		{"alt+shift+1", Event{Key: Key1, Mods: ModAlt | ModShift}, Context{}, "\x1b!"},
		{"alt with composed text", Event{Text: "é", Mods: ModAlt}, Context{}, "\x1bé"},
		{"ctrl+2", Event{Key: Key2, Mods: ModCtrl}, Context{}, "\x00"},
		{"ctrl+[", Event{Key: KeyBracketLeft, Mods: ModCtrl}, Context{}, "\x1b"},
		{"ctrl+shift+/", Event{Key: KeySlash, Mods: ModCtrl | ModShift}, Context{}, "\x7f"},
		{"ctrl+shift+4 falls back to ctrl", Event{Key: Key4, Mods: ModCtrl | ModShift}, Context{}, "\x1c"},
		{"ctrl+space", Event{Key: KeySpace, Mods: ModCtrl}, Context{}, "\x00"},
		{"ctrl+alt+space", Event{Key: KeySpace, Mods: ModCtrl | ModAlt}, Context{}, "\x1b\x00"},
		{"altgr composed text", Event{Key: KeyQ, Mods: ModCtrl | ModAlt, Text: "@"}, Context{}, "@"},
		{"meta+left", Event{Key: KeyLeft, Mods: ModMeta}, Context{}, "\x01"},
		{"meta+shift+right falls back to meta", Event{Key: KeyRight, Mods: ModMeta | ModShift}, Context{}, "\x05"},
		{"printable text", Event{Text: "ß"}, Context{}, "ß"},
		{"shifted letter text", Event{Text: "Q"}, Context{}, "Q"},

		{"shift+up rxvt", Event{Key: KeyUp, Mods: ModShift}, Context{}, "\x1b[a"},
		{"ctrl+left rxvt", Event{Key: KeyLeft, Mods: ModCtrl}, Context{}, "\x1bOd"},
		{"alt+down", Event{Key: KeyDown, Mods: ModAlt}, Context{}, "\x1b\x1b[B"},
		{"xterm shift+up", Event{Key: KeyUp, Mods: ModShift}, Context{KeyboardMode: ModeXterm}, "\x1b[1;2A"},
		{"xterm ctrl+right", Event{Key: KeyRight, Mods: ModCtrl}, Context{KeyboardMode: ModeXterm}, "\x1b[1;5C"},
		{"xterm ctrl+alt+shift+left", Event{Key: KeyLeft, Mods: ModCtrl | ModAlt | ModShift}, Context{KeyboardMode: ModeXterm}, "\x1b[1;8D"},
		{"xterm up plain", Event{Key: KeyUp}, Context{KeyboardMode: ModeXterm}, "\x1b[A"},
		{"xterm up application", Event{Key: KeyUp}, Context{KeyboardMode: ModeXterm, CursorMode: CursorApplication}, "\x1bOA"},

		{"home", Event{Key: KeyHome}, Context{}, "\x1b[1~"},
		{"xterm home", Event{Key: KeyHome}, Context{KeyboardMode: ModeXterm}, "\x1b[H"},
		{"xterm ctrl+end", Event{Key: KeyEnd, Mods: ModCtrl}, Context{KeyboardMode: ModeXterm}, "\x1b[1;5F"},
		{"xterm shift+delete", Event{Key: KeyDelete, Mods: ModShift}, Context{KeyboardMode: ModeXterm}, "\x1b[3;2~"},
		{"sco delete", Event{Key: KeyDelete}, Context{KeyboardMode: ModeSCO}, "\x7f"},
		{"sco pageup", Event{Key: KeyPageUp}, Context{KeyboardMode: ModeSCO}, "\x1b[I"},
		{"sco alt+home", Event{Key: KeyHome, Mods: ModAlt}, Context{KeyboardMode: ModeSCO}, "\x1b\x1b[H"},

		{"f1", Event{Key: KeyF1}, Context{}, "\x1bOP"},
		{"f5", Event{Key: KeyF5}, Context{}, "\x1b[15~"},
		{"f12", Event{Key: KeyF12}, Context{}, "\x1b[24~"},
		{"f20", Event{Key: KeyF20}, Context{}, "\x1b[34~"},
		{"f21", Event{Key: KeyF21}, Context{}, "\x1b[20;2~"},
		{"f48", Event{Key: KeyF48}, Context{}, "\x1b[24;6~"},
		{"shift+f1 is f11", Event{Key: KeyF1, Mods: ModShift}, Context{}, "\x1b[23~"},
		{"shift+f11 falls back", Event{Key: KeyF11, Mods: ModShift}, Context{}, "\x1b[23~"},
		{"alt+f2", Event{Key: KeyF2, Mods: ModAlt}, Context{}, "\x1b\x1bOQ"},
		{"alt+shift+f2 falls back to alt", Event{Key: KeyF2, Mods: ModAlt | ModShift}, Context{}, "\x1b\x1bOQ"},
		{"xterm shift+f1", Event{Key: KeyF1, Mods: ModShift}, Context{KeyboardMode: ModeXterm}, "\x1b[1;2P"},
		{"xterm ctrl+f5", Event{Key: KeyF5, Mods: ModCtrl}, Context{KeyboardMode: ModeXterm}, "\x1b[15;5~"},
		{"xterm meta+f12", Event{Key: KeyF12, Mods: ModMeta}, Context{KeyboardMode: ModeXterm}, "\x1b[24;9~"},
		{"sco f1", Event{Key: KeyF1}, Context{KeyboardMode: ModeSCO}, "\x1b[M"},
		{"sco f13", Event{Key: KeyF13}, Context{KeyboardMode: ModeSCO}, "\x1b[Y"},
		{"sco shift+f1", Event{Key: KeyF1, Mods: ModShift}, Context{KeyboardMode: ModeSCO}, "\x1b[Y"},
		{"sco ctrl+f1", Event{Key: KeyF1, Mods: ModCtrl}, Context{KeyboardMode: ModeSCO}, "\x1b[k"},
		{"sco ctrl+shift+f12", Event{Key: KeyF12, Mods: ModCtrl | ModShift}, Context{KeyboardMode: ModeSCO}, "\x1b[{"},
		{"sco f48", Event{Key: KeyF48}, Context{KeyboardMode: ModeSCO}, "\x1b[{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.ev, tt.ctx)
			if got.Action != ActionEmit {
				t.Fatalf("Action = %v, want emit", got.Action)
			}
			if string(got.Bytes) != tt.want {
				t.Errorf("Bytes = %s, want %s", Describe(got.Bytes), Describe([]byte(tt.want)))
			}
		})
	}
}

func TestEncodeNoOutput(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want Action
	}{
		{"bare shift", Event{Key: KeyShift, Mods: ModShift}, ActionIgnore},
		{"bare control", Event{Key: KeyControl, Mods: ModCtrl}, ActionIgnore},
		{"caps lock", Event{Key: KeyCapsLock}, ActionIgnore},
		{"nulled pause", Event{Key: KeyPause}, ActionIgnore},
		{"release", Event{Key: KeyA, Text: "a", Released: true}, ActionIgnore},
		{"unknown without text", Event{}, ActionIgnore},
		{"control text", Event{Text: "\x07"}, ActionIgnore},
		{"ctrl+1 has no mapping", Event{Key: Key1, Mods: ModCtrl}, ActionIgnore},
		{"ctrl+alt without text", Event{Key: KeyQ, Mods: ModCtrl | ModAlt}, ActionIgnore},
		{"ctrl+alt+meta without entry", Event{Key: KeyQ, Mods: ModCtrl | ModAlt | ModMeta}, ActionIgnore},
		{"letter key without text", Event{Key: KeyQ}, ActionIgnore},
		{"meta+x host shortcut", Event{Key: KeyX, Mods: ModMeta}, ActionPassThrough},
		{"ctrl+meta", Event{Key: KeyA, Mods: ModCtrl | ModMeta}, ActionPassThrough},
		{"alt+meta", Event{Key: KeyA, Mods: ModAlt | ModMeta}, ActionPassThrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.ev, Context{})
			if got.Action != tt.want {
				t.Errorf("Action = %v, want %v", got.Action, tt.want)
			}
			if len(got.Bytes) != 0 {
				t.Errorf("Bytes = %s, want none", Describe(got.Bytes))
			}
		})
	}
}

func TestChain(t *testing.T) {
	tests := []struct {
		mods Mod
		want []Variant
	}{
		{0, []Variant{Plain}},
		{ModShift, []Variant{Shift, Plain}},
		{ModCtrl, []Variant{Ctrl}},
		{ModCtrl | ModShift, []Variant{CtrlShift, Ctrl}},
		{ModAlt | ModShift, []Variant{AltShift, Alt}},
		{ModMeta | ModShift, []Variant{MetaShift, Meta}},
		{ModCtrl | ModAlt, []Variant{CtrlAlt, AltGr}},
		{ModCtrl | ModAlt | ModShift, []Variant{CtrlAltShift, AltGrShift, CtrlAlt, AltGr}},
		{ModCtrl | ModAlt | ModMeta, []Variant{CtrlAltMeta, AltGrMeta}},
		{ModCtrl | ModAlt | ModMeta | ModShift, []Variant{CtrlAltMetaShift, AltGrMetaShift, CtrlAltMeta, AltGrMeta}},
		{ModCtrl | ModMeta, nil},
		{ModAlt | ModMeta, nil},
	}

	for _, tt := range tests {
		t.Run(tt.mods.String(), func(t *testing.T) {
			got := Chain(tt.mods)
			if len(got) != len(tt.want) {
				t.Fatalf("Chain(%v) = %v, want %v", tt.mods, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Chain(%v)[%d] = %v, want %v", tt.mods, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLookupPrefersModeValue(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		mode KeyboardMode
		v    Variant
		want Seq
	}{
		{"default shift up", KeyUp, ModeDefault, Shift, S("\x1b[a")},
		{"xterm shift up", KeyUp, ModeXterm, Shift, S("\x1b[1;2A")},
		{"sco shift up uses base", KeyUp, ModeSCO, Shift, S("\x1b[a")},
		{"sco insert", KeyInsert, ModeSCO, Plain, S("\x1b[L")},
		{"absent slot", KeyTab, ModeDefault, Ctrl, Seq{}},
		{"absent key", KeyA, ModeDefault, Plain, Seq{}},
		{"nulled", KeyScrollLock, ModeXterm, Plain, Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lookup(tt.key, tt.mode, tt.v); got != tt.want {
				t.Errorf("Lookup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookupChainReportsSlot(t *testing.T) {
	s, v := LookupChain(KeyF2, ModeDefault, Chain(ModAlt|ModShift))
	if v != Alt {
		t.Errorf("LookupChain() slot = %v, want %v", v, Alt)
	}
	if s.Bytes() != "\x1b\x1bOQ" {
		t.Errorf("LookupChain() = %v, want ^[^[OQ", s)
	}

	if s, _ := LookupChain(KeyA, ModeDefault, Chain(ModCtrl)); s.Defined() {
		t.Errorf("LookupChain(a, ctrl) = %v, want undefined", s)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{nil, "<empty>"},
		{[]byte("\x1b[A"), "^[[A"},
		{[]byte{0x03}, "^C"},
		{[]byte{0x7f}, "^?"},
		{[]byte{0x00}, "^@"},
		{[]byte("ls"), "ls"},
		{[]byte{0xc3, 0xa9}, `\xc3\xa9`},
	}

	for _, tt := range tests {
		if got := Describe(tt.in); got != tt.want {
			t.Errorf("Describe(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

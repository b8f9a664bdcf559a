package keys

import (
	"unicode"
	"unicode/utf8"
)

// Chain returns the table slots consulted, in order, for a modifier set.
// Each slot is looked up keyboard-mode-qualified first (see Lookup). A
// shifted combination falls back to the unshifted slot of the same class,
// and Ctrl+Alt falls back to AltGr. Plain stands for the unmodified
// resolution, which prefers the application-cursor sequence when active.
// Combinations without a chain (Ctrl+Meta, Alt+Meta) return nil.
func Chain(mods Mod) []Variant {
	shift := mods.Contains(ModShift)
	switch mods &^ ModShift {
	case 0:
		if shift {
			return []Variant{Shift, Plain}
		}
		return []Variant{Plain}
	case ModCtrl:
		if shift {
			return []Variant{CtrlShift, Ctrl}
		}
		return []Variant{Ctrl}
	case ModAlt:
		if shift {
			return []Variant{AltShift, Alt}
		}
		return []Variant{Alt}
	case ModMeta:
		if shift {
			return []Variant{MetaShift, Meta}
		}
		return []Variant{Meta}
	case ModCtrl | ModAlt:
		if shift {
			return []Variant{CtrlAltShift, AltGrShift, CtrlAlt, AltGr}
		}
		return []Variant{CtrlAlt, AltGr}
	case ModCtrl | ModAlt | ModMeta:
		if shift {
			return []Variant{CtrlAltMetaShift, AltGrMetaShift, CtrlAltMeta, AltGrMeta}
		}
		return []Variant{CtrlAltMeta, AltGrMeta}
	}
	return nil
}

// Encode maps a key event to the bytes for the remote session. It reads
// nothing but its arguments and always returns the same Result for the same
// inputs. F11 debouncing and the OS-key meta latch are handled by Encoder.
func Encode(ev Event, ctx Context) Result {
	ev = normalize(ev)
	if ev.Released || ev.Key.IsModifier() {
		return ignore
	}
	if ctx.Backspace == 0 {
		ctx.Backspace = DefaultBackspace
	}
	if ev.Key == KeyBackspace {
		return encodeBackspace(ev, ctx)
	}

	var res Result
	switch ev.Mods &^ ModShift {
	case 0:
		res = encodeUnmodified(ev, ctx)
	case ModCtrl:
		res = encodeCtrl(ev, ctx)
	case ModAlt:
		res = encodeAlt(ev, ctx)
	case ModMeta:
		res = encodeMeta(ev, ctx)
	case ModCtrl | ModAlt:
		res = encodeCtrlAlt(ev, ctx)
	case ModCtrl | ModAlt | ModMeta:
		res = encodeChain(ev, ctx)
	default:
		res = passThrough
	}

	if ev.Key == KeyEnter && res.Action == ActionEmit {
		res.WasEnterKey = true
	}
	return res
}

// normalize fills in the key identity from the text for input sources that
// only report characters.
func normalize(ev Event) Event {
	if ev.Key != KeyUnknown || len(ev.Text) != 1 {
		return ev
	}
	c := ev.Text[0]
	if k := LetterKey(c); k != KeyUnknown {
		ev.Key = k
		if c >= 'A' && c <= 'Z' {
			ev.Mods |= ModShift
		}
		return ev
	}
	for k, p := range punctuation {
		switch c {
		case p.base:
			ev.Key = k
			return ev
		case p.shifted:
			ev.Key = k
			ev.Mods |= ModShift
			return ev
		}
	}
	if c == ' ' {
		ev.Key = KeySpace
	}
	return ev
}

func fromSeq(s Seq) Result {
	if s.IsNull() {
		return ignore
	}
	return emit(s.b)
}

// printable returns the host text when it is safe to forward verbatim.
func printable(text string) (string, bool) {
	if text == "" || !utf8.ValidString(text) {
		return "", false
	}
	for _, r := range text {
		if !unicode.IsPrint(r) {
			return "", false
		}
	}
	return text, true
}

// resolvePlain is the unmodified lookup: application cursor sequence, then
// the keyboard-mode value, then the default.
func resolvePlain(key Key, ctx Context) Seq {
	e := table[key]
	if e == nil {
		return Seq{}
	}
	if ctx.CursorMode == CursorApplication && e.AppMode.Defined() {
		return e.AppMode
	}
	return Lookup(key, ctx.KeyboardMode, Plain)
}

func encodeBackspace(ev Event, ctx Context) Result {
	b := []byte{ctx.Backspace}
	if ev.Mods.Contains(ModAlt) {
		b = []byte{0x1b, ctx.Backspace}
	}
	return Result{Action: ActionEmit, Bytes: b, WasBackspace: true}
}

func encodeUnmodified(ev Event, ctx Context) Result {
	shift := ev.Mods.Contains(ModShift)
	if shift && (ev.Key == KeyPageUp || ev.Key == KeyPageDown) {
		// Reserved for local scroll-by-page.
		return passThrough
	}
	if shift {
		if s := Lookup(ev.Key, ctx.KeyboardMode, Shift); s.Defined() {
			return fromSeq(s)
		}
	}
	if s := resolvePlain(ev.Key, ctx); s.Defined() {
		return fromSeq(s)
	}
	if text, ok := printable(ev.Text); ok {
		return emit(text)
	}
	return ignore
}

func encodeCtrl(ev Event, ctx Context) Result {
	if ev.Key.IsLetter() {
		switch {
		case ev.Key == KeyC && ctx.HasSelection:
			return Result{Action: ActionPassThrough, TriggersCopy: true}
		case ev.Key == KeyL:
			return Result{Action: ActionEmit, Bytes: []byte{0x0c}, TriggersFullRefresh: true}
		}
		return Result{Action: ActionEmit, Bytes: []byte{ev.Key.Letter() - 64}}
	}
	if s, _ := LookupChain(ev.Key, ctx.KeyboardMode, Chain(ev.Mods)); s.Defined() {
		return fromSeq(s)
	}
	return ignore
}

func encodeAlt(ev Event, ctx Context) Result {
	if ev.Key.IsLetter() {
		c := ev.Key.Letter()
		if !ev.Mods.Contains(ModShift) {
			c += 'a' - 'A'
		}
		return Result{Action: ActionEmit, Bytes: []byte{0x1b, c}}
	}
	if s, _ := LookupChain(ev.Key, ctx.KeyboardMode, Chain(ev.Mods)); s.Defined() {
		return fromSeq(s)
	}
	if text, ok := printable(ev.Text); ok {
		return emit("\x1b" + text)
	}
	return ignore
}

func encodeMeta(ev Event, ctx Context) Result {
	if ev.Key == KeyV {
		return Result{Action: ActionPassThrough, TriggersNativePaste: true}
	}
	if s, _ := LookupChain(ev.Key, ctx.KeyboardMode, Chain(ev.Mods)); s.Defined() {
		return fromSeq(s)
	}
	return passThrough
}

func encodeCtrlAlt(ev Event, ctx Context) Result {
	if s, _ := LookupChain(ev.Key, ctx.KeyboardMode, Chain(ev.Mods)); s.Defined() {
		return fromSeq(s)
	}
	// AltGr-composed characters arrive as Ctrl+Alt with text.
	if text, ok := printable(ev.Text); ok {
		return emit(text)
	}
	return ignore
}

func encodeChain(ev Event, ctx Context) Result {
	if s, _ := LookupChain(ev.Key, ctx.KeyboardMode, Chain(ev.Mods)); s.Defined() {
		return fromSeq(s)
	}
	return ignore
}

package keys

import (
	"strconv"
	"strings"
)

// Seq is an optional byte sequence in the key table. The zero value means
// "no mapping"; Null means the key is mapped to nothing on purpose.
type Seq struct {
	b  string
	ok bool
}

// S returns a defined sequence.
func S(b string) Seq { return Seq{b: b, ok: true} }

// Null is an explicitly nulled mapping. Encoding it yields ActionIgnore.
var Null = Seq{ok: true}

// Defined reports whether the table has an opinion about this slot.
func (s Seq) Defined() bool { return s.ok }

// IsNull reports whether the slot is explicitly mapped to no output.
func (s Seq) IsNull() bool { return s.ok && s.b == "" }

// Bytes returns the raw sequence.
func (s Seq) Bytes() string { return s.b }

func (s Seq) String() string {
	switch {
	case !s.ok:
		return "<none>"
	case s.b == "":
		return "<null>"
	}
	return Describe([]byte(s.b))
}

// Variant is one modifier combination slot of a table entry.
type Variant uint8

// Variants, in table order. Plain holds the unmodified ("default") value.
const (
	Plain Variant = iota
	Shift
	Ctrl
	CtrlShift
	Alt
	AltShift
	Meta
	MetaShift
	CtrlAlt
	CtrlAltShift
	AltGr
	AltGrShift
	CtrlAltMeta
	CtrlAltMetaShift
	AltGrMeta
	AltGrMetaShift

	variantCount
)

var variantNames = [variantCount]string{
	"default", "shift", "ctrl", "ctrl-shift", "alt", "alt-shift", "meta",
	"meta-shift", "ctrl-alt", "ctrl-alt-shift", "altgr", "altgr-shift",
	"ctrl-alt-meta", "ctrl-alt-meta-shift", "altgr-meta", "altgr-meta-shift",
}

func (v Variant) String() string {
	if v >= variantCount {
		return "variant(" + strconv.Itoa(int(v)) + ")"
	}
	return variantNames[v]
}

// Variants holds one sequence per modifier combination.
type Variants [variantCount]Seq

// Entry is the table row for one key. Base applies in every keyboard mode;
// Xterm and SCO override individual slots for their mode. AppMode is the
// application-cursor-mode sequence and is only consulted unmodified.
type Entry struct {
	Base    Variants
	AppMode Seq
	Xterm   *Variants
	SCO     *Variants
}

func (e *Entry) modeVariants(mode KeyboardMode) *Variants {
	switch mode {
	case ModeXterm:
		return e.Xterm
	case ModeSCO:
		return e.SCO
	}
	return nil
}

// Lookup returns the sequence for key in the given slot, preferring the
// keyboard-mode-qualified value over the base value.
func Lookup(key Key, mode KeyboardMode, v Variant) Seq {
	e := table[key]
	if e == nil || v >= variantCount {
		return Seq{}
	}
	if mv := e.modeVariants(mode); mv != nil && mv[v].Defined() {
		return mv[v]
	}
	return e.Base[v]
}

// LookupChain walks chain and returns the first defined sequence.
func LookupChain(key Key, mode KeyboardMode, chain []Variant) (Seq, Variant) {
	for _, v := range chain {
		if s := Lookup(key, mode, v); s.Defined() {
			return s, v
		}
	}
	return Seq{}, Plain
}

// InTable reports whether key has a table entry at all.
func InTable(key Key) bool { return table[key] != nil }

// EntryFor returns a copy of the table entry for key.
func EntryFor(key Key) (Entry, bool) {
	e := table[key]
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

const esc = "\x1b"

// xterm modifier parameters: 1 + shift + 2*alt + 4*ctrl + 8*meta.
var xtermParam = map[Variant]int{
	Shift:            2,
	Alt:              3,
	AltShift:         4,
	Ctrl:             5,
	CtrlShift:        6,
	CtrlAlt:          7,
	CtrlAltShift:     8,
	Meta:             9,
	MetaShift:        10,
	CtrlAltMeta:      15,
	CtrlAltMetaShift: 16,
}

// xtermVariants fills every modified slot using seq(param).
func xtermVariants(base *Variants, seq func(param int) string) *Variants {
	v := &Variants{}
	if base != nil {
		*v = *base
	}
	for slot, p := range xtermParam {
		v[slot] = S(seq(p))
	}
	return v
}

func tilde(n int) string { return esc + "[" + strconv.Itoa(n) + "~" }

func tildeMod(n, param int) string {
	return esc + "[" + strconv.Itoa(n) + ";" + strconv.Itoa(param) + "~"
}

func csiMod(final byte, param int) string {
	return esc + "[1;" + strconv.Itoa(param) + string(final)
}

// vt220Tilde lists the tilde codes of F5..F20 in the VT220 layout.
var vt220Tilde = map[int]int{
	5: 15, 6: 17, 7: 18, 8: 19, 9: 20, 10: 21, 11: 23, 12: 24,
	13: 25, 14: 26, 15: 28, 16: 29, 17: 31, 18: 32, 19: 33, 20: 34,
}

// scoFunction maps F1..F48 to the final byte of the SCO console sequence.
const scoFunction = "MNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz@[\\]^_`{"

// xtermFunction returns the xterm sequence for F1..F12 with a modifier
// parameter (1 means unmodified).
func xtermFunction(n, param int) string {
	if n <= 4 {
		final := "PQRS"[n-1]
		if param == 1 {
			return esc + "O" + string(final)
		}
		return csiMod(final, param)
	}
	if param == 1 {
		return tilde(vt220Tilde[n])
	}
	return tildeMod(vt220Tilde[n], param)
}

// vt220Function returns the unmodified VT220 sequence for F1..F20.
func vt220Function(n int) string {
	if n <= 4 {
		return esc + "O" + string("PQRS"[n-1])
	}
	return tilde(vt220Tilde[n])
}

// punct describes a printable key on a US layout.
type punct struct {
	base, shifted byte
	ctrl          Seq
	ctrlShift     Seq
}

var punctuation = map[Key]punct{
	Key0:            {base: '0', shifted: ')'},
	Key1:            {base: '1', shifted: '!'},
	Key2:            {base: '2', shifted: '@', ctrl: S("\x00"), ctrlShift: S("\x00")},
	Key3:            {base: '3', shifted: '#', ctrl: S("\x1b")},
	Key4:            {base: '4', shifted: '$', ctrl: S("\x1c")},
	Key5:            {base: '5', shifted: '%', ctrl: S("\x1d")},
	Key6:            {base: '6', shifted: '^', ctrl: S("\x1e"), ctrlShift: S("\x1e")},
	Key7:            {base: '7', shifted: '&', ctrl: S("\x1f")},
	Key8:            {base: '8', shifted: '*', ctrl: S("\x7f")},
	Key9:            {base: '9', shifted: '('},
	KeyMinus:        {base: '-', shifted: '_', ctrl: S("\x1f"), ctrlShift: S("\x1f")},
	KeyEqual:        {base: '=', shifted: '+'},
	KeyBracketLeft:  {base: '[', shifted: '{', ctrl: S("\x1b")},
	KeyBracketRight: {base: ']', shifted: '}', ctrl: S("\x1d")},
	KeyBackslash:    {base: '\\', shifted: '|', ctrl: S("\x1c")},
	KeySemicolon:    {base: ';', shifted: ':'},
	KeyQuote:        {base: '\'', shifted: '"'},
	KeyComma:        {base: ',', shifted: '<'},
	KeyPeriod:       {base: '.', shifted: '>'},
	KeySlash:        {base: '/', shifted: '?', ctrl: S("\x1f"), ctrlShift: S("\x7f")},
	KeyBackquote:    {base: '`', shifted: '~', ctrl: S("\x00")},
}

// table is the static key table. It is built once and never mutated.
var table = buildTable()

func buildTable() map[Key]*Entry {
	t := make(map[Key]*Entry, 128)

	t[KeyBackspace] = &Entry{Base: Variants{Plain: S("\x7f")}}
	t[KeyTab] = &Entry{Base: Variants{
		Plain: S("\t"),
		Shift: S(esc + "[Z"),
		Alt:   S(esc + "\t"),
	}}
	t[KeyEnter] = &Entry{Base: Variants{
		Plain: S("\r"),
		Ctrl:  S("\n"),
		Alt:   S(esc + "\r"),
	}}
	t[KeyEscape] = &Entry{Base: Variants{
		Plain: S(esc),
		Alt:   S(esc + esc),
	}}
	t[KeySpace] = &Entry{Base: Variants{
		Plain:     S(" "),
		Ctrl:      S("\x00"),
		CtrlShift: S("\x00"),
		Alt:       S(esc + " "),
		CtrlAlt:   S(esc + "\x00"),
	}}

	addEditing(t)
	addArrows(t)
	addFunctionKeys(t)

	for k, p := range punctuation {
		t[k] = &Entry{Base: Variants{
			Ctrl:      p.ctrl,
			CtrlShift: p.ctrlShift,
			Alt:       S(esc + string(p.base)),
			AltShift:  S(esc + string(p.shifted)),
		}}
	}

	for _, k := range []Key{
		KeyShift, KeyControl, KeyAlt, KeyOSLeft, KeyOSRight, KeyCapsLock,
		KeyPause, KeyScrollLock, KeyPrintScreen, KeyContextMenu,
	} {
		t[k] = &Entry{Base: Variants{Plain: Null}}
	}

	return t
}

// addEditing adds Insert, Delete, Home, End, PageUp and PageDown.
func addEditing(t map[Key]*Entry) {
	type editing struct {
		key   Key
		vt220 string
		xterm func(param int) string
		xbase string
		sco   string
	}
	rows := []editing{
		{KeyInsert, tilde(2), func(p int) string { return tildeMod(2, p) }, tilde(2), esc + "[L"},
		{KeyDelete, tilde(3), func(p int) string { return tildeMod(3, p) }, tilde(3), "\x7f"},
		{KeyHome, tilde(1), func(p int) string { return csiMod('H', p) }, esc + "[H", esc + "[H"},
		{KeyEnd, tilde(4), func(p int) string { return csiMod('F', p) }, esc + "[F", esc + "[F"},
		{KeyPageUp, tilde(5), func(p int) string { return tildeMod(5, p) }, tilde(5), esc + "[I"},
		{KeyPageDown, tilde(6), func(p int) string { return tildeMod(6, p) }, tilde(6), esc + "[G"},
	}
	for _, r := range rows {
		e := &Entry{Base: Variants{
			Plain: S(r.vt220),
			Alt:   S(esc + r.vt220),
		}}
		e.Xterm = xtermVariants(&Variants{Plain: S(r.xbase)}, r.xterm)
		e.SCO = &Variants{Plain: S(r.sco), Alt: S(esc + r.sco)}
		t[r.key] = e
	}
}

// addArrows adds the cursor keys. The base rows follow rxvt for modified
// arrows; xterm uses CSI 1;m parameters.
func addArrows(t map[Key]*Entry) {
	finals := map[Key]byte{KeyUp: 'A', KeyDown: 'B', KeyRight: 'C', KeyLeft: 'D'}
	for k, f := range finals {
		final := f
		shifted := []byte{final - 'A' + 'a'}
		e := &Entry{
			Base: Variants{
				Plain: S(esc + "[" + string(final)),
				Shift: S(esc + "[" + string(shifted)),
				Ctrl:  S(esc + "O" + string(shifted)),
				Alt:   S(esc + esc + "[" + string(final)),
			},
			AppMode: S(esc + "O" + string(final)),
		}
		e.Xterm = xtermVariants(nil, func(p int) string { return csiMod(final, p) })
		e.SCO = &Variants{Plain: S(esc + "[" + string(final))}
		t[k] = e
	}
	// Line start/end on the platform meta shortcut (readline bindings).
	t[KeyLeft].Base[Meta] = S("\x01")
	t[KeyRight].Base[Meta] = S("\x05")
}

// addFunctionKeys adds F1..F48 for all three keyboard modes.
func addFunctionKeys(t map[Key]*Entry) {
	// F13..F48 are shift, ctrl and ctrl-shift of F1..F12 on xterm.
	aliasParams := [3]int{2, 5, 6}

	for n := 1; n <= 48; n++ {
		e := &Entry{}
		base, param := n, 1
		if n > 12 {
			base = (n-1)%12 + 1
			param = aliasParams[(n-13)/12]
		}

		switch {
		case n <= 20:
			e.Base[Plain] = S(vt220Function(n))
		default:
			e.Base[Plain] = S(xtermFunction(base, param))
		}
		e.Base[Alt] = S(esc + e.Base[Plain].b)
		if n <= 10 {
			e.Base[Shift] = S(vt220Function(n + 10))
		}

		b := base
		if n <= 12 {
			e.Xterm = xtermVariants(&Variants{Plain: S(xtermFunction(n, 1))},
				func(p int) string { return xtermFunction(b, p) })
		} else {
			e.Xterm = &Variants{Plain: S(xtermFunction(base, param))}
		}

		e.SCO = &Variants{Plain: S(esc + "[" + string(scoFunction[n-1]))}
		if n <= 12 {
			e.SCO[Shift] = S(esc + "[" + string(scoFunction[n+11]))
			e.SCO[Ctrl] = S(esc + "[" + string(scoFunction[n+23]))
			e.SCO[CtrlShift] = S(esc + "[" + string(scoFunction[n+35]))
		}

		t[FunctionKey(n)] = e
	}
}

// Describe renders bytes in caret and escape notation, e.g. "^[[A" or "^C".
func Describe(b []byte) string {
	if len(b) == 0 {
		return "<empty>"
	}
	var sb strings.Builder
	for _, c := range b {
		switch {
		case c == 0x1b:
			sb.WriteString("^[")
		case c == 0x7f:
			sb.WriteString("^?")
		case c < 0x20:
			sb.WriteByte('^')
			sb.WriteByte(c + 0x40)
		case c >= 0x80:
			sb.WriteString(`\x`)
			sb.WriteString(strconv.FormatUint(uint64(c), 16))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

package keys

import "time"

// F11Window is how long a first F11 press stays armed. A second press inside
// the window is passed through so the host can toggle fullscreen.
const F11Window = 750 * time.Millisecond

// MetaLatch emulates the meta modifier from left/right OS key presses, for
// platforms that do not report a real meta modifier.
type MetaLatch struct {
	left, right bool
}

// Observe records an OS key press or release. It reports whether ev was an
// OS key.
func (l *MetaLatch) Observe(ev Event) bool {
	switch ev.Key {
	case KeyOSLeft:
		l.left = !ev.Released
	case KeyOSRight:
		l.right = !ev.Released
	default:
		return false
	}
	return true
}

// Held reports whether either OS key is down.
func (l *MetaLatch) Held() bool { return l.left || l.right }

// Reset forgets both keys, e.g. after the window lost focus and the release
// events were never delivered.
func (l *MetaLatch) Reset() { l.left, l.right = false, false }

// F11Debounce tracks the armed state of the F11 key on a caller-supplied
// clock.
type F11Debounce struct {
	Window     time.Duration
	armedUntil time.Time
}

// Press registers an F11 press at now. It returns true when the press falls
// inside the armed window, which disarms it.
func (d *F11Debounce) Press(now time.Time) bool {
	if d.Armed(now) {
		d.armedUntil = time.Time{}
		return true
	}
	window := d.Window
	if window <= 0 {
		window = F11Window
	}
	d.armedUntil = now.Add(window)
	return false
}

// Armed reports whether a first press is still pending at now.
func (d *F11Debounce) Armed(now time.Time) bool {
	return !d.armedUntil.IsZero() && now.Before(d.armedUntil)
}

// Encoder wraps Encode with the two pieces of per-session key state. It is
// not safe for concurrent use.
type Encoder struct {
	meta MetaLatch
	f11  F11Debounce
}

// NewEncoder returns an Encoder with the default F11 window.
func NewEncoder() *Encoder {
	return &Encoder{f11: F11Debounce{Window: F11Window}}
}

// Encode applies the meta latch and the F11 debounce, then delegates to the
// pure Encode.
func (e *Encoder) Encode(ev Event, ctx Context, now time.Time) Result {
	if e.meta.Observe(ev) || ev.Released {
		return ignore
	}
	if e.meta.Held() {
		ev.Mods |= ModMeta
	}
	if ev.Key == KeyF11 && ev.Mods == 0 && e.f11.Press(now) {
		return passThrough
	}
	return Encode(ev, ctx)
}

// MetaHeld reports whether the OS-key latch is set.
func (e *Encoder) MetaHeld() bool { return e.meta.Held() }

// Reset clears the latch and disarms F11.
func (e *Encoder) Reset() {
	e.meta.Reset()
	e.f11.armedUntil = time.Time{}
}

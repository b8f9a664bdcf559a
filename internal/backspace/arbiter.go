// Package backspace decides which byte the Backspace key sends and corrects it
// when the remote host reports a mismatch.
package backspace

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Code is the byte emitted by the Backspace key.
type Code byte

const (
	// DEL is the default Backspace byte (^?).
	DEL Code = 0x7f
	// BS is the alternative Backspace byte (^H).
	BS Code = 0x08
)

// Cooldown is how long automatic detection stays disabled after a switch.
const Cooldown = 10 * time.Second

func (c Code) String() string {
	switch c {
	case DEL:
		return "del"
	case BS:
		return "bs"
	}
	return fmt.Sprintf("code(%#02x)", byte(c))
}

// Valid reports whether c is DEL or BS.
func (c Code) Valid() bool { return c == DEL || c == BS }

// ParseCode parses "del", "bs" and their caret spellings.
func ParseCode(s string) (Code, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "del", "delete", "^?", "0x7f":
		return DEL, nil
	case "bs", "backspace", "^h", "0x08":
		return BS, nil
	}
	return DEL, fmt.Errorf("unknown backspace code %q (want del or bs)", s)
}

// Arbiter owns a session's Backspace code. It is safe for concurrent use;
// the key path reads Current while the update path calls Observe.
type Arbiter struct {
	mu            sync.Mutex
	current       Code
	cooldownUntil time.Time
	cooldown      time.Duration
	now           func() time.Time
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithClock replaces time.Now, for tests and scripted playback.
func WithClock(now func() time.Time) Option {
	return func(a *Arbiter) { a.now = now }
}

// WithCooldown overrides the default cooldown.
func WithCooldown(d time.Duration) Option {
	return func(a *Arbiter) { a.cooldown = d }
}

// New returns an Arbiter starting at initial. An invalid initial code falls
// back to DEL.
func New(initial Code, opts ...Option) *Arbiter {
	if !initial.Valid() {
		initial = DEL
	}
	a := &Arbiter{current: initial, cooldown: Cooldown, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Observe handles the backspace byte detected by the remote host. has is
// false when the update carried none. It returns the new code and true only
// when the code was switched.
func (a *Arbiter) Observe(reported byte, has bool, autoDetect bool) (Code, bool) {
	if !has || !autoDetect {
		return 0, false
	}
	code := Code(reported)
	if !code.Valid() {
		return 0, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if now.Before(a.cooldownUntil) || code == a.current {
		return 0, false
	}
	a.current = code
	a.cooldownUntil = now.Add(a.cooldown)
	return code, true
}

// Current returns the code the Backspace key should emit.
func (a *Arbiter) Current() Code {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Set applies a manual preference. It does not start a cooldown.
func (a *Arbiter) Set(c Code) {
	if !c.Valid() {
		return
	}
	a.mu.Lock()
	a.current = c
	a.mu.Unlock()
}

// CoolingDown reports whether automatic detection is currently suspended.
func (a *Arbiter) CoolingDown() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now().Before(a.cooldownUntil)
}

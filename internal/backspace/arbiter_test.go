package backspace

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestArbiter(initial Code) (*Arbiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(initial, WithClock(clock.now)), clock
}

func TestObserveSwitchesOnceWithinCooldown(t *testing.T) {
	a, clock := newTestArbiter(DEL)

	code, changed := a.Observe(byte(BS), true, true)
	if !changed || code != BS {
		t.Fatalf("first Observe() = %v, %v; want bs, true", code, changed)
	}

	clock.advance(3 * time.Second)
	if code, changed := a.Observe(byte(DEL), true, true); changed {
		t.Errorf("second Observe() within cooldown = %v, true; want no change", code)
	}
	if got := a.Current(); got != BS {
		t.Errorf("Current() = %v, want bs", got)
	}
	if !a.CoolingDown() {
		t.Error("CoolingDown() = false inside the cooldown")
	}

	clock.advance(Cooldown)
	if a.CoolingDown() {
		t.Error("CoolingDown() = true after the cooldown")
	}
	code, changed = a.Observe(byte(DEL), true, true)
	if !changed || code != DEL {
		t.Errorf("Observe() after cooldown = %v, %v; want del, true", code, changed)
	}
}

func TestObserveNoChange(t *testing.T) {
	tests := []struct {
		name       string
		initial    Code
		reported   byte
		has        bool
		autoDetect bool
	}{
		{"nothing reported", DEL, 0, false, true},
		{"auto detect disabled", DEL, byte(BS), true, false},
		{"matches current", DEL, byte(DEL), true, true},
		{"matches current bs", BS, byte(BS), true, true},
		{"not a backspace byte", DEL, 'x', true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestArbiter(tt.initial)
			if code, changed := a.Observe(tt.reported, tt.has, tt.autoDetect); changed {
				t.Errorf("Observe() = %v, true; want no change", code)
			}
			if got := a.Current(); got != tt.initial {
				t.Errorf("Current() = %v, want %v", got, tt.initial)
			}
			if a.CoolingDown() {
				t.Error("CoolingDown() = true without a switch")
			}
		})
	}
}

func TestSetDoesNotCoolDown(t *testing.T) {
	a, _ := newTestArbiter(DEL)
	a.Set(BS)
	if got := a.Current(); got != BS {
		t.Fatalf("Current() = %v, want bs", got)
	}
	if a.CoolingDown() {
		t.Error("CoolingDown() = true after Set")
	}
	if _, changed := a.Observe(byte(DEL), true, true); !changed {
		t.Error("Observe() after Set did not switch")
	}

	a.Set(Code('x'))
	if got := a.Current(); got != DEL {
		t.Errorf("Current() after invalid Set = %v, want del", got)
	}
}

func TestNewInvalidInitial(t *testing.T) {
	if got := New(0).Current(); got != DEL {
		t.Errorf("New(0).Current() = %v, want del", got)
	}
}

func TestWithCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	a := New(DEL, WithClock(clock.now), WithCooldown(time.Second))
	a.Observe(byte(BS), true, true)
	clock.advance(time.Second)
	if _, changed := a.Observe(byte(DEL), true, true); !changed {
		t.Error("Observe() after custom cooldown did not switch")
	}
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		in      string
		want    Code
		wantErr bool
	}{
		{"del", DEL, false},
		{"DEL", DEL, false},
		{"", DEL, false},
		{"^?", DEL, false},
		{"bs", BS, false},
		{"^H", BS, false},
		{"backspace", BS, false},
		{"tab", DEL, true},
	}

	for _, tt := range tests {
		got, err := ParseCode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

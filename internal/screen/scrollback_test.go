package screen

import (
	"slices"
	"testing"
)

func TestScrollbackRing(t *testing.T) {
	sb := NewScrollback(3)
	for _, l := range []string{"1", "2", "3", "4", "5"} {
		sb.Push(l)
	}
	if sb.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", sb.Len())
	}
	if got := sb.Lines(); !slices.Equal(got, []string{"3", "4", "5"}) {
		t.Errorf("Lines() = %q, want [3 4 5]", got)
	}
	if got := sb.Line(0); got != "3" {
		t.Errorf("Line(0) = %q, want 3", got)
	}
	if got := sb.Line(3); got != "" {
		t.Errorf("Line(3) = %q, want empty", got)
	}

	sb.Clear()
	if sb.Len() != 0 || sb.Lines() != nil {
		t.Errorf("after Clear: Len() = %d, Lines() = %q", sb.Len(), sb.Lines())
	}
}

func TestScrollbackReplace(t *testing.T) {
	sb := NewScrollback(4)
	if sb.Replace(nil) {
		t.Error("Replace(nil) on empty scrollback reported a change")
	}
	if !sb.Replace([]string{"a", "b"}) {
		t.Error("Replace() with new lines reported no change")
	}
	sum := sb.Sum()
	if sb.Replace([]string{"a", "b"}) {
		t.Error("Replace() with equal lines reported a change")
	}
	if sb.Sum() != sum {
		t.Error("Sum() changed without a content change")
	}
	if !sb.Replace([]string{"a", "b", ""}) {
		t.Error("Replace() with an extra blank line reported no change")
	}
	if sb.Sum() == sum {
		t.Error("Sum() unchanged after content change")
	}
}

func TestScrollbackSumTracksPush(t *testing.T) {
	a, b := NewScrollback(4), NewScrollback(4)
	a.Replace([]string{"x", "y"})
	b.Push("x")
	b.Push("y")
	if a.Sum() != b.Sum() {
		t.Errorf("Sum() differs for equal contents: %x vs %x", a.Sum(), b.Sum())
	}
}

func TestScrollbackDisabled(t *testing.T) {
	sb := NewScrollback(0)
	sb.Push("x")
	if sb.Len() != 0 {
		t.Errorf("Len() = %d, want 0", sb.Len())
	}
	if sb.Replace([]string{"x"}) {
		t.Error("Replace() on disabled scrollback reported a change")
	}
}

func TestNewScrollbackDefault(t *testing.T) {
	if got := NewScrollback(-1).MaxLines(); got != DefaultScrollbackSize {
		t.Errorf("MaxLines() = %d, want %d", got, DefaultScrollbackSize)
	}
}

// Package screen applies incoming screen updates to a session's view of the
// remote terminal with minimal mutation.
//
// Each visible row owns a cache handle issued by a Materializer, which is
// the rendering layer's node for that row. Apply batches every changed row
// into a single set of dirty lines so the renderer can paint them in one
// pass.
package screen

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// ScrollbackDelay is the recommended delay before re-rendering the
// scrollback view after it changed.
const ScrollbackDelay = 500 * time.Millisecond

// Handle identifies a materialized line in the rendering layer.
type Handle uint64

// Materializer creates and releases line handles.
type Materializer interface {
	Materialize(index int) Handle
	Release(h Handle)
}

// CounterMaterializer hands out increasing handles and tracks which are
// live. It is safe for concurrent use and may be shared by sessions.
type CounterMaterializer struct {
	mu   sync.Mutex
	next Handle
	live map[Handle]struct{}
}

// Materialize returns a new handle.
func (c *CounterMaterializer) Materialize(int) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == nil {
		c.live = make(map[Handle]struct{})
	}
	c.next++
	c.live[c.next] = struct{}{}
	return c.next
}

// Release forgets h.
func (c *CounterMaterializer) Release(h Handle) {
	c.mu.Lock()
	delete(c.live, h)
	c.mu.Unlock()
}

// Live returns the number of handles not yet released.
func (c *CounterMaterializer) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// DirtyLine is a row whose content changed and must be repainted.
type DirtyLine struct {
	Index   int
	Handle  Handle
	Content string
}

// Outcome is the result of one Apply.
type Outcome struct {
	// Dirty is the batch of changed rows, in index order.
	Dirty []DirtyLine
	// NeedsRealign is set when the row count changed and the layout must be
	// recomputed.
	NeedsRealign bool
	// ScrollbackChanged is set when the scrollback was replaced.
	ScrollbackChanged bool
	// ScrollbackDelay is the debounce before re-rendering scrollback. Zero
	// unless ScrollbackChanged.
	ScrollbackDelay time.Duration
	// Rows is the row count after the update.
	Rows int
	// Released lists the handles dropped by a shrink.
	Released []Handle
}

// Empty reports whether the outcome requires no rendering work.
func (o Outcome) Empty() bool {
	return len(o.Dirty) == 0 && !o.NeedsRealign && !o.ScrollbackChanged
}

// State is one session's screen, line cache and scrollback. It is not safe
// for concurrent use; the session manager applies updates from a single
// worker per session.
type State struct {
	lines      []string
	cache      []Handle
	scrollback *Scrollback
	dirty      []DirtyLine
	m          Materializer
}

// NewState creates a blank screen of rows lines, materializing each row.
// maxScrollback bounds the scrollback; zero disables it. A nil m uses a
// private CounterMaterializer.
func NewState(rows, maxScrollback int, m Materializer) *State {
	if m == nil {
		m = &CounterMaterializer{}
	}
	if rows < 0 {
		rows = 0
	}
	if maxScrollback < 0 {
		maxScrollback = 0
	}
	s := &State{
		lines:      make([]string, rows),
		cache:      make([]Handle, rows),
		scrollback: NewScrollback(maxScrollback),
		m:          m,
	}
	for i := range rows {
		s.cache[i] = m.Materialize(i)
	}
	return s
}

// Apply merges an incoming screen into the state. An empty string in
// incoming means the row is unchanged. A nil scrollback leaves the stored
// scrollback alone; a non-nil one is compared as a whole and replaced if it
// differs.
func (s *State) Apply(incoming []string, scrollback []string) Outcome {
	var out Outcome

	if len(incoming) != len(s.lines) {
		out.Released = s.resize(len(incoming))
		out.NeedsRealign = true
	}

	for i, line := range incoming {
		if line == "" || s.lines[i] == line {
			continue
		}
		s.dirty = append(s.dirty, DirtyLine{Index: i, Handle: s.cache[i], Content: line})
		s.lines[i] = line
	}

	if scrollback != nil && s.scrollback.MaxLines() > 0 && s.scrollback.Replace(scrollback) {
		out.ScrollbackChanged = true
		out.ScrollbackDelay = ScrollbackDelay
	}

	out.Dirty, s.dirty = s.dirty, nil
	out.Rows = len(s.lines)
	return out
}

func (s *State) resize(rows int) []Handle {
	old := len(s.lines)
	if rows > old {
		for i := old; i < rows; i++ {
			s.lines = append(s.lines, "")
			s.cache = append(s.cache, s.m.Materialize(i))
		}
		return nil
	}

	released := make([]Handle, 0, old-rows)
	for i := rows; i < old; i++ {
		s.m.Release(s.cache[i])
		released = append(released, s.cache[i])
	}
	clear(s.lines[rows:])
	s.lines = s.lines[:rows]
	s.cache = s.cache[:rows]
	return released
}

// Rows returns the current row count.
func (s *State) Rows() int { return len(s.lines) }

// Lines returns a copy of the screen.
func (s *State) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Line returns row i, or "" when out of range.
func (s *State) Line(i int) string {
	if i < 0 || i >= len(s.lines) {
		return ""
	}
	return s.lines[i]
}

// Handle returns the cache handle of row i.
func (s *State) Handle(i int) (Handle, bool) {
	if i < 0 || i >= len(s.cache) {
		return 0, false
	}
	return s.cache[i], true
}

// Scrollback returns the stored scrollback, oldest first.
func (s *State) Scrollback() []string { return s.scrollback.Lines() }

// MaxScrollback returns the scrollback bound.
func (s *State) MaxScrollback() int { return s.scrollback.MaxLines() }

// SetMaxScrollback changes the scrollback bound, dropping the oldest lines
// if needed.
func (s *State) SetMaxScrollback(n int) {
	if n < 0 {
		n = 0
	}
	s.scrollback.Resize(n)
}

// Release returns every handle to the Materializer and empties the state.
func (s *State) Release() {
	for _, h := range s.cache {
		s.m.Release(h)
	}
	s.lines, s.cache, s.dirty = nil, nil, nil
	s.scrollback.Clear()
}

// Blank reports whether a rendered line has no visible content.
func Blank(line string) bool {
	return strings.TrimSpace(ansi.Strip(line)) == ""
}

// TrimTrailing returns lines up to and including the last non-blank one.
func TrimTrailing(lines []string) []string {
	for i := len(lines) - 1; i >= 0; i-- {
		if !Blank(lines[i]) {
			return lines[:i+1]
		}
	}
	return lines[:0]
}

// LastLines returns at most n lines ending at the last non-blank line, for
// matching against the most recent remote output.
func LastLines(lines []string, n int) []string {
	lines = TrimTrailing(lines)
	if n <= 0 {
		return lines[:0]
	}
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}

// Package session ties the key encoder, backspace arbiter and screen updater
// to one remote terminal session, and manages many sessions at once.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/keys"
	"github.com/Gaurav-Gosain/termlink/internal/screen"
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("session closed")

// ID identifies a session.
type ID int

// Options configures a new session.
type Options struct {
	Rows    int
	Columns int

	// Zero fields take the manager defaults. Set the matching Has flag to
	// open with ModeDefault, CursorNormal or no scrollback regardless.
	KeyboardMode    keys.KeyboardMode
	HasKeyboardMode bool
	CursorMode      keys.CursorMode
	HasCursorMode   bool
	Backspace       backspace.Code

	// MaxScrollback bounds the stored scrollback. Zero disables it.
	MaxScrollback    int
	HasMaxScrollback bool
	// CommandBufferSize bounds the command buffer, in runes.
	CommandBufferSize int
	// FlushInterval delays outbound sends so keystrokes coalesce.
	FlushInterval time.Duration

	// Materializer issues line handles for the renderer. Nil uses a
	// counter.
	Materializer screen.Materializer
	// Now is the clock for the F11 debounce and backspace cooldown.
	Now func() time.Time
}

// Session is one remote terminal. The key path (HandleKey) and the update
// path (the manager's worker) lock separate state, so neither blocks the
// other.
type Session struct {
	id  ID
	now func() time.Time

	keyMu        sync.Mutex
	keyboardMode keys.KeyboardMode
	cursorMode   keys.CursorMode
	rows, cols   int
	encoder      *keys.Encoder
	commands     *CommandBuffer

	screenMu sync.Mutex
	screen   *screen.State

	arbiter *backspace.Arbiter
	flusher *Flusher
	queue   *updateQueue

	scrollbackMu    sync.Mutex
	scrollbackTimer *time.Timer

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(id ID, opts Options, sink Sink, logger *log.Logger) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Session{
		id:           id,
		now:          now,
		keyboardMode: opts.KeyboardMode,
		cursorMode:   opts.CursorMode,
		rows:         opts.Rows,
		cols:         opts.Columns,
		encoder:      keys.NewEncoder(),
		commands:     NewCommandBuffer(opts.CommandBufferSize),
		screen:       screen.NewState(opts.Rows, opts.MaxScrollback, opts.Materializer),
		arbiter:      backspace.New(opts.Backspace, backspace.WithClock(now)),
		flusher:      NewFlusher(id, sink, opts.FlushInterval, logger),
		queue:        newUpdateQueue(),
		done:         make(chan struct{}),
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() ID { return s.id }

// Closed reports whether the session was closed.
func (s *Session) Closed() bool { return s.closed.Load() }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// HandleKey encodes a key press, queues its bytes for the remote side and
// updates the command buffer. hasSelection is the host's text-selection
// state, sampled once for this press. A closed session ignores keys.
func (s *Session) HandleKey(ev keys.Event, hasSelection bool) keys.Result {
	if s.Closed() {
		return keys.Result{Action: keys.ActionIgnore}
	}

	s.keyMu.Lock()
	ctx := keys.Context{
		KeyboardMode: s.keyboardMode,
		CursorMode:   s.cursorMode,
		Backspace:    byte(s.arbiter.Current()),
		HasSelection: hasSelection,
	}
	res := s.encoder.Encode(ev, ctx, s.now())
	if res.Action == keys.ActionEmit {
		switch {
		case res.WasEnterKey:
			s.commands.Commit()
		case res.WasBackspace:
			s.commands.Backspace()
		default:
			if text, ok := typedText(res.Bytes); ok {
				s.commands.Append(text)
			}
		}
	}
	s.keyMu.Unlock()

	if res.Action == keys.ActionEmit {
		s.flusher.Write(res.Bytes)
	}
	return res
}

// typedText reports bytes that are plain printable text.
func typedText(b []byte) (string, bool) {
	if len(b) == 0 || !utf8.Valid(b) {
		return "", false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) {
			return "", false
		}
	}
	return string(b), true
}

// SendText queues text verbatim, e.g. a clipboard paste.
func (s *Session) SendText(text string) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	s.keyMu.Lock()
	s.commands.Append(text)
	s.keyMu.Unlock()
	s.flusher.Write([]byte(text))
	return nil
}

// Flush sends queued keystrokes now.
func (s *Session) Flush(ctx context.Context) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	return s.flusher.Flush(ctx)
}

// Pending returns the number of queued outbound bytes.
func (s *Session) Pending() int { return s.flusher.Pending() }

// KeyboardMode returns the key-encoding dialect.
func (s *Session) KeyboardMode() keys.KeyboardMode {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	return s.keyboardMode
}

// SetKeyboardMode is called by the mode source when the remote side
// negotiates a dialect.
func (s *Session) SetKeyboardMode(m keys.KeyboardMode) {
	s.keyMu.Lock()
	s.keyboardMode = m
	s.keyMu.Unlock()
}

// CursorMode returns the arrow-key mode.
func (s *Session) CursorMode() keys.CursorMode {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	return s.cursorMode
}

// SetCursorMode is called when the remote side toggles DECCKM.
func (s *Session) SetCursorMode(m keys.CursorMode) {
	s.keyMu.Lock()
	s.cursorMode = m
	s.keyMu.Unlock()
}

// Backspace returns the byte the Backspace key currently sends.
func (s *Session) Backspace() backspace.Code { return s.arbiter.Current() }

// SetBackspace applies a manual Backspace preference.
func (s *Session) SetBackspace(c backspace.Code) { s.arbiter.Set(c) }

// SetSize records the layout's rows and columns. The screen itself follows
// the row count of incoming updates.
func (s *Session) SetSize(rows, cols int) {
	s.keyMu.Lock()
	s.rows, s.cols = rows, cols
	s.keyMu.Unlock()
}

// Size returns the layout's rows and columns as last set by SetSize. Use
// Rows for the row count of the screen itself.
func (s *Session) Size() (rows, cols int) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	return s.rows, s.cols
}

// Rows returns the screen's row count, which follows incoming updates.
func (s *Session) Rows() int {
	s.screenMu.Lock()
	defer s.screenMu.Unlock()
	if s.screen == nil {
		return 0
	}
	return s.screen.Rows()
}

// Command returns the text typed since the last Enter.
func (s *Session) Command() string {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	return s.commands.String()
}

// LastCommand returns the text committed by the last Enter.
func (s *Session) LastCommand() string {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	return s.commands.LastCommand()
}

// MetaHeld reports whether the OS-key meta latch is set.
func (s *Session) MetaHeld() bool {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	return s.encoder.MetaHeld()
}

// ResetKeys clears the meta latch and F11 state, e.g. on focus loss.
func (s *Session) ResetKeys() {
	s.keyMu.Lock()
	s.encoder.Reset()
	s.keyMu.Unlock()
}

// Lines returns a copy of the screen.
func (s *Session) Lines() []string {
	s.screenMu.Lock()
	defer s.screenMu.Unlock()
	if s.screen == nil {
		return nil
	}
	return s.screen.Lines()
}

// Scrollback returns a copy of the scrollback.
func (s *Session) Scrollback() []string {
	s.screenMu.Lock()
	defer s.screenMu.Unlock()
	if s.screen == nil {
		return nil
	}
	return s.screen.Scrollback()
}

// Handle returns the line handle of row i.
func (s *Session) Handle(i int) (screen.Handle, bool) {
	s.screenMu.Lock()
	defer s.screenMu.Unlock()
	if s.screen == nil {
		return 0, false
	}
	return s.screen.Handle(i)
}

// SetMaxScrollback changes the scrollback bound.
func (s *Session) SetMaxScrollback(n int) {
	s.screenMu.Lock()
	defer s.screenMu.Unlock()
	if s.screen != nil {
		s.screen.SetMaxScrollback(n)
	}
}

// apply runs one update against the screen. It returns false when the
// session closed first.
func (s *Session) apply(u Update) (screen.Outcome, bool) {
	s.screenMu.Lock()
	defer s.screenMu.Unlock()
	if s.Closed() || s.screen == nil {
		return screen.Outcome{}, false
	}
	return s.screen.Apply(u.Lines, u.Scrollback), true
}

// scheduleScrollback arms the scrollback debounce, replacing a pending one.
func (s *Session) scheduleScrollback(delay time.Duration, fn func()) {
	s.scrollbackMu.Lock()
	defer s.scrollbackMu.Unlock()
	if s.scrollbackTimer != nil {
		s.scrollbackTimer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.scrollbackMu.Lock()
		if s.scrollbackTimer == t {
			s.scrollbackTimer = nil
		}
		s.scrollbackMu.Unlock()
		fn()
	})
	s.scrollbackTimer = t
}

// stopScrollback cancels the scrollback debounce. It reports whether a
// notification was still pending.
func (s *Session) stopScrollback() bool {
	s.scrollbackMu.Lock()
	defer s.scrollbackMu.Unlock()
	if s.scrollbackTimer == nil {
		return false
	}
	pending := s.scrollbackTimer.Stop()
	s.scrollbackTimer = nil
	return pending
}

// close marks the session closed, stops its flusher and discards the
// screen. It is safe to call more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.queue.close()
		s.flusher.Stop()

		s.screenMu.Lock()
		s.screen.Release()
		s.screen = nil
		s.screenMu.Unlock()
	})
}

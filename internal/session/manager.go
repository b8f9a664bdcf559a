package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/screen"
)

// Update is one screen update for a session, as delivered by the remote
// side.
type Update struct {
	Session ID
	// Lines is the full screen; "" at an index means unchanged.
	Lines []string
	// Scrollback replaces the stored scrollback when non-nil.
	Scrollback []string
	// Backspace is the byte the remote host saw for Backspace, valid when
	// HasBackspace is set.
	Backspace    byte
	HasBackspace bool
}

// Renderer consumes the outcome of updates. Paint and BackspaceChanged for
// one session come from a single goroutine in delivery order;
// ScrollbackReady fires from a debounce timer.
type Renderer interface {
	Paint(id ID, out screen.Outcome)
	ScrollbackReady(id ID, lines []string)
	BackspaceChanged(id ID, code backspace.Code)
}

// NopRenderer discards everything.
type NopRenderer struct{}

func (NopRenderer) Paint(ID, screen.Outcome)            {}
func (NopRenderer) ScrollbackReady(ID, []string)        {}
func (NopRenderer) BackspaceChanged(ID, backspace.Code) {}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// WithRenderer sets the renderer.
func WithRenderer(r Renderer) ManagerOption {
	return func(m *Manager) { m.renderer = r }
}

// WithAutoDetect sets whether remote backspace detection is honoured.
func WithAutoDetect(on bool) ManagerOption {
	return func(m *Manager) { m.autoDetect.Store(on) }
}

// WithScrollbackDelay overrides the scrollback re-render debounce. A
// negative delay notifies synchronously, for tests.
func WithScrollbackDelay(d time.Duration) ManagerOption {
	return func(m *Manager) { m.scrollbackDelay = &d }
}

// WithDefaults sets the options applied to Open for zero fields.
func WithDefaults(opts Options) ManagerOption {
	return func(m *Manager) { m.defaults = opts }
}

// Manager owns every open session. Updates are applied in delivery order
// per session by one worker goroutine each; sessions do not wait on one
// another.
type Manager struct {
	sink     Sink
	renderer Renderer
	log      *log.Logger
	defaults Options

	autoDetect      atomic.Bool
	scrollbackDelay *time.Duration

	mu       sync.RWMutex
	sessions map[ID]*Session
	nextID   ID
	wg       sync.WaitGroup
}

// NewManager returns a Manager sending keystrokes to sink. Backspace auto
// detection is on unless disabled with WithAutoDetect.
func NewManager(sink Sink, opts ...ManagerOption) *Manager {
	m := &Manager{
		sink:     sink,
		renderer: NopRenderer{},
		log:      log.New(io.Discard),
		sessions: make(map[ID]*Session),
	}
	m.autoDetect.Store(true)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open creates a session and starts its update worker.
func (m *Manager) Open(opts Options) *Session {
	opts = m.withDefaults(opts)

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	s := newSession(id, opts, m.sink, m.log)
	m.sessions[id] = s
	m.mu.Unlock()

	m.wg.Go(func() { m.work(s) })
	m.log.Debug("session opened", "session", id, "rows", opts.Rows, "cols", opts.Columns,
		"keyboard", opts.KeyboardMode, "cursor", opts.CursorMode)
	return s
}

func (m *Manager) withDefaults(opts Options) Options {
	d := m.defaults
	if opts.Rows == 0 {
		opts.Rows = d.Rows
	}
	if opts.Columns == 0 {
		opts.Columns = d.Columns
	}
	if opts.KeyboardMode == 0 && !opts.HasKeyboardMode {
		opts.KeyboardMode = d.KeyboardMode
	}
	if opts.CursorMode == 0 && !opts.HasCursorMode {
		opts.CursorMode = d.CursorMode
	}
	if opts.Backspace == 0 {
		opts.Backspace = d.Backspace
	}
	if opts.MaxScrollback == 0 && !opts.HasMaxScrollback {
		opts.MaxScrollback = d.MaxScrollback
	}
	if opts.CommandBufferSize == 0 {
		opts.CommandBufferSize = d.CommandBufferSize
	}
	if opts.FlushInterval == 0 {
		opts.FlushInterval = d.FlushInterval
	}
	if opts.Materializer == nil {
		opts.Materializer = d.Materializer
	}
	if opts.Now == nil {
		opts.Now = d.Now
	}
	return opts
}

// Get returns an open session.
func (m *Manager) Get(id ID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the ids of open sessions.
func (m *Manager) IDs() []ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]ID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Close closes a session. Updates still queued or in flight for it become
// no-ops. Closing an unknown or closed session does nothing.
func (m *Manager) Close(id ID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.close()
	m.log.Debug("session closed", "session", id)
}

// Deliver queues an update for its session. It never blocks. Updates for
// unknown or closed sessions are dropped.
func (m *Manager) Deliver(u Update) {
	s, ok := m.Get(u.Session)
	if !ok || !s.queue.push(u) {
		m.log.Debug("update for missing session dropped", "session", u.Session)
	}
}

// SetAutoDetect toggles remote backspace detection for all sessions.
func (m *Manager) SetAutoDetect(on bool) { m.autoDetect.Store(on) }

// AutoDetect reports whether remote backspace detection is on.
func (m *Manager) AutoDetect() bool { return m.autoDetect.Load() }

// Wait blocks until every update delivered so far to open sessions has
// been applied, or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if err := s.queue.wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown flushes pending keystrokes and scrollback notifications and
// closes every session, then waits for the workers to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[ID]*Session)
	m.mu.Unlock()

	var firstErr error
	for id, s := range sessions {
		if s.stopScrollback() {
			m.notifyScrollback(s)
		}
		if err := s.Flush(ctx); err != nil && firstErr == nil {
			firstErr = err
			m.log.Warn("flush on shutdown failed", "session", id, "err", err)
		}
		s.close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

func (m *Manager) work(s *Session) {
	defer s.stopScrollback()

	for {
		batch, ok := s.queue.next()
		if !ok {
			return
		}
		for _, u := range batch {
			out, applied := s.apply(u)
			if !applied {
				break
			}

			if code, changed := s.arbiter.Observe(u.Backspace, u.HasBackspace, m.autoDetect.Load()); changed {
				m.log.Info("backspace mismatch, switching", "session", s.id, "code", code)
				m.renderer.BackspaceChanged(s.id, code)
			}

			if !out.Empty() && !s.Closed() {
				m.renderer.Paint(s.id, out)
			}

			if out.ScrollbackChanged {
				delay := out.ScrollbackDelay
				if m.scrollbackDelay != nil {
					delay = *m.scrollbackDelay
				}
				if delay < 0 {
					m.notifyScrollback(s)
					continue
				}
				s.scheduleScrollback(delay, func() { m.notifyScrollback(s) })
			}
		}
		s.queue.done(len(batch))
	}
}

func (m *Manager) notifyScrollback(s *Session) {
	if s.Closed() {
		return
	}
	lines := s.Scrollback()
	if s.Closed() {
		return
	}
	m.renderer.ScrollbackReady(s.id, lines)
}

// updateQueue is an unbounded FIFO of updates for one session.
type updateQueue struct {
	mu      sync.Mutex
	items   []Update
	pending int
	closed  bool
	ready   chan struct{}
	idle    chan struct{}
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{ready: make(chan struct{}, 1)}
}

func (q *updateQueue) push(u Update) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, u)
	q.pending++
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// next blocks until updates are queued and returns all of them. It returns
// false once the queue is closed.
func (q *updateQueue) next() ([]Update, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		if len(q.items) > 0 {
			batch := q.items
			q.items = nil
			q.mu.Unlock()
			return batch, true
		}
		q.mu.Unlock()
		<-q.ready
	}
}

// done records that n updates were processed.
func (q *updateQueue) done(n int) {
	q.mu.Lock()
	q.pending -= n
	if q.pending == 0 && q.idle != nil {
		close(q.idle)
		q.idle = nil
	}
	q.mu.Unlock()
}

// wait blocks until every pushed update was processed.
func (q *updateQueue) wait(ctx context.Context) error {
	q.mu.Lock()
	if q.pending == 0 || q.closed {
		q.mu.Unlock()
		return nil
	}
	if q.idle == nil {
		q.idle = make(chan struct{})
	}
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *updateQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	if q.idle != nil {
		close(q.idle)
		q.idle = nil
	}
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Package termlink is the embeddable engine of a remote terminal client: it
// encodes host key presses into the bytes a remote terminal expects and
// applies the screen updates the remote side sends back.
//
// # Basic Usage
//
// Create a client with a sink for outbound keystrokes and a renderer for the
// screen:
//
//	client := termlink.New(sink,
//		termlink.WithRenderer(renderer),
//		termlink.WithKeyboardMode(keys.ModeXterm),
//	)
//	defer client.Shutdown(ctx)
//
//	s := client.Open(24, 80)
//	s.HandleKey(keys.FromTea(msg), hasSelection)
//
// # Remote Actions
//
// JSON actions from the remote side (terminal:open, terminal:termupdate,
// terminal:mode, terminal:close) can be fed straight to Dispatch, which
// maps the remote session ids to local sessions:
//
//	if err := client.Dispatch(data); err != nil {
//		log.Warn("bad action", "err", err)
//	}
package termlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/config"
	"github.com/Gaurav-Gosain/termlink/internal/keys"
	"github.com/Gaurav-Gosain/termlink/internal/screen"
	"github.com/Gaurav-Gosain/termlink/internal/session"
	"github.com/Gaurav-Gosain/termlink/internal/termupdate"
)

// Re-exported types.
type (
	Session  = session.Session
	ID       = session.ID
	Update   = session.Update
	Sink     = session.Sink
	SinkFunc = session.SinkFunc
	Renderer = session.Renderer
	Outcome  = screen.Outcome
	Message  = termupdate.Message
)

// ErrSessionExists is returned by Dispatch for a terminal:open naming a
// remote id that is already open.
var ErrSessionExists = errors.New("remote session already open")

// Options configures a Client.
type Options struct {
	// Settings holds session defaults. Zero fields fall back to the
	// built-in defaults.
	Settings config.Settings

	// Rows and Columns size sessions opened without a size.
	Rows    int
	Columns int

	Renderer Renderer
	Logger   *log.Logger

	// Clock drives key timers and the backspace cooldown. Nil uses
	// time.Now.
	Clock func() time.Time

	// ScrollbackDelay overrides the scrollback re-render debounce.
	ScrollbackDelay *time.Duration
}

// Option is a functional option for configuring a Client.
type Option func(*Options)

// WithSettings replaces all session defaults.
func WithSettings(s config.Settings) Option {
	return func(o *Options) {
		o.Settings = s
	}
}

// WithUserConfig resolves a user configuration into session defaults. An
// unresolvable config leaves the defaults alone.
func WithUserConfig(cfg *config.UserConfig) Option {
	return func(o *Options) {
		if cfg == nil {
			return
		}
		if s, err := cfg.Settings(); err == nil {
			o.Settings = s
		}
	}
}

// WithKeyboardMode sets the initial keyboard mode.
func WithKeyboardMode(m keys.KeyboardMode) Option {
	return func(o *Options) {
		o.Settings.KeyboardMode = m
	}
}

// WithCursorMode sets the initial cursor mode.
func WithCursorMode(m keys.CursorMode) Option {
	return func(o *Options) {
		o.Settings.CursorMode = m
	}
}

// WithBackspace sets the initial Backspace byte.
func WithBackspace(c backspace.Code) Option {
	return func(o *Options) {
		o.Settings.Backspace = c
	}
}

// WithAutoDetect sets whether the remote erase character is followed.
func WithAutoDetect(on bool) Option {
	return func(o *Options) {
		o.Settings.AutoDetectBackspace = on
	}
}

// WithMaxScrollback bounds stored scrollback. Zero disables it.
func WithMaxScrollback(n int) Option {
	return func(o *Options) {
		o.Settings.MaxScrollback = max(n, 0)
	}
}

// WithFlushInterval sets the keystroke coalescing delay.
func WithFlushInterval(d time.Duration) Option {
	return func(o *Options) {
		o.Settings.FlushInterval = max(d, 0)
	}
}

// WithSize sets the default session size.
func WithSize(rows, columns int) Option {
	return func(o *Options) {
		o.Rows = rows
		o.Columns = columns
	}
}

// WithRenderer sets the renderer receiving screen outcomes.
func WithRenderer(r Renderer) Option {
	return func(o *Options) {
		o.Renderer = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithClock sets the clock.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Clock = now
	}
}

// WithScrollbackDelay overrides the scrollback re-render debounce. A
// negative delay notifies synchronously.
func WithScrollbackDelay(d time.Duration) Option {
	return func(o *Options) {
		o.ScrollbackDelay = &d
	}
}

// DefaultOptions returns the default client options.
func DefaultOptions() Options {
	return Options{
		Settings: config.DefaultSettings(),
		Rows:     config.DefaultRows,
		Columns:  config.DefaultColumns,
	}
}

// Client owns a set of sessions.
type Client struct {
	manager *session.Manager
	log     *log.Logger

	mu     sync.Mutex
	remote map[ID]*Session
}

// New creates a client sending keystrokes to sink.
func New(sink Sink, opts ...Option) *Client {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return newClient(sink, options)
}

func newClient(sink Sink, o Options) *Client {
	logger := o.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := o.Settings
	mopts := []session.ManagerOption{
		session.WithLogger(logger),
		session.WithAutoDetect(s.AutoDetectBackspace),
		session.WithDefaults(session.Options{
			Rows:              o.Rows,
			Columns:           o.Columns,
			KeyboardMode:      s.KeyboardMode,
			CursorMode:        s.CursorMode,
			Backspace:         s.Backspace,
			MaxScrollback:     s.MaxScrollback,
			CommandBufferSize: s.CommandBufferSize,
			FlushInterval:     s.FlushInterval,
			Now:               o.Clock,
		}),
	}
	if o.Renderer != nil {
		mopts = append(mopts, session.WithRenderer(o.Renderer))
	}
	if o.ScrollbackDelay != nil {
		mopts = append(mopts, session.WithScrollbackDelay(*o.ScrollbackDelay))
	}
	return &Client{
		manager: session.NewManager(sink, mopts...),
		log:     logger,
		remote:  make(map[ID]*Session),
	}
}

// Manager returns the underlying session manager.
func (c *Client) Manager() *session.Manager { return c.manager }

// Open opens a session. A zero size uses the client default.
func (c *Client) Open(rows, columns int) *Session {
	return c.manager.Open(session.Options{Rows: rows, Columns: columns})
}

// Get returns an open session by local id.
func (c *Client) Get(id ID) (*Session, bool) { return c.manager.Get(id) }

// Close closes a session by local id.
func (c *Client) Close(id ID) {
	c.mu.Lock()
	for rid, s := range c.remote {
		if s.ID() == id {
			delete(c.remote, rid)
		}
	}
	c.mu.Unlock()
	c.manager.Close(id)
}

// Deliver queues an update addressed by local id.
func (c *Client) Deliver(u Update) { c.manager.Deliver(u) }

// Remote returns the local session opened for a remote id.
func (c *Client) Remote(id ID) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.remote[id]
	return s, ok
}

// Dispatch decodes one JSON action and applies it.
func (c *Client) Dispatch(data []byte) error {
	msg, err := termupdate.Parse(data)
	if err != nil {
		return err
	}
	return c.Apply(msg)
}

// Apply applies a decoded action. Actions for remote ids that are not open
// are dropped.
func (c *Client) Apply(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.Kind == termupdate.KindOpen {
		if _, ok := c.remote[msg.Session]; ok {
			return fmt.Errorf("%w: %d", ErrSessionExists, msg.Session)
		}
		s := c.manager.Open(session.Options{
			Rows:            msg.Rows,
			Columns:         msg.Columns,
			KeyboardMode:    msg.KeyboardMode,
			HasKeyboardMode: msg.HasKeyboardMode,
			CursorMode:      msg.CursorMode,
			HasCursorMode:   msg.HasCursorMode,
		})
		c.remote[msg.Session] = s
		return nil
	}

	s, ok := c.remote[msg.Session]
	if !ok {
		c.log.Debug("action for unknown remote session", "kind", msg.Kind, "remote", msg.Session)
		return nil
	}

	switch msg.Kind {
	case termupdate.KindUpdate:
		u := msg.Update
		u.Session = s.ID()
		c.manager.Deliver(u)
	case termupdate.KindMode:
		if msg.HasKeyboardMode {
			s.SetKeyboardMode(msg.KeyboardMode)
		}
		if msg.HasCursorMode {
			s.SetCursorMode(msg.CursorMode)
		}
	case termupdate.KindClose:
		delete(c.remote, msg.Session)
		c.manager.Close(s.ID())
	}
	return nil
}

// Wait blocks until every delivered update has been applied.
func (c *Client) Wait(ctx context.Context) error { return c.manager.Wait(ctx) }

// Shutdown flushes and closes every session.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	clear(c.remote)
	c.mu.Unlock()
	return c.manager.Shutdown(ctx)
}

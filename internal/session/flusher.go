package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"charm.land/log/v2"
)

// ErrFlusherStopped is returned by Flush after Stop.
var ErrFlusherStopped = errors.New("flusher stopped")

// Sink is the outbound byte transport for sessions.
type Sink interface {
	Send(ctx context.Context, id ID, data []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, id ID, data []byte) error

// Send calls f.
func (f SinkFunc) Send(ctx context.Context, id ID, data []byte) error { return f(ctx, id, data) }

// Flusher batches a session's outbound keystrokes. A single goroutine owns
// the sink, so sends never overlap: bytes written while a send is in flight
// accumulate and go out together with the next one.
type Flusher struct {
	id       ID
	sink     Sink
	interval time.Duration
	log      *log.Logger

	mu  sync.Mutex
	buf []byte

	kick     chan struct{}
	flushReq chan chan error
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewFlusher starts a flusher for session id. A positive interval delays
// each send so keystrokes typed in quick succession coalesce.
func NewFlusher(id ID, sink Sink, interval time.Duration, logger *log.Logger) *Flusher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &Flusher{
		id:       id,
		sink:     sink,
		interval: interval,
		log:      logger,
		kick:     make(chan struct{}, 1),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	go f.run()
	return f
}

// Write queues data. It never blocks on the sink.
func (f *Flusher) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	f.mu.Lock()
	f.buf = append(f.buf, data...)
	f.mu.Unlock()

	select {
	case f.kick <- struct{}{}:
	default:
		// A flush is already pending; it will pick these bytes up.
	}
}

// Pending returns the number of queued bytes.
func (f *Flusher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buf)
}

// Flush drains the buffer now and returns the send error, if any.
func (f *Flusher) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case f.flushReq <- reply:
	case <-f.done:
		return ErrFlusherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends the writer goroutine, cancelling an in-flight send. Queued bytes
// are dropped; call Flush first to keep them.
func (f *Flusher) Stop() {
	f.stopOnce.Do(func() {
		close(f.done)
		f.cancel()
	})
	<-f.stopped
}

func (f *Flusher) run() {
	defer close(f.stopped)
	for {
		select {
		case <-f.done:
			return
		case reply := <-f.flushReq:
			reply <- f.drain()
		case <-f.kick:
			if f.interval > 0 && !f.delay() {
				return
			}
			if err := f.drain(); err != nil && !errors.Is(err, context.Canceled) {
				f.log.Warn("send failed", "session", f.id, "err", err)
			}
		}
	}
}

// delay waits out the coalescing interval. An explicit Flush during the
// wait is served immediately. It returns false when stopped.
func (f *Flusher) delay() bool {
	timer := time.NewTimer(f.interval)
	defer timer.Stop()
	select {
	case <-timer.C:
	case reply := <-f.flushReq:
		reply <- f.drain()
	case <-f.done:
		return false
	}
	return true
}

func (f *Flusher) drain() error {
	f.mu.Lock()
	data := f.buf
	f.buf = nil
	f.mu.Unlock()

	if len(data) == 0 {
		return nil
	}
	return f.sink.Send(f.ctx, f.id, data)
}

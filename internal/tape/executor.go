package tape

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gaurav-Gosain/termlink/internal/keys"
)

// Executor is the session surface a tape drives. *session.Session
// implements it.
type Executor interface {
	// HandleKey encodes and queues one key press
	HandleKey(ev keys.Event, hasSelection bool) keys.Result

	// SendText queues text verbatim
	SendText(text string) error

	// Mode switching, as done by the remote side
	SetKeyboardMode(mode keys.KeyboardMode)
	SetCursorMode(mode keys.CursorMode)
}

// Clock is a logical clock advanced by Sleep commands. It is safe for
// concurrent use.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a clock starting at start.
func NewClock(start time.Time) *Clock { return &Clock{t: start} }

// Now returns the current logical time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Step reports one key press made by the player.
type Step struct {
	Command Command
	Event   keys.Event
	Result  keys.Result
}

// Option configures a CommandExecutor.
type Option func(*CommandExecutor)

// WithStepHook calls fn after every key press.
func WithStepHook(fn func(Step)) Option {
	return func(ce *CommandExecutor) { ce.onStep = fn }
}

// WithRealTime makes Sleep also wait on the wall clock.
func WithRealTime(on bool) Option {
	return func(ce *CommandExecutor) { ce.realTime = on }
}

// CommandExecutor plays commands against an Executor.
type CommandExecutor struct {
	executor  Executor
	clock     *Clock
	selection bool
	realTime  bool
	onStep    func(Step)
}

// NewCommandExecutor creates a command executor. The clock should be the
// one the session was opened with so Sleep affects its timers.
func NewCommandExecutor(executor Executor, clock *Clock, opts ...Option) *CommandExecutor {
	if clock == nil {
		clock = NewClock(time.Now())
	}
	ce := &CommandExecutor{executor: executor, clock: clock}
	for _, opt := range opts {
		opt(ce)
	}
	return ce
}

// Play runs cmds in order, stopping at the first error or when ctx is done.
func (ce *CommandExecutor) Play(ctx context.Context, cmds []Command) error {
	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ce.Execute(ctx, cmd); err != nil {
			return fmt.Errorf("line %d: %w", cmd.Line, err)
		}
	}
	return nil
}

// Execute runs one command.
func (ce *CommandExecutor) Execute(ctx context.Context, cmd Command) error {
	if ce.executor == nil {
		return nil
	}

	switch cmd.Type {
	case CommandTypeType:
		if len(cmd.Args) > 0 {
			for _, r := range cmd.Args[0] {
				ev := keys.Event{Text: string(r)}
				if r == '\n' {
					ev = keys.Event{Key: keys.KeyEnter}
				}
				ce.press(cmd, ev)
			}
		}

	case CommandTypeKey:
		if len(cmd.Args) == 0 {
			return nil
		}
		ev, err := keys.ParseCombo(cmd.Args[0])
		if err != nil {
			return err
		}
		ce.repeat(cmd, ev)

	case CommandTypeEnter:
		ce.repeat(cmd, keys.Event{Key: keys.KeyEnter})

	case CommandTypeBackspace:
		ce.repeat(cmd, keys.Event{Key: keys.KeyBackspace})

	case CommandTypeTab:
		ce.repeat(cmd, keys.Event{Key: keys.KeyTab})

	case CommandTypeEscape:
		ce.repeat(cmd, keys.Event{Key: keys.KeyEscape})

	case CommandTypeSpace:
		ce.repeat(cmd, keys.Event{Key: keys.KeySpace, Text: " "})

	case CommandTypeSleep:
		ce.clock.Advance(cmd.Duration)
		if ce.realTime && cmd.Duration > 0 {
			timer := time.NewTimer(cmd.Duration)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

	case CommandTypeMode:
		mode, err := keys.ParseKeyboardMode(cmd.Args[0])
		if err != nil {
			return err
		}
		ce.executor.SetKeyboardMode(mode)

	case CommandTypeCursor:
		mode, err := keys.ParseCursorMode(cmd.Args[0])
		if err != nil {
			return err
		}
		ce.executor.SetCursorMode(mode)

	case CommandTypeSelect:
		switch cmd.Args[0] {
		case "on", "true", "yes":
			ce.selection = true
		case "off", "false", "no":
			ce.selection = false
		default:
			return fmt.Errorf("%w: Select wants on or off, got %q", ErrSyntax, cmd.Args[0])
		}
	}

	return nil
}

func (ce *CommandExecutor) repeat(cmd Command, ev keys.Event) {
	n := max(cmd.Count, 1)
	for range n {
		ce.press(cmd, ev)
	}
}

func (ce *CommandExecutor) press(cmd Command, ev keys.Event) {
	res := ce.executor.HandleKey(ev, ce.selection)
	if res.TriggersCopy {
		// The host copied the selection, so it is gone.
		ce.selection = false
	}
	if ce.onStep != nil {
		ce.onStep(Step{Command: cmd, Event: ev, Result: res})
	}
}

// Clock returns the executor's logical clock.
func (ce *CommandExecutor) Clock() *Clock { return ce.clock }

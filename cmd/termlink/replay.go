package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/config"
	"github.com/Gaurav-Gosain/termlink/internal/screen"
	"github.com/Gaurav-Gosain/termlink/internal/termupdate"
	"github.com/Gaurav-Gosain/termlink/pkg/termlink"
	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newReplayCmd() *cobra.Command {
	var final, quiet bool
	var delay time.Duration
	replayCmd := &cobra.Command{
		Use:   "replay <file.jsonl>",
		Short: "Replay recorded screen updates",
		Long: `Replay a JSON Lines stream of terminal actions and print the dirty-line
batches each update produces.

Each line holds one action: terminal:open, terminal:termupdate,
terminal:mode or terminal:close. Blank lines and lines starting with '#'
are skipped, as are actions of other kinds. Scrollback notifications
still pending when the file ends are printed before exit.`,
		Example: `  # Replay a capture
  termlink replay session.jsonl

  # Only print the final screens
  termlink replay --quiet --final session.jsonl

  # Pace the replay
  termlink replay --delay 50ms session.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args[0], final, quiet, delay)
		},
	}
	replayCmd.Flags().BoolVar(&final, "final", false, "Print each open session's screen at the end")
	replayCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print dirty-line batches")
	replayCmd.Flags().DurationVar(&delay, "delay", 0, "Wait between actions")
	return replayCmd
}

type eventKind int

const (
	eventPaint eventKind = iota
	eventScrollback
	eventBackspace
)

type replayEvent struct {
	kind       eventKind
	id         termlink.ID
	out        screen.Outcome
	scrollback []string
	backspace  backspace.Code
}

// replayRenderer forwards outcomes to the printer goroutine. Scrollback
// timers may fire late, so sends after close are dropped.
type replayRenderer struct {
	ctx    context.Context
	mu     sync.Mutex
	closed bool
	events chan replayEvent
}

func (r *replayRenderer) send(ev replayEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.events <- ev:
	case <-r.ctx.Done():
	}
}

func (r *replayRenderer) close() {
	r.mu.Lock()
	r.closed = true
	close(r.events)
	r.mu.Unlock()
}

func (r *replayRenderer) Paint(id termlink.ID, out screen.Outcome) {
	r.send(replayEvent{kind: eventPaint, id: id, out: out})
}

func (r *replayRenderer) ScrollbackReady(id termlink.ID, lines []string) {
	r.send(replayEvent{kind: eventScrollback, id: id, scrollback: lines})
}

func (r *replayRenderer) BackspaceChanged(id termlink.ID, code backspace.Code) {
	r.send(replayEvent{kind: eventBackspace, id: id, backspace: code})
}

var (
	sessionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	indexStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func runReplay(ctx context.Context, name string, final, quiet bool, delay time.Duration) error {
	settings, _, logger, err := setup()
	if err != nil {
		return err
	}

	in, err := openInput(name)
	if err != nil {
		return err
	}
	defer in.Close()

	out := colorprofile.NewWriter(os.Stdout, os.Environ())

	g, ctx := errgroup.WithContext(ctx)
	renderer := &replayRenderer{ctx: ctx, events: make(chan replayEvent, 64)}
	client := termlink.New(termlink.SinkFunc(func(context.Context, termlink.ID, []byte) error { return nil }),
		termlink.WithSettings(settings),
		termlink.WithLogger(logger),
		termlink.WithRenderer(renderer),
	)

	g.Go(func() error {
		for ev := range renderer.events {
			if quiet {
				continue
			}
			if err := printEvent(out, ev); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		defer renderer.close()
		err := feed(ctx, client, termupdate.NewScanner(in), delay, logger)
		if waitErr := client.Wait(ctx); err == nil {
			err = waitErr
		}
		if err == nil && final {
			err = printFinal(out, client)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if shutErr := client.Shutdown(shutdownCtx); err == nil {
			err = shutErr
		}
		return err
	})

	return g.Wait()
}

func feed(ctx context.Context, client *termlink.Client, sc *termupdate.Scanner, delay time.Duration, logger *log.Logger) error {
	n := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := client.Apply(sc.Message()); err != nil {
			return fmt.Errorf("line %d: %w", sc.Line(), err)
		}
		n++
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	logger.Debug("replay done", "actions", n, "skipped", sc.Skipped())
	return nil
}

func printEvent(w io.Writer, ev replayEvent) error {
	header := sessionStyle.Render(fmt.Sprintf("session %d", ev.id))
	var err error
	switch ev.kind {
	case eventPaint:
		o := ev.out
		note := fmt.Sprintf(" %d dirty", len(o.Dirty))
		if o.NeedsRealign {
			note += ", resized to " + fmt.Sprint(o.Rows)
		}
		if o.ScrollbackChanged {
			note += ", scrollback changed"
		}
		if _, err = fmt.Fprintln(w, header+noteStyle.Render(note)); err != nil {
			return err
		}
		for _, d := range o.Dirty {
			if _, err = fmt.Fprintf(w, "  %s %s\n", indexStyle.Render(fmt.Sprintf("%3d", d.Index)), d.Content); err != nil {
				return err
			}
		}
	case eventScrollback:
		_, err = fmt.Fprintln(w, header+noteStyle.Render(fmt.Sprintf(" scrollback ready, %d line(s)", len(ev.scrollback))))
	default:
		_, err = fmt.Fprintln(w, header+noteStyle.Render(" backspace now "+ev.backspace.String()))
	}
	return err
}

func printFinal(w io.Writer, client *termlink.Client) error {
	ids := client.Manager().IDs()
	slices.Sort(ids)
	for _, id := range ids {
		s, ok := client.Get(id)
		if !ok {
			continue
		}
		lines := s.Lines()
		_, cols := s.Size()
		if _, err := fmt.Fprintln(w, sessionStyle.Render(fmt.Sprintf("session %d final (%dx%d)", id, cols, len(lines)))); err != nil {
			return err
		}
		for i, line := range screen.TrimTrailing(lines) {
			if _, err := fmt.Fprintf(w, "  %s %s\n", indexStyle.Render(fmt.Sprintf("%3d", i)), line); err != nil {
				return err
			}
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/Gaurav-Gosain/termlink/internal/config"
	"github.com/Gaurav-Gosain/termlink/internal/keys"
	"github.com/Gaurav-Gosain/termlink/internal/tape"
	"github.com/Gaurav-Gosain/termlink/pkg/termlink"
	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"
)

func newTapeCmd() *cobra.Command {
	var realTime, raw bool
	tapeCmd := &cobra.Command{
		Use:   "tape <file.tape>",
		Short: "Play a key script",
		Long: `Play a key script against a local session and print what each key
encodes to.

Scripts hold one command per line: Type "text", Key <combo> [count],
Enter, Backspace, Tab, Escape, Space [count], Sleep <duration>,
Mode default|xterm|sco, Cursor normal|app and Select on|off.
Sleep advances a logical clock unless --realtime is given.`,
		Example: `  # Play a script
  termlink tape demo.tape

  # Play it in xterm mode and write the raw bytes to a file
  termlink tape --keyboard-mode xterm --raw demo.tape > out.bin

  # Read the script from stdin
  echo 'Key f11' | termlink tape -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTape(cmd.Context(), args[0], realTime, raw)
		},
	}
	tapeCmd.Flags().BoolVar(&realTime, "realtime", false, "Also wait on the wall clock for Sleep")
	tapeCmd.Flags().BoolVar(&raw, "raw", false, "Write the bytes sent instead of a listing")
	return tapeCmd
}

// byteSink collects everything sent by a session.
type byteSink struct {
	mu  sync.Mutex
	buf []byte
}

func (b *byteSink) Send(_ context.Context, _ termlink.ID, data []byte) error {
	b.mu.Lock()
	b.buf = append(b.buf, data...)
	b.mu.Unlock()
	return nil
}

func (b *byteSink) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf...)
}

var (
	lineNumberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	comboStyle      = lipgloss.NewStyle().Bold(true)
	bytesStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	flagStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func openInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	// #nosec G304 - the user names the file to read
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

func runTape(ctx context.Context, name string, realTime, raw bool) error {
	settings, _, logger, err := setup()
	if err != nil {
		return err
	}

	in, err := openInput(name)
	if err != nil {
		return err
	}
	cmds, err := tape.Parse(in)
	_ = in.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	clock := tape.NewClock(time.Now())
	sink := &byteSink{}
	client := termlink.New(sink,
		termlink.WithSettings(settings),
		termlink.WithLogger(logger),
		termlink.WithClock(clock.Now),
	)
	s := client.Open(0, 0)

	out := colorprofile.NewWriter(os.Stdout, os.Environ())
	var opts []tape.Option
	opts = append(opts, tape.WithRealTime(realTime))
	if !raw {
		opts = append(opts, tape.WithStepHook(func(step tape.Step) {
			fmt.Fprintln(out, formatStep(step))
		}))
	}

	playErr := tape.NewCommandExecutor(s, clock, opts...).Play(ctx, cmds)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := client.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "err", err)
	}

	if raw {
		if _, err := os.Stdout.Write(sink.Bytes()); err != nil {
			return err
		}
	} else {
		total := len(sink.Bytes())
		fmt.Fprintln(out, lineNumberStyle.Render(fmt.Sprintf("%d command(s), %d byte(s) sent", len(cmds), total)))
	}
	return playErr
}

func formatStep(step tape.Step) string {
	ln := lineNumberStyle.Render(fmt.Sprintf("%4d", step.Command.Line))
	name := step.Event.String()
	if step.Event.Key == keys.KeyUnknown && step.Event.Text != "" {
		name = strconv.Quote(step.Event.Text)
	}
	combo := comboStyle.Render(fmt.Sprintf("%-18s", name))

	var result string
	switch step.Result.Action {
	case keys.ActionEmit:
		result = bytesStyle.Render(keys.Describe(step.Result.Bytes))
	default:
		result = flagStyle.Render(step.Result.Action.String())
	}
	return fmt.Sprintf("%s  %s %s%s", ln, combo, result, flagStyle.Render(resultFlags(step.Result)))
}

func resultFlags(r keys.Result) string {
	var s string
	if r.TriggersCopy {
		s += " [copy]"
	}
	if r.TriggersNativePaste {
		s += " [paste]"
	}
	if r.TriggersFullRefresh {
		s += " [refresh]"
	}
	return s
}

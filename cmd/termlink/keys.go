package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/config"
	"github.com/Gaurav-Gosain/termlink/internal/keys"
	"github.com/Gaurav-Gosain/termlink/pkg/termlink"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const historySize = 200

func newKeysCmd() *cobra.Command {
	var noWatch bool
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Inspect key encodings interactively",
		Long: `Show the bytes each key press encodes to

Every key is run through a local session exactly as it would be for a remote
terminal. Meta+V pastes from the system clipboard, Ctrl+C with the fake
selection on copies instead of sending ^C, and F11 pressed twice quickly
passes through to the host.

The inspector's own keys are configurable under [keybindings.inspector];
the config file is reloaded when it changes.`,
		Example: `  # Inspect in xterm mode with application cursor keys
  termlink keys --keyboard-mode xterm --cursor-mode app`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeys(cmd.Context(), !noWatch)
		},
	}
	keysCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the config file on change")
	return keysCmd
}

type historyEntry struct {
	combo  string
	result keys.Result
	note   string
}

type pasteMsg struct {
	text string
	err  error
}

type configMsg struct {
	cfg *config.UserConfig
}

type inspector struct {
	client   *termlink.Client
	session  *termlink.Session
	registry *config.KeybindRegistry
	log      *log.Logger

	selection bool
	history   []historyEntry
	width     int
	height    int
}

func newInspector(client *termlink.Client, cfg *config.UserConfig, logger *log.Logger) *inspector {
	return &inspector{
		client:   client,
		session:  client.Open(0, 0),
		registry: config.NewKeybindRegistry(cfg.Keybindings.Inspector),
		log:      logger,
	}
}

func (m *inspector) Init() tea.Cmd { return nil }

func (m *inspector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.session.SetSize(msg.Height, msg.Width)
		return m, nil

	case tea.KeyPressMsg:
		ev := keys.FromTea(msg)
		if action, ok := m.registry.Action(ev); ok {
			return m, m.runAction(action)
		}
		return m, m.press(msg.String(), ev)

	case tea.KeyReleaseMsg:
		m.session.HandleKey(keys.FromTeaRelease(msg), m.selection)
		return m, nil

	case tea.PasteMsg:
		m.paste(msg.Content, "bracketed paste")
		return m, nil

	case pasteMsg:
		if msg.err != nil {
			m.push(historyEntry{combo: "paste", note: "clipboard: " + msg.err.Error()})
			return m, nil
		}
		m.paste(msg.text, "clipboard paste")
		return m, nil

	case configMsg:
		m.applyConfig(msg.cfg)
		return m, nil
	}
	return m, nil
}

func (m *inspector) press(combo string, ev keys.Event) tea.Cmd {
	res := m.session.HandleKey(ev, m.selection)
	entry := historyEntry{combo: combo, result: res}

	var cmd tea.Cmd
	switch {
	case res.TriggersCopy:
		if err := clipboard.WriteAll("termlink selection"); err != nil {
			entry.note = "copy failed: " + err.Error()
		} else {
			entry.note = "copied selection"
		}
		m.selection = false
	case res.TriggersNativePaste:
		entry.note = "reading clipboard"
		cmd = readClipboard
	case res.TriggersFullRefresh:
		entry.note = "full refresh requested"
	case res.Action == keys.ActionPassThrough && ev.Key == keys.KeyF11:
		entry.note = "host fullscreen"
	}
	m.push(entry)
	return cmd
}

func readClipboard() tea.Msg {
	text, err := clipboard.ReadAll()
	return pasteMsg{text: text, err: err}
}

func (m *inspector) paste(text, source string) {
	err := m.session.SendText(text)
	entry := historyEntry{
		combo:  source,
		result: keys.Result{Action: keys.ActionEmit, Bytes: []byte(text)},
	}
	if err != nil {
		entry.note = err.Error()
	}
	m.push(entry)
}

func (m *inspector) runAction(action string) tea.Cmd {
	s := m.session
	switch action {
	case config.ActionQuit:
		return tea.Quit
	case config.ActionCycleKeyboard:
		s.SetKeyboardMode((s.KeyboardMode() + 1) % 3)
	case config.ActionToggleCursor:
		if s.CursorMode() == keys.CursorApplication {
			s.SetCursorMode(keys.CursorNormal)
		} else {
			s.SetCursorMode(keys.CursorApplication)
		}
	case config.ActionToggleSelection:
		m.selection = !m.selection
	case config.ActionToggleBackspace:
		if s.Backspace() == backspace.DEL {
			s.SetBackspace(backspace.BS)
		} else {
			s.SetBackspace(backspace.DEL)
		}
	case config.ActionClear:
		m.history = m.history[:0]
		s.ResetKeys()
	}
	return nil
}

func (m *inspector) applyConfig(cfg *config.UserConfig) {
	m.registry = config.NewKeybindRegistry(cfg.Keybindings.Inspector)
	settings, err := config.ApplyOverrides(overrides(), cfg)
	if err != nil {
		m.log.Warn("config reload", "err", err)
		return
	}
	m.session.SetKeyboardMode(settings.KeyboardMode)
	m.session.SetCursorMode(settings.CursorMode)
	m.client.Manager().SetAutoDetect(settings.AutoDetectBackspace)
	m.push(historyEntry{combo: "config", note: "reloaded"})
}

func (m *inspector) push(e historyEntry) {
	m.history = append(m.history, e)
	if over := len(m.history) - historySize; over > 0 {
		m.history = append(m.history[:0], m.history[over:]...)
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	hostStyle   = lipgloss.NewStyle().Bold(true).Width(22)
	emitStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m *inspector) View() tea.View {
	var view tea.View
	view.AltScreen = true

	s := m.session
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("termlink keys"))
	sb.WriteString("  ")
	sb.WriteString(statusStyle.Render(fmt.Sprintf("keyboard=%s cursor=%s backspace=%s selection=%v meta=%v",
		s.KeyboardMode(), s.CursorMode(), s.Backspace(), m.selection, s.MetaHeld())))
	sb.WriteString("\n")
	if cmd := s.Command(); cmd != "" {
		sb.WriteString(statusStyle.Render("command: " + cmd))
	} else if last := s.LastCommand(); last != "" {
		sb.WriteString(statusStyle.Render("last command: " + last))
	}
	sb.WriteString("\n\n")

	rows := max(m.height-6, 1)
	start := max(len(m.history)-rows, 0)
	for _, e := range m.history[start:] {
		sb.WriteString(hostStyle.Render(e.combo))
		switch e.result.Action {
		case keys.ActionEmit:
			sb.WriteString(emitStyle.Render(keys.Describe(e.result.Bytes)))
		case keys.ActionPassThrough:
			sb.WriteString(passStyle.Render("passthrough"))
		default:
			if e.note == "" {
				sb.WriteString(helpStyle.Render("ignored"))
			}
		}
		if e.note != "" {
			sb.WriteString(" ")
			sb.WriteString(passStyle.Render(e.note))
		}
		sb.WriteString("\n")
	}

	var help []string
	for _, b := range m.registry.GetKeybindings() {
		help = append(help, b.Key+" "+strings.ToLower(b.Description))
	}
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	view.SetContent(sb.String())
	return view
}

func runKeys(ctx context.Context, watch bool) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("keys needs an interactive terminal")
	}

	settings, userConfig, logger, err := setup()
	if err != nil {
		return err
	}

	client := termlink.New(termlink.SinkFunc(func(context.Context, termlink.ID, []byte) error { return nil }),
		termlink.WithSettings(settings),
		termlink.WithLogger(logger),
	)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		_ = client.Shutdown(shutdownCtx)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newInspector(client, userConfig, logger), tea.WithContext(ctx))

	if watch {
		if path, err := config.GetConfigPath(); err == nil {
			go func() {
				err := config.Watch(ctx, path, func(cfg *config.UserConfig) {
					p.Send(configMsg{cfg: cfg})
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Debug("config watch stopped", "err", err)
				}
			}()
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

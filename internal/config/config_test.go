package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/keys"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.KeyboardMode != keys.ModeDefault || s.CursorMode != keys.CursorNormal {
		t.Errorf("modes = %v/%v, want default/normal", s.KeyboardMode, s.CursorMode)
	}
	if s.Backspace != backspace.DEL {
		t.Errorf("Backspace = %v, want DEL", s.Backspace)
	}
	if !s.AutoDetectBackspace {
		t.Error("AutoDetectBackspace = false, want true")
	}
	if s.MaxScrollback != DefaultMaxScrollback {
		t.Errorf("MaxScrollback = %d, want %d", s.MaxScrollback, DefaultMaxScrollback)
	}
	if s.CommandBufferSize != DefaultCommandBufferSize {
		t.Errorf("CommandBufferSize = %d, want %d", s.CommandBufferSize, DefaultCommandBufferSize)
	}
	if s.LogLevel != log.InfoLevel {
		t.Errorf("LogLevel = %v, want info", s.LogLevel)
	}
}

func TestParse(t *testing.T) {
	cfg, v, err := Parse([]byte(`
[terminal]
keyboard_mode = "sco"
backspace = "bs"
auto_detect_backspace = false
max_scrollback = 0

[input]
flush_interval_ms = 15

[keybindings.inspector]
quit = ["ctrl+q"]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if v.HasWarnings() {
		t.Errorf("Parse() warnings = %v", v.Warnings)
	}

	s, err := cfg.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if s.KeyboardMode != keys.ModeSCO {
		t.Errorf("KeyboardMode = %v, want sco", s.KeyboardMode)
	}
	if s.Backspace != backspace.BS {
		t.Errorf("Backspace = %v, want BS", s.Backspace)
	}
	if s.AutoDetectBackspace {
		t.Error("AutoDetectBackspace = true, want false")
	}
	if s.MaxScrollback != 0 {
		t.Errorf("MaxScrollback = %d, want 0 (disabled)", s.MaxScrollback)
	}
	if s.FlushInterval != 15*time.Millisecond {
		t.Errorf("FlushInterval = %v, want 15ms", s.FlushInterval)
	}
	// Missing values fall back to defaults.
	if s.CursorMode != keys.CursorNormal || s.CommandBufferSize != DefaultCommandBufferSize {
		t.Errorf("defaults not filled: %+v", s)
	}
	if got := cfg.Keybindings.Inspector[ActionClear]; len(got) == 0 {
		t.Error("missing inspector binding not filled from defaults")
	}
}

func TestParseWarnings(t *testing.T) {
	cfg, v, err := Parse([]byte(`
[terminal]
max_scrollback = 5000000
command_buffer_size = 8

[input]
flush_interval_ms = -3

[keybindings.inspector]
explode = ["f1"]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(v.Warnings) != 4 {
		t.Errorf("Warnings = %v, want 4", v.Warnings)
	}
	if *cfg.Terminal.MaxScrollback != MaxScrollbackLimit {
		t.Errorf("max_scrollback = %d, want clamp to %d", *cfg.Terminal.MaxScrollback, MaxScrollbackLimit)
	}
	if cfg.Terminal.CommandBufferSize != MinCommandBufferSize {
		t.Errorf("command_buffer_size = %d, want %d", cfg.Terminal.CommandBufferSize, MinCommandBufferSize)
	}
	if *cfg.Input.FlushIntervalMS != 0 {
		t.Errorf("flush_interval_ms = %d, want 0", *cfg.Input.FlushIntervalMS)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		key  string
	}{
		{"keyboard mode", "[terminal]\nkeyboard_mode = \"wyse\"", "keyboard_mode"},
		{"cursor mode", "[terminal]\ncursor_mode = \"sideways\"", "cursor_mode"},
		{"backspace", "[terminal]\nbackspace = \"^W\"", "backspace"},
		{"log level", "[log]\nlevel = \"loud\"", "level"},
		{"binding", "[keybindings.inspector]\nquit = [\"hyper+q\"]", "quit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, v, err := Parse([]byte(tt.in))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Parse() error = %v, want ErrInvalidConfig", err)
			}
			if len(v.Errors) != 1 || v.Errors[0].Key != tt.key {
				t.Errorf("Errors = %v, want one for %s", v.Errors, tt.key)
			}
		})
	}

	if _, _, err := Parse([]byte("[terminal")); err == nil || errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Parse(bad toml) error = %v, want a decode error", err)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termlink", ConfigFileName)
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# termlink configuration file") {
		t.Errorf("missing header:\n%s", data)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	got, err := cfg.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if got != DefaultSettings() {
		t.Errorf("round trip = %+v, want %+v", got, DefaultSettings())
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg, _, err := Parse([]byte("[terminal]\nkeyboard_mode = \"sco\"\nmax_scrollback = 50"))
	if err != nil {
		t.Fatal(err)
	}

	s, err := ApplyOverrides(NoOverrides(), cfg)
	if err != nil {
		t.Fatalf("ApplyOverrides(none) error = %v", err)
	}
	if s.KeyboardMode != keys.ModeSCO || s.MaxScrollback != 50 {
		t.Errorf("ApplyOverrides(none) = %+v, want config values", s)
	}

	o := NoOverrides()
	o.KeyboardMode = "xterm"
	o.CursorMode = "app"
	o.Backspace = "bs"
	o.NoAutoDetect = true
	o.MaxScrollback = 0
	o.FlushInterval = time.Hour
	o.Debug = true
	s, err = ApplyOverrides(o, cfg)
	if err != nil {
		t.Fatalf("ApplyOverrides() error = %v", err)
	}
	want := Settings{
		KeyboardMode:        keys.ModeXterm,
		CursorMode:          keys.CursorApplication,
		Backspace:           backspace.BS,
		AutoDetectBackspace: false,
		MaxScrollback:       0,
		CommandBufferSize:   DefaultCommandBufferSize,
		FlushInterval:       MaxFlushInterval,
		LogLevel:            log.DebugLevel,
	}
	if s != want {
		t.Errorf("ApplyOverrides() = %+v, want %+v", s, want)
	}

	o = NoOverrides()
	o.KeyboardMode = "wyse"
	if _, err := ApplyOverrides(o, nil); err == nil {
		t.Error("ApplyOverrides(bad mode) error = nil")
	}
}

func TestKeybindRegistry(t *testing.T) {
	r := NewKeybindRegistry(map[string][]string{
		ActionQuit:          {"ctrl+]", "ctrl+q"},
		ActionCycleKeyboard: {"f12", "ctrl+q"},
		ActionClear:         {"bogus+x"},
	})

	tests := []struct {
		ev     keys.Event
		action string
		ok     bool
	}{
		{keys.Event{Key: keys.KeyBracketRight, Mods: keys.ModCtrl}, ActionQuit, true},
		{keys.Event{Key: keys.KeyQ, Mods: keys.ModCtrl}, ActionQuit, true},
		{keys.Event{Key: keys.KeyF12}, ActionCycleKeyboard, true},
		{keys.Event{Key: keys.KeyF12, Released: true}, "", false},
		{keys.Event{Key: keys.KeyF12, Mods: keys.ModShift}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ev.String(), func(t *testing.T) {
			action, ok := r.Action(tt.ev)
			if action != tt.action || ok != tt.ok {
				t.Errorf("Action() = %q, %v, want %q, %v", action, ok, tt.action, tt.ok)
			}
		})
	}

	if got := r.GetKeysForDisplay(ActionQuit); got != "ctrl+bracketright, ctrl+q" {
		t.Errorf("GetKeysForDisplay(quit) = %q", got)
	}
	if got := len(r.GetKeybindings()); got != 2 {
		t.Errorf("GetKeybindings() = %d entries, want 2", got)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte("[terminal]\nkeyboard_mode = \"xterm\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *UserConfig, 4)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- Watch(ctx, path, func(cfg *UserConfig) { reloaded <- cfg })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[terminal]\nkeyboard_mode = \"sco\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Terminal.KeyboardMode != "sco" {
			t.Errorf("reloaded keyboard_mode = %q, want sco", cfg.Terminal.KeyboardMode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	if err := <-watchErr; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch() error = %v, want context.Canceled", err)
	}
}

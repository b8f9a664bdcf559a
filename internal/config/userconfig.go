package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/keys"
	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// UserConfig represents the user's custom configuration
type UserConfig struct {
	Terminal    TerminalConfig    `toml:"terminal"`
	Input       InputConfig       `toml:"input"`
	Log         LogConfig         `toml:"log"`
	Keybindings KeybindingsConfig `toml:"keybindings"`
}

// TerminalConfig holds per-session defaults
type TerminalConfig struct {
	KeyboardMode        string `toml:"keyboard_mode"`         // default, xterm, sco (default: default)
	CursorMode          string `toml:"cursor_mode"`           // normal, app (default: normal)
	Backspace           string `toml:"backspace"`             // del, bs (default: del)
	AutoDetectBackspace *bool  `toml:"auto_detect_backspace"` // Follow the remote erase character (default: true)
	MaxScrollback       *int   `toml:"max_scrollback"`        // Stored scrollback lines, 0 disables (default: 10000)
	CommandBufferSize   int    `toml:"command_buffer_size"`   // Command buffer bound in runes (default: 8192)
}

// InputConfig holds outbound input settings
type InputConfig struct {
	FlushIntervalMS *int `toml:"flush_interval_ms"` // Keystroke coalescing delay (default: 0, send immediately)
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error (default: info)
}

// KeybindingsConfig holds the inspector's own keys
type KeybindingsConfig struct {
	Inspector map[string][]string `toml:"inspector"`
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

// DefaultConfig returns the default configuration
func DefaultConfig() *UserConfig {
	return &UserConfig{
		Terminal: TerminalConfig{
			KeyboardMode:        keys.ModeDefault.String(),
			CursorMode:          keys.CursorNormal.String(),
			Backspace:           "del",
			AutoDetectBackspace: boolPtr(true),
			MaxScrollback:       intPtr(DefaultMaxScrollback),
			CommandBufferSize:   DefaultCommandBufferSize,
		},
		Input: InputConfig{
			FlushIntervalMS: intPtr(int(DefaultFlushInterval / time.Millisecond)),
		},
		Log: LogConfig{
			Level: "info",
		},
		Keybindings: KeybindingsConfig{
			Inspector: DefaultInspectorBindings(),
		},
	}
}

// LoadUserConfig loads the user configuration from the XDG config directory,
// writing the default file when none exists.
func LoadUserConfig() (*UserConfig, error) {
	configPath, err := xdg.SearchConfigFile(ConfigRelPath)
	if err != nil {
		path, err := xdg.ConfigFile(ConfigRelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		if err := WriteDefaultConfig(path); err != nil {
			return nil, err
		}
		return DefaultConfig(), nil
	}
	return LoadFile(configPath)
}

// LoadFile reads, fills in and validates the config at path. Warnings are
// logged to stderr.
func LoadFile(path string) (*UserConfig, error) {
	// #nosec G304 - reading the user's config is intentional
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, validation, err := Parse(data)
	if err != nil {
		return nil, err
	}
	for _, warn := range validation.Warnings {
		log.Warn("config", "section", warn.Field, "key", warn.Key, "msg", warn.Message)
	}
	return cfg, nil
}

// ErrInvalidConfig is wrapped by Parse when validation finds errors.
var ErrInvalidConfig = errors.New("invalid configuration")

// Parse decodes TOML config data, fills missing settings and validates it.
func Parse(data []byte) (*UserConfig, ValidationResult, error) {
	var cfg UserConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, ValidationResult{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	defaultCfg := DefaultConfig()
	fillMissingTerminal(&cfg, defaultCfg)
	fillMissingInput(&cfg, defaultCfg)
	fillMissingLog(&cfg, defaultCfg)
	fillMissingKeybinds(&cfg, defaultCfg)

	validation := ValidateConfig(&cfg)
	if validation.HasErrors() {
		msgs := make([]string, 0, len(validation.Errors))
		for _, e := range validation.Errors {
			msgs = append(msgs, e.Error())
		}
		return nil, validation, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	return &cfg, validation, nil
}

// WriteDefaultConfig writes the default config file with a commented header.
func WriteDefaultConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# termlink configuration file\n")
	sb.WriteString("#\n")
	sb.WriteString("# Configuration location: " + configPath + "\n\n")

	sb.WriteString("# ============================================================================\n")
	sb.WriteString("# TERMINAL SETTINGS\n")
	sb.WriteString("# ============================================================================\n")
	sb.WriteString("# keyboard_mode: Function and editing key sequences\n")
	sb.WriteString("#   Options: default, xterm, sco\n")
	sb.WriteString("#\n")
	sb.WriteString("# cursor_mode: Arrow key sequences\n")
	sb.WriteString("#   Options: normal, app\n")
	sb.WriteString("#\n")
	sb.WriteString("# backspace: Byte sent by Backspace until the remote side reports another\n")
	sb.WriteString("#   Options: del, bs\n")
	sb.WriteString("#\n")
	sb.WriteString("# max_scrollback: Scrollback lines kept per session, 0 disables\n")
	sb.WriteString("#   Range: 0 to 1000000\n")
	sb.WriteString("#\n")
	sb.WriteString("# [input] flush_interval_ms: Delay before typed bytes are sent, 0 sends at once\n")
	sb.WriteString("# [log] level: debug, info, warn, error\n")
	sb.WriteString("# ============================================================================\n\n")
	sb.Write(data)

	if err := os.WriteFile(configPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fillMissingTerminal(cfg, defaultCfg *UserConfig) {
	t, d := &cfg.Terminal, defaultCfg.Terminal
	if t.KeyboardMode == "" {
		t.KeyboardMode = d.KeyboardMode
	}
	if t.CursorMode == "" {
		t.CursorMode = d.CursorMode
	}
	if t.Backspace == "" {
		t.Backspace = d.Backspace
	}
	if t.AutoDetectBackspace == nil {
		t.AutoDetectBackspace = d.AutoDetectBackspace
	}
	if t.MaxScrollback == nil {
		t.MaxScrollback = d.MaxScrollback
	}
	if t.CommandBufferSize <= 0 {
		t.CommandBufferSize = d.CommandBufferSize
	}
}

func fillMissingInput(cfg, defaultCfg *UserConfig) {
	if cfg.Input.FlushIntervalMS == nil {
		cfg.Input.FlushIntervalMS = defaultCfg.Input.FlushIntervalMS
	}
}

func fillMissingLog(cfg, defaultCfg *UserConfig) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultCfg.Log.Level
	}
}

func fillMissingKeybinds(cfg, defaultCfg *UserConfig) {
	if cfg.Keybindings.Inspector == nil {
		cfg.Keybindings.Inspector = make(map[string][]string)
	}
	fillMapDefaults(cfg.Keybindings.Inspector, defaultCfg.Keybindings.Inspector)
}

func fillMapDefaults(target, defaults map[string][]string) {
	for k, v := range defaults {
		if _, exists := target[k]; !exists {
			target[k] = v
		}
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	path, err := xdg.SearchConfigFile(ConfigRelPath)
	if err != nil {
		// Return where it would be created
		return xdg.ConfigFile(ConfigRelPath)
	}
	return path, nil
}

// Settings is the resolved, typed form of a UserConfig.
type Settings struct {
	KeyboardMode        keys.KeyboardMode
	CursorMode          keys.CursorMode
	Backspace           backspace.Code
	AutoDetectBackspace bool
	MaxScrollback       int
	CommandBufferSize   int
	FlushInterval       time.Duration
	LogLevel            log.Level
}

// DefaultSettings returns the settings of DefaultConfig.
func DefaultSettings() Settings {
	s, _ := DefaultConfig().Settings()
	return s
}

// Settings resolves the config. It fails only on values ValidateConfig also
// rejects.
func (cfg *UserConfig) Settings() (Settings, error) {
	var s Settings
	var err error
	if s.KeyboardMode, err = keys.ParseKeyboardMode(cfg.Terminal.KeyboardMode); err != nil {
		return s, err
	}
	if s.CursorMode, err = keys.ParseCursorMode(cfg.Terminal.CursorMode); err != nil {
		return s, err
	}
	if s.Backspace, err = backspace.ParseCode(cfg.Terminal.Backspace); err != nil {
		return s, err
	}
	if s.LogLevel, err = log.ParseLevel(cfg.Log.Level); err != nil {
		return s, err
	}
	s.AutoDetectBackspace = cfg.Terminal.AutoDetectBackspace == nil || *cfg.Terminal.AutoDetectBackspace
	s.MaxScrollback = DefaultMaxScrollback
	if cfg.Terminal.MaxScrollback != nil {
		s.MaxScrollback = *cfg.Terminal.MaxScrollback
	}
	s.CommandBufferSize = cfg.Terminal.CommandBufferSize
	if cfg.Input.FlushIntervalMS != nil {
		s.FlushInterval = time.Duration(*cfg.Input.FlushIntervalMS) * time.Millisecond
	}
	return s, nil
}

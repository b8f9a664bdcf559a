package config

import (
	"fmt"
	"time"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/keys"
)

// Overrides contains CLI flag values that can override user config.
// Zero values indicate the flag was not set and should use the user config default.
type Overrides struct {
	// KeyboardMode overrides the keyboard mode
	KeyboardMode string

	// CursorMode overrides the cursor mode
	CursorMode string

	// Backspace overrides the initial Backspace byte
	Backspace string

	// NoAutoDetect stops following the remote erase character
	NoAutoDetect bool

	// MaxScrollback overrides the scrollback bound (negative means unset)
	MaxScrollback int

	// FlushInterval overrides the flush interval (negative means unset)
	FlushInterval time.Duration

	// Debug forces debug logging
	Debug bool
}

// NoOverrides returns Overrides with every field unset.
func NoOverrides() Overrides {
	return Overrides{MaxScrollback: -1, FlushInterval: -1}
}

// ApplyOverrides resolves userConfig and applies CLI flag overrides on top.
// If userConfig is nil, the defaults are used.
func ApplyOverrides(overrides Overrides, userConfig *UserConfig) (Settings, error) {
	s := DefaultSettings()
	if userConfig != nil {
		var err error
		if s, err = userConfig.Settings(); err != nil {
			return s, err
		}
	}

	if overrides.KeyboardMode != "" {
		m, err := keys.ParseKeyboardMode(overrides.KeyboardMode)
		if err != nil {
			return s, fmt.Errorf("--keyboard-mode: %w", err)
		}
		s.KeyboardMode = m
	}

	if overrides.CursorMode != "" {
		m, err := keys.ParseCursorMode(overrides.CursorMode)
		if err != nil {
			return s, fmt.Errorf("--cursor-mode: %w", err)
		}
		s.CursorMode = m
	}

	if overrides.Backspace != "" {
		c, err := backspace.ParseCode(overrides.Backspace)
		if err != nil {
			return s, fmt.Errorf("--backspace: %w", err)
		}
		s.Backspace = c
	}

	// Auto detection - disabled by flag
	if overrides.NoAutoDetect {
		s.AutoDetectBackspace = false
	}

	// Scrollback - clamp to valid range
	if overrides.MaxScrollback >= 0 {
		s.MaxScrollback = min(overrides.MaxScrollback, MaxScrollbackLimit)
	}

	if overrides.FlushInterval >= 0 {
		s.FlushInterval = min(overrides.FlushInterval, MaxFlushInterval)
	}

	if overrides.Debug {
		s.LogLevel = log.DebugLevel
	}
	return s, nil
}

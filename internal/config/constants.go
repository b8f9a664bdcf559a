// Package config provides configuration constants, user settings and CLI
// overrides.
package config

import (
	"time"

	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/screen"
	"github.com/Gaurav-Gosain/termlink/internal/session"
)

// =============================================================================
// Files
// =============================================================================

const (
	// AppName names the XDG config directory
	AppName = "termlink"

	// ConfigFileName is the config file inside the app directory
	ConfigFileName = "config.toml"

	// ConfigRelPath is the XDG-relative config path
	ConfigRelPath = AppName + "/" + ConfigFileName
)

// =============================================================================
// Session Defaults
// =============================================================================

const (
	// DefaultRows is the screen height used when the remote side does not
	// announce one
	DefaultRows = 24

	// DefaultColumns is the matching width
	DefaultColumns = 80

	// DefaultMaxScrollback bounds stored scrollback lines
	DefaultMaxScrollback = screen.DefaultScrollbackSize

	// MaxScrollbackLimit is the largest accepted max_scrollback
	MaxScrollbackLimit = 1000000

	// DefaultCommandBufferSize bounds the command buffer, in runes
	DefaultCommandBufferSize = session.DefaultCommandBufferSize

	// MinCommandBufferSize is the smallest accepted command_buffer_size
	MinCommandBufferSize = 64

	// DefaultBackspace is the initial Backspace byte
	DefaultBackspace = backspace.DEL
)

// =============================================================================
// Timeouts and Intervals
// =============================================================================

const (
	// DefaultFlushInterval coalesces keystrokes before they are sent
	DefaultFlushInterval = 0 * time.Millisecond

	// MaxFlushInterval is the largest accepted flush_interval_ms
	MaxFlushInterval = time.Second

	// ScrollbackDelay debounces scrollback re-renders
	ScrollbackDelay = screen.ScrollbackDelay

	// ReloadDebounce groups bursts of file events into one reload
	ReloadDebounce = 200 * time.Millisecond

	// ShutdownTimeout bounds the final flush on exit
	ShutdownTimeout = 2 * time.Second
)

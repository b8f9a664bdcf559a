// Package main implements termlink, a command-line harness for the termlink
// engine: inspect key encodings interactively, replay recorded screen
// updates and play key scripts.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/config"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode     bool
	keyboardMode  string
	cursorMode    string
	backspaceCode string
	noAutoDetect  bool
	maxScrollback int
	flushInterval time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "termlink",
		Short: "Remote terminal input encoding and screen updates",
		Long: `termlink - remote terminal input encoding and screen updates

Encodes host key presses into the byte sequences a remote terminal expects
(VT220, xterm and SCO keyboard modes, normal and application cursor keys)
and applies the line-level screen updates the remote side sends back.`,
		Example: `  # Watch what each key encodes to
  termlink keys --keyboard-mode xterm

  # Replay a recorded stream of terminal:termupdate actions
  termlink replay session.jsonl

  # Play a key script and print the bytes sent
  termlink tape demo.tape

  # Print the configuration file path
  termlink config path`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&keyboardMode, "keyboard-mode", "", "Keyboard mode: default, xterm, sco (default: from config)")
	rootCmd.PersistentFlags().StringVar(&cursorMode, "cursor-mode", "", "Cursor mode: normal, app (default: from config)")
	rootCmd.PersistentFlags().StringVar(&backspaceCode, "backspace", "", "Initial Backspace byte: del, bs (default: from config)")
	rootCmd.PersistentFlags().BoolVar(&noAutoDetect, "no-auto-detect", false, "Ignore the erase character reported by the remote side")
	rootCmd.PersistentFlags().IntVar(&maxScrollback, "max-scrollback", -1, "Scrollback lines kept per session, 0 disables (default: from config)")
	rootCmd.PersistentFlags().DurationVar(&flushInterval, "flush-interval", -1, "Delay before typed bytes are sent (default: from config)")

	rootCmd.AddCommand(newKeysCmd(), newReplayCmd(), newTapeCmd(), newConfigCmd())

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

func overrides() config.Overrides {
	return config.Overrides{
		KeyboardMode:  keyboardMode,
		CursorMode:    cursorMode,
		Backspace:     backspaceCode,
		NoAutoDetect:  noAutoDetect,
		MaxScrollback: maxScrollback,
		FlushInterval: flushInterval,
		Debug:         debugMode,
	}
}

// setup loads the user config, applies flag overrides and installs the
// default logger.
func setup() (config.Settings, *config.UserConfig, *log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "termlink",
	})
	log.SetDefault(logger)

	userConfig, err := config.LoadUserConfig()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "err", err)
		userConfig = config.DefaultConfig()
	}

	settings, err := config.ApplyOverrides(overrides(), userConfig)
	if err != nil {
		return settings, nil, nil, err
	}
	logger.SetLevel(settings.LogLevel)

	if debugMode {
		configPath, _ := config.GetConfigPath()
		logger.Debug("configuration", "path", configPath,
			"keyboard", settings.KeyboardMode, "cursor", settings.CursorMode,
			"backspace", settings.Backspace, "auto_detect", settings.AutoDetectBackspace)
	}
	return settings, userConfig, logger, nil
}

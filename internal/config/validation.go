package config

import (
	"fmt"
	"slices"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/termlink/internal/backspace"
	"github.com/Gaurav-Gosain/termlink/internal/keys"
)

// ValidationError is one problem found in a config.
type ValidationError struct {
	Field   string // section
	Key     string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Field, e.Key, e.Message)
}

// ValidationResult collects errors, which reject the config, and warnings,
// which are corrected in place.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors reports whether any errors were found.
func (v ValidationResult) HasErrors() bool { return len(v.Errors) > 0 }

// HasWarnings reports whether any warnings were found.
func (v ValidationResult) HasWarnings() bool { return len(v.Warnings) > 0 }

func (v *ValidationResult) errorf(field, key, format string, args ...any) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Key: key, Message: fmt.Sprintf(format, args...)})
}

func (v *ValidationResult) warnf(field, key, format string, args ...any) {
	v.Warnings = append(v.Warnings, ValidationError{Field: field, Key: key, Message: fmt.Sprintf(format, args...)})
}

// ValidateConfig checks cfg. Out-of-range numbers are clamped and reported
// as warnings; unparseable values are errors.
func ValidateConfig(cfg *UserConfig) ValidationResult {
	var v ValidationResult

	t := &cfg.Terminal
	if _, err := keys.ParseKeyboardMode(t.KeyboardMode); err != nil {
		v.errorf("terminal", "keyboard_mode", "%v", err)
	}
	if _, err := keys.ParseCursorMode(t.CursorMode); err != nil {
		v.errorf("terminal", "cursor_mode", "%v", err)
	}
	if _, err := backspace.ParseCode(t.Backspace); err != nil {
		v.errorf("terminal", "backspace", "%v", err)
	}
	if t.MaxScrollback != nil {
		switch n := *t.MaxScrollback; {
		case n < 0:
			v.warnf("terminal", "max_scrollback", "%d is negative, using 0", n)
			*t.MaxScrollback = 0
		case n > MaxScrollbackLimit:
			v.warnf("terminal", "max_scrollback", "%d exceeds %d", n, MaxScrollbackLimit)
			*t.MaxScrollback = MaxScrollbackLimit
		}
	}
	if t.CommandBufferSize > 0 && t.CommandBufferSize < MinCommandBufferSize {
		v.warnf("terminal", "command_buffer_size", "%d is below %d", t.CommandBufferSize, MinCommandBufferSize)
		t.CommandBufferSize = MinCommandBufferSize
	}

	if p := cfg.Input.FlushIntervalMS; p != nil {
		maxMS := int(MaxFlushInterval.Milliseconds())
		switch {
		case *p < 0:
			v.warnf("input", "flush_interval_ms", "%d is negative, using 0", *p)
			*p = 0
		case *p > maxMS:
			v.warnf("input", "flush_interval_ms", "%d exceeds %d", *p, maxMS)
			*p = maxMS
		}
	}

	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		v.errorf("log", "level", "%v", err)
	}

	validateBindings(&v, cfg.Keybindings.Inspector)
	return v
}

func validateBindings(v *ValidationResult, bindings map[string][]string) {
	seen := make(map[string]string)
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if !slices.Contains(InspectorActions, name) {
			v.warnf("keybindings.inspector", name, "unknown action")
			continue
		}
		for _, combo := range bindings[name] {
			ev, err := keys.ParseCombo(combo)
			if err != nil {
				v.errorf("keybindings.inspector", name, "%v", err)
				continue
			}
			canon := keys.FormatCombo(ev)
			if other, dup := seen[canon]; dup {
				v.warnf("keybindings.inspector", name, "%s is also bound to %s", combo, other)
				continue
			}
			seen[canon] = name
		}
	}
}

// Package tape plays scripted key input against a session. Scripts are line
// based:
//
//	# comments start with a hash
//	Mode xterm
//	Type "ls -la"
//	Enter
//	Key ctrl+c
//	Backspace 3
//	Sleep 500ms
//	Cursor app
//	Select on
//
// Sleep advances a logical clock, so timing-dependent behaviour such as the
// F11 double press can be scripted without real delays.
package tape

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("tape syntax error")

// CommandType identifies a tape command.
type CommandType int

// Command types.
const (
	CommandTypeType CommandType = iota
	CommandTypeKey
	CommandTypeEnter
	CommandTypeBackspace
	CommandTypeTab
	CommandTypeEscape
	CommandTypeSpace
	CommandTypeSleep
	CommandTypeMode
	CommandTypeCursor
	CommandTypeSelect
)

var commandNames = map[string]CommandType{
	"type":      CommandTypeType,
	"key":       CommandTypeKey,
	"enter":     CommandTypeEnter,
	"backspace": CommandTypeBackspace,
	"tab":       CommandTypeTab,
	"escape":    CommandTypeEscape,
	"space":     CommandTypeSpace,
	"sleep":     CommandTypeSleep,
	"mode":      CommandTypeMode,
	"cursor":    CommandTypeCursor,
	"select":    CommandTypeSelect,
}

func (c CommandType) String() string {
	for name, t := range commandNames {
		if t == c {
			return name
		}
	}
	return "command(" + strconv.Itoa(int(c)) + ")"
}

// Command is one parsed tape line.
type Command struct {
	Type CommandType
	// Args holds the text for Type, the combo for Key, and the value for
	// Mode, Cursor and Select.
	Args []string
	// Count repeats Key and the named-key commands.
	Count int
	// Duration is set for Sleep.
	Duration time.Duration
	// Line is the 1-based source line.
	Line int
}

// Parse reads a tape script.
func Parse(r io.Reader) ([]Command, error) {
	var cmds []Command
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cmd, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cmd.Line = line
		cmds = append(cmds, cmd)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading tape: %w", err)
	}
	return cmds, nil
}

// ParseString parses a script held in memory.
func ParseString(s string) ([]Command, error) {
	return Parse(strings.NewReader(s))
}

func parseLine(text string) (Command, error) {
	name, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	typ, ok := commandNames[strings.ToLower(name)]
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrSyntax, name)
	}
	cmd := Command{Type: typ, Count: 1}

	switch typ {
	case CommandTypeType:
		s, err := unquote(rest)
		if err != nil {
			return Command{}, err
		}
		cmd.Args = []string{s}

	case CommandTypeKey:
		fields := strings.Fields(rest)
		if len(fields) == 0 || len(fields) > 2 {
			return Command{}, fmt.Errorf("%w: Key wants a combo and an optional count", ErrSyntax)
		}
		cmd.Args = fields[:1]
		if len(fields) == 2 {
			n, err := parseCount(fields[1])
			if err != nil {
				return Command{}, err
			}
			cmd.Count = n
		}

	case CommandTypeEnter, CommandTypeBackspace, CommandTypeTab, CommandTypeEscape, CommandTypeSpace:
		if rest != "" {
			n, err := parseCount(rest)
			if err != nil {
				return Command{}, err
			}
			cmd.Count = n
		}

	case CommandTypeSleep:
		d, err := parseDuration(rest)
		if err != nil {
			return Command{}, err
		}
		cmd.Duration = d

	case CommandTypeMode, CommandTypeCursor, CommandTypeSelect:
		if rest == "" || strings.ContainsAny(rest, " \t") {
			return Command{}, fmt.Errorf("%w: %s wants one value", ErrSyntax, name)
		}
		cmd.Args = []string{strings.ToLower(rest)}
	}
	return cmd, nil
}

func unquote(s string) (string, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("%w: Type wants a quoted string", ErrSyntax)
	}
	switch s[0] {
	case '"', '`':
		u, err := strconv.Unquote(s)
		if err != nil {
			return "", fmt.Errorf("%w: bad string %s", ErrSyntax, s)
		}
		return u, nil
	case '\'':
		if s[len(s)-1] != '\'' {
			return "", fmt.Errorf("%w: unterminated string %s", ErrSyntax, s)
		}
		return s[1 : len(s)-1], nil
	}
	return "", fmt.Errorf("%w: Type wants a quoted string", ErrSyntax)
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: bad repeat count %q", ErrSyntax, s)
	}
	return n, nil
}

// parseDuration accepts Go durations and bare numbers of milliseconds.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: Sleep wants a duration", ErrSyntax)
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return time.Duration(n) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: bad duration %q", ErrSyntax, s)
	}
	return d, nil
}

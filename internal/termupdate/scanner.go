package termupdate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// maxLineSize bounds one JSON Lines record; full screens with styling can
// exceed bufio's default.
const maxLineSize = 4 << 20

// Scanner reads a JSON Lines stream of actions, as recorded by a replay
// capture. Blank lines and lines starting with '#' are skipped, as are
// actions Parse does not know.
type Scanner struct {
	sc      *bufio.Scanner
	line    int
	msg     Message
	err     error
	skipped int
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{sc: sc}
}

// Scan advances to the next message. It returns false at the end of the
// stream or on the first malformed record; check Err.
func (s *Scanner) Scan() bool {
	for s.sc.Scan() {
		s.line++
		raw := bytes.TrimSpace(s.sc.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		msg, err := Parse(raw)
		if errors.Is(err, ErrUnknownAction) {
			s.skipped++
			continue
		}
		if err != nil {
			s.err = fmt.Errorf("line %d: %w", s.line, err)
			return false
		}
		s.msg = msg
		return true
	}
	if err := s.sc.Err(); err != nil {
		s.err = fmt.Errorf("line %d: %w", s.line+1, err)
	}
	return false
}

// Message returns the message read by the last Scan.
func (s *Scanner) Message() Message { return s.msg }

// Line returns the line number of the last record read.
func (s *Scanner) Line() int { return s.line }

// Skipped returns the number of unknown actions skipped so far.
func (s *Scanner) Skipped() int { return s.skipped }

// Err returns the first error encountered.
func (s *Scanner) Err() error { return s.err }

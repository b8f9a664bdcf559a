package screen

import (
	"slices"

	"github.com/cespare/xxhash/v2"
)

// DefaultScrollbackSize is the default number of lines kept in a session's
// scrollback.
const DefaultScrollbackSize = 10000

// Scrollback stores rendered lines that scrolled off the remote screen.
// It is a ring buffer, so the bound on its size is structural: pushing past
// capacity overwrites the oldest line.
type Scrollback struct {
	// lines stores the scrollback lines in a ring buffer
	lines []string
	// maxLines is the capacity; 0 means scrollback is disabled
	maxLines int
	// head is the index of the oldest line
	head int
	// tail is the index where the next line will be inserted
	tail int
	// full indicates whether the ring buffer is at capacity
	full bool
	// sum is the xxhash fingerprint of the contents, valid when sumOK is set
	sum   uint64
	sumOK bool
}

// NewScrollback creates a scrollback holding at most maxLines lines. A
// negative maxLines uses DefaultScrollbackSize; zero disables scrollback.
func NewScrollback(maxLines int) *Scrollback {
	if maxLines < 0 {
		maxLines = DefaultScrollbackSize
	}
	return &Scrollback{
		lines:    make([]string, maxLines),
		maxLines: maxLines,
	}
}

// Push appends a line, overwriting the oldest one when full.
func (sb *Scrollback) Push(line string) {
	if sb.maxLines == 0 {
		return
	}
	sb.sumOK = false

	sb.lines[sb.tail] = line
	sb.tail = (sb.tail + 1) % sb.maxLines
	if sb.full {
		sb.head = (sb.head + 1) % sb.maxLines
	}
	if sb.tail == sb.head {
		sb.full = true
	}
}

// Len returns the number of lines currently stored.
func (sb *Scrollback) Len() int {
	if sb.full {
		return sb.maxLines
	}
	if sb.tail >= sb.head {
		return sb.tail - sb.head
	}
	return sb.maxLines - sb.head + sb.tail
}

// Line returns the line at index, where 0 is the oldest. Out of range
// indices return "".
func (sb *Scrollback) Line(index int) string {
	if index < 0 || index >= sb.Len() {
		return ""
	}
	return sb.lines[(sb.head+index)%sb.maxLines]
}

// Lines returns all lines from oldest to newest.
func (sb *Scrollback) Lines() []string {
	length := sb.Len()
	if length == 0 {
		return nil
	}
	result := make([]string, length)
	for i := range length {
		result[i] = sb.lines[(sb.head+i)%sb.maxLines]
	}
	return result
}

// Clear removes all lines.
func (sb *Scrollback) Clear() {
	sb.head, sb.tail, sb.full = 0, 0, false
	clear(sb.lines)
	sb.sum, sb.sumOK = fingerprint(nil), true
}

// MaxLines returns the capacity.
func (sb *Scrollback) MaxLines() int { return sb.maxLines }

// Bound returns the newest MaxLines entries of lines.
func (sb *Scrollback) Bound(lines []string) []string {
	if len(lines) > sb.maxLines {
		return lines[len(lines)-sb.maxLines:]
	}
	return lines
}

// Replace swaps the whole contents for lines, keeping only the newest
// MaxLines entries. It reports whether the contents changed.
func (sb *Scrollback) Replace(lines []string) bool {
	lines = sb.Bound(lines)
	sum := fingerprint(lines)
	if sum == sb.Sum() && slices.Equal(lines, sb.Lines()) {
		return false
	}

	sb.head, sb.tail, sb.full = 0, 0, false
	clear(sb.lines)
	for _, line := range lines {
		sb.Push(line)
	}
	sb.sum, sb.sumOK = sum, true
	return true
}

// Resize changes the capacity, keeping the newest lines.
func (sb *Scrollback) Resize(maxLines int) {
	if maxLines < 0 {
		maxLines = DefaultScrollbackSize
	}
	if maxLines == sb.maxLines {
		return
	}
	old := sb.Lines()
	*sb = *NewScrollback(maxLines)
	for _, line := range sb.Bound(old) {
		sb.Push(line)
	}
}

// Sum returns the xxhash fingerprint of the contents.
func (sb *Scrollback) Sum() uint64 {
	if !sb.sumOK {
		sb.sum, sb.sumOK = fingerprint(sb.Lines()), true
	}
	return sb.sum
}

func fingerprint(lines []string) uint64 {
	d := xxhash.New()
	for _, line := range lines {
		_, _ = d.WriteString(line)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

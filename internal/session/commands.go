package session

// DefaultCommandBufferSize is the number of runes a command buffer keeps.
const DefaultCommandBufferSize = 8192

// CommandBuffer accumulates the printable keystrokes typed since the last
// Enter. It is a heuristic view of the command line: it does not see remote
// echo or cursor movement.
type CommandBuffer struct {
	buf  []rune
	max  int
	last string
}

// NewCommandBuffer returns a buffer keeping at most size runes. A size of
// zero or less uses DefaultCommandBufferSize.
func NewCommandBuffer(size int) *CommandBuffer {
	if size <= 0 {
		size = DefaultCommandBufferSize
	}
	return &CommandBuffer{max: size}
}

// Append adds typed text. When the bound is exceeded the oldest runes are
// dropped.
func (c *CommandBuffer) Append(text string) {
	c.buf = append(c.buf, []rune(text)...)
	if over := len(c.buf) - c.max; over > 0 {
		c.buf = append(c.buf[:0], c.buf[over:]...)
	}
}

// Backspace drops the last rune.
func (c *CommandBuffer) Backspace() {
	if len(c.buf) > 0 {
		c.buf = c.buf[:len(c.buf)-1]
	}
}

// Commit moves the buffer into LastCommand and clears it.
func (c *CommandBuffer) Commit() string {
	c.last = string(c.buf)
	c.buf = c.buf[:0]
	return c.last
}

// Reset clears the buffer without touching LastCommand.
func (c *CommandBuffer) Reset() { c.buf = c.buf[:0] }

// String returns the pending text.
func (c *CommandBuffer) String() string { return string(c.buf) }

// Len returns the number of pending runes.
func (c *CommandBuffer) Len() int { return len(c.buf) }

// LastCommand returns the text committed by the most recent Enter.
func (c *CommandBuffer) LastCommand() string { return c.last }

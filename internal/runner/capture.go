package runner

import "bytes"

// capture is a bounded write sink for child process output. Writes past
// the limit are discarded so a noisy subprocess cannot grow memory
// without bound; the result is marked truncated instead.
type capture struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func newCapture(max int) *capture {
	return &capture{max: max}
}

// Write never returns an error: a full buffer silently drops the excess.
// Returning short writes here would kill the child's pipe mid-stream.
func (c *capture) Write(p []byte) (int, error) {
	remaining := c.max - c.buf.Len()
	if remaining <= 0 {
		c.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		c.buf.Write(p[:remaining])
		c.truncated = true
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

// Contents returns the captured output and whether any of it was dropped.
func (c *capture) Contents() (string, bool) {
	return c.buf.String(), c.truncated
}

package proc

import (
	"strings"
	"sync"
)

const defaultTailBytes = 4096

// Tail is an io.Writer that keeps only the most recent bytes written to it.
type Tail struct {
	mu  sync.Mutex
	max int
	buf []byte
}

// NewTail returns a Tail retaining at most max bytes. Non-positive values use
// a 4 KiB default.
func NewTail(max int) *Tail {
	if max <= 0 {
		max = defaultTailBytes
	}
	return &Tail{max: max}
}

func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

// String returns the retained output with surrounding whitespace trimmed.
func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}

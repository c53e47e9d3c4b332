// Package buffer implements the bounded short-term conversation buffer.
package buffer

import "time"

// DefaultSize is the reference bound on retained exchanges.
const DefaultSize = 10

// Turn is one completed user/assistant exchange. Immutable once recorded.
type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Timestamp time.Time `json:"timestamp"`
}

// Buffer is an ordered FIFO of the most recent N turns for one session.
// Oldest turns are evicted first; there is no other replacement policy.
// The buffer is not internally synchronized: callers hold the owning
// session's lock.
type Buffer struct {
	turns []Turn
	size  int
}

// New creates a Buffer bounded to size turns. A non-positive size falls
// back to DefaultSize.
func New(size int) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Buffer{size: size}
}

// Append adds a turn at the tail, dropping from the head when the bound
// is exceeded.
func (b *Buffer) Append(t Turn) {
	b.turns = append(b.turns, t)
	if len(b.turns) > b.size {
		b.turns = b.turns[len(b.turns)-b.size:]
	}
}

// Recent returns the last k turns in chronological order. k larger than
// the current length returns everything.
func (b *Buffer) Recent(k int) []Turn {
	if k <= 0 || len(b.turns) == 0 {
		return nil
	}
	if k > len(b.turns) {
		k = len(b.turns)
	}
	out := make([]Turn, k)
	copy(out, b.turns[len(b.turns)-k:])
	return out
}

// Len returns the number of retained turns.
func (b *Buffer) Len() int {
	return len(b.turns)
}

// Clear empties the buffer. Long-term memory is independently owned and
// is not touched.
func (b *Buffer) Clear() {
	b.turns = nil
}

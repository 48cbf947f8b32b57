// Package outbuf provides an append-only, sequence-numbered line buffer for
// captured step output.
//
// Exactly one writer (the supervisor goroutine) appends lines while any
// number of readers (the dashboard) take snapshots. A snapshot is a copy of
// an immutable prefix of the log: once a line is appended its content and
// sequence number never change, so snapshots taken at increasing times are
// prefix-compatible.
package outbuf

import "sync"

// Line is a single captured output line.
type Line struct {
	// Seq is the line's position in the buffer, starting at 0 and strictly
	// increasing by 1 per append.
	Seq int
	// Text is the line content without the trailing newline.
	Text string
}

// Buffer is an append-only log of output lines. The zero value is ready to
// use.
type Buffer struct {
	mu    sync.Mutex
	lines []Line
}

// Append adds a line to the buffer and returns its sequence number.
func (b *Buffer) Append(text string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	seq := len(b.lines)
	b.lines = append(b.lines, Line{Seq: seq, Text: text})
	return seq
}

// Len returns the number of lines appended so far.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Snapshot returns a copy of all lines appended so far.
func (b *Buffer) Snapshot() []Line {
	return b.Range(0, -1)
}

// Range returns a copy of the lines with sequence numbers in [start, end).
// A negative end means "through the current tail". Out-of-range bounds are
// clamped; an empty range yields nil.
func (b *Buffer) Range(start, end int) []Line {
	b.mu.Lock()
	defer b.mu.Unlock()

	if end < 0 || end > len(b.lines) {
		end = len(b.lines)
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return nil
	}

	out := make([]Line, end-start)
	copy(out, b.lines[start:end])
	return out
}

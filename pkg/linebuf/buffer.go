// Package linebuf holds bytes between two line terminators in a fixed amount of space.
package linebuf

// Buffer is a bounded append-only byte buffer. One slot of its capacity is kept for the
// terminator, so at most Cap()-1 bytes are stored. Bytes appended past that are dropped.
type Buffer struct {
	data []byte
	n    int
}

func New(capacity int) *Buffer {
	if capacity < 2 {
		panic("linebuf: capacity must be at least 2")
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Append stores b and reports whether it fit. A false return means b was dropped.
func (buf *Buffer) Append(b byte) bool {
	if buf.n >= len(buf.data)-1 {
		return false
	}
	buf.data[buf.n] = b
	buf.n++
	return true
}

// TakeLine returns the buffered bytes as a string and empties the buffer.
func (buf *Buffer) TakeLine() string {
	line := string(buf.data[:buf.n])
	buf.n = 0
	return line
}

func (buf *Buffer) Reset() {
	buf.n = 0
}

func (buf *Buffer) Len() int {
	return buf.n
}

func (buf *Buffer) Cap() int {
	return len(buf.data)
}

func (buf *Buffer) Usable() int {
	return len(buf.data) - 1
}

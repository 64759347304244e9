// ABOUTME: Bounded rolling window over raw audio bytes
// ABOUTME: Circular buffer that keeps exactly the most recent capacity bytes
package ring

// Buffer is a fixed-capacity byte ring. Writes never fail; once full, each
// write discards exactly as many of the oldest bytes as it adds.
//
// Buffer is not safe for concurrent use. The relay engine owns it and
// serializes access.
type Buffer struct {
	buf []byte
	w   int // next write position
	n   int // bytes stored
}

// New creates a buffer holding at most size bytes. A size below 1 is treated as 1.
func New(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{buf: make([]byte, size)}
}

// Write appends p, trimming from the front so that Len() <= Cap() holds.
func (b *Buffer) Write(p []byte) {
	size := len(b.buf)
	if len(p) >= size {
		// Only the newest size bytes can survive
		copy(b.buf, p[len(p)-size:])
		b.w = 0
		b.n = size
		return
	}

	n := copy(b.buf[b.w:], p)
	if n < len(p) {
		copy(b.buf, p[n:])
	}
	b.w = (b.w + len(p)) % size

	b.n += len(p)
	if b.n > size {
		b.n = size
	}
}

// Snapshot returns a copy of the stored bytes, oldest first.
func (b *Buffer) Snapshot() []byte {
	out := make([]byte, b.n)
	if b.n == 0 {
		return out
	}

	start := (b.w - b.n + len(b.buf)) % len(b.buf)
	n := copy(out, b.buf[start:])
	if n < b.n {
		copy(out[n:], b.buf[:b.n-n])
	}
	return out
}

// Len returns the number of bytes stored
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the maximum number of bytes kept
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Reset discards all stored bytes
func (b *Buffer) Reset() {
	b.w = 0
	b.n = 0
}

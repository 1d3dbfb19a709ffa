package scan

import (
	"fmt"

	"fortio.org/safecast"
)

// Cursor is a byte position inside one source unit.
type Cursor struct {
	src   []byte
	off   uint32
	limit uint32
}

// NewCursor creates a cursor over src.
func NewCursor(src []byte) Cursor {
	limit, err := safecast.Conv[uint32](len(src))
	if err != nil {
		panic(fmt.Errorf("source length overflow: %w", err))
	}
	return Cursor{src: src, off: 0, limit: limit}
}

// EOF reports whether the cursor is past the last byte.
func (c *Cursor) EOF() bool {
	return c.off >= c.limit
}

// Off returns the current byte offset.
func (c *Cursor) Off() uint32 {
	return c.off
}

// Peek reads the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.src[c.off]
}

// Peek2 reads the current and next byte.
func (c *Cursor) Peek2() (b0, b1 byte, ok bool) {
	if c.off+1 >= c.limit {
		return 0, 0, false
	}
	return c.src[c.off], c.src[c.off+1], true
}

// PeekAt reads the byte at off+n, or 0 when out of range.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.off+n >= c.limit {
		return 0
	}
	return c.src[c.off+n]
}

// Bump advances one byte and returns what it read, or 0 at EOF.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.src[c.off]
	c.off++
	return b
}

// Eat consumes the next byte if it matches b.
func (c *Cursor) Eat(b byte) bool {
	if !c.EOF() && c.src[c.off] == b {
		c.off++
		return true
	}
	return false
}

// Mark is a saved cursor position.
type Mark uint32

// Mark saves the current position.
func (c *Cursor) Mark() Mark {
	return Mark(c.off)
}

// Reset rewinds the cursor to a mark.
func (c *Cursor) Reset(m Mark) {
	c.off = uint32(m)
}

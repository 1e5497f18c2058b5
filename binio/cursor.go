package binio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Cursor walks an immutable big-endian buffer. The first error is kept
// and every following read becomes a no-op returning zero values, so
// callers check Err once after a group of reads.
type Cursor struct {
	buf []byte
	pos int
	err error
}

// NewCursor creates a Cursor at the start of buf
func NewCursor(buf []byte) *Cursor { return &Cursor{buf: buf} }

// Err returns the first error encountered
func (c *Cursor) Err() error { return c.err }

// Pos returns the number of bytes consumed so far
func (c *Cursor) Pos() int { return c.pos }

// Len returns the length of the backing buffer
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Fail records err unless an error is already set
func (c *Cursor) Fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Take returns the next n bytes without copying them
func (c *Cursor) Take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || n > c.Remaining() {
		c.err = fmt.Errorf("%w: need %d bytes at offset %d, %d left", ErrBufferExhausted, n, c.pos, c.Remaining())
		return nil
	}

	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// Rest returns all unread bytes and moves to the end
func (c *Cursor) Rest() []byte { return c.Take(c.Remaining()) }

// Skip advances n bytes
func (c *Cursor) Skip(n int) { c.Take(n) }

// Need checks count elements of size bytes still fit into the buffer
// before a slice of that size gets allocated
func (c *Cursor) Need(count, size int) bool {
	if c.err != nil {
		return false
	}
	if count < 0 || (size > 0 && count > c.Remaining()/size) {
		c.err = fmt.Errorf("%w: %d elements of %d bytes at offset %d, %d left", ErrBufferExhausted, count, size, c.pos, c.Remaining())
		return false
	}
	return true
}

// Read decodes a fixed size value (struct, array or slice of those)
// the way encoding/binary does
func (c *Cursor) Read(v any) {
	n := binary.Size(v)
	if n < 0 {
		c.Fail(fmt.Errorf("%T has no fixed size", v))
		return
	}

	b := c.Take(n)
	if b == nil {
		return
	}
	if err := binary.Read(bytes.NewReader(b), binary.BigEndian, v); err != nil {
		c.Fail(fmt.Errorf("decoding %T: %w", v, err))
	}
}

// Expect consumes len(magic) bytes and fails with ErrFormat when they
// differ from magic
func (c *Cursor) Expect(magic []byte) {
	b := c.Take(len(magic))
	if b != nil && !bytes.Equal(b, magic) {
		c.err = fmt.Errorf("%w: unexpected magic %x (expected %x)", ErrFormat, b, magic)
	}
}

// U8 reads one byte
func (c *Cursor) U8() uint8 {
	if b := c.Take(1); b != nil {
		return b[0]
	}
	return 0
}

// U16 reads a big-endian uint16
func (c *Cursor) U16() uint16 {
	if b := c.Take(2); b != nil { //nolint:mnd
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

// U32 reads a big-endian uint32
func (c *Cursor) U32() uint32 {
	if b := c.Take(4); b != nil { //nolint:mnd
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

// I32 reads a big-endian int32
func (c *Cursor) I32() int32 { return int32(c.U32()) } //#nosec:G115 // two's complement reinterpretation

// F32 reads a big-endian IEEE-754 float
func (c *Cursor) F32() (v float32) {
	c.Read(&v)
	return v
}

// Count reads a big-endian int32 element count and rejects negatives
func (c *Cursor) Count(what string) int {
	n := c.I32()
	if n < 0 {
		c.Fail(fmt.Errorf("%w: negative %s %d", ErrFormat, what, n))
		return 0
	}
	return int(n)
}

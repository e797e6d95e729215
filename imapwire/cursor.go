package imapwire

// Cursor is a resizable byte buffer with separate read and write offsets.
// Writes append; reads consume from the front. A mark can be taken and the
// read offset rewound to it, so a caller can attempt a parse and roll back
// without having consumed bytes.
//
// The zero Cursor is ready for use.
type Cursor struct {
	buf []byte
	off int // read offset into buf
}

// Write appends p. Implements io.Writer, the error is always nil.
func (c *Cursor) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)
	return len(p), nil
}

// Len returns the number of unread bytes.
func (c *Cursor) Len() int {
	return len(c.buf) - c.off
}

// Bytes returns the unread bytes. The slice is only valid until the next
// Write or Take.
func (c *Cursor) Bytes() []byte {
	return c.buf[c.off:]
}

// Peek returns the unread byte at offset i, and whether it exists.
func (c *Cursor) Peek(i int) (byte, bool) {
	if c.off+i >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.off+i], true
}

// Take consumes the next n unread bytes and returns them as a copy that
// remains valid after further cursor operations.
func (c *Cursor) Take(n int) []byte {
	if n > c.Len() {
		panic("imapwire: cursor take beyond buffered data")
	}
	r := make([]byte, n)
	copy(r, c.buf[c.off:c.off+n])
	c.off += n
	c.compact()
	return r
}

// Mark returns the current read offset for a later Rewind. A mark is
// invalidated by Take.
func (c *Cursor) Mark() int {
	return c.off
}

// Rewind restores the read offset to a previously taken Mark.
func (c *Cursor) Rewind(mark int) {
	if mark < 0 || mark > len(c.buf) {
		panic("imapwire: cursor rewind to invalid mark")
	}
	c.off = mark
}

// compact shifts unread data to the front once the consumed prefix
// dominates the buffer, bounding growth across long sessions.
func (c *Cursor) compact() {
	if c.off == 0 {
		return
	}
	if c.off == len(c.buf) {
		c.buf = c.buf[:0]
		c.off = 0
		return
	}
	if c.off >= 4096 && c.off*2 >= len(c.buf) {
		n := copy(c.buf, c.buf[c.off:])
		c.buf = c.buf[:n]
		c.off = 0
	}
}

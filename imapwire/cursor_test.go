package imapwire

import (
	"bytes"
	"testing"
)

func TestCursor(t *testing.T) {
	var c Cursor

	if c.Len() != 0 {
		t.Fatalf("zero cursor has len %d", c.Len())
	}
	if _, ok := c.Peek(0); ok {
		t.Fatalf("peek on empty cursor succeeded")
	}

	n, err := c.Write([]byte("hello"))
	if n != 5 || err != nil {
		t.Fatalf("write: n %d err %v", n, err)
	}
	c.Write([]byte(" world"))
	if c.Len() != 11 {
		t.Fatalf("len %d, expected 11", c.Len())
	}
	if b, ok := c.Peek(6); !ok || b != 'w' {
		t.Fatalf("peek(6): %c %v", b, ok)
	}

	if got := c.Take(5); !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("take: %q", got)
	}
	c.Take(1)
	if !bytes.Equal(c.Bytes(), []byte("world")) {
		t.Fatalf("bytes: %q", c.Bytes())
	}

	m := c.Mark()
	if b, ok := c.Peek(0); !ok || b != 'w' {
		t.Fatalf("peek after mark: %c %v", b, ok)
	}
	c.Rewind(m)
	if !bytes.Equal(c.Bytes(), []byte("world")) {
		t.Fatalf("bytes after rewind: %q", c.Bytes())
	}

	// Take returns a copy that stays valid across more writes.
	got := c.Take(5)
	c.Write(bytes.Repeat([]byte("x"), 32))
	if !bytes.Equal(got, []byte("world")) {
		t.Fatalf("taken bytes changed: %q", got)
	}
}

func TestCursorCompact(t *testing.T) {
	var c Cursor
	big := bytes.Repeat([]byte("0123456789abcdef"), 1024)
	c.Write(big)
	c.Take(len(big) - 16)
	if !bytes.Equal(c.Bytes(), big[len(big)-16:]) {
		t.Fatalf("bytes after compacting take: %q", c.Bytes())
	}
	if c.Len() != 16 {
		t.Fatalf("len %d", c.Len())
	}
	c.Write([]byte("tail"))
	if !bytes.Equal(c.Bytes(), append(append([]byte{}, big[len(big)-16:]...), "tail"...)) {
		t.Fatalf("bytes after write: %q", c.Bytes())
	}
}

func TestCursorPanics(t *testing.T) {
	checkPanic := func(fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic")
			}
		}()
		fn()
	}

	var c Cursor
	c.Write([]byte("ab"))
	checkPanic(func() { c.Take(3) })
	checkPanic(func() { c.Rewind(17) })
}

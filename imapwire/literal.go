package imapwire

import (
	"fmt"
	"strconv"
)

// MaxLiteralSize is the largest literal byte count the codec accepts,
// regardless of platform word size. Sizes are parsed with strconv bitSize
// 63, the same convention the number64 grammar rule uses, so the maximum is
// 2^62-1. Anything larger fails as a malformed header.
const MaxLiteralSize = 1<<62 - 1

// Literal describes an IMAP literal header: "{size}" with an optional
// non-synchronizing marker ("+" per LITERAL+, "-" per LITERAL-) and an
// optional leading "~" marking a binary payload (RFC 3516).
type Literal struct {
	Size   int64
	Sync   bool // Synchronizing: the peer waits for a continuation request before sending the payload.
	Binary bool // Payload may contain arbitrary octets instead of 7-bit text.
}

// String renders the header without the trailing CRLF, e.g. "{312}" or
// "~{5+}".
func (l Literal) String() string {
	s := ""
	if l.Binary {
		s = "~"
	}
	s += "{" + strconv.FormatInt(l.Size, 10)
	if !l.Sync {
		s += "+"
	}
	return s + "}"
}

// ParseLiteral parses a literal header token such as "{42}", "{42+}",
// "~{42}". The token must be exactly the header, without CRLF. The byte
// count must be digits only, without a leading zero beyond "0" itself, and
// at most MaxLiteralSize; violations return an error wrapping
// ErrBadLiteral.
func ParseLiteral(tok []byte) (Literal, error) {
	var l Literal
	s := tok
	if len(s) > 0 && s[0] == '~' {
		l.Binary = true
		s = s[1:]
	}
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return Literal{}, fmt.Errorf("%w: %q", ErrBadLiteral, tok)
	}
	s = s[1 : len(s)-1]
	l.Sync = true
	if n := len(s); n > 0 && (s[n-1] == '+' || s[n-1] == '-') {
		l.Sync = false
		s = s[:n-1]
	}
	if len(s) == 0 {
		return Literal{}, fmt.Errorf("%w: %q: no digits", ErrBadLiteral, tok)
	}
	if s[0] == '0' && len(s) > 1 {
		return Literal{}, fmt.Errorf("%w: %q: leading zero", ErrBadLiteral, tok)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return Literal{}, fmt.Errorf("%w: %q: non-digit", ErrBadLiteral, tok)
		}
	}
	size, err := strconv.ParseInt(string(s), 10, 63)
	if err != nil {
		return Literal{}, fmt.Errorf("%w: %q: %v", ErrBadLiteral, tok, err)
	}
	l.Size = size
	return l, nil
}

// Package imapwire implements the data model of the IMAP4 wire protocol
// (RFC 3501 and the extensions in RFC 7888, 3516, 2177, 7162, 5464, 4467,
// 5092): the grammar value types produced by the parsers in imapparse,
// and an encoder that turns those values back into spec-exact bytes.
//
// The types here are plain data. Parsing lives in imapframe (framing) and
// imapparse (grammar); both sides of the protocol and the encoder share the
// representations in this package so that encode→parse round-trips to an
// equal value.
package imapwire

import (
	"errors"
	"fmt"
)

// Limits bounds resource use of the codec. Both limits are caller-settable:
// clients and servers have different trust models.
type Limits struct {
	// Maximum number of bytes buffered for a single line, including any
	// inlined literal payloads. A line without a newline in sight beyond
	// this limit fails with ErrLineTooLong. A literal whose declared size
	// would push a line past this limit is streamed in chunks of at most
	// this size instead of being buffered.
	MaxLineBytes int

	// Maximum recursion depth for nested grammar productions (search keys,
	// tagged-ext values, body structures). Exceeding it fails with
	// ErrTooDeep.
	MaxNesting int
}

// DefaultLimits are suitable for a server parsing untrusted clients.
// QRESYNC recommends 8k max line lengths; we allow more for larger
// commands with inlined string literals.
var DefaultLimits = Limits{
	MaxLineBytes: 64 * 1024,
	MaxNesting:   100,
}

func (l Limits) check() {
	if l.MaxLineBytes <= 0 || l.MaxNesting <= 0 {
		panic(fmt.Sprintf("imapwire: invalid limits %+v", l))
	}
}

// Check panics when the limits are not usable. Called by the framer and the
// readers at construction time.
func (l Limits) Check() {
	l.check()
}

// Error taxonomy. All errors returned by the codec wrap one of these
// sentinels (or are a *SyntaxError), so callers can dispatch with errors.Is
// and errors.As.
var (
	// ErrLineTooLong: a line exceeded Limits.MaxLineBytes without resolving
	// and without a recognized in-progress literal. Fatal for the
	// connection, defends against memory exhaustion.
	ErrLineTooLong = errors.New("line too long")

	// ErrTooDeep: the recursion limit was hit while parsing a nested
	// construct. Fatal, defends against stack exhaustion.
	ErrTooDeep = errors.New("nesting too deep")

	// ErrBadLiteral: a {...} token immediately before a newline did not
	// match any recognized literal header form.
	ErrBadLiteral = errors.New("malformed literal header")
)

// SyntaxError indicates bytes that conclusively do not match the grammar at
// the current position. Fatal for the current command or response; the
// caller decides connection policy (a server typically answers with a
// tagged BAD).
type SyntaxError struct {
	Msg       string
	Remaining string   // Unconsumed input at the point of failure, for diagnostics.
	Contexts  []string // Productions being parsed, outermost first.
}

func (e *SyntaxError) Error() string {
	s := "bad syntax: " + e.Msg
	if e.Remaining != "" {
		s += fmt.Sprintf(" (remaining %q)", e.Remaining)
	}
	if len(e.Contexts) > 0 {
		s += " (context"
		for _, c := range e.Contexts {
			s += " " + c
		}
		s += ")"
	}
	return s
}

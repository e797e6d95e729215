// Package imapframe splits an incoming IMAP byte stream into frames: full
// protocol lines, with literal payloads either inlined or handed out as
// separate chunks when too large to buffer.
//
// The framer is push-based and non-blocking. Callers Write bytes as they
// arrive from the transport and call Next until it reports that more data
// is needed. Literal headers at the end of a line are recognized here, so
// the grammar parsers in imapparse never see a partial line: a Line frame
// holds a complete line with every small literal payload already inlined.
//
// Synchronizing literals ({n} without "+") oblige the receiver to send a
// continuation request before the peer transmits the payload. The framer
// counts those obligations as it consumes headers and reports them from
// Next, including when no frame is complete yet. A caller that fails to
// forward them deadlocks the connection.
package imapframe

import (
	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// Frame is a unit of framed input: a Line or a LiteralChunk.
type Frame interface {
	frame()
}

// Line is a complete protocol line, newline included. Literal payloads
// small enough to buffer are inlined in Data at the position their header
// announced them, so Data can contain CRLFs.
//
// If Literal is non-nil, the line ends with the header of a literal too
// large to inline. The payload follows as LiteralChunk frames, and the rest
// of the logical line after the payload arrives as another Line frame.
type Line struct {
	Data    []byte
	Literal *imapwire.Literal
}

// LiteralChunk is a piece of a streamed literal payload. Last marks the
// final chunk; the payload size always matches the announcing header, so a
// zero-size streamed literal never occurs.
type LiteralChunk struct {
	Data []byte
	Last bool
}

func (Line) frame()         {}
func (LiteralChunk) frame() {}

package imapparse

import (
	"time"

	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// Event is a unit of parsed protocol, from a CommandReader or a
// ResponseReader.
type Event interface {
	event()
}

// EventCommand is a fully parsed client command. For APPEND with all
// message payloads inlined, the command is complete; a streamed final
// payload is announced by the last message's Streamed field and follows as
// EventLiteral events.
type EventCommand struct {
	Cmd *Command
}

// EventLiteral is a piece of a streamed literal payload: an APPEND message
// on the command side, a FETCH body on the response side. Last marks the
// end of the payload.
type EventLiteral struct {
	Data []byte
	Last bool
}

// EventAppendMessage is a further MULTIAPPEND message following a streamed
// one.
type EventAppendMessage struct {
	Msg AppendMessage
}

// EventAppendDone ends an APPEND whose payloads were streamed.
type EventAppendDone struct{}

// EventIdleDone reports the "DONE" line ending an IDLE command. Between
// EventCommand for IDLE and this event, the reader accepts nothing else
// from the client.
type EventIdleDone struct{}

// EventAuthLine is a line received while an AUTHENTICATE exchange is in
// progress, without its CRLF. A single "*" means the client aborts. The
// exchange ends when the caller invokes FinishAuth.
type EventAuthLine struct {
	Line []byte
}

// EventUntagged is a parsed untagged response. Untagged holds one of the
// Untagged* types in this package.
type EventUntagged struct {
	Untagged any
}

// EventResult is a tagged command completion result.
type EventResult struct {
	Result Result
}

// EventContinuation is a "+" continuation request from the server.
type EventContinuation struct {
	Text string
}

// EventFetchBegin is an untagged FETCH whose final attribute value is a
// streamed literal. Attrs holds the attributes parsed so far; the value of
// StreamingAtt follows as EventLiteral events, then the remaining
// attributes arrive as EventFetchEnd.
type EventFetchBegin struct {
	Seq          uint32
	Attrs        []MsgAtt
	StreamingAtt MsgAtt
}

// EventFetchEnd closes a streamed untagged FETCH, with the attributes that
// followed the streamed value.
type EventFetchEnd struct {
	Attrs []MsgAtt
}

func (EventCommand) event()       {}
func (EventLiteral) event()       {}
func (EventAppendMessage) event() {}
func (EventAppendDone) event()    {}
func (EventIdleDone) event()      {}
func (EventAuthLine) event()      {}
func (EventUntagged) event()      {}
func (EventResult) event()        {}
func (EventContinuation) event()  {}
func (EventFetchBegin) event()    {}
func (EventFetchEnd) event()      {}

// AppendMessage is one message of an APPEND command.
type AppendMessage struct {
	Flags        []imapwire.Flag
	InternalDate *time.Time
	Literal      imapwire.Literal
	Data         []byte // Payload when inlined, nil when streamed.
	Streamed     bool
}

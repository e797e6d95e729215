package imapparse

import (
	"github.com/apple/swift-nio-imap-sub005/imapframe"
	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// Command is a parsed client command. Tag and Name are always set; the
// remaining fields depend on Name, which is canonical uppercase and
// includes the "UID " prefix for the UID variants.
type Command struct {
	Tag  string
	Name string

	// LOGIN.
	Username, Password string

	// AUTHENTICATE.
	AuthMech    string // Uppercase.
	AuthInitial string // Initial response, still base64. "=" on the wire means empty.

	// SELECT, EXAMINE, CREATE, DELETE, SUBSCRIBE, UNSUBSCRIBE, STATUS,
	// APPEND, GETMETADATA, SETMETADATA, RESETKEY and the source of RENAME.
	Mailbox string

	// RENAME destination, COPY and MOVE destination.
	DestMailbox string

	// SELECT/EXAMINE parameters.
	Condstore bool
	Qresync   *Qresync

	// LIST, LSUB.
	ListRef     string
	ListPattern string

	// STATUS attributes, uppercase: MESSAGES, RECENT, UIDNEXT,
	// UIDVALIDITY, UNSEEN, HIGHESTMODSEQ, APPENDLIMIT, DELETED, SIZE.
	StatusAttrs []string

	// APPEND. When the last message is streamed, its payload follows the
	// command as EventLiteral events.
	Messages []AppendMessage

	// SEARCH.
	SearchReturn []string // ESEARCH RETURN options, uppercase.
	Charset      string
	SearchKey    *imapwire.SearchKey

	// FETCH, STORE, COPY, MOVE, UID EXPUNGE.
	SeqSet imapwire.NumSet

	// FETCH.
	FetchAtts    []imapwire.FetchAtt
	ChangedSince int64 // 0 when absent.
	Vanished     bool

	// STORE.
	StoreAction    string // "", "+" or "-".
	StoreSilent    bool
	StoreFlags     []imapwire.Flag
	UnchangedSince *int64

	// ENABLE.
	Capabilities []imapwire.Capability

	// ID. Nil for "ID NIL".
	IDParams [][2]string

	// GETMETADATA, SETMETADATA.
	MetadataDepth   string // "0", "1" or "INFINITY"; "0" when absent.
	MetadataMaxSize *int64
	MetadataEntries []MetadataEntry

	// GENURLAUTH, URLFETCH, RESETKEY.
	URLs       []GenURLAuth
	ResetMechs []string
}

// Qresync is the QRESYNC parameter of SELECT/EXAMINE (RFC 7162).
type Qresync struct {
	UIDValidity uint32
	ModSeq      int64
	KnownUIDs   *imapwire.NumSet
	SeqMatch    *QresyncSeqMatch
}

type QresyncSeqMatch struct {
	Seqs imapwire.NumSet
	UIDs imapwire.NumSet
}

// MetadataEntry is a metadata entry name, with its value for SETMETADATA.
// IsNil distinguishes the NIL value (remove the entry) from an empty one.
type MetadataEntry struct {
	Name  string
	Value []byte
	IsNil bool
}

// GenURLAuth is one URL of GENURLAUTH (with its mechanism) or URLFETCH
// (mechanism empty).
type GenURLAuth struct {
	URL       string
	Mechanism string
}

// CommandReader parses client commands from a byte stream. Feed it with
// Write, drain events with Next.
type CommandReader struct {
	limits imapwire.Limits
	fr     *imapframe.Framer

	pending []Event

	idle      bool
	auth      bool
	appending bool // Streamed APPEND payload and line remainder still expected.
	draining  bool // Discarding streamed payload and remainder of a spoiled command.
}

// NewCommandReader returns a reader enforcing the given limits.
func NewCommandReader(limits imapwire.Limits) *CommandReader {
	limits.Check()
	return &CommandReader{limits: limits, fr: imapframe.NewFramer(limits)}
}

// Write feeds bytes from the transport. Implements io.Writer, the error is
// always nil.
func (r *CommandReader) Write(p []byte) (int, error) {
	return r.fr.Write(p)
}

// FinishAuth ends an AUTHENTICATE exchange, returning the reader to
// command parsing. Must be called exactly once per AUTHENTICATE command,
// whether the exchange succeeded, failed or was aborted.
func (r *CommandReader) FinishAuth() {
	if !r.auth {
		panic("imapparse: FinishAuth without authenticate in progress")
	}
	r.auth = false
}

// Next returns the next event, along with the number of continuation
// requests now owed to the client for synchronizing literals consumed. A
// nil event with nil error means more data is needed.
//
// Framing and resource errors (imapwire.ErrLineTooLong,
// imapwire.ErrBadLiteral, imapwire.ErrTooDeep) are fatal for the
// connection. A *imapwire.SyntaxError spoils only the command it occurred
// in: the reader discards the remainder of that command, including any
// announced literal payload, and resumes at the next command.
func (r *CommandReader) Next() (Event, int, error) {
	conts := 0
	for {
		if len(r.pending) > 0 {
			ev := r.pending[0]
			r.pending = r.pending[1:]
			return ev, conts, nil
		}

		frame, c, err := r.fr.Next()
		conts += c
		if err != nil {
			return nil, conts, err
		}
		if frame == nil {
			return nil, conts, nil
		}

		switch f := frame.(type) {
		case imapframe.LiteralChunk:
			if r.draining {
				continue
			}
			return EventLiteral{Data: f.Data, Last: f.Last}, conts, nil

		case imapframe.Line:
			if r.draining {
				// Remainder of a spoiled command. A further streamed
				// literal keeps the drain going, otherwise the command is
				// fully consumed.
				if f.Literal == nil {
					r.draining = false
				}
				continue
			}
			err := r.line(f)
			if err != nil {
				r.appending = false
				if f.Literal != nil {
					// Payload chunks for the announced literal will still
					// arrive and belong to the spoiled command.
					r.draining = true
				}
				metricCommandErrors.WithLabelValues(errorLabel(err)).Inc()
				return nil, conts, err
			}
		}
	}
}

// line parses one framed line according to the current mode and appends
// the resulting events to pending.
func (r *CommandReader) line(f imapframe.Line) (rerr error) {
	p := newParser(string(f.Data), r.limits)
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		perr, ok := x.(parseError)
		if !ok {
			panic(x)
		}
		rerr = perr.err
	}()

	switch {
	case r.auth:
		if f.Literal != nil {
			p.xerrorf("literal in authenticate exchange")
		}
		line := p.takefn(func(c byte, i int) bool { return c != '\r' && c != '\n' })
		p.xcrlfEmpty()
		r.pending = append(r.pending, EventAuthLine{Line: []byte(line)})

	case r.idle:
		if f.Literal != nil {
			p.xerrorf("literal in idle")
		}
		p.xtake("DONE")
		p.xcrlfEmpty()
		r.idle = false
		r.pending = append(r.pending, EventIdleDone{})

	case r.appending:
		r.appendRemainder(p, f)

	default:
		cmd := r.xcommand(p, f)
		metricCommand.WithLabelValues(cmd.Name).Inc()
		r.pending = append(r.pending, EventCommand{Cmd: cmd})
	}
	return nil
}

// appendRemainder parses the rest of an APPEND command line after a
// streamed payload: the end of the command, or further MULTIAPPEND
// messages. All inlined messages in the frame become events; a trailing
// streamed one keeps the reader in appending mode.
func (r *CommandReader) appendRemainder(p *parser, f imapframe.Line) {
	defer p.context("append")()
	for {
		if p.take("\r\n") || p.take("\n") {
			p.xempty()
			r.appending = false
			r.pending = append(r.pending, EventAppendDone{})
			return
		}
		p.xspace()
		msg := p.xappendMessage(f.Literal)
		r.pending = append(r.pending, EventAppendMessage{Msg: msg})
		if msg.Streamed {
			// Frame ends at the literal header.
			return
		}
	}
}

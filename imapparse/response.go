package imapparse

import (
	"github.com/apple/swift-nio-imap-sub005/imapframe"
	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// Status of a command result or status-ish untagged response.
type Status string

const (
	OK      Status = "OK"
	NO      Status = "NO"
	BAD     Status = "BAD"
	BYE     Status = "BYE"
	PREAUTH Status = "PREAUTH"
)

// Result is a tagged command completion.
type Result struct {
	Tag    string
	Status Status
	Code   *Code
	Text   string
}

// Code is a bracketed response code. Name determines which payload fields
// are set; unrecognized codes keep their arguments verbatim in Args.
type Code struct {
	Name string // Uppercase.
	Args []string

	Caps        []imapwire.Capability // CAPABILITY.
	Flags       []imapwire.Flag       // PERMANENTFLAGS.
	BadCharsets []string              // BADCHARSET.
	Num         uint32                // UIDNEXT, UIDVALIDITY, UNSEEN.
	Num64       int64                 // HIGHESTMODSEQ, METADATA MAXSIZE.

	// APPENDUID and COPYUID.
	DestUIDValidity uint32
	UIDs            imapwire.NumSet // Source UIDs of COPYUID.
	DestUIDs        imapwire.NumSet

	Modified imapwire.NumSet // MODIFIED.
}

// Untagged response values, carried in EventUntagged.
type (
	UntaggedCapability []imapwire.Capability
	UntaggedEnabled    []imapwire.Capability
	UntaggedExists     uint32
	UntaggedRecent     uint32
	UntaggedExpunge    uint32
	UntaggedFlags      []imapwire.Flag

	// UntaggedResult is an untagged OK/NO/BAD/BYE/PREAUTH, Tag empty.
	UntaggedResult Result

	UntaggedList struct {
		Lsub      bool
		Flags     []imapwire.Flag
		Separator byte // 0 for NIL.
		Mailbox   string
	}

	UntaggedStatus struct {
		Mailbox string
		Attrs   map[string]int64 // Per uppercase attribute name. -1 for "APPENDLIMIT NIL".
	}

	UntaggedSearch struct {
		Nums   []uint32
		ModSeq int64 // 0 when absent.
	}

	// UntaggedEsearch is an ESEARCH response (RFC 4731).
	UntaggedEsearch struct {
		Tag    string // Correlator.
		UID    bool
		Min    uint32
		Max    uint32
		Count  *uint32
		All    imapwire.NumSet
		ModSeq int64
	}

	UntaggedFetch struct {
		Seq   uint32
		Attrs []MsgAtt
	}

	// UntaggedVanished reports removed UIDs (QRESYNC, RFC 7162).
	UntaggedVanished struct {
		Earlier bool
		UIDs    imapwire.NumSet
	}

	UntaggedMetadata struct {
		Mailbox string
		// Values are set in a GETMETADATA reply; an unsolicited change
		// notification carries names only.
		Entries []MetadataEntry
	}

	UntaggedID [][2]string

	UntaggedGenURLAuth []string

	UntaggedURLFetch []URLFetchResult

	UntaggedNamespace struct {
		Personal, Other, Shared []NamespaceDescr
	}
)

// NamespaceDescr is one namespace of a NAMESPACE response (RFC 2342).
type NamespaceDescr struct {
	Prefix    string
	Separator byte // 0 for NIL.
}

// URLFetchResult is one URL of an URLFETCH response (RFC 4467). A nil Body
// means the server could not resolve the URL.
type URLFetchResult struct {
	URL  string
	Body []byte
}

// ResponseReader parses server responses from a byte stream. Feed it with
// Write, drain events with Next.
type ResponseReader struct {
	limits imapwire.Limits
	fr     *imapframe.Framer

	pending  []Event
	fetching bool   // Mid streamed FETCH: chunks pass through, then the remaining attributes.
	fetchSeq uint32 // Message sequence of the FETCH being streamed.
	draining bool
}

// NewResponseReader returns a reader enforcing the given limits.
func NewResponseReader(limits imapwire.Limits) *ResponseReader {
	limits.Check()
	return &ResponseReader{limits: limits, fr: imapframe.NewFramer(limits)}
}

// Write feeds bytes from the transport. Implements io.Writer, the error is
// always nil.
func (r *ResponseReader) Write(p []byte) (int, error) {
	return r.fr.Write(p)
}

// Next returns the next event. The int counts synchronizing literal
// headers consumed; servers never wait for continuations when sending
// responses, so for a well-behaved peer it stays zero and is informational
// otherwise. A nil event with nil error means more data is needed.
func (r *ResponseReader) Next() (Event, int, error) {
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
				if f.Literal == nil {
					r.draining = false
				}
				continue
			}
			err := r.line(f)
			if err != nil {
				r.fetching = false
				if f.Literal != nil {
					r.draining = true
				}
				metricResponseErrors.WithLabelValues(errorLabel(err)).Inc()
				return nil, conts, err
			}
		}
	}
}

func (r *ResponseReader) line(f imapframe.Line) (rerr error) {
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

	if r.fetching {
		r.xfetchRemainder(p, f)
		return nil
	}

	switch {
	case p.take("+ "):
		if f.Literal != nil {
			p.xerrorf("literal in continuation")
		}
		text := p.takefn(func(c byte, i int) bool { return c != '\r' && c != '\n' })
		p.xcrlfEmpty()
		r.pending = append(r.pending, EventContinuation{Text: text})

	case p.take("+"):
		// Empty continuation, "+" CRLF.
		p.xcrlfEmpty()
		r.pending = append(r.pending, EventContinuation{})

	case p.take("* "):
		r.xuntagged(p, f)

	default:
		if f.Literal != nil {
			p.xerrorf("streamed literal in tagged result")
		}
		var res Result
		res.Tag = p.xtag()
		p.xspace()
		res.Status = p.xstatus(false)
		res.Code, res.Text = p.xrespText()
		p.xcrlfEmpty()
		r.pending = append(r.pending, EventResult{Result: res})
	}
	return nil
}

func (p *parser) xstatus(untagged bool) Status {
	w := p.peekword()
	switch Status(w) {
	case OK, NO, BAD:
		p.xtake(w)
		return Status(w)
	case BYE, PREAUTH:
		if untagged {
			p.xtake(w)
			return Status(w)
		}
	}
	p.xerrorf("expected result status")
	panic("not reached")
}

// xrespText parses the rest of a status response: optional [code] and the
// free text.
func (p *parser) xrespText() (*Code, string) {
	var code *Code
	if p.space() && p.peekc('[') {
		code = p.xrespCode()
		if !p.space() {
			// Trailing text is optional after a code.
			return code, ""
		}
	}
	text := p.takefn(func(c byte, i int) bool { return c != '\r' && c != '\n' })
	return code, text
}

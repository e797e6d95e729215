package imapframe

import (
	"bytes"
	"fmt"

	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// Framer turns a byte stream into frames. Feed it with Write, drain it with
// Next. The zero value is not usable, call NewFramer.
//
// Errors from Next are sticky: framing state is gone once a line overflows
// or a literal header is malformed, so the connection must be dropped.
type Framer struct {
	limits imapwire.Limits

	cur  imapwire.Cursor
	scan int   // Offset into unread data up to which we scanned for a newline.
	seg  int   // Start of the current line segment, just past the last inlined payload. Header recognition must not look into payload bytes.
	skip int   // Unarrived bytes of an inlined literal payload, exempt from newline scanning.
	strm int64 // Remaining payload bytes of a streamed literal.
	err  error
}

// NewFramer returns a framer enforcing the given limits. Panics when the
// limits are invalid.
func NewFramer(limits imapwire.Limits) *Framer {
	limits.Check()
	return &Framer{limits: limits}
}

// Write feeds bytes from the transport. Implements io.Writer, the error is
// always nil. Write never parses; cheap to call from a read loop.
func (f *Framer) Write(p []byte) (int, error) {
	return f.cur.Write(p)
}

// Buffered returns the number of fed bytes not yet returned in frames.
func (f *Framer) Buffered() int {
	return f.cur.Len()
}

// Next returns the next frame, along with the number of continuation
// requests the caller now owes the peer for synchronizing literal headers
// consumed during this call.
//
// A nil frame with a nil error means more data is needed; the continuation
// count can still be positive then, since a synchronizing header obliges a
// continuation before its line completes. Callers should invoke Next until
// it returns (nil, 0, nil).
//
// Errors wrap imapwire.ErrLineTooLong or imapwire.ErrBadLiteral and repeat
// on subsequent calls.
func (f *Framer) Next() (Frame, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	frame, conts, err := f.next()
	if err != nil {
		f.err = err
		metricError.WithLabelValues(errorLabel(err)).Inc()
		return nil, conts, err
	}
	switch fr := frame.(type) {
	case Line:
		metricFrame.WithLabelValues("line").Inc()
	case LiteralChunk:
		metricFrame.WithLabelValues("chunk").Inc()
		metricStreamedBytes.Add(float64(len(fr.Data)))
	}
	if conts > 0 {
		metricContinuation.Add(float64(conts))
	}
	return frame, conts, nil
}

func (f *Framer) next() (Frame, int, error) {
	conts := 0

	if f.strm > 0 {
		n := f.cur.Len()
		if n == 0 {
			return nil, 0, nil
		}
		if int64(n) > f.strm {
			n = int(f.strm)
		}
		if n > f.limits.MaxLineBytes {
			n = f.limits.MaxLineBytes
		}
		f.strm -= int64(n)
		return LiteralChunk{Data: f.cur.Take(n), Last: f.strm == 0}, 0, nil
	}

	for {
		data := f.cur.Bytes()

		if f.skip > 0 {
			adv := len(data) - f.scan
			if adv > f.skip {
				adv = f.skip
			}
			f.scan += adv
			f.skip -= adv
			if f.skip > 0 {
				return nil, conts, nil
			}
		}

		j := bytes.IndexByte(data[f.scan:], '\n')
		if j < 0 {
			f.scan = len(data)
			if f.scan > f.limits.MaxLineBytes {
				return nil, conts, fmt.Errorf("%w: no newline in %d bytes", imapwire.ErrLineTooLong, f.scan)
			}
			return nil, conts, nil
		}
		nl := f.scan + j
		if nl+1 > f.limits.MaxLineBytes {
			return nil, conts, fmt.Errorf("%w: %d byte line, max %d", imapwire.ErrLineTooLong, nl+1, f.limits.MaxLineBytes)
		}

		tok := literalHeaderCandidate(data[f.seg:nl])
		if tok == nil {
			f.scan = 0
			f.seg = 0
			return Line{Data: f.cur.Take(nl + 1)}, conts, nil
		}

		lit, err := imapwire.ParseLiteral(tok)
		if err != nil {
			return nil, conts, err
		}
		if lit.Sync {
			conts++
		}

		if lit.Size <= int64(f.limits.MaxLineBytes) && int64(nl+1)+lit.Size <= int64(f.limits.MaxLineBytes) {
			// Small enough to inline: the payload becomes part of the
			// line and scanning resumes after it.
			f.scan = nl + 1
			f.skip = int(lit.Size)
			f.seg = f.scan + f.skip
			continue
		}

		// Too large to buffer: emit the line through the header, then
		// stream the payload in chunks.
		l := lit
		f.scan = 0
		f.seg = 0
		f.strm = lit.Size
		return Line{Data: f.cur.Take(nl + 1), Literal: &l}, conts, nil
	}
}

// literalHeaderCandidate returns the literal header token ending the line,
// or nil when the line cannot end in one. Only shapes that unambiguously
// attempt to be a header are returned; "{abc}" is a plain atom-ish token
// and falls through to the grammar parser. Malformed attempts like "{}" or
// "{01}" are returned so parsing them fails the connection, as continuing
// would desynchronize framing from a peer that meant to send a literal.
func literalHeaderCandidate(line []byte) []byte {
	e := len(line)
	if e > 0 && line[e-1] == '\r' {
		e--
	}
	if e == 0 || line[e-1] != '}' {
		return nil
	}
	i := e - 2
	for i >= 0 {
		c := line[i]
		if c >= '0' && c <= '9' || c == '+' || c == '-' {
			i--
			continue
		}
		break
	}
	if i < 0 || line[i] != '{' {
		return nil
	}
	if i > 0 && line[i-1] == '~' {
		i--
	}
	return line[i:e]
}

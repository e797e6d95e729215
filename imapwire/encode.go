package imapwire

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Encoder builds outgoing protocol text in an internal buffer. Each Write
// method appends one production and returns the number of bytes added.
//
// Strings are written in the cheapest representation that can carry their
// bytes: atom, then quoted, then literal. With NonSync set, literals use
// the non-synchronizing "{n+}" form. Otherwise each literal header is a
// synchronization point: ContinuationOffsets returns the buffer offsets
// just after each header's CRLF, where the sender must await a
// continuation request before transmitting more.
type Encoder struct {
	NonSync bool // Use "{n+}" literal headers (LITERAL+).

	buf   []byte
	conts []int
}

// Bytes returns the encoded buffer. Valid until the next Write or Reset.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Len() int { return len(e.buf) }

// ContinuationOffsets returns, for each synchronizing literal written so
// far, the offset just past its header CRLF. Empty when NonSync is set.
func (e *Encoder) ContinuationOffsets() []int { return e.conts }

func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.conts = e.conts[:0]
}

// Write appends raw bytes, for pre-encoded or protocol-fixed text.
func (e *Encoder) Write(buf []byte) int {
	e.buf = append(e.buf, buf...)
	return len(buf)
}

// WriteRaw appends a raw string, for pre-encoded or protocol-fixed text.
func (e *Encoder) WriteRaw(s string) int {
	e.buf = append(e.buf, s...)
	return len(s)
}

func (e *Encoder) WriteSP() int {
	e.buf = append(e.buf, ' ')
	return 1
}

func (e *Encoder) WriteCRLF() int {
	e.buf = append(e.buf, '\r', '\n')
	return 2
}

// WriteAtom writes s as a bare atom. The caller must pass a valid atom.
func (e *Encoder) WriteAtom(s string) int {
	return e.WriteRaw(s)
}

func (e *Encoder) WriteNumber(v uint32) int {
	n := len(e.buf)
	e.buf = strconv.AppendUint(e.buf, uint64(v), 10)
	return len(e.buf) - n
}

func (e *Encoder) WriteNumber64(v int64) int {
	n := len(e.buf)
	e.buf = strconv.AppendInt(e.buf, v, 10)
	return len(e.buf) - n
}

// WriteQuoted writes s as a quoted string, escaping backslash and dquote.
// The caller must ensure s contains no NUL, CR or LF.
func (e *Encoder) WriteQuoted(s string) int {
	n := len(e.buf)
	e.buf = append(e.buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '"' {
			e.buf = append(e.buf, '\\')
		}
		e.buf = append(e.buf, c)
	}
	e.buf = append(e.buf, '"')
	return len(e.buf) - n
}

// WriteLiteral writes data as a literal, header included.
func (e *Encoder) WriteLiteral(data []byte) int {
	return e.writeLiteral(data, false)
}

// WriteLiteral8 writes data as a binary literal, "~{n}", for APPEND with
// BINARY content.
func (e *Encoder) WriteLiteral8(data []byte) int {
	return e.writeLiteral(data, true)
}

func (e *Encoder) writeLiteral(data []byte, binary bool) int {
	n := len(e.buf)
	if binary {
		e.buf = append(e.buf, '~')
	}
	e.buf = append(e.buf, '{')
	e.buf = strconv.AppendInt(e.buf, int64(len(data)), 10)
	if e.NonSync {
		e.buf = append(e.buf, '+')
	}
	e.buf = append(e.buf, '}', '\r', '\n')
	if !e.NonSync {
		e.conts = append(e.conts, len(e.buf))
	}
	e.buf = append(e.buf, data...)
	return len(e.buf) - n
}

// WriteLiteralHeader writes only a literal header announcing size bytes,
// for streaming bodies the caller transmits out of band.
func (e *Encoder) WriteLiteralHeader(size int64, binary bool) int {
	n := len(e.buf)
	if binary {
		e.buf = append(e.buf, '~')
	}
	e.buf = append(e.buf, '{')
	e.buf = strconv.AppendInt(e.buf, size, 10)
	if e.NonSync {
		e.buf = append(e.buf, '+')
	}
	e.buf = append(e.buf, '}', '\r', '\n')
	if !e.NonSync {
		e.conts = append(e.conts, len(e.buf))
	}
	return len(e.buf) - n
}

// WriteString writes s as an IMAP string: quoted, or a literal when s
// contains bytes a quoted string cannot carry.
func (e *Encoder) WriteString(s string) int {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == 0 || c == '\r' || c == '\n' || c >= 0x80 {
			return e.WriteLiteral([]byte(s))
		}
	}
	return e.WriteQuoted(s)
}

// WriteAString writes s in its cheapest representation: atom when every
// byte is an atom character, otherwise quoted or literal.
func (e *Encoder) WriteAString(s string) int {
	if s != "" && asciiUpper(s) != "NIL" {
		ok := true
		for i := 0; i < len(s); i++ {
			if !isAtomChar(s[i]) {
				ok = false
				break
			}
		}
		if ok {
			return e.WriteRaw(s)
		}
	}
	return e.WriteString(s)
}

// WriteNString writes NIL for the empty string, an IMAP string otherwise.
func (e *Encoder) WriteNString(s string) int {
	if s == "" {
		return e.WriteRaw("NIL")
	}
	return e.WriteString(s)
}

// WriteMailbox writes a mailbox name, encoding it to modified UTF-7 first.
func (e *Encoder) WriteMailbox(s string) int {
	if asciiUpper(s) == "INBOX" {
		return e.WriteRaw("INBOX")
	}
	return e.WriteAString(UTF7Encode(s))
}

// WriteFlags writes a parenthesized flag list, preserving original casing.
func (e *Encoder) WriteFlags(flags []Flag) int {
	n := len(e.buf)
	e.buf = append(e.buf, '(')
	for i, f := range flags {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		e.buf = append(e.buf, f.String()...)
	}
	e.buf = append(e.buf, ')')
	return len(e.buf) - n
}

// WriteCapabilities writes a space-separated capability list in canonical
// uppercase, without surrounding parens.
func (e *Encoder) WriteCapabilities(caps []Capability) int {
	n := len(e.buf)
	for i, c := range caps {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		e.buf = append(e.buf, c.Norm()...)
	}
	return len(e.buf) - n
}

func (e *Encoder) WriteNumSet(s NumSet) int {
	return e.WriteRaw(s.String())
}

// WriteDate writes a search date, "2-Jan-2006".
func (e *Encoder) WriteDate(t time.Time) int {
	return e.WriteRaw(t.Format("2-Jan-2006"))
}

// WriteDateTime writes a quoted INTERNALDATE-style date-time.
func (e *Encoder) WriteDateTime(t time.Time) int {
	return e.WriteRaw(`"` + t.Format("_2-Jan-2006 15:04:05 -0700") + `"`)
}

// WritePartial writes the "<offset.count>" suffix of a fetch attribute.
func (e *Encoder) WritePartial(p Partial) int {
	n := len(e.buf)
	e.buf = append(e.buf, '<')
	e.buf = strconv.AppendUint(e.buf, uint64(p.Offset), 10)
	e.buf = append(e.buf, '.')
	e.buf = strconv.AppendUint(e.buf, uint64(p.Count), 10)
	e.buf = append(e.buf, '>')
	return len(e.buf) - n
}

// WriteSection writes the bracketed section of a BODY fetch attribute,
// brackets included.
func (e *Encoder) WriteSection(s *SectionSpec) int {
	n := len(e.buf)
	e.buf = append(e.buf, '[')
	if s != nil {
		if s.Part != nil {
			for i, v := range s.Part.Part {
				if i > 0 {
					e.buf = append(e.buf, '.')
				}
				e.buf = strconv.AppendUint(e.buf, uint64(v), 10)
			}
			if t := s.Part.Text; t != nil {
				e.buf = append(e.buf, '.')
				if t.MIME {
					e.buf = append(e.buf, "MIME"...)
				} else {
					e.writeSectionMsgtext(t.Msgtext)
				}
			}
		} else if s.Msgtext != nil {
			e.writeSectionMsgtext(s.Msgtext)
		}
	}
	e.buf = append(e.buf, ']')
	return len(e.buf) - n
}

func (e *Encoder) writeSectionMsgtext(m *SectionMsgtext) {
	e.buf = append(e.buf, m.S...)
	if len(m.Headers) > 0 {
		e.buf = append(e.buf, " ("...)
		for i, h := range m.Headers {
			if i > 0 {
				e.buf = append(e.buf, ' ')
			}
			e.WriteAString(h)
		}
		e.buf = append(e.buf, ')')
	}
}

// WriteSearchKeys writes the top level of a search program, keys separated
// by spaces, without enclosing parens.
func (e *Encoder) WriteSearchKeys(keys []SearchKey) int {
	n := len(e.buf)
	for i, k := range keys {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		e.WriteSearchKey(k)
	}
	return len(e.buf) - n
}

// WriteSearchKey writes a single search key. Nested key lists are
// parenthesized.
func (e *Encoder) WriteSearchKey(sk SearchKey) int {
	n := len(e.buf)
	switch {
	case sk.SearchKeys != nil:
		e.buf = append(e.buf, '(')
		e.WriteSearchKeys(sk.SearchKeys)
		e.buf = append(e.buf, ')')
	case sk.SeqSet != nil:
		e.WriteNumSet(*sk.SeqSet)
	default:
		e.buf = append(e.buf, sk.Op...)
		switch sk.Op {
		case "BCC", "BODY", "CC", "FROM", "SUBJECT", "TEXT", "TO":
			e.buf = append(e.buf, ' ')
			e.WriteAString(sk.AString)
		case "KEYWORD", "UNKEYWORD":
			e.buf = append(e.buf, ' ')
			e.buf = append(e.buf, sk.Atom...)
		case "BEFORE", "ON", "SINCE", "SENTBEFORE", "SENTON", "SENTSINCE":
			e.buf = append(e.buf, ' ')
			e.WriteDate(sk.Date)
		case "HEADER":
			e.buf = append(e.buf, ' ')
			e.WriteAString(sk.HeaderField)
			e.buf = append(e.buf, ' ')
			e.WriteAString(sk.AString)
		case "LARGER", "SMALLER", "OLDER", "YOUNGER":
			e.buf = append(e.buf, ' ')
			e.buf = strconv.AppendInt(e.buf, sk.Number, 10)
		case "NOT":
			e.buf = append(e.buf, ' ')
			e.WriteSearchKey(*sk.SearchKey)
		case "OR":
			e.buf = append(e.buf, ' ')
			e.WriteSearchKey(*sk.SearchKey)
			e.buf = append(e.buf, ' ')
			e.WriteSearchKey(*sk.SearchKey2)
		case "UID":
			e.buf = append(e.buf, ' ')
			e.WriteNumSet(sk.UIDSet)
		case "MODSEQ":
			e.buf = append(e.buf, ' ')
			e.buf = strconv.AppendInt(e.buf, *sk.ClientModseq, 10)
		}
	}
	return len(e.buf) - n
}

// WriteAddressList writes an envelope address list, NIL when empty.
func (e *Encoder) WriteAddressList(l []Address) int {
	n := len(e.buf)
	if len(l) == 0 {
		e.buf = append(e.buf, "NIL"...)
		return len(e.buf) - n
	}
	e.buf = append(e.buf, '(')
	for _, a := range l {
		e.buf = append(e.buf, '(')
		e.WriteNString(a.Name)
		e.buf = append(e.buf, ' ')
		e.WriteNString(a.Adl)
		e.buf = append(e.buf, ' ')
		e.WriteNString(a.Mailbox)
		e.buf = append(e.buf, ' ')
		e.WriteNString(a.Host)
		e.buf = append(e.buf, ')')
	}
	e.buf = append(e.buf, ')')
	return len(e.buf) - n
}

// WriteEnvelope writes a parenthesized ENVELOPE value.
func (e *Encoder) WriteEnvelope(env *Envelope) int {
	n := len(e.buf)
	e.buf = append(e.buf, '(')
	e.WriteNString(env.Date)
	e.buf = append(e.buf, ' ')
	e.WriteNString(env.Subject)
	e.buf = append(e.buf, ' ')
	e.WriteAddressList(env.From)
	e.buf = append(e.buf, ' ')
	e.WriteAddressList(env.Sender)
	e.buf = append(e.buf, ' ')
	e.WriteAddressList(env.ReplyTo)
	e.buf = append(e.buf, ' ')
	e.WriteAddressList(env.To)
	e.buf = append(e.buf, ' ')
	e.WriteAddressList(env.CC)
	e.buf = append(e.buf, ' ')
	e.WriteAddressList(env.BCC)
	e.buf = append(e.buf, ' ')
	e.WriteNString(env.InReplyTo)
	e.buf = append(e.buf, ' ')
	e.WriteNString(env.MessageID)
	e.buf = append(e.buf, ')')
	return len(e.buf) - n
}

func (e *Encoder) writeBodyParams(params [][2]string) {
	if len(params) == 0 {
		e.buf = append(e.buf, "NIL"...)
		return
	}
	e.buf = append(e.buf, '(')
	for i, kv := range params {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		e.WriteString(kv[0])
		e.buf = append(e.buf, ' ')
		e.WriteString(kv[1])
	}
	e.buf = append(e.buf, ')')
}

func (e *Encoder) writeBodyFields(f BodyFields) {
	e.writeBodyParams(f.Params)
	e.buf = append(e.buf, ' ')
	e.WriteNString(f.ContentID)
	e.buf = append(e.buf, ' ')
	e.WriteNString(f.ContentDescr)
	e.buf = append(e.buf, ' ')
	e.WriteNString(f.CTE)
	e.buf = append(e.buf, ' ')
	e.buf = strconv.AppendInt(e.buf, f.Octets, 10)
}

// WriteBodyStructure writes a non-extensible BODY structure value. The
// argument must be one of BodyTypeBasic, BodyTypeText, BodyTypeMsg or
// BodyTypeMpart.
func (e *Encoder) WriteBodyStructure(body any) int {
	n := len(e.buf)
	e.buf = append(e.buf, '(')
	switch b := body.(type) {
	case BodyTypeBasic:
		e.WriteString(b.MediaType)
		e.buf = append(e.buf, ' ')
		e.WriteString(b.MediaSubtype)
		e.buf = append(e.buf, ' ')
		e.writeBodyFields(b.BodyFields)
	case BodyTypeText:
		e.WriteString(b.MediaType)
		e.buf = append(e.buf, ' ')
		e.WriteString(b.MediaSubtype)
		e.buf = append(e.buf, ' ')
		e.writeBodyFields(b.BodyFields)
		e.buf = append(e.buf, ' ')
		e.buf = strconv.AppendInt(e.buf, b.Lines, 10)
	case BodyTypeMsg:
		e.WriteString(b.MediaType)
		e.buf = append(e.buf, ' ')
		e.WriteString(b.MediaSubtype)
		e.buf = append(e.buf, ' ')
		e.writeBodyFields(b.BodyFields)
		e.buf = append(e.buf, ' ')
		e.WriteEnvelope(&b.Envelope)
		e.buf = append(e.buf, ' ')
		e.WriteBodyStructure(b.BodyStructure)
		e.buf = append(e.buf, ' ')
		e.buf = strconv.AppendInt(e.buf, b.Lines, 10)
	case BodyTypeMpart:
		for _, p := range b.Parts {
			e.WriteBodyStructure(p)
		}
		e.buf = append(e.buf, ' ')
		e.WriteString(b.MediaSubtype)
	default:
		panic(fmt.Sprintf("missing case for body structure %T", body))
	}
	e.buf = append(e.buf, ')')
	return len(e.buf) - n
}

// Atom characters per the grammar: printable ASCII minus atom-specials.
func isAtomChar(c byte) bool {
	return c > ' ' && c < 0x7f && strings.IndexByte("(){%*\"\\]", c) < 0
}

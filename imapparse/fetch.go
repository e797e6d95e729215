package imapparse

import (
	"time"

	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// MsgAtt is one attribute of an untagged FETCH response. Field determines
// which value fields are set.
type MsgAtt struct {
	Field string // Uppercase: FLAGS, ENVELOPE, INTERNALDATE, RFC822.SIZE, RFC822, RFC822.HEADER, RFC822.TEXT, BODYSTRUCTURE, BODY, BINARY, BINARY.SIZE, UID, MODSEQ.

	Flags    []imapwire.Flag
	Envelope *imapwire.Envelope
	Date     time.Time
	Num      uint32 // UID.
	Num64    int64  // RFC822.SIZE, BINARY.SIZE, MODSEQ.

	// BODY and BODYSTRUCTURE without a section: one of the imapwire body
	// structure types.
	BodyStructure any

	// BODY[...] and BINARY[...].
	Section       *imapwire.SectionSpec
	SectionBinary []uint32
	Offset        *uint32 // The <origin> of a partial fetch response.
	Body          []byte  // Value when inlined.
	IsNil         bool
	Streamed      bool // Value follows as EventLiteral events.
}

// xmsgatt parses one message attribute. lit is the streamed literal header
// ending the frame, if any; only a BODY[...] or BINARY[...] value at the
// very end of the line may claim it.
func (p *parser) xmsgatt(lit *imapwire.Literal) MsgAtt {
	defer p.context("msg-att")()
	var a MsgAtt
	switch w := p.peekword(); w {
	case "FLAGS":
		p.xtake(w)
		a.Field = w
		p.xspace()
		a.Flags = p.xflagList()
	case "ENVELOPE":
		p.xtake(w)
		a.Field = w
		p.xspace()
		a.Envelope = p.xenvelope()
	case "INTERNALDATE":
		p.xtake(w)
		a.Field = w
		p.xspace()
		a.Date = p.xdateTime()
	case "UID":
		p.xtake(w)
		a.Field = w
		p.xspace()
		a.Num = p.xnznumber()
	case "MODSEQ":
		p.xtake(w)
		a.Field = w
		p.xspace()
		p.xtake("(")
		a.Num64 = p.xnznumber64()
		p.xtake(")")
	case "RFC":
		if p.take("RFC822.SIZE") {
			a.Field = "RFC822.SIZE"
			p.xspace()
			a.Num64 = p.xnumber64()
			break
		}
		if p.take("RFC822.HEADER") {
			a.Field = "RFC822.HEADER"
		} else if p.take("RFC822.TEXT") {
			a.Field = "RFC822.TEXT"
		} else {
			p.xtake("RFC822")
			a.Field = "RFC822"
		}
		p.xspace()
		p.xmsgattValue(&a, lit, false)
	case "BODYSTRUCTURE":
		p.xtake(w)
		a.Field = w
		p.xspace()
		a.BodyStructure = p.xbodystructure()
	case "BODY":
		p.xtake(w)
		a.Field = w
		if !p.peekc('[') {
			p.xspace()
			a.BodyStructure = p.xbodystructure()
			break
		}
		a.Section = p.xsection()
		if p.take("<") {
			v := p.xnumber()
			a.Offset = &v
			p.xtake(">")
		}
		p.xspace()
		p.xmsgattValue(&a, lit, false)
	case "BINARY":
		p.xtake(w)
		a.Field = w
		if p.take(".SIZE") {
			a.Field = "BINARY.SIZE"
			a.SectionBinary = p.xsectionBinary()
			p.xspace()
			a.Num64 = p.xnumber64()
			break
		}
		a.SectionBinary = p.xsectionBinary()
		if p.take("<") {
			v := p.xnumber()
			a.Offset = &v
			p.xtake(">")
		}
		p.xspace()
		p.xmsgattValue(&a, lit, true)
	default:
		p.xerrorf("unknown fetch attribute")
	}
	return a
}

// xmsgattValue parses the value of a body-ish attribute: NIL, a string,
// or the streamed literal ending the frame.
func (p *parser) xmsgattValue(a *MsgAtt, lit *imapwire.Literal, binary bool) {
	if p.take("NIL") {
		a.IsNil = true
		return
	}
	if p.peekc('"') {
		a.Body = []byte(p.xquoted())
		return
	}
	if lit != nil && p.o+len(lit.String())+2 >= len(p.orig) {
		p.o = len(p.orig)
		a.Streamed = true
		return
	}
	a.Body = []byte(p.xliteral(binary))
}

func (p *parser) xenvelope() *imapwire.Envelope {
	defer p.context("envelope")()
	p.enter()
	defer p.leave()
	p.xtake("(")
	e := &imapwire.Envelope{}
	e.Date = p.xnilString()
	p.xspace()
	e.Subject = p.xnilString()
	p.xspace()
	e.From = p.xaddresses()
	p.xspace()
	e.Sender = p.xaddresses()
	p.xspace()
	e.ReplyTo = p.xaddresses()
	p.xspace()
	e.To = p.xaddresses()
	p.xspace()
	e.CC = p.xaddresses()
	p.xspace()
	e.BCC = p.xaddresses()
	p.xspace()
	e.InReplyTo = p.xnilString()
	p.xspace()
	e.MessageID = p.xnilString()
	p.xtake(")")
	return e
}

func (p *parser) xaddresses() []imapwire.Address {
	if p.take("NIL") {
		return nil
	}
	p.xtake("(")
	var l []imapwire.Address
	for !p.take(")") {
		p.xtake("(")
		var a imapwire.Address
		a.Name = p.xnilString()
		p.xspace()
		a.Adl = p.xnilString()
		p.xspace()
		a.Mailbox = p.xnilString()
		p.xspace()
		a.Host = p.xnilString()
		p.xtake(")")
		l = append(l, a)
	}
	return l
}

func (p *parser) xbodyParams() [][2]string {
	if p.take("NIL") {
		return nil
	}
	p.xtake("(")
	var params [][2]string
	for {
		k := p.xstring()
		p.xspace()
		params = append(params, [2]string{k, p.xstring()})
		if !p.space() {
			break
		}
	}
	p.xtake(")")
	return params
}

func (p *parser) xbodyFields() imapwire.BodyFields {
	var f imapwire.BodyFields
	f.Params = p.xbodyParams()
	p.xspace()
	f.ContentID = p.xnilString()
	p.xspace()
	f.ContentDescr = p.xnilString()
	p.xspace()
	f.CTE = p.xnilString()
	p.xspace()
	f.Octets = p.xnumber64()
	return f
}

// xbodystructure parses a BODY or BODYSTRUCTURE value into one of the
// imapwire body types. Extension data (disposition, language, location,
// MD5) that BODYSTRUCTURE can carry is parsed and dropped.
func (p *parser) xbodystructure() any {
	defer p.context("bodystructure")()
	p.enter()
	defer p.leave()

	p.xtake("(")
	if p.peekc('(') {
		// Multipart.
		var parts []any
		for p.peekc('(') {
			parts = append(parts, p.xbodystructure())
		}
		p.xspace()
		subtype := p.xstring()
		p.xskipBodyExt()
		p.xtake(")")
		return imapwire.BodyTypeMpart{Parts: parts, MediaSubtype: subtype}
	}

	mediatype := p.xstring()
	p.xspace()
	subtype := p.xstring()
	p.xspace()
	fields := p.xbodyFields()
	up, usub := upperASCII(mediatype), upperASCII(subtype)
	switch {
	case up == "MESSAGE" && (usub == "RFC822" || usub == "GLOBAL"):
		p.xspace()
		env := p.xenvelope()
		p.xspace()
		body := p.xbodystructure()
		p.xspace()
		lines := p.xnumber64()
		p.xskipBodyExt()
		p.xtake(")")
		return imapwire.BodyTypeMsg{MediaType: mediatype, MediaSubtype: subtype, BodyFields: fields, Envelope: *env, BodyStructure: body, Lines: lines}
	case up == "TEXT":
		p.xspace()
		lines := p.xnumber64()
		p.xskipBodyExt()
		p.xtake(")")
		return imapwire.BodyTypeText{MediaType: mediatype, MediaSubtype: subtype, BodyFields: fields, Lines: lines}
	default:
		p.xskipBodyExt()
		p.xtake(")")
		return imapwire.BodyTypeBasic{MediaType: mediatype, MediaSubtype: subtype, BodyFields: fields}
	}
}

// xskipBodyExt consumes any body extension data up to the closing paren of
// the enclosing structure: space-separated strings, numbers, NILs and
// nested parenthesized lists.
func (p *parser) xskipBodyExt() {
	for p.space() {
		p.xskipExtValue()
	}
}

func (p *parser) xskipExtValue() {
	p.enter()
	defer p.leave()
	switch {
	case p.take("NIL"):
	case p.peekc('"'), p.peekc('{'), p.peekc('~'):
		p.xstring()
	case p.peekc('('):
		p.xtake("(")
		if !p.take(")") {
			p.xskipExtValue()
			for p.space() {
				p.xskipExtValue()
			}
			p.xtake(")")
		}
	default:
		p.xtakefn1("extension value", func(c byte, i int) bool { return digit(c) })
	}
}

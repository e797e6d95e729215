// Package imapparse implements the IMAP4 grammar over the frames produced
// by imapframe: a CommandReader for the server side and a ResponseReader
// for the client side, both producing events and sharing one library of
// grammar productions.
package imapparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// Productions are implemented as methods on parser that panic on invalid
// syntax. The reader entry points recover the panic and translate it into
// an error return. Methods with an x prefix consume what they describe or
// panic.
type parser struct {
	orig     string // Line with literal payloads inlined, CRLF included.
	upper    string // Byte-wise ASCII-uppercased orig, same length.
	o        int    // Offset in both.
	contexts []string
	depth    int
	limits   imapwire.Limits
}

type parseError struct {
	err error
}

func newParser(s string, limits imapwire.Limits) *parser {
	return &parser{orig: s, upper: upperASCII(s), limits: limits}
}

// strings.ToUpper would turn invalid UTF-8 into replacement characters and
// change the length, desynchronizing offsets from orig. Literal payloads
// can hold arbitrary bytes, so fold per byte.
func upperASCII(s string) string {
	r := []byte(s)
	for i, c := range r {
		if c >= 'a' && c <= 'z' {
			r[i] = c - 0x20
		}
	}
	return string(r)
}

func (p *parser) xerrorf(format string, args ...any) {
	remaining := p.orig[p.o:]
	if len(remaining) > 100 {
		remaining = remaining[:100] + "..."
	}
	var ctx []string
	if len(p.contexts) > 0 {
		ctx = append(ctx, p.contexts...)
	}
	panic(parseError{&imapwire.SyntaxError{Msg: fmt.Sprintf(format, args...), Remaining: remaining, Contexts: ctx}})
}

func (p *parser) context(s string) func() {
	p.contexts = append(p.contexts, s)
	return func() {
		p.contexts = p.contexts[:len(p.contexts)-1]
	}
}

// enter tracks recursion depth for nested productions. Grammar recursion
// is bounded here, not by the goroutine stack.
func (p *parser) enter() {
	p.depth++
	if p.depth > p.limits.MaxNesting {
		panic(parseError{fmt.Errorf("%w: depth %d", imapwire.ErrTooDeep, p.depth)})
	}
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) empty() bool {
	return p.o == len(p.orig)
}

func (p *parser) xempty() {
	if !p.empty() {
		p.xerrorf("leftover data")
	}
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.upper[p.o:], s)
}

func (p *parser) take(s string) bool {
	if p.hasPrefix(s) {
		p.o += len(s)
		return true
	}
	return false
}

func (p *parser) xtake(s string) {
	if !p.take(s) {
		p.xerrorf("expected %q", s)
	}
}

func (p *parser) space() bool {
	return p.take(" ")
}

func (p *parser) xspace() {
	if !p.space() {
		p.xerrorf("expected space")
	}
}

// xcrlfEmpty consumes the line terminator and requires nothing after it.
// A bare LF is accepted, plenty of clients get this wrong.
func (p *parser) xcrlfEmpty() {
	p.take("\r")
	p.xtake("\n")
	p.xempty()
}

func (p *parser) peekc(c byte) bool {
	return p.o < len(p.upper) && p.upper[p.o] == c
}

func (p *parser) xtaken(n int) string {
	if p.o+n > len(p.orig) {
		p.xerrorf("not enough data")
	}
	r := p.orig[p.o : p.o+n]
	p.o += n
	return r
}

func (p *parser) takefn(fn func(c byte, i int) bool) string {
	i := 0
	for p.o+i < len(p.orig) && fn(p.orig[p.o+i], i) {
		i++
	}
	r := p.orig[p.o : p.o+i]
	p.o += i
	return r
}

func (p *parser) xtakefn1(what string, fn func(c byte, i int) bool) string {
	r := p.takefn(fn)
	if r == "" {
		p.xerrorf("expected %s", what)
	}
	return r
}

// Character classes from the formal syntax.

const listWildcards = "%*"
const quotedSpecials = `"\`
const respSpecials = "]"

func atomChar(c byte) bool {
	return c > ' ' && c < 0x7f && c != '(' && c != ')' && c != '{' && strings.IndexByte(listWildcards+quotedSpecials+respSpecials, c) < 0
}

func astringChar(c byte) bool {
	return atomChar(c) || c == ']'
}

func tagChar(c byte) bool {
	return astringChar(c) && c != '+'
}

func digit(c byte) bool {
	return c >= '0' && c <= '9'
}

func alpha(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

// Tokens.

func (p *parser) xtag() string {
	return p.xtakefn1("tag", func(c byte, i int) bool { return tagChar(c) })
}

func (p *parser) xatom() string {
	return p.xtakefn1("atom", func(c byte, i int) bool { return atomChar(c) })
}

// peekword returns the upcoming run of letters, uppercased, without
// consuming it. Used to dispatch on keywords.
func (p *parser) peekword() string {
	i := 0
	for p.o+i < len(p.upper) && alpha(p.upper[p.o+i]) {
		i++
	}
	return p.upper[p.o : p.o+i]
}

func (p *parser) xquoted() string {
	p.xtake(`"`)
	r := ""
	for !p.take(`"`) {
		if p.empty() {
			p.xerrorf("unterminated quoted string")
		}
		c := p.orig[p.o]
		if c == '\\' {
			p.o++
			if p.empty() {
				p.xerrorf("bad quoted escape")
			}
			c = p.orig[p.o]
			if c != '\\' && c != '"' {
				p.xerrorf("bad quoted escape char %q", c)
			}
		} else if c == '\r' || c == '\n' {
			p.xerrorf("bad quoted char %q", c)
		}
		r += string(c)
		p.o++
	}
	return r
}

// xliteral parses an inlined literal: header, CRLF, then the payload that
// the framer already buffered into this line. A header at the very end of
// the line belongs to a streamed literal and is handled by the readers at
// the few positions the grammar allows one; anywhere else it is an error.
func (p *parser) xliteral(allowBinary bool) string {
	defer p.context("literal")()
	tok := p.takefn(func(c byte, i int) bool {
		return c == '~' && i == 0 || c == '{' || c == '}' || c == '+' || c == '-' || digit(c)
	})
	lit, err := imapwire.ParseLiteral([]byte(tok))
	if err != nil {
		p.xerrorf("%s", err)
	}
	if lit.Binary && !allowBinary {
		p.xerrorf("binary literal not allowed here")
	}
	p.take("\r")
	p.xtake("\n")
	if int64(len(p.orig)-p.o) < lit.Size {
		p.xerrorf("streamed literal not allowed here")
	}
	return p.xtaken(int(lit.Size))
}

func (p *parser) xstring() string {
	if p.peekc('"') {
		return p.xquoted()
	}
	if p.peekc('{') || p.peekc('~') {
		return p.xliteral(false)
	}
	p.xerrorf("expected string")
	panic("not reached")
}

func (p *parser) xnilString() string {
	if p.take("NIL") {
		return ""
	}
	return p.xstring()
}

func (p *parser) xastring() string {
	if p.peekc('"') || p.peekc('{') || p.peekc('~') {
		return p.xstring()
	}
	return p.xtakefn1("astring", func(c byte, i int) bool { return astringChar(c) })
}

// xmailbox parses a mailbox name, decoding modified UTF-7 and normalizing
// the case-insensitive INBOX.
func (p *parser) xmailbox() string {
	s := p.xastring()
	if upperASCII(s) == "INBOX" {
		return "INBOX"
	}
	r, err := imapwire.UTF7Decode(s)
	if err != nil {
		p.xerrorf("mailbox name: %s", err)
	}
	return r
}

// Numbers.

func (p *parser) digits() string {
	return p.takefn(func(c byte, i int) bool { return digit(c) })
}

func (p *parser) xnumber() uint32 {
	s := p.xtakefn1("number", func(c byte, i int) bool { return digit(c) })
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		p.xerrorf("parsing number %q: %s", s, err)
	}
	return uint32(v)
}

func (p *parser) xnznumber() uint32 {
	v := p.xnumber()
	if v == 0 {
		p.xerrorf("expected non-zero number")
	}
	return v
}

func (p *parser) xnumber64() int64 {
	s := p.xtakefn1("number", func(c byte, i int) bool { return digit(c) })
	v, err := strconv.ParseInt(s, 10, 63)
	if err != nil {
		p.xerrorf("parsing number %q: %s", s, err)
	}
	return v
}

func (p *parser) xnznumber64() int64 {
	v := p.xnumber64()
	if v == 0 {
		p.xerrorf("expected non-zero number")
	}
	return v
}

// Dates.

func (p *parser) xdate() time.Time {
	quoted := p.take(`"`)
	s := p.xtakefn1("date", func(c byte, i int) bool { return digit(c) || c == '-' || alpha(c) })
	if quoted {
		p.xtake(`"`)
	}
	t, err := time.Parse("2-Jan-2006", s)
	if err != nil {
		p.xerrorf("parsing date %q: %s", s, err)
	}
	return t
}

func (p *parser) xdateTime() time.Time {
	p.xtake(`"`)
	s := p.takefn(func(c byte, i int) bool { return c != '"' })
	p.xtake(`"`)
	t, err := time.Parse("_2-Jan-2006 15:04:05 -0700", s)
	if err != nil {
		p.xerrorf("parsing date-time %q: %s", s, err)
	}
	return t
}

// Flags.

func (p *parser) xflag() imapwire.Flag {
	backslash := p.take(`\`)
	s := p.xatom()
	if backslash {
		s = `\` + s
	}
	return imapwire.NewFlag(s)
}

func (p *parser) xflagList() []imapwire.Flag {
	p.xtake("(")
	var l []imapwire.Flag
	if !p.peekc(')') {
		l = append(l, p.xflag())
		for p.space() {
			l = append(l, p.xflag())
		}
	}
	p.xtake(")")
	return l
}

// Sequence sets.

func (p *parser) xsetNumber() imapwire.SetNumber {
	if p.take("*") {
		return imapwire.SetNumber{Star: true}
	}
	return imapwire.SetNumber{Number: p.xnznumber()}
}

// xnumSet parses a sequence-set. With searchResult, a bare "$" refers to
// the saved search result (RFC 5182).
func (p *parser) xnumSet(searchResult bool) imapwire.NumSet {
	defer p.context("sequence-set")()
	if searchResult && p.take("$") {
		return imapwire.NumSet{SearchResult: true}
	}
	var s imapwire.NumSet
	for {
		first := p.xsetNumber()
		nr := imapwire.NumRange{First: first}
		if p.take(":") {
			last := p.xsetNumber()
			nr.Last = &last
		}
		s.Ranges = append(s.Ranges, nr)
		if !p.take(",") {
			break
		}
	}
	return s
}

// Sections, for BODY[...] fetch attributes.

func (p *parser) xsectionMsgtext() *imapwire.SectionMsgtext {
	defer p.context("section-msgtext")()
	m := &imapwire.SectionMsgtext{}
	if p.take("HEADER.FIELDS.NOT") {
		m.S = "HEADER.FIELDS.NOT"
	} else if p.take("HEADER.FIELDS") {
		m.S = "HEADER.FIELDS"
	} else if p.take("HEADER") {
		m.S = "HEADER"
		return m
	} else if p.take("TEXT") {
		m.S = "TEXT"
		return m
	} else {
		p.xerrorf("expected section-msgtext")
	}
	p.xspace()
	p.xtake("(")
	m.Headers = append(m.Headers, p.xastring())
	for p.space() {
		m.Headers = append(m.Headers, p.xastring())
	}
	p.xtake(")")
	return m
}

func (p *parser) xsectionSpec() *imapwire.SectionSpec {
	defer p.context("section-spec")()
	s := &imapwire.SectionSpec{}
	if p.peekc(']') {
		return s
	}
	if !digit(p.orig[p.o]) {
		s.Msgtext = p.xsectionMsgtext()
		return s
	}
	part := &imapwire.SectionPart{}
	part.Part = append(part.Part, p.xnznumber())
	for p.take(".") {
		if p.o < len(p.orig) && digit(p.orig[p.o]) {
			part.Part = append(part.Part, p.xnznumber())
			continue
		}
		text := &imapwire.SectionText{}
		if p.take("MIME") {
			text.MIME = true
		} else {
			text.Msgtext = p.xsectionMsgtext()
		}
		part.Text = text
		break
	}
	s.Part = part
	return s
}

func (p *parser) xsection() *imapwire.SectionSpec {
	p.xtake("[")
	s := p.xsectionSpec()
	p.xtake("]")
	return s
}

func (p *parser) xsectionBinary() []uint32 {
	p.xtake("[")
	nums := []uint32{}
	if !p.take("]") {
		nums = append(nums, p.xnznumber())
		for p.take(".") {
			nums = append(nums, p.xnznumber())
		}
		p.xtake("]")
	}
	return nums
}

func (p *parser) xpartial() *imapwire.Partial {
	p.xtake("<")
	offset := p.xnumber()
	p.xtake(".")
	count := p.xnznumber()
	p.xtake(">")
	return &imapwire.Partial{Offset: offset, Count: count}
}

// Fetch attributes.

func (p *parser) xfetchAtt() imapwire.FetchAtt {
	defer p.context("fetch-att")()
	f := imapwire.FetchAtt{}
	switch w := p.peekword(); w {
	case "ENVELOPE", "FLAGS", "INTERNALDATE", "BODYSTRUCTURE", "UID", "MODSEQ":
		p.xtake(w)
		f.Field = w
	case "RFC":
		if p.take("RFC822.SIZE") {
			f.Field = "RFC822.SIZE"
		} else if p.take("RFC822.HEADER") {
			f.Field = "RFC822.HEADER"
		} else if p.take("RFC822.TEXT") {
			f.Field = "RFC822.TEXT"
		} else {
			p.xtake("RFC822")
			f.Field = "RFC822"
		}
	case "BODY":
		p.xtake("BODY")
		f.Field = "BODY"
		f.Peek = p.take(".PEEK")
		if p.peekc('[') {
			f.Section = p.xsection()
			if p.peekc('<') {
				f.Partial = p.xpartial()
			}
		} else if f.Peek {
			p.xerrorf("BODY.PEEK requires a section")
		}
	case "BINARY":
		p.xtake("BINARY")
		f.Field = "BINARY"
		if p.take(".SIZE") {
			f.Field = "BINARY.SIZE"
			f.SectionBinary = p.xsectionBinary()
			return f
		}
		f.Peek = p.take(".PEEK")
		f.SectionBinary = p.xsectionBinary()
		if p.peekc('<') {
			f.Partial = p.xpartial()
		}
	default:
		p.xerrorf("expected fetch attribute")
	}
	return f
}

// xfetchAtts parses the attribute list of a FETCH command, expanding the
// ALL, FAST and FULL macros.
func (p *parser) xfetchAtts() []imapwire.FetchAtt {
	defer p.context("fetch-atts")()
	fa := func(s string) imapwire.FetchAtt { return imapwire.FetchAtt{Field: s} }
	if p.take("ALL") {
		return []imapwire.FetchAtt{fa("FLAGS"), fa("INTERNALDATE"), fa("RFC822.SIZE"), fa("ENVELOPE")}
	}
	if p.take("FULL") {
		return []imapwire.FetchAtt{fa("FLAGS"), fa("INTERNALDATE"), fa("RFC822.SIZE"), fa("ENVELOPE"), fa("BODY")}
	}
	if p.take("FAST") {
		return []imapwire.FetchAtt{fa("FLAGS"), fa("INTERNALDATE"), fa("RFC822.SIZE")}
	}
	if !p.take("(") {
		return []imapwire.FetchAtt{p.xfetchAtt()}
	}
	l := []imapwire.FetchAtt{p.xfetchAtt()}
	for p.space() {
		l = append(l, p.xfetchAtt())
	}
	p.xtake(")")
	return l
}

package imapparse

import (
	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// xrespCode parses a bracketed response code, brackets included.
func (p *parser) xrespCode() *Code {
	defer p.context("resp-code")()
	p.xtake("[")
	var c Code
	c.Name = upperASCII(p.xatom())
	switch c.Name {
	case "CAPABILITY":
		for p.space() {
			c.Caps = append(c.Caps, imapwire.Capability(p.xatom()))
		}

	case "PERMANENTFLAGS":
		p.xspace()
		p.xtake("(")
		for !p.peekc(')') {
			if len(c.Flags) > 0 {
				p.xspace()
			}
			// `\*` means clients may use new keywords.
			if p.take(`\*`) {
				c.Flags = append(c.Flags, imapwire.NewFlag(`\*`))
			} else {
				c.Flags = append(c.Flags, p.xflag())
			}
		}
		p.xtake(")")

	case "UIDNEXT", "UIDVALIDITY":
		p.xspace()
		c.Num = p.xnznumber()

	case "UNSEEN":
		p.xspace()
		c.Num = p.xnumber()

	case "HIGHESTMODSEQ":
		p.xspace()
		c.Num64 = p.xnznumber64()

	case "MODIFIED":
		p.xspace()
		c.Modified = p.xnumSet(false)

	case "BADCHARSET":
		if p.space() {
			p.xtake("(")
			for !p.peekc(')') {
				if len(c.BadCharsets) > 0 {
					p.xspace()
				}
				c.BadCharsets = append(c.BadCharsets, p.xastring())
			}
			p.xtake(")")
		}

	case "APPENDUID":
		p.xspace()
		c.DestUIDValidity = p.xnznumber()
		p.xspace()
		c.DestUIDs = p.xnumSet(false)

	case "COPYUID":
		p.xspace()
		c.DestUIDValidity = p.xnznumber()
		p.xspace()
		c.UIDs = p.xnumSet(false)
		p.xspace()
		c.DestUIDs = p.xnumSet(false)

	case "METADATA":
		// RFC 5464: METADATA LONGENTRIES n, METADATA MAXSIZE n,
		// METADATA TOOMANY, METADATA NOPRIVATE.
		p.xspace()
		w := p.peekword()
		switch w {
		case "LONGENTRIES", "MAXSIZE":
			p.xtake(w)
			p.xspace()
			c.Args = append(c.Args, w)
			c.Num64 = p.xnumber64()
		case "TOOMANY", "NOPRIVATE":
			p.xtake(w)
			c.Args = append(c.Args, w)
		default:
			p.xerrorf("unknown metadata code")
		}

	default:
		// Unknown codes keep their arguments as raw tokens.
		for p.space() {
			c.Args = append(c.Args, p.xtakefn1("code argument", func(ch byte, i int) bool {
				return ch > ' ' && ch < 0x7f && ch != ']'
			}))
		}
	}
	p.xtake("]")
	return &c
}

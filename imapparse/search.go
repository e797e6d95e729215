package imapparse

import (
	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// xsearchProgram parses the body of a SEARCH command: an optional RETURN
// options list (ESEARCH, RFC 4731), an optional CHARSET, then one or more
// keys that combine as AND.
func (p *parser) xsearchProgram(cmd *Command) {
	defer p.context("search-program")()
	if p.take("RETURN ") {
		cmd.SearchReturn = p.xsearchReturnOpts()
		p.xspace()
	}
	if p.take("CHARSET ") {
		cmd.Charset = upperASCII(p.xastring())
		if cmd.Charset != "US-ASCII" && cmd.Charset != "UTF-8" {
			p.xerrorf("unknown charset %q", cmd.Charset)
		}
		p.xspace()
	}
	sk := imapwire.SearchKey{SearchKeys: []imapwire.SearchKey{p.xsearchKey()}}
	for p.space() {
		sk.SearchKeys = append(sk.SearchKeys, p.xsearchKey())
	}
	cmd.SearchKey = &sk
}

func (p *parser) xsearchReturnOpts() []string {
	p.xtake("(")
	var opts []string
	for !p.take(")") {
		if len(opts) > 0 {
			p.xspace()
		}
		w := p.peekword()
		switch w {
		case "MIN", "MAX", "ALL", "COUNT", "SAVE":
			p.xtake(w)
			opts = append(opts, w)
		default:
			p.xerrorf("unknown search return option")
		}
	}
	return opts
}

func (p *parser) xsearchKey() imapwire.SearchKey {
	p.enter()
	defer p.leave()
	defer p.context("search-key")()

	if p.take("(") {
		sk := imapwire.SearchKey{SearchKeys: []imapwire.SearchKey{p.xsearchKey()}}
		for p.space() {
			sk.SearchKeys = append(sk.SearchKeys, p.xsearchKey())
		}
		p.xtake(")")
		return sk
	}

	w := p.peekword()
	switch w {
	case "":
		// Not a keyword: a bare sequence set ("2:4,7" or "$").
		s := p.xnumSet(true)
		return imapwire.SearchKey{SeqSet: &s}
	case "ALL", "ANSWERED", "DELETED", "FLAGGED", "NEW", "OLD", "RECENT", "SEEN",
		"UNANSWERED", "UNDELETED", "UNFLAGGED", "UNSEEN", "DRAFT", "UNDRAFT":
		p.xtake(w)
		return imapwire.SearchKey{Op: w}
	case "BCC", "BODY", "CC", "FROM", "SUBJECT", "TEXT", "TO":
		p.xtake(w)
		p.xspace()
		return imapwire.SearchKey{Op: w, AString: p.xastring()}
	case "KEYWORD", "UNKEYWORD":
		p.xtake(w)
		p.xspace()
		return imapwire.SearchKey{Op: w, Atom: p.xflag().String()}
	case "BEFORE", "ON", "SINCE", "SENTBEFORE", "SENTON", "SENTSINCE":
		p.xtake(w)
		p.xspace()
		return imapwire.SearchKey{Op: w, Date: p.xdate()}
	case "HEADER":
		p.xtake(w)
		p.xspace()
		field := p.xastring()
		p.xspace()
		return imapwire.SearchKey{Op: w, HeaderField: field, AString: p.xastring()}
	case "LARGER", "SMALLER", "OLDER", "YOUNGER":
		p.xtake(w)
		p.xspace()
		return imapwire.SearchKey{Op: w, Number: p.xnznumber64()}
	case "NOT":
		p.xtake(w)
		p.xspace()
		sk := p.xsearchKey()
		return imapwire.SearchKey{Op: w, SearchKey: &sk}
	case "OR":
		p.xtake(w)
		p.xspace()
		sk1 := p.xsearchKey()
		p.xspace()
		sk2 := p.xsearchKey()
		return imapwire.SearchKey{Op: w, SearchKey: &sk1, SearchKey2: &sk2}
	case "UID":
		p.xtake(w)
		p.xspace()
		return imapwire.SearchKey{Op: w, UIDSet: p.xnumSet(true)}
	case "MODSEQ":
		// CONDSTORE, RFC 7162. The optional entry name and type only
		// restrict which modseq is compared; we parse and drop them.
		p.xtake(w)
		p.xspace()
		if p.peekc('"') {
			p.xquoted()
			p.xspace()
			t := p.peekword()
			switch t {
			case "PRIV", "SHARED", "ALL":
				p.xtake(t)
			default:
				p.xerrorf("expected modseq entry type")
			}
			p.xspace()
		}
		v := p.xnumber64()
		return imapwire.SearchKey{Op: w, ClientModseq: &v}
	default:
		// Keywords can be a prefix of a sequence set only when they are
		// not letters, so an unknown word is an error.
		p.xerrorf("unknown search key %q", w)
		panic("not reached")
	}
}

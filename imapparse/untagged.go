package imapparse

import (
	"github.com/apple/swift-nio-imap-sub005/imapframe"
	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// xuntagged parses an untagged response after the "* " prefix and appends
// the resulting events to pending.
func (r *ResponseReader) xuntagged(p *parser, f imapframe.Line) {
	defer p.context("untagged")()

	if p.o < len(p.orig) && digit(p.orig[p.o]) {
		num := p.xnumber()
		p.xspace()
		w := p.peekword()
		switch w {
		case "EXISTS", "RECENT", "EXPUNGE":
			p.xtake(w)
			p.xcrlfEmpty()
			metricUntagged.WithLabelValues(w).Inc()
			switch w {
			case "EXISTS":
				r.pending = append(r.pending, EventUntagged{UntaggedExists(num)})
			case "RECENT":
				r.pending = append(r.pending, EventUntagged{UntaggedRecent(num)})
			case "EXPUNGE":
				r.pending = append(r.pending, EventUntagged{UntaggedExpunge(num)})
			}
		case "FETCH":
			p.xtake(w)
			metricUntagged.WithLabelValues(w).Inc()
			p.xspace()
			p.xtake("(")
			r.xfetchAttrs(p, f, num, false)
		default:
			p.xerrorf("unknown numbered untagged response")
		}
		return
	}

	w := p.peekword()
	switch w {
	case "OK", "NO", "BAD", "BYE", "PREAUTH":
		p.xtake(w)
		var res UntaggedResult
		res.Status = Status(w)
		res.Code, res.Text = p.xrespText()
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{res})

	case "CAPABILITY", "ENABLED":
		p.xtake(w)
		var caps []imapwire.Capability
		for p.space() {
			caps = append(caps, imapwire.Capability(p.xatom()))
		}
		p.xcrlfEmpty()
		if w == "CAPABILITY" {
			r.pend(w, EventUntagged{UntaggedCapability(caps)})
		} else {
			r.pend(w, EventUntagged{UntaggedEnabled(caps)})
		}

	case "FLAGS":
		p.xtake(w)
		p.xspace()
		flags := p.xflagList()
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{UntaggedFlags(flags)})

	case "LIST", "LSUB":
		p.xtake(w)
		u := UntaggedList{Lsub: w == "LSUB"}
		p.xspace()
		p.xtake("(")
		for !p.peekc(')') {
			if len(u.Flags) > 0 {
				p.xspace()
			}
			u.Flags = append(u.Flags, p.xflag())
		}
		p.xtake(")")
		p.xspace()
		if !p.take("NIL") {
			s := p.xquoted()
			if len(s) != 1 {
				p.xerrorf("hierarchy separator must be a single char")
			}
			u.Separator = s[0]
		}
		p.xspace()
		u.Mailbox = p.xmailbox()
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	case "STATUS":
		p.xtake(w)
		p.xspace()
		u := UntaggedStatus{Mailbox: p.xmailbox(), Attrs: map[string]int64{}}
		p.xspace()
		p.xtake("(")
		for !p.peekc(')') {
			if len(u.Attrs) > 0 {
				p.xspace()
			}
			name := upperASCII(p.xatom())
			p.xspace()
			if p.take("NIL") {
				// RFC 7889 allows "APPENDLIMIT NIL" for unlimited.
				u.Attrs[name] = -1
			} else {
				u.Attrs[name] = p.xnumber64()
			}
		}
		p.xtake(")")
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	case "SEARCH":
		p.xtake(w)
		var u UntaggedSearch
		for p.space() {
			if p.take("(") {
				p.xtake("MODSEQ ")
				u.ModSeq = p.xnznumber64()
				p.xtake(")")
				break
			}
			u.Nums = append(u.Nums, p.xnznumber())
		}
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	case "ESEARCH":
		p.xtake(w)
		u := p.xesearch()
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	case "VANISHED":
		p.xtake(w)
		p.xspace()
		var u UntaggedVanished
		if p.take("(EARLIER) ") {
			u.Earlier = true
		}
		u.UIDs = p.xnumSet(false)
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	case "METADATA":
		p.xtake(w)
		p.xspace()
		u := UntaggedMetadata{Mailbox: p.xmailbox()}
		p.xspace()
		if p.take("(") {
			for {
				e := MetadataEntry{Name: p.xmetadataKey()}
				p.xspace()
				if p.take("NIL") {
					e.IsNil = true
				} else {
					e.Value = []byte(p.xstring())
				}
				u.Entries = append(u.Entries, e)
				if !p.space() {
					break
				}
			}
			p.xtake(")")
		} else {
			for {
				u.Entries = append(u.Entries, MetadataEntry{Name: p.xmetadataKey()})
				if !p.space() {
					break
				}
			}
		}
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	case "ID":
		p.xtake(w)
		p.xspace()
		var u UntaggedID
		if !p.take("NIL") {
			p.xtake("(")
			u = UntaggedID{}
			for !p.take(")") {
				if len(u) > 0 {
					p.xspace()
				}
				k := p.xstring()
				p.xspace()
				u = append(u, [2]string{k, p.xnilString()})
			}
		}
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	case "GENURLAUTH":
		p.xtake(w)
		var u UntaggedGenURLAuth
		for p.space() {
			u = append(u, p.xastring())
		}
		if len(u) == 0 {
			p.xerrorf("genurlauth without urls")
		}
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	case "URLFETCH":
		p.xtake(w)
		var u UntaggedURLFetch
		for p.space() {
			res := URLFetchResult{URL: p.xastring()}
			p.xspace()
			if !p.take("NIL") {
				res.Body = []byte(p.xstring())
			}
			u = append(u, res)
		}
		if len(u) == 0 {
			p.xerrorf("urlfetch without urls")
		}
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	case "NAMESPACE":
		p.xtake(w)
		var u UntaggedNamespace
		p.xspace()
		u.Personal = p.xnamespace()
		p.xspace()
		u.Other = p.xnamespace()
		p.xspace()
		u.Shared = p.xnamespace()
		p.xcrlfEmpty()
		r.pend(w, EventUntagged{u})

	default:
		p.xerrorf("unknown untagged response")
	}
}

func (r *ResponseReader) pend(word string, ev Event) {
	metricUntagged.WithLabelValues(word).Inc()
	r.pending = append(r.pending, ev)
}

// xfetchAttrs parses fetch attributes from the current position to the
// closing paren, or up to a streamed value. With resumed set, parsing
// continues right after a streamed value, so the next token is the closing
// paren or the separator before another attribute.
func (r *ResponseReader) xfetchAttrs(p *parser, f imapframe.Line, seq uint32, resumed bool) {
	var attrs []MsgAtt
	first := !resumed
	for {
		if !first {
			if p.take(")") {
				p.xcrlfEmpty()
				break
			}
			p.xspace()
		}
		first = false
		a := p.xmsgatt(f.Literal)
		if a.Streamed {
			r.fetching = true
			r.fetchSeq = seq
			r.pending = append(r.pending, EventFetchBegin{Seq: seq, Attrs: attrs, StreamingAtt: a})
			return
		}
		attrs = append(attrs, a)
	}
	if resumed {
		r.fetching = false
		r.pending = append(r.pending, EventFetchEnd{Attrs: attrs})
	} else {
		r.pending = append(r.pending, EventUntagged{UntaggedFetch{Seq: seq, Attrs: attrs}})
	}
}

// xfetchRemainder resumes an untagged FETCH after a streamed value.
func (r *ResponseReader) xfetchRemainder(p *parser, f imapframe.Line) {
	r.xfetchAttrs(p, f, r.fetchSeq, true)
}

func (p *parser) xesearch() UntaggedEsearch {
	defer p.context("esearch")()
	var u UntaggedEsearch
	if p.take(" (TAG ") {
		u.Tag = p.xstring()
		p.xtake(")")
	}
	if p.take(" UID") {
		u.UID = true
	}
	for p.space() {
		w := p.peekword()
		switch w {
		case "MIN":
			p.xtake(w)
			p.xspace()
			u.Min = p.xnznumber()
		case "MAX":
			p.xtake(w)
			p.xspace()
			u.Max = p.xnznumber()
		case "COUNT":
			p.xtake(w)
			p.xspace()
			v := p.xnumber()
			u.Count = &v
		case "ALL":
			p.xtake(w)
			p.xspace()
			u.All = p.xnumSet(false)
		case "MODSEQ":
			p.xtake(w)
			p.xspace()
			u.ModSeq = p.xnznumber64()
		default:
			p.xerrorf("unknown esearch item")
		}
	}
	return u
}

func (p *parser) xnamespace() []NamespaceDescr {
	if p.take("NIL") {
		return nil
	}
	p.xtake("(")
	var l []NamespaceDescr
	for !p.take(")") {
		p.xtake("(")
		var d NamespaceDescr
		d.Prefix = p.xstring()
		p.xspace()
		if !p.take("NIL") {
			s := p.xquoted()
			if len(s) != 1 {
				p.xerrorf("hierarchy separator must be a single char")
			}
			d.Separator = s[0]
		}
		// Namespace extensions are rare; drop them.
		for p.space() {
			p.xskipExtValue()
		}
		p.xtake(")")
		l = append(l, d)
	}
	return l
}

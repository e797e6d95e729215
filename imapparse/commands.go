package imapparse

import (
	"github.com/apple/swift-nio-imap-sub005/imapframe"
	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// xcommand parses a full command line. Commands that change the read mode
// (IDLE, AUTHENTICATE, APPEND with a streamed payload) flip the reader's
// state here, after their line parsed successfully.
func (r *CommandReader) xcommand(p *parser, f imapframe.Line) *Command {
	var cmd Command
	cmd.Tag = p.xtag()
	p.xspace()
	name := p.xatom()
	cmd.Name = upperASCII(name)
	if cmd.Name == "UID" {
		p.xspace()
		w := upperASCII(p.xatom())
		switch w {
		case "EXPUNGE", "SEARCH", "FETCH", "STORE", "COPY", "MOVE":
			cmd.Name = "UID " + w
		default:
			p.xerrorf("unknown uid command %q", w)
		}
	}
	defer p.context(cmd.Name)()

	// Streamed literals are only meaningful as APPEND message payloads.
	if f.Literal != nil && cmd.Name != "APPEND" {
		p.xerrorf("streamed literal not allowed in %s", cmd.Name)
	}

	switch cmd.Name {
	case "CAPABILITY", "NOOP", "LOGOUT", "STARTTLS", "CHECK", "CLOSE", "UNSELECT", "EXPUNGE", "NAMESPACE":
		p.xcrlfEmpty()

	case "IDLE":
		p.xcrlfEmpty()
		r.idle = true

	case "LOGIN":
		p.xspace()
		cmd.Username = p.xastring()
		p.xspace()
		cmd.Password = p.xastring()
		p.xcrlfEmpty()

	case "AUTHENTICATE":
		p.xspace()
		cmd.AuthMech = upperASCII(p.xatom())
		if p.space() {
			// SASL-IR, RFC 4959. "=" is the empty initial response.
			cmd.AuthInitial = p.xtakefn1("initial response", func(c byte, i int) bool {
				return alpha(c) || digit(c) || c == '+' || c == '/' || c == '='
			})
		}
		p.xcrlfEmpty()
		r.auth = true

	case "SELECT", "EXAMINE":
		p.xspace()
		cmd.Mailbox = p.xmailbox()
		if p.space() {
			p.xselectParams(&cmd)
		}
		p.xcrlfEmpty()

	case "CREATE", "DELETE", "SUBSCRIBE", "UNSUBSCRIBE":
		p.xspace()
		cmd.Mailbox = p.xmailbox()
		p.xcrlfEmpty()

	case "RENAME":
		p.xspace()
		cmd.Mailbox = p.xmailbox()
		p.xspace()
		cmd.DestMailbox = p.xmailbox()
		p.xcrlfEmpty()

	case "LIST", "LSUB":
		p.xspace()
		cmd.ListRef = p.xmailbox()
		p.xspace()
		cmd.ListPattern = p.xlistMailbox()
		p.xcrlfEmpty()

	case "STATUS":
		p.xspace()
		cmd.Mailbox = p.xmailbox()
		p.xspace()
		p.xtake("(")
		for {
			w := upperASCII(p.xatom())
			switch w {
			case "MESSAGES", "RECENT", "UIDNEXT", "UIDVALIDITY", "UNSEEN", "HIGHESTMODSEQ", "APPENDLIMIT", "DELETED", "SIZE":
				cmd.StatusAttrs = append(cmd.StatusAttrs, w)
			default:
				p.xerrorf("unknown status attribute %q", w)
			}
			if !p.space() {
				break
			}
		}
		p.xtake(")")
		p.xcrlfEmpty()

	case "APPEND":
		p.xspace()
		cmd.Mailbox = p.xmailbox()
		for {
			p.xspace()
			msg := p.xappendMessage(f.Literal)
			cmd.Messages = append(cmd.Messages, msg)
			if msg.Streamed {
				r.appending = true
				return &cmd
			}
			if p.take("\r\n") || p.take("\n") {
				p.xempty()
				break
			}
		}

	case "ENABLE":
		p.xspace()
		cmd.Capabilities = append(cmd.Capabilities, imapwire.Capability(p.xatom()))
		for p.space() {
			cmd.Capabilities = append(cmd.Capabilities, imapwire.Capability(p.xatom()))
		}
		p.xcrlfEmpty()

	case "ID":
		p.xspace()
		if !p.take("NIL") {
			p.xtake("(")
			cmd.IDParams = [][2]string{}
			for !p.take(")") {
				if len(cmd.IDParams) > 0 {
					p.xspace()
				}
				k := p.xstring()
				p.xspace()
				cmd.IDParams = append(cmd.IDParams, [2]string{k, p.xnilString()})
			}
		}
		p.xcrlfEmpty()

	case "SEARCH", "UID SEARCH":
		p.xspace()
		p.xsearchProgram(&cmd)
		p.xcrlfEmpty()

	case "FETCH", "UID FETCH":
		p.xspace()
		cmd.SeqSet = p.xnumSet(true)
		p.xspace()
		cmd.FetchAtts = p.xfetchAtts()
		if p.space() {
			p.xfetchModifiers(&cmd)
		}
		p.xcrlfEmpty()

	case "STORE", "UID STORE":
		p.xspace()
		cmd.SeqSet = p.xnumSet(true)
		p.xspace()
		if p.take("(") {
			p.xtake("UNCHANGEDSINCE ")
			v := p.xnumber64()
			cmd.UnchangedSince = &v
			p.xtake(")")
			p.xspace()
		}
		if p.take("+") {
			cmd.StoreAction = "+"
		} else if p.take("-") {
			cmd.StoreAction = "-"
		}
		p.xtake("FLAGS")
		cmd.StoreSilent = p.take(".SILENT")
		p.xspace()
		if p.peekc('(') {
			cmd.StoreFlags = p.xflagList()
		} else {
			cmd.StoreFlags = append(cmd.StoreFlags, p.xflag())
			for p.space() {
				cmd.StoreFlags = append(cmd.StoreFlags, p.xflag())
			}
		}
		p.xcrlfEmpty()

	case "COPY", "UID COPY", "MOVE", "UID MOVE":
		p.xspace()
		cmd.SeqSet = p.xnumSet(true)
		p.xspace()
		cmd.DestMailbox = p.xmailbox()
		p.xcrlfEmpty()

	case "UID EXPUNGE":
		p.xspace()
		cmd.SeqSet = p.xnumSet(false)
		p.xcrlfEmpty()

	case "GETMETADATA":
		p.xspace()
		if p.peekc('(') {
			p.xmetadataOptions(&cmd)
			p.xspace()
		}
		cmd.Mailbox = p.xmailbox()
		p.xspace()
		if p.take("(") {
			for {
				cmd.MetadataEntries = append(cmd.MetadataEntries, MetadataEntry{Name: p.xmetadataKey()})
				if !p.space() {
					break
				}
			}
			p.xtake(")")
		} else {
			cmd.MetadataEntries = append(cmd.MetadataEntries, MetadataEntry{Name: p.xmetadataKey()})
		}
		p.xcrlfEmpty()

	case "SETMETADATA":
		p.xspace()
		cmd.Mailbox = p.xmailbox()
		p.xspace()
		p.xtake("(")
		for {
			e := MetadataEntry{Name: p.xmetadataKey()}
			p.xspace()
			if p.take("NIL") {
				e.IsNil = true
			} else {
				e.Value = []byte(p.xstring())
			}
			cmd.MetadataEntries = append(cmd.MetadataEntries, e)
			if !p.space() {
				break
			}
		}
		p.xtake(")")
		p.xcrlfEmpty()

	case "GENURLAUTH":
		p.xspace()
		for {
			u := GenURLAuth{URL: p.xastring()}
			p.xspace()
			u.Mechanism = upperASCII(p.xatom())
			cmd.URLs = append(cmd.URLs, u)
			if !p.space() {
				break
			}
		}
		p.xcrlfEmpty()

	case "URLFETCH":
		p.xspace()
		for {
			cmd.URLs = append(cmd.URLs, GenURLAuth{URL: p.xastring()})
			if !p.space() {
				break
			}
		}
		p.xcrlfEmpty()

	case "RESETKEY":
		if p.space() {
			cmd.Mailbox = p.xmailbox()
			for p.space() {
				cmd.ResetMechs = append(cmd.ResetMechs, upperASCII(p.xatom()))
			}
		}
		p.xcrlfEmpty()

	default:
		p.xerrorf("unknown command %q", name)
	}
	return &cmd
}

// xappendMessage parses one APPEND message: optional flag list, optional
// date-time, then the payload literal. With streamed set (the frame ends
// at a literal header), the header must be the last token of the line.
func (p *parser) xappendMessage(streamed *imapwire.Literal) AppendMessage {
	defer p.context("append-message")()
	var msg AppendMessage
	if p.peekc('(') {
		msg.Flags = p.xflagList()
		p.xspace()
	}
	if p.peekc('"') {
		t := p.xdateTime()
		msg.InternalDate = &t
		p.xspace()
	}
	if streamed != nil && p.o+len(streamed.String())+2 >= len(p.orig) {
		// The announced streamed literal is this message's payload.
		p.o = len(p.orig)
		msg.Literal = *streamed
		msg.Streamed = true
		return msg
	}
	tok := p.takefn(func(c byte, i int) bool {
		return c == '~' && i == 0 || c == '{' || c == '}' || c == '+' || c == '-' || digit(c)
	})
	lit, err := imapwire.ParseLiteral([]byte(tok))
	if err != nil {
		p.xerrorf("expected literal message: %s", err)
	}
	p.take("\r")
	p.xtake("\n")
	msg.Literal = lit
	msg.Data = []byte(p.xtaken(int(lit.Size)))
	return msg
}

func (p *parser) xselectParams(cmd *Command) {
	defer p.context("select-params")()
	p.xtake("(")
	for {
		w := p.peekword()
		switch w {
		case "CONDSTORE":
			p.xtake(w)
			cmd.Condstore = true
		case "QRESYNC":
			p.xtake(w)
			p.xspace()
			p.xtake("(")
			q := Qresync{UIDValidity: p.xnznumber()}
			p.xspace()
			q.ModSeq = p.xnznumber64()
			if p.space() {
				if !p.peekc('(') {
					s := p.xnumSet(false)
					q.KnownUIDs = &s
					if p.space() {
						p.xqresyncSeqMatch(&q)
					}
				} else {
					p.xqresyncSeqMatch(&q)
				}
			}
			p.xtake(")")
			cmd.Qresync = &q
		default:
			p.xerrorf("unknown select parameter")
		}
		if !p.space() {
			break
		}
	}
	p.xtake(")")
}

func (p *parser) xqresyncSeqMatch(q *Qresync) {
	p.xtake("(")
	m := QresyncSeqMatch{Seqs: p.xnumSet(false)}
	p.xspace()
	m.UIDs = p.xnumSet(false)
	p.xtake(")")
	q.SeqMatch = &m
}

func (p *parser) xfetchModifiers(cmd *Command) {
	defer p.context("fetch-modifiers")()
	p.xtake("(")
	for {
		w := p.peekword()
		switch w {
		case "CHANGEDSINCE":
			p.xtake(w)
			p.xspace()
			cmd.ChangedSince = p.xnznumber64()
		case "VANISHED":
			p.xtake(w)
			cmd.Vanished = true
		default:
			p.xerrorf("unknown fetch modifier")
		}
		if !p.space() {
			break
		}
	}
	p.xtake(")")
	if cmd.Vanished && cmd.ChangedSince == 0 {
		p.xerrorf("vanished requires changedsince")
	}
}

// xlistMailbox is the pattern argument of LIST/LSUB: like an astring but
// with the list wildcards allowed in the atom form.
func (p *parser) xlistMailbox() string {
	if p.peekc('"') || p.peekc('{') {
		return p.xstring()
	}
	return p.xtakefn1("list-mailbox", func(c byte, i int) bool {
		return astringChar(c) || c == '%' || c == '*'
	})
}

// xmetadataKey is a metadata entry name (RFC 5464): an astring that must
// start with a slash; "/private/..." or "/shared/...".
func (p *parser) xmetadataKey() string {
	s := p.xastring()
	if len(s) == 0 || s[0] != '/' {
		p.xerrorf("metadata entry name must start with /")
	}
	return s
}

func (p *parser) xmetadataOptions(cmd *Command) {
	defer p.context("metadata-options")()
	p.xtake("(")
	for {
		w := p.peekword()
		switch w {
		case "MAXSIZE":
			p.xtake(w)
			p.xspace()
			v := p.xnumber64()
			cmd.MetadataMaxSize = &v
		case "DEPTH":
			p.xtake(w)
			p.xspace()
			if p.take("INFINITY") {
				cmd.MetadataDepth = "INFINITY"
			} else if p.take("1") {
				cmd.MetadataDepth = "1"
			} else if p.take("0") {
				cmd.MetadataDepth = "0"
			} else {
				p.xerrorf("bad depth")
			}
		default:
			p.xerrorf("unknown metadata option")
		}
		if !p.space() {
			break
		}
	}
	p.xtake(")")
}

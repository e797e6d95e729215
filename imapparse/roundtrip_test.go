package imapparse

import (
	"testing"
	"time"

	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// xparse runs fn on a parser over s and requires all input be consumed.
func xparse(t *testing.T, s string, fn func(p *parser)) {
	t.Helper()
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		perr, ok := x.(parseError)
		if !ok {
			panic(x)
		}
		t.Fatalf("parsing %q: %v", s, perr.err)
	}()
	p := newParser(s, imapwire.DefaultLimits)
	fn(p)
	if !p.empty() {
		t.Fatalf("parsing %q: %q left", s, s[p.o:])
	}
}

// Values written by the encoder must parse back and encode to the same
// bytes.
func TestRoundtripSearchKey(t *testing.T) {
	check := func(sk imapwire.SearchKey) {
		t.Helper()
		var e imapwire.Encoder
		e.WriteSearchKey(sk)
		wire := string(e.Bytes())

		var back imapwire.SearchKey
		xparse(t, wire, func(p *parser) { back = p.xsearchKey() })

		e.Reset()
		e.WriteSearchKey(back)
		if got := string(e.Bytes()); got != wire {
			t.Errorf("got %q, expected %q", got, wire)
		}
	}

	date := func(s string) time.Time {
		t.Helper()
		var d time.Time
		xparse(t, s, func(p *parser) { d = p.xdate() })
		return d
	}

	seqset := func(s string) *imapwire.NumSet {
		t.Helper()
		var ns imapwire.NumSet
		xparse(t, s, func(p *parser) { ns = p.xnumSet(true) })
		return &ns
	}

	modseq := int64(725162500)

	check(imapwire.SearchKey{Op: "ALL"})
	check(imapwire.SearchKey{Op: "UNSEEN"})
	check(imapwire.SearchKey{SeqSet: seqset("2:4,7,9:*")})
	check(imapwire.SearchKey{SeqSet: seqset("$")})
	check(imapwire.SearchKey{Op: "FROM", AString: "smith"})
	check(imapwire.SearchKey{Op: "SUBJECT", AString: "hello world"})
	check(imapwire.SearchKey{Op: "KEYWORD", Atom: `$Forwarded`})
	check(imapwire.SearchKey{Op: "UNKEYWORD", Atom: `\Flagged`})
	check(imapwire.SearchKey{Op: "SINCE", Date: date("1-Feb-1994")})
	check(imapwire.SearchKey{Op: "HEADER", HeaderField: "Message-ID", AString: "<x@y>"})
	check(imapwire.SearchKey{Op: "LARGER", Number: 50000})
	check(imapwire.SearchKey{Op: "YOUNGER", Number: 3600})
	check(imapwire.SearchKey{Op: "UID", UIDSet: *seqset("1:100,300")})
	check(imapwire.SearchKey{Op: "MODSEQ", ClientModseq: &modseq})
	check(imapwire.SearchKey{
		Op:        "NOT",
		SearchKey: &imapwire.SearchKey{Op: "DELETED"},
	})
	check(imapwire.SearchKey{
		Op:         "OR",
		SearchKey:  &imapwire.SearchKey{Op: "FROM", AString: "a"},
		SearchKey2: &imapwire.SearchKey{SearchKeys: []imapwire.SearchKey{{Op: "SEEN"}, {Op: "FLAGGED"}}},
	})
	check(imapwire.SearchKey{SearchKeys: []imapwire.SearchKey{
		{Op: "SINCE", Date: date("14-Aug-2022")},
		{Op: "NOT", SearchKey: &imapwire.SearchKey{Op: "TEXT", AString: "spam"}},
	}})
}

func TestRoundtripSection(t *testing.T) {
	check := func(s *imapwire.SectionSpec) {
		t.Helper()
		var e imapwire.Encoder
		e.WriteSection(s)
		wire := string(e.Bytes())

		var back *imapwire.SectionSpec
		xparse(t, wire, func(p *parser) { back = p.xsection() })

		e.Reset()
		e.WriteSection(back)
		if got := string(e.Bytes()); got != wire {
			t.Errorf("got %q, expected %q", got, wire)
		}
	}

	check(&imapwire.SectionSpec{})
	check(&imapwire.SectionSpec{Msgtext: &imapwire.SectionMsgtext{S: "HEADER"}})
	check(&imapwire.SectionSpec{Msgtext: &imapwire.SectionMsgtext{S: "TEXT"}})
	check(&imapwire.SectionSpec{Msgtext: &imapwire.SectionMsgtext{S: "HEADER.FIELDS", Headers: []string{"DATE", "FROM"}}})
	check(&imapwire.SectionSpec{Msgtext: &imapwire.SectionMsgtext{S: "HEADER.FIELDS.NOT", Headers: []string{"RECEIVED"}}})
	check(&imapwire.SectionSpec{Part: &imapwire.SectionPart{Part: []uint32{1, 2, 3}}})
	check(&imapwire.SectionSpec{Part: &imapwire.SectionPart{Part: []uint32{4}, Text: &imapwire.SectionText{MIME: true}}})
	check(&imapwire.SectionSpec{Part: &imapwire.SectionPart{
		Part: []uint32{2, 1},
		Text: &imapwire.SectionText{Msgtext: &imapwire.SectionMsgtext{S: "HEADER.FIELDS", Headers: []string{"Subject"}}},
	}})
}

func TestRoundtripFetchAtt(t *testing.T) {
	check := func(f imapwire.FetchAtt) {
		t.Helper()
		var e imapwire.Encoder
		e.WriteFetchAtt(f)
		wire := string(e.Bytes())

		var back imapwire.FetchAtt
		xparse(t, wire, func(p *parser) { back = p.xfetchAtt() })

		e.Reset()
		e.WriteFetchAtt(back)
		if got := string(e.Bytes()); got != wire {
			t.Errorf("got %q, expected %q", got, wire)
		}
	}

	check(imapwire.FetchAtt{Field: "FLAGS"})
	check(imapwire.FetchAtt{Field: "ENVELOPE"})
	check(imapwire.FetchAtt{Field: "BODYSTRUCTURE"})
	check(imapwire.FetchAtt{Field: "RFC822.SIZE"})
	check(imapwire.FetchAtt{Field: "UID"})
	check(imapwire.FetchAtt{Field: "MODSEQ"})
	check(imapwire.FetchAtt{Field: "BODY", Section: &imapwire.SectionSpec{}})
	check(imapwire.FetchAtt{Field: "BODY", Peek: true, Section: &imapwire.SectionSpec{Msgtext: &imapwire.SectionMsgtext{S: "HEADER"}}})
	check(imapwire.FetchAtt{
		Field:   "BODY",
		Peek:    true,
		Section: &imapwire.SectionSpec{Msgtext: &imapwire.SectionMsgtext{S: "HEADER.FIELDS", Headers: []string{"DATE", "FROM"}}},
		Partial: &imapwire.Partial{Offset: 0, Count: 100},
	})
	check(imapwire.FetchAtt{Field: "BINARY", SectionBinary: []uint32{}})
	check(imapwire.FetchAtt{Field: "BINARY", Peek: true, SectionBinary: []uint32{1, 2}, Partial: &imapwire.Partial{Offset: 4096, Count: 4096}})
	check(imapwire.FetchAtt{Field: "BINARY.SIZE", SectionBinary: []uint32{3}})
}

func TestRoundtripEnvelope(t *testing.T) {
	check := func(env *imapwire.Envelope) {
		t.Helper()
		var e imapwire.Encoder
		e.WriteEnvelope(env)
		wire := string(e.Bytes())

		var back *imapwire.Envelope
		xparse(t, wire, func(p *parser) { back = p.xenvelope() })

		e.Reset()
		e.WriteEnvelope(back)
		if got := string(e.Bytes()); got != wire {
			t.Errorf("got %q, expected %q", got, wire)
		}
	}

	check(&imapwire.Envelope{})
	check(&imapwire.Envelope{
		Date:    "Wed, 17 Jul 1996 02:23:25 -0700",
		Subject: "mtg minutes",
		From:    []imapwire.Address{{Name: "Terry Gray", Mailbox: "gray", Host: "cac.washington.edu"}},
		To: []imapwire.Address{
			{Mailbox: "imap", Host: "cac.washington.edu"},
			{Name: "J. Q. Public", Mailbox: "jqp", Host: "example.org"},
		},
		MessageID: "<B27397-0100000@cac.washington.edu>",
	})
}

func TestRoundtripFlagsAndSets(t *testing.T) {
	var e imapwire.Encoder
	flags := []imapwire.Flag{imapwire.FlagSeen, imapwire.NewFlag("$Forwarded"), imapwire.FlagDeleted}
	e.WriteFlags(flags)
	wire := string(e.Bytes())
	var back []imapwire.Flag
	xparse(t, wire, func(p *parser) { back = p.xflagList() })
	e.Reset()
	e.WriteFlags(back)
	if got := string(e.Bytes()); got != wire {
		t.Errorf("got %q, expected %q", got, wire)
	}

	for _, s := range []string{"1", "*", "1:*", "1,*", "2:4,7,9:*", "$"} {
		var ns imapwire.NumSet
		xparse(t, s, func(p *parser) { ns = p.xnumSet(true) })
		if ns.String() != s {
			t.Errorf("got %q, expected %q", ns.String(), s)
		}
	}

	for _, s := range []string{`"17-Jul-1996 02:44:25 -0700"`, `" 2-Jan-2006 15:04:05 +0100"`} {
		var e imapwire.Encoder
		xparse(t, s, func(p *parser) { e.WriteDateTime(p.xdateTime()) })
		if got := string(e.Bytes()); got != s {
			t.Errorf("got %q, expected %q", got, s)
		}
	}
}

package imapparse

import (
	"errors"
	"strings"
	"testing"

	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

func rcollect(t *testing.T, r *ResponseReader, input string) []Event {
	t.Helper()
	if _, err := r.Write([]byte(input)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var evs []Event
	for {
		ev, c, err := r.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if ev != nil {
			evs = append(evs, ev)
			continue
		}
		if c == 0 {
			return evs
		}
	}
}

func parseUntagged(t *testing.T, line string) any {
	t.Helper()
	r := NewResponseReader(imapwire.DefaultLimits)
	evs := rcollect(t, r, line)
	if len(evs) != 1 {
		t.Fatalf("got %d events for %q, expected 1", len(evs), line)
	}
	eu, ok := evs[0].(EventUntagged)
	if !ok {
		t.Fatalf("got %T for %q, expected EventUntagged", evs[0], line)
	}
	return eu.Untagged
}

func TestResponseBasics(t *testing.T) {
	r := NewResponseReader(imapwire.DefaultLimits)

	evs := rcollect(t, r, "* OK [CAPABILITY IMAP4rev1 LITERAL+ IDLE] server ready\r\n")
	u := evs[0].(EventUntagged).Untagged.(UntaggedResult)
	if u.Status != OK || u.Code == nil || u.Code.Name != "CAPABILITY" || len(u.Code.Caps) != 3 {
		t.Fatalf("got %+v", u)
	}
	if u.Text != "server ready" {
		t.Fatalf("text %q", u.Text)
	}

	evs = rcollect(t, r, "a1 NO [ALERT] out of disk\r\n")
	res := evs[0].(EventResult).Result
	if res.Tag != "a1" || res.Status != NO || res.Code.Name != "ALERT" || res.Text != "out of disk" {
		t.Fatalf("got %+v", res)
	}

	evs = rcollect(t, r, "+ go ahead\r\n+\r\n")
	if evs[0].(EventContinuation).Text != "go ahead" || evs[1].(EventContinuation).Text != "" {
		t.Fatalf("got %+v", evs)
	}

	if v := parseUntagged(t, "* 23 EXISTS\r\n"); v.(UntaggedExists) != 23 {
		t.Fatalf("got %+v", v)
	}
	if v := parseUntagged(t, "* 5 RECENT\r\n"); v.(UntaggedRecent) != 5 {
		t.Fatalf("got %+v", v)
	}
	if v := parseUntagged(t, "* 44 EXPUNGE\r\n"); v.(UntaggedExpunge) != 44 {
		t.Fatalf("got %+v", v)
	}
	if v := parseUntagged(t, "* FLAGS (\\Answered \\Seen $Forwarded)\r\n"); len(v.(UntaggedFlags)) != 3 {
		t.Fatalf("got %+v", v)
	}
	if v := parseUntagged(t, "* BYE shutting down\r\n"); v.(UntaggedResult).Status != BYE {
		t.Fatalf("got %+v", v)
	}
	if v := parseUntagged(t, "* ENABLED QRESYNC\r\n"); len(v.(UntaggedEnabled)) != 1 {
		t.Fatalf("got %+v", v)
	}
}

func TestResponseCodes(t *testing.T) {
	code := func(line string) *Code {
		t.Helper()
		u := parseUntagged(t, line).(UntaggedResult)
		if u.Code == nil {
			t.Fatalf("no code in %q", line)
		}
		return u.Code
	}

	c := code("* OK [UIDNEXT 4392] predicted next\r\n")
	if c.Name != "UIDNEXT" || c.Num != 4392 {
		t.Fatalf("got %+v", c)
	}
	c = code("* OK [PERMANENTFLAGS (\\Deleted \\Seen \\*)] limited\r\n")
	if len(c.Flags) != 3 || c.Flags[2].String() != `\*` {
		t.Fatalf("got %+v", c)
	}
	c = code("* OK [HIGHESTMODSEQ 715194045007]\r\n")
	if c.Num64 != 715194045007 {
		t.Fatalf("got %+v", c)
	}
	c = code("* NO [BADCHARSET (KOI8-R UTF-16)] try another\r\n")
	if strings.Join(c.BadCharsets, ",") != "KOI8-R,UTF-16" {
		t.Fatalf("got %+v", c)
	}
	c = code("* OK [NOMODSEQ] no persistent modsequences\r\n")
	if c.Name != "NOMODSEQ" || c.Args != nil {
		t.Fatalf("got %+v", c)
	}
	c = code("* NO [METADATA MAXSIZE 1024] too big\r\n")
	if c.Num64 != 1024 || strings.Join(c.Args, ",") != "MAXSIZE" {
		t.Fatalf("got %+v", c)
	}

	r := NewResponseReader(imapwire.DefaultLimits)
	evs := rcollect(t, r, "a2 OK [APPENDUID 38505 3955] done\r\na3 OK [COPYUID 38505 304,319:320 3956:3958] done\r\na4 OK [MODIFIED 7,9] conditional store failed\r\n")
	c = evs[0].(EventResult).Result.Code
	if c.DestUIDValidity != 38505 || c.DestUIDs.String() != "3955" {
		t.Fatalf("appenduid %+v", c)
	}
	c = evs[1].(EventResult).Result.Code
	if c.UIDs.String() != "304,319:320" || c.DestUIDs.String() != "3956:3958" {
		t.Fatalf("copyuid %+v", c)
	}
	c = evs[2].(EventResult).Result.Code
	if c.Name != "MODIFIED" || c.Modified.String() != "7,9" {
		t.Fatalf("modified %+v", c)
	}
}

func TestResponseMailboxData(t *testing.T) {
	v := parseUntagged(t, "* LIST (\\Noselect \\HasChildren) \"/\" \"Archief/Oud\"\r\n").(UntaggedList)
	if v.Lsub || len(v.Flags) != 2 || v.Separator != '/' || v.Mailbox != "Archief/Oud" {
		t.Fatalf("got %+v", v)
	}
	v = parseUntagged(t, "* LSUB () NIL inbox\r\n").(UntaggedList)
	if !v.Lsub || v.Separator != 0 || v.Mailbox != "INBOX" {
		t.Fatalf("got %+v", v)
	}

	s := parseUntagged(t, "* STATUS blurdybloop (MESSAGES 231 UIDNEXT 44292 HIGHESTMODSEQ 7011231777)\r\n").(UntaggedStatus)
	if s.Mailbox != "blurdybloop" || s.Attrs["MESSAGES"] != 231 || s.Attrs["HIGHESTMODSEQ"] != 7011231777 {
		t.Fatalf("got %+v", s)
	}

	s = parseUntagged(t, "* STATUS archive (SIZE 70540 DELETED 3 APPENDLIMIT NIL)\r\n").(UntaggedStatus)
	if s.Attrs["SIZE"] != 70540 || s.Attrs["DELETED"] != 3 || s.Attrs["APPENDLIMIT"] != -1 {
		t.Fatalf("got %+v", s)
	}

	se := parseUntagged(t, "* SEARCH 2 5 6 (MODSEQ 917162500)\r\n").(UntaggedSearch)
	if len(se.Nums) != 3 || se.ModSeq != 917162500 {
		t.Fatalf("got %+v", se)
	}

	es := parseUntagged(t, "* ESEARCH (TAG \"A282\") UID MIN 2 COUNT 3 ALL 2,10:11\r\n").(UntaggedEsearch)
	if es.Tag != "A282" || !es.UID || es.Min != 2 || es.Count == nil || *es.Count != 3 || es.All.String() != "2,10:11" {
		t.Fatalf("got %+v", es)
	}

	va := parseUntagged(t, "* VANISHED (EARLIER) 41,43:116,118\r\n").(UntaggedVanished)
	if !va.Earlier || va.UIDs.String() != "41,43:116,118" {
		t.Fatalf("got %+v", va)
	}
	va = parseUntagged(t, "* VANISHED 405,407\r\n").(UntaggedVanished)
	if va.Earlier {
		t.Fatalf("got %+v", va)
	}

	ns := parseUntagged(t, "* NAMESPACE ((\"\" \"/\")) NIL NIL\r\n").(UntaggedNamespace)
	if len(ns.Personal) != 1 || ns.Personal[0].Separator != '/' || ns.Other != nil {
		t.Fatalf("got %+v", ns)
	}

	md := parseUntagged(t, "* METADATA \"INBOX\" (/shared/comment \"Shared comment\" /private/comment NIL)\r\n").(UntaggedMetadata)
	if md.Mailbox != "INBOX" || len(md.Entries) != 2 || string(md.Entries[0].Value) != "Shared comment" || !md.Entries[1].IsNil {
		t.Fatalf("got %+v", md)
	}
	md = parseUntagged(t, "* METADATA \"INBOX\" /shared/comment\r\n").(UntaggedMetadata)
	if len(md.Entries) != 1 || md.Entries[0].Value != nil {
		t.Fatalf("got %+v", md)
	}

	ga := parseUntagged(t, "* GENURLAUTH \"imap://example.org/INBOX/;UID=20;URLAUTH=anonymous:INTERNAL:0af9\"\r\n").(UntaggedGenURLAuth)
	if len(ga) != 1 {
		t.Fatalf("got %+v", ga)
	}

	uf := parseUntagged(t, "* URLFETCH \"imap://example.org/INBOX/;UID=20;URLAUTH=anonymous:INTERNAL:0af9\" {12+}\r\nhello world!\r\n").(UntaggedURLFetch)
	if len(uf) != 1 || string(uf[0].Body) != "hello world!" {
		t.Fatalf("got %+v", uf)
	}

	id := parseUntagged(t, "* ID (\"name\" \"Cyrus\" \"version\" NIL)\r\n").(UntaggedID)
	if len(id) != 2 || id[0] != [2]string{"name", "Cyrus"} {
		t.Fatalf("got %+v", id)
	}
}

func TestResponseFetch(t *testing.T) {
	env := `("Wed, 17 Jul 1996 02:23:25 -0700" "mtg minutes" (("Terry" NIL "gray" "example.org")) NIL NIL ((NIL NIL "imap" "example.org")) NIL NIL NIL "<B27397-0100000@example.org>")`
	line := "* 12 FETCH (FLAGS (\\Seen) UID 9 INTERNALDATE \"17-Jul-1996 02:44:25 -0700\" RFC822.SIZE 4286 ENVELOPE " + env + " MODSEQ (624140003) BODY[HEADER] {15+}\r\nSubject: hi\r\n\r\n)\r\n"

	f := parseUntagged(t, line).(UntaggedFetch)
	if f.Seq != 12 || len(f.Attrs) != 7 {
		t.Fatalf("got seq %d, %d attributes", f.Seq, len(f.Attrs))
	}
	byField := map[string]MsgAtt{}
	for _, a := range f.Attrs {
		byField[a.Field] = a
	}
	if len(byField["FLAGS"].Flags) != 1 || byField["UID"].Num != 9 {
		t.Fatalf("got %+v", byField)
	}
	if byField["RFC822.SIZE"].Num64 != 4286 || byField["MODSEQ"].Num64 != 624140003 {
		t.Fatalf("got %+v", byField)
	}
	e := byField["ENVELOPE"].Envelope
	if e == nil || e.Subject != "mtg minutes" || len(e.From) != 1 || e.From[0].Mailbox != "gray" {
		t.Fatalf("envelope %+v", e)
	}
	b := byField["BODY"]
	if b.Section == nil || b.Section.Msgtext.S != "HEADER" || string(b.Body) != "Subject: hi\r\n\r\n" {
		t.Fatalf("body %+v", b)
	}
}

func TestResponseBodystructure(t *testing.T) {
	line := `* 1 FETCH (BODYSTRUCTURE (("TEXT" "PLAIN" ("CHARSET" "utf-8") NIL NIL "7BIT" 21 2 NIL NIL NIL NIL)("IMAGE" "PNG" NIL "<img1>" NIL "BASE64" 1024) "MIXED" ("BOUNDARY" "x") NIL NIL))` + "\r\n"
	f := parseUntagged(t, line).(UntaggedFetch)
	bs, ok := f.Attrs[0].BodyStructure.(imapwire.BodyTypeMpart)
	if !ok || len(bs.Parts) != 2 || bs.MediaSubtype != "MIXED" {
		t.Fatalf("got %#v", f.Attrs[0].BodyStructure)
	}
	text, ok := bs.Parts[0].(imapwire.BodyTypeText)
	if !ok || text.Lines != 2 || text.BodyFields.Octets != 21 {
		t.Fatalf("got %#v", bs.Parts[0])
	}
	img, ok := bs.Parts[1].(imapwire.BodyTypeBasic)
	if !ok || img.BodyFields.ContentID != "<img1>" || img.BodyFields.CTE != "BASE64" {
		t.Fatalf("got %#v", bs.Parts[1])
	}

	line = `* 2 FETCH (BODY ("MESSAGE" "RFC822" NIL NIL NIL "7BIT" 342 (NIL "fwd" NIL NIL NIL NIL NIL NIL NIL NIL) ("TEXT" "PLAIN" NIL NIL NIL "7BIT" 20 1) 8))` + "\r\n"
	f = parseUntagged(t, line).(UntaggedFetch)
	msg, ok := f.Attrs[0].BodyStructure.(imapwire.BodyTypeMsg)
	if !ok || msg.Envelope.Subject != "fwd" || msg.Lines != 8 {
		t.Fatalf("got %#v", f.Attrs[0].BodyStructure)
	}
	if _, ok := msg.BodyStructure.(imapwire.BodyTypeText); !ok {
		t.Fatalf("nested body %#v", msg.BodyStructure)
	}
}

func TestResponseFetchStreamed(t *testing.T) {
	r := NewResponseReader(imapwire.Limits{MaxLineBytes: 48, MaxNesting: 100})

	payload := strings.Repeat("b", 100)
	evs := rcollect(t, r, "* 3 FETCH (UID 9 BODY[] {100}\r\n"+payload+" FLAGS (\\Seen))\r\n")

	begin, ok := evs[0].(EventFetchBegin)
	if !ok {
		t.Fatalf("got %T, expected EventFetchBegin", evs[0])
	}
	if begin.Seq != 3 || len(begin.Attrs) != 1 || begin.Attrs[0].Field != "UID" {
		t.Fatalf("got %+v", begin)
	}
	if !begin.StreamingAtt.Streamed || begin.StreamingAtt.Field != "BODY" || begin.StreamingAtt.Section == nil {
		t.Fatalf("streaming att %+v", begin.StreamingAtt)
	}

	var got []byte
	i := 1
	for {
		lit, ok := evs[i].(EventLiteral)
		if !ok {
			t.Fatalf("got %T, expected EventLiteral", evs[i])
		}
		got = append(got, lit.Data...)
		i++
		if lit.Last {
			break
		}
	}
	if string(got) != payload {
		t.Fatalf("payload differs")
	}

	end, ok := evs[i].(EventFetchEnd)
	if !ok {
		t.Fatalf("got %T, expected EventFetchEnd", evs[i])
	}
	if len(end.Attrs) != 1 || end.Attrs[0].Field != "FLAGS" {
		t.Fatalf("got %+v", end)
	}
	if i != len(evs)-1 {
		t.Fatalf("events after fetch end")
	}

	// Reader continues with normal responses.
	evs = rcollect(t, r, "a5 OK done\r\n")
	if len(evs) != 1 || evs[0].(EventResult).Result.Tag != "a5" {
		t.Fatalf("reader did not resume")
	}
}

func TestResponseErrors(t *testing.T) {
	var serr *imapwire.SyntaxError

	for _, line := range []string{
		"* NONSENSE\r\n",
		"* 12 NONSENSE\r\n",
		"* 12 FETCH (BOGUS)\r\n",
		"* LIST (\\Noselect) \"toolong\" x\r\n",
		"a1 MAYBE done\r\n",
	} {
		r := NewResponseReader(imapwire.DefaultLimits)
		if _, err := r.Write([]byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, _, err := r.Next()
		if !errors.As(err, &serr) {
			t.Fatalf("feeding %q: got %v, expected syntax error", line, err)
		}
	}

	// Recovery after a bad response.
	r := NewResponseReader(imapwire.DefaultLimits)
	if _, err := r.Write([]byte("* NONSENSE\r\n* 3 EXISTS\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := r.Next()
	if !errors.As(err, &serr) {
		t.Fatalf("got %v", err)
	}
	evs := rcollect(t, r, "")
	if len(evs) != 1 || evs[0].(EventUntagged).Untagged.(UntaggedExists) != 3 {
		t.Fatalf("reader did not recover")
	}
}

package imapparse

import (
	"errors"
	"testing"

	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

// Readers must never panic on arbitrary input, only return errors. Small
// limits make the streamed-literal and depth paths reachable with short
// inputs.
var fuzzLimits = imapwire.Limits{MaxLineBytes: 512, MaxNesting: 20}

func fuzzDrain(t *testing.T, w interface {
	Write([]byte) (int, error)
	Next() (Event, int, error)
}, s string) {
	t.Helper()
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 0; i < 10000; i++ {
		ev, c, err := w.Next()
		if err != nil {
			// Framing errors are fatal for the stream.
			if errors.Is(err, imapwire.ErrLineTooLong) || errors.Is(err, imapwire.ErrBadLiteral) {
				return
			}
			continue
		}
		if ev == nil && c == 0 {
			return
		}
	}
	t.Fatalf("reader did not go idle")
}

func FuzzParseCommand(f *testing.F) {
	seed := []string{
		"1 NOOP\r\n",
		"2 CAPABILITY\r\n",
		"3 LOGIN {5}\r\nhello {3}\r\nyou\r\n",
		"4 LOGIN \"mjl@mox.example\" \"test\"\r\n",
		"5 AUTHENTICATE PLAIN dGVzdA==\r\n",
		"6 SELECT INBOX (CONDSTORE QRESYNC (67890007 20050715194045000 41,43:211))\r\n",
		"7 APPEND inbox (\\Seen) \"17-Jul-1996 02:44:25 -0700\" {10+}\r\n0123456789\r\n",
		"8 APPEND inbox {1000}\r\n",
		"9 UID FETCH 1:* (FLAGS BODY.PEEK[HEADER.FIELDS (DATE FROM)]<0.100>) (CHANGEDSINCE 12345 VANISHED)\r\n",
		"10 UID SEARCH RETURN (MIN MAX) CHARSET UTF-8 OR SINCE 1-Feb-1994 NOT FROM \"smith\"\r\n",
		"11 STORE 2:4 +FLAGS.SILENT (\\Deleted)\r\n",
		"12 UID STORE 1 (UNCHANGEDSINCE 12121230045) FLAGS ($Phishing)\r\n",
		"13 LIST \"\" \"INBOX/%\"\r\n",
		"14 STATUS blurdybloop (MESSAGES UIDNEXT HIGHESTMODSEQ APPENDLIMIT DELETED SIZE)\r\n",
		"14b FETCH * FLAGS\r\n",
		"15 IDLE\r\nDONE\r\n",
		"16 GETMETADATA (MAXSIZE 1024 DEPTH infinity) \"INBOX\" (/shared/comment /private/comment)\r\n",
		"17 SETMETADATA INBOX (/shared/comment \"my comment\" /private/x NIL)\r\n",
		"18 GENURLAUTH \"imap://example.org/INBOX/;UID=20;URLAUTH=anonymous\" INTERNAL\r\n",
		"19 URLFETCH \"imap://;UID=20\"\r\n",
		"20 RESETKEY INBOX INTERNAL\r\n",
		"21 ENABLE QRESYNC CONDSTORE\r\n",
		"22 ID (\"name\" \"mox\")\r\n",
		"23 COPY $ Sent&Jjo-\r\n",
		"bad\r\n",
		"x LOGIN {99999999999999999999}\r\n",
		"x NOOP {3}\r\nabc\r\n",
		"~{3}\r\n",
		"\r\n",
		"\n",
		"*",
	}
	for _, s := range seed {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		fuzzDrain(t, NewCommandReader(fuzzLimits), s)
	})
}

func FuzzParseResponse(f *testing.F) {
	seed := []string{
		"* OK [CAPABILITY IMAP4rev1 LITERAL+ IDLE] ready\r\n",
		"+ \r\n",
		"+\r\n",
		"a1 OK [APPENDUID 38505 3955] done\r\n",
		"a2 OK [COPYUID 38505 304,319:320 3956:3958] done\r\n",
		"a3 NO [MODIFIED 7,9] failed\r\n",
		"* 23 EXISTS\r\n",
		"* 44 EXPUNGE\r\n",
		"* FLAGS (\\Answered \\Seen)\r\n",
		"* OK [PERMANENTFLAGS (\\Deleted \\*)] limited\r\n",
		"* LIST (\\Noselect) \"/\" ~/Mail/foo\r\n",
		"* STATUS blurdybloop (MESSAGES 231 UIDNEXT 44292 APPENDLIMIT NIL)\r\n",
		"* SEARCH 2 5 6 (MODSEQ 917162500)\r\n",
		"* ESEARCH (TAG \"A282\") UID MIN 2 COUNT 3 ALL 2,10:11\r\n",
		"* VANISHED (EARLIER) 41,43:116\r\n",
		"* METADATA \"INBOX\" (/shared/comment \"Comment\")\r\n",
		"* 12 FETCH (FLAGS (\\Seen) UID 9 RFC822.SIZE 4286 BODY[HEADER] {3+}\r\nabc)\r\n",
		"* 1 FETCH (BODYSTRUCTURE ((\"TEXT\" \"PLAIN\" NIL NIL NIL \"7BIT\" 2 1) \"MIXED\"))\r\n",
		"* 3 FETCH (BODY[] {1000}\r\n",
		"* NAMESPACE ((\"\" \"/\")) NIL NIL\r\n",
		"* BYE\r\n",
		"* URLFETCH \"imap://x\" {3}\r\nabc\r\n",
		"bad\r\n",
		"*\r\n",
		"* 12 FETCH (\r\n",
	}
	for _, s := range seed {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		fuzzDrain(t, NewResponseReader(fuzzLimits), s)
	})
}

package imapwire

import (
	"reflect"
	"testing"
)

func TestParseURL(t *testing.T) {
	check := func(s string, exp URL) {
		t.Helper()
		u, err := ParseURL(s)
		if err != nil {
			t.Fatalf("parsing %q: %v", s, err)
		}
		if !reflect.DeepEqual(*u, exp) {
			t.Fatalf("parsing %q:\ngot  %+v\nwant %+v", s, *u, exp)
		}
	}
	bad := func(s string) {
		t.Helper()
		if _, err := ParseURL(s); err == nil {
			t.Fatalf("parsing %q: expected error", s)
		}
	}

	check("imap://example.org", URL{Host: "example.org"})
	check("imap://example.org:1143", URL{Host: "example.org", Port: 1143})
	check("imap://fred@example.org/INBOX", URL{User: "fred", Host: "example.org", Mailbox: "INBOX"})
	check("imap://fred;AUTH=*@example.org/INBOX", URL{User: "fred", Auth: "*", Host: "example.org", Mailbox: "INBOX"})
	check("imap://example.org/INBOX;UIDVALIDITY=785799047/;UID=20",
		URL{Host: "example.org", Mailbox: "INBOX", UIDValidity: 785799047, UID: 20})
	check("imap://example.org/INBOX/;UID=20/;SECTION=1.2",
		URL{Host: "example.org", Mailbox: "INBOX", UID: 20, Section: "1.2"})
	check("imap://example.org/INBOX/;UID=20/;PARTIAL=0.1024",
		URL{Host: "example.org", Mailbox: "INBOX", UID: 20, Partial: &Partial{Offset: 0, Count: 1024}})
	check("imap://example.org/folder%20name/;UID=5",
		URL{Host: "example.org", Mailbox: "folder name", UID: 5})

	// URLAUTH, rump and full forms.
	check("imap://example.org/INBOX/;UID=20;EXPIRE=2026-08-27T00:00:00Z;URLAUTH=submit+fred",
		URL{Host: "example.org", Mailbox: "INBOX", UID: 20,
			Expire: "2026-08-27T00:00:00Z", URLAuth: &URLAuth{Access: "submit+fred"}})
	check("imap://example.org/INBOX/;UID=20;URLAUTH=anonymous:INTERNAL:91354a473744909de610943775f92038",
		URL{Host: "example.org", Mailbox: "INBOX", UID: 20,
			URLAuth: &URLAuth{Access: "anonymous", Mechanism: "INTERNAL", Token: "91354a473744909de610943775f92038"}})

	bad("http://example.org")
	bad("imap://")
	bad("imap://example.org:0/INBOX")
	bad("imap://example.org:999999/INBOX")
	bad("imap://example.org/INBOX;UIDVALIDITY=0")
	bad("imap://example.org/INBOX/;UID=0")
	bad("imap://example.org/INBOX/;UID=20;URLAUTH=")
	bad("imap://example.org/INBOX/;UID=20;URLAUTH=a:b")
	bad("imap://example.org/folder%2/;UID=5")
	bad("imap://example.org/folder%zz/;UID=5")
}

func TestURLString(t *testing.T) {
	// parse(String()) must round-trip to an equal value.
	for _, s := range []string{
		"imap://example.org",
		"imap://fred;AUTH=*@example.org/INBOX",
		"imap://example.org/INBOX;UIDVALIDITY=785799047/;UID=20/;SECTION=1.2/;PARTIAL=0.1024",
		"imap://example.org/INBOX/;UID=20;EXPIRE=2026-08-27T00:00:00Z;URLAUTH=submit+fred:INTERNAL:0af9",
	} {
		u, err := ParseURL(s)
		if err != nil {
			t.Fatalf("parsing %q: %v", s, err)
		}
		u2, err := ParseURL(u.String())
		if err != nil {
			t.Fatalf("reparsing %q (from %q): %v", u.String(), s, err)
		}
		if !reflect.DeepEqual(u, u2) {
			t.Fatalf("roundtrip %q -> %q:\ngot  %+v\nwant %+v", s, u.String(), u2, u)
		}
	}

	u := URL{Host: "example.org", Mailbox: "Sent/Archief ☺", UID: 3}
	u2, err := ParseURL(u.String())
	if err != nil {
		t.Fatalf("parsing %q: %v", u.String(), err)
	}
	if !reflect.DeepEqual(&u, u2) {
		t.Fatalf("roundtrip through %q: got %+v", u.String(), *u2)
	}
}

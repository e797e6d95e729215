package imapwire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// URL is a parsed IMAP URL (RFC 5092), optionally carrying URLAUTH
// components (RFC 4467). Only the absolute "imap://" form is represented;
// that is the form URLFETCH and GENURLAUTH exchange.
type URL struct {
	User string
	Auth string // ";AUTH=" mechanism from the userinfo, "*" for "any".
	Host string
	Port int // 0 when absent.

	Mailbox     string
	UIDValidity uint32 // 0 when absent.
	UID         uint32 // 0 when absent.
	Section     string
	Partial     *Partial

	Expire  string   // ";EXPIRE=" timestamp, kept verbatim for exact round-trips.
	URLAuth *URLAuth // ";URLAUTH=" components.
}

// URLAuth is the authorization suffix of an IMAP URL. A "rump" URL, the
// input to GENURLAUTH, has Mechanism and Token empty.
type URLAuth struct {
	Access    string // "submit+user", "user+user", "authuser" or "anonymous".
	Mechanism string // Typically "INTERNAL".
	Token     string // Hex-encoded MAC.
}

var errBadURL = errors.New("malformed imap url")

// ParseURL parses an absolute IMAP URL.
func ParseURL(s string) (*URL, error) {
	orig := s
	if !strings.HasPrefix(asciiLower(s), "imap://") {
		return nil, fmt.Errorf(`%w: %q: missing "imap://" scheme`, errBadURL, orig)
	}
	s = s[len("imap://"):]

	u := &URL{}

	// Authority: [user[;AUTH=mech]@]host[:port]
	authority := s
	if i := strings.IndexByte(s, '/'); i >= 0 {
		authority, s = s[:i], s[i+1:]
	} else {
		s = ""
	}
	if i := strings.LastIndexByte(authority, '@'); i >= 0 {
		userinfo := authority[:i]
		authority = authority[i+1:]
		if j := strings.Index(asciiUpper(userinfo), ";AUTH="); j >= 0 {
			u.Auth = userinfo[j+len(";AUTH="):]
			userinfo = userinfo[:j]
		}
		var err error
		if u.User, err = urlDecode(userinfo); err != nil {
			return nil, fmt.Errorf("%w: %q: user: %v", errBadURL, orig, err)
		}
	}
	if i := strings.LastIndexByte(authority, ':'); i >= 0 {
		port, err := strconv.Atoi(authority[i+1:])
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%w: %q: bad port", errBadURL, orig)
		}
		u.Port = port
		authority = authority[:i]
	}
	if authority == "" {
		return nil, fmt.Errorf("%w: %q: empty host", errBadURL, orig)
	}
	u.Host = authority
	if s == "" {
		return u, nil
	}

	// Trailing ;EXPIRE= and ;URLAUTH= apply to the whole URL; split them
	// off before the path so their values cannot be mistaken for path
	// segments.
	up := asciiUpper(s)
	if i := strings.Index(up, ";URLAUTH="); i >= 0 {
		ua, err := parseURLAuth(s[i+len(";URLAUTH="):])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", errBadURL, orig, err)
		}
		u.URLAuth = ua
		s, up = s[:i], up[:i]
	}
	if i := strings.Index(up, ";EXPIRE="); i >= 0 {
		u.Expire = s[i+len(";EXPIRE="):]
		if u.Expire == "" {
			return nil, fmt.Errorf("%w: %q: empty expire", errBadURL, orig)
		}
		s, up = s[:i], up[:i]
	}

	// Mailbox path: enc-mailbox [;UIDVALIDITY=n] [/;UID=n [/;SECTION=s] [/;PARTIAL=o.n]]
	mailbox := s
	var rest string
	if i := strings.Index(up, "/;"); i >= 0 {
		mailbox, rest = s[:i], s[i+1:]
	}
	if i := strings.Index(asciiUpper(mailbox), ";UIDVALIDITY="); i >= 0 {
		v, err := strconv.ParseUint(mailbox[i+len(";UIDVALIDITY="):], 10, 32)
		if err != nil || v == 0 {
			return nil, fmt.Errorf("%w: %q: bad uidvalidity", errBadURL, orig)
		}
		u.UIDValidity = uint32(v)
		mailbox = mailbox[:i]
	}
	var err error
	if u.Mailbox, err = urlDecode(mailbox); err != nil {
		return nil, fmt.Errorf("%w: %q: mailbox: %v", errBadURL, orig, err)
	}

	for rest != "" {
		var seg string
		seg = rest
		rest = ""
		if i := strings.Index(seg[1:], "/;"); i >= 0 {
			seg, rest = seg[:1+i], seg[1+i+1:]
		}
		SEG := asciiUpper(seg)
		switch {
		case strings.HasPrefix(SEG, ";UID="):
			v, err := strconv.ParseUint(seg[len(";UID="):], 10, 32)
			if err != nil || v == 0 {
				return nil, fmt.Errorf("%w: %q: bad uid", errBadURL, orig)
			}
			u.UID = uint32(v)
		case strings.HasPrefix(SEG, ";SECTION="):
			if u.Section, err = urlDecode(seg[len(";SECTION="):]); err != nil {
				return nil, fmt.Errorf("%w: %q: section: %v", errBadURL, orig, err)
			}
		case strings.HasPrefix(SEG, ";PARTIAL="):
			var p Partial
			v := seg[len(";PARTIAL="):]
			off := v
			if i := strings.IndexByte(v, '.'); i >= 0 {
				off = v[:i]
				count, err := strconv.ParseUint(v[i+1:], 10, 32)
				if err != nil || count == 0 {
					return nil, fmt.Errorf("%w: %q: bad partial count", errBadURL, orig)
				}
				p.Count = uint32(count)
			}
			offset, err := strconv.ParseUint(off, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: bad partial offset", errBadURL, orig)
			}
			p.Offset = uint32(offset)
			u.Partial = &p
		default:
			return nil, fmt.Errorf("%w: %q: unknown path segment %q", errBadURL, orig, seg)
		}
	}
	return u, nil
}

func parseURLAuth(s string) (*URLAuth, error) {
	var ua URLAuth
	t := strings.Split(s, ":")
	switch len(t) {
	case 1:
		ua.Access = t[0]
	case 3:
		ua.Access, ua.Mechanism, ua.Token = t[0], t[1], t[2]
		if ua.Mechanism == "" || ua.Token == "" {
			return nil, fmt.Errorf("urlauth: empty mechanism or token")
		}
	default:
		return nil, fmt.Errorf("urlauth: expected access or access:mech:token")
	}
	if ua.Access == "" {
		return nil, fmt.Errorf("urlauth: empty access")
	}
	return &ua, nil
}

// String renders the URL back in wire form. parse(encode) round-trips to
// an equal value.
func (u *URL) String() string {
	var b strings.Builder
	b.WriteString("imap://")
	if u.User != "" || u.Auth != "" {
		b.WriteString(urlEncode(u.User))
		if u.Auth != "" {
			b.WriteString(";AUTH=" + u.Auth)
		}
		b.WriteByte('@')
	}
	b.WriteString(u.Host)
	if u.Port != 0 {
		fmt.Fprintf(&b, ":%d", u.Port)
	}
	if u.Mailbox == "" && u.UIDValidity == 0 && u.UID == 0 && u.Expire == "" && u.URLAuth == nil {
		return b.String()
	}
	b.WriteByte('/')
	b.WriteString(urlEncode(u.Mailbox))
	if u.UIDValidity != 0 {
		fmt.Fprintf(&b, ";UIDVALIDITY=%d", u.UIDValidity)
	}
	if u.UID != 0 {
		fmt.Fprintf(&b, "/;UID=%d", u.UID)
		if u.Section != "" {
			b.WriteString("/;SECTION=" + urlEncode(u.Section))
		}
		if u.Partial != nil {
			fmt.Fprintf(&b, "/;PARTIAL=%d", u.Partial.Offset)
			if u.Partial.Count != 0 {
				fmt.Fprintf(&b, ".%d", u.Partial.Count)
			}
		}
	}
	if u.Expire != "" {
		b.WriteString(";EXPIRE=" + u.Expire)
	}
	if ua := u.URLAuth; ua != nil {
		b.WriteString(";URLAUTH=" + ua.Access)
		if ua.Mechanism != "" {
			b.WriteString(":" + ua.Mechanism + ":" + ua.Token)
		}
	}
	return b.String()
}

// Percent-coding for URL components. We escape the characters we split on
// while parsing, plus anything outside printable ASCII, so decode(encode)
// is the identity.
func urlEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= 0x20 || c >= 0x7f || strings.IndexByte(`%/;:@?#"<>`, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func urlDecode(s string) (string, error) {
	if !strings.ContainsRune(s, '%') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+3 > len(s) {
			return "", fmt.Errorf("truncated percent escape")
		}
		v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("bad percent escape %q", s[i:i+3])
		}
		b.WriteByte(byte(v))
		i += 2
	}
	return b.String(), nil
}

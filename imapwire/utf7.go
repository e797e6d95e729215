package imapwire

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Modified UTF-7 for international mailbox names, RFC 3501 section 5.1.3.
// Shifted runs are UTF-16BE encoded with a modified base64 alphabet.
// Deprecated for IMAP4rev2-only clients and unused with UTF8=ACCEPT, but
// most clients are still IMAP4rev1 and need it.

const utf7chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+,"

var utf7encoding = base64.NewEncoding(utf7chars).WithPadding(base64.NoPadding)

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

var (
	errUTF7SuperfluousShift = errors.New("utf7: superfluous unshift+shift")
	errUTF7Base64           = errors.New("utf7: bad base64")
	errUTF7OddSized         = errors.New("utf7: odd-sized data")
	errUTF7UnneededShift    = errors.New("utf7: unneeded shift")
	errUTF7UnfinishedShift  = errors.New("utf7: unfinished shift")
)

// UTF7Decode decodes a modified UTF-7 mailbox name. Encodings a conforming
// encoder would never produce (direct characters inside a shift, adjacent
// encoded runs like "&Jjo-&Jjo-" that an encoder would merge) are rejected.
// A "&-" for a literal ampersand may sit directly next to an encoded run,
// that is the canonical form.
func UTF7Decode(s string) (string, error) {
	var r strings.Builder
	var b strings.Builder
	var shifted bool
	shiftStart := 0
	lastunshift := -2 // Index of the "-" that closed the last encoded run.

	for i, c := range s {
		if !shifted {
			if c == '&' {
				shifted = true
				shiftStart = i
			} else {
				r.WriteRune(c)
			}
			continue
		}

		if c != '-' {
			b.WriteRune(c)
			continue
		}

		shifted = false
		if b.Len() == 0 {
			r.WriteByte('&')
			continue
		}
		if shiftStart == lastunshift+1 {
			return "", errUTF7SuperfluousShift
		}
		lastunshift = i
		buf, err := utf7encoding.DecodeString(b.String())
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", errUTF7Base64, b.String(), err)
		}
		b.Reset()

		if len(buf)%2 != 0 {
			return "", errUTF7OddSized
		}

		out, err := utf16be.NewDecoder().Bytes(buf)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errUTF7Base64, err)
		}

		need := false
		for _, x := range string(out) {
			if x < 0x20 || x > 0x7e || x == '&' {
				need = true
			}
		}
		if !need {
			return "", errUTF7UnneededShift
		}
		r.Write(out)
	}
	if shifted {
		return "", errUTF7UnfinishedShift
	}
	return r.String(), nil
}

// UTF7Encode encodes a mailbox name into modified UTF-7.
func UTF7Encode(s string) string {
	var r strings.Builder
	var run []rune

	flush := func() {
		if len(run) == 0 {
			return
		}
		buf, err := utf16be.NewEncoder().Bytes([]byte(string(run)))
		if err != nil {
			// The UTF-16 encoder replaces unrepresentable runes, it does
			// not fail for valid UTF-8 input.
			panic(fmt.Sprintf("utf7: encoding to utf-16: %v", err))
		}
		r.WriteByte('&')
		r.WriteString(utf7encoding.EncodeToString(buf))
		r.WriteByte('-')
		run = run[:0]
	}

	for _, c := range s {
		switch {
		case c == '&':
			flush()
			r.WriteString("&-")
		case c >= 0x20 && c <= 0x7e:
			flush()
			r.WriteRune(c)
		default:
			run = append(run, c)
		}
	}
	flush()
	return r.String()
}

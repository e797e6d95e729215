package imapwire

// Flag is an IMAP flag or keyword, e.g. `\Seen` or `$Forwarded`. Flags
// compare case-insensitively but keep the casing they were constructed
// with: two flags differing only in case are Equal, yet each encodes back
// with its own original spelling. Use Norm as a map key, not the Flag
// itself.
type Flag struct {
	orig string
}

// NewFlag returns a flag keeping the casing of s.
func NewFlag(s string) Flag {
	return Flag{s}
}

// System flags from RFC 3501.
var (
	FlagSeen     = NewFlag(`\Seen`)
	FlagAnswered = NewFlag(`\Answered`)
	FlagFlagged  = NewFlag(`\Flagged`)
	FlagDeleted  = NewFlag(`\Deleted`)
	FlagDraft    = NewFlag(`\Draft`)
	FlagRecent   = NewFlag(`\Recent`)
)

// String returns the flag in its original casing.
func (f Flag) String() string {
	return f.orig
}

// Norm returns the ASCII-lowercased form, the key for comparing and
// hashing.
func (f Flag) Norm() string {
	return asciiLower(f.orig)
}

// Equal reports whether flags are equal under case-insensitive comparison.
func (f Flag) Equal(o Flag) bool {
	return asciiEqualFold(f.orig, o.orig)
}

// IsSystem reports whether the flag is a system flag (starts with a
// backslash).
func (f Flag) IsSystem() bool {
	return len(f.orig) > 0 && f.orig[0] == '\\'
}

// Capability is a capability token, e.g. "IMAP4rev1" or "AUTH=PLAIN".
// Capabilities compare case-insensitively; the encoder normalizes them to
// upper case on the way out, unlike flags.
type Capability string

// Norm returns the ASCII-uppercased form used for comparing and encoding.
func (c Capability) Norm() string {
	return asciiUpper(string(c))
}

// Equal reports case-insensitive equality.
func (c Capability) Equal(o Capability) bool {
	return asciiEqualFold(string(c), string(o))
}

// ASCII-only case folding. strings.ToLower/ToUpper do too much: they would
// replace invalid bytes with the unicode replacement character, breaking
// the requirement that normalized and original strings have equal length.
func asciiLower(s string) string {
	r := []byte(s)
	for i, c := range r {
		if c >= 'A' && c <= 'Z' {
			r[i] = c + 0x20
		}
	}
	return string(r)
}

func asciiUpper(s string) string {
	r := []byte(s)
	for i, c := range r {
		if c >= 'a' && c <= 'z' {
			r[i] = c - 0x20
		}
	}
	return string(r)
}

func asciiEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 0x20
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 0x20
		}
		if ca != cb {
			return false
		}
	}
	return true
}

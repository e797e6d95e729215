package imapwire

import "testing"

func TestFlagCaseFold(t *testing.T) {
	a := NewFlag(`\Seen`)
	b := NewFlag(`\SEEN`)
	if !a.Equal(b) || !b.Equal(a) {
		t.Fatalf("%v and %v not equal", a, b)
	}
	if a.Norm() != b.Norm() || a.Norm() != `\seen` {
		t.Fatalf("norms %q and %q", a.Norm(), b.Norm())
	}
	if !a.Equal(FlagSeen) || !b.Equal(FlagSeen) {
		t.Fatalf("not equal to the system flag")
	}

	// Equality folds case, encoding does not: each flag keeps its own
	// spelling.
	if a.String() != `\Seen` || b.String() != `\SEEN` {
		t.Fatalf("got %q and %q", a, b)
	}
	var e Encoder
	e.WriteFlags([]Flag{a, b, NewFlag("$forwarded")})
	if got := string(e.Bytes()); got != `(\Seen \SEEN $forwarded)` {
		t.Fatalf("got %q", got)
	}

	if a.Equal(NewFlag(`\Seen2`)) || a.Equal(NewFlag(`\See`)) {
		t.Fatalf("distinct flags compare equal")
	}
}

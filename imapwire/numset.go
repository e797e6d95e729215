package imapwire

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// NumSet is an IMAP sequence-set: an ordered union of single numbers,
// closed ranges and the "*" wildcard meaning the highest existing number,
// or the "$" marker referring to the saved search result.
type NumSet struct {
	SearchResult bool // "$"
	Ranges       []NumRange
}

// SetNumber is a single element of a range: either a non-zero number or
// the "*" wildcard.
type SetNumber struct {
	Number uint32
	Star   bool
}

// NumRange is a closed range. If Last is nil the range is the single
// element First, which may itself be the "*" wildcard, a valid
// seq-number per RFC 3501.
type NumRange struct {
	First SetNumber
	Last  *SetNumber
}

// IsZero reports whether the set is empty.
func (s NumSet) IsZero() bool {
	return !s.SearchResult && len(s.Ranges) == 0
}

// String renders the set in wire form, e.g. "1:5,8,10:*" or "$".
func (s NumSet) String() string {
	if s.SearchResult {
		return "$"
	}
	r := ""
	for _, nr := range s.Ranges {
		if r != "" {
			r += ","
		}
		r += nr.String()
	}
	return r
}

func (nr NumRange) String() string {
	s := nr.First.String()
	if nr.Last == nil {
		return s
	}
	return s + ":" + nr.Last.String()
}

func (n SetNumber) String() string {
	if n.Star {
		return "*"
	}
	return fmt.Sprintf("%d", n.Number)
}

// AppendUIDs adds the given numbers to the set, compacting consecutive
// runs into ranges. The input need not be sorted or unique.
func AppendUIDs(s NumSet, l []uint32) NumSet {
	l = slices.Clone(l)
	slices.Sort(l)
	l = slices.Compact(l)
	for len(l) > 0 {
		e := 1
		for ; e < len(l) && l[e] == l[e-1]+1; e++ {
		}
		first := SetNumber{Number: l[0]}
		var last *SetNumber
		if e > 1 {
			last = &SetNumber{Number: l[e-1]}
		}
		s.Ranges = append(s.Ranges, NumRange{first, last})
		l = l[e:]
	}
	return s
}

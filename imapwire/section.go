package imapwire

// Partial is the <offset.count> suffix of a BODY fetch attribute.
type Partial struct {
	Offset uint32
	Count  uint32
}

// SectionPart is a non-empty dotted part number path, optionally followed
// by a text specifier, e.g. "1.2.MIME" or "3.HEADER.FIELDS (To)".
type SectionPart struct {
	Part []uint32
	Text *SectionText
}

// SectionText is the trailing specifier of a section-part: either "MIME"
// or one of the message text specifiers.
type SectionText struct {
	MIME    bool
	Msgtext *SectionMsgtext
}

// SectionMsgtext is "HEADER", "HEADER.FIELDS", "HEADER.FIELDS.NOT" or
// "TEXT", with the header-field list for the HEADER.FIELDS forms.
type SectionMsgtext struct {
	S       string
	Headers []string
}

// SectionSpec is the contents of the []'s of a BODY fetch attribute. A
// non-nil SectionSpec with nil Msgtext and nil Part means the brackets were
// empty: "BODY[]".
type SectionSpec struct {
	Msgtext *SectionMsgtext
	Part    *SectionPart
}

// msgtext specifiers rank in grammar order, after numeric parts.
func msgtextRank(m *SectionMsgtext) int {
	switch m.S {
	case "HEADER":
		return 1
	case "HEADER.FIELDS":
		return 2
	case "HEADER.FIELDS.NOT":
		return 3
	case "TEXT":
		return 4
	}
	return 5
}

// Compare defines a total order over section specifiers: the empty section
// first, then whole-message text specifiers, then part paths compared
// numerically element-wise with their trailing specifier breaking ties.
// Returns -1, 0 or 1.
func (s *SectionSpec) Compare(o *SectionSpec) int {
	sr := s.rank()
	or := o.rank()
	if sr != or {
		return cmpInt(sr, or)
	}
	switch sr {
	case 1: // both msgtext
		return cmpMsgtext(s.Msgtext, o.Msgtext)
	case 2: // both part paths
		a, b := s.Part, o.Part
		for i := 0; i < len(a.Part) && i < len(b.Part); i++ {
			if a.Part[i] != b.Part[i] {
				return cmpInt(int(a.Part[i]), int(b.Part[i]))
			}
		}
		if len(a.Part) != len(b.Part) {
			return cmpInt(len(a.Part), len(b.Part))
		}
		return cmpSectionText(a.Text, b.Text)
	}
	return 0
}

func (s *SectionSpec) rank() int {
	switch {
	case s.Msgtext == nil && s.Part == nil:
		return 0
	case s.Msgtext != nil:
		return 1
	default:
		return 2
	}
}

func cmpMsgtext(a, b *SectionMsgtext) int {
	if r := cmpInt(msgtextRank(a), msgtextRank(b)); r != 0 {
		return r
	}
	for i := 0; i < len(a.Headers) && i < len(b.Headers); i++ {
		if a.Headers[i] != b.Headers[i] {
			if a.Headers[i] < b.Headers[i] {
				return -1
			}
			return 1
		}
	}
	return cmpInt(len(a.Headers), len(b.Headers))
}

func cmpSectionText(a, b *SectionText) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.MIME && b.MIME:
		return 0
	case a.MIME:
		return -1
	case b.MIME:
		return 1
	}
	return cmpMsgtext(a.Msgtext, b.Msgtext)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

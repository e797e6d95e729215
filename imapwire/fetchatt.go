package imapwire

// FetchAtt is a single attribute of a FETCH command, e.g. "ENVELOPE" or
// "BODY.PEEK[1.2.HEADER]<0.100>".
type FetchAtt struct {
	Field         string // Uppercase, e.g. "ENVELOPE", "BODY", "BINARY.SIZE".
	Peek          bool
	Section       *SectionSpec // BODY[...]
	SectionBinary []uint32     // BINARY[...], not mixed with Section.
	Partial       *Partial
}

func (f FetchAtt) String() string {
	var e Encoder
	e.WriteFetchAtt(f)
	return string(e.Bytes())
}

// WriteFetchAtt writes a single fetch attribute.
func (e *Encoder) WriteFetchAtt(f FetchAtt) int {
	n := len(e.buf)
	e.buf = append(e.buf, f.Field...)
	if f.Peek {
		e.buf = append(e.buf, ".PEEK"...)
	}
	if f.Section != nil {
		e.WriteSection(f.Section)
	}
	if f.SectionBinary != nil {
		e.buf = append(e.buf, '[')
		for i, v := range f.SectionBinary {
			if i > 0 {
				e.buf = append(e.buf, '.')
			}
			e.WriteNumber(v)
		}
		e.buf = append(e.buf, ']')
	}
	if f.Partial != nil {
		e.WritePartial(*f.Partial)
	}
	return len(e.buf) - n
}

// WriteFetchAtts writes a parenthesized fetch attribute list.
func (e *Encoder) WriteFetchAtts(l []FetchAtt) int {
	n := len(e.buf)
	e.buf = append(e.buf, '(')
	for i, f := range l {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		e.WriteFetchAtt(f)
	}
	e.buf = append(e.buf, ')')
	return len(e.buf) - n
}

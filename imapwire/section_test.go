package imapwire

import "testing"

func TestSectionCompare(t *testing.T) {
	msgtext := func(s string, headers ...string) *SectionSpec {
		return &SectionSpec{Msgtext: &SectionMsgtext{S: s, Headers: headers}}
	}
	part := func(text *SectionText, nums ...uint32) *SectionSpec {
		return &SectionSpec{Part: &SectionPart{Part: nums, Text: text}}
	}

	// Ascending order.
	ordered := []*SectionSpec{
		{},
		msgtext("HEADER"),
		msgtext("HEADER.FIELDS", "Cc"),
		msgtext("HEADER.FIELDS", "To"),
		msgtext("HEADER.FIELDS", "To", "Cc"),
		msgtext("HEADER.FIELDS.NOT", "To"),
		msgtext("TEXT"),
		part(nil, 1),
		part(&SectionText{MIME: true}, 1),
		part(&SectionText{Msgtext: &SectionMsgtext{S: "HEADER"}}, 1),
		part(&SectionText{Msgtext: &SectionMsgtext{S: "TEXT"}}, 1),
		part(nil, 1, 1),
		part(nil, 1, 2),
		part(nil, 2),
	}
	for i, a := range ordered {
		if r := a.Compare(a); r != 0 {
			t.Fatalf("compare with self: %d for index %d", r, i)
		}
		for _, b := range ordered[i+1:] {
			if r := a.Compare(b); r != -1 {
				t.Fatalf("compare: got %d, expected -1, for %d vs later", r, i)
			}
			if r := b.Compare(a); r != 1 {
				t.Fatalf("compare reversed: got %d, expected 1, for %d", r, i)
			}
		}
	}
}

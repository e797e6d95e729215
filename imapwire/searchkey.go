package imapwire

import "time"

// SearchKey is one key of a SEARCH command. Only one of SearchKeys, SeqSet
// and Op can be non-nil/non-empty.
//
// SearchKeys holds nested/multiple keys, combined with AND; the top-level
// search command is such a list. Op determines which of the remaining
// fields are set: NOT uses SearchKey, OR uses SearchKey and SearchKey2,
// the leaf predicates use at most one scalar field. The recursion through
// SearchKeys/SearchKey/SearchKey2 is bounded by the parser's nesting
// limit.
type SearchKey struct {
	SearchKeys   []SearchKey
	SeqSet       *NumSet // Bare sequence set. For op UID, UIDSet holds the parameter.
	Op           string  // Uppercase.
	HeaderField  string
	AString      string
	Date         time.Time
	Atom         string
	Number       int64
	SearchKey    *SearchKey
	SearchKey2   *SearchKey
	UIDSet       NumSet
	ClientModseq *int64
}

// HasModseq reports whether a MODSEQ filter occurs anywhere in the key.
// Its presence makes a search CONDSTORE-enabling.
func (sk SearchKey) HasModseq() bool {
	if sk.ClientModseq != nil {
		return true
	}
	for _, e := range sk.SearchKeys {
		if e.HasModseq() {
			return true
		}
	}
	if sk.SearchKey != nil && sk.SearchKey.HasModseq() {
		return true
	}
	if sk.SearchKey2 != nil && sk.SearchKey2.HasModseq() {
		return true
	}
	return false
}

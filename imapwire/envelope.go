package imapwire

// Address is a single address in an envelope.
type Address struct {
	Name    string // Display name.
	Adl     string // Source route, rarely used.
	Mailbox string // Localpart.
	Host    string // Domain.
}

// Envelope is the parsed message envelope of a FETCH ENVELOPE response.
// Empty strings were NIL on the wire.
type Envelope struct {
	Date      string
	Subject   string
	From      []Address
	Sender    []Address
	ReplyTo   []Address
	To        []Address
	CC        []Address
	BCC       []Address
	InReplyTo string
	MessageID string
}

// BodyFields are the common fields of a single-part body structure.
type BodyFields struct {
	Params       [][2]string
	ContentID    string
	ContentDescr string
	CTE          string
	Octets       int64
}

// BodyTypeBasic is a non-multipart, non-message, non-text body part.
type BodyTypeBasic struct {
	MediaType    string
	MediaSubtype string
	BodyFields   BodyFields
}

// BodyTypeText is a text/* body part.
type BodyTypeText struct {
	MediaType    string
	MediaSubtype string
	BodyFields   BodyFields
	Lines        int64
}

// BodyTypeMsg is a message/rfc822 body part, containing a nested envelope
// and body structure.
type BodyTypeMsg struct {
	MediaType    string
	MediaSubtype string
	BodyFields   BodyFields
	Envelope     Envelope
	// BodyStructure is one of BodyTypeBasic, BodyTypeText, BodyTypeMsg,
	// BodyTypeMpart.
	BodyStructure any
	Lines         int64
}

// BodyTypeMpart is a multipart/* body, with nested parts.
type BodyTypeMpart struct {
	// Each element is one of BodyTypeBasic, BodyTypeText, BodyTypeMsg,
	// BodyTypeMpart.
	Parts        []any
	MediaSubtype string
}

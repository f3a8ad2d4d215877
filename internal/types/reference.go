package types

import "io"

// Kind identifies the role a referenced resource plays in a parse.
type Kind int

const (
	// KindDocument is the top-level document handed to Parse.
	KindDocument Kind = iota
	// KindDTD is an external DTD referenced from a DOCTYPE declaration.
	KindDTD
	// KindEntity is an external parsed entity referenced from a DTD.
	KindEntity
	// KindUnparsedEntity is an external unparsed entity (NDATA).
	KindUnparsedEntity
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindDTD:
		return "dtd"
	case KindEntity:
		return "entity"
	case KindUnparsedEntity:
		return "unparsed-entity"
	default:
		return "unknown"
	}
}

// Reference describes a single external resource encountered during parsing.
// It is immutable once created; Offset is the byte offset of the referencing
// construct within the document that contains it.
type Reference struct {
	URI    string
	Kind   Kind
	Offset int64
}

// Content is the normalized result of a successful resolution.
// The reader is single-pass and not restartable; ownership transfers to the
// caller, the resolver holds no further reference to it.
type Content struct {
	Reader    io.Reader
	SourceURI string
}

package xmlres

import "github.com/arloliu/xmlres/internal/types"

// Kind identifies the role a referenced resource plays in a parse.
type Kind = types.Kind

const (
	// KindDocument is the top-level document handed to Parse.
	KindDocument Kind = types.KindDocument
	// KindDTD is an external DTD referenced from a DOCTYPE declaration.
	KindDTD Kind = types.KindDTD
	// KindEntity is an external parsed entity referenced from a DTD.
	KindEntity Kind = types.KindEntity
	// KindUnparsedEntity is an external unparsed entity (NDATA).
	KindUnparsedEntity Kind = types.KindUnparsedEntity
)

// Reference describes a single external resource encountered during parsing.
type Reference = types.Reference

// Content is the normalized result of a successful resolution.
// Its reader is single-pass; ownership transfers to the caller.
type Content = types.Content

package types

import (
	"fmt"
	"strings"
)

// Reason explains a policy decision.
type Reason int

const (
	// ReasonAllowed means the reference passed both policy gates.
	ReasonAllowed Reason = iota
	// ReasonNetworkDisabled means remote access is turned off for this parse.
	ReasonNetworkDisabled
	// ReasonDTDLoadingDisabled means the reference is a DTD and DTD loading
	// is turned off.
	ReasonDTDLoadingDisabled
	// ReasonSchemeNotPermitted means the URI scheme has no registered
	// transport and no policy rule allows it.
	ReasonSchemeNotPermitted
)

// String returns a human-readable name for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonAllowed:
		return "allowed"
	case ReasonNetworkDisabled:
		return "network-disabled"
	case ReasonDTDLoadingDisabled:
		return "dtd-loading-disabled"
	case ReasonSchemeNotPermitted:
		return "scheme-not-permitted"
	default:
		return "unknown"
	}
}

// Category classifies a transport-level failure.
type Category int

const (
	// CategoryConnectionRefused covers dial failures.
	CategoryConnectionRefused Category = iota
	// CategoryTimeout covers deadline and timeout failures.
	CategoryTimeout
	// CategoryProtocol covers every other transport-level failure.
	CategoryProtocol
)

// String returns a human-readable name for the category.
func (c Category) String() string {
	switch c {
	case CategoryConnectionRefused:
		return "connection refused"
	case CategoryTimeout:
		return "timeout"
	case CategoryProtocol:
		return "protocol error"
	default:
		return "unknown"
	}
}

// PolicyError is returned when the resolution policy denies a reference
// before any fetch is attempted.
type PolicyError struct {
	URI    string
	Kind   Kind
	Reason Reason
}

// Error returns the string representation of the PolicyError.
func (e *PolicyError) Error() string {
	var sb strings.Builder
	sb.WriteString("failed to load external ")
	sb.WriteString(e.Kind.String())
	sb.WriteString(" \"")
	sb.WriteString(e.URI)
	sb.WriteString("\": ")

	switch e.Reason {
	case ReasonNetworkDisabled:
		sb.WriteString("network access is disabled")
	case ReasonDTDLoadingDisabled:
		sb.WriteString("DTD loading is disabled")
	case ReasonSchemeNotPermitted:
		sb.WriteString("URI scheme is not permitted")
	default:
		sb.WriteString("denied by policy")
	}

	return sb.String()
}

// TransportError is returned when the transport fails before producing a
// response: connection refused, timeout, or a protocol-level failure.
type TransportError struct {
	URI      string
	Category Category
	Detail   string
	Err      error
}

// Error returns the string representation of the TransportError.
func (e *TransportError) Error() string {
	var sb strings.Builder
	sb.WriteString("failed to load \"")
	sb.WriteString(e.URI)
	sb.WriteString("\": ")
	sb.WriteString(e.Category.String())

	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned when a fetch completes but the remote side answered
// with a non-2xx status. It is an I/O-class failure, distinct from syntax
// errors, so callers can tell "couldn't fetch" from "fetched but malformed".
type StatusError struct {
	URI  string
	Code int
}

// Error returns the string representation of the StatusError.
func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to load \"%s\": remote returned status %d", e.URI, e.Code)
}

// ContentError is returned when response normalization fails: a corrupted or
// truncated content encoding, or an encoding this package does not support.
type ContentError struct {
	URI      string
	Encoding string
	Err      error
}

// Error returns the string representation of the ContentError.
func (e *ContentError) Error() string {
	var sb strings.Builder
	sb.WriteString("malformed content from \"")
	sb.WriteString(e.URI)
	sb.WriteString("\"")

	if e.Encoding != "" {
		sb.WriteString(" (encoding ")
		sb.WriteString(e.Encoding)
		sb.WriteString(")")
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ContentError) Unwrap() error {
	return e.Err
}

// SyntaxError is produced by the document collaborator when the byte stream
// is not well-formed, including references to entities that were never
// defined because their DTD could not be loaded.
type SyntaxError struct {
	URI    string
	Entity string
	Offset int64
	Err    error
}

// Error returns the string representation of the SyntaxError.
func (e *SyntaxError) Error() string {
	var sb strings.Builder
	sb.WriteString("syntax error")

	if e.URI != "" {
		sb.WriteString(" in \"")
		sb.WriteString(e.URI)
		sb.WriteString("\"")
	}

	if e.Offset > 0 {
		fmt.Fprintf(&sb, " at byte %d", e.Offset)
	}

	if e.Entity != "" {
		sb.WriteString(": undefined entity \"")
		sb.WriteString(e.Entity)
		sb.WriteString("\"")
	} else if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

package xmlres

import "github.com/arloliu/xmlres/internal/types"

// PolicyError reports a reference denied by the resolution policy before any
// fetch was attempted. The Reason distinguishes a network-access denial from
// a DTD-loading denial.
type PolicyError = types.PolicyError

// TransportError reports a connection, timeout or protocol-level failure
// from the transport.
type TransportError = types.TransportError

// StatusError reports a fetch that completed with a non-2xx status.
type StatusError = types.StatusError

// ContentError reports a response whose content encoding was corrupted,
// truncated or unsupported.
type ContentError = types.ContentError

// SyntaxError reports malformed document content, including references to
// entities left undefined because their DTD was not loaded.
type SyntaxError = types.SyntaxError

// Reason explains a policy decision.
type Reason = types.Reason

const (
	// ReasonAllowed means the reference passed both policy gates.
	ReasonAllowed Reason = types.ReasonAllowed
	// ReasonNetworkDisabled means remote access is turned off for this parse.
	ReasonNetworkDisabled Reason = types.ReasonNetworkDisabled
	// ReasonDTDLoadingDisabled means the reference is a DTD and DTD loading
	// is turned off.
	ReasonDTDLoadingDisabled Reason = types.ReasonDTDLoadingDisabled
	// ReasonSchemeNotPermitted means no policy rule allows the URI scheme.
	ReasonSchemeNotPermitted Reason = types.ReasonSchemeNotPermitted
)

// Category classifies a transport-level failure.
type Category = types.Category

const (
	// CategoryConnectionRefused covers dial failures.
	CategoryConnectionRefused Category = types.CategoryConnectionRefused
	// CategoryTimeout covers deadline and timeout failures.
	CategoryTimeout Category = types.CategoryTimeout
	// CategoryProtocol covers every other transport-level failure.
	CategoryProtocol Category = types.CategoryProtocol
)

// Package policy decides whether an external reference may be fetched.
//
// Two independent switches gate resolution: DTD loading and network access.
// The gates are checked in a fixed order and the stricter one always wins:
//
//  1. a DTD reference with DTD loading off is denied as DTD-loading-disabled,
//     before network policy is even consulted;
//  2. a remote reference with network access off is denied as
//     network-disabled, for every kind, including DTDs when DTD loading is on.
//
// Local references are always allowed; network policy governs only remote
// transport. Decisions are pure functions of their inputs, computed fresh per
// reference and never cached.
package policy

import (
	"strings"

	"github.com/arloliu/xmlres/internal/types"
)

// Switches is the caller-controlled policy configuration, read-only for the
// duration of a parse.
type Switches struct {
	NetworkAccess bool
	LoadDTD       bool
}

// Decision is the outcome of one policy check.
type Decision struct {
	Allowed bool
	Reason  types.Reason
}

// Decide checks the reference against both policy gates.
func Decide(ref types.Reference, sw Switches) Decision {
	// Gate 1: DTD loading is the prerequisite for any DTD fetch.
	if ref.Kind == types.KindDTD && !sw.LoadDTD {
		return Decision{Reason: types.ReasonDTDLoadingDisabled}
	}

	// Gate 2: network policy, remote schemes only.
	switch schemeOf(ref.URI) {
	case "http", "https":
		if !sw.NetworkAccess {
			return Decision{Reason: types.ReasonNetworkDisabled}
		}

		return Decision{Allowed: true, Reason: types.ReasonAllowed}
	case "file", "":
		// Local references are always permitted.
		return Decision{Allowed: true, Reason: types.ReasonAllowed}
	default:
		return Decision{Reason: types.ReasonSchemeNotPermitted}
	}
}

// schemeOf returns the URI scheme, or "" for bare local paths.
func schemeOf(uri string) string {
	parts := strings.SplitN(uri, "://", 2)
	if len(parts) != 2 {
		return ""
	}

	return strings.ToLower(parts[0])
}

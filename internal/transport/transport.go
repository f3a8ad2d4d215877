// Package transport performs single-shot fetches of external resources.
//
// A Transport issues exactly one request per Fetch call: no retries and no
// caching. Redirect behavior is whatever the underlying implementation does;
// the HTTP transport documents its policy explicitly.
package transport

import (
	"context"
	"strings"
)

// Header is one response header as received. Name matching is
// case-insensitive; the original spelling and order are preserved.
type Header struct {
	Name  string
	Value string
}

// Response is the raw result of one fetch. It is owned by the caller of
// Fetch for the duration of one resolution and must not be retained.
type Response struct {
	StatusCode int
	Headers    []Header
	Body       []byte

	// RequestedPath is the literal path actually issued on the wire, kept so
	// callers can verify what was requested.
	RequestedPath string
}

// HeaderValue returns the first header value whose name matches name
// case-insensitively.
func (r *Response) HeaderValue(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}

	return "", false
}

// Transport fetches the resource identified by a URI.
// Implementations MUST issue exactly one request per call and MUST be safe
// for concurrent use by multiple goroutines.
type Transport interface {
	// Fetch performs a single request for the given URI.
	Fetch(ctx context.Context, uri string) (*Response, error)
}

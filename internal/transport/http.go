package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"syscall"
	"time"

	"github.com/arloliu/xmlres/internal/types"
)

// DefaultMaxSize caps how many body bytes the HTTP transport reads.
const DefaultMaxSize = 16 * 1024 * 1024 // 16MB

// HTTP fetches resources over the http:// and https:// schemes.
//
// Redirects follow the net/http client default (up to 10 hops); each Fetch
// call is still a single logical request from the resolver's point of view.
// The zero timeout blocks indefinitely, matching the minimal contract; set
// one explicitly for untrusted hosts.
type HTTP struct {
	Client  *http.Client
	MaxSize int64
}

// NewHTTP creates an HTTP transport. A zero timeout means no timeout.
func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{
		Client:  &http.Client{Timeout: timeout},
		MaxSize: DefaultMaxSize,
	}
}

// Fetch performs a single GET request for the given URI.
func (t *HTTP) Fetch(ctx context.Context, uri string) (*Response, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, &types.TransportError{
			URI:      uri,
			Category: types.CategoryProtocol,
			Detail:   "invalid URI",
			Err:      err,
		}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &types.TransportError{
			URI:      uri,
			Category: types.CategoryProtocol,
			Detail:   fmt.Sprintf("unsupported scheme for http transport: %s", u.Scheme),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &types.TransportError{
			URI:      uri,
			Category: types.CategoryProtocol,
			Err:      err,
		}
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, &types.TransportError{
			URI:      uri,
			Category: categorize(err),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	limit := t.MaxSize
	if limit == 0 {
		limit = DefaultMaxSize
	}

	// Read with limit + 1 to detect overflow
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &types.TransportError{
			URI:      uri,
			Category: categorize(err),
			Detail:   "reading response body",
			Err:      err,
		}
	}

	if int64(len(body)) > limit {
		return nil, &types.TransportError{
			URI:      uri,
			Category: types.CategoryProtocol,
			Detail:   fmt.Sprintf("response exceeds maximum size of %d bytes", limit),
		}
	}

	return &Response{
		StatusCode:    resp.StatusCode,
		Headers:       collectHeaders(resp.Header),
		Body:          body,
		RequestedPath: resp.Request.URL.RequestURI(),
	}, nil
}

// collectHeaders flattens an http.Header map into an ordered slice.
// net/http does not expose wire order, so names are sorted for determinism;
// values within one name keep their received order.
func collectHeaders(h http.Header) []Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Header
	for _, name := range names {
		for _, value := range h[name] {
			out = append(out, Header{Name: name, Value: value})
		}
	}

	return out
}

// categorize maps a transport-level error to its failure category.
func categorize(err error) types.Category {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return types.CategoryTimeout
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.CategoryTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return types.CategoryConnectionRefused
	}

	return types.CategoryProtocol
}

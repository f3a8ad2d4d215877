package transport

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/arloliu/xmlres/internal/types"
)

// Composite delegates fetches to registered transports based on URI scheme.
// URIs without a scheme are treated as local file paths.
type Composite struct {
	transports map[string]Transport
}

// NewComposite creates a Composite with the default transports registered:
// file (backed by fs, or the OS filesystem when nil), http and https.
// A zero timeout means HTTP fetches block indefinitely; maxSize of 0 uses
// DefaultMaxSize.
func NewComposite(fs afero.Fs, timeout time.Duration, maxSize int64) *Composite {
	c := &Composite{
		transports: make(map[string]Transport),
	}
	c.Register("file", NewFile(fs))

	httpTransport := NewHTTP(timeout)
	if maxSize > 0 {
		httpTransport.MaxSize = maxSize
	}
	c.Register("http", httpTransport)
	c.Register("https", httpTransport)

	return c
}

// Register registers a transport for a given scheme.
func (c *Composite) Register(scheme string, t Transport) {
	c.transports[scheme] = t
}

// Fetch delegates to the transport registered for the URI's scheme.
func (c *Composite) Fetch(ctx context.Context, uri string) (*Response, error) {
	scheme := "file"
	if parts := strings.SplitN(uri, "://", 2); len(parts) == 2 {
		scheme = parts[0]
	}

	t, ok := c.transports[scheme]
	if !ok {
		return nil, &types.TransportError{
			URI:      uri,
			Category: types.CategoryProtocol,
			Detail:   "unsupported scheme: " + scheme,
		}
	}

	return t.Fetch(ctx, uri)
}

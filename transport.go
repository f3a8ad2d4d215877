package xmlres

import (
	"time"

	"github.com/spf13/afero"

	"github.com/arloliu/xmlres/internal/transport"
)

// Transport performs a single request for a URI.
// It is used to substitute the fetch layer in tests or to provide custom
// schemes. Implementations MUST issue exactly one request per Fetch call and
// MUST be safe for concurrent use by multiple goroutines.
type Transport = transport.Transport

// Response is the raw result of one fetch.
type Response = transport.Response

// Header is one response header as received.
type Header = transport.Header

// RequestRecord is one issued request: literal path and raw query.
type RequestRecord = transport.Record

// Recorder wraps a Transport and records every issued request in call order.
type Recorder = transport.Recorder

// NewRecorder creates a Recorder delegating to next.
func NewRecorder(next Transport) *Recorder {
	return transport.NewRecorder(next)
}

// NewHTTPTransport creates the default HTTP transport.
// A zero timeout blocks indefinitely; redirects follow the net/http client
// default of up to 10 hops.
func NewHTTPTransport(timeout time.Duration) Transport {
	return transport.NewHTTP(timeout)
}

// NewFileTransport creates the default file transport.
// If fs is nil, the OS filesystem is used.
func NewFileTransport(fs afero.Fs) Transport {
	return transport.NewFile(fs)
}

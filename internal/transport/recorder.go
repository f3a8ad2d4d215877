package transport

import (
	"context"
	"net/url"
	"sync"
)

// Record is one issued request: the literal path and raw query string.
type Record struct {
	Path  string
	Query string
}

// Recorder wraps a Transport and records every issued request in call order.
// Conformance tooling uses the record to assert request-once behavior and the
// absence of extra requests after a denial.
type Recorder struct {
	next Transport

	mu      sync.Mutex
	records []Record
}

// NewRecorder creates a Recorder delegating to next.
func NewRecorder(next Transport) *Recorder {
	return &Recorder{next: next}
}

// Fetch records the request and delegates to the wrapped transport.
// Requests are recorded even when the underlying fetch fails, since the
// request was still issued.
func (r *Recorder) Fetch(ctx context.Context, uri string) (*Response, error) {
	rec := Record{Path: uri}
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" {
		rec = Record{Path: u.Path, Query: u.RawQuery}
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	return r.next.Fetch(ctx, uri)
}

// Records returns a copy of the recorded requests in call order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)

	return out
}

// Count returns how many requests have been issued so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.records)
}

// Reset clears the recorded requests.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
}

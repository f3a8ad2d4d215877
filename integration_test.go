package xmlres_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/xmlres"
)

// collector serves a canned response and records every request's path and
// query in call order.
type collector struct {
	data    []byte
	code    int
	headers map[string]string

	mu       sync.Mutex
	requests []xmlres.RequestRecord
}

func newCollector(data []byte, code int, headers map[string]string) *collector {
	if code == 0 {
		code = http.StatusOK
	}

	return &collector{data: data, code: code, headers: headers}
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.requests = append(c.requests, xmlres.RequestRecord{
		Path:  r.URL.Path,
		Query: r.URL.RawQuery,
	})
	c.mu.Unlock()

	for name, value := range c.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(c.code)
	_, _ = w.Write(c.data)
}

func (c *collector) Requests() []xmlres.RequestRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]xmlres.RequestRecord, len(c.requests))
	copy(out, c.requests)

	return out
}

func networkParser(t *testing.T) *xmlres.Parser {
	t.Helper()

	p, err := xmlres.New().WithNetworkAccess(true).Build()
	require.NoError(t, err)

	return p
}

func TestHTTPDocument(t *testing.T) {
	handler := newCollector([]byte(`<root><a/></root>`), 0, nil)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	doc, err := networkParser(t).Parse(context.Background(), ts.URL+"/TEST")
	require.NoError(t, err)

	assert.Equal(t, "root", doc.Root.Tag)
	require.Len(t, doc.Root.Children, 1)
	assert.Equal(t, "a", doc.Root.Children[0].Tag)

	// Exactly one request, literal path, no query parameters.
	assert.Equal(t, []xmlres.RequestRecord{{Path: "/TEST"}}, handler.Requests())
}

func TestHTTPDocument404(t *testing.T) {
	handler := newCollector([]byte(`<root/>`), http.StatusNotFound, nil)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	_, err := networkParser(t).Parse(context.Background(), ts.URL+"/TEST")
	require.Error(t, err)

	// An I/O-class failure carrying the status code, never a syntax error.
	var serr *xmlres.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Code)

	var synErr *xmlres.SyntaxError
	assert.False(t, errors.As(err, &synErr))
}

func TestHTTPDocumentGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`<root><a/></root>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	handler := newCollector(buf.Bytes(), 0, map[string]string{"Content-Encoding": "gzip"})
	ts := httptest.NewServer(handler)
	defer ts.Close()

	doc, err := networkParser(t).Parse(context.Background(), ts.URL+"/TEST")
	require.NoError(t, err)

	// Byte-identical outcome to the uncompressed body: same tree.
	assert.Equal(t, "root", doc.Root.Tag)
	require.Len(t, doc.Root.Children, 1)
	assert.Equal(t, "a", doc.Root.Children[0].Tag)
	assert.Equal(t, []xmlres.RequestRecord{{Path: "/TEST"}}, handler.Requests())
}

func TestParserInputMix(t *testing.T) {
	data := []byte(`<root><a/></root>`)
	handler := newCollector(data, 0, nil)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	parser := networkParser(t)
	ctx := context.Background()

	// Remote and in-memory parses interleave without affecting each other.
	for i := 0; i < 2; i++ {
		doc, err := parser.Parse(ctx, ts.URL+"/TEST")
		require.NoError(t, err)
		assert.Equal(t, "a", doc.Root.Children[0].Tag)

		doc, err = parser.ParseBytes(ctx, data, "")
		require.NoError(t, err)
		assert.Equal(t, "a", doc.Root.Children[0].Tag)
	}

	doc, err := parser.ParseBytes(ctx, data, "")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Root.Children[0].Tag)
}

func TestRepeatedParsesFetchTwice(t *testing.T) {
	handler := newCollector([]byte(`<root><a/></root>`), 0, nil)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	parser := networkParser(t)
	ctx := context.Background()

	first, err := parser.Parse(ctx, ts.URL+"/TEST")
	require.NoError(t, err)
	second, err := parser.Parse(ctx, ts.URL+"/TEST")
	require.NoError(t, err)

	// No hidden cross-call cache: two parses, two independent fetches,
	// structurally identical results.
	require.Len(t, handler.Requests(), 2)
	assert.Equal(t, first.Root.Tag, second.Root.Tag)
	require.Len(t, second.Root.Children, len(first.Root.Children))
	assert.Equal(t, first.Root.Children[0].Tag, second.Root.Children[0].Tag)
}

// queueHandler pops one canned response per request, mirroring the
// conformance fixture's response stack.
type queueHandler struct {
	mu        sync.Mutex
	responses [][]byte
	served    int
}

func (q *queueHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.responses) == 0 {
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	body := q.responses[0]
	q.responses = q.responses[1:]
	q.served++
	_, _ = w.Write(body)
}

func (q *queueHandler) servedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.served
}

const networkDTDDoc = `<?xml version="1.0"?>
<!DOCTYPE root SYSTEM "./file.dtd">
<root>&myentity;</root>
`

const networkDTDBody = `<!ENTITY myentity "DEFINED">`

func TestNetworkDTD_Enabled(t *testing.T) {
	q := &queueHandler{responses: [][]byte{
		[]byte(networkDTDDoc),
		[]byte(networkDTDBody),
	}}
	ts := httptest.NewServer(q)
	defer ts.Close()

	parser, err := xmlres.New().
		WithNetworkAccess(true).
		WithDTDLoading(true).
		Build()
	require.NoError(t, err)

	doc, err := parser.Parse(context.Background(), ts.URL+"/dir/test.xml")
	require.NoError(t, err)

	assert.Equal(t, "DEFINED", doc.Root.Text)
	assert.Equal(t, 2, q.servedCount(), "document and DTD, nothing else")
}

func TestNetworkDTD_NetworkDisabledRemoteDocument(t *testing.T) {
	// Documented denial order: the remote main document itself is gated, so
	// the parse fails before any request is issued.
	q := &queueHandler{responses: [][]byte{
		[]byte(networkDTDDoc),
		[]byte(networkDTDBody),
	}}
	ts := httptest.NewServer(q)
	defer ts.Close()

	parser, err := xmlres.New().
		WithNetworkAccess(false).
		WithDTDLoading(true).
		Build()
	require.NoError(t, err)

	_, err = parser.Parse(context.Background(), ts.URL+"/dir/test.xml")
	require.Error(t, err)

	var perr *xmlres.PolicyError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, xmlres.ReasonNetworkDisabled, perr.Reason)
	assert.Contains(t, err.Error(), "failed to load")

	assert.Equal(t, 0, q.servedCount(), "nothing read")
}

func TestNetworkDTD_RemoteDTDDenied(t *testing.T) {
	// Local document, remote DTD, network disabled: the DTD fetch is denied
	// before its body is read, the entity stays undefined, and the failure
	// surfaces as a syntax error naming the entity.
	q := &queueHandler{responses: [][]byte{[]byte(networkDTDBody)}}
	ts := httptest.NewServer(q)
	defer ts.Close()

	parser, err := xmlres.New().
		WithNetworkAccess(false).
		WithDTDLoading(true).
		Build()
	require.NoError(t, err)

	_, err = parser.ParseBytes(context.Background(),
		[]byte(networkDTDDoc), ts.URL+"/dir/test.xml")
	require.Error(t, err)

	var serr *xmlres.SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, err.Error(), "myentity")

	assert.Equal(t, 0, q.servedCount(), "DTD not read")
}

func TestNetworkDTD_NestedEntityDenied(t *testing.T) {
	// The DTD itself is local and read successfully; the entity it defines
	// points at the network. With network access off, exactly the DTD has
	// been fetched when the denial hits, and the error is an I/O-class
	// policy failure, not a syntax error.
	q := &queueHandler{responses: [][]byte{[]byte("DEFINED")}}
	ts := httptest.NewServer(q)
	defer ts.Close()

	fs := afero.NewMemMapFs()
	dtdBody := `<!ENTITY myentity SYSTEM "` + ts.URL + `/dir/entity.txt">`
	require.NoError(t, afero.WriteFile(fs, "/data/file.dtd", []byte(dtdBody), 0o644))

	rec := xmlres.NewRecorder(xmlres.NewFileTransport(fs))
	parser, err := xmlres.New().
		WithNetworkAccess(false).
		WithDTDLoading(true).
		WithTransport(rec).
		Build()
	require.NoError(t, err)

	doc := `<!DOCTYPE root SYSTEM "./file.dtd"><root>&myentity;</root>`
	_, err = parser.ParseBytes(context.Background(), []byte(doc), "/data/test.xml")
	require.Error(t, err)

	var perr *xmlres.PolicyError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, xmlres.ReasonNetworkDisabled, perr.Reason)
	assert.Contains(t, err.Error(), "failed to load")

	require.Len(t, rec.Records(), 1, "DTD read, entity denied before any fetch")
	assert.Equal(t, "/data/file.dtd", rec.Records()[0].Path)
	assert.Equal(t, 0, q.servedCount())
}

func TestNetworkDTD_NestedEntityAllowed(t *testing.T) {
	q := &queueHandler{responses: [][]byte{[]byte("DEFINED")}}
	ts := httptest.NewServer(q)
	defer ts.Close()

	fs := afero.NewMemMapFs()
	dtdBody := `<!ENTITY myentity SYSTEM "` + ts.URL + `/dir/entity.txt">`
	require.NoError(t, afero.WriteFile(fs, "/data/file.dtd", []byte(dtdBody), 0o644))

	parser, err := xmlres.New().
		WithNetworkAccess(true).
		WithDTDLoading(true).
		WithFilesystem(fs).
		Build()
	require.NoError(t, err)

	doc := `<!DOCTYPE root SYSTEM "./file.dtd"><root>&myentity;</root>`
	parsed, err := parser.ParseBytes(context.Background(), []byte(doc), "/data/test.xml")
	require.NoError(t, err)

	assert.Equal(t, "DEFINED", parsed.Root.Text)
	assert.Equal(t, 1, q.servedCount())
}

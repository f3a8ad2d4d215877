// Package normalize turns a raw transport response into plain content bytes.
//
// It enforces the status-code policy (2xx proceeds, everything else is an
// I/O-class failure) and strips transparent content encodings. Only gzip is
// supported; unknown encodings fail rather than passing through raw.
package normalize

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/arloliu/xmlres/internal/transport"
	"github.com/arloliu/xmlres/internal/types"
)

// ErrUnsupportedEncoding marks a Content-Encoding this package cannot strip.
var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

// Decode validates the response status and returns the body with any
// transparent content encoding removed.
func Decode(uri string, resp *transport.Response) ([]byte, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.StatusError{URI: uri, Code: resp.StatusCode}
	}

	enc, ok := resp.HeaderValue("Content-Encoding")
	if !ok {
		return resp.Body, nil
	}

	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "identity":
		return resp.Body, nil
	case "gzip":
		return gunzip(uri, resp.Body)
	default:
		return nil, &types.ContentError{URI: uri, Encoding: enc, Err: ErrUnsupportedEncoding}
	}
}

// gunzip decompresses a gzip-framed body. The footer (size and checksum) is
// fully consumed and verified; truncated or corrupted data fails.
func gunzip(uri string, body []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ContentError{URI: uri, Encoding: "gzip", Err: err}
	}

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, &types.ContentError{URI: uri, Encoding: "gzip", Err: err}
	}

	if err := zr.Close(); err != nil {
		return nil, &types.ContentError{URI: uri, Encoding: "gzip", Err: err}
	}

	return data, nil
}

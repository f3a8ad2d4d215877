package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/afero"

	"github.com/arloliu/xmlres/internal/types"
)

// File fetches resources using the file:// scheme or bare local paths.
// The filesystem is pluggable so tests can substitute an in-memory one.
type File struct {
	Fs afero.Fs
}

// NewFile creates a file transport. If fs is nil, the OS filesystem is used.
func NewFile(fs afero.Fs) *File {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &File{Fs: fs}
}

// Fetch reads the file identified by the URI.
// Supports file:///path, file://path and bare paths without a scheme.
// A successful read is presented as a 200 response so the normalizer treats
// local and remote content uniformly.
func (t *File) Fetch(ctx context.Context, uri string) (*Response, error) {
	path, err := filePath(uri)
	if err != nil {
		return nil, &types.TransportError{
			URI:      uri,
			Category: types.CategoryProtocol,
			Detail:   "invalid URI",
			Err:      err,
		}
	}

	// Check context before the read; afero has no context-aware API.
	if err := ctx.Err(); err != nil {
		return nil, &types.TransportError{
			URI:      uri,
			Category: types.CategoryTimeout,
			Err:      err,
		}
	}

	data, err := afero.ReadFile(t.Fs, path)
	if err != nil {
		return nil, &types.TransportError{
			URI:      uri,
			Category: types.CategoryProtocol,
			Detail:   "reading file",
			Err:      err,
		}
	}

	return &Response{
		StatusCode:    http.StatusOK,
		Body:          data,
		RequestedPath: path,
	}, nil
}

// filePath extracts the filesystem path from a file URI or bare path.
func filePath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return uri, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}

	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported scheme for file transport: %s", u.Scheme)
	}

	// Handle both file:///abs/path (host empty) and file://rel/path
	// (host carries the first path segment).
	path := u.Path
	if u.Host != "" {
		path = u.Host + u.Path
	}

	return path, nil
}

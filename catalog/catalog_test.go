package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/xmlres"
	"github.com/arloliu/xmlres/catalog"
)

func TestLoad_YAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/catalog.yaml", []byte(`
entries:
  - match: "http://example.com/dtds/"
    rewrite: "file:///usr/share/xml/"
`), 0o644))

	c, err := catalog.Load(fs, "/catalog.yaml")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	got, ok := c.Rewrite("http://example.com/dtds/doc.dtd")
	require.True(t, ok)
	assert.Equal(t, "file:///usr/share/xml/doc.dtd", got)
}

func TestLoad_JSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/catalog.json", []byte(`
{"entries": [{"match": "http://a/", "rewrite": "file:///b/"}]}
`), 0o644))

	c, err := catalog.Load(fs, "/catalog.json")
	require.NoError(t, err)

	got, ok := c.Rewrite("http://a/x.dtd")
	require.True(t, ok)
	assert.Equal(t, "file:///b/x.dtd", got)
}

func TestLoad_Invalid(t *testing.T) {
	fs := afero.NewMemMapFs()

	t.Run("missing file", func(t *testing.T) {
		_, err := catalog.Load(fs, "/absent.yaml")
		assert.Error(t, err)
	})

	t.Run("missing rewrite", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte(`
entries:
  - match: "http://a/"
`), 0o644))

		_, err := catalog.Load(fs, "/bad.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid catalog")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/broken.yaml", []byte("entries: ["), 0o644))

		_, err := catalog.Load(fs, "/broken.yaml")
		assert.Error(t, err)
	})
}

func TestRewrite_LongestPrefixWins(t *testing.T) {
	c := catalog.New(
		catalog.Entry{Match: "http://example.com/", Rewrite: "file:///mirror/"},
		catalog.Entry{Match: "http://example.com/dtds/", Rewrite: "file:///dtds/"},
	)

	got, ok := c.Rewrite("http://example.com/dtds/doc.dtd")
	require.True(t, ok)
	assert.Equal(t, "file:///dtds/doc.dtd", got)

	got, ok = c.Rewrite("http://example.com/other.xml")
	require.True(t, ok)
	assert.Equal(t, "file:///mirror/other.xml", got)

	_, ok = c.Rewrite("http://unmatched.org/doc.dtd")
	assert.False(t, ok)
}

func TestCatalog_OfflineDTDResolution(t *testing.T) {
	// The use case the catalog exists for: a remote DTD resolved from a
	// local mirror with the network disabled.
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/mirror/file.dtd",
		[]byte(`<!ENTITY myentity "DEFINED">`), 0o644))

	c := catalog.New(catalog.Entry{
		Match:   "http://example.com/dtds/",
		Rewrite: "file:///mirror/",
	})

	parser, err := xmlres.New().
		WithDTDLoading(true).
		WithCatalog(c).
		WithFilesystem(fs).
		Build()
	require.NoError(t, err)

	src := `<!DOCTYPE root SYSTEM "http://example.com/dtds/file.dtd"><root>&myentity;</root>`
	doc, err := parser.ParseBytes(context.Background(), []byte(src), "")
	require.NoError(t, err)
	assert.Equal(t, "DEFINED", doc.Root.Text)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	write := func(match string) {
		content := "entries:\n  - match: \"" + match + "\"\n    rewrite: \"file:///b/\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("http://old/")

	c := catalog.New()
	reloaded := make(chan error, 8)
	w, err := c.Watch(path, catalog.WatchOptions{
		Debounce: 20 * time.Millisecond,
		OnReload: func(err error) { reloaded <- err },
	})
	require.NoError(t, err)
	defer w.Stop()

	_, ok := c.Rewrite("http://old/x")
	require.True(t, ok)

	write("http://new/")

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not reloaded")
	}

	_, ok = c.Rewrite("http://new/x")
	assert.True(t, ok)
}

func TestWatch_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries: []\n"), 0o644))

	c := catalog.New()
	w, err := c.Watch(path, catalog.WatchOptions{})
	require.NoError(t, err)

	w.Stop()
	w.Stop()
}

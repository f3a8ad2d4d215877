// Package catalog maps external resource identifiers onto replacement URIs.
//
// A catalog is the offline escape hatch for the resolution policy: an entry
// that rewrites a remote DTD's system identifier onto a local file makes the
// DTD resolvable with network access disabled, because rewriting happens
// before the policy check.
//
// Catalog files are YAML (or JSON, a YAML subset):
//
//	entries:
//	  - match: "http://example.com/dtds/"
//	    rewrite: "file:///usr/share/xml/dtds/"
//
// Longest matching prefix wins. Catalogs can be reloaded on change via
// Watch, which uses file system notifications.
package catalog

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
	sigyaml "sigs.k8s.io/yaml"
)

// Entry rewrites URIs starting with Match to start with Rewrite instead.
type Entry struct {
	Match   string `yaml:"match" json:"match" validate:"required"`
	Rewrite string `yaml:"rewrite" json:"rewrite" validate:"required"`
}

// catalogFile is the on-disk catalog document.
type catalogFile struct {
	Entries []Entry `yaml:"entries" json:"entries" validate:"dive"`
}

var validate = validator.New()

// Catalog holds rewrite entries. It is safe for concurrent use; Rewrite may
// race with Reload from a watcher goroutine.
type Catalog struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates a catalog from explicit entries.
func New(entries ...Entry) *Catalog {
	c := &Catalog{}
	c.replace(entries)

	return c
}

// Load reads a catalog file. If fs is nil, the OS filesystem is used.
// Files ending in .json are parsed as JSON; everything else as YAML.
func Load(fs afero.Fs, path string) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Reload(fs, path); err != nil {
		return nil, err
	}

	return c, nil
}

// Reload replaces the catalog's entries from the file at path.
// On error the existing entries are left untouched.
func (c *Catalog) Reload(fs afero.Fs, path string) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read catalog %s: %w", path, err)
	}

	var file catalogFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = sigyaml.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return fmt.Errorf("parse catalog %s: %w", path, err)
	}

	if err := validate.Struct(&file); err != nil {
		return fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	c.replace(file.Entries)

	return nil
}

// replace installs entries sorted by descending match length so the first
// hit during lookup is the longest prefix.
func (c *Catalog) replace(entries []Entry) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Match) > len(sorted[j].Match)
	})

	c.mu.Lock()
	c.entries = sorted
	c.mu.Unlock()
}

// Rewrite returns the replacement URI and true when an entry matches.
func (c *Catalog) Rewrite(uri string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if strings.HasPrefix(uri, e.Match) {
			return e.Rewrite + uri[len(e.Match):], true
		}
	}

	return "", false
}

// Len returns the number of entries currently installed.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

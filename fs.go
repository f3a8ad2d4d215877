package xmlres

import "github.com/spf13/afero"

// DefaultFs is the filesystem used for file: resolution when no explicit
// filesystem or transport is configured. It defaults to the OS filesystem
// but can be overridden for testing.
//
// Example usage for testing:
//
//	func TestLocalDTD(t *testing.T) {
//	    memFs := afero.NewMemMapFs()
//	    afero.WriteFile(memFs, "/doc.xml", []byte("<root/>"), 0644)
//	    xmlres.SetDefaultFs(memFs)
//	    defer xmlres.ResetDefaultFs()
//	    // ... test code ...
//	}
var DefaultFs afero.Fs = afero.NewOsFs()

// SetDefaultFs sets the global default filesystem.
//
// WARNING: This modifies global state and is NOT thread-safe.
// Do not use with t.Parallel() tests. For concurrent tests, use
// WithFilesystem() on individual builders instead.
func SetDefaultFs(fs afero.Fs) {
	DefaultFs = fs
}

// ResetDefaultFs resets the global filesystem to the OS filesystem.
// Call this in test cleanup to restore default behavior.
func ResetDefaultFs() {
	DefaultFs = afero.NewOsFs()
}

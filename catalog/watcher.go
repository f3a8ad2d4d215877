package catalog

import (
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
)

// WatchOptions configures catalog hot reload.
type WatchOptions struct {
	// Debounce coalesces rapid successive file events into one reload.
	Debounce time.Duration `default:"100ms"`

	// OnReload is invoked after every reload attempt with its result.
	// Optional; useful for logging.
	OnReload func(err error)
}

// Watcher reloads a catalog when its backing file changes.
// Watching uses the OS filesystem; in-memory catalogs have nothing to watch.
type Watcher struct {
	catalog *Catalog
	path    string
	opts    WatchOptions
	fsw     *fsnotify.Watcher

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// Watch loads the catalog from path and starts watching it for changes.
// The returned Watcher must be stopped to release the underlying
// file system watcher.
func (c *Catalog) Watch(path string, opts WatchOptions) (*Watcher, error) {
	if err := defaults.Set(&opts); err != nil {
		return nil, err
	}

	if err := c.Reload(nil, path); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()

		return nil, err
	}

	w := &Watcher{
		catalog:  c,
		path:     path,
		opts:     opts,
		fsw:      fsw,
		running:  true,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	go w.loop()

	return w, nil
}

// Stop gracefully stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()

		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	<-w.doneChan

	_ = w.fsw.Close()
}

// loop reacts to file events, debouncing bursts into a single reload.
func (w *Watcher) loop() {
	defer close(w.doneChan)

	var debounceTimer *time.Timer
	var debounceChan <-chan time.Time

	schedule := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.NewTimer(w.opts.Debounce)
		debounceChan = debounceTimer.C
	}

	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Only react to write and create events; editors often replace
			// the file rather than writing in place.
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				schedule()
			}

		case <-w.fsw.Errors:
			// Watch errors are not fatal to the catalog itself.

		case <-debounceChan:
			debounceChan = nil
			err := w.catalog.Reload(nil, w.path)
			if w.opts.OnReload != nil {
				w.opts.OnReload(err)
			}
		}
	}
}

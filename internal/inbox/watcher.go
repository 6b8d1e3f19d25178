// Package inbox watches a directory for order exports and hands each settled
// CSV file to a handler, one at a time.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
)

// Handler processes one settled export.
type Handler func(ctx context.Context, path string) error

// Watcher debounces writes to *.csv files in a directory and calls the
// handler once a file has been quiet for the debounce window. Handled files
// are moved to the processed directory when one is configured.
type Watcher struct {
	mu           sync.RWMutex
	handleMu     sync.Mutex
	watcher      *fsnotify.Watcher
	dir          string
	processedDir string
	handler      Handler
	debounceMap  map[string]time.Time
	debounceDur  time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	FilesSeen     int
	FilesHandled  int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// Options configure a Watcher.
type Options struct {
	Dir          string
	ProcessedDir string
	Debounce     time.Duration
}

// New creates a watcher for opts.Dir.
func New(opts Options, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("inbox: nil handler")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:      fw,
		dir:          opts.Dir,
		processedDir: opts.ProcessedDir,
		handler:      handler,
		debounceMap:  make(map[string]time.Time),
		debounceDur:  debounce,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.setRunning(false)
		return fmt.Errorf("create inbox %s: %w", w.dir, err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.setRunning(false)
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logging.Watch("watching inbox: %s (debounce %v)", w.dir, w.debounceDur)

	go w.run(ctx)
	return nil
}

func (w *Watcher) setRunning(v bool) {
	w.mu.Lock()
	w.running = v
	w.mu.Unlock()
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("inbox watcher stopped")
}

// Run processes files already in the inbox, then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	if err := w.ProcessExisting(ctx); err != nil {
		logging.Get(logging.CategoryWatch).Warn("initial scan failed: %v", err)
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) tick() time.Duration {
	t := w.debounceDur / 4
	if t < 10*time.Millisecond {
		t = 10 * time.Millisecond
	}
	if t > 100*time.Millisecond {
		t = 100 * time.Millisecond
	}
	return t
}

func isExport(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isExport(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	logging.WatchDebug("%s event for %s", event.Op, event.Name)

	w.mu.Lock()
	if _, pending := w.debounceMap[event.Name]; !pending {
		w.stats.FilesSeen++
	}
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	for _, path := range ready {
		w.handle(ctx, path)
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	w.handleMu.Lock()
	defer w.handleMu.Unlock()

	if _, err := os.Stat(path); err != nil {
		logging.WatchDebug("skipping %s: %v", path, err)
		return
	}
	logging.Watch("processing %s", path)
	audit := logging.AuditRun("inbox")

	err := w.handler(ctx, path)
	audit.InboxFile(path, err)
	log := logging.Get(logging.CategoryWatch).With("file", filepath.Base(path))
	if err != nil {
		log.Error("processing failed: %v", err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	w.stats.FilesHandled++
	w.mu.Unlock()

	if w.processedDir == "" {
		return
	}
	if err := os.MkdirAll(w.processedDir, 0755); err != nil {
		log.Error("create processed dir: %v", err)
		return
	}
	dest := filepath.Join(w.processedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		log.Error("move to %s: %v", dest, err)
		return
	}
	logging.WatchDebug("moved %s to %s", path, dest)
}

// ProcessExisting handles every export already sitting in the inbox.
func (w *Watcher) ProcessExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !isExport(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(w.dir, entry.Name())
		w.mu.Lock()
		w.stats.FilesSeen++
		w.mu.Unlock()
		w.handle(ctx, path)
	}
	return nil
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching returns true if the watcher is currently running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}

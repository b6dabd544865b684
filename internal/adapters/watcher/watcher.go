// Package watcher implements recursive file system watching and event coalescing.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// skippedDirectories are never watched, wherever they appear in the tree.
var skippedDirectories = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
}

const eventChannelBuffer = 100

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	events    chan ports.WatchEvent

	mu   sync.Mutex
	root string
	skip map[string]bool
}

// NewWatcher creates a new file system watcher. The fsnotify instance is
// only created by Start. Watch errors are reported through logger and do
// not stop the watcher.
func NewWatcher(logger ports.Logger) *Watcher {
	return &Watcher{
		logger: logger,
		events: make(chan ports.WatchEvent, eventChannelBuffer),
	}
}

// Start watches root recursively. Entries of skip are paths relative to root.
func (w *Watcher) Start(ctx context.Context, root string, skip []string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve watch root"), "root", root)
	}

	w.mu.Lock()
	if w.fsWatcher != nil {
		w.mu.Unlock()
		return zerr.With(zerr.New("watcher already started"), "root", abs)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return zerr.Wrap(err, "failed to create file watcher")
	}
	w.fsWatcher = fsWatcher
	w.root = abs
	w.skip = make(map[string]bool, len(skip))
	for _, s := range skip {
		w.skip[filepath.Join(abs, filepath.FromSlash(s))] = true
	}
	w.mu.Unlock()

	for dir := range w.directories(abs) {
		if err := fsWatcher.Add(dir); err != nil {
			_ = fsWatcher.Close()
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "path", dir)
		}
	}

	go w.processEvents(ctx, fsWatcher)

	return nil
}

// Stop stops the watcher and releases all resources. It is a no-op before Start.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fsWatcher := w.fsWatcher
	w.mu.Unlock()

	if fsWatcher == nil {
		return nil
	}
	return fsWatcher.Close()
}

// Events returns the channel of converted events.
func (w *Watcher) Events() <-chan ports.WatchEvent {
	return w.events
}

// directories walks the tree below root and yields every directory to watch.
func (w *Watcher) directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are skipped
			}
			if !d.IsDir() {
				return nil
			}
			if w.shouldSkip(path) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) shouldSkip(path string) bool {
	if skippedDirectories[filepath.Base(path)] {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.skip[path]
}

func (w *Watcher) processEvents(ctx context.Context, fsWatcher *fsnotify.Watcher) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}

			watchEvent, ok := convertEvent(event)
			if !ok || w.inSkippedDirectory(event.Name) {
				continue
			}

			// New directories are watched before the event is delivered so that
			// files written into them right away are not missed.
			if watchEvent.Operation == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					for dir := range w.directories(event.Name) {
						_ = fsWatcher.Add(dir)
					}
				}
			}

			select {
			case w.events <- watchEvent:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watcher: " + err.Error())
			}
		}
	}
}

// inSkippedDirectory reports whether path lies inside a skipped directory.
// Removing a watched directory can surface events for paths the walk never added.
func (w *Watcher) inSkippedDirectory(path string) bool {
	w.mu.Lock()
	root := w.root
	w.mu.Unlock()

	for dir := path; dir != root && dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		if w.shouldSkip(dir) {
			return true
		}
	}
	return false
}

// convertEvent maps an fsnotify event to a single operation. A write wins
// over a create, which wins over a remove, which wins over a rename.
func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	var op ports.WatchOp
	switch {
	case event.Has(fsnotify.Write):
		op = ports.OpWrite
	case event.Has(fsnotify.Create):
		op = ports.OpCreate
	case event.Has(fsnotify.Remove):
		op = ports.OpRemove
	case event.Has(fsnotify.Rename):
		op = ports.OpRename
	default:
		return ports.WatchEvent{}, false
	}
	return ports.WatchEvent{Path: event.Name, Operation: op}, true
}

package ports

import "context"

// WatchOp represents the type of file system operation.
type WatchOp uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// String returns the verb used when logging the event.
func (op WatchOp) String() string {
	switch op {
	case OpCreate:
		return "created"
	case OpWrite:
		return "changed"
	case OpRemove:
		return "deleted"
	case OpRename:
		return "renamed"
	default:
		return "unknown"
	}
}

// Deleted reports whether the event removed the path. A rename is not a
// deletion: editors that save atomically rename the old file away.
func (op WatchOp) Deleted() bool {
	return op == OpRemove
}

// WatchEvent represents a file system event from the watcher.
type WatchEvent struct {
	// Path is the absolute path of the file or directory that changed.
	Path string
	// Operation is the type of change that occurred.
	Operation WatchOp
}

// Watcher defines the interface for watching file system changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching root recursively, skipping the named directories
	// (relative to root). It returns an error if the watcher fails to start.
	Start(ctx context.Context, root string, skip []string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns the channel of file system events. It is closed when
	// the watcher stops.
	Events() <-chan WatchEvent
}

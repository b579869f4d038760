package watch

import "context"

// Handler processes one ready audio segment.
type Handler func(ctx context.Context, audioPath string) error

// Watcher discovers finished audio segments in the capture output
// directory and dispatches each at most once.
type Watcher interface {
	// Start blocks, sweeping the directory until ctx is cancelled.
	Start(ctx context.Context) error

	// Stop closes the filesystem watcher.
	Stop() error

	// ProcessedCount reports how many segments have been dispatched.
	ProcessedCount() int
}

package watch

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/internal/metrics"
)

// New creates a Watcher over the capture output directory.
//
// The processed set is memory-resident only: after a restart every
// already-quiescent file in the directory is treated as backlog and
// dispatched again. Point the capture at a fresh directory for a clean
// start.
func New(dir string, handler Handler, log logger.Logger, met *metrics.Metrics, maxConcurrent int, pollInterval time.Duration) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &implWatcher{
		dir:       dir,
		handler:   handler,
		logger:    log,
		metrics:   met,
		fsw:       fsw,
		interval:  pollInterval,
		semaphore: make(chan struct{}, maxConcurrent),
		processed: make(map[string]struct{}),
	}, nil
}

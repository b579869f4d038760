package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/internal/metrics"
	"github.com/monitoragent/stream-monitor/internal/model"
)

type implWatcher struct {
	dir       string
	handler   Handler
	logger    logger.Logger
	metrics   *metrics.Metrics
	fsw       *fsnotify.Watcher
	interval  time.Duration
	semaphore chan struct{}
	wg        sync.WaitGroup

	// processed has a single writer: the sweep loop. Readers see an
	// eventually-consistent snapshot, which is fine for status reporting.
	mu        sync.RWMutex
	processed map[string]struct{}
}

// Start sweeps the output directory on a fixed interval. Filesystem
// create events trigger an immediate extra sweep: the capture tool opens
// the next segment the moment it finishes the previous one, so a create
// is exactly the rotation signal.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Segment watcher started (poll: %s, max concurrent: %d). Monitoring: %s",
		w.interval, cap(w.semaphore), w.dir)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for in-flight transcriptions to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "Segment watcher stopped")
			return ctx.Err()

		case <-ticker.C:
			w.sweep(ctx)

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				w.sweep(ctx)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

type segmentFile struct {
	name       string
	capturedAt time.Time
	modTime    time.Time
}

// sweep lists segment files, orders them by embedded timestamp, and
// dispatches every ready, unprocessed one. A segment is marked processed
// before dispatch: failures are never retried.
func (w *implWatcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error(ctx, "Failed to list %s: %v", w.dir, err)
		return
	}

	var segments []segmentFile
	for _, e := range entries {
		if e.IsDir() || !model.IsSegmentName(e.Name()) {
			continue
		}
		at, err := model.ParseSegmentTime(e.Name())
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		segments = append(segments, segmentFile{name: e.Name(), capturedAt: at, modTime: info.ModTime()})
	}

	if len(segments) == 0 {
		return
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].capturedAt.Before(segments[j].capturedAt)
	})

	newest := segments[len(segments)-1].name
	now := time.Now()

	for _, seg := range segments {
		if w.isProcessed(seg.name) {
			continue
		}
		if !w.isReady(seg, newest, now) {
			continue
		}

		// Acquire the worker slot first: bailing out on ctx while
		// waiting leaves the segment unmarked for a later sweep.
		select {
		case w.semaphore <- struct{}{}:
		case <-ctx.Done():
			return
		}

		w.markProcessed(seg.name)
		if w.metrics != nil {
			w.metrics.IncSegmentsProcessed()
		}

		// The segment is already marked processed, so an in-flight
		// transcription finishes and publishes even when the session
		// stops underneath it.
		procCtx := context.WithoutCancel(ctx)

		w.wg.Add(1)
		go func(path string) {
			defer w.wg.Done()
			defer func() { <-w.semaphore }()

			if err := w.handler(procCtx, path); err != nil {
				w.logger.Error(procCtx, "Failed to process %s: %v", path, err)
			}
		}(filepath.Join(w.dir, seg.name))
	}
}

// isReady applies the quiescence check: anything older than the newest
// segment has been rotated away from, and the newest counts only once its
// modification time has been quiet for a full poll interval.
func (w *implWatcher) isReady(seg segmentFile, newest string, now time.Time) bool {
	if seg.name != newest {
		return true
	}
	return now.Sub(seg.modTime) >= w.interval
}

// Stop closes the filesystem watcher.
func (w *implWatcher) Stop() error {
	return w.fsw.Close()
}

func (w *implWatcher) ProcessedCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.processed)
}

func (w *implWatcher) isProcessed(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.processed[name]
	return ok
}

func (w *implWatcher) markProcessed(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.processed[name] = struct{}{}
}

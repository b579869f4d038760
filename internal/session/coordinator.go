package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/monitoragent/stream-monitor/internal/capture"
	"github.com/monitoragent/stream-monitor/internal/config"
	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/internal/metrics"
	"github.com/monitoragent/stream-monitor/internal/pipeline"
	"github.com/monitoragent/stream-monitor/internal/resolver"
	"github.com/monitoragent/stream-monitor/internal/watch"
	"github.com/monitoragent/stream-monitor/pkg/executor"
)

var (
	// ErrAlreadyRunning is returned by Start when a session is live.
	ErrAlreadyRunning = errors.New("stream is already running")

	// ErrNotRunning is returned by Stop when no session is live.
	ErrNotRunning = errors.New("no stream is currently running")
)

// Status is an informational snapshot of the live session.
type Status struct {
	IsRunning           bool
	StreamURL           string
	ProcessedAudioFiles int
	CaptureState        string
	LastError           string
}

// Coordinator owns the single live monitoring session: it creates the
// capture supervisor and segment watcher on start and tears them down on
// stop. At most one session exists at a time.
type Coordinator struct {
	cfg      *config.Config
	resolver resolver.Resolver
	executor executor.Executor
	pipeline pipeline.Pipeline
	logger   logger.Logger
	metrics  *metrics.Metrics

	mu   sync.Mutex
	sess *session
}

// session bundles the per-run components with their cancellation.
type session struct {
	supervisor capture.Supervisor
	watcher    watch.Watcher
	cancel     context.CancelFunc
}

// NewCoordinator creates a Coordinator with no live session.
func NewCoordinator(cfg *config.Config, res resolver.Resolver, exec executor.Executor, pipe pipeline.Pipeline, log logger.Logger, met *metrics.Metrics) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		resolver: res,
		executor: exec,
		pipeline: pipe,
		logger:   log,
		metrics:  met,
	}
}

// Start creates and launches a new session. It rejects while a session is
// actively capturing; a session that died fatally is replaced, since
// retry exhaustion requires exactly this kind of explicit restart.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil {
		state, _ := c.sess.supervisor.State()
		if state == capture.StateRunning || state == capture.StateRetrying {
			return ErrAlreadyRunning
		}
		c.teardownLocked(ctx, c.sess)
		c.sess = nil
	}

	if err := os.MkdirAll(c.cfg.Paths.AudioDir, 0755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}

	sup := capture.New(c.cfg, c.resolver, c.executor, c.logger, c.metrics)
	w, err := watch.New(
		c.cfg.Paths.AudioDir,
		c.pipeline.Process,
		c.logger,
		c.metrics,
		c.cfg.Performance.MaxConcurrent,
		time.Duration(c.cfg.Watcher.PollSeconds)*time.Second,
	)
	if err != nil {
		return fmt.Errorf("create segment watcher: %w", err)
	}

	// The session outlives the start request.
	runCtx, cancel := context.WithCancel(context.Background())

	if err := sup.Start(runCtx); err != nil {
		cancel()
		_ = w.Stop()
		return fmt.Errorf("start capture: %w", err)
	}

	go func() {
		if err := w.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error(runCtx, "Segment watcher exited: %v", err)
		}
	}()

	c.sess = &session{supervisor: sup, watcher: w, cancel: cancel}
	c.logger.Info(ctx, "Stream monitoring and transcription started")
	return nil
}

// Stop tears down the live session. In-flight transcriptions are allowed
// to finish and still publish their records.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	if sess == nil {
		return ErrNotRunning
	}

	err := sess.supervisor.Stop(ctx)
	sess.cancel()
	_ = sess.watcher.Stop()

	c.logger.Info(ctx, "Stream monitoring stopped")
	return err
}

func (c *Coordinator) teardownLocked(ctx context.Context, sess *session) {
	_ = sess.supervisor.Stop(ctx)
	sess.cancel()
	_ = sess.watcher.Stop()
}

// Status returns an eventually-consistent snapshot for reporting.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()

	if sess == nil {
		return Status{CaptureState: capture.StateIdle.String()}
	}

	state, lastErr := sess.supervisor.State()
	st := Status{
		IsRunning:           state == capture.StateRunning || state == capture.StateRetrying,
		ProcessedAudioFiles: sess.watcher.ProcessedCount(),
		CaptureState:        state.String(),
	}
	if st.IsRunning {
		// Report the resolved manifest URL when one is cached; the
		// configured page URL stands in while resolution is pending.
		if m, ok := c.resolver.Cached(); ok {
			st.StreamURL = m.Value
		} else {
			st.StreamURL = c.cfg.Stream.PageURL
		}
	}
	if lastErr != nil {
		st.LastError = lastErr.Error()
	}
	return st
}

package capture

import (
	"sync"
	"time"

	"github.com/monitoragent/stream-monitor/internal/config"
	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/internal/metrics"
	"github.com/monitoragent/stream-monitor/internal/resolver"
	"github.com/monitoragent/stream-monitor/pkg/executor"
)

type implSupervisor struct {
	cfg      *config.Config
	resolver resolver.Resolver
	executor executor.Executor
	logger   logger.Logger
	metrics  *metrics.Metrics

	backoff     time.Duration
	stopTimeout time.Duration
	maxRetries  int

	mu         sync.Mutex
	state      State
	lastErr    error
	retryCount int
	proc       executor.Process
	stopReq    bool
	stopCh     chan struct{}
	done       chan struct{}
}

// New creates a Supervisor for the configured stream.
func New(cfg *config.Config, res resolver.Resolver, exec executor.Executor, log logger.Logger, met *metrics.Metrics) Supervisor {
	return &implSupervisor{
		cfg:         cfg,
		resolver:    res,
		executor:    exec,
		logger:      log,
		metrics:     met,
		backoff:     time.Duration(cfg.Capture.BackoffSeconds) * time.Second,
		stopTimeout: time.Duration(cfg.Capture.StopTimeoutSec) * time.Second,
		maxRetries:  cfg.Capture.MaxRetries,
		state:       StateIdle,
	}
}

package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/monitoragent/stream-monitor/internal/config"
	"github.com/monitoragent/stream-monitor/internal/logger"
)

type implResolver struct {
	pageURL         string
	manifestPattern string
	userAgent       string
	navTimeout      time.Duration
	manifestWait    time.Duration
	cacheTTL        time.Duration
	logger          logger.Logger

	// fetch sniffs the page for a manifest URL; replaceable in tests.
	fetch func(ctx context.Context) (string, error)
	now   func() time.Time

	mu     sync.Mutex
	cached ManifestURL
}

// New creates a Resolver that drives a headless browser to capture the
// stream manifest URL.
func New(cfg *config.Config, log logger.Logger) Resolver {
	r := &implResolver{
		pageURL:         cfg.Stream.PageURL,
		manifestPattern: cfg.Stream.ManifestPattern,
		userAgent:       cfg.Stream.UserAgent,
		navTimeout:      time.Duration(cfg.Stream.NavTimeoutSec) * time.Second,
		manifestWait:    time.Duration(cfg.Stream.ManifestWaitSec) * time.Second,
		cacheTTL:        time.Duration(cfg.Stream.URLCacheTTLMin) * time.Minute,
		logger:          log,
		now:             time.Now,
	}
	r.fetch = r.sniffManifestURL
	return r
}

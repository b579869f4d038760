package summarizer

import (
	"sync"

	"github.com/monitoragent/stream-monitor/internal/logger"
)

type implSummarizer struct {
	apiKeys []string
	logger  logger.Logger
	model   string

	// Summarize is called from concurrent pipeline workers, so the
	// rotation index needs a lock.
	mu         sync.Mutex
	currentKey int
}

// New creates a Summarizer that rotates through the supplied Gemini API
// keys on quota errors.
func New(apiKeys []string, model string, log logger.Logger) Summarizer {
	return &implSummarizer{
		apiKeys: apiKeys,
		logger:  log,
		model:   model,
	}
}

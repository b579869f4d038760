package pipeline

import (
	"time"

	"github.com/monitoragent/stream-monitor/internal/broadcast"
	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/internal/metrics"
	"github.com/monitoragent/stream-monitor/internal/store"
	"github.com/monitoragent/stream-monitor/internal/summarizer"
	"github.com/monitoragent/stream-monitor/internal/transcriber"
)

type implPipeline struct {
	transcriber transcriber.Transcriber
	summarizer  summarizer.Summarizer
	store       *store.TranscriptStore
	hub         *broadcast.Hub
	logger      logger.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// New creates a Pipeline wiring transcription, summarization, the record
// log, and fan-out together.
func New(tr transcriber.Transcriber, sum summarizer.Summarizer, st *store.TranscriptStore, hub *broadcast.Hub, log logger.Logger, met *metrics.Metrics) Pipeline {
	return &implPipeline{
		transcriber: tr,
		summarizer:  sum,
		store:       st,
		hub:         hub,
		logger:      log,
		metrics:     met,
		now:         time.Now,
	}
}

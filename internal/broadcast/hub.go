package broadcast

import (
	"context"
	"sync"

	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/internal/metrics"
	"github.com/monitoragent/stream-monitor/internal/model"
)

// Sink receives published transcript records. Send must be safe for
// concurrent use by the hub.
type Sink interface {
	ID() string
	Send(rec model.TranscriptRecord) error
}

// Hub fans completed records out to all live sinks. Delivery is
// best-effort: a sink that fails a send is pruned immediately, without
// affecting delivery to the others.
type Hub struct {
	logger  logger.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	sinks map[string]Sink
}

// NewHub creates an empty Hub.
func NewHub(log logger.Logger, met *metrics.Metrics) *Hub {
	return &Hub{
		logger:  log,
		metrics: met,
		sinks:   make(map[string]Sink),
	}
}

// Subscribe registers a sink for future publishes.
func (h *Hub) Subscribe(ctx context.Context, sink Sink) {
	h.mu.Lock()
	h.sinks[sink.ID()] = sink
	n := len(h.sinks)
	h.mu.Unlock()

	h.logger.Info(ctx, "Subscriber %s connected. Total: %d", sink.ID(), n)
	h.updateGauge(n)
}

// Unsubscribe removes a sink. A no-op for unknown sinks.
func (h *Hub) Unsubscribe(ctx context.Context, sink Sink) {
	h.mu.Lock()
	delete(h.sinks, sink.ID())
	n := len(h.sinks)
	h.mu.Unlock()

	h.logger.Info(ctx, "Subscriber %s disconnected. Remaining: %d", sink.ID(), n)
	h.updateGauge(n)
}

// Publish delivers a record to every live sink. Failed sinks are removed
// from the set; the publish itself never fails.
func (h *Hub) Publish(ctx context.Context, rec model.TranscriptRecord) {
	h.mu.Lock()
	snapshot := make([]Sink, 0, len(h.sinks))
	for _, s := range h.sinks {
		snapshot = append(snapshot, s)
	}
	h.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	var failed []Sink
	for _, s := range snapshot {
		if err := s.Send(rec); err != nil {
			h.logger.Error(ctx, "Error sending to subscriber %s: %v", s.ID(), err)
			failed = append(failed, s)
		}
	}

	for _, s := range failed {
		h.Unsubscribe(ctx, s)
	}
}

// Count reports the number of live sinks.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sinks)
}

func (h *Hub) updateGauge(n int) {
	if h.metrics != nil {
		h.metrics.SetConnectedSubscribers(n)
	}
}

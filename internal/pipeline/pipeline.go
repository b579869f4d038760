package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/monitoragent/stream-monitor/internal/model"
)

const summaryWordLimit = 15

// Process transcribes one segment, summarizes it, and publishes the
// resulting record. The segment is already marked processed by the
// watcher; any failure here drops it for good.
func (p *implPipeline) Process(ctx context.Context, audioPath string) error {
	filename := filepath.Base(audioPath)
	p.logger.Info(ctx, "Processing segment: %s", filename)

	transcript, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncTranscriptionFailures()
		}
		return fmt.Errorf("transcribe %s: %w", filename, err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		p.logger.Warn(ctx, "No transcript generated for %s, dropping segment", filename)
		if p.metrics != nil {
			p.metrics.IncTranscriptionFailures()
		}
		return nil
	}

	summary := p.summarize(ctx, transcript)

	capturedAt, err := model.ParseSegmentTime(filename)
	if err != nil {
		// Data-quality event, not fatal: the record still ships, stamped
		// with wall-clock time.
		p.logger.Warn(ctx, "Could not parse timestamp from %s, using current time: %v", filename, err)
		capturedAt = p.now()
	}

	ts := capturedAt.Format(model.TimeLayout)
	rec := model.TranscriptRecord{
		Timestamp:  ts,
		VideoStart: ts,
		VideoEnd:   ts, // duration tracking pending; see model.TranscriptRecord
		Filename:   filename,
		Transcript: transcript,
		Summary:    summary,
	}

	p.store.Append(rec)
	p.hub.Publish(ctx, rec)
	if p.metrics != nil {
		p.metrics.IncRecordsPublished()
	}

	p.logger.Info(ctx, "Processed %s: %q", filename, summary)
	return nil
}

// summarize asks the language model for an abstract and degrades to
// deterministic word truncation when the call fails.
func (p *implPipeline) summarize(ctx context.Context, transcript string) string {
	summary, err := p.summarizer.Summarize(ctx, transcript)
	if err == nil && strings.TrimSpace(summary) != "" {
		return strings.TrimSpace(summary)
	}

	p.logger.Warn(ctx, "Summary generation failed, falling back to truncation: %v", err)
	if p.metrics != nil {
		p.metrics.IncSummaryFallbacks()
	}
	return truncateWords(transcript, summaryWordLimit)
}

// truncateWords returns the first limit words followed by a truncation
// marker, or the text verbatim when it fits.
func truncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ") + "..."
}

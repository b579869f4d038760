package transcriber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/monitoragent/stream-monitor/internal/config"
	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/pkg/executor"
)

type implTranscriber struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// New creates a Transcriber backed by a whisper.cpp binary.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Transcriber {
	return &implTranscriber{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}

// Transcribe runs whisper over the full segment and returns the extracted
// text. The call blocks for the duration of inference; callers dispatch it
// from a worker, never from a supervision loop.
func (t *implTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	outputPrefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))

	t.logger.Info(ctx, "Transcribing %s (%d threads)", audioPath, t.cfg.Whisper.Threads)

	// -l forces the language to prevent hallucinated language switches;
	// -bo trades speed for accuracy on noisy broadcast audio.
	args := []string{
		"-m", t.cfg.Whisper.ModelPath,
		"-f", audioPath,
		"-otxt",
		"-l", t.cfg.Whisper.Language,
		"-t", strconv.Itoa(t.cfg.Whisper.Threads),
		"-bo", strconv.Itoa(t.cfg.Whisper.BestOf),
		"--output-file", outputPrefix,
	}

	if _, err := t.executor.Execute(ctx, t.cfg.Whisper.BinaryPath, args...); err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}

	txtPath := outputPrefix + ".txt"
	defer func() {
		if err := os.Remove(txtPath); err != nil {
			t.logger.Debug(ctx, "Failed to cleanup transcript file %s: %v", txtPath, err)
		}
	}()

	data, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("read transcript %s: %w", txtPath, err)
	}

	text := strings.TrimSpace(string(data))
	t.logger.Info(ctx, "Transcription completed: %s (%d chars)", audioPath, len(text))
	return text, nil
}

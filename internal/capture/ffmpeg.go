package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/monitoragent/stream-monitor/pkg/executor"
)

// launchCapture starts ffmpeg pulling the stream and segmenting its audio
// track into fixed-duration WAV files named audio_<YYYYMMDD>_<HHMMSS>.wav.
func (s *implSupervisor) launchCapture(ctx context.Context, streamURL string) (executor.Process, error) {
	outputPattern := filepath.Join(s.cfg.Paths.AudioDir, "audio_%Y%m%d_%H%M%S.wav")

	// Request headers mimic a browser so the CDN serves the stream.
	headers := fmt.Sprintf("User-Agent: %s\r\nReferer: %s\r\n",
		s.cfg.Stream.UserAgent, s.cfg.Stream.Referer)

	args := []string{
		"-headers", headers,
		"-i", streamURL,
		"-vn", // audio only
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(s.cfg.Capture.SampleRate),
		"-ac", strconv.Itoa(s.cfg.Capture.Channels),
		"-f", "segment",
		"-segment_time", strconv.Itoa(s.cfg.Capture.SegmentSeconds),
		"-segment_format", "wav",
		"-strftime", "1",
		"-reset_timestamps", "1",
		"-y",
		outputPattern,
	}

	proc, err := s.executor.Start(ctx, s.cfg.Capture.FFmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return proc, nil
}

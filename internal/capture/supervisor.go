package capture

import (
	"bufio"
	"context"
	"strings"
	"time"

	"github.com/monitoragent/stream-monitor/pkg/executor"
)

// Start launches the supervision loop in the background.
func (s *implSupervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning || s.state == StateRetrying {
		return ErrAlreadyRunning
	}

	s.state = StateRunning
	s.lastErr = nil
	s.retryCount = 0
	s.stopReq = false
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(ctx, s.stopCh, s.done)
	return nil
}

// run is the supervision loop. It owns all state transitions; Stop only
// signals it.
func (s *implSupervisor) run(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)

	for {
		if s.stopRequested() {
			s.transitionStopped(nil)
			return
		}

		attempt, max := s.retries()
		if attempt >= max {
			s.logger.Error(ctx, "Max retries reached, stopping stream")
			s.transitionStopped(ErrMaxRetriesExceeded)
			return
		}

		s.logger.Info(ctx, "Fetching fresh stream URL (attempt %d/%d)", attempt+1, max)
		manifest, err := s.resolver.GetURL(ctx, false)
		if err != nil {
			s.logger.Error(ctx, "Failed to get stream URL: %v", err)
			if !s.retryAfterBackoff(ctx, stopCh) {
				return
			}
			continue
		}

		s.logger.Info(ctx, "Starting capture with fresh URL")
		proc, err := s.launchCapture(ctx, manifest.Value)
		if err != nil {
			s.logger.Error(ctx, "Failed to launch capture process: %v", err)
			if !s.retryAfterBackoff(ctx, stopCh) {
				return
			}
			continue
		}

		s.setRunning(proc)

		// A stop may have landed between launch and registration; the
		// subprocess must never be orphaned.
		if s.stopRequested() {
			_ = proc.Terminate()
		}

		stderrDone := make(chan struct{})
		go func() {
			defer close(stderrDone)
			s.monitorStderr(ctx, proc)
		}()

		<-stderrDone
		err = proc.Wait()
		s.clearProcess()

		if s.stopRequested() {
			s.transitionStopped(nil)
			return
		}

		s.logger.Warn(ctx, "Capture process ended unexpectedly (%v), retrying...", err)
		if !s.retryAfterBackoff(ctx, stopCh) {
			return
		}
	}
}

// retryAfterBackoff counts a failed attempt and sleeps the fixed backoff.
// Returns false when a stop interrupted the sleep; the loop must exit.
func (s *implSupervisor) retryAfterBackoff(ctx context.Context, stopCh chan struct{}) bool {
	s.mu.Lock()
	s.retryCount++
	s.state = StateRetrying
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.IncCaptureRetries()
	}

	select {
	case <-time.After(s.backoff):
		return true
	case <-stopCh:
		s.transitionStopped(nil)
		return false
	case <-ctx.Done():
		s.transitionStopped(nil)
		return false
	}
}

// Stop signals the loop, terminates the subprocess, and waits for the
// loop to exit. Safe to call repeatedly and out of order.
func (s *implSupervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRunning && s.state != StateRetrying {
		s.mu.Unlock()
		return nil
	}
	if !s.stopReq {
		s.stopReq = true
		close(s.stopCh)
	}
	proc := s.proc
	done := s.done
	s.mu.Unlock()

	if proc != nil {
		s.logger.Info(ctx, "Stopping capture process...")
		if err := proc.Terminate(); err != nil {
			s.logger.Warn(ctx, "Failed to signal capture process: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(s.stopTimeout):
		if proc != nil {
			s.logger.Warn(ctx, "Capture process didn't stop gracefully, killing...")
			_ = proc.Kill()
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.logger.Info(ctx, "Stream capture stopped")
	return nil
}

// State returns the lifecycle state and terminal error, if any.
func (s *implSupervisor) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

func (s *implSupervisor) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopReq
}

func (s *implSupervisor) retries() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retryCount, s.maxRetries
}

func (s *implSupervisor) setRunning(proc executor.Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateRunning
	s.proc = proc
}

func (s *implSupervisor) clearProcess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proc = nil
}

func (s *implSupervisor) transitionStopped(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateStopped
	s.lastErr = err
}

// monitorStderr surfaces interesting capture diagnostics. Visibility
// only; exit handling is driven by Wait.
func (s *implSupervisor) monitorStderr(ctx context.Context, proc executor.Process) {
	scanner := bufio.NewScanner(proc.Stderr())
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.Contains(line, "time=") || strings.Contains(strings.ToLower(line), "error") {
			s.logger.Info(ctx, "FFMPEG: %s", line)
		}
	}
}

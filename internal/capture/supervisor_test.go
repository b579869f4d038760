package capture

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/monitoragent/stream-monitor/internal/config"
	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/internal/resolver"
	"github.com/monitoragent/stream-monitor/pkg/executor"
)

type fakeResolver struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeResolver) GetURL(ctx context.Context, force bool) (resolver.ManifestURL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return resolver.ManifestURL{}, f.err
	}
	return resolver.ManifestURL{Value: "https://cdn.example.com/manifest.m3u8"}, nil
}

func (f *fakeResolver) Cached() (resolver.ManifestURL, bool) {
	return resolver.ManifestURL{}, false
}

// fakeProcess exits when told to, or immediately when exitNow is set.
type fakeProcess struct {
	exitCh     chan error
	terminated chan struct{}
	termOnce   sync.Once
	killed     bool
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{
		exitCh:     make(chan error, 1),
		terminated: make(chan struct{}),
	}
}

func (f *fakeProcess) Stderr() io.Reader { return strings.NewReader("") }

func (f *fakeProcess) Wait() error {
	select {
	case err := <-f.exitCh:
		return err
	case <-f.terminated:
		return errors.New("signal: terminated")
	}
}

func (f *fakeProcess) Terminate() error {
	f.termOnce.Do(func() { close(f.terminated) })
	return nil
}

func (f *fakeProcess) Kill() error {
	f.killed = true
	f.termOnce.Do(func() { close(f.terminated) })
	return nil
}

type fakeExecutor struct {
	mu       sync.Mutex
	starts   int
	startErr error
	procs    []*fakeProcess
	started  chan *fakeProcess
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{started: make(chan *fakeProcess, 16)}
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return "", nil
}

func (f *fakeExecutor) Start(ctx context.Context, name string, args ...string) (executor.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return nil, f.startErr
	}
	proc := newFakeProcess()
	f.procs = append(f.procs, proc)
	f.started <- proc
	return proc, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Stream:  config.StreamConfig{PageURL: "https://example.com/live"},
		Whisper: config.WhisperConfig{BinaryPath: "w", ModelPath: "m"},
		Paths:   config.PathsConfig{AudioDir: "out"},
	}
	_ = cfg.Validate()
	cfg.Capture.BackoffSeconds = 1 // shortest the config allows
	return cfg
}

func newTestSupervisor(res resolver.Resolver, exec executor.Executor) *implSupervisor {
	s := New(testConfig(), res, exec, logger.Discard(), nil).(*implSupervisor)
	s.backoff = 10 * time.Millisecond
	s.stopTimeout = 100 * time.Millisecond
	return s
}

func waitForState(t *testing.T, s Supervisor, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, _ := s.State(); got == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	got, _ := s.State()
	t.Fatalf("state = %v, want %v", got, want)
}

func TestStartRejectsWhenRunning(t *testing.T) {
	res := &fakeResolver{}
	exec := newFakeExecutor()
	s := newTestSupervisor(res, exec)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	<-exec.started

	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRetryExhaustionIsFatal(t *testing.T) {
	res := &fakeResolver{err: resolver.ErrNoManifestFound}
	exec := newFakeExecutor()
	s := newTestSupervisor(res, exec)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitForState(t, s, StateStopped)

	_, lastErr := s.State()
	if !errors.Is(lastErr, ErrMaxRetriesExceeded) {
		t.Errorf("terminal error = %v, want ErrMaxRetriesExceeded", lastErr)
	}

	res.mu.Lock()
	calls := res.calls
	res.mu.Unlock()
	if calls != 3 {
		t.Errorf("URL fetch attempts = %d, want 3 (maxRetries)", calls)
	}
}

func TestProcessExitTriggersRetry(t *testing.T) {
	res := &fakeResolver{}
	exec := newFakeExecutor()
	s := newTestSupervisor(res, exec)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	first := <-exec.started
	first.exitCh <- errors.New("exit status 1")

	// A replacement process is launched after the backoff.
	select {
	case <-exec.started:
	case <-time.After(2 * time.Second):
		t.Fatal("no retry launch after unexpected exit")
	}
}

func TestStopIdempotent(t *testing.T) {
	res := &fakeResolver{}
	exec := newFakeExecutor()
	s := newTestSupervisor(res, exec)

	// Stop before any Start must be a no-op.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() on idle supervisor error = %v", err)
	}
	if exec.starts != 0 {
		t.Errorf("idle Stop touched the executor: %d starts", exec.starts)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-exec.started

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("repeated Stop() error = %v", err)
	}

	waitForState(t, s, StateStopped)
	if _, lastErr := s.State(); lastErr != nil {
		t.Errorf("requested stop recorded error %v, want none", lastErr)
	}
}

func TestStopInterruptsBackoffSleep(t *testing.T) {
	res := &fakeResolver{err: resolver.ErrNoManifestFound}
	exec := newFakeExecutor()
	s := newTestSupervisor(res, exec)
	s.backoff = 10 * time.Second // long enough that only an interrupt ends it

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitForState(t, s, StateRetrying)

	stopDone := make(chan error, 1)
	go func() { stopDone <- s.Stop(context.Background()) }()

	select {
	case err := <-stopDone:
		if err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not interrupt the backoff sleep")
	}

	waitForState(t, s, StateStopped)
}

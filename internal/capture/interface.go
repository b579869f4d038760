package capture

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyRunning is returned by Start when a capture loop is live.
	ErrAlreadyRunning = errors.New("capture is already running")

	// ErrMaxRetriesExceeded is the terminal error after retry exhaustion.
	// Recovery requires an explicit external restart.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// State is the capture session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateRetrying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateRetrying:
		return "retrying"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Supervisor drives the capture subprocess: resolve a manifest URL, run
// ffmpeg until it dies, retry with backoff, give up after maxRetries.
type Supervisor interface {
	// Start launches the supervision loop. Rejects when already running.
	Start(ctx context.Context) error

	// Stop terminates the subprocess gracefully and waits for the loop to
	// exit. Idempotent; a no-op when not running.
	Stop(ctx context.Context) error

	// State returns the current lifecycle state and, for a stopped
	// session, the terminal error if the stop was fatal.
	State() (State, error)
}

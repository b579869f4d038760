package executor

import (
	"context"
	"io"
)

// Executor defines the interface for running external commands.
type Executor interface {
	// Execute runs a command to completion and returns its stdout.
	Execute(ctx context.Context, name string, args ...string) (string, error)

	// Start launches a long-lived command and returns a handle for
	// supervising it. The caller owns the returned Process and must call
	// Wait exactly once.
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

// Process is a handle to a running subprocess.
type Process interface {
	// Stderr exposes the diagnostic output stream. It must be drained
	// before Wait returns.
	Stderr() io.Reader

	// Wait blocks until the process exits.
	Wait() error

	// Terminate asks the process to shut down gracefully.
	Terminate() error

	// Kill forcibly ends the process.
	Kill() error
}

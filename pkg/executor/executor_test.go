package executor

import (
	"bufio"
	"context"
	"testing"
)

func TestExecute(t *testing.T) {
	exec := New()

	out, err := exec.Execute(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "hello\n" {
		t.Errorf("Execute() = %q, want %q", out, "hello\n")
	}
}

func TestExecuteFailure(t *testing.T) {
	exec := New()

	if _, err := exec.Execute(context.Background(), "false"); err == nil {
		t.Error("Execute() should fail for non-zero exit")
	}
}

func TestStartAndWait(t *testing.T) {
	exec := New()

	proc, err := exec.Start(context.Background(), "sh", "-c", "echo diagnostics >&2")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	scanner := bufio.NewScanner(proc.Stderr())
	if !scanner.Scan() {
		t.Fatal("expected a stderr line")
	}
	if scanner.Text() != "diagnostics" {
		t.Errorf("stderr = %q, want %q", scanner.Text(), "diagnostics")
	}

	if err := proc.Wait(); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestTerminate(t *testing.T) {
	exec := New()

	proc, err := exec.Start(context.Background(), "sleep", "60")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := proc.Terminate(); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}

	// SIGTERM exit is reported as an error by Wait; the point is that
	// the process is gone.
	_ = proc.Wait()
}

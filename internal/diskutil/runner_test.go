package diskutil

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"
)

// shellToolchain resolves every utility to sh so ExecRunner can be exercised
// without the real block-device tools.
func shellToolchain(t *testing.T) *Toolchain {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	tc := NewToolchain()
	tc.lookPath = func(string) (string, error) { return sh, nil }
	return tc
}

func TestExecRunnerCapturesAndTees(t *testing.T) {
	r := NewExecRunner(shellToolchain(t))
	var tee bytes.Buffer

	out, err := r.Run(context.Background(), Invocation{
		Utility: "echo-stdin",
		Args:    []string{"-c", "cat; echo done"},
		Stdin:   "label: dos\n",
		Tee:     &tee,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "label: dos\ndone\n" {
		t.Errorf("unexpected stdout %q", out)
	}
	if tee.String() != out {
		t.Errorf("tee got %q, want %q", tee.String(), out)
	}
}

func TestExecRunnerExitError(t *testing.T) {
	r := NewExecRunner(shellToolchain(t))

	_, err := r.Run(context.Background(), Invocation{
		Utility: "failing",
		Args:    []string{"-c", "echo broken >&2; exit 4"},
	})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Status != 4 || exitErr.Utility != "failing" || exitErr.Stderr != "broken\n" {
		t.Errorf("unexpected exit error %+v", exitErr)
	}
}

func TestExecRunnerMissingUtility(t *testing.T) {
	tc := NewToolchain()
	tc.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	_, err := NewExecRunner(tc).Run(context.Background(), Invocation{Utility: Losetup})
	var missing *MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingDependencyError, got %v", err)
	}
}

func TestExecRunnerCanceled(t *testing.T) {
	r := NewExecRunner(shellToolchain(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, Invocation{Utility: "sleep", Args: []string{"-c", "sleep 5"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

package diskutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Invocation describes one run of an external utility.
type Invocation struct {
	Utility string
	Args    []string

	// Stdin is written to the utility's standard input when non-empty
	Stdin string

	// Tee receives stdout as it is produced, in addition to the captured copy
	Tee io.Writer
}

func (inv Invocation) String() string {
	return strings.TrimSpace(inv.Utility + " " + strings.Join(inv.Args, " "))
}

// Runner executes utilities and returns their captured stdout.
// A non-zero exit status is returned as *ExitError.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (string, error)
}

// ExecRunner runs utilities as child processes.
type ExecRunner struct {
	Tools *Toolchain
}

// NewExecRunner creates a runner that resolves utilities through tools.
func NewExecRunner(tools *Toolchain) *ExecRunner {
	return &ExecRunner{Tools: tools}
}

// Run starts the utility and waits for it to exit. Cancelling ctx kills it.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (string, error) {
	path, err := r.Tools.Path(inv.Utility)
	if err != nil {
		return "", err
	}

	log.WithField("utility", inv.Utility).Debugf("exec: %s", inv)

	cmd := exec.CommandContext(ctx, path, inv.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if inv.Tee != nil {
		cmd.Stdout = io.MultiWriter(&stdout, inv.Tee)
	}
	cmd.Stderr = &stderr
	if inv.Stdin != "" {
		cmd.Stdin = strings.NewReader(inv.Stdin)
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.String(), fmt.Errorf("%s interrupted: %w", inv.Utility, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), &ExitError{
				Utility: inv.Utility,
				Args:    inv.Args,
				Status:  exitErr.ExitCode(),
				Stderr:  stderr.String(),
			}
		}
		return stdout.String(), fmt.Errorf("failed to run %s: %w", inv.Utility, err)
	}

	if s := strings.TrimSpace(stderr.String()); s != "" {
		log.WithField("utility", inv.Utility).Debug(s)
	}

	return stdout.String(), nil
}

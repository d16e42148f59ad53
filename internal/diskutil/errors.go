package diskutil

import (
	"fmt"
	"strings"
)

// MissingDependencyError reports a required utility that is not on PATH.
type MissingDependencyError struct {
	Utility string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s doesn't appear to be installed", e.Utility)
}

// ExitError reports a utility that ran and exited with a non-zero status.
type ExitError struct {
	Utility string
	Args    []string
	Status  int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s exited with status %d", e.Utility, strings.Join(e.Args, " "), e.Status)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

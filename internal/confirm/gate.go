// Package confirm blocks a run until the operator approves a destructive
// resize of an existing disk image.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// ErrOperatorCanceled is returned when the operator interrupts the prompt or
// closes its input before answering.
var ErrOperatorCanceled = errors.New("canceled by operator")

// Source supplies operator input one character at a time.
// *bufio.Reader satisfies it; tests use scripted readers.
type Source interface {
	ReadByte() (byte, error)
}

// Gate prompts on Out and reads answers from In.
type Gate struct {
	In  Source
	Out io.Writer
}

// New creates a gate reading from in and prompting on out.
func New(in Source, out io.Writer) *Gate {
	return &Gate{In: in, Out: out}
}

// Confirm returns immediately when existing equals target. Otherwise it warns
// the operator and consumes input until a literal 'y' arrives.
//
// Returns ErrOperatorCanceled when ctx is done (interrupt) or when input ends.
// Characters other than 'y' are ignored, they neither proceed nor fail.
//
// A canceled Confirm leaves its reader blocked on In until the next byte
// arrives, and that byte is consumed and lost. Callers that keep running
// after a cancel must not call Confirm again on the same In.
func (g *Gate) Confirm(ctx context.Context, path string, existing, target int64) error {
	if existing == target {
		return nil
	}

	g.warn(path, existing, target)

	// The read cannot be interrupted, so it runs aside and is abandoned on cancel.
	// Any later input is discarded when the process exits.
	answer := make(chan error, 1)
	go func() {
		answer <- g.waitForYes()
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(g.Out)
		return ErrOperatorCanceled
	case err := <-answer:
		if err != nil {
			_, _ = fmt.Fprintln(g.Out)
			return err
		}
		return nil
	}
}

func (g *Gate) waitForYes() error {
	for {
		c, err := g.In.ReadByte()
		if errors.Is(err, io.EOF) {
			return ErrOperatorCanceled
		}
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if c == 'y' {
			return nil
		}
	}
}

func (g *Gate) warn(path string, existing, target int64) {
	_, _ = fmt.Fprintf(g.Out, "WARNING: Hard disk image %s exists and its size is different from the size about to be created:\n", path)
	_, _ = fmt.Fprintf(g.Out, " - Old size: %d (%s)\n", existing, humanize.IBytes(uint64(existing)))
	_, _ = fmt.Fprintf(g.Out, " - New size: %d (%s)\n", target, humanize.IBytes(uint64(target)))
	_, _ = fmt.Fprintln(g.Out, "Certain emulators save disk parameters along with the disk image path, and may misbehave if the disk size suddenly changes")
	_, _ = fmt.Fprint(g.Out, "Type y and press enter to continue, or Ctrl+C to cancel: ")
}

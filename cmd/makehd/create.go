package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jbweber/makehd/internal/provision"
)

var (
	createImage  imageFlags
	createOutput outputFlags
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create, partition, format and populate the disk image",
	Long: `Create the disk image and everything on it.

Steps:
  1. Size the image and compare with an existing file
  2. Ask for confirmation if the existing image has a different size
  3. Write the image file
  4. Bind it to a loop device
  5. Write an MBR with one Linux partition (sfdisk)
  6. Map the partition (kpartx)
  7. Format it as ext2
  8. Mount it and copy the source tree in (rsync), if present
  9. Unmount, remove mappings and detach the loop device

Needs root for loop devices and mounts. Ctrl+C at any point releases
whatever was acquired before exiting.

Output formats:
  -o table  Human-readable summary (default)
  -o yaml   Full run report
  -o json   Full run report`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := createImage.load(cmd)
		if err != nil {
			return err
		}

		formatter, err := createOutput.formatter()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := provision.Options{
			In:  bufio.NewReader(os.Stdin),
			Out: os.Stderr,
		}
		opts.Progress = progressWriter(os.Stderr)

		report, runErr := provision.Provision(ctx, cfg, opts)

		result, err := formatter.FormatReport(report)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Print(result)

		return runErr
	},
}

func init() {
	createImage.register(createCmd)
	createOutput.register(createCmd)
}

// progressWriter returns w when it is a terminal, nil otherwise so logs and
// redirected output are not filled with progress bar redraws.
func progressWriter(w *os.File) io.Writer {
	if !term.IsTerminal(int(w.Fd())) {
		return nil
	}
	return w
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jbweber/makehd/internal/confirm"
	"github.com/jbweber/makehd/internal/diskutil"
	"github.com/jbweber/makehd/internal/provision"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Exit statuses
const (
	exitOK                 = 0
	exitFailure            = 1
	exitInvariantViolation = 70  // EX_SOFTWARE
	exitMissingDependency  = 127 // command not found
	exitCanceled           = 130 // 128 + SIGINT
)

var (
	verbose   bool
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "makehd",
	Short: "makehd - raw disk image builder",
	Long: `makehd creates a raw hard disk image for an emulator.

The image gets an MBR partition table with one Linux partition covering the
whole disk, formatted as ext2 and optionally populated from a directory tree.
Loop devices, partition mappings and mounts are always released, even when a
step fails.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(verbose, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log external commands and debug details")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(releaseCmd)
}

// setupLogging sends logs to stderr so stdout carries only results.
func setupLogging(verbose bool, format string) error {
	log.SetOutput(os.Stderr)

	switch format {
	case "text":
		log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format: %s (valid formats: text, json)", format)
	}

	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var missing *diskutil.MissingDependencyError
	switch {
	case errors.Is(err, confirm.ErrOperatorCanceled), errors.Is(err, context.Canceled):
		return exitCanceled
	case errors.As(err, &missing):
		return exitMissingDependency
	case errors.Is(err, provision.ErrNoPartitions):
		return exitInvariantViolation
	default:
		return exitFailure
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/makehd/internal/config"
	"github.com/jbweber/makehd/internal/provision"
)

var (
	releaseMountDir string
	releaseOutput   outputFlags
)

var releaseCmd = &cobra.Command{
	Use:   "release <loop-device>",
	Short: "Release a loop device left behind by a killed run",
	Long: `Release the resources of a run that was killed before it could clean up.

This will:
- Unmount the mount directory if something is mounted there
- Remove partition mappings of the loop device
- Detach the loop device

Each step runs even if the previous one failed. Use losetup -a to find the
device bound to the image.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		device := args[0]

		formatter, err := releaseOutput.formatter()
		if err != nil {
			return err
		}

		steps, err := provision.Release(context.Background(), device, releaseMountDir)
		if err != nil {
			return err
		}

		result, err := formatter.FormatTeardown(steps)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Print(result)

		for _, s := range steps {
			if !s.OK() {
				return fmt.Errorf("%s of %s failed: %w", s.Name, s.Target, s.Err)
			}
		}
		return nil
	},
}

func init() {
	releaseCmd.Flags().StringVar(&releaseMountDir, "mount-dir", config.DefaultMountDir, "Directory the partition may be mounted on")
	releaseOutput.register(releaseCmd)
}

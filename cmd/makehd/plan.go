package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/makehd/internal/provision"
)

var (
	planImage  imageFlags
	planOutput outputFlags
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what create would do without touching anything",
	Long: `Compute the image geometry and partition script, check the existing
image and the required utilities, and list the stages create would run.

No file is written and no device is touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := planImage.load(cmd)
		if err != nil {
			return err
		}

		formatter, err := planOutput.formatter()
		if err != nil {
			return err
		}

		plan, err := provision.NewPlan(cfg)
		if err != nil {
			return fmt.Errorf("failed to plan: %w", err)
		}

		result, err := formatter.FormatPlan(plan)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}

func init() {
	planImage.register(planCmd)
	planOutput.register(planCmd)
}

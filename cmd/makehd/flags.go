package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/makehd/internal/config"
	"github.com/jbweber/makehd/internal/output"
)

// imageFlags are shared by every command that needs a configuration.
type imageFlags struct {
	configPath string
	imagePath  string
	size       string
	sectorSize uint64
	mountDir   string
	sourceDir  string
	sparse     bool
}

func (f *imageFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&f.imagePath, "image", config.DefaultImagePath, "Path of the image file")
	flags.StringVar(&f.size, "size", config.DefaultSize, "Image size (binary units, e.g. 2048MiB, 4g)")
	flags.Uint64Var(&f.sectorSize, "sector-size", config.DefaultSectorSize, "Sector size in bytes")
	flags.StringVar(&f.mountDir, "mount-dir", config.DefaultMountDir, "Directory the partition is mounted on")
	flags.StringVar(&f.sourceDir, "source-dir", config.DefaultSourceDir, "Directory tree copied into the image, skipped if absent")
	flags.BoolVar(&f.sparse, "sparse", false, "Allocate the image sparsely instead of writing zeros")
}

// load builds the configuration: defaults, then the config file if given,
// then any flag set explicitly on the command line.
func (f *imageFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(f.configPath); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("image") {
		cfg.ImagePath = f.imagePath
	}
	if flags.Changed("size") {
		cfg.Size = f.size
	}
	if flags.Changed("sector-size") {
		cfg.SectorSize = f.sectorSize
	}
	if flags.Changed("mount-dir") {
		cfg.MountDir = f.mountDir
	}
	if flags.Changed("source-dir") {
		cfg.SourceDir = f.sourceDir
	}
	if flags.Changed("sparse") {
		cfg.Sparse = f.sparse
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// outputFlags select how results are printed.
type outputFlags struct {
	format    string
	noHeaders bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "output", "o", "table", "Output format: table, yaml, json")
	cmd.Flags().BoolVar(&o.noHeaders, "no-headers", false, "Omit table headers")
}

func (o *outputFlags) formatter() (output.Formatter, error) {
	if err := output.ValidateFormat(o.format); err != nil {
		return nil, err
	}
	return output.NewFormatter(output.Options{
		Format:    output.Format(o.format),
		NoHeaders: o.noHeaders,
	})
}

// Package config loads and validates the settings for a provisioning run.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultImagePath is the backing image file created in the working directory.
	DefaultImagePath = "harddisk.img"

	// DefaultSize is the total image size.
	DefaultSize = "2048MiB"

	// DefaultSectorSize is the logical sector size in bytes.
	DefaultSectorSize = 512

	// DefaultMountDir is where the formatted partition is mounted for population.
	DefaultMountDir = "support/rootfsmount"

	// DefaultSourceDir is the optional tree copied into the new filesystem.
	DefaultSourceDir = "customrootfs"

	// maxMBRSectors is the largest sector count a 32-bit MBR LBA can address.
	maxMBRSectors = math.MaxUint32
)

// Config describes one disk image to provision.
type Config struct {
	ImagePath  string `yaml:"image_path"`
	Size       string `yaml:"size"`        // Human size with binary units, e.g. "2048MiB" or "2g"
	SectorSize uint64 `yaml:"sector_size"` // Bytes per sector (default: 512)
	MountDir   string `yaml:"mount_dir"`
	SourceDir  string `yaml:"source_dir,omitempty"` // Optional, skipped when absent on disk
	Sparse     bool   `yaml:"sparse,omitempty"`     // Truncate instead of zero-filling

	// Derived fields (not in YAML, calculated from Size)
	SizeBytes int64 `yaml:"-"`
}

// Default returns a configuration populated with the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize trims user input and fills in defaults for unset fields.
// This is called automatically by LoadFromFile before validation.
func (c *Config) Normalize() {
	c.ImagePath = strings.TrimSpace(c.ImagePath)
	c.Size = strings.TrimSpace(c.Size)
	c.MountDir = strings.TrimSpace(c.MountDir)
	c.SourceDir = strings.TrimSpace(c.SourceDir)

	if c.ImagePath == "" {
		c.ImagePath = DefaultImagePath
	}
	if c.Size == "" {
		c.Size = DefaultSize
	}
	if c.SectorSize == 0 {
		c.SectorSize = DefaultSectorSize
	}
	if c.MountDir == "" {
		c.MountDir = DefaultMountDir
	}
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
}

// Validate checks the configuration for errors and computes SizeBytes.
// Does not touch the filesystem.
func (c *Config) Validate() error {
	if c.ImagePath == "" {
		return fmt.Errorf("image_path is required")
	}
	if c.MountDir == "" {
		return fmt.Errorf("mount_dir is required")
	}

	if c.SectorSize < 512 || c.SectorSize&(c.SectorSize-1) != 0 {
		return fmt.Errorf("sector_size must be a power of two >= 512, got %d", c.SectorSize)
	}

	// RAMInBytes always uses binary multiples, so "2048m" and "2048MiB" agree
	size, err := units.RAMInBytes(c.Size)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", c.Size, err)
	}
	if size <= 0 {
		return fmt.Errorf("size must be > 0, got %q", c.Size)
	}
	if uint64(size)%c.SectorSize != 0 {
		return fmt.Errorf("size %d is not a multiple of sector_size %d", size, c.SectorSize)
	}

	sectors := uint64(size) / c.SectorSize
	if sectors < 2 {
		return fmt.Errorf("size must cover at least 2 sectors (MBR plus one data sector), got %d", sectors)
	}
	if sectors > maxMBRSectors {
		return fmt.Errorf("size %q needs %d sectors, more than an MBR partition table can address", c.Size, sectors)
	}

	c.SizeBytes = size
	return nil
}

// SectorCount returns the number of sectors in the image.
// Only meaningful after Validate has succeeded.
func (c *Config) SectorCount() uint64 {
	return uint64(c.SizeBytes) / c.SectorSize
}

// LoadFromFile loads a configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads a configuration from YAML bytes.
func LoadFromYAML(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

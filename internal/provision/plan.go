package provision

import (
	"errors"
	"fmt"

	"github.com/jbweber/makehd/internal/config"
	"github.com/jbweber/makehd/internal/diskutil"
	"github.com/jbweber/makehd/internal/image"
)

// Plan is what a run would do, computed without acquiring anything.
type Plan struct {
	Image       string                  `json:"image" yaml:"image"`
	SizeBytes   int64                   `json:"size_bytes" yaml:"size_bytes"`
	SectorSize  uint64                  `json:"sector_size" yaml:"sector_size"`
	SectorCount uint64                  `json:"sector_count" yaml:"sector_count"`
	Mismatch    *image.GeometryMismatch `json:"mismatch,omitempty" yaml:"mismatch,omitempty"`
	Script      string                  `json:"script" yaml:"script"`
	MountDir    string                  `json:"mount_dir" yaml:"mount_dir"`
	SourceDir   string                  `json:"source_dir" yaml:"source_dir"`
	Populate    bool                    `json:"populate" yaml:"populate"`
	Missing     []string                `json:"missing,omitempty" yaml:"missing,omitempty"`
	Stages      []Stage                 `json:"stages" yaml:"stages"`
}

// NewPlan sizes the image, checks the existing file and the toolchain, and
// renders the partition script. Missing utilities are listed, not returned
// as errors.
func NewPlan(cfg *config.Config) (*Plan, error) {
	return newPlanWithDeps(cfg, diskutil.NewToolchain(), image.CheckExisting, diskutil.SourcePresent)
}

func newPlanWithDeps(cfg *config.Config, tools toolResolver, checkExisting func(image.Spec) error, sourcePresent func(string) (bool, error)) (*Plan, error) {
	spec, err := image.NewSpec(cfg.ImagePath, uint64(cfg.SizeBytes), cfg.SectorSize)
	if err != nil {
		return nil, fmt.Errorf("failed to size image: %w", err)
	}

	layout := diskutil.WholeDisk(spec.LastSector())
	if err := layout.Validate(spec.SectorCount); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}

	populate, err := sourcePresent(cfg.SourceDir)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Image:       spec.Path,
		SizeBytes:   spec.Bytes(),
		SectorSize:  spec.SectorSize,
		SectorCount: spec.SectorCount,
		Script:      layout.Script(),
		MountDir:    cfg.MountDir,
		SourceDir:   cfg.SourceDir,
		Populate:    populate,
	}

	if err := checkExisting(spec); err != nil {
		if !errors.As(err, &p.Mismatch) {
			return nil, err
		}
	}

	required := append([]string{}, diskutil.Required...)
	if populate {
		required = append(required, diskutil.Rsync)
	}
	for _, u := range required {
		var missing *diskutil.MissingDependencyError
		if err := tools.Resolve(u); errors.As(err, &missing) {
			p.Missing = append(p.Missing, missing.Utility)
		} else if err != nil {
			return nil, err
		}
	}

	p.Stages = []Stage{StagePreflight, StageSize}
	if p.Mismatch != nil {
		p.Stages = append(p.Stages, StageConfirm)
	}
	p.Stages = append(p.Stages, StageAllocate, StageBindLoop, StagePartition, StageMap, StageFormat, StageIdentify, StageMount)
	if populate {
		p.Stages = append(p.Stages, StagePopulate)
	}
	p.Stages = append(p.Stages, StageUsage)

	return p, nil
}

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jbweber/makehd/internal/config"
	"github.com/jbweber/makehd/internal/confirm"
	"github.com/jbweber/makehd/internal/diskutil"
	"github.com/jbweber/makehd/internal/image"
)

// Options connects a run to the operator.
type Options struct {
	// In supplies confirmation input
	In confirm.Source

	// Out receives prompts and per-file copy progress
	Out io.Writer

	// Progress receives the allocation progress bar. Nil disables it.
	Progress io.Writer
}

// Report describes a finished run, successful or not.
type Report struct {
	RunID       string `json:"run_id" yaml:"run_id"`
	Image       string `json:"image" yaml:"image"`
	SizeBytes   int64  `json:"size_bytes" yaml:"size_bytes"`
	SectorSize  uint64 `json:"sector_size" yaml:"sector_size"`
	SectorCount uint64 `json:"sector_count" yaml:"sector_count"`
	Resized     bool   `json:"resized" yaml:"resized"`

	LoopDevice      string   `json:"loop_device,omitempty" yaml:"loop_device,omitempty"`
	Partitions      []string `json:"partitions,omitempty" yaml:"partitions,omitempty"`
	PartitionDevice string   `json:"partition_device,omitempty" yaml:"partition_device,omitempty"`
	Identity        string   `json:"identity,omitempty" yaml:"identity,omitempty"`

	MountDir      string          `json:"mount_dir" yaml:"mount_dir"`
	SourceDir     string          `json:"source_dir" yaml:"source_dir"`
	SourcePresent bool            `json:"source_present" yaml:"source_present"`
	FilesCopied   int             `json:"files_copied" yaml:"files_copied"`
	Usage         *diskutil.Usage `json:"usage,omitempty" yaml:"usage,omitempty"`

	Completed []Stage        `json:"completed" yaml:"completed"`
	Teardown  []TeardownStep `json:"teardown,omitempty" yaml:"teardown,omitempty"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Provision runs the whole pipeline for cfg against the real system.
//
// The returned report is never nil. The error is the first forward failure;
// teardown problems only show up in Report.Teardown and the log.
func Provision(ctx context.Context, cfg *config.Config, opts Options) (*Report, error) {
	if os.Geteuid() != 0 {
		log.Warn("not running as root, loop devices and mounts will likely fail")
	}

	tools := diskutil.NewToolchain()
	runner := diskutil.NewExecRunner(tools)

	d := deps{
		tools:       tools,
		gate:        confirm.New(opts.In, opts.Out),
		allocator:   image.NewAllocator(opts.Progress, cfg.Sparse),
		loop:        &diskutil.LoopDevices{Runner: runner},
		partitioner: &diskutil.Partitioner{Runner: runner},
		mapper:      &diskutil.PartitionMapper{Runner: runner},
		formatter:   &diskutil.Formatter{Runner: runner},
		mounter:     diskutil.NewMounter(runner),
		copier:      &diskutil.Copier{Runner: runner, Progress: opts.Out},

		checkExisting: image.CheckExisting,
		sourcePresent: diskutil.SourcePresent,
		usage:         diskutil.FilesystemUsage,
	}

	return provisionWithDeps(ctx, cfg, d)
}

// provisionWithDeps runs the pipeline with injected dependencies.
func provisionWithDeps(ctx context.Context, cfg *config.Config, d deps) (report *Report, err error) {
	started := time.Now()
	report = &Report{
		RunID:     uuid.NewString(),
		Image:     cfg.ImagePath,
		MountDir:  cfg.MountDir,
		SourceDir: cfg.SourceDir,
		Completed: []Stage{},
	}
	logger := log.WithField("run", report.RunID)

	announce := func(stage Stage, msg string) {
		logger.WithField("stage", stage).Info(msg)
	}
	done := func(stage Stage) {
		report.Completed = append(report.Completed, stage)
	}

	var state RunState
	defer func() {
		if err != nil {
			report.Error = err.Error()
			logger.WithError(err).Error("provisioning failed")
		}
		// Teardown must finish even after an interrupt
		report.Teardown = teardown(context.WithoutCancel(ctx), state, d.releasers(), logger)
		report.Duration = time.Since(started)
	}()

	// Preflight: every utility is resolved before anything is created
	announce(StagePreflight, "Check required utilities")
	report.SourcePresent, err = d.sourcePresent(cfg.SourceDir)
	if err != nil {
		return report, stageError(StagePreflight, err)
	}
	required := append([]string{}, diskutil.Required...)
	if report.SourcePresent {
		required = append(required, diskutil.Rsync)
	}
	if err = d.tools.Resolve(required...); err != nil {
		return report, err
	}
	done(StagePreflight)

	// Stage 1: size
	spec, err := image.NewSpec(cfg.ImagePath, uint64(cfg.SizeBytes), cfg.SectorSize)
	if err != nil {
		return report, stageError(StageSize, err)
	}
	report.SizeBytes = spec.Bytes()
	report.SectorSize = spec.SectorSize
	report.SectorCount = spec.SectorCount
	logger.WithFields(log.Fields{"sectors": spec.SectorCount, "sector_size": spec.SectorSize}).Debug("computed geometry")
	done(StageSize)

	// Stage 2: confirm a resize of an existing image
	if err = d.checkExisting(spec); err != nil {
		var mismatch *image.GeometryMismatch
		if !errors.As(err, &mismatch) {
			return report, stageError(StageSize, err)
		}
		report.Resized = true
		if err = d.gate.Confirm(ctx, mismatch.Path, mismatch.Existing, mismatch.Target); err != nil {
			return report, err
		}
	}
	done(StageConfirm)

	// Stage 3: allocate
	announce(StageAllocate, "Create empty disk")
	if err = d.allocator.Allocate(ctx, spec); err != nil {
		return report, stageError(StageAllocate, err)
	}
	done(StageAllocate)

	// Stage 4: bind. Recorded before anything else can fail.
	announce(StageBindLoop, "Prepare loopback disk")
	device, err := d.loop.Attach(ctx, spec.Path)
	if err != nil {
		return report, stageError(StageBindLoop, err)
	}
	state.LoopDevice = device
	report.LoopDevice = device
	logger.WithField("device", device).Info("Loopback device attached")
	done(StageBindLoop)

	// Stage 5: partition
	announce(StagePartition, "Partition the disk")
	layout := diskutil.WholeDisk(spec.LastSector())
	if err = layout.Validate(spec.SectorCount); err != nil {
		return report, stageError(StagePartition, err)
	}
	if err = d.partitioner.Write(ctx, device, layout); err != nil {
		return report, stageError(StagePartition, err)
	}
	done(StagePartition)

	// Stage 6: map partitions
	announce(StageMap, "Add partition mappings")
	mappings, err := d.mapper.List(ctx, device)
	if err != nil {
		return report, stageError(StageMap, err)
	}
	if len(mappings) == 0 {
		err = fmt.Errorf("partition table on %s: %w", device, ErrNoPartitions)
		return report, err
	}
	for _, m := range mappings {
		report.Partitions = append(report.Partitions, m.DevicePath())
	}
	logger.WithField("partitions", report.Partitions).Debug("found partitions")

	state.Mapped = true
	if err = d.mapper.Add(ctx, device); err != nil {
		return report, stageError(StageMap, err)
	}
	partition := mappings[0].DevicePath()
	report.PartitionDevice = partition
	done(StageMap)

	// Stage 7: format
	announce(StageFormat, "Format the partition")
	if err = d.formatter.Format(ctx, partition); err != nil {
		return report, stageError(StageFormat, err)
	}
	done(StageFormat)

	announce(StageIdentify, "Print blkid")
	if report.Identity, err = d.formatter.Identify(ctx, partition); err != nil {
		return report, stageError(StageIdentify, err)
	}
	logger.Info(report.Identity)
	done(StageIdentify)

	// Stage 8: mount and populate
	announce(StageMount, "Mount the disk")
	if err = d.mounter.Mount(ctx, partition, cfg.MountDir); err != nil {
		return report, stageError(StageMount, err)
	}
	state.MountPoint = cfg.MountDir
	done(StageMount)

	if report.SourcePresent {
		announce(StagePopulate, fmt.Sprintf("Copy %s", cfg.SourceDir))
		if report.FilesCopied, err = d.copier.CopyTree(ctx, cfg.SourceDir, cfg.MountDir); err != nil {
			return report, stageError(StagePopulate, err)
		}
		logger.WithField("files", report.FilesCopied).Info("Copied source tree")
	} else {
		logger.WithField("source", cfg.SourceDir).Info("No source tree, leaving the filesystem empty")
	}
	done(StagePopulate)

	announce(StageUsage, "Print filesystem usage")
	usage, err := d.usage(cfg.MountDir)
	if err != nil {
		return report, stageError(StageUsage, err)
	}
	report.Usage = &usage
	logger.Info(usage.String())
	done(StageUsage)

	logger.Info("Done")
	return report, nil
}

package provision

import (
	"context"

	"github.com/jbweber/makehd/internal/diskutil"
	"github.com/jbweber/makehd/internal/image"
)

// toolResolver checks that external utilities are installed.
//
// In production, this is satisfied by *diskutil.Toolchain.
type toolResolver interface {
	Resolve(utilities ...string) error
}

// confirmer blocks until the operator approves an image resize.
//
// In production, this is satisfied by *confirm.Gate.
type confirmer interface {
	Confirm(ctx context.Context, path string, existing, target int64) error
}

// allocator creates the backing file.
//
// In production, this is satisfied by *image.Allocator.
type allocator interface {
	Allocate(ctx context.Context, spec image.Spec) error
}

// loopBinder binds the backing file to a loop device.
//
// In production, this is satisfied by *diskutil.LoopDevices.
type loopBinder interface {
	Attach(ctx context.Context, imagePath string) (string, error)
	Detach(ctx context.Context, device string) error
}

// partitionWriter writes the partition table.
//
// In production, this is satisfied by *diskutil.Partitioner.
type partitionWriter interface {
	Write(ctx context.Context, device string, layout diskutil.Layout) error
}

// partitionMapper exposes partitions as device nodes.
//
// In production, this is satisfied by *diskutil.PartitionMapper.
type partitionMapper interface {
	List(ctx context.Context, device string) ([]diskutil.Mapping, error)
	Add(ctx context.Context, device string) error
	Remove(ctx context.Context, device string) error
}

// filesystemFormatter creates and identifies the filesystem.
//
// In production, this is satisfied by *diskutil.Formatter.
type filesystemFormatter interface {
	Format(ctx context.Context, device string) error
	Identify(ctx context.Context, device string) (string, error)
}

// mounter mounts the partition. Unmount of a directory that is not mounted
// must succeed.
//
// In production, this is satisfied by *diskutil.Mounter.
type mounter interface {
	Mount(ctx context.Context, device, dir string) error
	Unmount(ctx context.Context, dir string) error
}

// treeCopier copies the source tree into the mounted filesystem.
//
// In production, this is satisfied by *diskutil.Copier.
type treeCopier interface {
	CopyTree(ctx context.Context, src, dst string) (int, error)
}

// deps bundles everything a run touches outside the process.
type deps struct {
	tools       toolResolver
	gate        confirmer
	allocator   allocator
	loop        loopBinder
	partitioner partitionWriter
	mapper      partitionMapper
	formatter   filesystemFormatter
	mounter     mounter
	copier      treeCopier

	checkExisting func(image.Spec) error
	sourcePresent func(dir string) (bool, error)
	usage         func(dir string) (diskutil.Usage, error)
}

// releasers returns the subset of deps teardown needs.
func (d deps) releasers() releasers {
	return releasers{
		mounter: d.mounter,
		mapper:  d.mapper,
		loop:    d.loop,
	}
}

package provision

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jbweber/makehd/internal/diskutil"
)

// Release tears down resources left behind by a run that was killed before
// it could clean up. It assumes the partition was mapped and may be mounted
// on mountDir; each release is a no-op when that is not the case.
//
// Returns an error only if a required utility is missing.
func Release(ctx context.Context, loopDevice, mountDir string) ([]TeardownStep, error) {
	tools := diskutil.NewToolchain()
	if err := tools.Resolve(diskutil.Umount, diskutil.Kpartx, diskutil.Losetup); err != nil {
		return nil, err
	}
	runner := diskutil.NewExecRunner(tools)

	r := releasers{
		mounter: diskutil.NewMounter(runner),
		mapper:  &diskutil.PartitionMapper{Runner: runner},
		loop:    &diskutil.LoopDevices{Runner: runner},
	}
	return releaseWithDeps(ctx, loopDevice, mountDir, r), nil
}

func releaseWithDeps(ctx context.Context, loopDevice, mountDir string, r releasers) []TeardownStep {
	state := RunState{
		LoopDevice: loopDevice,
		Mapped:     loopDevice != "",
		MountPoint: mountDir,
	}
	logger := log.WithField("run", uuid.NewString())
	return teardown(context.WithoutCancel(ctx), state, r, logger)
}

package provision

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Teardown step names, in the order they run.
const (
	StepUnmount        = "unmount"
	StepRemoveMappings = "remove-mappings"
	StepDetachLoop     = "detach-loop"
)

type unmounter interface {
	Unmount(ctx context.Context, dir string) error
}

type mappingRemover interface {
	Remove(ctx context.Context, device string) error
}

type loopDetacher interface {
	Detach(ctx context.Context, device string) error
}

type releasers struct {
	mounter unmounter
	mapper  mappingRemover
	loop    loopDetacher
}

// TeardownStep is the outcome of one release.
type TeardownStep struct {
	Name   string `json:"name" yaml:"name"`
	Target string `json:"target" yaml:"target"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// OK reports whether the release succeeded.
func (s TeardownStep) OK() bool {
	return s.Err == nil
}

// teardown releases what state holds: unmount, then remove mappings, then
// detach the loop device. Every step runs even if an earlier one failed.
// Failures are logged at warning level and returned, never raised.
func teardown(ctx context.Context, state RunState, r releasers, logger log.FieldLogger) []TeardownStep {
	if state.Empty() {
		return nil
	}

	var steps []TeardownStep
	release := func(name, target, msg string, fn func() error) {
		logger.WithField("stage", "teardown").Info(msg)
		step := TeardownStep{Name: name, Target: target}
		if err := fn(); err != nil {
			step.Err = err
			step.Error = err.Error()
			logger.WithFields(log.Fields{"step": name, "target": target}).WithError(err).Warn("teardown step failed")
		}
		steps = append(steps, step)
	}

	if state.MountPoint != "" {
		release(StepUnmount, state.MountPoint, "Unmount the disk", func() error {
			return r.mounter.Unmount(ctx, state.MountPoint)
		})
	}
	if state.Mapped && state.LoopDevice != "" {
		release(StepRemoveMappings, state.LoopDevice, "Remove partition mappings", func() error {
			return r.mapper.Remove(ctx, state.LoopDevice)
		})
	}
	if state.LoopDevice != "" {
		release(StepDetachLoop, state.LoopDevice, "Detach loopback disk", func() error {
			return r.loop.Detach(ctx, state.LoopDevice)
		})
	}

	return steps
}

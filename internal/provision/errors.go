package provision

import (
	"errors"
	"fmt"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StagePreflight Stage = "preflight"
	StageSize      Stage = "size"
	StageConfirm   Stage = "confirm"
	StageAllocate  Stage = "allocate"
	StageBindLoop  Stage = "bind-loop"
	StagePartition Stage = "partition"
	StageMap       Stage = "map-partitions"
	StageFormat    Stage = "format"
	StageIdentify  Stage = "identify"
	StageMount     Stage = "mount"
	StagePopulate  Stage = "populate"
	StageUsage     Stage = "usage"
)

// ErrNoPartitions is returned when the partition table was written but the
// mapper finds nothing in it.
var ErrNoPartitions = errors.New("no partitions found")

// StageError is a forward stage failure. Err is usually a *diskutil.ExitError
// carrying the utility and its exit status.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

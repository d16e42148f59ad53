package diskutil

import (
	"context"
	"fmt"
	"strings"
)

// LoopDevices binds image files to kernel loop devices via losetup.
type LoopDevices struct {
	Runner Runner
}

// Attach binds imagePath to the next free loop device and returns its path.
func (l *LoopDevices) Attach(ctx context.Context, imagePath string) (string, error) {
	out, err := l.Runner.Run(ctx, Invocation{
		Utility: Losetup,
		Args:    []string{"-f", "--show", imagePath},
	})
	if err != nil {
		return "", err
	}

	device := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	if device == "" {
		return "", fmt.Errorf("losetup did not report a loop device for %s", imagePath)
	}
	return device, nil
}

// Detach releases a loop device. An empty device is a no-op.
func (l *LoopDevices) Detach(ctx context.Context, device string) error {
	if device == "" {
		return nil
	}
	_, err := l.Runner.Run(ctx, Invocation{
		Utility: Losetup,
		Args:    []string{"-d", device},
	})
	return err
}

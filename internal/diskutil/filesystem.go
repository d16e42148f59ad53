package diskutil

import (
	"context"
	"strings"
)

// FilesystemType is the only filesystem images are formatted with
const FilesystemType = "ext2"

// Formatter creates filesystems and reports their identity.
type Formatter struct {
	Runner Runner
}

// Format creates an ext2 filesystem on device, destroying its contents.
func (f *Formatter) Format(ctx context.Context, device string) error {
	_, err := f.Runner.Run(ctx, Invocation{
		Utility: MkfsExt2,
		Args:    []string{device},
	})
	return err
}

// Identify returns the blkid line for device (UUID, TYPE and so on).
func (f *Formatter) Identify(ctx context.Context, device string) (string, error) {
	out, err := f.Runner.Run(ctx, Invocation{
		Utility: Blkid,
		Args:    []string{device},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

package diskutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DirPermissions are used when creating the mount directory
const DirPermissions = 0755

// Mounter mounts and unmounts the image partition.
type Mounter struct {
	Runner Runner

	// isMountpoint is IsMountpoint outside of tests
	isMountpoint func(string) (bool, error)
}

// NewMounter creates a mounter that runs mount and umount through r.
func NewMounter(r Runner) *Mounter {
	return &Mounter{Runner: r, isMountpoint: IsMountpoint}
}

// Mount creates dir if needed and mounts device on it as ext2.
func (m *Mounter) Mount(ctx context.Context, device, dir string) error {
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create mount directory %s: %w", dir, err)
	}
	_, err := m.Runner.Run(ctx, Invocation{
		Utility: Mount,
		Args:    []string{"-t", FilesystemType, device, dir},
	})
	return err
}

// Unmount unmounts dir. A directory that is missing or not a mount point is
// already unmounted and returns nil.
func (m *Mounter) Unmount(ctx context.Context, dir string) error {
	check := m.isMountpoint
	if check == nil {
		check = IsMountpoint
	}
	mounted, err := check(dir)
	if err != nil {
		return fmt.Errorf("failed to check mount point %s: %w", dir, err)
	}
	if !mounted {
		return nil
	}
	_, err = m.Runner.Run(ctx, Invocation{
		Utility: Umount,
		Args:    []string{dir},
	})
	return err
}

// IsMountpoint reports whether dir is the root of a mounted filesystem. It
// compares the device of dir with that of its parent, which is also how
// mountpoint(1) decides without a mount table.
func IsMountpoint(dir string) (bool, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}

	// mount(8) follows a symlinked mount directory, so check its target
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	var st unix.Stat_t
	if err := unix.Lstat(abs, &st); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return false, nil
		}
		return false, err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return false, nil
	}

	var parent unix.Stat_t
	if err := unix.Lstat(filepath.Dir(abs), &parent); err != nil {
		return false, err
	}

	if st.Dev != parent.Dev {
		return true, nil
	}
	// "/" and bind mounts of a directory onto itself share the parent's device
	return st.Ino == parent.Ino, nil
}

package diskutil

import (
	"os/exec"
	"sync"
)

// Utility names as looked up on PATH.
const (
	Losetup  = "losetup"
	Sfdisk   = "sfdisk"
	Kpartx   = "kpartx"
	MkfsExt2 = "mkfs.ext2"
	Blkid    = "blkid"
	Mount    = "mount"
	Umount   = "umount"
	Rsync    = "rsync"
)

// Required lists the utilities every run needs. Rsync is only needed when a
// source tree is present and is checked separately.
var Required = []string{Losetup, Sfdisk, Kpartx, MkfsExt2, Blkid, Mount, Umount}

// Toolchain resolves utility names to absolute paths and caches the result.
type Toolchain struct {
	mu    sync.Mutex
	paths map[string]string

	// lookPath is exec.LookPath outside of tests
	lookPath func(string) (string, error)
}

// NewToolchain creates a toolchain that resolves through PATH.
func NewToolchain() *Toolchain {
	return &Toolchain{
		paths:    make(map[string]string),
		lookPath: exec.LookPath,
	}
}

// Resolve looks up every named utility. The first one missing is returned as a
// *MissingDependencyError.
func (t *Toolchain) Resolve(utilities ...string) error {
	for _, name := range utilities {
		if _, err := t.Path(name); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the resolved path of a utility, resolving it on first use.
func (t *Toolchain) Path(utility string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.paths[utility]; ok {
		return p, nil
	}

	p, err := t.lookPath(utility)
	if err != nil {
		return "", &MissingDependencyError{Utility: utility}
	}

	t.paths[utility] = p
	return p, nil
}

package diskutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Copier copies a directory tree into the mounted filesystem with rsync.
type Copier struct {
	Runner Runner

	// Progress receives one line per transferred entry. Nil discards it.
	Progress io.Writer
}

// SourcePresent reports whether dir exists. A missing directory is not an
// error; a path that exists but is not a directory is.
func SourcePresent(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat source directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("source %s is not a directory", dir)
	}
	return true, nil
}

// CopyTree copies the contents of src into dst preserving permissions,
// ownership, times and symbolic links. Returns the number of non-directory
// entries transferred.
func (c *Copier) CopyTree(ctx context.Context, src, dst string) (int, error) {
	out, err := c.Runner.Run(ctx, Invocation{
		Utility: Rsync,
		Args:    []string{"-a", "--out-format=%n", strings.TrimSuffix(src, "/") + "/", dst},
		Tee:     c.Progress,
	})
	if err != nil {
		return 0, err
	}
	return countTransferred(out), nil
}

// countTransferred counts rsync --out-format=%n lines naming files.
// Directory entries end in a slash.
func countTransferred(out string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, "/") {
			continue
		}
		n++
	}
	return n
}

package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

const (
	// FilePermissions are the permissions for newly created image files
	FilePermissions = 0644

	// defaultChunkSize matches the 1 MiB block size the image is zero-filled with
	defaultChunkSize = 1024 * 1024
)

// Allocator creates backing files of an exact size.
type Allocator struct {
	// Progress receives a progress bar while zero-filling. Nil disables it.
	Progress io.Writer

	// Sparse truncates the file to size instead of writing zeros. The result
	// reads back as zeros but does not reserve disk space up front.
	Sparse bool

	chunkSize int
}

// NewAllocator creates an allocator that reports progress to w (may be nil).
func NewAllocator(w io.Writer, sparse bool) *Allocator {
	return &Allocator{
		Progress:  w,
		Sparse:    sparse,
		chunkSize: defaultChunkSize,
	}
}

// Allocate creates or truncates spec.Path and fills it to exactly spec.Bytes()
// bytes of zeros, overwriting any prior content.
//
// The context is checked between chunks so an interrupt stops a long fill.
func (a *Allocator) Allocate(ctx context.Context, spec Spec) error {
	size := spec.Bytes()
	if size <= 0 {
		return fmt.Errorf("image size must be > 0, got %d", size)
	}

	f, err := os.OpenFile(spec.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, FilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create image %s: %w", spec.Path, err)
	}

	if a.Sparse {
		err = f.Truncate(size)
	} else {
		err = a.zeroFill(ctx, f, size)
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to allocate image %s: %w", spec.Path, err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync image %s: %w", spec.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close image %s: %w", spec.Path, err)
	}

	// Guard against short writes going unnoticed
	info, err := os.Stat(spec.Path)
	if err != nil {
		return fmt.Errorf("failed to stat image %s: %w", spec.Path, err)
	}
	if info.Size() != size {
		return fmt.Errorf("image %s has size %d after allocation, expected %d", spec.Path, info.Size(), size)
	}

	return nil
}

func (a *Allocator) zeroFill(ctx context.Context, w io.Writer, size int64) error {
	chunkSize := a.chunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	zeros := make([]byte, chunkSize)

	var bar *progressbar.ProgressBar
	if a.Progress != nil {
		bar = progressbar.NewOptions64(size,
			progressbar.OptionSetDescription("Create empty disk"),
			progressbar.OptionSetWriter(a.Progress),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprintln(a.Progress)
			}),
		)
	}

	var written int64
	for written < size {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := int64(chunkSize)
		if remaining := size - written; remaining < n {
			n = remaining
		}

		m, err := w.Write(zeros[:n])
		written += int64(m)
		if bar != nil {
			_ = bar.Add64(int64(m))
		}
		if err != nil {
			return err
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}

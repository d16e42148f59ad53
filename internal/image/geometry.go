// Package image sizes and allocates the raw backing file of a disk image.
package image

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
)

// Spec is the geometry of a raw disk image.
// SectorSize * SectorCount is the exact byte length of the backing file.
type Spec struct {
	Path        string
	SectorSize  uint64
	SectorCount uint64
}

// NewSpec computes a Spec from a total byte size.
// sizeBytes must be an exact multiple of sectorSize; nothing is rounded.
func NewSpec(path string, sizeBytes, sectorSize uint64) (Spec, error) {
	if sectorSize == 0 {
		return Spec{}, fmt.Errorf("sector size must be > 0")
	}
	if sizeBytes%sectorSize != 0 {
		return Spec{}, fmt.Errorf("size %d is not a multiple of sector size %d", sizeBytes, sectorSize)
	}
	return Spec{
		Path:        path,
		SectorSize:  sectorSize,
		SectorCount: sizeBytes / sectorSize,
	}, nil
}

// Bytes returns the exact size of the backing file.
func (s Spec) Bytes() int64 {
	return int64(s.SectorSize * s.SectorCount)
}

// LastSector returns the index of the final sector on the disk.
func (s Spec) LastSector() uint64 {
	return s.SectorCount - 1
}

// GeometryMismatch describes an existing image whose size differs from the
// size about to be written.
type GeometryMismatch struct {
	Path     string
	Existing int64
	Target   int64
}

func (m *GeometryMismatch) Error() string {
	return fmt.Sprintf("image %s exists with size %d (%s), requested size is %d (%s)",
		m.Path, m.Existing, humanize.IBytes(uint64(m.Existing)), m.Target, humanize.IBytes(uint64(m.Target)))
}

// CheckExisting compares an existing image file against the spec.
//
// Returns nil when the file does not exist or already has the target size,
// a *GeometryMismatch when the sizes differ, and any other stat error as is.
func CheckExisting(spec Spec) error {
	info, err := os.Stat(spec.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", spec.Path, err)
	}

	if info.Size() == spec.Bytes() {
		return nil
	}

	return &GeometryMismatch{
		Path:     spec.Path,
		Existing: info.Size(),
		Target:   spec.Bytes(),
	}
}

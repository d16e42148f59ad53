package diskutil

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// Usage is a filesystem's capacity as seen through its mount point.
type Usage struct {
	Path  string `json:"path" yaml:"path"`
	Total uint64 `json:"total" yaml:"total"`
	Used  uint64 `json:"used" yaml:"used"`
	Avail uint64 `json:"avail" yaml:"avail"`
}

// UsePercent mirrors df's Use% column: used over used plus available.
func (u Usage) UsePercent() float64 {
	if u.Used+u.Avail == 0 {
		return 0
	}
	return float64(u.Used) * 100 / float64(u.Used+u.Avail)
}

func (u Usage) String() string {
	return fmt.Sprintf("%s: size %s, used %s, avail %s (%.0f%%)",
		u.Path,
		humanize.IBytes(u.Total),
		humanize.IBytes(u.Used),
		humanize.IBytes(u.Avail),
		u.UsePercent(),
	)
}

// FilesystemUsage reports usage of the filesystem mounted at path.
func FilesystemUsage(path string) (Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Usage{}, fmt.Errorf("failed to statfs %s: %w", path, err)
	}

	bsize := uint64(st.Bsize)
	return Usage{
		Path:  path,
		Total: st.Blocks * bsize,
		Used:  (st.Blocks - st.Bfree) * bsize,
		Avail: st.Bavail * bsize,
	}, nil
}

package diskutil

import (
	"context"
	"path/filepath"
	"strings"
)

// MapperDir is where device-mapper exposes partition nodes
const MapperDir = "/dev/mapper"

// Mapping is one partition reported by kpartx -l.
type Mapping struct {
	Name string
	Info string
}

// DevicePath returns the node the mapping appears at once added.
func (m Mapping) DevicePath() string {
	return filepath.Join(MapperDir, m.Name)
}

// ParseMappings parses kpartx -l output. Each non-blank line is
// "name : info", the name being everything before the first colon.
func ParseMappings(out string) []Mapping {
	var mappings []Mapping
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, info, _ := strings.Cut(line, ":")
		mappings = append(mappings, Mapping{
			Name: strings.TrimSpace(name),
			Info: strings.TrimSpace(info),
		})
	}
	return mappings
}

// PartitionMapper manages device-mapper partition nodes via kpartx.
type PartitionMapper struct {
	Runner Runner
}

// List returns the partitions found in the table on device.
func (m *PartitionMapper) List(ctx context.Context, device string) ([]Mapping, error) {
	out, err := m.Runner.Run(ctx, Invocation{
		Utility: Kpartx,
		Args:    []string{"-l", device},
	})
	if err != nil {
		return nil, err
	}
	return ParseMappings(out), nil
}

// Add creates the partition nodes and waits for them to appear.
func (m *PartitionMapper) Add(ctx context.Context, device string) error {
	_, err := m.Runner.Run(ctx, Invocation{
		Utility: Kpartx,
		Args:    []string{"-as", device},
	})
	return err
}

// Remove deletes the partition nodes for device.
func (m *PartitionMapper) Remove(ctx context.Context, device string) error {
	_, err := m.Runner.Run(ctx, Invocation{
		Utility: Kpartx,
		Args:    []string{"-d", device},
	})
	return err
}

package diskutil

import (
	"context"
	"fmt"
	"strings"
)

const (
	// LabelDOS is the MBR partition table label
	LabelDOS = "dos"

	// TypeLinux is the sfdisk shorthand for partition type 0x83
	TypeLinux = "L"
)

// Layout is a single primary partition spanning sectors First..Last inclusive.
type Layout struct {
	Label    string
	First    uint64
	Last     uint64
	Type     string
	Bootable bool
}

// WholeDisk returns the layout used for every image: one Linux partition from
// sector 1 to lastSector. Sector 0 holds the MBR.
func WholeDisk(lastSector uint64) Layout {
	return Layout{
		Label: LabelDOS,
		First: 1,
		Last:  lastSector,
		Type:  TypeLinux,
	}
}

// Validate checks the range is usable on a disk of sectorCount sectors.
func (l Layout) Validate(sectorCount uint64) error {
	if l.First == 0 {
		return fmt.Errorf("partition cannot start at sector 0, it holds the MBR")
	}
	if l.Last < l.First {
		return fmt.Errorf("partition end %d is before start %d", l.Last, l.First)
	}
	if l.Last >= sectorCount {
		return fmt.Errorf("partition end %d is beyond the last sector %d", l.Last, sectorCount-1)
	}
	return nil
}

// Script renders the layout in sfdisk's input format. The second field of a
// partition line is a sector count, which equals the end sector when the
// partition starts at sector 1.
func (l Layout) Script() string {
	boot := "-"
	if l.Bootable {
		boot = "*"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "label: %s\n", l.Label)
	fmt.Fprintf(&b, "%d %d %s %s\n", l.First, l.Last-l.First+1, l.Type, boot)
	return b.String()
}

// Partitioner writes partition tables via sfdisk.
type Partitioner struct {
	Runner Runner
}

// Write replaces the partition table on device with layout.
func (p *Partitioner) Write(ctx context.Context, device string, layout Layout) error {
	_, err := p.Runner.Run(ctx, Invocation{
		Utility: Sfdisk,
		Args:    []string{device},
		Stdin:   layout.Script(),
	})
	return err
}

package provision

// RunState records the kernel resources a run holds. Each field is set the
// moment its resource exists and is the only input teardown consults.
type RunState struct {
	// LoopDevice is the bound loop device, empty until bound.
	LoopDevice string `json:"loop_device,omitempty" yaml:"loop_device,omitempty"`

	// Mapped is set once partition mappings were requested for LoopDevice.
	// A failed request can still leave nodes behind.
	Mapped bool `json:"mapped,omitempty" yaml:"mapped,omitempty"`

	// MountPoint is the directory the partition is mounted on, empty until
	// mounted.
	MountPoint string `json:"mount_point,omitempty" yaml:"mount_point,omitempty"`
}

// Empty reports whether nothing needs releasing.
func (s RunState) Empty() bool {
	return s.LoopDevice == "" && !s.Mapped && s.MountPoint == ""
}

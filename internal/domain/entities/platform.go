package entities

// Platform is the OS/architecture pair of a machine
type Platform struct {
	OSType       string // short OS name and version, e.g. "almalinux8", "ubuntu22.04", "macos"
	Architecture string // x86_64, aarch64 or arm64
}

// SelectionCriteria describes the archive a build needs. Empty strings mean "use the default".
type SelectionCriteria struct {
	CompilerType string
	OSType       string
	Architecture string
	IsLinuxbrew  *bool // nil when unspecified
	LTOType      string
	AllowOlderOS bool
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

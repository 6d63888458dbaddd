// Package platform detects the OS and architecture of the local machine.
package platform

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
	"github.com/yugabyte/thirdparty-tool/internal/domain/services"
)

// DefaultOSReleasePath is where Linux distributions describe themselves
const DefaultOSReleasePath = "/etc/os-release"

// Detector implements services.PlatformDetector from the Go runtime and os-release
type Detector struct {
	goos          string
	goarch        string
	osReleasePath string
}

// NewDetector creates a detector for the running machine
func NewDetector() *Detector {
	return &Detector{
		goos:          runtime.GOOS,
		goarch:        runtime.GOARCH,
		osReleasePath: DefaultOSReleasePath,
	}
}

// NewDetectorFor creates a detector for an explicit GOOS/GOARCH pair and os-release file
func NewDetectorFor(goos, goarch, osReleasePath string) *Detector {
	return &Detector{
		goos:          goos,
		goarch:        goarch,
		osReleasePath: osReleasePath,
	}
}

// Detect returns the short OS name with version and the machine architecture
func (d *Detector) Detect() (entities.Platform, error) {
	arch, err := d.architecture()
	if err != nil {
		return entities.Platform{}, err
	}

	switch d.goos {
	case "darwin":
		return entities.Platform{OSType: services.MacOSType, Architecture: arch}, nil
	case "linux":
	default:
		return entities.Platform{}, fmt.Errorf("unsupported operating system: %s", d.goos)
	}

	f, err := os.Open(d.osReleasePath)
	if err != nil {
		return entities.Platform{}, fmt.Errorf("failed to open %s: %w", d.osReleasePath, err)
	}
	//nolint:errcheck // Read-only file
	defer f.Close()

	osType, err := ShortOSNameAndVersion(f)
	if err != nil {
		return entities.Platform{}, fmt.Errorf("failed to parse %s: %w", d.osReleasePath, err)
	}
	return entities.Platform{OSType: osType, Architecture: arch}, nil
}

// architecture uses the names uname reports: arm64 on macOS, aarch64 on Linux
func (d *Detector) architecture() (string, error) {
	switch d.goarch {
	case "amd64":
		return entities.ArchX86_64, nil
	case "arm64":
		if d.goos == "darwin" {
			return entities.ArchARM64, nil
		}
		return entities.ArchAArch64, nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", d.goarch)
	}
}

// ShortOSNameAndVersion reads an os-release file and returns names like "almalinux8",
// "amzn2" or "ubuntu22.04". Ubuntu keeps its full version; other distributions keep
// only the major version.
func ShortOSNameAndVersion(r io.Reader) (string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[key] = strings.Trim(value, `"'`)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	id := strings.ToLower(values["ID"])
	if id == "" {
		return "", fmt.Errorf("no ID field")
	}
	version := values["VERSION_ID"]
	if id != "ubuntu" {
		version, _, _ = strings.Cut(version, ".")
	}
	return services.AdjustOSType(id + version), nil
}

package services

import (
	"regexp"
	"strings"
)

// PreferredOSType is the supported Linux distribution with the oldest glibc.
// Archives built on it also run on newer distributions unless ASAN/TSAN runtimes are needed.
const PreferredOSType = "amzn2"

// MacOSType is the short OS name used for all macOS versions
const MacOSType = "macos"

// SupportedOSNames are the short OS family names a release tag may start its OS token with
var SupportedOSNames = []string{
	"almalinux",
	"amzn",
	"centos",
	"debian",
	"macos",
	"rhel",
	"rocky",
	"ubuntu",
}

var (
	rhelFamilyRe    = regexp.MustCompile(`^(almalinux|centos|rhel|rocky)([0-9]+)`)
	dotlessUbuntuRe = regexp.MustCompile(`^ubuntu([0-9]{2})([0-9]{2})$`)
)

// AdjustOSType maps OS name aliases to the canonical short name used in the catalog
func AdjustOSType(raw string) string {
	osType := strings.ToLower(strings.TrimSpace(raw))

	switch osType {
	case "darwin", "osx", "mac":
		return MacOSType
	}

	// ubuntu2204 -> ubuntu22.04
	if m := dotlessUbuntuRe.FindStringSubmatch(osType); m != nil {
		return "ubuntu" + m[1] + "." + m[2]
	}

	return osType
}

// IsCompatibleOS reports whether an archive built for candidateOS can be used on requestedOS.
// Only RHEL-compatible distributions of the same major version are interchangeable;
// an archive built on CentOS 7 is not considered compatible with AlmaLinux 8.
func IsCompatibleOS(candidateOS, requestedOS string) bool {
	if candidateOS == requestedOS {
		return true
	}

	c := rhelFamilyRe.FindStringSubmatch(candidateOS)
	r := rhelFamilyRe.FindStringSubmatch(requestedOS)
	return c != nil && r != nil && c[2] == r[2]
}

// IsMacOS reports whether osType names a macOS family OS
func IsMacOS(osType string) bool {
	return strings.HasPrefix(osType, "mac")
}

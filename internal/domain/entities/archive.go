// Package entities defines core domain models and data structures.
package entities

import "fmt"

// Supported machine architectures of third-party archives.
// ArchARM64 and ArchAArch64 are distinct values: macOS reports arm64, Linux reports aarch64.
const (
	ArchX86_64  = "x86_64"
	ArchAArch64 = "aarch64"
	ArchARM64   = "arm64"
)

// Link-time optimization types recorded in archive tags
const (
	LTONone = ""
	LTOThin = "thin"
	LTOFull = "full"
)

// Architectures lists the architectures that may appear in a release tag
var Architectures = []string{ArchX86_64, ArchAArch64, ArchARM64}

// LTOTypes lists the allowed non-empty LTO types
var LTOTypes = []string{LTOThin, LTOFull}

// DownloadURLPrefix is the common prefix of all third-party archive download URLs
const DownloadURLPrefix = "https://github.com/yugabyte/yugabyte-db-thirdparty/releases/download/"

// ArchiveDescriptor identifies one prebuilt third-party archive.
// Catalog entries may omit Tag: repeated builds of one commit differ only by tag.
type ArchiveDescriptor struct {
	OSType       string
	Architecture string
	CompilerType string
	IsLinuxbrew  bool
	SHA          string
	LTOType      string
	Tag          string
}

// ArchiveKey is the identity of an archive configuration, excluding the tag
type ArchiveKey struct {
	OSType       string
	Architecture string
	CompilerType string
	IsLinuxbrew  bool
	SHA          string
	LTOType      string
}

// Key returns the identity tuple used for equality and deduplication
func (d ArchiveDescriptor) Key() ArchiveKey {
	return ArchiveKey{
		OSType:       d.OSType,
		Architecture: d.Architecture,
		CompilerType: d.CompilerType,
		IsLinuxbrew:  d.IsLinuxbrew,
		SHA:          d.SHA,
		LTOType:      d.LTOType,
	}
}

// SortKey returns the field values in catalog order, optionally followed by the tag
func (d ArchiveDescriptor) SortKey(includeTag bool) []string {
	key := []string{
		d.OSType,
		d.Architecture,
		d.CompilerType,
		fmt.Sprintf("%t", d.IsLinuxbrew),
		d.SHA,
		d.LTOType,
	}
	if includeTag {
		key = append(key, d.Tag)
	}
	return key
}

// CompareSortKeys orders two descriptors lexicographically by SortKey
func CompareSortKeys(a, b ArchiveDescriptor, includeTag bool) int {
	ka, kb := a.SortKey(includeTag), b.SortKey(includeTag)
	for i := range ka {
		switch {
		case ka[i] < kb[i]:
			return -1
		case ka[i] > kb[i]:
			return 1
		}
	}
	return 0
}

// ArchiveName returns the archive file name published for a tag
func ArchiveName(tag string) string {
	return fmt.Sprintf("yugabyte-db-thirdparty-%s.tar.gz", tag)
}

// URL returns the download URL derived from the tag, or "" when the tag is unknown
func (d ArchiveDescriptor) URL() string {
	if d.Tag == "" {
		return ""
	}
	return DownloadURLPrefix + d.Tag + "/" + ArchiveName(d.Tag)
}

func (d ArchiveDescriptor) String() string {
	return fmt.Sprintf(
		"ArchiveDescriptor(os_type=%q, architecture=%q, compiler_type=%q, is_linuxbrew=%t, sha=%q, lto_type=%q, tag=%q)",
		d.OSType, d.Architecture, d.CompilerType, d.IsLinuxbrew, d.SHA, d.LTOType, d.Tag)
}

// Catalog is the persisted list of known archives plus the default third-party commit
type Catalog struct {
	SHA      string
	Archives []ArchiveDescriptor
}

package entities

import (
	"strings"
	"time"
)

// ReleaseAsset is a downloadable file attached to a host release
type ReleaseAsset struct {
	Name               string
	BrowserDownloadURL string
}

// IsChecksum reports whether the asset is the .sha256 companion of an archive
func (a ReleaseAsset) IsChecksum() bool {
	return strings.HasSuffix(a.BrowserDownloadURL, ".sha256")
}

// ReleaseRecord is an archive descriptor parsed from one host release.
// It is immutable after construction except for DownloadURL, set by URL validation.
type ReleaseRecord struct {
	ArchiveDescriptor

	Timestamp  string
	BranchName string // empty when the tag carries no branch constraint
	CreatedAt  time.Time
	Assets     []ReleaseAsset

	DownloadURL string
}

// Descriptor returns the catalog entry for this record
func (r *ReleaseRecord) Descriptor() ArchiveDescriptor {
	return r.ArchiveDescriptor
}

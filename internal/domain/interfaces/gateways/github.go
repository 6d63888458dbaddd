// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"
	"time"
)

// GitHubRelease represents a GitHub release of the third-party repository
type GitHubRelease struct {
	TagName         string
	TargetCommitish string // commit SHA or branch name the tag was created from
	CreatedAt       time.Time
	Assets          []GitHubAsset
}

// GitHubAsset represents a downloadable release asset
type GitHubAsset struct {
	Name               string
	BrowserDownloadURL string
}

// ReleaseProvider defines the read-only GitHub operations used to refresh the catalog
type ReleaseProvider interface {
	// ListReleases returns every release of owner/repo, following pagination
	ListReleases(ctx context.Context, owner, repo string) ([]*GitHubRelease, error)

	// ResolveCommitSHA returns the full commit SHA a ref (tag, branch or SHA) points to
	ResolveCommitSHA(ctx context.Context, owner, repo, ref string) (string, error)
}

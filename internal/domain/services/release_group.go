package services

import (
	"fmt"
	"time"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
)

// ReleaseGroup collects release records built from the same third-party commit
type ReleaseGroup struct {
	SHA      string
	Releases []*entities.ReleaseRecord
}

// NewReleaseGroup creates an empty group for a commit
func NewReleaseGroup(sha string) *ReleaseGroup {
	return &ReleaseGroup{SHA: sha}
}

// Add appends a record; its SHA must equal the group's
func (g *ReleaseGroup) Add(r *entities.ReleaseRecord) error {
	if r.SHA != g.SHA {
		return fmt.Errorf("adding a release with wrong SHA. Expected: %s, got: %s", g.SHA, r.SHA)
	}
	g.Releases = append(g.Releases, r)
	return nil
}

// MaxCreatedAt returns the newest creation time in the group (zero for an empty group)
func (g *ReleaseGroup) MaxCreatedAt() time.Time {
	var result time.Time
	for i, r := range g.Releases {
		if i == 0 || r.CreatedAt.After(result) {
			result = r.CreatedAt
		}
	}
	return result
}

// MinCreatedAt returns the oldest creation time in the group (zero for an empty group)
func (g *ReleaseGroup) MinCreatedAt() time.Time {
	var result time.Time
	for i, r := range g.Releases {
		if i == 0 || r.CreatedAt.Before(result) {
			result = r.CreatedAt
		}
	}
	return result
}

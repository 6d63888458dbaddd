// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces/gateways"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces/repositories"
	"github.com/yugabyte/thirdparty-tool/internal/domain/services"
)

// Repository that publishes the third-party archives
const (
	ThirdPartyOwner = "yugabyte"
	ThirdPartyRepo  = "yugabyte-db-thirdparty"
)

// Concurrent commit lookups against the GitHub API
const commitResolveConcurrency = 4

var fullSHARe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// UpdateOptions controls which releases end up in the catalog
type UpdateOptions struct {
	// TagFilterRegex keeps only tags matching at their start
	TagFilterRegex string
	// AlsoUseCommits adds the release groups of these commits (SHA prefixes)
	AlsoUseCommits []string
	// OverrideDefaultSHA replaces the catalog's top-level SHA
	OverrideDefaultSHA string
	// YBVersion drops branch-specific releases for other YugabyteDB versions
	YBVersion string
}

// UpdateOrchestrator refreshes the archive catalog from GitHub releases
type UpdateOrchestrator struct {
	provider gateways.ReleaseProvider
	catalogs repositories.CatalogRepository
	releases *services.ReleaseService
	logger   interfaces.Logger
}

// NewUpdateOrchestrator creates a new update orchestrator
func NewUpdateOrchestrator(
	provider gateways.ReleaseProvider,
	catalogs repositories.CatalogRepository,
	logger interfaces.Logger,
) *UpdateOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &UpdateOrchestrator{
		provider: provider,
		catalogs: catalogs,
		releases: services.NewReleaseService(logger),
		logger:   logger,
	}
}

// Update lists the releases, selects the newest commit's archives and saves the catalog
func (o *UpdateOrchestrator) Update(ctx context.Context, opts UpdateOptions) (*entities.Catalog, error) {
	filter, err := compileTagFilter(opts.TagFilterRegex)
	if err != nil {
		return nil, err
	}

	// Step 1: List releases
	all, err := o.provider.ListReleases(ctx, ThirdPartyOwner, ThirdPartyRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	o.logger.Info("Fetched releases", interfaces.F("count", len(all)))

	// Step 2: Tag filter
	releases := all
	if filter != nil {
		releases = make([]*gateways.GitHubRelease, 0, len(all))
		for _, r := range all {
			if filter.MatchString(r.TagName) {
				releases = append(releases, r)
			}
		}
		o.logger.Info("Filtered releases by tag",
			interfaces.F("regex", opts.TagFilterRegex), interfaces.F("count", len(releases)))
	}

	// Step 3: Commit SHAs
	shas, err := o.resolveCommits(ctx, releases)
	if err != nil {
		return nil, err
	}

	// Steps 4-5: Records
	records, err := o.buildRecords(releases, shas, opts.YBVersion)
	if err != nil {
		return nil, err
	}

	// Step 6: Groups
	groups, newest, err := selectGroups(records, opts.AlsoUseCommits)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Using releases of commit",
		interfaces.F("sha", newest.SHA),
		interfaces.F("releases", len(newest.Releases)),
		interfaces.F("created_at", newest.MaxCreatedAt()))

	// Steps 7-8: Filter and deduplicate
	archives := o.collectArchives(groups)

	// Step 9: Sort and persist
	slices.SortFunc(archives, func(a, b entities.ArchiveDescriptor) int {
		return entities.CompareSortKeys(a, b, true)
	})
	catalog := &entities.Catalog{
		SHA:      newest.SHA,
		Archives: archives,
	}
	if opts.OverrideDefaultSHA != "" {
		catalog.SHA = opts.OverrideDefaultSHA
	}

	if err := o.catalogs.Save(ctx, catalog); err != nil {
		return nil, fmt.Errorf("failed to save catalog: %w", err)
	}
	o.logger.Info("Saved catalog", interfaces.F("archives", len(archives)), interfaces.F("sha", catalog.SHA))
	return catalog, nil
}

func compileTagFilter(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(`^(?:` + expr + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid tag filter regex %q: %w", expr, err)
	}
	return re, nil
}

// resolveCommits returns the commit SHA of each release, index-aligned with releases
func (o *UpdateOrchestrator) resolveCommits(ctx context.Context, releases []*gateways.GitHubRelease) ([]string, error) {
	shas := make([]string, len(releases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commitResolveConcurrency)

	lookups := 0
	for i, r := range releases {
		if fullSHARe.MatchString(r.TargetCommitish) {
			shas[i] = r.TargetCommitish
			continue
		}
		lookups++
		i, r := i, r
		g.Go(func() error {
			sha, err := o.provider.ResolveCommitSHA(gctx, ThirdPartyOwner, ThirdPartyRepo, r.TagName)
			if err != nil {
				return fmt.Errorf("failed to resolve commit of tag %s: %w", r.TagName, err)
			}
			shas[i] = sha
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if lookups > 0 {
		o.logger.Debug("Resolved tag commits", interfaces.F("count", lookups))
	}
	return shas, nil
}

func (o *UpdateOrchestrator) buildRecords(
	releases []*gateways.GitHubRelease, shas []string, ybVersion string,
) ([]*entities.ReleaseRecord, error) {
	records := make([]*entities.ReleaseRecord, 0, len(releases))
	skipped := 0
	for i, r := range releases {
		result, err := o.releases.NewReleaseRecord(r, shas[i])
		if err != nil {
			return nil, fmt.Errorf("failed to process release %s: %w", r.TagName, err)
		}
		if !result.IsParsed() {
			skipped++
			o.logger.Info("Skipping release", interfaces.F("reason", result.Reason))
			continue
		}

		if ybVersion != "" && !services.IsConsistentWithYBVersion(result.Record, ybVersion) {
			o.logger.Debug("Skipping release for another YugabyteDB version",
				interfaces.F("tag", r.TagName), interfaces.F("yb_version", ybVersion))
			continue
		}
		records = append(records, result.Record)
	}

	o.logger.Info("Parsed releases", interfaces.F("parsed", len(records)), interfaces.F("skipped", skipped))
	return records, nil
}

// selectGroups returns the newest commit's group followed by the groups of alsoUse, in order
func selectGroups(
	records []*entities.ReleaseRecord, alsoUse []string,
) ([]*services.ReleaseGroup, *services.ReleaseGroup, error) {
	bySHA := make(map[string]*services.ReleaseGroup)
	var order []*services.ReleaseGroup
	for _, r := range records {
		group, ok := bySHA[r.SHA]
		if !ok {
			group = services.NewReleaseGroup(r.SHA)
			bySHA[r.SHA] = group
			order = append(order, group)
		}
		if err := group.Add(r); err != nil {
			return nil, nil, err
		}
	}
	if len(order) == 0 {
		return nil, nil, fmt.Errorf("no usable third-party releases found")
	}

	newest := order[0]
	for _, g := range order[1:] {
		if g.MaxCreatedAt().After(newest.MaxCreatedAt()) {
			newest = g
		}
	}

	selected := []*services.ReleaseGroup{newest}
	for _, prefix := range alsoUse {
		found := false
		for _, g := range order {
			if !strings.HasPrefix(g.SHA, prefix) {
				continue
			}
			found = true
			if !slices.Contains(selected, g) {
				selected = append(selected, g)
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("no releases found for commit %s", prefix)
		}
	}
	return selected, newest, nil
}

// collectArchives drops unusable records and keeps the newest build of each configuration
func (o *UpdateOrchestrator) collectArchives(groups []*services.ReleaseGroup) []entities.ArchiveDescriptor {
	newestByKey := make(map[entities.ArchiveKey]*entities.ReleaseRecord)
	var keys []entities.ArchiveKey

	for _, g := range groups {
		for _, r := range g.Releases {
			if services.ShouldSkipAsTooOSSpecific(r) {
				o.logger.Debug("Skipping release that can use the preferred OS build",
					interfaces.F("tag", r.Tag))
				continue
			}
			if !o.releases.ValidateURL(r) {
				continue
			}

			key := r.Key()
			existing, ok := newestByKey[key]
			if !ok {
				keys = append(keys, key)
				newestByKey[key] = r
				continue
			}
			if r.CreatedAt.After(existing.CreatedAt) {
				o.logger.Debug("Replacing older build", interfaces.F("old", existing.Tag), interfaces.F("new", r.Tag))
				newestByKey[key] = r
			}
		}
	}

	archives := make([]entities.ArchiveDescriptor, 0, len(keys))
	for _, k := range keys {
		archives = append(archives, newestByKey[k].Descriptor())
	}
	return archives
}

package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces/gateways"
)

// scanArtifactSuffix marks releases created by security scanning, not real archives
const scanArtifactSuffix = "-snyk-scan"

// RecordStatus is the outcome of turning a host release into a release record
type RecordStatus string

// Record construction outcomes. Hard failures are returned as errors.
const (
	RecordParsed  RecordStatus = "parsed"
	RecordSkipped RecordStatus = "skipped"
)

// RecordResult is the result of NewReleaseRecord. Record is nil unless Status is RecordParsed.
type RecordResult struct {
	Status RecordStatus
	Record *entities.ReleaseRecord
	Reason string // why the release was skipped
}

// IsParsed returns true if a record was produced
func (r RecordResult) IsParsed() bool {
	return r.Status == RecordParsed
}

func skipped(format string, args ...interface{}) RecordResult {
	return RecordResult{Status: RecordSkipped, Reason: fmt.Sprintf(format, args...)}
}

// ReleaseService builds and validates release records
type ReleaseService struct {
	logger interfaces.Logger
}

// NewReleaseService creates a new release service
func NewReleaseService(logger interfaces.Logger) *ReleaseService {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ReleaseService{logger: logger}
}

// NewReleaseRecord parses a host release. commitSHA overrides the release's target commitish
// when non-empty. Releases that should be ignored come back as RecordSkipped; a tag outside
// the naming convention is a hard error because it means the parser needs updating.
func (s *ReleaseService) NewReleaseRecord(release *gateways.GitHubRelease, commitSHA string) (RecordResult, error) {
	sha := commitSHA
	if sha == "" {
		sha = release.TargetCommitish
	}

	tag := release.TagName
	if strings.HasSuffix(tag, scanArtifactSuffix) {
		return skipped("skipping a tag ending with '%s': %s", scanArtifactSuffix, tag), nil
	}

	fields, err := ParseTag(tag)
	if err != nil {
		s.logger.Info("Full regular expression for release tags", interfaces.F("regex", TagPattern()))
		return RecordResult{}, err
	}

	if !strings.HasPrefix(sha, fields.SHAPrefix) {
		return skipped(
			"SHA prefix %s extracted from tag %s is not a prefix of the SHA corresponding to the release/tag: %s",
			fields.SHAPrefix, tag, sha), nil
	}

	arch, err := fields.Architecture()
	if err != nil {
		return RecordResult{}, fmt.Errorf("invalid tag '%s': %w", tag, err)
	}

	osType := AdjustOSType(fields.OS)
	isLinuxbrew := fields.IsLinuxbrew()

	compilerType := fields.CompilerType
	if compilerType == "" {
		compilerType = defaultCompilerType(osType, isLinuxbrew)
	}
	if slices.Contains(NumberOnlyClangVersions, compilerType) {
		compilerType = "clang" + compilerType
	}
	compilerType = strings.Trim(compilerType, "-")
	if compilerType == "" {
		return RecordResult{}, fmt.Errorf("could not determine compiler type from tag %s: %+v", tag, *fields)
	}

	record := &entities.ReleaseRecord{
		ArchiveDescriptor: entities.ArchiveDescriptor{
			OSType:       osType,
			Architecture: arch,
			CompilerType: compilerType,
			IsLinuxbrew:  isLinuxbrew,
			SHA:          sha,
			LTOType:      fields.LTOType,
			Tag:          tag,
		},
		Timestamp:  fields.Timestamp,
		BranchName: fields.BranchName,
		CreatedAt:  release.CreatedAt,
		Assets:     convertAssets(release.Assets),
	}

	return RecordResult{Status: RecordParsed, Record: record}, nil
}

func convertAssets(assets []gateways.GitHubAsset) []entities.ReleaseAsset {
	result := make([]entities.ReleaseAsset, len(assets))
	for i, a := range assets {
		result[i] = entities.ReleaseAsset{
			Name:               a.Name,
			BrowserDownloadURL: a.BrowserDownloadURL,
		}
	}
	return result
}

// ValidateURL checks that the release publishes exactly one archive plus its checksum under
// the expected URL, and records the archive URL. Problems are logged and reported as false.
func (s *ReleaseService) ValidateURL(r *entities.ReleaseRecord) bool {
	urls := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		urls[i] = a.BrowserDownloadURL
	}

	if len(urls) != 2 {
		s.logger.Warn("Expected to find exactly two asset URLs for a release "+
			"(one for the .tar.gz, the other for the checksum)",
			interfaces.F("tag", r.Tag), interfaces.F("count", len(urls)), interfaces.F("urls", urls))
		return false
	}

	var archiveURLs []string
	for _, a := range r.Assets {
		if !a.IsChecksum() {
			archiveURLs = append(archiveURLs, a.BrowserDownloadURL)
		}
	}
	if len(archiveURLs) != 1 {
		s.logger.Warn("Expected exactly one non-checksum asset",
			interfaces.F("tag", r.Tag), interfaces.F("urls", urls))
		return false
	}

	url := archiveURLs[0]
	if !strings.HasPrefix(url, entities.DownloadURLPrefix) {
		s.logger.Warn("Unexpected archive download URL prefix",
			interfaces.F("expected_prefix", entities.DownloadURLPrefix), interfaces.F("url", url))
		return false
	}

	components := strings.Split(strings.TrimPrefix(url, entities.DownloadURLPrefix), "/")
	if len(components) != 2 {
		s.logger.Warn("Unexpected archive download URL layout", interfaces.F("url", url))
		return false
	}

	expected := entities.ArchiveName(r.Tag)
	if components[1] != expected {
		s.logger.Warn("Archive name does not match tag",
			interfaces.F("expected", expected), interfaces.F("actual", components[1]), interfaces.F("url", url))
		return false
	}

	r.DownloadURL = url
	return true
}

// IsConsistentWithYBVersion reports whether the record may be used by a given YugabyteDB version.
// Records without a branch name apply to every version.
func IsConsistentWithYBVersion(r *entities.ReleaseRecord, ybVersion string) bool {
	return r.BranchName == "" ||
		strings.HasPrefix(ybVersion, r.BranchName+".") ||
		strings.HasPrefix(ybVersion, r.BranchName+"-")
}

// ShouldSkipAsTooOSSpecific reports whether the record can be replaced by a build for the
// preferred OS. Builds that may need ASAN/TSAN runtimes must match the exact OS; we don't run
// sanitizers on aarch64 or with LTO, and Linuxbrew and GCC builds are always kept.
func ShouldSkipAsTooOSSpecific(r *entities.ReleaseRecord) bool {
	return r.OSType != PreferredOSType &&
		strings.HasPrefix(r.CompilerType, "clang") &&
		!r.IsLinuxbrew &&
		(r.Architecture == entities.ArchAArch64 || r.LTOType != entities.LTONone)
}

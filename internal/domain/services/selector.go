package services

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces"
)

// Selection failures, distinguishable with errors.Is
var (
	ErrNoArchive        = errors.New("no matching third-party archive")
	ErrAmbiguousArchive = errors.New("more than one matching third-party archive")
)

// SelectionError describes the criteria for which zero or several archives were found
type SelectionError struct {
	OSType       string
	CompilerType string
	Architecture string
	IsLinuxbrew  *bool
	LTOType      string
	Found        int
}

func (e *SelectionError) Error() string {
	count := "no"
	if e.Found > 1 {
		count = "more than one"
	}
	linuxbrew := "unspecified"
	if e.IsLinuxbrew != nil {
		linuxbrew = fmt.Sprintf("%t", *e.IsLinuxbrew)
	}
	lto := e.LTOType
	if lto == "" {
		lto = "none"
	}
	return fmt.Sprintf(
		"found %s third-party release archives to download for OS type %s, compiler type matching %s, "+
			"architecture %s, is_linuxbrew=%s, lto=%s",
		count, e.OSType, e.CompilerType, e.Architecture, linuxbrew, lto)
}

// Unwrap maps the error to ErrNoArchive or ErrAmbiguousArchive
func (e *SelectionError) Unwrap() error {
	if e.Found == 0 {
		return ErrNoArchive
	}
	return ErrAmbiguousArchive
}

// PlatformDetector reports the OS and architecture of the running machine
type PlatformDetector interface {
	Detect() (entities.Platform, error)
}

// Selector picks third-party archives from a catalog
type Selector struct {
	detector PlatformDetector
	logger   interfaces.Logger
}

// NewSelector creates a new selector
func NewSelector(detector PlatformDetector, logger interfaces.Logger) *Selector {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Selector{
		detector: detector,
		logger:   logger,
	}
}

// CompilerTypeMatches compares compiler types, treating a legacy bare clang version
// such as "14" as equal to "clang14". The relation is symmetric.
func CompilerTypeMatches(a, b string) bool {
	if a == b {
		return true
	}
	return isLegacyClangAlias(a, b) || isLegacyClangAlias(b, a)
}

func isLegacyClangAlias(number, compilerType string) bool {
	return slices.Contains(NumberOnlyClangVersions, number) && compilerType == "clang"+number
}

// FilterForOS returns the candidates built for osType, or if there are none, those built for
// an OS compatible with it. The result never aliases the input.
func FilterForOS(candidates []entities.ArchiveDescriptor, osType string) []entities.ArchiveDescriptor {
	exact := filterArchives(candidates, func(a entities.ArchiveDescriptor) bool {
		return a.OSType == osType
	})
	if len(exact) > 0 {
		return exact
	}
	return filterArchives(candidates, func(a entities.ArchiveDescriptor) bool {
		return IsCompatibleOS(a.OSType, osType)
	})
}

func filterArchives(archives []entities.ArchiveDescriptor, keep func(entities.ArchiveDescriptor) bool) []entities.ArchiveDescriptor {
	result := make([]entities.ArchiveDescriptor, 0, len(archives))
	for _, a := range archives {
		if keep(a) {
			result = append(result, a)
		}
	}
	return result
}

// withDefaults fills in the local OS and architecture when they are not given
func (s *Selector) withDefaults(c entities.SelectionCriteria) (entities.SelectionCriteria, error) {
	if c.OSType != "" && c.Architecture != "" {
		return c, nil
	}
	if s.detector == nil {
		return c, fmt.Errorf("OS type and architecture must be specified when platform detection is unavailable")
	}

	local, err := s.detector.Detect()
	if err != nil {
		return c, fmt.Errorf("failed to detect local platform: %w", err)
	}
	if c.OSType == "" {
		c.OSType = local.OSType
	}
	if c.Architecture == "" {
		c.Architecture = local.Architecture
	}
	return c, nil
}

// preferredOSFallback returns the preferred OS when archives built for it may be used
// instead of the requested OS, or "" otherwise
func preferredOSFallback(c entities.SelectionCriteria) string {
	if c.AllowOlderOS &&
		!isTrue(c.IsLinuxbrew) &&
		c.OSType != PreferredOSType &&
		!IsMacOS(c.OSType) {
		return PreferredOSType
	}
	return ""
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

func filterLinuxbrew(archives []entities.ArchiveDescriptor, isLinuxbrew *bool) []entities.ArchiveDescriptor {
	if isLinuxbrew == nil {
		return archives
	}
	return filterArchives(archives, func(a entities.ArchiveDescriptor) bool {
		return a.IsLinuxbrew == *isLinuxbrew
	})
}

// ListCompilers returns the sorted distinct compiler types available for the criteria.
// CompilerType in the criteria is ignored.
func (s *Selector) ListCompilers(archives []entities.ArchiveDescriptor, criteria entities.SelectionCriteria) ([]string, error) {
	c, err := s.withDefaults(criteria)
	if err != nil {
		return nil, err
	}
	preferredOS := preferredOSFallback(c)

	// An empty LTO type only matches archives built without LTO
	candidates := filterArchives(archives, func(a entities.ArchiveDescriptor) bool {
		return a.Architecture == c.Architecture && a.LTOType == c.LTOType
	})

	osCandidates := FilterForOS(candidates, c.OSType)
	if preferredOS != "" {
		osCandidates = append(osCandidates, FilterForOS(candidates, preferredOS)...)
	}
	osCandidates = filterLinuxbrew(osCandidates, c.IsLinuxbrew)

	seen := make(map[string]bool)
	compilers := make([]string, 0)
	for _, a := range osCandidates {
		if !seen[a.CompilerType] {
			seen[a.CompilerType] = true
			compilers = append(compilers, a.CompilerType)
		}
	}
	sort.Strings(compilers)
	return compilers, nil
}

// SelectArchive returns the one archive matching the criteria. Zero or several matches are a
// *SelectionError. On a macOS host, a request for a specific clang version that finds nothing
// is retried once with plain "clang".
func (s *Selector) SelectArchive(archives []entities.ArchiveDescriptor, criteria entities.SelectionCriteria) (entities.ArchiveDescriptor, error) {
	c, err := s.withDefaults(criteria)
	if err != nil {
		return entities.ArchiveDescriptor{}, err
	}

	attempts := []entities.SelectionCriteria{c}
	if s.canRetryWithPlainClang(c) {
		relaxed := c
		relaxed.CompilerType = "clang"
		relaxed.IsLinuxbrew = entities.BoolPtr(false)
		relaxed.AllowOlderOS = false
		attempts = append(attempts, relaxed)
	}

	var lastErr error
	for i, attempt := range attempts {
		candidates := s.candidates(archives, attempt)

		if len(candidates) == 1 {
			return candidates[0], nil
		}

		selErr := &SelectionError{
			OSType:       attempt.OSType,
			CompilerType: attempt.CompilerType,
			Architecture: attempt.Architecture,
			IsLinuxbrew:  attempt.IsLinuxbrew,
			LTOType:      attempt.LTOType,
			Found:        len(candidates),
		}

		if len(candidates) > 1 {
			for j, candidate := range candidates {
				s.logger.Warn(fmt.Sprintf("Third-party release archive candidate #%d", j+1),
					interfaces.F("candidate", candidate.String()))
			}
			return entities.ArchiveDescriptor{}, selErr
		}

		lastErr = selErr
		if i+1 < len(attempts) {
			s.logger.Info("No archive found, retrying with plain clang",
				interfaces.F("compiler_type", attempt.CompilerType))
		}
	}

	s.logger.Info("Available release archives", interfaces.F("count", len(archives)))
	for _, a := range archives {
		s.logger.Debug("Available release archive", interfaces.F("archive", a.String()))
	}
	return entities.ArchiveDescriptor{}, lastErr
}

// canRetryWithPlainClang applies only when running on macOS and asking for macOS archives
func (s *Selector) canRetryWithPlainClang(c entities.SelectionCriteria) bool {
	if c.OSType != MacOSType ||
		!strings.HasPrefix(c.CompilerType, "clang") ||
		c.CompilerType == "clang" ||
		s.detector == nil {
		return false
	}
	local, err := s.detector.Detect()
	if err != nil {
		return false
	}
	return local.OSType == MacOSType
}

// candidates applies the compiler, architecture, LTO, Linuxbrew and OS filters
func (s *Selector) candidates(archives []entities.ArchiveDescriptor, c entities.SelectionCriteria) []entities.ArchiveDescriptor {
	preferredOS := preferredOSFallback(c)

	candidates := filterArchives(archives, func(a entities.ArchiveDescriptor) bool {
		return CompilerTypeMatches(a.CompilerType, c.CompilerType) &&
			a.Architecture == c.Architecture &&
			a.LTOType == c.LTOType
	})
	candidates = filterLinuxbrew(candidates, c.IsLinuxbrew)

	// Linuxbrew archives are OS-independent, but still filter by OS if that leaves a choice
	if isTrue(c.IsLinuxbrew) && len(candidates) <= 1 {
		return candidates
	}

	if preferredOS != "" {
		if forPreferred := FilterForOS(candidates, preferredOS); len(forPreferred) > 0 {
			return forPreferred
		}
	}
	return FilterForOS(candidates, c.OSType)
}

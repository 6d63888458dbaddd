// Package services implements the third-party archive domain logic:
// release tag parsing, release records, release grouping and archive selection.
package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
)

// NumberOnlyClangVersions were used in old tags without the "clang" prefix
var NumberOnlyClangVersions = []string{"12", "13", "14"}

// compilerTypePattern accepts gcc/clang/devtoolset with a version, or a legacy bare clang version.
// "devtoolset" really means gcc here.
var compilerTypePattern = `(?:-(?P<compiler_type>(?:(?:gcc|clang|devtoolset-?)[a-z0-9.]+)|` +
	strings.Join(NumberOnlyClangVersions, "|") + `))?`

// The architecture may appear before or after the OS token
func archPattern(index int) string {
	return fmt.Sprintf(`(?:-(?P<architecture%d>%s))?`, index, strings.Join(entities.Architectures, "|"))
}

var tagPattern = strings.Join([]string{
	`^v(?:(?P<branch_name>[0-9.]+)-)?`,
	`(?P<timestamp>[0-9]+)-`,
	`(?P<sha_prefix>[0-9a-f]+)`,
	archPattern(1),
	`(?:-(?P<os>(?:` + strings.Join(SupportedOSNames, "|") + `)[a-z0-9.]*))`,
	archPattern(2),
	`(?:-(?P<is_linuxbrew1>linuxbrew))?`,
	compilerTypePattern,
	`(?:-(?P<is_linuxbrew2>linuxbrew))?`,
	`(?:-(?:(?P<lto_type>` + strings.Join(entities.LTOTypes, "|") + `)-lto))?`,
	`$`,
}, "")

var tagRe = regexp.MustCompile(tagPattern)

// TagPattern returns the full regular expression release tags must match
func TagPattern() string {
	return tagPattern
}

// TagFields holds the substrings captured from a release tag. Empty means "not present".
type TagFields struct {
	BranchName    string
	Timestamp     string
	SHAPrefix     string
	Architecture1 string
	Architecture2 string
	OS            string
	Linuxbrew1    bool
	Linuxbrew2    bool
	CompilerType  string
	LTOType       string
}

// Architecture returns the architecture from whichever slot holds it.
// Both slots filled with different values is a malformed tag.
func (f *TagFields) Architecture() (string, error) {
	if f.Architecture1 != "" && f.Architecture2 != "" && f.Architecture1 != f.Architecture2 {
		return "", fmt.Errorf("contradicting values of architecture: %s and %s", f.Architecture1, f.Architecture2)
	}
	if f.Architecture1 != "" {
		return f.Architecture1, nil
	}
	return f.Architecture2, nil
}

// IsLinuxbrew reports whether a linuxbrew marker appeared in either position
func (f *TagFields) IsLinuxbrew() bool {
	return f.Linuxbrew1 || f.Linuxbrew2
}

// TagParseError is returned for a tag that does not follow the naming convention
type TagParseError struct {
	Tag     string
	Pattern string
}

func (e *TagParseError) Error() string {
	return fmt.Sprintf("could not parse tag: %s, does not match regex: %s", e.Tag, e.Pattern)
}

// ParseTag decomposes a release tag into its fields
func ParseTag(tag string) (*TagFields, error) {
	m := tagRe.FindStringSubmatch(tag)
	if m == nil {
		return nil, &TagParseError{Tag: tag, Pattern: tagPattern}
	}

	group := func(name string) string {
		return m[tagRe.SubexpIndex(name)]
	}

	return &TagFields{
		BranchName:    strings.TrimRight(group("branch_name"), "-"),
		Timestamp:     group("timestamp"),
		SHAPrefix:     group("sha_prefix"),
		Architecture1: group("architecture1"),
		Architecture2: group("architecture2"),
		OS:            group("os"),
		Linuxbrew1:    group("is_linuxbrew1") != "",
		Linuxbrew2:    group("is_linuxbrew2") != "",
		CompilerType:  group("compiler_type"),
		LTOType:       group("lto_type"),
	}, nil
}

// canonicalSHAPrefixLen matches the SHA prefix length used by the release pipeline
const canonicalSHAPrefixLen = 10

// CanonicalTag renders a record back into a tag in the current naming convention.
// Parsing the result yields the same archive key; the compiler token is omitted when
// it equals the value the parser would infer.
func CanonicalTag(r *entities.ReleaseRecord) string {
	var b strings.Builder
	b.WriteString("v")
	if r.BranchName != "" {
		b.WriteString(r.BranchName + "-")
	}

	shaPrefix := r.SHA
	if len(shaPrefix) > canonicalSHAPrefixLen {
		shaPrefix = shaPrefix[:canonicalSHAPrefixLen]
	}
	b.WriteString(r.Timestamp + "-" + shaPrefix)
	b.WriteString("-" + r.OSType)
	if r.Architecture != "" {
		b.WriteString("-" + r.Architecture)
	}
	if r.IsLinuxbrew {
		b.WriteString("-linuxbrew")
	}
	if r.CompilerType != defaultCompilerType(r.OSType, r.IsLinuxbrew) {
		b.WriteString("-" + r.CompilerType)
	}
	if r.LTOType != entities.LTONone {
		b.WriteString("-" + r.LTOType + "-lto")
	}
	return b.String()
}

// defaultCompilerType returns the compiler implied by a tag with no compiler token, or ""
func defaultCompilerType(osType string, isLinuxbrew bool) string {
	if osType == MacOSType {
		return "clang"
	}
	if isLinuxbrew {
		return "gcc"
	}
	return ""
}

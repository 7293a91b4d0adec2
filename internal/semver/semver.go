// Package semver parses and orders the dotted version numbers used by
// Cursor releases. Versions are plain numeric triples ("1.2.3"); anything
// that does not parse is treated as absent rather than an error, so a
// single malformed entry never poisons a ranking.
package semver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var (
	strictRegex  = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)
	extractRegex = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)
)

// Version is an immutable parsed version number.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse interprets s as a bare version string ("1.2.3", optionally with a
// leading "v"). The second return value reports whether s parsed.
func Parse(s string) (Version, bool) {
	return fromMatch(strictRegex.FindStringSubmatch(s))
}

// Extract finds the first version-shaped substring inside arbitrary text,
// such as a filename or an embedded metadata line.
func Extract(text string) (Version, bool) {
	return fromMatch(extractRegex.FindStringSubmatch(text))
}

func fromMatch(match []string) (Version, bool) {
	if match == nil {
		return Version{}, false
	}
	major, err := strconv.Atoi(match[1])
	if err != nil {
		return Version{}, false
	}
	minor, err := strconv.Atoi(match[2])
	if err != nil {
		return Version{}, false
	}
	patch, err := strconv.Atoi(match[3])
	if err != nil {
		return Version{}, false
	}
	return Version{Major: major, Minor: minor, Patch: patch}, true
}

// String renders the canonical dotted form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders two versions component-wise as integers, so "1.10.0"
// sorts above "1.9.0". It returns -1, 0 or 1.
func Compare(a, b Version) int {
	if a.Major != b.Major {
		return compareInt(a.Major, b.Major)
	}
	if a.Minor != b.Minor {
		return compareInt(a.Minor, b.Minor)
	}
	return compareInt(a.Patch, b.Patch)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool {
	return Compare(v, o) < 0
}

// Equal reports component-wise equality.
func (v Version) Equal(o Version) bool {
	return Compare(v, o) == 0
}

// SortDescending parses every entry and returns the parseable ones ordered
// newest first. Unparseable entries are dropped silently.
func SortDescending(raw []string) []Version {
	versions := make([]Version, 0, len(raw))
	for _, s := range raw {
		if v, ok := Parse(s); ok {
			versions = append(versions, v)
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) > 0
	})
	return versions
}

// Max returns the highest of vs. The second return value is false for an
// empty slice.
func Max(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if Compare(v, best) > 0 {
			best = v
		}
	}
	return best, true
}

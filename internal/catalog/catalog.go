// Package catalog resolves remote Cursor versions from the published
// version-history manifest. The manifest maps each released version to
// per-platform download URLs; this package fetches it with a bounded
// timeout and persists it through a file cache so repeated lookups do
// not hammer the endpoint.
package catalog

import (
	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

// Manifest is the decoded version-history document. It is rebuilt
// wholesale on every successful fetch; entries are never merged.
type Manifest struct {
	Versions []VersionEntry `json:"versions"`
}

// VersionEntry maps one released version to its per-platform download
// locations, keyed by platform identifier ("linux-x64", "linux-arm64").
type VersionEntry struct {
	Version   string            `json:"version"`
	Platforms map[string]string `json:"platforms"`
}

// PlatformVersions returns every version string that offers a download
// for the given platform key. Entries without a matching platform are
// skipped; no parsing happens here.
func (m *Manifest) PlatformVersions(key string) []string {
	var out []string
	for _, entry := range m.Versions {
		if entry.Platforms[key] != "" {
			out = append(out, entry.Version)
		}
	}
	return out
}

// DownloadURL returns the download location for an exact version on the
// given platform. Entries with malformed version strings are skipped
// rather than failing the lookup.
func (m *Manifest) DownloadURL(version semver.Version, key string) (string, bool) {
	for _, entry := range m.Versions {
		parsed, ok := semver.Parse(entry.Version)
		if !ok {
			continue
		}
		if !parsed.Equal(version) {
			continue
		}
		if url := entry.Platforms[key]; url != "" {
			return url, true
		}
	}
	return "", false
}

// LatestVersion returns the highest version offering a download for the
// given platform key. Unparseable version strings are ignored. Returns
// false when no entry matches.
func (m *Manifest) LatestVersion(key string) (semver.Version, bool) {
	sorted := semver.SortDescending(m.PlatformVersions(key))
	if len(sorted) == 0 {
		return semver.Version{}, false
	}
	return sorted[0], true
}

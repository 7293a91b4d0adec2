// Package appimage manages the on-disk Cursor AppImage surface: the
// versioned artifacts in the downloads directory, the canonical install
// slot, the desktop launcher, and the running process. It answers which
// version is active, which versions could be activated, and performs the
// activation transaction that switches between them.
package appimage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

// Paths locates the filesystem surface this package operates on.
type Paths struct {
	// InstallPath is the canonical install slot, normally a symlink to
	// the active artifact (e.g. ~/.local/bin/cursor.appimage).
	InstallPath string
	// LauncherPath is the desktop launcher file whose Exec= line points
	// at the install slot.
	LauncherPath string
	// DownloadsDir holds the versioned artifacts.
	DownloadsDir string
}

// FileName returns the canonical artifact name for a version.
func FileName(v semver.Version) string {
	return fmt.Sprintf("cursor-%s.AppImage", v)
}

// ArtifactPath returns where the artifact for a version lives inside the
// downloads directory.
func ArtifactPath(downloadsDir string, v semver.Version) string {
	return filepath.Join(downloadsDir, FileName(v))
}

// isCursorAppImage reports whether a file name looks like a Cursor
// AppImage, ignoring case.
func isCursorAppImage(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "cursor") && strings.HasSuffix(lower, ".appimage")
}

// FindInSlot locates the artifact occupying the install slot. The exact
// slot path wins; otherwise the slot's directory is searched for Cursor
// AppImages with the slot's name matched case-insensitively, falling
// back to the first other candidate. Dangling symlinks do not count.
func FindInSlot(installPath string) (string, bool) {
	if _, err := os.Stat(installPath); err == nil {
		return installPath, true
	}

	dir := filepath.Dir(installPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	slotName := filepath.Base(installPath)
	fallback := ""
	for _, entry := range entries {
		name := entry.Name()
		if !isCursorAppImage(name) {
			continue
		}
		full := filepath.Join(dir, name)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		if strings.EqualFold(name, slotName) {
			return full, true
		}
		if fallback == "" {
			fallback = full
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// resolveExisting resolves symlinks in path and reports whether the
// final target exists.
func resolveExisting(path string) (string, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	return resolved, true
}

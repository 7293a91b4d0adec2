package appimage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/debug"
	appErrors "github.com/KarlQuerel/cursor-appimage-updater/internal/errors"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

// BackupSuffix is appended to a legacy regular file found in the install
// slot before the slot becomes a symlink.
const BackupSuffix = ".backup"

// Activator switches the active version. The symlink swap is the
// transaction's one fatal step; the launcher rewrite and the
// running-path repoint are enrichment that must never fail the
// activation once the swap has succeeded.
type Activator struct {
	paths  Paths
	prober *Prober
}

// NewActivator returns an Activator over the given filesystem surface.
// The prober locates the running process for the repoint step; a nil
// prober skips that step.
func NewActivator(paths Paths, prober *Prober) *Activator {
	return &Activator{paths: paths, prober: prober}
}

// Result reports the activation outcome: which artifact is now active
// and how the best-effort enrichment steps fared.
type Result struct {
	// Artifact is the versioned file the install slot now points at.
	Artifact string
	// BackupPath is where a legacy regular file in the slot was moved,
	// empty when the slot was already a symlink or vacant.
	BackupPath string
	// LauncherUpdated reports whether the desktop launcher's Exec line
	// now references the install slot.
	LauncherUpdated bool
	// RunningRepointed reports whether a running instance's load path
	// was switched to the new artifact.
	RunningRepointed bool
}

// Activate makes version the active one. The version's artifact must
// already be present in the downloads directory; activating an absent
// version fails with a not_found_locally error before anything is
// touched. A failed symlink swap fails with activation_failed.
func (a *Activator) Activate(ctx context.Context, version semver.Version) (Result, error) {
	artifact := ArtifactPath(a.paths.DownloadsDir, version)
	if _, err := os.Stat(artifact); err != nil {
		return Result{}, appErrors.New(
			appErrors.CodeNotFoundLocally,
			fmt.Sprintf("version %s not found locally", version),
			err,
		)
	}

	res := Result{Artifact: artifact}

	backup, err := a.repointSlot(artifact)
	if err != nil {
		return res, appErrors.New(
			appErrors.CodeActivationFailed,
			fmt.Sprintf("failed to activate %s", version),
			err,
		)
	}
	res.BackupPath = backup

	rewritten, err := RewriteExec(a.paths.LauncherPath, a.paths.InstallPath)
	if err != nil {
		debug.Logf("activate: launcher rewrite: %v", err)
	}
	res.LauncherUpdated = rewritten

	res.RunningRepointed = a.repointRunningPath(ctx, artifact)

	return res, nil
}

// repointSlot makes the install slot a symlink to artifact. An existing
// symlink is replaced; a legacy regular file is renamed aside to a
// .backup sibling, overwriting any prior backup. Returns the backup
// path when one was created.
func (a *Activator) repointSlot(artifact string) (string, error) {
	slot := a.paths.InstallPath
	if err := os.MkdirAll(filepath.Dir(slot), 0755); err != nil {
		return "", fmt.Errorf("create install directory: %w", err)
	}

	backup := ""
	info, err := os.Lstat(slot)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		if err := os.Remove(slot); err != nil {
			return "", fmt.Errorf("remove current symlink: %w", err)
		}
	case err == nil && info.Mode().IsRegular():
		backup = slot + BackupSuffix
		if err := os.Rename(slot, backup); err != nil {
			return "", fmt.Errorf("back up legacy install: %w", err)
		}
		debug.Logf("activate: moved legacy install aside to %s", backup)
	case err == nil:
		return "", fmt.Errorf("install slot %s is neither a file nor a symlink", slot)
	case !os.IsNotExist(err):
		return "", fmt.Errorf("inspect install slot: %w", err)
	}

	if err := os.Symlink(artifact, slot); err != nil {
		return backup, fmt.Errorf("create symlink: %w", err)
	}
	return backup, nil
}

// repointRunningPath switches the path a running instance was loaded
// from over to the new artifact, so its next launch from the same path
// picks up the new version. Managed paths (the slot and anything in the
// downloads directory) are left alone to keep older artifacts available
// for rollback. Every failure is ignored; this step is a convenience.
func (a *Activator) repointRunningPath(ctx context.Context, artifact string) bool {
	if a.prober == nil {
		return false
	}
	running, ok := a.prober.RunningPath(ctx)
	if !ok {
		return false
	}
	if samePath(running, a.paths.InstallPath) || samePath(running, artifact) {
		return false
	}
	if insideDir(running, a.paths.DownloadsDir) {
		return false
	}
	if slotTarget, ok := resolveExisting(a.paths.InstallPath); ok && samePath(running, slotTarget) {
		return false
	}

	info, err := os.Lstat(running)
	if err != nil {
		return false
	}
	switch {
	case info.Mode().IsRegular():
		// The rename keeps the running instance's inode alive while
		// freeing the path for the symlink.
		if err := os.Rename(running, running+BackupSuffix); err != nil {
			debug.Logf("activate: repoint running path: %v", err)
			return false
		}
	case info.Mode()&os.ModeSymlink != 0:
		if err := os.Remove(running); err != nil {
			debug.Logf("activate: repoint running path: %v", err)
			return false
		}
	default:
		return false
	}

	if err := os.Symlink(artifact, running); err != nil {
		debug.Logf("activate: repoint running path: %v", err)
		return false
	}
	debug.Logf("activate: repointed running path %s to %s", running, artifact)
	return true
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

func insideDir(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

package appimage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/debug"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

const defaultScanTimeout = 2 * time.Second

// appImagePathRegex pulls absolute Cursor AppImage paths out of a
// process-table line.
var appImagePathRegex = regexp.MustCompile(`(/\S+cursor\S*\.AppImage)`)

// Prober answers "what version is active" and "what versions are
// available locally" by reconciling three sources with fixed precedence:
// the running process, the desktop launcher, and the install slot. Each
// source degrades to absent on any failure.
type Prober struct {
	paths       Paths
	runner      CommandRunner
	inspector   *Inspector
	scanTimeout time.Duration
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProberRunner replaces the subprocess runner used for the
// process-table scan.
func WithProberRunner(r CommandRunner) ProberOption {
	return func(p *Prober) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithInspector replaces the artifact version inspector.
func WithInspector(i *Inspector) ProberOption {
	return func(p *Prober) {
		if i != nil {
			p.inspector = i
		}
	}
}

// WithScanTimeout bounds the process-table scan.
func WithScanTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		if d > 0 {
			p.scanTimeout = d
		}
	}
}

// NewProber returns a Prober over the given filesystem surface.
func NewProber(paths Paths, opts ...ProberOption) *Prober {
	p := &Prober{
		paths:       paths,
		runner:      execCommandRunner{},
		inspector:   NewInspector(),
		scanTimeout: defaultScanTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunningPath returns the resolved path of the AppImage a running Cursor
// process was loaded from, or absent when no such process is found or
// the process table cannot be read in time.
func (p *Prober) RunningPath(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.scanTimeout)
	defer cancel()

	out, err := p.runner.Run(ctx, "", "ps", "aux")
	if err != nil {
		debug.Logf("probe: scan process table: %v", err)
		return "", false
	}

	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(strings.ToLower(line), "cursor") || !strings.Contains(line, ".AppImage") {
			continue
		}
		if path, ok := appImagePathInLine(line); ok {
			return path, true
		}
	}
	return "", false
}

// appImagePathInLine extracts an existing AppImage path from a process
// line, trying the path pattern first and falling back to a field scan.
func appImagePathInLine(line string) (string, bool) {
	for _, match := range appImagePathRegex.FindAllString(line, -1) {
		if resolved, ok := resolveExisting(match); ok {
			return resolved, true
		}
	}
	for _, field := range strings.Fields(line) {
		if !strings.HasSuffix(field, ".AppImage") {
			continue
		}
		if !strings.Contains(strings.ToLower(field), "cursor") {
			continue
		}
		if resolved, ok := resolveExisting(field); ok {
			return resolved, true
		}
	}
	return "", false
}

// launcherPath returns the resolved target of the launcher's Exec line.
func (p *Prober) launcherPath(context.Context) (string, bool) {
	target, ok := ExecTarget(p.paths.LauncherPath)
	if !ok {
		return "", false
	}
	return resolveExisting(target)
}

// slotPath returns the resolved artifact occupying the install slot.
func (p *Prober) slotPath(context.Context) (string, bool) {
	slot, ok := FindInSlot(p.paths.InstallPath)
	if !ok {
		return "", false
	}
	return resolveExisting(slot)
}

// LocalVersion returns the currently active version. Probes run lazily
// in precedence order (running process, launcher, install slot); a
// source that yields no path or no parseable version passes to the
// next. Absence everywhere means "no active version", not an error.
func (p *Prober) LocalVersion(ctx context.Context) (semver.Version, bool) {
	probes := []func(context.Context) (string, bool){
		p.RunningPath,
		p.launcherPath,
		p.slotPath,
	}
	for _, probe := range probes {
		path, ok := probe(ctx)
		if !ok {
			continue
		}
		if v, ok := p.inspector.Version(ctx, path); ok {
			return v, true
		}
	}
	return semver.Version{}, false
}

// LatestLocalVersion unions every parseable version found across the
// downloads directory and the install surface (launcher target and
// slot), deduplicates, and returns the maximum. This answers "what
// could I activate" rather than "what is active".
func (p *Prober) LatestLocalVersion(ctx context.Context) (semver.Version, bool) {
	found := make(map[semver.Version]struct{})

	for _, v := range p.downloadedVersions(ctx) {
		found[v] = struct{}{}
	}
	for _, probe := range []func(context.Context) (string, bool){p.launcherPath, p.slotPath} {
		path, ok := probe(ctx)
		if !ok {
			continue
		}
		if v, ok := p.inspector.Version(ctx, path); ok {
			found[v] = struct{}{}
		}
	}

	versions := make([]semver.Version, 0, len(found))
	for v := range found {
		versions = append(versions, v)
	}
	return semver.Max(versions)
}

// downloadedVersions collects the versions of every Cursor AppImage in
// the downloads directory, deduplicating case variants by resolved path.
func (p *Prober) downloadedVersions(ctx context.Context) []semver.Version {
	entries, err := os.ReadDir(p.paths.DownloadsDir)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var versions []semver.Version
	for _, entry := range entries {
		if !isCursorAppImage(entry.Name()) {
			continue
		}
		full := filepath.Join(p.paths.DownloadsDir, entry.Name())
		resolved, ok := resolveExisting(full)
		if !ok {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		if v, ok := p.inspector.Version(ctx, full); ok {
			versions = append(versions, v)
		}
	}
	return versions
}

// LaunchInfo describes how the application is currently wired up: where
// a running instance was loaded from, what the launcher points at, and
// what occupies the install slot.
type LaunchInfo struct {
	RunningPath   string
	LauncherExec  string
	SlotPath      string
	SlotIsSymlink bool
	SlotTarget    string
	SlotOnPath    bool
}

// LaunchInfo gathers launch wiring facts. Every field is best-effort;
// absent facts stay zero-valued.
func (p *Prober) LaunchInfo(ctx context.Context) LaunchInfo {
	var info LaunchInfo

	if path, ok := p.RunningPath(ctx); ok {
		info.RunningPath = path
	}
	if target, ok := ExecTarget(p.paths.LauncherPath); ok {
		info.LauncherExec = target
	}
	if slot, ok := FindInSlot(p.paths.InstallPath); ok {
		info.SlotPath = slot
		if fi, err := os.Lstat(slot); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			info.SlotIsSymlink = true
			if target, ok := resolveExisting(slot); ok {
				info.SlotTarget = target
			}
		}
	}
	info.SlotOnPath = dirOnPath(filepath.Dir(p.paths.InstallPath))

	return info
}

// dirOnPath reports whether dir is listed in $PATH.
func dirOnPath(dir string) bool {
	for _, entry := range filepath.SplitList(os.Getenv("PATH")) {
		if entry == dir {
			return true
		}
	}
	return false
}

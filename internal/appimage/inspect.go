package appimage

import (
	"bufio"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/debug"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

const (
	defaultExtractTimeout = 30 * time.Second
	defaultStringsTimeout = 10 * time.Second
)

// CommandRunner executes external commands, allowing tests to inject stubs.
// An empty dir runs the command in the current working directory.
type CommandRunner interface {
	Run(ctx context.Context, dir, bin string, args ...string) ([]byte, error)
}

type execCommandRunner struct{}

func (execCommandRunner) Run(ctx context.Context, dir, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// packageVersionRegex matches the version field of an embedded
// package.json line inside the binary's string table.
var packageVersionRegex = regexp.MustCompile(`"version"\s*:\s*"([0-9.]+)"`)

// Inspector resolves the version of an AppImage artifact. Strategies run
// in order of cost: the file name, then unpacked package metadata, then
// the binary's embedded strings. Every strategy degrades to absent.
type Inspector struct {
	runner         CommandRunner
	extractTimeout time.Duration
	stringsTimeout time.Duration
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithRunner replaces the subprocess runner.
func WithRunner(r CommandRunner) InspectorOption {
	return func(i *Inspector) {
		if r != nil {
			i.runner = r
		}
	}
}

// WithExtractTimeout bounds the --appimage-extract subprocess.
func WithExtractTimeout(d time.Duration) InspectorOption {
	return func(i *Inspector) {
		if d > 0 {
			i.extractTimeout = d
		}
	}
}

// WithStringsTimeout bounds the strings(1) scan.
func WithStringsTimeout(d time.Duration) InspectorOption {
	return func(i *Inspector) {
		if d > 0 {
			i.stringsTimeout = d
		}
	}
}

// NewInspector returns an Inspector running real subprocesses by default.
func NewInspector(opts ...InspectorOption) *Inspector {
	i := &Inspector{
		runner:         execCommandRunner{},
		extractTimeout: defaultExtractTimeout,
		stringsTimeout: defaultStringsTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Version resolves the version of the AppImage at path, or absent when
// every strategy comes up empty.
func (i *Inspector) Version(ctx context.Context, path string) (semver.Version, bool) {
	if v, ok := semver.Extract(filepath.Base(path)); ok {
		return v, true
	}
	if v, ok := i.unpackedVersion(ctx, path); ok {
		return v, true
	}
	return i.stringsVersion(ctx, path)
}

// unpackedVersion unpacks the AppImage into a scratch directory and
// reads the application's package metadata. The scratch directory is
// removed on every exit path.
func (i *Inspector) unpackedVersion(ctx context.Context, path string) (semver.Version, bool) {
	scratch, err := os.MkdirTemp("", "cursor-inspect-*")
	if err != nil {
		debug.Logf("inspect: create scratch dir: %v", err)
		return semver.Version{}, false
	}
	defer os.RemoveAll(scratch)

	ctx, cancel := context.WithTimeout(ctx, i.extractTimeout)
	defer cancel()

	if _, err := i.runner.Run(ctx, scratch, path, "--appimage-extract"); err != nil {
		debug.Logf("inspect: unpack %s: %v", path, err)
		return semver.Version{}, false
	}

	if v, ok := versionFromPackageJSON(scratch); ok {
		return v, true
	}
	return versionFromDesktopEntries(scratch)
}

// versionFromPackageJSON walks the unpacked tree for the application's
// resources/app/package.json and returns its version field.
func versionFromPackageJSON(root string) (semver.Version, bool) {
	var found semver.Version
	ok := false

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || d.Name() != "package.json" {
			return nil
		}
		if !strings.HasSuffix(filepath.ToSlash(filepath.Dir(path)), "resources/app") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var pkg struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(data, &pkg); err != nil {
			return nil
		}
		if v, parsed := semver.Parse(pkg.Version); parsed {
			found, ok = v, true
			return filepath.SkipAll
		}
		return nil
	})

	return found, ok
}

// versionFromDesktopEntries scans unpacked .desktop files for an
// X-AppImage-Version line.
func versionFromDesktopEntries(root string) (semver.Version, bool) {
	var found semver.Version
	ok := false

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".desktop") {
			return nil
		}
		if v, parsed := versionFromDesktopFile(path); parsed {
			found, ok = v, true
			return filepath.SkipAll
		}
		return nil
	})

	return found, ok
}

func versionFromDesktopFile(path string) (semver.Version, bool) {
	f, err := os.Open(path)
	if err != nil {
		return semver.Version{}, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "X-AppImage-Version=") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "X-AppImage-Version="))
		if v, ok := semver.Parse(value); ok {
			return v, true
		}
	}
	return semver.Version{}, false
}

// stringsVersion scans the binary's string table for a version token,
// either a package.json version field or an X-AppImage-Version value.
func (i *Inspector) stringsVersion(ctx context.Context, path string) (semver.Version, bool) {
	ctx, cancel := context.WithTimeout(ctx, i.stringsTimeout)
	defer cancel()

	out, err := i.runner.Run(ctx, "", "strings", path)
	if err != nil {
		debug.Logf("inspect: scan strings of %s: %v", path, err)
		return semver.Version{}, false
	}

	for _, line := range strings.Split(string(out), "\n") {
		if match := packageVersionRegex.FindStringSubmatch(line); match != nil {
			if v, ok := semver.Parse(match[1]); ok {
				return v, true
			}
		}
		if rest, found := strings.CutPrefix(strings.TrimSpace(line), "X-AppImage-Version="); found {
			if v, ok := semver.Parse(strings.TrimSpace(rest)); ok {
				return v, true
			}
		}
	}
	return semver.Version{}, false
}

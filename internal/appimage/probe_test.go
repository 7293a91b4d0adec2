package appimage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

// psLine fabricates a plausible process-table row for a path.
func psLine(path string, args string) string {
	return fmt.Sprintf("karl      4242 12.3  1.2 123456 7890 ?  Sl   09:00   1:23 %s %s", path, args)
}

// noSubprocessInspector resolves versions from filenames only; any
// subprocess attempt fails.
func noSubprocessInspector() *Inspector {
	return NewInspector(WithRunner(stubRunner{err: errors.New("no subprocess in this test")}))
}

func newTestProber(t *testing.T, paths Paths, psOutput string, psErr error) *Prober {
	t.Helper()
	runner := stubRunner{
		onRun: func(dir, bin string, args []string) ([]byte, error) {
			if bin != "ps" {
				t.Fatalf("unexpected subprocess %s %v", bin, args)
			}
			if psErr != nil {
				return nil, psErr
			}
			return []byte(psOutput), nil
		},
	}
	return NewProber(paths,
		WithProberRunner(runner),
		WithInspector(noSubprocessInspector()),
	)
}

func TestRunningPathFindsAppImageProcess(t *testing.T) {
	paths := testPaths(t)
	artifact := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.2.0.AppImage"))

	out := "root         1  0.0  0.1  22"
	out += "\n" + psLine("/usr/lib/firefox/firefox", "")
	out += "\n" + psLine(artifact, "--no-sandbox")
	out += "\n"

	prober := newTestProber(t, paths, out, nil)
	got, ok := prober.RunningPath(context.Background())
	if !ok {
		t.Fatal("expected running path")
	}
	resolved, err := filepath.EvalSymlinks(artifact)
	if err != nil {
		t.Fatalf("resolve artifact: %v", err)
	}
	if got != resolved {
		t.Fatalf("expected %q, got %q", resolved, got)
	}
}

func TestRunningPathIgnoresVanishedPaths(t *testing.T) {
	paths := testPaths(t)
	out := psLine(filepath.Join(paths.DownloadsDir, "cursor-9.9.9.AppImage"), "--no-sandbox")

	prober := newTestProber(t, paths, out, nil)
	if _, ok := prober.RunningPath(context.Background()); ok {
		t.Fatal("nonexistent process path should be ignored")
	}
}

func TestRunningPathFieldFallbackForOddCasing(t *testing.T) {
	paths := testPaths(t)
	artifact := writeArtifact(t, filepath.Join(paths.DownloadsDir, "Cursor.AppImage"))
	out := psLine(artifact, "")

	prober := newTestProber(t, paths, out, nil)
	got, ok := prober.RunningPath(context.Background())
	if !ok {
		t.Fatal("expected running path despite capitalized file name")
	}
	resolved, err := filepath.EvalSymlinks(artifact)
	if err != nil {
		t.Fatalf("resolve artifact: %v", err)
	}
	if got != resolved {
		t.Fatalf("expected %q, got %q", resolved, got)
	}
}

func TestRunningPathScanFailureIsAbsent(t *testing.T) {
	paths := testPaths(t)
	prober := newTestProber(t, paths, "", errors.New("ps unavailable"))

	if _, ok := prober.RunningPath(context.Background()); ok {
		t.Fatal("a failed process scan should yield absent, not an error")
	}
}

func TestLocalVersionPrefersRunningProcess(t *testing.T) {
	paths := testPaths(t)
	running := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.3.0.AppImage"))
	launcherTarget := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.2.0.AppImage"))
	slotTarget := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.1.0.AppImage"))

	writeLauncher(t, paths.LauncherPath, "[Desktop Entry]\nExec="+launcherTarget+" %F\n")
	mustSymlink(t, slotTarget, paths.InstallPath)

	prober := newTestProber(t, paths, psLine(running, "--no-sandbox"), nil)
	got, ok := prober.LocalVersion(context.Background())
	if !ok {
		t.Fatal("expected a local version")
	}
	want := semver.Version{Major: 1, Minor: 3, Patch: 0}
	if !got.Equal(want) {
		t.Fatalf("running process should win, expected %s got %s", want, got)
	}
}

func TestLocalVersionFallsBackToLauncher(t *testing.T) {
	paths := testPaths(t)
	launcherTarget := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.2.0.AppImage"))
	slotTarget := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.1.0.AppImage"))

	writeLauncher(t, paths.LauncherPath, "[Desktop Entry]\nExec="+launcherTarget+" %F\n")
	mustSymlink(t, slotTarget, paths.InstallPath)

	prober := newTestProber(t, paths, "no cursor rows here\n", nil)
	got, ok := prober.LocalVersion(context.Background())
	if !ok {
		t.Fatal("expected a local version")
	}
	want := semver.Version{Major: 1, Minor: 2, Patch: 0}
	if !got.Equal(want) {
		t.Fatalf("launcher should win without a running process, expected %s got %s", want, got)
	}
}

func TestLocalVersionFallsBackToSlot(t *testing.T) {
	paths := testPaths(t)
	slotTarget := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.1.0.AppImage"))
	mustSymlink(t, slotTarget, paths.InstallPath)

	prober := newTestProber(t, paths, "", nil)
	got, ok := prober.LocalVersion(context.Background())
	if !ok {
		t.Fatal("expected a local version")
	}
	want := semver.Version{Major: 1, Minor: 1, Patch: 0}
	if !got.Equal(want) {
		t.Fatalf("slot should answer when other sources are silent, expected %s got %s", want, got)
	}
}

func TestLocalVersionSkipsSourcesWithoutParseableVersion(t *testing.T) {
	paths := testPaths(t)

	// The launcher points at an artifact whose version cannot be
	// resolved without subprocesses; the slot still answers.
	opaque := writeArtifact(t, filepath.Join(paths.DownloadsDir, "mycursorbuild.AppImage"))
	writeLauncher(t, paths.LauncherPath, "[Desktop Entry]\nExec="+opaque+"\n")
	slotTarget := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.1.0.AppImage"))
	mustSymlink(t, slotTarget, paths.InstallPath)

	prober := newTestProber(t, paths, "", nil)
	got, ok := prober.LocalVersion(context.Background())
	if !ok {
		t.Fatal("expected a local version from the slot")
	}
	want := semver.Version{Major: 1, Minor: 1, Patch: 0}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestLocalVersionAbsentEverywhere(t *testing.T) {
	paths := testPaths(t)
	prober := newTestProber(t, paths, "", nil)

	if _, ok := prober.LocalVersion(context.Background()); ok {
		t.Fatal("no sources should mean no active version, not an error")
	}
}

func TestLatestLocalVersionUnionsDownloadsAndInstallSurface(t *testing.T) {
	paths := testPaths(t)
	writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.0.0.AppImage"))
	writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.2.0.AppImage"))
	writeArtifact(t, filepath.Join(paths.DownloadsDir, "notes.txt"))

	// The launcher references a newer artifact outside the downloads dir.
	elsewhere := writeArtifact(t, filepath.Join(t.TempDir(), "cursor-1.3.0.AppImage"))
	writeLauncher(t, paths.LauncherPath, "[Desktop Entry]\nExec="+elsewhere+" %F\n")

	mustSymlink(t, filepath.Join(paths.DownloadsDir, "cursor-1.0.0.AppImage"), paths.InstallPath)

	prober := newTestProber(t, paths, "", nil)
	got, ok := prober.LatestLocalVersion(context.Background())
	if !ok {
		t.Fatal("expected a latest local version")
	}
	want := semver.Version{Major: 1, Minor: 3, Patch: 0}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestLatestLocalVersionDedupsCaseVariants(t *testing.T) {
	paths := testPaths(t)
	canonical := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.0.0.AppImage"))
	mustSymlink(t, canonical, filepath.Join(paths.DownloadsDir, "Cursor-1.0.0.appimage"))

	prober := newTestProber(t, paths, "", nil)
	got, ok := prober.LatestLocalVersion(context.Background())
	if !ok {
		t.Fatal("expected a latest local version")
	}
	want := semver.Version{Major: 1, Minor: 0, Patch: 0}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestDownloadedVersionsInspectCaseVariantsOnce(t *testing.T) {
	paths := testPaths(t)
	canonical := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursorbuild.AppImage"))
	mustSymlink(t, canonical, filepath.Join(paths.DownloadsDir, "CursorBuild.AppImage"))

	extracts := 0
	inspector := NewInspector(WithRunner(stubRunner{
		onRun: func(dir, bin string, args []string) ([]byte, error) {
			if len(args) == 1 && args[0] == "--appimage-extract" {
				extracts++
			}
			return nil, errors.New("inspection unavailable")
		},
	}))
	prober := NewProber(paths,
		WithProberRunner(stubRunner{output: ""}),
		WithInspector(inspector),
	)

	if _, ok := prober.LatestLocalVersion(context.Background()); ok {
		t.Fatal("expected absent with uninspectable artifacts")
	}
	if extracts != 1 {
		t.Fatalf("case variants of one file should be inspected once, got %d extractions", extracts)
	}
}

func TestLatestLocalVersionAbsentWithNothingOnDisk(t *testing.T) {
	paths := testPaths(t)
	prober := newTestProber(t, paths, "", nil)

	if _, ok := prober.LatestLocalVersion(context.Background()); ok {
		t.Fatal("expected absent with no artifacts anywhere")
	}
}

func TestLaunchInfoReportsWiring(t *testing.T) {
	paths := testPaths(t)
	artifact := writeArtifact(t, filepath.Join(paths.DownloadsDir, "cursor-1.2.0.AppImage"))
	mustSymlink(t, artifact, paths.InstallPath)
	writeLauncher(t, paths.LauncherPath, "[Desktop Entry]\nExec="+paths.InstallPath+" %F\n")
	t.Setenv("PATH", filepath.Dir(paths.InstallPath)+":/usr/bin")

	prober := newTestProber(t, paths, psLine(artifact, "--no-sandbox"), nil)
	info := prober.LaunchInfo(context.Background())

	resolved, err := filepath.EvalSymlinks(artifact)
	if err != nil {
		t.Fatalf("resolve artifact: %v", err)
	}
	if info.RunningPath != resolved {
		t.Fatalf("unexpected running path %q", info.RunningPath)
	}
	if info.LauncherExec != paths.InstallPath {
		t.Fatalf("unexpected launcher exec %q", info.LauncherExec)
	}
	if info.SlotPath != paths.InstallPath {
		t.Fatalf("unexpected slot path %q", info.SlotPath)
	}
	if !info.SlotIsSymlink {
		t.Fatal("slot should be reported as a symlink")
	}
	if info.SlotTarget != resolved {
		t.Fatalf("unexpected slot target %q", info.SlotTarget)
	}
	if !info.SlotOnPath {
		t.Fatal("install dir should be reported as on PATH")
	}
}

func TestLaunchInfoEmptySurface(t *testing.T) {
	paths := testPaths(t)
	t.Setenv("PATH", "/usr/bin:/bin")

	prober := newTestProber(t, paths, "", nil)
	info := prober.LaunchInfo(context.Background())

	if info.RunningPath != "" || info.LauncherExec != "" || info.SlotPath != "" {
		t.Fatalf("expected empty launch info, got %+v", info)
	}
	if info.SlotOnPath {
		t.Fatal("install dir should not be on PATH")
	}
}

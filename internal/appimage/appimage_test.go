package appimage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

// testPaths lays out an isolated install surface under a temp root.
func testPaths(t *testing.T) Paths {
	t.Helper()
	root := t.TempDir()
	paths := Paths{
		InstallPath:  filepath.Join(root, "bin", "cursor.appimage"),
		LauncherPath: filepath.Join(root, "applications", "cursor.desktop"),
		DownloadsDir: filepath.Join(root, "app-images"),
	}
	mustMkdir(t, filepath.Dir(paths.InstallPath))
	mustMkdir(t, filepath.Dir(paths.LauncherPath))
	mustMkdir(t, paths.DownloadsDir)
	return paths
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}

// writeArtifact creates a fake AppImage file at path.
func writeArtifact(t *testing.T, path string) string {
	t.Helper()
	mustMkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte("fake appimage payload"), 0o755); err != nil {
		t.Fatalf("write artifact %s: %v", path, err)
	}
	return path
}

func mustSymlink(t *testing.T, target, link string) {
	t.Helper()
	mustMkdir(t, filepath.Dir(link))
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink %s -> %s: %v", link, target, err)
	}
}

func TestFileNameAndArtifactPath(t *testing.T) {
	v := semver.Version{Major: 0, Minor: 45, Patch: 11}
	if got := FileName(v); got != "cursor-0.45.11.AppImage" {
		t.Fatalf("unexpected artifact name %q", got)
	}
	want := filepath.Join("/downloads", "cursor-0.45.11.AppImage")
	if got := ArtifactPath("/downloads", v); got != want {
		t.Fatalf("unexpected artifact path %q", got)
	}
}

func TestFindInSlotExactPath(t *testing.T) {
	paths := testPaths(t)
	writeArtifact(t, paths.InstallPath)

	got, ok := FindInSlot(paths.InstallPath)
	if !ok || got != paths.InstallPath {
		t.Fatalf("expected exact slot path, got %q ok=%v", got, ok)
	}
}

func TestFindInSlotCaseInsensitiveName(t *testing.T) {
	paths := testPaths(t)
	variant := filepath.Join(filepath.Dir(paths.InstallPath), "Cursor.AppImage")
	writeArtifact(t, variant)

	got, ok := FindInSlot(paths.InstallPath)
	if !ok || got != variant {
		t.Fatalf("expected case-insensitive match %q, got %q ok=%v", variant, got, ok)
	}
}

func TestFindInSlotPrefersSlotNameOverOtherCandidates(t *testing.T) {
	paths := testPaths(t)
	dir := filepath.Dir(paths.InstallPath)
	writeArtifact(t, filepath.Join(dir, "cursor-0.45.0.AppImage"))
	exact := writeArtifact(t, filepath.Join(dir, "CURSOR.appimage"))

	got, ok := FindInSlot(paths.InstallPath)
	if !ok || got != exact {
		t.Fatalf("expected slot-name match %q, got %q ok=%v", exact, got, ok)
	}
}

func TestFindInSlotFallsBackToAnyCursorAppImage(t *testing.T) {
	paths := testPaths(t)
	dir := filepath.Dir(paths.InstallPath)
	other := writeArtifact(t, filepath.Join(dir, "cursor-1.0.0.AppImage"))
	writeArtifact(t, filepath.Join(dir, "unrelated.bin"))

	got, ok := FindInSlot(paths.InstallPath)
	if !ok || got != other {
		t.Fatalf("expected fallback %q, got %q ok=%v", other, got, ok)
	}
}

func TestFindInSlotIgnoresDanglingSymlink(t *testing.T) {
	paths := testPaths(t)
	mustSymlink(t, filepath.Join(paths.DownloadsDir, "cursor-gone.AppImage"), paths.InstallPath)

	if got, ok := FindInSlot(paths.InstallPath); ok {
		t.Fatalf("dangling symlink should not count as installed, got %q", got)
	}
}

func TestFindInSlotEmptyDirectory(t *testing.T) {
	paths := testPaths(t)
	if _, ok := FindInSlot(paths.InstallPath); ok {
		t.Fatal("empty install directory should yield no slot artifact")
	}
}

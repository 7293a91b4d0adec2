package appimage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

// stubRunner satisfies CommandRunner; onRun, when set, fabricates the
// subprocess behavior per call.
type stubRunner struct {
	output string
	err    error
	onRun  func(dir, bin string, args []string) ([]byte, error)
}

func (s stubRunner) Run(_ context.Context, dir, bin string, args ...string) ([]byte, error) {
	if s.onRun != nil {
		return s.onRun(dir, bin, args)
	}
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.output), nil
}

func TestInspectorFilenameShortCircuits(t *testing.T) {
	inspector := NewInspector(WithRunner(stubRunner{
		onRun: func(dir, bin string, args []string) ([]byte, error) {
			t.Error("no subprocess should run when the filename carries a version")
			return nil, nil
		},
	}))

	got, ok := inspector.Version(context.Background(), "/x/cursor-1.2.3.AppImage")
	if !ok {
		t.Fatal("expected version from filename")
	}
	want := semver.Version{Major: 1, Minor: 2, Patch: 3}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestInspectorReadsUnpackedPackageJSON(t *testing.T) {
	var scratch string
	inspector := NewInspector(WithRunner(stubRunner{
		onRun: func(dir, bin string, args []string) ([]byte, error) {
			if len(args) != 1 || args[0] != "--appimage-extract" {
				t.Fatalf("unexpected subprocess %s %v", bin, args)
			}
			scratch = dir
			appDir := filepath.Join(dir, "squashfs-root", "resources", "app")
			if err := os.MkdirAll(appDir, 0755); err != nil {
				t.Fatalf("build unpacked tree: %v", err)
			}
			pkg := []byte(`{"name": "cursor", "version": "0.45.11"}`)
			if err := os.WriteFile(filepath.Join(appDir, "package.json"), pkg, 0644); err != nil {
				t.Fatalf("write package.json: %v", err)
			}
			return nil, nil
		},
	}))

	got, ok := inspector.Version(context.Background(), "/opt/cursor.appimage")
	if !ok {
		t.Fatal("expected version from unpacked package.json")
	}
	want := semver.Version{Major: 0, Minor: 45, Patch: 11}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if scratch == "" {
		t.Fatal("extract subprocess never ran")
	}
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Fatalf("scratch directory %s should be removed after inspection", scratch)
	}
}

func TestInspectorReadsUnpackedDesktopEntry(t *testing.T) {
	inspector := NewInspector(WithRunner(stubRunner{
		onRun: func(dir, bin string, args []string) ([]byte, error) {
			root := filepath.Join(dir, "squashfs-root")
			if err := os.MkdirAll(root, 0755); err != nil {
				t.Fatalf("build unpacked tree: %v", err)
			}
			entry := []byte("[Desktop Entry]\nName=Cursor\nX-AppImage-Version=1.0.2\n")
			if err := os.WriteFile(filepath.Join(root, "cursor.desktop"), entry, 0644); err != nil {
				t.Fatalf("write desktop entry: %v", err)
			}
			return nil, nil
		},
	}))

	got, ok := inspector.Version(context.Background(), "/opt/cursor.appimage")
	if !ok {
		t.Fatal("expected version from unpacked desktop entry")
	}
	want := semver.Version{Major: 1, Minor: 0, Patch: 2}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestInspectorFallsBackToStringsScan(t *testing.T) {
	inspector := NewInspector(WithRunner(stubRunner{
		onRun: func(dir, bin string, args []string) ([]byte, error) {
			if len(args) == 1 && args[0] == "--appimage-extract" {
				return nil, errors.New("FUSE unavailable")
			}
			if bin == "strings" {
				return []byte("junk\n\"version\": \"0.44.9\"\nmore junk\n"), nil
			}
			t.Fatalf("unexpected subprocess %s %v", bin, args)
			return nil, nil
		},
	}))

	got, ok := inspector.Version(context.Background(), "/opt/cursor.appimage")
	if !ok {
		t.Fatal("expected version from strings scan")
	}
	want := semver.Version{Major: 0, Minor: 44, Patch: 9}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestInspectorStringsScanReadsAppImageVersionLine(t *testing.T) {
	inspector := NewInspector(WithRunner(stubRunner{
		onRun: func(dir, bin string, args []string) ([]byte, error) {
			if len(args) == 1 && args[0] == "--appimage-extract" {
				return nil, errors.New("extract failed")
			}
			return []byte("noise\nX-AppImage-Version=2.1.0\n"), nil
		},
	}))

	got, ok := inspector.Version(context.Background(), "/opt/cursor.appimage")
	if !ok {
		t.Fatal("expected version from X-AppImage-Version line")
	}
	want := semver.Version{Major: 2, Minor: 1, Patch: 0}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestInspectorAbsentWhenAllStrategiesFail(t *testing.T) {
	inspector := NewInspector(WithRunner(stubRunner{err: errors.New("subprocess unavailable")}))

	if _, ok := inspector.Version(context.Background(), "/opt/cursor.appimage"); ok {
		t.Fatal("expected absent version when every strategy fails")
	}
}

func TestInspectorScratchRemovedOnExtractFailure(t *testing.T) {
	var scratch string
	inspector := NewInspector(WithRunner(stubRunner{
		onRun: func(dir, bin string, args []string) ([]byte, error) {
			if len(args) == 1 && args[0] == "--appimage-extract" {
				scratch = dir
				return nil, errors.New("extract failed")
			}
			return nil, errors.New("strings failed")
		},
	}))

	if _, ok := inspector.Version(context.Background(), "/opt/cursor.appimage"); ok {
		t.Fatal("expected absent version")
	}
	if scratch == "" {
		t.Fatal("extract subprocess never ran")
	}
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Fatalf("scratch directory %s should be removed after a failed extract", scratch)
	}
}

func TestInspectorUnparseablePackageJSONFallsThrough(t *testing.T) {
	inspector := NewInspector(WithRunner(stubRunner{
		onRun: func(dir, bin string, args []string) ([]byte, error) {
			if len(args) == 1 && args[0] == "--appimage-extract" {
				appDir := filepath.Join(dir, "squashfs-root", "resources", "app")
				if err := os.MkdirAll(appDir, 0755); err != nil {
					t.Fatalf("build unpacked tree: %v", err)
				}
				if err := os.WriteFile(filepath.Join(appDir, "package.json"), []byte("{broken"), 0644); err != nil {
					t.Fatalf("write package.json: %v", err)
				}
				return nil, nil
			}
			return []byte("\"version\": \"3.0.1\"\n"), nil
		},
	}))

	got, ok := inspector.Version(context.Background(), "/opt/cursor.appimage")
	if !ok {
		t.Fatal("expected strings fallback after unparseable package.json")
	}
	want := semver.Version{Major: 3, Minor: 0, Patch: 1}
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

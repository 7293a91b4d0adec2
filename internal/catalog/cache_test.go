package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleManifest = `{
  "versions": [
    {"version": "1.2.0", "platforms": {"linux-x64": "https://dl.example/cursor-1.2.0.AppImage"}},
    {"version": "1.1.9", "platforms": {"linux-x64": "https://dl.example/cursor-1.1.9.AppImage"}}
  ]
}`

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	return NewCache(filepath.Join(t.TempDir(), "version-history.json"), ttl)
}

func ageFile(t *testing.T, path string, age time.Duration) {
	t.Helper()
	past := time.Now().Add(-age)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("age cache file: %v", err)
	}
}

func TestCacheLoadMissingFile(t *testing.T) {
	cache := newTestCache(t, 15*time.Minute)

	if _, ok := cache.Load(); ok {
		t.Fatal("Load should report absent for a missing file")
	}
	if _, ok := cache.LoadStale(); ok {
		t.Fatal("LoadStale should report absent for a missing file")
	}
}

func TestCacheFreshEntryLoads(t *testing.T) {
	cache := newTestCache(t, 15*time.Minute)

	if err := cache.Save([]byte(sampleManifest)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m, ok := cache.Load()
	if !ok {
		t.Fatal("Load should return a just-written entry")
	}
	if len(m.Versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(m.Versions))
	}
}

func TestCacheExpiredEntryOnlyLoadsStale(t *testing.T) {
	cache := newTestCache(t, 15*time.Minute)

	if err := cache.Save([]byte(sampleManifest)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	ageFile(t, cache.Path(), time.Hour)

	if _, ok := cache.Load(); ok {
		t.Fatal("Load should report absent for an expired entry")
	}
	m, ok := cache.LoadStale()
	if !ok {
		t.Fatal("LoadStale should return an expired entry")
	}
	if len(m.Versions) != 2 {
		t.Fatalf("expected 2 versions from stale entry, got %d", len(m.Versions))
	}
}

func TestCacheCorruptEntryIsAbsent(t *testing.T) {
	cache := newTestCache(t, 15*time.Minute)

	if err := cache.Save([]byte("{not json")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, ok := cache.Load(); ok {
		t.Fatal("Load should report absent for unparseable content")
	}
	if _, ok := cache.LoadStale(); ok {
		t.Fatal("LoadStale should report absent for unparseable content")
	}
}

func TestCacheSaveReplacesWholeFile(t *testing.T) {
	cache := newTestCache(t, 15*time.Minute)

	if err := cache.Save([]byte(sampleManifest)); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	replacement := `{"versions": [{"version": "9.9.9", "platforms": {"linux-x64": "https://dl.example/cursor-9.9.9.AppImage"}}]}`
	if err := cache.Save([]byte(replacement)); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	m, ok := cache.Load()
	if !ok {
		t.Fatal("Load failed after replacement")
	}
	if len(m.Versions) != 1 || m.Versions[0].Version != "9.9.9" {
		t.Fatalf("expected replacement content only, got %+v", m.Versions)
	}

	// No temp files should linger next to the cache.
	entries, err := os.ReadDir(filepath.Dir(cache.Path()))
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the cache file in the directory, found %d entries", len(entries))
	}
}

func TestCacheSaveMirrorsBytesVerbatim(t *testing.T) {
	cache := newTestCache(t, 15*time.Minute)

	raw := []byte(sampleManifest)
	if err := cache.Save(raw); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	onDisk, err := os.ReadFile(cache.Path())
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	if string(onDisk) != sampleManifest {
		t.Fatal("cache file should mirror the fetched bytes verbatim")
	}
}

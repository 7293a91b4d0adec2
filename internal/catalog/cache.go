package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache persists the last successfully fetched manifest to a single
// file. Freshness is judged by the file's modification time, not by any
// embedded timestamp, and writes replace the whole file so readers never
// observe a partially updated manifest.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache returns a cache backed by the file at path. Entries younger
// than ttl count as fresh.
func NewCache(path string, ttl time.Duration) *Cache {
	return &Cache{path: path, ttl: ttl}
}

// Path returns the location of the backing file.
func (c *Cache) Path() string {
	return c.path
}

// Load returns the cached manifest if the file exists, parses, and is
// younger than the freshness window.
func (c *Cache) Load() (*Manifest, bool) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) >= c.ttl {
		return nil, false
	}
	return c.read()
}

// LoadStale returns the cached manifest regardless of age. Used as the
// degraded fallback when a live fetch fails.
func (c *Cache) LoadStale() (*Manifest, bool) {
	return c.read()
}

func (c *Cache) read() (*Manifest, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return &m, true
}

// Save writes the raw manifest bytes, replacing any previous entry. The
// write goes through a temp file and rename so a crash mid-write cannot
// leave a truncated cache behind.
func (c *Cache) Save(raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".manifest-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/debug"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/platform"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

const (
	defaultFetchTimeout = 8 * time.Second

	// maxManifestBytes bounds how much of the endpoint response we are
	// willing to read; the real manifest is a few hundred kilobytes.
	maxManifestBytes = 16 << 20
)

// HTTPClient is the minimal HTTP surface the client needs, satisfied by
// *http.Client and easy to stub in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the manifest endpoint URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.endpoint = url
		}
	}
}

// WithHTTPClient replaces the HTTP client used for fetches.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithUserAgent sets the User-Agent header sent on fetches.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithFetchTimeout bounds each network fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPlatformKey overrides the detected host platform identifier.
func WithPlatformKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.platformKey = key
		}
	}
}

// Client resolves manifests against the remote endpoint with a
// three-tier policy: fresh cache, then live fetch, then stale cache.
// Every lookup degrades to absent rather than returning an error, so a
// broken network never blocks version resolution outright.
type Client struct {
	endpoint    string
	userAgent   string
	httpClient  HTTPClient
	timeout     time.Duration
	platformKey string
	cache       *Cache
}

// NewClient creates a manifest client backed by the given cache.
func NewClient(endpoint string, cache *Cache, opts ...Option) *Client {
	c := &Client{
		endpoint:    endpoint,
		userAgent:   "cursor-appimage-updater",
		httpClient:  http.DefaultClient,
		timeout:     defaultFetchTimeout,
		platformKey: platform.Detect(),
		cache:       cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlatformKey returns the platform identifier used for lookups.
func (c *Client) PlatformKey() string {
	return c.platformKey
}

// fetch issues one bounded GET against the manifest endpoint. Any
// transport, status, or decode failure yields absent; the raw bytes are
// returned alongside the decoded manifest so the cache can mirror the
// response verbatim.
func (c *Client) fetch(ctx context.Context) (*Manifest, []byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		debug.Logf("catalog: build request: %v", err)
		return nil, nil, false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		debug.Logf("catalog: fetch manifest: %v", err)
		return nil, nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		debug.Logf("catalog: fetch manifest: unexpected status %d", resp.StatusCode)
		return nil, nil, false
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		debug.Logf("catalog: read manifest body: %v", err)
		return nil, nil, false
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		debug.Logf("catalog: decode manifest: %v", err)
		return nil, nil, false
	}
	return &m, raw, true
}

// Manifest returns the best available manifest: a fresh cache entry if
// one exists, otherwise a live fetch (persisted on success), otherwise
// the stale cache entry however old. Absent only when all three tiers
// come up empty.
func (c *Client) Manifest(ctx context.Context) (*Manifest, bool) {
	if m, ok := c.cache.Load(); ok {
		debug.Log("catalog: serving manifest from fresh cache")
		return m, true
	}

	if m, raw, ok := c.fetch(ctx); ok {
		if err := c.cache.Save(raw); err != nil {
			debug.Logf("catalog: persist manifest: %v", err)
		}
		return m, true
	}

	if m, ok := c.cache.LoadStale(); ok {
		debug.Log("catalog: fetch failed, serving stale cache")
		return m, true
	}
	return nil, false
}

// Refresh forces a live fetch, bypassing the freshness window. On
// success the cache is replaced. Unlike Manifest it does not fall back
// to stale data, so the caller can report honestly whether the refresh
// happened.
func (c *Client) Refresh(ctx context.Context) (*Manifest, bool) {
	m, raw, ok := c.fetch(ctx)
	if !ok {
		return nil, false
	}
	if err := c.cache.Save(raw); err != nil {
		debug.Logf("catalog: persist manifest: %v", err)
	}
	return m, true
}

// LatestRemoteVersion returns the highest version the manifest offers
// for this host's platform, or absent when no manifest or no matching
// entry is available.
func (c *Client) LatestRemoteVersion(ctx context.Context) (semver.Version, bool) {
	m, ok := c.Manifest(ctx)
	if !ok {
		return semver.Version{}, false
	}
	return m.LatestVersion(c.platformKey)
}

// DownloadURL returns the download location for an exact version on
// this host's platform, or absent when the version or platform is not
// listed.
func (c *Client) DownloadURL(ctx context.Context, version semver.Version) (string, bool) {
	m, ok := c.Manifest(ctx)
	if !ok {
		return "", false
	}
	return m.DownloadURL(version, c.platformKey)
}

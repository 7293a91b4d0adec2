// Package download fetches Cursor AppImage artifacts over HTTP into the
// managed downloads directory. Artifacts are streamed to a hidden partial
// file first and only renamed into place once the body has been fully
// written and marked executable, so a crashed or cancelled download never
// leaves a half-usable AppImage behind.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/appimage"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/debug"
	appErrors "github.com/KarlQuerel/cursor-appimage-updater/internal/errors"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

const (
	defaultTimeout   = 30 * time.Minute
	defaultUserAgent = "cursor-appimage-updater"

	// artifactMode makes the finished AppImage directly executable.
	artifactMode = 0o755
)

// ProgressFunc receives the number of bytes written so far and the expected
// total. The total is -1 when the server does not announce a length.
type ProgressFunc func(downloaded, total int64)

// HTTPClient is the subset of *http.Client the downloader needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Downloader fetches release artifacts into a downloads directory.
type Downloader struct {
	httpClient   HTTPClient
	downloadsDir string
	userAgent    string
	timeout      time.Duration
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the HTTP client used for artifact requests.
func WithHTTPClient(client HTTPClient) Option {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with artifact requests.
func WithUserAgent(agent string) Option {
	return func(d *Downloader) {
		if agent != "" {
			d.userAgent = agent
		}
	}
}

// WithTimeout bounds a single Fetch call end to end.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// New creates a Downloader writing into downloadsDir.
func New(downloadsDir string, opts ...Option) *Downloader {
	d := &Downloader{
		httpClient:   http.DefaultClient,
		downloadsDir: downloadsDir,
		userAgent:    defaultUserAgent,
		timeout:      defaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads the artifact for version from url and returns its final
// path. When the artifact already exists on disk it is reused without
// touching the network and reused reports true. progress may be nil.
func (d *Downloader) Fetch(ctx context.Context, url string, version semver.Version, progress ProgressFunc) (path string, reused bool, err error) {
	finalPath := appimage.ArtifactPath(d.downloadsDir, version)
	if _, statErr := os.Stat(finalPath); statErr == nil {
		debug.Logf("download: reusing existing artifact %s", finalPath)
		return finalPath, true, nil
	}

	if err := os.MkdirAll(d.downloadsDir, 0o755); err != nil {
		return "", false, appErrors.New(appErrors.CodeDownloadFailed,
			fmt.Sprintf("creating downloads directory for version %s", version), err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, appErrors.New(appErrors.CodeDownloadFailed,
			fmt.Sprintf("building request for version %s", version), err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", false, appErrors.New(appErrors.CodeDownloadFailed,
			fmt.Sprintf("requesting version %s", version), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, appErrors.New(appErrors.CodeDownloadFailed,
			fmt.Sprintf("unexpected status %d downloading version %s", resp.StatusCode, version), nil)
	}

	if err := d.writeArtifact(resp, finalPath, progress); err != nil {
		return "", false, err
	}
	debug.Logf("download: stored %s", finalPath)
	return finalPath, false, nil
}

// writeArtifact streams the response body into a partial file beside the
// final path, then promotes it. The partial file is removed on every
// failure path.
func (d *Downloader) writeArtifact(resp *http.Response, finalPath string, progress ProgressFunc) error {
	partial, err := os.CreateTemp(d.downloadsDir, "."+filepath.Base(finalPath)+"-*.partial")
	if err != nil {
		return appErrors.New(appErrors.CodeDownloadFailed, "creating partial file", err)
	}
	partialPath := partial.Name()
	defer func() {
		partial.Close()
		os.Remove(partialPath)
	}()

	body := wrapProgress(resp.Body, resp.ContentLength, progress)
	written, err := io.Copy(partial, body)
	if err != nil {
		return appErrors.New(appErrors.CodeDownloadFailed,
			fmt.Sprintf("writing artifact after %d bytes", written), err)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return appErrors.New(appErrors.CodeDownloadFailed,
			fmt.Sprintf("truncated body: got %d of %d bytes", written, resp.ContentLength), nil)
	}

	if err := partial.Sync(); err != nil {
		return appErrors.New(appErrors.CodeDownloadFailed, "syncing partial file", err)
	}
	if err := partial.Close(); err != nil {
		return appErrors.New(appErrors.CodeDownloadFailed, "closing partial file", err)
	}
	if err := os.Chmod(partialPath, artifactMode); err != nil {
		return appErrors.New(appErrors.CodeDownloadFailed, "marking artifact executable", err)
	}
	if err := os.Rename(partialPath, finalPath); err != nil {
		return appErrors.New(appErrors.CodeDownloadFailed, "finalizing artifact", err)
	}
	return nil
}

func wrapProgress(reader io.Reader, total int64, progress ProgressFunc) io.Reader {
	if progress == nil {
		return reader
	}
	return &progressReader{r: reader, total: total, report: progress}
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report(p.read, p.total)
	}
	return n, err
}

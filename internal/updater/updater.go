// Package updater coordinates the end-to-end update flow: resolve the
// latest remote version, download its artifact when it is not already on
// disk, and activate it. It also produces the version snapshot behind the
// status views and keeps the activity journal current.
package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/appimage"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/catalog"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/debug"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/download"
	appErrors "github.com/KarlQuerel/cursor-appimage-updater/internal/errors"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/history"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
)

// VersionInfo is a point-in-time snapshot of the three versions the tool
// reasons about. Nil fields mean the version could not be determined.
type VersionInfo struct {
	Local        *semver.Version
	LatestLocal  *semver.Version
	LatestRemote *semver.Version
	CheckedAt    time.Time
}

// UpdateStatus classifies a VersionInfo snapshot.
type UpdateStatus int

const (
	// StatusRemoteUnavailable means the latest remote version is unknown.
	StatusRemoteUnavailable UpdateStatus = iota
	// StatusNoActiveVersion means nothing is currently active locally.
	StatusNoActiveVersion
	// StatusRemoteNewer means a version not yet downloaded is available.
	StatusRemoteNewer
	// StatusLocalNewer means a downloaded version is newer than the active one.
	StatusLocalNewer
	// StatusUpToDate means the active version is the latest anywhere.
	StatusUpToDate
)

// String returns a stable label, used in journal details and debug logs.
func (s UpdateStatus) String() string {
	switch s {
	case StatusNoActiveVersion:
		return "no_active_version"
	case StatusRemoteNewer:
		return "remote_newer"
	case StatusLocalNewer:
		return "local_newer"
	case StatusUpToDate:
		return "up_to_date"
	default:
		return "remote_unavailable"
	}
}

// UpdateStatus classifies the snapshot. Remote knowledge dominates: without
// it no comparison is meaningful. Then an inactive install, then a remote
// version missing locally, then a local version not yet activated.
func (info VersionInfo) UpdateStatus() UpdateStatus {
	switch {
	case info.LatestRemote == nil:
		return StatusRemoteUnavailable
	case info.Local == nil:
		return StatusNoActiveVersion
	case info.LatestLocal == nil || !info.LatestRemote.Equal(*info.LatestLocal):
		return StatusRemoteNewer
	case !info.LatestRemote.Equal(*info.Local):
		return StatusLocalNewer
	default:
		return StatusUpToDate
	}
}

// Stage identifies a milestone inside an update run.
type Stage int

const (
	StageResolving Stage = iota
	StageDownloading
	StageDownloadProgress
	StageDownloaded
	StageActivating
	StageActivated
	StageDone
)

// Event describes update progress. Version is set from StageDownloading
// onward. Downloaded and Total accompany StageDownloadProgress only; Total
// is -1 when the server does not announce a length. Reused marks a
// StageDownloaded event for an artifact that was already on disk.
// LauncherUpdated and RunningRepointed report on StageActivated how the
// best-effort enrichment steps fared.
type Event struct {
	Stage            Stage
	Version          semver.Version
	Downloaded       int64
	Total            int64
	Reused           bool
	LauncherUpdated  bool
	RunningRepointed bool
}

// EventFunc receives update progress events. It is called from the
// goroutine running Update.
type EventFunc func(Event)

func emit(events EventFunc, e Event) {
	if events != nil {
		events(e)
	}
}

// Updater wires the catalog, prober, downloader and activator into the
// update and status flows.
type Updater struct {
	catalog    *catalog.Client
	prober     *appimage.Prober
	downloader *download.Downloader
	activator  *appimage.Activator
	journal    *history.Journal
}

// Option configures an Updater.
type Option func(*Updater)

// WithJournal enables activity journaling. Journal writes are best-effort;
// failures only reach the debug log.
func WithJournal(journal *history.Journal) Option {
	return func(u *Updater) {
		u.journal = journal
	}
}

// New creates an Updater from its four collaborators.
func New(catalogClient *catalog.Client, prober *appimage.Prober, downloader *download.Downloader, activator *appimage.Activator, opts ...Option) *Updater {
	u := &Updater{
		catalog:    catalogClient,
		prober:     prober,
		downloader: downloader,
		activator:  activator,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Status resolves the current version picture: the active version, the
// newest version on disk, and the newest version the catalog offers.
func (u *Updater) Status(ctx context.Context) VersionInfo {
	info := VersionInfo{CheckedAt: time.Now()}
	if v, ok := u.prober.LocalVersion(ctx); ok {
		info.Local = &v
	}
	if v, ok := u.prober.LatestLocalVersion(ctx); ok {
		info.LatestLocal = &v
	}
	if v, ok := u.catalog.LatestRemoteVersion(ctx); ok {
		info.LatestRemote = &v
	}
	u.record(ctx, history.EventCheck, versionLabel(info.LatestRemote), history.OutcomeOK, info.UpdateStatus().String())
	return info
}

// LaunchInfo reports how Cursor is currently reachable on this machine.
func (u *Updater) LaunchInfo(ctx context.Context) appimage.LaunchInfo {
	return u.prober.LaunchInfo(ctx)
}

// LastUpdate returns the most recent successful update from the journal.
func (u *Updater) LastUpdate(ctx context.Context) (history.Entry, bool) {
	if u.journal == nil {
		return history.Entry{}, false
	}
	return u.journal.LastUpdate(ctx)
}

// History returns the journal's most recent entries, newest first. An
// Updater without a journal reports an empty history.
func (u *Updater) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if u.journal == nil {
		return nil, nil
	}
	return u.journal.Recent(ctx, limit)
}

// LatestDownloadURL returns the artifact URL for the latest remote version.
func (u *Updater) LatestDownloadURL(ctx context.Context) (string, bool) {
	latest, ok := u.catalog.LatestRemoteVersion(ctx)
	if !ok {
		return "", false
	}
	return u.catalog.DownloadURL(ctx, latest)
}

// PlatformKey reports which catalog platform entry this machine resolves to.
func (u *Updater) PlatformKey() string {
	return u.catalog.PlatformKey()
}

// Update brings the machine to the latest remote version: download when the
// version is not already the newest local one, then activate. Activation
// runs even when the latest version is already active, which repairs a
// broken or missing symlink for free.
func (u *Updater) Update(ctx context.Context, events EventFunc) (semver.Version, error) {
	emit(events, Event{Stage: StageResolving})

	latest, ok := u.catalog.LatestRemoteVersion(ctx)
	if !ok {
		err := appErrors.New(appErrors.CodeNoRemoteVersion, "could not determine latest version", nil)
		u.record(ctx, history.EventUpdate, "", history.OutcomeError, err.Error())
		return semver.Version{}, err
	}

	latestLocal, hasLocal := u.prober.LatestLocalVersion(ctx)
	if !hasLocal || !latest.Equal(latestLocal) {
		if err := u.download(ctx, latest, events); err != nil {
			u.record(ctx, history.EventUpdate, latest.String(), history.OutcomeError, err.Error())
			return semver.Version{}, err
		}
	}

	emit(events, Event{Stage: StageActivating, Version: latest})
	res, err := u.activator.Activate(ctx, latest)
	if err != nil {
		u.record(ctx, history.EventActivate, latest.String(), history.OutcomeError, err.Error())
		u.record(ctx, history.EventUpdate, latest.String(), history.OutcomeError, err.Error())
		return semver.Version{}, err
	}
	emit(events, Event{
		Stage:            StageActivated,
		Version:          latest,
		LauncherUpdated:  res.LauncherUpdated,
		RunningRepointed: res.RunningRepointed,
	})
	u.record(ctx, history.EventActivate, latest.String(), history.OutcomeOK, "")
	u.record(ctx, history.EventUpdate, latest.String(), history.OutcomeOK, "")

	emit(events, Event{Stage: StageDone, Version: latest})
	return latest, nil
}

func (u *Updater) download(ctx context.Context, version semver.Version, events EventFunc) error {
	url, ok := u.catalog.DownloadURL(ctx, version)
	if !ok {
		return appErrors.New(appErrors.CodeDownloadFailed,
			fmt.Sprintf("no download url for version %s", version), nil)
	}

	emit(events, Event{Stage: StageDownloading, Version: version})
	path, reused, err := u.downloader.Fetch(ctx, url, version, func(downloaded, total int64) {
		emit(events, Event{Stage: StageDownloadProgress, Version: version, Downloaded: downloaded, Total: total})
	})
	if err != nil {
		u.record(ctx, history.EventDownload, version.String(), history.OutcomeError, err.Error())
		return err
	}

	detail := ""
	if reused {
		detail = "reused existing artifact"
	}
	u.record(ctx, history.EventDownload, version.String(), history.OutcomeOK, detail)
	emit(events, Event{Stage: StageDownloaded, Version: version, Reused: reused})
	debug.Logf("updater: artifact ready at %s", path)
	return nil
}

func (u *Updater) record(ctx context.Context, event history.Event, version, outcome, detail string) {
	if u.journal == nil {
		return
	}
	if err := u.journal.Record(ctx, event, version, outcome, detail); err != nil {
		debug.Logf("updater: journal write failed: %v", err)
	}
}

func versionLabel(v *semver.Version) string {
	if v == nil {
		return ""
	}
	return v.String()
}

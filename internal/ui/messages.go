package ui

import (
	"github.com/KarlQuerel/cursor-appimage-updater/internal/appimage"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/history"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/updater"
)

// checkCompleteMsg carries everything the check screen displays.
type checkCompleteMsg struct {
	info        updater.VersionInfo
	launch      appimage.LaunchInfo
	lastUpdate  history.Entry
	hasLast     bool
	downloadURL string
	hasURL      bool
}

// historyLoadedMsg carries the journal rows for the history screen.
type historyLoadedMsg struct {
	entries []history.Entry
	err     error
}

// updateEventMsg wraps one progress event from the running update.
type updateEventMsg struct {
	event updater.Event
}

// updateDoneMsg signals that the update finished, successfully or not.
type updateDoneMsg struct {
	version semver.Version
	err     error
}

// updateStreamClosedMsg is delivered when the event channel closes after an
// update run; it stops the receive loop without touching screen state.
type updateStreamClosedMsg struct{}

// noticeExpiredMsg clears the transient invalid-choice notice.
type noticeExpiredMsg struct{}

// copyToastExpiredMsg hides the copied-URL toast.
type copyToastExpiredMsg struct{}

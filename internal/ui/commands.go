package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/updater"
)

const (
	// updateEventBuffer sizes the channel between the update goroutine and
	// the TUI loop. Progress events are dropped when the buffer is full,
	// stage boundaries always get through.
	updateEventBuffer = 16

	// historyScreenLimit caps the rows the history screen shows.
	historyScreenLimit = 10

	noticeLifetime    = 1200 * time.Millisecond
	copyToastLifetime = 2 * time.Second
)

// runCheckCmd gathers everything the check screen shows in one background
// pass: version status, launch wiring, last recorded update, download URL.
func (m *App) runCheckCmd() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		ctx := context.Background()
		msg := checkCompleteMsg{info: engine.Status(ctx)}
		msg.launch = engine.LaunchInfo(ctx)
		msg.lastUpdate, msg.hasLast = engine.LastUpdate(ctx)
		msg.downloadURL, msg.hasURL = engine.LatestDownloadURL(ctx)
		return msg
	}
}

// startUpdateCmd runs the update engine in the background, forwarding its
// events through the updates channel. Progress samples are dropped when the
// loop is behind; a later sample supersedes an earlier one anyway. The
// channel is closed once the engine returns so a pending receive never
// outlives the run.
func (m *App) startUpdateCmd() tea.Cmd {
	engine := m.engine
	updates := m.updates
	return func() tea.Msg {
		version, err := engine.Update(context.Background(), func(e updater.Event) {
			if e.Stage == updater.StageDownloadProgress {
				select {
				case updates <- updateEventMsg{event: e}:
				default:
				}
				return
			}
			updates <- updateEventMsg{event: e}
		})
		close(updates)
		return updateDoneMsg{version: version, err: err}
	}
}

// loadHistoryCmd reads the journal's most recent rows in the background.
func (m *App) loadHistoryCmd() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		entries, err := engine.History(context.Background(), historyScreenLimit)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

// waitForUpdateEvent delivers the next event from the updates channel. The
// handler re-arms it until the channel closes.
func (m *App) waitForUpdateEvent() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return updateStreamClosedMsg{}
		}
		return msg
	}
}

func scheduleNoticeExpiry() tea.Cmd {
	return tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
		return noticeExpiredMsg{}
	})
}

func scheduleCopyToastExpiry() tea.Cmd {
	return tea.Tick(copyToastLifetime, func(time.Time) tea.Msg {
		return copyToastExpiredMsg{}
	})
}

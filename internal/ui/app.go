// Package ui implements the interactive terminal front end: a four-entry
// menu driving the check, update, and help screens over the update engine.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/appimage"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/history"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/semver"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/updater"
)

// Engine is the slice of the update engine the UI drives.
type Engine interface {
	Status(ctx context.Context) updater.VersionInfo
	LaunchInfo(ctx context.Context) appimage.LaunchInfo
	LastUpdate(ctx context.Context) (history.Entry, bool)
	History(ctx context.Context, limit int) ([]history.Entry, error)
	LatestDownloadURL(ctx context.Context) (string, bool)
	Update(ctx context.Context, events updater.EventFunc) (semver.Version, error)
	PlatformKey() string
}

// Config carries everything the TUI needs at startup.
type Config struct {
	Engine Engine
	// Version is the application version shown in the footer.
	Version string
	// Paths and CachePath are displayed on the help screen.
	Paths     appimage.Paths
	CachePath string
}

type screen int

const (
	screenMenu screen = iota
	screenCheck
	screenUpdate
	screenHelp
	screenHistory
)

type checkState struct {
	loading     bool
	info        updater.VersionInfo
	launch      appimage.LaunchInfo
	lastUpdate  history.Entry
	hasLast     bool
	downloadURL string
	hasURL      bool
}

type historyState struct {
	loading bool
	entries []history.Entry
	err     error
}

type updateState struct {
	running    bool
	stage      updater.Stage
	version    semver.Version
	downloaded int64
	total      int64
	steps      []string
	err        error
	done       bool
}

// App is the root bubbletea model.
type App struct {
	cfg    Config
	engine Engine

	screen screen
	width  int
	height int
	ready  bool

	spinner  spinner.Model
	progress progress.Model

	check   checkState
	update  updateState
	history historyState
	updates chan updateEventMsg

	notice      string
	noticeSetAt time.Time

	copiedURL      bool
	copyToastSetAt time.Time
}

// NewApp builds the root model from its configuration.
func NewApp(cfg Config) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = styleMenuKey

	pb := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &App{
		cfg:      cfg,
		engine:   cfg.Engine,
		spinner:  sp,
		progress: pb,
	}
}

func (m *App) Init() tea.Cmd {
	return nil
}

// busy reports whether a background task is feeding the spinner.
func (m *App) busy() bool {
	return m.check.loading || m.update.running || m.history.loading
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		if w := msg.Width - 10; w > 0 {
			if w > 40 {
				w = 40
			}
			m.progress.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case checkCompleteMsg:
		m.check = checkState{
			info:        msg.info,
			launch:      msg.launch,
			lastUpdate:  msg.lastUpdate,
			hasLast:     msg.hasLast,
			downloadURL: msg.downloadURL,
			hasURL:      msg.hasURL,
		}
		return m, nil

	case historyLoadedMsg:
		m.history = historyState{entries: msg.entries, err: msg.err}
		return m, nil

	case updateEventMsg:
		return m.handleUpdateEvent(msg.event)

	case updateStreamClosedMsg:
		return m, nil

	case updateDoneMsg:
		return m.handleUpdateDone(msg)

	case noticeExpiredMsg:
		if time.Since(m.noticeSetAt) >= noticeLifetime {
			m.notice = ""
			return m, nil
		}
		return m, scheduleNoticeExpiry()

	case copyToastExpiredMsg:
		if time.Since(m.copyToastSetAt) >= copyToastLifetime {
			m.copiedURL = false
			return m, nil
		}
		return m, scheduleCopyToastExpiry()
	}

	return m, nil
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.screen {
	case screenMenu:
		return m.handleMenuKey(key)
	case screenCheck:
		return m.handleCheckKey(key)
	case screenUpdate:
		if m.update.running {
			return m, nil
		}
		m.screen = screenMenu
		return m, nil
	case screenHistory:
		if m.history.loading {
			return m, nil
		}
		m.screen = screenCheck
		return m, nil
	default: // screenHelp
		m.screen = screenMenu
		return m, nil
	}
}

func (m *App) handleMenuKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "1":
		m.screen = screenCheck
		m.check = checkState{loading: true}
		return m, tea.Batch(m.spinner.Tick, m.runCheckCmd())
	case "2":
		m.screen = screenUpdate
		m.update = updateState{running: true, stage: updater.StageResolving}
		m.updates = make(chan updateEventMsg, updateEventBuffer)
		return m, tea.Batch(m.spinner.Tick, m.startUpdateCmd(), m.waitForUpdateEvent())
	case "3":
		m.screen = screenHelp
		return m, nil
	case "4", "q", "esc":
		return m, tea.Quit
	default:
		m.notice = fmt.Sprintf("❌ Invalid choice: %s", key)
		m.noticeSetAt = time.Now()
		return m, scheduleNoticeExpiry()
	}
}

func (m *App) handleCheckKey(key string) (tea.Model, tea.Cmd) {
	if m.check.loading {
		return m, nil
	}
	switch {
	case key == "c" && m.check.hasURL:
		if err := clipboard.WriteAll(m.check.downloadURL); err == nil {
			m.copiedURL = true
			m.copyToastSetAt = time.Now()
			return m, scheduleCopyToastExpiry()
		}
		return m, nil
	case key == "h":
		m.screen = screenHistory
		m.history = historyState{loading: true}
		return m, tea.Batch(m.spinner.Tick, m.loadHistoryCmd())
	}
	m.screen = screenMenu
	return m, nil
}

func (m *App) handleUpdateEvent(e updater.Event) (tea.Model, tea.Cmd) {
	if !m.update.running {
		return m, nil
	}
	cmds := []tea.Cmd{m.waitForUpdateEvent()}

	switch e.Stage {
	case updater.StageResolving:
		m.update.stage = e.Stage

	case updater.StageDownloading:
		m.update.stage = e.Stage
		m.update.version = e.Version
		m.update.downloaded = 0
		m.update.total = 0

	case updater.StageDownloadProgress:
		m.update.stage = e.Stage
		m.update.version = e.Version
		m.update.downloaded = e.Downloaded
		m.update.total = e.Total
		if e.Total > 0 {
			cmds = append(cmds, m.progress.SetPercent(float64(e.Downloaded)/float64(e.Total)))
		}

	case updater.StageDownloaded:
		m.update.stage = e.Stage
		line := "✅ Download complete"
		if e.Reused {
			line = "✅ Already downloaded"
		}
		m.update.steps = append(m.update.steps, styleSuccess.Render(line))

	case updater.StageActivating:
		m.update.stage = e.Stage
		m.update.version = e.Version

	case updater.StageActivated:
		m.update.stage = e.Stage
		if e.LauncherUpdated {
			m.update.steps = append(m.update.steps, styleDim.Render("🖥️ Desktop launcher updated"))
		}
		if e.RunningRepointed {
			m.update.steps = append(m.update.steps, styleDim.Render("🔀 Running install path repointed"))
		}

	case updater.StageDone:
		// handleUpdateDone paints the final line.
	}

	return m, tea.Batch(cmds...)
}

func (m *App) handleUpdateDone(msg updateDoneMsg) (tea.Model, tea.Cmd) {
	m.update.running = false
	m.update.done = true
	m.update.err = msg.err
	if msg.err != nil {
		m.update.steps = append(m.update.steps, styleError.Render(fmt.Sprintf("❌ %v", msg.err)))
		return m, nil
	}
	m.update.version = msg.version
	line := fmt.Sprintf("✅ %s is now the active Cursor version", msg.version)
	m.update.steps = append(m.update.steps, styleSuccess.Render(line))
	return m, nil
}

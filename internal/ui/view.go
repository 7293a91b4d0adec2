package ui

import (
	"fmt"
	"strings"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/updater"
)

var menuOptions = []struct {
	key   string
	label string
}{
	{"1", "Check Current Setup Information"},
	{"2", "Update Cursor to latest version"},
	{"3", "Help"},
	{"4", "Exit"},
}

func renderHeader() string {
	return styleHeader.Render("⚙️     CURSOR UPDATER     ⚙️")
}

func (m *App) View() string {
	if !m.ready {
		return "\n  Initializing...\n"
	}

	var b strings.Builder
	b.WriteString(renderHeader())
	b.WriteString("\n\n")

	switch m.screen {
	case screenMenu:
		b.WriteString(m.viewMenu())
	case screenCheck:
		b.WriteString(m.viewCheck())
	case screenUpdate:
		b.WriteString(m.viewUpdate())
	case screenHelp:
		b.WriteString(m.viewHelp())
	case screenHistory:
		b.WriteString(m.viewHistory())
	}
	return b.String()
}

func (m *App) footer(hint string) string {
	line := hint
	if m.cfg.Version != "" {
		line += " · v" + m.cfg.Version
	}
	return "  " + styleDim.Render(line) + "\n"
}

func (m *App) viewMenu() string {
	var b strings.Builder
	for _, opt := range menuOptions {
		fmt.Fprintf(&b, "  %s. %s\n", styleMenuKey.Render(opt.key), opt.label)
	}
	if m.notice != "" {
		b.WriteString("\n  ")
		b.WriteString(styleError.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.footer("press 1-4 · q or esc exits"))
	return b.String()
}

func (m *App) viewCheck() string {
	if m.check.loading {
		return fmt.Sprintf("  %s Checking versions...\n", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(FormatVersionRows(m.check.info))
	b.WriteString("\n")

	if status := FormatUpdateStatus(m.check.info); status != "" {
		switch m.check.info.UpdateStatus() {
		case updater.StatusUpToDate:
			status = styleSuccess.Render(status)
		case updater.StatusRemoteNewer, updater.StatusLocalNewer:
			status = styleWarn.Render(status)
		}
		b.WriteString("\n")
		b.WriteString(status)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FormatLaunchInfo(m.check.launch))
	b.WriteString("\n")
	if last := FormatLastUpdate(m.check.lastUpdate, m.check.hasLast); last != "" {
		b.WriteString(last)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.copiedURL {
		b.WriteString("  ")
		b.WriteString(styleToast.Render("✅ Download URL copied to clipboard"))
		b.WriteString("\n\n")
	}

	hint := "h shows recent activity · any other key returns"
	if m.check.hasURL {
		hint = "c copies the download URL · h history · any other key returns"
	}
	b.WriteString(m.footer(hint))
	return b.String()
}

func (m *App) viewHistory() string {
	if m.history.loading {
		return fmt.Sprintf("  %s Reading the activity journal...\n", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString("  " + styleSectionTitle.Render("🕒 Recent Activity:") + "\n\n")
	switch {
	case m.history.err != nil:
		b.WriteString("  ")
		b.WriteString(styleError.Render(fmt.Sprintf("❌ %v", m.history.err)))
		b.WriteString("\n")
	case len(m.history.entries) == 0:
		b.WriteString("  No recorded events yet\n")
	default:
		b.WriteString(FormatHistoryRows(m.history.entries))
	}
	b.WriteString("\n")
	b.WriteString(m.footer("press any key to return"))
	return b.String()
}

func (m *App) viewUpdate() string {
	var b strings.Builder
	for _, step := range m.update.steps {
		b.WriteString("  ")
		b.WriteString(step)
		b.WriteString("\n")
	}

	if m.update.running {
		switch m.update.stage {
		case updater.StageResolving:
			fmt.Fprintf(&b, "  %s Resolving latest version...\n", m.spinner.View())
		case updater.StageDownloading:
			fmt.Fprintf(&b, "  %s ⬇️  Downloading %s...\n", m.spinner.View(), m.update.version)
		case updater.StageDownloadProgress:
			fmt.Fprintf(&b, "  ⬇️  Downloading %s...\n\n", m.update.version)
			b.WriteString("  ")
			b.WriteString(m.progress.View())
			b.WriteString("\n  ")
			b.WriteString(styleDim.Render(FormatDownloadProgress(m.update.downloaded, m.update.total)))
			b.WriteString("\n")
		case updater.StageActivating, updater.StageActivated:
			fmt.Fprintf(&b, "  %s Activating %s...\n", m.spinner.View(), m.update.version)
		default:
			fmt.Fprintf(&b, "  %s Working...\n", m.spinner.View())
		}
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(m.footer("press any key to return"))
	return b.String()
}

func (m *App) viewHelp() string {
	width := m.width - 4
	if width <= 0 {
		width = 76
	}
	if width > 100 {
		width = 100
	}

	var b strings.Builder
	b.WriteString(renderMarkdown(helpMarkdown(m.cfg.Paths, m.cfg.CachePath, m.engine.PlatformKey()), width))
	b.WriteString("\n")
	b.WriteString(m.footer("press any key to return"))
	return b.String()
}

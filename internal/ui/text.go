package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/appimage"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/history"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/updater"
)

const infoLabelWidth = 33

// padLabel left-aligns a row label so the values line up in a column.
func padLabel(label string) string {
	if n := utf8.RuneCountInString(label); n < infoLabelWidth {
		return label + strings.Repeat(" ", infoLabelWidth-n)
	}
	return label
}

func infoRow(label, value string) string {
	return padLabel(label) + " " + value
}

// FormatVersionRows renders the three version rows shown by the check screen
// and the --status command.
func FormatVersionRows(info updater.VersionInfo) string {
	var b strings.Builder
	b.WriteString("  Cursor App Information:\n")

	if info.LatestRemote == nil {
		b.WriteString(infoRow("  - 📡 Latest remote version:", "(unavailable)"))
		return b.String()
	}
	b.WriteString(infoRow("  - 📡 Latest remote version:", info.LatestRemote.String()))
	b.WriteString("\n")

	local := "None"
	if info.LatestLocal != nil {
		local = info.LatestLocal.String()
	}
	b.WriteString(infoRow("  - 📂 Latest locally available:", local))
	b.WriteString("\n")

	active := "None"
	if info.Local != nil {
		active = info.Local.String()
	}
	b.WriteString(infoRow("  - ⚡ Currently active:", active))
	return b.String()
}

// FormatUpdateStatus renders the one-line verdict below the version rows.
// It returns "" when the remote version could not be determined, so callers
// can skip the line entirely.
func FormatUpdateStatus(info updater.VersionInfo) string {
	switch info.UpdateStatus() {
	case updater.StatusRemoteUnavailable:
		return ""
	case updater.StatusNoActiveVersion:
		return "  💡 No active version. You can install the latest version by pressing 2"
	case updater.StatusRemoteNewer:
		msg := fmt.Sprintf("  🔍 There is a newer Cursor version available for download: %s", info.LatestRemote)
		if info.LatestLocal != nil {
			msg += fmt.Sprintf("\n   (You have %s locally, you can update to the latest version by pressing 2)", info.LatestLocal)
		}
		return msg
	case updater.StatusLocalNewer:
		return fmt.Sprintf("  🔄 There is a newer version available locally: %s, you can update to the latest version by pressing 2", info.LatestLocal)
	default:
		return "  ✅ You are running the latest Cursor version!"
	}
}

// FormatLaunchInfo renders how Cursor is currently wired into the system.
func FormatLaunchInfo(launch appimage.LaunchInfo) string {
	var b strings.Builder
	b.WriteString("  Launch Information:\n")

	running := "(not running)"
	if launch.RunningPath != "" {
		running = launch.RunningPath
	}
	b.WriteString(infoRow("  - 🚀 Running process:", running))
	b.WriteString("\n")

	launcher := "(not configured)"
	if launch.LauncherExec != "" {
		launcher = launch.LauncherExec
	}
	b.WriteString(infoRow("  - 🖥️ Desktop launcher Exec:", launcher))
	b.WriteString("\n")

	slot := "(not set)"
	switch {
	case launch.SlotIsSymlink && launch.SlotTarget != "":
		slot = fmt.Sprintf("%s -> %s", launch.SlotPath, launch.SlotTarget)
	case launch.SlotPath != "":
		slot = launch.SlotPath
	}
	b.WriteString(infoRow("  - 🔗 Install slot:", slot))
	b.WriteString("\n")

	onPath := "no"
	if launch.SlotOnPath {
		onPath = "yes"
	}
	b.WriteString(infoRow("  - 🛣️ Slot directory on PATH:", onPath))
	return b.String()
}

// FormatLastUpdate renders the most recent successful update, or "" when the
// journal has none.
func FormatLastUpdate(entry history.Entry, ok bool) string {
	if !ok {
		return ""
	}
	when := entry.Timestamp.Local().Format("2006-01-02 15:04")
	return infoRow("  - 🕒 Last updated:", fmt.Sprintf("%s on %s", entry.Version, when))
}

// FormatHistoryRows renders journal entries one per line, newest first,
// shared by the history screen and the --history command.
func FormatHistoryRows(entries []history.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "  %s  %-8s  %-10s %s",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Event, e.Version, e.Outcome)
		if e.Detail != "" {
			b.WriteString("  (" + e.Detail + ")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// bytesToMB converts a byte count to whole megabytes, truncating.
func bytesToMB(n int64) int64 {
	return n / 1024 / 1024
}

// FormatDownloadProgress renders "42.0% (12MB/29MB)". When the total size is
// unknown only the downloaded amount is shown.
func FormatDownloadProgress(downloaded, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("%dMB", bytesToMB(downloaded))
	}
	percent := float64(downloaded) / float64(total) * 100
	return fmt.Sprintf("%.1f%% (%dMB/%dMB)", percent, bytesToMB(downloaded), bytesToMB(total))
}

package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/appimage"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/platform"
)

// helpMarkdown builds the help screen content. The concrete paths are
// interpolated so the text describes this machine, not a hypothetical one.
func helpMarkdown(paths appimage.Paths, cachePath, platformKey string) string {
	var b strings.Builder

	b.WriteString("# 📖 Help & Information\n\n")

	b.WriteString("## How it works\n\n")
	b.WriteString("- This tool manages Cursor AppImage versions on your system\n")
	fmt.Fprintf(&b, "- AppImages are stored in: `%s`\n", paths.DownloadsDir)
	fmt.Fprintf(&b, "- The active version is set via symlink: `%s`\n", paths.InstallPath)
	fmt.Fprintf(&b, "- Version information is cached for 15 minutes at: `%s`\n\n", cachePath)

	b.WriteString("## Directory Structure\n\n")
	b.WriteString("```\n")
	fmt.Fprintf(&b, "%s/\n", filepath.Dir(paths.DownloadsDir))
	fmt.Fprintf(&b, "  ├── %s/   (downloaded AppImage files)\n", filepath.Base(paths.DownloadsDir))
	fmt.Fprintf(&b, "  └── ...\n")
	fmt.Fprintf(&b, "%s      (symlink to the active version)\n", paths.InstallPath)
	fmt.Fprintf(&b, "%s      (desktop launcher kept in sync)\n", paths.LauncherPath)
	b.WriteString("```\n\n")

	b.WriteString("## Platform Detection\n\n")
	fmt.Fprintf(&b, "- Detected architecture: `%s`\n", platform.Arch())
	fmt.Fprintf(&b, "- Platform: `%s`\n\n", platformKey)

	b.WriteString("## Menu Options\n\n")
	b.WriteString("1. **Check Current Setup Information** — shows your current version, latest local, and latest remote, plus the update status; press `h` there for recent activity, `c` to copy the download URL\n")
	b.WriteString("2. **Update Cursor to latest version** — downloads the latest version if not already present and activates it via symlink\n")
	b.WriteString("3. **Help** — shows this help information\n")
	b.WriteString("4. **Exit** — exits the application\n\n")

	b.WriteString("## Tips\n\n")
	b.WriteString("- Press ESC at any time to exit\n")
	b.WriteString("- Old AppImage versions are kept in the downloads directory for rollback\n")
	b.WriteString("- The cache speeds up version checks (auto-refreshes every 15 min)\n")
	b.WriteString("- If network issues occur, the tool will use a stale cache if available\n")
	b.WriteString("- Checks, downloads and activations are journaled; run `cursor-updater -history 20` to list them\n")

	return b.String()
}

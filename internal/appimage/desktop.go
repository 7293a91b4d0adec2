package appimage

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/debug"
)

// desktopSection is the main group of a freedesktop launcher file.
const desktopSection = "Desktop Entry"

// ExecTarget returns the executable referenced by the launcher's Exec=
// directive with any arguments stripped, or absent when the launcher is
// missing, unreadable, or carries no Exec entry.
func ExecTarget(launcherPath string) (string, bool) {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, launcherPath)
	if err != nil {
		return "", false
	}
	section, err := cfg.GetSection(desktopSection)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(section.Key("Exec").String())
	if value == "" {
		return "", false
	}
	fields := strings.Fields(value)
	return fields[0], true
}

// RewriteExec points every Exec= line of the launcher at target while
// preserving each line's trailing arguments byte-for-byte. All other
// lines pass through unchanged. It reports whether the file was
// rewritten; a launcher without any Exec= line is left untouched.
func RewriteExec(launcherPath, target string) (bool, error) {
	info, err := os.Stat(launcherPath)
	if err != nil {
		return false, fmt.Errorf("read launcher: %w", err)
	}
	data, err := os.ReadFile(launcherPath)
	if err != nil {
		return false, fmt.Errorf("read launcher: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	changed := false
	for idx, line := range lines {
		rest, found := strings.CutPrefix(line, "Exec=")
		if !found {
			continue
		}
		if cut := strings.IndexAny(rest, " \t"); cut >= 0 {
			lines[idx] = "Exec=" + target + rest[cut:]
		} else {
			lines[idx] = "Exec=" + target
		}
		changed = true
	}
	if !changed {
		debug.Logf("launcher: no Exec line in %s, nothing to rewrite", launcherPath)
		return false, nil
	}

	if err := os.WriteFile(launcherPath, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write launcher: %w", err)
	}
	return true, nil
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/catalog"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/ui"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/updater"
)

// runStatus prints the check screen's content once, for scripts and shells.
func runStatus(ctx context.Context, engine ui.Engine, w io.Writer, animate animatorFactory) int {
	spin := startAnimation(animate, "Checking versions...")
	info := engine.Status(ctx)
	launch := engine.LaunchInfo(ctx)
	last, hasLast := engine.LastUpdate(ctx)
	spin.Stop()

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.FormatVersionRows(info))
	if status := ui.FormatUpdateStatus(info); status != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, status)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.FormatLaunchInfo(launch))
	if line := ui.FormatLastUpdate(last, hasLast); line != "" {
		fmt.Fprintln(w, line)
	}
	return 0
}

// runUpdate performs the download-and-activate pipeline, streaming progress
// to w the way the interactive screen does. The spinner covers the silent
// window between kickoff and the first post-resolve event.
func runUpdate(ctx context.Context, engine ui.Engine, w io.Writer, animate animatorFactory) int {
	spin := startAnimation(animate, "Resolving latest version...")
	defer spin.Stop()

	inProgress := false
	version, err := engine.Update(ctx, func(e updater.Event) {
		if e.Stage != updater.StageResolving {
			spin.Stop()
		}
		switch e.Stage {
		case updater.StageDownloading:
			fmt.Fprintf(w, "  ⬇️  Downloading %s...\n", e.Version)
		case updater.StageDownloadProgress:
			inProgress = true
			fmt.Fprintf(w, "\r   %s", ui.FormatDownloadProgress(e.Downloaded, e.Total))
		case updater.StageDownloaded:
			if inProgress {
				fmt.Fprintln(w)
				inProgress = false
			}
			if e.Reused {
				fmt.Fprintln(w, "  ✅ Already downloaded")
			} else {
				fmt.Fprintln(w, "  ✅ Download complete")
			}
		case updater.StageActivated:
			if e.LauncherUpdated {
				fmt.Fprintln(w, "  🖥️ Desktop launcher updated")
			}
			if e.RunningRepointed {
				fmt.Fprintln(w, "  🔀 Running install path repointed")
			}
		}
	})
	spin.Stop()
	if err != nil {
		if inProgress {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "  ❌ %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "  ✅ %s is now the active Cursor version\n", version)
	return 0
}

// runHistory prints the most recent journal entries, newest first.
func runHistory(ctx context.Context, engine ui.Engine, limit int, w io.Writer) int {
	entries, err := engine.History(ctx, limit)
	if err != nil {
		fmt.Fprintf(w, "  ❌ %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "  No recorded events yet")
		return 0
	}
	fmt.Fprint(w, ui.FormatHistoryRows(entries))
	return 0
}

// runRefresh forces a manifest fetch, bypassing cache freshness.
func runRefresh(ctx context.Context, client *catalog.Client, w io.Writer, animate animatorFactory) int {
	spin := startAnimation(animate, "Refreshing the version manifest...")
	manifest, ok := client.Refresh(ctx)
	spin.Stop()
	if !ok {
		fmt.Fprintln(w, "  ❌ Could not refresh the version manifest")
		return 1
	}
	if latest, ok := manifest.LatestVersion(client.PlatformKey()); ok {
		fmt.Fprintf(w, "  ✅ Manifest refreshed, latest version: %s\n", latest)
		return 0
	}
	fmt.Fprintln(w, "  ✅ Manifest refreshed")
	return 0
}

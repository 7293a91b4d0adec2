package main

import (
	"github.com/KarlQuerel/cursor-appimage-updater/internal/appimage"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/catalog"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/config"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/download"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/history"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/updater"
)

func appimagePaths(layout config.Layout) appimage.Paths {
	return appimage.Paths{
		InstallPath:  layout.InstallPath,
		LauncherPath: layout.LauncherPath,
		DownloadsDir: layout.DownloadsDir,
	}
}

func buildCatalogClient(layout config.Layout) *catalog.Client {
	cache := catalog.NewCache(layout.CachePath, config.GetDuration(config.KeyCacheTTL))
	return catalog.NewClient(
		config.GetString(config.KeyEndpointURL),
		cache,
		catalog.WithUserAgent(config.GetString(config.KeyUserAgent)),
		catalog.WithFetchTimeout(config.GetDuration(config.KeyFetchTimeout)),
	)
}

// buildEngine assembles the update engine from the resolved layout.
func buildEngine(layout config.Layout, client *catalog.Client) *updater.Updater {
	paths := appimagePaths(layout)

	inspector := appimage.NewInspector(
		appimage.WithExtractTimeout(config.GetDuration(config.KeyExtractTimeout)),
		appimage.WithStringsTimeout(config.GetDuration(config.KeyStringsTimeout)),
	)
	prober := appimage.NewProber(paths,
		appimage.WithInspector(inspector),
		appimage.WithScanTimeout(config.GetDuration(config.KeyProcessScanTimeout)),
	)
	downloader := download.New(layout.DownloadsDir,
		download.WithUserAgent(config.GetString(config.KeyUserAgent)),
		download.WithTimeout(config.GetDuration(config.KeyDownloadTimeout)),
	)
	activator := appimage.NewActivator(paths, prober)
	journal := history.New(layout.HistoryPath)

	return updater.New(client, prober, downloader, activator, updater.WithJournal(journal))
}

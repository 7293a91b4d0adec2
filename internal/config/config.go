// Package config loads application configuration and derives the on-disk
// layout the updater works against. Precedence: defaults < user config file
// (~/.cursor-updater/config.yaml) < environment (CURSOR_UPDATER_*).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyEndpointURL = "endpoint.url"
	KeyUserAgent   = "endpoint.user-agent"

	KeyCacheTTL  = "cache.ttl"
	KeyCachePath = "cache.path"

	KeyDataDir      = "dirs.data"
	KeyDownloadsDir = "dirs.downloads"
	KeyInstallPath  = "install.path"
	KeyLauncherPath = "launcher.path"
	KeyHistoryPath  = "history.path"

	KeyFetchTimeout       = "timeout.fetch"
	KeyProcessScanTimeout = "timeout.process-scan"
	KeyExtractTimeout     = "timeout.extract"
	KeyStringsTimeout     = "timeout.strings"
	KeyDownloadTimeout    = "timeout.download"

	// KeyUIPlain replaces the interactive menu with a one-shot status
	// printout, for scripts and terminals that cannot render the UI.
	KeyUIPlain = "ui.plain"

	KeyDebug = "debug"
)

const (
	// DefaultEndpointURL serves the public Cursor version history manifest.
	DefaultEndpointURL = "https://raw.githubusercontent.com/oslook/cursor-ai-downloads/main/version-history.json"

	// DefaultCacheTTL is the freshness window for the cached manifest.
	DefaultCacheTTL = 15 * time.Minute

	envPrefix      = "CURSOR_UPDATER"
	dataDirName    = ".cursor-updater"
	configFileName = "config.yaml"
)

type initSettings struct {
	homeDir        string
	userConfigPath string
}

// Option configures Initialize behaviour. Useful for tests to override paths.
type Option func(*initSettings)

// WithHomeDir overrides the home directory used to derive default paths.
func WithHomeDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.homeDir = dir
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst *viper.Viper
	initErr    error
)

// Initialize loads configuration once. Later calls return the first error.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		settings := initSettings{}
		for _, opt := range opts {
			opt(&settings)
		}
		initErr = configure(&settings)
	})
	return initErr
}

// ApplyOverrides injects values typically coming from CLI flags.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

// GetString fetches a string configuration value, initializing on demand.
func GetString(key string) string {
	v, err := getViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool fetches a bool configuration value, initializing on demand.
func GetBool(key string) bool {
	v, err := getViper()
	if err != nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration fetches a duration configuration value, initializing on demand.
func GetDuration(key string) time.Duration {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetDuration(key)
}

func configure(settings *initSettings) error {
	homeDir := strings.TrimSpace(settings.homeDir)
	if homeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("determine user home: %w", err)
		}
		homeDir = home
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		userConfigPath = filepath.Join(homeDir, dataDirName, configFileName)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, homeDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, userConfigPath); err != nil {
		return fmt.Errorf("load user config: %w", err)
	}

	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	return nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	dataDir := filepath.Join(homeDir, dataDirName)

	v.SetDefault(KeyEndpointURL, DefaultEndpointURL)
	v.SetDefault(KeyUserAgent, "cursor-appimage-updater")

	v.SetDefault(KeyCacheTTL, DefaultCacheTTL)
	v.SetDefault(KeyCachePath, filepath.Join(dataDir, "version-history.json"))

	v.SetDefault(KeyDataDir, dataDir)
	v.SetDefault(KeyDownloadsDir, filepath.Join(dataDir, "app-images"))
	v.SetDefault(KeyInstallPath, filepath.Join(homeDir, ".local", "bin", "cursor.appimage"))
	v.SetDefault(KeyLauncherPath, filepath.Join(homeDir, ".local", "share", "applications", "cursor.desktop"))
	v.SetDefault(KeyHistoryPath, filepath.Join(dataDir, "history.db"))

	v.SetDefault(KeyFetchTimeout, 8*time.Second)
	v.SetDefault(KeyProcessScanTimeout, 2*time.Second)
	v.SetDefault(KeyExtractTimeout, 30*time.Second)
	v.SetDefault(KeyStringsTimeout, 10*time.Second)
	v.SetDefault(KeyDownloadTimeout, 30*time.Minute)

	v.SetDefault(KeyUIPlain, false)
	v.SetDefault(KeyDebug, false)
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	if configInst == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return configInst, nil
}

// Layout is the resolved on-disk geography the updater operates on.
type Layout struct {
	DataDir      string // holds cache, history and downloads by default
	DownloadsDir string // immutable per-version artifacts
	InstallPath  string // canonical active pointer (symlink, or legacy file)
	LauncherPath string // desktop entry with the Exec= line
	CachePath    string // persisted manifest
	HistoryPath  string // sqlite journal
}

// ActiveLayout derives the Layout from current configuration.
func ActiveLayout() Layout {
	return Layout{
		DataDir:      GetString(KeyDataDir),
		DownloadsDir: GetString(KeyDownloadsDir),
		InstallPath:  GetString(KeyInstallPath),
		LauncherPath: GetString(KeyLauncherPath),
		CachePath:    GetString(KeyCachePath),
		HistoryPath:  GetString(KeyHistoryPath),
	}
}

// reset clears package state for tests.
func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	initErr = nil
	configOnce = sync.Once{}
}

// ResetForTesting clears package state and re-initializes against a
// temporary home. Returns a cleanup function that should be deferred.
func ResetForTesting(t interface{ TempDir() string }) func() {
	reset()
	tmp := t.TempDir()
	_ = Initialize(WithHomeDir(tmp))
	return reset
}

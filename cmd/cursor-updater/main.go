package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/KarlQuerel/cursor-appimage-updater/internal/config"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/debug"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/platform"
	"github.com/KarlQuerel/cursor-appimage-updater/internal/ui"
)

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}

	opts, overrides, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if opts.version {
		printVersion()
		os.Exit(0)
	}

	if err := config.ApplyOverrides(overrides); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying flags: %v\n", err)
		os.Exit(1)
	}

	if err := debug.Init(config.GetBool(config.KeyDebug)); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
	}

	if !platform.SupportedOS(runtime.GOOS) {
		fmt.Fprintf(os.Stderr, "Warning: AppImage management expects Linux, running on %s\n", runtime.GOOS)
	}

	layout := config.ActiveLayout()
	client := buildCatalogClient(layout)
	engine := buildEngine(layout, client)

	profile := termenv.ColorProfile()
	var animate animatorFactory
	if profile != termenv.Ascii {
		animate = func(message string) waitAnimator {
			return newLineSpinner(os.Stdout, message)
		}
	}

	ctx := context.Background()
	code := 0

	if opts.refresh {
		code = runRefresh(ctx, client, os.Stdout, animate)
	}

	switch {
	case code != 0:
		// the refresh already failed, skip the rest
	case opts.status:
		code = runStatus(ctx, engine, os.Stdout, animate)
	case opts.update:
		code = runUpdate(ctx, engine, os.Stdout, animate)
	case opts.history > 0:
		code = runHistory(ctx, engine, opts.history, os.Stdout)
	case opts.refresh:
		// a bare -refresh already printed the latest version
	case plainOutput(profile):
		code = runStatus(ctx, engine, os.Stdout, animate)
	default:
		appCfg := ui.Config{
			Engine:    engine,
			Version:   Version,
			Paths:     appimagePaths(layout),
			CachePath: layout.CachePath,
		}
		if err := runTUI(appCfg, func(app *ui.App) programRunner {
			return tea.NewProgram(app, tea.WithAltScreen())
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			code = 1
		} else {
			fmt.Println("\n  👋 Exiting Cursor Updater")
		}
	}

	debug.Close()
	os.Exit(code)
}

// plainOutput reports whether the interactive menu should be replaced by a
// one-shot status printout: requested through configuration, or forced
// because the terminal cannot render the interface.
func plainOutput(profile termenv.Profile) bool {
	return config.GetBool(config.KeyUIPlain) || profile == termenv.Ascii
}

type cliOptions struct {
	version bool
	status  bool
	update  bool
	history int
	refresh bool
}

// parseFlags layers command line flags over config-provided defaults and
// reports which config keys were explicitly overridden.
func parseFlags(fs *flag.FlagSet, args []string) (cliOptions, map[string]any, error) {
	var opts cliOptions
	fs.BoolVar(&opts.version, "version", false, "Print version information and exit")
	fs.BoolVar(&opts.status, "status", false, "Print version status and exit")
	fs.BoolVar(&opts.update, "update", false, "Update Cursor to the latest version and exit")
	fs.IntVar(&opts.history, "history", 0, "Print the last N journal entries and exit")
	fs.BoolVar(&opts.refresh, "refresh", false, "Force a version manifest refresh")
	endpoint := fs.String("endpoint", config.GetString(config.KeyEndpointURL), "Version manifest URL")
	debugFlag := fs.Bool("debug", config.GetBool(config.KeyDebug), "Write a debug log file (or set CURSOR_UPDATER_DEBUG=true)")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, nil, err
	}

	visited := map[string]struct{}{}
	fs.Visit(func(f *flag.Flag) {
		visited[f.Name] = struct{}{}
	})

	overrides := map[string]any{}
	if _, ok := visited["endpoint"]; ok {
		overrides[config.KeyEndpointURL] = strings.TrimSpace(*endpoint)
	}
	if _, ok := visited["debug"]; ok {
		overrides[config.KeyDebug] = *debugFlag
	}
	return opts, overrides, nil
}

type programRunner interface {
	Run() (tea.Model, error)
}

type programFactory func(*ui.App) programRunner

func runTUI(cfg ui.Config, factory programFactory) error {
	if factory == nil {
		return fmt.Errorf("program factory is nil")
	}
	prog := factory(ui.NewApp(cfg))
	if prog == nil {
		return fmt.Errorf("program is nil")
	}
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}

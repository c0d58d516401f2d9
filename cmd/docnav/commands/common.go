package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docnav/internal/config"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docnav.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Build the navigation site from the descriptor and docs directory"`
	Lint   LintCmd   `cmd:"" help:"Check the descriptor and docs for problems without building"`
	Init   InitCmd   `cmd:"" help:"Initialize a configuration file and descriptor scaffold"`
	Serve  ServeCmd  `cmd:"" help:"Serve the site locally and rebuild on changes"`
	Daemon DaemonCmd `cmd:"" help:"Run continuously with scheduled rebuilds, metrics, and events"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file, falling back to defaults when
// the default path does not exist so that `docnav build` works in a bare
// docs checkout.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "docnav.yaml" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// isColorSupported checks if the terminal supports color output.
func isColorSupported() bool {
	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}
	return true
}

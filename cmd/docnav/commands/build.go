package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docnav/internal/build"
	"git.home.luguber.info/inful/docnav/internal/events"
	"git.home.luguber.info/inful/docnav/internal/eventstore"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output          string `short:"o" help:"Output directory for the generated site (overrides config)"`
	External        bool   `short:"e" help:"Verify external links after rendering"`
	SkipIfUnchanged bool   `short:"s" help:"Skip the build when inputs match the last completed build (requires history)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := []build.Option{}
	var pub events.Publisher
	if cfg.Events.NATSURL != "" {
		pub, err = events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		defer pub.Close()
		opts = append(opts, build.WithPublisher(pub))
	}
	if cfg.History.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open build history: %w", err)
		}
		defer func() { _ = store.Close() }()
		opts = append(opts, build.WithStore(store))
	}

	svc := build.NewService(opts...)
	report, err := svc.Run(context.Background(), build.Request{
		Config:          cfg,
		OutputDir:       b.Output,
		CheckExternal:   b.External,
		SkipIfUnchanged: b.SkipIfUnchanged,
	})
	if err != nil {
		return err
	}

	switch report.Status {
	case build.StatusSkipped:
		slog.Info("Nothing to do", "reason", report.SkipReason)
	default:
		fmt.Fprintf(os.Stdout, "Built %d pages from %d documents into %s\n",
			report.Pages, report.Documents, report.OutputDir)
	}
	if len(report.BrokenLinks) > 0 {
		fmt.Fprintf(os.Stderr, "%d broken external link(s):\n", len(report.BrokenLinks))
		for _, link := range report.BrokenLinks {
			if link.Error != "" {
				fmt.Fprintf(os.Stderr, "  %s (%s)\n", link.URL, link.Error)
			} else {
				fmt.Fprintf(os.Stderr, "  %s (HTTP %d)\n", link.URL, link.StatusCode)
			}
		}
		os.Exit(1)
	}
	return nil
}

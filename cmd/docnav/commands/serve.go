package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docnav/internal/build"
	"git.home.luguber.info/inful/docnav/internal/server"
)

// ServeCmd serves the rendered site locally and rebuilds on changes.
type ServeCmd struct {
	Port   int    `short:"p" default:"0" help:"Port to serve on (defaults to the configured port)"`
	Output string `short:"o" help:"Output directory for the generated site (overrides config)"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.Output != "" {
		cfg.Output.Dir = s.Output
	}
	port := cfg.Daemon.Port
	if s.Port > 0 {
		port = s.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := build.NewService()
	srv := server.New(cfg.Output.Dir, port, nil, "")

	rebuild := func(ctx context.Context) {
		_, err := svc.Run(ctx, build.Request{Config: cfg})
		srv.RecordBuild(err)
		if err != nil {
			slog.Error("Rebuild failed", "error", err)
		}
	}
	rebuild(ctx)

	watcher, err := build.NewWatcher(cfg.Docs.Dir, cfg.DescriptorPath(), rebuild)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Start(ctx) }()
	go func() { errCh <- watcher.Start(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

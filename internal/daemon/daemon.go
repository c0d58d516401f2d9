// Package daemon runs docnav continuously: it serves the rendered site,
// rebuilds on filesystem changes, and optionally rebuilds on a fixed
// schedule as a safety net.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docnav/internal/build"
	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/events"
	"git.home.luguber.info/inful/docnav/internal/eventstore"
	"git.home.luguber.info/inful/docnav/internal/logfields"
	"git.home.luguber.info/inful/docnav/internal/metrics"
	"git.home.luguber.info/inful/docnav/internal/server"
)

// Daemon owns the long-running components: build service, HTTP server,
// file watcher, and the periodic rebuild scheduler.
type Daemon struct {
	cfg       *config.Config
	service   *build.Service
	server    *server.Server
	watcher   *build.Watcher
	scheduler gocron.Scheduler
	publisher events.Publisher
	store     eventstore.Store

	mu       sync.Mutex
	building bool
}

// New wires a daemon from configuration. Optional components (metrics,
// NATS, build history) activate only when configured.
func New(cfg *config.Config) (*Daemon, error) {
	d := &Daemon{cfg: cfg, publisher: events.NoopPublisher{}}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Daemon.Metrics.Enabled {
		pr := metrics.NewPrometheusRecorder(nil)
		recorder = pr
		metricsHandler = pr.Handler()
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return nil, fmt.Errorf("connect event publisher: %w", err)
		}
		d.publisher = pub
	}

	opts := []build.Option{
		build.WithRecorder(recorder),
		build.WithPublisher(d.publisher),
	}
	if cfg.History.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			d.publisher.Close()
			return nil, fmt.Errorf("open build history: %w", err)
		}
		d.store = store
		opts = append(opts, build.WithStore(store))
	}
	d.service = build.NewService(opts...)

	d.server = server.New(cfg.Output.Dir, cfg.Daemon.Port, metricsHandler, cfg.Daemon.Metrics.Path)

	watcher, err := build.NewWatcher(cfg.Docs.Dir, cfg.DescriptorPath(), d.rebuild)
	if err != nil {
		d.close()
		return nil, err
	}
	d.watcher = watcher

	if interval, ok := cfg.Daemon.RebuildEvery(); ok {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			d.close()
			return nil, fmt.Errorf("create scheduler: %w", err)
		}
		if _, err := scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(d.rebuild, context.Background()),
			gocron.WithName("periodic-rebuild"),
		); err != nil {
			d.close()
			return nil, fmt.Errorf("schedule periodic rebuild: %w", err)
		}
		d.scheduler = scheduler
	}

	return d, nil
}

// Start performs an initial build, then serves and watches until the
// context is canceled.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("Daemon starting", "docs", d.cfg.Docs.Dir, "output", d.cfg.Output.Dir,
		"port", d.cfg.Daemon.Port)

	d.rebuild(ctx)

	if d.scheduler != nil {
		d.scheduler.Start()
	}

	errCh := make(chan error, 2)
	go func() { errCh <- d.server.Start(ctx) }()
	go func() { errCh <- d.watcher.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	return nil
}

// Stop shuts down the scheduler and releases resources.
func (d *Daemon) Stop(ctx context.Context) error {
	slog.Info("Daemon stopping")
	var firstErr error
	if d.scheduler != nil {
		if err := d.scheduler.Shutdown(); err != nil {
			firstErr = fmt.Errorf("shutdown scheduler: %w", err)
		}
	}
	d.close()
	return firstErr
}

// rebuild runs a single build, skipping when another build is in flight.
// Scheduled and watcher-triggered rebuilds both funnel through here.
func (d *Daemon) rebuild(ctx context.Context) {
	d.mu.Lock()
	if d.building {
		d.mu.Unlock()
		slog.Debug("Rebuild already in progress, skipping trigger")
		return
	}
	d.building = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.building = false
		d.mu.Unlock()
	}()

	start := time.Now()
	report, err := d.service.Run(ctx, build.Request{
		Config:          d.cfg,
		SkipIfUnchanged: d.store != nil,
	})
	d.server.RecordBuild(err)
	if err != nil {
		slog.Error("Rebuild failed", logfields.Error(err), "duration", time.Since(start))
		return
	}
	if report.Status == build.StatusSkipped {
		slog.Debug("Rebuild skipped", "reason", report.SkipReason)
	}
}

func (d *Daemon) close() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			slog.Warn("Failed to close build history", "error", err)
		}
	}
	if d.publisher != nil {
		d.publisher.Close()
	}
}

// Package build provides the canonical navigation build pipeline. All
// execution paths (CLI, preview server, daemon) route through Service.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/corpus"
	"git.home.luguber.info/inful/docnav/internal/descriptor"
	"git.home.luguber.info/inful/docnav/internal/events"
	"git.home.luguber.info/inful/docnav/internal/eventstore"
	"git.home.luguber.info/inful/docnav/internal/gitmeta"
	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/lint"
	"git.home.luguber.info/inful/docnav/internal/logfields"
	"git.home.luguber.info/inful/docnav/internal/metrics"
	"git.home.luguber.info/inful/docnav/internal/navtree"
	"git.home.luguber.info/inful/docnav/internal/render"
	"git.home.luguber.info/inful/docnav/internal/retry"
)

// Status is the overall outcome of a build.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Request contains all inputs required to execute a navigation build.
type Request struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// OutputDir overrides the configured output directory when non-empty.
	OutputDir string

	// CheckExternal verifies external links after rendering.
	CheckExternal bool

	// SkipIfUnchanged skips the build when the input fingerprint matches
	// the most recent completed build in the event store.
	SkipIfUnchanged bool
}

// StageTiming records how long a single pipeline stage took.
type StageTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Report contains the outcome of a build execution. Volatile data (build ID,
// timings) lives here and in the event store, never in rendered artifacts.
type Report struct {
	BuildID     string             `json:"build_id"`
	Status      Status             `json:"status"`
	Fingerprint string             `json:"fingerprint"`
	Commit      string             `json:"commit,omitempty"`
	OutputDir   string             `json:"output_dir"`
	Documents   int                `json:"documents"`
	Pages       int                `json:"pages"`
	Stages      []StageTiming      `json:"stages,omitempty"`
	BrokenLinks []linkcheck.Result `json:"broken_links,omitempty"`
	SkipReason  string             `json:"skip_reason,omitempty"`
	StartTime   time.Time          `json:"start_time"`
	Duration    time.Duration      `json:"duration"`
}

// Service executes the parse → scan → resolve → render pipeline.
type Service struct {
	recorder  metrics.Recorder
	publisher events.Publisher
	store     eventstore.Store
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithPublisher attaches a build event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithStore attaches a build event store, enabling skip-if-unchanged and
// build history.
func WithStore(st eventstore.Store) Option {
	return func(s *Service) { s.store = st }
}

// NewService creates a build service. Metrics and events default to no-ops.
func NewService(opts ...Option) *Service {
	s := &Service{
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes a complete build. A failed build returns both a Report with
// StatusFailed and the error that stopped the pipeline.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	cfg := req.Config
	outDir := req.OutputDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}

	report := &Report{
		BuildID:   uuid.NewString(),
		OutputDir: outDir,
		StartTime: time.Now().UTC(),
	}
	log := slog.With(logfields.BuildID(report.BuildID))

	s.emit(ctx, report, eventstore.TypeBuildStarted, nil)

	fp, err := runStage(s, report, "fingerprint", func() (string, error) {
		return Fingerprint(cfg.DescriptorPath(), cfg.Docs.Dir)
	})
	if err != nil {
		return s.fail(ctx, report, fmt.Errorf("fingerprint inputs: %w", err))
	}
	report.Fingerprint = fp

	if req.SkipIfUnchanged && s.store != nil {
		latest, err := s.store.LatestFingerprint(ctx)
		if err != nil {
			log.Warn("Fingerprint lookup failed, building anyway", "error", err)
		} else if latest != "" && latest == fp {
			report.Status = StatusSkipped
			report.SkipReason = "inputs unchanged since last completed build"
			report.Duration = time.Since(report.StartTime)
			s.emit(ctx, report, eventstore.TypeBuildSkipped, nil)
			s.recorder.IncBuildOutcome(metrics.OutcomeSkipped)
			log.Info("Build skipped", logfields.Fingerprint(fp))
			return report, nil
		}
	}

	desc, err := runStage(s, report, "parse", func() (*descriptor.Descriptor, error) {
		return descriptor.ParseFile(cfg.DescriptorPath())
	})
	if err != nil {
		return s.fail(ctx, report, err)
	}

	docs, err := runStage(s, report, "scan", func() (*corpus.Corpus, error) {
		return corpus.Scan(cfg.Docs.Dir)
	})
	if err != nil {
		return s.fail(ctx, report, err)
	}
	report.Documents = docs.Len()

	slug, commit := repoMetadata(cfg)
	report.Commit = commit

	tree, err := runStage(s, report, "resolve", func() (*navtree.Tree, error) {
		return navtree.Build(desc, docs, navtree.Options{
			Target:     cfg.Docs.Target,
			RootTitle:  cfg.Site.Title,
			GitHubSlug: slug,
		})
	})
	if err != nil {
		return s.fail(ctx, report, err)
	}
	report.Pages = len(tree.Pages())

	findings, err := runStage(s, report, "lint", func() (*lint.Result, error) {
		return lint.Run(desc, docs, lint.Options{Target: cfg.Docs.Target}), nil
	})
	if err != nil {
		return s.fail(ctx, report, err)
	}
	s.recorder.IncLintFindings("error", findings.ErrorCount())
	s.recorder.IncLintFindings("warning", findings.WarningCount())
	if findings.HasWarnings() {
		log.Warn("Lint findings", "warnings", findings.WarningCount())
	}

	_, err = runStage(s, report, "render", func() (struct{}, error) {
		r := render.New(outDir, render.Site{
			Title:       cfg.Site.Title,
			Description: cfg.Site.Description,
			BaseURL:     cfg.Site.BaseURL,
		})
		return struct{}{}, r.Render(tree, indexBody(desc, tree, docs, cfg.Docs.Target))
	})
	if err != nil {
		return s.fail(ctx, report, err)
	}

	if req.CheckExternal || cfg.LinkCheck.Enabled {
		broken, err := runStage(s, report, "linkcheck", func() ([]linkcheck.Result, error) {
			return s.checkLinks(ctx, cfg, docs, tree, outDir)
		})
		if err != nil {
			return s.fail(ctx, report, err)
		}
		report.BrokenLinks = broken
		for _, b := range broken {
			log.Warn("Broken external link", logfields.URL(b.URL), "status", b.StatusCode)
		}
	}

	report.Status = StatusSuccess
	report.Duration = time.Since(report.StartTime)
	s.emit(ctx, report, eventstore.TypeBuildCompleted, map[string]string{
		eventstore.MetaFingerprint: fp,
	})
	s.recorder.ObserveBuildDuration(report.Duration)
	s.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	log.Info("Build completed", logfields.Pages(report.Pages), logfields.Documents(report.Documents),
		logfields.Output(outDir), "duration", report.Duration)
	return report, nil
}

// runStage runs fn under a timing observation and appends it to the report.
func runStage[T any](s *Service, report *Report, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	d := time.Since(start)
	report.Stages = append(report.Stages, StageTiming{Name: name, Duration: d})
	s.recorder.ObserveStageDuration(name, d)
	return v, err
}

func (s *Service) fail(ctx context.Context, report *Report, err error) (*Report, error) {
	report.Status = StatusFailed
	report.Duration = time.Since(report.StartTime)
	s.emit(ctx, report, eventstore.TypeBuildFailed, map[string]string{"error": err.Error()})
	s.recorder.IncBuildOutcome(metrics.OutcomeFailed)
	return report, err
}

// emit records the lifecycle transition in the event store and publishes it.
// Both are best-effort; the build never fails because history could not be
// written.
func (s *Service) emit(ctx context.Context, report *Report, eventType string, meta map[string]string) {
	ev := events.BuildEvent{
		BuildID:     report.BuildID,
		Type:        eventType,
		Fingerprint: report.Fingerprint,
		OutputDir:   report.OutputDir,
		Pages:       report.Pages,
		Timestamp:   time.Now().UTC(),
	}
	if meta != nil {
		ev.Error = meta["error"]
	}
	if s.store != nil {
		if meta == nil {
			meta = map[string]string{}
		}
		if report.Fingerprint != "" {
			meta[eventstore.MetaFingerprint] = report.Fingerprint
		}
		if err := s.store.Append(ctx, report.BuildID, eventType, nil, meta); err != nil {
			slog.Warn("Failed to record build event", "type", eventType, "error", err)
		}
	}
	if err := s.publisher.Publish(ev); err != nil {
		slog.Warn("Failed to publish build event", "type", eventType, "error", err)
	}
}

// checkLinks verifies every external URL the build touches: links in the
// markdown sources, the resolved sidebar targets (including the generated
// GitHub/PyPI links), and any anchor in the rendered index page.
func (s *Service) checkLinks(ctx context.Context, cfg *config.Config, docs *corpus.Corpus, tree *navtree.Tree, outDir string) ([]linkcheck.Result, error) {
	urls := externalLinks(docs)
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		seen[u] = struct{}{}
	}
	add := func(u string) {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	for _, link := range tree.Sidebar {
		add(link.URL)
	}
	if f, err := os.Open(filepath.Join(outDir, render.IndexFile)); err == nil {
		rendered, extractErr := linkcheck.ExtractExternalLinks(f, cfg.Site.BaseURL)
		_ = f.Close()
		if extractErr != nil {
			return nil, fmt.Errorf("extract rendered links: %w", extractErr)
		}
		for _, u := range rendered {
			add(u)
		}
	}

	if len(urls) == 0 {
		return nil, nil
	}
	checker := linkcheck.New(linkcheck.Options{
		Timeout:         cfg.LinkCheck.RequestTimeout(),
		MaxConcurrent:   cfg.LinkCheck.MaxConcurrent,
		FollowRedirects: cfg.LinkCheck.FollowRedirects,
		MaxRedirects:    cfg.LinkCheck.MaxRedirects,
		Retry:           retry.DefaultPolicy(),
	})
	results := checker.CheckURLs(ctx, urls)
	for _, r := range results {
		s.recorder.IncLinkCheckResult(r.OK)
	}
	return linkcheck.Broken(results), nil
}

// repoMetadata resolves the sidebar's default GitHub slug and the HEAD
// commit from the enclosing repository. Explicit slug configuration wins.
func repoMetadata(cfg *config.Config) (slug, commit string) {
	slug = cfg.Sidebar.GitHubSlug
	info, err := gitmeta.Detect(cfg.Docs.Dir)
	if err != nil {
		if !errors.Is(err, gitmeta.ErrNoRepository) {
			slog.Debug("Git metadata unavailable", "error", err)
		}
		return slug, ""
	}
	if slug == "" {
		slug = info.GitHubSlug
	}
	return slug, info.Commit
}

package build

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/events"
	"git.home.luguber.info/inful/docnav/internal/eventstore"
	"git.home.luguber.info/inful/docnav/internal/render"
)

const testDescriptor = `.. toctree::
   :hidden:

   Home <self>

.. toctree::
   :maxdepth: 2

   main
   guide
`

func writeFixture(t *testing.T) *config.Config {
	t.Helper()
	docs := t.TempDir()

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(docs, name), []byte(content), 0o644))
	}
	write("index.rst", testDescriptor)
	write("main.md", "# Getting Started\n\nWelcome.\n\n## Install\n\nRun it.\n")
	write("guide.md", "# Guide\n\nSee [docs](https://example.com/docs).\n")

	cfg := config.Default()
	cfg.Site.Title = "Test Site"
	cfg.Docs.Dir = docs
	cfg.Docs.Descriptor = "index.rst"
	cfg.Output.Dir = t.TempDir()
	return cfg
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.BuildEvent
}

func (p *capturePublisher) Publish(ev events.BuildEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) Close() {}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

func TestService_Run_Success(t *testing.T) {
	cfg := writeFixture(t)
	pub := &capturePublisher{}
	svc := NewService(WithPublisher(pub))

	report, err := svc.Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.NotEmpty(t, report.BuildID)
	assert.NotEmpty(t, report.Fingerprint)
	assert.Equal(t, 2, report.Documents)
	assert.Positive(t, report.Pages)

	for _, artifact := range []string{render.NavManifestFile, render.IndexFile, render.SitemapFile} {
		_, statErr := os.Stat(filepath.Join(cfg.Output.Dir, artifact))
		assert.NoError(t, statErr, artifact)
	}

	stageNames := make([]string, len(report.Stages))
	for i, st := range report.Stages {
		stageNames[i] = st.Name
	}
	assert.Equal(t, []string{"fingerprint", "parse", "scan", "resolve", "lint", "render"}, stageNames)

	assert.Equal(t, []string{eventstore.TypeBuildStarted, eventstore.TypeBuildCompleted}, pub.types())
}

func TestService_Run_SkipIfUnchanged(t *testing.T) {
	cfg := writeFixture(t)
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	svc := NewService(WithStore(store))

	first, err := svc.Run(context.Background(), Request{Config: cfg, SkipIfUnchanged: true})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, first.Status)

	second, err := svc.Run(context.Background(), Request{Config: cfg, SkipIfUnchanged: true})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEmpty(t, second.SkipReason)

	// Touching a document invalidates the fingerprint.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Docs.Dir, "guide.md"), []byte("# Guide\n\nUpdated.\n"), 0o644))
	third, err := svc.Run(context.Background(), Request{Config: cfg, SkipIfUnchanged: true})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, third.Status)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
}

func TestService_Run_FailsOnDanglingReference(t *testing.T) {
	cfg := writeFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Docs.Dir, "index.rst"),
		[]byte(".. toctree::\n\n   main\n   missing-page\n"), 0o644))

	pub := &capturePublisher{}
	svc := NewService(WithPublisher(pub))

	report, err := svc.Run(context.Background(), Request{Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-page")
	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, []string{eventstore.TypeBuildStarted, eventstore.TypeBuildFailed}, pub.types())
}

func TestService_Run_RecordsHistory(t *testing.T) {
	cfg := writeFixture(t)
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	svc := NewService(WithStore(store))
	report, err := svc.Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	evs, err := store.GetByBuildID(context.Background(), report.BuildID)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, eventstore.TypeBuildStarted, evs[0].Type)
	assert.Equal(t, eventstore.TypeBuildCompleted, evs[1].Type)

	fp, err := store.LatestFingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Fingerprint, fp)
}

func TestFingerprint_DeterministicAndSensitive(t *testing.T) {
	cfg := writeFixture(t)

	a, err := Fingerprint(cfg.DescriptorPath(), cfg.Docs.Dir)
	require.NoError(t, err)
	b, err := Fingerprint(cfg.DescriptorPath(), cfg.Docs.Dir)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Docs.Dir, "main.md"), []byte("# Changed\n"), 0o644))
	c, err := Fingerprint(cfg.DescriptorPath(), cfg.Docs.Dir)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestService_Run_IncludeDrivesIndexContent(t *testing.T) {
	cfg := writeFixture(t)
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Docs.Dir, name), []byte(content), 0o644))
	}
	write("overview.md", "# Overview\n\nDeclared index content.\n")
	write("index.rst", `.. only:: html

   .. include:: overview.md
      :parser: myst_parser.sphinx_

.. toctree::
   :hidden:

   Home <self>

.. toctree::

   main
   guide
`)

	svc := NewService()
	_, err := svc.Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(cfg.Output.Dir, render.IndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Declared index content.")
	assert.NotContains(t, string(index), "Welcome.")
}

func TestService_Run_ChecksSidebarAndRenderedLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := writeFixture(t)
	desc := ".. toctree::\n\n   main\n   guide\n\n.. sidebar-links::\n\n   Dashboard <" + srv.URL + "/gone>\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Docs.Dir, "index.rst"), []byte(desc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Docs.Dir, "guide.md"),
		[]byte("# Guide\n\nSee [status]("+srv.URL+"/ok).\n"), 0o644))

	svc := NewService()
	report, err := svc.Run(context.Background(), Request{Config: cfg, CheckExternal: true})
	require.NoError(t, err)

	require.Len(t, report.BrokenLinks, 1)
	assert.Equal(t, srv.URL+"/gone", report.BrokenLinks[0].URL)
	assert.Equal(t, http.StatusNotFound, report.BrokenLinks[0].StatusCode)
}

func TestService_Run_RecordsHeadCommit(t *testing.T) {
	cfg := writeFixture(t)
	repo, err := git.PlainInit(cfg.Docs.Dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	hash, err := wt.Commit("docs", &git.CommitOptions{
		Author: &object.Signature{Name: "docs", Email: "docs@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	svc := NewService()
	report, err := svc.Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, hash.String(), report.Commit)
}

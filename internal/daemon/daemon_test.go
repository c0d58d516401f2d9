package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/render"
)

func daemonFixture(t *testing.T) *config.Config {
	t.Helper()
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "index.rst"),
		[]byte(".. toctree::\n\n   main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "main.md"),
		[]byte("# Main\n\nContent.\n"), 0o644))

	cfg := config.Default()
	cfg.Docs.Dir = docs
	cfg.Output.Dir = t.TempDir()
	cfg.Daemon.Port = 0
	return cfg
}

func TestDaemon_RebuildWritesArtifacts(t *testing.T) {
	cfg := daemonFixture(t)
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

	d, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = d.Stop(context.Background()) }()

	d.rebuild(context.Background())

	_, err = os.Stat(filepath.Join(cfg.Output.Dir, render.NavManifestFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, render.IndexFile))
	assert.NoError(t, err)
}

func TestDaemon_PeriodicRebuildConfigured(t *testing.T) {
	cfg := daemonFixture(t)
	cfg.Daemon.RebuildInterval = "15m"

	d, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = d.Stop(context.Background()) }()

	assert.NotNil(t, d.scheduler)
}

func TestDaemon_InvalidHistoryPath(t *testing.T) {
	cfg := daemonFixture(t)
	cfg.History.Path = filepath.Join(t.TempDir(), "missing", "deep", "history.db")

	_, err := New(cfg)
	assert.Error(t, err)
}

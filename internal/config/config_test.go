package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "version: \"1.0\"\nsite:\n  title: Docs\n"))
	require.NoError(t, err)

	assert.Equal(t, "Docs", cfg.Site.Title)
	assert.Equal(t, "./docs", cfg.Docs.Dir)
	assert.Equal(t, "index.rst", cfg.Docs.Descriptor)
	assert.Equal(t, "html", cfg.Docs.Target)
	assert.Equal(t, "./site", cfg.Output.Dir)
	assert.Equal(t, 1316, cfg.Daemon.Port)
	assert.Equal(t, "/metrics", cfg.Daemon.Metrics.Path)
	assert.Equal(t, 10*time.Second, cfg.LinkCheck.RequestTimeout())
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `version: "1.0"
site:
  title: Docnav
  base_url: https://docs.example.com
docs:
  dir: ./documentation
  descriptor: nav.rst
  target: html
output:
  dir: ./public
sidebar:
  github_slug: inful/docnav
linkcheck:
  enabled: true
  timeout: 3s
history:
  path: ./history.db
events:
  nats_url: nats://localhost:4222
daemon:
  port: 8080
  rebuild_interval: 15m
  metrics:
    enabled: true
`))
	require.NoError(t, err)

	assert.Equal(t, "./documentation/nav.rst", cfg.DescriptorPath())
	assert.Equal(t, "inful/docnav", cfg.Sidebar.GitHubSlug)
	assert.True(t, cfg.LinkCheck.Enabled)
	assert.Equal(t, 3*time.Second, cfg.LinkCheck.RequestTimeout())
	assert.Equal(t, "./history.db", cfg.History.Path)
	assert.Equal(t, "docnav.builds", cfg.Events.Subject)

	interval, ok := cfg.Daemon.RebuildEvery()
	require.True(t, ok)
	assert.Equal(t, 15*time.Minute, interval)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("DOCNAV_TEST_TITLE", "From Env")
	cfg, err := Load(writeConfig(t, "site:\n  title: ${DOCNAV_TEST_TITLE}\n"))
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Site.Title)
}

func TestLoad_RejectsUnsupportedVersion(t *testing.T) {
	_, err := Load(writeConfig(t, "version: \"3.0\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported configuration version")
}

func TestLoad_RejectsBadRebuildInterval(t *testing.T) {
	_, err := Load(writeConfig(t, "daemon:\n  rebuild_interval: often\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rebuild_interval")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDescriptorPath_AbsoluteAndRelative(t *testing.T) {
	cfg := Default()
	cfg.Docs.Dir = "./docs"
	cfg.Docs.Descriptor = "index.rst"
	assert.Equal(t, "./docs/index.rst", cfg.DescriptorPath())

	cfg.Docs.Descriptor = "/etc/docnav/index.rst"
	assert.Equal(t, "/etc/docnav/index.rst", cfg.DescriptorPath())

	cfg.Docs.Descriptor = "./index.rst"
	assert.Equal(t, "./index.rst", cfg.DescriptorPath())
}

func TestInit_RefusesToOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, Init(path, true))
}

func TestInit_ExampleConfigIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Project Documentation", cfg.Site.Title)
}

func TestInitDescriptor_WritesParseableExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.rst")
	require.NoError(t, InitDescriptor(path, false))
	require.Error(t, InitDescriptor(path, false))
}

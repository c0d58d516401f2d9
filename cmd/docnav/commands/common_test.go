package commands

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	return parser
}

func TestCLI_ParseBuild(t *testing.T) {
	var cli CLI
	ctx, err := newParser(t, &cli).Parse([]string{"build", "-o", "./out", "--external"})
	require.NoError(t, err)

	assert.Equal(t, "build", ctx.Command())
	assert.Equal(t, "./out", cli.Build.Output)
	assert.True(t, cli.Build.External)
	assert.Equal(t, "docnav.yaml", cli.Config)
}

func TestCLI_ParseLintPathAndExternal(t *testing.T) {
	var cli CLI
	ctx, err := newParser(t, &cli).Parse([]string{"lint", "./docs", "--external"})
	require.NoError(t, err)

	assert.Equal(t, "lint <path>", ctx.Command())
	assert.Equal(t, "./docs", cli.Lint.Path)
	assert.True(t, cli.Lint.External)
}

func TestCLI_ParseLintDefaults(t *testing.T) {
	var cli CLI
	ctx, err := newParser(t, &cli).Parse([]string{"lint"})
	require.NoError(t, err)

	assert.Equal(t, "lint", ctx.Command())
	assert.Empty(t, cli.Lint.Path)
	assert.False(t, cli.Lint.External)
	assert.Equal(t, "text", cli.Lint.Format)
}

func TestCLI_ParseLintRejectsUnknownFormat(t *testing.T) {
	var cli CLI
	_, err := newParser(t, &cli).Parse([]string{"lint", "--format", "xml"})
	assert.Error(t, err)
}

func TestCLI_ParseServePort(t *testing.T) {
	var cli CLI
	ctx, err := newParser(t, &cli).Parse([]string{"serve", "-p", "8080"})
	require.NoError(t, err)

	assert.Equal(t, "serve", ctx.Command())
	assert.Equal(t, 8080, cli.Serve.Port)
}

func TestCLI_VerboseFlag(t *testing.T) {
	var cli CLI
	_, err := newParser(t, &cli).Parse([]string{"-v", "daemon"})
	require.NoError(t, err)
	assert.True(t, cli.Verbose)
}

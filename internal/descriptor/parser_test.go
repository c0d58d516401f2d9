package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescriptor = `.. only:: html

   .. include:: main.md
      :parser: markdown

.. toctree::
   :hidden:

   Home <self>

.. toctree::
   :maxdepth: 2

   main
   api_v1
   api_v2
   reference
   security
   release-notes
   contributing
   code-style
   license
   attributions

.. sidebar-links::
   :github:
   :pypi: oe-python-template

   Docker <https://hub.docker.com/r/helmuthva/oe-python-template/tags>
   SonarQube <https://sonarcloud.io/summary/new_code?id=oe-python-template>
   Codecov <https://app.codecov.io/gh/helmut-hoffer-von-ankershoffen/oe-python-template>
`

func TestParse_FullDescriptor_YieldsAllBlocks(t *testing.T) {
	d, err := Parse([]byte(sampleDescriptor), "index.rst")
	require.NoError(t, err)
	require.Len(t, d.Nodes, 4)

	only, ok := d.Nodes[0].(*OnlyBlock)
	require.True(t, ok)
	assert.Equal(t, "html", only.Target)
	require.Len(t, only.Nodes, 1)
	inc, ok := only.Nodes[0].(*Include)
	require.True(t, ok)
	assert.Equal(t, "main.md", inc.Path)
	assert.Equal(t, "markdown", inc.Parser)

	hidden, ok := d.Nodes[1].(*TocTree)
	require.True(t, ok)
	assert.True(t, hidden.Hidden)
	require.Len(t, hidden.Entries, 1)
	assert.Equal(t, "Home", hidden.Entries[0].Title)
	assert.True(t, hidden.Entries[0].IsSelf())

	visible, ok := d.Nodes[2].(*TocTree)
	require.True(t, ok)
	assert.False(t, visible.Hidden)
	assert.Equal(t, 2, visible.MaxDepth)
	assert.True(t, visible.HasMaxDepth)
	assert.False(t, hidden.HasMaxDepth)

	sidebar, ok := d.Nodes[3].(*SidebarLinks)
	require.True(t, ok)
	assert.True(t, sidebar.HasGitHub)
	assert.Empty(t, sidebar.GitHub)
	assert.True(t, sidebar.HasPyPI)
	assert.Equal(t, "oe-python-template", sidebar.PyPI)
	require.Len(t, sidebar.Entries, 3)
	assert.Equal(t, "Docker", sidebar.Entries[0].Label)
	assert.Equal(t, "https://hub.docker.com/r/helmuthva/oe-python-template/tags", sidebar.Entries[0].URL)
}

func TestParse_TocTreeOrder_IsPreservedExactly(t *testing.T) {
	d, err := Parse([]byte(sampleDescriptor), "index.rst")
	require.NoError(t, err)

	visible := d.Nodes[2].(*TocTree)
	want := []string{
		"main", "api_v1", "api_v2", "reference", "security",
		"release-notes", "contributing", "code-style", "license", "attributions",
	}
	var got []string
	for _, e := range visible.Entries {
		got = append(got, e.Target)
	}
	assert.Equal(t, want, got)
}

func TestParse_References_IncludeHiddenEntries(t *testing.T) {
	d, err := Parse([]byte(sampleDescriptor), "index.rst")
	require.NoError(t, err)

	refs := d.References("html")
	require.Len(t, refs, 11)
	assert.Equal(t, SelfTarget, refs[0].Target)
	assert.Equal(t, "main", refs[1].Target)
}

func TestParse_OnlyBlock_HiddenForOtherTargets(t *testing.T) {
	d, err := Parse([]byte(sampleDescriptor), "index.rst")
	require.NoError(t, err)

	assert.Len(t, d.Includes("html"), 1)
	assert.Empty(t, d.Includes("latex"))
	// Toctrees sit outside the only block and are visible for every target.
	assert.Len(t, d.TocTrees("latex"), 2)
}

func TestParse_Comment_IsIgnored(t *testing.T) {
	src := ".. this file drives the generated navigation\n" +
		"   and is consumed at build time\n\n" +
		".. toctree::\n\n   main\n"
	d, err := Parse([]byte(src), "")
	require.NoError(t, err)
	require.Len(t, d.Nodes, 1)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"unknown directive", ".. navtree::\n\n   main\n", `unknown directive "navtree"`},
		{"unknown toctree option", ".. toctree::\n   :collapse:\n\n   main\n", "unknown toctree option :collapse:"},
		{"bad maxdepth", ".. toctree::\n   :maxdepth: two\n\n   main\n", ":maxdepth: requires a non-negative integer"},
		{"hidden with value", ".. toctree::\n   :hidden: yes\n\n   main\n", ":hidden: takes no value"},
		{"entry with spaces", ".. toctree::\n\n   not an entry\n", "must not contain whitespace"},
		{"malformed titled entry", ".. toctree::\n\n   Home <self\n", "malformed entry"},
		{"sidebar entry without label", ".. sidebar-links::\n\n   <https://example.com>\n", "sidebar link must use the form"},
		{"only without target", ".. only::\n\n   .. toctree::\n", "only requires an output target"},
		{"tab indentation", ".. toctree::\n\n\tmain\n", "tabs are not allowed"},
		{"toctree with argument", ".. toctree:: extra\n\n   main\n", "toctree takes no argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "index.rst")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParse_ErrorCarriesPathAndLine(t *testing.T) {
	_, err := Parse([]byte(".. toctree::\n\n   bad entry\n"), "docs/index.rst")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "docs/index.rst", perr.Path)
	assert.Equal(t, 3, perr.Line)
	assert.Contains(t, err.Error(), "docs/index.rst:3:")
}

func TestParse_CRLFInput_IsNormalized(t *testing.T) {
	src := ".. toctree::\r\n\r\n   main\r\n   api_v1\r\n"
	d, err := Parse([]byte(src), "")
	require.NoError(t, err)
	trees := d.TocTrees("html")
	require.Len(t, trees, 1)
	require.Len(t, trees[0].Entries, 2)
	assert.Equal(t, "api_v1", trees[0].Entries[1].Target)
}

func TestParse_EmptyToctree_IsAllowed(t *testing.T) {
	d, err := Parse([]byte(".. toctree::\n   :hidden:\n"), "")
	require.NoError(t, err)
	trees := d.TocTrees("html")
	require.Len(t, trees, 1)
	assert.True(t, trees[0].Hidden)
	assert.Empty(t, trees[0].Entries)
}

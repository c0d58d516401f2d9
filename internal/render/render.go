// Package render emits the generated navigation artifacts: the navigation
// manifest (nav.json), the index page (index.html), and the sitemap.
//
// Output is strictly deterministic: rendering the same tree twice produces
// byte-identical files. Nothing volatile (timestamps, build IDs, map
// iteration order) may leak into an artifact; volatile build metadata belongs
// in the build report and event store instead.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/docnav/internal/navtree"
)

// Site carries the site-level values rendered into artifacts.
type Site struct {
	Title       string
	Description string
	BaseURL     string
}

// Renderer writes navigation artifacts under an output directory.
type Renderer struct {
	OutDir string
	Site   Site
}

// New returns a Renderer for the given output directory.
func New(outDir string, site Site) *Renderer {
	return &Renderer{OutDir: outDir, Site: site}
}

// Artifact names within the output directory.
const (
	NavManifestFile = "nav.json"
	IndexFile       = "index.html"
	SitemapFile     = "sitemap.xml"
)

// Render writes all artifacts. indexBody is the markdown body of the site's
// root document (usually pulled in by the descriptor's include directive);
// it may be nil, in which case the index page carries only the navigation.
func (r *Renderer) Render(tree *navtree.Tree, indexBody []byte) error {
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	manifest, err := NavManifest(tree)
	if err != nil {
		return err
	}
	if err := r.writeFile(NavManifestFile, manifest); err != nil {
		return err
	}

	index, err := r.indexPage(tree, indexBody)
	if err != nil {
		return err
	}
	if err := r.writeFile(IndexFile, index); err != nil {
		return err
	}

	return r.writeFile(SitemapFile, r.sitemap(tree))
}

func (r *Renderer) writeFile(name string, data []byte) error {
	path := filepath.Join(r.OutDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// NavManifest serializes the navigation tree as indented JSON with a
// trailing newline.
func NavManifest(tree *navtree.Tree) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encode nav manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// indexPage renders the root page: converted markdown content plus the
// visible navigation tree and sidebar.
func (r *Renderer) indexPage(tree *navtree.Tree, indexBody []byte) ([]byte, error) {
	var content bytes.Buffer
	if len(indexBody) > 0 {
		if err := goldmark.Convert(indexBody, &content); err != nil {
			return nil, fmt.Errorf("render index content: %w", err)
		}
	}

	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, indexData{
		Site:    r.Site,
		Tree:    tree,
		Content: content.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}
	return buf.Bytes(), nil
}

// sitemap lists every page URL, root first, then visible pages in declaration
// order, then hidden pages. Hidden pages stay in the link graph, so they
// belong here even though the navigation tree never shows them.
func (r *Renderer) sitemap(tree *navtree.Tree) []byte {
	base := strings.TrimSuffix(r.Site.BaseURL, "/")
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, p := range tree.Pages() {
		fmt.Fprintf(&buf, "  <url><loc>%s/%s</loc></url>\n", base, xmlEscape(p.Href))
	}
	buf.WriteString("</urlset>\n")
	return buf.Bytes()
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}

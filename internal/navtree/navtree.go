// Package navtree resolves a parsed navigation descriptor against the
// document corpus and builds the navigation tree the site publishes.
//
// Resolution enforces the descriptor's one hard invariant: every page
// reference must name an existing corpus document. Failures are collected
// and reported together as a fatal error; there is no partial-success mode.
package navtree

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docnav/internal/corpus"
	"git.home.luguber.info/inful/docnav/internal/descriptor"
)

// Tree is the fully resolved navigation structure.
type Tree struct {
	// Root describes the site's own index page (the `self` reference).
	Root Page

	// Sections holds one entry per visible toctree, in declaration order.
	Sections []Section

	// Hidden holds pages referenced only by hidden toctrees. They stay in
	// the link graph (and the sitemap) but render no visible nodes.
	Hidden []Page

	// Sidebar lists the supplementary external links, in declaration order.
	Sidebar []SidebarLink
}

// Section is the rendered form of one visible toctree.
type Section struct {
	Caption  string
	MaxDepth int
	Pages    []Page
}

// Page is a resolved navigation node.
type Page struct {
	ID       string
	Title    string
	RelPath  string
	Href     string
	Children []Page `json:",omitempty"`
}

// SidebarLink is a resolved (label, URL) sidebar pair.
type SidebarLink struct {
	Label string
	URL   string
}

// Options configures tree building.
type Options struct {
	// Target selects which `only` blocks apply (e.g. "html").
	Target string

	// RootTitle is used for the index page when no hidden `self` entry
	// provides one. Defaults to "Home".
	RootTitle string

	// GitHubSlug backs the `:github:` sidebar option when the descriptor
	// leaves its value empty (typically derived from the git remote).
	GitHubSlug string
}

// UnresolvedError reports page references with no corresponding corpus
// document. It always carries every missing reference found.
type UnresolvedError struct {
	Missing []descriptor.PageRef
}

func (e *UnresolvedError) Error() string {
	targets := make([]string, len(e.Missing))
	for i, ref := range e.Missing {
		targets[i] = fmt.Sprintf("%s (line %d)", ref.Target, ref.SourceLine)
	}
	return fmt.Sprintf("unresolved page references: %s", strings.Join(targets, ", "))
}

// Build resolves the descriptor into a navigation tree.
func Build(d *descriptor.Descriptor, c *corpus.Corpus, opts Options) (*Tree, error) {
	if opts.Target == "" {
		opts.Target = "html"
	}
	if opts.RootTitle == "" {
		opts.RootTitle = "Home"
	}

	if err := checkResolvable(d, c, opts.Target); err != nil {
		return nil, err
	}

	tree := &Tree{
		Root: Page{ID: "index", Title: opts.RootTitle, Href: "index.html"},
	}

	for _, t := range d.TocTrees(opts.Target) {
		if t.Hidden {
			for _, ref := range t.Entries {
				if ref.IsSelf() {
					if ref.Title != "" {
						tree.Root.Title = ref.Title
					}
					continue
				}
				doc, _ := c.Lookup(ref.Target)
				tree.Hidden = append(tree.Hidden, pageFor(ref, doc, 0))
			}
			continue
		}
		section := Section{Caption: t.Caption, MaxDepth: t.MaxDepth}
		for _, ref := range t.Entries {
			if ref.IsSelf() {
				// `self` in a visible tree would duplicate the root; the
				// root link already exists, so only the title is honored.
				if ref.Title != "" {
					tree.Root.Title = ref.Title
				}
				continue
			}
			doc, _ := c.Lookup(ref.Target)
			section.Pages = append(section.Pages, pageFor(ref, doc, t.MaxDepth))
		}
		tree.Sections = append(tree.Sections, section)
	}

	if sb := d.Sidebar(opts.Target); sb != nil {
		tree.Sidebar = sidebarLinks(sb, opts.GitHubSlug)
	}

	return tree, nil
}

// checkResolvable collects every dangling reference up front so the error
// names all of them at once.
func checkResolvable(d *descriptor.Descriptor, c *corpus.Corpus, target string) error {
	var missing []descriptor.PageRef
	for _, ref := range d.References(target) {
		if ref.IsSelf() {
			continue
		}
		if _, ok := c.Lookup(ref.Target); !ok {
			missing = append(missing, ref)
		}
	}
	if len(missing) > 0 {
		return &UnresolvedError{Missing: missing}
	}
	return nil
}

// pageFor builds the navigation node for one resolved reference. maxDepth
// bounds how many heading levels are expanded beneath the page title: the
// page itself is depth 1, its h2 outline is depth 2, and so on. Zero means
// no bound.
func pageFor(ref descriptor.PageRef, doc *corpus.Document, maxDepth int) Page {
	p := Page{
		ID:      doc.ID,
		Title:   doc.Title,
		RelPath: doc.RelPath,
		Href:    doc.ID + ".html",
	}
	if ref.Title != "" {
		p.Title = ref.Title
	}
	if maxDepth == 1 {
		return p
	}
	limit := maxDepth
	if limit == 0 {
		limit = 6
	}
	p.Children = outlineChildren(doc, limit)
	return p
}

// outlineChildren nests a document's h2+ headings into navigation children.
// A heading of level n sits at display depth n, bounded by limit.
func outlineChildren(doc *corpus.Document, limit int) []Page {
	var children []Page
	// stack[i] is the most recent page at heading level i+2.
	stack := make([]*Page, 0, 4)
	for _, h := range doc.Headings {
		if h.Level < 2 || h.Level > limit {
			continue
		}
		node := Page{
			ID:    doc.ID + "#" + h.Anchor,
			Title: h.Text,
			Href:  doc.ID + ".html#" + h.Anchor,
		}
		depth := h.Level - 2
		if depth > len(stack) {
			depth = len(stack)
		}
		stack = stack[:depth]
		if len(stack) == 0 {
			children = append(children, node)
			stack = append(stack, &children[len(children)-1])
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
			stack = append(stack, &parent.Children[len(parent.Children)-1])
		}
	}
	return children
}

// ResolveSidebar resolves a sidebar-links block into (label, URL) pairs
// without building a full tree, for link verification outside a build.
func ResolveSidebar(sb *descriptor.SidebarLinks, defaultGitHubSlug string) []SidebarLink {
	if sb == nil {
		return nil
	}
	return sidebarLinks(sb, defaultGitHubSlug)
}

func sidebarLinks(sb *descriptor.SidebarLinks, defaultGitHubSlug string) []SidebarLink {
	var links []SidebarLink
	if sb.HasGitHub {
		slug := sb.GitHub
		if slug == "" {
			slug = defaultGitHubSlug
		}
		if slug != "" {
			links = append(links, SidebarLink{Label: "GitHub", URL: "https://github.com/" + slug})
		}
	}
	if sb.HasPyPI && sb.PyPI != "" {
		links = append(links, SidebarLink{Label: "PyPI", URL: "https://pypi.org/project/" + sb.PyPI + "/"})
	}
	for _, e := range sb.Entries {
		links = append(links, SidebarLink{Label: e.Label, URL: e.URL})
	}
	return links
}

// Pages returns every page of the tree (root, visible, hidden) exactly once,
// ordered root first, then visible sections in order, then hidden pages.
func (t *Tree) Pages() []Page {
	seen := map[string]bool{t.Root.ID: true}
	out := []Page{t.Root}
	for _, s := range t.Sections {
		for _, p := range s.Pages {
			if !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, p)
			}
		}
	}
	for _, p := range t.Hidden {
		if !seen[p.ID] {
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	return out
}

// ReferencedIDs returns the normalized identifiers of every document the
// descriptor references (hidden and visible), sorted.
func ReferencedIDs(d *descriptor.Descriptor, target string) []string {
	set := map[string]bool{}
	for _, ref := range d.References(target) {
		if ref.IsSelf() {
			continue
		}
		set[corpus.NormalizeID(ref.Target)] = true
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Package descriptor parses navigation descriptor documents.
//
// A navigation descriptor is the declarative file that defines a documentation
// site's table of contents and sidebar links. The format is line-oriented and
// indentation-significant: directives open with `.. name::`, carry field-style
// options (`:hidden:`, `:maxdepth: 2`) at the start of their indented body,
// and list their content one entry per line.
package descriptor

import (
	"fmt"
)

// SelfTarget is the reserved page reference target that resolves to the
// descriptor's own document (the site root).
const SelfTarget = "self"

// Descriptor is a parsed navigation descriptor.
type Descriptor struct {
	// Path is the source file path, used in diagnostics. May be empty when
	// parsed from memory.
	Path string

	Nodes []Node
}

// Node is a top-level element of a descriptor.
type Node interface {
	// Line returns the 1-based source line the node starts at.
	Line() int
}

// TocTree is an ordered table-of-contents block. Entry order is meaningful
// and preserved exactly from the source.
type TocTree struct {
	Hidden      bool
	MaxDepth    int  // 0 means unlimited
	HasMaxDepth bool // true when :maxdepth: was written explicitly
	Caption     string
	Entries     []PageRef

	line int
}

func (t *TocTree) Line() int { return t.line }

// PageRef names another document in the corpus, optionally with an explicit
// display title (`Home <self>`).
type PageRef struct {
	Title  string // empty unless the titled form was used
	Target string

	SourceLine int
}

// IsSelf reports whether the reference points at the descriptor's own document.
func (r PageRef) IsSelf() bool { return r.Target == SelfTarget }

// SidebarLinks declares the supplementary link list rendered next to the
// navigation tree.
type SidebarLinks struct {
	// GitHub holds the repository slug from the `:github:` option. The option
	// may be present with an empty value, meaning "derive the slug".
	GitHub    string
	HasGitHub bool

	// PyPI holds the package name from the `:pypi:` option.
	PyPI    string
	HasPyPI bool

	Entries []LinkEntry

	line int
}

func (s *SidebarLinks) Line() int { return s.line }

// LinkEntry is a single labeled external link.
type LinkEntry struct {
	Label string
	URL   string

	SourceLine int
}

// OnlyBlock guards its children by output target ("html", "latex", ...).
type OnlyBlock struct {
	Target string
	Nodes  []Node

	line int
}

func (o *OnlyBlock) Line() int { return o.line }

// Include inlines another document at this point in the descriptor.
type Include struct {
	Path   string
	Parser string // optional `:parser:` option

	line int
}

func (i *Include) Line() int { return i.line }

// ParseError reports a syntax problem with source position.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// TocTrees returns every toctree in the descriptor, flattening only-blocks
// whose target matches the given output target. Order follows the source.
func (d *Descriptor) TocTrees(target string) []*TocTree {
	var trees []*TocTree
	walk(d.Nodes, target, func(n Node) {
		if t, ok := n.(*TocTree); ok {
			trees = append(trees, t)
		}
	})
	return trees
}

// Sidebar returns the first sidebar-links block visible for the given output
// target, or nil if the descriptor declares none.
func (d *Descriptor) Sidebar(target string) *SidebarLinks {
	var found *SidebarLinks
	walk(d.Nodes, target, func(n Node) {
		if s, ok := n.(*SidebarLinks); ok && found == nil {
			found = s
		}
	})
	return found
}

// Includes returns the include directives visible for the given output target.
func (d *Descriptor) Includes(target string) []*Include {
	var incs []*Include
	walk(d.Nodes, target, func(n Node) {
		if i, ok := n.(*Include); ok {
			incs = append(incs, i)
		}
	})
	return incs
}

// References returns every page reference of every toctree visible for the
// target, in declaration order. Hidden toctree entries are included: hidden
// blocks participate in the link graph even though they render no nodes.
func (d *Descriptor) References(target string) []PageRef {
	var refs []PageRef
	for _, t := range d.TocTrees(target) {
		refs = append(refs, t.Entries...)
	}
	return refs
}

func walk(nodes []Node, target string, fn func(Node)) {
	for _, n := range nodes {
		if o, ok := n.(*OnlyBlock); ok {
			if o.Target == target {
				walk(o.Nodes, target, fn)
			}
			continue
		}
		fn(n)
	}
}

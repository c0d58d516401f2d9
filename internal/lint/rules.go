package lint

import (
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/docnav/internal/corpus"
	"git.home.luguber.info/inful/docnav/internal/descriptor"
)

// Rule identifiers, stable for machine consumers of the JSON output.
const (
	RuleDanglingReference  = "dangling-reference"
	RuleDuplicateReference = "duplicate-reference"
	RuleHiddenRoot         = "hidden-root"
	RuleOrphanDocument     = "orphan-document"
	RuleSidebarURL         = "sidebar-url"
	RuleMaxDepthRange      = "maxdepth-range"
	RuleBrokenLink         = "broken-link"
)

// Options configures a lint run.
type Options struct {
	// Target selects which `only` blocks apply. Defaults to "html".
	Target string
}

// Run applies every rule to the descriptor and corpus.
func Run(d *descriptor.Descriptor, c *corpus.Corpus, opts Options) *Result {
	if opts.Target == "" {
		opts.Target = "html"
	}
	res := &Result{DocsTotal: c.Len()}

	checkReferences(d, c, opts.Target, res)
	checkHiddenRoot(d, opts.Target, res)
	checkOrphans(d, c, opts.Target, res)
	checkSidebar(d, opts.Target, res)
	checkMaxDepth(d, opts.Target, res)

	return res
}

// checkReferences flags dangling references (fatal for the build) and
// duplicated visible entries.
func checkReferences(d *descriptor.Descriptor, c *corpus.Corpus, target string, res *Result) {
	seenVisible := map[string]int{} // normalized id -> first line
	for _, t := range d.TocTrees(target) {
		for _, ref := range t.Entries {
			if ref.IsSelf() {
				continue
			}
			if _, ok := c.Lookup(ref.Target); !ok {
				res.add(d.Path, ref.SourceLine, SeverityError, RuleDanglingReference,
					fmt.Sprintf("reference %q does not match any document in the corpus", ref.Target))
				continue
			}
			if t.Hidden {
				continue
			}
			id := corpus.NormalizeID(ref.Target)
			if first, dup := seenVisible[id]; dup {
				res.add(d.Path, ref.SourceLine, SeverityWarning, RuleDuplicateReference,
					fmt.Sprintf("reference %q already listed at line %d", ref.Target, first))
			} else {
				seenVisible[id] = ref.SourceLine
			}
		}
	}
}

// checkHiddenRoot enforces the root-link convention: a hidden toctree whose
// only entry is the self reference, so the home link resolves without a
// duplicate appearing in the visible tree.
func checkHiddenRoot(d *descriptor.Descriptor, target string, res *Result) {
	selfSeen := false
	for _, t := range d.TocTrees(target) {
		hasSelf := false
		for _, ref := range t.Entries {
			if ref.IsSelf() {
				hasSelf = true
			}
		}
		switch {
		case t.Hidden && hasSelf:
			selfSeen = true
			if len(t.Entries) > 1 {
				res.add(d.Path, t.Line(), SeverityWarning, RuleHiddenRoot,
					"hidden toctree carrying the self entry should contain nothing else")
			}
		case !t.Hidden && hasSelf:
			res.add(d.Path, t.Line(), SeverityWarning, RuleHiddenRoot,
				"self reference in a visible toctree duplicates the root link")
		}
	}
	if !selfSeen {
		res.add(d.Path, 0, SeverityWarning, RuleHiddenRoot,
			"no hidden toctree declares the self entry; the root page is unreachable from the navigation")
	}
}

// checkOrphans flags corpus documents no toctree references. Documents pulled
// in by an include directive are the descriptor's own content, not orphans.
func checkOrphans(d *descriptor.Descriptor, c *corpus.Corpus, target string, res *Result) {
	referenced := map[string]bool{}
	for _, ref := range d.References(target) {
		referenced[corpus.NormalizeID(ref.Target)] = true
	}
	for _, inc := range d.Includes(target) {
		referenced[corpus.NormalizeID(trimMarkdownExt(inc.Path))] = true
	}
	for _, doc := range c.Documents() {
		if !referenced[corpus.NormalizeID(doc.ID)] {
			res.add(doc.RelPath, 0, SeverityWarning, RuleOrphanDocument,
				fmt.Sprintf("document %q is not referenced by any toctree", doc.ID))
		}
	}
}

func checkSidebar(d *descriptor.Descriptor, target string, res *Result) {
	sb := d.Sidebar(target)
	if sb == nil {
		return
	}
	for _, e := range sb.Entries {
		u, err := url.Parse(e.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			res.add(d.Path, e.SourceLine, SeverityError, RuleSidebarURL,
				fmt.Sprintf("sidebar link %q has an invalid URL %q", e.Label, e.URL))
		}
	}
}

func checkMaxDepth(d *descriptor.Descriptor, target string, res *Result) {
	for _, t := range d.TocTrees(target) {
		if !t.HasMaxDepth {
			continue
		}
		switch {
		case t.MaxDepth < 1:
			res.add(d.Path, t.Line(), SeverityWarning, RuleMaxDepthRange,
				"explicit maxdepth 0 disables the bound; omit the option instead")
		case t.MaxDepth > 6:
			res.add(d.Path, t.Line(), SeverityWarning, RuleMaxDepthRange,
				fmt.Sprintf("maxdepth %d exceeds the deepest heading level (6)", t.MaxDepth))
		}
	}
}

func (r *Result) add(path string, line int, sev Severity, rule, msg string) {
	r.Issues = append(r.Issues, Issue{
		Path:     path,
		Line:     line,
		Severity: sev,
		Rule:     rule,
		Message:  msg,
	})
}

func trimMarkdownExt(p string) string {
	for _, ext := range []string{".md", ".markdown"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

package corpus

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Document is a single corpus document with the metadata navigation building
// needs: a display title, the in-page heading outline, and outbound links.
type Document struct {
	ID      string // slash-separated relative path without extension
	Path    string // absolute or cwd-relative filesystem path
	RelPath string // path relative to the corpus root

	Title       string
	FrontMatter map[string]any
	Headings    []Heading
	Links       []string
}

// Heading is one entry of a document's heading outline.
type Heading struct {
	Level  int
	Text   string
	Anchor string
}

func loadDocument(path, rel string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fm, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
	doc := &Document{
		ID:          id,
		Path:        path,
		RelPath:     filepath.ToSlash(rel),
		FrontMatter: fm,
	}

	doc.Headings, doc.Links = analyzeBody(body)

	doc.Title = titleFromFrontMatter(fm)
	if doc.Title == "" && len(doc.Headings) > 0 {
		doc.Title = doc.Headings[0].Text
	}
	if doc.Title == "" {
		doc.Title = fallbackTitle(id)
	}
	return doc, nil
}

// ReadBody re-reads the document and returns its markdown body with any
// front matter block stripped. Bodies are not cached at scan time; only the
// index page ever needs one.
func (d *Document) ReadBody() ([]byte, error) {
	raw, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, err
	}
	_, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// analyzeBody walks the goldmark AST once, collecting the heading outline and
// outbound link destinations in document order.
func analyzeBody(body []byte) ([]Heading, []string) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var headings []Heading
	var links []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			txt := nodeText(node, body)
			headings = append(headings, Heading{
				Level:  node.Level,
				Text:   txt,
				Anchor: slugify(txt),
			})
		case *gmast.Link:
			links = append(links, string(node.Destination))
		case *gmast.AutoLink:
			links = append(links, string(node.URL(body)))
		case *gmast.Image:
			links = append(links, string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return headings, links
}

// nodeText concatenates the plain text of a node's children.
func nodeText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
		case *gmast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(nodeText(c, source))
		}
	}
	return sb.String()
}

func titleFromFrontMatter(fm map[string]any) string {
	if fm == nil {
		return ""
	}
	if v, ok := fm["title"]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// fallbackTitle derives a readable title from an identifier when the document
// declares none ("release-notes" -> "Release Notes").
func fallbackTitle(id string) string {
	base := id
	if i := strings.LastIndex(id, "/"); i >= 0 {
		base = id[i+1:]
	}
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// slugify converts heading text to a stable anchor fragment.
func slugify(s string) string {
	var sb strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case !lastDash:
			sb.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// Package corpus indexes the documentation corpus: the set of documents a
// navigation descriptor may reference. Documents are keyed by identifier,
// the slash-separated path relative to the corpus root with the markdown
// extension stripped.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Corpus holds every discovered document, indexed by normalized identifier.
type Corpus struct {
	Root string

	docs  map[string]*Document
	order []string // identifiers in deterministic (sorted) order
}

// markdownExtensions lists the file extensions treated as corpus documents.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// Scan walks the docs root and indexes every markdown document.
func Scan(root string) (*Corpus, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("docs root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs root %s is not a directory", root)
	}

	c := &Corpus{Root: root, docs: make(map[string]*Document)}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (".git", ".obsidian", ...) never hold corpus docs.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !markdownExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		doc, err := loadDocument(path, rel)
		if err != nil {
			return fmt.Errorf("load %s: %w", rel, err)
		}
		key := NormalizeID(doc.ID)
		if prev, dup := c.docs[key]; dup {
			return fmt.Errorf("documents %s and %s map to the same identifier %q", prev.RelPath, rel, doc.ID)
		}
		c.docs[key] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.order = make([]string, 0, len(c.docs))
	for id := range c.docs {
		c.order = append(c.order, id)
	}
	sort.Strings(c.order)
	return c, nil
}

// Lookup resolves an identifier to its document. Matching is
// unicode-normalized and case-insensitive, mirroring how document identifiers
// are derived from file paths.
func (c *Corpus) Lookup(id string) (*Document, bool) {
	doc, ok := c.docs[NormalizeID(id)]
	return doc, ok
}

// Len returns the number of indexed documents.
func (c *Corpus) Len() int { return len(c.docs) }

// Documents returns all documents in deterministic identifier order.
func (c *Corpus) Documents() []*Document {
	out := make([]*Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.docs[id])
	}
	return out
}

// Identifiers returns every indexed identifier in deterministic order.
func (c *Corpus) Identifiers() []string {
	return append([]string(nil), c.order...)
}

package build

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docnav/internal/corpus"
	"git.home.luguber.info/inful/docnav/internal/descriptor"
	"git.home.luguber.info/inful/docnav/internal/navtree"
)

// Fingerprint hashes the build inputs: the descriptor plus every markdown
// file under the docs directory, in path order. Two runs over identical
// inputs yield the same fingerprint, which backs skip-if-unchanged.
func Fingerprint(descriptorPath, docsDir string) (string, error) {
	files := []string{descriptorPath}

	err := filepath.WalkDir(docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && path != docsDir {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".md", ".markdown":
			if path != descriptorPath {
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", docsDir, err)
	}
	sort.Strings(files[1:])

	h := sha256.New()
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		name := path
		if rel, relErr := filepath.Rel(docsDir, path); relErr == nil && !strings.HasPrefix(rel, "..") {
			name = rel
		}
		fmt.Fprintf(h, "%s\x00", filepath.ToSlash(name))
		_, cpErr := io.Copy(h, f)
		_ = f.Close()
		if cpErr != nil {
			return "", fmt.Errorf("hash %s: %w", path, cpErr)
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// externalLinks collects the deduplicated http(s) links of every document,
// in corpus order.
func externalLinks(docs *corpus.Corpus) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, doc := range docs.Documents() {
		for _, link := range doc.Links {
			if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
				continue
			}
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			urls = append(urls, link)
		}
	}
	return urls
}

// indexBody returns the markdown body backing the rendered index page.
// Include directives win: the first one that resolves against the corpus is
// the declared index content. Without an include, the root identifier and
// then the first visible page double as index content.
func indexBody(desc *descriptor.Descriptor, tree *navtree.Tree, docs *corpus.Corpus, target string) []byte {
	var candidates []string
	for _, inc := range desc.Includes(target) {
		candidates = append(candidates, stripMarkdownExt(inc.Path))
	}
	candidates = append(candidates, tree.Root.ID, "main", "readme")
	for _, sec := range tree.Sections {
		if len(sec.Pages) > 0 {
			candidates = append(candidates, sec.Pages[0].ID)
			break
		}
	}
	for _, id := range candidates {
		doc, ok := docs.Lookup(id)
		if !ok {
			continue
		}
		body, err := doc.ReadBody()
		if err != nil {
			continue
		}
		return body
	}
	return nil
}

func stripMarkdownExt(p string) string {
	for _, ext := range []string{".md", ".markdown"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

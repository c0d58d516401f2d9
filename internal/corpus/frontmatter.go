package corpus

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrUnterminatedFrontMatter is returned when a document opens a YAML front
// matter block without closing it.
var ErrUnterminatedFrontMatter = errors.New("unterminated front matter block")

var fmDelimiter = []byte("---")

// splitFrontMatter separates an optional leading `---` delimited YAML block
// from the markdown body and parses it. Documents without front matter return
// a nil map and the full input as body.
func splitFrontMatter(raw []byte) (map[string]any, []byte, error) {
	content := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(content, fmDelimiter) {
		return nil, content, nil
	}
	rest := content[len(fmDelimiter):]
	if len(rest) > 0 && rest[0] != '\n' {
		// Not a delimiter line (e.g. a thematic break candidate like "----").
		return nil, content, nil
	}
	rest = bytes.TrimPrefix(rest, []byte("\n"))

	end := bytes.Index(rest, []byte("\n---\n"))
	var block, body []byte
	switch {
	case bytes.HasPrefix(rest, []byte("---\n")):
		block, body = nil, rest[len("---\n"):]
	case end >= 0:
		block, body = rest[:end+1], rest[end+len("\n---\n"):]
	case bytes.HasSuffix(rest, []byte("\n---")):
		block, body = rest[:len(rest)-len("---")], nil
	default:
		return nil, nil, ErrUnterminatedFrontMatter
	}

	if len(bytes.TrimSpace(block)) == 0 {
		return map[string]any{}, body, nil
	}
	var fm map[string]any
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, nil, fmt.Errorf("parse front matter: %w", err)
	}
	return fm, body, nil
}

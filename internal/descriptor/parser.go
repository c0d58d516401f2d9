package descriptor

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ParseFile reads and parses a navigation descriptor file.
func ParseFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	return Parse(data, path)
}

// Parse parses descriptor content. The path is only used in diagnostics.
func Parse(content []byte, path string) (*Descriptor, error) {
	p := &parser{
		path:  path,
		lines: strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n"),
	}
	nodes, err := p.parseNodes(0)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.lines) {
		return nil, p.errorf(p.pos+1, "unexpected unindented content %q", strings.TrimSpace(p.lines[p.pos]))
	}
	return &Descriptor{Path: path, Nodes: nodes}, nil
}

type parser struct {
	path  string
	lines []string
	pos   int // index of the next unconsumed line
}

var directiveRe = regexp.MustCompile(`^\.\. +([a-zA-Z][\w-]*):: *(.*)$`)

var optionRe = regexp.MustCompile(`^:([\w-]+): *(.*)$`)

type option struct {
	name  string
	value string
	line  int
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &ParseError{Path: p.path, Line: line, Message: fmt.Sprintf(format, args...)}
}

// parseNodes consumes directives whose indentation is exactly indent, until a
// line shallower than indent (or EOF) is reached.
func (p *parser) parseNodes(indent int) ([]Node, error) {
	var nodes []Node
	for {
		p.skipBlank()
		if p.pos >= len(p.lines) {
			return nodes, nil
		}
		line := p.lines[p.pos]
		ind, err := p.indentOf(line, p.pos+1)
		if err != nil {
			return nil, err
		}
		if ind < indent {
			return nodes, nil
		}
		if ind > indent {
			return nil, p.errorf(p.pos+1, "unexpected indentation")
		}
		trimmed := line[ind:]
		if strings.HasPrefix(trimmed, "..") && !directiveRe.MatchString(trimmed) {
			// Comment line (`.. text` without `::`); skip it and its block.
			p.pos++
			p.skipDeeper(indent)
			continue
		}
		node, err := p.parseDirective(indent)
		if err != nil {
			return nil, err
		}
		if node != nil {
			nodes = append(nodes, node)
		}
	}
}

func (p *parser) parseDirective(indent int) (Node, error) {
	lineNo := p.pos + 1
	trimmed := p.lines[p.pos][indent:]
	m := directiveRe.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, p.errorf(lineNo, "expected a directive, got %q", strings.TrimSpace(trimmed))
	}
	name, arg := m[1], strings.TrimSpace(m[2])
	p.pos++

	bodyIndent, ok := p.peekBodyIndent(indent)
	if !ok {
		bodyIndent = -1 // empty body
	}

	switch name {
	case "toctree":
		if arg != "" {
			return nil, p.errorf(lineNo, "toctree takes no argument, got %q", arg)
		}
		return p.parseTocTree(lineNo, bodyIndent)
	case "sidebar-links":
		if arg != "" {
			return nil, p.errorf(lineNo, "sidebar-links takes no argument, got %q", arg)
		}
		return p.parseSidebarLinks(lineNo, bodyIndent)
	case "only":
		if arg == "" {
			return nil, p.errorf(lineNo, "only requires an output target argument")
		}
		block := &OnlyBlock{Target: arg, line: lineNo}
		if bodyIndent >= 0 {
			nodes, err := p.parseNodes(bodyIndent)
			if err != nil {
				return nil, err
			}
			block.Nodes = nodes
		}
		return block, nil
	case "include":
		if arg == "" {
			return nil, p.errorf(lineNo, "include requires a document path argument")
		}
		inc := &Include{Path: arg, line: lineNo}
		opts, content, err := p.parseBody(bodyIndent)
		if err != nil {
			return nil, err
		}
		for _, o := range opts {
			switch o.name {
			case "parser":
				inc.Parser = o.value
			default:
				return nil, p.errorf(o.line, "unknown include option :%s:", o.name)
			}
		}
		if len(content) > 0 {
			return nil, p.errorf(content[0].line, "include takes no content")
		}
		return inc, nil
	default:
		return nil, p.errorf(lineNo, "unknown directive %q", name)
	}
}

func (p *parser) parseTocTree(lineNo, bodyIndent int) (*TocTree, error) {
	t := &TocTree{line: lineNo}
	opts, content, err := p.parseBody(bodyIndent)
	if err != nil {
		return nil, err
	}
	for _, o := range opts {
		switch o.name {
		case "hidden":
			if o.value != "" {
				return nil, p.errorf(o.line, ":hidden: takes no value, got %q", o.value)
			}
			t.Hidden = true
		case "maxdepth":
			n, err := strconv.Atoi(o.value)
			if err != nil || n < 0 {
				return nil, p.errorf(o.line, ":maxdepth: requires a non-negative integer, got %q", o.value)
			}
			t.MaxDepth = n
			t.HasMaxDepth = true
		case "caption":
			t.Caption = o.value
		default:
			return nil, p.errorf(o.line, "unknown toctree option :%s:", o.name)
		}
	}
	for _, c := range content {
		ref, err := parseEntry(c.text)
		if err != nil {
			return nil, p.errorf(c.line, "%v", err)
		}
		ref.SourceLine = c.line
		t.Entries = append(t.Entries, ref)
	}
	return t, nil
}

func (p *parser) parseSidebarLinks(lineNo, bodyIndent int) (*SidebarLinks, error) {
	s := &SidebarLinks{line: lineNo}
	opts, content, err := p.parseBody(bodyIndent)
	if err != nil {
		return nil, err
	}
	for _, o := range opts {
		switch o.name {
		case "github":
			s.HasGitHub = true
			s.GitHub = o.value
		case "pypi":
			s.HasPyPI = true
			s.PyPI = o.value
		default:
			return nil, p.errorf(o.line, "unknown sidebar-links option :%s:", o.name)
		}
	}
	for _, c := range content {
		label, url, ok := splitTitled(c.text)
		if !ok || label == "" {
			return nil, p.errorf(c.line, "sidebar link must use the form %q, got %q", "Label <URL>", c.text)
		}
		s.Entries = append(s.Entries, LinkEntry{Label: label, URL: url, SourceLine: c.line})
	}
	return s, nil
}

type bodyLine struct {
	text string
	line int
}

// parseBody consumes a directive body at the given indentation: leading
// option lines, then content lines. A bodyIndent of -1 means the directive
// has no body.
func (p *parser) parseBody(bodyIndent int) ([]option, []bodyLine, error) {
	if bodyIndent < 0 {
		return nil, nil, nil
	}
	var opts []option
	var content []bodyLine
	inOptions := true
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if strings.TrimSpace(line) == "" {
			// A blank line ends the option field list.
			inOptions = false
			p.pos++
			continue
		}
		ind, err := p.indentOf(line, p.pos+1)
		if err != nil {
			return nil, nil, err
		}
		if ind < bodyIndent {
			break
		}
		text := strings.TrimSpace(line)
		if inOptions {
			if m := optionRe.FindStringSubmatch(text); m != nil {
				opts = append(opts, option{name: m[1], value: strings.TrimSpace(m[2]), line: p.pos + 1})
				p.pos++
				continue
			}
			inOptions = false
		}
		content = append(content, bodyLine{text: text, line: p.pos + 1})
		p.pos++
	}
	return opts, content, nil
}

// peekBodyIndent looks past blank lines for the first body line of a
// directive and reports its indentation. ok is false when the directive has
// no indented body.
func (p *parser) peekBodyIndent(directiveIndent int) (int, bool) {
	for i := p.pos; i < len(p.lines); i++ {
		if strings.TrimSpace(p.lines[i]) == "" {
			continue
		}
		ind, err := p.indentOf(p.lines[i], i+1)
		if err != nil || ind <= directiveIndent {
			return 0, false
		}
		return ind, true
	}
	return 0, false
}

func (p *parser) skipBlank() {
	for p.pos < len(p.lines) && strings.TrimSpace(p.lines[p.pos]) == "" {
		p.pos++
	}
}

// skipDeeper consumes lines indented deeper than indent (a comment block body).
func (p *parser) skipDeeper(indent int) {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if strings.TrimSpace(line) == "" {
			p.pos++
			continue
		}
		ind, err := p.indentOf(line, p.pos+1)
		if err != nil || ind <= indent {
			return
		}
		p.pos++
	}
}

func (p *parser) indentOf(line string, lineNo int) (int, error) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
		case '\t':
			return 0, p.errorf(lineNo, "tabs are not allowed in indentation")
		default:
			return i, nil
		}
	}
	return len(line), nil
}

// parseEntry parses a toctree entry: either a bare target or `Title <target>`.
func parseEntry(text string) (PageRef, error) {
	if title, target, ok := splitTitled(text); ok {
		if target == "" {
			return PageRef{}, fmt.Errorf("empty reference target in %q", text)
		}
		return PageRef{Title: title, Target: target}, nil
	}
	if strings.ContainsAny(text, "<>") {
		return PageRef{}, fmt.Errorf("malformed entry %q, expected %q or a bare identifier", text, "Title <target>")
	}
	if strings.ContainsAny(text, " \t") {
		return PageRef{}, fmt.Errorf("reference target %q must not contain whitespace", text)
	}
	return PageRef{Target: text}, nil
}

// splitTitled splits the `Title <target>` form. ok is false when text does
// not end with an angle-bracketed target.
func splitTitled(text string) (title, target string, ok bool) {
	if !strings.HasSuffix(text, ">") {
		return "", "", false
	}
	open := strings.LastIndex(text, "<")
	if open < 0 {
		return "", "", false
	}
	return strings.TrimSpace(text[:open]), strings.TrimSpace(text[open+1 : len(text)-1]), true
}

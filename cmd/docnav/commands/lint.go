package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/corpus"
	"git.home.luguber.info/inful/docnav/internal/descriptor"
	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/lint"
	"git.home.luguber.info/inful/docnav/internal/navtree"
	"git.home.luguber.info/inful/docnav/internal/retry"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Path     string `arg:"" optional:"" help:"Docs directory to lint (defaults to the configured docs dir)"`
	Format   string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Quiet    bool   `short:"q" help:"Quiet mode: only show errors, suppress warnings"`
	External bool   `short:"e" help:"Also verify external links (sidebar targets and document links)"`
}

func (l *LintCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if l.Path != "" {
		cfg.Docs.Dir = l.Path
	}

	desc, err := descriptor.ParseFile(cfg.DescriptorPath())
	if err != nil {
		return fmt.Errorf("parse descriptor: %w", err)
	}
	docs, err := corpus.Scan(cfg.Docs.Dir)
	if err != nil {
		return fmt.Errorf("scan docs: %w", err)
	}

	result := lint.Run(desc, docs, lint.Options{Target: cfg.Docs.Target})

	if l.External {
		checkExternalLinks(context.Background(), cfg, desc, docs, result)
	}

	formatter := lint.NewFormatter(l.Format, isColorSupported())
	if err := formatter.Format(os.Stdout, result, l.Quiet); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Exit codes: 2 blocks a build, 1 flags warnings for CI to surface.
	if result.HasErrors() {
		os.Exit(2)
	} else if result.HasWarnings() && !l.Quiet {
		os.Exit(1)
	}
	return nil
}

// checkExternalLinks verifies the descriptor's sidebar targets and every
// http(s) link in the documents, appending a warning per unreachable URL.
func checkExternalLinks(ctx context.Context, cfg *config.Config, desc *descriptor.Descriptor, docs *corpus.Corpus, result *lint.Result) {
	seen := make(map[string]struct{})
	var urls []string
	add := func(u string) {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	for _, link := range navtree.ResolveSidebar(desc.Sidebar(cfg.Docs.Target), cfg.Sidebar.GitHubSlug) {
		add(link.URL)
	}
	for _, doc := range docs.Documents() {
		for _, link := range doc.Links {
			add(link)
		}
	}
	if len(urls) == 0 {
		return
	}

	checker := linkcheck.New(linkcheck.Options{
		Timeout:         cfg.LinkCheck.RequestTimeout(),
		MaxConcurrent:   cfg.LinkCheck.MaxConcurrent,
		FollowRedirects: cfg.LinkCheck.FollowRedirects,
		MaxRedirects:    cfg.LinkCheck.MaxRedirects,
		Retry:           retry.DefaultPolicy(),
	})
	for _, broken := range linkcheck.Broken(checker.CheckURLs(ctx, urls)) {
		detail := broken.Error
		if detail == "" {
			detail = fmt.Sprintf("HTTP %d", broken.StatusCode)
		}
		result.Issues = append(result.Issues, lint.Issue{
			Path:     desc.Path,
			Severity: lint.SeverityWarning,
			Rule:     lint.RuleBrokenLink,
			Message:  fmt.Sprintf("external link %s is unreachable (%s)", broken.URL, detail),
		})
	}
}

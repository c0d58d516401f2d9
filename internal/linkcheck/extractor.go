package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractExternalLinks parses rendered HTML and returns the absolute
// http(s) anchor targets, in document order, deduplicated. Links on the
// site's own base URL are internal and skipped.
func ExtractExternalLinks(r io.Reader, baseURL string) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var baseHost string
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		baseHost = base.Host
	}

	seen := map[string]bool{}
	var links []string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				u, err := url.Parse(href)
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
					continue
				}
				if baseHost != "" && u.Host == baseHost {
					continue
				}
				if !seen[href] {
					seen[href] = true
					links = append(links, href)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return links, nil
}

// Package linkcheck verifies external links over HTTP: the sidebar targets a
// navigation descriptor declares, and any external anchors found in rendered
// output. Results never fail a build on their own; callers decide severity.
package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/docnav/internal/retry"
)

// Options tunes the checker. Zero values get sensible defaults.
type Options struct {
	Timeout         time.Duration // per-request timeout (default 10s)
	MaxConcurrent   int           // concurrent checks (default 10)
	FollowRedirects bool
	MaxRedirects    int // default 5, only used when FollowRedirects
	UserAgent       string
	Retry           retry.Policy // backoff for transient failures (default: no retries)
}

// Result is the outcome of one URL check.
type Result struct {
	URL        string `json:"url"`
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Checker performs bounded-concurrency link verification.
type Checker struct {
	client *http.Client
	sem    chan struct{}
	agent  string
	policy retry.Policy
}

// New builds a Checker. The HTTP transport honors the standard proxy
// environment variables.
func New(opts Options) *Checker {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 5
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "docnav-linkcheck"
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !opts.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= opts.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", opts.MaxRedirects)
			}
			return nil
		},
	}

	return &Checker{
		client: client,
		sem:    make(chan struct{}, opts.MaxConcurrent),
		agent:  opts.UserAgent,
		policy: opts.Retry,
	}
}

// CheckURLs verifies each URL. The returned slice preserves input order.
func (c *Checker) CheckURLs(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			select {
			case c.sem <- struct{}{}:
				defer func() { <-c.sem }()
			case <-ctx.Done():
				results[i] = Result{URL: u, Error: ctx.Err().Error()}
				return
			}
			results[i] = c.check(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

// check issues a HEAD request, falling back to GET for servers that reject
// HEAD (405 or 501). Transient failures are retried per the configured
// backoff policy.
func (c *Checker) check(ctx context.Context, url string) Result {
	res := c.checkOnce(ctx, url)
	for attempt := 1; attempt <= c.policy.MaxRetries && transient(res); attempt++ {
		select {
		case <-time.After(c.policy.Delay(attempt)):
		case <-ctx.Done():
			return res
		}
		res = c.checkOnce(ctx, url)
	}
	return res
}

func (c *Checker) checkOnce(ctx context.Context, url string) Result {
	res := c.request(ctx, http.MethodHead, url)
	if res.StatusCode == http.StatusMethodNotAllowed || res.StatusCode == http.StatusNotImplemented {
		res = c.request(ctx, http.MethodGet, url)
	}
	return res
}

// transient reports whether a failure is worth retrying: connection errors,
// rate limiting, and upstream gateway failures.
func transient(res Result) bool {
	if res.OK {
		return false
	}
	if res.StatusCode == 0 {
		return true
	}
	switch res.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Checker) request(ctx context.Context, method, url string) Result {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return Result{URL: url, Error: err.Error()}
	}
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{URL: url, Error: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	ok := resp.StatusCode < 400
	// Redirects left unfollowed still prove the link resolves.
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		ok = true
	}
	return Result{URL: url, OK: ok, StatusCode: resp.StatusCode}
}

// Broken filters results down to failures.
func Broken(results []Result) []Result {
	var broken []Result
	for _, r := range results {
		if !r.OK {
			broken = append(broken, r)
		}
	}
	return broken
}

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/attrib/internal/worker"
	"golang.org/x/net/html"
)

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Page is the text content of a fetched context page
type Page struct {
	URL         string
	FinalURL    string
	Title       string
	ContentType string
	Text        string
}

// Fetcher downloads context pages and reduces them to plain text
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter // optional
	robots     *RobotsChecker  // optional
}

// NewFetcher creates a new Fetcher. limiter and robots may be nil.
func NewFetcher(httpClient *http.Client, userAgent string, maxBytes int64, limiter *worker.Limiter, robots *RobotsChecker) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		limiter:    limiter,
		robots:     robots,
	}
}

// Fetch retrieves a page. HTML is reduced to its visible text with one line
// per block element; text/plain and JSON bodies are returned verbatim.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid context URL %q", rawURL)
	}

	if err := f.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,application/json;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}

	mediaType, _, _ := mime.ParseMediaType(page.ContentType)
	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml" || (mediaType == "" && looksLikeHTML(body)):
		doc, err := html.Parse(strings.NewReader(string(body)))
		if err != nil {
			return nil, fmt.Errorf("parse HTML: %w", err)
		}
		page.Title = findTitle(doc)
		page.Text = visibleText(doc)
	default:
		page.Text = string(body)
	}

	if page.Title == "" {
		page.Title = subjectFromURL(page.FinalURL)
	}

	return page, nil
}

// wait applies robots.txt and the per-host rate limit
func (f *Fetcher) wait(ctx context.Context, rawURL string) error {
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		if f.limiter != nil {
			return f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay)
		}
	}

	if f.limiter != nil {
		return f.limiter.Wait(ctx, rawURL)
	}
	return nil
}

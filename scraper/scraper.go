// Package scraper extracts a readable excerpt from the article a post links to.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"hn-sentiment/thread"
)

const (
	// MaxExcerptLength caps the excerpt in characters.
	MaxExcerptLength = 4000
	maxBodyBytes     = 4 << 20
	userAgent        = "hn-sentiment/1.0 (+https://news.ycombinator.com)"
)

// ErrUnsupportedContent is returned for responses that are not HTML.
var ErrUnsupportedContent = errors.New("unsupported content type")

// Scraper fetches article text for the sentiment question prompt.
type Scraper interface {
	Excerpt(ctx context.Context, rawURL string) (string, error)
}

type httpScraper struct {
	client *http.Client
}

// NewScraper creates a new Scraper with the given timeout for HTTP requests.
func NewScraper(timeout time.Duration) Scraper {
	return &httpScraper{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewScraperWithClient creates a new Scraper with a custom HTTP client (for testing).
func NewScraperWithClient(client *http.Client) Scraper {
	return &httpScraper{
		client: client,
	}
}

// Excerpt fetches rawURL and returns its main text with whitespace
// collapsed, truncated to MaxExcerptLength characters.
func (s *httpScraper) Excerpt(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return "", fmt.Errorf("invalid article URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating scrape request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scraping %s returned status %d", rawURL, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("scraping %s: %w: %s", rawURL, ErrUnsupportedContent, ct)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxBodyBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("extracting content from %s: %w", rawURL, err)
	}

	content := strings.Join(strings.Fields(article.TextContent), " ")
	return thread.Truncate(content, MaxExcerptLength), nil
}

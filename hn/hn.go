package hn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const BaseURL = "https://hacker-news.firebaseio.com"

// ErrNotFound is returned when the API has no record for an item.
var ErrNotFound = errors.New("item not found")

var itemFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hnsentiment_item_fetches_total",
	Help: "Hacker News item fetches by result",
}, []string{"result"})

// Item represents a Hacker News item.
type Item struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Text        string `json:"text"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Kids        []int  `json:"kids"`
	Parent      int    `json:"parent"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// Client interface for HN API operations.
type Client interface {
	GetItem(ctx context.Context, id int) (*Item, error)
}

type httpClient struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*httpClient)

// WithBaseURL points the client at a different API host (for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) {
		c.baseURL = baseURL
	}
}

// WithRateLimit caps item requests per second. Zero or less disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a new HN API client with the given HTTP client.
func NewClient(client *http.Client, opts ...Option) Client {
	if client == nil {
		client = http.DefaultClient
	}
	c := &httpClient{
		client:  client,
		baseURL: BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetItem fetches a single HN item by ID. A JSON null body or a 404 is
// reported as ErrNotFound.
func (c *httpClient) GetItem(ctx context.Context, id int) (*Item, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	url := fmt.Sprintf("%s/v0/item/%d.json", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating item request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		itemFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetching item %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		itemFetches.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		itemFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("item %d returned status %d", id, resp.StatusCode)
	}

	var item *Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		itemFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decoding item %d: %w", id, err)
	}
	if item == nil {
		itemFetches.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}

	itemFetches.WithLabelValues("ok").Inc()
	return item, nil
}

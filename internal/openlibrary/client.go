// Package openlibrary provides a client for the OpenLibrary search and
// works APIs.
package openlibrary

import (
	"net/http"
	"time"

	"github.com/lepinkainen/bookshelf/internal/cache"
	"github.com/lepinkainen/bookshelf/internal/config"
	"github.com/lepinkainen/bookshelf/internal/ratelimit"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is an OpenLibrary API client.
type Client struct {
	searchURL   string
	worksURL    string
	coversURL   string
	siteURL     string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
	cache       *cache.CacheDB
}

// NewClient creates a client for the endpoints in cfg.
func NewClient(cfg config.OpenLibraryConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		searchURL:   cfg.SearchURL,
		worksURL:    cfg.WorksURL,
		coversURL:   cfg.CoversURL,
		siteURL:     cfg.SiteURL,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: ratelimit.New("OpenLibrary", cfg.RequestsPerSecond),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// WithCache stores search and work responses in c. A nil cache disables caching.
func WithCache(c *cache.CacheDB) Option {
	return func(client *Client) {
		client.cache = c
	}
}

func (c *Client) cacheTTL() time.Duration {
	if c.cache == nil {
		return cache.DefaultCacheTTL
	}
	return c.cache.TTL()
}

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client is a throttled HTTP client for fetching and parsing public pages.
// A buffered channel caps in-flight requests so batch jobs do not hammer
// target sites.
type Client struct {
	httpClient *http.Client
	semaphore  chan struct{}
	delay      time.Duration
	userAgent  string
	retries    int
}

// Option configures a Client
type Option func(*Client)

// WithDelay sets the pause after each request
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithRetries sets how many attempts are made per URL
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client allowing at most maxConcurrency in-flight requests
func New(maxConcurrency int, opts ...Option) *Client {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		semaphore: make(chan struct{}, maxConcurrency),
		userAgent: defaultUserAgent,
		retries:   3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a URL and returns the raw body. Transient failures are
// retried with a one second pause between attempts.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http") {
		return nil, fmt.Errorf("invalid URL: %q", url)
	}

	select {
	case c.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.semaphore }()

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(1 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.getOnce(ctx, url)
		if err == nil {
			if c.delay > 0 {
				time.Sleep(c.delay)
			}
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.retries, lastErr)
}

// GetDocument fetches a URL and parses the body with goquery
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML content: %w", err)
	}
	return doc, nil
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	return body, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

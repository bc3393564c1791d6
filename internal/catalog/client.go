// Package catalog talks to the bibliographic API: a cached HTTP client
// and the multi-query lookup strategy built on top of it.
package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/joemull/ebook-ident/internal/cache"
)

// apiKeyParam is the query parameter carrying the API key. It is sent on
// the wire but excluded from request signatures.
const apiKeyParam = "key"

// Client issues catalog API requests through the request cache.
type Client struct {
	BaseURL    string
	APIKey     string
	Requests   *cache.RequestCache
	httpClient *http.Client
}

// NewClient creates a catalog client. All requests are routed through the
// request cache and share a single timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, requests *cache.RequestCache) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Requests: requests,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch returns the response body for the given query parameters, from
// cache when possible. Transport errors, timeouts, and non-200 statuses
// all yield an empty body; a 403 additionally means the API limit was
// reached. Only 200 responses are cached.
func (c *Client) Fetch(ctx context.Context, params map[string]string) string {
	sig := cache.Signature(c.BaseURL, params, apiKeyParam)
	return c.Requests.Do(sig, func() (string, bool) {
		return c.get(ctx, params)
	})
}

func (c *Client) get(ctx context.Context, params map[string]string) (string, bool) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		slog.Error("invalid catalog base URL", "url", c.BaseURL, "err", err)
		return "", false
	}

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	if c.APIKey != "" {
		q.Set(apiKeyParam, c.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		slog.Error("failed to build catalog request", "err", err)
		return "", false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("catalog request failed", "err", err)
		return "", false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		slog.Warn("reached API limit", "status", resp.StatusCode)
		return "", false
	case resp.StatusCode != http.StatusOK:
		slog.Warn("received irregular status code", "status", resp.StatusCode)
		return "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("failed to read catalog response", "err", err)
		return "", false
	}
	return string(body), true
}

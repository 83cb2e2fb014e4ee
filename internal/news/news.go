// Package news fetches recent headlines for a ticker from NewsAPI.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"StockLens/internal/model"
)

const (
	defaultBaseURL = "https://newsapi.org"
	DefaultLimit   = 5
)

// Article is one headline as returned by the everything endpoint.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// Client queries NewsAPI.
type Client struct {
	BaseURL string
	APIKey  string
	Limit   int
	Client  *http.Client
}

// NewClient creates a client with optional proxy support.
func NewClient(baseURL, apiKey string, limit int, proxyURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Limit:   limit,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Headlines returns the newest articles mentioning symbol, at most Limit of
// them. Any failure yields an empty slice together with the error.
func (c *Client) Headlines(ctx context.Context, symbol model.Symbol) ([]Article, error) {
	if c.APIKey == "" {
		return []Article{}, fmt.Errorf("news: api key not configured")
	}
	q := url.Values{}
	q.Set("q", string(symbol))
	q.Set("sortBy", "publishedAt")
	reqURL := c.BaseURL + "/v2/everything?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return []Article{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "StockLens/1.0")
	// kept out of the URL so transport errors never echo it
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return []Article{}, fmt.Errorf("fetch news %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []Article{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return []Article{}, fmt.Errorf("newsapi error: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}

	var payload struct {
		Status   string    `json:"status"`
		Articles []Article `json:"articles"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return []Article{}, fmt.Errorf("decode news: %w: %w", model.ErrMalformedInput, err)
	}

	limit := c.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(payload.Articles) > limit {
		payload.Articles = payload.Articles[:limit]
	}
	if payload.Articles == nil {
		payload.Articles = []Article{}
	}
	return payload.Articles, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

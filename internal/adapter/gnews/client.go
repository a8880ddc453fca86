// Package gnews searches the GNews API for recent articles.
package gnews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/supply-map-service/internal/domain"
	"golang.org/x/time/rate"
)

// ErrNoAPIKey is returned by Search when the client has no API key.
var ErrNoAPIKey = errors.New("gnews API key not configured")

const maxArticles = 3

// Client searches GNews, issuing at most one request per second.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a GNews client.
func NewClient(apiKey, endpoint string, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		logger:     logger,
	}
}

// Search returns up to three of the newest English articles matching query.
// A non-200 reply from GNews is logged and yields no articles.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Article, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gnews rate limit: %w", err)
	}

	params := url.Values{
		"q":      {query},
		"token":  {c.apiKey},
		"lang":   {"en"},
		"sortby": {"publishedAt"},
		"max":    {fmt.Sprint(maxArticles)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gnews request: %w", err)
	}
	defer resp.Body.Close()

	// An API-side refusal (quota, bad key, outage) reads as no news.
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("gnews API error", "status", resp.StatusCode, "body", string(body), "query", query)
		return []domain.Article{}, nil
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	articles := make([]domain.Article, 0, len(sr.Articles))
	for _, a := range sr.Articles {
		articles = append(articles, domain.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Source:      a.Source.Name,
		})
	}
	c.logger.Debug("news search complete", "query", query, "articles", len(articles))
	return articles, nil
}

// GNews API response types.

type searchResponse struct {
	TotalArticles int       `json:"totalArticles"`
	Articles      []article `json:"articles"`
}

type article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

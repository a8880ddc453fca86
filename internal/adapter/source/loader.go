// Package source fetches JSON documents from a local file or an http(s) URL.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Loader fetches one configured document. Fetches are not retried and the
// HTTP client has no timeout of its own; callers bound them with ctx.
type Loader struct {
	location   string
	httpClient *http.Client
}

// NewLoader creates a Loader for a file path or http(s) URL.
func NewLoader(location string) *Loader {
	return &Loader{location: location, httpClient: &http.Client{}}
}

// NewLoaderWithClient is NewLoader with a caller-supplied HTTP client.
func NewLoaderWithClient(location string, client *http.Client) *Loader {
	return &Loader{location: location, httpClient: client}
}

// Location returns the configured path or URL.
func (l *Loader) Location() string {
	return l.location
}

// Fetch returns the raw document bytes.
func (l *Loader) Fetch(ctx context.Context) ([]byte, error) {
	if isURL(l.location) {
		return l.fetchURL(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.location)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.location, err)
	}
	return data, nil
}

func (l *Loader) fetchURL(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", l.location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", l.location, resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func isURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

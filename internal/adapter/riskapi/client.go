// Package riskapi calls the supplier risk analysis backend.
package riskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/supply-map-service/internal/domain"
)

// Client posts suppliers to the risk analysis endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a risk analysis client for the given endpoint URL.
func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{url: url, httpClient: &http.Client{}, logger: logger}
}

// AnalyzeSupplier sends one supplier for analysis and returns the response
// body unchanged. A non-2xx status or a body that is not JSON is an error.
func (c *Client) AnalyzeSupplier(ctx context.Context, in domain.RiskAnalysisRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode risk request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("risk analysis request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("risk API error: status %d: %s", resp.StatusCode, body)
	}
	if !json.Valid(body) {
		return nil, errors.New("risk API returned invalid JSON")
	}

	c.logger.Debug("risk analysis complete", "supplier", in.SupplierName, "state", in.State)
	return json.RawMessage(body), nil
}

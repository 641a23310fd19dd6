// Package interpret calls the external interpretation service that narrates
// engine outputs. Any failure is returned as an error; the caller falls back
// to the deterministic template in the domain package.
package interpret

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/land-risk-service/internal/domain"
)

// Client implements domain.Interpreter against the interpretation HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// NewClient creates an interpretation client. token may be empty; when set it
// is sent as a bearer Authorization header.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		logger:     logger,
	}
}

// Interpret posts the engine outputs and returns the service's narrative.
func (c *Client) Interpret(ctx context.Context, req domain.InterpretRequest) (domain.InterpretationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.InterpretationResult{}, fmt.Errorf("serialize interpret request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interpret", bytes.NewReader(body))
	if err != nil {
		return domain.InterpretationResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.InterpretationResult{}, fmt.Errorf("interpret request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return domain.InterpretationResult{}, fmt.Errorf("interpret API error: status %d: %s", resp.StatusCode, respBody)
	}

	var result domain.InterpretationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.InterpretationResult{}, fmt.Errorf("decode response: %w", err)
	}

	result.Source = domain.InterpretationExternal
	return result, nil
}

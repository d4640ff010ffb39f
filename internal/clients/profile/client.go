package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/clients/parking"
)

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SearchEntry is one recorded destination search in a user's history
type SearchEntry struct {
	Query      string       `json:"query"`
	Lot        *parking.Lot `json:"lot,omitempty"`
	RecordedAt time.Time    `json:"recorded_at"`
	SessionID  string       `json:"session_id,omitempty"`
	DistanceKM float64      `json:"distance_km,omitempty"`
}

// Client talks to the profile backend that stores per-user search history.
// The caller's bearer token is passed through unchanged; the backend owns
// identity and authorization.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
}

// NewClient creates a profile backend client
func NewClient(baseURL string) *Client {
	return NewClientWithHTTPDoer(baseURL, &http.Client{
		Timeout: 10 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation,
// used by tests to inject mock responses.
func NewClientWithHTTPDoer(baseURL string, httpClient HTTPDoer) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// RecordSearch appends one entry to the user's search history
func (c *Client) RecordSearch(ctx context.Context, token string, entry SearchEntry) error {
	jsonBody, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal search entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/profile/searches", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("profile API error %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// ListSearches returns the user's search history, most recent first
func (c *Client) ListSearches(ctx context.Context, token string) ([]SearchEntry, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/profile/searches", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("profile API error %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Searches []SearchEntry `json:"searches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return response.Searches, nil
}

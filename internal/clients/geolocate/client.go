package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
)

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the Google Geolocation API, used to place the
// user on the map when no explicit origin is given.
type Client struct {
	apiKey     string
	httpClient HTTPDoer
	baseURL    string
}

// NewClient creates a new Geolocation API client
func NewClient(apiKey string) *Client {
	return NewClientWithHTTPDoer(apiKey, "https://www.googleapis.com", &http.Client{
		Timeout: 10 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation,
// used by tests to inject mock responses.
func NewClientWithHTTPDoer(apiKey, baseURL string, httpClient HTTPDoer) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// CurrentLocation estimates the device position. Callers are expected to
// fall back to a configured default location when this fails.
func (c *Client) CurrentLocation(ctx context.Context) (geo.Point, error) {
	requestURL := fmt.Sprintf("%s/geolocation/v1/geolocate?key=%s", c.baseURL, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "POST", requestURL, strings.NewReader("{}"))
	if err != nil {
		return geo.Point{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return geo.Point{}, fmt.Errorf("geolocation API error %d: %s", resp.StatusCode, string(body))
	}

	var response geolocateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return geo.Point{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return geo.Point{
		Latitude:  response.Location.Lat,
		Longitude: response.Location.Lng,
	}, nil
}

// geolocateResponse represents the Geolocation API response
type geolocateResponse struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/routing"
)

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to Google Routes API v2
type Client struct {
	apiKey     string
	httpClient HTTPDoer
	baseURL    string
	geoUtils   geo.GeoUtils
}

// NewClient creates a new Google Routes API client
func NewClient(apiKey string) *Client {
	return NewClientWithHTTPDoer(apiKey, "https://routes.googleapis.com", &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation,
// used by tests to inject mock responses.
func NewClientWithHTTPDoer(apiKey, baseURL string, httpClient HTTPDoer) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		geoUtils:   geo.NewGeoUtils(),
	}
}

// ComputeRoute requests a driving route between two coordinates and converts
// the response into a fully decoded routing.Route: overview path, per-step
// geometry, instructions, and localized distance/duration text.
func (c *Client) ComputeRoute(ctx context.Context, origin, destination geo.Point) (*routing.Route, error) {
	requestBody := map[string]interface{}{
		"origin": map[string]interface{}{
			"location": map[string]interface{}{
				"latLng": map[string]interface{}{
					"latitude":  origin.Latitude,
					"longitude": origin.Longitude,
				},
			},
		},
		"destination": map[string]interface{}{
			"location": map[string]interface{}{
				"latLng": map[string]interface{}{
					"latitude":  destination.Latitude,
					"longitude": destination.Longitude,
				},
			},
		},
		"travelMode":        "DRIVE",
		"routingPreference": "TRAFFIC_AWARE",
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/directions/v2:computeRoutes", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Field mask is REQUIRED or the API rejects the request
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", routeFieldMask)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		return nil, fmt.Errorf("rate limit exceeded (3K QPM)")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var response RoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Routes) == 0 {
		return nil, fmt.Errorf("no routes found in response")
	}

	return c.processRouteResponse(response.Routes[0], origin, destination)
}

const routeFieldMask = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline," +
	"routes.localizedValues,routes.description," +
	"routes.legs.steps.navigationInstruction,routes.legs.steps.localizedValues," +
	"routes.legs.steps.polyline.encodedPolyline"

// processRouteResponse converts a Routes API route into our routing.Route,
// decoding the overview polyline and every step polyline.
func (c *Client) processRouteResponse(route RouteResult, origin, destination geo.Point) (*routing.Route, error) {
	overview, err := c.geoUtils.DecodePolyline(route.Polyline.EncodedPolyline)
	if err != nil {
		return nil, fmt.Errorf("failed to decode overview polyline: %w", err)
	}

	durationSeconds, err := parseDuration(route.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}

	durationText := route.LocalizedValues.Duration.Text
	if durationText == "" {
		durationText = fmt.Sprintf("%d mins", (durationSeconds+59)/60)
	}
	distanceText := route.LocalizedValues.Distance.Text
	if distanceText == "" {
		distanceText = fmt.Sprintf("%.1f km", float64(route.DistanceMeters)/1000)
	}

	var steps []routing.RouteStep
	for _, leg := range route.Legs {
		for _, step := range leg.Steps {
			path, err := c.geoUtils.DecodePolyline(step.Polyline.EncodedPolyline)
			if err != nil {
				return nil, fmt.Errorf("failed to decode step %d polyline: %w", len(steps), err)
			}
			steps = append(steps, routing.RouteStep{
				Index:        len(steps), // Dense 0-based indices across all legs
				Instruction:  step.NavigationInstruction.Instructions,
				DistanceText: step.LocalizedValues.Distance.Text,
				Path:         path,
			})
		}
	}

	result := &routing.Route{
		ID:           fmt.Sprintf("%.6f,%.6f:%.6f,%.6f", origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude),
		Summary:      route.Description,
		Origin:       origin,
		Destination:  destination,
		OverviewPath: overview,
		Steps:        steps,
		DistanceText: distanceText,
		DurationText: durationText,
	}

	if err := routing.ValidateRoute(*result); err != nil {
		return nil, fmt.Errorf("route response unusable: %w", err)
	}
	return result, nil
}

// parseDuration parses Google's duration format like "450s" to seconds
func parseDuration(durationStr string) (int32, error) {
	if durationStr == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	if len(durationStr) > 1 && durationStr[len(durationStr)-1] == 's' {
		durationStr = durationStr[:len(durationStr)-1]
	}

	var seconds int32
	_, err := fmt.Sscanf(durationStr, "%d", &seconds)
	return seconds, err
}

// RoutesResponse represents the API response structure
type RoutesResponse struct {
	Routes []RouteResult `json:"routes"`
}

// RouteResult represents a single route in the response
type RouteResult struct {
	Duration        string          `json:"duration"`
	DistanceMeters  int32           `json:"distanceMeters"`
	Description     string          `json:"description"`
	Polyline        RoutePolyline   `json:"polyline"`
	LocalizedValues LocalizedValues `json:"localizedValues"`
	Legs            []RouteLeg      `json:"legs"`
}

// RoutePolyline represents an encoded polyline
type RoutePolyline struct {
	EncodedPolyline string `json:"encodedPolyline"`
}

// LocalizedValues carries display-ready distance and duration strings
type LocalizedValues struct {
	Distance LocalizedText `json:"distance"`
	Duration LocalizedText `json:"duration"`
}

// LocalizedText is a single localized display string
type LocalizedText struct {
	Text string `json:"text"`
}

// RouteLeg represents one leg of the route
type RouteLeg struct {
	Steps []RouteLegStep `json:"steps"`
}

// RouteLegStep represents one navigation step within a leg
type RouteLegStep struct {
	NavigationInstruction NavigationInstruction `json:"navigationInstruction"`
	LocalizedValues       LocalizedValues       `json:"localizedValues"`
	Polyline              RoutePolyline         `json:"polyline"`
}

// NavigationInstruction carries the maneuver text for a step
type NavigationInstruction struct {
	Maneuver     string `json:"maneuver"`
	Instructions string `json:"instructions"`
}

package parking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
)

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Lot is one parking lot with its live occupancy counts
type Lot struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Location       geo.Point `json:"location"`
	TotalSpots     int       `json:"total_spots"`
	AvailableSpots int       `json:"available_spots"`
	OccupiedSpots  int       `json:"occupied_spots"`
	OccupancyRate  float64   `json:"occupancy_rate"`
	LastUpdated    time.Time `json:"last_updated"`
}

// DetectionResult is the outcome of running car detection on one video frame
type DetectionResult struct {
	CarCount int `json:"car_count"`
}

// Client talks to the parking status backend, which serves lot occupancy
// derived from its camera detection pipeline.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
}

// NewClient creates a parking backend client
func NewClient(baseURL string) *Client {
	return NewClientWithHTTPDoer(baseURL, &http.Client{
		Timeout: 30 * time.Second,
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

// GetParkingStatus retrieves current occupancy for every monitored lot
func (c *Client) GetParkingStatus(ctx context.Context) ([]Lot, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/parking-status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("parking API error %d: %s", resp.StatusCode, string(body))
	}

	var response parkingStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("parking API reported failure")
	}

	lots := make([]Lot, 0, len(response.ParkingLots))
	for _, raw := range response.ParkingLots {
		lots = append(lots, processLot(raw))
	}
	return lots, nil
}

// DetectCars asks the backend to run its detector against one frame of a
// lot camera feed and returns the number of cars seen.
func (c *Client) DetectCars(ctx context.Context, videoFilename string, frameNumber int) (*DetectionResult, error) {
	requestBody := map[string]interface{}{
		"video_filename": videoFilename,
		"frame_number":   frameNumber,
	}
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/video/detect-cars", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("detection API error %d: %s", resp.StatusCode, string(body))
	}

	var response detectCarsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("detection failed: %s", response.Error)
	}

	return &DetectionResult{CarCount: response.CarCount}, nil
}

// processLot converts a backend lot record to our Lot format. The backend
// reports occupancy_rate as a percentage.
func processLot(raw parkingLotRecord) Lot {
	lastUpdated, _ := time.Parse(time.RFC3339, raw.LastUpdated)
	return Lot{
		ID:   raw.ID,
		Name: raw.Name,
		Location: geo.Point{
			Latitude:  raw.Location.Lat,
			Longitude: raw.Location.Lng,
		},
		TotalSpots:     raw.TotalSpots,
		AvailableSpots: raw.AvailableSpots,
		OccupiedSpots:  raw.OccupiedSpots,
		OccupancyRate:  raw.OccupancyRate,
		LastUpdated:    lastUpdated,
	}
}

// parkingStatusResponse represents the /api/parking-status response
type parkingStatusResponse struct {
	Success     bool               `json:"success"`
	ParkingLots []parkingLotRecord `json:"parking_lots"`
}

// parkingLotRecord represents one lot in the backend response
type parkingLotRecord struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Location       parkingLotLatLng  `json:"location"`
	TotalSpots     int               `json:"total_spots"`
	AvailableSpots int               `json:"available_spots"`
	OccupiedSpots  int               `json:"occupied_spots"`
	OccupancyRate  float64           `json:"occupancy_rate"`
	LastUpdated    string            `json:"last_updated"`
}

// parkingLotLatLng represents coordinates in the backend response
type parkingLotLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// detectCarsResponse represents the /api/video/detect-cars response
type detectCarsResponse struct {
	Success  bool   `json:"success"`
	CarCount int    `json:"car_count"`
	Error    string `json:"error,omitempty"`
}

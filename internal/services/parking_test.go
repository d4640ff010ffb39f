package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TalhaAWOL/Spot-Smart/internal/cache"
	"github.com/TalhaAWOL/Spot-Smart/internal/clients/parking"
	"github.com/TalhaAWOL/Spot-Smart/internal/config"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/occupancy"
)

// MockParkingClient is a mock implementation of ParkingStatusClient
type MockParkingClient struct {
	mock.Mock
}

func (m *MockParkingClient) GetParkingStatus(ctx context.Context) ([]parking.Lot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]parking.Lot), args.Error(1)
}

func (m *MockParkingClient) DetectCars(ctx context.Context, videoFilename string, frameNumber int) (*parking.DetectionResult, error) {
	args := m.Called(ctx, videoFilename, frameNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parking.DetectionResult), args.Error(1)
}

// MockSummarizer is a mock implementation of occupancy.Summarizer
type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, raw occupancy.RawOccupancy) (occupancy.Summary, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(occupancy.Summary), args.Error(1)
}

func (m *MockSummarizer) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testLots() []parking.Lot {
	return []parking.Lot{
		{
			ID:             "lot_1",
			Name:           "Lot 1 - Main Entrance",
			Location:       geo.Point{Latitude: 43.4691, Longitude: -79.6986},
			TotalSpots:     120,
			AvailableSpots: 45,
			OccupiedSpots:  75,
			OccupancyRate:  62.5,
			LastUpdated:    time.Now(),
		},
		{
			ID:             "lot_2",
			Name:           "Lot 2 - Athletics Centre",
			Location:       geo.Point{Latitude: 43.4702, Longitude: -79.7011},
			TotalSpots:     80,
			AvailableSpots: 0,
			OccupiedSpots:  80,
			OccupancyRate:  100.0,
			LastUpdated:    time.Now(),
		},
	}
}

func testParkingConfig(refreshInterval time.Duration) *config.ParkingConfig {
	return &config.ParkingConfig{
		BaseURL:         "http://localhost:8000",
		RefreshInterval: refreshInterval,
		StaleThreshold:  refreshInterval,
		OccupancyTTL:    time.Hour,
		Cameras:         map[string]string{"lot_1": "parking_lot.mp4"},
	}
}

func TestListLots_ServesFromCacheWhileFresh(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("GetParkingStatus", mock.Anything).Return(testLots(), nil).Once()

	service := NewParkingService(mockClient, nil, cache.NewCache(), testParkingConfig(time.Hour))

	lots, _, err := service.ListLots(context.Background())
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "lot_1", lots[0].ID, "Lots should be sorted by ID")

	// Second call must come from cache, not the backend
	lots, _, err = service.ListLots(context.Background())
	require.NoError(t, err)
	assert.Len(t, lots, 2)

	mockClient.AssertExpectations(t)
	mockClient.AssertNumberOfCalls(t, "GetParkingStatus", 1)
}

func TestListLots_StaleFallbackOnRefreshFailure(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("GetParkingStatus", mock.Anything).Return(testLots(), nil).Once()
	mockClient.On("GetParkingStatus", mock.Anything).Return(nil, errors.New("backend down"))

	service := NewParkingService(mockClient, nil, cache.NewCache(), testParkingConfig(40*time.Millisecond))

	_, _, err := service.ListLots(context.Background())
	require.NoError(t, err)

	// Stale but within the grace window: refresh fails, cached data is served
	time.Sleep(50 * time.Millisecond)
	lots, _, err := service.ListLots(context.Background())
	require.NoError(t, err)
	assert.Len(t, lots, 2)

	// Beyond the grace window: failure surfaces
	time.Sleep(50 * time.Millisecond)
	_, _, err = service.ListLots(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to refresh lot data")
}

func TestGetLot(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("GetParkingStatus", mock.Anything).Return(testLots(), nil)

	service := NewParkingService(mockClient, nil, cache.NewCache(), testParkingConfig(time.Hour))

	lot, err := service.GetLot(context.Background(), "lot_2")
	require.NoError(t, err)
	assert.Equal(t, "Lot 2 - Athletics Centre", lot.Name)

	_, err = service.GetLot(context.Background(), "lot_99")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "lot not found")
}

func TestLotsNear_FiltersAndSortsByDistance(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("GetParkingStatus", mock.Anything).Return(testLots(), nil)

	service := NewParkingService(mockClient, nil, cache.NewCache(), testParkingConfig(time.Hour))

	// Position near lot_2
	position := geo.Point{Latitude: 43.4703, Longitude: -79.7010}

	lots, err := service.LotsNear(context.Background(), position, 5000)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "lot_2", lots[0].ID, "Nearest lot should come first")

	// A tight radius excludes the farther lot
	lots, err = service.LotsNear(context.Background(), position, 100)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "lot_2", lots[0].ID)
}

func TestLotOccupancy_FallbackWithoutSummarizer(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("GetParkingStatus", mock.Anything).Return(testLots(), nil)

	service := NewParkingService(mockClient, nil, cache.NewCache(), testParkingConfig(time.Hour))

	details, err := service.LotOccupancy(context.Background(), "lot_1")
	require.NoError(t, err)
	assert.Equal(t, "plenty", details.Summary.Availability)
	assert.Equal(t, "45 of 120 spots free", details.Summary.Headline)
}

func TestLotOccupancy_SummaryCachedByContent(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("GetParkingStatus", mock.Anything).Return(testLots(), nil)

	summary := occupancy.Summary{
		LotID:        "lot_1",
		Availability: "plenty",
		Headline:     "Lots of room in Lot 1",
		Advice:       "Park close to the main entrance.",
	}
	mockSummarizer := &MockSummarizer{}
	mockSummarizer.On("Summarize", mock.Anything, mock.Anything).Return(summary, nil).Once()

	service := NewParkingService(mockClient, mockSummarizer, cache.NewCache(), testParkingConfig(time.Hour))

	first, err := service.LotOccupancy(context.Background(), "lot_1")
	require.NoError(t, err)
	assert.Equal(t, "Lots of room in Lot 1", first.Summary.Headline)

	// Same counts: the cached summary is served without another API call
	second, err := service.LotOccupancy(context.Background(), "lot_1")
	require.NoError(t, err)
	assert.Equal(t, first.Summary.Headline, second.Summary.Headline)

	mockSummarizer.AssertNumberOfCalls(t, "Summarize", 1)
}

func TestLotOccupancy_FallbackWhenSummarizerFails(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("GetParkingStatus", mock.Anything).Return(testLots(), nil)

	mockSummarizer := &MockSummarizer{}
	mockSummarizer.On("Summarize", mock.Anything, mock.Anything).Return(occupancy.Summary{}, errors.New("quota exceeded"))

	service := NewParkingService(mockClient, mockSummarizer, cache.NewCache(), testParkingConfig(time.Hour))

	details, err := service.LotOccupancy(context.Background(), "lot_2")
	require.NoError(t, err)
	assert.Equal(t, "full", details.Summary.Availability)
	assert.Equal(t, "0 of 80 spots free", details.Summary.Headline)
}

func TestRefreshDetections(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("DetectCars", mock.Anything, "parking_lot.mp4", 0).Return(
		&parking.DetectionResult{CarCount: 33}, nil)

	service := NewParkingService(mockClient, nil, cache.NewCache(), testParkingConfig(time.Hour))

	counts, err := service.RefreshDetections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 33, counts["lot_1"])

	mockClient.AssertExpectations(t)
}

func TestHandleListLots(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("GetParkingStatus", mock.Anything).Return(testLots(), nil)

	service := NewParkingService(mockClient, nil, cache.NewCache(), testParkingConfig(time.Hour))

	recorder := httptest.NewRecorder()
	service.HandleListLots(recorder, httptest.NewRequest("GET", "/api/v1/lots", nil))

	require.Equal(t, 200, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body struct {
		Lots []parking.Lot `json:"lots"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Len(t, body.Lots, 2)

	// Bad query parameters
	recorder = httptest.NewRecorder()
	service.HandleListLots(recorder, httptest.NewRequest("GET", "/api/v1/lots?lat=abc&lng=1", nil))
	assert.Equal(t, 400, recorder.Code)
}

func TestHandleLotsKML(t *testing.T) {
	mockClient := &MockParkingClient{}
	mockClient.On("GetParkingStatus", mock.Anything).Return(testLots(), nil)

	service := NewParkingService(mockClient, nil, cache.NewCache(), testParkingConfig(time.Hour))

	recorder := httptest.NewRecorder()
	service.HandleLotsKML(recorder, httptest.NewRequest("GET", "/api/v1/lots.kml", nil))

	require.Equal(t, 200, recorder.Code)
	assert.Equal(t, "application/vnd.google-earth.kml+xml", recorder.Header().Get("Content-Type"))

	kmlBody := recorder.Body.String()
	assert.Contains(t, kmlBody, "<Placemark>")
	assert.Contains(t, kmlBody, "Lot 1 - Main Entrance")
	assert.Contains(t, kmlBody, "45 of 120 spots free")
}

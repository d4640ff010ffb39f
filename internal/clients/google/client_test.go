package google

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
)

// MockHTTPDoer is a mock implementation of HTTPDoer
type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

// Helper function to create mock HTTP response
func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// routeFixture is a two-step route whose polylines decode to
// (38.5,-120.2) -> (40.7,-120.95) -> (43.252,-126.453).
const routeFixture = `{
	"routes": [{
		"duration": "450s",
		"distanceMeters": 50000,
		"description": "I-80 W",
		"polyline": {"encodedPolyline": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"},
		"localizedValues": {
			"distance": {"text": "50 km"},
			"duration": {"text": "8 mins"}
		},
		"legs": [{
			"steps": [
				{
					"navigationInstruction": {"maneuver": "DEPART", "instructions": "Head northwest"},
					"localizedValues": {"distance": {"text": "25 km"}},
					"polyline": {"encodedPolyline": "_p~iF~ps|U_ulLnnqC"}
				},
				{
					"navigationInstruction": {"maneuver": "TURN_LEFT", "instructions": "Turn left"},
					"localizedValues": {"distance": {"text": "25 km"}},
					"polyline": {"encodedPolyline": "_flwFn` + "`" + `faV_mqNvxq` + "`" + `@"}
				}
			]
		}]
	}]
}`

var (
	testOrigin      = geo.Point{Latitude: 38.5, Longitude: -120.2}
	testDestination = geo.Point{Latitude: 43.252, Longitude: -126.453}
)

func TestComputeRoute_Success(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, routeFixture), nil)

	client := NewClientWithHTTPDoer("test-api-key", "https://routes.googleapis.com", mockHTTP)

	route, err := client.ComputeRoute(context.Background(), testOrigin, testDestination)
	require.NoError(t, err)
	require.NotNil(t, route)

	assert.Equal(t, "I-80 W", route.Summary)
	assert.Equal(t, "50 km", route.DistanceText)
	assert.Equal(t, "8 mins", route.DurationText)
	assert.Equal(t, testOrigin, route.Origin)
	assert.Equal(t, testDestination, route.Destination)

	// Overview polyline decoded into coordinates
	require.Len(t, route.OverviewPath, 3)
	assert.InDelta(t, 38.5, route.OverviewPath[0].Latitude, 1e-5)
	assert.InDelta(t, -120.2, route.OverviewPath[0].Longitude, 1e-5)
	assert.InDelta(t, 43.252, route.OverviewPath[2].Latitude, 1e-5)
	assert.InDelta(t, -126.453, route.OverviewPath[2].Longitude, 1e-5)

	// Steps carry dense indices, instructions, and decoded geometry
	require.Len(t, route.Steps, 2)
	assert.Equal(t, 0, route.Steps[0].Index)
	assert.Equal(t, 1, route.Steps[1].Index)
	assert.Equal(t, "Head northwest", route.Steps[0].Instruction)
	assert.Equal(t, "Turn left", route.Steps[1].Instruction)
	assert.Equal(t, "25 km", route.Steps[0].DistanceText)
	require.Len(t, route.Steps[0].Path, 2)
	assert.InDelta(t, 40.7, route.Steps[0].Path[1].Latitude, 1e-5)
	assert.InDelta(t, -120.95, route.Steps[0].Path[1].Longitude, 1e-5)
	require.Len(t, route.Steps[1].Path, 2)
	assert.InDelta(t, 40.7, route.Steps[1].Path[0].Latitude, 1e-5)

	mockHTTP.AssertExpectations(t)
}

func TestComputeRoute_NoRoutes(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, `{"routes": []}`), nil)

	client := NewClientWithHTTPDoer("test-api-key", "https://routes.googleapis.com", mockHTTP)

	route, err := client.ComputeRoute(context.Background(), testOrigin, testDestination)
	assert.Error(t, err)
	assert.Nil(t, route)
	assert.Contains(t, err.Error(), "no routes found in response")

	mockHTTP.AssertExpectations(t)
}

func TestComputeRoute_RateLimitError(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(429, `{"error": {"message": "Quota exceeded"}}`), nil)

	client := NewClientWithHTTPDoer("test-api-key", "https://routes.googleapis.com", mockHTTP)

	route, err := client.ComputeRoute(context.Background(), testOrigin, testDestination)
	assert.Error(t, err)
	assert.Nil(t, route)
	assert.Contains(t, err.Error(), "rate limit exceeded")

	mockHTTP.AssertExpectations(t)
}

func TestComputeRoute_APIError(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(400, `{"error": {"message": "Invalid coordinates"}}`), nil)

	client := NewClientWithHTTPDoer("test-api-key", "https://routes.googleapis.com", mockHTTP)

	route, err := client.ComputeRoute(context.Background(), testOrigin, testDestination)
	assert.Error(t, err)
	assert.Nil(t, route)
	assert.Contains(t, err.Error(), "API error 400")

	mockHTTP.AssertExpectations(t)
}

func TestComputeRoute_InvalidJSON(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, `{"invalid": json}`), nil)

	client := NewClientWithHTTPDoer("test-api-key", "https://routes.googleapis.com", mockHTTP)

	route, err := client.ComputeRoute(context.Background(), testOrigin, testDestination)
	assert.Error(t, err)
	assert.Nil(t, route)
	assert.Contains(t, err.Error(), "failed to decode response")

	mockHTTP.AssertExpectations(t)
}

func TestComputeRoute_MalformedPolyline(t *testing.T) {
	// Overview polyline is truncated mid-coordinate
	body := strings.Replace(routeFixture, "_mqNvxq`@", "_mqNvxq", 1)

	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, body), nil)

	client := NewClientWithHTTPDoer("test-api-key", "https://routes.googleapis.com", mockHTTP)

	route, err := client.ComputeRoute(context.Background(), testOrigin, testDestination)
	assert.Error(t, err)
	assert.Nil(t, route)

	mockHTTP.AssertExpectations(t)
}

func TestComputeRoute_RequestFormat(t *testing.T) {
	var capturedRequest *http.Request
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Run(func(args mock.Arguments) {
		capturedRequest = args.Get(0).(*http.Request)
	}).Return(createMockResponse(200, routeFixture), nil)

	client := NewClientWithHTTPDoer("test-api-key", "https://routes.googleapis.com", mockHTTP)

	_, err := client.ComputeRoute(context.Background(), testOrigin, testDestination)
	require.NoError(t, err)

	require.NotNil(t, capturedRequest)
	assert.Equal(t, "POST", capturedRequest.Method)
	assert.Equal(t, "/directions/v2:computeRoutes", capturedRequest.URL.Path)

	assert.Equal(t, "test-api-key", capturedRequest.Header.Get("X-Goog-Api-Key"))
	assert.Equal(t, "application/json", capturedRequest.Header.Get("Content-Type"))
	assert.Equal(t, routeFieldMask, capturedRequest.Header.Get("X-Goog-FieldMask"))

	body, err := io.ReadAll(capturedRequest.Body)
	require.NoError(t, err)
	bodyStr := string(body)

	assert.Contains(t, bodyStr, "38.5")
	assert.Contains(t, bodyStr, "-120.2")
	assert.Contains(t, bodyStr, "43.252")
	assert.Contains(t, bodyStr, "-126.453")
	assert.Contains(t, bodyStr, "\"travelMode\":\"DRIVE\"")
	assert.Contains(t, bodyStr, "\"routingPreference\":\"TRAFFIC_AWARE\"")

	mockHTTP.AssertExpectations(t)
}

func TestParseDuration(t *testing.T) {
	seconds, err := parseDuration("450s")
	require.NoError(t, err)
	assert.Equal(t, int32(450), seconds)

	seconds, err = parseDuration("0s")
	require.NoError(t, err)
	assert.Equal(t, int32(0), seconds)

	_, err = parseDuration("")
	assert.Error(t, err)
}

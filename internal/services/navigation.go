package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/clients/profile"
	"github.com/TalhaAWOL/Spot-Smart/internal/config"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/navigation"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/routing"
)

// ErrSimulationActive indicates a request that is only valid while no
// simulation is running, such as recentering the map.
var ErrSimulationActive = errors.New("simulation is active")

// Camera framing for turn-by-turn playback. Zoom ramps from the overview
// level toward street level as the drive progresses.
const (
	navigationMaxZoom = 17.5
	navigationTilt    = 45.0
)

// DirectionsClient computes a driving route between two points
type DirectionsClient interface {
	ComputeRoute(ctx context.Context, origin, destination geo.Point) (*routing.Route, error)
}

// Geolocator estimates the device position
type Geolocator interface {
	CurrentLocation(ctx context.Context) (geo.Point, error)
}

// HistoryRecorder persists destination searches for the signed-in user
type HistoryRecorder interface {
	RecordSearch(ctx context.Context, token string, entry profile.SearchEntry) error
	ListSearches(ctx context.Context, token string) ([]profile.SearchEntry, error)
}

// StartRequest is the body of a start-navigation call
type StartRequest struct {
	Destination geo.Point  `json:"destination"`
	Origin      *geo.Point `json:"origin,omitempty"` // Overrides geolocation when set
	Query       string     `json:"query,omitempty"`  // Free-text search that led here, recorded to history
}

// StartResponse describes the route the simulation is now driving
type StartResponse struct {
	SessionID    string              `json:"session_id"`
	Summary      string              `json:"summary"`
	DistanceText string              `json:"distance_text"`
	DurationText string              `json:"duration_text"`
	Steps        []routing.RouteStep `json:"steps"`
}

// NavigationService owns the navigation simulator and drives the map
// display from its updates.
type NavigationService struct {
	simulator  navigation.Simulator
	directions DirectionsClient
	geolocator Geolocator
	history    HistoryRecorder
	display    MapDisplay
	config     *config.NavigationConfig

	subscriberMutex sync.Mutex
	subscribers     map[chan navigation.Update]struct{}
}

// NewNavigationService creates a NavigationService and wires the simulator's
// update stream to the display and event subscribers. geolocator and history
// may be nil; the configured default location and a no-op history are used.
func NewNavigationService(simulator navigation.Simulator, directions DirectionsClient, geolocator Geolocator, history HistoryRecorder, display MapDisplay, config *config.NavigationConfig) *NavigationService {
	s := &NavigationService{
		simulator:   simulator,
		directions:  directions,
		geolocator:  geolocator,
		history:     history,
		display:     display,
		config:      config,
		subscribers: make(map[chan navigation.Update]struct{}),
	}
	simulator.OnUpdate(s.handleUpdate)
	return s
}

// StartNavigation computes a route to the destination and begins simulated
// playback. Origin resolution order: explicit override, geolocation, then
// the configured default location.
func (s *NavigationService) StartNavigation(ctx context.Context, token string, req StartRequest) (*StartResponse, error) {
	origin := s.resolveOrigin(ctx, req.Origin)

	route, err := s.directions.ComputeRoute(ctx, origin, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("failed to compute route: %w", err)
	}

	if err := s.simulator.Start(*route); err != nil {
		return nil, err
	}
	sessionID := s.simulator.SessionID()

	// History recording is fire and forget; a slow or failing profile
	// backend must not delay navigation start.
	if token != "" && s.history != nil {
		entry := profile.SearchEntry{
			Query:      req.Query,
			RecordedAt: time.Now(),
			SessionID:  sessionID,
		}
		go func() {
			recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.history.RecordSearch(recordCtx, token, entry); err != nil {
				log.Printf("Failed to record search history: %v", err)
			}
		}()
	}

	return &StartResponse{
		SessionID:    sessionID,
		Summary:      route.Summary,
		DistanceText: route.DistanceText,
		DurationText: route.DurationText,
		Steps:        route.Steps,
	}, nil
}

// resolveOrigin picks the navigation origin. Geolocation failures fall back
// to the configured default location.
func (s *NavigationService) resolveOrigin(ctx context.Context, override *geo.Point) geo.Point {
	if override != nil {
		return *override
	}
	if s.geolocator != nil {
		location, err := s.geolocator.CurrentLocation(ctx)
		if err == nil {
			return location
		}
		log.Printf("Geolocation failed, using default location: %v", err)
	}
	return s.config.DefaultLocation.ToPoint()
}

// Pause suspends playback
func (s *NavigationService) Pause() error {
	return s.simulator.Pause()
}

// Resume continues playback from the paused position
func (s *NavigationService) Resume() error {
	return s.simulator.Resume()
}

// Cancel stops the simulation and resets the map view
func (s *NavigationService) Cancel() {
	s.simulator.Cancel()
}

// NextStep browses forward through the route's instructions
func (s *NavigationService) NextStep() error {
	return s.simulator.StepForward()
}

// PreviousStep browses backward through the route's instructions
func (s *NavigationService) PreviousStep() error {
	return s.simulator.StepBackward()
}

// Recenter frames the map on the default location at the resting zoom.
// Rejected while a simulation is running: the camera belongs to playback.
func (s *NavigationService) Recenter() error {
	if s.simulator.Snapshot().Status == navigation.StatusRunning {
		return fmt.Errorf("%w: cancel or pause before recentering", ErrSimulationActive)
	}

	s.display.SetCamera(CameraPose{
		Center: s.config.DefaultLocation.ToPoint(),
		Zoom:   s.config.DefaultZoom,
	})
	return nil
}

// Snapshot returns the current playback state
func (s *NavigationService) Snapshot() navigation.Update {
	return s.simulator.Snapshot()
}

// Subscribe returns a channel of playback updates and an unsubscribe
// function. Slow subscribers miss frames rather than blocking playback.
func (s *NavigationService) Subscribe() (<-chan navigation.Update, func()) {
	ch := make(chan navigation.Update, 16)

	s.subscriberMutex.Lock()
	s.subscribers[ch] = struct{}{}
	s.subscriberMutex.Unlock()

	unsubscribe := func() {
		s.subscriberMutex.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.subscriberMutex.Unlock()
	}
	return ch, unsubscribe
}

// handleUpdate is registered with the simulator and runs on every frame
func (s *NavigationService) handleUpdate(update navigation.Update) {
	switch update.Status {
	case navigation.StatusRunning, navigation.StatusCompleted:
		s.display.MoveVehicle(update.Position, update.Heading)
		s.display.SetCamera(s.cameraFor(update))
	case navigation.StatusIdle:
		s.display.ResetView()
	}

	s.subscriberMutex.Lock()
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default: // Drop the frame for subscribers that cannot keep up
		}
	}
	s.subscriberMutex.Unlock()
}

// cameraFor frames the vehicle, zooming in as the drive progresses
func (s *NavigationService) cameraFor(update navigation.Update) CameraPose {
	zoom := s.config.DefaultZoom + (navigationMaxZoom-s.config.DefaultZoom)*update.Progress
	return CameraPose{
		Center:  update.Position,
		Zoom:    zoom,
		Tilt:    navigationTilt,
		Heading: update.Heading,
	}
}

// HTTP handlers

// HandleStart serves POST /api/v1/navigation/start
func (s *NavigationService) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.StartNavigation(r.Context(), bearerToken(r), req)
	if err != nil {
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandlePause serves POST /api/v1/navigation/pause
func (s *NavigationService) HandlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.Pause(); err != nil {
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// HandleResume serves POST /api/v1/navigation/resume
func (s *NavigationService) HandleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.Resume(); err != nil {
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// HandleCancel serves POST /api/v1/navigation/cancel
func (s *NavigationService) HandleCancel(w http.ResponseWriter, r *http.Request) {
	s.Cancel()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// HandleNextStep serves POST /api/v1/navigation/next-step
func (s *NavigationService) HandleNextStep(w http.ResponseWriter, r *http.Request) {
	if err := s.NextStep(); err != nil {
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// HandlePreviousStep serves POST /api/v1/navigation/previous-step
func (s *NavigationService) HandlePreviousStep(w http.ResponseWriter, r *http.Request) {
	if err := s.PreviousStep(); err != nil {
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// HandleRecenter serves POST /api/v1/navigation/recenter
func (s *NavigationService) HandleRecenter(w http.ResponseWriter, r *http.Request) {
	if err := s.Recenter(); err != nil {
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recentered"})
}

// HandleStatus serves GET /api/v1/navigation/status
func (s *NavigationService) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// HandleHistory serves GET /api/v1/profile/searches. Expected to sit behind
// the auth middleware; the validated bearer token is passed through to the
// profile backend.
func (s *NavigationService) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "search history not configured")
		return
	}

	searches, err := s.history.ListSearches(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"searches": searches})
}

// HandleEvents serves GET /api/v1/navigation/events as a server-sent event
// stream of playback updates.
func (s *NavigationService) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Send the current state immediately so late subscribers see something
	// before the next frame.
	writeEvent(w, s.Snapshot())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			writeEvent(w, update)
			flusher.Flush()
		}
	}
}

// writeEvent writes one SSE data frame
func writeEvent(w http.ResponseWriter, update navigation.Update) {
	data, err := json.Marshal(update)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// writeNavigationError maps domain errors onto HTTP statuses
func writeNavigationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, routing.ErrInvalidRoute):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, navigation.ErrNoRoute):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, navigation.ErrInvalidState), errors.Is(err, ErrSimulationActive):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// bearerToken extracts the bearer token from an Authorization header,
// empty when absent.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

package navigation

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/routing"
)

// playbackState is the mutable core of one simulation run. It is owned
// exclusively by the simulator and only mutated under the simulator mutex,
// either by the frame tick or by explicit start/pause/resume/cancel calls.
type playbackState struct {
	status          Status
	fractionalIndex float64 // Continuous position in [0, pointCount-1]
	activeStep      int     // -1 until a step has matched
	heading         float64
	lastTick        time.Time // Wall-clock anchor for delta measurement
}

// simulator implements the Simulator interface
type simulator struct {
	opts     Options
	geoUtils geo.GeoUtils
	matcher  routing.StepMatcher

	mutex      sync.Mutex
	route      *routing.Route
	state      playbackState
	sessionID  string
	generation int // Liveness counter; a loop whose generation is stale exits

	listenerMutex sync.RWMutex
	listeners     []func(Update)
}

// NewSimulator creates a Simulator with the given options. Zero-valued
// option fields fall back to DefaultOptions.
func NewSimulator(opts Options) Simulator {
	defaults := DefaultOptions()
	if opts.AnimationDuration <= 0 {
		opts.AnimationDuration = defaults.AnimationDuration
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaults.FrameInterval
	}
	if opts.StepProximityMeters <= 0 {
		opts.StepProximityMeters = defaults.StepProximityMeters
	}

	matcher := routing.NewStepMatcher()
	matcher.SetProximityThreshold(opts.StepProximityMeters)

	return &simulator{
		opts:     opts,
		geoUtils: geo.NewGeoUtils(),
		matcher:  matcher,
		state:    playbackState{status: StatusIdle, activeStep: -1},
	}
}

// Start begins playback of a new route, implicitly cancelling any run in flight
func (s *simulator) Start(route routing.Route) error {
	if err := routing.ValidateRoute(route); err != nil {
		return err
	}

	s.mutex.Lock()
	s.generation++ // Invalidates any loop still ticking for the previous route
	generation := s.generation

	r := route
	s.route = &r
	s.sessionID = uuid.NewString()
	s.state = playbackState{
		status:     StatusRunning,
		activeStep: -1,
		lastTick:   time.Now(),
	}
	// Vehicle marker starts at the first overview point, facing the second
	if heading, err := s.geoUtils.InitialBearing(route.OverviewPath[0], route.OverviewPath[1]); err == nil {
		s.state.heading = heading
	}
	initial := s.snapshotLocked()
	s.mutex.Unlock()

	s.emit(initial)
	go s.runLoop(generation)
	return nil
}

// Pause halts the frame loop without resetting position
func (s *simulator) Pause() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state.status != StatusRunning {
		return fmt.Errorf("%w: pause requires a running simulation", ErrInvalidState)
	}

	s.state.status = StatusPaused
	s.generation++ // Frame loop observes the stale generation and exits
	return nil
}

// Resume restarts the frame loop from the paused position
func (s *simulator) Resume() error {
	s.mutex.Lock()
	if s.route == nil {
		s.mutex.Unlock()
		return fmt.Errorf("%w: no route to resume", ErrNoRoute)
	}
	if s.state.status != StatusPaused {
		s.mutex.Unlock()
		return fmt.Errorf("%w: resume requires a paused simulation", ErrInvalidState)
	}

	s.state.status = StatusRunning
	// Re-anchor the wall clock so the time spent paused is neither
	// replayed nor skipped.
	s.state.lastTick = time.Now()
	s.generation++
	generation := s.generation
	s.mutex.Unlock()

	go s.runLoop(generation)
	return nil
}

// Cancel stops the frame loop and discards route and playback state
func (s *simulator) Cancel() {
	s.mutex.Lock()
	s.generation++
	s.route = nil
	s.sessionID = ""
	s.state = playbackState{status: StatusIdle, activeStep: -1}
	final := s.snapshotLocked()
	s.mutex.Unlock()

	s.emit(final)
}

// StepForward browses to the next instruction
func (s *simulator) StepForward() error {
	return s.browseStep(1)
}

// StepBackward browses to the previous instruction
func (s *simulator) StepBackward() error {
	return s.browseStep(-1)
}

// browseStep moves the active step manually, clamped to [0, len(steps)-1].
// Playback position and status are untouched.
func (s *simulator) browseStep(delta int) error {
	s.mutex.Lock()
	if s.route == nil {
		s.mutex.Unlock()
		return fmt.Errorf("%w: no route loaded for step browsing", ErrNoRoute)
	}

	index := s.state.activeStep + delta
	if index < 0 {
		index = 0
	}
	if max := len(s.route.Steps) - 1; index > max {
		index = max
	}
	s.state.activeStep = index
	update := s.snapshotLocked()
	s.mutex.Unlock()

	s.emit(update)
	return nil
}

// OnUpdate registers a listener for emitted frames
func (s *simulator) OnUpdate(fn func(Update)) {
	s.listenerMutex.Lock()
	defer s.listenerMutex.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns the current playback state as an Update
func (s *simulator) Snapshot() Update {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshotLocked()
}

// SessionID identifies the current run
func (s *simulator) SessionID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.sessionID
}

// Route returns a copy of the loaded route
func (s *simulator) Route() (routing.Route, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.route == nil {
		return routing.Route{}, false
	}
	return *s.route, true
}

// runLoop drives frames for one generation of playback. The loop is
// cooperative: every tick re-checks that its generation is still current and
// exits cleanly when pause, cancel, or a new start has invalidated it.
func (s *simulator) runLoop(generation int) {
	ticker := time.NewTicker(s.opts.FrameInterval)
	defer ticker.Stop()

	for range ticker.C {
		update, alive := s.tick(generation)
		if !alive {
			return
		}
		s.emit(update)
		if update.Status == StatusCompleted {
			return
		}
	}
}

// tick advances playback by the measured wall-clock delta and derives the
// new active step. Returns alive=false when this loop has been superseded.
func (s *simulator) tick(generation int) (Update, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if generation != s.generation || s.route == nil || s.state.status != StatusRunning {
		return Update{}, false
	}

	now := time.Now()
	delta := now.Sub(s.state.lastTick)

	var position geo.Point
	s.state, position = advance(s.state, s.route.OverviewPath, delta, s.opts.AnimationDuration, s.geoUtils)
	s.state.lastTick = now

	// A failed match keeps the previous active step
	if index, ok := s.matcher.MatchStep(s.route.Steps, position); ok {
		s.state.activeStep = index
	}

	return s.snapshotLocked(), true
}

// advance is the pure playback tick: it moves state forward along path by
// the elapsed delta and reports the interpolated position. Rate is
// totalPoints / animationDuration, so any route animates end to end in the
// same nominal time regardless of point count.
func advance(state playbackState, path []geo.Point, delta time.Duration, animationDuration time.Duration, geoUtils geo.GeoUtils) (playbackState, geo.Point) {
	pointsPerSecond := float64(len(path)) / animationDuration.Seconds()
	state.fractionalIndex += pointsPerSecond * delta.Seconds()

	last := float64(len(path) - 1)
	if state.fractionalIndex >= last {
		state.fractionalIndex = last
		state.status = StatusCompleted
	}

	position := positionAt(path, state.fractionalIndex, geoUtils)

	// Heading points at the next path point; at the final point the last
	// computed heading is kept.
	if state.fractionalIndex < last {
		next := path[int(math.Floor(state.fractionalIndex))+1]
		if heading, err := geoUtils.InitialBearing(position, next); err == nil && position != next {
			state.heading = heading
		}
	}

	return state, position
}

// positionAt interpolates between the two path points bracketing a
// fractional index, using the fractional remainder as t.
func positionAt(path []geo.Point, fractionalIndex float64, geoUtils geo.GeoUtils) geo.Point {
	segment := int(math.Floor(fractionalIndex))
	if segment >= len(path)-1 {
		segment = len(path) - 2
	}
	t := fractionalIndex - float64(segment)
	return geoUtils.Interpolate(path[segment], path[segment+1], t)
}

// snapshotLocked builds an Update from current state. Callers hold s.mutex.
func (s *simulator) snapshotLocked() Update {
	update := Update{
		SessionID:       s.sessionID,
		Heading:         s.state.heading,
		ActiveStepIndex: s.state.activeStep,
		Status:          s.state.status,
	}
	if s.route != nil && len(s.route.OverviewPath) >= 2 {
		path := s.route.OverviewPath
		update.Position = positionAt(path, s.state.fractionalIndex, s.geoUtils)
		update.Progress = s.state.fractionalIndex / float64(len(path)-1)
	}
	return update
}

// emit fans an update out to registered listeners
func (s *simulator) emit(update Update) {
	s.listenerMutex.RLock()
	listeners := make([]func(Update), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMutex.RUnlock()

	for _, fn := range listeners {
		fn(update)
	}
}

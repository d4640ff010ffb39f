package navigation

import (
	"errors"
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/routing"
)

// Status represents the playback state of a navigation simulation
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

var (
	// ErrNoRoute indicates an operation that needs a loaded route when none is.
	// Surfaced to the user as "no route to resume"; not fatal.
	ErrNoRoute = errors.New("no route loaded")

	// ErrInvalidState indicates an operation that is not valid for the
	// current playback status. Logged and treated as a no-op by the UI.
	ErrInvalidState = errors.New("operation not valid in current playback state")
)

// Update is emitted once per frame while a simulation runs, and once on
// start, cancel, and manual step browsing.
type Update struct {
	SessionID string    `json:"session_id"`
	Position  geo.Point `json:"position"`
	Heading   float64   `json:"heading"` // Degrees clockwise from north, [0, 360)
	Progress  float64   `json:"progress"`

	// Index into Route.Steps, -1 until a step has matched
	ActiveStepIndex int    `json:"active_step_index"`
	Status          Status `json:"status"`
}

// Options tune playback speed and frame cadence
type Options struct {
	// Wall-clock time a full route takes to animate end to end
	AnimationDuration time.Duration

	// Target interval between frames. The loop always measures the real
	// elapsed time between ticks, so this is cadence, not step size.
	FrameInterval time.Duration

	// Proximity threshold handed to the step matcher
	StepProximityMeters float64
}

// DefaultOptions returns the playback tuning used in production
func DefaultOptions() Options {
	return Options{
		AnimationDuration:   60 * time.Second,
		FrameInterval:       50 * time.Millisecond,
		StepProximityMeters: 10,
	}
}

// Simulator drives a smooth, resumable, time-based animation of a vehicle
// along a route, continuously deriving the active navigation step from the
// interpolated position.
type Simulator interface {
	// Start begins playback of route from its first overview point.
	// A simulation already in flight is cancelled first. Fails with
	// routing.ErrInvalidRoute when the route geometry is unusable.
	Start(route routing.Route) error

	// Pause halts the frame loop without resetting position.
	// Fails with ErrInvalidState unless the simulation is running.
	Pause() error

	// Resume restarts the frame loop from the paused position,
	// re-anchoring wall-clock time so the paused interval is not replayed.
	// Fails with ErrNoRoute when nothing is loaded, ErrInvalidState when
	// not paused.
	Resume() error

	// Cancel stops the frame loop and discards the route and playback
	// state. Idempotent.
	Cancel()

	// StepForward and StepBackward browse instructions manually, clamped to
	// the step list. Playback position and status are unaffected, and the
	// next position-based match may immediately override the chosen step.
	StepForward() error
	StepBackward() error

	// OnUpdate registers a listener for emitted frames. Listeners are
	// invoked from the frame goroutine and must not block.
	OnUpdate(fn func(Update))

	// Snapshot returns the current playback state as an Update
	Snapshot() Update

	// SessionID identifies the current run, empty when idle
	SessionID() string

	// Route returns a copy of the loaded route, ok=false when idle
	Route() (routing.Route, bool)
}

// NewSimulator is implemented in simulator.go

package navigation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/routing"
)

// testRoute is a short drive near the Trafalgar campus: three overview
// points, two steps sharing the middle point.
func testRoute() routing.Route {
	a := geo.Point{Latitude: 43.4691, Longitude: -79.6986}
	b := geo.Point{Latitude: 43.4750, Longitude: -79.6950}
	c := geo.Point{Latitude: 43.4770, Longitude: -79.6850}

	return routing.Route{
		ID:           "test-route",
		Origin:       a,
		Destination:  c,
		OverviewPath: []geo.Point{a, b, c},
		Steps: []routing.RouteStep{
			{Index: 0, Instruction: "Head north on Trafalgar Rd", DistanceText: "750 m", Path: []geo.Point{a, b}},
			{Index: 1, Instruction: "Turn right onto Dundas St W", DistanceText: "820 m", Path: []geo.Point{b, c}},
		},
		DistanceText: "1.6 km",
		DurationText: "4 mins",
	}
}

// frozenOptions keeps the frame loop from ticking during a test so state
// can only change through explicit calls.
func frozenOptions() Options {
	return Options{
		AnimationDuration: 60 * time.Second,
		FrameInterval:     time.Hour,
	}
}

func TestAdvance_TwoPointRoute(t *testing.T) {
	geoUtils := geo.NewGeoUtils()
	path := []geo.Point{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 1}}
	state := playbackState{status: StatusRunning, activeStep: -1}

	// 2 points over 60s is 1/30 points per second; 30 simulated seconds
	// reaches exactly the final index.
	state, position := advance(state, path, 30*time.Second, 60*time.Second, geoUtils)

	assert.InDelta(t, 1.0, state.fractionalIndex, 1e-9)
	assert.Equal(t, StatusCompleted, state.status)
	assert.InDelta(t, 0.0, position.Latitude, 1e-9)
	assert.InDelta(t, 1.0, position.Longitude, 1e-9)
}

func TestAdvance_ClampsAtFinalPoint(t *testing.T) {
	geoUtils := geo.NewGeoUtils()
	path := testRoute().OverviewPath
	state := playbackState{status: StatusRunning, activeStep: -1}

	// Way more simulated time than the animation needs
	state, position := advance(state, path, 10*time.Minute, 60*time.Second, geoUtils)

	assert.Equal(t, float64(len(path)-1), state.fractionalIndex, "fractional index clamps to pointCount-1")
	assert.Equal(t, StatusCompleted, state.status)
	assert.InDelta(t, path[len(path)-1].Latitude, position.Latitude, 1e-9)
	assert.InDelta(t, path[len(path)-1].Longitude, position.Longitude, 1e-9)
}

func TestAdvance_ProgressMonotonic(t *testing.T) {
	geoUtils := geo.NewGeoUtils()
	path := testRoute().OverviewPath
	state := playbackState{status: StatusRunning, activeStep: -1}

	previous := 0.0
	for i := 0; i < 200; i++ {
		state, _ = advance(state, path, 7*time.Millisecond, time.Second, geoUtils)
		assert.GreaterOrEqual(t, state.fractionalIndex, previous, "fractional index must never move backwards")
		previous = state.fractionalIndex
	}
	assert.Equal(t, StatusCompleted, state.status)
}

func TestAdvance_HeadingTracksNextPoint(t *testing.T) {
	geoUtils := geo.NewGeoUtils()
	path := []geo.Point{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 1}}
	state := playbackState{status: StatusRunning, activeStep: -1}

	state, _ = advance(state, path, time.Second, 60*time.Second, geoUtils)
	assert.InDelta(t, 90.0, state.heading, 0.001, "Heading should point due east")

	// At the final point the last heading is kept
	state, _ = advance(state, path, 10*time.Minute, 60*time.Second, geoUtils)
	assert.InDelta(t, 90.0, state.heading, 0.001)
}

func TestSimulator_StartRejectsInvalidRoute(t *testing.T) {
	sim := NewSimulator(frozenOptions())

	route := testRoute()
	route.OverviewPath = route.OverviewPath[:1]

	err := sim.Start(route)
	require.Error(t, err)
	assert.ErrorIs(t, err, routing.ErrInvalidRoute)
	assert.Equal(t, StatusIdle, sim.Snapshot().Status, "Failed start must leave the simulator idle")
}

func TestSimulator_StartPositionsMarkerAtOrigin(t *testing.T) {
	sim := NewSimulator(frozenOptions())

	var updates []Update
	var mutex sync.Mutex
	sim.OnUpdate(func(u Update) {
		mutex.Lock()
		defer mutex.Unlock()
		updates = append(updates, u)
	})

	route := testRoute()
	require.NoError(t, sim.Start(route))

	mutex.Lock()
	defer mutex.Unlock()
	require.Len(t, updates, 1)
	assert.Equal(t, route.OverviewPath[0], updates[0].Position)
	assert.Equal(t, StatusRunning, updates[0].Status)
	assert.Equal(t, -1, updates[0].ActiveStepIndex, "No step has matched before the first tick")
	assert.Equal(t, 0.0, updates[0].Progress)
	assert.NotEmpty(t, updates[0].SessionID)
}

func TestSimulator_PauseResumeKeepsPosition(t *testing.T) {
	sim := NewSimulator(frozenOptions())
	require.NoError(t, sim.Start(testRoute()))

	before := sim.Snapshot()
	require.NoError(t, sim.Pause())
	assert.Equal(t, StatusPaused, sim.Snapshot().Status)

	// An arbitrary pause must not move the vehicle
	time.Sleep(30 * time.Millisecond)
	paused := sim.Snapshot()
	assert.Equal(t, before.Position, paused.Position)
	assert.Equal(t, before.Progress, paused.Progress)

	require.NoError(t, sim.Resume())
	resumed := sim.Snapshot()
	assert.Equal(t, StatusRunning, resumed.Status)
	assert.Equal(t, before.Position, resumed.Position, "Resume must not replay or skip the paused interval")
	assert.Equal(t, before.Progress, resumed.Progress)
}

func TestSimulator_StateTransitionErrors(t *testing.T) {
	sim := NewSimulator(frozenOptions())

	// Nothing loaded
	assert.ErrorIs(t, sim.Pause(), ErrInvalidState)
	assert.ErrorIs(t, sim.Resume(), ErrNoRoute)
	assert.ErrorIs(t, sim.StepForward(), ErrNoRoute)

	require.NoError(t, sim.Start(testRoute()))

	// Running: resume is invalid, pause twice is invalid
	assert.ErrorIs(t, sim.Resume(), ErrInvalidState)
	require.NoError(t, sim.Pause())
	assert.ErrorIs(t, sim.Pause(), ErrInvalidState)
}

func TestSimulator_CancelIsIdempotent(t *testing.T) {
	sim := NewSimulator(frozenOptions())
	require.NoError(t, sim.Start(testRoute()))

	sim.Cancel()
	assert.Equal(t, StatusIdle, sim.Snapshot().Status)
	assert.Empty(t, sim.SessionID())
	_, ok := sim.Route()
	assert.False(t, ok, "Cancel discards the route")

	// Cancel again from idle
	sim.Cancel()
	assert.Equal(t, StatusIdle, sim.Snapshot().Status)

	// Resume after cancel surfaces the no-route error
	assert.ErrorIs(t, sim.Resume(), ErrNoRoute)
}

func TestSimulator_StepBrowsingClamps(t *testing.T) {
	sim := NewSimulator(frozenOptions())
	route := testRoute()
	require.NoError(t, sim.Start(route))

	// Forward from the unset index lands on step 0
	require.NoError(t, sim.StepForward())
	assert.Equal(t, 0, sim.Snapshot().ActiveStepIndex)

	require.NoError(t, sim.StepForward())
	assert.Equal(t, 1, sim.Snapshot().ActiveStepIndex)

	// Clamped at the last step
	require.NoError(t, sim.StepForward())
	assert.Equal(t, len(route.Steps)-1, sim.Snapshot().ActiveStepIndex)

	require.NoError(t, sim.StepBackward())
	require.NoError(t, sim.StepBackward())
	require.NoError(t, sim.StepBackward())
	assert.Equal(t, 0, sim.Snapshot().ActiveStepIndex, "Clamped at the first step")

	// Browsing never touches playback
	assert.Equal(t, StatusRunning, sim.Snapshot().Status)
	assert.Equal(t, 0.0, sim.Snapshot().Progress)
}

func TestSimulator_StartWhileRunningReplacesSession(t *testing.T) {
	sim := NewSimulator(frozenOptions())

	require.NoError(t, sim.Start(testRoute()))
	first := sim.SessionID()

	second := testRoute()
	second.ID = "second-route"
	require.NoError(t, sim.Start(second))

	assert.NotEqual(t, first, sim.SessionID(), "New start must begin a fresh session")
	loaded, ok := sim.Route()
	require.True(t, ok)
	assert.Equal(t, "second-route", loaded.ID)
	assert.Equal(t, 0.0, sim.Snapshot().Progress)
}

func TestSimulator_RunToCompletion(t *testing.T) {
	sim := NewSimulator(Options{
		AnimationDuration:   300 * time.Millisecond,
		FrameInterval:       10 * time.Millisecond,
		StepProximityMeters: 10,
	})

	var mutex sync.Mutex
	var updates []Update
	done := make(chan struct{})
	sim.OnUpdate(func(u Update) {
		mutex.Lock()
		defer mutex.Unlock()
		updates = append(updates, u)
		if u.Status == StatusCompleted {
			close(done)
		}
	})

	route := testRoute()
	require.NoError(t, sim.Start(route))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("simulation did not complete in time")
	}

	mutex.Lock()
	defer mutex.Unlock()

	final := updates[len(updates)-1]
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, 1.0, final.Progress, "Completion means the fractional index reached pointCount-1 exactly")
	destination := route.OverviewPath[len(route.OverviewPath)-1]
	assert.InDelta(t, destination.Latitude, final.Position.Latitude, 1e-9)
	assert.InDelta(t, destination.Longitude, final.Position.Longitude, 1e-9)
	assert.Equal(t, len(route.Steps)-1, final.ActiveStepIndex, "Final position lies on the last step's path")

	previous := 0.0
	for _, u := range updates {
		assert.GreaterOrEqual(t, u.Progress, previous, "Progress must be monotonically non-decreasing")
		previous = u.Progress
	}
}

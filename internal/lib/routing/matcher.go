package routing

import (
	"sync"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
)

// stepMatcher implements the StepMatcher interface
type stepMatcher struct {
	geoUtils  geo.GeoUtils
	mutex     sync.RWMutex
	threshold float64 // Proximity in meters for a step path point to count as a hit
}

// NewStepMatcher creates a new StepMatcher implementation
func NewStepMatcher() StepMatcher {
	return &stepMatcher{
		geoUtils:  geo.NewGeoUtils(),
		threshold: 10.0, // 10 meters default, matches overview-path point spacing
	}
}

// MatchStep scans steps in order and returns the index of the first step
// containing any path point within the proximity threshold of position.
//
// First-match-wins is deliberate: while progress along the route is mostly
// monotonic, "am I near this step's geometry yet" is the question being
// asked, and earlier steps win ties at shared boundary points. A
// nearest-point-overall policy would be more robust against loops and
// out-of-order GPS fixes, but would change which step is announced at
// every step boundary, so the original behavior is kept.
func (m *stepMatcher) MatchStep(steps []RouteStep, position geo.Point) (int, bool) {
	m.mutex.RLock()
	threshold := m.threshold
	m.mutex.RUnlock()

	for _, step := range steps {
		for _, point := range step.Path {
			distance, err := m.geoUtils.PointToPoint(position, point)
			if err != nil {
				continue // Skip invalid points rather than aborting the scan
			}
			if distance <= threshold {
				return step.Index, true
			}
		}
	}

	return 0, false
}

// SetProximityThreshold configures the match distance in meters
func (m *stepMatcher) SetProximityThreshold(meters float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if meters > 0 {
		m.threshold = meters
	}
}

// ProximityThreshold returns the current match distance in meters
func (m *stepMatcher) ProximityThreshold() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.threshold
}

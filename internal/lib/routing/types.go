package routing

import (
	"errors"
	"fmt"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
)

// ErrInvalidRoute indicates a route whose geometry cannot be simulated.
var ErrInvalidRoute = errors.New("invalid route")

// RouteStep is one instruction segment of a calculated route. Steps are
// produced once from the directions result and are read-only afterwards.
type RouteStep struct {
	Index        int         `json:"index"`
	Instruction  string      `json:"instruction"`
	DistanceText string      `json:"distance_text"`
	Path         []geo.Point `json:"path"`
}

// Route is one calculated trip from the directions service. It is owned by
// the navigation controller for the lifetime of the trip and replaced
// wholesale on recalculation.
type Route struct {
	ID           string      `json:"id"`
	Summary      string      `json:"summary"`
	Origin       geo.Point   `json:"origin"`
	Destination  geo.Point   `json:"destination"`
	OverviewPath []geo.Point `json:"overview_path"`
	Steps        []RouteStep `json:"steps"`

	// Distance/duration text are opaque pass-through strings from the
	// directions service; they are displayed, never parsed.
	DistanceText string `json:"distance_text"`
	DurationText string `json:"duration_text"`
}

// StepMatcher resolves which route step a simulated position is currently on
type StepMatcher interface {
	// Index of the first step with any path point within the proximity
	// threshold of position. ok is false when nothing is in range; the
	// caller keeps its previous active step in that case.
	MatchStep(steps []RouteStep, position geo.Point) (index int, ok bool)

	// Configure the proximity threshold in meters
	SetProximityThreshold(meters float64)

	// Current proximity threshold in meters
	ProximityThreshold() float64
}

// ValidateRoute checks that a route is structurally fit for simulation:
// at least 2 overview points, at least one step, every step path non-empty,
// and dense 0-based step indices.
func ValidateRoute(route Route) error {
	if len(route.OverviewPath) < 2 {
		return fmt.Errorf("%w: overview path needs at least 2 points, got %d", ErrInvalidRoute, len(route.OverviewPath))
	}
	if len(route.Steps) == 0 {
		return fmt.Errorf("%w: route has no steps", ErrInvalidRoute)
	}
	for i, step := range route.Steps {
		if step.Index != i {
			return fmt.Errorf("%w: step indices must be dense and 0-based, step %d has index %d", ErrInvalidRoute, i, step.Index)
		}
		if len(step.Path) == 0 {
			return fmt.Errorf("%w: step %d has an empty path", ErrInvalidRoute, i)
		}
	}
	return nil
}

// NewStepMatcher is implemented in matcher.go

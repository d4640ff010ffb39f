package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/navigation"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/routing"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "simulate":
		handleSimulate()
	case "match-step":
		handleMatchStep()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleSimulate() {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	routeFile := fs.String("route-json", "", "Path to JSON file containing a Route (default: built-in demo route)")
	duration := fs.Duration("duration", 5*time.Second, "Animation duration for the full route")
	frameInterval := fs.Duration("frame-interval", 250*time.Millisecond, "Interval between printed frames")
	verbose := fs.Bool("verbose", false, "Print every frame instead of step changes only")

	fs.Parse(os.Args[2:])

	route := loadRoute(*routeFile)

	simulator := navigation.NewSimulator(navigation.Options{
		AnimationDuration: *duration,
		FrameInterval:     *frameInterval,
	})

	done := make(chan struct{})
	lastStep := -1
	simulator.OnUpdate(func(update navigation.Update) {
		stepChanged := update.ActiveStepIndex != lastStep
		lastStep = update.ActiveStepIndex

		if *verbose || stepChanged || update.Status != navigation.StatusRunning {
			instruction := ""
			if update.ActiveStepIndex >= 0 && update.ActiveStepIndex < len(route.Steps) {
				instruction = route.Steps[update.ActiveStepIndex].Instruction
			}
			fmt.Printf("[%s] pos=(%.6f, %.6f) heading=%.1f progress=%.1f%% step=%d %s\n",
				update.Status, update.Position.Latitude, update.Position.Longitude,
				update.Heading, update.Progress*100, update.ActiveStepIndex, instruction)
		}

		if update.Status == navigation.StatusCompleted {
			close(done)
		}
	})

	fmt.Printf("Simulating route %q: %d overview points, %d steps, %s over %v\n\n",
		route.ID, len(route.OverviewPath), len(route.Steps), route.DistanceText, *duration)

	if err := simulator.Start(route); err != nil {
		log.Fatalf("Failed to start simulation: %v", err)
	}

	select {
	case <-done:
		fmt.Printf("\n✅ Simulation completed (session %s)\n", simulator.SessionID())
	case <-time.After(*duration * 3):
		log.Fatalf("Simulation did not complete in time")
	}
}

func handleMatchStep() {
	fs := flag.NewFlagSet("match-step", flag.ExitOnError)
	routeFile := fs.String("route-json", "", "Path to JSON file containing a Route (default: built-in demo route)")
	lat := fs.Float64("lat", 0, "Latitude of test position")
	lng := fs.Float64("lng", 0, "Longitude of test position")
	threshold := fs.Float64("threshold", 10, "Proximity threshold in meters")

	fs.Parse(os.Args[2:])

	if *lat == 0 && *lng == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-navigation match-step --lat 43.4750 --lng -79.6950")
		fmt.Println("  test-navigation match-step --lat 43.4750 --lng -79.6950 --threshold 50")
		os.Exit(1)
	}

	route := loadRoute(*routeFile)
	position := geo.Point{Latitude: *lat, Longitude: *lng}

	matcher := routing.NewStepMatcher()
	matcher.SetProximityThreshold(*threshold)

	index, ok := matcher.MatchStep(route.Steps, position)
	fmt.Printf("Position: (%.6f, %.6f), threshold %.0fm\n\n", *lat, *lng, *threshold)
	if !ok {
		fmt.Printf("❌ No step within threshold\n")
		return
	}
	fmt.Printf("✅ Matched step %d: %s (%s)\n", index, route.Steps[index].Instruction, route.Steps[index].DistanceText)
}

// loadRoute reads a route from a JSON file, falling back to a small
// built-in campus demo route.
func loadRoute(path string) routing.Route {
	if path == "" {
		return demoRoute()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading route file %s: %v", path, err)
	}

	var route routing.Route
	if err := json.Unmarshal(data, &route); err != nil {
		log.Fatalf("Error parsing route JSON: %v", err)
	}
	return route
}

// demoRoute is a short drive to the main entrance lot
func demoRoute() routing.Route {
	a := geo.Point{Latitude: 43.4650, Longitude: -79.7000}
	b := geo.Point{Latitude: 43.4691, Longitude: -79.6986}
	c := geo.Point{Latitude: 43.4750, Longitude: -79.6950}
	d := geo.Point{Latitude: 43.4770, Longitude: -79.6850}

	return routing.Route{
		ID:           "demo-campus",
		Summary:      "Trafalgar Rd",
		Origin:       a,
		Destination:  d,
		OverviewPath: []geo.Point{a, b, c, d},
		Steps: []routing.RouteStep{
			{Index: 0, Instruction: "Head north on Trafalgar Rd", DistanceText: "500 m", Path: []geo.Point{a, b}},
			{Index: 1, Instruction: "Continue past the main entrance", DistanceText: "750 m", Path: []geo.Point{b, c}},
			{Index: 2, Instruction: "Turn right into Lot 1", DistanceText: "820 m", Path: []geo.Point{c, d}},
		},
		DistanceText: "2.1 km",
		DurationText: "5 mins",
	}
}

func printUsage() {
	fmt.Printf(`test-navigation - Navigation simulator testing tool

USAGE:
    test-navigation <command> [options]

COMMANDS:
    simulate       Run a simulated drive and print playback frames
    match-step     Match a position against the route's steps
    help           Show this help message

EXAMPLES:
    # Run the built-in demo route in 5 seconds
    test-navigation simulate

    # Slow playback of a captured route, printing every frame
    test-navigation simulate --route-json route.json --duration 30s --verbose

    # Which instruction is active at this position?
    test-navigation match-step --lat 43.4750 --lng -79.6950 --threshold 25
`)
}

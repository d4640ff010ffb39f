package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/clients/geolocate"
	"github.com/TalhaAWOL/Spot-Smart/internal/clients/google"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "compute-route":
		handleComputeRoute()
	case "geolocate":
		handleGeolocate()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleComputeRoute() {
	fs := flag.NewFlagSet("compute-route", flag.ExitOnError)
	apiKey := fs.String("api-key", os.Getenv("GOOGLE_API_KEY"), "Google API key (or GOOGLE_API_KEY env var)")
	originLat := fs.Float64("origin-lat", 0, "Origin latitude")
	originLng := fs.Float64("origin-lng", 0, "Origin longitude")
	destLat := fs.Float64("dest-lat", 0, "Destination latitude")
	destLng := fs.Float64("dest-lng", 0, "Destination longitude")

	fs.Parse(os.Args[2:])

	if *apiKey == "" {
		log.Fatal("API key required: use --api-key or set GOOGLE_API_KEY")
	}
	if *destLat == 0 && *destLng == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-directions compute-route --origin-lat 43.4650 --origin-lng -79.7000 --dest-lat 43.4691 --dest-lng -79.6986")
		os.Exit(1)
	}

	client := google.NewClient(*apiKey)
	origin := geo.Point{Latitude: *originLat, Longitude: *originLng}
	destination := geo.Point{Latitude: *destLat, Longitude: *destLng}

	fmt.Printf("Computing route (%.6f, %.6f) -> (%.6f, %.6f)...\n\n",
		origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	route, err := client.ComputeRoute(ctx, origin, destination)
	if err != nil {
		log.Fatalf("❌ Route computation failed: %v", err)
	}

	fmt.Printf("✅ Route computed in %v\n\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Route ID:       %s\n", route.ID)
	fmt.Printf("Summary:        %s\n", route.Summary)
	fmt.Printf("Distance:       %s\n", route.DistanceText)
	fmt.Printf("Duration:       %s\n", route.DurationText)
	fmt.Printf("Overview path:  %d points\n", len(route.OverviewPath))
	fmt.Printf("Steps:          %d\n\n", len(route.Steps))

	for _, step := range route.Steps {
		fmt.Printf("  %2d. %-50s %s (%d pts)\n",
			step.Index+1, step.Instruction, step.DistanceText, len(step.Path))
	}
}

func handleGeolocate() {
	fs := flag.NewFlagSet("geolocate", flag.ExitOnError)
	apiKey := fs.String("api-key", os.Getenv("GOOGLE_API_KEY"), "Google API key (or GOOGLE_API_KEY env var)")

	fs.Parse(os.Args[2:])

	if *apiKey == "" {
		log.Fatal("API key required: use --api-key or set GOOGLE_API_KEY")
	}

	client := geolocate.NewClient(*apiKey)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	location, err := client.CurrentLocation(ctx)
	if err != nil {
		log.Fatalf("❌ Geolocation failed: %v", err)
	}

	fmt.Printf("✅ Estimated position: (%.6f, %.6f)\n", location.Latitude, location.Longitude)
}

func printUsage() {
	fmt.Printf(`test-directions - Google Routes and Geolocation API testing tool

USAGE:
    test-directions <command> [options]

COMMANDS:
    compute-route  Compute a driving route and print its steps
    geolocate      Estimate the current device position
    help           Show this help message

EXAMPLES:
    # Route from the south campus entrance to Lot 1
    test-directions compute-route --api-key YOUR_KEY \
        --origin-lat 43.4650 --origin-lng -79.7000 \
        --dest-lat 43.4691 --dest-lng -79.6986

    # Where does Google think this machine is?
    GOOGLE_API_KEY=YOUR_KEY test-directions geolocate
`)
}

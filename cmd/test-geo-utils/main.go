package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	geoUtils := geo.NewGeoUtils()

	switch command {
	case "point-distance":
		handlePointDistance(geoUtils)
	case "bearing":
		handleBearing(geoUtils)
	case "interpolate":
		handleInterpolate(geoUtils)
	case "filter-points":
		handleFilterPoints(geoUtils)
	case "decode-polyline":
		handleDecodePolyline(geoUtils)
	case "encode-polyline":
		handleEncodePolyline(geoUtils)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handlePointDistance(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("point-distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils point-distance --lat1 43.4691 --lng1 -79.6986 --lat2 43.4770 --lng2 -79.6850")
		fmt.Println("  (Distance between the main entrance and Lot 4)")
		os.Exit(1)
	}

	p1 := geo.Point{Latitude: *lat1, Longitude: *lng1}
	p2 := geo.Point{Latitude: *lat2, Longitude: *lng2}

	distance, err := geoUtils.PointToPoint(p1, p2)
	if err != nil {
		log.Fatalf("Error calculating distance: %v", err)
	}

	fmt.Printf("Distance between points:\n")
	fmt.Printf("  Point 1: (%.6f, %.6f)\n", p1.Latitude, p1.Longitude)
	fmt.Printf("  Point 2: (%.6f, %.6f)\n", p2.Latitude, p2.Longitude)
	fmt.Printf("  Distance: %.2f meters (%.2f km, %.2f miles)\n",
		distance, distance/1000, distance*0.000621371)
}

func handleBearing(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("bearing", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of start point")
	lng1 := fs.Float64("lng1", 0, "Longitude of start point")
	lat2 := fs.Float64("lat2", 0, "Latitude of target point")
	lng2 := fs.Float64("lng2", 0, "Longitude of target point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils bearing --lat1 43.4691 --lng1 -79.6986 --lat2 43.4750 --lng2 -79.6950")
		fmt.Println("  (Heading the vehicle marker would face)")
		os.Exit(1)
	}

	from := geo.Point{Latitude: *lat1, Longitude: *lng1}
	to := geo.Point{Latitude: *lat2, Longitude: *lng2}

	bearing, err := geoUtils.InitialBearing(from, to)
	if err != nil {
		log.Fatalf("Error calculating bearing: %v", err)
	}

	fmt.Printf("Initial bearing:\n")
	fmt.Printf("  From: (%.6f, %.6f)\n", from.Latitude, from.Longitude)
	fmt.Printf("  To:   (%.6f, %.6f)\n", to.Latitude, to.Longitude)
	fmt.Printf("  Bearing: %.1f degrees\n", bearing)
}

func handleInterpolate(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("interpolate", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of start point")
	lng1 := fs.Float64("lng1", 0, "Longitude of start point")
	lat2 := fs.Float64("lat2", 0, "Latitude of end point")
	lng2 := fs.Float64("lng2", 0, "Longitude of end point")
	t := fs.Float64("t", 0.5, "Interpolation fraction in [0, 1]")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils interpolate --lat1 43.4691 --lng1 -79.6986 --lat2 43.4750 --lng2 -79.6950 --t 0.25")
		fmt.Println("  (Marker position a quarter of the way along the segment)")
		os.Exit(1)
	}

	start := geo.Point{Latitude: *lat1, Longitude: *lng1}
	end := geo.Point{Latitude: *lat2, Longitude: *lng2}

	position := geoUtils.Interpolate(start, end, *t)

	fmt.Printf("Interpolated position:\n")
	fmt.Printf("  Start: (%.6f, %.6f)\n", start.Latitude, start.Longitude)
	fmt.Printf("  End:   (%.6f, %.6f)\n", end.Latitude, end.Longitude)
	fmt.Printf("  t=%.3f: (%.6f, %.6f)\n", *t, position.Latitude, position.Longitude)
}

func handleFilterPoints(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("filter-points", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude of center point")
	lng := fs.Float64("lng", 0, "Longitude of center point")
	coords := fs.String("coords", "", "Semicolon-separated lat,lng pairs to filter")
	radius := fs.Float64("radius", 1000, "Maximum distance in meters")

	fs.Parse(os.Args[2:])

	if *coords == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils filter-points --lat 43.4691 --lng -79.6986 --radius 1000 \\")
		fmt.Println("      --coords \"43.4692,-79.6987;43.4750,-79.6950;43.4453,-79.6665\"")
		os.Exit(1)
	}

	points, err := parseCoordinatePairs(*coords)
	if err != nil {
		log.Fatalf("Error parsing coordinates: %v", err)
	}

	center := geo.Point{Latitude: *lat, Longitude: *lng}
	nearby, err := geoUtils.FilterPointsByDistance(points, center, *radius)
	if err != nil {
		log.Fatalf("Error filtering points: %v", err)
	}

	fmt.Printf("Points within %.0fm of (%.6f, %.6f): %d of %d\n",
		*radius, center.Latitude, center.Longitude, len(nearby), len(points))
	for i, point := range nearby {
		distance, _ := geoUtils.PointToPoint(center, point)
		fmt.Printf("  %d: (%.6f, %.6f) - %.1fm\n", i+1, point.Latitude, point.Longitude, distance)
	}
}

func handleDecodePolyline(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("decode-polyline", flag.ExitOnError)
	polylineStr := fs.String("polyline", "", "Encoded polyline string to decode")
	verbose := fs.Bool("verbose", false, "Show all decoded points")

	fs.Parse(os.Args[2:])

	if *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils decode-polyline --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\"")
		fmt.Println("  test-geo-utils decode-polyline --polyline \"encoded_string\" --verbose")
		os.Exit(1)
	}

	points, err := geoUtils.DecodePolyline(*polylineStr)
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}

	fmt.Printf("Polyline decoded successfully:\n")
	fmt.Printf("  Input: %s\n", *polylineStr)
	fmt.Printf("  Points: %d\n", len(points))

	if len(points) > 0 {
		fmt.Printf("  Start: (%.6f, %.6f)\n", points[0].Latitude, points[0].Longitude)
		if len(points) > 1 {
			fmt.Printf("  End: (%.6f, %.6f)\n", points[len(points)-1].Latitude, points[len(points)-1].Longitude)
		}
	}

	if *verbose && len(points) > 0 {
		fmt.Printf("  All points:\n")
		for i, point := range points {
			fmt.Printf("    %d: (%.6f, %.6f)\n", i+1, point.Latitude, point.Longitude)
		}
	}
}

func handleEncodePolyline(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("encode-polyline", flag.ExitOnError)
	coords := fs.String("coords", "", "Semicolon-separated lat,lng pairs")

	fs.Parse(os.Args[2:])

	if *coords == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils encode-polyline --coords \"43.4691,-79.6986;43.4750,-79.6950;43.4770,-79.6850\"")
		os.Exit(1)
	}

	points, err := parseCoordinatePairs(*coords)
	if err != nil {
		log.Fatalf("Error parsing coordinates: %v", err)
	}

	encoded, err := geoUtils.EncodePolyline(points)
	if err != nil {
		log.Fatalf("Error encoding polyline: %v", err)
	}

	fmt.Printf("Polyline encoded successfully:\n")
	fmt.Printf("  Points: %d\n", len(points))
	fmt.Printf("  Encoded: %s\n", encoded)
}

func printUsage() {
	fmt.Printf(`test-geo-utils - Geographic utility testing tool

USAGE:
    test-geo-utils <command> [options]

COMMANDS:
    point-distance      Calculate great-circle distance between two points
    bearing             Initial compass bearing from one point to another
    interpolate         Interpolate between two points at fraction t
    filter-points       Filter points to those within a radius of a center
    decode-polyline     Decode Google polyline string to coordinates
    encode-polyline     Encode lat,lng pairs to a Google polyline string
    help                Show this help message

EXAMPLES:
    # Distance between the main entrance and Lot 4
    test-geo-utils point-distance --lat1 43.4691 --lng1 -79.6986 --lat2 43.4770 --lng2 -79.6850

    # Vehicle marker heading toward the next route point
    test-geo-utils bearing --lat1 43.4691 --lng1 -79.6986 --lat2 43.4750 --lng2 -79.6950

    # Decode polyline to see coordinates
    test-geo-utils decode-polyline --polyline "encoded_string" --verbose
`)
}

// parseCoordinatePairs parses "lat,lng;lat,lng;..." into points
func parseCoordinatePairs(coordStr string) ([]geo.Point, error) {
	if coordStr == "" {
		return nil, fmt.Errorf("empty coordinate string")
	}

	pairs := strings.Split(coordStr, ";")
	points := make([]geo.Point, 0, len(pairs))

	for _, pair := range pairs {
		coords := strings.Split(strings.TrimSpace(pair), ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("invalid coordinate pair: %s", pair)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude: %s", coords[0])
		}

		lng, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude: %s", coords[1])
		}

		points = append(points, geo.Point{Latitude: lat, Longitude: lng})
	}

	return points, nil
}

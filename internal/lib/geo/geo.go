package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"
)

// ErrMalformedPolyline indicates an encoded polyline that could not be decoded
// (truncated coordinate group or garbage bytes).
var ErrMalformedPolyline = errors.New("malformed polyline")

// geoUtils implements the GeoUtils interface
type geoUtils struct{}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils() GeoUtils {
	return &geoUtils{}
}

// PointToPoint calculates great-circle distance between two points using Haversine formula
func (g *geoUtils) PointToPoint(p1, p2 Point) (float64, error) {
	if !isValidCoordinate(p1) || !isValidCoordinate(p2) {
		return 0, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	// If points are the same, distance is 0
	if p1.Latitude == p2.Latitude && p1.Longitude == p2.Longitude {
		return 0, nil
	}

	lat1 := p1.Latitude * math.Pi / 180
	lon1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lon2 := p2.Longitude * math.Pi / 180

	// Haversine formula
	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	// Mean Earth radius in meters
	const earthRadius = 6371000
	return earthRadius * c, nil
}

// InitialBearing calculates the initial compass bearing from one point toward
// another, normalized to [0, 360). Bearing is undefined for identical points;
// 0 is returned in that case.
func (g *geoUtils) InitialBearing(from, to Point) (float64, error) {
	if !isValidCoordinate(from) || !isValidCoordinate(to) {
		return 0, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	if from.Latitude == to.Latitude && from.Longitude == to.Longitude {
		return 0, nil
	}

	lat1 := from.Latitude * math.Pi / 180
	lon1 := from.Longitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	lon2 := to.Longitude * math.Pi / 180

	y := math.Sin(lon2-lon1) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1)
	bearing := math.Atan2(y, x) * 180 / math.Pi

	return math.Mod(bearing+360, 360), nil
}

// Interpolate calculates a point along the segment between two points.
// t=0 returns start, t=1 returns end, t=0.5 returns the midpoint.
// Latitude and longitude interpolate independently; for the point spacing
// typical of route overview paths (< a few hundred meters) the deviation
// from the great circle is negligible.
func (g *geoUtils) Interpolate(start, end Point, t float64) Point {
	lat := start.Latitude + t*(end.Latitude-start.Latitude)
	lon := start.Longitude + t*(end.Longitude-start.Longitude)

	return Point{Latitude: lat, Longitude: lon}
}

// DecodePolyline decodes a Google polyline string to a point sequence
func (g *geoUtils) DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: encoded polyline string is empty", ErrMalformedPolyline)
	}

	coords, remaining, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPolyline, err)
	}
	if len(remaining) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after final coordinate", ErrMalformedPolyline, len(remaining))
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{
			Latitude:  coord[0],
			Longitude: coord[1],
		}

		if !isValidCoordinate(points[i]) {
			return nil, fmt.Errorf("%w: decoded coordinate out of range", ErrMalformedPolyline)
		}
	}

	return points, nil
}

// EncodePolyline encodes a point sequence as a Google polyline string.
// Round-trips with DecodePolyline within the 1e-5 degree encoding precision.
func (g *geoUtils) EncodePolyline(points []Point) (string, error) {
	if len(points) == 0 {
		return "", errors.New("no points to encode")
	}

	coords := make([][]float64, len(points))
	for i, point := range points {
		if !isValidCoordinate(point) {
			return "", errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
		}
		coords[i] = []float64{point.Latitude, point.Longitude}
	}

	return string(polyline.EncodeCoords(coords)), nil
}

// FilterPointsByDistance filters points to those within specified distance of center point
func (g *geoUtils) FilterPointsByDistance(points []Point, center Point, maxDistanceMeters float64) ([]Point, error) {
	if !isValidCoordinate(center) {
		return nil, errors.New("invalid center point coordinates")
	}

	var filteredPoints []Point

	for _, point := range points {
		if !isValidCoordinate(point) {
			continue // Skip invalid points
		}

		distance, err := g.PointToPoint(center, point)
		if err != nil {
			continue
		}

		if distance <= maxDistanceMeters {
			filteredPoints = append(filteredPoints, point)
		}
	}

	return filteredPoints, nil
}

// DistanceFromCoords calculates distance between two coordinate pairs
// Convenience method for raw latitude/longitude values
func (g *geoUtils) DistanceFromCoords(lat1, lon1, lat2, lon2 float64) (float64, error) {
	point1 := Point{Latitude: lat1, Longitude: lon1}
	point2 := Point{Latitude: lat2, Longitude: lon2}

	return g.PointToPoint(point1, point2)
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !isValidCoordinate(point) {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return point, nil
}

// isValidCoordinate validates latitude and longitude values
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}

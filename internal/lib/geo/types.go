package geo

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Polyline represents an encoded polyline with optional decoded points
type Polyline struct {
	EncodedPolyline string  `json:"encoded_polyline"`
	Points          []Point `json:"points"`
}

// GeoUtils interface defines geographic calculation utilities
type GeoUtils interface {
	// Calculate great-circle distance between two points in meters
	PointToPoint(p1, p2 Point) (float64, error)

	// Initial compass bearing from one point toward another, degrees in [0, 360)
	InitialBearing(from, to Point) (float64, error)

	// Linear interpolation between two points, t in [0, 1]
	Interpolate(start, end Point, t float64) Point

	// Decode Google polyline string to point sequence
	DecodePolyline(encoded string) ([]Point, error)

	// Encode a point sequence back to a Google polyline string
	EncodePolyline(points []Point) (string, error)

	// Filter points to those within maxDistanceMeters of center
	FilterPointsByDistance(points []Point, center Point, maxDistanceMeters float64) ([]Point, error)

	// Calculate distance between coordinate pairs (convenience method)
	DistanceFromCoords(lat1, lon1, lat2, lon2 float64) (float64, error)
}

// NewGeoUtils is implemented in geo.go

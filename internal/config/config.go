package config

import (
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
)

// Config represents the complete server configuration
type Config struct {
	Parking    ParkingConfig    `yaml:"parking"`
	Directions DirectionsConfig `yaml:"directions"`
	Navigation NavigationConfig `yaml:"navigation"`
	Profile    ProfileConfig    `yaml:"profile"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Auth       AuthConfig       `yaml:"auth"`
}

// ParkingConfig holds parking backend and lot camera settings
type ParkingConfig struct {
	BaseURL         string        `yaml:"base_url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	StaleThreshold  time.Duration `yaml:"stale_threshold"`
	OccupancyTTL    time.Duration `yaml:"occupancy_ttl"`

	// Lot ID to camera video filename for the detection backend
	Cameras map[string]string `yaml:"cameras"`
}

// DirectionsConfig holds Google Routes API settings
type DirectionsConfig struct {
	APIKey string `yaml:"api_key"`
}

// NavigationConfig holds simulation playback settings
type NavigationConfig struct {
	AnimationDuration   time.Duration   `yaml:"animation_duration"`
	FrameInterval       time.Duration   `yaml:"frame_interval"`
	StepProximityMeters float64         `yaml:"step_proximity_meters"`
	DefaultLocation     CoordinatesYAML `yaml:"default_location"`
	DefaultZoom         float64         `yaml:"default_zoom"`
}

// ProfileConfig holds search history backend settings
type ProfileConfig struct {
	BaseURL string `yaml:"base_url"`
}

// OpenAIConfig holds occupancy summarizer settings
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// AuthConfig holds bearer token validation settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// CoordinatesYAML represents lat/lng coordinates in YAML config
type CoordinatesYAML struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// ToPoint converts CoordinatesYAML to a geo.Point
func (c CoordinatesYAML) ToPoint() geo.Point {
	return geo.Point{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Parking: ParkingConfig{
			BaseURL:         "http://localhost:8000",
			RefreshInterval: 30 * time.Second,
			StaleThreshold:  time.Minute,
			OccupancyTTL:    10 * time.Minute,
			Cameras: map[string]string{
				"lot_1": "parking_lot.mp4",
			},
		},
		Navigation: NavigationConfig{
			AnimationDuration:   60 * time.Second,
			FrameInterval:       50 * time.Millisecond,
			StepProximityMeters: 10,
			DefaultLocation: CoordinatesYAML{
				Latitude:  43.6532,
				Longitude: -79.3832,
			},
			DefaultZoom: 14,
		},
		Profile: ProfileConfig{
			BaseURL: "http://localhost:8000",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-3.5-turbo",
		},
	}
}

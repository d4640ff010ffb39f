package services

import (
	"log"

	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
)

// CameraPose describes how the map camera should frame the vehicle
type CameraPose struct {
	Center  geo.Point `json:"center"`
	Zoom    float64   `json:"zoom"`
	Tilt    float64   `json:"tilt"`    // Degrees from straight down
	Heading float64   `json:"heading"` // Degrees clockwise from north
}

// MapDisplay is the rendering surface the navigation controller drives.
// Browser clients implement this over the event stream; LoggingMapDisplay
// backs headless runs.
type MapDisplay interface {
	// MoveVehicle places the vehicle marker
	MoveVehicle(position geo.Point, heading float64)

	// SetCamera reframes the viewport
	SetCamera(pose CameraPose)

	// ResetView returns the map to its resting state
	ResetView()
}

// LoggingMapDisplay logs display calls instead of rendering. Used when the
// server runs without a connected map surface.
type LoggingMapDisplay struct{}

// NewLoggingMapDisplay creates a LoggingMapDisplay
func NewLoggingMapDisplay() *LoggingMapDisplay {
	return &LoggingMapDisplay{}
}

func (d *LoggingMapDisplay) MoveVehicle(position geo.Point, heading float64) {
	log.Printf("display: vehicle at (%.6f, %.6f) heading %.1f", position.Latitude, position.Longitude, heading)
}

func (d *LoggingMapDisplay) SetCamera(pose CameraPose) {
	log.Printf("display: camera center (%.6f, %.6f) zoom %.2f tilt %.1f", pose.Center.Latitude, pose.Center.Longitude, pose.Zoom, pose.Tilt)
}

func (d *LoggingMapDisplay) ResetView() {
	log.Printf("display: view reset")
}

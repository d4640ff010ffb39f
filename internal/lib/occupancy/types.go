package occupancy

import (
	"context"
	"time"
)

// RawOccupancy is the unprocessed occupancy reading for one lot, as reported
// by the detection backend.
type RawOccupancy struct {
	LotID          string    `json:"lot_id"`
	LotName        string    `json:"lot_name"`
	TotalSpots     int       `json:"total_spots"`
	AvailableSpots int       `json:"available_spots"`
	OccupiedSpots  int       `json:"occupied_spots"`
	OccupancyRate  float64   `json:"occupancy_rate"` // Percentage, 0-100
	CarCount       int       `json:"car_count"`      // Raw detector output, may disagree with OccupiedSpots
	ObservedAt     time.Time `json:"observed_at"`
}

// Summary is a rider-friendly description of a lot's occupancy
type Summary struct {
	LotID        string    `json:"lot_id"`
	Availability string    `json:"availability"` // "plenty", "limited", "full", "unknown"
	Headline     string    `json:"headline"`     // Single line shown on the lot marker
	Advice       string    `json:"advice"`       // Short guidance, e.g. suggest another lot
	ProcessedAt  time.Time `json:"processed_at"`
}

// Summarizer converts raw occupancy counts into natural-language summaries
type Summarizer interface {
	// Summarize produces a Summary for one lot reading
	Summarize(ctx context.Context, raw RawOccupancy) (Summary, error)

	// HealthCheck verifies the summarization backend is reachable
	HealthCheck(ctx context.Context) error
}

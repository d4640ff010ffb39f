package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/TalhaAWOL/Spot-Smart/internal/cache"
	"github.com/TalhaAWOL/Spot-Smart/internal/clients/parking"
	"github.com/TalhaAWOL/Spot-Smart/internal/config"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/geo"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/occupancy"
)

const lotsCacheKey = "lots:all"

// ParkingStatusClient is the slice of the parking backend used by the service
type ParkingStatusClient interface {
	GetParkingStatus(ctx context.Context) ([]parking.Lot, error)
	DetectCars(ctx context.Context, videoFilename string, frameNumber int) (*parking.DetectionResult, error)
}

// LotDetails is a lot with its generated occupancy summary attached
type LotDetails struct {
	parking.Lot
	Summary occupancy.Summary `json:"summary"`
}

// ParkingService serves lot listings and occupancy summaries, backed by the
// detection backend and an in-memory cache.
type ParkingService struct {
	parkingClient ParkingStatusClient
	summarizer    occupancy.Summarizer // nil when no OpenAI key is configured
	hasher        *occupancy.ContentHasher
	cache         *cache.Cache
	geoUtils      geo.GeoUtils
	config        *config.ParkingConfig
}

// NewParkingService creates a new ParkingService. summarizer may be nil, in
// which case occupancy summaries degrade to count-based fallbacks.
func NewParkingService(parkingClient ParkingStatusClient, summarizer occupancy.Summarizer, cache *cache.Cache, config *config.ParkingConfig) *ParkingService {
	return &ParkingService{
		parkingClient: parkingClient,
		summarizer:    summarizer,
		hasher:        occupancy.NewContentHasher(),
		cache:         cache,
		geoUtils:      geo.NewGeoUtils(),
		config:        config,
	}
}

// ListLots returns current occupancy for every monitored lot. Fresh cache
// entries are served directly; on refresh failure stale data is served as a
// fallback until it has been expired longer than the configured stale
// threshold.
func (s *ParkingService) ListLots(ctx context.Context) ([]parking.Lot, time.Time, error) {
	log.Printf("ListLots called")

	// GetWithMetadata still returns stale entries, so cachedLots stays
	// available for fallback serving after a failed refresh.
	var cachedLots []parking.Lot
	entry, found, err := s.cache.GetWithMetadata(lotsCacheKey, &cachedLots)
	if err != nil {
		log.Printf("Cache error: %v", err)
		found = false
	}

	if found && !s.cache.IsStale(lotsCacheKey) {
		log.Printf("Returning cached lots (%d lots)", len(cachedLots))
		return cachedLots, entry.CreatedAt, nil
	}

	log.Printf("Refreshing lot data from parking backend")
	lots, err := s.parkingClient.GetParkingStatus(ctx)
	if err != nil {
		// If refresh fails but we have stale data within the grace window,
		// return it
		if found && !s.cache.IsStaleBeyond(lotsCacheKey, s.config.StaleThreshold) {
			log.Printf("Refresh failed, returning stale cached lots: %v", err)
			return cachedLots, entry.CreatedAt, nil
		}
		return nil, time.Time{}, fmt.Errorf("failed to refresh lot data: %w", err)
	}

	sort.Slice(lots, func(i, j int) bool { return lots[i].ID < lots[j].ID })

	if err := s.cache.Set(lotsCacheKey, lots, s.config.RefreshInterval, "parking_backend"); err != nil {
		log.Printf("Failed to cache lots: %v", err)
	}

	return lots, time.Now(), nil
}

// GetLot returns a single lot by ID
func (s *ParkingService) GetLot(ctx context.Context, lotID string) (*parking.Lot, error) {
	lots, _, err := s.ListLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get lots: %w", err)
	}

	for i := range lots {
		if lots[i].ID == lotID {
			return &lots[i], nil
		}
	}

	return nil, fmt.Errorf("lot not found: %s", lotID)
}

// LotsNear returns lots within radiusMeters of a position, nearest first
func (s *ParkingService) LotsNear(ctx context.Context, position geo.Point, radiusMeters float64) ([]parking.Lot, error) {
	lots, _, err := s.ListLots(ctx)
	if err != nil {
		return nil, err
	}

	type lotDistance struct {
		lot      parking.Lot
		distance float64
	}

	var nearby []lotDistance
	for _, lot := range lots {
		distance, err := s.geoUtils.PointToPoint(position, lot.Location)
		if err != nil {
			log.Printf("Skipping lot %s with bad coordinates: %v", lot.ID, err)
			continue
		}
		if distance <= radiusMeters {
			nearby = append(nearby, lotDistance{lot: lot, distance: distance})
		}
	}

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].distance < nearby[j].distance })

	result := make([]parking.Lot, 0, len(nearby))
	for _, nd := range nearby {
		result = append(result, nd.lot)
	}
	return result, nil
}

// LotOccupancy returns a lot with its natural-language occupancy summary.
// Summaries are cached by a content hash of the counts, so a lot whose
// occupancy has not changed never triggers another OpenAI call. When the
// summarizer is unavailable the count-based fallback summary is served.
func (s *ParkingService) LotOccupancy(ctx context.Context, lotID string) (*LotDetails, error) {
	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	raw := occupancy.RawOccupancy{
		LotID:          lot.ID,
		LotName:        lot.Name,
		TotalSpots:     lot.TotalSpots,
		AvailableSpots: lot.AvailableSpots,
		OccupiedSpots:  lot.OccupiedSpots,
		OccupancyRate:  lot.OccupancyRate,
		ObservedAt:     lot.LastUpdated,
	}

	return &LotDetails{Lot: *lot, Summary: s.summarize(ctx, raw)}, nil
}

// summarize resolves a summary for one reading: content-hash cache first,
// then the summarizer, then the count-based fallback.
func (s *ParkingService) summarize(ctx context.Context, raw occupancy.RawOccupancy) occupancy.Summary {
	contentHash := s.hasher.HashRawOccupancy(raw)

	if cached, found, err := s.cache.GetOccupancySummary(contentHash); err == nil && found {
		return cached
	}

	if s.summarizer == nil {
		return occupancy.FallbackSummary(raw)
	}

	summary, err := s.summarizer.Summarize(ctx, raw)
	if err != nil {
		log.Printf("Summarization failed for lot %s, using fallback: %v", raw.LotID, err)
		return occupancy.FallbackSummary(raw)
	}

	if err := s.cache.SetOccupancySummary(contentHash, summary, s.config.OccupancyTTL); err != nil {
		log.Printf("Failed to cache summary for lot %s: %v", raw.LotID, err)
	}
	return summary
}

// RefreshDetections runs the car detector against each configured lot camera
// and returns the raw counts. Lots without a configured camera are skipped.
func (s *ParkingService) RefreshDetections(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)

	for lotID, videoFilename := range s.config.Cameras {
		result, err := s.parkingClient.DetectCars(ctx, videoFilename, 0)
		if err != nil {
			log.Printf("Detection failed for lot %s: %v", lotID, err)
			continue
		}
		counts[lotID] = result.CarCount
	}

	if len(counts) == 0 {
		return nil, fmt.Errorf("no lot cameras could be processed")
	}
	return counts, nil
}

// HTTP handlers

// HandleListLots serves GET /api/v1/lots, with optional lat/lng/radius
// filtering via query parameters.
func (s *ParkingService) HandleListLots(w http.ResponseWriter, r *http.Request) {
	latParam := r.URL.Query().Get("lat")
	lngParam := r.URL.Query().Get("lng")

	if latParam != "" && lngParam != "" {
		lat, latErr := strconv.ParseFloat(latParam, 64)
		lng, lngErr := strconv.ParseFloat(lngParam, 64)
		if latErr != nil || lngErr != nil {
			writeError(w, http.StatusBadRequest, "invalid lat/lng query parameters")
			return
		}

		radius := 2000.0
		if radiusParam := r.URL.Query().Get("radius"); radiusParam != "" {
			parsed, err := strconv.ParseFloat(radiusParam, 64)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "invalid radius query parameter")
				return
			}
			radius = parsed
		}

		lots, err := s.LotsNear(r.Context(), geo.Point{Latitude: lat, Longitude: lng}, radius)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"lots": lots})
		return
	}

	lots, lastUpdated, err := s.ListLots(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lots":         lots,
		"last_updated": lastUpdated.Format(time.RFC3339),
	})
}

// HandleLotOccupancy serves GET /api/v1/lot-occupancy?id=lot_1
func (s *ParkingService) HandleLotOccupancy(w http.ResponseWriter, r *http.Request) {
	lotID := r.URL.Query().Get("id")
	if lotID == "" {
		writeError(w, http.StatusBadRequest, "missing id query parameter")
		return
	}

	details, err := s.LotOccupancy(r.Context(), lotID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// HandleLotsKML serves GET /api/v1/lots.kml, a map overlay of every lot with
// its availability in the description.
func (s *ParkingService) HandleLotsKML(w http.ResponseWriter, r *http.Request) {
	lots, _, err := s.ListLots(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	placemarks := make([]kml.Element, 0, len(lots)+1)
	placemarks = append(placemarks, kml.Name("Campus Parking Lots"))
	for _, lot := range lots {
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(lot.Name),
			kml.Description(fmt.Sprintf("%d of %d spots free (%.1f%% full)",
				lot.AvailableSpots, lot.TotalSpots, lot.OccupancyRate)),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: lot.Location.Longitude, Lat: lot.Location.Latitude}),
			),
		))
	}

	doc := kml.KML(kml.Document(placemarks...))

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.WriteHeader(http.StatusOK)
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		log.Printf("Failed to write KML: %v", err)
	}
}

// HandleHealth serves GET /healthz with cache statistics
func (s *ParkingService) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.cache.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"cache": map[string]interface{}{
			"total_entries": stats.TotalEntries,
			"fresh_entries": stats.FreshEntries,
			"stale_entries": stats.StaleEntries,
		},
	})
}

// writeJSON writes a JSON response body with the given status
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

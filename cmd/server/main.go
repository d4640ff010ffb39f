package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/dpup/prefab"

	"github.com/TalhaAWOL/Spot-Smart/internal/auth"
	"github.com/TalhaAWOL/Spot-Smart/internal/cache"
	"github.com/TalhaAWOL/Spot-Smart/internal/clients/geolocate"
	"github.com/TalhaAWOL/Spot-Smart/internal/clients/google"
	"github.com/TalhaAWOL/Spot-Smart/internal/clients/parking"
	"github.com/TalhaAWOL/Spot-Smart/internal/clients/profile"
	"github.com/TalhaAWOL/Spot-Smart/internal/config"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/navigation"
	"github.com/TalhaAWOL/Spot-Smart/internal/lib/occupancy"
	"github.com/TalhaAWOL/Spot-Smart/internal/services"
)

func main() {
	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	// Initialize cache
	cacheInstance := cache.NewCache()
	cacheInstance.StartPeriodicCleanup(context.Background(), appConfig.Parking.OccupancyTTL)

	// Initialize external API clients
	parkingClient := parking.NewClient(appConfig.Parking.BaseURL)
	directionsClient := google.NewClient(appConfig.Directions.APIKey)
	geolocateClient := geolocate.NewClient(appConfig.Directions.APIKey)
	profileClient := profile.NewClient(appConfig.Profile.BaseURL)

	// Occupancy summarization degrades to count-based fallbacks without a key
	var summarizer occupancy.Summarizer
	if appConfig.OpenAI.APIKey != "" {
		summarizer = occupancy.NewSummarizer(appConfig.OpenAI.APIKey, appConfig.OpenAI.Model)
		log.Printf("Occupancy summaries enabled with content-based caching (model: %s)", appConfig.OpenAI.Model)
	} else {
		log.Printf("No OpenAI API key configured, serving count-based occupancy summaries")
	}

	// Initialize services
	parkingService := services.NewParkingService(parkingClient, summarizer, cacheInstance, &appConfig.Parking)

	simulator := navigation.NewSimulator(navigation.Options{
		AnimationDuration:   appConfig.Navigation.AnimationDuration,
		FrameInterval:       appConfig.Navigation.FrameInterval,
		StepProximityMeters: appConfig.Navigation.StepProximityMeters,
	})
	navigationService := services.NewNavigationService(
		simulator,
		directionsClient,
		geolocateClient,
		profileClient,
		services.NewLoggingMapDisplay(),
		&appConfig.Navigation,
	)

	log.Printf("Spot-Smart API server starting")
	log.Printf("Parking backend: %s", appConfig.Parking.BaseURL)
	log.Printf("Lot cameras configured: %d", len(appConfig.Parking.Cameras))

	// Start periodic refresh to maintain cache warmth
	periodicRefresh := services.NewPeriodicRefreshService(parkingService, &appConfig.Parking)
	if err := periodicRefresh.StartPeriodicRefresh(context.Background()); err != nil {
		log.Printf("Failed to start periodic refresh: %v", err)
	}

	verifier := auth.NewVerifier(appConfig.Auth.JWTSecret)

	// Create Prefab server; port and ambient settings come from prefab.yaml
	// and PF__ environment variables.
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/healthz", parkingService.HandleHealth),

		prefab.WithHTTPHandlerFunc("/api/v1/lots", parkingService.HandleListLots),
		prefab.WithHTTPHandlerFunc("/api/v1/lot-occupancy", parkingService.HandleLotOccupancy),
		prefab.WithHTTPHandlerFunc("/api/v1/lots.kml", parkingService.HandleLotsKML),

		prefab.WithHTTPHandlerFunc("/api/v1/navigation/start", navigationService.HandleStart),
		prefab.WithHTTPHandlerFunc("/api/v1/navigation/pause", navigationService.HandlePause),
		prefab.WithHTTPHandlerFunc("/api/v1/navigation/resume", navigationService.HandleResume),
		prefab.WithHTTPHandlerFunc("/api/v1/navigation/cancel", navigationService.HandleCancel),
		prefab.WithHTTPHandlerFunc("/api/v1/navigation/next-step", navigationService.HandleNextStep),
		prefab.WithHTTPHandlerFunc("/api/v1/navigation/previous-step", navigationService.HandlePreviousStep),
		prefab.WithHTTPHandlerFunc("/api/v1/navigation/recenter", navigationService.HandleRecenter),
		prefab.WithHTTPHandlerFunc("/api/v1/navigation/status", navigationService.HandleStatus),
		prefab.WithHTTPHandlerFunc("/api/v1/navigation/events", navigationService.HandleEvents),

		prefab.WithHTTPHandlerFunc("/api/v1/profile/searches", verifier.Middleware(navigationService.HandleHistory)),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration using Prefab's config system.
// Configuration is loaded from prefab.yaml and environment variables with
// the PF__ prefix, on top of the built-in defaults.
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	sections := map[string]interface{}{
		"parking":    &appConfig.Parking,
		"directions": &appConfig.Directions,
		"navigation": &appConfig.Navigation,
		"profile":    &appConfig.Profile,
		"openai":     &appConfig.OpenAI,
		"auth":       &appConfig.Auth,
	}
	for key, target := range sections {
		if err := prefab.Config.Unmarshal(key, target); err != nil {
			log.Fatalf("Failed to unmarshal %s section: %v", key, err)
		}
	}

	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Spot-Smart</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">Spot-Smart</span>

Campus parking locator API: live lot occupancy from camera detection,
driving directions, and simulated turn-by-turn navigation.

<span class="header">API Endpoints:</span>

Parking API:
  <a href="/api/v1/lots">GET /api/v1/lots</a>                        - All lots with live occupancy
  <a href="/api/v1/lots?lat=43.4691&lng=-79.6986&radius=2000">GET /api/v1/lots?lat=..&lng=..</a>          - Lots near a position
  <a href="/api/v1/lot-occupancy?id=lot_1">GET /api/v1/lot-occupancy?id=lot_1</a>      - One lot with its summary
  <a href="/api/v1/lots.kml">GET /api/v1/lots.kml</a>                    - Map overlay of all lots

Navigation API:
  POST /api/v1/navigation/start           - Route to a destination and start playback
  POST /api/v1/navigation/pause           - Pause playback
  POST /api/v1/navigation/resume          - Resume from the paused position
  POST /api/v1/navigation/cancel          - Stop and discard the route
  POST /api/v1/navigation/next-step       - Browse to the next instruction
  POST /api/v1/navigation/previous-step   - Browse to the previous instruction
  POST /api/v1/navigation/recenter        - Reframe the map (idle only)
  <a href="/api/v1/navigation/status">GET  /api/v1/navigation/status</a>          - Current playback state
  <a href="/api/v1/navigation/events">GET  /api/v1/navigation/events</a>          - Server-sent event stream

Profile API (bearer token required):
  GET  /api/v1/profile/searches           - Destination search history

<span class="header">Data Sources:</span>
  • Parking detection backend  - Lot occupancy from camera feeds
  • Google Routes API          - Driving directions
  • Google Geolocation API     - Device position estimates
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}

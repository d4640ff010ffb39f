package services

import (
	"context"
	"log"
	"time"

	"github.com/TalhaAWOL/Spot-Smart/internal/config"
)

// PeriodicRefreshService keeps the lot cache warm by hitting the existing
// refresh logic on the configured interval, so interactive requests almost
// always land on fresh cached data.
type PeriodicRefreshService struct {
	parkingService *ParkingService
	config         *config.ParkingConfig

	stopChan chan struct{}
	running  bool
}

// NewPeriodicRefreshService creates a new periodic refresh service
func NewPeriodicRefreshService(parkingService *ParkingService, config *config.ParkingConfig) *PeriodicRefreshService {
	return &PeriodicRefreshService{
		parkingService: parkingService,
		config:         config,
		stopChan:       make(chan struct{}),
	}
}

// StartPeriodicRefresh begins background cache refreshes
func (p *PeriodicRefreshService) StartPeriodicRefresh(ctx context.Context) error {
	if p.running {
		return nil // Already running
	}

	p.running = true
	interval := p.config.RefreshInterval

	log.Printf("Starting periodic lot refresh every %v", interval)
	go p.refreshLoop(ctx, interval)

	return nil
}

// Stop gracefully stops the periodic refresh
func (p *PeriodicRefreshService) Stop() {
	if !p.running {
		return
	}

	p.running = false
	close(p.stopChan)
	log.Printf("Stopped periodic refresh service")
}

// refreshLoop runs the periodic refresh in background
func (p *PeriodicRefreshService) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do initial refresh immediately
	p.refreshOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Periodic refresh stopping due to context cancellation")
			return
		case <-p.stopChan:
			log.Printf("Periodic refresh stopping due to stop signal")
			return
		case <-ticker.C:
			p.refreshOnce(ctx)
		}
	}
}

// refreshOnce drives ListLots, which contains all the cache refresh and
// stale fallback logic.
func (p *PeriodicRefreshService) refreshOnce(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if _, _, err := p.parkingService.ListLots(refreshCtx); err != nil {
		log.Printf("Periodic refresh failed: %v", err)
	}
}

// IsRunning returns whether periodic refresh is active
func (p *PeriodicRefreshService) IsRunning() bool {
	return p.running
}

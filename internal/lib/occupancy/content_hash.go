package occupancy

import (
	"crypto/sha256"
	"fmt"
)

// ContentHasher keys summaries by the counts that produced them, so a cached
// summary is reused until the lot's occupancy actually changes.
type ContentHasher struct{}

// NewContentHasher creates a new content hasher
func NewContentHasher() *ContentHasher {
	return &ContentHasher{}
}

// HashRawOccupancy creates a content hash for summary caching. ObservedAt and
// CarCount are excluded: the detector re-reports the same counts every cycle
// and raw detector noise should not invalidate an otherwise identical summary.
func (h *ContentHasher) HashRawOccupancy(raw RawOccupancy) string {
	contentSignature := fmt.Sprintf("%s|%d|%d|%d|%.1f",
		raw.LotID,
		raw.TotalSpots,
		raw.AvailableSpots,
		raw.OccupiedSpots,
		raw.OccupancyRate,
	)

	hash := sha256.Sum256([]byte(contentSignature))
	return fmt.Sprintf("%x", hash)
}

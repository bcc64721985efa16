package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// defaultListLimit caps ListRecent when the filter gives no limit.
const defaultListLimit = 20

// topVendorLimit caps the vendor breakdown in Stats.
const topVendorLimit = 5

// AuditStore is a slice-backed audit trail.
type AuditStore struct {
	mu      sync.RWMutex
	records []domain.AuditRecord
}

var _ driven.AuditStore = (*AuditStore)(nil)

// NewAuditStore creates an empty store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Append adds one record.
func (s *AuditStore) Append(_ context.Context, rec domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	return nil
}

// ListRecent returns the newest matching records, newest first.
func (s *AuditStore) ListRecent(_ context.Context, filter driven.AuditFilter) ([]domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var out []domain.AuditRecord
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := s.records[i]
		if filter.Category != "" && string(rec.Plan.Category) != filter.Category {
			continue
		}
		if filter.Vendor != "" && !strings.Contains(
			strings.ToLower(rec.Plan.Extracted["vendor"]), strings.ToLower(filter.Vendor)) {
			continue
		}
		if filter.Decision != "" && string(rec.Decision) != filter.Decision {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Stats aggregates activity over the window ending now.
func (s *AuditStore) Stats(_ context.Context, window time.Duration) (driven.AuditStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-window)
	stats := driven.AuditStats{
		Total:      len(s.records),
		ByDecision: make(map[string]int),
	}

	vendors := make(map[string]int)
	var elapsedSum time.Duration
	elapsedCount := 0
	for _, rec := range s.records {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		stats.Recent++
		stats.ByDecision[string(rec.Decision)]++
		if v := rec.Plan.Extracted["vendor"]; v != "" {
			vendors[v]++
		}
		if rec.Elapsed > 0 {
			elapsedSum += rec.Elapsed
			elapsedCount++
		}
	}
	if elapsedCount > 0 {
		stats.AvgElapsed = elapsedSum / time.Duration(elapsedCount)
	}

	for vendor, count := range vendors {
		stats.TopVendors = append(stats.TopVendors, driven.VendorCount{Vendor: vendor, Count: count})
	}
	sort.Slice(stats.TopVendors, func(i, j int) bool {
		if stats.TopVendors[i].Count != stats.TopVendors[j].Count {
			return stats.TopVendors[i].Count > stats.TopVendors[j].Count
		}
		return stats.TopVendors[i].Vendor < stats.TopVendors[j].Vendor
	})
	if len(stats.TopVendors) > topVendorLimit {
		stats.TopVendors = stats.TopVendors[:topVendorLimit]
	}

	return stats, nil
}

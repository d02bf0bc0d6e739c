// Package analytics computes the profit and stock indicators shown on the dashboard.
package analytics

import (
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// Service coordinates KPI aggregation with the cache layer. It never writes to the store.
type Service struct {
	store     store.Reader
	cache     *Cache
	threshold int
	now       func() time.Time
}

// NewService wires a store reader with a Cache helper. cache may be nil.
func NewService(reader store.Reader, cache *Cache, lowStockThreshold int) *Service {
	if lowStockThreshold <= 0 {
		lowStockThreshold = inventory.DefaultLowStockThreshold
	}
	return &Service{
		store:     reader,
		cache:     cache,
		threshold: lowStockThreshold,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// MonthToDate returns the filter from the first day of the current month to the next instant.
func (s *Service) MonthToDate() KPIFilter {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return KPIFilter{From: start, To: start.AddDate(0, 1, 0)}
}

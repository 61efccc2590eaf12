package cache

import (
	"time"

	"gastos/internal/core"
)

// StatsCache keeps dashboard aggregates keyed by tenant id. Entries
// arrive from two places: fetches within the current invocation and
// snapshots the backend persisted on earlier runs. Fresh applies the
// same TTL to both.
type StatsCache struct {
	lru *LRUCache[core.DashboardStats]
	ttl time.Duration
}

func NewStatsCache(maxTenants int, ttl time.Duration) *StatsCache {
	return &StatsCache{
		lru: NewLRUCache[core.DashboardStats](maxTenants, ttl),
		ttl: ttl,
	}
}

func (c *StatsCache) Get(tenantID string) (core.DashboardStats, bool) {
	return c.lru.Get(tenantID)
}

func (c *StatsCache) Set(tenantID string, stats core.DashboardStats) {
	c.lru.Set(tenantID, stats)
}

func (c *StatsCache) Drop(tenantID string) {
	c.lru.Delete(tenantID)
}

// Fresh reports whether a snapshot fetched at the given time is still
// within the TTL.
func (c *StatsCache) Fresh(fetchedAt time.Time) bool {
	return !fetchedAt.IsZero() && time.Since(fetchedAt) < c.ttl
}

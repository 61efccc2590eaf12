package pages

import (
	"context"
	"errors"
	"time"

	"gastos/internal/backend"
	"gastos/internal/cache"
	"gastos/internal/core"
	"gastos/internal/log"
)

const (
	dashboardCacheSize = 16
	dashboardCacheTTL  = 2 * time.Minute
)

// ErrStaleTenant signals that the active tenant changed while a fetch
// was in flight and the result was discarded.
var ErrStaleTenant = errors.New("tenant changed during fetch")

// DashboardPage serves aggregate stats with a short per-tenant cache.
// Hits come from the in-process cache first, then from the snapshot
// the backend persisted on an earlier invocation; both honor the same
// TTL. The backend numbers are authoritative; nothing is recomputed
// from the gasto list locally.
type DashboardPage struct {
	backend backend.Backend
	logger  *log.Logger
	cache   *cache.StatsCache
}

func NewDashboardPage(b backend.Backend, logger *log.Logger) *DashboardPage {
	return &DashboardPage{
		backend: b,
		logger:  logger.WithComponent(log.ComponentPages),
		cache:   cache.NewStatsCache(dashboardCacheSize, dashboardCacheTTL),
	}
}

// Stats returns the active tenant's aggregates, cached per tenant id.
// force bypasses and repopulates both cache layers.
func (p *DashboardPage) Stats(ctx context.Context, force bool) (*core.DashboardStats, error) {
	tenantID := p.backend.CurrentTenantID()

	if !force {
		if cached, ok := p.cache.Get(tenantID); ok {
			p.logger.DebugContext(ctx, "dashboard cache hit",
				log.FieldTenantID, tenantID)
			out := cached
			return &out, nil
		}
		if snap, fetchedAt, err := p.backend.CachedStats(ctx, tenantID); err != nil {
			p.logger.WarnContext(ctx, "stats snapshot unreadable",
				log.FieldTenantID, tenantID,
				log.FieldError, err)
		} else if snap != nil && p.cache.Fresh(fetchedAt) {
			p.logger.DebugContext(ctx, "dashboard snapshot reused",
				log.FieldTenantID, tenantID)
			p.cache.Set(tenantID, *snap)
			return snap, nil
		}
	}

	stats, err := p.backend.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	// A tenant switch during the fetch makes the result stale for
	// display and wrong for the cache key.
	if p.backend.CurrentTenantID() != tenantID {
		return nil, ErrStaleTenant
	}

	p.cache.Set(tenantID, *stats)
	if err := p.backend.StoreStats(ctx, tenantID, stats, time.Now()); err != nil {
		p.logger.WarnContext(ctx, "persist stats snapshot failed",
			log.FieldTenantID, tenantID,
			log.FieldError, err)
	}
	return stats, nil
}

// Invalidate drops the cached stats for the given tenant, in process
// and in the persisted snapshot, called after mutations.
func (p *DashboardPage) Invalidate(ctx context.Context, tenantID string) {
	p.cache.Drop(tenantID)
	if err := p.backend.DropStats(ctx, tenantID); err != nil {
		p.logger.WarnContext(ctx, "drop stats snapshot failed",
			log.FieldTenantID, tenantID,
			log.FieldError, err)
	}
}

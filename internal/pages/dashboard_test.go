package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	"gastos/internal/backend"
	"gastos/internal/core"
)

// countingBackend counts DashboardStats round trips.
type countingBackend struct {
	backend.Backend
	calls int
}

func (c *countingBackend) DashboardStats(ctx context.Context) (*core.DashboardStats, error) {
	c.calls++
	return c.Backend.DashboardStats(ctx)
}

func TestDashboardStatsCachedPerTenant(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	s.CreateGasto(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 100, Data: newDate(t, "2026-08-05"), Descricao: "a",
	})

	counting := &countingBackend{Backend: s}
	p := NewDashboardPage(counting, testLogger())

	first, err := p.Stats(ctx, false)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if first.TotalGastos != 100 {
		t.Fatalf("TotalGastos = %v", first.TotalGastos)
	}

	if _, err := p.Stats(ctx, false); err != nil {
		t.Fatalf("Stats (cached): %v", err)
	}
	if counting.calls != 1 {
		t.Fatalf("backend called %d times, want 1", counting.calls)
	}

	if _, err := p.Stats(ctx, true); err != nil {
		t.Fatalf("Stats (force): %v", err)
	}
	if counting.calls != 2 {
		t.Fatalf("force should refetch, calls = %d", counting.calls)
	}
}

func TestDashboardInvalidate(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	s.CreateGasto(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 100, Data: newDate(t, "2026-08-05"), Descricao: "a",
	})

	counting := &countingBackend{Backend: s}
	p := NewDashboardPage(counting, testLogger())

	if _, err := p.Stats(ctx, false); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	p.Invalidate(ctx, s.CurrentTenantID())
	if _, err := p.Stats(ctx, false); err != nil {
		t.Fatalf("Stats after invalidate: %v", err)
	}
	if counting.calls != 2 {
		t.Fatalf("invalidate should force a refetch, calls = %d", counting.calls)
	}
}

func TestDashboardSnapshotSurvivesNewPage(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	s.CreateGasto(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 100, Data: newDate(t, "2026-08-05"), Descricao: "a",
	})

	counting := &countingBackend{Backend: s}
	if _, err := NewDashboardPage(counting, testLogger()).Stats(ctx, false); err != nil {
		t.Fatalf("Stats: %v", err)
	}

	// A fresh page models a new invocation of the program.
	stats, err := NewDashboardPage(counting, testLogger()).Stats(ctx, false)
	if err != nil {
		t.Fatalf("Stats (new page): %v", err)
	}
	if counting.calls != 1 {
		t.Fatalf("fresh page should reuse the persisted snapshot, calls = %d", counting.calls)
	}
	if stats.TotalGastos != 100 {
		t.Fatalf("TotalGastos = %v", stats.TotalGastos)
	}
}

func TestDashboardExpiredSnapshotRefetched(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	s.CreateGasto(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 100, Data: newDate(t, "2026-08-05"), Descricao: "a",
	})

	counting := &countingBackend{Backend: s}
	if _, err := NewDashboardPage(counting, testLogger()).Stats(ctx, false); err != nil {
		t.Fatalf("Stats: %v", err)
	}

	tenantID := s.CurrentTenantID()
	snap, _, err := s.CachedStats(ctx, tenantID)
	if err != nil {
		t.Fatalf("CachedStats: %v", err)
	}
	s.StoreStats(ctx, tenantID, snap, time.Now().Add(-time.Hour))

	if _, err := NewDashboardPage(counting, testLogger()).Stats(ctx, false); err != nil {
		t.Fatalf("Stats (expired snapshot): %v", err)
	}
	if counting.calls != 2 {
		t.Fatalf("expired snapshot should refetch, calls = %d", counting.calls)
	}
}

func TestDashboardInvalidateDropsSnapshot(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	s.CreateGasto(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 100, Data: newDate(t, "2026-08-05"), Descricao: "a",
	})

	tenantID := s.CurrentTenantID()
	p := NewDashboardPage(s, testLogger())
	if _, err := p.Stats(ctx, false); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	p.Invalidate(ctx, tenantID)

	snap, _, err := s.CachedStats(ctx, tenantID)
	if err != nil {
		t.Fatalf("CachedStats: %v", err)
	}
	if snap != nil {
		t.Fatal("persisted snapshot should be gone after invalidate")
	}
}

// switchingDashboard switches tenant during the stats fetch.
type switchingDashboard struct {
	backend.Backend
	switchTo string
}

func (w *switchingDashboard) DashboardStats(ctx context.Context) (*core.DashboardStats, error) {
	out, err := w.Backend.DashboardStats(ctx)
	w.Backend.SetCurrentTenant(ctx, w.switchTo)
	return out, err
}

func TestDashboardStaleTenant(t *testing.T) {
	s, _, _ := seededWorkspace(t)
	ctx := context.Background()

	other, err := s.CreateTenant(ctx, core.CreateTenant{Nome: "Viagem"})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}

	p := NewDashboardPage(&switchingDashboard{Backend: s, switchTo: other.ID}, testLogger())
	if _, err := p.Stats(ctx, false); !errors.Is(err, ErrStaleTenant) {
		t.Fatalf("err = %v, want ErrStaleTenant", err)
	}
}

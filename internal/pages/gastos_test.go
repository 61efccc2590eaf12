package pages

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"gastos/internal/backend"
	"gastos/internal/backend/memory"
	"gastos/internal/core"
	"gastos/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
}

func newDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

// seededWorkspace registers a user, selects a tenant and creates one
// categoria plus one grupo.
func seededWorkspace(t *testing.T) (*memory.Store, core.Categoria, core.Grupo) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	if _, err := s.Register(ctx, core.Registration{
		Nome: "Ana", Email: "ana@example.com", Password: "secret",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	ten, err := s.CreateTenant(ctx, core.CreateTenant{Nome: "Casa"})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	s.SetCurrentTenant(ctx, ten.ID)

	cat, err := s.CreateCategoria(ctx, core.CreateCategoria{Nome: "Mercado", Tipo: "pessoal"})
	if err != nil {
		t.Fatalf("CreateCategoria: %v", err)
	}
	grp, err := s.CreateGrupo(ctx, core.CreateGrupo{Nome: "Familia", Tipo: core.GrupoFamilia})
	if err != nil {
		t.Fatalf("CreateGrupo: %v", err)
	}
	return s, *cat, *grp
}

func TestGastosPageLoad(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	s.CreateGasto(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 10, Data: newDate(t, "2026-08-01"), Descricao: "a",
	})
	s.CreateGasto(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 20, Data: newDate(t, "2026-08-02"), Descricao: "b",
	})

	p := NewGastosPage(s, testLogger())
	if err := p.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.Loaded() {
		t.Fatal("Loaded() = false after successful load")
	}
	if got := p.Gastos(); len(got) != 2 || got[0].Descricao != "b" {
		t.Fatalf("gastos = %+v, want newest first", got)
	}
	if len(p.Categorias()) != 1 || len(p.Grupos()) != 1 {
		t.Fatal("categorias and grupos should load alongside gastos")
	}
}

// tenantSwitcher flips the active tenant while a listing request is
// in flight, reproducing the race a user causes by switching tenants
// mid-load.
type tenantSwitcher struct {
	backend.Backend
	switchTo string
	done     bool
}

func (w *tenantSwitcher) Gastos(ctx context.Context, q core.GastosQuery) ([]core.Gasto, error) {
	out, err := w.Backend.Gastos(ctx, q)
	if !w.done {
		w.done = true
		w.Backend.SetCurrentTenant(ctx, w.switchTo)
	}
	return out, err
}

func TestGastosPageDiscardsStaleLoad(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	s.CreateGasto(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 10, Data: newDate(t, "2026-08-01"), Descricao: "first-tenant",
	})
	other, err := s.CreateTenant(ctx, core.CreateTenant{Nome: "Viagem"})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}

	p := NewGastosPage(&tenantSwitcher{Backend: s, switchTo: other.ID}, testLogger())
	if err := p.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if p.Loaded() {
		t.Fatal("stale load must be discarded, not applied")
	}
	if got := p.Gastos(); len(got) != 0 {
		t.Fatalf("stale gastos leaked into the page: %+v", got)
	}
}

func TestGastosPageCreatePrepends(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	p := NewGastosPage(s, testLogger())
	if err := p.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	created, err := p.Create(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 42.5, Data: newDate(t, "2026-08-10"), Descricao: "Feira",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := p.Gastos()
	if len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("created gasto not prepended: %+v", got)
	}
	if got[0].CategoriaNome != "Mercado" {
		t.Fatalf("CategoriaNome = %q", got[0].CategoriaNome)
	}
}

func TestGastosPageCreateValidatesLocally(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	p := NewGastosPage(s, testLogger())
	if err := p.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cases := []struct {
		name string
		data core.CreateGasto
		want error
	}{
		{"zero valor", core.CreateGasto{CategoriaID: cat.ID, Valor: 0,
			Data: newDate(t, "2026-08-10"), Descricao: "x"}, core.ErrInvalidAmount},
		{"negative valor", core.CreateGasto{CategoriaID: cat.ID, Valor: -5,
			Data: newDate(t, "2026-08-10"), Descricao: "x"}, core.ErrInvalidAmount},
		{"empty descricao", core.CreateGasto{CategoriaID: cat.ID, Valor: 5,
			Data: newDate(t, "2026-08-10"), Descricao: "  "}, core.ErrEmptyDescription},
		{"no categoria", core.CreateGasto{Valor: 5,
			Data: newDate(t, "2026-08-10"), Descricao: "x"}, core.ErrMissingCategoria},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := p.Create(ctx, tc.data); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if len(p.Gastos()) != 0 {
		t.Fatal("rejected creates must not touch the list")
	}
	if list, _ := s.Gastos(ctx, core.GastosQuery{}); len(list) != 0 {
		t.Fatal("rejected creates must not reach the backend")
	}
}

func TestGastosPageDeleteShrinksTotal(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	p := NewGastosPage(s, testLogger())
	if err := p.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	valores := []float64{100, 50, 30, 20}
	var target string
	for i, v := range valores {
		g, err := p.Create(ctx, core.CreateGasto{
			CategoriaID: cat.ID, Valor: v,
			Data: newDate(t, "2026-08-10"), Descricao: "item",
		})
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		if v == 50 {
			target = g.ID
		}
	}

	before := p.Total()
	if err := p.Delete(ctx, target); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got := p.Gastos(); len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if after := p.Total(); before-after != 50 {
		t.Fatalf("total shrank by %v, want 50", before-after)
	}
}

func TestGastosPageDeleteFailureKeepsList(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	p := NewGastosPage(s, testLogger())
	p.Load(ctx)
	p.Create(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 10, Data: newDate(t, "2026-08-10"), Descricao: "x",
	})

	if err := p.Delete(ctx, "missing"); err == nil {
		t.Fatal("expected delete failure")
	}
	if len(p.Gastos()) != 1 {
		t.Fatal("failed delete must leave the list intact")
	}
}

func TestGastosPageUpdateReplacesInPlace(t *testing.T) {
	s, cat, _ := seededWorkspace(t)
	ctx := context.Background()

	p := NewGastosPage(s, testLogger())
	p.Load(ctx)
	first, _ := p.Create(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 10, Data: newDate(t, "2026-08-10"), Descricao: "a",
	})
	p.Create(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 20, Data: newDate(t, "2026-08-11"), Descricao: "b",
	})

	novo := 15.0
	if _, err := p.Update(ctx, first.ID, core.UpdateGasto{Valor: &novo}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := p.Gastos()
	if got[1].ID != first.ID || got[1].Valor != 15 {
		t.Fatalf("update not applied in place: %+v", got)
	}
}

func TestGastosPageFilter(t *testing.T) {
	s, cat, grp := seededWorkspace(t)
	ctx := context.Background()

	p := NewGastosPage(s, testLogger())
	p.Load(ctx)
	p.Create(ctx, core.CreateGasto{
		CategoriaID: cat.ID, Valor: 100, Data: newDate(t, "2026-08-01"), Descricao: "Mercado semanal",
	})
	p.Create(ctx, core.CreateGasto{
		CategoriaID: cat.ID, GrupoID: &grp.ID, Valor: 60,
		Data: newDate(t, "2026-08-02"), Descricao: "Jantar",
	})

	p.SetFilter(core.GastoFilter{Search: "mercado"})
	if got := p.Filtered(); len(got) != 1 || got[0].Descricao != "Mercado semanal" {
		t.Fatalf("search filter: %+v", got)
	}

	p.SetFilter(core.GastoFilter{GrupoID: core.FilterPersonal})
	if got := p.Filtered(); len(got) != 1 || got[0].Valor != 100 {
		t.Fatalf("personal filter: %+v", got)
	}
	if p.Total() != 100 {
		t.Fatalf("Total = %v, want 100", p.Total())
	}

	p.SetFilter(core.GastoFilter{})
	if p.Total() != 160 {
		t.Fatalf("unfiltered total = %v, want 160", p.Total())
	}
}

func TestGastosPageNameLookups(t *testing.T) {
	s, cat, grp := seededWorkspace(t)
	ctx := context.Background()

	p := NewGastosPage(s, testLogger())
	if err := p.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got, ok := p.CategoriaByNome("mercado"); !ok || got.ID != cat.ID {
		t.Fatalf("CategoriaByNome: ok=%v got=%+v", ok, got)
	}
	if got, ok := p.GrupoByNome(grp.ID); !ok || got.Nome != "Familia" {
		t.Fatalf("GrupoByNome by id: ok=%v got=%+v", ok, got)
	}
	if _, ok := p.CategoriaByNome("nope"); ok {
		t.Fatal("unknown categoria should not resolve")
	}
}

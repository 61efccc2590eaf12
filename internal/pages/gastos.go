package pages

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"gastos/internal/backend"
	"gastos/internal/core"
	"gastos/internal/log"
)

// GastosPage is the expense listing: the gastos of the active tenant
// plus the categorias and grupos needed to describe and filter them.
type GastosPage struct {
	mu      sync.Mutex
	backend backend.Backend
	logger  *log.Logger

	gastos     []core.Gasto
	categorias []core.Categoria
	grupos     []core.Grupo
	filter     core.GastoFilter
	loaded     bool
}

func NewGastosPage(b backend.Backend, logger *log.Logger) *GastosPage {
	return &GastosPage{
		backend: b,
		logger:  logger.WithComponent(log.ComponentPages),
	}
}

// Load fetches gastos, categorias and grupos in parallel. The tenant
// id is captured before the requests go out; if the active tenant has
// changed by the time they return, the whole result set is discarded
// so a late response can never populate the page with another
// tenant's data.
func (p *GastosPage) Load(ctx context.Context) error {
	issuedFor := p.backend.CurrentTenantID()

	var (
		gastos     []core.Gasto
		categorias []core.Categoria
		grupos     []core.Grupo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gastos, err = p.backend.Gastos(gctx, core.GastosQuery{})
		return err
	})
	g.Go(func() error {
		var err error
		categorias, err = p.backend.Categorias(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		grupos, err = p.backend.Grupos(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if current := p.backend.CurrentTenantID(); current != issuedFor {
		p.logger.DebugContext(ctx, "discarding stale load",
			log.FieldTenantID, issuedFor)
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.gastos = gastos
	p.categorias = categorias
	p.grupos = grupos
	p.loaded = true
	return nil
}

func (p *GastosPage) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Create validates locally, submits, and prepends the stored gasto.
// Validation failures never reach the backend.
func (p *GastosPage) Create(ctx context.Context, data core.CreateGasto) (*core.Gasto, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	created, err := p.backend.CreateGasto(ctx, data)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.gastos = Prepend(p.gastos, *created)
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "gasto created",
		log.FieldOperation, log.OpCreate,
		log.FieldGastoID, created.ID,
		log.FieldValor, created.Valor)
	return created, nil
}

// Update submits a partial update and swaps the returned gasto into
// the list in place.
func (p *GastosPage) Update(ctx context.Context, id string, data core.UpdateGasto) (*core.Gasto, error) {
	updated, err := p.backend.UpdateGasto(ctx, id, data)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.gastos = ReplaceByID(p.gastos, *updated, gastoID)
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "gasto updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldGastoID, id)
	return updated, nil
}

// Delete removes the gasto from the backend, then from the list. A
// backend failure leaves the list untouched.
func (p *GastosPage) Delete(ctx context.Context, id string) error {
	if err := p.backend.DeleteGasto(ctx, id); err != nil {
		return err
	}

	p.mu.Lock()
	p.gastos = RemoveByID(p.gastos, id, gastoID)
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "gasto deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldGastoID, id)
	return nil
}

func (p *GastosPage) SetFilter(f core.GastoFilter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = f
}

// Filtered returns the gastos matching the current filter.
func (p *GastosPage) Filtered() []core.Gasto {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter.Apply(p.gastos)
}

// Total sums the filtered gastos.
func (p *GastosPage) Total() float64 {
	return core.Total(p.Filtered())
}

func (p *GastosPage) Gastos() []core.Gasto {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Gasto, len(p.gastos))
	copy(out, p.gastos)
	return out
}

func (p *GastosPage) Categorias() []core.Categoria {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Categoria, len(p.categorias))
	copy(out, p.categorias)
	return out
}

func (p *GastosPage) Grupos() []core.Grupo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Grupo, len(p.grupos))
	copy(out, p.grupos)
	return out
}

// CategoriaByNome resolves a categoria id from its display name,
// matching case-insensitively on loaded data.
func (p *GastosPage) CategoriaByNome(nome string) (core.Categoria, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.categorias {
		if strings.EqualFold(c.Nome, nome) || c.ID == nome {
			return c, true
		}
	}
	return core.Categoria{}, false
}

// GrupoByNome resolves a grupo id from its display name or id.
func (p *GastosPage) GrupoByNome(nome string) (core.Grupo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, g := range p.grupos {
		if strings.EqualFold(g.Nome, nome) || g.ID == nome {
			return g, true
		}
	}
	return core.Grupo{}, false
}

func gastoID(g core.Gasto) string { return g.ID }

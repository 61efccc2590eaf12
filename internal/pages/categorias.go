package pages

import (
	"context"
	"sync"

	"gastos/internal/backend"
	"gastos/internal/core"
	"gastos/internal/log"
)

// CategoriasPage manages the tenant's categoria list.
type CategoriasPage struct {
	mu      sync.Mutex
	backend backend.Backend
	logger  *log.Logger

	categorias []core.Categoria
}

func NewCategoriasPage(b backend.Backend, logger *log.Logger) *CategoriasPage {
	return &CategoriasPage{
		backend: b,
		logger:  logger.WithComponent(log.ComponentPages),
	}
}

func (p *CategoriasPage) Load(ctx context.Context) error {
	issuedFor := p.backend.CurrentTenantID()

	categorias, err := p.backend.Categorias(ctx)
	if err != nil {
		return err
	}
	if p.backend.CurrentTenantID() != issuedFor {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.categorias = categorias
	return nil
}

func (p *CategoriasPage) Create(ctx context.Context, data core.CreateCategoria) (*core.Categoria, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	created, err := p.backend.CreateCategoria(ctx, data)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.categorias = Prepend(p.categorias, *created)
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "categoria created",
		log.FieldOperation, log.OpCreate)
	return created, nil
}

func (p *CategoriasPage) Delete(ctx context.Context, id string) error {
	if err := p.backend.DeleteCategoria(ctx, id); err != nil {
		return err
	}

	p.mu.Lock()
	p.categorias = RemoveByID(p.categorias, id, categoriaID)
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "categoria deleted",
		log.FieldOperation, log.OpDelete)
	return nil
}

func (p *CategoriasPage) Categorias() []core.Categoria {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Categoria, len(p.categorias))
	copy(out, p.categorias)
	return out
}

func categoriaID(c core.Categoria) string { return c.ID }

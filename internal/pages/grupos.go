package pages

import (
	"context"
	"sync"

	"gastos/internal/backend"
	"gastos/internal/core"
	"gastos/internal/log"
)

// GruposPage manages the tenant's grupo list.
type GruposPage struct {
	mu      sync.Mutex
	backend backend.Backend
	logger  *log.Logger

	grupos []core.Grupo
}

func NewGruposPage(b backend.Backend, logger *log.Logger) *GruposPage {
	return &GruposPage{
		backend: b,
		logger:  logger.WithComponent(log.ComponentPages),
	}
}

func (p *GruposPage) Load(ctx context.Context) error {
	issuedFor := p.backend.CurrentTenantID()

	grupos, err := p.backend.Grupos(ctx)
	if err != nil {
		return err
	}
	if p.backend.CurrentTenantID() != issuedFor {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.grupos = grupos
	return nil
}

func (p *GruposPage) Create(ctx context.Context, data core.CreateGrupo) (*core.Grupo, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	created, err := p.backend.CreateGrupo(ctx, data)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.grupos = Prepend(p.grupos, *created)
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "grupo created",
		log.FieldOperation, log.OpCreate)
	return created, nil
}

func (p *GruposPage) Delete(ctx context.Context, id string) error {
	if err := p.backend.DeleteGrupo(ctx, id); err != nil {
		return err
	}

	p.mu.Lock()
	p.grupos = RemoveByID(p.grupos, id, grupoID)
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "grupo deleted",
		log.FieldOperation, log.OpDelete)
	return nil
}

func (p *GruposPage) Grupos() []core.Grupo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Grupo, len(p.grupos))
	copy(out, p.grupos)
	return out
}

func grupoID(g core.Grupo) string { return g.ID }

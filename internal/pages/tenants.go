package pages

import (
	"context"

	"gastos/internal/backend"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/session"
)

// TenantsPage is a thin view over the session manager: the tenant
// list lives there because selection must stay consistent with it.
type TenantsPage struct {
	backend backend.Backend
	session *session.Manager
	logger  *log.Logger
}

func NewTenantsPage(b backend.Backend, s *session.Manager, logger *log.Logger) *TenantsPage {
	return &TenantsPage{
		backend: b,
		session: s,
		logger:  logger.WithComponent(log.ComponentPages),
	}
}

func (p *TenantsPage) Load(ctx context.Context) error {
	return p.session.RefreshTenants(ctx)
}

func (p *TenantsPage) Tenants() []core.Tenant {
	return p.session.Tenants()
}

func (p *TenantsPage) Current() *core.Tenant {
	return p.session.Tenant()
}

func (p *TenantsPage) Create(ctx context.Context, data core.CreateTenant) (*core.Tenant, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return p.session.CreateTenant(ctx, data)
}

func (p *TenantsPage) Join(ctx context.Context, id string) error {
	return p.session.JoinTenant(ctx, id)
}

func (p *TenantsPage) Select(ctx context.Context, id string) error {
	return p.session.SelectTenant(ctx, id)
}

// Members lists the memberships of the active tenant.
func (p *TenantsPage) Members(ctx context.Context) ([]core.TenantUser, error) {
	return p.backend.TenantUsers(ctx)
}

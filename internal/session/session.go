// Package session tracks who is signed in and which tenant their
// requests are scoped to. A Manager wraps a backend and keeps the
// authenticated user, the tenant list and the active tenant coherent:
// the active tenant is always nil or a member of the fetched list.
package session

import (
	"context"
	"fmt"
	"sync"

	"gastos/internal/api"
	"gastos/internal/backend"
	"gastos/internal/core"
	"gastos/internal/log"
)

type Manager struct {
	mu      sync.Mutex
	backend backend.Backend
	logger  *log.Logger

	user         *core.User
	tenant       *core.Tenant
	tenants      []core.Tenant
	initializing bool
}

func NewManager(b backend.Backend, logger *log.Logger) *Manager {
	return &Manager{
		backend:      b,
		logger:       logger.WithComponent(log.ComponentSession),
		initializing: true,
	}
}

// Initialize restores a previous session from whatever credentials the
// backend still holds. A rejected token is discarded so the next run
// starts clean. Fetch failures are logged, never returned: the token
// stays in place for a retry and the run continues unauthenticated, so
// commands that do not need the backend keep working. The initializing
// flag is cleared on every path.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.initializing = false }()

	if !m.backend.IsAuthenticated() {
		return nil
	}

	user, err := m.backend.CurrentUser(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			m.logger.InfoContext(ctx, "stored token rejected, clearing",
				log.FieldOperation, log.OpRefresh)
			if clearErr := m.backend.ClearToken(ctx); clearErr != nil {
				return fmt.Errorf("clear rejected token: %w", clearErr)
			}
			return nil
		}
		m.logger.WarnContext(ctx, "session restore failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
		return nil
	}

	m.user = user
	if err := m.refreshTenantsLocked(ctx); err != nil {
		// Session survives a failed tenant fetch.
		m.logger.WarnContext(ctx, "tenant refresh failed during init",
			log.FieldError, err)
	}
	return nil
}

// Login authenticates and loads the tenant list. On failure the
// session state is left untouched.
func (m *Manager) Login(ctx context.Context, creds core.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	resp, err := m.backend.Login(ctx, creds)
	if err != nil {
		return err
	}

	m.user = &resp.User
	m.logger.InfoContext(ctx, "logged in",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, resp.User.ID)

	if err := m.refreshTenantsLocked(ctx); err != nil {
		m.logger.WarnContext(ctx, "tenant refresh failed after login",
			log.FieldError, err)
	}
	return nil
}

func (m *Manager) Register(ctx context.Context, reg core.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	resp, err := m.backend.Register(ctx, reg)
	if err != nil {
		return err
	}

	m.user = &resp.User
	m.logger.InfoContext(ctx, "registered",
		log.FieldOperation, log.OpRegister,
		log.FieldUserID, resp.User.ID)

	if err := m.refreshTenantsLocked(ctx); err != nil {
		m.logger.WarnContext(ctx, "tenant refresh failed after register",
			log.FieldError, err)
	}
	return nil
}

// Logout drops credentials and all session state. Local state is
// cleared even when the backend call fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.backend.Logout(ctx)
	m.user = nil
	m.tenant = nil
	m.tenants = nil
	m.logger.InfoContext(ctx, "logged out", log.FieldOperation, log.OpLogout)
	return err
}

// RefreshTenants refetches the tenant list and reapplies the selection
// policy. Safe to call repeatedly.
func (m *Manager) RefreshTenants(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshTenantsLocked(ctx)
}

// refreshTenantsLocked fetches the list and picks the active tenant:
// the persisted choice when it is still in the list, otherwise the
// first entry, otherwise none.
func (m *Manager) refreshTenantsLocked(ctx context.Context) error {
	tenants, err := m.backend.Tenants(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	m.tenants = tenants

	if len(tenants) == 0 {
		m.tenant = nil
		if err := m.backend.ClearCurrentTenant(ctx); err != nil {
			m.logger.WarnContext(ctx, "clear tenant selection failed",
				log.FieldError, err)
		}
		return nil
	}

	persisted := m.backend.CurrentTenantID()
	for i := range tenants {
		if tenants[i].ID == persisted {
			m.tenant = &tenants[i]
			return nil
		}
	}

	m.tenant = &tenants[0]
	if err := m.backend.SetCurrentTenant(ctx, tenants[0].ID); err != nil {
		m.logger.WarnContext(ctx, "persist tenant selection failed",
			log.FieldTenantID, tenants[0].ID,
			log.FieldError, err)
	}
	return nil
}

// SelectTenant switches the active tenant. The id must belong to the
// already-fetched tenant list; no refetch happens here.
func (m *Manager) SelectTenant(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.tenants {
		if m.tenants[i].ID == id {
			m.tenant = &m.tenants[i]
			if err := m.backend.SetCurrentTenant(ctx, id); err != nil {
				return fmt.Errorf("persist tenant selection: %w", err)
			}
			m.logger.InfoContext(ctx, "tenant selected",
				log.FieldOperation, log.OpSelect,
				log.FieldTenantID, id)
			return nil
		}
	}
	return fmt.Errorf("tenant %q: %w", id, core.ErrNotMember)
}

// CreateTenant creates a tenant, refreshes the list and selects the
// new one.
func (m *Manager) CreateTenant(ctx context.Context, data core.CreateTenant) (*core.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tenant, err := m.backend.CreateTenant(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := m.refreshTenantsLocked(ctx); err != nil {
		m.logger.WarnContext(ctx, "tenant refresh failed after create",
			log.FieldError, err)
	}
	return tenant, m.selectKnownLocked(ctx, tenant.ID)
}

// JoinTenant joins an existing tenant by id, refreshes and selects it.
func (m *Manager) JoinTenant(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.backend.JoinTenant(ctx, id); err != nil {
		return err
	}
	if err := m.refreshTenantsLocked(ctx); err != nil {
		m.logger.WarnContext(ctx, "tenant refresh failed after join",
			log.FieldError, err)
	}
	return m.selectKnownLocked(ctx, id)
}

func (m *Manager) selectKnownLocked(ctx context.Context, id string) error {
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			m.tenant = &m.tenants[i]
			return m.backend.SetCurrentTenant(ctx, id)
		}
	}
	return nil
}

func (m *Manager) User() *core.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) Tenant() *core.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tenant == nil {
		return nil
	}
	t := *m.tenant
	return &t
}

func (m *Manager) Tenants() []core.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Tenant, len(m.tenants))
	copy(out, m.tenants)
	return out
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

func (m *Manager) Initializing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initializing
}

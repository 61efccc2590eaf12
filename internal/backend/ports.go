// Package backend defines the ports the session context and the page
// state consume, and a factory that selects between the HTTP client
// and the in-memory implementation.
package backend

import (
	"context"
	"time"

	"gastos/internal/core"
)

// Ports for the outbound backend.
type (
	Authenticator interface {
		Login(ctx context.Context, creds core.Credentials) (*core.AuthResponse, error)
		Register(ctx context.Context, reg core.Registration) (*core.AuthResponse, error)
		Logout(ctx context.Context) error
		CurrentUser(ctx context.Context) (*core.User, error)
		// IsAuthenticated reports whether a token is held locally,
		// not whether the backend still accepts it.
		IsAuthenticated() bool
		ClearToken(ctx context.Context) error
	}

	// TenantDirectory lists and manages the tenants available to the
	// authenticated user and owns the current-tenant selection.
	TenantDirectory interface {
		Tenants(ctx context.Context) ([]core.Tenant, error)
		CreateTenant(ctx context.Context, data core.CreateTenant) (*core.Tenant, error)
		JoinTenant(ctx context.Context, tenantID string) (*core.TenantUser, error)
		TenantUsers(ctx context.Context) ([]core.TenantUser, error)
		SetCurrentTenant(ctx context.Context, id string) error
		ClearCurrentTenant(ctx context.Context) error
		CurrentTenantID() string
	}

	GastoService interface {
		Gastos(ctx context.Context, q core.GastosQuery) ([]core.Gasto, error)
		CreateGasto(ctx context.Context, data core.CreateGasto) (*core.Gasto, error)
		UpdateGasto(ctx context.Context, id string, data core.UpdateGasto) (*core.Gasto, error)
		DeleteGasto(ctx context.Context, id string) error
	}

	CategoriaService interface {
		Categorias(ctx context.Context) ([]core.Categoria, error)
		CreateCategoria(ctx context.Context, data core.CreateCategoria) (*core.Categoria, error)
		DeleteCategoria(ctx context.Context, id string) error
	}

	GrupoService interface {
		Grupos(ctx context.Context) ([]core.Grupo, error)
		CreateGrupo(ctx context.Context, data core.CreateGrupo) (*core.Grupo, error)
		DeleteGrupo(ctx context.Context, id string) error
	}

	// DashboardReader serves backend-computed aggregates and keeps a
	// per-tenant snapshot of the last fetch so consecutive invocations
	// can reuse it. CachedStats returns a nil stats pointer when no
	// snapshot is stored.
	DashboardReader interface {
		DashboardStats(ctx context.Context) (*core.DashboardStats, error)
		CachedStats(ctx context.Context, tenantID string) (*core.DashboardStats, time.Time, error)
		StoreStats(ctx context.Context, tenantID string, stats *core.DashboardStats, fetchedAt time.Time) error
		DropStats(ctx context.Context, tenantID string) error
	}
)

// Backend is the full surface a front-end needs.
type Backend interface {
	Authenticator
	TenantDirectory
	GastoService
	CategoriaService
	GrupoService
	DashboardReader
}

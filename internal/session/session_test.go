package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"gastos/internal/backend/memory"
	"gastos/internal/core"
	"gastos/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
}

func seededBackend(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	_, err := s.Register(context.Background(), core.Registration{
		Nome: "Ana", Email: "ana@example.com", Password: "secret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return s
}

func TestLoginSelectsFirstTenant(t *testing.T) {
	s := seededBackend(t)
	ctx := context.Background()

	first, _ := s.CreateTenant(ctx, core.CreateTenant{Nome: "Casa"})
	s.CreateTenant(ctx, core.CreateTenant{Nome: "Viagem"})
	s.Logout(ctx)

	m := NewManager(s, testLogger())
	if err := m.Login(ctx, core.Credentials{Email: "ana@example.com", Password: "secret"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if u := m.User(); u == nil || u.Email != "ana@example.com" {
		t.Fatalf("User() = %+v", u)
	}
	if ten := m.Tenant(); ten == nil || ten.ID != first.ID {
		t.Fatalf("Tenant() = %+v, want first tenant %s", ten, first.ID)
	}
	if got := s.CurrentTenantID(); got != first.ID {
		t.Fatalf("selection not persisted: %q", got)
	}
	if len(m.Tenants()) != 2 {
		t.Fatalf("Tenants() = %d, want 2", len(m.Tenants()))
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	s := seededBackend(t)
	m := NewManager(s, testLogger())

	err := m.Login(context.Background(), core.Credentials{
		Email: "ana@example.com", Password: "wrong",
	})
	if err == nil {
		t.Fatal("expected login failure")
	}
	if m.User() != nil || m.Tenant() != nil {
		t.Fatal("failed login must not change session state")
	}
}

func TestPersistedTenantWins(t *testing.T) {
	s := seededBackend(t)
	ctx := context.Background()

	s.CreateTenant(ctx, core.CreateTenant{Nome: "Casa"})
	second, _ := s.CreateTenant(ctx, core.CreateTenant{Nome: "Viagem"})
	s.SetCurrentTenant(ctx, second.ID)

	m := NewManager(s, testLogger())
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if ten := m.Tenant(); ten == nil || ten.ID != second.ID {
		t.Fatalf("Tenant() = %+v, want persisted %s", ten, second.ID)
	}
	if m.Initializing() {
		t.Fatal("initializing flag still set")
	}
}

func TestInitializeClearsRejectedToken(t *testing.T) {
	s := seededBackend(t)
	ctx := context.Background()
	s.RevokeSessions()

	m := NewManager(s, testLogger())
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if m.User() != nil {
		t.Fatal("no user should be restored from a rejected token")
	}
	if s.IsAuthenticated() {
		t.Fatal("rejected token should have been cleared")
	}
}

// unreachableBackend fails remote calls the way a down backend would.
type unreachableBackend struct {
	*memory.Store
}

func (u *unreachableBackend) CurrentUser(context.Context) (*core.User, error) {
	return nil, errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
}

func TestInitializeSurvivesUnreachableBackend(t *testing.T) {
	s := seededBackend(t)
	ctx := context.Background()

	m := NewManager(&unreachableBackend{Store: s}, testLogger())
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatal("no user should be restored when the backend is unreachable")
	}
	if m.Initializing() {
		t.Fatal("initializing flag still set")
	}
	if !s.IsAuthenticated() {
		t.Fatal("token must be kept for a later retry")
	}
}

func TestInitializeWithoutToken(t *testing.T) {
	s := memory.New()
	m := NewManager(s, testLogger())
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatal("fresh backend should not yield a session")
	}
}

func TestSelectTenantRejectsNonMember(t *testing.T) {
	s := seededBackend(t)
	ctx := context.Background()
	s.CreateTenant(ctx, core.CreateTenant{Nome: "Casa"})

	m := NewManager(s, testLogger())
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	err := m.SelectTenant(ctx, "not-a-member")
	if !errors.Is(err, core.ErrNotMember) {
		t.Fatalf("err = %v, want ErrNotMember", err)
	}
	if ten := m.Tenant(); ten == nil || ten.Nome != "Casa" {
		t.Fatalf("active tenant changed on rejected select: %+v", ten)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	s := seededBackend(t)
	ctx := context.Background()
	s.CreateTenant(ctx, core.CreateTenant{Nome: "Casa"})

	m := NewManager(s, testLogger())
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if m.User() != nil || m.Tenant() != nil || len(m.Tenants()) != 0 {
		t.Fatal("logout must clear user, tenant and tenant list")
	}
	if s.IsAuthenticated() {
		t.Fatal("backend still authenticated after logout")
	}
}

func TestRefreshTenantsIdempotent(t *testing.T) {
	s := seededBackend(t)
	ctx := context.Background()
	ten, _ := s.CreateTenant(ctx, core.CreateTenant{Nome: "Casa"})

	m := NewManager(s, testLogger())
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := m.RefreshTenants(ctx); err != nil {
			t.Fatalf("RefreshTenants #%d: %v", i, err)
		}
		if got := m.Tenant(); got == nil || got.ID != ten.ID {
			t.Fatalf("selection drifted on refresh #%d: %+v", i, got)
		}
	}
}

func TestCreateTenantSelectsIt(t *testing.T) {
	s := seededBackend(t)
	ctx := context.Background()
	s.CreateTenant(ctx, core.CreateTenant{Nome: "Casa"})

	m := NewManager(s, testLogger())
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	created, err := m.CreateTenant(ctx, core.CreateTenant{Nome: "Viagem"})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if ten := m.Tenant(); ten == nil || ten.ID != created.ID {
		t.Fatalf("new tenant not selected: %+v", ten)
	}
	if s.CurrentTenantID() != created.ID {
		t.Fatal("new tenant selection not persisted")
	}
}

func TestInspectToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	iat := time.Now().Add(-time.Minute).Truncate(time.Second)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   "user-1",
		IssuedAt:  iat.Unix(),
		ExpiresAt: exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	info, err := InspectToken(raw)
	if err != nil {
		t.Fatalf("InspectToken: %v", err)
	}
	if info.Subject != "user-1" {
		t.Fatalf("Subject = %q", info.Subject)
	}
	if !info.ExpiresAt.Equal(exp.UTC()) {
		t.Fatalf("ExpiresAt = %v, want %v", info.ExpiresAt, exp.UTC())
	}
	if info.Expired(time.Now()) {
		t.Fatal("token should not be expired")
	}
	if !info.Expired(exp.Add(time.Second)) {
		t.Fatal("token should be expired after exp")
	}
}

func TestInspectTokenGarbage(t *testing.T) {
	if _, err := InspectToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

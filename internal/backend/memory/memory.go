// Package memory is a self-contained in-process backend. It mirrors
// the REST service's visible behavior (tenant scoping, error details,
// ordering) closely enough to serve demos and the test suites.
package memory

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gastos/internal/api"
	"gastos/internal/core"
)

type membership struct {
	id       string
	tenantID string
	userID   string
	role     string
}

type account struct {
	user     core.User
	password string
}

type Store struct {
	mu sync.Mutex

	accounts    map[string]*account // by email
	sessions    map[string]string   // token -> user id
	tenants     map[string]core.Tenant
	memberships []membership
	grupos      []core.Grupo
	categorias  []core.Categoria
	gastos      []core.Gasto
	snapshots   map[string]statsSnapshot // by tenant id

	token    string
	tenantID string
}

type statsSnapshot struct {
	stats     core.DashboardStats
	fetchedAt time.Time
}

func New() *Store {
	return &Store{
		accounts:  make(map[string]*account),
		sessions:  make(map[string]string),
		tenants:   make(map[string]core.Tenant),
		snapshots: make(map[string]statsSnapshot),
	}
}

func reject(status int, detail string) error {
	return &api.APIError{StatusCode: status, Detail: detail}
}

// --- Authenticator ---

func (s *Store) Register(_ context.Context, reg core.Registration) (*core.AuthResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if email == "" || reg.Password == "" {
		return nil, reject(http.StatusUnprocessableEntity, "Email and password are required")
	}
	if _, exists := s.accounts[email]; exists {
		return nil, reject(http.StatusBadRequest, "Email already registered")
	}

	acc := &account{
		user: core.User{
			ID:        uuid.NewString(),
			Nome:      reg.Nome,
			Email:     email,
			CreatedAt: time.Now().UTC(),
		},
		password: reg.Password,
	}
	s.accounts[email] = acc

	token := uuid.NewString()
	s.sessions[token] = acc.user.ID
	s.token = token

	return &core.AuthResponse{AccessToken: token, TokenType: "bearer", User: acc.user}, nil
}

func (s *Store) Login(_ context.Context, creds core.Credentials) (*core.AuthResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(creds.Email))]
	if !ok || acc.password != creds.Password {
		return nil, reject(http.StatusUnauthorized, "Invalid credentials")
	}

	token := uuid.NewString()
	s.sessions[token] = acc.user.ID
	s.token = token

	return &core.AuthResponse{AccessToken: token, TokenType: "bearer", User: acc.user}, nil
}

func (s *Store) Logout(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.tenantID = ""
	return nil
}

func (s *Store) CurrentUser(_ context.Context) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUserLocked()
	if err != nil {
		return nil, err
	}
	out := *u
	return &out, nil
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

func (s *Store) ClearToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// RevokeSessions invalidates every issued token while keeping the held
// one in place, simulating a backend-side token rejection.
func (s *Store) RevokeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

func (s *Store) currentUserLocked() (*core.User, error) {
	if s.token == "" {
		return nil, reject(http.StatusUnauthorized, "Not authenticated")
	}
	userID, ok := s.sessions[s.token]
	if !ok {
		return nil, reject(http.StatusUnauthorized, "Invalid token")
	}
	for _, acc := range s.accounts {
		if acc.user.ID == userID {
			return &acc.user, nil
		}
	}
	return nil, reject(http.StatusUnauthorized, "Invalid token")
}

// --- TenantDirectory ---

func (s *Store) Tenants(_ context.Context) ([]core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUserLocked()
	if err != nil {
		return nil, err
	}

	var out []core.Tenant
	for _, m := range s.memberships {
		if m.userID == u.ID {
			out = append(out, s.tenants[m.tenantID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateTenant(_ context.Context, data core.CreateTenant) (*core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUserLocked()
	if err != nil {
		return nil, err
	}

	plano := data.Plano
	if plano == "" {
		plano = "free"
	}
	t := core.Tenant{
		ID:        uuid.NewString(),
		Nome:      data.Nome,
		Plano:     plano,
		CreatedAt: time.Now().UTC(),
	}
	s.tenants[t.ID] = t
	s.memberships = append(s.memberships, membership{
		id:       uuid.NewString(),
		tenantID: t.ID,
		userID:   u.ID,
		role:     core.RoleOwner,
	})
	return &t, nil
}

func (s *Store) JoinTenant(_ context.Context, tenantID string) (*core.TenantUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUserLocked()
	if err != nil {
		return nil, err
	}
	if _, ok := s.tenants[tenantID]; !ok {
		return nil, reject(http.StatusNotFound, "Tenant not found")
	}
	for _, m := range s.memberships {
		if m.tenantID == tenantID && m.userID == u.ID {
			return nil, reject(http.StatusBadRequest, "Already a member")
		}
	}

	m := membership{
		id:       uuid.NewString(),
		tenantID: tenantID,
		userID:   u.ID,
		role:     core.RoleMember,
	}
	s.memberships = append(s.memberships, m)
	return &core.TenantUser{ID: m.id, TenantID: m.tenantID, UserID: m.userID, Role: m.role}, nil
}

func (s *Store) TenantUsers(_ context.Context) ([]core.TenantUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return nil, err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return nil, err
	}

	var out []core.TenantUser
	for _, m := range s.memberships {
		if m.tenantID != tenantID {
			continue
		}
		tu := core.TenantUser{ID: m.id, TenantID: m.tenantID, UserID: m.userID, Role: m.role}
		for _, acc := range s.accounts {
			if acc.user.ID == m.userID {
				u := acc.user
				tu.User = &u
				break
			}
		}
		out = append(out, tu)
	}
	return out, nil
}

func (s *Store) SetCurrentTenant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenantID = id
	return nil
}

func (s *Store) ClearCurrentTenant(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenantID = ""
	return nil
}

func (s *Store) CurrentTenantID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenantID
}

func (s *Store) currentTenantLocked() (string, error) {
	if s.tenantID == "" {
		return "", reject(http.StatusBadRequest, "Tenant ID required")
	}
	if _, ok := s.tenants[s.tenantID]; !ok {
		return "", reject(http.StatusNotFound, "Tenant not found")
	}
	return s.tenantID, nil
}

// --- GrupoService ---

func (s *Store) Grupos(_ context.Context) ([]core.Grupo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return nil, err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return nil, err
	}

	var out []core.Grupo
	for _, g := range s.grupos {
		if g.TenantID == tenantID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) CreateGrupo(_ context.Context, data core.CreateGrupo) (*core.Grupo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return nil, err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return nil, err
	}

	g := core.Grupo{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Nome:      data.Nome,
		Tipo:      data.Tipo,
		CreatedAt: time.Now().UTC(),
	}
	s.grupos = append(s.grupos, g)
	return &g, nil
}

func (s *Store) DeleteGrupo(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return err
	}

	for i, g := range s.grupos {
		if g.ID == id && g.TenantID == tenantID {
			s.grupos = append(s.grupos[:i], s.grupos[i+1:]...)
			return nil
		}
	}
	return reject(http.StatusNotFound, "Grupo not found")
}

// --- CategoriaService ---

func (s *Store) Categorias(_ context.Context) ([]core.Categoria, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return nil, err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return nil, err
	}

	var out []core.Categoria
	for _, c := range s.categorias {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) CreateCategoria(_ context.Context, data core.CreateCategoria) (*core.Categoria, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return nil, err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return nil, err
	}

	c := core.Categoria{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Nome:     data.Nome,
		Tipo:     data.Tipo,
	}
	s.categorias = append(s.categorias, c)
	return &c, nil
}

func (s *Store) DeleteCategoria(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return err
	}

	for i, c := range s.categorias {
		if c.ID == id && c.TenantID == tenantID {
			s.categorias = append(s.categorias[:i], s.categorias[i+1:]...)
			return nil
		}
	}
	return reject(http.StatusNotFound, "Categoria not found")
}

// --- GastoService ---

func (s *Store) Gastos(_ context.Context, q core.GastosQuery) ([]core.Gasto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return nil, err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return nil, err
	}

	var out []core.Gasto
	for _, g := range s.gastos {
		if g.TenantID != tenantID {
			continue
		}
		if q.GrupoID != "" && (g.GrupoID == nil || *g.GrupoID != q.GrupoID) {
			continue
		}
		if q.CategoriaID != "" && g.CategoriaID != q.CategoriaID {
			continue
		}
		out = append(out, g)
	}
	// Newest first, like the service.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Data.After(out[j].Data.Time)
	})
	return out, nil
}

func (s *Store) CreateGasto(_ context.Context, data core.CreateGasto) (*core.Gasto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUserLocked()
	if err != nil {
		return nil, err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, reject(http.StatusUnprocessableEntity, err.Error())
	}

	g := core.Gasto{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		UserID:      u.ID,
		GrupoID:     data.GrupoID,
		CategoriaID: data.CategoriaID,
		Valor:       data.Valor,
		Data:        data.Data,
		Descricao:   data.Descricao,
		CreatedAt:   time.Now().UTC(),
		UserNome:    u.Nome,
	}
	s.denormalizeLocked(&g)
	s.gastos = append(s.gastos, g)
	return &g, nil
}

func (s *Store) UpdateGasto(_ context.Context, id string, data core.UpdateGasto) (*core.Gasto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return nil, err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return nil, err
	}

	for i := range s.gastos {
		g := &s.gastos[i]
		if g.ID != id || g.TenantID != tenantID {
			continue
		}
		if data.CategoriaID != nil {
			g.CategoriaID = *data.CategoriaID
		}
		if data.GrupoID != nil {
			g.GrupoID = data.GrupoID
		}
		if data.Valor != nil {
			g.Valor = *data.Valor
		}
		if data.Data != nil {
			g.Data = *data.Data
		}
		if data.Descricao != nil {
			g.Descricao = *data.Descricao
		}
		s.denormalizeLocked(g)
		out := *g
		return &out, nil
	}
	return nil, reject(http.StatusNotFound, "Gasto not found")
}

func (s *Store) DeleteGasto(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return err
	}

	for i, g := range s.gastos {
		if g.ID == id && g.TenantID == tenantID {
			s.gastos = append(s.gastos[:i], s.gastos[i+1:]...)
			return nil
		}
	}
	return reject(http.StatusNotFound, "Gasto not found")
}

func (s *Store) denormalizeLocked(g *core.Gasto) {
	for _, c := range s.categorias {
		if c.ID == g.CategoriaID {
			g.CategoriaNome = c.Nome
			break
		}
	}
	g.GrupoNome = ""
	if g.GrupoID != nil {
		for _, gr := range s.grupos {
			if gr.ID == *g.GrupoID {
				g.GrupoNome = gr.Nome
				break
			}
		}
	}
}

// --- DashboardReader ---

var meses = []string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez"}

func (s *Store) DashboardStats(_ context.Context) (*core.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUserLocked(); err != nil {
		return nil, err
	}
	tenantID, err := s.currentTenantLocked()
	if err != nil {
		return nil, err
	}

	stats := &core.DashboardStats{}
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	porCategoria := make(map[string]float64)
	for _, g := range s.gastos {
		if g.TenantID != tenantID {
			continue
		}
		stats.TotalGastos += g.Valor
		if g.IsPersonal() {
			stats.GastosPessoais += g.Valor
		} else {
			stats.GastosGrupo += g.Valor
		}
		if !g.Data.Before(monthStart) {
			stats.TotalMesAtual += g.Valor
		}
		nome := g.CategoriaNome
		if nome == "" {
			nome = g.CategoriaID
		}
		porCategoria[nome] += g.Valor
	}

	for nome, total := range porCategoria {
		stats.GastosPorCategoria = append(stats.GastosPorCategoria,
			core.CategoriaTotal{Categoria: nome, Valor: total})
	}
	sort.Slice(stats.GastosPorCategoria, func(i, j int) bool {
		return stats.GastosPorCategoria[i].Categoria < stats.GastosPorCategoria[j].Categoria
	})

	// Last six months, oldest first.
	for i := 5; i >= 0; i-- {
		ref := now.AddDate(0, -i, 0)
		var total float64
		for _, g := range s.gastos {
			if g.TenantID != tenantID {
				continue
			}
			if g.Data.Year() == ref.Year() && g.Data.Month() == ref.Month() {
				total += g.Valor
			}
		}
		stats.GastosPorMes = append(stats.GastosPorMes,
			core.MesTotal{Mes: meses[int(ref.Month())-1], Valor: total})
	}

	return stats, nil
}

func (s *Store) CachedStats(_ context.Context, tenantID string) (*core.DashboardStats, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[tenantID]
	if !ok {
		return nil, time.Time{}, nil
	}
	out := snap.stats
	return &out, snap.fetchedAt, nil
}

func (s *Store) StoreStats(_ context.Context, tenantID string, stats *core.DashboardStats, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[tenantID] = statsSnapshot{stats: *stats, fetchedAt: fetchedAt}
	return nil
}

func (s *Store) DropStats(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, tenantID)
	return nil
}

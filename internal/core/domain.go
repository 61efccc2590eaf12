package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Grupo types accepted by the backend.
const (
	GrupoFamilia GrupoTipo = "familia"
	GrupoViagem  GrupoTipo = "viagem"
	GrupoEvento  GrupoTipo = "evento"
)

// Tenant membership roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type (
	GrupoTipo string

	// Date is a calendar day without a time component. The backend
	// serializes dates as "2006-01-02".
	Date struct {
		time.Time
	}

	User struct {
		ID        string    `json:"id"`
		Nome      string    `json:"nome"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"`
	}

	Tenant struct {
		ID        string    `json:"id"`
		Nome      string    `json:"nome"`
		Plano     string    `json:"plano"`
		CreatedAt time.Time `json:"created_at"`
	}

	// TenantUser associates a user with a tenant. The user field is
	// populated by the members listing endpoint.
	TenantUser struct {
		ID       string `json:"id"`
		TenantID string `json:"tenant_id"`
		UserID   string `json:"user_id"`
		Role     string `json:"role"`
		User     *User  `json:"user,omitempty"`
	}

	Grupo struct {
		ID        string    `json:"id"`
		TenantID  string    `json:"tenant_id"`
		Nome      string    `json:"nome"`
		Tipo      GrupoTipo `json:"tipo"`
		CreatedAt time.Time `json:"created_at"`
	}

	Categoria struct {
		ID       string `json:"id"`
		TenantID string `json:"tenant_id"`
		Nome     string `json:"nome"`
		Tipo     string `json:"tipo"`
	}

	// Gasto is a single dated expense. A nil GrupoID means a personal
	// expense. The *Nome fields are denormalized by the backend for
	// display and are empty on records the client built locally.
	Gasto struct {
		ID          string    `json:"id"`
		TenantID    string    `json:"tenant_id"`
		UserID      string    `json:"user_id"`
		GrupoID     *string   `json:"grupo_id"`
		CategoriaID string    `json:"categoria_id"`
		Valor       float64   `json:"valor"`
		Data        Date      `json:"data"`
		Descricao   string    `json:"descricao"`
		CreatedAt   time.Time `json:"created_at"`

		CategoriaNome string `json:"categoria_nome,omitempty"`
		GrupoNome     string `json:"grupo_nome,omitempty"`
		UserNome      string `json:"user_nome,omitempty"`
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	Registration struct {
		Nome     string `json:"nome"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	AuthResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        User   `json:"user"`
	}

	CreateGasto struct {
		CategoriaID string  `json:"categoria_id"`
		GrupoID     *string `json:"grupo_id"`
		Valor       float64 `json:"valor"`
		Data        Date    `json:"data"`
		Descricao   string  `json:"descricao"`
	}

	// UpdateGasto carries a partial update; nil fields are untouched.
	UpdateGasto struct {
		CategoriaID *string  `json:"categoria_id,omitempty"`
		GrupoID     *string  `json:"grupo_id,omitempty"`
		Valor       *float64 `json:"valor,omitempty"`
		Data        *Date    `json:"data,omitempty"`
		Descricao   *string  `json:"descricao,omitempty"`
	}

	CreateGrupo struct {
		Nome string    `json:"nome"`
		Tipo GrupoTipo `json:"tipo"`
	}

	CreateCategoria struct {
		Nome string `json:"nome"`
		Tipo string `json:"tipo"`
	}

	CreateTenant struct {
		Nome  string `json:"nome"`
		Plano string `json:"plano,omitempty"`
	}

	// GastosQuery narrows a gastos listing server-side.
	GastosQuery struct {
		GrupoID     string
		CategoriaID string
	}

	CategoriaTotal struct {
		Categoria string  `json:"categoria"`
		Valor     float64 `json:"valor"`
	}

	MesTotal struct {
		Mes   string  `json:"mes"`
		Valor float64 `json:"valor"`
	}

	// DashboardStats is the pre-aggregated summary returned by the
	// backend. The client renders it as-is and never recomputes
	// aggregates from raw records.
	DashboardStats struct {
		TotalGastos        float64          `json:"total_gastos"`
		GastosPessoais     float64          `json:"gastos_pessoais"`
		GastosGrupo        float64          `json:"gastos_grupo"`
		TotalMesAtual      float64          `json:"total_mes_atual"`
		GastosPorCategoria []CategoriaTotal `json:"gastos_por_categoria"`
		GastosPorMes       []MesTotal       `json:"gastos_por_mes"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrMissingCategoria = errors.New("no categoria selected")
	ErrInvalidGrupoTipo = errors.New("invalid grupo tipo")
	ErrInvalidDate      = errors.New("invalid date")
	ErrNotMember        = errors.New("not a member of tenant")
)

const dateLayout = "2006-01-02"

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current day in UTC.
func Today() Date {
	y, m, d := time.Now().UTC().Date()
	return NewDate(y, int(m), d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		// Some deployments serialize dates as full timestamps.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
	}
	d.Time = t
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t GrupoTipo) Validate() error {
	switch t {
	case GrupoFamilia, GrupoViagem, GrupoEvento:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGrupoTipo, string(t))
	}
}

// Validate applies the local form checks that run before any network
// call: selected categoria, positive amount, valid date, non-empty
// description.
func (c CreateGasto) Validate() error {
	if strings.TrimSpace(c.CategoriaID) == "" {
		return ErrMissingCategoria
	}
	if c.Valor <= 0 {
		return ErrInvalidAmount
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Descricao) == "" {
		return ErrEmptyDescription
	}
	if len(c.Descricao) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c CreateGrupo) Validate() error {
	if strings.TrimSpace(c.Nome) == "" {
		return ErrEmptyName
	}
	return c.Tipo.Validate()
}

func (c CreateCategoria) Validate() error {
	if strings.TrimSpace(c.Nome) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Tipo) == "" {
		return errors.New("empty categoria tipo")
	}
	return nil
}

func (c CreateTenant) Validate() error {
	if strings.TrimSpace(c.Nome) == "" {
		return ErrEmptyName
	}
	return nil
}

// IsPersonal reports whether the gasto has no grupo attached.
func (g Gasto) IsPersonal() bool {
	return g.GrupoID == nil || *g.GrupoID == ""
}

// Package api is the single point of contact with the expense-tracking
// backend. The Client holds the in-memory copies of the bearer token
// and the selected tenant id, stamps them onto every request, and
// normalizes non-2xx responses into APIError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"
)

const fallbackDetail = "request failed"

// APIError is the single error kind for application-level rejections:
// any non-2xx response with (or without) a `{"detail": ...}` body.
// Transport failures are not wrapped and propagate as-is.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// IsUnauthorized reports whether err is a 401 rejection.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *storage.Store
	logger     *log.Logger

	// mu guards token and tenantID: concurrent in-flight requests
	// snapshot both at header-construction time, so two requests
	// issued around a tenant switch may legitimately carry different
	// X-Tenant-ID values.
	mu       sync.Mutex
	token    string
	tenantID string
}

// New builds a client and loads any previously persisted token and
// tenant id into memory, so a restart does not force re-login while
// the backend still honors the token.
func New(ctx context.Context, baseURL string, timeout time.Duration, store *storage.Store, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newPooledHTTPClient(timeout),
		store:      store,
		logger:     logger.WithComponent(log.ComponentAPI),
	}

	token, err := store.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted token: %w", err)
	}
	tenantID, err := store.TenantID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted tenant: %w", err)
	}
	c.token = token
	c.tenantID = tenantID

	return c, nil
}

// request performs one HTTP call. body is marshalled as JSON when
// non-nil; the response body is decoded into out when out is non-nil
// and the response is non-empty (DELETE endpoints answer 204).
func (c *Client) request(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	c.mu.Lock()
	token, tenantID := c.token, c.tenantID
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures propagate unclassified.
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	c.logger.DebugContext(ctx, "API request completed",
		log.FieldRequestID, requestID,
		log.FieldMethod, method,
		log.FieldEndpoint, endpoint,
		log.FieldStatus, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := fallbackDetail
		var errBody struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(data, &errBody); err == nil && errBody.Detail != "" {
			detail = errBody.Detail
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// --- token and tenant state ---

// IsAuthenticated reports whether a token is held in memory. It says
// nothing about whether the backend still accepts it.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

// Token returns the held bearer token, or "".
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(ctx context.Context, token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return c.store.SetToken(ctx, token)
}

// ClearToken drops the held token from memory and durable storage.
func (c *Client) ClearToken(ctx context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return c.store.ClearToken(ctx)
}

// CurrentTenantID returns the tenant id held in memory, or "".
func (c *Client) CurrentTenantID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tenantID
}

func (c *Client) SetCurrentTenant(ctx context.Context, id string) error {
	c.mu.Lock()
	c.tenantID = id
	c.mu.Unlock()
	return c.store.SetTenant(ctx, id)
}

func (c *Client) ClearCurrentTenant(ctx context.Context) error {
	c.mu.Lock()
	c.tenantID = ""
	c.mu.Unlock()
	return c.store.ClearTenant(ctx)
}

// --- auth ---

// Login authenticates and persists the returned token before handing
// the response back.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (*core.AuthResponse, error) {
	var resp core.AuthResponse
	if err := c.request(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	if err := c.setToken(ctx, resp.AccessToken); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and persists the returned token before
// handing the response back.
func (c *Client) Register(ctx context.Context, reg core.Registration) (*core.AuthResponse, error) {
	var resp core.AuthResponse
	if err := c.request(ctx, http.MethodPost, "/auth/register", reg, &resp); err != nil {
		return nil, err
	}
	if err := c.setToken(ctx, resp.AccessToken); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout drops the token and the tenant selection. Purely local; the
// backend keeps no session state beyond the token itself.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.ClearToken(ctx); err != nil {
		return err
	}
	return c.ClearCurrentTenant(ctx)
}

func (c *Client) CurrentUser(ctx context.Context) (*core.User, error) {
	var u core.User
	if err := c.request(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- tenants ---

func (c *Client) Tenants(ctx context.Context) ([]core.Tenant, error) {
	var out []core.Tenant
	if err := c.request(ctx, http.MethodGet, "/tenants", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTenant(ctx context.Context, data core.CreateTenant) (*core.Tenant, error) {
	var t core.Tenant
	if err := c.request(ctx, http.MethodPost, "/tenants", data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) JoinTenant(ctx context.Context, tenantID string) (*core.TenantUser, error) {
	var tu core.TenantUser
	endpoint := "/tenants/" + url.PathEscape(tenantID) + "/join"
	if err := c.request(ctx, http.MethodPost, endpoint, nil, &tu); err != nil {
		return nil, err
	}
	return &tu, nil
}

func (c *Client) TenantUsers(ctx context.Context) ([]core.TenantUser, error) {
	var out []core.TenantUser
	if err := c.request(ctx, http.MethodGet, "/tenants/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- grupos ---

func (c *Client) Grupos(ctx context.Context) ([]core.Grupo, error) {
	var out []core.Grupo
	if err := c.request(ctx, http.MethodGet, "/grupos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGrupo(ctx context.Context, data core.CreateGrupo) (*core.Grupo, error) {
	var g core.Grupo
	if err := c.request(ctx, http.MethodPost, "/grupos", data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) DeleteGrupo(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/grupos/"+url.PathEscape(id), nil, nil)
}

// --- categorias ---

func (c *Client) Categorias(ctx context.Context) ([]core.Categoria, error) {
	var out []core.Categoria
	if err := c.request(ctx, http.MethodGet, "/categorias", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategoria(ctx context.Context, data core.CreateCategoria) (*core.Categoria, error) {
	var cat core.Categoria
	if err := c.request(ctx, http.MethodPost, "/categorias", data, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) DeleteCategoria(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/categorias/"+url.PathEscape(id), nil, nil)
}

// --- gastos ---

func (c *Client) Gastos(ctx context.Context, q core.GastosQuery) ([]core.Gasto, error) {
	endpoint := "/gastos"
	params := url.Values{}
	if q.GrupoID != "" {
		params.Set("grupo_id", q.GrupoID)
	}
	if q.CategoriaID != "" {
		params.Set("categoria_id", q.CategoriaID)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var out []core.Gasto
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGasto(ctx context.Context, data core.CreateGasto) (*core.Gasto, error) {
	var g core.Gasto
	if err := c.request(ctx, http.MethodPost, "/gastos", data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) UpdateGasto(ctx context.Context, id string, data core.UpdateGasto) (*core.Gasto, error) {
	var g core.Gasto
	endpoint := "/gastos/" + url.PathEscape(id)
	if err := c.request(ctx, http.MethodPut, endpoint, data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) DeleteGasto(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/gastos/"+url.PathEscape(id), nil, nil)
}

// --- dashboard ---

func (c *Client) DashboardStats(ctx context.Context) (*core.DashboardStats, error) {
	var stats core.DashboardStats
	if err := c.request(ctx, http.MethodGet, "/dashboard/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CachedStats returns the dashboard snapshot persisted for a tenant,
// or nil when none is stored.
func (c *Client) CachedStats(ctx context.Context, tenantID string) (*core.DashboardStats, time.Time, error) {
	payload, fetchedAt, err := c.store.StatsPayload(ctx, tenantID)
	if err != nil || payload == nil {
		return nil, time.Time{}, err
	}
	var stats core.DashboardStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode stats snapshot: %w", err)
	}
	return &stats, fetchedAt, nil
}

func (c *Client) StoreStats(ctx context.Context, tenantID string, stats *core.DashboardStats, fetchedAt time.Time) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats snapshot: %w", err)
	}
	return c.store.SetStatsPayload(ctx, tenantID, payload, fetchedAt)
}

func (c *Client) DropStats(ctx context.Context, tenantID string) error {
	return c.store.DeleteStatsPayload(ctx, tenantID)
}

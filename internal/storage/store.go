// Package storage persists the state that survives restarts: the
// bearer token, the selected tenant id, and per-tenant dashboard
// snapshots. It performs no validation of the values; that is the
// caller's responsibility.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	keyAuthToken     = "auth_token"
	keyCurrentTenant = "current_tenant_id"
)

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Token returns the persisted bearer token, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.get(ctx, keyAuthToken)
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.set(ctx, keyAuthToken, token)
}

func (s *Store) ClearToken(ctx context.Context) error {
	return s.delete(ctx, keyAuthToken)
}

// TenantID returns the persisted tenant id, or "" when none is stored.
func (s *Store) TenantID(ctx context.Context) (string, error) {
	return s.get(ctx, keyCurrentTenant)
}

func (s *Store) SetTenant(ctx context.Context, id string) error {
	return s.set(ctx, keyCurrentTenant, id)
}

func (s *Store) ClearTenant(ctx context.Context) error {
	return s.delete(ctx, keyCurrentTenant)
}

// StatsPayload returns the stored dashboard snapshot for a tenant and
// when it was fetched, or a nil payload when none is stored.
func (s *Store) StatsPayload(ctx context.Context, tenantID string) ([]byte, time.Time, error) {
	var payload string
	var fetched int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM stats_cache WHERE tenant_id = ?`, tenantID).
		Scan(&payload, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read stats snapshot: %w", err)
	}
	return []byte(payload), time.Unix(fetched, 0).UTC(), nil
}

func (s *Store) SetStatsPayload(ctx context.Context, tenantID string, payload []byte, fetchedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stats_cache (tenant_id, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(tenant_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		tenantID, string(payload), fetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("write stats snapshot: %w", err)
	}
	return nil
}

func (s *Store) DeleteStatsPayload(ctx context.Context, tenantID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM stats_cache WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return fmt.Errorf("delete stats snapshot: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

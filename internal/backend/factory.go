package backend

import (
	"context"
	"fmt"

	"gastos/internal/api"
	"gastos/internal/backend/memory"
	"gastos/internal/config"
	"gastos/internal/log"
	"gastos/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the backend instance and an optional cleanup.
type Result struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Create builds a backend from the application config: "api" talks to
// the REST service and persists session state locally; "memory" is a
// self-contained in-process backend for demos and tests.
func Create(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Result, error) {
	switch cfg.DataBackend {
	case "api":
		store, err := storage.NewStore(cfg.StateDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize session store: %w", err)
		}
		client, err := api.New(ctx, cfg.APIBaseURL, cfg.HTTPTimeout, store, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("initialize API client: %w", err)
		}
		logger.Info("Initialized API backend",
			log.FieldBackend, cfg.DataBackend,
			"base_url", cfg.APIBaseURL)
		return &Result{Backend: client, Cleanup: store.Close}, nil

	case "memory":
		logger.Info("Initialized memory backend", log.FieldBackend, cfg.DataBackend)
		return &Result{Backend: memory.New(), Cleanup: nil}, nil

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

// Interface conformance of the two implementations.
var (
	_ Backend = (*api.Client)(nil)
	_ Backend = (*memory.Store)(nil)
)

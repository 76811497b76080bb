// Package store persists the custom block catalog and the search history.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
	"github.com/xkilldash9x/dorkbuilder/internal/config"
)

// ErrInvalidState is returned when persisted state cannot be decoded.
var ErrInvalidState = errors.New("invalid persisted state")

// Repository is implemented by every storage backend.
type Repository interface {
	// LoadCatalog returns the saved custom templates. A store that has never
	// been written returns an empty state and no error.
	LoadCatalog(ctx context.Context) (schemas.CatalogState, error)
	// SaveCatalog replaces the saved custom templates.
	SaveCatalog(ctx context.Context, state schemas.CatalogState) error
	// RecordSearch appends one entry to the search history.
	RecordSearch(ctx context.Context, rec schemas.SearchRecord) error
	// ListSearches returns up to limit records, newest first. limit <= 0
	// returns everything.
	ListSearches(ctx context.Context, limit int) ([]schemas.SearchRecord, error)
	Close() error
}

// New opens the backend selected by cfg.
func New(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(cfg.HistoryLimit), nil

	case config.BackendFile:
		path, err := cfg.ResolvedPath()
		if err != nil {
			return nil, err
		}
		return NewFileStore(path, cfg.HistoryLimit, logger), nil

	case config.BackendSQLite:
		path, err := cfg.ResolvedPath()
		if err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, path, cfg.HistoryLimit, logger)

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		s := NewPostgresStore(pool, cfg.HistoryLimit, logger)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// newest returns up to limit records from history (oldest first) in
// newest-first order.
func newest(history []schemas.SearchRecord, limit int) []schemas.SearchRecord {
	n := len(history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]schemas.SearchRecord, 0, n)
	for i := len(history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, history[i])
	}
	return out
}

// capHistory drops the oldest records beyond limit. limit <= 0 keeps all.
func capHistory(history []schemas.SearchRecord, limit int) []schemas.SearchRecord {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return append([]schemas.SearchRecord(nil), history[len(history)-limit:]...)
}

func cloneState(state schemas.CatalogState) schemas.CatalogState {
	return schemas.CatalogState{
		Custom:       append([]schemas.BlockTemplate(nil), state.Custom...),
		NextCustomID: state.NextCustomID,
	}
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

const (
	sqlCreateTemplates = `
        CREATE TABLE IF NOT EXISTS custom_templates (
            id TEXT PRIMARY KEY,
            position INTEGER NOT NULL,
            operator TEXT NOT NULL,
            placeholder TEXT NOT NULL,
            description TEXT NOT NULL
        );`
	sqlCreateMeta = `
        CREATE TABLE IF NOT EXISTS catalog_meta (
            key TEXT PRIMARY KEY,
            value BIGINT NOT NULL
        );`
	sqlCreateHistory = `
        CREATE TABLE IF NOT EXISTS search_history (
            id TEXT PRIMARY KEY,
            query TEXT NOT NULL,
            engine TEXT NOT NULL,
            url TEXT NOT NULL,
            block_count INTEGER NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        );`

	sqlSelectTemplates = `
        SELECT id, operator, placeholder, description
        FROM custom_templates
        ORDER BY position ASC;`
	sqlSelectCounter   = `SELECT value FROM catalog_meta WHERE key = 'next_custom_id';`
	sqlDeleteTemplates = `DELETE FROM custom_templates;`
	sqlInsertTemplate = `
        INSERT INTO custom_templates (id, position, operator, placeholder, description)
        VALUES ($1, $2, $3, $4, $5);`
	sqlUpsertCounter = `
        INSERT INTO catalog_meta (key, value)
        VALUES ('next_custom_id', $1)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value;`
	sqlInsertSearch = `
        INSERT INTO search_history (id, query, engine, url, block_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6);`
	sqlPruneSearches = `
        DELETE FROM search_history
        WHERE id IN (
            SELECT id FROM search_history
            ORDER BY created_at DESC, id DESC
            OFFSET $1
        );`
	sqlSelectSearches = `
        SELECT id, query, engine, url, block_count, created_at
        FROM search_history
        ORDER BY created_at DESC`
)

// PostgresStore provides a PostgreSQL implementation of the Repository interface.
type PostgresStore struct {
	pool         DBPool
	historyLimit int
	log          *zap.Logger
}

var _ Repository = (*PostgresStore)(nil)

// NewPostgresStore wraps an already connected pool. historyLimit caps the
// stored search history; <= 0 keeps everything.
func NewPostgresStore(pool DBPool, historyLimit int, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{
		pool:         pool,
		historyLimit: historyLimit,
		log:          logger.Named("store"),
	}
}

// Migrate creates the tables if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{sqlCreateTemplates, sqlCreateMeta, sqlCreateHistory} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) LoadCatalog(ctx context.Context) (schemas.CatalogState, error) {
	var state schemas.CatalogState

	rows, err := s.pool.Query(ctx, sqlSelectTemplates)
	if err != nil {
		return state, fmt.Errorf("failed to query custom templates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t := schemas.BlockTemplate{Kind: schemas.KindCustom}
		if err := rows.Scan(&t.ID, &t.Operator, &t.Placeholder, &t.Description); err != nil {
			return state, fmt.Errorf("failed to scan custom template row: %w", err)
		}
		state.Custom = append(state.Custom, t)
	}
	if err := rows.Err(); err != nil {
		return state, fmt.Errorf("error during row iteration: %w", err)
	}

	var next int64
	if err := s.pool.QueryRow(ctx, sqlSelectCounter).Scan(&next); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return state, fmt.Errorf("failed to read catalog counter: %w", err)
		}
	}
	state.NextCustomID = int(next)
	return state, nil
}

// SaveCatalog replaces the stored templates inside one transaction.
func (s *PostgresStore) SaveCatalog(ctx context.Context, state schemas.CatalogState) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a successful Commit reports ErrTxClosed; that is expected.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlDeleteTemplates); err != nil {
		return fmt.Errorf("failed to clear custom templates: %w", err)
	}
	for i, t := range state.Custom {
		if _, err := tx.Exec(ctx, sqlInsertTemplate, t.ID, i, t.Operator, t.Placeholder, t.Description); err != nil {
			return fmt.Errorf("failed to insert custom template %s (index %d): %w", t.ID, i, err)
		}
	}
	if _, err := tx.Exec(ctx, sqlUpsertCounter, int64(state.NextCustomID)); err != nil {
		return fmt.Errorf("failed to store catalog counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Catalog saved.", zap.Int("custom_templates", len(state.Custom)))
	return nil
}

// RecordSearch inserts rec and trims the history to the configured limit in
// the same transaction.
func (s *PostgresStore) RecordSearch(ctx context.Context, rec schemas.SearchRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlInsertSearch,
		rec.ID, rec.Query, string(rec.Engine), rec.URL, rec.BlockCount, rec.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	if s.historyLimit > 0 {
		tag, err := tx.Exec(ctx, sqlPruneSearches, s.historyLimit)
		if err != nil {
			return fmt.Errorf("failed to prune search history: %w", err)
		}
		if n := tag.RowsAffected(); n > 0 {
			s.log.Debug("Pruned search history.", zap.Int64("removed", n))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSearches(ctx context.Context, limit int) ([]schemas.SearchRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.pool.Query(ctx, sqlSelectSearches+" LIMIT $1;", limit)
	} else {
		rows, err = s.pool.Query(ctx, sqlSelectSearches+";")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var records []schemas.SearchRecord
	for rows.Next() {
		var r schemas.SearchRecord
		var engine string
		if err := rows.Scan(&r.ID, &r.Query, &engine, &r.URL, &r.BlockCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search record row: %w", err)
		}
		r.Engine = schemas.SearchEngine(engine)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

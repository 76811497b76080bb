package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

// SQLiteStore keeps state in a local SQLite database.
type SQLiteStore struct {
	db           *sql.DB
	historyLimit int
	log          *zap.Logger
}

var _ Repository = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
// historyLimit caps the stored search history; <= 0 keeps everything.
func OpenSQLite(ctx context.Context, path string, historyLimit int, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:           db,
		historyLimit: historyLimit,
		log:          logger.Named("store").With(zap.String("path", path)),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS custom_templates (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			operator TEXT NOT NULL,
			placeholder TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_meta (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS search_history (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			engine TEXT NOT NULL,
			url TEXT NOT NULL,
			block_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_history_created ON search_history(created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) LoadCatalog(ctx context.Context) (schemas.CatalogState, error) {
	var state schemas.CatalogState

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, operator, placeholder, description FROM custom_templates ORDER BY position`)
	if err != nil {
		return state, fmt.Errorf("failed to query custom templates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t := schemas.BlockTemplate{Kind: schemas.KindCustom}
		if err := rows.Scan(&t.ID, &t.Operator, &t.Placeholder, &t.Description); err != nil {
			return state, fmt.Errorf("failed to scan custom template: %w", err)
		}
		state.Custom = append(state.Custom, t)
	}
	if err := rows.Err(); err != nil {
		return state, fmt.Errorf("error during row iteration: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM catalog_meta WHERE key = 'next_custom_id'`).Scan(&state.NextCustomID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return state, fmt.Errorf("failed to read catalog counter: %w", err)
	}
	return state, nil
}

func (s *SQLiteStore) SaveCatalog(ctx context.Context, state schemas.CatalogState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM custom_templates`); err != nil {
		return fmt.Errorf("failed to clear custom templates: %w", err)
	}
	for i, t := range state.Custom {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO custom_templates (id, position, operator, placeholder, description) VALUES (?, ?, ?, ?, ?)`,
			t.ID, i, t.Operator, t.Placeholder, t.Description); err != nil {
			return fmt.Errorf("failed to insert custom template %s: %w", t.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_meta (key, value) VALUES ('next_custom_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, state.NextCustomID); err != nil {
		return fmt.Errorf("failed to store catalog counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordSearch(ctx context.Context, rec schemas.SearchRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO search_history (id, query, engine, url, block_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, string(rec.Engine), rec.URL, rec.BlockCount, rec.CreatedAt.UTC().UnixNano()); err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	if s.historyLimit > 0 {
		// LIMIT -1 is SQLite for "no limit"; OFFSET requires a LIMIT clause.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM search_history WHERE rowid IN (
				SELECT rowid FROM search_history ORDER BY created_at DESC, rowid DESC LIMIT -1 OFFSET ?)`,
			s.historyLimit); err != nil {
			return fmt.Errorf("failed to prune search history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSearches(ctx context.Context, limit int) ([]schemas.SearchRecord, error) {
	q := `SELECT id, query, engine, url, block_count, created_at FROM search_history ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var records []schemas.SearchRecord
	for rows.Next() {
		var (
			r       schemas.SearchRecord
			engine  string
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Query, &engine, &r.URL, &r.BlockCount, &created); err != nil {
			return nil, fmt.Errorf("failed to scan search record: %w", err)
		}
		r.Engine = schemas.SearchEngine(engine)
		r.CreatedAt = time.Unix(0, created).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

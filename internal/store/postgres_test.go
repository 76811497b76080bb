package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	return newMockStoreWithLimit(t, 0)
}

func newMockStoreWithLimit(t *testing.T, historyLimit int) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewPostgresStore(mockPool, historyLimit, zap.NewNop())
}

func TestPostgresMigrate(t *testing.T) {
	mockPool, s := newMockStore(t)

	for _, stmt := range []string{sqlCreateTemplates, sqlCreateMeta, sqlCreateHistory} {
		mockPool.ExpectExec(flexibleSQLMatcher(stmt)).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}
	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresMigrateFailure(t *testing.T) {
	mockPool, s := newMockStore(t)

	mockPool.ExpectExec(flexibleSQLMatcher(sqlCreateTemplates)).WillReturnError(errors.New("permission denied"))
	err := s.Migrate(context.Background())
	assert.ErrorContains(t, err, "failed to migrate schema")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresLoadCatalog(t *testing.T) {
	t.Run("templates and counter", func(t *testing.T) {
		mockPool, s := newMockStore(t)

		mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectTemplates)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "operator", "placeholder", "description"}).
				AddRow("custom_tpl_1", "before:", "2020-01-01", "Published before").
				AddRow("custom_tpl_2", "numrange:", "1-100", "Number range"))
		mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectCounter)).
			WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(int64(3)))

		state, err := s.LoadCatalog(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sampleState(), state)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing counter row", func(t *testing.T) {
		mockPool, s := newMockStore(t)

		mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectTemplates)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "operator", "placeholder", "description"}))
		mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectCounter)).
			WillReturnRows(pgxmock.NewRows([]string{"value"}))

		state, err := s.LoadCatalog(context.Background())
		require.NoError(t, err)
		assert.Empty(t, state.Custom)
		assert.Zero(t, state.NextCustomID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mockPool, s := newMockStore(t)

		dbErr := errors.New("connection reset")
		mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectTemplates)).WillReturnError(dbErr)

		_, err := s.LoadCatalog(context.Background())
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresSaveCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces templates in one transaction", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		state := sampleState()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlDeleteTemplates)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
		for i, tpl := range state.Custom {
			mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertTemplate)).
				WithArgs(tpl.ID, i, tpl.Operator, tpl.Placeholder, tpl.Description).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsertCounter)).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		require.NoError(t, s.SaveCatalog(ctx, state))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("rolls back when an insert fails", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		state := sampleState()
		insertErr := errors.New("unique violation")

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlDeleteTemplates)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertTemplate)).
			WithArgs(state.Custom[0].ID, 0, state.Custom[0].Operator, state.Custom[0].Placeholder, state.Custom[0].Description).
			WillReturnError(insertErr)
		mockPool.ExpectRollback()

		err := s.SaveCatalog(ctx, state)
		require.Error(t, err)
		assert.ErrorIs(t, err, insertErr)
		assert.Contains(t, err.Error(), "custom_tpl_1")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		mockPool.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		err := s.SaveCatalog(ctx, sampleState())
		assert.ErrorContains(t, err, "failed to begin transaction")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresHistory(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "query", "engine", "url", "block_count", "created_at"}

	t.Run("record", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		rec := sampleRecords()[0]

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertSearch)).
			WithArgs(rec.ID, rec.Query, string(rec.Engine), rec.URL, rec.BlockCount, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		require.NoError(t, s.RecordSearch(ctx, rec))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("record prunes beyond the history limit", func(t *testing.T) {
		mockPool, s := newMockStoreWithLimit(t, 2)
		rec := sampleRecords()[2]

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertSearch)).
			WithArgs(rec.ID, rec.Query, string(rec.Engine), rec.URL, rec.BlockCount, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(sqlPruneSearches)).
			WithArgs(2).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mockPool.ExpectCommit()

		require.NoError(t, s.RecordSearch(ctx, rec))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("record rolls back when pruning fails", func(t *testing.T) {
		mockPool, s := newMockStoreWithLimit(t, 2)
		rec := sampleRecords()[0]
		pruneErr := errors.New("lock timeout")

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertSearch)).
			WithArgs(rec.ID, rec.Query, string(rec.Engine), rec.URL, rec.BlockCount, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(sqlPruneSearches)).
			WithArgs(2).
			WillReturnError(pruneErr)
		mockPool.ExpectRollback()

		err := s.RecordSearch(ctx, rec)
		assert.ErrorIs(t, err, pruneErr)
		assert.ErrorContains(t, err, "failed to prune search history")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("list with limit", func(t *testing.T) {
		mockPool, s := newMockStore(t)
		recs := sampleRecords()

		mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectSearches+" LIMIT $1;")).
			WithArgs(2).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(recs[2].ID, recs[2].Query, string(recs[2].Engine), recs[2].URL, recs[2].BlockCount, recs[2].CreatedAt).
				AddRow(recs[1].ID, recs[1].Query, string(recs[1].Engine), recs[1].URL, recs[1].BlockCount, recs[1].CreatedAt))

		got, err := s.ListSearches(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"r3", "r2"}, recordIDs(got))
		assert.Equal(t, schemas.EngineBrave, got[0].Engine)
		assert.Equal(t, recs[2].CreatedAt, got[0].CreatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("list all", func(t *testing.T) {
		mockPool, s := newMockStore(t)

		mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectSearches + ";")).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow("r9", "site:x.org", "yahoo", "https://search.yahoo.com/search?p=site%3Ax.org", 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

		got, err := s.ListSearches(ctx, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, schemas.EngineYahoo, got[0].Engine)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

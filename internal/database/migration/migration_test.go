package migration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docvault/internal/config"
)

func TestSteps(t *testing.T) {
	sqliteSteps, err := Steps(config.DriverSQLite)
	require.NoError(t, err)
	require.Len(t, sqliteSteps, 3)
	assert.Contains(t, sqliteSteps[0].SQL, "AUTOINCREMENT")

	pgSteps, err := Steps(config.DriverPostgres)
	require.NoError(t, err)
	assert.Contains(t, pgSteps[0].SQL, "BIGSERIAL")

	_, err = Steps("mysql")
	assert.Error(t, err)
}

func TestEnsureMigrated(t *testing.T) {
	ctx := context.Background()

	t.Run("runs every step", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS documents")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_stored_name")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_documents_created_at")).WillReturnResult(sqlmock.NewResult(0, 0))

		err = EnsureMigrated(ctx, db, config.DriverSQLite, zap.NewNop())
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops at the failing step", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE UNIQUE INDEX").WillReturnError(errors.New("disk I/O error"))

		err = EnsureMigrated(ctx, db, config.DriverPostgres, zap.NewNop())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "migration step create_unique_index_documents_stored_name failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown driver", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		assert.Error(t, EnsureMigrated(ctx, db, "mysql", zap.NewNop()))
	})
}

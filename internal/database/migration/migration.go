package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docvault/internal/config"
)

// Step is one named, idempotent schema statement.
type Step struct {
	Name string
	SQL  string
}

// The id column is the only dialect difference; everything else is portable SQL.
const idColumnSQLite = `id INTEGER PRIMARY KEY AUTOINCREMENT`
const idColumnPostgres = `id BIGSERIAL PRIMARY KEY`

func createTable(idColumn string) string {
	return `CREATE TABLE IF NOT EXISTS documents (
  ` + idColumn + `,
  stored_name   TEXT      NOT NULL,
  original_name TEXT      NOT NULL,
  storage_path  TEXT      NOT NULL,
  size_bytes    BIGINT    NOT NULL CHECK (size_bytes > 0),
  created_at    TIMESTAMP NOT NULL
);`
}

var commonSteps = []Step{
	{
		Name: "create_unique_index_documents_stored_name",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_stored_name ON documents (stored_name);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
}

// Steps returns the ordered schema steps for the given driver.
// Every statement is idempotent so the whole list runs on each start.
func Steps(driver string) ([]Step, error) {
	var idColumn string
	switch driver {
	case config.DriverSQLite, "":
		idColumn = idColumnSQLite
	case config.DriverPostgres:
		idColumn = idColumnPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	steps := []Step{{Name: "create_table_documents", SQL: createTable(idColumn)}}
	return append(steps, commonSteps...), nil
}

// EnsureMigrated creates the documents schema if it does not exist yet.
func EnsureMigrated(ctx context.Context, db *sql.DB, driver string, log *zap.Logger) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_driver", driver))

	steps, err := Steps(driver)
	if err != nil {
		log.Error("db_migration_failed", zap.Error(err))
		return err
	}

	log.Info("db_migration_start", zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Duration("duration_ms", time.Since(start)),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug("db_migration_step",
			zap.String("migration_step", step.Name),
			zap.Duration("step_duration_ms", time.Since(stepStart)),
		)
	}

	log.Info("db_migration_success", zap.Duration("duration_ms", time.Since(start)))
	return nil
}

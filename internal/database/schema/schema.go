// Package schema creates the persons table and its unique email index when they are missing.
// It is idempotent and has no notion of versions.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"personapi/internal/database"
)

// UniqueEmailIndex is the storage-level uniqueness guarantee on persons.email.
const UniqueEmailIndex = "ux_persons_email"

type step struct {
	Name string
	SQL  string
}

var postgresSteps = []step{
	{
		Name: "create_table_persons",
		SQL: `CREATE TABLE IF NOT EXISTS persons (
  id         BIGSERIAL    PRIMARY KEY,
  name       VARCHAR(100) NOT NULL,
  age        INTEGER      NOT NULL CHECK (age BETWEEN 0 AND 150),
  email      VARCHAR(100) NOT NULL,
  phone      VARCHAR(20),
  created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ
);`,
	},
	{
		Name: "create_unique_index_persons_email",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS ` + UniqueEmailIndex + ` ON persons (email);`,
	},
	{
		Name: "create_index_persons_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_persons_name ON persons (name);`,
	},
}

var sqliteSteps = []step{
	{
		Name: "create_table_persons",
		SQL: `CREATE TABLE IF NOT EXISTS persons (
  id         INTEGER  PRIMARY KEY AUTOINCREMENT,
  name       TEXT     NOT NULL,
  age        INTEGER  NOT NULL CHECK (age BETWEEN 0 AND 150),
  email      TEXT     NOT NULL,
  phone      TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME
);`,
	},
	{
		Name: "create_unique_index_persons_email",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS ` + UniqueEmailIndex + ` ON persons (email);`,
	},
	{
		Name: "create_index_persons_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_persons_name ON persons (name);`,
	},
}

func sentinelQuery(d database.Dialect) string {
	if d == database.SQLite {
		return `SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'index' AND name = '` + UniqueEmailIndex + `'`
	}
	return `SELECT to_regclass('public.` + UniqueEmailIndex + `') IS NOT NULL`
}

func stepsFor(d database.Dialect) []step {
	if d == database.SQLite {
		return sqliteSteps
	}
	return postgresSteps
}

// Ensure checks for the unique email index and creates the schema if it is absent.
func Ensure(ctx context.Context, db *sql.DB, dialect database.Dialect, log *zap.Logger) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("dialect", string(dialect)))

	var exists bool
	if err := db.QueryRowContext(ctx, sentinelQuery(dialect)).Scan(&exists); err != nil {
		log.Error("schema check failed",
			zap.String("event", "db_schema_failed"),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return fmt.Errorf("failed to check schema sentinel: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping",
			zap.String("event", "db_schema_skip"),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}

	for _, s := range stepsFor(dialect) {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, s.SQL); err != nil {
			log.Error("schema step failed",
				zap.String("event", "db_schema_failed"),
				zap.String("step", s.Name),
				zap.Error(err),
				zap.Duration("step_duration", time.Since(stepStart)),
			)
			return fmt.Errorf("schema step %s failed: %w", s.Name, err)
		}
		log.Debug("schema step applied",
			zap.String("event", "db_schema_step"),
			zap.String("step", s.Name),
			zap.Duration("step_duration", time.Since(stepStart)),
		)
	}

	log.Info("schema created",
		zap.String("event", "db_schema_success"),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

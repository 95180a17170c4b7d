package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_ingestions",
		SQL: `CREATE TABLE IF NOT EXISTS ingestions (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  file_id      UUID        NOT NULL UNIQUE,
  filename     TEXT        NOT NULL,
  source       TEXT        NOT NULL,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  content_type TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_ingestions_filename",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ingestions_filename ON ingestions (filename);`,
	},
	{
		Name: "create_index_ingestions_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ingestions_created_at ON ingestions (created_at);`,
	},
}

// EnsureMigrated checks if the 'ingestions' table exists and runs the
// migration steps if it doesn't. Steps are idempotent.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logrus.Logger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	mlog := log.WithField("component", "database")
	start := time.Now()

	var exists bool
	query := "SELECT to_regclass('public.ingestions') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		mlog.WithError(err).Error("migration sentinel check failed")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		mlog.Debug("schema already exists, skipping migration")
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			mlog.WithFields(logrus.Fields{
				"migration_step": step.Name,
				"duration_ms":    time.Since(stepStart).Milliseconds(),
			}).WithError(err).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		mlog.WithFields(logrus.Fields{
			"migration_step": step.Name,
			"duration_ms":    time.Since(stepStart).Milliseconds(),
		}).Info("migration step applied")
	}

	mlog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("migration complete")
	return nil
}

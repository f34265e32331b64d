package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id         TEXT        PRIMARY KEY,
  name       TEXT        NOT NULL,
  email      TEXT        UNIQUE,
  role       TEXT        NOT NULL DEFAULT 'USER' CHECK (role IN ('USER', 'ADMIN')),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id         UUID        PRIMARY KEY,
  user_id    TEXT        NOT NULL,
  file       TEXT        NOT NULL,
  period     DATE        NOT NULL,
  valid      BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_user_period",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_user_period ON documents (user_id, period);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at DESC, id DESC);`,
	},
	{
		Name: "create_table_change_requests",
		SQL: `CREATE TABLE IF NOT EXISTS change_requests (
  id          UUID        PRIMARY KEY,
  user_id     TEXT        NOT NULL,
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  kind        TEXT        NOT NULL CHECK (kind IN ('EDIT', 'DELETE')),
  new_period  DATE,
  new_file    TEXT,
  status      TEXT        NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'APPROVED', 'CANCELLED')),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK (kind <> 'EDIT' OR new_period IS NOT NULL OR new_file IS NOT NULL)
);`,
	},
	{
		// At most one PENDING request per document and kind.
		Name: "create_unique_index_change_requests_pending",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_change_requests_pending
  ON change_requests (document_id, kind) WHERE status = 'PENDING';`,
	},
	{
		Name: "create_index_change_requests_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_change_requests_created_at ON change_requests (created_at DESC, id DESC);`,
	},
}

// EnsureMigrated checks if the 'change_requests' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With("component", "database", "db_host", dbHost)

	log.InfoContext(ctx, "db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass('public.change_requests') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.ErrorContext(ctx, "db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.InfoContext(ctx, "db_migration_skip",
			"status", "success",
			"detail", "schema already exists, skipping migration",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.InfoContext(ctx, "db_migration_start", "status", "in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.ErrorContext(ctx, "db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.InfoContext(ctx, "db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.InfoContext(ctx, "db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

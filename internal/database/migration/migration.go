package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
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
		Name: "create_table_research_papers",
		SQL: `CREATE TABLE IF NOT EXISTS research_papers (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id    TEXT        NOT NULL,
  title      TEXT        NOT NULL,
  content    TEXT        NOT NULL,
  filename   TEXT        NOT NULL DEFAULT '',
  file_size  BIGINT,
  analysis   JSONB,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_research_papers_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_research_papers_user_id ON research_papers (user_id);`,
	},
	{
		Name: "create_index_research_papers_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_research_papers_created_at ON research_papers (created_at);`,
	},
	{
		Name: "create_table_summaries",
		// paper_id is TEXT, not UUID: paper ids are opaque strings and a
		// lookup with an id minted by the other store must miss, not error.
		SQL: `CREATE TABLE IF NOT EXISTS summaries (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  paper_id   TEXT        NOT NULL,
  user_id    TEXT,
  target_age INTEGER     NOT NULL,
  content    JSONB       NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_summaries_paper_age",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_summaries_paper_age ON summaries (paper_id, target_age);`,
	},
	{
		Name: "create_table_code_generations",
		SQL: `CREATE TABLE IF NOT EXISTS code_generations (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  paper_id     TEXT        NOT NULL,
  user_id      TEXT        NOT NULL,
  language     TEXT        NOT NULL,
  framework    TEXT        NOT NULL DEFAULT '',
  code_content JSONB       NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_code_generations_paper_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_code_generations_paper_id ON code_generations (paper_id);`,
	},
	{
		Name: "create_table_visualizations",
		SQL: `CREATE TABLE IF NOT EXISTS visualizations (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  paper_id           TEXT        NOT NULL,
  user_id            TEXT        NOT NULL,
  visualization_type TEXT        NOT NULL,
  config             JSONB       NOT NULL,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_visualizations_paper_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_visualizations_paper_id ON visualizations (paper_id);`,
	},
	{
		Name: "create_table_notifications",
		SQL: `CREATE TABLE IF NOT EXISTS notifications (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id    TEXT        NOT NULL,
  title      TEXT        NOT NULL,
  message    TEXT        NOT NULL,
  read       BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_notifications_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications (user_id);`,
	},
	{
		Name: "create_table_similar_papers",
		SQL: `CREATE TABLE IF NOT EXISTS similar_papers (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  paper_id       TEXT        NOT NULL,
  user_id        TEXT        NOT NULL,
  similar_papers JSONB       NOT NULL,
  search_query   TEXT        NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_similar_papers_paper_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_similar_papers_paper_id ON similar_papers (paper_id);`,
	},
}

// EnsureMigrated checks whether the 'research_papers' table exists and runs
// the schema steps if it does not. Every step is idempotent, so a concurrent
// start-up racing the check is harmless.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	var exists bool
	query := "SELECT to_regclass('public.research_papers') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping migration",
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	log.Info("running schema migration", zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed",
				zap.String("step", step.Name),
				zap.Error(err))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Debug("migration step applied",
			zap.String("step", step.Name),
			zap.Duration("elapsed", time.Since(stepStart)))
	}

	log.Info("schema migration complete",
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lmoretti/support-rag/internal/core/ports"
)

// AnswerLogRepository keeps an audit trail of answered support queries.
type AnswerLogRepository struct {
	db *sql.DB
}

func NewAnswerLogRepository(db *sql.DB) *AnswerLogRepository {
	return &AnswerLogRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AnswerLogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/indexer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS answer_log (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	answer TEXT NOT NULL,
	model TEXT NOT NULL,
	language TEXT NOT NULL,
	cache_hit BOOLEAN NOT NULL DEFAULT FALSE,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answer_log_created_at ON answer_log(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AnswerLogRepository) Insert(ctx context.Context, entry ports.AnswerLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO answer_log (id, query, answer, model, language, cache_hit, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID,
		entry.Query,
		entry.Answer,
		entry.Model,
		entry.Language,
		entry.CacheHit,
		entry.Duration.Milliseconds(),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert answer log: %w", err)
	}
	return nil
}

func (r *AnswerLogRepository) ListRecent(ctx context.Context, limit int) ([]ports.AnswerLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, query, answer, model, language, cache_hit, duration_ms, created_at
FROM answer_log
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query answer log: %w", err)
	}
	defer rows.Close()

	var out []ports.AnswerLogEntry
	for rows.Next() {
		var entry ports.AnswerLogEntry
		var durationMS int64
		if err := rows.Scan(
			&entry.ID,
			&entry.Query,
			&entry.Answer,
			&entry.Model,
			&entry.Language,
			&entry.CacheHit,
			&durationMS,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan answer log row: %w", err)
		}
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer log rows: %w", err)
	}
	return out, nil
}

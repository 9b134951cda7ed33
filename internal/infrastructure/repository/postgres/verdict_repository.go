package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

const (
	schemaLockID     = int64(2026101801)
	defaultListLimit = 50
	maxListLimit     = 500
)

// VerdictRepository is the classification audit log.
type VerdictRepository struct {
	db *sql.DB
}

func NewVerdictRepository(db *sql.DB) *VerdictRepository {
	return &VerdictRepository{db: db}
}

func (r *VerdictRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent service startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS classifications (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	declared_mime TEXT NOT NULL DEFAULT '',
	detected_mime TEXT NOT NULL,
	size_bytes BIGINT NOT NULL,
	category TEXT NOT NULL,
	tier TEXT NOT NULL,
	duration_ms DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_classifications_created_at ON classifications(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_classifications_category ON classifications(category);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *VerdictRepository) RecordClassification(ctx context.Context, record domain.ClassificationRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO classifications (
	id, filename, declared_mime, detected_mime, size_bytes, category, tier, duration_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		record.ID, record.Filename, record.DeclaredMIME, record.DetectedMIME, int64(record.SizeBytes),
		record.Category, string(record.Tier), durationMillis(record.Duration), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert classification: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first. limit is clamped to [1, 500].
func (r *VerdictRepository) ListRecent(ctx context.Context, limit int) ([]domain.ClassificationRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, filename, declared_mime, detected_mime, size_bytes, category, tier, duration_ms, created_at
FROM classifications
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ClassificationRecord, 0, limit)
	for rows.Next() {
		var (
			record     domain.ClassificationRecord
			size       int64
			tier       string
			durationMS float64
		)
		if err := rows.Scan(
			&record.ID, &record.Filename, &record.DeclaredMIME, &record.DetectedMIME, &size,
			&record.Category, &tier, &durationMS, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		record.SizeBytes = int(size)
		record.Tier = domain.Tier(tier)
		record.Duration = time.Duration(durationMS * float64(time.Millisecond))
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classifications: %w", err)
	}
	return records, nil
}

func durationMillis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

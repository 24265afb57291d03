package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo is a Postgres-backed ledger.
type PGRepo struct {
	DB *sql.DB
}

// AlreadyProcessed checks the content hash against recorded documents.
func (r *PGRepo) AlreadyProcessed(ctx context.Context, contentSHA string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `
SELECT 1 FROM processed_bills WHERE content_sha256 = $1`, contentSHA).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Save inserts the record; a duplicate content hash is ignored.
func (r *PGRepo) Save(ctx context.Context, rec Record) error {
	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO processed_bills (id, file_key, content_sha256, due_date, due_amount, reminder_sent, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (content_sha256) DO NOTHING`,
		rec.ID, rec.FileKey, rec.ContentSHA, rec.DueDate, rec.DueAmount, rec.ReminderSent, processedAt)
	return err
}

var _ Repo = (*PGRepo)(nil)

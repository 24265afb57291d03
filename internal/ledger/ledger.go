package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Record is one processed invoice document. The content hash is the
// idempotency key: the same bytes are never processed into a second reminder.
type Record struct {
	ID           string
	FileKey      string
	ContentSHA   string
	DueDate      string
	DueAmount    string
	ReminderSent bool
	ProcessedAt  time.Time
}

// Repo persists processed-invoice records.
type Repo interface {
	// AlreadyProcessed reports whether a document with this content hash was
	// recorded before.
	AlreadyProcessed(ctx context.Context, contentSHA string) (bool, error)
	// Save records a processed document. Saving the same content hash twice
	// is a no-op.
	Save(ctx context.Context, rec Record) error
}

// HashContent returns the hex SHA-256 of the document bytes.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package ledger

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-process ledger used when no database is configured.
// Deduplication then only holds for the process lifetime.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryRepo constructs an empty in-memory ledger.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string]Record)}
}

// AlreadyProcessed checks the content hash against recorded documents.
func (r *MemoryRepo) AlreadyProcessed(ctx context.Context, contentSHA string) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[contentSHA]
	return ok, nil
}

// Save records a processed document; duplicates are ignored.
func (r *MemoryRepo) Save(ctx context.Context, rec Record) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ContentSHA]; ok {
		return nil
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}
	r.records[rec.ContentSHA] = rec
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

package reminder

import (
	"context"
	"fmt"

	"billtracker/internal/billing"
)

// Scheduler turns a complete bill record into a reminder artifact. Exactly one
// strategy runs per deployment; both skip silently for incomplete records.
type Scheduler interface {
	Schedule(ctx context.Context, bill billing.BillRecord) error
}

// AuthError reports an invalid credential. Fatal for the current run.
type AuthError struct {
	Strategy string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth: %v", e.Strategy, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// SchedulingError reports a rejected reminder creation. Soft failure: logged,
// not retried, not fatal to other in-flight documents.
type SchedulingError struct {
	Strategy string
	Status   int
	Err      error
}

func (e *SchedulingError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s scheduling: status %d: %v", e.Strategy, e.Status, e.Err)
	}
	return fmt.Sprintf("%s scheduling: %v", e.Strategy, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }

package inbox

import (
	"context"
	"fmt"
)

// Invoice is a PDF attachment pulled from an inbound message.
type Invoice struct {
	MessageID string
	Filename  string
	Data      []byte
}

// Source yields invoice attachments from an inbox. Implementations search by
// sender, filter by subject prefix, and return the first PDF attachment of
// each matching message.
type Source interface {
	FetchInvoices(ctx context.Context) ([]Invoice, error)
}

// AuthError reports a rejected mailbox login. Fatal for the current run.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mailbox auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

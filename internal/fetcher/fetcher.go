package fetcher

import (
	"bytes"
	"context"
	"fmt"

	"billtracker/internal/events"
	"billtracker/internal/inbox"
	"billtracker/internal/shared/metrics"
	"billtracker/internal/shared/storage/object"
	"billtracker/internal/shared/telemetry"
)

// Fetcher runs the fetch stage: inbox → object store → event bus. A failure
// on one invoice is logged and counted; remaining invoices still run.
type Fetcher struct {
	Source inbox.Source
	Store  object.ObjectStore
	// Publisher may be nil when the caller processes documents inline
	// instead of through the event bus.
	Publisher events.Publisher
}

// Result aggregates one fetch run.
type Result struct {
	Fetched   int
	Stored    int
	Published int
	Failed    int
	Keys      []string
}

// Run fetches invoices and stores each one, publishing a bill-received event
// per stored document. Inbox failures (including bad credentials) abort the
// run; per-invoice storage or publish failures do not.
func (f *Fetcher) Run(ctx context.Context) (Result, error) {
	invoices, err := f.Source.FetchInvoices(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch invoices: %w", err)
	}

	result := Result{Fetched: len(invoices)}
	for _, invoice := range invoices {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		metrics.IncInvoicesFetched()

		key, size, mimeType, err := f.Store.Save(ctx, invoice.Filename, bytes.NewReader(invoice.Data))
		if err != nil {
			result.Failed++
			telemetry.Error("fetch.store_failed", telemetry.Fields{
				"stage":      "fetch",
				"message_id": invoice.MessageID,
				"file_name":  invoice.Filename,
				"error":      err.Error(),
			})
			continue
		}
		result.Stored++
		result.Keys = append(result.Keys, key)

		telemetry.Info("fetch.stored", telemetry.Fields{
			"stage":      "fetch",
			"message_id": invoice.MessageID,
			"file_key":   key,
			"size_bytes": size,
			"mime_type":  mimeType,
		})

		if f.Publisher == nil {
			continue
		}
		if err := f.Publisher.PublishBillReceived(ctx, key); err != nil {
			result.Failed++
			telemetry.Error("fetch.publish_failed", telemetry.Fields{
				"stage":    "fetch",
				"file_key": key,
				"error":    err.Error(),
			})
			continue
		}
		result.Published++
	}

	return result, nil
}

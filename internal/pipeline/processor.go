package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"billtracker/internal/billing"
	"billtracker/internal/document"
	"billtracker/internal/events"
	"billtracker/internal/ledger"
	"billtracker/internal/reminder"
	"billtracker/internal/shared/metrics"
	"billtracker/internal/shared/storage/object"
	"billtracker/internal/shared/telemetry"
)

// Loader turns document bytes into text segments.
type Loader interface {
	Load(name string, data []byte) ([]document.Segment, error)
}

// Processor runs the process stage for one stored document: download → load →
// extract → remind. Documents are independent; a failure aborts only the
// current one.
type Processor struct {
	Store     object.ObjectStore
	Loader    Loader
	Extractor *billing.Extractor
	Scheduler reminder.Scheduler
	// Ledger may be nil; deduplication is then disabled.
	Ledger ledger.Repo
}

// Outcome summarizes one processed document.
type Outcome struct {
	FileKey      string             `json:"file_key"`
	Bill         billing.BillRecord `json:"bill"`
	ReminderSent bool               `json:"reminder_sent"`
	Duplicate    bool               `json:"duplicate"`
}

// ProcessEventDetail decodes a bill-received event payload and processes the
// referenced document.
func (p *Processor) ProcessEventDetail(ctx context.Context, body []byte) (Outcome, error) {
	detail, err := events.ParseDetail(body)
	if err != nil {
		return Outcome{}, err
	}
	return p.ProcessKey(ctx, detail.FileKey)
}

// ProcessKey downloads a stored document and processes it.
func (p *Processor) ProcessKey(ctx context.Context, fileKey string) (Outcome, error) {
	body, err := p.Store.Open(ctx, fileKey)
	if err != nil {
		metrics.IncDocumentsFailed()
		return Outcome{}, fmt.Errorf("download key=%s: %w", fileKey, err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		metrics.IncDocumentsFailed()
		return Outcome{}, fmt.Errorf("download key=%s: read: %w", fileKey, err)
	}

	return p.ProcessDocument(ctx, fileKey, data)
}

// ProcessDocument runs load, extraction, and reminder scheduling over raw
// document bytes. The ledger content hash guards against reprocessing the
// same invoice into a duplicate reminder.
func (p *Processor) ProcessDocument(ctx context.Context, fileKey string, data []byte) (Outcome, error) {
	start := time.Now()
	outcome := Outcome{FileKey: fileKey}

	contentSHA := ledger.HashContent(data)
	if p.Ledger != nil {
		seen, err := p.Ledger.AlreadyProcessed(ctx, contentSHA)
		if err != nil {
			// A ledger outage must not block bill processing.
			telemetry.Warn("process.ledger_unavailable", telemetry.Fields{
				"stage":    "process",
				"file_key": fileKey,
				"error":    err.Error(),
			})
		} else if seen {
			outcome.Duplicate = true
			telemetry.Info("process.duplicate_skipped", telemetry.Fields{
				"stage":       "process",
				"file_key":    fileKey,
				"content_sha": contentSHA,
			})
			return outcome, nil
		}
	}

	segments, err := p.Loader.Load(fileKey, data)
	if err != nil {
		metrics.IncDocumentsFailed()
		return outcome, err
	}

	bill, err := p.Extractor.Extract(ctx, segments)
	if err != nil {
		metrics.IncDocumentsFailed()
		return outcome, fmt.Errorf("extract key=%s: %w", fileKey, err)
	}
	outcome.Bill = bill

	telemetry.Info("process.extracted", telemetry.Fields{
		"stage":      "process",
		"file_key":   fileKey,
		"due_date":   bill.DueDate,
		"due_amount": bill.DueAmount,
		"segments":   len(segments),
	})

	if !bill.Complete() {
		metrics.IncExtractionEmpty()
		metrics.IncRemindersSkipped()
		telemetry.Info("process.reminder_skipped", telemetry.Fields{
			"stage":    "process",
			"file_key": fileKey,
			"reason":   "due date or amount not determinable",
		})
		p.record(ctx, fileKey, contentSHA, bill, false)
		p.finish(start)
		return outcome, nil
	}

	if err := p.Scheduler.Schedule(ctx, bill); err != nil {
		metrics.IncRemindersFailed()
		var authErr *reminder.AuthError
		if errors.As(err, &authErr) {
			metrics.IncDocumentsFailed()
			return outcome, fmt.Errorf("schedule key=%s: %w", fileKey, err)
		}
		// Soft failure: logged, not retried; the document is not recorded so
		// a later run may try again.
		telemetry.Error("process.reminder_failed", telemetry.Fields{
			"stage":    "process",
			"file_key": fileKey,
			"error":    err.Error(),
		})
		metrics.IncDocumentsFailed()
		return outcome, fmt.Errorf("schedule key=%s: %w", fileKey, err)
	}

	outcome.ReminderSent = true
	metrics.IncRemindersCreated()
	p.record(ctx, fileKey, contentSHA, bill, true)
	p.finish(start)
	return outcome, nil
}

func (p *Processor) record(ctx context.Context, fileKey, contentSHA string, bill billing.BillRecord, reminderSent bool) {
	if p.Ledger == nil {
		return
	}
	rec := ledger.Record{
		ID:           uuid.NewString(),
		FileKey:      fileKey,
		ContentSHA:   contentSHA,
		DueDate:      bill.DueDate,
		DueAmount:    bill.DueAmount,
		ReminderSent: reminderSent,
		ProcessedAt:  time.Now().UTC(),
	}
	if err := p.Ledger.Save(ctx, rec); err != nil {
		telemetry.Warn("process.ledger_save_failed", telemetry.Fields{
			"stage":    "process",
			"file_key": fileKey,
			"error":    err.Error(),
		})
	}
}

func (p *Processor) finish(start time.Time) {
	metrics.IncDocumentsProcessed()
	metrics.ObserveProcessingDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
}

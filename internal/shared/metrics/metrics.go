package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	invoicesFetchedTotal    atomic.Uint64
	documentsProcessedTotal atomic.Uint64
	documentsFailedTotal    atomic.Uint64
	extractionEmptyTotal    atomic.Uint64
	remindersCreatedTotal   atomic.Uint64
	remindersSkippedTotal   atomic.Uint64
	remindersFailedTotal    atomic.Uint64

	processingDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncInvoicesFetched increments the fetched-invoice counter.
func IncInvoicesFetched() {
	invoicesFetchedTotal.Add(1)
}

// IncDocumentsProcessed increments the processed-document counter.
func IncDocumentsProcessed() {
	documentsProcessedTotal.Add(1)
}

// IncDocumentsFailed increments the failed-document counter.
func IncDocumentsFailed() {
	documentsFailedTotal.Add(1)
}

// IncExtractionEmpty counts documents where a field could not be determined.
func IncExtractionEmpty() {
	extractionEmptyTotal.Add(1)
}

// IncRemindersCreated increments the created-reminder counter.
func IncRemindersCreated() {
	remindersCreatedTotal.Add(1)
}

// IncRemindersSkipped increments the skipped-reminder counter.
func IncRemindersSkipped() {
	remindersSkippedTotal.Add(1)
}

// IncRemindersFailed increments the failed-reminder counter.
func IncRemindersFailed() {
	remindersFailedTotal.Add(1)
}

// ObserveProcessingDurationMs records a document processing duration in milliseconds.
func ObserveProcessingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	processingDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "invoices_fetched_total", "Total invoice attachments fetched from the inbox", invoicesFetchedTotal.Load())
	writeCounter(&buf, "documents_processed_total", "Total invoice documents processed", documentsProcessedTotal.Load())
	writeCounter(&buf, "documents_failed_total", "Total invoice documents that failed processing", documentsFailedTotal.Load())
	writeCounter(&buf, "extraction_empty_total", "Total documents with an undeterminable due date or amount", extractionEmptyTotal.Load())
	writeCounter(&buf, "reminders_created_total", "Total reminders created", remindersCreatedTotal.Load())
	writeCounter(&buf, "reminders_skipped_total", "Total reminders skipped for incomplete records", remindersSkippedTotal.Load())
	writeCounter(&buf, "reminders_failed_total", "Total reminder creation failures", remindersFailedTotal.Load())
	writeHistogram(&buf, "processing_duration_ms", "Document processing duration in milliseconds", processingDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}

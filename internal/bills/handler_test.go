package bills

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"billtracker/internal/billing"
	"billtracker/internal/document"
	"billtracker/internal/fetcher"
	"billtracker/internal/inbox"
	"billtracker/internal/ledger"
	"billtracker/internal/pipeline"
)

type stubEngine struct {
	amount string
	date   string
}

func (s *stubEngine) Answer(ctx context.Context, question string, corpus []document.Segment) (string, error) {
	_ = ctx
	_ = corpus
	if strings.Contains(question, "due amount") {
		return s.amount, nil
	}
	return s.date, nil
}

type stubLoader struct {
	segments []document.Segment
	err      error
}

func (s *stubLoader) Load(name string, data []byte) ([]document.Segment, error) {
	_ = name
	_ = data
	return s.segments, s.err
}

type stubScheduler struct {
	calls int
}

func (s *stubScheduler) Schedule(ctx context.Context, bill billing.BillRecord) error {
	_ = ctx
	_ = bill
	s.calls++
	return nil
}

type stubStore struct {
	content map[string][]byte
}

func (s *stubStore) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, string, error) {
	_ = ctx
	data, _ := io.ReadAll(r)
	s.content[fileName] = data
	return fileName, int64(len(data)), "application/pdf", nil
}

func (s *stubStore) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	_, n, _, err := s.Save(ctx, storageKey, r)
	_ = contentType
	return n, err
}

func (s *stubStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	_ = ctx
	data, ok := s.content[storageKey]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubStore) Download(ctx context.Context, storageKey string, localPath string) error {
	_, err := s.Open(ctx, storageKey)
	_ = localPath
	return err
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartFile(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestExtractReturnsBill(t *testing.T) {
	p := &pipeline.Processor{
		Loader:    &stubLoader{segments: []document.Segment{{Page: 1, Text: "amount 99.10 due 15/03/2025"}}},
		Extractor: &billing.Extractor{Engine: &stubEngine{amount: "99.10", date: "15/03/2025"}},
	}
	router := newTestRouter(NewHandler(p, nil))

	body, contentType := multipartFile(t, "file", "bill.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/extract", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", resp.Code, resp.Body.String())
	}
	var bill billing.BillRecord
	if err := json.Unmarshal(resp.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bill.DueAmount != "99.10" || bill.DueDate != "15/03/2025" {
		t.Fatalf("bill = %+v", bill)
	}
}

func TestExtractRequiresFile(t *testing.T) {
	p := &pipeline.Processor{
		Loader:    &stubLoader{},
		Extractor: &billing.Extractor{Engine: &stubEngine{}},
	}
	router := newTestRouter(NewHandler(p, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/extract", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestExtractRejectsUnparsableDocument(t *testing.T) {
	p := &pipeline.Processor{
		Loader:    &stubLoader{err: &document.ParseError{Name: "bill.pdf", Err: errors.New("bad xref")}},
		Extractor: &billing.Extractor{Engine: &stubEngine{}},
	}
	router := newTestRouter(NewHandler(p, nil))

	body, contentType := multipartFile(t, "file", "bill.pdf", []byte("not a pdf"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/extract", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body = %s", resp.Code, resp.Body.String())
	}
}

func TestProcessStoredDocument(t *testing.T) {
	sched := &stubScheduler{}
	p := &pipeline.Processor{
		Store:     &stubStore{content: map[string][]byte{"bill.pdf": []byte("%PDF-1.4")}},
		Loader:    &stubLoader{segments: []document.Segment{{Page: 1, Text: "amount 99.10 due 15/03/2025"}}},
		Extractor: &billing.Extractor{Engine: &stubEngine{amount: "99.10", date: "15/03/2025"}},
		Scheduler: sched,
		Ledger:    ledger.NewMemoryRepo(),
	}
	router := newTestRouter(NewHandler(p, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/process", strings.NewReader(`{"file_key":"bill.pdf"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", resp.Code, resp.Body.String())
	}
	var outcome pipeline.Outcome
	if err := json.Unmarshal(resp.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !outcome.ReminderSent || sched.calls != 1 {
		t.Fatalf("outcome = %+v scheduler calls = %d", outcome, sched.calls)
	}
}

func TestProcessRequiresFileKey(t *testing.T) {
	p := &pipeline.Processor{
		Loader:    &stubLoader{},
		Extractor: &billing.Extractor{Engine: &stubEngine{}},
	}
	router := newTestRouter(NewHandler(p, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/process", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.Code)
	}
}

type stubSource struct {
	invoices []inbox.Invoice
}

func (s *stubSource) FetchInvoices(ctx context.Context) ([]inbox.Invoice, error) {
	_ = ctx
	return s.invoices, nil
}

func TestRunProcessesInlineWithoutEventBus(t *testing.T) {
	store := &stubStore{content: map[string][]byte{}}
	sched := &stubScheduler{}
	p := &pipeline.Processor{
		Store:     store,
		Loader:    &stubLoader{segments: []document.Segment{{Page: 1, Text: "amount 99.10 due 15/03/2025"}}},
		Extractor: &billing.Extractor{Engine: &stubEngine{amount: "99.10", date: "15/03/2025"}},
		Scheduler: sched,
		Ledger:    ledger.NewMemoryRepo(),
	}
	f := &fetcher.Fetcher{
		Source: &stubSource{invoices: []inbox.Invoice{
			{MessageID: "m1", Filename: "march.pdf", Data: []byte("%PDF-1")},
		}},
		Store: store,
	}
	router := newTestRouter(NewHandler(p, f))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Stored    int                `json:"stored"`
		Processed []pipeline.Outcome `json:"processed"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Stored != 1 || len(payload.Processed) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
	if !payload.Processed[0].ReminderSent || sched.calls != 1 {
		t.Fatalf("processed = %+v scheduler calls = %d", payload.Processed[0], sched.calls)
	}
}

func TestRunWithoutFetcherUnavailable(t *testing.T) {
	p := &pipeline.Processor{
		Loader:    &stubLoader{},
		Extractor: &billing.Extractor{Engine: &stubEngine{}},
	}
	router := newTestRouter(NewHandler(p, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.Code)
	}
}

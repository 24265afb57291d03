package reminder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"billtracker/internal/billing"
)

func TestWebhookSchedulePostsFormFields(t *testing.T) {
	var gotPath, gotAmount, gotDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotAmount = r.PostFormValue("value1")
		gotDate = r.PostFormValue("value2")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &WebhookScheduler{Key: "k-123", BaseURL: srv.URL, HTTPClient: srv.Client()}
	bill := billing.BillRecord{DueDate: "31/01/2025", DueAmount: "123.45"}
	if err := s.Schedule(context.Background(), bill); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if gotPath != "/trigger/create_reminder/with/key/k-123" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAmount != "123.45" || gotDate != "31/01/2025" {
		t.Fatalf("payload = (%q, %q)", gotAmount, gotDate)
	}
}

func TestWebhookScheduleSkipsIncompleteRecord(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	s := &WebhookScheduler{Key: "k", BaseURL: srv.URL, HTTPClient: srv.Client()}

	for _, bill := range []billing.BillRecord{
		{},
		{DueDate: "31/01/2025"},
		{DueAmount: "123.45"},
	} {
		if err := s.Schedule(context.Background(), bill); err != nil {
			t.Fatalf("Schedule(%+v): %v", bill, err)
		}
	}
	if called {
		t.Fatalf("webhook called for incomplete record")
	}
}

func TestWebhookScheduleNon2xxIsSoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := &WebhookScheduler{Key: "bad", BaseURL: srv.URL, HTTPClient: srv.Client()}
	err := s.Schedule(context.Background(), billing.BillRecord{DueDate: "31/01/2025", DueAmount: "1.00"})

	var schedErr *SchedulingError
	if !errors.As(err, &schedErr) {
		t.Fatalf("err = %v, want *SchedulingError", err)
	}
	if schedErr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d", schedErr.Status)
	}
}

func TestNewWebhookSchedulerRequiresKey(t *testing.T) {
	_, err := NewWebhookScheduler("")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
}

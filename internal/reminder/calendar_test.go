package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"billtracker/internal/billing"
)

func TestBuildEventTimes(t *testing.T) {
	event, err := buildEvent(billing.BillRecord{DueDate: "31/01/2025", DueAmount: "123.45"})
	if err != nil {
		t.Fatalf("buildEvent: %v", err)
	}

	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}
	end, err := time.Parse(time.RFC3339, event.End.DateTime)
	if err != nil {
		t.Fatalf("parse end: %v", err)
	}

	due := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	if !start.Equal(due.AddDate(0, 0, -1)) {
		t.Fatalf("start = %s, want one day before due date", start)
	}
	if end.Sub(start) != time.Hour {
		t.Fatalf("end - start = %s, want 1h", end.Sub(start))
	}
	if event.Summary != "Pay utilities bill $123.45" {
		t.Fatalf("summary = %q", event.Summary)
	}
	if event.Description != "Amount Due: $123.45" {
		t.Fatalf("description = %q", event.Description)
	}
}

func TestBuildEventAcceptsUnpaddedDate(t *testing.T) {
	event, err := buildEvent(billing.BillRecord{DueDate: "5/1/2025", DueAmount: "9.99"})
	if err != nil {
		t.Fatalf("buildEvent: %v", err)
	}
	start, _ := time.Parse(time.RFC3339, event.Start.DateTime)
	if got := start.Format("2006-01-02"); got != "2025-01-04" {
		t.Fatalf("start date = %s", got)
	}
}

func TestCalendarScheduleInsertsEvent(t *testing.T) {
	var gotPath string
	var gotEvent calendarEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotEvent); err != nil {
			t.Errorf("decode event: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"evt-1"}`))
	}))
	defer srv.Close()

	s := &CalendarScheduler{CalendarID: "primary", BaseURL: srv.URL, HTTPClient: srv.Client()}
	bill := billing.BillRecord{DueDate: "31/01/2025", DueAmount: "123.45"}
	if err := s.Schedule(context.Background(), bill); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if gotPath != "/calendars/primary/events" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotEvent.Start.TimeZone != "UTC" || gotEvent.End.TimeZone != "UTC" {
		t.Fatalf("timezones = (%q, %q)", gotEvent.Start.TimeZone, gotEvent.End.TimeZone)
	}
}

func TestCalendarScheduleSkipsIncompleteRecord(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	s := &CalendarScheduler{CalendarID: "primary", BaseURL: srv.URL, HTTPClient: srv.Client()}
	if err := s.Schedule(context.Background(), billing.BillRecord{DueAmount: "1.00"}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if called {
		t.Fatalf("calendar called for incomplete record")
	}
}

func TestCalendarScheduleRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := &CalendarScheduler{CalendarID: "primary", BaseURL: srv.URL, HTTPClient: srv.Client()}
	err := s.Schedule(context.Background(), billing.BillRecord{DueDate: "31/01/2025", DueAmount: "1.00"})

	var schedErr *SchedulingError
	if !errors.As(err, &schedErr) {
		t.Fatalf("err = %v, want *SchedulingError", err)
	}
}

func TestCalendarScheduleBadCredentialStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_grant", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := &CalendarScheduler{CalendarID: "primary", BaseURL: srv.URL, HTTPClient: srv.Client()}
	err := s.Schedule(context.Background(), billing.BillRecord{DueDate: "31/01/2025", DueAmount: "1.00"})

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
}

func TestNewCalendarSchedulerBadBase64(t *testing.T) {
	_, err := NewCalendarScheduler("%%%not-base64%%%", "primary")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
}

package reminder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"billtracker/internal/billing"
	"billtracker/internal/shared/telemetry"
)

const (
	defaultCalendarBaseURL = "https://www.googleapis.com/calendar/v3"
	calendarScope          = "https://www.googleapis.com/auth/calendar"

	// Extractor output format, leading zeros optional.
	dueDateLayout = "2/1/2006"
)

// CalendarScheduler creates a Google Calendar event one day before the due
// date using a service-account credential.
type CalendarScheduler struct {
	CalendarID string
	BaseURL    string
	// HTTPClient overrides the service-account client when set (tests).
	HTTPClient *http.Client

	jwtConfig *jwt.Config
}

// NewCalendarScheduler decodes the base64 service-account JSON and prepares
// JWT auth. Credential problems surface as *AuthError.
func NewCalendarScheduler(serviceAccountB64, calendarID string) (*CalendarScheduler, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, &AuthError{Strategy: "calendar", Err: errors.New("calendar id is required")}
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(serviceAccountB64))
	if err != nil {
		return nil, &AuthError{Strategy: "calendar", Err: fmt.Errorf("decode service account: %w", err)}
	}
	cfg, err := google.JWTConfigFromJSON(decoded, calendarScope)
	if err != nil {
		return nil, &AuthError{Strategy: "calendar", Err: fmt.Errorf("parse service account: %w", err)}
	}
	return &CalendarScheduler{
		CalendarID: calendarID,
		BaseURL:    defaultCalendarBaseURL,
		jwtConfig:  cfg,
	}, nil
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type calendarEvent struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

// Schedule inserts the reminder event. Incomplete records are skipped with a
// log line. Start time is exactly one day before the due date (UTC), end time
// one hour after start.
func (s *CalendarScheduler) Schedule(ctx context.Context, bill billing.BillRecord) error {
	if !bill.Complete() {
		telemetry.Info("reminder.skipped", telemetry.Fields{
			"strategy":   "calendar",
			"due_date":   bill.DueDate,
			"due_amount": bill.DueAmount,
			"reason":     "incomplete bill record",
		})
		return nil
	}

	event, err := buildEvent(bill)
	if err != nil {
		return &SchedulingError{Strategy: "calendar", Err: err}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return &SchedulingError{Strategy: "calendar", Err: err}
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", strings.TrimRight(s.BaseURL, "/"), url.PathEscape(s.CalendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &SchedulingError{Strategy: "calendar", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client(ctx).Do(req)
	if err != nil {
		return &SchedulingError{Strategy: "calendar", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Strategy: "calendar", Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &SchedulingError{
			Strategy: "calendar",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("event insert rejected: %s", strings.TrimSpace(string(body))),
		}
	}

	telemetry.Info("reminder.created", telemetry.Fields{
		"strategy":   "calendar",
		"due_date":   bill.DueDate,
		"due_amount": bill.DueAmount,
		"start":      event.Start.DateTime,
	})
	return nil
}

func (s *CalendarScheduler) client(ctx context.Context) *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return s.jwtConfig.Client(ctx)
}

func buildEvent(bill billing.BillRecord) (calendarEvent, error) {
	due, err := time.ParseInLocation(dueDateLayout, bill.DueDate, time.UTC)
	if err != nil {
		return calendarEvent{}, fmt.Errorf("parse due date %q: %w", bill.DueDate, err)
	}

	start := due.AddDate(0, 0, -1)
	end := start.Add(time.Hour)

	return calendarEvent{
		Summary:     fmt.Sprintf("Pay utilities bill $%s", bill.DueAmount),
		Description: fmt.Sprintf("Amount Due: $%s", bill.DueAmount),
		Start:       eventTime{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"},
		End:         eventTime{DateTime: end.Format(time.RFC3339), TimeZone: "UTC"},
	}, nil
}

var _ Scheduler = (*CalendarScheduler)(nil)

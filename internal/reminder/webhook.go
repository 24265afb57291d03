package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"billtracker/internal/billing"
	"billtracker/internal/shared/telemetry"
)

const defaultWebhookBaseURL = "https://maker.ifttt.com"

// WebhookScheduler POSTs the bill fields as form data to an IFTTT-style
// trigger endpoint.
type WebhookScheduler struct {
	Key        string
	BaseURL    string
	HTTPClient *http.Client
}

// NewWebhookScheduler constructs a webhook strategy with the given trigger key.
func NewWebhookScheduler(key string) (*WebhookScheduler, error) {
	if strings.TrimSpace(key) == "" {
		return nil, &AuthError{Strategy: "webhook", Err: errors.New("webhook key is required")}
	}
	return &WebhookScheduler{
		Key:        key,
		BaseURL:    defaultWebhookBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Schedule fires the create_reminder trigger. Incomplete records are skipped
// with a log line; non-2xx responses are soft failures and never retried.
func (s *WebhookScheduler) Schedule(ctx context.Context, bill billing.BillRecord) error {
	if !bill.Complete() {
		telemetry.Info("reminder.skipped", telemetry.Fields{
			"strategy":   "webhook",
			"due_date":   bill.DueDate,
			"due_amount": bill.DueAmount,
			"reason":     "incomplete bill record",
		})
		return nil
	}

	endpoint := fmt.Sprintf("%s/trigger/create_reminder/with/key/%s", strings.TrimRight(s.BaseURL, "/"), s.Key)
	payload := url.Values{
		"value1": {bill.DueAmount},
		"value2": {bill.DueDate},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return &SchedulingError{Strategy: "webhook", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return &SchedulingError{Strategy: "webhook", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &SchedulingError{
			Strategy: "webhook",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("trigger rejected: %s", strings.TrimSpace(string(body))),
		}
	}

	telemetry.Info("reminder.created", telemetry.Fields{
		"strategy":   "webhook",
		"due_date":   bill.DueDate,
		"due_amount": bill.DueAmount,
		"status":     resp.StatusCode,
	})
	return nil
}

var _ Scheduler = (*WebhookScheduler)(nil)

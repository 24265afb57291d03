package inbox

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"billtracker/internal/shared/telemetry"
)

// IMAPSource fetches invoice attachments over IMAP with TLS.
// Libraries used: github.com/emersion/go-imap/v2 and github.com/emersion/go-message.
type IMAPSource struct {
	Host          string
	Username      string
	Password      string
	Sender        string
	SubjectPrefix string
	// Limit caps how many of the most recent matching messages are fetched.
	Limit int
}

// NewIMAPSource constructs an IMAP-backed invoice source.
func NewIMAPSource(host, username, password, sender, subjectPrefix string, limit int) *IMAPSource {
	if limit <= 0 {
		limit = 1
	}
	return &IMAPSource{
		Host:          host,
		Username:      username,
		Password:      password,
		Sender:        sender,
		SubjectPrefix: subjectPrefix,
		Limit:         limit,
	}
}

// FetchInvoices logs in, searches the inbox by sender, and returns the first
// PDF attachment of each of the most recent matching messages.
func (s *IMAPSource) FetchInvoices(ctx context.Context) ([]Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := imapclient.DialTLS(s.Host, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.Host, err)
	}
	defer client.Close()

	if err := client.Login(s.Username, s.Password).Wait(); err != nil {
		return nil, &AuthError{Err: err}
	}
	defer func() {
		if err := client.Logout().Wait(); err != nil {
			telemetry.Warn("inbox.logout_failed", telemetry.Fields{"error": err.Error()})
		}
	}()

	if _, err := client.Select("INBOX", &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("select inbox: %w", err)
	}

	searchData, err := client.Search(&imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{{Key: "From", Value: s.Sender}},
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search sender=%s: %w", s.Sender, err)
	}

	nums := searchData.AllSeqNums()
	if len(nums) == 0 {
		return nil, nil
	}
	if len(nums) > s.Limit {
		nums = nums[len(nums)-s.Limit:]
	}

	fetchCmd := client.Fetch(imap.SeqSetNum(nums...), &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{{}},
	})
	messages, err := fetchCmd.Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	var invoices []Invoice
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return invoices, err
		}

		raw := msg.FindBodySection(&imap.FetchItemBodySection{})
		if len(raw) == 0 {
			continue
		}

		invoice, ok, err := invoiceFromMessage(raw, s.SubjectPrefix)
		if err != nil {
			telemetry.Warn("inbox.message_unreadable", telemetry.Fields{
				"seq_num": msg.SeqNum,
				"error":   err.Error(),
			})
			continue
		}
		if !ok {
			continue
		}
		invoices = append(invoices, invoice)
	}

	return invoices, nil
}

var _ Source = (*IMAPSource)(nil)

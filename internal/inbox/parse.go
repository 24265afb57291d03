package inbox

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
)

const pdfMimeType = "application/pdf"

// invoiceFromMessage parses a raw RFC 822 message and returns its first PDF
// attachment. The second return is false when the message does not match the
// subject prefix or carries no PDF.
func invoiceFromMessage(raw []byte, subjectPrefix string) (Invoice, bool, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return Invoice{}, false, fmt.Errorf("read message: %w", err)
	}

	subject, _ := mr.Header.Subject()
	if !strings.HasPrefix(subject, subjectPrefix) {
		return Invoice{}, false, nil
	}
	messageID, _ := mr.Header.MessageID()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Invoice{}, false, fmt.Errorf("read message part: %w", err)
		}

		var contentType, filename string
		switch h := part.Header.(type) {
		case *mail.AttachmentHeader:
			contentType, _, _ = h.ContentType()
			filename, _ = h.Filename()
		case *mail.InlineHeader:
			contentType, _, _ = h.ContentType()
		default:
			continue
		}
		if contentType != pdfMimeType {
			continue
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			return Invoice{}, false, fmt.Errorf("read attachment: %w", err)
		}
		if filename == "" {
			filename = "invoice.pdf"
		}
		return Invoice{MessageID: messageID, Filename: filename, Data: data}, true, nil
	}

	return Invoice{}, false, nil
}

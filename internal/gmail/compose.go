package gmail

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/pkg/models"
)

const replyPrefix = "Re: "

// ReplySubject prefixes a subject with "Re: " unless it already carries one
func ReplySubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	if strings.HasPrefix(strings.ToLower(trimmed), "re:") {
		return trimmed
	}
	return replyPrefix + trimmed
}

// ReplyRecipient returns the bare address a reply to original is sent to
func ReplyRecipient(original *models.EmailMessage) (*mail.Address, error) {
	addr, err := mail.ParseAddress(original.Sender)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot reply to %q: %v", apperr.ErrInvalidDomain, original.Sender, err)
	}
	return addr, nil
}

// ComposeReply builds an RFC 5322 plain-text reply to original.
// from may be empty when the transport fills it in.
func ComposeReply(from string, original *models.EmailMessage, body string, now time.Time) ([]byte, error) {
	to, err := ReplyRecipient(original)
	if err != nil {
		return nil, err
	}

	var h mail.Header
	h.SetDate(now)
	h.SetSubject(ReplySubject(original.Subject))
	h.SetAddressList("To", []*mail.Address{to})
	if from != "" {
		h.SetAddressList("From", []*mail.Address{{Address: from}})
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message writer: %w", err)
	}

	return buf.Bytes(), nil
}

package gmail

import (
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/mixelka/inboxlens/internal/analytics"
	"github.com/mixelka/inboxlens/internal/parser"
	"github.com/mixelka/inboxlens/pkg/models"
)

// MaxResults caps every listing regardless of what the caller asks for
const MaxResults = 50

// DefaultMaxBodyLength is the body truncation limit when none is configured
const DefaultMaxBodyLength = 10000

const defaultSubject = "No Subject"

// Envelope holds the header values a message is built from
type Envelope struct {
	Subject    string
	From       string
	To         string
	Date       string
	XPriority  string
	Importance string
}

// MessageBuilder turns raw envelopes and bodies into EmailMessage values.
// It is shared by every gateway implementation.
type MessageBuilder struct {
	text     *parser.TextExtractor
	priority *parser.PriorityClassifier
	maxBody  int
	now      func() time.Time
}

// NewMessageBuilder creates a builder truncating bodies to maxBody characters
func NewMessageBuilder(maxBody int) *MessageBuilder {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyLength
	}
	return &MessageBuilder{
		text:     parser.NewTextExtractor(),
		priority: parser.NewPriorityClassifier(),
		maxBody:  maxBody,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Build assembles a message. headersOnly marks a metadata fetch with no body.
func (b *MessageBuilder) Build(id string, env Envelope, body string, headersOnly bool) models.EmailMessage {
	subject := strings.TrimSpace(env.Subject)
	if subject == "" {
		subject = defaultSubject
	}

	priority := b.priority.Classify(parser.Signals{
		XPriority:   env.XPriority,
		Importance:  env.Importance,
		Subject:     subject,
		Body:        body,
		HeadersOnly: headersOnly,
	})

	if headersOnly {
		body = ""
	}

	return models.EmailMessage{
		ID:         id,
		Subject:    subject,
		Body:       parser.Truncate(body, b.maxBody),
		Sender:     env.From,
		Recipient:  env.To,
		ReceivedAt: b.ParseDate(env.Date),
		Priority:   priority,
		Domain:     analytics.ExtractDomain(env.From),
	}
}

// BodyText picks the plain-text body, falling back to the HTML body rendered as text
func (b *MessageBuilder) BodyText(plain, html string) string {
	if strings.TrimSpace(plain) != "" {
		return b.text.Clean(plain)
	}
	if html == "" {
		return ""
	}
	text, err := b.text.FromHTML(html)
	if err != nil {
		return ""
	}
	return text
}

// ParseDate parses an RFC 5322 date header into UTC. Unparsable dates become now.
func (b *MessageBuilder) ParseDate(value string) time.Time {
	if value == "" {
		return b.now()
	}
	h := mail.HeaderFromMap(map[string][]string{"Date": {value}})
	t, err := h.Date()
	if err != nil || t.IsZero() {
		return b.now()
	}
	return t.UTC()
}

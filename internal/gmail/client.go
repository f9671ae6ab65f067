package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mixelka/inboxlens/internal/analytics"
	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/pkg/models"
)

const (
	userID      = "me"
	inboxQuery  = "in:inbox"
	formatMeta  = "metadata"
	formatFull  = "full"
	mimePlain   = "text/plain"
	mimeHTML    = "text/html"
	headerFrom  = "From"
	headerTo    = "To"
	headerDate  = "Date"
	headerSubj  = "Subject"
	headerXPrio = "X-Priority"
	headerImp   = "Importance"
)

var metadataHeaders = []string{headerSubj, headerFrom, headerTo, headerDate, headerXPrio, headerImp}

// ClientConfig configuration for the Gmail REST client
type ClientConfig struct {
	Timeout  time.Duration
	Endpoint string // overrides the API base URL, used by tests
}

// Client is a Gmail REST gateway bound to one session's credential
type Client struct {
	svc     *gmailapi.Service
	builder *MessageBuilder
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a Gmail client authenticating with ts
func NewClient(ctx context.Context, ts oauth2.TokenSource, cfg ClientConfig, builder *MessageBuilder, logger *slog.Logger) (*Client, error) {
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = cfg.Timeout

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gmail service: %v", apperr.ErrRemoteFetch, err)
	}

	return &Client{
		svc:     svc,
		builder: builder,
		logger:  logger.With("component", "gmail"),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// FetchRecent returns up to maxResults of the newest inbox messages, never more than MaxResults.
// With sampleOnly only headers are fetched and bodies are left empty.
func (c *Client) FetchRecent(ctx context.Context, maxResults int, sampleOnly bool) ([]models.EmailMessage, error) {
	return c.list(ctx, inboxQuery, maxResults, sampleOnly)
}

// SearchByDomain returns inbox messages sent from domain, with full bodies
func (c *Client) SearchByDomain(ctx context.Context, domain string, limit int) ([]models.EmailMessage, error) {
	d, err := analytics.NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, fmt.Sprintf("from:%s %s", d, inboxQuery), limit, false)
}

// FetchByID returns one message with its full body
func (c *Client) FetchByID(ctx context.Context, id string) (*models.EmailMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty message id", apperr.ErrInvalidRequest)
	}

	msg, err := c.get(ctx, id, false)
	if err != nil {
		return nil, classify(err, "get message")
	}

	email := c.toEmail(msg, false)
	return &email, nil
}

// SendReply sends a plain-text reply to the sender of original
func (c *Client) SendReply(ctx context.Context, original *models.EmailMessage, body string) error {
	raw, err := ComposeReply("", original, body, c.now())
	if err != nil {
		return err
	}

	msg := &gmailapi.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if original.ID != "" {
		// Thread the reply when the original still exists in the mailbox
		if orig, err := c.svc.Users.Messages.Get(userID, original.ID).Format("minimal").Context(ctx).Do(); err == nil {
			msg.ThreadId = orig.ThreadId
		}
	}

	if _, err := c.svc.Users.Messages.Send(userID, msg).Context(ctx).Do(); err != nil {
		return classify(err, "send reply")
	}

	c.logger.Info("reply sent", "domain", original.Domain)
	return nil
}

// Profile returns the authenticated account
func (c *Client) Profile(ctx context.Context) (*models.UserProfile, error) {
	p, err := c.svc.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "get profile")
	}
	return &models.UserProfile{
		Email:         p.EmailAddress,
		MessagesTotal: p.MessagesTotal,
		ThreadsTotal:  p.ThreadsTotal,
	}, nil
}

func (c *Client) list(ctx context.Context, query string, limit int, headersOnly bool) ([]models.EmailMessage, error) {
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	resp, err := c.svc.Users.Messages.List(userID).Q(query).MaxResults(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "list messages")
	}

	emails := make([]models.EmailMessage, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		msg, err := c.get(ctx, ref.Id, headersOnly)
		if err != nil {
			if isFatal(ctx, err) {
				return nil, classify(err, "get message")
			}
			c.logger.Warn("skipping message", "id", ref.Id, "error", err)
			continue
		}
		emails = append(emails, c.toEmail(msg, headersOnly))
	}

	c.logger.Debug("messages fetched", "query", query, "listed", len(resp.Messages), "parsed", len(emails))
	return emails, nil
}

func (c *Client) get(ctx context.Context, id string, headersOnly bool) (*gmailapi.Message, error) {
	call := c.svc.Users.Messages.Get(userID, id).Context(ctx)
	if headersOnly {
		call = call.Format(formatMeta).MetadataHeaders(metadataHeaders...)
	} else {
		call = call.Format(formatFull)
	}

	msg, err := call.Do()
	if err != nil {
		return nil, err
	}
	if msg.Payload == nil {
		return nil, errors.New("message has no payload")
	}
	return msg, nil
}

func (c *Client) toEmail(msg *gmailapi.Message, headersOnly bool) models.EmailMessage {
	env := envelopeFromHeaders(msg.Payload.Headers)
	if env.Date == "" && msg.InternalDate > 0 {
		env.Date = time.UnixMilli(msg.InternalDate).UTC().Format(time.RFC1123Z)
	}

	var body string
	if !headersOnly {
		plain, html := findBodies(msg.Payload)
		body = c.builder.BodyText(plain, html)
	}
	return c.builder.Build(msg.Id, env, body, headersOnly)
}

func envelopeFromHeaders(headers []*gmailapi.MessagePartHeader) Envelope {
	var env Envelope
	for _, h := range headers {
		switch {
		case strings.EqualFold(h.Name, headerSubj):
			env.Subject = h.Value
		case strings.EqualFold(h.Name, headerFrom):
			env.From = h.Value
		case strings.EqualFold(h.Name, headerTo):
			env.To = h.Value
		case strings.EqualFold(h.Name, headerDate):
			env.Date = h.Value
		case strings.EqualFold(h.Name, headerXPrio):
			env.XPriority = h.Value
		case strings.EqualFold(h.Name, headerImp):
			env.Importance = h.Value
		}
	}
	return env
}

// findBodies walks the MIME tree and returns the first text/plain and text/html bodies
func findBodies(p *gmailapi.MessagePart) (plain, html string) {
	if p == nil {
		return "", ""
	}

	// Attachments carry a filename and are never used as the body
	if p.Body != nil && p.Body.Data != "" && p.Filename == "" {
		mimeType := strings.ToLower(p.MimeType)
		switch {
		case strings.HasPrefix(mimeType, mimePlain):
			plain = decodeBody(p.Body.Data)
		case strings.HasPrefix(mimeType, mimeHTML):
			html = decodeBody(p.Body.Data)
		}
	}

	for _, part := range p.Parts {
		pp, ph := findBodies(part)
		if plain == "" {
			plain = pp
		}
		if html == "" {
			html = ph
		}
		if plain != "" && html != "" {
			break
		}
	}
	return plain, html
}

// decodeBody decodes Gmail's URL-safe base64 body data; padding is optional
func decodeBody(data string) string {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return strings.ToValidUTF8(string(b), "")
}

// isFatal reports errors that will fail every remaining message in a batch
func isFatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, apperr.ErrAuthenticationRequired) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized
}

// classify maps a provider error onto the error taxonomy
func classify(err error, action string) error {
	if errors.Is(err, apperr.ErrAuthenticationRequired) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: failed to %s: %v", apperr.ErrAuthenticationRequired, action, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: failed to %s: %v", apperr.ErrMessageNotFound, action, err)
		}
	}
	return fmt.Errorf("%w: failed to %s: %v", apperr.ErrRemoteFetch, action, err)
}

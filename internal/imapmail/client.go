// Package imapmail is a mail gateway over Gmail's IMAP and SMTP endpoints,
// authenticated with OAUTHBEARER from the session's OAuth2 credential.
package imapmail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"golang.org/x/oauth2"

	"github.com/mixelka/inboxlens/internal/analytics"
	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/internal/gmail"
	"github.com/mixelka/inboxlens/pkg/models"
)

const (
	inbox          = "INBOX"
	defaultTimeout = 30 * time.Second
)

var priorityHeaders = []string{"X-Priority", "Importance"}

// ClientConfig configuration for the IMAP/SMTP gateway
type ClientConfig struct {
	IMAPServer  string // host:port, implicit TLS
	SMTPServer  string // host:port, STARTTLS when offered
	Timeout     time.Duration
	InsecureTCP bool // plain TCP to both servers, for local test servers
}

// Client is a mail gateway for one account
type Client struct {
	config  ClientConfig
	account string
	tokens  oauth2.TokenSource
	builder *gmail.MessageBuilder
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a new IMAP/SMTP gateway for account
func NewClient(cfg ClientConfig, account string, tokens oauth2.TokenSource, builder *gmail.MessageBuilder, logger *slog.Logger) *Client {
	return &Client{
		config:  cfg,
		account: account,
		tokens:  tokens,
		builder: builder,
		logger:  logger.With("component", "imap", "server", cfg.IMAPServer),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FetchRecent returns up to maxResults of the newest inbox messages, never more than gmail.MaxResults
func (c *Client) FetchRecent(ctx context.Context, maxResults int, sampleOnly bool) ([]models.EmailMessage, error) {
	ic, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer ic.Logout()

	mbox, err := ic.Select(inbox, true)
	if err != nil {
		return nil, remoteErr("select inbox", err)
	}
	if mbox.Messages == 0 {
		return []models.EmailMessage{}, nil
	}

	n := uint32(capLimit(maxResults))
	from := uint32(1)
	if mbox.Messages > n {
		from = mbox.Messages - n + 1
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(from, mbox.Messages)

	return c.fetch(ic, seqSet, false, sampleOnly)
}

// SearchByDomain returns inbox messages sent from domain, with full bodies
func (c *Client) SearchByDomain(ctx context.Context, domain string, limit int) ([]models.EmailMessage, error) {
	d, err := analytics.NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	ic, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer ic.Logout()

	if _, err := ic.Select(inbox, true); err != nil {
		return nil, remoteErr("select inbox", err)
	}

	// Header search is a substring match; lookalikes are dropped before the limit applies
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("From", d)
	uids, err := ic.UidSearch(criteria)
	if err != nil {
		return nil, remoteErr("search", err)
	}
	if len(uids) == 0 {
		return []models.EmailMessage{}, nil
	}

	uids, err = c.senderUIDs(ic, uids, d)
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return []models.EmailMessage{}, nil
	}

	// Newest messages have the highest UIDs
	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })
	if n := capLimit(limit); len(uids) > n {
		uids = uids[:n]
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	return c.fetch(ic, seqSet, true, false)
}

// senderUIDs keeps the UIDs whose envelope sender is domain or one of its subdomains
func (c *Client) senderUIDs(ic *client.Client, uids []uint32, domain string) ([]uint32, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	messages := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- ic.UidFetch(seqSet, []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid}, messages)
	}()

	var matched []uint32
	for msg := range messages {
		if msg.Envelope == nil {
			continue
		}
		if sameDomain(analytics.ExtractDomain(formatAddresses(msg.Envelope.From)), domain) {
			matched = append(matched, msg.Uid)
		}
	}

	if err := <-done; err != nil {
		return nil, remoteErr("fetch envelopes", err)
	}
	return matched, nil
}

func sameDomain(got, want string) bool {
	return got == want || strings.HasSuffix(got, "."+want)
}

// FetchByID returns one message by UID with its full body
func (c *Client) FetchByID(ctx context.Context, id string) (*models.EmailMessage, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil || uid == 0 {
		return nil, fmt.Errorf("%w: invalid message id %q", apperr.ErrInvalidRequest, id)
	}

	ic, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer ic.Logout()

	if _, err := ic.Select(inbox, true); err != nil {
		return nil, remoteErr("select inbox", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))

	emails, err := c.fetch(ic, seqSet, true, false)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("%w: uid %d", apperr.ErrMessageNotFound, uid)
	}
	return &emails[0], nil
}

// SendReply sends a plain-text reply to the sender of original over SMTP
func (c *Client) SendReply(ctx context.Context, original *models.EmailMessage, body string) error {
	to, err := gmail.ReplyRecipient(original)
	if err != nil {
		return err
	}

	raw, err := gmail.ComposeReply(c.account, original, body, c.now())
	if err != nil {
		return err
	}

	auth, err := c.auth(ctx, c.config.SMTPServer)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	sc, err := c.dialSMTP(ctx)
	if err != nil {
		return err
	}
	defer sc.Close()

	if err := sc.Auth(auth); err != nil {
		return fmt.Errorf("%w: SMTP authentication rejected: %v", apperr.ErrAuthenticationRequired, err)
	}
	if err := sc.SendMail(c.account, []string{to.Address}, bytes.NewReader(raw)); err != nil {
		return remoteErr("send reply", err)
	}
	if err := sc.Quit(); err != nil {
		c.logger.Debug("smtp quit failed", "error", err)
	}

	c.logger.Info("reply sent", "domain", original.Domain)
	return nil
}

// dialSMTP connects to the submission server, upgrades with STARTTLS and greets it.
// The connection is closed when ctx ends.
func (c *Client) dialSMTP(ctx context.Context) (*smtp.Client, error) {
	timeout := c.timeout()

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.config.SMTPServer)
	if err != nil {
		return nil, remoteErr("connect to SMTP server", err)
	}
	context.AfterFunc(ctx, func() { _ = conn.Close() })

	var sc *smtp.Client
	if c.config.InsecureTCP {
		sc = smtp.NewClient(conn)
	} else {
		host, _, _ := net.SplitHostPort(c.config.SMTPServer)
		sc, err = smtp.NewClientStartTLS(conn, &tls.Config{ServerName: host})
		if err != nil {
			conn.Close()
			return nil, remoteErr("start TLS", err)
		}
	}
	sc.CommandTimeout = timeout
	sc.SubmissionTimeout = timeout

	if err := sc.Hello("localhost"); err != nil {
		sc.Close()
		return nil, remoteErr("greet SMTP server", err)
	}
	return sc, nil
}

// Profile returns the account the gateway is bound to
func (c *Client) Profile(ctx context.Context) (*models.UserProfile, error) {
	ic, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer ic.Logout()

	status, err := ic.Status(inbox, []imap.StatusItem{imap.StatusMessages})
	if err != nil {
		return nil, remoteErr("status", err)
	}

	return &models.UserProfile{
		Email:         c.account,
		MessagesTotal: int64(status.Messages),
	}, nil
}

// connect dials the IMAP server and authenticates
func (c *Client) connect(ctx context.Context) (*client.Client, error) {
	auth, err := c.auth(ctx, c.config.IMAPServer)
	if err != nil {
		return nil, err
	}

	timeout := c.timeout()

	dialer := &net.Dialer{Timeout: timeout}
	var conn net.Conn
	if c.config.InsecureTCP {
		conn, err = dialer.DialContext(ctx, "tcp", c.config.IMAPServer)
	} else {
		conn, err = tls.DialWithDialer(dialer, "tcp", c.config.IMAPServer, nil)
	}
	if err != nil {
		return nil, remoteErr("connect", err)
	}

	ic, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, remoteErr("create IMAP client", err)
	}
	ic.Timeout = timeout
	ic.ErrorLog = c.errorLog()

	if err := ic.Authenticate(auth); err != nil {
		ic.Logout()
		return nil, fmt.Errorf("%w: IMAP authentication rejected: %v", apperr.ErrAuthenticationRequired, err)
	}

	return ic, nil
}

func (c *Client) timeout() time.Duration {
	if c.config.Timeout <= 0 {
		return defaultTimeout
	}
	return c.config.Timeout
}

// errorLog routes go-imap's background read errors into the component logger.
// They are mostly timeouts on connections already logged out.
func (c *Client) errorLog() *log.Logger {
	return slog.NewLogLogger(c.logger.Handler(), slog.LevelDebug)
}

// auth builds an OAUTHBEARER client for server from a fresh access token
func (c *Client) auth(_ context.Context, server string) (sasl.Client, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		if errors.Is(err, apperr.ErrAuthenticationRequired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrAuthenticationRequired, err)
	}

	host, portStr, err := net.SplitHostPort(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", server, err)
	}
	port, _ := strconv.Atoi(portStr)

	return sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
		Username: c.account,
		Token:    tok.AccessToken,
		Host:     host,
		Port:     port,
	}), nil
}

// fetch retrieves messages newest first. Messages that fail to parse are skipped.
func (c *Client) fetch(ic *client.Client, seqSet *imap.SeqSet, byUID, headersOnly bool) ([]models.EmailMessage, error) {
	section := &imap.BodySectionName{Peek: true}
	if headersOnly {
		section.BodyPartName = imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields:    priorityHeaders,
		}
	}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		if byUID {
			done <- ic.UidFetch(seqSet, items, messages)
		} else {
			done <- ic.Fetch(seqSet, items, messages)
		}
	}()

	var emails []models.EmailMessage
	var uids []uint32
	for msg := range messages {
		email, err := c.parseMessage(msg, section, headersOnly)
		if err != nil {
			c.logger.Warn("failed to parse message", "uid", msg.Uid, "error", err)
			continue
		}
		emails = append(emails, email)
		uids = append(uids, msg.Uid)
	}

	if err := <-done; err != nil {
		return nil, remoteErr("fetch", err)
	}

	idx := make([]int, len(emails))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return uids[idx[a]] > uids[idx[b]] })

	sorted := make([]models.EmailMessage, len(emails))
	for i, j := range idx {
		sorted[i] = emails[j]
	}
	return sorted, nil
}

// parseMessage parses an IMAP message into an EmailMessage
func (c *Client) parseMessage(msg *imap.Message, section *imap.BodySectionName, headersOnly bool) (models.EmailMessage, error) {
	if msg.Envelope == nil {
		return models.EmailMessage{}, errors.New("message has no envelope")
	}

	env := gmail.Envelope{
		Subject: msg.Envelope.Subject,
		To:      formatAddresses(msg.Envelope.To),
		From:    formatAddresses(msg.Envelope.From),
	}
	if !msg.Envelope.Date.IsZero() {
		env.Date = msg.Envelope.Date.Format(time.RFC1123Z)
	}

	var plain, html string
	if literal := msg.GetBody(section); literal != nil {
		mr, err := mail.CreateReader(literal)
		if err != nil {
			return models.EmailMessage{}, fmt.Errorf("failed to create mail reader: %w", err)
		}
		env.XPriority = mr.Header.Get("X-Priority")
		env.Importance = mr.Header.Get("Importance")

		if !headersOnly {
			plain, html = readBodies(mr)
		}
	}

	id := strconv.FormatUint(uint64(msg.Uid), 10)
	return c.builder.Build(id, env, c.builder.BodyText(plain, html), headersOnly), nil
}

// readBodies returns the first inline text/plain and text/html parts
func readBodies(mr *mail.Reader) (plain, html string) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF or a malformed part; keep what was read
			return plain, html
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(ct, "text/plain") && plain == "":
			plain = string(body)
		case strings.HasPrefix(ct, "text/html") && html == "":
			html = string(body)
		}
	}
}

func formatAddresses(addrs []*imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil || a.MailboxName == "" {
			continue
		}
		addr := &mail.Address{Name: a.PersonalName, Address: a.Address()}
		parts = append(parts, addr.String())
	}
	return strings.Join(parts, ", ")
}

func capLimit(n int) int {
	if n <= 0 || n > gmail.MaxResults {
		return gmail.MaxResults
	}
	return n
}

func remoteErr(action string, err error) error {
	return fmt.Errorf("%w: failed to %s: %v", apperr.ErrRemoteFetch, action, err)
}

package mailbox

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/mixelka/inboxlens/internal/gmail"
	"github.com/mixelka/inboxlens/internal/imapmail"
	"github.com/mixelka/inboxlens/pkg/models"
)

// Gateway is a per-request view of one account's mailbox
type Gateway interface {
	FetchRecent(ctx context.Context, maxResults int, sampleOnly bool) ([]models.EmailMessage, error)
	SearchByDomain(ctx context.Context, domain string, limit int) ([]models.EmailMessage, error)
	FetchByID(ctx context.Context, id string) (*models.EmailMessage, error)
	SendReply(ctx context.Context, original *models.EmailMessage, body string) error
	Profile(ctx context.Context) (*models.UserProfile, error)
}

var (
	_ Gateway = (*gmail.Client)(nil)
	_ Gateway = (*imapmail.Client)(nil)
)

// GatewayFactory builds a gateway from a session's token source.
// account is the session's bound address and may be empty before the first profile lookup.
type GatewayFactory interface {
	Gateway(ctx context.Context, account string, ts oauth2.TokenSource) (Gateway, error)
}

// APIGateways builds gateways over the Gmail REST API
type APIGateways struct {
	Config  gmail.ClientConfig
	Builder *gmail.MessageBuilder
	Logger  *slog.Logger
}

// Gateway implements GatewayFactory
func (f *APIGateways) Gateway(ctx context.Context, _ string, ts oauth2.TokenSource) (Gateway, error) {
	return gmail.NewClient(ctx, ts, f.Config, f.Builder, f.Logger)
}

// IMAPGateways builds gateways over IMAP and SMTP. An account address is
// required to authenticate; when the session has none it is looked up via Accounts.
type IMAPGateways struct {
	Config   imapmail.ClientConfig
	Builder  *gmail.MessageBuilder
	Logger   *slog.Logger
	Accounts GatewayFactory
}

// Gateway implements GatewayFactory
func (f *IMAPGateways) Gateway(ctx context.Context, account string, ts oauth2.TokenSource) (Gateway, error) {
	if account == "" {
		if f.Accounts == nil {
			return nil, errors.New("account address unknown and no lookup configured")
		}
		gw, err := f.Accounts.Gateway(ctx, "", ts)
		if err != nil {
			return nil, err
		}
		profile, err := gw.Profile(ctx)
		if err != nil {
			return nil, err
		}
		account = profile.Email
	}

	return imapmail.NewClient(f.Config, account, ts, f.Builder, f.Logger), nil
}

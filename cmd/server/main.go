package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/mixelka/inboxlens/internal/ai"
	"github.com/mixelka/inboxlens/internal/analytics"
	"github.com/mixelka/inboxlens/internal/api"
	"github.com/mixelka/inboxlens/internal/config"
	"github.com/mixelka/inboxlens/internal/credential"
	"github.com/mixelka/inboxlens/internal/database"
	"github.com/mixelka/inboxlens/internal/gmail"
	"github.com/mixelka/inboxlens/internal/imapmail"
	"github.com/mixelka/inboxlens/internal/mailbox"
	"github.com/mixelka/inboxlens/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting inboxlens", "version", api.Version, "transport", cfg.MailTransport)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codec, err := credential.NewCodec(cfg.EncryptionKey)
	if err != nil {
		logger.Error("failed to create credential codec", "error", err)
		os.Exit(1)
	}
	if !codec.Sealed() {
		logger.Warn("ENCRYPTION_KEY not set, credentials are stored unencrypted")
	}

	// Storage
	backend, store, closeStorage, err := openStorage(ctx, cfg, codec)
	if err != nil {
		logger.Error("failed to open storage", "backend", cfg.SessionBackend, "error", err)
		os.Exit(1)
	}
	defer closeStorage()
	logger.Info("storage ready", "backend", cfg.SessionBackend)

	// Create components
	auth := gmail.NewAuthenticator(cfg.GmailClientID, cfg.GmailClientSecret, cfg.GmailRedirectURI, cfg.GmailScopes)
	creds := credential.NewCache(store, auth.Config(), logger)
	sessions := session.NewManager(backend, creds, cfg.SessionTTL, logger)

	if cfg.SessionFlushOnStart {
		if err := sessions.Flush(ctx); err != nil {
			logger.Error("failed to flush sessions", "error", err)
			os.Exit(1)
		}
	}

	builder := gmail.NewMessageBuilder(cfg.MaxEmailLength)
	svc := mailbox.NewService(
		sessions,
		creds,
		auth,
		newGateways(cfg, builder, logger),
		analytics.NewEngine(analytics.DefaultWeights()),
		cfg.AnalyticsSampleSize,
		logger,
	)

	// AI is optional; its endpoints answer 503 without a provider
	aiService, err := newAIService(cfg, logger)
	if err != nil {
		logger.Error("ai provider unavailable", "error", err)
	}

	server := api.NewServer(api.Deps{
		Sessions:       sessions,
		Mailbox:        svc,
		AI:             aiService,
		FrontendURL:    cfg.FrontendURL,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookie:   strings.HasPrefix(cfg.FrontendURL, "https://"),
		Logger:         logger,
	})

	go cleanupLoop(ctx, sessions, cfg.SessionCleanupInterval, logger)

	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// openStorage returns the session backend and credential store selected by SESSION_BACKEND
func openStorage(ctx context.Context, cfg *config.Config, codec *credential.Codec) (session.Backend, credential.Store, func() error, error) {
	if cfg.SessionBackend == config.BackendSQLite {
		db, err := database.New(cfg.SQLitePath())
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return db.Sessions(), db.Credentials(codec), db.Close, nil
	}

	backend, err := session.NewFileBackend(cfg.SessionsDir())
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := credential.NewFileStore(cfg.CredentialsDir(), codec)
	if err != nil {
		return nil, nil, nil, err
	}
	return backend, store, func() error { return nil }, nil
}

func newGateways(cfg *config.Config, builder *gmail.MessageBuilder, logger *slog.Logger) mailbox.GatewayFactory {
	rest := &mailbox.APIGateways{
		Config:  gmail.ClientConfig{Timeout: cfg.GmailRequestTimeout},
		Builder: builder,
		Logger:  logger,
	}
	if cfg.MailTransport != config.TransportIMAP {
		return rest
	}

	return &mailbox.IMAPGateways{
		Config: imapmail.ClientConfig{
			IMAPServer: cfg.IMAPServer,
			SMTPServer: cfg.SMTPServer,
			Timeout:    cfg.GmailRequestTimeout,
		},
		Builder:  builder,
		Logger:   logger,
		Accounts: rest,
	}
}

func newAIService(cfg *config.Config, logger *slog.Logger) (*ai.Service, error) {
	prompts, err := ai.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}

	provider, err := ai.NewOpenAIProvider(cfg.AIAPIKey, cfg.AIBaseURL)
	if err != nil {
		return nil, err
	}

	svc := ai.NewService(prompts, provider, cfg.AIModel, logger)
	info := svc.Info()
	logger.Info("ai provider ready", "provider", info.Provider, "model", info.Model, "prompts", info.PromptVersions)
	return svc, nil
}

func cleanupLoop(ctx context.Context, sessions *session.Manager, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.CleanupExpired(ctx); n > 0 {
				logger.Debug("session cleanup finished", "removed", n)
			}
		}
	}
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

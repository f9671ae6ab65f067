package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Mail transports
const (
	TransportAPI  = "api"
	TransportIMAP = "imap"
)

// Config application configuration
type Config struct {
	// HTTP
	HTTPAddr       string   `env:"HTTP_ADDR" envDefault:":8000"`
	FrontendURL    string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`

	// Storage
	DataDir        string `env:"DATA_DIR" envDefault:"./data"`
	SessionBackend string `env:"SESSION_BACKEND" envDefault:"file"` // "file" or "sqlite"
	DatabasePath   string `env:"DATABASE_PATH"`                     // defaults to DATA_DIR/inboxlens.db

	// Sessions
	SessionTTL             time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`
	SessionFlushOnStart    bool          `env:"SESSION_FLUSH_ON_START" envDefault:"true"`

	// Security
	EncryptionKey string `env:"ENCRYPTION_KEY"` // optional, 32 bytes for AES-256

	// Gmail OAuth2
	GmailClientID       string        `env:"GMAIL_CLIENT_ID,required,notEmpty"`
	GmailClientSecret   string        `env:"GMAIL_CLIENT_SECRET,required,notEmpty"`
	GmailRedirectURI    string        `env:"GMAIL_REDIRECT_URI" envDefault:"http://localhost:8000/auth/gmail/callback"`
	GmailScopes         []string      `env:"GMAIL_SCOPES" envSeparator:"," envDefault:"https://www.googleapis.com/auth/gmail.readonly,https://www.googleapis.com/auth/gmail.send,https://www.googleapis.com/auth/gmail.compose"`
	GmailRequestTimeout time.Duration `env:"GMAIL_REQUEST_TIMEOUT" envDefault:"30s"`

	// Mail transport
	MailTransport string `env:"MAIL_TRANSPORT" envDefault:"api"` // "api" or "imap"
	IMAPServer    string `env:"IMAP_SERVER" envDefault:"imap.gmail.com:993"`
	SMTPServer    string `env:"SMTP_SERVER" envDefault:"smtp.gmail.com:587"`

	// Processing
	MaxEmailLength      int `env:"MAX_EMAIL_LENGTH" envDefault:"10000"`
	AnalyticsSampleSize int `env:"ANALYTICS_SAMPLE_SIZE" envDefault:"50"`

	// AI
	AIAPIKey    string `env:"AI_API_KEY,required,notEmpty"`
	AIBaseURL   string `env:"AI_BASE_URL"`
	AIModel     string `env:"AI_MODEL"` // overrides the model from the prompts file
	PromptsFile string `env:"PROMPTS_FILE"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// SessionsDir returns the directory holding session files
func (c *Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// CredentialsDir returns the directory holding credential files
func (c *Config) CredentialsDir() string {
	return filepath.Join(c.DataDir, "credentials")
}

// SQLitePath returns the database path for the sqlite backend
func (c *Config) SQLitePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDir, "inboxlens.db")
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the env tags cannot express
func (c *Config) Validate() error {
	// Validate encryption key length (32 bytes for AES-256)
	if c.EncryptionKey != "" && len(c.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes, got %d", len(c.EncryptionKey))
	}

	switch c.SessionBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", BackendFile, BackendSQLite, c.SessionBackend)
	}

	switch c.MailTransport {
	case TransportAPI, TransportIMAP:
	default:
		return fmt.Errorf("MAIL_TRANSPORT must be %q or %q, got %q", TransportAPI, TransportIMAP, c.MailTransport)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.AnalyticsSampleSize <= 0 {
		return fmt.Errorf("ANALYTICS_SAMPLE_SIZE must be positive")
	}

	return nil
}

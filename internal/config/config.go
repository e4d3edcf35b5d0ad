package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"event-invite/internal/notify"
	"event-invite/internal/whatsapp"
)

// Config holds the application configuration
type Config struct {
	Port          int    `env:"PORT" envDefault:"3000" validate:"min=1,max=65535"`
	AdminPassword string `env:"ADMIN_PASSWORD" validate:"required"`
	DataDir       string `env:"DATA_DIR" envDefault:"data" validate:"required"`
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"json" validate:"oneof=json sqlite"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`

	RSVPRatePerMinute int `env:"RSVP_RATE_PER_MINUTE" envDefault:"20" validate:"min=1"`
	RSVPRateBurst     int `env:"RSVP_RATE_BURST" envDefault:"5" validate:"min=1"`

	NotifyTimeout   time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	SheetsID          string `env:"GOOGLE_SHEETS_ID"`
	SheetsRange       string `env:"GOOGLE_SHEETS_RANGE" envDefault:"RSVPs!A:G"`
	SheetsClientEmail string `env:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	SheetsPrivateKey  string `env:"GOOGLE_PRIVATE_KEY"`

	ResendAPIKey string   `env:"RESEND_API_KEY"`
	EmailFrom    string   `env:"NOTIFY_EMAIL_FROM" envDefault:"rsvp@example.com"`
	EmailTo      []string `env:"NOTIFY_EMAIL_TO" envSeparator:","`

	WhatsAppNotifyTo    []string `env:"WHATSAPP_NOTIFY_TO" envSeparator:","`
	WhatsAppDataDir     string   `env:"WHATSAPP_DATA_DIR" envDefault:"data/whatsapp"`
	WhatsAppCountryCode string   `env:"WHATSAPP_COUNTRY_CODE"`
}

// LoadConfig reads the given .env files (".env" when none are named) into
// the process environment, then parses and validates the environment.
// Missing files are skipped and variables already set are never overridden.
func LoadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.EmailTo = compact(cfg.EmailTo)
	cfg.WhatsAppNotifyTo = compact(cfg.WhatsAppNotifyTo)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SQLitePath is the database file used by the sqlite store driver.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "event.db")
}

func (c *Config) Sheets() notify.SheetsConfig {
	return notify.SheetsConfig{
		SpreadsheetID: c.SheetsID,
		Range:         c.SheetsRange,
		ClientEmail:   c.SheetsClientEmail,
		PrivateKey:    c.SheetsPrivateKey,
	}
}

func (c *Config) Email() notify.EmailConfig {
	return notify.EmailConfig{
		APIKey: c.ResendAPIKey,
		From:   c.EmailFrom,
		To:     c.EmailTo,
	}
}

func (c *Config) WhatsApp() *whatsapp.Config {
	return &whatsapp.Config{
		DataDir:     c.WhatsAppDataDir,
		CountryCode: c.WhatsAppCountryCode,
	}
}

// WhatsAppEnabled reports whether any organizer number is configured.
func (c *Config) WhatsAppEnabled() bool {
	return len(c.WhatsAppNotifyTo) > 0
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

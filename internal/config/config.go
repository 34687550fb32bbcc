// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is missing or invalid.
const (
	DefaultStorageTimeout       = 10 * time.Second
	DefaultReminderHour         = 9
	DefaultReminderMinute       = 20
	DefaultReminderTimezone     = "Europe/Berlin"
	DefaultReminderWindowDays   = 14
	DefaultRenewalCheckInterval = 6 * time.Hour
	DefaultServiceName          = "contract-bot"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	LogLevel         string
	LogFormat        string

	// WhitelistedUserIDs are added to the users allow-list at startup.
	WhitelistedUserIDs []int64

	// Seed* rows are added to the lookup tables at startup if missing.
	SeedBeneficiaries []string
	SeedContractors   []string
	SeedBankAccounts  []string

	StorageTimeout time.Duration

	ReminderHour       int
	ReminderMinute     int
	ReminderTimezone   string
	ReminderWindowDays int
	ReminderOwnerOnly  bool

	RenewalCatchUp       bool
	RenewalLoopEnabled   bool
	RenewalCheckInterval time.Duration

	OTelExporter string
	ServiceName  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
		OTelExporter:     strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER"))),
		ServiceName:      DefaultServiceName,
	}

	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		cfg.ServiceName = name
	}

	cfg.StorageTimeout = parseDuration(os.Getenv("STORAGE_TIMEOUT"), DefaultStorageTimeout)

	cfg.ReminderHour = parseIntInRange(os.Getenv("REMINDER_HOUR"), DefaultReminderHour, 0, 23)
	cfg.ReminderMinute = parseIntInRange(os.Getenv("REMINDER_MINUTE"), DefaultReminderMinute, 0, 59)
	cfg.ReminderWindowDays = parseIntInRange(os.Getenv("REMINDER_WINDOW_DAYS"), DefaultReminderWindowDays, 1, 366)
	cfg.ReminderTimezone = DefaultReminderTimezone
	if tz := os.Getenv("REMINDER_TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.ReminderTimezone = tz
		}
	}
	cfg.ReminderOwnerOnly = os.Getenv("REMINDER_OWNER_ONLY") == "true"

	cfg.RenewalCatchUp = os.Getenv("RENEWAL_CATCH_UP") == "true"
	cfg.RenewalLoopEnabled = os.Getenv("RENEWAL_LOOP_ENABLED") == "true"
	cfg.RenewalCheckInterval = parseDuration(os.Getenv("RENEWAL_CHECK_INTERVAL"), DefaultRenewalCheckInterval)

	whitelistStr := os.Getenv("WHITELISTED_USER_IDS")
	if whitelistStr != "" {
		for idStr := range strings.SplitSeq(whitelistStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
		}
	}

	cfg.SeedBeneficiaries = parseList(os.Getenv("SEED_BENEFICIARIES"))
	cfg.SeedContractors = parseList(os.Getenv("SEED_CONTRACTORS"))
	cfg.SeedBankAccounts = parseList(os.Getenv("SEED_BANK_ACCOUNTS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks the configuration every mode needs.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	switch c.OTelExporter {
	case "", "none", "stdout", "otlp-grpc", "otlp-http":
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q is not one of none, stdout, otlp-grpc, otlp-http", c.OTelExporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// RequireBot checks the settings only the Telegram mode needs.
func (c *Config) RequireBot() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("configuration validation failed:\n  - TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// Location returns the reminder timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseIntInRange(s string, def, lo, hi int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < lo || v > hi {
		return def
	}
	return v
}

func parseList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

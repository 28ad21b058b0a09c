// Package config loads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

// Mail providers understood by MAIL_PROVIDER.
const (
	MailProviderLog  = "log"
	MailProviderSMTP = "smtp"
	MailProviderSES  = "ses"
)

// Config holds all configuration for the service.
type Config struct {
	Port        int    `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBLogSQL    bool   `mapstructure:"DB_LOG_SQL"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Timezone    string `mapstructure:"TIMEZONE"`

	ReminderSchedule string `mapstructure:"REMINDER_SCHEDULE"`
	OverdueSchedule  string `mapstructure:"OVERDUE_SCHEDULE"`
	CleanupSchedule  string `mapstructure:"CLEANUP_SCHEDULE"`

	LookaheadDays    int           `mapstructure:"LOOKAHEAD_DAYS"`
	BatchSize        int           `mapstructure:"BATCH_SIZE"`
	BatchDelay       time.Duration `mapstructure:"BATCH_DELAY"`
	SendTimeout      time.Duration `mapstructure:"SEND_TIMEOUT"`
	PassTimeout      time.Duration `mapstructure:"PASS_TIMEOUT"`
	LogRetentionDays int           `mapstructure:"LOG_RETENTION_DAYS"`

	MailProvider string `mapstructure:"MAIL_PROVIDER"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	MailFromName string `mapstructure:"MAIL_FROM_NAME"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SESRegion    string `mapstructure:"SES_REGION"`
	SESAccessKey string `mapstructure:"SES_ACCESS_KEY"`
	SESSecretKey string `mapstructure:"SES_SECRET_KEY"`
	DashboardURL string `mapstructure:"DASHBOARD_URL"`

	RedisURL string `mapstructure:"REDIS_URL"`

	LineChannelSecret      string `mapstructure:"LINE_CHANNEL_SECRET"`
	LineChannelAccessToken string `mapstructure:"LINE_CHANNEL_ACCESS_TOKEN"`
	AdminLineUserID        string `mapstructure:"ADMIN_LINE_USER_ID"`
}

var keys = []string{
	"PORT", "DATABASE_URL", "DB_LOG_SQL", "LOG_LEVEL", "TIMEZONE",
	"REMINDER_SCHEDULE", "OVERDUE_SCHEDULE", "CLEANUP_SCHEDULE",
	"LOOKAHEAD_DAYS", "BATCH_SIZE", "BATCH_DELAY", "SEND_TIMEOUT", "PASS_TIMEOUT", "LOG_RETENTION_DAYS",
	"MAIL_PROVIDER", "MAIL_FROM", "MAIL_FROM_NAME",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
	"SES_REGION", "SES_ACCESS_KEY", "SES_SECRET_KEY",
	"DASHBOARD_URL", "REDIS_URL",
	"LINE_CHANNEL_SECRET", "LINE_CHANNEL_ACCESS_TOKEN", "ADMIN_LINE_USER_ID",
}

// LoadConfig reads configuration from environment variables and validates it.
func LoadConfig() (*Config, error) {
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DATABASE_URL", "subscriptions.db")
	viper.SetDefault("DB_LOG_SQL", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("TIMEZONE", "America/New_York")
	viper.SetDefault("REMINDER_SCHEDULE", "0 0 9 * * *") // Daily at 09:00.
	viper.SetDefault("OVERDUE_SCHEDULE", "0 0 10 * * *") // Daily at 10:00.
	viper.SetDefault("CLEANUP_SCHEDULE", "0 0 2 * * 0")  // Sundays at 02:00.
	viper.SetDefault("LOOKAHEAD_DAYS", 30)
	viper.SetDefault("BATCH_SIZE", 10)
	viper.SetDefault("BATCH_DELAY", "2s")
	viper.SetDefault("SEND_TIMEOUT", "30s")
	viper.SetDefault("PASS_TIMEOUT", "30m")
	viper.SetDefault("LOG_RETENTION_DAYS", 90)
	viper.SetDefault("MAIL_PROVIDER", MailProviderLog)
	viper.SetDefault("MAIL_FROM_NAME", "Subscription Tracker")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SES_REGION", "us-east-1")
	viper.SetDefault("DASHBOARD_URL", "http://localhost:8080/dashboard")
	viper.AutomaticEnv()

	// Bind explicitly so keys without defaults still appear in Unmarshal.
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.MailProvider = strings.ToLower(strings.TrimSpace(cfg.MailProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid or missing setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Port <= 0 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.DatabaseURL == "" {
		result = multierror.Append(result, errors.New("DATABASE_URL is required"))
	}
	if _, err := c.Location(); err != nil {
		result = multierror.Append(result, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}
	for name, spec := range map[string]string{
		"REMINDER_SCHEDULE": c.ReminderSchedule,
		"OVERDUE_SCHEDULE":  c.OverdueSchedule,
		"CLEANUP_SCHEDULE":  c.CleanupSchedule,
	} {
		if strings.TrimSpace(spec) == "" {
			result = multierror.Append(result, fmt.Errorf("%s must not be empty", name))
		}
	}
	if c.LookaheadDays < 0 {
		result = multierror.Append(result, fmt.Errorf("LOOKAHEAD_DAYS must be >= 0, got %d", c.LookaheadDays))
	}
	if c.BatchSize < 1 {
		result = multierror.Append(result, fmt.Errorf("BATCH_SIZE must be >= 1, got %d", c.BatchSize))
	}
	if c.BatchDelay < 0 {
		result = multierror.Append(result, errors.New("BATCH_DELAY must not be negative"))
	}
	if c.SendTimeout <= 0 {
		result = multierror.Append(result, errors.New("SEND_TIMEOUT must be positive"))
	}
	if c.PassTimeout <= 0 {
		result = multierror.Append(result, errors.New("PASS_TIMEOUT must be positive"))
	}
	if c.LogRetentionDays < 1 {
		result = multierror.Append(result, fmt.Errorf("LOG_RETENTION_DAYS must be >= 1, got %d", c.LogRetentionDays))
	}

	switch c.MailProvider {
	case MailProviderLog:
	case MailProviderSMTP:
		if c.MailFrom == "" {
			result = multierror.Append(result, errors.New("MAIL_FROM is required for smtp"))
		}
		if c.SMTPHost == "" {
			result = multierror.Append(result, errors.New("SMTP_HOST is required for smtp"))
		}
	case MailProviderSES:
		if c.MailFrom == "" {
			result = multierror.Append(result, errors.New("MAIL_FROM is required for ses"))
		}
		if c.SESRegion == "" {
			result = multierror.Append(result, errors.New("SES_REGION is required for ses"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("MAIL_PROVIDER must be one of log, smtp, ses; got %q", c.MailProvider))
	}

	if c.AdminLineUserID != "" && (c.LineChannelSecret == "" || c.LineChannelAccessToken == "") {
		result = multierror.Append(result, errors.New("LINE_CHANNEL_SECRET and LINE_CHANNEL_ACCESS_TOKEN are required when ADMIN_LINE_USER_ID is set"))
	}

	return result.ErrorOrNil()
}

// Location resolves TIMEZONE. Calendar days, "today" and the cron triggers are
// all evaluated in this location.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// LineAlertsEnabled reports whether operator alerts should go to LINE.
func (c *Config) LineAlertsEnabled() bool {
	return c.AdminLineUserID != "" && c.LineChannelSecret != "" && c.LineChannelAccessToken != ""
}

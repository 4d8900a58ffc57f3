package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the outreach service.
// Environment variables are parsed from the CALLTIDE_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// PublicBaseURL is the externally reachable base URL used to build the
	// TwiML response and status callback URLs handed to the telephony provider.
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	// Storage. DBDriver "auto" picks postgres when a DSN is present,
	// sqlite otherwise.
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/outreach.db"`

	// Audit dialer gate
	BusinessTimezone    string `envconfig:"BUSINESS_TIMEZONE" default:"America/Chicago"`
	CallWindowStartHour int    `envconfig:"CALL_WINDOW_START_HOUR" default:"9"`
	CallWindowEndHour   int    `envconfig:"CALL_WINDOW_END_HOUR" default:"17"`
	DailyCallCap        int    `envconfig:"DAILY_CALL_CAP" default:"50"`
	RingTimeoutSeconds  int    `envconfig:"RING_TIMEOUT_SECONDS" default:"20"`

	// Outreach sweep worker
	SweepIntervalSeconds int `envconfig:"SWEEP_INTERVAL_SECONDS" default:"3600"`
	SweepBatchSize       int `envconfig:"SWEEP_BATCH_SIZE" default:"500"`

	// Telephony provider (Twilio)
	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID" default:""`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN" default:""`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER" default:""`

	// Email provider (Resend)
	ResendAPIKey string `envconfig:"RESEND_API_KEY" default:""`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"Calltide <hello@calltide.test>"`

	// Health checking
	HealthCheckIntervalSeconds int `envconfig:"HEALTH_CHECK_INTERVAL_SECONDS" default:"10"`
	HealthProbeTimeoutSeconds  int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	HealthWaitSeconds          int `envconfig:"HEALTH_WAIT_SECONDS" default:"30"`
}

// ResolveDefaults derives DBDriver when set to "auto" or empty and validates
// the call window.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true, "memory": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER is postgres but POSTGRES_DSN is empty")
	}
	if c.CallWindowStartHour < 0 || c.CallWindowEndHour > 24 || c.CallWindowStartHour >= c.CallWindowEndHour {
		return fmt.Errorf("invalid call window: start=%d end=%d", c.CallWindowStartHour, c.CallWindowEndHour)
	}
	if c.DailyCallCap <= 0 {
		return fmt.Errorf("DAILY_CALL_CAP must be positive, got %d", c.DailyCallCap)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with CALLTIDE_
// Example: CALLTIDE_HTTP_PORT, CALLTIDE_POSTGRES_DSN
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CALLTIDE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("timezone", cfg.BusinessTimezone).
		Int("call_window_start", cfg.CallWindowStartHour).
		Int("call_window_end", cfg.CallWindowEndHour).
		Int("daily_call_cap", cfg.DailyCallCap).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Bool("twilio_configured", cfg.TwilioAccountSID != "").
		Bool("resend_configured", cfg.ResendAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:          EnvTesting,
		HTTPPort:             8080,
		PublicBaseURL:        "http://localhost:8080",
		DBDriver:             "memory",
		BusinessTimezone:     "America/Chicago",
		CallWindowStartHour:  9,
		CallWindowEndHour:    17,
		DailyCallCap:         50,
		RingTimeoutSeconds:   20,
		SweepIntervalSeconds: 3600,
		SweepBatchSize:       500,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

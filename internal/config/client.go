package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/spf13/pflag"
)

const DefaultBaseURL = "https://api.profitshare.ro"

// ClientFlags configures the signed ProfitShare client.
type ClientFlags struct {
	APIUser     string        `env:"PS_API_USER"`
	APIKey      string        `env:"PS_API_KEY"`
	BaseURL     string        `env:"PS_BASE_URL"`
	Timeout     time.Duration `env:"PS_TIMEOUT"`
	LogLevel    string        `env:"LOGLEVEL"`
	RateLimit   int           `env:"RATE_LIMIT"`
	MaxRetries  int           `env:"MAX_RETRIES"`
	RetryDelays []string      `env:"RETRY_DELAYS" envSeparator:","`
	AuditFile   string        `env:"AUDIT_FILE"`
	AuditURL    string        `env:"AUDIT_URL"`
}

func setDefaultClientFlags(cfg *ClientFlags) {
	cfg.BaseURL = DefaultBaseURL
	cfg.Timeout = 20 * time.Second
	cfg.LogLevel = "info"
	cfg.MaxRetries = 3
	cfg.RetryDelays = []string{"1s", "3s", "5s"}
}

// RegisterClientFlags binds the upstream client options to flags.
func RegisterClientFlags(flags *pflag.FlagSet, cfg *ClientFlags) {
	flags.StringVarP(&cfg.APIUser, "api-user", "u", cfg.APIUser, "ProfitShare API user")
	flags.StringVarP(&cfg.APIKey, "api-key", "k", cfg.APIKey, "ProfitShare API key")
	flags.StringVarP(&cfg.BaseURL, "base-url", "b", cfg.BaseURL, "ProfitShare API base URL")
	flags.DurationVarP(&cfg.Timeout, "timeout", "t", cfg.Timeout, "Upstream request timeout")
	flags.StringVarP(&cfg.LogLevel, "loglevel", "g", cfg.LogLevel, "Logger level")
	flags.IntVarP(&cfg.RateLimit, "ratelimit", "l", cfg.RateLimit, "Max concurrent upstream requests, 0 = unlimited")
	flags.IntVarP(&cfg.MaxRetries, "max-retries", "m", cfg.MaxRetries, "Maximum number of retry attempts")
	flags.StringSliceVarP(&cfg.RetryDelays, "retry-delays", "s", cfg.RetryDelays, "Retry delays between attempts")
	flags.StringVar(&cfg.AuditFile, "audit-file", cfg.AuditFile, "Append signed request audit events to this file")
	flags.StringVar(&cfg.AuditURL, "audit-url", cfg.AuditURL, "POST signed request audit events to this URL")
}

// NewClientFlagSet returns a flag set preloaded with defaults and the
// client options. Callers may add their own flags before parsing.
func NewClientFlagSet(name string, cfg *ClientFlags) *pflag.FlagSet {
	setDefaultClientFlags(cfg)
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	RegisterClientFlags(flags, cfg)
	return flags
}

// ParseClientConfig reads defaults, then flags from args, then env.
func ParseClientConfig(args []string) (*ClientFlags, error) {
	var cfg ClientFlags

	flags := NewClientFlagSet("psclient", &cfg)
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides cfg fields from the environment.
func ApplyEnv(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks that credentials are present.
func (c *ClientFlags) Validate() error {
	if c.APIUser == "" {
		return fmt.Errorf("%w: api user", ErrMissingCredentials)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: api key", ErrMissingCredentials)
	}
	return nil
}

func (c *ClientFlags) GetRetryDelaysAsDuration() ([]time.Duration, error) {
	delays := make([]time.Duration, len(c.RetryDelays))
	for i, delayStr := range c.RetryDelays {
		delay, err := time.ParseDuration(delayStr)
		if err != nil {
			return nil, fmt.Errorf("invalid duration format '%s': %w", delayStr, err)
		}
		delays[i] = delay
	}
	return delays, nil
}

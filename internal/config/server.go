package config

import (
	"fmt"
	"time"

	"github.com/shopmindai/profitshare/internal/signer"
)

type ServerFlags struct {
	ServerAddr    string        `env:"ADDRESS"`
	DatabaseDSN   string        `env:"DATABASE_DSN"`
	RedisURL      string        `env:"REDIS_URL"`
	CacheTTL      time.Duration `env:"CACHE_TTL"`
	MaxConcurrent int           `env:"MAX_CONCURRENT"`
	Migrations    string        `env:"MIGRATIONS_PATH"`

	WarmAdvertisers []string `env:"WARM_ADVERTISERS" envSeparator:";"`
	WarmPages       int      `env:"WARM_PAGES"`
	WarmWorkers     int      `env:"WARM_WORKERS"`

	Upstream ClientFlags
}

func setDefaultServerFlags(cfg *ServerFlags) {
	cfg.ServerAddr = ":8080"
	cfg.CacheTTL = 10 * time.Minute
	cfg.MaxConcurrent = 100
	cfg.Migrations = "migrations"
	cfg.WarmPages = 1
	cfg.WarmWorkers = 2
}

// ParseServerConfig reads defaults, then flags from args, then env.
func ParseServerConfig(args []string) (*ServerFlags, error) {
	var cfg ServerFlags

	setDefaultServerFlags(&cfg)
	flags := NewClientFlagSet("server", &cfg.Upstream)

	flags.StringVarP(&cfg.ServerAddr, "address", "a", cfg.ServerAddr, "HTTP listen address")
	flags.StringVarP(&cfg.DatabaseDSN, "database_dsn", "d", cfg.DatabaseDSN, "DSN string for db connection")
	flags.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the product cache, used when no DSN is set")
	flags.DurationVarP(&cfg.CacheTTL, "cache-ttl", "c", cfg.CacheTTL, "Product cache TTL")
	flags.IntVar(&cfg.MaxConcurrent, "max-concurrent", cfg.MaxConcurrent, "Max concurrent inbound requests")
	flags.StringVar(&cfg.Migrations, "migrations", cfg.Migrations, "Path to SQL migrations")
	flags.StringArrayVar(&cfg.WarmAdvertisers, "warm-advertiser", cfg.WarmAdvertisers, "Advertiser filter to pre-fetch on startup, repeatable")
	flags.IntVar(&cfg.WarmPages, "warm-pages", cfg.WarmPages, "Pages pre-fetched per warmed advertiser")
	flags.IntVar(&cfg.WarmWorkers, "warm-workers", cfg.WarmWorkers, "Concurrent cache warming fetches")

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", flags.Args())
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.ValidateWarming(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateWarming checks the cache warming settings. Warm advertiser
// filters are signed unencoded, so they must be plain query values.
func (c *ServerFlags) ValidateWarming() error {
	if c.WarmPages < 1 {
		return fmt.Errorf("%w: warm pages %d, need at least 1", ErrInvalidWarming, c.WarmPages)
	}
	if c.WarmWorkers < 1 {
		return fmt.Errorf("%w: warm workers %d, need at least 1", ErrInvalidWarming, c.WarmWorkers)
	}
	for _, advertiser := range c.WarmAdvertisers {
		if advertiser == "" {
			return fmt.Errorf("%w: empty warm advertiser", ErrInvalidWarming)
		}
		if err := signer.CheckPlain(advertiser); err != nil {
			return fmt.Errorf("%w: warm advertiser: %v", ErrInvalidWarming, err)
		}
	}
	return nil
}

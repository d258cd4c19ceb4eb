package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientConfig_Defaults(t *testing.T) {
	cfg, err := ParseClientConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, []string{"1s", "3s", "5s"}, cfg.RetryDelays)
}

func TestParseClientConfig_EnvOverridesFlags(t *testing.T) {
	t.Setenv("PS_API_USER", "env_user")
	t.Setenv("RATE_LIMIT", "4")

	cfg, err := ParseClientConfig([]string{"-u", "flag_user", "-k", "flag_key", "--retry-delays", "10ms,20ms"})
	require.NoError(t, err)

	assert.Equal(t, "env_user", cfg.APIUser)
	assert.Equal(t, "flag_key", cfg.APIKey)
	assert.Equal(t, 4, cfg.RateLimit)

	delays, err := cfg.GetRetryDelaysAsDuration()
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, delays)
}

func TestClientFlags_Validate(t *testing.T) {
	assert.ErrorIs(t, (&ClientFlags{APIKey: "k"}).Validate(), ErrMissingCredentials)
	assert.ErrorIs(t, (&ClientFlags{APIUser: "u"}).Validate(), ErrMissingCredentials)
	assert.NoError(t, (&ClientFlags{APIUser: "u", APIKey: "k"}).Validate())
}

func TestGetRetryDelaysAsDuration_Invalid(t *testing.T) {
	cfg := &ClientFlags{RetryDelays: []string{"1s", "soon"}}
	_, err := cfg.GetRetryDelaysAsDuration()
	assert.Error(t, err)
}

func TestParseServerConfig(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://localhost/ps")

	cfg, err := ParseServerConfig([]string{"-a", ":9090", "--cache-ttl", "1m", "-u", "user"})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, "postgres://localhost/ps", cfg.DatabaseDSN)
	assert.Equal(t, "user", cfg.Upstream.APIUser)
	assert.Equal(t, DefaultBaseURL, cfg.Upstream.BaseURL)
}

func TestParseServerConfig_RejectsPositionalArgs(t *testing.T) {
	_, err := ParseServerConfig([]string{"extra"})
	assert.Error(t, err)
}

func TestParseServerConfig_Warming(t *testing.T) {
	cfg, err := ParseServerConfig([]string{"--warm-advertiser", "35", "--warm-advertiser", "45,41", "--warm-pages", "3"})
	require.NoError(t, err)

	assert.Equal(t, []string{"35", "45,41"}, cfg.WarmAdvertisers)
	assert.Equal(t, 3, cfg.WarmPages)
	assert.Equal(t, 2, cfg.WarmWorkers)

	t.Setenv("WARM_ADVERTISERS", "35;45,41;12")
	cfg, err = ParseServerConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"35", "45,41", "12"}, cfg.WarmAdvertisers)
}

func TestParseServerConfig_RejectsBadWarming(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"negative pages", []string{"--warm-pages", "-1"}},
		{"zero pages", []string{"--warm-pages", "0"}},
		{"zero workers", []string{"--warm-workers", "0"}},
		{"injecting filter", []string{"--warm-advertiser", "35&page=9"}},
		{"empty filter", []string{"--warm-advertiser", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseServerConfig(tt.args)
			assert.ErrorIs(t, err, ErrInvalidWarming)
		})
	}

	t.Run("from env", func(t *testing.T) {
		t.Setenv("WARM_PAGES", "-3")
		_, err := ParseServerConfig(nil)
		assert.ErrorIs(t, err, ErrInvalidWarming)
	})
}

package core

import (
	"fmt"
	"strings"
	"time"
)

type TokenConfig struct {
	URL             string `koanf:"url" mapstructure:"url"`
	DefaultAudience string `koanf:"default_audience" mapstructure:"default_audience"`
	RefreshBufferMS int    `koanf:"refresh_buffer_ms" mapstructure:"refresh_buffer_ms"`
}

type BaseURLConfig struct {
	Subscription string `koanf:"subscription" mapstructure:"subscription"`
	Tenant       string `koanf:"tenant" mapstructure:"tenant"`
}

type RetryConfig struct {
	MaxRetries    int `koanf:"max_retries" mapstructure:"max_retries"`
	BackoffBaseMS int `koanf:"backoff_base_ms" mapstructure:"backoff_base_ms"`
	BackoffMaxMS  int `koanf:"backoff_max_ms" mapstructure:"backoff_max_ms"`
}

type PollConfig struct {
	IntervalMS          int `koanf:"interval_ms" mapstructure:"interval_ms"`
	MaxAttempts         int `koanf:"max_attempts" mapstructure:"max_attempts"`
	DefaultRetryAfterMS int `koanf:"default_retry_after_ms" mapstructure:"default_retry_after_ms"`
}

type LimitsConfig struct {
	MaxStoredBodyBytes int `koanf:"max_stored_body_bytes" mapstructure:"max_stored_body_bytes"`
}

type RetentionConfig struct {
	TTLHours int `koanf:"ttl_hours" mapstructure:"ttl_hours"`
	RowCap   int `koanf:"row_cap" mapstructure:"row_cap"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	Token       TokenConfig     `koanf:"token" mapstructure:"token"`
	BaseURLs    BaseURLConfig   `koanf:"base_urls" mapstructure:"base_urls"`
	Retry       RetryConfig     `koanf:"retry" mapstructure:"retry"`
	Poll        PollConfig      `koanf:"poll" mapstructure:"poll"`
	Limits      LimitsConfig    `koanf:"limits" mapstructure:"limits"`
	Retention   RetentionConfig `koanf:"retention" mapstructure:"retention"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "embedded-api",
		Token: TokenConfig{
			RefreshBufferMS: 60_000,
		},
		Retry: RetryConfig{
			MaxRetries:    3,
			BackoffBaseMS: 1_000,
			BackoffMaxMS:  30_000,
		},
		Poll: PollConfig{
			IntervalMS:          2_000,
			MaxAttempts:         30,
			DefaultRetryAfterMS: 3_000,
		},
		Limits: LimitsConfig{
			MaxStoredBodyBytes: 200 << 10,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("core: retry.max_retries must not be negative")
	}
	if c.Poll.MaxAttempts <= 0 {
		return fmt.Errorf("core: poll.max_attempts must be positive")
	}
	if c.Limits.MaxStoredBodyBytes <= 0 {
		return fmt.Errorf("core: limits.max_stored_body_bytes must be positive")
	}
	return nil
}

func (c Config) RefreshBuffer() time.Duration {
	return time.Duration(c.Token.RefreshBufferMS) * time.Millisecond
}

func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.Retry.BackoffBaseMS) * time.Millisecond
}

func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.Retry.BackoffMaxMS) * time.Millisecond
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMS) * time.Millisecond
}

func (c Config) DefaultRetryAfter() time.Duration {
	return time.Duration(c.Poll.DefaultRetryAfterMS) * time.Millisecond
}

func (c Config) RetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		TTL:    time.Duration(c.Retention.TTLHours) * time.Hour,
		RowCap: c.Retention.RowCap,
	}
}

// BaseURLFor returns the configured base path for a token kind.
func (c Config) BaseURLFor(kind TokenKind) string {
	if kind == TokenKindTenant {
		return strings.TrimSpace(c.BaseURLs.Tenant)
	}
	return strings.TrimSpace(c.BaseURLs.Subscription)
}

package memes

import (
	"time"

	"github.com/atul-1602/memecraft/validation"
)

const (
	DefaultEndpoint         = "https://api.imgflip.com/get_memes"
	DefaultRelayPrefix      = "https://api.allorigins.win/raw?url="
	DefaultMaxRequests      = 10
	DefaultWindow           = time.Minute
	DefaultCacheTTL         = 5 * time.Minute
	DefaultPrimaryTimeout   = 10 * time.Second
	DefaultFallbackTimeout  = 15 * time.Second
	DefaultMaxResponseBytes = 10 << 20
)

// Config configures the upstream template fetcher.
type Config struct {
	// Endpoint is the upstream get_memes URL.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint" validate:"required,url"`
	// RelayPrefix is prepended to the escaped Endpoint for the fallback attempt.
	RelayPrefix string `yaml:"relay_prefix" mapstructure:"relay_prefix" json:"relay_prefix" validate:"required,url"`

	PrimaryTimeout  time.Duration `yaml:"primary_timeout" mapstructure:"primary_timeout" json:"primary_timeout" validate:"gt=0"`
	FallbackTimeout time.Duration `yaml:"fallback_timeout" mapstructure:"fallback_timeout" json:"fallback_timeout" validate:"gt=0"`

	// MaxRequests admissions are allowed per Window.
	MaxRequests int           `yaml:"max_requests" mapstructure:"max_requests" json:"max_requests" validate:"min=1"`
	Window      time.Duration `yaml:"window" mapstructure:"window" json:"window" validate:"gt=0"`
	CacheTTL    time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl" json:"cache_ttl" validate:"gt=0"`

	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent" json:"user_agent"`
	MaxResponseBytes int64  `yaml:"max_response_bytes" mapstructure:"max_response_bytes" json:"max_response_bytes" validate:"gt=0"`

	PrimaryBreaker BreakerConfig `yaml:"primary_breaker" mapstructure:"primary_breaker" json:"primary_breaker"`
}

// BreakerConfig configures the optional circuit breaker on the direct path.
type BreakerConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	// MaxFailures consecutive primary failures open the breaker.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures" json:"max_failures" validate:"min=0"`
	// OpenTimeout is how long the direct path is skipped before a probe.
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout" json:"open_timeout" validate:"min=0"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.RelayPrefix == "" {
		c.RelayPrefix = DefaultRelayPrefix
	}
	if c.PrimaryTimeout == 0 {
		c.PrimaryTimeout = DefaultPrimaryTimeout
	}
	if c.FallbackTimeout == 0 {
		c.FallbackTimeout = DefaultFallbackTimeout
	}
	if c.MaxRequests == 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.MaxResponseBytes == 0 {
		c.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if c.PrimaryBreaker.MaxFailures == 0 {
		c.PrimaryBreaker.MaxFailures = 3
	}
	if c.PrimaryBreaker.OpenTimeout == 0 {
		c.PrimaryBreaker.OpenTimeout = time.Minute
	}
}

// Validate checks the configuration, returning an INVALID_INPUT AppError.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

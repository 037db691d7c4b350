package app

import (
	"fmt"

	"github.com/atul-1602/memecraft/config"
	"github.com/atul-1602/memecraft/memes"
	"github.com/atul-1602/memecraft/observability"
	"github.com/atul-1602/memecraft/server"
	"github.com/atul-1602/memecraft/version"
)

// ServiceName is the service name used for config discovery, logs and telemetry.
const ServiceName = "memecraft"

// Config is the full memecraft configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server   server.Config              `yaml:"server" mapstructure:"server"`
	Upstream memes.Config               `yaml:"upstream" mapstructure:"upstream"`
	Tracing  observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics  observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills every section. Telemetry sections inherit the service
// identity since they are not read from the file.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Upstream.ApplyDefaults()
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = version.UserAgent(c.Name)
	}

	tracing := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = tracing.Endpoint
		c.Tracing.Insecure = tracing.Insecure
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = tracing.SampleRate
	}
	c.Tracing.ServiceName, c.Tracing.ServiceVersion, c.Tracing.Environment = c.Name, c.Version, c.Environment

	metrics := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = metrics.Endpoint
		c.Metrics.Insecure = metrics.Insecure
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = metrics.Interval
	}
	c.Metrics.ServiceName, c.Metrics.ServiceVersion, c.Metrics.Environment = c.Name, c.Version, c.Environment
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1 (got: %v)", c.Tracing.SampleRate)
	}
	return nil
}

// Load reads the configuration from path, or from the standard locations
// when path is empty. Defaults are applied by bootstrap.NewApp.
func Load(path string) (*Config, error) {
	var opts []config.Option
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg := &Config{}
	if err := config.Load(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Package config handles configuration for the CLI client: defaults, JSON
// overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the authkeeper CLI.
//
// Fields:
//   - CachePath: path of the local SQLite credential cache.
//   - RenewalLead: how long before access-token expiry the session renews.
//   - RenewalTimeout: upper bound on one renewal round-trip.
type Config struct {
	CachePath      string
	RenewalLead    time.Duration
	RenewalTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.CachePath = "authkeeper.db"
	c.RenewalLead = time.Minute
	c.RenewalTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

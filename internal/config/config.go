package config

import "time"

// Config holds runtime settings for the tallybook CLI.
type Config struct {
	// ServiceBaseURL is the base URL of the remote tabular document service.
	ServiceBaseURL string
	// AuthURL is the token endpoint of the document service.
	AuthURL string
	// DatabasePath is the local SQLite database file.
	DatabasePath string
	// DocumentName is the well-known name used to find or create the remote
	// document on first connect.
	DocumentName string
	// DebounceDelay is how long after the last local change an automatic
	// push waits before firing.
	DebounceDelay time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServiceBaseURL = "http://127.0.0.1:8080/v1"
	c.AuthURL = "http://127.0.0.1:8080/oauth"
	c.DatabasePath = "tallybook.db"
	c.DocumentName = "Tallybook Data"
	c.DebounceDelay = 2 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

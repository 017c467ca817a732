// Package config loads the client configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures every tunable of the sync client. The reconnect bounds and
// catch-up window have safe defaults; only the server URL commonly needs
// overriding.
type Config struct {
	// ServerURL is the HTTP base of the simulation server. The streaming
	// endpoint and the control API are derived from it.
	ServerURL string `env:"RHODES_SERVER_URL" envDefault:"http://127.0.0.1:8000"`

	// SessionFile persists the session token across restarts. Empty
	// disables persistence; SessionToken forces an explicit token.
	SessionFile  string `env:"RHODES_SESSION_FILE" envDefault:".rhodes/session"`
	SessionToken string `env:"RHODES_SESSION_TOKEN"`

	// ReconnectMin and ReconnectMax bound the exponential backoff between
	// reconnect attempts.
	ReconnectMin time.Duration `env:"RHODES_RECONNECT_MIN" envDefault:"500ms"`
	ReconnectMax time.Duration `env:"RHODES_RECONNECT_MAX" envDefault:"8s"`

	// CatchupWindow is the largest replay backlog tolerated on reconnect
	// before the client forces a full resync from the hello snapshot.
	CatchupWindow uint64 `env:"RHODES_CATCHUP_WINDOW" envDefault:"2000"`

	// LogEntries caps the operator log retained in memory.
	LogEntries int           `env:"RHODES_LOG_ENTRIES" envDefault:"500"`
	LogMaxAge  time.Duration `env:"RHODES_LOG_MAX_AGE" envDefault:"0"`

	// LogSinks selects the log pipeline outputs; LogFile backs the json
	// sink when enabled.
	LogSinks []string `env:"RHODES_LOG_SINKS" envDefault:"" envSeparator:","`
	LogFile  string   `env:"RHODES_LOG_FILE" envDefault:".rhodes/events.jsonl"`
}

// FromEnv parses the configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server url must not be empty")
	}
	if c.ReconnectMin <= 0 {
		return fmt.Errorf("reconnect floor must be positive, got %s", c.ReconnectMin)
	}
	if c.ReconnectMax < c.ReconnectMin {
		return fmt.Errorf("reconnect ceiling %s below floor %s", c.ReconnectMax, c.ReconnectMin)
	}
	return nil
}

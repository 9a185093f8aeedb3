package coord

import (
	"fmt"
	"time"
)

// Config defines the connection parameters for the coordinator client.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Path     string `json:"path"`
	Team     string `json:"team"`
	Password string `json:"password"`
	// RequestTimeoutMS bounds every request/reply exchange.
	RequestTimeoutMS int `json:"request_timeout_ms"`
	// RequestsPerSec paces outbound requests so the coordinator is not
	// flooded by a fleet of fast pollers.
	RequestsPerSec float64 `json:"requests_per_sec"`
	DialTimeoutMS  int     `json:"dial_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Path == "" {
		c.Path = "/"
	}
	if c.RequestTimeoutMS == 0 {
		c.RequestTimeoutMS = 5000
	}
	if c.RequestsPerSec == 0 {
		// Matches the coordinator's expected pacing of one request
		// every ~60 ms.
		c.RequestsPerSec = 16
	}
	if c.DialTimeoutMS == 0 {
		c.DialTimeoutMS = 5000
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("coordinator host is empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("coordinator port %d out of range", c.Port)
	}
	if c.Team == "" {
		return fmt.Errorf("team name is required for authentication")
	}
	if c.RequestTimeoutMS < 1 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.RequestsPerSec <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	return nil
}

// URL returns the websocket endpoint.
func (c Config) URL() string {
	return fmt.Sprintf("ws://%s:%d%s", c.Host, c.Port, c.Path)
}

func (c Config) requestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c Config) dialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMS) * time.Millisecond
}

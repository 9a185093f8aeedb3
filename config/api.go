package config

import "fmt"

// APIConfig controls the operator HTTP endpoints: fleet status and, when
// the journal is enabled, journal queries.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	// Token guards the journal endpoint when set. The status endpoint
	// carries no history and stays open.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":9091"
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("api addr is required")
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
)

// TelemetryConfig holds configuration for the MQTT fleet mirror.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled"`
	TopicPrefix string `json:"topic_prefix"`
}

// SetDefaults applies sane defaults.
func (c *TelemetryConfig) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "courier/fleet"
	}
}

// Validate checks the topic prefix is publishable.
func (c TelemetryConfig) Validate() error {
	if strings.ContainsAny(c.TopicPrefix, "+#") {
		return fmt.Errorf("topic prefix must not contain wildcards")
	}
	return nil
}

// Prefix returns the topic prefix without a trailing slash.
func (c TelemetryConfig) Prefix() string {
	p := strings.TrimSuffix(c.TopicPrefix, "/")
	if p == "" {
		return "courier/fleet"
	}
	return p
}

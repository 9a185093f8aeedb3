package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fleetiq/courier/core/agent"
	coremetrics "github.com/fleetiq/courier/core/metrics"
	"github.com/fleetiq/courier/infra/coord"
	"github.com/fleetiq/courier/infra/mqtt"
)

// Config is the root configuration of the courier service.
type Config struct {
	Coordinator coord.Config       `json:"coordinator"`
	Fleet       agent.Config       `json:"fleet"`
	Metrics     coremetrics.Config `json:"metrics"`
	MQTT        mqtt.Config        `json:"mqtt"`
	Telemetry   TelemetryConfig    `json:"telemetry"`
	Journal     JournalConfig      `json:"journal"`
	API         APIConfig          `json:"api"`
}

// Load reads the file at path (yaml or json by extension), applies
// COURIER_ environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. COURIER_COORDINATOR__TEAM.
	if err := k.Load(env.Provider("COURIER_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "courier_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills zero values in every section.
func (c *Config) SetDefaults() {
	c.Coordinator.SetDefaults()
	c.Fleet.SetDefaults()
	c.Metrics.SetDefaults()
	c.Telemetry.SetDefaults()
	c.Journal.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Coordinator.Validate(); err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}
	if err := c.Fleet.Validate(); err != nil {
		return fmt.Errorf("fleet: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if err := c.Journal.Validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

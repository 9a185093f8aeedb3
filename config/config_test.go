package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `coordinator:
  host: "sim.local"
  port: 9000
  team: "fleetiq"
  password: "sesame"
fleet:
  capacity: 2
  pickup_tolerance_mm: 40
  agent_ids: ["3", "7"]
metrics:
  prometheus:
    enabled: true
    addr: ":9402"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "courier"
telemetry:
  enabled: true
  topic_prefix: "fleet/live"
journal:
  enabled: true
  path: "run.journal"
  max_size_mb: 16
  max_backups: 3
api:
  enabled: true
  token: "hush"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"coordinator.host", cfg.Coordinator.Host, "sim.local"},
		{"coordinator.port", cfg.Coordinator.Port, 9000},
		{"coordinator.team", cfg.Coordinator.Team, "fleetiq"},
		{"coordinator.password", cfg.Coordinator.Password, "sesame"},
		{"fleet.capacity", cfg.Fleet.Capacity, 2},
		{"fleet.pickup_tolerance_mm", cfg.Fleet.PickupToleranceMM, 40.0},
		{"fleet.agent_ids", len(cfg.Fleet.AgentIDs) == 2 && cfg.Fleet.AgentIDs[0] == "3", true},
		{"metrics.prometheus.enabled", cfg.Metrics.Prometheus.Enabled, true},
		{"metrics.prometheus.addr", cfg.Metrics.Prometheus.Addr, ":9402"},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.client_id", cfg.MQTT.ClientID, "courier"},
		{"telemetry.enabled", cfg.Telemetry.Enabled, true},
		{"telemetry.topic_prefix", cfg.Telemetry.TopicPrefix, "fleet/live"},
		{"journal.enabled", cfg.Journal.Enabled, true},
		{"journal.path", cfg.Journal.Path, "run.journal"},
		{"journal.max_size_mb", cfg.Journal.MaxSizeMB, 16},
		{"journal.rotating", cfg.Journal.Rotating(), true},
		{"api.enabled", cfg.API.Enabled, true},
		{"api.token", cfg.API.Token, "hush"},
		{"api.addr", cfg.API.Addr, ":9091"},
		// defaults fill the fields the file leaves out
		{"fleet.max_claim_attempts", cfg.Fleet.MaxClaimAttempts, 2},
		{"fleet.busy_poll_ms", cfg.Fleet.BusyPollMS, 400},
		{"coordinator.request_timeout_ms", cfg.Coordinator.RequestTimeoutMS, 5000},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadJSONFormat(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "coordinator": {"team": "fleetiq"},
  "fleet": {"capacity": 1}
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Coordinator.Team != "fleetiq" || cfg.Fleet.Capacity != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Coordinator.Host != "localhost" {
		t.Fatalf("host default not applied: %s", cfg.Coordinator.Host)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `coordinator:
  team: "filed"
`)
	t.Setenv("COURIER_COORDINATOR__TEAM", "enviro")
	t.Setenv("COURIER_COORDINATOR__PORT", "9100")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Coordinator.Team != "enviro" {
		t.Fatalf("env override lost: %s", cfg.Coordinator.Team)
	}
	if cfg.Coordinator.Port != 9100 {
		t.Fatalf("env port override lost: %d", cfg.Coordinator.Port)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "config.toml", `team = "x"`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestLoadRejectsInvalidSection(t *testing.T) {
	path := writeConfig(t, "config.yaml", `coordinator:
  team: "fleetiq"
fleet:
  capacity: -1
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "fleet") {
		t.Fatalf("error should name the section: %v", err)
	}
}

func TestLoadRequiresTeam(t *testing.T) {
	path := writeConfig(t, "config.yaml", `coordinator:
  host: "sim.local"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing team")
	}
}

func TestTelemetryPrefix(t *testing.T) {
	cfg := TelemetryConfig{}
	if cfg.Prefix() != "courier/fleet" {
		t.Fatalf("unexpected default prefix %s", cfg.Prefix())
	}
	cfg.TopicPrefix = "fleet/live/"
	if cfg.Prefix() != "fleet/live" {
		t.Fatalf("trailing slash not trimmed: %s", cfg.Prefix())
	}
	cfg.TopicPrefix = "fleet/#"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected wildcard rejection")
	}
}

func TestJournalDefaults(t *testing.T) {
	cfg := JournalConfig{}
	cfg.SetDefaults()
	if cfg.Path != "courier.journal" {
		t.Fatalf("unexpected default path %s", cfg.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Rotating() {
		t.Fatal("rotation should be off by default")
	}
	cfg.MaxSizeMB = 8
	if !cfg.Rotating() {
		t.Fatal("max_size_mb should enable rotation")
	}
	cfg.MaxBackups = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected negative rotation limit rejection")
	}
}

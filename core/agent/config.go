package agent

import (
	"fmt"

	"github.com/fleetiq/courier/core/scoring"
	"github.com/fleetiq/courier/core/sequence"
)

// Config defines fleet-related settings shared by all controllers.
type Config struct {
	// Capacity is the number of parcels a vehicle can carry at once.
	Capacity int `json:"capacity"`
	// PickupToleranceMM is the maximum distance to a hub entrance at
	// which the vehicle counts as "at the hub" and may claim tasks.
	PickupToleranceMM float64 `json:"pickup_tolerance_mm"`
	// MaxClaimAttempts bounds the remote claim requests per fill round.
	MaxClaimAttempts int `json:"max_claim_attempts"`
	// ScoreGridMM is the quantization step of the score cache.
	ScoreGridMM float64 `json:"score_grid_mm"`
	// AgentIDs overrides the vehicle ids assigned by the coordinator.
	// Leave empty to use the assigned ones.
	AgentIDs []string `json:"agent_ids"`
	// BusyPollMS and IdlePollMS set the tick cadence of the driver
	// while delivering respectively waiting.
	BusyPollMS int `json:"busy_poll_ms"`
	IdlePollMS int `json:"idle_poll_ms"`
	// PoolRefreshMS sets how often the shared task pool is re-fetched.
	PoolRefreshMS int `json:"pool_refresh_ms"`
	// StandingsIntervalMS sets how often the scoreboard is reported.
	// Zero disables the reporter.
	StandingsIntervalMS int `json:"standings_interval_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Capacity == 0 {
		c.Capacity = 3
	}
	if c.PickupToleranceMM == 0 {
		c.PickupToleranceMM = 36
	}
	if c.MaxClaimAttempts == 0 {
		c.MaxClaimAttempts = 2
	}
	if c.ScoreGridMM == 0 {
		c.ScoreGridMM = scoring.DefaultGridMM
	}
	if c.BusyPollMS == 0 {
		c.BusyPollMS = 400
	}
	if c.IdlePollMS == 0 {
		c.IdlePollMS = 1000
	}
	if c.PoolRefreshMS == 0 {
		c.PoolRefreshMS = 2000
	}
	if c.StandingsIntervalMS == 0 {
		c.StandingsIntervalMS = 3000
	}
}

// Validate checks the configuration for impossible values. The capacity
// bound exists because the sequencer enumerates every permutation of the
// delivery queue; see sequence.MaxExhaustive.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", c.Capacity)
	}
	if c.Capacity > sequence.MaxExhaustive {
		return fmt.Errorf("capacity %d exceeds the exhaustive sequencing bound %d", c.Capacity, sequence.MaxExhaustive)
	}
	if c.PickupToleranceMM < 0 {
		return fmt.Errorf("pickup tolerance must not be negative")
	}
	if c.MaxClaimAttempts < 1 {
		return fmt.Errorf("max claim attempts must be at least 1, got %d", c.MaxClaimAttempts)
	}
	return nil
}

package events

import "time"

// ClaimEvent is published for each claim request issued to the
// coordinator.
type ClaimEvent struct {
	AgentID  string
	TaskID   string
	Accepted bool
	TimedOut bool
	Err      error
	Latency  time.Duration
	Score    float64
}

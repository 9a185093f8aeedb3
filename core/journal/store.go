package journal

import (
	"context"
	"time"

	"github.com/fleetiq/courier/core/model"
)

// Record kinds.
const (
	KindClaim    = "claim"
	KindRoute    = "route"
	KindDelivery = "delivery"
	KindState    = "state"
)

// Record captures one fleet event for later inspection. One flat shape
// serves all kinds; unused fields stay at their zero value and are
// omitted from the JSON.
type Record struct {
	Timestamp time.Time    `json:"timestamp"`
	Kind      string       `json:"kind"`
	AgentID   string       `json:"agent_id"`
	TaskID    string       `json:"task_id,omitempty"`
	Accepted  bool         `json:"accepted,omitempty"`
	TimedOut  bool         `json:"timed_out,omitempty"`
	Error     string       `json:"error,omitempty"`
	Score     float64      `json:"score,omitempty"`
	LatencyMS float64      `json:"latency_ms,omitempty"`
	Waypoints int          `json:"waypoints,omitempty"`
	Dropoff   *model.Point `json:"dropoff,omitempty"`
	Remaining int          `json:"remaining,omitempty"`
	From      string       `json:"from,omitempty"`
	To        string       `json:"to,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start   time.Time
	End     time.Time
	AgentID string
	Kind    string
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

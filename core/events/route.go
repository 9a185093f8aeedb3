package events

import (
	"time"

	"github.com/fleetiq/courier/core/model"
)

// RouteEvent is published for each route submitted to the coordinator.
type RouteEvent struct {
	AgentID   string
	Goal      model.Point
	Waypoints int
	Accepted  bool
	TimedOut  bool
	Err       error
	Latency   time.Duration
}

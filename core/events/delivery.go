package events

import (
	"time"

	"github.com/fleetiq/courier/core/model"
)

// DeliveryEvent is published when the coordinator confirms a parcel left
// the vehicle. Remaining counts the parcels still queued on that agent.
type DeliveryEvent struct {
	AgentID   string
	Dropoff   model.Point
	Remaining int
	Timestamp time.Time
}

// StateEvent is published on every controller state transition.
type StateEvent struct {
	AgentID string
	From    string
	To      string
}

// TeamStanding is one scoreboard row.
type TeamStanding struct {
	Team           string
	Points         float64
	TravelDistance float64
}

// StandingsEvent carries the scoreboard as last reported by the
// coordinator.
type StandingsEvent struct {
	Standings []TeamStanding
	Timestamp time.Time
}

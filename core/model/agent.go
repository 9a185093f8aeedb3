package model

import "time"

// AgentState is a vehicle snapshot as reported by the coordinator. The
// controller treats it as ground truth: Route is the route the server is
// actually driving, OwnedCount the number of parcels it believes are on
// board.
type AgentState struct {
	ID         string
	Position   Point
	Heading    float64 // orientation in radians
	Speed      float64 // mm/s
	OwnedCount int
	Route      []Point // remotely confirmed route, first waypoint next
	Timestamp  time.Time
}

// HasRoute reports whether the coordinator currently drives this vehicle
// along a non-empty route.
func (a AgentState) HasRoute() bool {
	return len(a.Route) > 0
}

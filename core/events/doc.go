// Package events defines the fleet related events emitted on the event bus.
//
// Available event types:
//   - ClaimEvent: outcome of a task claim request
//   - RouteEvent: outcome of a route submission
//   - DeliveryEvent: a parcel reached its dropoff
//   - StateEvent: a controller state transition
//   - StandingsEvent: refreshed team scoreboard
package events

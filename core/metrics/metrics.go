package metrics

import (
	"time"

	"github.com/fleetiq/courier/core/model"
)

// ClaimRecord represents one claim request issued to the coordinator.
type ClaimRecord struct {
	AgentID  string
	TaskID   string
	Accepted bool
	TimedOut bool
	Score    float64
	Latency  time.Duration
	Error    string
	Time     time.Time
}

// RouteRecord represents one route submission.
type RouteRecord struct {
	AgentID   string
	Waypoints int
	Accepted  bool
	TimedOut  bool
	Latency   time.Duration
	Time      time.Time
}

// DeliveryRecord represents a confirmed parcel delivery.
type DeliveryRecord struct {
	AgentID   string
	Dropoff   model.Point
	Remaining int
	Time      time.Time
}

// Sink records fleet events for observability purposes.
type Sink interface {
	RecordClaim(ClaimRecord) error
	RecordRoute(RouteRecord) error
	RecordDelivery(DeliveryRecord) error
}

// StandingRecord is one scoreboard row at a point in time.
type StandingRecord struct {
	Team           string
	Points         float64
	TravelDistance float64
	Time           time.Time
}

// StandingsRecorder records scoreboard refreshes. Implemented by sinks
// that can persist time series.
type StandingsRecorder interface {
	RecordStandings(recs []StandingRecord) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordClaim(ClaimRecord) error       { return nil }
func (NopSink) RecordRoute(RouteRecord) error       { return nil }
func (NopSink) RecordDelivery(DeliveryRecord) error { return nil }

// Ensure NopSink implements StandingsRecorder.
func (NopSink) RecordStandings([]StandingRecord) error { return nil }

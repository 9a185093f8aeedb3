package metrics

import (
	"context"
	"time"

	"github.com/fleetiq/courier/core/events"
	coremetrics "github.com/fleetiq/courier/core/metrics"
	"github.com/fleetiq/courier/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics
// for fleet events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.Sink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.Sink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.ClaimEvent:
		errStr := ""
		if e.Err != nil {
			errStr = e.Err.Error()
		}
		_ = sink.RecordClaim(coremetrics.ClaimRecord{
			AgentID:  e.AgentID,
			TaskID:   e.TaskID,
			Accepted: e.Accepted,
			TimedOut: e.TimedOut,
			Score:    e.Score,
			Latency:  e.Latency,
			Error:    errStr,
			Time:     time.Now(),
		})
	case events.RouteEvent:
		_ = sink.RecordRoute(coremetrics.RouteRecord{
			AgentID:   e.AgentID,
			Waypoints: e.Waypoints,
			Accepted:  e.Accepted,
			TimedOut:  e.TimedOut,
			Latency:   e.Latency,
			Time:      time.Now(),
		})
	case events.DeliveryEvent:
		_ = sink.RecordDelivery(coremetrics.DeliveryRecord{
			AgentID:   e.AgentID,
			Dropoff:   e.Dropoff,
			Remaining: e.Remaining,
			Time:      e.Timestamp,
		})
	case events.StandingsEvent:
		rec, ok := sink.(coremetrics.StandingsRecorder)
		if !ok {
			return
		}
		rows := make([]coremetrics.StandingRecord, 0, len(e.Standings))
		for _, s := range e.Standings {
			rows = append(rows, coremetrics.StandingRecord{
				Team:           s.Team,
				Points:         s.Points,
				TravelDistance: s.TravelDistance,
				Time:           e.Timestamp,
			})
		}
		_ = rec.RecordStandings(rows)
	}
}

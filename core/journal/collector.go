package journal

import (
	"context"
	"time"

	"github.com/fleetiq/courier/core/events"
	"github.com/fleetiq/courier/core/logger"
	"github.com/fleetiq/courier/internal/eventbus"
)

// StartEventCollector subscribes to the bus and journals fleet events
// until the context is canceled. Append failures are logged and skipped;
// the journal is an observability artifact, never a gate.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, store Store, log logger.Logger) {
	if bus == nil || store == nil {
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
				rec, ok := toRecord(ev)
				if !ok {
					continue
				}
				if err := store.Append(ctx, rec); err != nil && log != nil {
					log.Warnf("journal append failed: %v", err)
				}
			}
		}
	}()
}

func toRecord(ev eventbus.Event) (Record, bool) {
	switch e := ev.(type) {
	case events.ClaimEvent:
		errStr := ""
		if e.Err != nil {
			errStr = e.Err.Error()
		}
		return Record{
			Timestamp: time.Now(),
			Kind:      KindClaim,
			AgentID:   e.AgentID,
			TaskID:    e.TaskID,
			Accepted:  e.Accepted,
			TimedOut:  e.TimedOut,
			Error:     errStr,
			Score:     e.Score,
			LatencyMS: float64(e.Latency.Milliseconds()),
		}, true
	case events.RouteEvent:
		errStr := ""
		if e.Err != nil {
			errStr = e.Err.Error()
		}
		return Record{
			Timestamp: time.Now(),
			Kind:      KindRoute,
			AgentID:   e.AgentID,
			Accepted:  e.Accepted,
			TimedOut:  e.TimedOut,
			Error:     errStr,
			Waypoints: e.Waypoints,
			LatencyMS: float64(e.Latency.Milliseconds()),
		}, true
	case events.DeliveryEvent:
		drop := e.Dropoff
		return Record{
			Timestamp: e.Timestamp,
			Kind:      KindDelivery,
			AgentID:   e.AgentID,
			Dropoff:   &drop,
			Remaining: e.Remaining,
		}, true
	case events.StateEvent:
		return Record{
			Timestamp: time.Now(),
			Kind:      KindState,
			AgentID:   e.AgentID,
			From:      e.From,
			To:        e.To,
		}, true
	default:
		return Record{}, false
	}
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/fleetiq/courier/core/metrics"
)

func TestPromSinkRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	// A second sink on the same registry must reuse the collectors
	// instead of failing with a duplicate registration.
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	if first.claims != second.claims {
		t.Fatal("expected claim collectors to be shared")
	}
}

func TestPromSinkRecords(t *testing.T) {
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.RecordClaim(coremetrics.ClaimRecord{AgentID: "car-1", Accepted: true, Latency: time.Millisecond}); err != nil {
		t.Fatalf("record claim: %v", err)
	}
	if err := sink.RecordRoute(coremetrics.RouteRecord{AgentID: "car-1", Accepted: true}); err != nil {
		t.Fatalf("record route: %v", err)
	}
	if err := sink.RecordDelivery(coremetrics.DeliveryRecord{AgentID: "car-1"}); err != nil {
		t.Fatalf("record delivery: %v", err)
	}
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coremetrics "github.com/fleetiq/courier/core/metrics"
	"github.com/fleetiq/courier/core/model"
)

func captureServer(body *string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		*body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestInfluxSinkRecordClaim(t *testing.T) {
	var body string
	srv := captureServer(&body)
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	rec := coremetrics.ClaimRecord{
		AgentID:  "car-1",
		TaskID:   "pkg-7",
		Accepted: true,
		Score:    0.25,
		Latency:  120 * time.Millisecond,
		Time:     time.Now(),
	}
	if err := sink.RecordClaim(rec); err != nil {
		t.Fatalf("record claim: %v", err)
	}
	if !strings.HasPrefix(body, "claim_event,") {
		t.Fatalf("expected claim_event measurement, body=%q", body)
	}
	for _, want := range []string{"agent_id=car-1", "task_id=pkg-7", "accepted=true", "latency_ms=120"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in line protocol, body=%q", want, body)
		}
	}
}

func TestInfluxSinkRecordDelivery(t *testing.T) {
	var body string
	srv := captureServer(&body)
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	rec := coremetrics.DeliveryRecord{
		AgentID:   "car-2",
		Dropoff:   model.Point{X: 1234.5678, Y: 90},
		Remaining: 2,
		Time:      time.Now(),
	}
	if err := sink.RecordDelivery(rec); err != nil {
		t.Fatalf("record delivery: %v", err)
	}
	if !strings.HasPrefix(body, "delivery_event,") {
		t.Fatalf("expected delivery_event measurement, body=%q", body)
	}
	if !strings.Contains(body, "dropoff_x=1234.568") {
		t.Fatalf("expected rounded dropoff_x, body=%q", body)
	}
}

func TestInfluxSinkRecordStandings(t *testing.T) {
	var body string
	srv := captureServer(&body)
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	recs := []coremetrics.StandingRecord{
		{Team: "fleetiq", Points: 12, TravelDistance: 34567, Time: time.Now()},
	}
	if err := sink.RecordStandings(recs); err != nil {
		t.Fatalf("record standings: %v", err)
	}
	if !strings.HasPrefix(body, "team_standing,") || !strings.Contains(body, "team=fleetiq") {
		t.Fatalf("unexpected line protocol body=%q", body)
	}
}

func TestInfluxSinkFallbackOnBadHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback got %T", sink)
	}
}

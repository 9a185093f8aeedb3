package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/fleetiq/courier/core/metrics"
	"github.com/fleetiq/courier/infra/logger"
)

// InfluxSink writes fleet events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB
// endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordClaim writes the claim outcome as a point.
func (s *InfluxSink) RecordClaim(r coremetrics.ClaimRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("claim_event").
		AddTag("agent_id", r.AgentID).
		AddTag("task_id", r.TaskID).
		AddTag("accepted", strconv.FormatBool(r.Accepted)).
		AddTag("timed_out", strconv.FormatBool(r.TimedOut)).
		AddTag("component", "agent_controller").
		AddField("score", round3(r.Score)).
		AddField("latency_ms", round3(r.Latency.Seconds()*1000)).
		AddField("errors", r.Error).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRoute writes the route submission as a point.
func (s *InfluxSink) RecordRoute(r coremetrics.RouteRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("route_event").
		AddTag("agent_id", r.AgentID).
		AddTag("accepted", strconv.FormatBool(r.Accepted)).
		AddTag("timed_out", strconv.FormatBool(r.TimedOut)).
		AddTag("component", "agent_controller").
		AddField("waypoints", r.Waypoints).
		AddField("latency_ms", round3(r.Latency.Seconds()*1000)).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDelivery writes the confirmed delivery as a point.
func (s *InfluxSink) RecordDelivery(r coremetrics.DeliveryRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("delivery_event").
		AddTag("agent_id", r.AgentID).
		AddTag("component", "agent_controller").
		AddField("dropoff_x", round3(r.Dropoff.X)).
		AddField("dropoff_y", round3(r.Dropoff.Y)).
		AddField("remaining", r.Remaining).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStandings writes one point per scoreboard row.
func (s *InfluxSink) RecordStandings(recs []coremetrics.StandingRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("team_standing").
			AddTag("team", r.Team).
			AddField("points", round3(r.Points)).
			AddField("travel_distance", round3(r.TravelDistance)).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fleetiq/courier/config"
	"github.com/fleetiq/courier/core/events"
	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/infra/logger"
	infmqtt "github.com/fleetiq/courier/infra/mqtt"
	"github.com/fleetiq/courier/internal/eventbus"
)

// Manager mirrors fleet events from the bus onto MQTT topics so external
// dashboards can follow the fleet without talking to the coordinator.
type Manager struct {
	cfg config.TelemetryConfig
	pub infmqtt.Publisher
	bus eventbus.EventBus
	log logger.Logger

	published   prometheus.Counter
	publishErrs prometheus.Counter
	lastPublish prometheus.Gauge
}

// NewManager connects to MQTT and prepares the bridge.
func NewManager(mqttCfg infmqtt.Config, cfg config.TelemetryConfig, bus eventbus.EventBus) (*Manager, error) {
	id := mqttCfg.ClientID
	if id != "" {
		id += "-telemetry"
	} else {
		id = "telemetry-" + uuid.NewString()
	}
	mqttCfg.ClientID = id
	cli, err := infmqtt.NewPahoClient(mqttCfg)
	if err != nil {
		return nil, err
	}
	m := newManager(cfg, cli, bus)
	prometheus.MustRegister(m.published, m.publishErrs, m.lastPublish)
	return m, nil
}

func newManager(cfg config.TelemetryConfig, pub infmqtt.Publisher, bus eventbus.EventBus) *Manager {
	return &Manager{
		cfg:         cfg,
		pub:         pub,
		bus:         bus,
		log:         logger.New("telemetry"),
		published:   prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_telemetry_published_total", Help: "Number of fleet events mirrored to MQTT"}),
		publishErrs: prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_telemetry_publish_errors_total", Help: "Number of fleet events that failed to publish"}),
		lastPublish: prometheus.NewGauge(prometheus.GaugeOpts{Name: "courier_telemetry_last_publish_timestamp_seconds", Help: "Unix timestamp of the last successful publish"}),
	}
}

// Start mirrors bus events until the context is done.
func (m *Manager) Start(ctx context.Context) {
	sub := m.bus.Subscribe()
	defer m.bus.Unsubscribe(sub)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			m.forward(ev)
		case <-ctx.Done():
			if d, ok := m.pub.(interface{ Disconnect() }); ok {
				d.Disconnect()
			}
			return
		}
	}
}

func (m *Manager) forward(ev eventbus.Event) {
	topic, payload, ok := m.encode(ev)
	if !ok {
		return
	}
	if err := m.pub.Publish(topic, payload); err != nil {
		m.publishErrs.Inc()
		m.log.Errorf("publish %s: %v", topic, err)
		return
	}
	m.published.Inc()
	m.lastPublish.SetToCurrentTime()
}

type claimRecord struct {
	AgentID   string  `json:"agent_id"`
	TaskID    string  `json:"task_id"`
	Accepted  bool    `json:"accepted"`
	TimedOut  bool    `json:"timed_out"`
	Error     string  `json:"error,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
	Score     float64 `json:"score"`
	TS        int64   `json:"ts"`
}

type routeRecord struct {
	AgentID   string    `json:"agent_id"`
	Goal      []float64 `json:"goal"`
	Waypoints int       `json:"waypoints"`
	Accepted  bool      `json:"accepted"`
	TimedOut  bool      `json:"timed_out"`
	Error     string    `json:"error,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
	TS        int64     `json:"ts"`
}

type deliveryRecord struct {
	AgentID   string    `json:"agent_id"`
	Dropoff   []float64 `json:"dropoff"`
	Remaining int       `json:"remaining"`
	TS        int64     `json:"ts"`
}

type stateRecord struct {
	AgentID string `json:"agent_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	TS      int64  `json:"ts"`
}

type standingRecord struct {
	Team           string  `json:"team"`
	Points         float64 `json:"points"`
	TravelDistance float64 `json:"travel_distance"`
}

type standingsRecord struct {
	Standings []standingRecord `json:"standings"`
	TS        int64            `json:"ts"`
}

// encode maps a bus event to its topic and JSON payload. Events the
// bridge does not mirror return ok=false.
func (m *Manager) encode(ev eventbus.Event) (string, []byte, bool) {
	prefix := m.cfg.Prefix()
	switch e := ev.(type) {
	case events.ClaimEvent:
		return m.marshal(prefix+"/"+e.AgentID+"/claims", claimRecord{
			AgentID:   e.AgentID,
			TaskID:    e.TaskID,
			Accepted:  e.Accepted,
			TimedOut:  e.TimedOut,
			Error:     errString(e.Err),
			LatencyMS: float64(e.Latency) / float64(time.Millisecond),
			Score:     e.Score,
			TS:        time.Now().Unix(),
		})
	case events.RouteEvent:
		return m.marshal(prefix+"/"+e.AgentID+"/routes", routeRecord{
			AgentID:   e.AgentID,
			Goal:      xy(e.Goal),
			Waypoints: e.Waypoints,
			Accepted:  e.Accepted,
			TimedOut:  e.TimedOut,
			Error:     errString(e.Err),
			LatencyMS: float64(e.Latency) / float64(time.Millisecond),
			TS:        time.Now().Unix(),
		})
	case events.DeliveryEvent:
		return m.marshal(prefix+"/"+e.AgentID+"/deliveries", deliveryRecord{
			AgentID:   e.AgentID,
			Dropoff:   xy(e.Dropoff),
			Remaining: e.Remaining,
			TS:        e.Timestamp.Unix(),
		})
	case events.StateEvent:
		return m.marshal(prefix+"/"+e.AgentID+"/state", stateRecord{
			AgentID: e.AgentID,
			From:    e.From,
			To:      e.To,
			TS:      time.Now().Unix(),
		})
	case events.StandingsEvent:
		rec := standingsRecord{TS: e.Timestamp.Unix()}
		for _, s := range e.Standings {
			rec.Standings = append(rec.Standings, standingRecord{Team: s.Team, Points: s.Points, TravelDistance: s.TravelDistance})
		}
		return m.marshal(prefix+"/standings", rec)
	}
	return "", nil, false
}

func (m *Manager) marshal(topic string, v interface{}) (string, []byte, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		m.log.Errorf("encode %s: %v", topic, err)
		return "", nil, false
	}
	return topic, b, true
}

func xy(p model.Point) []float64 {
	return []float64{p.X, p.Y}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

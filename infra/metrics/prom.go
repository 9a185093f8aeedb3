package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/fleetiq/courier/core/metrics"
)

// PromSink records fleet events in Prometheus metrics.
type PromSink struct {
	claims     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	routes     *prometheus.CounterVec
	deliveries *prometheus.CounterVec
}

// NewPromSink registers fleet metrics on the default Prometheus
// registerer. The /metrics endpoint is served separately, see
// StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
// Collectors already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_claims_total",
		Help: "Total number of claim requests",
	}, []string{"agent_id", "accepted"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "courier_claim_latency_seconds",
		Help:    "Time between claim request and coordinator reply",
		Buckets: prometheus.DefBuckets,
	}, []string{"agent_id", "accepted"})
	routes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_route_submissions_total",
		Help: "Total number of route submissions",
	}, []string{"agent_id", "accepted"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_deliveries_total",
		Help: "Total number of confirmed deliveries",
	}, []string{"agent_id"})

	if err := reg.Register(claims); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			claims = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(routes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			routes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(deliveries); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			deliveries = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{claims: claims, latency: latency, routes: routes, deliveries: deliveries}, nil
}

// RecordClaim increments the claim counter and observes the latency.
func (s *PromSink) RecordClaim(r coremetrics.ClaimRecord) error {
	acc := strconv.FormatBool(r.Accepted)
	s.claims.WithLabelValues(r.AgentID, acc).Inc()
	s.latency.WithLabelValues(r.AgentID, acc).Observe(r.Latency.Seconds())
	return nil
}

// RecordRoute increments the route submission counter.
func (s *PromSink) RecordRoute(r coremetrics.RouteRecord) error {
	s.routes.WithLabelValues(r.AgentID, strconv.FormatBool(r.Accepted)).Inc()
	return nil
}

// RecordDelivery increments the delivery counter.
func (s *PromSink) RecordDelivery(r coremetrics.DeliveryRecord) error {
	s.deliveries.WithLabelValues(r.AgentID).Inc()
	return nil
}

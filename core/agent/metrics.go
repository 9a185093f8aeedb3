package agent

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	claimAttempts    *prometheus.CounterVec
	claimRoundtrip   *prometheus.HistogramVec
	routeSubmissions *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	ticks            *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec) {
	claims := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_agent_claim_attempts_total",
			Help: "Claim requests issued to the coordinator",
		},
		[]string{"agent_id", "outcome"},
	)
	rt := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_agent_claim_roundtrip_seconds",
			Help:    "Latency of claim requests from emit to coordinator verdict",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent_id"},
	)
	routes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_agent_route_submissions_total",
			Help: "Route submissions issued to the coordinator",
		},
		[]string{"agent_id", "outcome"},
	)
	del := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_agent_deliveries_total",
			Help: "Parcels confirmed delivered",
		},
		[]string{"agent_id"},
	)
	tk := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_agent_ticks_total",
			Help: "Controller decision ticks processed",
		},
		[]string{"agent_id"},
	)
	return claims, rt, routes, del, tk
}

func init() {
	claimAttempts, claimRoundtrip, routeSubmissions, deliveries, ticks = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers agent metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(claimAttempts, claimRoundtrip, routeSubmissions, deliveries, ticks)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	claimAttempts, claimRoundtrip, routeSubmissions, deliveries, ticks = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

// outcome label values for claim and route counters.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeTimeout  = "timeout"
	outcomeError    = "error"
)

func outcomeLabel(accepted bool, timedOut bool, err error) string {
	switch {
	case timedOut:
		return outcomeTimeout
	case err != nil:
		return outcomeError
	case accepted:
		return outcomeAccepted
	default:
		return outcomeRejected
	}
}

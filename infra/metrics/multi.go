package metrics

import coremetrics "github.com/fleetiq/courier/core/metrics"

// MultiSink fans fleet events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordClaim forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordClaim(r coremetrics.ClaimRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordClaim(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordRoute forwards the record to all sinks.
func (m *MultiSink) RecordRoute(r coremetrics.RouteRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRoute(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordDelivery forwards the record to all sinks.
func (m *MultiSink) RecordDelivery(r coremetrics.DeliveryRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordDelivery(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordStandings forwards scoreboard rows to sinks that support them.
func (m *MultiSink) RecordStandings(recs []coremetrics.StandingRecord) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.StandingsRecorder); ok {
			if err := rec.RecordStandings(recs); err != nil {
				return err
			}
		}
	}
	return nil
}

// Package metrics defines interfaces and record types for collecting
// fleet metrics. Sinks like PromSink and InfluxSink record claim, route
// and delivery events and can be combined with NewMultiSink. The event
// collector in infra/metrics feeds sinks from the internal event bus.
package metrics

package logger

import corelogger "github.com/fleetiq/courier/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. The output format is
// detected via the APP_ENV variable, the minimum level via
// COURIER_LOG_LEVEL.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// ForAgent returns a component logger carrying the agent id on every
// line. Controllers and drivers log through this so fleet output can be
// filtered per vehicle.
func ForAgent(component, agentID string) Logger {
	return NewZerologAgentLogger(component, agentID)
}

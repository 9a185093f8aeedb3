package app

import (
	"context"
	"time"

	"github.com/fleetiq/courier/core/agent"
	"github.com/fleetiq/courier/core/fleet"
	"github.com/fleetiq/courier/core/taskpool"
	"github.com/fleetiq/courier/infra/logger"
)

// Driver polls the coordinator for one vehicle and advances its
// controller. Each driver runs in its own goroutine; they share nothing
// but the task pool snapshot and the reservation ledger inside the
// controller.
type Driver struct {
	ctrl    *agent.Controller
	channel fleet.Channel
	pool    *taskpool.Store
	busy    time.Duration
	idle    time.Duration
	timeout time.Duration
	log     logger.Logger
}

// NewDriver builds the poll loop for one controller.
func NewDriver(ctrl *agent.Controller, channel fleet.Channel, pool *taskpool.Store, cfg agent.Config, reqTimeout time.Duration, log logger.Logger) *Driver {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Driver{
		ctrl:    ctrl,
		channel: channel,
		pool:    pool,
		busy:    time.Duration(cfg.BusyPollMS) * time.Millisecond,
		idle:    time.Duration(cfg.IdlePollMS) * time.Millisecond,
		timeout: reqTimeout,
		log:     log,
	}
}

// Run ticks the controller until the context is cancelled.
func (d *Driver) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		d.tick(ctx)
		select {
		case <-time.After(d.interval()):
		case <-ctx.Done():
			return
		}
	}
}

// interval returns the wait before the next tick. A delivering vehicle
// is polled faster than an idle one.
func (d *Driver) interval() time.Duration {
	if d.ctrl.Busy() {
		return d.busy
	}
	return d.idle
}

// tick fetches fresh vehicle state and advances the controller once.
// The recover boundary turns a panic into a skipped tick so one agent
// cannot take down the fleet.
func (d *Driver) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("tick panic: %v", r)
		}
	}()
	fetchCtx, cancel := context.WithTimeout(ctx, d.timeout)
	state, err := d.channel.AgentState(fetchCtx, d.ctrl.ID())
	cancel()
	if err != nil {
		d.log.Warnf("state fetch failed: %v", err)
		return
	}
	d.ctrl.Advance(ctx, state, d.pool.Current())
}

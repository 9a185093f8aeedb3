// Package agent runs the per-vehicle decision loop: claim tasks at the
// hub, plan a delivery order, keep a route submitted for the current leg
// and track deliveries against the coordinator's reported parcel count.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fleetiq/courier/core/events"
	"github.com/fleetiq/courier/core/fleet"
	"github.com/fleetiq/courier/core/logger"
	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/core/reserve"
	"github.com/fleetiq/courier/core/roadnet"
	"github.com/fleetiq/courier/core/scoring"
	"github.com/fleetiq/courier/core/sequence"
	"github.com/fleetiq/courier/core/taskpool"
	"github.com/fleetiq/courier/internal/eventbus"
)

// Controller is the state machine of one vehicle. It owns no transport:
// every tick the driver hands it the freshly fetched vehicle state and
// the current pool snapshot, and all side effects go through the
// injected fleet channel. A controller is driven by a single goroutine;
// the mutex only guards the read-side accessors.
type Controller struct {
	id      string
	cfg     Config
	graph   *roadnet.Graph
	channel fleet.Channel
	ledger  *reserve.Ledger
	scorer  *scoring.Scorer
	bus     eventbus.EventBus
	log     logger.Logger

	mu     sync.Mutex
	state  State
	resume State

	ownedIDs   []string      // claim order
	dropoffs   []model.Point // drop-off of each carried parcel, unordered
	queue      []model.Point // planned visit order, head is the next stop
	ownedCount int           // locally tracked parcel count
	goal       model.Point   // target of the pending navigation leg
	hasGoal    bool
}

// NewController wires a controller for one vehicle. The configuration is
// validated; defaults are the caller's job (config.Load applies them).
func NewController(id string, cfg Config, graph *roadnet.Graph, channel fleet.Channel, ledger *reserve.Ledger, scorer *scoring.Scorer, bus eventbus.EventBus, log logger.Logger) (*Controller, error) {
	if id == "" {
		return nil, fmt.Errorf("agent: empty agent id")
	}
	if graph == nil || channel == nil || ledger == nil || scorer == nil || log == nil {
		return nil, fmt.Errorf("agent: nil dependency provided to NewController")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	return &Controller{
		id:      id,
		cfg:     cfg,
		graph:   graph,
		channel: channel,
		ledger:  ledger,
		scorer:  scorer,
		bus:     bus,
		log:     log,
		state:   StateSeeking,
		resume:  StateSeeking,
	}, nil
}

// ID returns the vehicle id this controller drives.
func (c *Controller) ID() string { return c.id }

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OwnedCount returns the locally tracked parcel count.
func (c *Controller) OwnedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ownedCount
}

// OwnedIDs returns a copy of the carried task ids in claim order.
func (c *Controller) OwnedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ownedIDs...)
}

// Queue returns a copy of the planned delivery stops, next first.
func (c *Controller) Queue() []model.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Point(nil), c.queue...)
}

// Busy reports whether the vehicle is actively working a delivery round.
// The driver polls busy controllers at the faster cadence.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ownedCount > 0 && len(c.queue) > 0
}

// Shutdown releases every ledger reservation this agent still holds.
// Best effort: the coordinator's view is not touched.
func (c *Controller) Shutdown() {
	if n := c.ledger.ReleaseAgent(c.id); n > 0 {
		c.log.Infof("released %d reservations on shutdown", n)
	}
}

// Advance runs one decision tick against fresh vehicle state and the
// current pool snapshot. Transient channel failures are logged and
// retried on a later tick; Advance itself never fails.
func (c *Controller) Advance(ctx context.Context, fresh model.AgentState, snap *taskpool.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap == nil {
		snap = taskpool.NewSnapshot(nil)
	}
	ticks.WithLabelValues(c.id).Inc()

	// A leg submitted while reconciling cannot be judged against state
	// fetched before the submission; the dispatch below waits for the
	// next tick and its fresh evidence.
	if c.reconcile(ctx, fresh, snap) {
		return
	}

	switch c.state {
	case StateSeeking, StateToHub:
		c.stepSeek(ctx, fresh, snap)
	case StateAwaitRoute:
		c.stepAwaitRoute(ctx, fresh)
	case StateDelivering:
		// The coordinator drives the vehicle; reconcile advances the
		// queue when it reports a parcel gone.
	}
}

// reconcile compares the coordinator's parcel count with the local one.
// A count one below ours is a completed delivery. A larger deficit is
// drained one parcel per tick so a burst of confirmations cannot pop the
// queue past a stop that was in fact delivered later. A count above ours
// means the coordinator granted something we gave up on; its view wins.
// The return reports whether handling a delivery submitted the next leg.
func (c *Controller) reconcile(ctx context.Context, fresh model.AgentState, snap *taskpool.Snapshot) bool {
	switch {
	case fresh.OwnedCount == c.ownedCount:
		return false
	case fresh.OwnedCount > c.ownedCount:
		c.log.Warnf("coordinator reports %d parcels, tracking %d, adopting remote count", fresh.OwnedCount, c.ownedCount)
		c.ownedCount = fresh.OwnedCount
		return false
	}
	if fresh.OwnedCount < c.ownedCount-1 {
		c.log.Warnf("coordinator reports %d parcels, tracking %d, draining one per tick", fresh.OwnedCount, c.ownedCount)
	}
	return c.completeDelivery(ctx, fresh, snap)
}

// completeDelivery pops exactly one stop off the delivery queue and
// decides what the vehicle does next: refill at the hub when it happens
// to stand at one with capacity to spare, drive the next leg, or go back
// to seeking once the round is done. It reports whether a new leg was
// submitted.
func (c *Controller) completeDelivery(ctx context.Context, fresh model.AgentState, snap *taskpool.Snapshot) bool {
	c.ownedCount--

	var delivered model.Point
	if len(c.queue) > 0 {
		delivered = c.queue[0]
		c.queue = c.queue[1:]
		c.dropCarried(delivered)
	} else if len(c.dropoffs) > 0 {
		delivered = c.dropoffs[0]
		c.dropoffs = c.dropoffs[1:]
		if len(c.ownedIDs) > 0 {
			c.ownedIDs = c.ownedIDs[1:]
		}
	}

	deliveries.WithLabelValues(c.id).Inc()
	if c.bus != nil {
		c.bus.Publish(events.DeliveryEvent{
			AgentID:   c.id,
			Dropoff:   delivered,
			Remaining: len(c.queue),
			Timestamp: time.Now(),
		})
	}
	c.log.Infof("delivery confirmed at %s, %d stops left, %d parcels on board", delivered, len(c.queue), c.ownedCount)

	// Opportunistic refill: the round just ended next to the hub.
	if len(c.queue) == 0 && c.ownedCount < c.cfg.Capacity {
		if entrance, ok := roadnet.Nearest(fresh.Position, snap.HubEntrances()); ok &&
			model.Distance(fresh.Position, entrance) <= c.cfg.PickupToleranceMM {
			if c.fillToCapacity(ctx, fresh.Position, entrance, snap) > 0 {
				c.log.Infof("refilled at hub entrance %s after delivery", entrance)
				c.planQueue(fresh.Position)
				c.submitLeg(ctx, fresh.Position, c.queue[0], StateDelivering)
				return true
			}
		}
	}

	if len(c.queue) > 0 {
		c.submitLeg(ctx, fresh.Position, c.queue[0], StateDelivering)
		return true
	}

	// Round complete: forget the carried set and look for new work.
	c.ownedIDs = nil
	c.dropoffs = nil
	c.hasGoal = false
	c.setState(StateSeeking)
	return false
}

// stepSeek moves the vehicle toward claimable work: fill up when at the
// hub, otherwise drive to the nearest entrance.
func (c *Controller) stepSeek(ctx context.Context, fresh model.AgentState, snap *taskpool.Snapshot) {
	if snap.Len() == 0 {
		c.log.Debugf("task pool empty, waiting")
		return
	}
	entrance, ok := roadnet.Nearest(fresh.Position, snap.HubEntrances())
	if !ok {
		c.log.Warnf("no hub entrances known yet, waiting")
		return
	}

	if model.Distance(fresh.Position, entrance) <= c.cfg.PickupToleranceMM {
		if c.fillToCapacity(ctx, fresh.Position, entrance, snap) > 0 {
			c.planQueue(fresh.Position)
			c.submitLeg(ctx, fresh.Position, c.queue[0], StateDelivering)
		} else if c.state == StateToHub {
			// Arrived, nothing claimable right now.
			c.setState(StateSeeking)
		}
		return
	}

	// Out of reach: head for the entrance. While a confirmed route is
	// still reported there is nothing to do; a drained route with the
	// hub still far means the leg ended short and must be resubmitted.
	c.goal = entrance
	c.hasGoal = true
	if c.state == StateToHub && fresh.HasRoute() {
		return
	}
	c.submitLeg(ctx, fresh.Position, entrance, StateToHub)
}

// stepAwaitRoute waits for the submitted leg to show up on the vehicle.
// Only a route ending at the pending goal counts: leftover waypoints of
// a finished leg end at the previous goal and must not confirm the new
// one. Until the coordinator reports the leg it is resubmitted every
// tick, covering rejections, timeouts and acceptances whose reply was
// lost.
func (c *Controller) stepAwaitRoute(ctx context.Context, fresh model.AgentState) {
	goal, ok := c.currentGoal()
	if !ok {
		c.setState(StateSeeking)
		return
	}
	if routeEndsAt(fresh.Route, goal) {
		c.setState(c.resume)
		return
	}
	c.submitRoute(ctx, fresh.Position, goal)
}

// routeEndsAt reports whether route is non-empty and finishes on goal.
// Legs built by BuildLeg always end on the literal goal point.
func routeEndsAt(route []model.Point, goal model.Point) bool {
	return len(route) > 0 && route[len(route)-1] == goal
}

// currentGoal is the point the pending leg should end at: the next
// queued delivery stop, or the navigation goal when the queue is empty.
func (c *Controller) currentGoal() (model.Point, bool) {
	if len(c.queue) > 0 {
		return c.queue[0], true
	}
	if c.hasGoal {
		return c.goal, true
	}
	return model.Point{}, false
}

// planQueue orders the carried drop-offs into the cheapest drivable
// visiting sequence from the current position.
func (c *Controller) planQueue(pos model.Point) {
	order := sequence.Order(pos, c.dropoffs, sequence.GraphDistance(c.graph))
	c.queue = sequence.Apply(c.dropoffs, order)
	c.log.Debugw("delivery queue planned", map[string]any{
		"stops": len(c.queue),
		"order": order,
	})
}

// submitLeg submits the route leg to goal and parks the controller in
// StateAwaitRoute until the coordinator reports the route back. resume
// names the state to enter once it does.
func (c *Controller) submitLeg(ctx context.Context, pos, goal model.Point, resume State) {
	c.goal = goal
	c.hasGoal = true
	c.resume = resume
	c.submitRoute(ctx, pos, goal)
	c.setState(StateAwaitRoute)
}

// submitRoute builds and submits the waypoints for one leg. A rejection
// or timeout is not resolved here; the caller keeps the controller in a
// state that retries on the next tick.
func (c *Controller) submitRoute(ctx context.Context, pos, goal model.Point) bool {
	waypoints := BuildLeg(c.graph, pos, goal)

	start := time.Now()
	accepted, err := c.channel.SubmitRoute(ctx, c.id, waypoints)
	latency := time.Since(start)
	timedOut := errors.Is(err, fleet.ErrTimeout)

	routeSubmissions.WithLabelValues(c.id, outcomeLabel(accepted, timedOut, err)).Inc()
	if c.bus != nil {
		c.bus.Publish(events.RouteEvent{
			AgentID:   c.id,
			Goal:      goal,
			Waypoints: len(waypoints),
			Accepted:  accepted && err == nil,
			TimedOut:  timedOut,
			Err:       err,
			Latency:   latency,
		})
	}

	switch {
	case timedOut:
		c.log.Warnf("route to %s timed out after %s, will retry", goal, latency)
	case err != nil:
		c.log.Warnf("route to %s failed: %v", goal, err)
	case !accepted:
		c.log.Warnf("route to %s refused by coordinator, will retry", goal)
	default:
		c.log.Debugf("route to %s submitted (%d waypoints)", goal, len(waypoints))
	}
	return accepted && err == nil
}

// dropCarried removes the parcel delivered at p from the carried set.
// ownedIDs and dropoffs are appended in lockstep by fillToCapacity, so
// removing the same index keeps them aligned.
func (c *Controller) dropCarried(p model.Point) {
	for i, d := range c.dropoffs {
		if d == p {
			c.dropoffs = append(c.dropoffs[:i], c.dropoffs[i+1:]...)
			if i < len(c.ownedIDs) {
				c.ownedIDs = append(c.ownedIDs[:i], c.ownedIDs[i+1:]...)
			}
			return
		}
	}
}

func (c *Controller) setState(next State) {
	if next == c.state {
		return
	}
	prev := c.state
	c.state = next
	if c.bus != nil {
		c.bus.Publish(events.StateEvent{AgentID: c.id, From: prev.String(), To: next.String()})
	}
	c.log.Debugf("state %s -> %s", prev, next)
}

// Package coord implements the fleet.Channel against the coordinating
// game server: a websocket client speaking the coordinator's JSON event
// protocol with one lockstep request/reply exchange at a time.
package coord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/fleetiq/courier/core/events"
	"github.com/fleetiq/courier/core/fleet"
	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/infra/logger"
)

// Client is a connected, authenticated coordinator session. All methods
// are safe for concurrent use: the protocol has no correlation ids, so
// requests are serialized and each reply is matched to the single
// in-flight request by its event name.
type Client struct {
	cfg     Config
	log     logger.Logger
	limiter *rate.Limiter
	conn    *websocket.Conn

	reqMu sync.Mutex // one request/reply cycle at a time

	mu      sync.Mutex
	waiters map[string]chan envelope

	closed    chan struct{}
	closeOnce sync.Once
	readErr   error
}

var _ fleet.Channel = (*Client)(nil)

// Dial connects to the coordinator and authenticates the team. The
// returned client owns the connection; Close releases it.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("coord: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.dialTimeout()}
	conn, _, err := dialer.DialContext(ctx, cfg.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("coord: dial %s: %w", cfg.URL(), err)
	}

	c := &Client{
		cfg:     cfg,
		log:     logger.New("coordinator"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		conn:    conn,
		waiters: make(map[string]chan envelope),
		closed:  make(chan struct{}),
	}
	go c.readLoop()

	if _, err := c.call(ctx, evtAuth, authPayload{UserName: cfg.Team, Pwd: cfg.Password}, evtAuthReply); err != nil {
		c.shutdown(nil)
		return nil, fmt.Errorf("coord: authenticate team %s: %w", cfg.Team, err)
	}
	c.log.Infof("connected to coordinator at %s as team %s", cfg.URL(), cfg.Team)
	return c, nil
}

// readLoop is the single reader: it routes every inbound envelope to the
// waiter registered for its event name. Unsolicited broadcasts have no
// waiter and are dropped.
func (c *Client) readLoop() {
	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.shutdown(err)
			return
		}
		c.mu.Lock()
		ch, ok := c.waiters[env.Event]
		if ok {
			select {
			case ch <- env:
			default:
			}
		}
		c.mu.Unlock()
		if !ok {
			c.log.Debugf("dropped unsolicited event %s", env.Event)
		}
	}
}

// call runs one request/reply exchange. The waiter listens for the reply
// event and for an error event; whichever arrives first resolves the
// call. Deadline expiry maps to fleet.ErrTimeout so callers can treat a
// slow coordinator uniformly.
func (c *Client) call(ctx context.Context, event string, payload any, reply string) (json.RawMessage, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	select {
	case <-c.closed:
		return nil, c.closedErr()
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.requestTimeout())
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fleet.ErrTimeout
		}
		return nil, err
	}

	ch := make(chan envelope, 2)
	c.mu.Lock()
	c.waiters[reply] = ch
	c.waiters[evtError] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.waiters, reply)
		delete(c.waiters, evtError)
		c.mu.Unlock()
	}()

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	if err := c.conn.WriteJSON(envelope{Event: event, Payload: raw}); err != nil {
		return nil, fmt.Errorf("send %s: %w", event, err)
	}

	select {
	case env := <-ch:
		if env.Event == evtError {
			var e errorPayload
			_ = json.Unmarshal(env.Payload, &e)
			return nil, &ServerError{Message: e.Message}
		}
		return env.Payload, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fleet.ErrTimeout
		}
		return nil, ctx.Err()
	case <-c.closed:
		return nil, c.closedErr()
	}
}

// RoadNetwork fetches and converts the course description.
func (c *Client) RoadNetwork(ctx context.Context) (model.RoadNetwork, error) {
	raw, err := c.call(ctx, evtRoad, struct{}{}, evtRoadReply)
	if err != nil {
		return model.RoadNetwork{}, err
	}
	var info roadInfoPayload
	if err := json.Unmarshal(raw, &info); err != nil {
		return model.RoadNetwork{}, fmt.Errorf("decode road information: %w", err)
	}
	if !info.Success {
		return model.RoadNetwork{}, fmt.Errorf("coordinator could not serve the road information")
	}
	net, dropped := info.toRoadNetwork()
	if dropped > 0 {
		c.log.Warnf("road information carried %d malformed records, dropped", dropped)
	}
	if err := net.Validate(); err != nil {
		return model.RoadNetwork{}, fmt.Errorf("road information unusable: %w", err)
	}
	return net, nil
}

// Tasks fetches the package pool keyed by task id. Malformed package
// records are dropped and logged rather than failing the whole fetch.
func (c *Client) Tasks(ctx context.Context) (map[string]model.Task, error) {
	raw, err := c.call(ctx, evtPkgs, struct{}{}, evtPkgsReply)
	if err != nil {
		return nil, err
	}
	var list packageListPayload
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode package list: %w", err)
	}
	if !list.Success {
		return nil, fmt.Errorf("coordinator could not serve the package list")
	}
	tasks := make(map[string]model.Task, len(list.Packages))
	for id, wp := range list.Packages {
		task, ok := wp.toTask(id)
		if !ok {
			c.log.Warnf("package %s has unusable geometry, skipped", id)
			continue
		}
		tasks[id] = task
	}
	return tasks, nil
}

// AgentState fetches the authoritative state of one vehicle.
func (c *Client) AgentState(ctx context.Context, agentID string) (model.AgentState, error) {
	id, err := carID(agentID)
	if err != nil {
		return model.AgentState{}, err
	}
	raw, err := c.call(ctx, evtCar, carRequest{CarID: id}, evtCarReply)
	if err != nil {
		return model.AgentState{}, err
	}
	var data carDataPayload
	if err := json.Unmarshal(raw, &data); err != nil {
		return model.AgentState{}, fmt.Errorf("decode car data: %w", err)
	}
	return data.Data.toAgentState(agentID)
}

// ClaimTask asks the coordinator to hand the package to the agent. An
// error event is the coordinator's way of refusing, typically because
// another team was faster; it resolves to accepted=false, not an error.
func (c *Client) ClaimTask(ctx context.Context, agentID, taskID string) (bool, error) {
	id, err := carID(agentID)
	if err != nil {
		return false, err
	}
	req := pickupRequest{CarID: id, PackageID: taskID, UserName: c.cfg.Team, Pwd: c.cfg.Password}
	_, err = c.call(ctx, evtPickup, req, evtPickupReply)
	var se *ServerError
	if errors.As(err, &se) {
		c.log.Debugf("pickup of %s refused: %s", taskID, se.Message)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SubmitRoute proposes a waypoint route for the vehicle. Like claims, a
// refusal arrives as an error event and resolves to accepted=false.
func (c *Client) SubmitRoute(ctx context.Context, agentID string, waypoints []model.Point) (bool, error) {
	id, err := carID(agentID)
	if err != nil {
		return false, err
	}
	req := routeRequest{CarID: id, Route: routePoints(waypoints), UserName: c.cfg.Team, Pwd: c.cfg.Password}
	_, err = c.call(ctx, evtRoute, req, evtRouteReply)
	var se *ServerError
	if errors.As(err, &se) {
		c.log.Debugf("route for car %d refused: %s", id, se.Message)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ready reports whether the coordinator finished initializing the world.
func (c *Client) Ready(ctx context.Context) (bool, error) {
	raw, err := c.call(ctx, evtInit, struct{}{}, evtInitReply)
	if err != nil {
		return false, err
	}
	var st initStatusPayload
	if err := json.Unmarshal(raw, &st); err != nil {
		return false, fmt.Errorf("decode init status: %w", err)
	}
	return st.State == 1, nil
}

// WaitReady polls the coordinator until the world is initialized.
// Transient failures keep polling; ctx bounds the overall wait.
func (c *Client) WaitReady(ctx context.Context, poll time.Duration) error {
	if poll <= 0 {
		poll = time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		ready, err := c.Ready(ctx)
		switch {
		case err != nil:
			c.log.Warnf("init status check failed: %v", err)
		case ready:
			return nil
		default:
			c.log.Debugf("coordinator still initializing")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return c.closedErr()
		case <-ticker.C:
		}
	}
}

// AssignedAgents returns the agent ids the coordinator assigned to this
// team, as strings the rest of the engine uses.
func (c *Client) AssignedAgents(ctx context.Context) ([]string, error) {
	raw, err := c.call(ctx, evtAssign, struct{}{}, evtAssign)
	if err != nil {
		return nil, err
	}
	var assigned assignCarPayload
	if err := json.Unmarshal(raw, &assigned); err != nil {
		return nil, fmt.Errorf("decode assigned cars: %w", err)
	}
	if len(assigned.CarIDs) == 0 {
		return nil, fmt.Errorf("coordinator assigned no cars")
	}
	ids := make([]string, len(assigned.CarIDs))
	for i, id := range assigned.CarIDs {
		ids[i] = strconv.Itoa(id)
	}
	return ids, nil
}

// Standings fetches the scoreboard, best team first.
func (c *Client) Standings(ctx context.Context) ([]events.TeamStanding, error) {
	raw, err := c.call(ctx, evtTeams, struct{}{}, evtTeamsReply)
	if err != nil {
		return nil, err
	}
	var info teamsInfoPayload
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode teams information: %w", err)
	}
	if !info.Success {
		return nil, fmt.Errorf("coordinator could not serve the standings")
	}
	rows := make([]events.TeamStanding, 0, len(info.Info))
	for team, entry := range info.Info {
		rows = append(rows, events.TeamStanding{
			Team:           team,
			Points:         entry.Point,
			TravelDistance: entry.TravelDistance,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].Team < rows[j].Team
	})
	return rows, nil
}

// Close tears down the websocket. Safe to call more than once; pending
// calls resolve with fleet.ErrClosed.
func (c *Client) Close() error {
	c.shutdown(nil)
	return nil
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.readErr = err
		close(c.closed)
		if err != nil {
			c.log.Warnf("coordinator connection lost: %v", err)
		}
		_ = c.conn.Close()
	})
}

// closedErr is the error pending and future calls fail with once the
// connection is gone.
func (c *Client) closedErr() error {
	if c.readErr != nil {
		return fmt.Errorf("%w: %v", fleet.ErrClosed, c.readErr)
	}
	return fleet.ErrClosed
}

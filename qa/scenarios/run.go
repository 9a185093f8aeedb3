package scenarios

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/fleetiq/courier/core/agent"
	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/core/reserve"
	"github.com/fleetiq/courier/core/roadnet"
	"github.com/fleetiq/courier/core/scoring"
	"github.com/fleetiq/courier/core/taskpool"
	"github.com/fleetiq/courier/infra/logger"
	"github.com/fleetiq/courier/internal/eventbus"
	"github.com/fleetiq/courier/internal/sim"
)

// tickSeconds is the simulated time that passes between controller
// rounds. No wall-clock sleeping happens; scenarios run as fast as the
// CPU allows.
const tickSeconds = 0.2

// worldChannel adapts the simulated world to the coordinator boundary
// so scenarios exercise the real controllers without a websocket.
type worldChannel struct {
	world *sim.World
	team  string
}

func (c worldChannel) RoadNetwork(context.Context) (model.RoadNetwork, error) {
	course := c.world.Road()
	return model.RoadNetwork{Segments: course.Segments, Points: course.Points}, nil
}

func (c worldChannel) Tasks(context.Context) (map[string]model.Task, error) {
	pkgs := c.world.Packages()
	tasks := make(map[string]model.Task, len(pkgs))
	for id, p := range pkgs {
		tasks[id] = model.Task{
			ID:        id,
			Status:    model.TaskStatus(p.Status),
			Entrances: p.Entrances,
			Dropoff:   p.Dropoff,
		}
	}
	return tasks, nil
}

func (c worldChannel) AgentState(_ context.Context, agentID string) (model.AgentState, error) {
	id, err := strconv.Atoi(agentID)
	if err != nil {
		return model.AgentState{}, fmt.Errorf("agent id %q is not numeric", agentID)
	}
	v, ok := c.world.Car(id)
	if !ok {
		return model.AgentState{}, fmt.Errorf("unknown car %d", id)
	}
	return model.AgentState{
		ID:         agentID,
		Position:   v.Position,
		Heading:    v.Orientation,
		Speed:      v.Speed,
		OwnedCount: len(v.Owned),
		Route:      v.Route,
		Timestamp:  time.Now(),
	}, nil
}

func (c worldChannel) ClaimTask(_ context.Context, agentID, taskID string) (bool, error) {
	id, err := strconv.Atoi(agentID)
	if err != nil {
		return false, fmt.Errorf("agent id %q is not numeric", agentID)
	}
	// A refused pickup is a refusal, not a transport failure.
	if err := c.world.Pickup(id, taskID, c.team); err != nil {
		return false, nil
	}
	return true, nil
}

func (c worldChannel) SubmitRoute(_ context.Context, agentID string, waypoints []model.Point) (bool, error) {
	id, err := strconv.Atoi(agentID)
	if err != nil {
		return false, fmt.Errorf("agent id %q is not numeric", agentID)
	}
	if err := c.world.SetRoute(id, waypoints, c.team); err != nil {
		return false, nil
	}
	return true, nil
}

// RunScenario builds a world from sc and drives the real controllers
// against it until everything is delivered or the tick budget runs out.
func RunScenario(t *testing.T, sc *Scenario) {
	world, err := sim.NewWorld(sim.Config{
		Vehicles:    sc.Agents.Count,
		Packages:    len(sc.Packages),
		Cols:        sc.Grid.Cols,
		Rows:        sc.Grid.Rows,
		SpacingMM:   sc.Grid.SpacingMM,
		SpeedMMPerS: sc.SpeedMMPerS,
	}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	for i, def := range sc.Packages {
		dropoff, err := def.ToPoint()
		if err != nil {
			t.Fatalf("package %d: %v", i+1, err)
		}
		world.PlacePackage(strconv.Itoa(i+1), dropoff)
	}

	course := world.Road()
	graph := roadnet.Build(course.Segments, course.Points)

	fleetCfg := agent.Config{Capacity: sc.Agents.Capacity}
	fleetCfg.SetDefaults()
	if err := fleetCfg.Validate(); err != nil {
		t.Fatalf("fleet config: %v", err)
	}

	bus := eventbus.New()
	defer bus.Close()
	ledger := reserve.NewLedger()
	scorer := scoring.New(graph, fleetCfg.ScoreGridMM)
	channel := worldChannel{world: world, team: "qa"}

	controllers := make([]*agent.Controller, 0, sc.Agents.Count)
	for i := 0; i < sc.Agents.Count; i++ {
		id := strconv.Itoa(i + 1)
		ctrl, err := agent.NewController(id, fleetCfg, graph, channel, ledger, scorer, bus, logger.NopLogger{})
		if err != nil {
			t.Fatalf("controller %s: %v", id, err)
		}
		controllers = append(controllers, ctrl)
	}

	pool := taskpool.NewStore()
	ctx := context.Background()
	maxTicks := sc.Expected.MaxTicks
	if maxTicks == 0 {
		maxTicks = 2000
	}

	for tick := 0; tick < maxTicks && world.Delivered() < sc.Expected.Delivered; tick++ {
		tasks, err := channel.Tasks(ctx)
		if err != nil {
			t.Fatalf("tasks: %v", err)
		}
		pool.Replace(taskpool.NewSnapshot(tasks))
		for _, ctrl := range controllers {
			state, err := channel.AgentState(ctx, ctrl.ID())
			if err != nil {
				t.Fatalf("state %s: %v", ctrl.ID(), err)
			}
			ctrl.Advance(ctx, state, pool.Current())
		}
		world.Tick(tickSeconds)
	}

	if got := world.Delivered(); got != sc.Expected.Delivered {
		t.Errorf("scenario %s delivered %d packages, want %d", sc.Name, got, sc.Expected.Delivered)
	}
}

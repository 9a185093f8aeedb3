package fleet

import (
	"context"

	"github.com/fleetiq/courier/core/model"
)

// Channel is the boundary to the coordinating server. Implementations
// own the transport; callers only see bounded, context-aware calls.
// Every method may fail transiently and every failure is retryable on a
// later tick.
type Channel interface {
	// RoadNetwork fetches the course description.
	RoadNetwork(ctx context.Context) (model.RoadNetwork, error)

	// Tasks fetches the full task pool keyed by task id.
	Tasks(ctx context.Context) (map[string]model.Task, error)

	// AgentState fetches the authoritative state of one vehicle.
	AgentState(ctx context.Context, agentID string) (model.AgentState, error)

	// ClaimTask asks the coordinator to assign the task to the agent.
	// accepted is false when the coordinator refuses, typically because
	// another team claimed it first.
	ClaimTask(ctx context.Context, agentID, taskID string) (accepted bool, err error)

	// SubmitRoute proposes a waypoint route for the vehicle. accepted is
	// false when the coordinator rejects the route.
	SubmitRoute(ctx context.Context, agentID string, waypoints []model.Point) (accepted bool, err error)
}

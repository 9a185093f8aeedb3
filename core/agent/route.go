package agent

import (
	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/core/roadnet"
)

// BuildLeg computes the waypoint sequence the vehicle should drive from
// pos to goal. The raw shortest path connects the graph nodes nearest to
// both ends, so its rim must be corrected: the first waypoint is forced
// to the vehicle's exact position (a route starting on a node the
// vehicle is not standing on is rejected as unreachable), and the last
// hop is bent onto the literal goal, appended as an extra waypoint when
// leaving the second-to-last node directly would overshoot and otherwise
// replacing the final node. When the graph offers no usable connection,
// the leg degrades to the direct two-point route.
func BuildLeg(g *roadnet.Graph, pos, goal model.Point) []model.Point {
	direct := []model.Point{pos, goal}
	if g == nil {
		return direct
	}
	start, ok := g.NearestNode(pos)
	if !ok {
		return direct
	}
	end, ok := g.NearestNode(goal)
	if !ok {
		return direct
	}
	path, ok := g.ShortestPath(start, end)
	if !ok || len(path) < 2 {
		return direct
	}

	leg := append([]model.Point(nil), path...)
	last := len(leg) - 1
	beforeLast := leg[last-1]
	if model.Distance(beforeLast, goal) > model.Distance(beforeLast, leg[last]) {
		leg = append(leg, goal)
	} else {
		leg[last] = goal
	}
	leg[0] = pos
	return leg
}

package roadnet

import (
	"github.com/fleetiq/courier/core/model"
)

// Arc is a directed adjacency entry. Weight is the Euclidean length of the
// underlying street segment in millimetres.
type Arc struct {
	To     model.Point
	Weight float64
}

// Graph is the routable view of a road network. It is immutable after
// Build and safe for concurrent readers.
type Graph struct {
	adj   map[model.Point][]Arc
	nodes []model.Point // insertion order of the valid point set
}

// Build constructs a graph from raw street segments and the set of valid
// waypoints. Every valid point becomes a node, connected or not. A segment
// contributes a bidirectional edge only when both endpoints are valid
// waypoints; anything else is dropped. Node order follows the input point
// order so nearest-node ties resolve the same way on every run.
func Build(segments []model.Segment, points []model.Point) *Graph {
	g := &Graph{
		adj:   make(map[model.Point][]Arc, len(points)),
		nodes: make([]model.Point, 0, len(points)),
	}
	for _, p := range points {
		if _, seen := g.adj[p]; seen {
			continue
		}
		g.adj[p] = nil
		g.nodes = append(g.nodes, p)
	}
	for _, s := range segments {
		if _, ok := g.adj[s.Start]; !ok {
			continue
		}
		if _, ok := g.adj[s.End]; !ok {
			continue
		}
		w := s.Length()
		g.adj[s.Start] = append(g.adj[s.Start], Arc{To: s.End, Weight: w})
		g.adj[s.End] = append(g.adj[s.End], Arc{To: s.Start, Weight: w})
	}
	return g
}

// Contains reports whether p is a node of the graph.
func (g *Graph) Contains(p model.Point) bool {
	_, ok := g.adj[p]
	return ok
}

// Neighbors returns the adjacency list of p in insertion order.
func (g *Graph) Neighbors(p model.Point) []Arc {
	return g.adj[p]
}

// Nodes returns all graph nodes in deterministic order. The slice is
// shared; callers must not mutate it.
func (g *Graph) Nodes() []model.Point {
	return g.nodes
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NearestNode returns the graph node closest to p by Euclidean distance.
// Ties keep the earliest node in build order. ok is false for an empty
// graph.
func (g *Graph) NearestNode(p model.Point) (model.Point, bool) {
	return Nearest(p, g.nodes)
}

// Nearest returns the candidate closest to p by Euclidean distance,
// keeping the first minimal element on ties. ok is false when candidates
// is empty.
func Nearest(p model.Point, candidates []model.Point) (model.Point, bool) {
	if len(candidates) == 0 {
		return model.Point{}, false
	}
	best := candidates[0]
	bestDist := model.Distance(p, best)
	for _, c := range candidates[1:] {
		if d := model.Distance(p, c); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best, true
}

// PathLength sums the Euclidean hop lengths of a waypoint sequence.
func PathLength(path []model.Point) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += model.Distance(path[i-1], path[i])
	}
	return total
}

package scoring

import (
	"math"
	"sync"

	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/core/roadnet"
)

// DefaultGridMM is the default cache quantization step.
const DefaultGridMM = 10.0

// epsilon keeps the score finite when the total cost is zero.
const epsilon = 1e-6

// cacheKey is the quantized (agent, hub, dropoff) triple.
type cacheKey struct {
	ax, ay int64
	hx, hy int64
	dx, dy int64
}

// Scorer rates how attractive a task is for an agent: the inverse of the
// drivable cost to pick it up and deliver it. Scores are memoized on a
// millimetre grid because agent positions drift by fractions of a bucket
// between ticks while the relative ranking stays put.
type Scorer struct {
	graph *roadnet.Graph
	grid  float64

	mu    sync.RWMutex
	cache map[cacheKey]float64
}

// New returns a scorer over g. gridMM is the quantization step for the
// score cache; values <= 0 fall back to DefaultGridMM.
func New(g *roadnet.Graph, gridMM float64) *Scorer {
	if gridMM <= 0 {
		gridMM = DefaultGridMM
	}
	return &Scorer{
		graph: g,
		grid:  gridMM,
		cache: map[cacheKey]float64{},
	}
}

// Score returns 1/(cost+epsilon) where cost is the drivable distance
// agent->hub plus hub->dropoff. Higher is better. Results are cached per
// quantized position triple; a cache hit returns exactly what a fresh
// computation for the same buckets would.
func (s *Scorer) Score(agent, hub, dropoff model.Point) float64 {
	key := s.key(agent, hub, dropoff)

	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	cost := s.routeDistance(agent, hub) + s.routeDistance(hub, dropoff)
	v = 1 / (cost + epsilon)

	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()
	return v
}

// routeDistance is the graph distance between the nodes nearest to a and
// b, falling back to the straight-line distance when the graph offers no
// connection. Points snapping to the same node fall back too: a
// zero-length path says nothing about how far apart they really are.
// Candidate ranking needs a finite number even for points the network
// cannot reach.
func (s *Scorer) routeDistance(a, b model.Point) float64 {
	na, ok := s.graph.NearestNode(a)
	if !ok {
		return model.Distance(a, b)
	}
	nb, ok := s.graph.NearestNode(b)
	if !ok {
		return model.Distance(a, b)
	}
	path, ok := s.graph.ShortestPath(na, nb)
	if !ok || len(path) < 2 {
		return model.Distance(a, b)
	}
	return roadnet.PathLength(path)
}

// CacheLen returns the number of memoized buckets.
func (s *Scorer) CacheLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func (s *Scorer) key(agent, hub, dropoff model.Point) cacheKey {
	return cacheKey{
		ax: s.bucket(agent.X), ay: s.bucket(agent.Y),
		hx: s.bucket(hub.X), hy: s.bucket(hub.Y),
		dx: s.bucket(dropoff.X), dy: s.bucket(dropoff.Y),
	}
}

func (s *Scorer) bucket(v float64) int64 {
	return int64(math.Round(v / s.grid))
}

// NearestEntrance returns the hub entrance of t closest to pos. ok is
// false when the task has no entrances.
func NearestEntrance(pos model.Point, t model.Task) (model.Point, bool) {
	return roadnet.Nearest(pos, t.Entrances)
}

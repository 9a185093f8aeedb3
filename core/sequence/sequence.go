package sequence

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/core/roadnet"
)

// DistanceFunc rates the travel cost between two points. Implementations
// return +Inf for pairs that cannot be connected; the sequencer treats
// such hops as disqualifying.
type DistanceFunc func(a, b model.Point) float64

// MaxExhaustive is the largest destination count solved by exhaustive
// permutation search. Factorial growth makes anything bigger blow the
// tick budget, so larger sets fall back to a 2-opt improved construction.
const MaxExhaustive = 6

// improveEps mirrors the improvement threshold of the 2-opt pass: swaps
// must beat the incumbent by more than a rounding error to count.
const improveEps = 1e-3

// Order returns the visiting order of dests (as indices into dests) that
// minimizes the total travel cost starting from start. Up to
// MaxExhaustive destinations every permutation is tried and the first
// strictly better one wins, so the result is deterministic. Permutations
// containing an unreachable hop are disqualified; if no permutation is
// feasible the identity order is returned so the caller still has a
// queue to work through.
func Order(start model.Point, dests []model.Point, dist DistanceFunc) []int {
	n := len(dests)
	switch n {
	case 0:
		return []int{}
	case 1:
		return []int{0}
	}

	if n > MaxExhaustive {
		order := nearestNeighborOrder(start, dests, dist)
		return twoOptImprove(start, dests, order, dist)
	}

	best := identity(n)
	bestCost := Cost(start, dests, best, dist)

	gen := combin.NewPermutationGenerator(n, n)
	perm := make([]int, n)
	for gen.Next() {
		gen.Permutation(perm)
		c := Cost(start, dests, perm, dist)
		if c < bestCost {
			bestCost = c
			best = append([]int(nil), perm...)
		}
	}
	return best
}

// Cost sums the travel cost of visiting dests in the given order from
// start. An unreachable hop makes the whole order +Inf.
func Cost(start model.Point, dests []model.Point, order []int, dist DistanceFunc) float64 {
	if len(order) == 0 {
		return 0
	}
	total := dist(start, dests[order[0]])
	if math.IsInf(total, 1) {
		return math.Inf(1)
	}
	for i := 1; i < len(order); i++ {
		d := dist(dests[order[i-1]], dests[order[i]])
		if math.IsInf(d, 1) {
			return math.Inf(1)
		}
		total += d
	}
	return total
}

// Apply reorders dests by order into a new slice.
func Apply(dests []model.Point, order []int) []model.Point {
	out := make([]model.Point, len(order))
	for i, idx := range order {
		out[i] = dests[idx]
	}
	return out
}

// GraphDistance adapts a road graph into a DistanceFunc. Endpoints snap
// to their nearest graph nodes; a missing connection is +Inf, never a
// straight-line guess, because the resulting order must be drivable.
func GraphDistance(g *roadnet.Graph) DistanceFunc {
	return func(a, b model.Point) float64 {
		na, ok := g.NearestNode(a)
		if !ok {
			return math.Inf(1)
		}
		nb, ok := g.NearestNode(b)
		if !ok {
			return math.Inf(1)
		}
		path, ok := g.ShortestPath(na, nb)
		if !ok {
			return math.Inf(1)
		}
		return roadnet.PathLength(path)
	}
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// nearestNeighborOrder builds a tour greedily: always drive to the
// closest unvisited destination. Unreachable remainders are appended in
// index order.
func nearestNeighborOrder(start model.Point, dests []model.Point, dist DistanceFunc) []int {
	n := len(dests)
	order := make([]int, 0, n)
	used := make([]bool, n)
	pos := start

	for len(order) < n {
		next := -1
		nextCost := math.Inf(1)
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			if d := dist(pos, dests[i]); d < nextCost {
				next = i
				nextCost = d
			}
		}
		if next == -1 {
			for i := 0; i < n; i++ {
				if !used[i] {
					order = append(order, i)
					used[i] = true
				}
			}
			break
		}
		order = append(order, next)
		used[next] = true
		pos = dests[next]
	}
	return order
}

// twoOptImprove applies 2-opt segment reversals until no swap improves
// the tour. The start point is fixed; any prefix of the order may be
// reversed.
func twoOptImprove(start model.Point, dests []model.Point, order []int, dist DistanceFunc) []int {
	best := append([]int(nil), order...)
	bestCost := Cost(start, dests, best, dist)
	n := len(best)

	for {
		improved := false
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				cand := twoOptSwap(best, i, k)
				if c := Cost(start, dests, cand, dist); c+improveEps < bestCost {
					best = cand
					bestCost = c
					improved = true
				}
			}
		}
		if !improved {
			return best
		}
	}
}

// twoOptSwap reverses order[i..k].
func twoOptSwap(order []int, i, k int) []int {
	out := make([]int, len(order))
	copy(out, order[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = order[j]
		pos++
	}
	copy(out[pos:], order[k+1:])
	return out
}

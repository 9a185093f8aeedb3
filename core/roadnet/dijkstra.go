package roadnet

import (
	"container/heap"

	"github.com/fleetiq/courier/core/model"
)

// pathNode for the Dijkstra priority queue.
type pathNode struct {
	at     model.Point
	cost   float64
	parent *pathNode
	seq    int // push order, breaks cost ties deterministically
	index  int // heap index
}

// pathHeap implements heap.Interface ordered by cumulative cost.
type pathHeap []*pathNode

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return h[i].seq < h[j].seq
}
func (h pathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *pathHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// ShortestPath runs Dijkstra from start to end and returns the waypoint
// sequence including both endpoints. ok is false when either endpoint is
// not a graph node or no connection exists; an unreachable goal is a
// normal outcome, not an error. Equal-cost alternatives resolve to the
// same path on every run.
func (g *Graph) ShortestPath(start, end model.Point) ([]model.Point, bool) {
	if !g.Contains(start) || !g.Contains(end) {
		return nil, false
	}
	if start == end {
		return []model.Point{start}, true
	}

	open := &pathHeap{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &pathNode{at: start, cost: 0, seq: seq})

	settled := make(map[model.Point]bool, len(g.nodes))

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if current.at == end {
			return reconstruct(current), true
		}
		if settled[current.at] {
			continue
		}
		settled[current.at] = true

		for _, arc := range g.adj[current.at] {
			if settled[arc.To] {
				continue
			}
			seq++
			heap.Push(open, &pathNode{
				at:     arc.To,
				cost:   current.cost + arc.Weight,
				parent: current,
				seq:    seq,
			})
		}
	}
	return nil, false
}

func reconstruct(node *pathNode) []model.Point {
	var count int
	for n := node; n != nil; n = n.parent {
		count++
	}
	path := make([]model.Point, count)
	for n := node; n != nil; n = n.parent {
		count--
		path[count] = n.at
	}
	return path
}

package roadnet

import (
	"testing"

	"github.com/fleetiq/courier/core/model"
)

func squareGraph() *Graph {
	// 1000mm square, edges along the perimeter only.
	a := model.Point{X: 0, Y: 0}
	b := model.Point{X: 1000, Y: 0}
	c := model.Point{X: 1000, Y: 1000}
	d := model.Point{X: 0, Y: 1000}
	segs := []model.Segment{
		{Start: a, End: b},
		{Start: b, End: c},
		{Start: c, End: d},
		{Start: d, End: a},
	}
	return Build(segs, []model.Point{a, b, c, d})
}

func TestShortestPathSquare(t *testing.T) {
	g := squareGraph()
	start := model.Point{X: 0, Y: 0}
	end := model.Point{X: 1000, Y: 1000}

	path, ok := g.ShortestPath(start, end)
	if !ok {
		t.Fatal("expected a path across the square")
	}
	if got := PathLength(path); got != 2000 {
		t.Fatalf("expected length 2000 got %v", got)
	}
	if path[0] != start || path[len(path)-1] != end {
		t.Fatalf("path endpoints wrong: %v", path)
	}
	// Two equal-cost routes exist; the first pushed neighbor must win.
	want := model.Point{X: 1000, Y: 0}
	if path[1] != want {
		t.Fatalf("expected deterministic route via %v got %v", want, path[1])
	}
}

func TestShortestPathDeterministic(t *testing.T) {
	g := squareGraph()
	start := model.Point{X: 0, Y: 0}
	end := model.Point{X: 1000, Y: 1000}

	first, ok := g.ShortestPath(start, end)
	if !ok {
		t.Fatal("expected a path")
	}
	for i := 0; i < 20; i++ {
		path, ok := g.ShortestPath(start, end)
		if !ok {
			t.Fatal("expected a path")
		}
		if len(path) != len(first) {
			t.Fatalf("run %d: path length changed: %v vs %v", i, path, first)
		}
		for j := range path {
			if path[j] != first[j] {
				t.Fatalf("run %d: path diverged at hop %d: %v vs %v", i, j, path, first)
			}
		}
	}
}

func TestShortestPathPrefersShorterRoute(t *testing.T) {
	a := model.Point{X: 0, Y: 0}
	b := model.Point{X: 0, Y: 300}
	c := model.Point{X: 400, Y: 300}
	segs := []model.Segment{
		{Start: a, End: b},
		{Start: b, End: c},
		{Start: a, End: c}, // direct, 500mm vs 700mm detour
	}
	g := Build(segs, []model.Point{a, b, c})

	path, ok := g.ShortestPath(a, c)
	if !ok {
		t.Fatal("expected a path")
	}
	if len(path) != 2 {
		t.Fatalf("expected direct 2-hop path got %v", path)
	}
	if got := PathLength(path); got != 500 {
		t.Fatalf("expected length 500 got %v", got)
	}
}

func TestShortestPathDisconnected(t *testing.T) {
	a := model.Point{X: 0, Y: 0}
	b := model.Point{X: 1000, Y: 0}
	island := model.Point{X: 5000, Y: 5000}
	g := Build([]model.Segment{{Start: a, End: b}}, []model.Point{a, b, island})

	if _, ok := g.ShortestPath(a, island); ok {
		t.Fatal("expected no path to the isolated node")
	}
}

func TestShortestPathUnknownEndpoint(t *testing.T) {
	g := squareGraph()
	if _, ok := g.ShortestPath(model.Point{X: 7, Y: 7}, model.Point{X: 0, Y: 0}); ok {
		t.Fatal("expected failure for a start outside the graph")
	}
}

func TestShortestPathSameNode(t *testing.T) {
	g := squareGraph()
	p := model.Point{X: 0, Y: 0}
	path, ok := g.ShortestPath(p, p)
	if !ok || len(path) != 1 || path[0] != p {
		t.Fatalf("expected single-point path got %v ok=%v", path, ok)
	}
}

func TestBuildDropsSegmentsWithInvalidEndpoints(t *testing.T) {
	a := model.Point{X: 0, Y: 0}
	b := model.Point{X: 1000, Y: 0}
	ghost := model.Point{X: 1, Y: 1}
	segs := []model.Segment{
		{Start: a, End: b},
		{Start: a, End: ghost}, // ghost is not a valid point
	}
	g := Build(segs, []model.Point{a, b})

	if g.Len() != 2 {
		t.Fatalf("expected 2 nodes got %d", g.Len())
	}
	if arcs := g.Neighbors(a); len(arcs) != 1 || arcs[0].To != b {
		t.Fatalf("expected a single arc a->b got %v", arcs)
	}
}

func TestNearestNodeTieKeepsBuildOrder(t *testing.T) {
	a := model.Point{X: 100, Y: 0}
	b := model.Point{X: -100, Y: 0}
	g := Build(nil, []model.Point{a, b})

	got, ok := g.NearestNode(model.Point{X: 0, Y: 0})
	if !ok {
		t.Fatal("expected a node")
	}
	if got != a {
		t.Fatalf("expected tie to keep first node %v got %v", a, got)
	}
}

func TestNearestEmpty(t *testing.T) {
	if _, ok := Nearest(model.Point{}, nil); ok {
		t.Fatal("expected ok=false for empty candidates")
	}
}

func TestPathLength(t *testing.T) {
	path := []model.Point{{X: 0, Y: 0}, {X: 300, Y: 0}, {X: 300, Y: 400}}
	if got := PathLength(path); got != 700 {
		t.Fatalf("expected 700 got %v", got)
	}
	if got := PathLength(path[:1]); got != 0 {
		t.Fatalf("expected 0 for single point got %v", got)
	}
}

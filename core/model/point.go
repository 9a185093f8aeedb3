package model

import (
	"fmt"
	"math"
)

// Point is a position on the course in millimetres. Coordinates are
// compared exactly: two points are the same graph node only when both
// coordinates match bit for bit.
type Point struct {
	X float64
	Y float64
}

// String returns a compact human-readable representation.
func (p Point) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// DistanceTo returns the Euclidean distance to q in millimetres.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Distance returns the Euclidean distance between a and b in millimetres.
func Distance(a, b Point) float64 {
	return a.DistanceTo(b)
}

// Segment is a drivable street between two endpoints. Travel is allowed
// in both directions.
type Segment struct {
	Start Point
	End   Point
}

// Length returns the segment length in millimetres.
func (s Segment) Length() float64 {
	return Distance(s.Start, s.End)
}

// RoadNetwork is the raw course description reported by the coordinator:
// the set of street segments and the set of valid waypoints. Segments
// whose endpoints are not both valid waypoints must be ignored when
// building a routable graph.
type RoadNetwork struct {
	Segments []Segment
	Points   []Point
}

// Validate checks that the network is usable for routing.
func (n RoadNetwork) Validate() error {
	if len(n.Points) == 0 {
		return fmt.Errorf("road network has no valid points")
	}
	if len(n.Segments) == 0 {
		return fmt.Errorf("road network has no segments")
	}
	return nil
}

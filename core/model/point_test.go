package model

import "testing"

func TestDistance(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}
	if d := Distance(a, b); d != 5 {
		t.Fatalf("expected 5 got %v", d)
	}
}

func TestRoadNetworkValidate(t *testing.T) {
	n := RoadNetwork{}
	if err := n.Validate(); err == nil {
		t.Fatal("expected error for empty network")
	}
	n = RoadNetwork{
		Points:   []Point{{0, 0}, {1, 0}},
		Segments: []Segment{{Start: Point{0, 0}, End: Point{1, 0}}},
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskValidate(t *testing.T) {
	task := Task{ID: "pkg-1"}
	if err := task.Validate(); err == nil {
		t.Fatal("expected error for task without entrances")
	}
	task.Entrances = []Point{{100, 100}}
	if err := task.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskStatusString(t *testing.T) {
	cases := map[TaskStatus]string{
		TaskAvailable:  "available",
		TaskClaimed:    "claimed",
		TaskOwned:      "owned",
		TaskDelivered:  "delivered",
		TaskStatus(42): "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("status %d: expected %q got %q", status, want, got)
		}
	}
}

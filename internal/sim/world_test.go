package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fleetiq/courier/core/model"
)

func TestGridCourse(t *testing.T) {
	c := GridCourse(3, 2, 100)

	if len(c.Points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(c.Points))
	}
	if len(c.Segments) != 7 {
		t.Fatalf("expected 7 segments, got %d", len(c.Segments))
	}
	if len(c.Entrances) != 2 {
		t.Fatalf("expected 2 entrances, got %d", len(c.Entrances))
	}
	for _, e := range c.Entrances {
		if e.X != 0 {
			t.Fatalf("entrance %v is not on the hub column", e)
		}
	}
}

func TestSeedPackagesDeterministic(t *testing.T) {
	c := GridCourse(4, 3, 500)

	a := c.SeedPackages(5, rand.New(rand.NewSource(7)))
	b := c.SeedPackages(5, rand.New(rand.NewSource(7)))

	if len(a) != 5 {
		t.Fatalf("expected 5 packages, got %d", len(a))
	}
	for id, pkg := range a {
		if pkg.Status != StatusAvailable {
			t.Fatalf("package %s not available at start", id)
		}
		if pkg.Dropoff.X <= 0 {
			t.Fatalf("package %s dropoff %v is on the hub column", id, pkg.Dropoff)
		}
		if len(pkg.Entrances) != len(c.Entrances) {
			t.Fatalf("package %s entrances = %d, want %d", id, len(pkg.Entrances), len(c.Entrances))
		}
		if b[id].Dropoff != pkg.Dropoff {
			t.Fatalf("same seed produced different dropoffs for %s", id)
		}
	}
}

func TestVehicleFollowsRoute(t *testing.T) {
	w, err := NewWorld(Config{Vehicles: 1, Packages: 1, SpeedMMPerS: 500}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}

	route := []model.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}
	if err := w.SetRoute(1, route, "alpha"); err != nil {
		t.Fatalf("SetRoute: %v", err)
	}

	w.Tick(0.1) // 50mm
	v, ok := w.Car(1)
	if !ok {
		t.Fatalf("car 1 missing")
	}
	if math.Abs(v.Position.X-50) > 1e-9 || v.Position.Y != 0 {
		t.Fatalf("position after one tick = %v, want (50, 0)", v.Position)
	}
	if v.Speed != 500 {
		t.Fatalf("speed while driving = %v, want 500", v.Speed)
	}

	w.Tick(0.1)
	w.Tick(0.1)
	v, _ = w.Car(1)
	if v.Position.X != 100 || v.Position.Y != 0 {
		t.Fatalf("final position = %v, want (100, 0)", v.Position)
	}
	if len(v.Route) != 0 {
		t.Fatalf("route not consumed: %v", v.Route)
	}
	if v.Speed != 0 {
		t.Fatalf("speed at rest = %v, want 0", v.Speed)
	}

	travel := w.Standings()["alpha"].Travel
	if math.Abs(travel-100) > 1e-9 {
		t.Fatalf("travel = %v, want 100", travel)
	}
}

func TestPickupSingleOwner(t *testing.T) {
	w, err := NewWorld(Config{Vehicles: 2, Packages: 1}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}

	var wg sync.WaitGroup
	var wins int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			car := n%2 + 1
			if err := w.Pickup(car, "1", fmt.Sprintf("team%d", n%2)); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("package claimed %d times, want exactly once", wins)
	}
	pkg := w.Packages()["1"]
	if pkg.Status != StatusOwned {
		t.Fatalf("package status = %d, want owned", pkg.Status)
	}
	if pkg.Owner != 1 && pkg.Owner != 2 {
		t.Fatalf("package owner = %d", pkg.Owner)
	}
}

func TestPickupRequiresProximity(t *testing.T) {
	w, err := NewWorld(Config{Vehicles: 1, Packages: 1}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}

	// Drive the car off the hub before it asks for the parcel.
	if err := w.SetRoute(1, []model.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}}, "alpha"); err != nil {
		t.Fatalf("SetRoute: %v", err)
	}
	w.Tick(2)

	if err := w.Pickup(1, "1", "alpha"); err == nil {
		t.Fatalf("expected pickup to fail away from the hub")
	}
	if pkg := w.Packages()["1"]; pkg.Status != StatusAvailable {
		t.Fatalf("failed pickup changed package status to %d", pkg.Status)
	}
}

func TestPickupErrors(t *testing.T) {
	w, err := NewWorld(Config{Vehicles: 1, Packages: 1}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}

	if err := w.Pickup(9, "1", "alpha"); err == nil {
		t.Fatalf("expected error for unknown car")
	}
	if err := w.Pickup(1, "missing", "alpha"); err == nil {
		t.Fatalf("expected error for unknown package")
	}
	if err := w.Pickup(1, "1", "alpha"); err != nil {
		t.Fatalf("first pickup: %v", err)
	}
	if err := w.Pickup(1, "1", "alpha"); err == nil {
		t.Fatalf("expected error for double pickup")
	}
}

func TestDeliveryFlipsPackageAndScores(t *testing.T) {
	w, err := NewWorld(Config{Vehicles: 1, Packages: 1, SpeedMMPerS: 1000}, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	w.packages["1"].Dropoff = model.Point{X: 1000, Y: 0}

	if err := w.Pickup(1, "1", "alpha"); err != nil {
		t.Fatalf("Pickup: %v", err)
	}
	if err := w.SetRoute(1, []model.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}}, "alpha"); err != nil {
		t.Fatalf("SetRoute: %v", err)
	}

	for i := 0; i < 20 && w.Delivered() == 0; i++ {
		w.Tick(0.1)
	}

	if w.Delivered() != 1 {
		t.Fatalf("package never delivered")
	}
	if pkg := w.Packages()["1"]; pkg.Status != StatusDelivered {
		t.Fatalf("package status = %d, want delivered", pkg.Status)
	}
	v, _ := w.Car(1)
	if len(v.Owned) != 0 {
		t.Fatalf("car still owns %v after delivery", v.Owned)
	}
	score := w.Standings()["alpha"]
	if score.Points != 1 {
		t.Fatalf("points = %v, want 1", score.Points)
	}
	if score.Travel <= 0 {
		t.Fatalf("travel not accumulated")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"no vehicles", func(c *Config) { c.Vehicles = -1 }},
		{"no packages", func(c *Config) { c.Packages = -1 }},
		{"tiny grid", func(c *Config) { c.Cols = 1 }},
		{"bad spacing", func(c *Config) { c.SpacingMM = -5 }},
		{"bad speed", func(c *Config) { c.SpeedMMPerS = -1 }},
		{"bad tick", func(c *Config) { c.TickMS = -10 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			cfg.SetDefaults()
			tc.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

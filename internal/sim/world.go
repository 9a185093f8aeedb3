// Package sim hosts an in-process coordinator: a simulated course,
// vehicles and parcels behind the same websocket protocol the real
// server speaks. It exists so the fleet can be exercised end to end
// without hardware.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/infra/logger"
)

// Package status codes as they appear on the wire.
const (
	StatusAvailable = 0
	StatusClaimed   = 1
	StatusOwned     = 2
	StatusDelivered = 3
)

// Package is one parcel in the simulated world.
type Package struct {
	ID        string
	Status    int
	Entrances []model.Point
	Dropoff   model.Point
	Owner     int
	Team      string
}

// Vehicle is one simulated car.
type Vehicle struct {
	ID          int
	Team        string
	Position    model.Point
	Orientation float64
	Speed       float64
	Route       []model.Point
	Owned       []string
}

// Score is one team's scoreboard entry.
type Score struct {
	Points float64
	Travel float64
}

// Config shapes the simulated world.
type Config struct {
	Vehicles           int
	Packages           int
	Cols               int
	Rows               int
	SpacingMM          float64
	SpeedMMPerS        float64
	TickMS             int
	PickupToleranceMM  float64
	DeliverToleranceMM float64
	Seed               int64
}

// SetDefaults fills unset fields with a small playable world.
func (c *Config) SetDefaults() {
	if c.Vehicles == 0 {
		c.Vehicles = 2
	}
	if c.Packages == 0 {
		c.Packages = 8
	}
	if c.Cols == 0 {
		c.Cols = 6
	}
	if c.Rows == 0 {
		c.Rows = 4
	}
	if c.SpacingMM == 0 {
		c.SpacingMM = 1000
	}
	if c.SpeedMMPerS == 0 {
		c.SpeedMMPerS = 500
	}
	if c.TickMS == 0 {
		c.TickMS = 50
	}
	if c.PickupToleranceMM == 0 {
		c.PickupToleranceMM = 36
	}
	if c.DeliverToleranceMM == 0 {
		c.DeliverToleranceMM = 36
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

// Validate checks the configuration for impossible worlds.
func (c Config) Validate() error {
	if c.Vehicles < 1 {
		return fmt.Errorf("at least one vehicle is required")
	}
	if c.Packages < 1 {
		return fmt.Errorf("at least one package is required")
	}
	if c.Cols < 2 || c.Rows < 1 {
		return fmt.Errorf("grid must be at least 2x1, got %dx%d", c.Cols, c.Rows)
	}
	if c.SpacingMM <= 0 {
		return fmt.Errorf("spacing must be positive")
	}
	if c.SpeedMMPerS <= 0 {
		return fmt.Errorf("speed must be positive")
	}
	if c.TickMS < 1 {
		return fmt.Errorf("tick must be at least 1ms")
	}
	return nil
}

// World owns the mutable state of the simulation. All access goes
// through the mutex: websocket handlers and the tick loop share it.
type World struct {
	mu       sync.Mutex
	cfg      Config
	course   Course
	vehicles map[int]*Vehicle
	packages map[string]*Package
	teams    map[string]*Score
	log      logger.Logger
}

// NewWorld builds a world from cfg, seeding packages and parking the
// vehicles on the hub entrances.
func NewWorld(cfg Config, log logger.Logger) (*World, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	course := GridCourse(cfg.Cols, cfg.Rows, cfg.SpacingMM)
	rng := rand.New(rand.NewSource(cfg.Seed))
	w := &World{
		cfg:      cfg,
		course:   course,
		vehicles: make(map[int]*Vehicle, cfg.Vehicles),
		packages: course.SeedPackages(cfg.Packages, rng),
		teams:    make(map[string]*Score),
		log:      log,
	}
	for i := 0; i < cfg.Vehicles; i++ {
		id := i + 1
		w.vehicles[id] = &Vehicle{ID: id, Position: course.Entrances[i%len(course.Entrances)]}
	}
	return w, nil
}

// Run ticks the world until ctx is done.
func (w *World) Run(ctx context.Context) {
	tick := time.Duration(w.cfg.TickMS) * time.Millisecond
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Tick(tick.Seconds())
		case <-ctx.Done():
			return
		}
	}
}

// Tick advances every vehicle by dt seconds and settles deliveries.
func (w *World) Tick(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, v := range w.vehicles {
		w.move(v, w.cfg.SpeedMMPerS*dt)
		w.deliver(v)
	}
}

func (w *World) move(v *Vehicle, dist float64) {
	if len(v.Route) == 0 {
		v.Speed = 0
		return
	}
	v.Speed = w.cfg.SpeedMMPerS
	travelled := 0.0
	for dist > 0 && len(v.Route) > 0 {
		next := v.Route[0]
		gap := model.Distance(v.Position, next)
		if gap <= dist {
			v.Position = next
			v.Route = v.Route[1:]
			dist -= gap
			travelled += gap
			continue
		}
		v.Orientation = math.Atan2(next.Y-v.Position.Y, next.X-v.Position.X)
		v.Position.X += (next.X - v.Position.X) / gap * dist
		v.Position.Y += (next.Y - v.Position.Y) / gap * dist
		travelled += dist
		dist = 0
	}
	if len(v.Route) == 0 {
		v.Speed = 0
	}
	if v.Team != "" && travelled > 0 {
		w.team(v.Team).Travel += travelled
	}
}

func (w *World) deliver(v *Vehicle) {
	kept := v.Owned[:0]
	for _, id := range v.Owned {
		pkg := w.packages[id]
		if pkg == nil {
			continue
		}
		if model.Distance(v.Position, pkg.Dropoff) <= w.cfg.DeliverToleranceMM {
			pkg.Status = StatusDelivered
			if pkg.Team != "" {
				w.team(pkg.Team).Points++
			}
			w.log.Infof("car %d delivered package %s at (%.0f, %.0f)", v.ID, id, pkg.Dropoff.X, pkg.Dropoff.Y)
			continue
		}
		kept = append(kept, id)
	}
	v.Owned = kept
}

func (w *World) team(name string) *Score {
	s, ok := w.teams[name]
	if !ok {
		s = &Score{}
		w.teams[name] = s
	}
	return s
}

// EnsureTeam registers a team on the scoreboard.
func (w *World) EnsureTeam(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.team(name)
}

// AssignedCars lists the vehicle ids in ascending order.
func (w *World) AssignedCars() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]int, 0, len(w.vehicles))
	for id := range w.vehicles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Road exposes the static course.
func (w *World) Road() Course {
	return w.course
}

// Packages snapshots every parcel.
func (w *World) Packages() map[string]Package {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]Package, len(w.packages))
	for id, p := range w.packages {
		out[id] = *p
	}
	return out
}

// Car snapshots one vehicle.
func (w *World) Car(id int) (Vehicle, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.vehicles[id]
	if !ok {
		return Vehicle{}, false
	}
	out := *v
	out.Route = append([]model.Point(nil), v.Route...)
	out.Owned = append([]string(nil), v.Owned...)
	return out, true
}

// SetRoute replaces a vehicle's waypoint list.
func (w *World) SetRoute(id int, route []model.Point, team string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.vehicles[id]
	if !ok {
		return fmt.Errorf("unknown car %d", id)
	}
	v.Route = route
	if team != "" {
		v.Team = team
	}
	return nil
}

// Pickup transfers an available package onto a vehicle standing at a
// hub entrance. The mutex makes the claim atomic: at most one team
// ever owns a package.
func (w *World) Pickup(id int, pkgID, team string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.vehicles[id]
	if !ok {
		return fmt.Errorf("unknown car %d", id)
	}
	pkg, ok := w.packages[pkgID]
	if !ok {
		return fmt.Errorf("unknown package %s", pkgID)
	}
	if pkg.Status != StatusAvailable {
		return fmt.Errorf("package %s already claimed", pkgID)
	}
	if !w.nearEntrance(v.Position, pkg.Entrances) {
		return fmt.Errorf("car %d is not at a hub entrance", id)
	}
	pkg.Status = StatusOwned
	pkg.Owner = id
	pkg.Team = team
	v.Owned = append(v.Owned, pkgID)
	if team != "" {
		v.Team = team
	}
	w.log.Infof("car %d picked up package %s", id, pkgID)
	return nil
}

func (w *World) nearEntrance(pos model.Point, entrances []model.Point) bool {
	for _, e := range entrances {
		if model.Distance(pos, e) <= w.cfg.PickupToleranceMM {
			return true
		}
	}
	return false
}

// PlacePackage pins a parcel's dropoff, creating the parcel at the hub
// when the id is new. Scenario tooling uses it to lay out deterministic
// worlds on top of the seeded one.
func (w *World) PlacePackage(id string, dropoff model.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	pkg, ok := w.packages[id]
	if !ok {
		pkg = &Package{
			ID:        id,
			Status:    StatusAvailable,
			Entrances: append([]model.Point(nil), w.course.Entrances...),
		}
		w.packages[id] = pkg
	}
	pkg.Dropoff = dropoff
}

// Standings snapshots the scoreboard.
func (w *World) Standings() map[string]Score {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]Score, len(w.teams))
	for name, s := range w.teams {
		out[name] = *s
	}
	return out
}

// Delivered counts packages that reached their dropoff.
func (w *World) Delivered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, p := range w.packages {
		if p.Status == StatusDelivered {
			n++
		}
	}
	return n
}

package sim

import (
	"math/rand"
	"strconv"

	"github.com/fleetiq/courier/core/model"
)

// Course is a static street grid with a parcel hub on its west edge.
type Course struct {
	Points    []model.Point
	Segments  []model.Segment
	Entrances []model.Point
}

// GridCourse builds a cols x rows grid with the given node spacing.
// Every column-0 node doubles as a hub entrance.
func GridCourse(cols, rows int, spacingMM float64) Course {
	at := func(i, j int) model.Point {
		return model.Point{X: float64(i) * spacingMM, Y: float64(j) * spacingMM}
	}
	var c Course
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			p := at(i, j)
			c.Points = append(c.Points, p)
			if i+1 < cols {
				c.Segments = append(c.Segments, model.Segment{Start: p, End: at(i+1, j)})
			}
			if j+1 < rows {
				c.Segments = append(c.Segments, model.Segment{Start: p, End: at(i, j+1)})
			}
		}
	}
	for j := 0; j < rows; j++ {
		c.Entrances = append(c.Entrances, at(0, j))
	}
	return c
}

// SeedPackages places n parcels at the hub with dropoffs spread over the
// non-hub nodes. Same seed, same layout.
func (c Course) SeedPackages(n int, rng *rand.Rand) map[string]*Package {
	var spots []model.Point
	for _, p := range c.Points {
		if p.X > 0 {
			spots = append(spots, p)
		}
	}
	pkgs := make(map[string]*Package, n)
	for i := 0; i < n; i++ {
		id := strconv.Itoa(i + 1)
		pkgs[id] = &Package{
			ID:        id,
			Status:    StatusAvailable,
			Entrances: append([]model.Point(nil), c.Entrances...),
			Dropoff:   spots[rng.Intn(len(spots))],
		}
	}
	return pkgs
}

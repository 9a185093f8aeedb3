package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fleetiq/courier/core/model"
)

type GridDef struct {
	Cols      int     `yaml:"cols"`
	Rows      int     `yaml:"rows"`
	SpacingMM float64 `yaml:"spacing_mm"`
}

type AgentsDef struct {
	Count    int `yaml:"count"`
	Capacity int `yaml:"capacity"`
}

type PackageDef struct {
	Dropoff []float64 `yaml:"dropoff"`
}

func (p PackageDef) ToPoint() (model.Point, error) {
	if len(p.Dropoff) != 2 {
		return model.Point{}, fmt.Errorf("dropoff needs two coordinates, got %v", p.Dropoff)
	}
	return model.Point{X: p.Dropoff[0], Y: p.Dropoff[1]}, nil
}

type Expected struct {
	Delivered int `yaml:"delivered"`
	MaxTicks  int `yaml:"max_ticks"`
}

type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Grid        GridDef      `yaml:"grid"`
	Agents      AgentsDef    `yaml:"agents"`
	Packages    []PackageDef `yaml:"packages"`
	SpeedMMPerS float64      `yaml:"speed_mm_per_s,omitempty"`
	Expected    Expected     `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

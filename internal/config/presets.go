package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/maze"
	"gonum.org/v1/gonum/spatial/r2"
)

// Presets build a fresh scenario on every call, so callers may edit the
// result freely.
var Presets = map[string]func() *Scenario{
	"fountain":    fountain,
	"dam_break":   damBreak,
	"maze":        generatedMaze,
	"layout_maze": layoutMaze,
}

// fountain is the point source dropping into an empty tank with the stock
// constants.
func fountain() *Scenario {
	s := DefaultScenario()
	s.Name = "fountain"
	s.Ticks = 3000
	return s
}

// liquid is tuned so that a lattice at spacing 10 sits near rest density.
func liquid() fluid.Config {
	cfg := fluid.DefaultConfig()
	cfg.ParticleMass = 1250
	cfg.RestDensity = 1
	cfg.GasConstant = 3000
	cfg.Viscosity = 200
	cfg.Damping = -0.5
	cfg.Gravity = r2.Vec{X: 0, Y: 50}
	return cfg
}

func damBreak() *Scenario {
	cfg := liquid()
	cfg.MaxParticles = 1200
	cfg.SpawnBatch = 0
	cfg.GravityDelayTicks = 50
	cfg.InitialBlock = &fluid.Block{
		Region:  r2.Box{Min: r2.Vec{X: 20, Y: 200}, Max: r2.Vec{X: 300, Y: 590}},
		Spacing: 10,
		Jitter:  0.5,
	}
	return &Scenario{Name: "dam_break", Ticks: 3000, LogEvery: DefaultLogEvery, Fluid: cfg}
}

func mazeFluid(spawn r2.Vec) fluid.Config {
	cfg := liquid()
	cfg.GasConstant = 500
	cfg.MaxParticles = 600
	cfg.SpawnInterval = 10
	cfg.SpawnBatch = 3
	cfg.SpawnPoint = spawn
	cfg.SpawnJitter = 10
	cfg.SpawnVelocity = r2.Vec{X: 20, Y: 0}
	return cfg
}

func generatedMaze() *Scenario {
	m := MazeConfig{
		Enabled:  true,
		Cols:     19,
		Rows:     15,
		CellSize: 40,
		Origin:   r2.Vec{X: 20, Y: 0},
		Seed:     1,
		Braiding: 0.3,
	}
	spawn := maze.Center(maze.Point{X: 1, Y: 1}, m.Origin, m.CellSize)
	spawn.X -= 5
	return &Scenario{Name: "maze", Ticks: 5000, LogEvery: DefaultLogEvery, Fluid: mazeFluid(spawn), Maze: m}
}

func layoutMaze() *Scenario {
	m := MazeConfig{
		Enabled:  true,
		CellSize: 30,
		Origin:   r2.Vec{X: 100, Y: 0},
		Layout:   append([]string(nil), maze.Classic...),
	}
	spawn := maze.Center(maze.Point{X: 1, Y: 1}, m.Origin, m.CellSize)
	spawn.X -= 5
	return &Scenario{Name: "layout_maze", Ticks: 5000, LogEvery: DefaultLogEvery, Fluid: mazeFluid(spawn), Maze: m}
}

func GetPreset(name string) (*Scenario, error) {
	build, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return build(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

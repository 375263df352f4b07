package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/maze"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTicks    = 2000
	DefaultLogEvery = 500
)

var ErrUnknownPreset = errors.New("config: unknown preset")

// MazeConfig adds maze walls to the tank. Layout, when set, is parsed as is;
// otherwise a maze of Cols x Rows is generated from Seed.
type MazeConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Cols     int      `yaml:"cols"`
	Rows     int      `yaml:"rows"`
	CellSize float64  `yaml:"cell_size"`
	Origin   r2.Vec   `yaml:"origin"`
	Seed     int64    `yaml:"seed"`
	Braiding float64  `yaml:"braiding"`
	Layout   []string `yaml:"layout,omitempty"`
}

// Scenario is one runnable setup as stored in a yaml file.
type Scenario struct {
	Name     string       `yaml:"name"`
	Ticks    int          `yaml:"ticks"`
	LogEvery int          `yaml:"log_every"`
	Fluid    fluid.Config `yaml:"fluid"`
	Maze     MazeConfig   `yaml:"maze"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Name:     "default",
		Ticks:    DefaultTicks,
		LogEvery: DefaultLogEvery,
		Fluid:    fluid.DefaultConfig(),
	}
}

// Load reads a scenario file over DefaultScenario, so omitted keys keep their
// defaults.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	s := DefaultScenario()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return s, nil
}

func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Grid builds the maze, or returns nil when it is disabled.
func (s *Scenario) Grid() (maze.Grid, error) {
	m := s.Maze
	if !m.Enabled {
		return nil, nil
	}
	if len(m.Layout) > 0 {
		return maze.Parse(m.Layout)
	}
	return maze.Generate(maze.Config{Cols: m.Cols, Rows: m.Rows, Braiding: m.Braiding, Seed: m.Seed}), nil
}

// FluidConfig returns the engine config with the maze walls appended to the
// obstacles. The scenario itself is not modified.
func (s *Scenario) FluidConfig() (fluid.Config, error) {
	cfg := s.Fluid
	cfg.Obstacles = append([]r2.Box(nil), s.Fluid.Obstacles...)
	if b := s.Fluid.InitialBlock; b != nil {
		block := *b
		cfg.InitialBlock = &block
	}

	grid, err := s.Grid()
	if err != nil {
		return cfg, err
	}
	if grid != nil {
		cfg.Obstacles = append(cfg.Obstacles, grid.Rects(s.Maze.Origin, s.Maze.CellSize)...)
	}
	return cfg, nil
}

// Validate checks the scenario fields and the resulting engine config.
func (s *Scenario) Validate() error {
	if s.Ticks < 0 {
		return fmt.Errorf("config: ticks must not be negative, got %d", s.Ticks)
	}
	if s.LogEvery < 0 {
		return fmt.Errorf("config: log_every must not be negative, got %d", s.LogEvery)
	}
	if s.Maze.Enabled && s.Maze.CellSize <= 0 {
		return fmt.Errorf("config: maze cell_size must be positive, got %g", s.Maze.CellSize)
	}
	cfg, err := s.FluidConfig()
	if err != nil {
		return err
	}
	return cfg.Validate()
}

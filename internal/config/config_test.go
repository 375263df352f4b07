package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestDefaultScenario(t *testing.T) {
	s := DefaultScenario()

	if s.Ticks != DefaultTicks {
		t.Errorf("expected %d ticks, got %d", DefaultTicks, s.Ticks)
	}
	if s.Maze.Enabled {
		t.Error("maze should be off by default")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default scenario invalid: %v", err)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	data := `
name: tilted
ticks: 50
fluid:
  gravity: {x: 0.5, y: 2}
  max_particles: 42
  external_force_mode: additive-constant
  obstacles:
    - {min: {x: 10, y: 20}, max: {x: 30, y: 40}}
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "tilted" || s.Ticks != 50 {
		t.Errorf("got name %q ticks %d", s.Name, s.Ticks)
	}
	if s.Fluid.Gravity != (r2.Vec{X: 0.5, Y: 2}) {
		t.Errorf("expected gravity (0.5, 2), got %v", s.Fluid.Gravity)
	}
	if s.Fluid.MaxParticles != 42 || s.Fluid.ForceMode != fluid.AdditiveConstant {
		t.Errorf("overlay lost: %+v", s.Fluid)
	}
	if s.Fluid.SmoothingLength != 15 || s.LogEvery != DefaultLogEvery {
		t.Error("omitted keys lost their defaults")
	}
	want := []r2.Box{{Min: r2.Vec{X: 10, Y: 20}, Max: r2.Vec{X: 30, Y: 40}}}
	if !reflect.DeepEqual(s.Fluid.Obstacles, want) {
		t.Errorf("obstacles = %v", s.Fluid.Obstacles)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("ticks: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			want, err := GetPreset(name)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), name+".yaml")
			if err := Save(path, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestPresets_Valid(t *testing.T) {
	for _, name := range ListPresets() {
		s, err := GetPreset(name)
		if err != nil {
			t.Fatalf("GetPreset(%q): %v", name, err)
		}
		if s.Name != name {
			t.Errorf("preset %q names itself %q", name, s.Name)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}
}

func TestPresets_SpawnInsidePassage(t *testing.T) {
	for _, name := range []string{"maze", "layout_maze"} {
		s, _ := GetPreset(name)
		cfg, err := s.FluidConfig()
		if err != nil {
			t.Fatal(err)
		}
		sim, err := fluid.New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		res := sim.Resolver()
		for _, dx := range []float64{0, cfg.SpawnJitter} {
			p := r2.Vec{X: cfg.SpawnPoint.X + dx, Y: cfg.SpawnPoint.Y}
			if res.Overlaps(p, 0) {
				t.Errorf("%s: spawn %v overlaps a wall", name, p)
			}
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if _, err := GetPreset("nonexistent"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestGetPreset_ReturnsCopies(t *testing.T) {
	a, _ := GetPreset("layout_maze")
	a.Maze.Layout[1] = "11111111111111111111"
	a.Fluid.Gravity.Y = 0

	b, _ := GetPreset("layout_maze")
	if b.Maze.Layout[1] == a.Maze.Layout[1] || b.Fluid.Gravity.Y == 0 {
		t.Error("presets share state between calls")
	}
}

func TestListPresets(t *testing.T) {
	want := []string{"dam_break", "fountain", "layout_maze", "maze"}
	if got := ListPresets(); !reflect.DeepEqual(got, want) {
		t.Errorf("ListPresets() = %v, want %v", got, want)
	}
}

func TestFluidConfig_MergesWalls(t *testing.T) {
	s, _ := GetPreset("layout_maze")
	s.Fluid.Obstacles = []r2.Box{{Min: r2.Vec{X: 700, Y: 500}, Max: r2.Vec{X: 750, Y: 550}}}

	cfg, err := s.FluidConfig()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Obstacles) < 2 || cfg.Obstacles[0] != s.Fluid.Obstacles[0] {
		t.Fatalf("expected explicit obstacle first, got %d obstacles", len(cfg.Obstacles))
	}
	if len(s.Fluid.Obstacles) != 1 {
		t.Error("FluidConfig modified the scenario")
	}

	s.Maze.Layout = []string{"10", "1"}
	if _, err := s.FluidConfig(); err == nil {
		t.Error("expected error for ragged layout")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := map[string]func(*Scenario){
		"negative ticks": func(s *Scenario) { s.Ticks = -1 },
		"negative log":   func(s *Scenario) { s.LogEvery = -1 },
		"no cell size":   func(s *Scenario) { s.Maze = MazeConfig{Enabled: true, Cols: 5, Rows: 5} },
		"bad fluid":      func(s *Scenario) { s.Fluid.Dt = 0 },
	}
	for name, edit := range tests {
		t.Run(name, func(t *testing.T) {
			s := DefaultScenario()
			edit(s)
			if err := s.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}

	s := DefaultScenario()
	s.Fluid.Dt = 0
	if err := s.Validate(); !errors.Is(err, fluid.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

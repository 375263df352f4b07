package experiment

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/san-kum/fluidsim/internal/config"
)

var ErrUnknownParam = errors.New("unknown parameter")

// Param reads and writes one numeric field of a scenario.
type Param struct {
	Get func(*config.Scenario) float64
	Set func(*config.Scenario, float64)
}

// Registry maps parameter names, as they appear in scenario files, to their
// accessors.
type Registry struct {
	params map[string]Param
}

func NewRegistry() *Registry {
	r := &Registry{params: make(map[string]Param)}

	r.floatField("smoothing_length", func(s *config.Scenario) *float64 { return &s.Fluid.SmoothingLength })
	r.floatField("particle_mass", func(s *config.Scenario) *float64 { return &s.Fluid.ParticleMass })
	r.floatField("rest_density", func(s *config.Scenario) *float64 { return &s.Fluid.RestDensity })
	r.floatField("gas_constant", func(s *config.Scenario) *float64 { return &s.Fluid.GasConstant })
	r.floatField("viscosity", func(s *config.Scenario) *float64 { return &s.Fluid.Viscosity })
	r.floatField("damping", func(s *config.Scenario) *float64 { return &s.Fluid.Damping })
	r.floatField("dt", func(s *config.Scenario) *float64 { return &s.Fluid.Dt })
	r.floatField("gravity_x", func(s *config.Scenario) *float64 { return &s.Fluid.Gravity.X })
	r.floatField("gravity_y", func(s *config.Scenario) *float64 { return &s.Fluid.Gravity.Y })
	r.floatField("spawn_jitter", func(s *config.Scenario) *float64 { return &s.Fluid.SpawnJitter })
	r.floatField("particle_radius", func(s *config.Scenario) *float64 { return &s.Fluid.ParticleRadius })
	r.floatField("maze_braiding", func(s *config.Scenario) *float64 { return &s.Maze.Braiding })

	r.intField("max_particles", func(s *config.Scenario) *int { return &s.Fluid.MaxParticles })
	r.intField("spawn_interval", func(s *config.Scenario) *int { return &s.Fluid.SpawnInterval })
	r.intField("spawn_batch", func(s *config.Scenario) *int { return &s.Fluid.SpawnBatch })
	r.intField("gravity_delay_ticks", func(s *config.Scenario) *int { return &s.Fluid.GravityDelayTicks })
	r.intField("workers", func(s *config.Scenario) *int { return &s.Fluid.Workers })
	r.intField("ticks", func(s *config.Scenario) *int { return &s.Ticks })

	return r
}

func (r *Registry) floatField(name string, field func(*config.Scenario) *float64) {
	r.params[name] = Param{
		Get: func(s *config.Scenario) float64 { return *field(s) },
		Set: func(s *config.Scenario, v float64) { *field(s) = v },
	}
}

// intField truncates values toward zero.
func (r *Registry) intField(name string, field func(*config.Scenario) *int) {
	r.params[name] = Param{
		Get: func(s *config.Scenario) float64 { return float64(*field(s)) },
		Set: func(s *config.Scenario, v float64) { *field(s) = int(v) },
	}
}

func (r *Registry) Param(name string) (Param, error) {
	p, ok := r.params[name]
	if !ok {
		return Param{}, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return p, nil
}

// Apply sets every named parameter on sc.
func (r *Registry) Apply(sc *config.Scenario, values map[string]float64) error {
	for name, v := range values {
		p, err := r.Param(name)
		if err != nil {
			return err
		}
		p.Set(sc, v)
	}
	return nil
}

// ParseAssignments reads "name=value" pairs, as given to --set.
func (r *Registry) ParseAssignments(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		name = strings.TrimSpace(name)
		if _, err := r.Param(name); err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.params))
	for name := range r.params {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

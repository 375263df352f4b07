// Package fluid implements a 2D Smoothed Particle Hydrodynamics engine.
//
// Each call to [Simulation.Tick] runs a fixed pipeline over a fixed-capacity
// particle arena:
//
//   - inject a batch when one is due
//   - rebuild the neighbor index and query every particle
//   - density and pressure (poly6 kernel, linear equation of state)
//   - pressure, viscosity and gravity forces (spiky and viscosity kernels)
//   - semi-implicit Euler integration
//   - domain clamp and obstacle push-out
//
// Every stage finishes for all particles before the next one starts, so the
// result does not depend on particle order or on Config.Workers.
//
// # Thread Safety
//
// A Simulation is NOT safe for concurrent use. Tick parallelizes internally;
// Snapshot returns copies that may be handed to other goroutines.
package fluid

import (
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/fluidsim/internal/boundary"
	"github.com/san-kum/fluidsim/internal/kernel"
	"github.com/san-kum/fluidsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r2"
)

// Simulation owns the particle arena and everything derived from the config.
type Simulation struct {
	cfg       Config
	kern      kernel.Kernels
	parts     *Particles
	index     spatial.Index
	neighbors [][]spatial.Neighbor
	resolver  *boundary.Resolver
	rng       *rand.Rand
	workers   int
	tick      int
}

// New validates cfg and allocates the arena. Invalid constants yield a
// *ConfigurationError.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	index, _ := spatial.New(cfg.NeighborIndex)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		cfg.Seed = seed
	}

	obstacles := make([]r2.Box, len(cfg.Obstacles))
	copy(obstacles, cfg.Obstacles)
	cfg.Obstacles = obstacles

	s := &Simulation{
		cfg:       cfg,
		kern:      kernel.New(cfg.SmoothingLength, cfg.ParticleMass, cfg.Viscosity),
		parts:     newParticles(cfg.MaxParticles),
		index:     index,
		neighbors: make([][]spatial.Neighbor, cfg.MaxParticles),
		resolver: &boundary.Resolver{
			Domain:    cfg.Domain,
			Obstacles: obstacles,
			Radius:    cfg.ParticleRadius,
			Damping:   cfg.Damping,
		},
		rng:     rand.New(rand.NewSource(seed)),
		workers: cfg.workers(),
	}
	if cfg.InitialBlock != nil {
		s.fillBlock(cfg.InitialBlock)
	}
	return s, nil
}

// Params returns the validated configuration.
func (s *Simulation) Params() Config { return s.cfg }

// Ticks returns the number of completed ticks.
func (s *Simulation) Ticks() int { return s.tick }

// Active returns the number of live particles.
func (s *Simulation) Active() int { return s.parts.Active() }

// Particles exposes the arena for read access between ticks.
func (s *Simulation) Particles() *Particles { return s.parts }

// Resolver returns the boundary resolver built from the config.
func (s *Simulation) Resolver() *boundary.Resolver { return s.resolver }

// Neighbors returns the neighbor list of particle i from the last tick.
func (s *Simulation) Neighbors(i int) []spatial.Neighbor { return s.neighbors[i] }

// Tick advances the simulation by one step. A non-nil error is always a
// *Fault; the tick itself has completed and the state is left in place.
func (s *Simulation) Tick() error {
	s.maybeInject()

	n := s.parts.Active()
	s.updateNeighbors(n)
	s.computeDensity(n)
	s.computeForces(n)
	s.integrate(n)
	s.resolveBoundaries(n)

	tick := s.tick
	s.tick++
	if f := s.check(n); f != nil {
		f.Tick = tick
		return f
	}
	return nil
}

// updateNeighbors rebuilds the index from the current positions and refreshes
// every live particle's neighbor list.
func (s *Simulation) updateNeighbors(n int) {
	s.index.Build(s.parts.Pos[:n], s.cfg.SmoothingLength)
	parallelFor(n, s.workers, func(start, end int) {
		for i := start; i < end; i++ {
			s.neighbors[i] = s.index.Query(i, s.neighbors[i])
		}
	})
}

// check returns the first non-finite density, position or velocity.
func (s *Simulation) check(n int) *Fault {
	p := s.parts
	for i := 0; i < n; i++ {
		switch {
		case !finite(p.Density[i]):
			return &Fault{Particle: i, Quantity: "density", Value: p.Density[i]}
		case !finite(p.Pos[i].X):
			return &Fault{Particle: i, Quantity: "position", Value: p.Pos[i].X}
		case !finite(p.Pos[i].Y):
			return &Fault{Particle: i, Quantity: "position", Value: p.Pos[i].Y}
		case !finite(p.Vel[i].X):
			return &Fault{Particle: i, Quantity: "velocity", Value: p.Vel[i].X}
		case !finite(p.Vel[i].Y):
			return &Fault{Particle: i, Quantity: "velocity", Value: p.Vel[i].Y}
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

package fluid

import "gonum.org/v1/gonum/spatial/r2"

// Snapshot is a copy of the observable state after a tick. It shares no
// memory with the Simulation.
type Snapshot struct {
	Tick       int
	Time       float64
	Positions  []r2.Vec
	Velocities []r2.Vec
	Densities  []float64
	Obstacles  []r2.Box
	Domain     r2.Box
	Radius     float64
	Mass       float64
	Capacity   int
}

// Snapshot copies the live particles and the static geometry.
func (s *Simulation) Snapshot() Snapshot {
	n := s.parts.Active()
	snap := Snapshot{
		Tick:       s.tick,
		Time:       float64(s.tick) * s.cfg.Dt,
		Positions:  make([]r2.Vec, n),
		Velocities: make([]r2.Vec, n),
		Densities:  make([]float64, n),
		Obstacles:  make([]r2.Box, len(s.cfg.Obstacles)),
		Domain:     s.cfg.Domain,
		Radius:     s.cfg.ParticleRadius,
		Mass:       s.cfg.ParticleMass,
		Capacity:   s.parts.Cap(),
	}
	copy(snap.Positions, s.parts.Pos[:n])
	copy(snap.Velocities, s.parts.Vel[:n])
	copy(snap.Densities, s.parts.Density[:n])
	copy(snap.Obstacles, s.cfg.Obstacles)
	return snap
}

// Len returns the number of particles in the snapshot.
func (s Snapshot) Len() int { return len(s.Positions) }

// Speed returns the velocity magnitude of particle i.
func (s Snapshot) Speed(i int) float64 { return r2.Norm(s.Velocities[i]) }

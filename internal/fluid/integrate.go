package fluid

import "gonum.org/v1/gonum/spatial/r2"

// integrate advances the first n particles with semi-implicit Euler: the
// velocity is updated first and the new velocity moves the position.
func (s *Simulation) integrate(n int) {
	p := s.parts
	dt := s.cfg.Dt
	parallelFor(n, s.workers, func(start, end int) {
		for i := start; i < end; i++ {
			p.Vel[i] = r2.Add(p.Vel[i], r2.Scale(dt/p.Density[i], p.Force[i]))
			p.Pos[i] = r2.Add(p.Pos[i], r2.Scale(dt, p.Vel[i]))
		}
	})
}

// resolveBoundaries applies the domain and obstacle constraints.
func (s *Simulation) resolveBoundaries(n int) {
	p := s.parts
	parallelFor(n, s.workers, func(start, end int) {
		for i := start; i < end; i++ {
			s.resolver.Resolve(&p.Pos[i], &p.Vel[i])
		}
	})
}

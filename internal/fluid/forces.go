package fluid

import "gonum.org/v1/gonum/spatial/r2"

// coincident is the distance below which two particles are treated as sharing
// a position; the pressure direction is undefined there and is skipped.
const coincident = 1e-9

// computeForces overwrites Force for the first n particles. It reads only
// densities, pressures, positions and velocities, all final for this tick.
func (s *Simulation) computeForces(n int) {
	p := s.parts
	g := r2.Vec{}
	if s.tick >= s.cfg.GravityDelayTicks {
		g = s.cfg.Gravity
	}
	scaled := s.cfg.ForceMode == DensityScaled

	parallelFor(n, s.workers, func(start, end int) {
		for i := start; i < end; i++ {
			xi, vi, pi := p.Pos[i], p.Vel[i], p.Pressure[i]
			var f r2.Vec
			for _, nb := range s.neighbors[i] {
				j := nb.ID
				if j == i {
					continue
				}
				r, rhoJ := nb.Dist, p.Density[j]

				if r > coincident {
					mag := -(pi + p.Pressure[j]) / (2 * rhoJ) * s.kern.SpikyGrad(r)
					f = r2.Add(f, r2.Scale(mag/r, r2.Sub(xi, p.Pos[j])))
				}
				visc := s.kern.ViscLaplacian(r) / rhoJ
				f = r2.Add(f, r2.Scale(visc, r2.Sub(p.Vel[j], vi)))
			}

			if scaled {
				f = r2.Add(f, r2.Scale(p.Density[i], g))
			} else {
				f = r2.Add(f, g)
			}
			p.Force[i] = f
		}
	})
}

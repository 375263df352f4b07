package fluid

// computeDensity fills Density and Pressure for the first n particles from
// the current neighbor lists. Self is part of every list, so the sum always
// includes the particle's own poly6 weight.
//
// The density floor is applied before pressure is derived and before any
// later stage divides by density. It only guards against division by zero;
// NaN passes through unchanged so the post-tick check can report it.
func (s *Simulation) computeDensity(n int) {
	p := s.parts
	floor := s.cfg.DensityFloor
	k, rest := s.cfg.GasConstant, s.cfg.RestDensity

	parallelFor(n, s.workers, func(start, end int) {
		for i := start; i < end; i++ {
			rho := 0.0
			for _, nb := range s.neighbors[i] {
				rho += s.kern.Poly6(nb.Dist)
			}
			if rho < floor {
				rho = floor
			}
			p.Density[i] = rho
			p.Pressure[i] = k * (rho - rest)
		}
	})
}

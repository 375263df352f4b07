// Package kernel provides the SPH smoothing kernels with their normalization
// constants folded in once per run.
package kernel

import "math"

// Kernels holds poly6 (density), spiky gradient (pressure) and viscosity
// laplacian weights for a fixed smoothing length. Mass and viscosity are
// folded into the constants, so callers only multiply by the field terms.
type Kernels struct {
	H  float64
	H2 float64

	density   float64 // 315 m / (64 pi h^9)
	pressure  float64 // -45 m / (pi h^6)
	viscosity float64 // 45 mu m / (pi h^6)
}

// New precomputes the kernel constants. h must be positive.
func New(h, mass, viscosity float64) Kernels {
	h6 := math.Pow(h, 6)
	h9 := h6 * h * h * h
	return Kernels{
		H:         h,
		H2:        h * h,
		density:   315 * mass / (64 * math.Pi * h9),
		pressure:  -45 * mass / (math.Pi * h6),
		viscosity: 45 * viscosity * mass / (math.Pi * h6),
	}
}

// Poly6 returns m*W_poly6 for a neighbor at distance r.
func (k Kernels) Poly6(r float64) float64 {
	if r >= k.H {
		return 0
	}
	d := k.H2 - r*r
	return k.density * d * d * d
}

// SpikyGrad returns m*W_spiky'(r), the radial derivative of the spiky kernel.
// It is negative inside the support.
func (k Kernels) SpikyGrad(r float64) float64 {
	if r >= k.H {
		return 0
	}
	d := k.H - r
	return k.pressure * d * d
}

// ViscLaplacian returns mu*m*lap(W_visc)(r).
func (k Kernels) ViscLaplacian(r float64) float64 {
	if r >= k.H {
		return 0
	}
	return k.viscosity * (k.H - r)
}

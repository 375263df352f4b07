package fluid

import "gonum.org/v1/gonum/spatial/r2"

// Particles is a fixed-capacity arena. Every slice has length Cap() from the
// start; only the first Active() slots are live. Slots are appended in order
// and never freed, so a particle keeps its index for the whole run.
type Particles struct {
	Pos      []r2.Vec
	Vel      []r2.Vec
	Force    []r2.Vec
	Density  []float64
	Pressure []float64

	active int
}

func newParticles(capacity int) *Particles {
	return &Particles{
		Pos:      make([]r2.Vec, capacity),
		Vel:      make([]r2.Vec, capacity),
		Force:    make([]r2.Vec, capacity),
		Density:  make([]float64, capacity),
		Pressure: make([]float64, capacity),
	}
}

func (p *Particles) Cap() int    { return len(p.Pos) }
func (p *Particles) Active() int { return p.active }
func (p *Particles) Full() bool  { return p.active == len(p.Pos) }

// add writes a particle into the next free slot. It returns false when the
// arena is full.
func (p *Particles) add(pos, vel r2.Vec) bool {
	if p.Full() {
		return false
	}
	i := p.active
	p.Pos[i], p.Vel[i] = pos, vel
	p.Force[i] = r2.Vec{}
	p.Density[i], p.Pressure[i] = 0, 0
	p.active++
	return true
}

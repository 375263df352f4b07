package metrics

import (
	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/spatial/r2"
)

// KineticEnergy is the mean total kinetic energy per tick.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(snap fluid.Snapshot) {
	sum := 0.0
	for _, v := range snap.Velocities {
		sum += r2.Norm2(v)
	}
	e.total += 0.5 * snap.Mass * sum
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// PeakSpeed is the largest particle speed seen during the run.
type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(snap fluid.Snapshot) {
	for i := range snap.Velocities {
		if s := snap.Speed(i); s > p.peak {
			p.peak = s
		}
	}
}

func (p *PeakSpeed) Value() float64 { return p.peak }
func (p *PeakSpeed) Reset()         { p.peak = 0 }

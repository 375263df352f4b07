package metrics

import (
	"math"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// MeanDensity averages the per-tick mean density over the run.
type MeanDensity struct {
	name    string
	total   float64
	samples int
}

func NewMeanDensity() *MeanDensity {
	return &MeanDensity{name: "mean_density"}
}

func (m *MeanDensity) Name() string { return m.name }

func (m *MeanDensity) Observe(snap fluid.Snapshot) {
	if len(snap.Densities) == 0 {
		return
	}
	sum := 0.0
	for _, rho := range snap.Densities {
		sum += rho
	}
	m.total += sum / float64(len(snap.Densities))
	m.samples++
}

func (m *MeanDensity) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanDensity) Reset() {
	m.total = 0
	m.samples = 0
}

// Compression is the largest relative deviation |rho - rest| / rest seen in
// any tick, averaged over particles.
type Compression struct {
	name string
	rest float64
	max  float64
}

func NewCompression(rest float64) *Compression {
	return &Compression{name: "compression", rest: rest}
}

func (c *Compression) Name() string { return c.name }

func (c *Compression) Observe(snap fluid.Snapshot) {
	if len(snap.Densities) == 0 || c.rest == 0 {
		return
	}
	dev := 0.0
	for _, rho := range snap.Densities {
		dev += math.Abs(rho-c.rest) / c.rest
	}
	c.max = math.Max(c.max, dev/float64(len(snap.Densities)))
}

func (c *Compression) Value() float64 { return c.max }
func (c *Compression) Reset()         { c.max = 0 }

// ActiveCount reports the particle count of the last observed tick.
type ActiveCount struct {
	name string
	n    int
}

func NewActiveCount() *ActiveCount { return &ActiveCount{name: "active"} }

func (a *ActiveCount) Name() string                { return a.name }
func (a *ActiveCount) Observe(snap fluid.Snapshot) { a.n = snap.Len() }
func (a *ActiveCount) Value() float64              { return float64(a.n) }
func (a *ActiveCount) Reset()                      { a.n = 0 }

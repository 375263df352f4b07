package sim

import (
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/spatial/r2"
)

// TickStats is one telemetry row, written once per tick.
type TickStats struct {
	Tick          int     `csv:"tick"`
	Time          float64 `csv:"time"`
	Active        int     `csv:"active"`
	KineticEnergy float64 `csv:"kinetic_energy"`
	MaxSpeed      float64 `csv:"max_speed"`
	MeanDensity   float64 `csv:"mean_density"`
	MaxDensity    float64 `csv:"max_density"`
	StepMicros    int64   `csv:"step_us"` // wall time of the engine tick
}

// Measure summarises a snapshot.
func Measure(snap fluid.Snapshot, elapsed time.Duration) TickStats {
	st := TickStats{
		Tick:       snap.Tick,
		Time:       snap.Time,
		Active:     snap.Len(),
		StepMicros: elapsed.Microseconds(),
	}
	if st.Active == 0 {
		return st
	}

	var sumV2, sumRho float64
	for i, v := range snap.Velocities {
		v2 := r2.Norm2(v)
		sumV2 += v2
		st.MaxSpeed = math.Max(st.MaxSpeed, math.Sqrt(v2))

		rho := snap.Densities[i]
		sumRho += rho
		st.MaxDensity = math.Max(st.MaxDensity, rho)
	}
	st.KineticEnergy = 0.5 * snap.Mass * sumV2
	st.MeanDensity = sumRho / float64(st.Active)
	return st
}

// LogValue implements slog.LogValuer for structured logging.
func (s TickStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", s.Tick),
		slog.Float64("time", s.Time),
		slog.Int("active", s.Active),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("mean_density", s.MeanDensity),
		slog.Float64("max_density", s.MaxDensity),
		slog.Int64("step_us", s.StepMicros),
	)
}

// Package metrics holds run-level aggregates over fluid snapshots.
package metrics

import (
	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/sim"
)

// DefaultSpeedLimit is the Stability threshold used by Default: one smoothing
// length per tick.
func DefaultSpeedLimit(cfg fluid.Config) float64 {
	return cfg.SmoothingLength / cfg.Dt
}

// Default returns the metrics the CLI attaches to every run.
func Default(cfg fluid.Config) []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewPeakSpeed(),
		NewMeanDensity(),
		NewCompression(cfg.RestDensity),
		NewStability(DefaultSpeedLimit(cfg)),
		NewActiveCount(),
	}
}

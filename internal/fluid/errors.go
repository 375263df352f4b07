package fluid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every *ConfigurationError.
	ErrInvalidConfig = errors.New("fluid: invalid configuration")

	// ErrNumericalInstability is matched by every *Fault.
	ErrNumericalInstability = errors.New("fluid: numerical instability (NaN or Inf detected)")
)

// ConfigurationError rejects a constant at New time. Tick never returns it.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("fluid: config %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrInvalidConfig }

// Fault reports the first non-finite value found after a tick. The simulation
// state is left as is so the caller can inspect or snapshot it.
type Fault struct {
	Tick     int
	Particle int
	Quantity string // "position", "velocity" or "density"
	Value    float64
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fluid: tick %d: particle %d has non-finite %s (%v)", f.Tick, f.Particle, f.Quantity, f.Value)
}

func (f *Fault) Unwrap() error { return ErrNumericalInstability }

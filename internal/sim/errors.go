package sim

import (
	"errors"
	"fmt"
)

var (
	ErrTerminated    = errors.New("sim: loop terminated")
	ErrBadTransition = errors.New("sim: invalid state transition")
)

// TickError wraps a failure of the engine during a tick.
type TickError struct {
	Tick int
	Err  error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("sim: tick %d: %v", e.Tick, e.Err)
}

func (e *TickError) Unwrap() error { return e.Err }

func badTransition(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, to)
}

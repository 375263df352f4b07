package sim

import (
	"github.com/san-kum/fluidsim/internal/fluid"
)

// State is the phase of a Loop.
type State int

const (
	Idle State = iota
	Stepping
	Rendering
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	case Rendering:
		return "rendering"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// transitions lists the legal successors of each state. Terminated has none.
var transitions = map[State][]State{
	Idle:      {Stepping, Terminated},
	Stepping:  {Rendering, Terminated},
	Rendering: {Idle, Terminated},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Renderer draws a published snapshot. It must not call back into the Loop.
type Renderer interface {
	Render(snap fluid.Snapshot) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(snap fluid.Snapshot) error

func (f RendererFunc) Render(snap fluid.Snapshot) error { return f(snap) }

// Metric aggregates a value over the snapshots of a run.
type Metric interface {
	Name() string
	Observe(snap fluid.Snapshot)
	Value() float64
	Reset()
}

// Observer is notified after every completed tick.
type Observer interface {
	OnTick(snap fluid.Snapshot, stats TickStats)
}

// Result collects what a Run produced, including partial runs that ended in
// an error.
type Result struct {
	Ticks   int
	Stats   []TickStats
	Metrics map[string]float64
	Final   fluid.Snapshot
}

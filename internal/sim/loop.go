// Package sim drives a fluid.Simulation through a small state machine:
//
//	Idle -> Stepping -> Rendering -> Idle
//
// Terminate moves any state to Terminated, which is final. Step runs one full
// cycle; Run repeats it and collects telemetry.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/fluidsim/internal/fluid"
)

type Loop struct {
	sim       *fluid.Simulation
	renderer  Renderer
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
	logEvery  int

	state State
	last  TickStats
}

// New wraps s. renderer may be nil for headless runs.
func New(s *fluid.Simulation, renderer Renderer) *Loop {
	return &Loop{
		sim:       s,
		renderer:  renderer,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    slog.Default(),
	}
}

func (l *Loop) AddMetric(m Metric)     { l.metrics = append(l.metrics, m) }
func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

// SetLogger replaces slog.Default. A nil logger is ignored.
func (l *Loop) SetLogger(logger *slog.Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// SetLogEvery logs TickStats every n ticks. Zero disables periodic logging.
func (l *Loop) SetLogEvery(n int) { l.logEvery = max(n, 0) }

func (l *Loop) State() State                  { return l.state }
func (l *Loop) Simulation() *fluid.Simulation { return l.sim }

// Last returns the stats of the most recent completed tick.
func (l *Loop) Last() TickStats { return l.last }

func (l *Loop) transition(to State) error {
	if l.state == Terminated {
		return ErrTerminated
	}
	if !canTransition(l.state, to) {
		return badTransition(l.state, to)
	}
	l.state = to
	return nil
}

// Terminate stops the loop. Further calls to Step return ErrTerminated.
func (l *Loop) Terminate() {
	if l.state != Terminated {
		l.logger.Debug("loop terminated", "from", l.state.String(), "tick", l.sim.Ticks())
	}
	l.state = Terminated
}

// Step runs one tick and publishes its snapshot. A cancelled ctx terminates
// the loop before the tick starts. Engine faults come back as *TickError and
// also terminate the loop.
func (l *Loop) Step(ctx context.Context) error {
	if l.state == Terminated {
		return ErrTerminated
	}
	if err := ctx.Err(); err != nil {
		l.Terminate()
		return err
	}
	if err := l.transition(Stepping); err != nil {
		return err
	}

	start := time.Now()
	err := l.sim.Tick()
	elapsed := time.Since(start)
	if err != nil {
		tick := l.sim.Ticks() - 1
		l.logger.Error("tick failed", "tick", tick, "err", err)
		l.state = Terminated
		return &TickError{Tick: tick, Err: err}
	}

	if err := l.transition(Rendering); err != nil {
		return err
	}
	snap := l.sim.Snapshot()
	stats := Measure(snap, elapsed)
	l.last = stats

	for _, m := range l.metrics {
		m.Observe(snap)
	}
	for _, obs := range l.observers {
		obs.OnTick(snap, stats)
	}
	if l.renderer != nil {
		if err := l.renderer.Render(snap); err != nil {
			l.state = Terminated
			return fmt.Errorf("sim: render tick %d: %w", stats.Tick, err)
		}
	}
	if l.logEvery > 0 && stats.Tick%l.logEvery == 0 {
		l.logger.Info("tick", "stats", stats)
	}

	return l.transition(Idle)
}

// Run steps until ticks have completed, ctx is done or a tick fails. ticks <= 0
// runs until ctx is done. The result is filled in on every return path.
func (l *Loop) Run(ctx context.Context, ticks int) (*Result, error) {
	res := &Result{
		Stats:   make([]TickStats, 0, max(ticks, 0)),
		Metrics: make(map[string]float64),
	}
	for _, m := range l.metrics {
		m.Reset()
	}

	l.logger.Info("run started",
		"ticks", ticks,
		"active", l.sim.Active(),
		"capacity", l.sim.Particles().Cap(),
	)
	start := time.Now()

	var err error
	for ticks <= 0 || res.Ticks < ticks {
		if err = l.Step(ctx); err != nil {
			break
		}
		res.Ticks++
		res.Stats = append(res.Stats, l.last)
	}

	for _, m := range l.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	res.Final = l.sim.Snapshot()

	switch {
	case err == nil:
		l.logger.Info("run finished", "ticks", res.Ticks, "elapsed", time.Since(start))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		l.logger.Info("run cancelled", "ticks", res.Ticks, "elapsed", time.Since(start))
	default:
		l.logger.Error("run aborted", "ticks", res.Ticks, "err", err)
	}
	return res, err
}

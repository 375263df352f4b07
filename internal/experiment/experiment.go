// Package experiment turns a scenario into a ready-to-run simulation loop with
// the default metrics attached.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
)

type Experiment struct {
	scenario *config.Scenario
	sim      *fluid.Simulation
	loop     *sim.Loop
}

// New validates sc and builds its simulation. renderer may be nil. Time based
// seeds are written back into sc so a saved scenario replays the same run.
func New(sc *config.Scenario, renderer sim.Renderer) (*Experiment, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if sc.Maze.Enabled && len(sc.Maze.Layout) == 0 && sc.Maze.Seed == 0 {
		sc.Maze.Seed = time.Now().UnixNano()
	}
	cfg, err := sc.FluidConfig()
	if err != nil {
		return nil, err
	}
	s, err := fluid.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", sc.Name, err)
	}
	sc.Fluid.Seed = s.Params().Seed

	loop := sim.New(s, renderer)
	for _, m := range metrics.Default(cfg) {
		loop.AddMetric(m)
	}
	loop.SetLogEvery(sc.LogEvery)
	return &Experiment{scenario: sc, sim: s, loop: loop}, nil
}

// Setup attaches observers and a logger before Run.
func (e *Experiment) Setup(logger *slog.Logger, observers ...sim.Observer) {
	e.loop.SetLogger(logger)
	for _, o := range observers {
		e.loop.AddObserver(o)
	}
}

// Run steps the scenario for its configured number of ticks.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.loop.Run(ctx, e.scenario.Ticks)
}

func (e *Experiment) Scenario() *config.Scenario    { return e.scenario }
func (e *Experiment) Loop() *sim.Loop               { return e.loop }
func (e *Experiment) Simulation() *fluid.Simulation { return e.sim }

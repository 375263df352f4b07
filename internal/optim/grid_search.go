// Package optim sweeps scenario parameters over a grid and ranks the runs by
// a metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/experiment"
	"golang.org/x/sync/errgroup"
)

var ErrNoTrials = errors.New("optim: no trial produced the metric")

// Trial is one grid point. Err is set when the run failed; Value is then the
// metric at the failing tick, or NaN.
type Trial struct {
	Params map[string]float64
	Value  float64
	Ticks  int
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	registry   *experiment.Registry
	parallel   int
}

// NewGridSearch sweeps every combination of ranges. params[i] takes the
// values in ranges[i].
func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	reg := experiment.NewRegistry()
	for i, name := range params {
		if _, err := reg.Param(name); err != nil {
			return nil, fmt.Errorf("optim: %w", err)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: %s has no values", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, registry: reg, parallel: 1}, nil
}

// SetParallel runs up to n trials at once.
func (g *GridSearch) SetParallel(n int) { g.parallel = max(n, 1) }

func (g *GridSearch) points() []map[string]float64 {
	out := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(out)*len(g.ranges[i]))
		for _, p := range out {
			for _, v := range g.ranges[i] {
				q := maps.Clone(p)
				q[name] = v
				next = append(next, q)
			}
		}
		out = next
	}
	return out
}

// Search runs base once per grid point and returns every trial in grid order
// plus the one with the lowest finite metric among those that completed.
func (g *GridSearch) Search(ctx context.Context, base *config.Scenario, metricName string) ([]Trial, Trial, error) {
	points := g.points()
	trials := make([]Trial, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallel)
	for i, p := range points {
		eg.Go(func() error {
			trials[i] = g.run(ctx, base, p, metricName)
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return trials, Trial{}, err
	}

	best := -1
	for i, t := range trials {
		if t.Err != nil || math.IsNaN(t.Value) || math.IsInf(t.Value, 0) {
			continue
		}
		if best < 0 || t.Value < trials[best].Value {
			best = i
		}
	}
	if best < 0 {
		return trials, Trial{}, ErrNoTrials
	}
	return trials, trials[best], nil
}

func (g *GridSearch) run(ctx context.Context, base *config.Scenario, params map[string]float64, metricName string) Trial {
	t := Trial{Params: params, Value: math.NaN()}

	sc := *base
	sc.Name = fmt.Sprintf("%s[%s]", base.Name, label(params))
	if err := g.registry.Apply(&sc, params); err != nil {
		t.Err = err
		return t
	}
	exp, err := experiment.New(&sc, nil)
	if err != nil {
		t.Err = err
		return t
	}
	exp.Setup(nil)

	res, err := exp.Run(ctx)
	t.Err = err
	t.Ticks = res.Ticks
	if v, ok := res.Metrics[metricName]; ok {
		t.Value = v
	} else if err == nil {
		t.Err = fmt.Errorf("optim: run has no metric %q", metricName)
	}
	return t
}

func label(params map[string]float64) string {
	s := ""
	for _, k := range slices.Sorted(maps.Keys(params)) {
		if s != "" {
			s += ","
		}
		s += fmt.Sprintf("%s=%g", k, params[k])
	}
	return s
}

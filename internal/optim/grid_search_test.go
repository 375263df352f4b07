package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/experiment"
)

func baseScenario() *config.Scenario {
	sc := config.DefaultScenario()
	sc.Ticks = 6
	sc.LogEvery = 0
	sc.Fluid.Seed = 2
	sc.Fluid.SpawnInterval = 2
	sc.Fluid.Workers = 1
	return sc
}

func TestNewGridSearch_Validates(t *testing.T) {
	if _, err := NewGridSearch([]string{"viscosity"}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := NewGridSearch([]string{"viscosity"}, [][]float64{{}}); err == nil {
		t.Error("expected empty range error")
	}
	if _, err := NewGridSearch([]string{"bogus"}, [][]float64{{1}}); !errors.Is(err, experiment.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestPoints_CoversGrid(t *testing.T) {
	g, err := NewGridSearch([]string{"viscosity", "spawn_batch"}, [][]float64{{1, 2, 3}, {1, 4}})
	if err != nil {
		t.Fatal(err)
	}
	pts := g.points()
	if len(pts) != 6 {
		t.Fatalf("expected 6 points, got %d", len(pts))
	}
	if pts[0]["viscosity"] != 1 || pts[0]["spawn_batch"] != 1 || pts[5]["viscosity"] != 3 || pts[5]["spawn_batch"] != 4 {
		t.Errorf("unexpected order: %v", pts)
	}
}

func TestSearch_FindsMinimum(t *testing.T) {
	g, err := NewGridSearch([]string{"spawn_batch"}, [][]float64{{4, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	g.SetParallel(3)

	base := baseScenario()
	trials, best, err := g.Search(context.Background(), base, "active")
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 3 {
		t.Fatalf("got %d trials", len(trials))
	}
	for _, tr := range trials {
		if tr.Err != nil || tr.Ticks != 6 {
			t.Errorf("trial %v: ticks %d err %v", tr.Params, tr.Ticks, tr.Err)
		}
	}
	if best.Params["spawn_batch"] != 1 || best.Value != 3 {
		t.Errorf("best = %+v", best)
	}
	if base.Fluid.SpawnBatch != config.DefaultScenario().Fluid.SpawnBatch {
		t.Error("search modified the base scenario")
	}
}

func TestSearch_UnknownMetric(t *testing.T) {
	g, _ := NewGridSearch([]string{"viscosity"}, [][]float64{{100}})
	trials, _, err := g.Search(context.Background(), baseScenario(), "nope")
	if !errors.Is(err, ErrNoTrials) {
		t.Errorf("expected ErrNoTrials, got %v", err)
	}
	if trials[0].Err == nil {
		t.Error("trial should record the missing metric")
	}
}

func TestSearch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, _ := NewGridSearch([]string{"viscosity"}, [][]float64{{100, 200}})
	if _, _, err := g.Search(ctx, baseScenario(), "active"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

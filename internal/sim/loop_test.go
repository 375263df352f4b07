package sim

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/spatial/r2"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newSim(t *testing.T) *fluid.Simulation {
	t.Helper()
	cfg := fluid.DefaultConfig()
	cfg.Seed = 1
	cfg.SpawnInterval = 5
	s, err := fluid.New(cfg)
	if err != nil {
		t.Fatalf("fluid.New: %v", err)
	}
	return s
}

type countMetric struct{ n int }

func (c *countMetric) Name() string               { return "count" }
func (c *countMetric) Observe(snap fluid.Snapshot) { c.n++ }
func (c *countMetric) Value() float64             { return float64(c.n) }
func (c *countMetric) Reset()                     { c.n = 0 }

type recorder struct{ ticks []int }

func (r *recorder) OnTick(snap fluid.Snapshot, stats TickStats) {
	r.ticks = append(r.ticks, stats.Tick)
}

func TestStep_CyclesBackToIdle(t *testing.T) {
	var seen []State
	var l *Loop
	l = New(newSim(t), RendererFunc(func(snap fluid.Snapshot) error {
		seen = append(seen, l.State())
		return nil
	}))
	l.SetLogger(quiet())

	for i := 0; i < 3; i++ {
		if err := l.Step(context.Background()); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if l.State() != Idle {
			t.Errorf("after step %d state = %s, want idle", i, l.State())
		}
	}
	for i, s := range seen {
		if s != Rendering {
			t.Errorf("render %d saw state %s, want rendering", i, s)
		}
	}
	if l.Last().Tick != 3 {
		t.Errorf("Last().Tick = %d, want 3", l.Last().Tick)
	}
}

func TestStep_AfterTerminate(t *testing.T) {
	l := New(newSim(t), nil)
	l.SetLogger(quiet())
	l.Terminate()
	l.Terminate()

	if err := l.Step(context.Background()); !errors.Is(err, ErrTerminated) {
		t.Errorf("Step() after Terminate = %v, want ErrTerminated", err)
	}
	if l.Simulation().Ticks() != 0 {
		t.Error("terminated loop advanced the simulation")
	}
}

func TestStep_ReentrantRenderIsRejected(t *testing.T) {
	var inner error
	var l *Loop
	l = New(newSim(t), RendererFunc(func(snap fluid.Snapshot) error {
		inner = l.Step(context.Background())
		return nil
	}))
	l.SetLogger(quiet())

	if err := l.Step(context.Background()); err != nil {
		t.Fatalf("outer step: %v", err)
	}
	if !errors.Is(inner, ErrBadTransition) {
		t.Errorf("nested Step() = %v, want ErrBadTransition", inner)
	}
	if l.Simulation().Ticks() != 1 {
		t.Errorf("Ticks() = %d, want 1", l.Simulation().Ticks())
	}
}

func TestStep_RenderError(t *testing.T) {
	boom := errors.New("terminal gone")
	l := New(newSim(t), RendererFunc(func(fluid.Snapshot) error { return boom }))
	l.SetLogger(quiet())

	if err := l.Step(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Step() = %v, want wrapped render error", err)
	}
	if l.State() != Terminated {
		t.Errorf("state = %s, want terminated", l.State())
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{Idle, Stepping, true},
		{Stepping, Rendering, true},
		{Rendering, Idle, true},
		{Idle, Rendering, false},
		{Stepping, Idle, false},
		{Rendering, Stepping, false},
		{Idle, Terminated, true},
		{Rendering, Terminated, true},
		{Terminated, Idle, false},
	}
	for _, tt := range tests {
		if got := canTransition(tt.from, tt.to); got != tt.ok {
			t.Errorf("canTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestRun_CollectsStatsAndMetrics(t *testing.T) {
	l := New(newSim(t), nil)
	l.SetLogger(quiet())
	m := &countMetric{n: 99}
	rec := &recorder{}
	l.AddMetric(m)
	l.AddObserver(rec)

	res, err := l.Run(context.Background(), 12)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Ticks != 12 || len(res.Stats) != 12 {
		t.Fatalf("Run recorded %d ticks and %d stats, want 12", res.Ticks, len(res.Stats))
	}
	if res.Metrics["count"] != 12 {
		t.Errorf("count metric = %v, want 12 (reset before run)", res.Metrics["count"])
	}
	for i, st := range res.Stats {
		if st.Tick != i+1 {
			t.Errorf("stats[%d].Tick = %d", i, st.Tick)
		}
	}
	if len(rec.ticks) != 12 {
		t.Errorf("observer saw %d ticks", len(rec.ticks))
	}
	if res.Final.Tick != 12 || res.Final.Len() != 9 {
		t.Errorf("final snapshot tick %d len %d, want 12 and 9", res.Final.Tick, res.Final.Len())
	}
}

func TestRun_Cancelled(t *testing.T) {
	l := New(newSim(t), nil)
	l.SetLogger(quiet())

	ctx, cancel := context.WithCancel(context.Background())
	rec := 0
	l.AddObserver(observerFunc(func(fluid.Snapshot, TickStats) {
		rec++
		if rec == 4 {
			cancel()
		}
	}))

	res, err := l.Run(ctx, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if res.Ticks != 4 {
		t.Errorf("Ticks = %d, want 4", res.Ticks)
	}
	if l.State() != Terminated {
		t.Errorf("state = %s, want terminated", l.State())
	}
}

func TestRun_FaultBecomesTickError(t *testing.T) {
	s := newSim(t)
	l := New(s, nil)
	l.SetLogger(quiet())
	l.AddObserver(observerFunc(func(snap fluid.Snapshot, _ TickStats) {
		if snap.Tick == 2 {
			s.Particles().Vel[0] = r2.Vec{X: math.Inf(1)}
		}
	}))

	res, err := l.Run(context.Background(), 10)
	var te *TickError
	if !errors.As(err, &te) {
		t.Fatalf("Run() = %v, want *TickError", err)
	}
	if te.Tick != 2 {
		t.Errorf("TickError.Tick = %d, want 2", te.Tick)
	}
	if !errors.Is(err, fluid.ErrNumericalInstability) {
		t.Error("TickError does not unwrap to the fault")
	}
	if res.Ticks != 2 {
		t.Errorf("Ticks = %d, want 2", res.Ticks)
	}
	if l.State() != Terminated {
		t.Errorf("state = %s, want terminated", l.State())
	}
}

func TestRun_LogsEveryN(t *testing.T) {
	var buf bytes.Buffer
	l := New(newSim(t), nil)
	l.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	l.SetLogEvery(5)

	if _, err := l.Run(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if got := strings.Count(out, "msg=tick"); got != 2 {
		t.Errorf("logged %d tick lines, want 2:\n%s", got, out)
	}
	if !strings.Contains(out, "stats.active=") {
		t.Errorf("tick line lacks grouped stats:\n%s", out)
	}
	if !strings.Contains(out, "run finished") {
		t.Errorf("missing run finished line:\n%s", out)
	}
}

type observerFunc func(fluid.Snapshot, TickStats)

func (f observerFunc) OnTick(snap fluid.Snapshot, st TickStats) { f(snap, st) }

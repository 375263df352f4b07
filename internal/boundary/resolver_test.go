package boundary

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	width  = 800.0
	height = 600.0
	radius = 5.0
)

func box(x0, y0, x1, y1 float64) r2.Box {
	return r2.Box{Min: r2.Vec{X: x0, Y: y0}, Max: r2.Vec{X: x1, Y: y1}}
}

func newResolver(obstacles ...r2.Box) *Resolver {
	return &Resolver{
		Domain:    box(0, 0, width, height),
		Obstacles: obstacles,
		Radius:    radius,
		Damping:   -0.9,
	}
}

func TestResolveDomain_Floor(t *testing.T) {
	r := newResolver()
	pos := r2.Vec{X: 300, Y: height - radius + 3.7}
	vel := r2.Vec{X: 2.5, Y: 40}

	r.Resolve(&pos, &vel)

	if pos.Y != height-radius {
		t.Errorf("y = %v, want %v", pos.Y, height-radius)
	}
	if vel.Y != 40*r.Damping {
		t.Errorf("vy = %v, want %v", vel.Y, 40*r.Damping)
	}
	if vel.X != 2.5 {
		t.Errorf("vx changed to %v", vel.X)
	}
	if pos.X != 300 {
		t.Errorf("x changed to %v", pos.X)
	}
}

func TestResolveDomain_AllSides(t *testing.T) {
	tests := []struct {
		name    string
		pos     r2.Vec
		wantPos r2.Vec
		flipX   bool
		flipY   bool
	}{
		{"left", r2.Vec{X: -10, Y: 100}, r2.Vec{X: radius, Y: 100}, true, false},
		{"right", r2.Vec{X: width + 1, Y: 100}, r2.Vec{X: width - radius, Y: 100}, true, false},
		{"top", r2.Vec{X: 50, Y: 1}, r2.Vec{X: 50, Y: radius}, false, true},
		{"corner", r2.Vec{X: -1, Y: height + 9}, r2.Vec{X: radius, Y: height - radius}, true, true},
		{"inside", r2.Vec{X: 50, Y: 50}, r2.Vec{X: 50, Y: 50}, false, false},
	}
	r := newResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, vel := tt.pos, r2.Vec{X: 10, Y: 10}
			r.ResolveDomain(&pos, &vel)
			if pos != tt.wantPos {
				t.Errorf("pos = %v, want %v", pos, tt.wantPos)
			}
			wantVX, wantVY := 10.0, 10.0
			if tt.flipX {
				wantVX = 10 * r.Damping
			}
			if tt.flipY {
				wantVY = 10 * r.Damping
			}
			if vel.X != wantVX || vel.Y != wantVY {
				t.Errorf("vel = %v, want (%v, %v)", vel, wantVX, wantVY)
			}
		})
	}
}

func TestResolveObstacles_XAxis(t *testing.T) {
	r := newResolver(box(100, 100, 120, 200))
	pos := r2.Vec{X: 97, Y: 150}
	vel := r2.Vec{X: 8, Y: -3}

	if !r.ResolveObstacles(&pos, &vel) {
		t.Fatal("expected a correction")
	}
	if pos.X != 95 || pos.Y != 150 {
		t.Errorf("pos = %v, want (95, 150)", pos)
	}
	if vel.X != 8*r.Damping {
		t.Errorf("vx = %v, want %v", vel.X, 8*r.Damping)
	}
	if vel.Y != -3 {
		t.Errorf("vy touched: %v", vel.Y)
	}
}

func TestResolveObstacles_YAxis(t *testing.T) {
	r := newResolver(box(100, 100, 300, 120))
	pos := r2.Vec{X: 200, Y: 123}
	vel := r2.Vec{X: 1, Y: -6}

	r.ResolveObstacles(&pos, &vel)

	if pos.Y != 125 || pos.X != 200 {
		t.Errorf("pos = %v, want (200, 125)", pos)
	}
	if vel.X != 1 {
		t.Errorf("vx touched: %v", vel.X)
	}
	if vel.Y != -6*r.Damping {
		t.Errorf("vy = %v, want %v", vel.Y, -6*r.Damping)
	}
}

func TestResolveObstacles_TiePrefersX(t *testing.T) {
	r := newResolver(box(100, 100, 110, 110))
	pos := r2.Vec{X: 97, Y: 97}
	vel := r2.Vec{X: 1, Y: 1}

	r.ResolveObstacles(&pos, &vel)

	if pos.X != 95 || pos.Y != 97 {
		t.Errorf("pos = %v, want (95, 97)", pos)
	}
	if vel.Y != 1 {
		t.Errorf("vy touched on tie: %v", vel.Y)
	}
}

func TestResolveObstacles_NoOverlap(t *testing.T) {
	r := newResolver(box(100, 100, 120, 200))
	pos := r2.Vec{X: 95, Y: 150}
	vel := r2.Vec{X: 1, Y: 1}
	if r.ResolveObstacles(&pos, &vel) {
		t.Error("touching edge should not count as overlap")
	}
	if vel.X != 1 {
		t.Error("velocity changed without overlap")
	}
}

func TestResolveObstacles_AdjacentCells(t *testing.T) {
	r := newResolver(box(100, 100, 120, 120), box(120, 100, 140, 120))
	pos := r2.Vec{X: 120, Y: 103}
	vel := r2.Vec{X: 0, Y: 5}

	r.ResolveObstacles(&pos, &vel)

	if r.Overlaps(pos, 1e-6) {
		t.Errorf("still overlapping at %v", pos)
	}
}

func TestResolveObstacles_FlushWithDomain(t *testing.T) {
	r := newResolver(box(0, 0, 20, height))
	pos := r2.Vec{X: 12, Y: 300}
	vel := r2.Vec{X: -4, Y: 0}

	r.Resolve(&pos, &vel)

	if pos.X != 25 {
		t.Errorf("x = %v, want 25 (pushed inward)", pos.X)
	}
	if !r.Inside(pos, 0) {
		t.Errorf("pushed outside the domain: %v", pos)
	}
}

func TestResolveObstacles_FullWidthShelf(t *testing.T) {
	r := newResolver(box(0, 300, width, 310))
	pos := r2.Vec{X: 2, Y: 305}
	vel := r2.Vec{X: -1, Y: 3}

	r.Resolve(&pos, &vel)

	if !r.Inside(pos, 0) {
		t.Fatalf("pushed outside the domain: %v", pos)
	}
	if r.Overlaps(pos, Tolerance) {
		t.Errorf("still overlapping the shelf: %v", pos)
	}
	if pos.X != radius || pos.Y != 315 {
		t.Errorf("pos = %v, want (%v, 315)", pos, radius)
	}
	if vel.X != -1*r.Damping || vel.Y != 3*r.Damping {
		t.Errorf("vel = %v, want x damped once by the wall and y by the shelf", vel)
	}
}

func TestResolve_RandomCloud(t *testing.T) {
	r := newResolver(
		box(100, 100, 200, 200),
		box(300, 100, 400, 200),
		box(100, 300, 200, 400),
		box(300, 300, 400, 400),
	)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		pos := r2.Vec{X: rng.Float64()*(width+200) - 100, Y: rng.Float64()*(height+200) - 100}
		vel := r2.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64()}
		r.Resolve(&pos, &vel)
		if r.Overlaps(pos, 1e-6) {
			t.Fatalf("particle %d overlaps an obstacle at %v", i, pos)
		}
		if !r.Inside(pos, 1e-9) {
			t.Fatalf("particle %d outside the domain at %v", i, pos)
		}
	}
}

// Package boundary keeps particles inside the domain box and out of the
// static obstacle rectangles after each integration step.
package boundary

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxPasses bounds how many obstacle sweeps a single particle gets per tick.
// Adjacent wall cells can push a particle from one rectangle into the next;
// repeated sweeps settle that within a couple of passes.
const MaxPasses = 4

// Tolerance is the overlap below which a particle counts as resolved.
const Tolerance = 1e-9

// Resolver enforces the domain and obstacle constraints. It is immutable after
// construction and safe to share across goroutines.
type Resolver struct {
	Domain    r2.Box
	Obstacles []r2.Box
	Radius    float64
	Damping   float64
}

// Limits returns the box the particle centers are confined to: the domain
// inset by the particle radius.
func (r *Resolver) Limits() r2.Box {
	return r2.Box{
		Min: r2.Vec{X: r.Domain.Min.X + r.Radius, Y: r.Domain.Min.Y + r.Radius},
		Max: r2.Vec{X: r.Domain.Max.X - r.Radius, Y: r.Domain.Max.Y - r.Radius},
	}
}

// Resolve applies the domain clamp and then the obstacle push-out to one
// particle. Obstacles run last so they have the final say on position.
func (r *Resolver) Resolve(pos, vel *r2.Vec) {
	r.ResolveDomain(pos, vel)
	r.ResolveObstacles(pos, vel)
}

// ResolveDomain clamps each axis to Limits and damps the velocity component of
// every axis that was out of range.
func (r *Resolver) ResolveDomain(pos, vel *r2.Vec) {
	lim := r.Limits()
	pos.X, vel.X = clampAxis(pos.X, vel.X, lim.Min.X, lim.Max.X, r.Damping)
	pos.Y, vel.Y = clampAxis(pos.Y, vel.Y, lim.Min.Y, lim.Max.Y, r.Damping)
}

func clampAxis(p, v, lo, hi, damping float64) (float64, float64) {
	switch {
	case p < lo:
		return lo, v * damping
	case p > hi:
		return hi, v * damping
	}
	return p, v
}

// ResolveObstacles pushes the particle out of every obstacle it overlaps. It
// reports whether any correction was made.
func (r *Resolver) ResolveObstacles(pos, vel *r2.Vec) bool {
	moved := false
	for pass := 0; pass < MaxPasses; pass++ {
		changed := false
		for _, box := range r.Obstacles {
			if r.pushOut(box, pos, vel) {
				changed = true
			}
		}
		if !changed {
			break
		}
		moved = true
	}
	return moved
}

// pushOut resolves a single rectangle along the axis of least penetration.
// An axis whose exit stays inside Limits wins over one that does not; among
// equals, ties go to x. Only the velocity component on that axis is touched.
func (r *Resolver) pushOut(box r2.Box, pos, vel *r2.Vec) bool {
	lim := r.Limits()
	dx, toX, okX := penetration(pos.X, r.Radius, box.Min.X, box.Max.X, lim.Min.X, lim.Max.X)
	if !(dx > Tolerance) {
		return false
	}
	dy, toY, okY := penetration(pos.Y, r.Radius, box.Min.Y, box.Max.Y, lim.Min.Y, lim.Max.Y)
	if !(dy > Tolerance) {
		return false
	}
	useX := dx <= dy
	if okX != okY {
		useX = okX
	}
	if useX {
		pos.X = toX
		vel.X *= r.Damping
	} else {
		pos.Y = toY
		vel.Y *= r.Damping
	}
	return true
}

// penetration returns how far the interval [c-rad, c+rad] reaches into
// [lo, hi] measured toward the nearer edge, and the center position that
// makes the interval touch that edge. Zero or negative depth means no overlap.
// An edge whose exit position falls outside [limLo, limHi] is only used when
// the other one does too, so walls flush with the domain push inward. ok
// reports whether the chosen exit lies inside the limits.
func penetration(c, rad, lo, hi, limLo, limHi float64) (depth, to float64, ok bool) {
	left, toLeft := c+rad-lo, lo-rad
	right, toRight := hi-(c-rad), hi+rad
	leftOK := toLeft >= limLo
	rightOK := toRight <= limHi
	if leftOK != rightOK {
		if leftOK {
			return left, toLeft, true
		}
		return right, toRight, true
	}
	if left <= right {
		return left, toLeft, leftOK
	}
	return right, toRight, rightOK
}

// Overlap returns the overlap extents of the particle AABB with box on each
// axis. Both are positive only when they intersect.
func (r *Resolver) Overlap(pos r2.Vec, box r2.Box) (x, y float64) {
	x = math.Min(pos.X+r.Radius, box.Max.X) - math.Max(pos.X-r.Radius, box.Min.X)
	y = math.Min(pos.Y+r.Radius, box.Max.Y) - math.Max(pos.Y-r.Radius, box.Min.Y)
	return x, y
}

// Overlaps reports whether the particle AABB intersects any obstacle by more
// than eps on both axes.
func (r *Resolver) Overlaps(pos r2.Vec, eps float64) bool {
	for _, box := range r.Obstacles {
		if x, y := r.Overlap(pos, box); x > eps && y > eps {
			return true
		}
	}
	return false
}

// Inside reports whether pos lies within Limits, allowing eps of slack.
func (r *Resolver) Inside(pos r2.Vec, eps float64) bool {
	lim := r.Limits()
	return pos.X >= lim.Min.X-eps && pos.X <= lim.Max.X+eps &&
		pos.Y >= lim.Min.Y-eps && pos.Y <= lim.Max.Y+eps
}

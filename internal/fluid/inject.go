package fluid

import "gonum.org/v1/gonum/spatial/r2"

// InjectStatus describes what an injection attempt did.
type InjectStatus int

const (
	// InjectSkipped means no batch was due this tick.
	InjectSkipped InjectStatus = iota
	// Injected means at least one particle was added.
	Injected
	// CapacityExceeded means the arena was already full. It is not an error.
	CapacityExceeded
)

func (s InjectStatus) String() string {
	switch s {
	case InjectSkipped:
		return "skipped"
	case Injected:
		return "injected"
	case CapacityExceeded:
		return "capacity_exceeded"
	}
	return "unknown"
}

// Inject adds one batch at the spawn point, clipped to the free capacity.
func (s *Simulation) Inject() InjectStatus {
	if s.parts.Full() {
		return CapacityExceeded
	}
	c := s.cfg
	for b := 0; b < c.SpawnBatch; b++ {
		pos := r2.Vec{X: c.SpawnPoint.X + s.rng.Float64()*c.SpawnJitter, Y: c.SpawnPoint.Y}
		vel := c.SpawnVelocity
		if c.SpawnVelocityJitter > 0 {
			vel.X += (2*s.rng.Float64() - 1) * c.SpawnVelocityJitter
			vel.Y += (2*s.rng.Float64() - 1) * c.SpawnVelocityJitter
		}
		if !s.parts.add(pos, vel) {
			break
		}
	}
	return Injected
}

// maybeInject runs Inject on every SpawnInterval-th tick, starting at tick 0.
func (s *Simulation) maybeInject() InjectStatus {
	if s.cfg.SpawnBatch == 0 || s.tick%s.cfg.SpawnInterval != 0 {
		return InjectSkipped
	}
	return s.Inject()
}

// fillBlock lays out the initial dam-break block row by row until it runs out
// of region or capacity.
func (s *Simulation) fillBlock(b *Block) {
	for y := b.Region.Min.Y; y <= b.Region.Max.Y; y += b.Spacing {
		for x := b.Region.Min.X; x <= b.Region.Max.X; x += b.Spacing {
			pos := r2.Vec{X: x, Y: y}
			if b.Jitter > 0 {
				pos.X += s.rng.Float64() * b.Jitter
				pos.Y += s.rng.Float64() * b.Jitter
			}
			if !s.parts.add(pos, r2.Vec{}) {
				return
			}
		}
	}
}

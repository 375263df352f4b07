package metrics

import "github.com/san-kum/fluidsim/internal/fluid"

// Stability is the fraction of ticks in which every particle stayed at or
// below threshold. A NaN speed counts as a violation. It drops well before a
// run blows up.
type Stability struct {
	name      string
	threshold float64
	bad, seen int
	first     int
}

func NewStability(threshold float64) *Stability {
	return &Stability{name: "stability", threshold: threshold, first: -1}
}

func (s *Stability) Name() string { return s.name }

func (s *Stability) Observe(snap fluid.Snapshot) {
	s.seen++
	for i := range snap.Velocities {
		if !(snap.Speed(i) <= s.threshold) {
			s.bad++
			if s.first < 0 {
				s.first = snap.Tick
			}
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.seen == 0 {
		return 1
	}
	return 1 - float64(s.bad)/float64(s.seen)
}

// FirstViolation returns the tick of the first violation, or -1.
func (s *Stability) FirstViolation() int { return s.first }

func (s *Stability) Reset() {
	s.bad, s.seen = 0, 0
	s.first = -1
}

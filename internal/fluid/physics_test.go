package fluid

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"
)

var _ = Describe("Density estimation", func() {
	It("never drops below the floor on random clouds", func() {
		rng := rand.New(rand.NewSource(3))
		for trial := 0; trial < 10; trial++ {
			cfg := tankConfig()
			cfg.ParticleMass = 1
			s := mustNew(cfg)
			for i := 0; i < 200; i++ {
				s.parts.add(r2.Vec{X: rng.Float64() * 800, Y: rng.Float64() * 600}, r2.Vec{})
			}
			n := s.Active()
			s.updateNeighbors(n)
			s.computeDensity(n)
			for i := 0; i < n; i++ {
				Expect(s.parts.Density[i]).To(BeNumerically(">=", cfg.DensityFloor))
				Expect(s.parts.Density[i]).To(BeNumerically(">", 0))
			}
		}
	})

	It("clamps to the floor when the kernel sum is smaller", func() {
		cfg := tankConfig()
		cfg.ParticleMass = 1
		cfg.DensityFloor = 1
		s := mustNew(cfg)
		s.parts.add(r2.Vec{X: 100, Y: 100}, r2.Vec{})
		s.updateNeighbors(1)
		s.computeDensity(1)
		Expect(s.parts.Density[0]).To(Equal(1.0))
		Expect(s.parts.Pressure[0]).To(BeNumerically("~", cfg.GasConstant*(1-cfg.RestDensity), 1e-12))
	})

	It("includes the self term", func() {
		s := mustNew(tankConfig())
		s.parts.add(r2.Vec{X: 100, Y: 100}, r2.Vec{})
		s.updateNeighbors(1)
		s.computeDensity(1)
		Expect(s.parts.Density[0]).To(BeNumerically("~", s.kern.Poly6(0), 1e-12))
	})
})

var _ = Describe("Pairwise forces", func() {
	var s *Simulation

	BeforeEach(func() {
		cfg := tankConfig()
		cfg.ParticleMass = 1
		cfg.SmoothingLength = 15
		cfg.RestDensity = 1e-4
		cfg.Gravity = r2.Vec{}
		s = mustNew(cfg)
		s.parts.add(r2.Vec{X: 100, Y: 200}, r2.Vec{})
		s.parts.add(r2.Vec{X: 110, Y: 200}, r2.Vec{})
		s.updateNeighbors(2)
		s.computeDensity(2)
		s.computeForces(2)
	})

	It("pushes two close particles apart when pressure is positive", func() {
		Expect(s.parts.Density[0]).To(Equal(s.parts.Density[1]))
		Expect(s.parts.Pressure[0] + s.parts.Pressure[1]).To(BeNumerically(">", 0))
		Expect(s.parts.Force[0].X).To(BeNumerically("<", 0))
		Expect(s.parts.Force[1].X).To(BeNumerically(">", 0))
	})

	It("is antisymmetric", func() {
		Expect(s.parts.Force[0].X).To(BeNumerically("~", -s.parts.Force[1].X, 1e-12))
		Expect(s.parts.Force[0].Y).To(BeNumerically("~", 0, 1e-15))
	})

	It("pulls particles together when pressure is negative", func() {
		s.cfg.RestDensity = 1
		s.computeDensity(2)
		s.computeForces(2)
		Expect(s.parts.Force[0].X).To(BeNumerically(">", 0))
		Expect(s.parts.Force[1].X).To(BeNumerically("<", 0))
	})

	It("lets viscosity drag velocities toward each other", func() {
		s.parts.Vel[1] = r2.Vec{X: 0, Y: 10}
		s.computeForces(2)
		Expect(s.parts.Force[0].Y).To(BeNumerically(">", 0))
		Expect(s.parts.Force[1].Y).To(BeNumerically("<", 0))
	})

	It("skips the direction term for coincident particles", func() {
		s.parts.Pos[1] = s.parts.Pos[0]
		s.updateNeighbors(2)
		s.computeDensity(2)
		s.computeForces(2)
		Expect(finite(s.parts.Force[0].X)).To(BeTrue())
		Expect(finite(s.parts.Force[1].Y)).To(BeTrue())
	})
})

var _ = Describe("External force", func() {
	build := func(mode ForceMode) *Simulation {
		cfg := tankConfig()
		cfg.ForceMode = mode
		cfg.Gravity = r2.Vec{X: 0, Y: 3}
		s := mustNew(cfg)
		s.parts.add(r2.Vec{X: 400, Y: 300}, r2.Vec{})
		s.updateNeighbors(1)
		s.computeDensity(1)
		s.computeForces(1)
		return s
	}

	It("scales gravity by density in density-scaled mode", func() {
		s := build(DensityScaled)
		Expect(s.parts.Force[0].Y).To(BeNumerically("~", 3*s.parts.Density[0], 1e-12))
	})

	It("adds gravity flat in additive-constant mode", func() {
		s := build(AdditiveConstant)
		Expect(s.parts.Force[0].Y).To(Equal(3.0))
	})

	It("holds gravity back until the release tick", func() {
		cfg := tankConfig()
		cfg.GravityDelayTicks = 5
		cfg.InitialBlock = blockOf(400, 300, 400, 300, 1)
		s := mustNew(cfg)
		for i := 0; i < 5; i++ {
			Expect(s.Tick()).To(Succeed())
			Expect(s.parts.Vel[0].Y).To(Equal(0.0))
		}
		Expect(s.Tick()).To(Succeed())
		Expect(s.parts.Vel[0].Y).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Integration", func() {
	It("uses the updated velocity to move the position", func() {
		cfg := tankConfig()
		s := mustNew(cfg)
		s.parts.add(r2.Vec{X: 400, Y: 300}, r2.Vec{X: 1, Y: 0})
		s.parts.Density[0] = 2
		s.parts.Force[0] = r2.Vec{X: 4, Y: -2}
		s.integrate(1)

		wantV := r2.Vec{X: 1 + cfg.Dt*4/2, Y: cfg.Dt * -2 / 2}
		Expect(s.parts.Vel[0].X).To(BeNumerically("~", wantV.X, 1e-15))
		Expect(s.parts.Vel[0].Y).To(BeNumerically("~", wantV.Y, 1e-15))
		Expect(s.parts.Pos[0].X).To(BeNumerically("~", 400+cfg.Dt*wantV.X, 1e-12))
		Expect(s.parts.Pos[0].Y).To(BeNumerically("~", 300+cfg.Dt*wantV.Y, 1e-12))
	})
})

var _ = Describe("Tick invariants", func() {
	It("keeps every particle in the domain and out of the obstacles", func() {
		cfg := tankConfig()
		cfg.Obstacles = []r2.Box{
			{Min: r2.Vec{X: 200, Y: 300}, Max: r2.Vec{X: 300, Y: 350}},
			{Min: r2.Vec{X: 450, Y: 400}, Max: r2.Vec{X: 550, Y: 450}},
		}
		cfg.InitialBlock = blockOf(150, 50, 600, 250, 12)
		cfg.Workers = 4
		s := mustNew(cfg)
		Expect(s.Active()).To(BeNumerically(">", 100))

		res := s.Resolver()
		for tick := 0; tick < 150; tick++ {
			Expect(s.Tick()).To(Succeed())
			snap := s.Snapshot()
			for i, p := range snap.Positions {
				Expect(res.Inside(p, 1e-9)).To(BeTrue(), "tick %d particle %d at %v", tick, i, p)
				Expect(res.Overlaps(p, 1e-6)).To(BeFalse(), "tick %d particle %d at %v", tick, i, p)
			}
		}
	})

	It("does not depend on the worker count", func() {
		run := func(workers int) Snapshot {
			cfg := tankConfig()
			cfg.InitialBlock = blockOf(100, 100, 500, 300, 10)
			cfg.Workers = workers
			s := mustNew(cfg)
			for i := 0; i < 60; i++ {
				Expect(s.Tick()).To(Succeed())
			}
			return s.Snapshot()
		}
		a, b := run(1), run(8)
		Expect(a.Len()).To(BeNumerically(">", 2*minChunk))
		Expect(b.Positions).To(Equal(a.Positions))
		Expect(b.Velocities).To(Equal(a.Velocities))
	})
})

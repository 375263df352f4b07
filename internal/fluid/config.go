package fluid

import (
	"runtime"

	"github.com/san-kum/fluidsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r2"
)

// ForceMode selects how the external (gravity) force combines with density.
type ForceMode string

const (
	// DensityScaled adds rho_i*g to the force, so after the integrator divides
	// by density every particle accelerates by exactly g.
	DensityScaled ForceMode = "density-scaled"
	// AdditiveConstant adds g to the force as is; light particles fall faster.
	AdditiveConstant ForceMode = "additive-constant"
)

// DefaultDensityFloor keeps densities away from zero before any division.
// It is a numerical guard only and has no physical meaning.
const DefaultDensityFloor = 1e-6

// Block pre-fills a rectangular region with particles on a square lattice.
type Block struct {
	Region  r2.Box  `yaml:"region"`
	Spacing float64 `yaml:"spacing"`
	Jitter  float64 `yaml:"jitter"`
}

// Config holds every constant of a run. All values are fixed once New returns.
type Config struct {
	SmoothingLength float64   `yaml:"smoothing_length"`
	ParticleMass    float64   `yaml:"particle_mass"`
	RestDensity     float64   `yaml:"rest_density"`
	GasConstant     float64   `yaml:"gas_constant"`
	Viscosity       float64   `yaml:"viscosity"`
	Damping         float64   `yaml:"damping"` // velocity factor on collision, in (-1, 0)
	Gravity         r2.Vec    `yaml:"gravity"`
	ForceMode       ForceMode `yaml:"external_force_mode"`
	Dt              float64   `yaml:"dt"`

	MaxParticles        int     `yaml:"max_particles"`
	SpawnInterval       int     `yaml:"spawn_interval"` // ticks between batches
	SpawnBatch          int     `yaml:"spawn_batch"`
	SpawnPoint          r2.Vec  `yaml:"spawn_point"`
	SpawnJitter         float64 `yaml:"spawn_jitter"` // x offset drawn from [0, jitter)
	SpawnVelocity       r2.Vec  `yaml:"spawn_velocity"`
	SpawnVelocityJitter float64 `yaml:"spawn_velocity_jitter"`
	InitialBlock        *Block  `yaml:"initial_block,omitempty"`

	ParticleRadius float64  `yaml:"particle_radius"`
	Domain         r2.Box   `yaml:"domain"`
	Obstacles      []r2.Box `yaml:"obstacles,omitempty"`

	DensityFloor      float64 `yaml:"density_floor"`
	GravityDelayTicks int     `yaml:"gravity_delay_ticks"`
	NeighborIndex     string  `yaml:"neighbor_index"`
	Workers           int     `yaml:"workers"` // 0 = GOMAXPROCS
	Seed              int64   `yaml:"seed"`    // 0 = time based
}

// DefaultConfig is an 800x600 tank fed from a point source near the top.
func DefaultConfig() Config {
	return Config{
		SmoothingLength: 15,
		ParticleMass:    1,
		RestDensity:     1,
		GasConstant:     20,
		Viscosity:       0.9,
		Damping:         -0.9,
		Gravity:         r2.Vec{X: 0, Y: 1},
		ForceMode:       DensityScaled,
		Dt:              0.01,

		MaxParticles:  300,
		SpawnInterval: 50,
		SpawnBatch:    3,
		SpawnPoint:    r2.Vec{X: 400, Y: 15},
		SpawnJitter:   1,

		ParticleRadius: 5,
		Domain:         r2.Box{Min: r2.Vec{}, Max: r2.Vec{X: 800, Y: 600}},

		DensityFloor:  DefaultDensityFloor,
		NeighborIndex: spatial.KindGrid,
	}
}

func invalid(field string, value any, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// Validate checks the constants New relies on.
func (c Config) Validate() error {
	switch {
	case !(c.SmoothingLength > 0):
		return invalid("smoothing_length", c.SmoothingLength, "must be positive")
	case !(c.Dt > 0):
		return invalid("dt", c.Dt, "must be positive")
	case !(c.ParticleMass > 0):
		return invalid("particle_mass", c.ParticleMass, "must be positive")
	case !(c.RestDensity > 0):
		return invalid("rest_density", c.RestDensity, "must be positive")
	case c.MaxParticles <= 0:
		return invalid("max_particles", c.MaxParticles, "must be positive")
	case !(c.Damping > -1 && c.Damping < 0):
		return invalid("damping", c.Damping, "must lie in (-1, 0)")
	case c.Viscosity < 0:
		return invalid("viscosity", c.Viscosity, "must not be negative")
	case c.SpawnInterval < 1:
		return invalid("spawn_interval", c.SpawnInterval, "must be at least 1")
	case c.SpawnBatch < 0:
		return invalid("spawn_batch", c.SpawnBatch, "must not be negative")
	case c.SpawnJitter < 0 || c.SpawnVelocityJitter < 0:
		return invalid("spawn_jitter", c.SpawnJitter, "jitter must not be negative")
	case c.ParticleRadius < 0:
		return invalid("particle_radius", c.ParticleRadius, "must not be negative")
	case !(c.DensityFloor > 0):
		return invalid("density_floor", c.DensityFloor, "must be positive")
	case c.GravityDelayTicks < 0:
		return invalid("gravity_delay_ticks", c.GravityDelayTicks, "must not be negative")
	case c.Workers < 0:
		return invalid("workers", c.Workers, "must not be negative")
	}

	if c.Domain.Max.X-c.Domain.Min.X <= 2*c.ParticleRadius || c.Domain.Max.Y-c.Domain.Min.Y <= 2*c.ParticleRadius {
		return invalid("domain", c.Domain, "must be wider and taller than a particle")
	}
	for i, o := range c.Obstacles {
		if o.Max.X <= o.Min.X || o.Max.Y <= o.Min.Y {
			return invalid("obstacles", i, "rectangle has no area")
		}
	}
	if b := c.InitialBlock; b != nil && !(b.Spacing > 0) {
		return invalid("initial_block.spacing", b.Spacing, "must be positive")
	}

	switch c.ForceMode {
	case DensityScaled, AdditiveConstant:
	default:
		return invalid("external_force_mode", c.ForceMode, "want density-scaled or additive-constant")
	}
	if _, err := spatial.New(c.NeighborIndex); err != nil {
		return invalid("neighbor_index", c.NeighborIndex, err.Error())
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

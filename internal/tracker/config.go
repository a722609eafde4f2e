package tracker

import "time"

// MaxPowerLevel caps how many nearby peers can boost a detonation.
const MaxPowerLevel = 4

const (
	DefaultMovementForce      = 1000.0
	DefaultArrivalDistance    = 100.0
	DefaultExplosionDamage    = 40.0
	DefaultExplosionRadius    = 200.0
	DefaultSelfDamage         = 20.0
	DefaultSelfDamageInterval = 250 * time.Millisecond
	DefaultPathRefreshDelay   = 5 * time.Second
	DefaultPowerCheckInterval = time.Second
	DefaultPowerRadius        = 600.0
	DefaultLifespan           = 2 * time.Second
	DefaultOverlapRadius      = 200.0
)

// Config holds the tunables of a single bot.
type Config struct {
	MovementForce      float64       `json:"movementForce" yaml:"movementForce" jsonschema:"minimum=0"`
	UseVelocityChange  bool          `json:"useVelocityChange" yaml:"useVelocityChange"`
	ArrivalDistance    float64       `json:"arrivalDistance" yaml:"arrivalDistance" jsonschema:"minimum=0"`
	ExplosionDamage    float64       `json:"explosionDamage" yaml:"explosionDamage" jsonschema:"minimum=0"`
	ExplosionRadius    float64       `json:"explosionRadius" yaml:"explosionRadius" jsonschema:"minimum=0"`
	SelfDamage         float64       `json:"selfDamage" yaml:"selfDamage" jsonschema:"minimum=0"`
	SelfDamageInterval time.Duration `json:"selfDamageInterval" yaml:"selfDamageInterval"`
	PathRefreshDelay   time.Duration `json:"pathRefreshDelay" yaml:"pathRefreshDelay"`
	PowerCheckInterval time.Duration `json:"powerCheckInterval" yaml:"powerCheckInterval"`
	PowerRadius        float64       `json:"powerRadius" yaml:"powerRadius" jsonschema:"minimum=0"`
	Lifespan           time.Duration `json:"lifespan" yaml:"lifespan"`
	OverlapRadius      float64       `json:"overlapRadius" yaml:"overlapRadius" jsonschema:"minimum=0"`
	DebugDraw          bool          `json:"debugDraw" yaml:"debugDraw"`
}

func DefaultConfig() Config {
	return Config{
		MovementForce:      DefaultMovementForce,
		ArrivalDistance:    DefaultArrivalDistance,
		ExplosionDamage:    DefaultExplosionDamage,
		ExplosionRadius:    DefaultExplosionRadius,
		SelfDamage:         DefaultSelfDamage,
		SelfDamageInterval: DefaultSelfDamageInterval,
		PathRefreshDelay:   DefaultPathRefreshDelay,
		PowerCheckInterval: DefaultPowerCheckInterval,
		PowerRadius:        DefaultPowerRadius,
		Lifespan:           DefaultLifespan,
		OverlapRadius:      DefaultOverlapRadius,
	}
}

// Normalized replaces non-positive values with defaults. Zero damage stays
// zero so a harmless bot can be configured.
func (c Config) Normalized() Config {
	def := DefaultConfig()
	if c.MovementForce <= 0 {
		c.MovementForce = def.MovementForce
	}
	if c.ArrivalDistance <= 0 {
		c.ArrivalDistance = def.ArrivalDistance
	}
	if c.ExplosionDamage < 0 {
		c.ExplosionDamage = def.ExplosionDamage
	}
	if c.ExplosionRadius <= 0 {
		c.ExplosionRadius = def.ExplosionRadius
	}
	if c.SelfDamage < 0 {
		c.SelfDamage = def.SelfDamage
	}
	if c.SelfDamageInterval <= 0 {
		c.SelfDamageInterval = def.SelfDamageInterval
	}
	if c.PathRefreshDelay <= 0 {
		c.PathRefreshDelay = def.PathRefreshDelay
	}
	if c.PowerCheckInterval <= 0 {
		c.PowerCheckInterval = def.PowerCheckInterval
	}
	if c.PowerRadius <= 0 {
		c.PowerRadius = def.PowerRadius
	}
	if c.Lifespan <= 0 {
		c.Lifespan = def.Lifespan
	}
	if c.OverlapRadius <= 0 {
		c.OverlapRadius = def.OverlapRadius
	}
	return c
}

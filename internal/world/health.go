package world

import "math"

// HealthEpsilon defines the tolerance used when comparing health values.
const HealthEpsilon = 1e-6

// HealthState captures the current health values for an actor.
type HealthState struct {
	Health    float64
	MaxHealth float64
}

// Alive reports whether health is above zero.
func (s HealthState) Alive() bool {
	return s.Health > HealthEpsilon
}

// SetActorHealth clamps health into [0, MaxHealth] and stores it. It returns
// true only when the stored value changed.
func SetActorHealth(state *HealthState, health float64) bool {
	if state == nil {
		return false
	}
	if math.IsNaN(health) || math.IsInf(health, 0) {
		return false
	}
	if health < 0 {
		health = 0
	}
	if state.MaxHealth > 0 && health > state.MaxHealth {
		health = state.MaxHealth
	}
	if math.Abs(state.Health-health) < HealthEpsilon {
		return false
	}
	state.Health = health
	return true
}

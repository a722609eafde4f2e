package tracker

import (
	"trackerbot/internal/state"
	"trackerbot/internal/telemetry"
	"trackerbot/logging/tracker"
)

const (
	CauseSelfDestruct = "self_destruct"
	CauseExplosion    = "explosion"
)

// ExplosionDamage scales the base blast damage by the power level.
func ExplosionDamage(base float64, powerLevel int) float64 {
	return base * float64(1+powerLevel)
}

// HandleOverlap reacts to another actor entering the overlap sphere. Only a
// hostile character arms the bot, and only once.
func (b *Bot) HandleOverlap(other Actor) {
	if b.started || b.exploded || b.cueLatched {
		return
	}
	if !other.Class.Matches(ClassCharacter) || other.ID == b.id {
		return
	}
	if b.deps.Identity != nil && b.deps.Identity.IsFriendly(b.id, other.ID) {
		return
	}
	if b.role != RoleAuthority {
		b.cueLatched = true
		b.deps.Effects.PlaySoundAttached(SoundSelfDestruct, b.id)
		return
	}

	b.started = true
	b.deps.Effects.PlaySoundAttached(SoundSelfDestruct, b.id)
	tracker.SelfDestructStarted(b.ctx, b.deps.Publisher, b.tick(), b.ref(), tracker.SelfDestructStartedPayload{
		TriggeredBy: other.ID,
	}, nil)

	b.damageSelf()
	if b.exploded {
		return
	}
	b.selfDamageTimer = b.deps.Timers.SetRepeating(b.cfg.SelfDamageInterval, b.guarded(b.damageSelf))
}

func (b *Bot) damageSelf() {
	if b.exploded {
		return
	}
	b.deps.Damage.ApplyDamage(b.id, b.cfg.SelfDamage, b.id, CauseSelfDestruct)
}

// HandleHealthChanged is the health notification. Health at or below zero
// detonates the bot on every role. After that the bot is frozen and later
// notifications are dropped unrecorded.
func (b *Bot) HandleHealthChanged(health, delta float64, cause string) {
	if b.exploded {
		return
	}
	b.health = health
	if b.deps.Timers != nil {
		b.lastDamageTime = b.deps.Timers.Now().Seconds()
		b.deps.Effects.SetParameter(b.id, ParamLastTimeDamageTaken, b.lastDamageTime)
	}
	tracker.HealthChanged(b.ctx, b.deps.Publisher, b.tick(), b.ref(), tracker.HealthChangedPayload{
		Health: health,
		Delta:  delta,
		Cause:  cause,
	}, nil)
	if health <= 0 {
		b.detonate()
	}
}

func (b *Bot) detonate() {
	if b.exploded {
		return
	}
	b.exploded = true
	b.lastForce = state.Vec2{}
	b.cancelActivityTimers()

	pos := b.deps.Body.Position()
	b.deps.Effects.SpawnEffect(EffectExplosion, pos)
	b.deps.Effects.PlaySoundAt(SoundExplosion, pos)
	b.deps.Body.HideMesh()
	b.deps.Body.DisableCollision()

	authority := b.role == RoleAuthority
	damage := ExplosionDamage(b.cfg.ExplosionDamage, b.powerLevel)
	tracker.Detonated(b.ctx, b.deps.Publisher, b.tick(), b.ref(), tracker.DetonatedPayload{
		Damage:     damage,
		Radius:     b.cfg.ExplosionRadius,
		PowerLevel: b.powerLevel,
		Authority:  authority,
	}, nil)
	if !authority {
		return
	}

	b.deps.Metrics.Add(telemetry.MetricDetonations, 1)
	b.deps.Damage.ApplyRadialDamage(pos, damage, b.cfg.ExplosionRadius, []string{b.id}, b.id, CauseExplosion)
	b.deps.Debug.DrawSphere(pos, b.cfg.ExplosionRadius, DebugRed, b.cfg.Lifespan)
	b.lifespanTimer = b.deps.Timers.SetTimer(b.cfg.Lifespan, func() {
		b.lifespanTimer = 0
		b.deps.Remover.Destroy(b.id)
	})
}

func (b *Bot) cancelActivityTimers() {
	if b.deps.Timers == nil {
		return
	}
	for _, handle := range []*TimerHandle{&b.refreshTimer, &b.powerTimer, &b.selfDamageTimer} {
		if *handle != 0 {
			b.deps.Timers.Cancel(*handle)
			*handle = 0
		}
	}
}

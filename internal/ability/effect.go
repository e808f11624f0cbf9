package ability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samdwyer/ancestralplane/internal/combat"
	"github.com/samdwyer/ancestralplane/internal/world"
)

// Effect is the behaviour of a timed ability. OnStart runs when the slot is
// filled, OnTick once per AdvanceTick with the clipped step, and OnExit
// exactly once when the slot empties.
type Effect interface {
	Kind() Kind
	OnStart(ctx context.Context, caster *combat.Combatant)
	OnTick(ctx context.Context, caster *combat.Combatant, dt float64)
	OnExit(ctx context.Context, caster *combat.Combatant, cancelled bool)
}

// pulseEffect heals every active ally of the caster within radius,
// the caster included.
type pulseEffect struct {
	x        *Executor
	radius   float64
	healRate float64
}

func (e *pulseEffect) Kind() Kind { return RadiantPulse }

func (e *pulseEffect) OnStart(_ context.Context, caster *combat.Combatant) {
	slog.Debug("radiant pulse started", "caster", caster.ID, "radius", e.radius)
}

func (e *pulseEffect) OnTick(_ context.Context, caster *combat.Combatant, dt float64) {
	if dt <= 0 || caster.IsDefeated() {
		return
	}
	allies := e.x.roster.Allies(caster.Team)
	bodies := make([]world.Body, len(allies))
	for i, a := range allies {
		bodies[i] = a.Body()
	}
	for _, i := range world.WithinRadius(caster.Position, e.radius, bodies) {
		if _, err := e.x.resolver.Heal(allies[i].ID, e.healRate*dt); err != nil && !errors.Is(err, combat.ErrInvalidTarget) {
			slog.Warn("radiant pulse heal failed", "target", allies[i].ID, "error", err)
		}
	}
}

func (e *pulseEffect) OnExit(_ context.Context, caster *combat.Combatant, cancelled bool) {
	slog.Debug("radiant pulse ended", "caster", caster.ID, "cancelled", cancelled)
}

// fieldEffect slows the environment for its duration. Overlapping fields
// do not stack; the slowest one wins.
type fieldEffect struct {
	x     *Executor
	scale float64
}

func (e *fieldEffect) Kind() Kind { return ChronosField }

func (e *fieldEffect) OnStart(_ context.Context, caster *combat.Combatant) {
	e.x.refreshTimeScale(caster.ID)
}

func (e *fieldEffect) OnTick(context.Context, *combat.Combatant, float64) {}

func (e *fieldEffect) OnExit(_ context.Context, caster *combat.Combatant, _ bool) {
	e.x.refreshTimeScale(caster.ID)
}

package ability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/ancestralplane/internal/combat"
	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/event"
	"github.com/samdwyer/ancestralplane/internal/telemetry"
	"github.com/samdwyer/ancestralplane/internal/world"
)

// ErrInvalidCaster is returned when the caster is missing or defeated.
var ErrInvalidCaster = errors.New("invalid caster")

// Started is published when a timed ability fills a slot.
type Started struct {
	Caster   string
	Kind     Kind
	Duration float64
}

// Expired is published when a slot empties, by running out or by cancellation.
type Expired struct {
	Caster    string
	Kind      Kind
	Cancelled bool
}

// TimeScaleChange is published when the environment time scale changes.
// Caster is the one whose field started or ended.
type TimeScaleChange struct {
	Caster string
	Scale  float64
}

// Slot is a caster's running timed ability.
type Slot struct {
	Caster    string
	Kind      Kind
	Duration  float64
	Remaining float64

	caster *combat.Combatant
	effect Effect
}

// Result describes what a trigger did.
type Result struct {
	Kind Kind

	// Timed abilities.
	Started  bool
	Replaced Kind
	Duration float64

	// Spiteful Spikes.
	Hit     bool
	Target  string
	Outcome combat.Outcome
}

// Executor owns the ability slots of a session.
type Executor struct {
	roster   *combat.Roster
	resolver *combat.Resolver
	params   Params
	tracer   trace.Tracer

	// Activation order, so ticks are deterministic.
	slots     []*Slot
	timeScale float64

	started   event.Topic[Started]
	expired   event.Topic[Expired]
	scaleChan event.Topic[TimeScaleChange]
}

// NewExecutor creates an executor over roster, dealing damage and healing
// through resolver.
func NewExecutor(roster *combat.Roster, resolver *combat.Resolver, params Params) *Executor {
	return &Executor{
		roster:    roster,
		resolver:  resolver,
		params:    params,
		tracer:    telemetry.Tracer("ability"),
		timeScale: 1,
	}
}

// Params returns the executor's tuning.
func (x *Executor) Params() Params { return x.params }

// TimeScale returns the environment time scale: the slowest running Chronos
// Field, or 1 when none is running.
func (x *Executor) TimeScale() float64 { return x.timeScale }

// OnStarted registers fn for slot starts.
func (x *Executor) OnStarted(fn func(Started)) event.Subscription {
	return x.started.Subscribe(fn)
}

// OnExpired registers fn for slot expiries.
func (x *Executor) OnExpired(fn func(Expired)) event.Subscription {
	return x.expired.Subscribe(fn)
}

// OnTimeScale registers fn for time-scale requests.
func (x *Executor) OnTimeScale(fn func(TimeScaleChange)) event.Subscription {
	return x.scaleChan.Subscribe(fn)
}

// Slot returns a copy of the caster's running slot.
func (x *Executor) Slot(casterID string) (Slot, bool) {
	if s := x.find(casterID); s != nil {
		return *s, true
	}
	return Slot{}, false
}

// Active returns the number of occupied slots.
func (x *Executor) Active() int { return len(x.slots) }

// TriggerAbility fires the ability bound to the caster's current mode.
// Neutral casters get an empty Result and no error.
func (x *Executor) TriggerAbility(ctx context.Context, casterID string) (Result, error) {
	ctx, span := x.tracer.Start(ctx, "ability.trigger",
		trace.WithAttributes(attribute.String("caster", casterID)))
	defer span.End()

	caster := x.roster.Get(casterID)
	if caster == nil || caster.IsDefeated() {
		return Result{}, telemetry.RecordError(span, fmt.Errorf("%w: %q", ErrInvalidCaster, casterID))
	}

	kind := ForMode(caster.Mode())
	span.SetAttributes(attribute.String("kind", kind.String()))

	switch kind {
	case RadiantPulse, ChronosField:
		return x.startTimed(ctx, caster, kind), nil
	case SpitefulSpikes:
		res, err := x.spikes(caster)
		return res, telemetry.RecordError(span, err)
	default:
		return Result{Kind: None}, nil
	}
}

func (x *Executor) startTimed(ctx context.Context, caster *combat.Combatant, kind Kind) Result {
	res := Result{Kind: kind, Started: true, Duration: x.params.Duration(kind)}
	if prev := x.find(caster.ID); prev != nil {
		res.Replaced = prev.Kind
		x.finish(ctx, prev, true)
	}

	s := &Slot{
		Caster:    caster.ID,
		Kind:      kind,
		Duration:  res.Duration,
		Remaining: res.Duration,
		caster:    caster,
		effect:    x.newEffect(kind),
	}
	x.slots = append(x.slots, s)
	s.effect.OnStart(ctx, caster)

	slog.Debug("ability started", "caster", caster.ID, "kind", kind, "duration", s.Duration)
	x.started.Publish(Started{Caster: caster.ID, Kind: kind, Duration: s.Duration})
	return res
}

func (x *Executor) newEffect(k Kind) Effect {
	if k == ChronosField {
		return &fieldEffect{x: x, scale: x.params.FieldTimeScale}
	}
	return &pulseEffect{x: x, radius: x.params.PulseRadius, healRate: x.params.PulseHealRate}
}

// spikes casts a ray from the caster along its facing and hits the first
// active body in range.
func (x *Executor) spikes(caster *combat.Combatant) (Result, error) {
	res := Result{Kind: SpitefulSpikes}

	var targets []*combat.Combatant
	var bodies []world.Body
	for _, c := range x.roster.Active() {
		if c == caster {
			continue
		}
		targets = append(targets, c)
		bodies = append(bodies, c.Body())
	}

	hit, ok := world.Raycast(caster.Position, caster.Facing, x.params.SpikesRange, bodies)
	if !ok {
		slog.Debug("spiteful spikes missed", "caster", caster.ID)
		return res, nil
	}

	target := targets[hit.Index]
	out, err := x.resolver.ResolveAttack(combat.Attack{
		AttackerID: caster.ID,
		DefenderID: target.ID,
		DamageType: emotion.Anger,
		BaseDamage: x.params.SpikesDamage,
		Fixed:      true,
	})
	if err != nil {
		return res, fmt.Errorf("spiteful spikes: %w", err)
	}
	res.Hit = true
	res.Target = target.ID
	res.Outcome = out
	return res, nil
}

// AdvanceTick runs every slot's effect for min(dt, remaining), then expires
// the slots that ran out. Non-positive or NaN dt does nothing.
func (x *Executor) AdvanceTick(ctx context.Context, dt float64) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return
	}
	for _, s := range append([]*Slot(nil), x.slots...) {
		if x.find(s.Caster) != s {
			// Cancelled by an earlier effect in this pass.
			continue
		}
		s.effect.OnTick(ctx, s.caster, min(dt, s.Remaining))
		s.Remaining -= dt
		if s.Remaining <= 0 {
			s.Remaining = 0
			x.finish(ctx, s, false)
		}
	}
}

// Cancel ends the caster's running ability, firing its expiry action.
// It reports whether there was one.
func (x *Executor) Cancel(ctx context.Context, casterID string) bool {
	s := x.find(casterID)
	if s == nil {
		return false
	}
	x.finish(ctx, s, true)
	return true
}

// Close cancels every slot and drops all subscribers.
func (x *Executor) Close(ctx context.Context) {
	for len(x.slots) > 0 {
		x.finish(ctx, x.slots[0], true)
	}
	x.started.Clear()
	x.expired.Clear()
	x.scaleChan.Clear()
}

// finish removes s, then runs its exit action and publishes the expiry.
// Removing first keeps a re-entrant Cancel from firing the exit twice.
func (x *Executor) finish(ctx context.Context, s *Slot, cancelled bool) {
	if !x.remove(s) {
		return
	}
	s.effect.OnExit(ctx, s.caster, cancelled)
	slog.Debug("ability expired", "caster", s.Caster, "kind", s.Kind, "cancelled", cancelled)
	x.expired.Publish(Expired{Caster: s.Caster, Kind: s.Kind, Cancelled: cancelled})
}

func (x *Executor) find(casterID string) *Slot {
	for _, s := range x.slots {
		if s.Caster == casterID {
			return s
		}
	}
	return nil
}

func (x *Executor) remove(target *Slot) bool {
	for i, s := range x.slots {
		if s == target {
			x.slots = append(x.slots[:i:i], x.slots[i+1:]...)
			return true
		}
	}
	return false
}

// refreshTimeScale recomputes the time scale from the running fields and
// publishes it if it moved.
func (x *Executor) refreshTimeScale(caster string) {
	scale := 1.0
	for _, s := range x.slots {
		if f, ok := s.effect.(*fieldEffect); ok {
			scale = min(scale, f.scale)
		}
	}
	if scale == x.timeScale {
		return
	}
	x.timeScale = scale
	x.scaleChan.Publish(TimeScaleChange{Caster: caster, Scale: scale})
}

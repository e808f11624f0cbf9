// Package engine wires the emotion, combat, ability and progression
// components into one explicitly constructed session.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/ancestralplane/internal/ability"
	"github.com/samdwyer/ancestralplane/internal/combat"
	"github.com/samdwyer/ancestralplane/internal/config"
	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/event"
	"github.com/samdwyer/ancestralplane/internal/gamedata"
	"github.com/samdwyer/ancestralplane/internal/progression"
	"github.com/samdwyer/ancestralplane/internal/telemetry"
	"github.com/samdwyer/ancestralplane/internal/world"
)

// PlayerID is the roster id of the player combatant.
const PlayerID = "player"

var (
	// ErrInvalidDelta is returned by Tick for negative, NaN or infinite dt.
	ErrInvalidDelta = errors.New("invalid tick delta")
	// ErrClosed is returned by commands on a closed session.
	ErrClosed = errors.New("session closed")
)

// CombatantRemoved is published when a defeated combatant leaves the roster.
type CombatantRemoved struct {
	ID   string
	Team combat.Team
}

// Session is one run of the engine. All commands and Tick must be called
// from a single goroutine.
type Session struct {
	ID string

	cfg       config.EngineConfig
	catalog   *gamedata.Catalog
	roster    *combat.Roster
	resolver  *combat.Resolver
	abilities *ability.Executor
	tracker   *progression.Tracker
	player    *combat.Combatant

	tracer trace.Tracer
	log    *slog.Logger

	clock  float64
	closed bool

	removed event.Topic[CombatantRemoved]
}

// Option configures a Session.
type Option func(*Session)

// WithID fixes the session id instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.ID = id }
}

// WithTracer replaces the telemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// defaultPlayerDamage is the player's base damage when cfg leaves it unset.
const defaultPlayerDamage = 10

// New builds a session from cfg and catalog and spawns the player at the
// origin. Zero fields in cfg take their defaults.
func New(cfg config.EngineConfig, catalog *gamedata.Catalog, opts ...Option) (*Session, error) {
	if catalog == nil {
		return nil, fmt.Errorf("new session: %w: nil catalog", gamedata.ErrInvalidData)
	}

	if cfg.StartBalance <= 0 {
		cfg.StartBalance = emotion.BalanceNeutral
	}
	if cfg.PlayerDamage <= 0 {
		cfg.PlayerDamage = defaultPlayerDamage
	}

	s := &Session{
		ID:      uuid.NewString(),
		cfg:     cfg,
		catalog: catalog,
		roster:  combat.NewRoster(),
		tracer:  telemetry.Tracer("engine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = slog.Default().With("session", s.ID)

	s.player = combat.New(combat.Spec{
		ID:         PlayerID,
		Name:       "Wanderer",
		Team:       combat.TeamPlayer,
		BaseDamage: cfg.PlayerDamage,
	}, emotion.WithBalance(cfg.StartBalance))
	if err := s.roster.Add(s.player); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	s.resolver = combat.NewResolver(s.roster)
	s.abilities = ability.NewExecutor(s.roster, s.resolver, ability.ParamsFromCatalog(catalog))

	var trackerOpts []progression.Option
	if cfg.UnlockThreshold > 0 {
		trackerOpts = append(trackerOpts, progression.WithUnlockThreshold(cfg.UnlockThreshold))
	}
	if cfg.RealmTimeLimit > 0 {
		trackerOpts = append(trackerOpts, progression.WithTimeLimit(cfg.RealmTimeLimit.Seconds()))
	}
	s.tracker = progression.NewTracker(s.player.Emotion(), trackerOpts...)

	s.log.Info("session started", "balance", s.player.Emotion().Balance(), "threshold", s.tracker.Threshold())
	return s, nil
}

// Spawn adds a combatant. An empty id is filled with a generated one.
func (s *Session) Spawn(spec combat.Spec, opts ...emotion.Option) (*combat.Combatant, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	c := combat.New(spec, opts...)
	if err := s.roster.Add(c); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", spec.ID, err)
	}
	s.log.Debug("combatant spawned", "id", c.ID, "team", c.Team, "mode", c.Mode())
	return c, nil
}

// SpawnShade adds a hostile shade built from def at pos.
func (s *Session) SpawnShade(def *gamedata.ShadeDef, pos world.Vec) (*combat.Combatant, error) {
	if def == nil {
		return nil, fmt.Errorf("spawn shade: %w: nil definition", gamedata.ErrInvalidData)
	}
	return s.Spawn(combat.Spec{
		ID:         def.ID + "-" + uuid.NewString()[:8],
		Name:       def.Name,
		Team:       combat.TeamShade,
		Mode:       def.Mode,
		Health:     def.Health,
		BaseDamage: def.BaseDamage,
		Position:   pos,
	})
}

// Place moves a combatant and, when facing is non-zero, turns it.
func (s *Session) Place(id string, pos, facing world.Vec) error {
	if s.closed {
		return ErrClosed
	}
	c := s.roster.Get(id)
	if c == nil {
		return fmt.Errorf("place: %w: %q", combat.ErrInvalidTarget, id)
	}
	c.Position = pos
	c.Face(facing)
	return nil
}

// SetMode sets the player's mode. It reports whether the mode changed.
func (s *Session) SetMode(ctx context.Context, m emotion.Mode) (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	ctx, span := s.tracer.Start(ctx, "session.set_mode",
		trace.WithAttributes(attribute.String("mode", m.String())))
	defer span.End()

	changed, err := s.player.Emotion().SetMode(ctx, m)
	span.SetAttributes(attribute.Bool("changed", changed))
	return changed, telemetry.RecordError(span, err)
}

// TriggerAbility fires the ability of casterID's current mode.
func (s *Session) TriggerAbility(ctx context.Context, casterID string) (ability.Result, error) {
	if s.closed {
		return ability.Result{}, ErrClosed
	}
	ctx, span := s.tracer.Start(ctx, "session.trigger_ability")
	defer span.End()

	res, err := s.abilities.TriggerAbility(ctx, casterID)
	span.SetAttributes(
		attribute.String("kind", res.Kind.String()),
		attribute.Bool("hit", res.Hit),
	)
	return res, telemetry.RecordError(span, err)
}

// ResolveAttack resolves one attack between roster members.
func (s *Session) ResolveAttack(ctx context.Context, a combat.Attack) (combat.Outcome, error) {
	if s.closed {
		return combat.Outcome{}, ErrClosed
	}
	_, span := s.tracer.Start(ctx, "session.resolve_attack",
		trace.WithAttributes(
			attribute.String("attacker", a.AttackerID),
			attribute.String("defender", a.DefenderID),
			attribute.String("type", a.DamageType.String()),
		))
	defer span.End()

	out, err := s.resolver.ResolveAttack(a)
	if err == nil {
		span.SetAttributes(
			attribute.Float64("damage", out.FinalDamage),
			attribute.Bool("critical", out.Critical),
			attribute.Bool("defeated", out.Defeated),
		)
	}
	return out, telemetry.RecordError(span, err)
}

// ClassifyAction applies a movement classification to the player's balance.
func (s *Session) ClassifyAction(a progression.Action) (float64, error) {
	if s.closed {
		return s.Balance(), ErrClosed
	}
	return s.tracker.ClassifyAction(a)
}

// EnterRealm moves the player to realm index.
func (s *Session) EnterRealm(ctx context.Context, index int) error {
	if s.closed {
		return ErrClosed
	}
	_, span := s.tracer.Start(ctx, "session.enter_realm",
		trace.WithAttributes(attribute.Int("realm", index)))
	defer span.End()
	return telemetry.RecordError(span, s.tracker.EnterRealm(index))
}

// UseRealmDoor enters realm r from the hub in the realm's mode.
func (s *Session) UseRealmDoor(ctx context.Context, r progression.Realm) error {
	if s.closed {
		return ErrClosed
	}
	ctx, span := s.tracer.Start(ctx, "session.realm_door",
		trace.WithAttributes(attribute.String("realm", r.String())))
	defer span.End()
	return telemetry.RecordError(span, s.tracker.UseRealmDoor(ctx, r))
}

// ReturnToHub leaves the current realm unfinished.
func (s *Session) ReturnToHub(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	ctx, span := s.tracer.Start(ctx, "session.return_to_hub")
	defer span.End()
	return telemetry.RecordError(span, s.tracker.ReturnToHub(ctx))
}

// CompleteRealm ends the current realm visit.
func (s *Session) CompleteRealm(ctx context.Context, success bool) (progression.Completion, error) {
	if s.closed {
		return progression.Completion{}, ErrClosed
	}
	_, span := s.tracer.Start(ctx, "session.complete_realm",
		trace.WithAttributes(attribute.Bool("success", success)))
	defer span.End()

	c := s.tracker.CompleteRealm(success)
	span.SetAttributes(
		attribute.String("realm", c.Realm.String()),
		attribute.Bool("ending_eligible", c.EndingEligible),
	)
	return c, nil
}

// CompleteObjective completes obj with the player's current mode.
func (s *Session) CompleteObjective(ctx context.Context, obj progression.Objective) (progression.Completion, error) {
	if s.closed {
		return progression.Completion{}, ErrClosed
	}
	_, span := s.tracer.Start(ctx, "session.complete_objective",
		trace.WithAttributes(attribute.String("objective", obj.Name)))
	defer span.End()

	c, err := s.tracker.CompleteObjective(obj, s.player.Mode())
	return c, telemetry.RecordError(span, err)
}

// EnterWhiteDoor ends the run if the balance allows it.
func (s *Session) EnterWhiteDoor(ctx context.Context) (progression.Ending, error) {
	if s.closed {
		return progression.Ending{}, ErrClosed
	}
	_, span := s.tracer.Start(ctx, "session.white_door")
	defer span.End()

	e, err := s.tracker.EnterWhiteDoor()
	if err == nil {
		span.SetAttributes(attribute.Bool("all_realms", e.AllRealmsCompleted))
	}
	return e, telemetry.RecordError(span, err)
}

// Tick advances the session by dt seconds: abilities, then the realm
// timer, then removal of defeated combatants, then the session clock.
func (s *Session) Tick(ctx context.Context, dt float64) error {
	if s.closed {
		return ErrClosed
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDelta, dt)
	}

	s.abilities.AdvanceTick(ctx, dt)

	if s.tracker.AdvanceTick(dt) {
		s.log.Info("realm timed out", "clock", s.clock+dt)
	}

	s.sweep(ctx)
	s.clock += dt
	return nil
}

// sweep removes defeated combatants other than the player, cancelling
// their abilities first.
func (s *Session) sweep(ctx context.Context) {
	for _, c := range s.roster.SweepDefeated(PlayerID) {
		s.abilities.Cancel(ctx, c.ID)
		c.Emotion().Close()
		s.log.Debug("combatant removed", "id", c.ID)
		s.removed.Publish(CombatantRemoved{ID: c.ID, Team: c.Team})
	}
}

// RemoveTeam drops every combatant of team t, defeated or not, and returns
// how many left. The shell uses it to clear shades when the player leaves a
// realm. A closed session removes nothing.
func (s *Session) RemoveTeam(ctx context.Context, t combat.Team) int {
	if s.closed {
		return 0
	}
	var n int
	for _, c := range append([]*combat.Combatant(nil), s.roster.All()...) {
		if c.Team != t || c.ID == PlayerID {
			continue
		}
		s.abilities.Cancel(ctx, c.ID)
		s.roster.Remove(c.ID)
		c.Emotion().Close()
		s.removed.Publish(CombatantRemoved{ID: c.ID, Team: c.Team})
		n++
	}
	return n
}

// Close cancels running abilities and drops every subscription.
// It is safe to call more than once.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}
	s.abilities.Close(ctx)
	s.tracker.Close()
	s.resolver.Close()
	for _, c := range s.roster.All() {
		c.Emotion().Close()
	}
	s.removed.Clear()
	s.closed = true
	s.log.Info("session closed", "clock", s.clock)
}

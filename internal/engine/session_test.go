package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/samdwyer/ancestralplane/internal/ability"
	"github.com/samdwyer/ancestralplane/internal/combat"
	"github.com/samdwyer/ancestralplane/internal/config"
	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/gamedata"
	"github.com/samdwyer/ancestralplane/internal/progression"
	"github.com/samdwyer/ancestralplane/internal/telemetry"
	"github.com/samdwyer/ancestralplane/internal/world"
)

func newSession(t *testing.T, mutate ...func(*config.EngineConfig)) *Session {
	t.Helper()
	cfg := config.Default().Engine
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := New(cfg, gamedata.MustLoadCatalog(), WithTracer(telemetry.NoopTracer()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestNewSession(t *testing.T) {
	s := newSession(t)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, PlayerID, s.Player().ID)
	assert.Equal(t, emotion.Neutral, s.Mode())
	assert.Equal(t, 50.0, s.Balance())
	assert.Equal(t, combat.MaxHealth, s.Player().Health())
	assert.Equal(t, 1.0, s.TimeScale())
	assert.Equal(t, progression.Hub, s.Tracker().CurrentRealm())

	_, err := New(config.Default().Engine, nil)
	assert.ErrorIs(t, err, gamedata.ErrInvalidData)

	fixed, err := New(config.Default().Engine, gamedata.MustLoadCatalog(), WithID("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", fixed.ID)
}

func TestNewSessionZeroConfig(t *testing.T) {
	ctx := context.Background()
	s, err := New(config.EngineConfig{}, gamedata.MustLoadCatalog(), WithTracer(telemetry.NoopTracer()))
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.Equal(t, emotion.BalanceNeutral, s.Balance())
	assert.Equal(t, progression.DefaultUnlockThreshold, s.Tracker().Threshold())

	_, err = s.Spawn(combat.Spec{ID: "shade", Team: combat.TeamShade, BaseDamage: 1})
	require.NoError(t, err)
	out, err := s.ResolveAttack(ctx, combat.Attack{AttackerID: PlayerID, DefenderID: "shade", DamageType: emotion.Neutral})
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.RawDamage)
	assert.Equal(t, 10.0, s.Player().BaseDamage)
}

func TestSetModeQueries(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	var changes []emotion.ModeChange
	s.OnModeChanged(func(c emotion.ModeChange) { changes = append(changes, c) })

	changed, err := s.SetMode(ctx, emotion.Anger)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.SetMode(ctx, emotion.Anger)
	require.NoError(t, err)
	assert.False(t, changed)
	require.Len(t, changes, 1)

	assert.Equal(t, 1.4, s.SpeedMultiplier())
	assert.True(t, s.HasDash())
	assert.False(t, s.HasSlowMo())
	assert.False(t, s.CanDoubleJump())
}

func TestAttackAndSweep(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	_, err := s.SetMode(ctx, emotion.Anger)
	require.NoError(t, err)

	shade, err := s.Spawn(combat.Spec{ID: "shade", Team: combat.TeamShade, Mode: emotion.Calm, Health: 10})
	require.NoError(t, err)

	var removed []CombatantRemoved
	s.OnCombatantRemoved(func(r CombatantRemoved) { removed = append(removed, r) })

	out, err := s.ResolveAttack(ctx, combat.Attack{AttackerID: PlayerID, DefenderID: "shade", DamageType: emotion.Anger})
	require.NoError(t, err)
	assert.True(t, out.Defeated)
	assert.Equal(t, 0.0, shade.Health())
	assert.InDelta(t, 49.9, s.Balance(), 1e-9)

	_, err = s.ResolveAttack(ctx, combat.Attack{AttackerID: PlayerID, DefenderID: "shade", DamageType: emotion.Anger})
	assert.ErrorIs(t, err, combat.ErrTargetAlreadyDefeated)

	require.NoError(t, s.Tick(ctx, 0.1))
	assert.Nil(t, s.Roster().Get("shade"))
	assert.Equal(t, []CombatantRemoved{{ID: "shade", Team: combat.TeamShade}}, removed)

	_, err = s.ResolveAttack(ctx, combat.Attack{AttackerID: PlayerID, DefenderID: "shade", DamageType: emotion.Anger})
	assert.ErrorIs(t, err, combat.ErrInvalidTarget)
	assert.NotErrorIs(t, err, combat.ErrTargetAlreadyDefeated)
}

func TestSweepCancelsSlots(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	healer, err := s.Spawn(combat.Spec{ID: "healer", Team: combat.TeamShade, Mode: emotion.Calm})
	require.NoError(t, err)
	_, err = s.TriggerAbility(ctx, "healer")
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.TimeScale())

	var expired []ability.Expired
	s.OnAbilityExpired(func(e ability.Expired) { expired = append(expired, e) })

	_, err = s.Spawn(combat.Spec{ID: "brute", Team: combat.TeamPlayer, BaseDamage: 500})
	require.NoError(t, err)
	_, err = s.ResolveAttack(ctx, combat.Attack{AttackerID: "brute", DefenderID: healer.ID, DamageType: emotion.Neutral})
	require.NoError(t, err)

	require.NoError(t, s.Tick(ctx, 0.1))
	_, ok := s.Abilities().Slot("healer")
	assert.False(t, ok)
	assert.Equal(t, 1.0, s.TimeScale(), "time scale restored when the caster is removed")
	require.Len(t, expired, 1)
	assert.True(t, expired[0].Cancelled)
}

func TestPlayerIsNotSwept(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	_, err := s.Spawn(combat.Spec{ID: "ember", Team: combat.TeamShade, BaseDamage: 1000})
	require.NoError(t, err)
	_, err = s.ResolveAttack(ctx, combat.Attack{AttackerID: "ember", DefenderID: PlayerID, DamageType: emotion.Neutral})
	require.NoError(t, err)

	require.NoError(t, s.Tick(ctx, 1))
	assert.NotNil(t, s.Roster().Get(PlayerID))
	assert.True(t, s.Player().IsDefeated())
}

func TestTickRejectsInvalidDelta(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	for _, dt := range []float64{-1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, s.Tick(ctx, dt), ErrInvalidDelta)
	}
	assert.Zero(t, s.SessionTime())

	require.NoError(t, s.Tick(ctx, 0))
	require.NoError(t, s.Tick(ctx, 0.5))
	require.NoError(t, s.Tick(ctx, 0.25))
	assert.Equal(t, 0.75, s.SessionTime())
}

func TestRadiantPulseThroughSession(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	_, err := s.SetMode(ctx, emotion.Joy)
	require.NoError(t, err)
	_, err = s.Spawn(combat.Spec{ID: "shade", Team: combat.TeamShade, BaseDamage: 50})
	require.NoError(t, err)
	_, err = s.ResolveAttack(ctx, combat.Attack{AttackerID: "shade", DefenderID: PlayerID, DamageType: emotion.Neutral})
	require.NoError(t, err)
	before := s.Player().Health()

	res, err := s.TriggerAbility(ctx, PlayerID)
	require.NoError(t, err)
	assert.Equal(t, ability.RadiantPulse, res.Kind)

	var expired int
	s.OnAbilityExpired(func(ability.Expired) { expired++ })
	for range 4 {
		require.NoError(t, s.Tick(ctx, 1))
	}
	assert.InDelta(t, before+15, s.Player().Health(), 1e-9)
	assert.Equal(t, 1, expired)
}

func TestSpikesThroughSession(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	_, err := s.SetMode(ctx, emotion.Anger)
	require.NoError(t, err)
	shades := s.Catalog().Shades()
	shade, err := s.SpawnShade(&shades[0], world.V(0, 0))
	require.NoError(t, err)
	require.NoError(t, s.Place(shade.ID, world.V(3, 0), world.Vec{}))
	require.NoError(t, s.Place(PlayerID, world.V(0, 0), world.V(1, 0)))

	res, err := s.TriggerAbility(ctx, PlayerID)
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.Equal(t, shade.ID, res.Target)

	assert.ErrorIs(t, s.Place("ghost", world.V(1, 1), world.Vec{}), combat.ErrInvalidTarget)
}

func TestRealmFlow(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, func(c *config.EngineConfig) {
		c.StartBalance = 70
		c.RealmTimeLimit = 2 * time.Second
	})

	var completed []progression.Realm
	s.OnRealmCompleted(func(e progression.RealmCompleted) { completed = append(completed, e.Realm) })

	assert.ErrorIs(t, s.EnterRealm(ctx, 5), progression.ErrInvalidRealmIndex)

	require.NoError(t, s.UseRealmDoor(ctx, progression.JoyRealm))
	assert.Equal(t, emotion.Joy, s.Mode())

	c, err := s.CompleteObjective(ctx, progression.Objective{Name: "bloom", RequiredMode: emotion.Joy, Final: true})
	require.NoError(t, err)
	assert.True(t, c.Marked)
	assert.Equal(t, 75.0, s.Balance())
	assert.Equal(t, []progression.Realm{progression.JoyRealm}, completed)

	require.NoError(t, s.UseRealmDoor(ctx, progression.CalmRealm))
	require.NoError(t, s.Tick(ctx, 1.5))
	assert.True(t, s.Tracker().InRealm())
	require.NoError(t, s.Tick(ctx, 1))
	assert.False(t, s.Tracker().InRealm(), "realm timer expired")
	assert.False(t, s.Tracker().IsCompleted(progression.CalmRealm))

	hub, err := s.CompleteRealm(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, progression.Hub, hub.Realm)
	assert.False(t, hub.EndingEligible)

	e, err := s.EnterWhiteDoor(ctx)
	require.NoError(t, err)
	assert.False(t, e.AllRealmsCompleted)
}

func TestClassifyActionThroughSession(t *testing.T) {
	s := newSession(t)
	var balances []float64
	s.OnBalanceChanged(func(c emotion.BalanceChange) { balances = append(balances, c.Balance) })

	for _, a := range []progression.Action{progression.Mindful, progression.Chaotic, progression.Chaotic} {
		_, err := s.ClassifyAction(a)
		require.NoError(t, err)
	}
	assert.Equal(t, []float64{55, 50, 45}, balances)
}

func TestRemoveTeam(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	for range 3 {
		_, err := s.Spawn(combat.Spec{Team: combat.TeamShade})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, s.RemoveTeam(ctx, combat.TeamShade))
	assert.Equal(t, 1, s.Roster().Len())
	assert.Zero(t, s.RemoveTeam(ctx, combat.TeamPlayer), "the player is never removed")
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	_, err := s.SetMode(ctx, emotion.Calm)
	require.NoError(t, err)
	_, err = s.TriggerAbility(ctx, PlayerID)
	require.NoError(t, err)

	var scales []float64
	s.OnTimeScale(func(c ability.TimeScaleChange) { scales = append(scales, c.Scale) })

	s.Close(ctx)
	s.Close(ctx)
	assert.True(t, s.Closed())
	assert.Equal(t, []float64{1}, scales)
	assert.ErrorIs(t, s.Tick(ctx, 1), ErrClosed)
	_, err = s.SetMode(ctx, emotion.Joy)
	assert.ErrorIs(t, err, ErrClosed)

	balance := s.Balance()
	b, err := s.ClassifyAction(progression.Mindful)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, balance, b)
	assert.Equal(t, balance, s.Balance())

	assert.ErrorIs(t, s.EnterRealm(ctx, int(progression.CalmRealm)), ErrClosed)
	assert.ErrorIs(t, s.UseRealmDoor(ctx, progression.JoyRealm), ErrClosed)
	assert.ErrorIs(t, s.ReturnToHub(ctx), ErrClosed)
	assert.Equal(t, progression.Hub, s.Tracker().CurrentRealm())

	_, err = s.CompleteRealm(ctx, true)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.CompleteObjective(ctx, progression.Objective{Name: "heart"})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.EnterWhiteDoor(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.TriggerAbility(ctx, PlayerID)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.ResolveAttack(ctx, combat.Attack{AttackerID: PlayerID, DefenderID: "ghost"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Place(PlayerID, world.V(1, 1), world.Vec{}), ErrClosed)
	_, err = s.Spawn(combat.Spec{Name: "late"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, s.RemoveTeam(ctx, combat.TeamShade))
}

func TestCommandSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	ctx := context.Background()

	s, err := New(config.Default().Engine, gamedata.MustLoadCatalog(), WithTracer(tp.Tracer("test")))
	require.NoError(t, err)
	defer s.Close(ctx)

	_, err = s.ResolveAttack(ctx, combat.Attack{AttackerID: PlayerID, DefenderID: "ghost"})
	require.ErrorIs(t, err, combat.ErrInvalidTarget)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "session.resolve_attack", ended[0].Name())
	assert.Len(t, ended[0].Events(), 1, "error recorded")
}

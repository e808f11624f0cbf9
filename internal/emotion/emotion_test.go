package emotion

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWeakToExhaustive(t *testing.T) {
	weak := map[[2]Mode]bool{
		{Calm, Anger}: true,
		{Joy, Calm}:   true,
		{Anger, Joy}:  true,
	}

	for _, defender := range Modes {
		for _, incoming := range Modes {
			want := weak[[2]Mode{defender, incoming}]
			assert.Equal(t, want, IsWeakTo(defender, incoming),
				"IsWeakTo(%s, %s)", defender, incoming)
		}
	}
}

func TestProfileTable(t *testing.T) {
	tests := []struct {
		mode    Mode
		attack  float64
		defense float64
		speed   float64
	}{
		{Neutral, 1.0, 1.0, 1.0},
		{Anger, 1.5, 0.5, 1.4},
		{Calm, 0.8, 1.5, 0.7},
		{Joy, 1.1, 1.1, 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			p := ProfileFor(tt.mode)
			assert.Equal(t, tt.attack, p.Attack)
			assert.Equal(t, tt.defense, p.Defense)
			assert.Equal(t, tt.speed, p.Speed)
			assert.GreaterOrEqual(t, p.Defense, MinDefense)
		})
	}

	assert.Equal(t, ProfileFor(Neutral), ProfileFor(Mode(42)), "unknown modes fall back to Neutral")
}

func TestMovementEligibility(t *testing.T) {
	assert.True(t, ProfileFor(Joy).DoubleJump)
	assert.True(t, ProfileFor(Calm).SlowMo)
	assert.True(t, ProfileFor(Anger).Dash)

	n := ProfileFor(Neutral)
	assert.False(t, n.DoubleJump || n.SlowMo || n.Dash)
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(m.ID())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMode("JOY")
	require.NoError(t, err)
	assert.Equal(t, Joy, got)

	_, err = ParseMode("envy")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestModeText(t *testing.T) {
	b, err := Calm.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "calm", string(b))

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("anger")))
	assert.Equal(t, Anger, m)

	_, err = Mode(9).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSignedConversion(t *testing.T) {
	tests := []struct {
		balance float64
		signed  float64
	}{
		{0, -1},
		{25, -0.5},
		{50, 0},
		{75, 0.5},
		{100, 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.signed, ToSigned(tt.balance), 1e-9, "ToSigned(%v)", tt.balance)
		assert.InDelta(t, tt.balance, FromSigned(tt.signed), 1e-9, "FromSigned(%v)", tt.signed)
	}

	assert.Equal(t, 100.0, FromSigned(3))
	assert.Equal(t, -1.0, ToSigned(-20))
}

func TestTierOf(t *testing.T) {
	assert.Equal(t, TierLow, TierOf(0))
	assert.Equal(t, TierLow, TierOf(24.9))
	assert.Equal(t, TierMedium, TierOf(25))
	assert.Equal(t, TierMedium, TierOf(74.9))
	assert.Equal(t, TierHigh, TierOf(75))
	assert.Equal(t, "high", TierHigh.String())
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState("player")

	assert.Equal(t, Neutral, s.Mode())
	assert.Equal(t, BalanceNeutral, s.Balance())
	assert.Equal(t, "player", s.Subject())
	assert.Equal(t, 1.0, s.SpeedMultiplier())

	s = NewState("shade", WithMode(Anger), WithBalance(140))
	assert.Equal(t, Anger, s.Mode())
	assert.Equal(t, BalanceMax, s.Balance())
	assert.True(t, s.HasDash())
}

func TestSetModeEmitsOnce(t *testing.T) {
	ctx := context.Background()
	s := NewState("player")

	var changes []ModeChange
	s.OnModeChanged(func(c ModeChange) { changes = append(changes, c) })

	changed, err := s.SetMode(ctx, Joy)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.SetMode(ctx, Joy)
	require.NoError(t, err)
	assert.False(t, changed)

	require.Len(t, changes, 1)
	assert.Equal(t, ModeChange{Subject: "player", Previous: Neutral, Mode: Joy}, changes[0])
	assert.True(t, s.CanDoubleJump())
}

func TestSetModeFullyConnected(t *testing.T) {
	ctx := context.Background()

	for _, from := range Modes {
		for _, to := range Modes {
			if from == to {
				continue
			}
			s := NewState("p", WithMode(from))
			changed, err := s.SetMode(ctx, to)
			require.NoError(t, err, "%s -> %s", from, to)
			assert.True(t, changed, "%s -> %s", from, to)
			assert.Equal(t, to, s.Mode())
		}
	}
}

func TestSetModeUnknown(t *testing.T) {
	s := NewState("p")
	calls := 0
	s.OnModeChanged(func(ModeChange) { calls++ })

	changed, err := s.SetMode(context.Background(), Mode(7))
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.False(t, changed)
	assert.Equal(t, Neutral, s.Mode())
	assert.Zero(t, calls)
}

func TestApplyBalanceDeltaClamps(t *testing.T) {
	s := NewState("p")

	var seen []float64
	s.OnBalanceChanged(func(c BalanceChange) { seen = append(seen, c.Balance) })

	assert.Equal(t, 100.0, mustApply(t, s, 1000))
	assert.Equal(t, 100.0, mustApply(t, s, 5))
	assert.Equal(t, 0.0, mustApply(t, s, -1000))

	assert.Equal(t, []float64{100, 100, 0}, seen, "clamped updates still notify")
}

func TestApplyBalanceDeltaSmall(t *testing.T) {
	s := NewState("p")
	assert.InDelta(t, 49.9, mustApply(t, s, -0.1), 1e-9)
	assert.InDelta(t, 49.95, mustApply(t, s, 0.05), 1e-9)
}

func TestApplyBalanceDeltaRejectsNonFinite(t *testing.T) {
	s := NewState("p", WithBalance(60))
	calls := 0
	s.OnBalanceChanged(func(BalanceChange) { calls++ })

	for _, d := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		b, err := s.ApplyBalanceDelta(d)
		assert.ErrorIs(t, err, ErrInvalidDelta)
		assert.Equal(t, 60.0, b)
	}
	assert.Equal(t, 60.0, s.Balance())
	assert.Zero(t, calls)

	assert.Equal(t, 65.0, mustApply(t, s, 5))
}

func mustApply(t *testing.T, s *State, delta float64) float64 {
	t.Helper()
	b, err := s.ApplyBalanceDelta(delta)
	require.NoError(t, err)
	return b
}

func TestStateClose(t *testing.T) {
	s := NewState("p")
	calls := 0
	s.OnBalanceChanged(func(BalanceChange) { calls++ })
	s.OnModeChanged(func(ModeChange) { calls++ })

	s.Close()
	s.ApplyBalanceDelta(1)
	_, _ = s.SetMode(context.Background(), Calm)

	assert.Zero(t, calls)
}

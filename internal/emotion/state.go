package emotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/looplab/fsm"

	"github.com/samdwyer/ancestralplane/internal/event"
)

var (
	// ErrUnknownMode is returned for modes outside the declared enum.
	ErrUnknownMode = errors.New("unknown emotional mode")
	// ErrInvalidDelta is returned for NaN or infinite balance deltas.
	ErrInvalidDelta = errors.New("invalid balance delta")
)

// ModeChange is published when a state commits a new mode.
type ModeChange struct {
	Subject  string
	Previous Mode
	Mode     Mode
}

// BalanceChange is published after every balance delta, clamped or not.
type BalanceChange struct {
	Subject string
	Delta   float64
	Balance float64
}

// State is the emotional state of one combatant: its current mode and its
// balance meter. The mode graph is fully connected; the only filtered
// transition is setting the mode it already has.
type State struct {
	subject string
	machine *fsm.FSM
	balance float64

	modeChanged    event.Topic[ModeChange]
	balanceChanged event.Topic[BalanceChange]
}

// Option configures a new State.
type Option func(*State)

// WithBalance sets the starting balance (clamped).
func WithBalance(b float64) Option {
	return func(s *State) { s.balance = ClampBalance(b) }
}

// WithMode sets the starting mode without publishing a change.
func WithMode(m Mode) Option {
	return func(s *State) {
		if m.Valid() {
			s.machine.SetState(m.ID())
		}
	}
}

// NewState creates a state in Neutral with neutral balance.
// subject identifies the owner in published notifications.
func NewState(subject string, opts ...Option) *State {
	s := &State{
		subject: subject,
		machine: newModeMachine(),
		balance: BalanceNeutral,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func transitionEvent(m Mode) string {
	return "to_" + m.ID()
}

func newModeMachine() *fsm.FSM {
	sources := make([]string, 0, len(Modes))
	for _, m := range Modes {
		sources = append(sources, m.ID())
	}

	events := make(fsm.Events, 0, len(Modes))
	for _, m := range Modes {
		events = append(events, fsm.EventDesc{
			Name: transitionEvent(m),
			Src:  sources,
			Dst:  m.ID(),
		})
	}

	return fsm.NewFSM(Neutral.ID(), events, fsm.Callbacks{})
}

// Subject returns the owner identifier given at construction.
func (s *State) Subject() string { return s.subject }

// Mode returns the current mode.
func (s *State) Mode() Mode {
	m, err := ParseMode(s.machine.Current())
	if err != nil {
		// The machine only knows states built from Modes.
		return Neutral
	}
	return m
}

// SetMode commits m as the current mode and notifies subscribers.
// Setting the current mode again changes nothing and publishes nothing.
func (s *State) SetMode(ctx context.Context, m Mode) (bool, error) {
	if !m.Valid() {
		return false, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}

	prev := s.Mode()
	err := s.machine.Event(ctx, transitionEvent(m))
	if err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return false, nil
		}
		return false, fmt.Errorf("set mode %s: %w", m, err)
	}

	slog.Debug("emotion changed", "subject", s.subject, "from", prev, "to", m)
	s.modeChanged.Publish(ModeChange{Subject: s.subject, Previous: prev, Mode: m})
	return true, nil
}

// Balance returns the current balance in [BalanceMin, BalanceMax].
func (s *State) Balance() float64 { return s.balance }

// ApplyBalanceDelta adds delta, clamps, and always notifies subscribers.
// It is the only way balance changes after construction. A non-finite
// delta is rejected and leaves the balance untouched.
func (s *State) ApplyBalanceDelta(delta float64) (float64, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return s.balance, fmt.Errorf("%w: %v", ErrInvalidDelta, delta)
	}
	s.balance = ClampBalance(s.balance + delta)
	s.balanceChanged.Publish(BalanceChange{Subject: s.subject, Delta: delta, Balance: s.balance})
	return s.balance, nil
}

// Profile returns the derived profile for the current mode.
func (s *State) Profile() Profile { return ProfileFor(s.Mode()) }

// SpeedMultiplier returns the movement multiplier for the current mode.
func (s *State) SpeedMultiplier() float64 { return s.Profile().Speed }

// CanDoubleJump reports double-jump eligibility (Joy).
func (s *State) CanDoubleJump() bool { return s.Profile().DoubleJump }

// HasSlowMo reports slow-motion eligibility (Calm).
func (s *State) HasSlowMo() bool { return s.Profile().SlowMo }

// HasDash reports dash eligibility (Anger).
func (s *State) HasDash() bool { return s.Profile().Dash }

// OnModeChanged registers fn for mode changes.
func (s *State) OnModeChanged(fn func(ModeChange)) event.Subscription {
	return s.modeChanged.Subscribe(fn)
}

// OnBalanceChanged registers fn for balance updates.
func (s *State) OnBalanceChanged(fn func(BalanceChange)) event.Subscription {
	return s.balanceChanged.Subscribe(fn)
}

// Close drops every subscriber.
func (s *State) Close() {
	s.modeChanged.Clear()
	s.balanceChanged.Clear()
}

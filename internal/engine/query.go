package engine

import (
	"github.com/samdwyer/ancestralplane/internal/ability"
	"github.com/samdwyer/ancestralplane/internal/combat"
	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/event"
	"github.com/samdwyer/ancestralplane/internal/gamedata"
	"github.com/samdwyer/ancestralplane/internal/progression"
)

// Player returns the player combatant.
func (s *Session) Player() *combat.Combatant { return s.player }

// Roster returns the session roster.
func (s *Session) Roster() *combat.Roster { return s.roster }

// Tracker returns the realm progress tracker.
func (s *Session) Tracker() *progression.Tracker { return s.tracker }

// Abilities returns the ability executor.
func (s *Session) Abilities() *ability.Executor { return s.abilities }

// Catalog returns the session's game data.
func (s *Session) Catalog() *gamedata.Catalog { return s.catalog }

// Mode returns the player's mode.
func (s *Session) Mode() emotion.Mode { return s.player.Mode() }

// Balance returns the player's balance.
func (s *Session) Balance() float64 { return s.player.Emotion().Balance() }

// SpeedMultiplier returns the player's movement multiplier.
func (s *Session) SpeedMultiplier() float64 { return s.player.Emotion().SpeedMultiplier() }

// CanDoubleJump reports the player's double-jump eligibility.
func (s *Session) CanDoubleJump() bool { return s.player.Emotion().CanDoubleJump() }

// HasSlowMo reports the player's slow-motion eligibility.
func (s *Session) HasSlowMo() bool { return s.player.Emotion().HasSlowMo() }

// HasDash reports the player's dash eligibility.
func (s *Session) HasDash() bool { return s.player.Emotion().HasDash() }

// TimeScale returns the environment time scale requested by abilities.
func (s *Session) TimeScale() float64 { return s.abilities.TimeScale() }

// SessionTime returns the seconds ticked so far.
func (s *Session) SessionTime() float64 { return s.clock }

// Closed reports whether Close has run.
func (s *Session) Closed() bool { return s.closed }

// OnModeChanged registers fn for player mode changes.
func (s *Session) OnModeChanged(fn func(emotion.ModeChange)) event.Subscription {
	return s.player.Emotion().OnModeChanged(fn)
}

// OnBalanceChanged registers fn for player balance updates.
func (s *Session) OnBalanceChanged(fn func(emotion.BalanceChange)) event.Subscription {
	return s.player.Emotion().OnBalanceChanged(fn)
}

// OnRealmCompleted registers fn for newly completed realms.
func (s *Session) OnRealmCompleted(fn func(progression.RealmCompleted)) event.Subscription {
	return s.tracker.OnRealmCompleted(fn)
}

// OnAbilityExpired registers fn for ability expiries.
func (s *Session) OnAbilityExpired(fn func(ability.Expired)) event.Subscription {
	return s.abilities.OnExpired(fn)
}

// OnTimeScale registers fn for time-scale requests.
func (s *Session) OnTimeScale(fn func(ability.TimeScaleChange)) event.Subscription {
	return s.abilities.OnTimeScale(fn)
}

// OnDefeated registers fn for combatant defeats.
func (s *Session) OnDefeated(fn func(combat.Defeat)) event.Subscription {
	return s.resolver.OnDefeated(fn)
}

// OnCombatantRemoved registers fn for combatants leaving the roster.
func (s *Session) OnCombatantRemoved(fn func(CombatantRemoved)) event.Subscription {
	return s.removed.Subscribe(fn)
}

package combat

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/event"
)

const (
	// WeaknessMultiplier scales damage for a weakness-triangle hit.
	WeaknessMultiplier = 1.5

	// Attacker balance shifts per resolved attack.
	angerBalanceShift = -0.1
	otherBalanceShift = 0.05
)

var (
	// ErrInvalidTarget is returned for attacks on a missing or defeated target.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrTargetAlreadyDefeated is the redundant-damage case of ErrInvalidTarget.
	ErrTargetAlreadyDefeated = fmt.Errorf("%w: target already defeated", ErrInvalidTarget)
	// ErrInvalidAttacker is returned when the attacker is missing or defeated.
	ErrInvalidAttacker = errors.New("invalid attacker")
)

// Attack is one damage request.
type Attack struct {
	AttackerID string
	DefenderID string
	DamageType emotion.Mode

	// BaseDamage overrides the attacker's base damage when positive.
	BaseDamage float64
	// Fixed skips the attacker's mode multiplier (ability damage).
	Fixed bool
}

// Outcome is the result of a resolved attack.
type Outcome struct {
	AttackerID string
	DefenderID string
	DamageType emotion.Mode

	RawDamage   float64 // after the attacker multiplier
	FinalDamage float64 // after defense and weakness
	Applied     float64 // health actually removed
	Critical    bool    // weakness triangle hit

	HealthAfter  float64
	Defeated     bool
	BalanceDelta float64
	BalanceAfter float64 // attacker's balance
}

// Defeat is published when a combatant's health reaches zero.
type Defeat struct {
	ID      string
	By      string
	Outcome Outcome
}

// BalanceShift returns the attacker balance delta for a damage type.
func BalanceShift(damageType emotion.Mode) float64 {
	if damageType == emotion.Anger {
		return angerBalanceShift
	}
	return otherBalanceShift
}

// Resolver applies damage and healing to combatants in a roster.
type Resolver struct {
	roster   *Roster
	defeated event.Topic[Defeat]
}

// NewResolver creates a resolver over roster.
func NewResolver(roster *Roster) *Resolver {
	return &Resolver{roster: roster}
}

// OnDefeated registers fn for defeats.
func (r *Resolver) OnDefeated(fn func(Defeat)) event.Subscription {
	return r.defeated.Subscribe(fn)
}

// ResolveAttack computes and applies one attack:
//
//	raw   = base × attacker attack multiplier (unless Fixed)
//	final = raw ÷ defender defense multiplier, ×1.5 on a weakness hit
//
// The defender loses final health (floored at zero) and the attacker's
// balance shifts by BalanceShift(DamageType). Nothing is mutated on error.
func (r *Resolver) ResolveAttack(a Attack) (Outcome, error) {
	if !a.DamageType.Valid() {
		return Outcome{}, fmt.Errorf("resolve attack: %w: %d", emotion.ErrUnknownMode, int(a.DamageType))
	}

	attacker := r.roster.Get(a.AttackerID)
	if attacker == nil || attacker.IsDefeated() {
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidAttacker, a.AttackerID)
	}

	defender := r.roster.Get(a.DefenderID)
	switch {
	case defender == nil || defender == attacker:
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidTarget, a.DefenderID)
	case defender.IsDefeated():
		return Outcome{
			AttackerID:  a.AttackerID,
			DefenderID:  a.DefenderID,
			DamageType:  a.DamageType,
			HealthAfter: defender.Health(),
			Defeated:    true,
		}, fmt.Errorf("%w: %q", ErrTargetAlreadyDefeated, a.DefenderID)
	}

	base := attacker.BaseDamage
	if a.BaseDamage > 0 {
		base = a.BaseDamage
	}
	raw := base
	if !a.Fixed {
		raw *= attacker.AttackMultiplier()
	}

	final := raw / defender.DefenseMultiplier()
	critical := emotion.IsWeakTo(defender.Mode(), a.DamageType)
	if critical {
		final *= WeaknessMultiplier
	}

	delta := BalanceShift(a.DamageType)
	balance, err := attacker.Emotion().ApplyBalanceDelta(delta)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve attack: %w", err)
	}
	applied := defender.takeDamage(final)

	out := Outcome{
		AttackerID:   a.AttackerID,
		DefenderID:   a.DefenderID,
		DamageType:   a.DamageType,
		RawDamage:    raw,
		FinalDamage:  final,
		Applied:      applied,
		Critical:     critical,
		HealthAfter:  defender.Health(),
		Defeated:     defender.IsDefeated(),
		BalanceDelta: delta,
		BalanceAfter: balance,
	}

	slog.Debug("attack resolved",
		"attacker", a.AttackerID,
		"defender", a.DefenderID,
		"type", a.DamageType,
		"damage", final,
		"critical", critical,
		"health", out.HealthAfter)

	if out.Defeated {
		slog.Info("combatant defeated", "id", defender.ID, "by", attacker.ID)
		r.defeated.Publish(Defeat{ID: defender.ID, By: attacker.ID, Outcome: out})
	}
	return out, nil
}

// Heal restores up to amount health to the combatant, capped at MaxHealth,
// and returns the amount actually restored. Defeated combatants cannot be healed.
func (r *Resolver) Heal(id string, amount float64) (float64, error) {
	c := r.roster.Get(id)
	if c == nil {
		return 0, fmt.Errorf("heal: %w: %q", ErrInvalidTarget, id)
	}
	if c.IsDefeated() {
		return 0, fmt.Errorf("heal: %w: %q", ErrTargetAlreadyDefeated, id)
	}
	return c.heal(amount), nil
}

// Close drops every defeat subscriber.
func (r *Resolver) Close() {
	r.defeated.Clear()
}

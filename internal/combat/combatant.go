// Package combat resolves emotional damage between combatants.
package combat

import (
	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/world"
)

// MaxHealth is the health ceiling of every combatant.
const MaxHealth = 100.0

// DefaultHitRadius is the body radius used for ray hits when none is given.
const DefaultHitRadius = 0.5

// Team groups combatants for ally queries.
type Team int

const (
	TeamPlayer Team = iota
	TeamShade
)

// String returns the team name.
func (t Team) String() string {
	switch t {
	case TeamPlayer:
		return "player"
	case TeamShade:
		return "shade"
	default:
		return "unknown"
	}
}

// Status is Active until health reaches zero, then Defeated for good.
type Status int

const (
	StatusActive Status = iota
	StatusDefeated
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDefeated:
		return "defeated"
	default:
		return "unknown"
	}
}

// Spec describes a combatant to create.
type Spec struct {
	ID         string
	Name       string
	Team       Team
	Mode       emotion.Mode
	Health     float64 // 0 means MaxHealth
	BaseDamage float64
	Position   world.Vec
	Facing     world.Vec
	HitRadius  float64 // 0 means DefaultHitRadius
}

// Combatant is one participant in the simulation. Health is mutated only
// through a Resolver; mode only through the combatant's emotion State.
type Combatant struct {
	ID         string
	Name       string
	Team       Team
	BaseDamage float64
	HitRadius  float64

	Position world.Vec
	Facing   world.Vec

	health  float64
	status  Status
	emotion *emotion.State
}

// New creates an active combatant from spec.
func New(spec Spec, opts ...emotion.Option) *Combatant {
	health := spec.Health
	if health <= 0 || health > MaxHealth {
		health = MaxHealth
	}
	radius := spec.HitRadius
	if radius <= 0 {
		radius = DefaultHitRadius
	}
	facing := spec.Facing
	if facing.IsZero() {
		facing = world.V(1, 0)
	}

	opts = append([]emotion.Option{emotion.WithMode(spec.Mode)}, opts...)

	return &Combatant{
		ID:         spec.ID,
		Name:       spec.Name,
		Team:       spec.Team,
		BaseDamage: spec.BaseDamage,
		HitRadius:  radius,
		Position:   spec.Position,
		Facing:     facing.Normalize(),
		health:     health,
		status:     StatusActive,
		emotion:    emotion.NewState(spec.ID, opts...),
	}
}

// Health returns current health in [0, MaxHealth].
func (c *Combatant) Health() float64 { return c.health }

// Status returns the combatant's status.
func (c *Combatant) Status() Status { return c.status }

// IsDefeated reports whether health has reached zero.
func (c *Combatant) IsDefeated() bool { return c.status == StatusDefeated }

// Emotion returns the combatant's emotional state.
func (c *Combatant) Emotion() *emotion.State { return c.emotion }

// Mode returns the current emotional mode.
func (c *Combatant) Mode() emotion.Mode { return c.emotion.Mode() }

// AttackMultiplier is derived from the current mode on every call.
func (c *Combatant) AttackMultiplier() float64 { return emotion.AttackMultiplier(c.Mode()) }

// DefenseMultiplier is derived from the current mode on every call.
func (c *Combatant) DefenseMultiplier() float64 { return emotion.DefenseMultiplier(c.Mode()) }

// Body returns the combatant's hit circle.
func (c *Combatant) Body() world.Body {
	return world.Body{Pos: c.Position, Radius: c.HitRadius}
}

// Face points the combatant along dir; a zero dir is ignored.
func (c *Combatant) Face(dir world.Vec) {
	if !dir.IsZero() {
		c.Facing = dir.Normalize()
	}
}

func (c *Combatant) takeDamage(amount float64) float64 {
	if amount <= 0 || c.IsDefeated() {
		return 0
	}
	actual := min(amount, c.health)
	c.health -= actual
	if c.health <= 0 {
		c.health = 0
		c.status = StatusDefeated
	}
	return actual
}

func (c *Combatant) heal(amount float64) float64 {
	if amount <= 0 || c.IsDefeated() {
		return 0
	}
	actual := min(amount, MaxHealth-c.health)
	c.health += actual
	return actual
}

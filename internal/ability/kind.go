// Package ability runs the mode-bound abilities: one timed slot per caster
// plus the instant Spiteful Spikes.
package ability

import "github.com/samdwyer/ancestralplane/internal/emotion"

// Kind identifies an ability.
type Kind int

const (
	None Kind = iota
	RadiantPulse
	ChronosField
	SpitefulSpikes
)

// String returns the display name.
func (k Kind) String() string {
	switch k {
	case RadiantPulse:
		return "Radiant Pulse"
	case ChronosField:
		return "Chronos Field"
	case SpitefulSpikes:
		return "Spiteful Spikes"
	default:
		return "None"
	}
}

// ForMode maps a mode to its ability. Neutral has none.
func ForMode(m emotion.Mode) Kind {
	switch m {
	case emotion.Joy:
		return RadiantPulse
	case emotion.Calm:
		return ChronosField
	case emotion.Anger:
		return SpitefulSpikes
	default:
		return None
	}
}

// Timed reports whether k occupies the caster's slot.
func (k Kind) Timed() bool {
	return k == RadiantPulse || k == ChronosField
}

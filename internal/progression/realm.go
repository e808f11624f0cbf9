// Package progression tracks realm completion and the white door gate.
package progression

import (
	"fmt"

	"github.com/samdwyer/ancestralplane/internal/emotion"
)

// Realm is a realm index: 0 is the hub, 1..3 the emotion realms.
type Realm int

const (
	Hub Realm = iota
	AngerRealm
	CalmRealm
	JoyRealm

	realmCount
)

// EmotionRealms lists the realms that can be completed.
var EmotionRealms = [...]Realm{AngerRealm, CalmRealm, JoyRealm}

// Valid reports whether r is in [Hub, JoyRealm].
func (r Realm) Valid() bool { return r >= Hub && r < realmCount }

// String returns the realm name.
func (r Realm) String() string {
	switch r {
	case Hub:
		return "Ancestral Plane"
	case AngerRealm:
		return "Anger Realm"
	case CalmRealm:
		return "Calm Realm"
	case JoyRealm:
		return "Joy Realm"
	default:
		return fmt.Sprintf("Realm(%d)", int(r))
	}
}

// Mode returns the emotion a realm's door puts the player in.
func (r Realm) Mode() emotion.Mode {
	switch r {
	case AngerRealm:
		return emotion.Anger
	case CalmRealm:
		return emotion.Calm
	case JoyRealm:
		return emotion.Joy
	default:
		return emotion.Neutral
	}
}

// RealmFor returns the realm bound to m. Neutral maps to the hub.
func RealmFor(m emotion.Mode) Realm {
	switch m {
	case emotion.Anger:
		return AngerRealm
	case emotion.Calm:
		return CalmRealm
	case emotion.Joy:
		return JoyRealm
	default:
		return Hub
	}
}

// Action is a movement classification reported by the environment.
type Action int

const (
	Mindful Action = iota
	Chaotic
)

// ActionDelta is the balance change of one classified action.
const ActionDelta = 5.0

// String returns the action name.
func (a Action) String() string {
	if a == Chaotic {
		return "chaotic"
	}
	return "mindful"
}

// Delta returns the balance change for a.
func (a Action) Delta() float64 {
	if a == Chaotic {
		return -ActionDelta
	}
	return ActionDelta
}

// AncestralGate is a balance-gated passage that speaks the signed [-1, 1]
// balance scale.
type AncestralGate struct {
	RequiredMode emotion.Mode
	MinSigned    float64
	MaxSigned    float64
}

// IsOpen reports whether a player in mode with canonical balance may pass.
// The mode must match exactly, Neutral included.
func (g AncestralGate) IsOpen(mode emotion.Mode, balance float64) bool {
	if mode != g.RequiredMode {
		return false
	}
	s := emotion.ToSigned(balance)
	return s >= g.MinSigned && s <= g.MaxSigned
}

// Package emotion holds the emotional mode model: the mode enum, the
// per-mode combat and movement profile, the weakness triangle and the
// balance meter.
package emotion

import (
	"fmt"
	"strings"
)

// Mode is the discrete emotional state of a combatant.
type Mode int

const (
	Neutral Mode = iota
	Anger
	Calm
	Joy

	modeCount
)

// Modes lists every mode in declaration order.
var Modes = [modeCount]Mode{Neutral, Anger, Calm, Joy}

// String returns the display name of the mode.
func (m Mode) String() string {
	switch m {
	case Neutral:
		return "Neutral"
	case Anger:
		return "Anger"
	case Calm:
		return "Calm"
	case Joy:
		return "Joy"
	default:
		return "Unknown"
	}
}

// ID returns the lower-case identifier used in data files and FSM states.
func (m Mode) ID() string {
	return strings.ToLower(m.String())
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= Neutral && m < modeCount
}

// ParseMode converts an identifier ("anger", "Calm", ...) to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(s, m.ID()) {
			return m, nil
		}
	}
	return Neutral, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler so modes read naturally in
// YAML and JSON.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.ID()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// weakTo maps a defending mode to the incoming damage type it is weak to.
// Anger beats Calm, Calm beats Joy, Joy beats Anger.
var weakTo = map[Mode]Mode{
	Calm:  Anger,
	Joy:   Calm,
	Anger: Joy,
}

// IsWeakTo reports whether a combatant in defender mode takes bonus damage
// from incoming damage of the given type. Neutral is weak to nothing and no
// mode is weak to its own type.
func IsWeakTo(defender, incoming Mode) bool {
	w, ok := weakTo[defender]
	return ok && w == incoming
}

package gamedata

import (
	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/ancestralplane/internal/emotion"
)

// Ability identifiers as used in abilities.json.
const (
	AbilityRadiantPulse   = "radiant_pulse"
	AbilityChronosField   = "chronos_field"
	AbilitySpitefulSpikes = "spiteful_spikes"
)

// AbilityDef holds the tuning for one mode ability. Unused fields stay zero.
type AbilityDef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Mode        emotion.Mode `json:"mode"`

	Duration  float64 `json:"duration,omitempty"`  // seconds, timed abilities only
	Radius    float64 `json:"radius,omitempty"`    // world units
	HealRate  float64 `json:"healRate,omitempty"`  // health per second
	TimeScale float64 `json:"timeScale,omitempty"` // requested global time scale
	Range     float64 `json:"range,omitempty"`     // ray length
	Damage    float64 `json:"damage,omitempty"`    // fixed damage
}

// IsTimed reports whether the ability occupies the caster's slot.
func (a *AbilityDef) IsTimed() bool { return a.Duration > 0 }

// timedAbilities says which known abilities must carry a duration.
var timedAbilities = map[string]bool{
	AbilityRadiantPulse:   true,
	AbilityChronosField:   true,
	AbilitySpitefulSpikes: false,
}

// AbilitiesFile represents the structure of abilities.json.
type AbilitiesFile struct {
	Abilities []AbilityDef `json:"abilities"`
}

// RealmDef describes one realm, index 0 being the hub.
type RealmDef struct {
	Index  int          `json:"index"`
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Mode   emotion.Mode `json:"mode"`
	Color  string       `json:"color"`  // hex, e.g. "#8C0000"
	Shades int          `json:"shades"` // shades spawned on entry
	Gate   *GateDef     `json:"gate,omitempty"`
}

// GateDef is the signed balance window, within [-1, 1], of the gates
// around a realm's heart. They open only in the realm's own mode.
type GateDef struct {
	MinSigned float64 `json:"minSigned"`
	MaxSigned float64 `json:"maxSigned"`
}

// TCellColor returns the realm colour, white if unparsable.
func (r *RealmDef) TCellColor() tcell.Color {
	c, err := ParseHexColor(r.Color)
	if err != nil {
		return tcell.ColorWhite
	}
	return c
}

// RealmsFile represents the structure of realms.json.
type RealmsFile struct {
	Realms []RealmDef `json:"realms"`
}

// ShadeDef defines a hostile shade type.
type ShadeDef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Glyph       string       `json:"glyph"`
	Mode        emotion.Mode `json:"mode"`
	Health      float64      `json:"health"`
	BaseDamage  float64      `json:"baseDamage"`
	SpawnWeight int          `json:"spawnWeight"` // relative frequency, higher = more common
}

// GlyphRune returns the glyph as a rune for rendering.
func (s *ShadeDef) GlyphRune() rune {
	if len(s.Glyph) == 0 {
		return '?'
	}
	return rune(s.Glyph[0])
}

// ShadesFile represents the structure of shades.json.
type ShadesFile struct {
	Shades []ShadeDef `json:"shades"`
}

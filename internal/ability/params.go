package ability

import "github.com/samdwyer/ancestralplane/internal/gamedata"

// Params holds the tuning of every ability.
type Params struct {
	PulseDuration float64
	PulseRadius   float64
	PulseHealRate float64 // per second

	FieldDuration  float64
	FieldTimeScale float64

	SpikesRange  float64
	SpikesDamage float64
}

// DefaultParams returns the built-in tuning.
func DefaultParams() Params {
	return Params{
		PulseDuration:  3,
		PulseRadius:    5,
		PulseHealRate:  5,
		FieldDuration:  5,
		FieldTimeScale: 0.3,
		SpikesRange:    5,
		SpikesDamage:   25,
	}
}

// ParamsFromCatalog overlays the catalog's ability definitions on the
// defaults. Missing or zero fields keep their default.
func ParamsFromCatalog(c *gamedata.Catalog) Params {
	p := DefaultParams()
	if c == nil {
		return p
	}
	if d := c.Ability(gamedata.AbilityRadiantPulse); d != nil {
		setIfPositive(&p.PulseDuration, d.Duration)
		setIfPositive(&p.PulseRadius, d.Radius)
		setIfPositive(&p.PulseHealRate, d.HealRate)
	}
	if d := c.Ability(gamedata.AbilityChronosField); d != nil {
		setIfPositive(&p.FieldDuration, d.Duration)
		setIfPositive(&p.FieldTimeScale, d.TimeScale)
	}
	if d := c.Ability(gamedata.AbilitySpitefulSpikes); d != nil {
		setIfPositive(&p.SpikesRange, d.Range)
		setIfPositive(&p.SpikesDamage, d.Damage)
	}
	return p
}

func setIfPositive(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

// Duration returns the full duration of a timed kind, or zero.
func (p Params) Duration(k Kind) float64 {
	switch k {
	case RadiantPulse:
		return p.PulseDuration
	case ChronosField:
		return p.FieldDuration
	default:
		return 0
	}
}

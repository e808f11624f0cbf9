package emotion

// MinDefense is the floor applied to every defense multiplier so damage
// division is always defined.
const MinDefense = 1e-3

// Profile is everything derived from a mode. It is never stored on a
// combatant; callers look it up from the current mode each time.
type Profile struct {
	Attack  float64
	Defense float64

	// Movement-only; not part of combat math.
	Speed      float64
	DoubleJump bool
	SlowMo     bool
	Dash       bool
}

// profiles is indexed by Mode. Its length is tied to modeCount, so a mode
// added to the enum without a row here fails to compile.
var profiles = [modeCount]Profile{
	Neutral: {Attack: 1.0, Defense: 1.0, Speed: 1.0},
	Anger:   {Attack: 1.5, Defense: 0.5, Speed: 1.4, Dash: true},
	Calm:    {Attack: 0.8, Defense: 1.5, Speed: 0.7, SlowMo: true},
	Joy:     {Attack: 1.1, Defense: 1.1, Speed: 1.2, DoubleJump: true},
}

// ProfileFor returns the profile for m. Unknown modes get the Neutral row.
func ProfileFor(m Mode) Profile {
	if !m.Valid() {
		m = Neutral
	}
	p := profiles[m]
	if p.Defense < MinDefense {
		p.Defense = MinDefense
	}
	return p
}

// AttackMultiplier is shorthand for ProfileFor(m).Attack.
func AttackMultiplier(m Mode) float64 { return ProfileFor(m).Attack }

// DefenseMultiplier is shorthand for ProfileFor(m).Defense.
func DefenseMultiplier(m Mode) float64 { return ProfileFor(m).Defense }

// SpeedMultiplier is shorthand for ProfileFor(m).Speed.
func SpeedMultiplier(m Mode) float64 { return ProfileFor(m).Speed }

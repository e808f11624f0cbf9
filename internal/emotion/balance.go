package emotion

// Balance meter range. The engine only ever stores values in
// [BalanceMin, BalanceMax]; consumers that think in [-1, 1] go through
// ToSigned and FromSigned.
const (
	BalanceMin     = 0.0
	BalanceMax     = 100.0
	BalanceNeutral = 50.0
)

// ClampBalance limits b to [BalanceMin, BalanceMax].
func ClampBalance(b float64) float64 {
	switch {
	case b < BalanceMin:
		return BalanceMin
	case b > BalanceMax:
		return BalanceMax
	default:
		return b
	}
}

// ToSigned rescales a canonical balance to [-1, 1], 0 being neutral.
func ToSigned(b float64) float64 {
	return (ClampBalance(b) - BalanceNeutral) / BalanceNeutral
}

// FromSigned is the inverse of ToSigned. Inputs outside [-1, 1] are clamped.
func FromSigned(s float64) float64 {
	return ClampBalance(s*BalanceNeutral + BalanceNeutral)
}

// Tier buckets the balance for display.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

// Tier thresholds.
const (
	lowTierBelow    = 25.0
	mediumTierBelow = 75.0
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// TierOf returns the display tier for a balance value.
func TierOf(b float64) Tier {
	switch {
	case b < lowTierBelow:
		return TierLow
	case b < mediumTierBelow:
		return TierMedium
	default:
		return TierHigh
	}
}

package gamedata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/ancestralplane/internal/emotion"
)

// ParseHexColor converts "#RRGGBB" or "RRGGBB" to a tcell.Color.
func ParseHexColor(hex string) (tcell.Color, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return tcell.ColorDefault, fmt.Errorf("invalid hex color length: %q", hex)
	}

	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}

	return tcell.NewRGBColor(int32(rgb>>16&0xFF), int32(rgb>>8&0xFF), int32(rgb&0xFF)), nil
}

// ModeColor returns the tint for a mode: the colour of the realm bound to
// it, white for Neutral or when no realm matches.
func (c *Catalog) ModeColor(m emotion.Mode) tcell.Color {
	for i := range c.realms {
		if c.realms[i].Mode == m && c.realms[i].Index != 0 {
			return c.realms[i].TCellColor()
		}
	}
	return tcell.ColorWhite
}

// TierColor returns the HUD colour for a balance tier.
func TierColor(t emotion.Tier) tcell.Color {
	switch t {
	case emotion.TierLow:
		return tcell.ColorRed
	case emotion.TierMedium:
		return tcell.ColorYellow
	default:
		return tcell.ColorGreen
	}
}

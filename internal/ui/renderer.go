package ui

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/gamedata"
	"github.com/samdwyer/ancestralplane/internal/world"
)

// Glyph is one actor drawn over the map.
type Glyph struct {
	At    world.Cell
	Rune  rune
	Color tcell.Color
}

// HUD is the status line content.
type HUD struct {
	Mode      emotion.Mode
	Balance   float64
	Health    float64
	Ability   string
	Remaining float64 // seconds left on the running ability, 0 if none
	TimeScale float64

	Realm     string
	RealmTime float64 // seconds left in the realm, +Inf for none

	WhiteDoorOpen bool
	GateOpen      bool // the heart's gates in the current realm
	Completed     int
	Shades        int // active shades in the realm
	Message       string
}

// View is everything the renderer needs for one frame.
type View struct {
	Layout     *world.Layout
	RealmColor tcell.Color
	Player     world.Cell
	Actors     []Glyph
	HUD        HUD
}

// Renderer handles drawing the game to the screen.
type Renderer struct {
	screen  *Screen
	catalog *gamedata.Catalog
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen, catalog *gamedata.Catalog) *Renderer {
	return &Renderer{screen: screen, catalog: catalog}
}

// hudRows is the number of rows drawn below the map.
const hudRows = 5

// Render draws the layout, actors and HUD. A terminal smaller than the map
// gets a resize prompt instead.
func (r *Renderer) Render(v View) {
	r.screen.Clear()

	l := v.Layout
	if w, h := r.screen.Size(); w < l.Width || h < l.Height+hudRows {
		r.screen.Text(0, 0, fmt.Sprintf("Terminal too small: need %dx%d, have %dx%d", l.Width, l.Height+hudRows, w, h),
			tcell.StyleDefault.Foreground(tcell.ColorYellow))
		r.screen.Show()
		return
	}
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			c := world.Cell{X: x, Y: y}
			if m, ok := l.Marker(c); ok {
				r.screen.SetContent(x, y, r.markerRune(m), r.markerStyle(m, v.HUD, v.RealmColor))
				continue
			}
			tile := l.Tile(c)
			r.screen.SetContent(x, y, tile.Rune(), r.tileStyle(tile, v.RealmColor))
		}
	}

	for _, g := range v.Actors {
		r.screen.SetContent(g.At.X, g.At.Y, g.Rune, tcell.StyleDefault.Foreground(g.Color))
	}

	playerStyle := tcell.StyleDefault.Foreground(r.catalog.ModeColor(v.HUD.Mode)).Bold(true)
	r.screen.SetContent(v.Player.X, v.Player.Y, '@', playerStyle)

	r.renderHUD(v.HUD, l.Height+1)
	r.screen.Show()
}

func (r *Renderer) renderHUD(h HUD, y int) {
	label := tcell.StyleDefault.Foreground(tcell.ColorGray)
	value := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	x := r.screen.Text(0, y, "Mode ", label)
	x = r.screen.Text(x, y, h.Mode.String(), value.Foreground(r.catalog.ModeColor(h.Mode)).Bold(true))

	x = r.screen.Text(x+2, y, "Balance ", label)
	tier := emotion.TierOf(h.Balance)
	x = r.screen.Text(x, y, fmt.Sprintf("%5.1f %s", h.Balance, tier), value.Foreground(gamedata.TierColor(tier)))

	x = r.screen.Text(x+2, y, "HP ", label)
	r.screen.Text(x, y, fmt.Sprintf("%3.0f", h.Health), value.Foreground(healthColor(h.Health)))

	y++
	x = r.screen.Text(0, y, h.Realm, value.Bold(true))
	if !math.IsInf(h.RealmTime, 1) {
		x = r.screen.Text(x+1, y, fmt.Sprintf("(%.0fs)", h.RealmTime), label)
	}
	x = r.screen.Text(x+2, y, fmt.Sprintf("Realms %d/3", h.Completed), label)
	if h.Shades > 0 {
		x = r.screen.Text(x+2, y, fmt.Sprintf("Shades %d", h.Shades), label)
	}
	if h.WhiteDoorOpen {
		x = r.screen.Text(x+2, y, "White door open", value.Foreground(tcell.ColorWhite).Bold(true))
	}
	if h.Ability != "" {
		x = r.screen.Text(x+2, y, fmt.Sprintf("%s %.1fs", h.Ability, h.Remaining), value.Foreground(tcell.ColorAqua))
	}
	if h.TimeScale != 1 && h.TimeScale > 0 {
		r.screen.Text(x+2, y, fmt.Sprintf("time x%.1f", h.TimeScale), label)
	}

	y++
	if h.Message != "" {
		r.screen.Text(0, y, h.Message, value)
	}
	r.screen.Text(0, y+1, "arrows move  1-4 mode  e ability  space attack  enter touch  q quit", label)
}

func (r *Renderer) markerRune(m world.Marker) rune {
	switch m.Kind {
	case world.MarkerDoor, world.MarkerWhiteDoor:
		return '+'
	case world.MarkerReturn:
		return '<'
	case world.MarkerObjective:
		return '*'
	case world.MarkerCheckpoint:
		return 'o'
	case world.MarkerGate:
		return '='
	default:
		return ' '
	}
}

func (r *Renderer) markerStyle(m world.Marker, h HUD, realm tcell.Color) tcell.Style {
	switch m.Kind {
	case world.MarkerDoor:
		if realm := r.catalog.Realm(m.Target); realm != nil {
			return tcell.StyleDefault.Foreground(realm.TCellColor()).Bold(true)
		}
	case world.MarkerWhiteDoor:
		if h.WhiteDoorOpen {
			return tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
		}
		return tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	case world.MarkerObjective:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	case world.MarkerCheckpoint:
		return tcell.StyleDefault.Foreground(tcell.ColorAqua)
	case world.MarkerGate:
		if h.GateOpen {
			return tcell.StyleDefault.Foreground(tcell.ColorGray)
		}
		return tcell.StyleDefault.Foreground(realm).Bold(true)
	}
	return tcell.StyleDefault.Foreground(tcell.ColorWhite)
}

// tileStyle tints walls with the realm colour.
func (r *Renderer) tileStyle(tile world.Tile, realm tcell.Color) tcell.Style {
	switch tile {
	case world.TileWall:
		if realm != tcell.ColorDefault && realm != tcell.ColorWhite {
			return tcell.StyleDefault.Foreground(realm)
		}
		return tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	case world.TileFloor:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	default:
		return tcell.StyleDefault
	}
}

func healthColor(h float64) tcell.Color {
	switch {
	case h > 60:
		return tcell.ColorGreen
	case h > 25:
		return tcell.ColorYellow
	default:
		return tcell.ColorRed
	}
}

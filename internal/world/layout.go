package world

import (
	"context"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/ancestralplane/internal/telemetry"
)

const (
	// Default layout dimensions, sized for an 80x24 terminal with a HUD row.
	DefaultWidth  = 60
	DefaultHeight = 20

	minRoomSide   = 5
	maxRoomSide   = 11
	roomAttempts  = 60
	maxRealmRooms = 6
)

// Tile is a single grid cell.
type Tile rune

const (
	TileWall  Tile = '#'
	TileFloor Tile = '.'
)

// Passable reports whether the tile can be walked on.
func (t Tile) Passable() bool { return t == TileFloor }

// Rune returns the tile's display character.
func (t Tile) Rune() rune { return rune(t) }

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// Vec converts the cell to a world position at its origin.
func (c Cell) Vec() Vec { return Vec{float64(c.X), float64(c.Y)} }

// Rect is an axis-aligned room.
type Rect struct {
	X, Y, W, H int
}

// Center returns the middle cell of the rectangle.
func (r Rect) Center() Cell { return Cell{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether c lies inside r.
func (r Rect) Contains(c Cell) bool {
	return c.X >= r.X && c.X < r.X+r.W && c.Y >= r.Y && c.Y < r.Y+r.H
}

// Overlaps reports whether r and o overlap once each is grown by pad cells.
func (r Rect) Overlaps(o Rect, pad int) bool {
	return r.X-pad < o.X+o.W && r.X+r.W+pad > o.X &&
		r.Y-pad < o.Y+o.H && r.Y+r.H+pad > o.Y
}

// MarkerKind tags interactive cells.
type MarkerKind int

const (
	MarkerNone MarkerKind = iota
	MarkerDoor
	MarkerWhiteDoor
	MarkerReturn
	MarkerObjective
	MarkerCheckpoint
	MarkerGate
)

// Marker is an interactive feature on a cell. Target is the realm index a
// door leads to or the room a checkpoint sits in; the world package does
// not interpret it.
type Marker struct {
	Kind   MarkerKind
	Target int
}

// Layout is a walkable grid with rooms and markers.
type Layout struct {
	Width, Height int
	Rooms         []Rect

	tiles   [][]Tile
	markers map[Cell]Marker
}

// NewLayout creates a layout filled with walls.
func NewLayout(width, height int) *Layout {
	tiles := make([][]Tile, height)
	for y := range tiles {
		tiles[y] = make([]Tile, width)
		for x := range tiles[y] {
			tiles[y][x] = TileWall
		}
	}
	return &Layout{
		Width:   width,
		Height:  height,
		tiles:   tiles,
		markers: make(map[Cell]Marker),
	}
}

// Tile returns the tile at c; anything out of bounds is wall.
func (l *Layout) Tile(c Cell) Tile {
	if !l.inBounds(c) {
		return TileWall
	}
	return l.tiles[c.Y][c.X]
}

// Passable reports whether c can be walked on.
func (l *Layout) Passable(c Cell) bool {
	return l.Tile(c).Passable()
}

// Marker returns the marker at c, if any.
func (l *Layout) Marker(c Cell) (Marker, bool) {
	m, ok := l.markers[c]
	return m, ok
}

// SetMarker places m on c and makes the cell walkable.
func (l *Layout) SetMarker(c Cell, m Marker) {
	if !l.inBounds(c) {
		return
	}
	l.tiles[c.Y][c.X] = TileFloor
	l.markers[c] = m
}

// Find returns the first cell, in row order, holding a marker of kind k.
func (l *Layout) Find(k MarkerKind) (Cell, bool) {
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			c := Cell{x, y}
			if m, ok := l.markers[c]; ok && m.Kind == k {
				return c, true
			}
		}
	}
	return Cell{}, false
}

// Surround marks every walkable, unmarked neighbour of c, diagonals
// included, and returns how many it marked.
func (l *Layout) Surround(c Cell, m Marker) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nc := Cell{c.X + dx, c.Y + dy}
			if nc == c || !l.Passable(nc) {
				continue
			}
			if _, marked := l.markers[nc]; marked {
				continue
			}
			l.markers[nc] = m
			n++
		}
	}
	return n
}

// Markers returns every marker keyed by cell.
func (l *Layout) Markers() map[Cell]Marker {
	return l.markers
}

func (l *Layout) inBounds(c Cell) bool {
	return c.X >= 0 && c.X < l.Width && c.Y >= 0 && c.Y < l.Height
}

func (l *Layout) carve(r Rect) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			if x > 0 && x < l.Width-1 && y > 0 && y < l.Height-1 {
				l.tiles[y][x] = TileFloor
			}
		}
	}
}

// corridor joins a and b with an L-shaped passage.
func (l *Layout) corridor(a, b Cell, horizontalFirst bool) {
	if horizontalFirst {
		l.carve(line(a.X, b.X, a.Y, true))
		l.carve(line(a.Y, b.Y, b.X, false))
		return
	}
	l.carve(line(a.Y, b.Y, a.X, false))
	l.carve(line(a.X, b.X, b.Y, true))
}

func line(from, to, fixed int, horizontal bool) Rect {
	if from > to {
		from, to = to, from
	}
	if horizontal {
		return Rect{X: from, Y: fixed, W: to - from + 1, H: 1}
	}
	return Rect{X: fixed, Y: from, W: 1, H: to - from + 1}
}

// NewHub builds the Ancestral Plane: one hall with a door per realm along
// the top wall and the white door on the bottom wall. doorTargets lists the
// realm index for each coloured door, left to right.
func NewHub(width, height int, doorTargets []int) *Layout {
	l := NewLayout(width, height)
	hall := Rect{X: 2, Y: 2, W: width - 4, H: height - 4}
	l.carve(hall)
	l.Rooms = append(l.Rooms, hall)

	step := hall.W / (len(doorTargets) + 1)
	for i, target := range doorTargets {
		l.SetMarker(Cell{hall.X + step*(i+1), hall.Y - 1}, Marker{Kind: MarkerDoor, Target: target})
	}
	l.SetMarker(Cell{hall.X + hall.W/2, hall.Y + hall.H}, Marker{Kind: MarkerWhiteDoor})
	return l
}

// GenerateRealm scatters non-overlapping rooms, links each to the next
// with corridors, puts the return door in the first room, a checkpoint in
// the centre of each room between, and the realm objective in the last one.
func GenerateRealm(ctx context.Context, rng *rand.Rand, width, height int) *Layout {
	_, span := telemetry.Tracer("world").Start(ctx, "realm.generate")
	defer span.End()
	start := time.Now()

	l := NewLayout(width, height)
	for i := 0; i < roomAttempts && len(l.Rooms) < maxRealmRooms; i++ {
		w := minRoomSide + rng.Intn(maxRoomSide-minRoomSide+1)
		h := minRoomSide + rng.Intn(maxRoomSide-minRoomSide+1)
		if w >= width-2 || h >= height-2 {
			continue
		}
		r := Rect{X: 1 + rng.Intn(width-w-1), Y: 1 + rng.Intn(height-h-1), W: w, H: h}

		free := true
		for _, other := range l.Rooms {
			if r.Overlaps(other, 1) {
				free = false
				break
			}
		}
		if !free {
			continue
		}

		l.carve(r)
		if n := len(l.Rooms); n > 0 {
			l.corridor(l.Rooms[n-1].Center(), r.Center(), rng.Intn(2) == 0)
		}
		l.Rooms = append(l.Rooms, r)
	}

	if len(l.Rooms) == 0 {
		// Degenerate size: fall back to a single open room.
		r := Rect{X: 1, Y: 1, W: max(1, width-2), H: max(1, height-2)}
		l.carve(r)
		l.Rooms = append(l.Rooms, r)
	}

	first, last := l.Rooms[0], l.Rooms[len(l.Rooms)-1]
	l.SetMarker(Cell{first.X, first.Y}, Marker{Kind: MarkerReturn})
	l.SetMarker(last.Center(), Marker{Kind: MarkerObjective})
	for i := 1; i < len(l.Rooms)-1; i++ {
		l.SetMarker(l.Rooms[i].Center(), Marker{Kind: MarkerCheckpoint, Target: i})
	}

	span.SetAttributes(
		attribute.Int("realm.width", width),
		attribute.Int("realm.height", height),
		attribute.Int("realm.room_count", len(l.Rooms)),
		attribute.Int64("realm.generation_ms", time.Since(start).Milliseconds()),
	)
	return l
}

// RandomFloor picks a random walkable, unmarked cell inside room i,
// falling back to the room centre.
func (l *Layout) RandomFloor(rng *rand.Rand, i int) Cell {
	if i < 0 || i >= len(l.Rooms) {
		return Cell{-1, -1}
	}
	r := l.Rooms[i]
	for attempt := 0; attempt < 100; attempt++ {
		c := Cell{r.X + rng.Intn(r.W), r.Y + rng.Intn(r.H)}
		if _, marked := l.markers[c]; l.Passable(c) && !marked {
			return c
		}
	}
	return r.Center()
}

package world

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVecOps(t *testing.T) {
	a := V(3, 4)
	assert.Equal(t, 5.0, a.Len())
	assert.Equal(t, V(4, 6), a.Add(V(1, 2)))
	assert.Equal(t, V(2, 2), a.Sub(V(1, 2)))
	assert.Equal(t, V(6, 8), a.Scale(2))
	assert.InDelta(t, 1.0, a.Normalize().Len(), 1e-12)
	assert.True(t, V(0, 0).Normalize().IsZero())
	assert.Equal(t, 5.0, V(0, 0).Dist(a))
}

func TestWithinRadius(t *testing.T) {
	bodies := []Body{
		{Pos: V(0, 0)},
		{Pos: V(5, 0)},
		{Pos: V(5.01, 0)},
		{Pos: V(-3, 4)},
	}

	got := WithinRadius(V(0, 0), 5, bodies)
	assert.Equal(t, []int{0, 1, 3}, got, "radius is inclusive")
}

func TestRaycastFirstHit(t *testing.T) {
	bodies := []Body{
		{Pos: V(4, 0), Radius: 0.5},
		{Pos: V(2, 0), Radius: 0.5},
		{Pos: V(2, 3), Radius: 0.5},
	}

	hit, ok := Raycast(V(0, 0), V(1, 0), 5, bodies)
	require.True(t, ok)
	assert.Equal(t, 1, hit.Index)
	assert.InDelta(t, 1.5, hit.Dist, 1e-9)
	assert.InDelta(t, 1.5, hit.Point.X, 1e-9)
}

func TestRaycastRangeAndDirection(t *testing.T) {
	bodies := []Body{{Pos: V(6, 0), Radius: 0.5}}

	_, ok := Raycast(V(0, 0), V(1, 0), 5, bodies)
	assert.False(t, ok, "entry at 5.5 is beyond range 5")

	_, ok = Raycast(V(0, 0), V(-1, 0), 10, bodies)
	assert.False(t, ok, "body behind the ray")

	_, ok = Raycast(V(0, 0), V(0, 0), 10, bodies)
	assert.False(t, ok, "zero direction")
}

func TestRaycastSkipsBodyAtOrigin(t *testing.T) {
	bodies := []Body{
		{Pos: V(0, 0), Radius: 0.5},
		{Pos: V(3, 0), Radius: 0.5},
	}

	hit, ok := Raycast(V(0, 0), V(1, 0), 5, bodies)
	require.True(t, ok)
	assert.Equal(t, 1, hit.Index)
}

func TestHubLayout(t *testing.T) {
	l := NewHub(DefaultWidth, DefaultHeight, []int{1, 2, 3})

	doors := map[int]bool{}
	white := 0
	for c, m := range l.Markers() {
		assert.True(t, l.Passable(c), "marker cell %v must be walkable", c)
		switch m.Kind {
		case MarkerDoor:
			doors[m.Target] = true
		case MarkerWhiteDoor:
			white++
		}
	}

	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, doors)
	assert.Equal(t, 1, white)
	assert.True(t, l.Passable(l.Rooms[0].Center()))
	assert.False(t, l.Passable(Cell{0, 0}))
	assert.Equal(t, TileWall, l.Tile(Cell{-1, 5}))
}

func TestGenerateRealmReproducible(t *testing.T) {
	ctx := context.Background()
	a := GenerateRealm(ctx, rand.New(rand.NewSource(7)), DefaultWidth, DefaultHeight)
	b := GenerateRealm(ctx, rand.New(rand.NewSource(7)), DefaultWidth, DefaultHeight)

	require.Equal(t, a.Rooms, b.Rooms)
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			c := Cell{x, y}
			require.Equal(t, a.Tile(c), b.Tile(c), "tile %v", c)
		}
	}
}

func TestGenerateRealmMarkers(t *testing.T) {
	l := GenerateRealm(context.Background(), rand.New(rand.NewSource(99)), DefaultWidth, DefaultHeight)
	require.NotEmpty(t, l.Rooms)

	kinds := map[MarkerKind]int{}
	for _, m := range l.Markers() {
		kinds[m.Kind]++
	}
	assert.Equal(t, 1, kinds[MarkerReturn])
	assert.Equal(t, 1, kinds[MarkerObjective])
	assert.Equal(t, max(0, len(l.Rooms)-2), kinds[MarkerCheckpoint])
	for i := 1; i < len(l.Rooms)-1; i++ {
		m, ok := l.Marker(l.Rooms[i].Center())
		require.True(t, ok, "room %d", i)
		assert.Equal(t, Marker{Kind: MarkerCheckpoint, Target: i}, m)
	}

	for i := range l.Rooms {
		for j := i + 1; j < len(l.Rooms); j++ {
			assert.False(t, l.Rooms[i].Overlaps(l.Rooms[j], 0), "rooms %d and %d overlap", i, j)
		}
	}

	rng := rand.New(rand.NewSource(1))
	c := l.RandomFloor(rng, 0)
	assert.True(t, l.Passable(c))
	assert.Equal(t, Cell{-1, -1}, l.RandomFloor(rng, 99))
}

func TestSurroundAndFind(t *testing.T) {
	l := NewLayout(9, 9)
	l.carve(Rect{X: 1, Y: 1, W: 5, H: 5})
	heart := Cell{3, 3}
	l.SetMarker(heart, Marker{Kind: MarkerObjective})
	l.SetMarker(Cell{2, 2}, Marker{Kind: MarkerReturn})

	assert.Equal(t, 7, l.Surround(heart, Marker{Kind: MarkerGate}), "marked cell skipped")
	m, _ := l.Marker(Cell{2, 2})
	assert.Equal(t, MarkerReturn, m.Kind)
	m, _ = l.Marker(Cell{4, 4})
	assert.Equal(t, MarkerGate, m.Kind)

	corner := Cell{1, 1}
	assert.Equal(t, 2, l.Surround(corner, Marker{Kind: MarkerGate}), "walls and marked cells skipped")

	c, ok := l.Find(MarkerObjective)
	require.True(t, ok)
	assert.Equal(t, heart, c)
	_, ok = l.Find(MarkerWhiteDoor)
	assert.False(t, ok)
}

func TestGenerateRealmTinyFallsBack(t *testing.T) {
	l := GenerateRealm(context.Background(), rand.New(rand.NewSource(3)), 6, 6)
	require.Len(t, l.Rooms, 1)
	assert.True(t, l.Passable(l.Rooms[0].Center()) || l.Rooms[0].W == 0)
}

package game

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/ancestralplane/internal/combat"
	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/gamedata"
	"github.com/samdwyer/ancestralplane/internal/progression"
	"github.com/samdwyer/ancestralplane/internal/world"
)

// onRealmEntered builds the layout for whichever realm the tracker entered.
func (g *Game) onRealmEntered(e progression.RealmEntered) {
	g.enterRealm(context.Background(), e.Realm)
}

// enterRealm builds the realm layout, seals the heart behind gates and
// populates it with shades. The tracker has already switched realms and set
// the player's mode.
func (g *Game) enterRealm(ctx context.Context, r progression.Realm) {
	def := g.catalog.Realm(int(r))
	ctx, span := g.tracer.Start(ctx, "game.realm.enter", trace.WithAttributes(
		attribute.String("realm.name", r.String()),
	))
	defer span.End()

	g.realm = def
	g.layout = world.GenerateRealm(ctx, g.rng, g.cfg.Shell.MapWidth, g.cfg.Shell.MapHeight)
	g.pos = g.layout.Rooms[0].Center()
	g.face(world.Vec{})

	gates := 0
	if heart, ok := g.layout.Find(world.MarkerObjective); ok && def != nil && def.Gate != nil && len(g.layout.Rooms) > 1 {
		gates = g.layout.Surround(heart, world.Marker{Kind: world.MarkerGate})
	}

	count := 0
	if def != nil {
		count = def.Shades
		g.message = fmt.Sprintf("%s. Reach the heart in %s.", def.Name, r.Mode())
	}
	spawned := 0
	for i := range count {
		room := 0
		if n := len(g.layout.Rooms); n > 1 {
			room = 1 + i%(n-1)
		}
		cell := g.layout.RandomFloor(g.rng, room)
		if cell == g.pos || g.shadeAt(cell) != "" {
			continue
		}
		if _, err := g.spawnShade(g.catalog.SpawnShade(g.rng), cell); err != nil {
			g.log.Warn("shade spawn failed", "error", err)
			continue
		}
		spawned++
	}
	span.SetAttributes(
		attribute.Int("realm.rooms", len(g.layout.Rooms)),
		attribute.Int("realm.shades", spawned),
		attribute.Int("realm.gates", gates),
	)
}

// spawnShade adds a shade to the session and tracks its cell.
func (g *Game) spawnShade(def *gamedata.ShadeDef, cell world.Cell) (string, error) {
	c, err := g.session.SpawnShade(def, cell.Vec())
	if err != nil {
		return "", err
	}
	g.shades[c.ID] = &shade{
		cell:     cell,
		glyph:    def.GlyphRune(),
		color:    g.catalog.ModeColor(def.Mode),
		cooldown: g.cfg.Shell.ShadeAttackCooldown.Seconds(),
	}
	return c.ID, nil
}

// objective is the heart of the current realm. It answers only to the
// realm's own emotion and completes the realm.
func (g *Game) objective() progression.Objective {
	return progression.Objective{
		Name:         "heart",
		Kind:         progression.Interactable,
		RequiredMode: g.session.Tracker().CurrentRealm().Mode(),
		Final:        true,
	}
}

// checkpoint is the waystone in room i. Any emotion lights it.
func (g *Game) checkpoint(i int) progression.Objective {
	return progression.Objective{
		Name: fmt.Sprintf("waystone %d", i),
		Kind: progression.Checkpoint,
	}
}

// gate returns the passage rule for the current realm's heart.
func (g *Game) gate() (progression.AncestralGate, bool) {
	if g.realm == nil || g.realm.Gate == nil {
		return progression.AncestralGate{}, false
	}
	return progression.AncestralGate{
		RequiredMode: g.realm.Mode,
		MinSigned:    g.realm.Gate.MinSigned,
		MaxSigned:    g.realm.Gate.MaxSigned,
	}, true
}

// gateOpen reports whether the player may pass the heart's gates now.
func (g *Game) gateOpen() bool {
	gate, ok := g.gate()
	return !ok || gate.IsOpen(g.session.Mode(), g.session.Balance())
}

func (g *Game) sealedMessage() string {
	gate, _ := g.gate()
	return fmt.Sprintf("The gate is sealed: it wants %s, balance %.0f to %.0f.",
		gate.RequiredMode, emotion.FromSigned(gate.MinSigned), emotion.FromSigned(gate.MaxSigned))
}

// onRealmExited returns the shell to the hub however the realm was left.
func (g *Game) onRealmExited(e progression.RealmExited) {
	n := g.session.RemoveTeam(context.Background(), combat.TeamShade)
	clear(g.shades)

	g.realm = nil
	g.layout = g.hub
	g.pos = g.hub.Rooms[0].Center()
	g.face(world.Vec{})

	switch {
	case e.Completed:
		g.message = fmt.Sprintf("%s is at peace.", e.Realm)
	case e.TimedOut:
		g.message = fmt.Sprintf("%s pushed you out.", e.Realm)
	default:
		g.message = "You return to the Ancestral Plane."
	}
	g.log.Info("back in hub", "realm", e.Realm.String(), "completed", e.Completed,
		"timed_out", e.TimedOut, "shades_cleared", n)
}

func formatDamage(d float64) string {
	return fmt.Sprintf("%.0f", d)
}

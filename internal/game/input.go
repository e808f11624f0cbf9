package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/ancestralplane/internal/ability"
	"github.com/samdwyer/ancestralplane/internal/combat"
	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/engine"
	"github.com/samdwyer/ancestralplane/internal/progression"
	"github.com/samdwyer/ancestralplane/internal/world"
)

// action is a decoded key.
type action int

const (
	actNone action = iota
	actQuit
	actMove
	actMode
	actAbility
	actAttack
	actActivate
)

// command is what a key asks for.
type command struct {
	act  action
	dir  world.Cell
	mode emotion.Mode
}

// keyCommand maps a key to a command.
func keyCommand(k tcell.Key, r rune) command {
	switch k {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return command{act: actQuit}
	case tcell.KeyUp:
		return command{act: actMove, dir: world.Cell{X: 0, Y: -1}}
	case tcell.KeyDown:
		return command{act: actMove, dir: world.Cell{X: 0, Y: 1}}
	case tcell.KeyLeft:
		return command{act: actMove, dir: world.Cell{X: -1, Y: 0}}
	case tcell.KeyRight:
		return command{act: actMove, dir: world.Cell{X: 1, Y: 0}}
	case tcell.KeyEnter:
		return command{act: actActivate}
	case tcell.KeyRune:
	default:
		return command{}
	}

	switch r {
	case 'q', 'Q':
		return command{act: actQuit}
	case '1', '2', '3', '4':
		return command{act: actMode, mode: emotion.Modes[r-'1']}
	case 'e', 'E':
		return command{act: actAbility}
	case ' ':
		return command{act: actAttack}
	}
	return command{}
}

// handleKeyEvent processes keyboard input.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	g.apply(ctx, keyCommand(ev.Key(), ev.Rune()))
}

func (g *Game) apply(ctx context.Context, cmd command) {
	if g.state.Over() {
		g.state = StateQuit
		return
	}
	switch cmd.act {
	case actQuit:
		g.state = StateQuit
	case actMove:
		g.move(ctx, cmd.dir.X, cmd.dir.Y)
	case actMode:
		g.setMode(ctx, cmd.mode)
	case actAbility:
		g.triggerAbility(ctx)
	case actAttack:
		g.attackNearest(ctx)
	case actActivate:
		g.activate(ctx)
	}
}

func (g *Game) setMode(ctx context.Context, m emotion.Mode) {
	changed, err := g.session.SetMode(ctx, m)
	switch {
	case err != nil:
		g.message = err.Error()
	case changed:
		g.message = "You feel " + m.String() + "."
		if def := g.catalog.AbilityFor(m); def != nil {
			g.message += " E: " + def.Name + "."
		}
	}
}

// move walks one cell, two when dashing. Walking into a shade attacks it,
// closed gates stop it and stepping onto a marker interacts with it.
func (g *Game) move(ctx context.Context, dx, dy int) {
	dir := world.V(float64(dx), float64(dy))
	steps := 1
	if g.session.HasDash() {
		steps = 2
	}

	walked := 0
	for range steps {
		next := world.Cell{X: g.pos.X + dx, Y: g.pos.Y + dy}
		if id := g.shadeAt(next); id != "" {
			g.face(dir)
			g.attack(ctx, id)
			return
		}
		if !g.layout.Passable(next) {
			break
		}
		if m, ok := g.layout.Marker(next); ok && m.Kind == world.MarkerGate && !g.gateOpen() {
			g.message = g.sealedMessage()
			break
		}
		g.pos = next
		walked++
		g.face(dir)
		if m, ok := g.layout.Marker(next); ok {
			g.interact(ctx, m)
			return
		}
	}

	if walked > 0 {
		if a, ok := g.stride.record(g.session.Mode(), walked); ok {
			if _, err := g.session.ClassifyAction(a); err != nil {
				g.message = err.Error()
			}
		}
	}
}

func (g *Game) face(dir world.Vec) {
	// The player is always in the roster.
	_ = g.session.Place(engine.PlayerID, g.pos.Vec(), dir)
}

func (g *Game) triggerAbility(ctx context.Context) {
	res, err := g.session.TriggerAbility(ctx, engine.PlayerID)
	if err != nil {
		g.message = err.Error()
		return
	}
	// Timed abilities report through onAbilityStarted.
	switch {
	case res.Kind == ability.None:
		g.message = "Neutral has no ability."
	case res.Kind == ability.SpitefulSpikes && res.Hit:
		g.message = fmt.Sprintf("Spikes strike for %.0f.", res.Outcome.FinalDamage)
	case res.Kind == ability.SpitefulSpikes:
		g.message = "Spikes hit nothing."
	}
}

func (g *Game) onAbilityStarted(s ability.Started) {
	if s.Caster == engine.PlayerID {
		g.message = fmt.Sprintf("%s for %.0fs.", s.Kind, s.Duration)
	}
}

// attackNearest strikes the closest adjacent shade.
func (g *Game) attackNearest(ctx context.Context) {
	if g.attackCooldown > 0 {
		return
	}
	best, bestDist := "", meleeRange+1
	for _, id := range g.shadeIDs() {
		d := g.pos.Vec().Dist(g.shades[id].cell.Vec())
		if d <= meleeRange && d < bestDist {
			best, bestDist = id, d
		}
	}
	if best == "" {
		g.message = "Nothing in reach."
		return
	}
	g.face(g.shades[best].cell.Vec().Sub(g.pos.Vec()))
	g.attack(ctx, best)
}

func (g *Game) attack(ctx context.Context, id string) {
	if g.attackCooldown > 0 {
		return
	}
	g.attackCooldown = g.cfg.Shell.AttackCooldown.Seconds()

	out, err := g.session.ResolveAttack(ctx, combat.Attack{
		AttackerID: engine.PlayerID,
		DefenderID: id,
		DamageType: g.session.Mode(),
	})
	if err != nil {
		g.message = err.Error()
		return
	}
	crit := ""
	if out.Critical {
		crit = " Critical!"
	}
	g.message = fmt.Sprintf("You hit for %.0f.%s", out.FinalDamage, crit)
}

// interact handles stepping onto a marker. Realm entry and the ending
// are finished by the tracker subscriptions.
func (g *Game) interact(ctx context.Context, m world.Marker) {
	switch m.Kind {
	case world.MarkerDoor:
		if err := g.session.UseRealmDoor(ctx, progression.Realm(m.Target)); err != nil {
			g.message = err.Error()
		}

	case world.MarkerReturn:
		if err := g.session.ReturnToHub(ctx); err != nil {
			g.message = err.Error()
		}

	case world.MarkerObjective:
		g.reach(ctx, g.objective(), false)

	case world.MarkerCheckpoint:
		g.reach(ctx, g.checkpoint(m.Target), false)

	case world.MarkerWhiteDoor:
		if _, err := g.session.EnterWhiteDoor(ctx); err != nil {
			g.message = fmt.Sprintf("The white door stays shut (balance %.0f/%.0f).",
				g.session.Balance(), g.session.Tracker().Threshold())
		}
	}
}

// activate uses the objective under the player.
func (g *Game) activate(ctx context.Context) {
	m, ok := g.layout.Marker(g.pos)
	if !ok || m.Kind != world.MarkerObjective {
		g.message = "Nothing to touch here."
		return
	}
	g.reach(ctx, g.objective(), true)
}

// reach completes obj when its kind triggers on arrival or the player
// activated it.
func (g *Game) reach(ctx context.Context, obj progression.Objective, activated bool) {
	if !obj.Kind.AutoComplete() && !activated {
		g.message = "Press Enter to touch the " + obj.Name + "."
		return
	}
	_, err := g.session.CompleteObjective(ctx, obj)
	switch {
	case errors.Is(err, progression.ErrObjectiveCompleted):
	case errors.Is(err, progression.ErrWrongEmotion):
		g.message = fmt.Sprintf("The %s answers only to %s.", obj.Name, obj.RequiredMode)
	case err != nil:
		g.message = err.Error()
	case !obj.Final:
		g.message = fmt.Sprintf("The %s glows. Your mind settles.", obj.Name)
	}
}

package game

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"math/rand"
	"slices"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/samdwyer/ancestralplane/internal/combat"
	"github.com/samdwyer/ancestralplane/internal/config"
	"github.com/samdwyer/ancestralplane/internal/engine"
	"github.com/samdwyer/ancestralplane/internal/event"
	"github.com/samdwyer/ancestralplane/internal/gamedata"
	"github.com/samdwyer/ancestralplane/internal/progression"
	"github.com/samdwyer/ancestralplane/internal/telemetry"
	"github.com/samdwyer/ancestralplane/internal/ui"
	"github.com/samdwyer/ancestralplane/internal/world"
)

// ErrNoScreen is returned by Run on a game built without a screen.
var ErrNoScreen = errors.New("game has no screen")

// meleeRange is the reach of a plain attack, diagonals included.
const meleeRange = 1.5

// shade is the shell's view of a hostile combatant.
type shade struct {
	cell     world.Cell
	glyph    rune
	color    tcell.Color
	cooldown float64 // seconds until it may strike again
}

// Game holds the entire shell state.
type Game struct {
	cfg      config.Config
	catalog  *gamedata.Catalog
	screen   *ui.Screen
	renderer *ui.Renderer
	session  *engine.Session
	tracer   trace.Tracer
	log      *slog.Logger
	rng      *rand.Rand
	seed     int64

	state  State
	hub    *world.Layout
	layout *world.Layout
	realm  *gamedata.RealmDef
	pos    world.Cell
	shades map[string]*shade
	stride stride

	attackCooldown float64
	message        string
	subs           event.Group
}

// New creates a game around a fresh session. screen may be nil, in which
// case nothing is drawn.
func New(cfg config.Config, catalog *gamedata.Catalog, screen *ui.Screen) (*Game, error) {
	session, err := engine.New(cfg.Engine, catalog)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	targets := make([]int, 0, len(progression.EmotionRealms))
	for _, r := range progression.EmotionRealms {
		targets = append(targets, int(r))
	}
	hub := world.NewHub(cfg.Shell.MapWidth, cfg.Shell.MapHeight, targets)

	g := &Game{
		cfg:     cfg,
		catalog: catalog,
		screen:  screen,
		session: session,
		tracer:  telemetry.Tracer("game"),
		log:     slog.With("component", "game", "session", session.ID),
		rng:     rand.New(rand.NewSource(seed)),
		seed:    seed,
		state:   StateExplore,
		hub:     hub,
		layout:  hub,
		pos:     hub.Rooms[0].Center(),
		shades:  make(map[string]*shade),
		message: "Find balance. Doors lead to Anger, Calm and Joy.",
	}
	if screen != nil {
		g.renderer = ui.NewRenderer(screen, catalog)
	}
	g.face(world.Vec{})

	g.subs.Add(session.Tracker().OnRealmEntered(g.onRealmEntered))
	g.subs.Add(session.Tracker().OnRealmExited(g.onRealmExited))
	g.subs.Add(session.Tracker().OnWhiteDoorChanged(g.onWhiteDoorChanged))
	g.subs.Add(session.Tracker().OnEndingReached(g.onEndingReached))
	g.subs.Add(session.Abilities().OnStarted(g.onAbilityStarted))
	g.subs.Add(session.OnDefeated(g.onDefeated))
	g.subs.Add(session.OnCombatantRemoved(func(e engine.CombatantRemoved) {
		delete(g.shades, e.ID)
	}))
	return g, nil
}

// Session returns the engine session driven by the shell.
func (g *Game) Session() *engine.Session { return g.session }

// State returns the shell state.
func (g *Game) State() State { return g.state }

// Message returns the last status message.
func (g *Game) Message() string { return g.message }

// Run executes the main loop until the player quits or ctx is done. Input
// is read on its own goroutine; the session advances on a fixed tick.
func (g *Game) Run(ctx context.Context) error {
	if g.screen == nil {
		return ErrNoScreen
	}
	ctx, span := g.tracer.Start(ctx, "game.run", trace.WithAttributes(
		attribute.String("session.id", g.session.ID),
		attribute.Int64("game.seed", g.seed),
	))
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan tcell.Event, 16)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return nil
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	})
	eg.Go(func() error {
		// Closing the screen makes PollEvent return nil.
		defer g.screen.Close()
		defer cancel()
		return g.loop(ctx, events)
	})

	err := eg.Wait()
	g.session.Close(context.WithoutCancel(ctx))
	g.subs.Close()

	span.SetAttributes(
		attribute.String("game.final_state", g.state.String()),
		attribute.Float64("player.balance", g.session.Balance()),
		attribute.Int("realms.completed", len(g.session.Tracker().CompletedRealms())),
	)
	return telemetry.RecordError(span, err)
}

func (g *Game) loop(ctx context.Context, events <-chan tcell.Event) error {
	interval := g.cfg.Shell.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.render()
	for g.state != StateQuit {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				g.handleKeyEvent(ctx, ev)
			case *tcell.EventResize:
				g.screen.Sync()
			}
		case <-ticker.C:
			if err := g.step(ctx, interval.Seconds()); err != nil {
				return err
			}
		}
		g.render()
	}
	return nil
}

// step advances the session and lets adjacent shades strike back. Shade
// cooldowns run at the current time scale.
func (g *Game) step(ctx context.Context, dt float64) error {
	if g.state != StateExplore {
		return nil
	}
	if err := g.session.Tick(ctx, dt); err != nil {
		return err
	}
	g.attackCooldown = max(g.attackCooldown-dt, 0)

	scaled := dt * g.session.TimeScale()
	for _, id := range g.shadeIDs() {
		sh, ok := g.shades[id]
		if !ok || g.state != StateExplore {
			continue
		}
		c := g.session.Roster().Get(id)
		if c == nil || c.IsDefeated() {
			continue
		}
		sh.cooldown -= scaled
		if sh.cooldown > 0 || g.pos.Vec().Dist(sh.cell.Vec()) > meleeRange {
			continue
		}
		sh.cooldown = g.cfg.Shell.ShadeAttackCooldown.Seconds()

		out, err := g.session.ResolveAttack(ctx, combat.Attack{
			AttackerID: id,
			DefenderID: engine.PlayerID,
			DamageType: c.Mode(),
		})
		if err != nil {
			g.log.Debug("shade attack skipped", "shade", id, "error", err)
			continue
		}
		if g.state == StateExplore {
			g.message = c.Name + " strikes you for " + formatDamage(out.FinalDamage) + "."
		}
	}
	return nil
}

func (g *Game) onDefeated(d combat.Defeat) {
	if d.ID == engine.PlayerID {
		g.state = StateDefeated
		g.message = "You fade from the plane. Press any key."
		g.log.Info("player defeated", "by", d.By)
		return
	}
	name := d.ID
	if c := g.session.Roster().Get(d.ID); c != nil {
		name = c.Name
	}
	g.message = name + " dissolves."
}

func (g *Game) onWhiteDoorChanged(e progression.WhiteDoorChanged) {
	if e.Unlocked {
		g.message = "Somewhere, the white door opens."
	} else {
		g.message = "The white door closes."
	}
}

func (g *Game) onEndingReached(e progression.EndingReached) {
	g.state = StateEnded
	if e.Ending.AllRealmsCompleted {
		g.message = "You pass into clarity, every realm made whole. Press any key."
	} else {
		g.message = "You pass into clarity, some realms still restless. Press any key."
	}
	g.log.Info("ending reached", "all_realms", e.Ending.AllRealmsCompleted, "balance", e.Ending.Balance)
}

// shadeIDs returns the tracked shades in a stable order.
func (g *Game) shadeIDs() []string {
	return slices.Sorted(maps.Keys(g.shades))
}

// shadeAt returns the id of the active shade on c, or "".
func (g *Game) shadeAt(c world.Cell) string {
	for _, id := range g.shadeIDs() {
		if g.shades[id].cell != c {
			continue
		}
		if cb := g.session.Roster().Get(id); cb != nil && !cb.IsDefeated() {
			return id
		}
	}
	return ""
}

func (g *Game) render() {
	if g.renderer == nil {
		return
	}
	g.renderer.Render(g.view())
}

// view assembles the frame from session queries.
func (g *Game) view() ui.View {
	player := g.session.Player()
	tracker := g.session.Tracker()

	hud := ui.HUD{
		Mode:          g.session.Mode(),
		Balance:       g.session.Balance(),
		Health:        player.Health(),
		TimeScale:     g.session.TimeScale(),
		RealmTime:     tracker.TimeRemaining(),
		WhiteDoorOpen: tracker.CanEnterWhiteDoor(),
		Completed:     len(tracker.CompletedRealms()),
		Shades:        g.session.Roster().CountActive(combat.TeamShade),
		GateOpen:      g.gateOpen(),
		Message:       g.message,
	}
	if slot, ok := g.session.Abilities().Slot(engine.PlayerID); ok {
		hud.Ability = slot.Kind.String()
		hud.Remaining = slot.Remaining
	}

	realmColor := tcell.ColorDefault
	if def := g.realmDef(); def != nil {
		hud.Realm = def.Name
		realmColor = def.TCellColor()
	}

	actors := make([]ui.Glyph, 0, len(g.shades))
	for _, id := range g.shadeIDs() {
		if c := g.session.Roster().Get(id); c == nil || c.IsDefeated() {
			continue
		}
		sh := g.shades[id]
		actors = append(actors, ui.Glyph{At: sh.cell, Rune: sh.glyph, Color: sh.color})
	}

	return ui.View{
		Layout:     g.layout,
		RealmColor: realmColor,
		Player:     g.pos,
		Actors:     actors,
		HUD:        hud,
	}
}

func (g *Game) realmDef() *gamedata.RealmDef {
	if g.realm != nil {
		return g.realm
	}
	return g.catalog.Realm(int(progression.Hub))
}

// Close cleans up game resources.
func (g *Game) Close() {
	g.subs.Close()
	g.session.Close(context.Background())
	if g.screen != nil {
		g.screen.Close()
	}
}

package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/event"
)

// DefaultUnlockThreshold is the balance the white door requires.
const DefaultUnlockThreshold = 75.0

var (
	// ErrInvalidRealmIndex is returned for realm indices outside [0, 3].
	ErrInvalidRealmIndex = errors.New("invalid realm index")
	// ErrAlreadyInRealm is returned when a realm door is used from inside a realm.
	ErrAlreadyInRealm = errors.New("already in a realm")
	// ErrNotInRealm is returned for realm-only commands issued in the hub.
	ErrNotInRealm = errors.New("not in a realm")
	// ErrWhiteDoorLocked is returned when the balance is below the threshold.
	ErrWhiteDoorLocked = errors.New("white door locked")
	// ErrWrongEmotion is returned when an objective needs another mode.
	ErrWrongEmotion = errors.New("wrong emotion")
	// ErrObjectiveCompleted is returned for an objective already completed.
	ErrObjectiveCompleted = errors.New("objective already completed")
)

// Notifications.
type (
	RealmEntered struct {
		Realm Realm
	}
	RealmExited struct {
		Realm     Realm
		Completed bool
		TimedOut  bool
	}
	RealmCompleted struct {
		Realm Realm
	}
	WhiteDoorChanged struct {
		Unlocked bool
		Balance  float64
	}
	EndingReached struct {
		Ending Ending
	}
)

// Completion is the result of CompleteRealm.
type Completion struct {
	Realm   Realm // the realm that was left, or Hub for the query path
	Success bool
	Marked  bool // the completion flag was newly set

	AllCompleted   bool
	EndingEligible bool // all realms complete and the white door open
}

// Ending describes how the player left through the white door.
type Ending struct {
	AllRealmsCompleted bool
	Completed          []Realm
	Balance            float64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithUnlockThreshold overrides the white door threshold.
func WithUnlockThreshold(b float64) Option {
	return func(t *Tracker) { t.threshold = emotion.ClampBalance(b) }
}

// WithTimeLimit limits each realm visit to seconds; zero means unlimited.
func WithTimeLimit(seconds float64) Option {
	return func(t *Tracker) { t.timeLimit = max(seconds, 0) }
}

// Tracker owns the player's realm progress. It changes balance only
// through the player's emotion State.
type Tracker struct {
	player    *emotion.State
	threshold float64
	timeLimit float64

	current   Realm
	completed [realmCount]bool
	remaining float64
	unlocked  bool
	ended     bool

	objectives map[objectiveKey]bool
	subs       event.Group

	entered   event.Topic[RealmEntered]
	exited    event.Topic[RealmExited]
	completes event.Topic[RealmCompleted]
	whiteDoor event.Topic[WhiteDoorChanged]
	endings   event.Topic[EndingReached]
}

type objectiveKey struct {
	realm Realm
	name  string
}

// NewTracker creates a tracker in the hub for player.
func NewTracker(player *emotion.State, opts ...Option) *Tracker {
	t := &Tracker{
		player:     player,
		threshold:  DefaultUnlockThreshold,
		objectives: make(map[objectiveKey]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.unlocked = t.CanEnterWhiteDoor()
	t.subs.Add(player.OnBalanceChanged(t.balanceChanged))
	return t
}

func (t *Tracker) balanceChanged(c emotion.BalanceChange) {
	unlocked := c.Balance >= t.threshold
	if unlocked == t.unlocked {
		return
	}
	t.unlocked = unlocked
	slog.Info("white door changed", "player", t.player.Subject(), "unlocked", unlocked, "balance", c.Balance)
	t.whiteDoor.Publish(WhiteDoorChanged{Unlocked: unlocked, Balance: c.Balance})
}

// CurrentRealm returns the realm the player is in.
func (t *Tracker) CurrentRealm() Realm { return t.current }

// InRealm reports whether the player is in an emotion realm.
func (t *Tracker) InRealm() bool { return t.current != Hub }

// Threshold returns the white door threshold.
func (t *Tracker) Threshold() float64 { return t.threshold }

// IsCompleted reports the completion flag of r.
func (t *Tracker) IsCompleted(r Realm) bool {
	return r.Valid() && r != Hub && t.completed[r]
}

// CompletedRealms returns the completed realms in index order.
func (t *Tracker) CompletedRealms() []Realm {
	var out []Realm
	for _, r := range EmotionRealms {
		if t.completed[r] {
			out = append(out, r)
		}
	}
	return out
}

// AreAllRealmsCompleted reports whether every emotion realm is complete.
func (t *Tracker) AreAllRealmsCompleted() bool {
	for _, r := range EmotionRealms {
		if !t.completed[r] {
			return false
		}
	}
	return true
}

// CanEnterWhiteDoor reports whether the balance meets the threshold.
func (t *Tracker) CanEnterWhiteDoor() bool {
	return t.player.Balance() >= t.threshold
}

// Ended reports whether the white door has been entered.
func (t *Tracker) Ended() bool { return t.ended }

// ClassifyAction applies the balance delta of a classified movement and
// returns the new balance.
func (t *Tracker) ClassifyAction(a Action) (float64, error) {
	return t.player.ApplyBalanceDelta(a.Delta())
}

// EnterRealm moves the player to realm index. Leaving a realm this way
// does not complete it.
func (t *Tracker) EnterRealm(index int) error {
	r := Realm(index)
	if !r.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRealmIndex, index)
	}
	if r == t.current {
		return nil
	}
	if t.InRealm() {
		t.leave(false, false)
	}
	t.current = r
	if r != Hub {
		t.remaining = t.timeLimit
		t.objectiveReset(r)
		slog.Info("realm entered", "realm", r)
		t.entered.Publish(RealmEntered{Realm: r})
	}
	return nil
}

// UseRealmDoor puts the player in the realm's mode and enters it.
// Realm doors only work from the hub.
func (t *Tracker) UseRealmDoor(ctx context.Context, r Realm) error {
	if !r.Valid() || r == Hub {
		return fmt.Errorf("realm door: %w: %d", ErrInvalidRealmIndex, int(r))
	}
	if t.InRealm() {
		return fmt.Errorf("realm door %s: %w", r, ErrAlreadyInRealm)
	}
	if _, err := t.player.SetMode(ctx, r.Mode()); err != nil {
		return fmt.Errorf("realm door %s: %w", r, err)
	}
	return t.EnterRealm(int(r))
}

// ReturnToHub leaves the current realm without completing it and resets
// the player to Neutral.
func (t *Tracker) ReturnToHub(ctx context.Context) error {
	if !t.InRealm() {
		return ErrNotInRealm
	}
	if _, err := t.player.SetMode(ctx, emotion.Neutral); err != nil {
		return fmt.Errorf("return to hub: %w", err)
	}
	t.leave(false, false)
	return nil
}

// CompleteRealm ends the current realm visit. From the hub it only
// evaluates ending eligibility. Inside a realm it marks the realm complete
// on success and returns to the hub either way.
func (t *Tracker) CompleteRealm(success bool) Completion {
	if !t.InRealm() {
		all := t.AreAllRealmsCompleted()
		return Completion{
			Realm:          Hub,
			AllCompleted:   all,
			EndingEligible: all && t.CanEnterWhiteDoor(),
		}
	}

	r := t.current
	c := Completion{Realm: r, Success: success}
	if success && !t.completed[r] {
		t.completed[r] = true
		c.Marked = true
	}
	t.leave(success, false)

	if c.Marked {
		slog.Info("realm completed", "realm", r)
		t.completes.Publish(RealmCompleted{Realm: r})
	}
	c.AllCompleted = t.AreAllRealmsCompleted()
	c.EndingEligible = c.AllCompleted && t.CanEnterWhiteDoor()
	return c
}

// CompleteObjective completes obj in the current realm while the player
// is in mode. It records a mindful action, and a final objective completes
// the realm.
func (t *Tracker) CompleteObjective(obj Objective, mode emotion.Mode) (Completion, error) {
	if !t.InRealm() {
		return Completion{}, fmt.Errorf("objective %q: %w", obj.Name, ErrNotInRealm)
	}
	key := objectiveKey{realm: t.current, name: obj.Name}
	if t.objectives[key] {
		return Completion{}, fmt.Errorf("objective %q: %w", obj.Name, ErrObjectiveCompleted)
	}
	if !obj.Accepts(mode) {
		return Completion{}, fmt.Errorf("objective %q needs %s, have %s: %w", obj.Name, obj.RequiredMode, mode, ErrWrongEmotion)
	}

	if _, err := t.ClassifyAction(Mindful); err != nil {
		return Completion{}, fmt.Errorf("objective %q: %w", obj.Name, err)
	}
	t.objectives[key] = true
	slog.Debug("objective completed", "realm", t.current, "objective", obj.Name, "kind", obj.Kind)

	if !obj.Final {
		return Completion{Realm: t.current}, nil
	}
	return t.CompleteRealm(true), nil
}

// EnterWhiteDoor ends the run if the gate is open.
func (t *Tracker) EnterWhiteDoor() (Ending, error) {
	if t.InRealm() {
		return Ending{}, fmt.Errorf("white door: %w", ErrAlreadyInRealm)
	}
	if !t.CanEnterWhiteDoor() {
		return Ending{}, fmt.Errorf("%w: balance %.1f below %.1f", ErrWhiteDoorLocked, t.player.Balance(), t.threshold)
	}
	e := Ending{
		AllRealmsCompleted: t.AreAllRealmsCompleted(),
		Completed:          t.CompletedRealms(),
		Balance:            t.player.Balance(),
	}
	t.ended = true
	slog.Info("ending reached", "player", t.player.Subject(), "allRealms", e.AllRealmsCompleted, "balance", e.Balance)
	t.endings.Publish(EndingReached{Ending: e})
	return e, nil
}

// TimeRemaining returns the seconds left in the current realm visit, or
// +Inf when there is no limit or the player is in the hub.
func (t *Tracker) TimeRemaining() float64 {
	if !t.InRealm() || t.timeLimit == 0 {
		return math.Inf(1)
	}
	return t.remaining
}

// AdvanceTick runs the realm timer. When it runs out the realm is exited
// unsuccessfully; it reports whether that happened.
func (t *Tracker) AdvanceTick(dt float64) bool {
	if !t.InRealm() || t.timeLimit == 0 || !(dt > 0) {
		return false
	}
	t.remaining -= dt
	if t.remaining > 0 {
		return false
	}
	t.remaining = 0
	slog.Info("realm time expired", "realm", t.current)
	t.leave(false, true)
	return true
}

func (t *Tracker) leave(completed, timedOut bool) {
	r := t.current
	t.current = Hub
	t.remaining = 0
	t.exited.Publish(RealmExited{Realm: r, Completed: completed, TimedOut: timedOut})
}

// objectiveReset forgets the objectives of r so an unfinished realm can be
// replayed.
func (t *Tracker) objectiveReset(r Realm) {
	for k := range t.objectives {
		if k.realm == r {
			delete(t.objectives, k)
		}
	}
}

// OnRealmEntered registers fn for realm entries.
func (t *Tracker) OnRealmEntered(fn func(RealmEntered)) event.Subscription {
	return t.entered.Subscribe(fn)
}

// OnRealmExited registers fn for realm exits.
func (t *Tracker) OnRealmExited(fn func(RealmExited)) event.Subscription {
	return t.exited.Subscribe(fn)
}

// OnRealmCompleted registers fn for newly completed realms.
func (t *Tracker) OnRealmCompleted(fn func(RealmCompleted)) event.Subscription {
	return t.completes.Subscribe(fn)
}

// OnWhiteDoorChanged registers fn for gate flips.
func (t *Tracker) OnWhiteDoorChanged(fn func(WhiteDoorChanged)) event.Subscription {
	return t.whiteDoor.Subscribe(fn)
}

// OnEndingReached registers fn for the ending.
func (t *Tracker) OnEndingReached(fn func(EndingReached)) event.Subscription {
	return t.endings.Subscribe(fn)
}

// Close detaches from the player state and drops every subscriber.
func (t *Tracker) Close() {
	t.subs.Close()
	t.entered.Clear()
	t.exited.Clear()
	t.completes.Clear()
	t.whiteDoor.Clear()
	t.endings.Clear()
}

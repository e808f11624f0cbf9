package combat

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDuplicateID is returned when adding a combatant whose ID is taken.
var ErrDuplicateID = errors.New("duplicate combatant id")

// Roster holds the combatants of a session in insertion order.
type Roster struct {
	order []*Combatant
	byID  map[string]*Combatant
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{byID: make(map[string]*Combatant)}
}

// Add registers c.
func (r *Roster) Add(c *Combatant) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTarget)
	}
	if _, ok := r.byID[c.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	r.order = append(r.order, c)
	r.byID[c.ID] = c
	return nil
}

// Get returns the combatant with the given id, or nil.
func (r *Roster) Get(id string) *Combatant {
	return r.byID[id]
}

// Remove drops the combatant with the given id. It reports whether one was removed.
func (r *Roster) Remove(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, c := range r.order {
		if c.ID == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns every combatant in insertion order.
func (r *Roster) All() []*Combatant {
	return r.order
}

// Len returns the number of combatants.
func (r *Roster) Len() int {
	return len(r.order)
}

// Active returns the combatants that are not defeated.
func (r *Roster) Active() []*Combatant {
	out := make([]*Combatant, 0, len(r.order))
	for _, c := range r.order {
		if !c.IsDefeated() {
			out = append(out, c)
		}
	}
	return out
}

// Allies returns the active combatants on team t.
func (r *Roster) Allies(t Team) []*Combatant {
	var out []*Combatant
	for _, c := range r.order {
		if c.Team == t && !c.IsDefeated() {
			out = append(out, c)
		}
	}
	return out
}

// CountActive returns how many active combatants are on team t.
func (r *Roster) CountActive(t Team) int {
	return len(r.Allies(t))
}

// SweepDefeated removes every defeated combatant except those listed in
// keep, and returns the removed ones in insertion order.
func (r *Roster) SweepDefeated(keep ...string) []*Combatant {
	var removed []*Combatant
	kept := r.order[:0:0]
	for _, c := range r.order {
		if c.IsDefeated() && !slices.Contains(keep, c.ID) {
			removed = append(removed, c)
			delete(r.byID, c.ID)
			continue
		}
		kept = append(kept, c)
	}
	r.order = kept
	return removed
}

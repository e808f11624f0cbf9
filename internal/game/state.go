// Package game provides the terminal shell: input, the fixed-step tick
// loop and the realm layouts around an engine session.
package game

// State represents the current shell state.
type State int

const (
	// StateExplore is normal play in the hub or a realm.
	StateExplore State = iota
	// StateEnded follows a successful walk through the white door.
	StateEnded
	// StateDefeated follows the player's health reaching zero.
	StateDefeated
	// StateQuit stops the loop.
	StateQuit
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateExplore:
		return "explore"
	case StateEnded:
		return "ended"
	case StateDefeated:
		return "defeated"
	case StateQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Over reports whether play has finished and only a keypress remains.
func (s State) Over() bool {
	return s == StateEnded || s == StateDefeated
}

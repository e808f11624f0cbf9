package progression

import "github.com/samdwyer/ancestralplane/internal/emotion"

// ObjectiveKind says how the environment triggers an objective.
type ObjectiveKind int

const (
	Interactable ObjectiveKind = iota
	Destroyable
	Platform
	Checkpoint
)

// String returns the kind name.
func (k ObjectiveKind) String() string {
	switch k {
	case Destroyable:
		return "destroyable"
	case Platform:
		return "platform"
	case Checkpoint:
		return "checkpoint"
	default:
		return "interactable"
	}
}

// AutoComplete reports whether reaching the objective completes it without
// an explicit interaction.
func (k ObjectiveKind) AutoComplete() bool {
	return k == Platform || k == Checkpoint
}

// Objective is a task inside a realm.
type Objective struct {
	Name         string
	Kind         ObjectiveKind
	RequiredMode emotion.Mode // Neutral accepts any mode
	Final        bool         // completing it completes the realm
}

// Accepts reports whether mode satisfies the objective.
func (o Objective) Accepts(mode emotion.Mode) bool {
	return o.RequiredMode == emotion.Neutral || o.RequiredMode == mode
}

package game

import (
	"github.com/samdwyer/ancestralplane/internal/emotion"
	"github.com/samdwyer/ancestralplane/internal/progression"
)

// strideLength is how many cells of movement make one classified action.
const strideLength = 8

// stride classifies movement: walking in Calm or Joy is mindful, dashing
// in Anger is chaotic, and Neutral movement is not counted.
type stride struct {
	mindful int
	chaotic int
}

// record adds cells walked in mode and returns an action once a full
// stride has accumulated.
func (s *stride) record(mode emotion.Mode, cells int) (progression.Action, bool) {
	switch mode {
	case emotion.Calm, emotion.Joy:
		s.mindful += cells
		if s.mindful >= strideLength {
			s.mindful -= strideLength
			return progression.Mindful, true
		}
	case emotion.Anger:
		s.chaotic += cells
		if s.chaotic >= strideLength {
			s.chaotic -= strideLength
			return progression.Chaotic, true
		}
	}
	return progression.Mindful, false
}

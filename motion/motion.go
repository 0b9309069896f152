// Package motion maps action ids to grid deltas under 4- or 8-connectivity.
package motion

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/gridmapf/grid"
)

// ErrUnknownConnectivity is returned for a connectivity mode other than 4 or 8.
var ErrUnknownConnectivity = errors.New("motion: unknown connectivity")

// Connectivity selects the permitted movement directions.
type Connectivity int

const (
	Four  Connectivity = 4
	Eight Connectivity = 8
)

// ParseConnectivity accepts "4" or "8".
func ParseConnectivity(s string) (Connectivity, error) {
	switch s {
	case "4":
		return Four, nil
	case "8":
		return Eight, nil
	default:
		return 0, fmt.Errorf("%w: %q (want \"4\" or \"8\")", ErrUnknownConnectivity, s)
	}
}

func (c Connectivity) String() string {
	return fmt.Sprintf("%d", int(c))
}

// Valid reports whether c is a known mode.
func (c Connectivity) Valid() bool {
	return c == Four || c == Eight
}

// Check returns ErrUnknownConnectivity for an unknown mode.
func (c Connectivity) Check() error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownConnectivity, int(c))
	}
	return nil
}

// Action is an agent action id.
type Action int

const (
	Wait      Action = iota // (0, 0)
	Right                   // (0, +1)
	Down                    // (+1, 0)
	Up                      // (-1, 0)
	Left                    // (0, -1)
	DownRight               // (+1, +1), 8-connected only
	DownLeft                // (+1, -1)
	UpRight                 // (-1, +1)
	UpLeft                  // (-1, -1)
)

// Delta is a (Δrow, Δcol) displacement.
type Delta struct {
	DRow int `json:"drow"`
	DCol int `json:"dcol"`
}

func (d Delta) String() string {
	return fmt.Sprintf("(%d, %d)", d.DRow, d.DCol)
}

// Apply returns p displaced by d.
func (d Delta) Apply(p grid.Pos) grid.Pos {
	return grid.Pos{Row: p.Row + d.DRow, Col: p.Col + d.DCol}
}

// Between returns the delta that takes from to to.
func Between(from, to grid.Pos) Delta {
	return Delta{DRow: to.Row - from.Row, DCol: to.Col - from.Col}
}

var deltas = [...]Delta{
	Wait:      {0, 0},
	Right:     {0, 1},
	Down:      {1, 0},
	Up:        {-1, 0},
	Left:      {0, -1},
	DownRight: {1, 1},
	DownLeft:  {1, -1},
	UpRight:   {-1, 1},
	UpLeft:    {-1, -1},
}

// NumActions returns the number of action ids c defines: 5 or 9.
func (c Connectivity) NumActions() int {
	if c == Eight {
		return 9
	}
	return 5
}

// Delta looks up the displacement for a. ok is false for ids c does not
// define; callers treat those as Wait.
func (c Connectivity) Delta(a Action) (d Delta, ok bool) {
	if a < 0 || int(a) >= c.NumActions() {
		return Delta{}, false
	}
	return deltas[a], true
}

// Allows reports whether d is a legal single-step displacement: wait or a
// cardinal step, plus diagonals under 8-connectivity.
func (c Connectivity) Allows(d Delta) bool {
	if d.DRow < -1 || d.DRow > 1 || d.DCol < -1 || d.DCol > 1 {
		return false
	}
	if d.DRow != 0 && d.DCol != 0 {
		return c == Eight
	}
	return true
}

// ActionFor is the inverse of Delta: it returns the action id c maps to d.
func (c Connectivity) ActionFor(d Delta) (Action, bool) {
	for a := Action(0); int(a) < c.NumActions(); a++ {
		if deltas[a] == d {
			return a, true
		}
	}
	return Wait, false
}

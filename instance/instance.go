// Package instance defines a fixed MAPF scenario: a grid plus ordered
// start and goal positions for N agents.
package instance

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/gridmapf/grid"
)

// ErrInvalid is returned when an instance fails its sanity check.
var ErrInvalid = errors.New("instance: invalid")

// maxExamples caps the positions cited in a blocked-cell error.
const maxExamples = 5

// Source records which scenario rows an instance was sliced from.
type Source struct {
	Offset int `json:"offset" yaml:"offset"`
	K      int `json:"k" yaml:"k"`
}

// Instance is immutable after construction; accessors return copies.
type Instance struct {
	grid   *grid.Grid
	starts []grid.Pos
	goals  []grid.Pos
	source Source
}

// New builds and checks an instance. The position slices are copied.
func New(g *grid.Grid, starts, goals []grid.Pos) (*Instance, error) {
	in := &Instance{
		grid:   g,
		starts: clonePositions(starts),
		goals:  clonePositions(goals),
		source: Source{K: len(starts)},
	}
	if err := in.Check(); err != nil {
		return nil, err
	}
	return in, nil
}

// FromScenario slices rows [offset, offset+k) out of a scenario.
func FromScenario(g *grid.Grid, sc grid.Scenario, k, offset int) (*Instance, error) {
	m := len(sc.Starts)
	if len(sc.Goals) != m {
		return nil, fmt.Errorf("%w: scenario has %d starts but %d goals", ErrInvalid, m, len(sc.Goals))
	}
	if k < 0 || offset < 0 || offset+k > m {
		return nil, fmt.Errorf("%w: requested scen rows [%d:%d] but scenario only has M=%d entries",
			ErrInvalid, offset, offset+k, m)
	}

	in, err := New(g, sc.Starts[offset:offset+k], sc.Goals[offset:offset+k])
	if err != nil {
		return nil, err
	}
	in.source = Source{Offset: offset, K: k}
	return in, nil
}

// Check verifies shape, bounds and that every start and goal is free.
func (in *Instance) Check() error {
	if in.grid == nil {
		return fmt.Errorf("%w: nil grid", ErrInvalid)
	}
	if len(in.starts) != len(in.goals) {
		return fmt.Errorf("%w: starts and goals must have same length, got %d vs %d",
			ErrInvalid, len(in.starts), len(in.goals))
	}

	h, w := in.grid.Height(), in.grid.Width()
	for _, set := range []struct {
		name string
		pos  []grid.Pos
	}{{"starts", in.starts}, {"goals", in.goals}} {
		for _, p := range set.pos {
			if p.Row < 0 || p.Row >= h {
				return fmt.Errorf("%w: %s has rows out of bounds (0..%d)", ErrInvalid, set.name, h-1)
			}
			if p.Col < 0 || p.Col >= w {
				return fmt.Errorf("%w: %s has cols out of bounds (0..%d)", ErrInvalid, set.name, w-1)
			}
		}
	}

	for _, set := range []struct {
		name string
		pos  []grid.Pos
	}{{"start", in.starts}, {"goal", in.goals}} {
		var blocked []grid.Pos
		for _, p := range set.pos {
			if in.grid.At(p) == grid.Obstacle {
				blocked = append(blocked, p)
			}
		}
		if len(blocked) > 0 {
			examples := blocked[:min(len(blocked), maxExamples)]
			return fmt.Errorf("%w: %d %s positions are on obstacles, examples: %v",
				ErrInvalid, len(blocked), set.name, examples)
		}
	}
	return nil
}

// Grid returns the shared, read-only grid.
func (in *Instance) Grid() *grid.Grid { return in.grid }

// NumAgents returns N.
func (in *Instance) NumAgents() int { return len(in.starts) }

// Starts returns a copy of the start positions.
func (in *Instance) Starts() []grid.Pos { return clonePositions(in.starts) }

// Goals returns a copy of the goal positions.
func (in *Instance) Goals() []grid.Pos { return clonePositions(in.goals) }

// Source returns the scenario slice the instance came from.
func (in *Instance) Source() Source { return in.source }

func clonePositions(p []grid.Pos) []grid.Pos {
	if p == nil {
		return nil
	}
	out := make([]grid.Pos, len(p))
	copy(out, p)
	return out
}

// Package env is the live multi-agent grid environment: it owns the agent
// position buffer and applies one joint action per tick.
package env

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/gridmapf/collision"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/instance"
	"github.com/pthm-cable/gridmapf/motion"
)

// ErrActionCount is returned when a joint action's length differs from N.
var ErrActionCount = errors.New("env: wrong number of actions")

// ErrNilInstance is returned when an environment is given no instance.
var ErrNilInstance = errors.New("env: nil instance")

// State is a snapshot. Positions and Goals are owned by the caller; Grid is
// shared and read-only.
type State struct {
	T         int
	Positions []grid.Pos
	Goals     []grid.Pos
	Grid      *grid.Grid
}

// AtGoal reports, per agent, whether it currently sits on its goal.
func (s State) AtGoal() []bool {
	out := make([]bool, len(s.Positions))
	for i, p := range s.Positions {
		out[i] = i < len(s.Goals) && p == s.Goals[i]
	}
	return out
}

// Diagnostics describes what happened during one Step.
type Diagnostics struct {
	T                int
	InvalidMoves     []int // agents whose move was blocked and who stayed put
	UnknownActions   []int // agents whose action id was not recognized
	VertexCollisions []collision.Vertex
	EdgeCollisions   []collision.Edge
}

// Conflicts returns the number of vertex plus edge records.
func (d Diagnostics) Conflicts() int {
	return len(d.VertexCollisions) + len(d.EdgeCollisions)
}

// LogValue implements slog.LogValuer for structured logging.
func (d Diagnostics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("t", d.T),
		slog.Int("invalid", len(d.InvalidMoves)),
		slog.Int("unknown", len(d.UnknownActions)),
		slog.Int("vertex_collisions", len(d.VertexCollisions)),
		slog.Int("edge_collisions", len(d.EdgeCollisions)),
	)
}

// Env applies joint actions to an instance. It is not safe for concurrent use.
type Env struct {
	inst *instance.Instance
	conn motion.Connectivity

	t     int
	pos   []grid.Pos // replaced wholesale every Step, never patched
	goals []grid.Pos
}

// New returns an environment already reset to inst's start positions.
func New(inst *instance.Instance, conn motion.Connectivity) (*Env, error) {
	if err := conn.Check(); err != nil {
		return nil, err
	}
	e := &Env{conn: conn}
	if _, err := e.ResetWith(inst); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset returns to t=0 at the current instance's starts.
func (e *Env) Reset() State {
	e.t = 0
	e.pos = e.inst.Starts()
	return e.State()
}

// ResetWith replaces the instance and resets. A nil instance leaves the
// environment unchanged.
func (e *Env) ResetWith(inst *instance.Instance) (State, error) {
	if inst == nil {
		return State{}, ErrNilInstance
	}
	e.inst = inst
	e.goals = inst.Goals()
	return e.Reset(), nil
}

// State returns a snapshot of the current state.
func (e *Env) State() State {
	return State{
		T:         e.t,
		Positions: clonePositions(e.pos),
		Goals:     clonePositions(e.goals),
		Grid:      e.inst.Grid(),
	}
}

// NumAgents returns N.
func (e *Env) NumAgents() int { return len(e.pos) }

// Connectivity returns the motion mode.
func (e *Env) Connectivity() motion.Connectivity { return e.conn }

// Instance returns the current instance.
func (e *Env) Instance() *instance.Instance { return e.inst }

// Step applies one action per agent. Each agent moves independently: a move
// that leaves the grid or enters an obstacle is cancelled and recorded, and
// an unknown action id is treated as Wait. Conflicts between agents are
// reported in the diagnostics but never prevented. Diagonal moves check only
// the target cell.
func (e *Env) Step(actions []motion.Action) (State, Diagnostics, error) {
	if len(actions) != len(e.pos) {
		return State{}, Diagnostics{}, fmt.Errorf("%w: expected %d actions, got %d",
			ErrActionCount, len(e.pos), len(actions))
	}

	g := e.inst.Grid()
	prev := e.pos
	next := make([]grid.Pos, len(prev))
	diag := Diagnostics{}

	for i, a := range actions {
		d, ok := e.conn.Delta(a)
		if !ok {
			diag.UnknownActions = append(diag.UnknownActions, i)
		}
		candidate := d.Apply(prev[i])
		if !g.Passable(candidate) {
			diag.InvalidMoves = append(diag.InvalidMoves, i)
			candidate = prev[i]
		}
		next[i] = candidate
	}

	e.pos = next
	e.t++

	diag.T = e.t
	diag.VertexCollisions = collision.Vertices(next)
	diag.EdgeCollisions = collision.Edges(prev, next)

	return e.State(), diag, nil
}

// StepInts is Step for raw integer action ids.
func (e *Env) StepInts(actions []int) (State, Diagnostics, error) {
	as := make([]motion.Action, len(actions))
	for i, a := range actions {
		as[i] = motion.Action(a)
	}
	return e.Step(as)
}

func clonePositions(p []grid.Pos) []grid.Pos {
	out := make([]grid.Pos, len(p))
	copy(out, p)
	return out
}

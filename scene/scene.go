// Package scene mirrors environment snapshots into an ECS world for
// display. Data flows one way: from a snapshot into the world. Nothing in
// the scene is ever read back by the environment or the validator.
package scene

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridmapf/collision"
	"github.com/pthm-cable/gridmapf/env"
	"github.com/pthm-cable/gridmapf/grid"
)

// Scene holds one entity per agent.
type Scene struct {
	world *ecs.World

	mapper *ecs.Map4[Agent, Cell, Goal, Status]
	filter *ecs.Filter4[Agent, Cell, Goal, Status]

	entities []ecs.Entity // indexed by agent
	grid     *grid.Grid
	t        int

	vertex, edge int // collision records at t
}

// New returns an empty scene.
func New() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:  world,
		mapper: ecs.NewMap4[Agent, Cell, Goal, Status](world),
		filter: ecs.NewFilter4[Agent, Cell, Goal, Status](world),
	}
}

// Sync mirrors a live snapshot. d is the diagnostics of the step that
// produced s, or nil right after a reset.
func (s *Scene) Sync(st env.State, d *env.Diagnostics) {
	n := len(st.Positions)
	blocked := make([]bool, n)
	colliding := make([]bool, n)
	s.vertex, s.edge = 0, 0
	if d != nil {
		for _, i := range d.InvalidMoves {
			blocked[i] = true
		}
		colliding = collision.Involved(n, d.VertexCollisions, d.EdgeCollisions)
		s.vertex, s.edge = len(d.VertexCollisions), len(d.EdgeCollisions)
	}
	s.apply(st.Grid, st.T, st.Positions, st.Goals, blocked, colliding)
}

// SyncFrame mirrors frame t of a recorded trajectory. prev is frame t-1,
// or nil for the first frame; collisions are recomputed from the pair, so a
// non-nil prev must hold as many agents as curr. goals may be nil.
func (s *Scene) SyncFrame(g *grid.Grid, t int, prev, curr, goals []grid.Pos) {
	n := len(curr)
	vs := collision.Vertices(curr)
	var es []collision.Edge
	if prev != nil {
		es = collision.Edges(prev, curr)
	}
	colliding := collision.Involved(n, vs, es)
	s.vertex, s.edge = len(vs), len(es)
	s.apply(g, t, curr, goals, make([]bool, n), colliding)
}

func (s *Scene) apply(g *grid.Grid, t int, pos, goals []grid.Pos, blocked, colliding []bool) {
	s.grid = g
	s.t = t
	s.resize(len(pos))

	for i, e := range s.entities {
		_, cell, goal, status := s.mapper.Get(e)
		cell.Row, cell.Col = pos[i].Row, pos[i].Col
		if i < len(goals) {
			goal.Row, goal.Col = goals[i].Row, goals[i].Col
		} else {
			goal.Row, goal.Col = -1, -1
		}
		status.AtGoal = i < len(goals) && pos[i] == goals[i]
		status.Blocked = blocked[i]
		status.Colliding = colliding[i]
	}
}

// resize creates or removes entities so there is exactly one per agent.
func (s *Scene) resize(n int) {
	for len(s.entities) > n {
		last := len(s.entities) - 1
		s.mapper.Remove(s.entities[last])
		s.entities = s.entities[:last]
	}
	for i := len(s.entities); i < n; i++ {
		agent := Agent{Index: i}
		cell := Cell{}
		goal := Goal{Row: -1, Col: -1}
		status := Status{}
		s.entities = append(s.entities, s.mapper.NewEntity(&agent, &cell, &goal, &status))
	}
}

// Len returns the number of agent entities.
func (s *Scene) Len() int { return len(s.entities) }

// Time returns the timestep of the last sync.
func (s *Scene) Time() int { return s.t }

// Grid returns the grid of the last sync.
func (s *Scene) Grid() *grid.Grid { return s.grid }

// Collisions returns the vertex and edge record counts at the last sync.
func (s *Scene) Collisions() (vertex, edge int) { return s.vertex, s.edge }

// Each calls fn for every agent entity. Order follows the world's storage
// and is not guaranteed to be by agent index.
func (s *Scene) Each(fn func(Agent, Cell, Goal, Status)) {
	query := s.filter.Query()
	for query.Next() {
		agent, cell, goal, status := query.Get()
		fn(*agent, *cell, *goal, *status)
	}
}

// Counts returns how many agents are at their goal and how many are
// colliding.
func (s *Scene) Counts() (atGoal, colliding int) {
	s.Each(func(_ Agent, _ Cell, _ Goal, st Status) {
		if st.AtGoal {
			atGoal++
		}
		if st.Colliding {
			colliding++
		}
	})
	return atGoal, colliding
}

// At returns the components of agent i.
func (s *Scene) At(i int) (Cell, Goal, Status, bool) {
	if i < 0 || i >= len(s.entities) {
		return Cell{}, Goal{}, Status{}, false
	}
	_, cell, goal, status := s.mapper.Get(s.entities[i])
	return *cell, *goal, *status, true
}

// AgentAt returns the lowest-indexed agent on (row, col).
func (s *Scene) AgentAt(row, col int) (int, bool) {
	best := -1
	s.Each(func(a Agent, c Cell, _ Goal, _ Status) {
		if c.Row == row && c.Col == col && (best < 0 || a.Index < best) {
			best = a.Index
		}
	})
	return best, best >= 0
}

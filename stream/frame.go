// Package stream broadcasts environment snapshots to WebSocket clients.
package stream

import (
	"github.com/pthm-cable/gridmapf/collision"
	"github.com/pthm-cable/gridmapf/env"
	"github.com/pthm-cable/gridmapf/grid"
)

// Frame is one timestep as sent to clients.
type Frame struct {
	T                int                `json:"t"`
	Positions        []grid.Pos         `json:"positions"`
	Goals            []grid.Pos         `json:"goals,omitempty"`
	AtGoal           []bool             `json:"at_goal"`
	InvalidMoves     []int              `json:"invalid_moves,omitempty"`
	UnknownActions   []int              `json:"unknown_actions,omitempty"`
	VertexCollisions []collision.Vertex `json:"vertex_collisions,omitempty"`
	EdgeCollisions   []collision.Edge   `json:"edge_collisions,omitempty"`
}

// NewFrame builds a frame from a snapshot and the diagnostics of the step
// that produced it. d is nil right after a reset.
func NewFrame(st env.State, d *env.Diagnostics) Frame {
	f := Frame{
		T:         st.T,
		Positions: st.Positions,
		Goals:     st.Goals,
		AtGoal:    st.AtGoal(),
	}
	if d != nil {
		f.InvalidMoves = d.InvalidMoves
		f.UnknownActions = d.UnknownActions
		f.VertexCollisions = d.VertexCollisions
		f.EdgeCollisions = d.EdgeCollisions
	}
	return f
}

// GridInfo describes the static map.
type GridInfo struct {
	Height int      `json:"height"`
	Width  int      `json:"width"`
	Rows   []string `json:"rows"`
}

// NewGridInfo describes g using '.' for free cells and '@' for obstacles.
func NewGridInfo(g *grid.Grid) GridInfo {
	return GridInfo{Height: g.Height(), Width: g.Width(), Rows: g.Rows()}
}

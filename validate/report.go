package validate

import (
	"encoding/json"
	"log/slog"

	"github.com/pthm-cable/gridmapf/collision"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/motion"
)

// Kind names a class of trajectory violation.
type Kind string

const (
	KindBounds          Kind = "bounds"
	KindObstacle        Kind = "obstacle"
	KindIllegalMove     Kind = "illegal_move"
	KindVertexCollision Kind = "vertex_collision"
	KindEdgeCollision   Kind = "edge_collision"
)

// Violation locates one problem in a trajectory. Which Context fields are
// set depends on Kind:
//
//	bounds, obstacle   Positions (up to 4)
//	illegal_move       Delta
//	vertex_collision   Cell
//	edge_collision     MoveI, MoveJ
type Violation struct {
	Time    int     `json:"time"`
	Kind    Kind    `json:"type"`
	Agents  []int   `json:"agents"`
	Context Context `json:"extra"`
}

// Context carries the offending data for a Violation.
type Context struct {
	Positions []grid.Pos      `json:"positions,omitempty"`
	Delta     *motion.Delta   `json:"delta,omitempty"`
	Cell      *grid.Pos       `json:"cell,omitempty"`
	MoveI     *collision.Move `json:"from_to_i,omitempty"`
	MoveJ     *collision.Move `json:"from_to_j,omitempty"`
}

// GoalStatus is the tri-state outcome of the goal check.
type GoalStatus int8

const (
	GoalsUnchecked GoalStatus = iota // no goals supplied
	GoalsReached
	GoalsMissed
)

func (s GoalStatus) String() string {
	switch s {
	case GoalsReached:
		return "true"
	case GoalsMissed:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as true, false or null.
func (s GoalStatus) MarshalJSON() ([]byte, error) {
	switch s {
	case GoalsReached:
		return []byte("true"), nil
	case GoalsMissed:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false or null.
func (s *GoalStatus) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch {
	case v == nil:
		*s = GoalsUnchecked
	case *v:
		*s = GoalsReached
	default:
		*s = GoalsMissed
	}
	return nil
}

// Report is the outcome of validating one trajectory.
type Report struct {
	OK               bool       `json:"ok"`
	FirstError       *Violation `json:"first_error"`
	VertexCollisions int        `json:"num_vertex_collisions"`
	EdgeCollisions   int        `json:"num_edge_collisions"`
	IllegalMoves     int        `json:"num_illegal_moves"`
	OutOfBounds      int        `json:"num_out_of_bounds"`
	OnObstacle       int        `json:"num_on_obstacle"`
	Success          GoalStatus `json:"success"`
}

// LogValue implements slog.LogValuer for structured logging.
func (r Report) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Bool("ok", r.OK),
		slog.Int("out_of_bounds", r.OutOfBounds),
		slog.Int("on_obstacle", r.OnObstacle),
		slog.Int("illegal_moves", r.IllegalMoves),
		slog.Int("vertex_collisions", r.VertexCollisions),
		slog.Int("edge_collisions", r.EdgeCollisions),
		slog.String("success", r.Success.String()),
	}
	if r.FirstError != nil {
		attrs = append(attrs,
			slog.String("first_error", string(r.FirstError.Kind)),
			slog.Int("first_error_time", r.FirstError.Time),
		)
	}
	return slog.GroupValue(attrs...)
}

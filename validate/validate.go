// Package validate checks a recorded multi-agent trajectory for bounds,
// obstacle, move-legality and collision violations.
//
// The report's FirstError is the first violation found by running four
// passes over the whole trajectory in a fixed order: positions (bounds,
// then obstacles), move legality, vertex collisions, edge collisions. A
// later pass never pre-empts an earlier one, so an out-of-bounds position
// at t=5 is reported ahead of an illegal move at t=2. This ordering is
// relied on by existing consumers of the report and is kept deliberately.
package validate

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/pthm-cable/gridmapf/collision"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/motion"
	"github.com/pthm-cable/gridmapf/trajectory"
)

// ErrGoalShape is returned when the goal vector length differs from N.
var ErrGoalShape = errors.New("validate: goals must have one position per agent")

// maxReported caps the agents listed for bounds, obstacle and vertex violations.
const maxReported = 4

// parallelThreshold is the minimum T·N for automatic sharding.
// Below this, a single pass is faster than goroutine overhead.
const parallelThreshold = 1 << 15

// Options configures Validate.
type Options struct {
	Connectivity motion.Connectivity

	// Goals enables the success check when non-nil.
	Goals []grid.Pos

	// Workers is the shard count per pass: 1 runs serially, ≤0 picks
	// GOMAXPROCS for large trajectories.
	Workers int
}

func (o Options) workers(cells int) int {
	if o.Workers > 0 {
		return o.Workers
	}
	if cells < parallelThreshold {
		return 1
	}
	return runtime.GOMAXPROCS(0)
}

// Validate checks paths against g. Shape, connectivity and goal-vector
// problems are returned as errors before any cell is read; everything else
// is counted in the report.
func Validate(g *grid.Grid, paths *trajectory.Tensor, opts Options) (Report, error) {
	steps, agents, err := paths.Dims()
	if err != nil {
		return Report{}, err
	}
	if err := opts.Connectivity.Check(); err != nil {
		return Report{}, err
	}
	if opts.Goals != nil && len(opts.Goals) != agents {
		return Report{}, fmt.Errorf("%w: got %d, N=%d", ErrGoalShape, len(opts.Goals), agents)
	}

	frames, err := paths.Frames()
	if err != nil {
		return Report{}, err
	}
	v := &validator{grid: g, frames: frames, conn: opts.Connectivity}
	workers := opts.workers(steps * agents)

	positions := runSharded(0, steps, workers, v.positionPass)
	moves := runSharded(1, steps, workers, v.movePass)
	vertices := runSharded(0, steps, workers, v.vertexPass)
	edges := runSharded(1, steps, workers, v.edgePass)

	r := Report{
		OutOfBounds:      positions.counts[0],
		OnObstacle:       positions.counts[1],
		IllegalMoves:     moves.counts[0],
		VertexCollisions: vertices.counts[0],
		EdgeCollisions:   edges.counts[0],
	}
	for _, p := range []passResult{positions, moves, vertices, edges} {
		if p.first != nil {
			r.FirstError = p.first
			break
		}
	}

	if opts.Goals != nil {
		r.Success = GoalsReached
		final := frames[steps-1]
		for i, goal := range opts.Goals {
			if final[i] != goal {
				r.Success = GoalsMissed
				break
			}
		}
	}

	r.OK = r.OutOfBounds == 0 &&
		r.OnObstacle == 0 &&
		r.IllegalMoves == 0 &&
		r.VertexCollisions == 0 &&
		r.EdgeCollisions == 0 &&
		r.Success != GoalsMissed
	return r, nil
}

type validator struct {
	grid   *grid.Grid
	frames [][]grid.Pos
	conn   motion.Connectivity
}

// positionPass flags out-of-bounds positions, then obstacle-occupying
// in-bounds positions, for timesteps [lo, hi).
func (v *validator) positionPass(lo, hi int) passResult {
	var res passResult
	for t := lo; t < hi; t++ {
		var oob, blocked []int
		for i, p := range v.frames[t] {
			if !v.grid.InBounds(p) {
				oob = append(oob, i)
			} else if v.grid.At(p) == grid.Obstacle {
				blocked = append(blocked, i)
			}
		}
		res.counts[0] += len(oob)
		res.counts[1] += len(blocked)
		if len(oob) > 0 {
			res.note(v.positionViolation(t, KindBounds, oob))
		}
		if len(blocked) > 0 {
			res.note(v.positionViolation(t, KindObstacle, blocked))
		}
	}
	return res
}

func (v *validator) positionViolation(t int, kind Kind, agents []int) *Violation {
	agents = agents[:min(len(agents), maxReported)]
	pos := make([]grid.Pos, len(agents))
	for k, i := range agents {
		pos[k] = v.frames[t][i]
	}
	return &Violation{Time: t, Kind: kind, Agents: agents, Context: Context{Positions: pos}}
}

// movePass checks every realized delta for transitions ending in [lo, hi).
func (v *validator) movePass(lo, hi int) passResult {
	var res passResult
	for t := lo; t < hi; t++ {
		prev, curr := v.frames[t-1], v.frames[t]
		for i := range curr {
			d := motion.Between(prev[i], curr[i])
			if v.conn.Allows(d) {
				continue
			}
			res.counts[0]++
			if res.first == nil {
				delta := d
				res.note(&Violation{Time: t, Kind: KindIllegalMove, Agents: []int{i}, Context: Context{Delta: &delta}})
			}
		}
	}
	return res
}

// vertexPass counts every unordered pair of co-located agents.
func (v *validator) vertexPass(lo, hi int) passResult {
	var res passResult
	for t := lo; t < hi; t++ {
		cells, agents := collision.Occupancy(v.frames[t])
		for k, occupants := range agents {
			if len(occupants) < 2 {
				continue
			}
			res.counts[0] += collision.Pairs(len(occupants))
			if res.first == nil {
				cell := cells[k]
				res.note(&Violation{
					Time:    t,
					Kind:    KindVertexCollision,
					Agents:  occupants[:min(len(occupants), maxReported)],
					Context: Context{Cell: &cell},
				})
			}
		}
	}
	return res
}

// edgePass runs the pairwise swap test on transitions ending in [lo, hi).
func (v *validator) edgePass(lo, hi int) passResult {
	var res passResult
	for t := lo; t < hi; t++ {
		prev, curr := v.frames[t-1], v.frames[t]
		n := len(curr)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if !collision.Swapped(prev, curr, i, j) {
					continue
				}
				res.counts[0]++
				if res.first == nil {
					e := collision.NewEdge(prev, curr, i, j)
					res.note(&Violation{
						Time:    t,
						Kind:    KindEdgeCollision,
						Agents:  []int{i, j},
						Context: Context{MoveI: &e.MoveI, MoveJ: &e.MoveJ},
					})
				}
			}
		}
	}
	return res
}

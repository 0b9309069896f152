package scene

import "github.com/pthm-cable/gridmapf/grid"

// Replay steps through recorded frames.
type Replay struct {
	grid   *grid.Grid
	frames [][]grid.Pos
	goals  []grid.Pos
	next   int
}

// NewReplay returns a replay over frames. goals may be nil.
func NewReplay(g *grid.Grid, frames [][]grid.Pos, goals []grid.Pos) *Replay {
	return &Replay{grid: g, frames: frames, goals: goals}
}

// Advance mirrors the next frame into sc. done is true once the last frame
// has been shown.
func (r *Replay) Advance(sc *Scene) (done bool, err error) {
	if r.next >= len(r.frames) {
		return true, nil
	}
	var prev []grid.Pos
	if r.next > 0 {
		prev = r.frames[r.next-1]
	}
	sc.SyncFrame(r.grid, r.next, prev, r.frames[r.next], r.goals)
	r.next++
	return r.next >= len(r.frames), nil
}

// Restart shows the first frame again.
func (r *Replay) Restart(sc *Scene) {
	r.next = 0
	r.Advance(sc)
}

// Len returns the number of frames.
func (r *Replay) Len() int { return len(r.frames) }

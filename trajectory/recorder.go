package trajectory

import (
	"github.com/pthm-cable/gridmapf/env"
	"github.com/pthm-cable/gridmapf/grid"
)

// Recorder accumulates environment snapshots into a trajectory.
type Recorder struct {
	frames [][]grid.Pos
}

// Record appends a copy of a snapshot's positions.
func (r *Recorder) Record(s env.State) {
	r.frames = append(r.frames, append([]grid.Pos(nil), s.Positions...))
}

// Len returns the number of recorded frames.
func (r *Recorder) Len() int { return len(r.frames) }

// Reset drops all recorded frames.
func (r *Recorder) Reset() { r.frames = nil }

// Tensor returns the recording as a (T, N, 2) tensor.
func (r *Recorder) Tensor() (*Tensor, error) {
	return FromFrames(r.frames)
}

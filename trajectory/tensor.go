// Package trajectory holds recorded multi-agent runs as (T, N, 2) integer
// tensors and reads/writes them in NumPy .npy format.
package trajectory

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/gridmapf/grid"
)

// ErrShape is returned when a tensor is not shaped (T, N, 2).
var ErrShape = errors.New("trajectory: paths must have shape (T, N, 2)")

// Tensor is a row-major integer array of arbitrary rank. Shape is not
// checked on construction so that malformed files can still be loaded and
// reported; use Dims before reading frames.
type Tensor struct {
	shape []int
	data  []int64
}

// MaxElements bounds the product of a tensor's dimensions, counting zero
// dimensions as one so that no single axis can be unbounded.
const MaxElements = 1 << 32

// Elements returns the number of values a tensor of the given shape holds.
func Elements(shape []int) (int, error) {
	n, bound := 1, 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w; negative dimension in %v", ErrShape, shape)
		}
		w := max(d, 1)
		if bound > MaxElements/w {
			return 0, fmt.Errorf("%w; %v exceeds %d elements", ErrShape, shape, MaxElements)
		}
		bound *= w
		n *= d
	}
	return n, nil
}

// New wraps data with the given shape. len(data) must equal the product of
// the dimensions.
func New(shape []int, data []int64) (*Tensor, error) {
	n, err := Elements(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("trajectory: %d values for shape %v", len(data), shape)
	}
	return &Tensor{shape: append([]int(nil), shape...), data: data}, nil
}

// FromFrames builds a (T, N, 2) tensor. Every frame must hold N positions.
func FromFrames(frames [][]grid.Pos) (*Tensor, error) {
	n := 0
	if len(frames) > 0 {
		n = len(frames[0])
	}
	data := make([]int64, 0, len(frames)*n*2)
	for t, f := range frames {
		if len(f) != n {
			return nil, fmt.Errorf("%w: frame %d has %d agents, frame 0 has %d", ErrShape, t, len(f), n)
		}
		for _, p := range f {
			data = append(data, int64(p.Row), int64(p.Col))
		}
	}
	return &Tensor{shape: []int{len(frames), n, 2}, data: data}, nil
}

// Shape returns a copy of the dimensions.
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Dims checks for shape (T, N, 2) with T ≥ 1 and returns T and N.
func (t *Tensor) Dims() (steps, agents int, err error) {
	if len(t.shape) != 3 || t.shape[2] != 2 {
		return 0, 0, fmt.Errorf("%w; got %v", ErrShape, t.shape)
	}
	if t.shape[0] == 0 {
		return 0, 0, fmt.Errorf("%w; got %v (no timesteps)", ErrShape, t.shape)
	}
	return t.shape[0], t.shape[1], nil
}

// Frame returns the positions at timestep i. The tensor must pass Dims.
func (t *Tensor) Frame(i int) []grid.Pos {
	n := t.shape[1]
	base := i * n * 2
	out := make([]grid.Pos, n)
	for a := range out {
		out[a] = grid.Pos{Row: int(t.data[base+2*a]), Col: int(t.data[base+2*a+1])}
	}
	return out
}

// Frames decodes every timestep.
func (t *Tensor) Frames() ([][]grid.Pos, error) {
	steps, _, err := t.Dims()
	if err != nil {
		return nil, err
	}
	out := make([][]grid.Pos, steps)
	for i := range out {
		out[i] = t.Frame(i)
	}
	return out, nil
}

package animate

import (
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"os"

	"github.com/pthm-cable/gridmapf/collision"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/trajectory"
)

// PlaybackOptions configures Playback.
type PlaybackOptions struct {
	FPS       int
	Stride    int // render every Stride-th timestep
	CellSize  int
	Highlight bool
	Goals     []grid.Pos // ignored unless one per agent
	Starts    []grid.Pos
}

// Playback renders timesteps 0, Stride, 2·Stride, … of paths into an
// animated GIF. Collisions at t are judged against t-1 even when t-1 is
// not itself rendered.
func Playback(g *grid.Grid, paths *trajectory.Tensor, opts PlaybackOptions) (*gif.GIF, error) {
	steps, agents, err := paths.Dims()
	if err != nil {
		return nil, err
	}
	frames, err := paths.Frames()
	if err != nil {
		return nil, err
	}
	stride := max(opts.Stride, 1)
	fps := opts.FPS
	if fps <= 0 {
		fps = 5
	}
	goals := opts.Goals
	if len(goals) != agents {
		goals = nil
	}
	starts := opts.Starts
	if len(starts) != agents {
		starts = nil
	}

	canvas := NewCanvas(g, Style{CellSize: opts.CellSize, HUD: true})
	anim := &gif.GIF{Config: image.Config{
		ColorModel: Palette,
		Width:      canvas.Bounds().Dx(),
		Height:     canvas.Bounds().Dy(),
	}}
	delay := max(100/fps, 1) // hundredths of a second

	for t := 0; t < steps; t += stride {
		f := Frame{
			T:         t,
			Last:      steps - 1,
			Positions: frames[t],
			Goals:     goals,
			Starts:    starts,
			Highlight: opts.Highlight,
		}
		if opts.Highlight {
			vs := collision.Vertices(frames[t])
			var es []collision.Edge
			if t > 0 {
				es = collision.Edges(frames[t-1], frames[t])
			}
			f.Colliding = collision.Involved(agents, vs, es)
			f.VertexCollisions, f.EdgeCollisions = len(vs), len(es)
		}
		anim.Image = append(anim.Image, canvas.Render(f))
		anim.Delay = append(anim.Delay, delay)
	}
	return anim, nil
}

// EncodeGIF writes anim to w.
func EncodeGIF(w io.Writer, anim *gif.GIF) error {
	return gif.EncodeAll(w, anim)
}

// EncodePNG writes img to w.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SaveGIF writes anim to path.
func SaveGIF(path string, anim *gif.GIF) error {
	return save(path, func(w io.Writer) error { return EncodeGIF(w, anim) })
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	return save(path, func(w io.Writer) error { return EncodePNG(w, img) })
}

func save(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

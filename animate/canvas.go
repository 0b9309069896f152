// Package animate rasterizes grids and agent frames into paletted images
// for PNG map previews and GIF playback.
package animate

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pthm-cable/gridmapf/grid"
)

const (
	lineHeight = 13 // basicfont.Face7x13
	hudPad     = 3
	hudLines   = 2
)

// Style controls frame layout.
type Style struct {
	CellSize int  // pixels per cell, at least 1
	HUD      bool // reserve a text band above the grid
}

// Frame is one timestep to draw. Goals and Starts may be nil; Colliding
// may be nil when highlighting is off.
type Frame struct {
	T, Last   int // current and final timestep
	Positions []grid.Pos
	Goals     []grid.Pos
	Starts    []grid.Pos
	Colliding []bool

	VertexCollisions int
	EdgeCollisions   int
	Highlight        bool
}

// Canvas renders frames over a pre-drawn map.
type Canvas struct {
	grid  *grid.Grid
	cell  int
	hud   int
	base  *image.Paletted
	bound image.Rectangle
}

// NewCanvas draws the static map once.
func NewCanvas(g *grid.Grid, style Style) *Canvas {
	cell := max(style.CellSize, 1)
	hud := 0
	if style.HUD {
		hud = hudLines*lineHeight + 2*hudPad
	}
	bound := image.Rect(0, 0, g.Width()*cell, g.Height()*cell+hud)
	base := image.NewPaletted(bound, Palette)

	fillRect(base, image.Rect(0, 0, bound.Dx(), hud), idxHUD)
	for r := 0; r < g.Height(); r++ {
		for c := 0; c < g.Width(); c++ {
			idx := idxFree
			if g.At(grid.Pos{Row: r, Col: c}) == grid.Obstacle {
				idx = idxObstacle
			}
			fillRect(base, image.Rect(c*cell, hud+r*cell, (c+1)*cell, hud+(r+1)*cell), idx)
		}
	}
	return &Canvas{grid: g, cell: cell, hud: hud, base: base, bound: bound}
}

// Bounds returns the size of every image the canvas produces.
func (c *Canvas) Bounds() image.Rectangle { return c.bound }

// Map returns a copy of the bare map image.
func (c *Canvas) Map() *image.Paletted {
	img := image.NewPaletted(c.bound, Palette)
	copy(img.Pix, c.base.Pix)
	return img
}

// Render draws f over a copy of the map. Positions outside the grid are
// skipped.
func (c *Canvas) Render(f Frame) *image.Paletted {
	img := c.Map()

	for _, p := range f.Starts {
		c.triangle(img, p, idxStart)
	}
	for _, p := range f.Goals {
		c.plus(img, p, idxGoal)
	}

	n := len(f.Positions)
	atGoal := make([]bool, n)
	if len(f.Goals) == n {
		for i, p := range f.Positions {
			atGoal[i] = p == f.Goals[i]
		}
	}
	for i, p := range f.Positions {
		colliding := f.Highlight && i < len(f.Colliding) && f.Colliding[i]
		switch {
		case atGoal[i] && colliding:
			c.cross(img, p, idxColliding, 2)
		case atGoal[i]:
			c.cross(img, p, idxAtGoal, 1)
		case colliding:
			c.disk(img, p, idxColliding, 0.45)
		default:
			c.disk(img, p, idxAgent, 0.35)
		}
	}

	if c.hud > 0 {
		lines := [hudLines]string{fmt.Sprintf("t = %d / %d  (N=%d)", f.T, f.Last, n)}
		if f.Highlight {
			lines[1] = fmt.Sprintf("vertex: %d, edge: %d", f.VertexCollisions, f.EdgeCollisions)
		}
		c.text(img, lines[:])
	}
	return img
}

func (c *Canvas) cellRect(p grid.Pos) (image.Rectangle, bool) {
	if !c.grid.InBounds(p) {
		return image.Rectangle{}, false
	}
	x, y := p.Col*c.cell, c.hud+p.Row*c.cell
	return image.Rect(x, y, x+c.cell, y+c.cell), true
}

func (c *Canvas) disk(img *image.Paletted, p grid.Pos, idx uint8, radius float64) {
	r, ok := c.cellRect(p)
	if !ok {
		return
	}
	if c.cell < 3 {
		fillRect(img, r, idx)
		return
	}
	cx := float64(r.Min.X) + float64(c.cell)/2
	cy := float64(r.Min.Y) + float64(c.cell)/2
	rad := radius * float64(c.cell)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= rad*rad {
				img.SetColorIndex(x, y, idx)
			}
		}
	}
}

func (c *Canvas) cross(img *image.Paletted, p grid.Pos, idx uint8, width int) {
	r, ok := c.cellRect(p)
	if !ok {
		return
	}
	inset := c.cell / 5
	n := c.cell - 2*inset
	for k := 0; k < n; k++ {
		for w := 0; w < width; w++ {
			img.SetColorIndex(r.Min.X+inset+k+w, r.Min.Y+inset+k, idx)
			img.SetColorIndex(r.Max.X-1-inset-k-w, r.Min.Y+inset+k, idx)
		}
	}
}

func (c *Canvas) plus(img *image.Paletted, p grid.Pos, idx uint8) {
	r, ok := c.cellRect(p)
	if !ok {
		return
	}
	mid := c.cell / 2
	inset := c.cell / 4
	for k := inset; k < c.cell-inset; k++ {
		img.SetColorIndex(r.Min.X+k, r.Min.Y+mid, idx)
		img.SetColorIndex(r.Min.X+mid, r.Min.Y+k, idx)
	}
}

func (c *Canvas) triangle(img *image.Paletted, p grid.Pos, idx uint8) {
	r, ok := c.cellRect(p)
	if !ok {
		return
	}
	inset := c.cell / 4
	h := c.cell - 2*inset
	for row := 0; row < h; row++ {
		half := row / 2
		y := r.Min.Y + inset + row
		for x := c.cell/2 - half; x <= c.cell/2+half; x++ {
			img.SetColorIndex(r.Min.X+x, y, idx)
		}
	}
}

func (c *Canvas) text(img *image.Paletted, lines []string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(Palette[idxInk]),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		if line == "" {
			continue
		}
		d.Dot = fixed.P(hudPad, hudPad+(i+1)*lineHeight-3)
		d.DrawString(line)
	}
}

func fillRect(img *image.Paletted, r image.Rectangle, idx uint8) {
	draw.Draw(img, r, image.NewUniform(Palette[idx]), image.Point{}, draw.Src)
}

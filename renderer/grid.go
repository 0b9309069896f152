package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridmapf/animate"
	"github.com/pthm-cable/gridmapf/camera"
	"github.com/pthm-cable/gridmapf/grid"
)

// texelsPerCell is the resolution of the uploaded map texture.
const texelsPerCell = 8

// GridRenderer draws the static map: free cells, obstacles and optional
// cell outlines. The texture is rasterized once by animate.
type GridRenderer struct {
	grid        *grid.Grid
	canvas      *animate.Canvas
	texture     rl.Texture2D
	initialized bool
}

// NewGridRenderer creates a renderer for g.
func NewGridRenderer(g *grid.Grid) *GridRenderer {
	return &GridRenderer{
		grid:   g,
		canvas: animate.NewCanvas(g, animate.Style{CellSize: texelsPerCell}),
	}
}

// Init uploads the map texture (must be called after the raylib window is created).
func (r *GridRenderer) Init() {
	if r.initialized {
		return
	}
	img := rl.NewImageFromImage(r.canvas.Map())
	r.texture = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.texture, rl.FilterPoint)
	rl.UnloadImage(img)
	r.initialized = true
}

// Draw renders the map through cam.
func (r *GridRenderer) Draw(cam *camera.Camera, outlines bool) {
	if !r.initialized {
		r.Init()
	}

	srcRect := rl.Rectangle{X: 0, Y: 0, Width: float32(r.texture.Width), Height: float32(r.texture.Height)}
	x0, y0 := cam.WorldToScreen(0, 0)
	dstRect := rl.Rectangle{
		X:      x0,
		Y:      y0,
		Width:  float32(r.grid.Width()) * cam.Zoom,
		Height: float32(r.grid.Height()) * cam.Zoom,
	}
	rl.DrawTexturePro(r.texture, srcRect, dstRect, rl.Vector2{}, 0, rl.White)

	// Outlines get noisy below a few pixels per cell.
	if !outlines || cam.Zoom < 6 {
		return
	}
	line := rl.Color{R: 0, G: 0, B: 0, A: 40}
	for c := 0; c <= r.grid.Width(); c++ {
		sx, _ := cam.WorldToScreen(float32(c), 0)
		rl.DrawLineV(rl.Vector2{X: sx, Y: dstRect.Y}, rl.Vector2{X: sx, Y: dstRect.Y + dstRect.Height}, line)
	}
	for row := 0; row <= r.grid.Height(); row++ {
		_, sy := cam.WorldToScreen(0, float32(row))
		rl.DrawLineV(rl.Vector2{X: dstRect.X, Y: sy}, rl.Vector2{X: dstRect.X + dstRect.Width, Y: sy}, line)
	}
}

// Unload frees resources.
func (r *GridRenderer) Unload() {
	if r.initialized {
		rl.UnloadTexture(r.texture)
		r.initialized = false
	}
}

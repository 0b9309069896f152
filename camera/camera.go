// Package camera maps between grid cells and screen pixels for the viewer.
package camera

import "github.com/pthm-cable/gridmapf/grid"

// Camera controls the viewport onto a bounded grid. World coordinates are
// in cells: cell (r, c) spans [c, c+1) × [r, r+1).
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom is screen pixels per cell
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions in cells
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// maxZoomFactor bounds zooming in relative to the fitted zoom.
const maxZoomFactor = 16

// New creates a camera that fits a gridW × gridH grid in the viewport.
func New(viewportW, viewportH float32, gridW, gridH int) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    float32(max(gridW, 1)),
		WorldH:    float32(max(gridH, 1)),
	}
	c.Reset()
	return c
}

// fit returns the zoom at which the whole grid is visible.
func (c *Camera) fit() float32 {
	return min(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// CellCenter returns the screen position of the center of p.
func (c *Camera) CellCenter(p grid.Pos) (sx, sy float32) {
	return c.WorldToScreen(float32(p.Col)+0.5, float32(p.Row)+0.5)
}

// CellAt returns the grid cell under a screen point, if any.
func (c *Camera) CellAt(sx, sy float32) (grid.Pos, bool) {
	wx, wy := c.ScreenToWorld(sx, sy)
	if wx < 0 || wy < 0 || wx >= c.WorldW || wy >= c.WorldH {
		return grid.Pos{}, false
	}
	return grid.Pos{Row: int(wy), Col: int(wx)}, true
}

// IsVisible reports whether cell p overlaps the viewport.
func (c *Camera) IsVisible(p grid.Pos) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	x, y := float32(p.Col), float32(p.Row)
	return x+1 > minX && x < maxX && y+1 > minY && y < maxY
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.fit()
	c.MaxZoom = c.MinZoom * maxZoomFactor
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels. The center
// stays over the grid.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, 0, c.WorldW)
	c.Y = clamp(c.Y+dy/c.Zoom, 0, c.WorldH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the grid and fits it in the viewport.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.MinZoom = c.fit()
	c.MaxZoom = c.MinZoom * maxZoomFactor
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

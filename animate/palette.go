package animate

import "image/color"

// Palette indices.
const (
	idxFree uint8 = iota
	idxObstacle
	idxAgent
	idxAtGoal
	idxColliding
	idxGoal
	idxStart
	idxInk
	idxHUD
)

// Palette is shared by every frame so GIF frames need no local tables.
var Palette = color.Palette{
	idxFree:      color.RGBA{R: 250, G: 250, B: 250, A: 255},
	idxObstacle:  color.RGBA{R: 48, G: 48, B: 52, A: 255},
	idxAgent:     color.RGBA{R: 40, G: 110, B: 200, A: 255},
	idxAtGoal:    color.RGBA{R: 30, G: 150, B: 70, A: 255},
	idxColliding: color.RGBA{R: 220, G: 40, B: 40, A: 255},
	idxGoal:      color.RGBA{R: 170, G: 195, B: 235, A: 255},
	idxStart:     color.RGBA{R: 180, G: 225, B: 185, A: 255},
	idxInk:       color.RGBA{R: 10, G: 10, B: 10, A: 255},
	idxHUD:       color.RGBA{R: 225, G: 225, B: 225, A: 255},
}

// Role colors, shared with the interactive viewer.
var (
	ColorAgent     = Palette[idxAgent]
	ColorAtGoal    = Palette[idxAtGoal]
	ColorColliding = Palette[idxColliding]
	ColorGoal      = Palette[idxGoal]
)

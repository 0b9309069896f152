package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridmapf/telemetry"
)

// HUDData is one frame of viewer status.
type HUDData struct {
	Title            string
	Source           string // "rollout" or "replay"
	T                int
	Last             int // final timestep of a replay, -1 for a live rollout
	Agents           int
	AtGoal           int
	Colliding        int
	VertexCollisions int
	EdgeCollisions   int
	Speed            float32
	FPS              int32
	Paused           bool
}

// GoalRatio is the fraction of agents on their goal.
func (d HUDData) GoalRatio() float32 {
	if d.Agents == 0 {
		return 0
	}
	return float32(d.AtGoal) / float32(d.Agents)
}

// TimeLine formats the current timestep, with the final one for replays.
func (d HUDData) TimeLine() string {
	if d.Last >= 0 {
		return fmt.Sprintf("t = %d / %d (N=%d) [%s]", d.T, d.Last, d.Agents, d.Source)
	}
	return fmt.Sprintf("t = %d (N=%d) [%s]", d.T, d.Agents, d.Source)
}

// HUD draws the top-left status block and the key legend.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(d HUDData) {
	th := h.renderer.Theme
	rl.DrawText(d.Title, 10, 10, 20, rl.White)
	rl.DrawText(d.TimeLine(), 10, 35, 16, th.LabelColor)

	color := th.LabelColor
	if d.VertexCollisions+d.EdgeCollisions > 0 {
		color = th.Alert
	}
	rl.DrawText(fmt.Sprintf("vertex: %d, edge: %d | colliding agents: %d",
		d.VertexCollisions, d.EdgeCollisions, d.Colliding), 10, 55, 16, color)

	h.renderer.DrawBar(10, 76, fmt.Sprintf("goal %d/%d", d.AtGoal, d.Agents), d.GoalRatio(), 240)

	status := fmt.Sprintf("Running %.1f steps/s | FPS %d", d.Speed, d.FPS)
	if d.Paused {
		status = "PAUSED"
	}
	rl.DrawText(status, 10, 96, 16, rl.Yellow)
}

// DrawControls renders the key legend along the bottom edge.
func (h *HUD) DrawControls(screenHeight int32, legend string) {
	rl.DrawText(legend, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders rollout tick timing.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x, p.y = x, y
}

// Draw renders per-phase averages; phases over a quarter of the tick are
// orange, over half red.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y
	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s | p95: %s | %.0f ticks/s",
		stats.AvgTickDuration.Round(time.Microsecond),
		stats.P95TickDuration.Round(time.Microsecond),
		stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, ph := range telemetry.Phases() {
		ps := stats.Phase(ph)
		color := rl.LightGray
		switch {
		case ps.Pct > 50:
			color = rl.Red
		case ps.Pct > 25:
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-10s %6s %5.1f%%", ph, ps.Avg.Round(time.Microsecond), ps.Pct), x, y, 12, color)
		y += 14
	}
}

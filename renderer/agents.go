package renderer

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridmapf/animate"
	"github.com/pthm-cable/gridmapf/camera"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/scene"
)

// AgentLayers selects what the agent renderer draws on top of the bodies.
type AgentLayers struct {
	Goals      bool
	GoalLinks  bool
	Collisions bool
	Blocked    bool
	Labels     bool
}

// AgentRenderer draws scene entities. At-goal agents are crosses, the
// rest filled circles.
type AgentRenderer struct {
	agent     rl.Color
	atGoal    rl.Color
	colliding rl.Color
	goal      rl.Color
}

// NewAgentRenderer creates an agent renderer using the raster palette.
func NewAgentRenderer() *AgentRenderer {
	return &AgentRenderer{
		agent:     toRL(animate.ColorAgent),
		atGoal:    toRL(animate.ColorAtGoal),
		colliding: toRL(animate.ColorColliding),
		goal:      toRL(animate.ColorGoal),
	}
}

// Draw renders every agent in sc. selected is highlighted; pass -1 for none.
func (r *AgentRenderer) Draw(sc *scene.Scene, cam *camera.Camera, layers AgentLayers, selected int) {
	radius := cam.Zoom * 0.35

	if layers.Goals {
		sc.Each(func(_ scene.Agent, _ scene.Cell, g scene.Goal, _ scene.Status) {
			if g.Row < 0 {
				return
			}
			p := grid.Pos{Row: g.Row, Col: g.Col}
			if !cam.IsVisible(p) {
				return
			}
			x, y := cam.CellCenter(p)
			r.plus(x, y, radius, r.goal)
		})
	}

	sc.Each(func(a scene.Agent, c scene.Cell, g scene.Goal, st scene.Status) {
		p := grid.Pos{Row: c.Row, Col: c.Col}
		x, y := cam.CellCenter(p)

		if layers.GoalLinks && g.Row >= 0 && !st.AtGoal {
			gx, gy := cam.CellCenter(grid.Pos{Row: g.Row, Col: g.Col})
			rl.DrawLineV(rl.Vector2{X: x, Y: y}, rl.Vector2{X: gx, Y: gy}, fade(r.goal, 160))
		}
		if !cam.IsVisible(p) {
			return
		}

		body := r.agent
		if st.AtGoal {
			body = r.atGoal
		}
		if layers.Collisions && st.Colliding {
			body = r.colliding
		}

		if st.AtGoal {
			r.cross(x, y, radius, body)
		} else {
			rl.DrawCircleV(rl.Vector2{X: x, Y: y}, radius, body)
		}

		if layers.Blocked && st.Blocked {
			rl.DrawCircleLines(int32(x), int32(y), radius+2, rl.Orange)
		}
		if a.Index == selected {
			rl.DrawCircleLines(int32(x), int32(y), radius+4, rl.Yellow)
		}
		if layers.Labels && cam.Zoom >= 14 {
			label := fmt.Sprintf("%d", a.Index)
			w := rl.MeasureText(label, 10)
			rl.DrawText(label, int32(x)-w/2, int32(y)-5, 10, rl.White)
		}
	})
}

func (r *AgentRenderer) cross(x, y, radius float32, c rl.Color) {
	thick := max(radius*0.3, 1)
	rl.DrawLineEx(rl.Vector2{X: x - radius, Y: y - radius}, rl.Vector2{X: x + radius, Y: y + radius}, thick, c)
	rl.DrawLineEx(rl.Vector2{X: x - radius, Y: y + radius}, rl.Vector2{X: x + radius, Y: y - radius}, thick, c)
}

func (r *AgentRenderer) plus(x, y, radius float32, c rl.Color) {
	thick := max(radius*0.25, 1)
	rl.DrawLineEx(rl.Vector2{X: x - radius, Y: y}, rl.Vector2{X: x + radius, Y: y}, thick, c)
	rl.DrawLineEx(rl.Vector2{X: x, Y: y - radius}, rl.Vector2{X: x, Y: y + radius}, thick, c)
}

func toRL(c color.Color) rl.Color {
	r, g, b, a := c.RGBA()
	return rl.Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func fade(c rl.Color, alpha uint8) rl.Color {
	c.A = alpha
	return c
}

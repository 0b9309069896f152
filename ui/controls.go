package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridmapf/scene"
)

// Command is a playback action requested through the controls panel.
type Command int

const (
	CommandNone Command = iota
	CommandToggle
	CommandStep
	CommandRestart
)

// Speed slider bounds in steps per second.
const (
	MinSpeed = 0.5
	MaxSpeed = 60
)

const (
	buttonHeight = 24
	sliderHeight = 16
)

// ControlsPanel renders the playback buttons, the speed slider and the
// overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a visible panel at (x, y).
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{renderer: NewRenderer(), x: x, y: y, width: width, visible: true}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool { return c.visible }

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// height is the box height for the fixed overlay table.
func (c *ControlsPanel) height() int32 {
	th := c.renderer.Theme
	h := th.Padding*2 + th.LineHeight + 4 + buttonHeight + 6 + sliderHeight + 12
	for _, g := range OverlayGroups() {
		h += th.LineHeight*int32(len(OverlaysIn(g))+1) + sectionGap
	}
	return h
}

// Contains reports whether screen point (px, py) lies on the visible panel.
func (c *ControlsPanel) Contains(px, py float32) bool {
	if !c.visible {
		return false
	}
	return rl.CheckCollisionPointRec(rl.Vector2{X: px, Y: py},
		rl.Rectangle{X: float32(c.x), Y: float32(c.y), Width: float32(c.width), Height: float32(c.height())})
}

// Draw renders the panel. Slider changes are written to clock and overlay
// clicks to overlays; button presses are returned for the caller to apply.
func (c *ControlsPanel) Draw(clock *scene.Clock, overlays *OverlaySet) Command {
	if !c.visible {
		return CommandNone
	}
	r := c.renderer
	th := r.Theme
	r.DrawBox(c.x, c.y, c.width, c.height())

	x := c.x + th.Padding
	y := c.y + th.Padding
	rl.DrawText("Playback", x, y, 16, rl.White)
	y += th.LineHeight + 4

	cmd := CommandNone
	btnW := float32(c.width-th.Padding*2-10) / 3
	button := func(i int, label string) bool {
		return gui.Button(rl.Rectangle{
			X: float32(x) + float32(i)*(btnW+5), Y: float32(y), Width: btnW, Height: buttonHeight,
		}, label)
	}
	playLabel := "Pause"
	if clock.Paused {
		playLabel = "Play"
	}
	if button(0, playLabel) {
		cmd = CommandToggle
	}
	if button(1, "Step") {
		cmd = CommandStep
	}
	if button(2, "Reset") {
		cmd = CommandRestart
	}
	y += buttonHeight + 6

	sliderW := float32(c.width - th.Padding*2 - 50)
	clock.StepsPerSecond = gui.SliderBar(
		rl.Rectangle{X: float32(x), Y: float32(y), Width: sliderW, Height: sliderHeight},
		"", "", clock.StepsPerSecond, MinSpeed, MaxSpeed,
	)
	rl.DrawText(fmt.Sprintf("%.1f/s", clock.StepsPerSecond), x+int32(sliderW)+5, y+2, th.FontSize, th.ValueColor)
	y += sliderHeight + 12

	for _, g := range OverlayGroups() {
		y = r.DrawHeader(x, y, groupLabel(g))
		for _, o := range OverlaysIn(g) {
			if c.drawToggle(x, y, o, overlays.Enabled(o), c.width-th.Padding*2) {
				overlays.Toggle(o)
			}
			y += th.LineHeight
		}
		y += sectionGap
	}
	return cmd
}

// drawToggle draws one overlay line and reports whether it was clicked.
func (c *ControlsPanel) drawToggle(x, y int32, o Overlay, enabled bool, width int32) bool {
	th := c.renderer.Theme
	info := o.Info()

	dot, name := th.Dim, th.LabelColor
	if enabled {
		dot, name = th.BarFill, rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, dot)
	rl.DrawText(info.Name, x+14, y, th.FontSize, name)
	if info.KeyLabel != "" {
		key := "[" + info.KeyLabel + "]"
		rl.DrawText(key, x+width-rl.MeasureText(key, th.FontSize), y, th.FontSize, rl.Gray)
	}

	row := rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width), Height: float32(th.LineHeight)}
	return rl.IsMouseButtonPressed(rl.MouseButtonLeft) && rl.CheckCollisionPointRec(rl.GetMousePosition(), row)
}

func groupLabel(g string) string {
	switch g {
	case "map":
		return "Map"
	case "agents":
		return "Agents"
	default:
		return g
	}
}

// Package renderer is the interactive raylib viewer. It draws a scene
// mirrored from a Source and never touches environment state directly.
package renderer

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridmapf/camera"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/scene"
	"github.com/pthm-cable/gridmapf/telemetry"
	"github.com/pthm-cable/gridmapf/ui"
)

// Source feeds the viewer one timestep at a time. rollout.Runner and
// scene.Replay both implement it.
type Source interface {
	Advance(sc *scene.Scene) (done bool, err error)
	Restart(sc *scene.Scene)
}

// Options configures the viewer window.
type Options struct {
	Title          string
	SourceName     string
	Width, Height  int
	TargetFPS      int
	StepsPerSecond float64
	CellSize       int  // initial pixels per cell, 0 fits the grid
	Highlight      bool // start with collision highlighting on
	Last           int  // final timestep of a replay, -1 for a live source

	Perf   func() telemetry.PerfStats // optional
	Logger *slog.Logger
}

const controlsLegend = "SPACE pause | N step | R reset | arrows pan | wheel zoom | HOME fit | TAB panel | click select"

// Viewer owns the window state for one run.
type Viewer struct {
	src   Source
	grid  *grid.Grid
	opts  Options
	scene *scene.Scene
	clock *scene.Clock

	camera    *camera.Camera
	gridDraw  *GridRenderer
	agentDraw *AgentRenderer

	hud       *ui.HUD
	controls  *ui.ControlsPanel
	overlays  *ui.OverlaySet
	inspector *ui.Inspector
	perfPanel *ui.PerfPanel

	selected int
	done     bool
	err      error
}

// New prepares a viewer. No window is opened until Run.
func New(src Source, g *grid.Grid, opts Options) *Viewer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1024, 768
	}
	if opts.TargetFPS <= 0 {
		opts.TargetFPS = 60
	}
	if opts.StepsPerSecond <= 0 {
		opts.StepsPerSecond = 5
	}

	overlays := ui.NewOverlaySet()
	overlays.Set(ui.OverlayCollisions, opts.Highlight)

	cam := camera.New(float32(opts.Width), float32(opts.Height), g.Width(), g.Height())
	if opts.CellSize > 0 {
		cam.SetZoom(float32(opts.CellSize))
	}

	return &Viewer{
		src:       src,
		grid:      g,
		opts:      opts,
		scene:     scene.New(),
		clock:     scene.NewClock(float32(opts.StepsPerSecond)),
		camera:    cam,
		gridDraw:  NewGridRenderer(g),
		agentDraw: NewAgentRenderer(),
		hud:       ui.NewHUD(),
		controls:  ui.NewControlsPanel(10, 120, 240),
		overlays:  overlays,
		inspector: ui.NewInspector(),
		perfPanel: ui.NewPerfPanel(int32(opts.Width)-240, int32(opts.Height)-110),
		selected:  -1,
	}
}

// Run opens the window and blocks until it is closed. It returns the first
// error the source reported.
func (v *Viewer) Run() error {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(v.opts.Width), int32(v.opts.Height), v.opts.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(v.opts.TargetFPS))

	v.gridDraw.Init()
	defer v.gridDraw.Unload()

	v.restart()
	for !rl.WindowShouldClose() && v.err == nil {
		v.handleInput()
		for i := v.clock.Due(rl.GetFrameTime()); i > 0 && !v.done; i-- {
			v.advance()
		}
		v.draw()
	}
	return v.err
}

func (v *Viewer) advance() {
	done, err := v.src.Advance(v.scene)
	if err != nil {
		v.err = fmt.Errorf("viewer: advance: %w", err)
		return
	}
	if done {
		v.done = true
		v.clock.Paused = true
		v.opts.Logger.Info("playback finished", "t", v.scene.Time())
	}
}

func (v *Viewer) restart() {
	v.src.Restart(v.scene)
	v.clock.Reset()
	v.done = false
}

func (v *Viewer) apply(cmd ui.Command) {
	switch cmd {
	case ui.CommandToggle:
		if v.done && v.clock.Paused {
			v.restart()
		}
		v.clock.Toggle()
	case ui.CommandStep:
		v.clock.Paused = true
		if !v.done {
			v.advance()
		}
	case ui.CommandRestart:
		v.restart()
	}
}

// handleInput processes keyboard and mouse input.
func (v *Viewer) handleInput() {
	v.handleResize()

	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		v.apply(ui.CommandToggle)
	case rl.IsKeyPressed(rl.KeyN):
		v.apply(ui.CommandStep)
	case rl.IsKeyPressed(rl.KeyR):
		v.apply(ui.CommandRestart)
	case rl.IsKeyPressed(rl.KeyTab):
		v.controls.Toggle()
	}

	for _, o := range v.overlays.HandleKeys(rl.IsKeyPressed) {
		v.opts.Logger.Debug("overlay toggled", "overlay", o, "on", v.overlays.Enabled(o))
	}

	v.handleCameraInput()

	mouse := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !v.controls.Contains(mouse.X, mouse.Y) {
		v.selected = -1
		if cell, ok := v.camera.CellAt(mouse.X, mouse.Y); ok {
			if i, ok := v.scene.AgentAt(cell.Row, cell.Col); ok {
				v.selected = i
			}
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	v.camera.Resize(w, h)
	v.perfPanel.SetPosition(int32(w)-240, int32(h)-110)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *Viewer) handleCameraInput() {
	const panSpeed = 8

	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
	}
}

func (v *Viewer) draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(rl.Color{R: 30, G: 32, B: 36, A: 255})

	v.gridDraw.Draw(v.camera, v.overlays.Enabled(ui.OverlayGridLines))
	v.agentDraw.Draw(v.scene, v.camera, layersFrom(v.overlays), v.selected)

	atGoal, colliding := v.scene.Counts()
	vertex, edge := v.scene.Collisions()
	v.hud.Draw(ui.HUDData{
		Title:            v.opts.Title,
		Source:           v.opts.SourceName,
		T:                v.scene.Time(),
		Last:             v.opts.Last,
		Agents:           v.scene.Len(),
		AtGoal:           atGoal,
		Colliding:        colliding,
		VertexCollisions: vertex,
		EdgeCollisions:   edge,
		Speed:            v.clock.StepsPerSecond,
		FPS:              rl.GetFPS(),
		Paused:           v.clock.Paused,
	})

	v.apply(v.controls.Draw(v.clock, v.overlays))

	screenW, screenH := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if v.selected >= 0 {
		if cell, goal, st, ok := v.scene.At(v.selected); ok {
			v.inspector.Draw(ui.InspectorData{
				Index: v.selected, Cell: cell, Goal: goal, Status: st, T: v.scene.Time(),
			}, screenW, screenH)
		}
	}
	if v.opts.Perf != nil {
		v.perfPanel.Draw(v.opts.Perf())
	}
	v.hud.DrawControls(screenH, controlsLegend)
}

func layersFrom(o *ui.OverlaySet) AgentLayers {
	return AgentLayers{
		Goals:      o.Enabled(ui.OverlayGoals),
		GoalLinks:  o.Enabled(ui.OverlayGoalLinks),
		Collisions: o.Enabled(ui.OverlayCollisions),
		Blocked:    o.Enabled(ui.OverlayBlocked),
		Labels:     o.Enabled(ui.OverlayLabels),
	}
}

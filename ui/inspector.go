package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridmapf/scene"
)

// InspectorData is the selected agent as mirrored in the scene.
type InspectorData struct {
	Index  int
	Cell   scene.Cell
	Goal   scene.Goal
	Status scene.Status
	T      int
}

// HasGoal reports whether a goal is known for the agent.
func (d InspectorData) HasGoal() bool {
	return d.Goal.Row >= 0 && d.Goal.Col >= 0
}

// Manhattan returns the L1 distance to the goal, or -1 when unknown.
func (d InspectorData) Manhattan() int {
	if !d.HasGoal() {
		return -1
	}
	return absInt(d.Cell.Row-d.Goal.Row) + absInt(d.Cell.Col-d.Goal.Col)
}

// Chebyshev returns the L∞ distance to the goal, or -1 when unknown.
func (d InspectorData) Chebyshev() int {
	if !d.HasGoal() {
		return -1
	}
	return max(absInt(d.Cell.Row-d.Goal.Row), absInt(d.Cell.Col-d.Goal.Col))
}

func cellText(row, col int) string { return fmt.Sprintf("(%d, %d)", row, col) }

var inspectorPanel = Panel[InspectorData]{
	Title:  func(d InspectorData) string { return fmt.Sprintf("Agent %d", d.Index) },
	Width:  220,
	Anchor: AnchorTopRight,
	Sections: []Section[InspectorData]{
		{Rows: []Row[InspectorData]{
			{Label: "Cell", Text: func(d InspectorData) string { return cellText(d.Cell.Row, d.Cell.Col) }},
			{Label: "t", Text: func(d InspectorData) string { return fmt.Sprint(d.T) }},
		}},
		{Title: "Goal", Rows: []Row[InspectorData]{
			{Label: "Cell", Text: func(d InspectorData) string {
				if !d.HasGoal() {
					return "unknown"
				}
				return cellText(d.Goal.Row, d.Goal.Col)
			}},
			{Label: "L1", Show: InspectorData.HasGoal,
				Text: func(d InspectorData) string { return fmt.Sprint(d.Manhattan()) }},
			{Label: "Linf", Show: InspectorData.HasGoal,
				Text: func(d InspectorData) string { return fmt.Sprint(d.Chebyshev()) }},
		}},
		{Title: "Status", Rows: []Row[InspectorData]{
			{Label: "At goal", Widget: WidgetFlag, On: rl.Green,
				Flag: func(d InspectorData) bool { return d.Status.AtGoal }},
			{Label: "Blocked", Widget: WidgetFlag, On: rl.Orange,
				Flag: func(d InspectorData) bool { return d.Status.Blocked }},
			{Label: "Colliding", Widget: WidgetFlag, On: rl.Red,
				Flag: func(d InspectorData) bool { return d.Status.Colliding }},
		}},
	},
}

// Inspector renders the selected-agent panel.
type Inspector struct {
	renderer *Renderer
}

// NewInspector creates a new inspector panel.
func NewInspector() *Inspector {
	return &Inspector{renderer: NewRenderer()}
}

// Draw renders the inspector anchored on a screen of the given size.
func (ins *Inspector) Draw(data InspectorData, screenW, screenH int32) {
	DrawPanel(ins.renderer, inspectorPanel, data, screenW, screenH)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

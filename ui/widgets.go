package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer draws rows with a shared theme.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawBox draws a panel background with border.
func (r *Renderer) DrawBox(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawHeader draws a section title and returns the next y.
func (r *Renderer) DrawHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws "label: value" and returns the next y.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a labelled bar for value in [0, 1] and returns the next y.
func (r *Renderer) DrawBar(x, y int32, label string, value float32, width int32) int32 {
	value = min(max(value, 0), 1)
	th := r.Theme
	barX := x + th.LabelWidth
	barW := width - th.LabelWidth - 40

	rl.DrawText(label+":", x, y, th.FontSize, th.LabelColor)
	rl.DrawRectangle(barX, y+2, barW, th.BarHeight, th.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float32(barW)*value), th.BarHeight, th.BarFill)
	rl.DrawText(fmt.Sprintf("%3.0f%%", value*100), barX+barW+5, y, th.FontSize, th.ValueColor)
	return y + th.LineHeight + 2
}

// DrawFlag draws a label with a swatch lit in on when set.
func (r *Renderer) DrawFlag(x, y int32, label string, set bool, on rl.Color) int32 {
	c := r.Theme.Dim
	if set {
		c = on
	}
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(x+r.Theme.LabelWidth, y+1, 12, 12, c)
	return y + r.Theme.LineHeight
}

func drawRow[T any](r *Renderer, x, y int32, row Row[T], data T, width int32) int32 {
	switch row.Widget {
	case WidgetText:
		text := ""
		if row.Text != nil {
			text = row.Text(data)
		}
		return r.DrawLabelValue(x, y, row.Label, text)
	case WidgetBar:
		var v float32
		if row.Ratio != nil {
			v = row.Ratio(data)
		}
		return r.DrawBar(x, y, row.Label, v, width)
	case WidgetFlag:
		return r.DrawFlag(x, y, row.Label, row.Flag != nil && row.Flag(data), row.On)
	case WidgetHeader:
		return r.DrawHeader(x, y, row.Label)
	case WidgetGap:
		return y + rowHeight(r.Theme, WidgetGap)
	}
	return y
}

// DrawPanel lays out p for data, anchored on a screen of the given size.
func DrawPanel[T any](r *Renderer, p Panel[T], data T, screenW, screenH int32) {
	th := r.Theme
	h := p.Height(th, data)
	x, y := p.Anchor.Place(screenW, screenH, p.Width, h, th.Padding)
	r.DrawBox(x, y, p.Width, h)

	x += th.Padding
	y += th.Padding
	if p.Title != nil {
		rl.DrawText(p.Title(data), x, y, 16, rl.White)
		y += th.LineHeight + 4
	}
	inner := p.Width - th.Padding*2
	for _, s := range p.Sections {
		if !s.visible(data) {
			continue
		}
		if s.Title != "" {
			y = r.DrawHeader(x, y, s.Title)
		}
		for _, row := range s.Rows {
			if row.visible(data) {
				y = drawRow(r, x, y, row, data, inner)
			}
		}
		y += sectionGap
	}
}

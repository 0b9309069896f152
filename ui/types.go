// Package ui draws the viewer's panels: HUD, playback controls, overlay
// toggles and the agent inspector. Panels are declared as typed row lists
// so the layout lives next to the data it shows.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Widget selects how a row is drawn.
type Widget int

const (
	WidgetText   Widget = iota // label and value
	WidgetBar                  // label and a [0, 1] bar
	WidgetFlag                 // label and a lit or dark swatch
	WidgetHeader               // section title
	WidgetGap                  // vertical space
)

// Row is one line of a panel showing data of type T. Only the getter
// matching Widget is used.
type Row[T any] struct {
	Label  string
	Widget Widget
	Text   func(T) string
	Ratio  func(T) float32
	Flag   func(T) bool
	On     rl.Color     // swatch color when Flag is true
	Show   func(T) bool // nil means always
}

func (r Row[T]) visible(data T) bool { return r.Show == nil || r.Show(data) }

// Section is a titled group of rows.
type Section[T any] struct {
	Title string
	Rows  []Row[T]
	Show  func(T) bool
}

func (s Section[T]) visible(data T) bool { return s.Show == nil || s.Show(data) }

// Panel is a boxed stack of sections.
type Panel[T any] struct {
	Title    func(T) string
	Width    int32
	Anchor   Anchor
	Sections []Section[T]
}

// Height returns the box height needed to draw data with th.
func (p Panel[T]) Height(th Theme, data T) int32 {
	h := th.Padding * 2
	if p.Title != nil {
		h += th.LineHeight + 4
	}
	for _, s := range p.Sections {
		if !s.visible(data) {
			continue
		}
		if s.Title != "" {
			h += th.LineHeight
		}
		for _, r := range s.Rows {
			if r.visible(data) {
				h += rowHeight(th, r.Widget)
			}
		}
		h += sectionGap
	}
	return h
}

const sectionGap = 4

func rowHeight(th Theme, w Widget) int32 {
	switch w {
	case WidgetBar:
		return th.LineHeight + 2
	case WidgetGap:
		return 6
	default:
		return th.LineHeight
	}
}

// Anchor is the screen corner a panel is placed against.
type Anchor int

const (
	AnchorTopLeft Anchor = iota
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
)

// Place returns the top-left corner of a w×h box anchored on the screen.
func (a Anchor) Place(screenW, screenH, w, h, margin int32) (x, y int32) {
	switch a {
	case AnchorTopRight:
		return screenW - w - margin, margin
	case AnchorBottomLeft:
		return margin, screenH - h - margin
	case AnchorBottomRight:
		return screenW - w - margin, screenH - h - margin
	default:
		return margin, margin
	}
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	Dim            rl.Color // unlit swatches and disabled toggles
	BarBg          rl.Color
	BarFill        rl.Color
	Alert          rl.Color // collisions and blocked moves
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		Dim:            rl.Color{R: 60, G: 60, B: 60, A: 255},
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 70, G: 170, B: 90, A: 255},
		Alert:          rl.Color{R: 230, G: 60, B: 60, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     70,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}

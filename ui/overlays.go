package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Overlay is a toggleable drawing layer.
type Overlay int

const (
	OverlayGridLines Overlay = iota
	OverlayGoals
	OverlayGoalLinks
	OverlayCollisions
	OverlayBlocked
	OverlayLabels
	numOverlays
)

// OverlayInfo describes one overlay.
type OverlayInfo struct {
	Name     string
	Group    string // "map" or "agents"
	Key      int32
	KeyLabel string
	Default  bool
}

var overlayTable = [numOverlays]OverlayInfo{
	OverlayGridLines:  {Name: "Grid Lines", Group: "map", Key: rl.KeyG, KeyLabel: "G"},
	OverlayGoals:      {Name: "Goals", Group: "map", Key: rl.KeyO, KeyLabel: "O", Default: true},
	OverlayGoalLinks:  {Name: "Goal Links", Group: "agents", Key: rl.KeyL, KeyLabel: "L"},
	OverlayCollisions: {Name: "Collisions", Group: "agents", Key: rl.KeyC, KeyLabel: "C", Default: true},
	OverlayBlocked:    {Name: "Blocked Moves", Group: "agents", Key: rl.KeyB, KeyLabel: "B"},
	OverlayLabels:     {Name: "Agent Labels", Group: "agents", Key: rl.KeyI, KeyLabel: "I"},
}

// Info returns the overlay's metadata.
func (o Overlay) Info() OverlayInfo {
	if o < 0 || o >= numOverlays {
		return OverlayInfo{}
	}
	return overlayTable[o]
}

func (o Overlay) String() string { return o.Info().Name }

// AllOverlays lists overlays in display order.
func AllOverlays() []Overlay {
	out := make([]Overlay, numOverlays)
	for i := range out {
		out[i] = Overlay(i)
	}
	return out
}

// OverlayGroups returns the overlay groups in display order.
func OverlayGroups() []string {
	var groups []string
	seen := map[string]bool{}
	for _, info := range overlayTable {
		if !seen[info.Group] {
			seen[info.Group] = true
			groups = append(groups, info.Group)
		}
	}
	return groups
}

// OverlaysIn returns the overlays of one group.
func OverlaysIn(group string) []Overlay {
	var out []Overlay
	for _, o := range AllOverlays() {
		if overlayTable[o].Group == group {
			out = append(out, o)
		}
	}
	return out
}

// OverlaySet holds which overlays are on.
type OverlaySet struct {
	on [numOverlays]bool
}

// NewOverlaySet starts with each overlay's default state.
func NewOverlaySet() *OverlaySet {
	s := &OverlaySet{}
	for o, info := range overlayTable {
		s.on[o] = info.Default
	}
	return s
}

// Enabled reports whether o is on.
func (s *OverlaySet) Enabled(o Overlay) bool {
	return o >= 0 && o < numOverlays && s.on[o]
}

// Set turns o on or off.
func (s *OverlaySet) Set(o Overlay, on bool) {
	if o >= 0 && o < numOverlays {
		s.on[o] = on
	}
}

// Toggle flips o and returns its new state.
func (s *OverlaySet) Toggle(o Overlay) bool {
	s.Set(o, !s.Enabled(o))
	return s.Enabled(o)
}

// HandleKeys toggles every overlay whose key pressed reports true and
// returns the toggled overlays.
func (s *OverlaySet) HandleKeys(pressed func(key int32) bool) []Overlay {
	var out []Overlay
	for o, info := range overlayTable {
		if info.Key != 0 && pressed(info.Key) {
			s.Toggle(Overlay(o))
			out = append(out, Overlay(o))
		}
	}
	return out
}

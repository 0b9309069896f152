package planner

import (
	"testing"

	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/motion"
)

func mustGrid(t *testing.T, rows ...string) *grid.Grid {
	t.Helper()
	g, err := grid.FromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// checkPath verifies path is a legal walk from start to goal of the given length.
func checkPath(t *testing.T, g *grid.Grid, conn motion.Connectivity, path []grid.Pos, start, goal grid.Pos, wantLen int) {
	t.Helper()
	if len(path) != wantLen {
		t.Fatalf("len(path) = %d, want %d: %v", len(path), wantLen, path)
	}
	if path[0] != start || path[len(path)-1] != goal {
		t.Fatalf("path endpoints %v..%v, want %v..%v", path[0], path[len(path)-1], start, goal)
	}
	for i, p := range path {
		if !g.Passable(p) {
			t.Errorf("step %d at %v is not passable", i, p)
		}
		if i > 0 && !conn.Allows(motion.Between(path[i-1], p)) {
			t.Errorf("step %d %v -> %v is not a legal move", i, path[i-1], p)
		}
	}
}

func TestFindPathOpenGrid(t *testing.T) {
	g := mustGrid(t, ".....", ".....", ".....")
	start, goal := grid.Pos{Row: 0, Col: 0}, grid.Pos{Row: 2, Col: 4}

	checkPath(t, g, motion.Four, NewAStar(g, motion.Four).FindPath(start, goal), start, goal, 7)
	checkPath(t, g, motion.Eight, NewAStar(g, motion.Eight).FindPath(start, goal), start, goal, 5)
}

func TestFindPathAroundWall(t *testing.T) {
	g := mustGrid(t,
		".@...",
		".@.@.",
		"...@.",
	)
	start, goal := grid.Pos{Row: 0, Col: 0}, grid.Pos{Row: 0, Col: 4}
	a := NewAStar(g, motion.Four)
	checkPath(t, g, motion.Four, a.FindPath(start, goal), start, goal, 9)

	// The planner is reusable.
	checkPath(t, g, motion.Four, a.FindPath(goal, start), goal, start, 9)
}

func TestFindPathDiagonalIgnoresCorners(t *testing.T) {
	g := mustGrid(t, ".@", "@.")
	start, goal := grid.Pos{Row: 0, Col: 0}, grid.Pos{Row: 1, Col: 1}

	checkPath(t, g, motion.Eight, NewAStar(g, motion.Eight).FindPath(start, goal), start, goal, 2)
	if p := NewAStar(g, motion.Four).FindPath(start, goal); p != nil {
		t.Errorf("4-connected path through a blocked corner: %v", p)
	}
}

func TestFindPathDegenerate(t *testing.T) {
	g := mustGrid(t, "..@")
	a := NewAStar(g, motion.Four)

	tests := []struct {
		name        string
		start, goal grid.Pos
		wantLen     int
	}{
		{"same cell", grid.Pos{Row: 0, Col: 1}, grid.Pos{Row: 0, Col: 1}, 1},
		{"goal on obstacle", grid.Pos{Row: 0, Col: 0}, grid.Pos{Row: 0, Col: 2}, 0},
		{"start out of bounds", grid.Pos{Row: -1, Col: 0}, grid.Pos{Row: 0, Col: 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.FindPath(tt.start, tt.goal); len(got) != tt.wantLen {
				t.Errorf("FindPath = %v, want length %d", got, tt.wantLen)
			}
		})
	}
}

func TestPlanAll(t *testing.T) {
	g := mustGrid(t, "...", "@@@", "...")
	starts := []grid.Pos{{Row: 0, Col: 0}, {Row: 0, Col: 0}}
	goals := []grid.Pos{{Row: 0, Col: 2}, {Row: 2, Col: 2}}

	paths := PlanAll(g, motion.Four, starts, goals)
	if len(paths) != 2 {
		t.Fatalf("len = %d", len(paths))
	}
	if len(paths[0]) != 3 {
		t.Errorf("paths[0] = %v", paths[0])
	}
	if paths[1] != nil {
		t.Errorf("unreachable goal got path %v", paths[1])
	}
}

// Package grid provides the immutable cell matrix agents move on, plus
// loaders for MovingAI map and scenario files.
package grid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFormat is returned when map or scenario input is malformed.
var ErrFormat = errors.New("grid: malformed input")

// Cell is the state of a single grid cell.
type Cell uint8

const (
	Free Cell = iota
	Obstacle
)

// Pos is a (row, col) coordinate. It may lie outside any particular grid.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// Grid is an H×W matrix of cells. It exposes no mutators, so a *Grid can be
// shared freely between environments, snapshots and validators.
type Grid struct {
	height int
	width  int
	cells  []Cell // row-major
}

// New builds a grid from row-major cells. The slice is copied.
func New(height, width int, cells []Cell) (*Grid, error) {
	if height < 0 || width < 0 {
		return nil, fmt.Errorf("%w: negative dimensions %dx%d", ErrFormat, height, width)
	}
	if len(cells) != height*width {
		return nil, fmt.Errorf("%w: %d cells for %dx%d grid", ErrFormat, len(cells), height, width)
	}
	c := make([]Cell, len(cells))
	copy(c, cells)
	return &Grid{height: height, width: width, cells: c}, nil
}

// FromRows builds a grid from character rows: '.' is free, anything else is
// an obstacle. All rows must have the same length.
func FromRows(rows []string) (*Grid, error) {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}
	cells := make([]Cell, 0, height*width)
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrFormat, r, len(row), width)
		}
		for i := 0; i < len(row); i++ {
			cells = append(cells, cellFromChar(row[i]))
		}
	}
	return &Grid{height: height, width: width, cells: cells}, nil
}

// cellFromChar maps a MovingAI terrain character to a cell state.
// '@' and 'T' are obstacles; unrecognized characters are treated as obstacles too.
func cellFromChar(ch byte) Cell {
	if ch == '.' {
		return Free
	}
	return Obstacle
}

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < g.height && p.Col >= 0 && p.Col < g.width
}

// At returns the cell at p. p must be in bounds.
func (g *Grid) At(p Pos) Cell {
	return g.cells[p.Row*g.width+p.Col]
}

// Passable reports whether p is in bounds and free.
func (g *Grid) Passable(p Pos) bool {
	return g.InBounds(p) && g.At(p) == Free
}

// FreeCount returns the number of free cells.
func (g *Grid) FreeCount() int {
	n := 0
	for _, c := range g.cells {
		if c == Free {
			n++
		}
	}
	return n
}

// Rows renders the grid back to '.'/'@' character rows.
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	var b strings.Builder
	for r := 0; r < g.height; r++ {
		b.Reset()
		for c := 0; c < g.width; c++ {
			if g.cells[r*g.width+c] == Free {
				b.WriteByte('.')
			} else {
				b.WriteByte('@')
			}
		}
		rows[r] = b.String()
	}
	return rows
}
